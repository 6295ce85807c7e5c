// internal/handlers/seat_session.go
package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/parlourgames/monopoly/internal/game"
	"github.com/sirupsen/logrus"
)

// actionMsg is one decoded action from a client, queued for the engine.
type actionMsg struct {
	Action game.Action
	Ctx    game.ActionContext
}

// seatSession bridges the engine's synchronous Decider model and a seat's
// WebSocket connection. Decide pushes the prompt out over the wire and blocks
// until the read loop delivers the client's answer; the engine's decide
// timeout substitutes a default if nothing arrives in time.
//
// Each prompt gets its own one-shot channel, so an answer that arrives after
// the engine gave up on its prompt is absorbed instead of being misread as
// the answer to a later one.
type seatSession struct {
	seat   int
	logger *logrus.Logger

	mu      sync.Mutex
	conn    *websocket.Conn
	pending chan actionMsg
}

func newSeatSession(seat int, logger *logrus.Logger) *seatSession {
	return &seatSession{
		seat:   seat,
		logger: logger,
	}
}

// attach binds a connection (initial connect or reconnect) and reports
// whether a previous connection was replaced.
func (s *seatSession) attach(c *websocket.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	replaced := s.conn != nil
	s.conn = c
	return replaced
}

// detach clears the connection if it is still the given one.
func (s *seatSession) detach(c *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == c {
		s.conn = nil
	}
}

func (s *seatSession) connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

// send writes one event to the seat's client, if connected. Uses a short
// write timeout so a stalled client cannot block the turn loop.
func (s *seatSession) send(ev game.GameEvent) {
	s.mu.Lock()
	c := s.conn
	s.mu.Unlock()
	if c == nil {
		return
	}

	data := game.ConvertEventToBytes(ev)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := c.Write(ctx, websocket.MessageText, data); err != nil {
		s.logger.Warnf("Failed to write %s event to seat %d: %v", ev.Type, s.seat, err)
	}
}

// deliver hands a client action to the currently pending prompt. Actions
// with no prompt outstanding (late answers, spam) are dropped.
func (s *seatSession) deliver(msg actionMsg) {
	s.mu.Lock()
	ch := s.pending
	s.pending = nil
	s.mu.Unlock()

	if ch == nil {
		s.logger.Debugf("Seat %d sent action %s with no prompt outstanding. Dropping.", s.seat, msg.Action)
		return
	}
	ch <- msg // buffered; never blocks
}

// Decide implements game.Decider.
func (s *seatSession) Decide(p game.Prompt) (game.Action, game.ActionContext) {
	// A seat with no live connection plays a random legal move rather than
	// stalling the game until the decision deadline.
	if !s.connected() {
		return game.RandomDecider{}.Decide(p)
	}

	ch := make(chan actionMsg, 1)

	s.mu.Lock()
	if s.pending != nil {
		// A prior prompt was abandoned (engine timed out). Release its
		// waiter before replacing it.
		close(s.pending)
	}
	s.pending = ch
	s.mu.Unlock()

	s.send(game.PromptEvent(p))

	msg, ok := <-ch
	if !ok {
		// Superseded; the engine has already substituted a default for this
		// prompt, so the answer is discarded.
		return game.ActionEndTurn, game.ActionContext{}
	}
	return msg.Action, msg.Ctx
}
