// internal/handlers/game_server.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/parlourgames/monopoly/internal/database"
	"github.com/parlourgames/monopoly/internal/game"
	"github.com/parlourgames/monopoly/internal/models"
	"github.com/sirupsen/logrus"
)

// GameServer owns the in-memory games and their per-seat WebSocket sessions.
type GameServer struct {
	Mutex     sync.Mutex
	GameStore *game.GameStore
	Logger    *logrus.Logger

	sessions map[uuid.UUID][]*seatSession
	started  map[uuid.UUID]bool
}

func NewGameServer(logger *logrus.Logger) *GameServer {
	return &GameServer{
		GameStore: game.NewGameStore(),
		Logger:    logger,
		sessions:  make(map[uuid.UUID][]*seatSession),
		started:   make(map[uuid.UUID]bool),
	}
}

// ServeHTTP routes the non-WebSocket game endpoints.
func (gs *GameServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/game/create" && r.Method == http.MethodPost {
		gs.handleCreateGame(w, r)
		return
	}
	if strings.HasPrefix(r.URL.Path, "/game/state/") && r.Method == http.MethodGet {
		gs.handleGameState(w, r)
		return
	}
	http.Error(w, "unsupported route, use /game/ws/{id} for websockets", http.StatusNotFound)
}

type createGameRequest struct {
	PlayerNames []string               `json:"playerNames"`
	HouseRules  map[string]interface{} `json:"houseRules,omitempty"`

	// UserIDs optionally binds seats to registered accounts, in seat order,
	// so win/loss stats accrue. uuid.Nil entries stay anonymous.
	UserIDs []uuid.UUID `json:"userIds,omitempty"`
}

type createGameSeat struct {
	Seat  int       `json:"seat"`
	Name  string    `json:"name"`
	Token uuid.UUID `json:"token"`
}

// handleCreateGame builds a new engine with one seat per requested player and
// returns the seat tokens the clients must present on the WebSocket.
func (gs *GameServer) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if len(req.PlayerNames) < 2 || len(req.PlayerNames) > 8 {
		http.Error(w, "playerNames must list 2-8 players", http.StatusBadRequest)
		return
	}

	e := game.NewEngine()
	if v := os.Getenv("MONOPOLY_DECIDE_TIMEOUT"); v != "" {
		if sec, err := strconv.Atoi(v); err == nil && sec >= 0 {
			e.HouseRules.DecideTimeoutSec = sec
		} else {
			gs.Logger.Warnf("Ignoring invalid MONOPOLY_DECIDE_TIMEOUT %q", v)
		}
	}
	if req.HouseRules != nil {
		if err := e.HouseRules.Update(req.HouseRules); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	sessions := make([]*seatSession, 0, len(req.PlayerNames))
	seats := make([]createGameSeat, 0, len(req.PlayerNames))
	for i, name := range req.PlayerNames {
		sess := newSeatSession(i, gs.Logger)
		p := &models.Player{Name: name}
		if i < len(req.UserIDs) && req.UserIDs[i] != uuid.Nil {
			p.User = &models.User{ID: req.UserIDs[i]}
		}
		e.AddPlayer(p, sess)
		sessions = append(sessions, sess)
		seats = append(seats, createGameSeat{Seat: p.Index, Name: name, Token: p.Token})
	}

	e.OutputFn = func(seat int, msg string) {
		sessions[seat].send(game.GameEvent{Type: game.EventGameOutput, Seat: seat, Message: msg})
	}
	e.OnGameEnd = gs.makeOnGameEnd(e.Players(), sessions)

	gs.Mutex.Lock()
	gs.GameStore.AddGame(e)
	gs.sessions[e.ID] = sessions
	gs.Mutex.Unlock()

	gs.Logger.Infof("Created game %s with %d seats", e.ID, len(seats))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"game_id": e.ID,
		"seats":   seats,
	})
}

// handleGameState returns a snapshot for spectators and debugging.
func (gs *GameServer) handleGameState(w http.ResponseWriter, r *http.Request) {
	idStr := strings.TrimPrefix(r.URL.Path, "/game/state/")
	gameID, err := uuid.Parse(idStr)
	if err != nil {
		http.Error(w, "invalid game id", http.StatusBadRequest)
		return
	}
	e, ok := gs.GameStore.GetGame(gameID)
	if !ok {
		http.Error(w, "game not found", http.StatusNotFound)
		return
	}

	state := e.GetGameState()
	if state == nil {
		http.Error(w, "game has not started", http.StatusConflict)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(state)
}

// makeOnGameEnd builds the end-of-game callback: broadcast the result to
// every connected seat, persist the outcome, and accrue stats for seats
// bound to registered accounts.
func (gs *GameServer) makeOnGameEnd(players []*models.Player, sessions []*seatSession) game.OnGameEndFunc {
	return func(gameID uuid.UUID, winnerSeat int, finalState *game.GameState) {
		ev := game.GameEvent{
			Type:       game.EventGameEnd,
			WinnerSeat: &winnerSeat,
			State:      finalState,
		}
		for _, sess := range sessions {
			sess.send(ev)
		}

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := database.RecordGameResult(ctx, gameID, winnerSeat); err != nil {
				gs.Logger.Errorf("Failed to record result for game %s: %v", gameID, err)
			}
			for _, p := range players {
				if p.User == nil {
					continue
				}
				if err := database.IncrementUserGameStats(ctx, p.User.ID, p.Index == winnerSeat); err != nil {
					gs.Logger.Errorf("Failed to update stats for user %s: %v", p.User.ID, err)
				}
			}
		}()
	}
}

// maybeStart starts the engine once every seat has a live connection.
func (gs *GameServer) maybeStart(e *game.Engine) {
	gs.Mutex.Lock()
	defer gs.Mutex.Unlock()

	if gs.started[e.ID] {
		return
	}
	for _, sess := range gs.sessions[e.ID] {
		if !sess.connected() {
			return
		}
	}
	gs.started[e.ID] = true

	e.Start()
	go func() {
		e.Run()
		gs.Mutex.Lock()
		delete(gs.sessions, e.ID)
		delete(gs.started, e.ID)
		gs.Mutex.Unlock()
		gs.GameStore.DeleteGame(e.ID)
		gs.Logger.Infof("Game %s finished and was removed from the store", e.ID)
	}()
	gs.Logger.Infof("All seats connected; game %s started", e.ID)
}

// sessionFor resolves a seat session by game and seat token.
func (gs *GameServer) sessionFor(e *game.Engine, token uuid.UUID) *seatSession {
	for _, p := range e.Players() {
		if p.Token == token {
			gs.Mutex.Lock()
			defer gs.Mutex.Unlock()
			sessions := gs.sessions[e.ID]
			if p.Index < len(sessions) {
				return sessions[p.Index]
			}
			return nil
		}
	}
	return nil
}
