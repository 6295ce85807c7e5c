// internal/handlers/game_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/parlourgames/monopoly/internal/game"
	"github.com/parlourgames/monopoly/internal/middleware"
	"github.com/sirupsen/logrus"
)

// GameMessage is the structure for incoming WebSocket messages during play.
type GameMessage struct {
	Type string `json:"type"`

	// Action names the requested move when Type is "action".
	Action string `json:"action,omitempty"`

	// Context carries the action payload (property index, bid, flag, trade).
	Context *game.ActionContext `json:"context,omitempty"`

	// TradeLine optionally encodes a trade offer in the compact pipe format
	// instead of Context.Trade.
	TradeLine string `json:"tradeLine,omitempty"`
}

// GameWSHandler upgrades the HTTP connection to WebSocket for one seat of a
// game. The client authenticates with its seat token
// (/game/ws/{game_id}?token={seat_token}); once every seat is connected the
// engine starts and prompts begin to flow.
func GameWSHandler(logger *logrus.Logger, gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pathParts := strings.Split(strings.TrimPrefix(r.URL.Path, "/game/ws/"), "/")
		if len(pathParts) < 1 || pathParts[0] == "" {
			http.Error(w, "Missing game_id in path (/game/ws/{game_id})", http.StatusBadRequest)
			return
		}
		gameID, err := uuid.Parse(pathParts[0])
		if err != nil {
			http.Error(w, "Invalid game_id format", http.StatusBadRequest)
			return
		}

		e, ok := gs.GameStore.GetGame(gameID)
		if !ok {
			http.Error(w, "Game not found", http.StatusNotFound)
			return
		}

		token, err := uuid.Parse(r.URL.Query().Get("token"))
		if err != nil {
			http.Error(w, "Missing or invalid seat token", http.StatusUnauthorized)
			return
		}

		sess := gs.sessionFor(e, token)
		if sess == nil {
			logger.Warnf("Unknown seat token for game %s from %s", gameID, r.RemoteAddr)
			http.Error(w, "Seat token does not match this game", http.StatusForbidden)
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"game"},
			OriginPatterns: []string{"*"}, // Adjust for production security.
		})
		if err != nil {
			logger.Warnf("WebSocket accept error for game %s: %v", gameID, err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "Internal server error during handler exit.")

		if c.Subprotocol() != "game" {
			logger.Warnf("Client for game %s connected with invalid subprotocol: %s", gameID, c.Subprotocol())
			c.Close(BadSubprotocolError, "Client must use the 'game' subprotocol.")
			return
		}

		seat := sess.seat
		replaced := sess.attach(c)
		middleware.LogSeatConnect(logger, gameID.String(), seat, r.RemoteAddr, replaced)
		e.Players()[seat].Connected = true
		e.Players()[seat].Conn = c

		// Send a state snapshot so the client can render immediately.
		sess.send(game.GameEvent{Type: game.EventGameSync, Seat: seat, State: e.GetGameState()})

		gs.maybeStart(e)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		readGameMessages(ctx, c, sess, logger)

		middleware.LogSeatDisconnect(logger, gameID.String(), seat)
		sess.detach(c)
		e.Players()[seat].Connected = false
	}
}

// readGameMessages continuously reads messages from a client's WebSocket
// connection, decodes them, and delivers actions to the seat's pending
// prompt. Exits on error or context cancellation.
func readGameMessages(ctx context.Context, c *websocket.Conn, sess *seatSession, logger *logrus.Logger) {
	for {
		msgType, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				logger.Infof("WebSocket closed normally for seat %d.", sess.seat)
			} else if strings.Contains(err.Error(), "context canceled") {
				logger.Infof("WebSocket context canceled for seat %d.", sess.seat)
			} else {
				logger.Warnf("Error reading from WebSocket for seat %d: %v (Status: %d)", sess.seat, err, status)
			}
			return
		}

		if msgType != websocket.MessageText {
			logger.Warnf("Received non-text message type %d from seat %d. Ignoring.", msgType, sess.seat)
			continue
		}

		var msg GameMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Warnf("Invalid JSON from seat %d: %v. Data: %s", sess.seat, err, string(data))
			sendWsError(ctx, c, "Invalid JSON format.")
			continue
		}

		switch msg.Type {
		case "action":
			actx := game.ActionContext{}
			if msg.Context != nil {
				actx = *msg.Context
			}
			if msg.TradeLine != "" {
				t, err := game.ParseTradeLine(msg.TradeLine)
				if err != nil {
					logger.Warnf("Seat %d sent a bad trade line: %v", sess.seat, err)
					sendWsError(ctx, c, "Invalid trade line.")
					continue
				}
				actx.Trade = t
			}
			sess.deliver(actionMsg{Action: game.Action(msg.Action), Ctx: actx})

		case "ping":
			sendWsMessage(ctx, c, map[string]string{"type": "pong"})

		default:
			logger.Warnf("Unknown message type '%s' from seat %d.", msg.Type, sess.seat)
			sendWsError(ctx, c, fmt.Sprintf("Unknown message type: %s", msg.Type))
		}

		select {
		case <-ctx.Done():
			logger.Infof("Context canceled after processing message for seat %d.", sess.seat)
			return
		default:
		}
	}
}

// sendWsMessage marshals a message and sends it to the WebSocket client.
// Includes logging for errors and uses a write timeout.
func sendWsMessage(ctx context.Context, c *websocket.Conn, message interface{}) {
	if c == nil {
		log.Println("Error: Attempted to send WebSocket message on nil connection.")
		return
	}
	msgBytes, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling WebSocket message: %v", err)
		return
	}

	writeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = c.Write(writeCtx, websocket.MessageText, msgBytes)
	if err != nil {
		status := websocket.CloseStatus(err)
		if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && !strings.Contains(err.Error(), "context deadline exceeded") {
			log.Printf("Error writing WebSocket message: %v (Status: %d)", err, status)
		} else if strings.Contains(err.Error(), "context deadline exceeded") {
			log.Printf("Timeout writing WebSocket message: %v", err)
		}
	}
}

// sendWsError sends a structured error message to the client.
func sendWsError(ctx context.Context, c *websocket.Conn, errorMsg string) {
	sendWsMessage(ctx, c, map[string]interface{}{
		"type":    "error",
		"message": errorMsg,
	})
}
