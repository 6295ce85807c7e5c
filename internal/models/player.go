package models

import (
	"github.com/coder/websocket"
	"github.com/google/uuid"
)

// Player is one seat at the table. Index is the seat number used throughout
// the engine's state arrays; Token is the secret key a client must present
// with every action request.
type Player struct {
	Index     int             `json:"index"`
	Name      string          `json:"name"`
	Token     uuid.UUID       `json:"-"`
	Connected bool            `json:"connected"`
	Conn      *websocket.Conn `json:"-"`

	User *User `json:"-"`
}
