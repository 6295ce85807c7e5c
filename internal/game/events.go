// internal/game/events.go
package game

// GameEventType is an enum-like type for messages pushed to clients.
type GameEventType string

const (
	// EventGamePrompt asks a seat for a decision; carries the legal actions
	// and a state snapshot.
	EventGamePrompt GameEventType = "game_prompt"
	// EventGameOutput is informational text for one seat (card draws, jail
	// notices, bankruptcy).
	EventGameOutput GameEventType = "game_output"
	// EventGameSync is a full state snapshot sent on connect/reconnect.
	EventGameSync GameEventType = "game_sync"
	// EventGameEnd announces the result.
	EventGameEnd GameEventType = "game_end"
	// EventGameError reports a rejected client message.
	EventGameError GameEventType = "game_error"
)

// GameEvent is the envelope for everything the server pushes to a client.
type GameEvent struct {
	Type GameEventType `json:"type"`
	Seat int           `json:"seat"`

	Message      string     `json:"message,omitempty"`
	LegalActions []Action   `json:"legalActions,omitempty"`
	State        *GameState `json:"state,omitempty"`

	WinnerSeat *int `json:"winnerSeat,omitempty"`

	Payload map[string]interface{} `json:"payload,omitempty"`
}

// PromptEvent builds the decision request pushed to a seat's client.
func PromptEvent(p Prompt) GameEvent {
	legal := make([]Action, 0, len(p.LegalActions))
	for a := range p.LegalActions {
		legal = append(legal, a)
	}
	return GameEvent{
		Type:         EventGamePrompt,
		Seat:         p.PlayerIndex,
		Message:      p.Message,
		LegalActions: legal,
		State:        p.State,
	}
}
