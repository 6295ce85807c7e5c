package game

import (
	"sync"

	"github.com/google/uuid"
)

// GameStore is the in-memory registry of live engines.
type GameStore struct {
	mu    sync.Mutex
	games map[uuid.UUID]*Engine
}

func NewGameStore() *GameStore {
	return &GameStore{
		games: make(map[uuid.UUID]*Engine),
	}
}

func (s *GameStore) AddGame(e *Engine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[e.ID] = e
}

func (s *GameStore) GetGame(id uuid.UUID) (*Engine, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, exists := s.games[id]
	return e, exists
}

func (s *GameStore) DeleteGame(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.games, id)
}
