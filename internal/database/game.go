// internal/database/game.go
package database

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// RecordGameResult marks the game completed and stores the winning seat.
// winnerSeat is -1 when no solvent player remained.
func RecordGameResult(ctx context.Context, gameID uuid.UUID, winnerSeat int) error {
	if DB == nil {
		return nil
	}
	q := `
		INSERT INTO games (id, status, winner_seat, end_time)
		VALUES ($1, 'completed', $2, NOW())
		ON CONFLICT (id)
		DO UPDATE SET status='completed', winner_seat=$2, end_time=NOW()
	`
	err := pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, e := tx.Exec(ctx, q, gameID, winnerSeat)
		return e
	})
	if err != nil {
		return fmt.Errorf("tx record game result: %w", err)
	}
	return nil
}

// StoreFinalGameStateInDB updates the games.final_game_state column with the
// closing snapshot (board ownership, cash, winner).
func StoreFinalGameStateInDB(ctx context.Context, gameID uuid.UUID, finalSnapshot map[string]interface{}) error {
	if DB == nil {
		return nil
	}
	jsonData, err := json.Marshal(finalSnapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal final snapshot: %w", err)
	}
	query := `
		UPDATE games
		SET final_game_state = $1
		WHERE id = $2
	`
	err = pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, e := tx.Exec(ctx, query, jsonData, gameID)
		return e
	})
	if err != nil {
		return fmt.Errorf("storing final game state in DB: %w", err)
	}
	return nil
}

// UpsertInitialGameState stores the opening snapshot (seat names, starting
// position) into games.initial_game_state so the action log can be replayed
// from a known base.
func UpsertInitialGameState(gameID uuid.UUID, initialData interface{}) {
	// Persistence is optional; games run in-memory without a pool.
	if DB == nil {
		return
	}
	ctx := context.Background()
	dataBytes, err := json.Marshal(initialData)
	if err != nil {
		log.Printf("failed to marshal initial game state for game %v: %v", gameID, err)
		return
	}
	_ = pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		q := `
			INSERT INTO games (id, status, initial_game_state, start_time)
			VALUES ($1, 'in_progress', $2, NOW())
			ON CONFLICT (id)
			DO UPDATE SET initial_game_state = EXCLUDED.initial_game_state, status='in_progress'
		`
		_, e := tx.Exec(ctx, q, gameID, dataBytes)
		return e
	})
}
