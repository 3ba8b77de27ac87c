// Package store archives finished games in Postgres.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/drawguess/internal/protocol"
	"example.com/drawguess/internal/session"
)

var ErrNotFound = errors.New("game not found")

type GameRecord struct {
	ID        string
	RoomCode  string
	StartedAt time.Time
	EndedAt   time.Time
	Rounds    int
	Settings  protocol.Settings
	Standings []protocol.Standing
}

type ResultsStore struct {
	db *pgxpool.Pool
}

func NewResultsStore(db *pgxpool.Pool) *ResultsStore {
	return &ResultsStore{db: db}
}

// Save writes one finished game and its standings. Saving the same game
// twice is a no-op.
func (s *ResultsStore) Save(ctx context.Context, roomCode string, r session.Result) error {
	settings, err := json.Marshal(r.Settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		INSERT INTO games (id, room_code, started_at, ended_at, rounds, settings)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`, r.GameID, roomCode, r.StartedAt, r.EndedAt, r.Rounds, settings)
	if err != nil {
		return fmt.Errorf("insert game: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, st := range r.Standings {
		batch.Queue(`
			INSERT INTO game_players (game_id, player_id, name, score, rank)
			VALUES ($1, $2, $3, $4, $5)
		`, r.GameID, st.PlayerID, st.PlayerName, st.Score, st.Rank)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert standings: %w", err)
	}
	return tx.Commit(ctx)
}

func (s *ResultsStore) Get(ctx context.Context, gameID string) (GameRecord, error) {
	var (
		g        GameRecord
		settings []byte
	)
	err := s.db.QueryRow(ctx, `
		SELECT id::text, room_code, started_at, ended_at, rounds, settings
		FROM games
		WHERE id=$1
	`, gameID).Scan(&g.ID, &g.RoomCode, &g.StartedAt, &g.EndedAt, &g.Rounds, &settings)
	if errors.Is(err, pgx.ErrNoRows) {
		return GameRecord{}, ErrNotFound
	}
	if err != nil {
		return GameRecord{}, err
	}
	if err := json.Unmarshal(settings, &g.Settings); err != nil {
		return GameRecord{}, fmt.Errorf("decode settings: %w", err)
	}

	g.Standings, err = s.standings(ctx, gameID)
	if err != nil {
		return GameRecord{}, err
	}
	return g, nil
}

func (s *ResultsStore) standings(ctx context.Context, gameID string) ([]protocol.Standing, error) {
	rows, err := s.db.Query(ctx, `
		SELECT rank, player_id, name, score
		FROM game_players
		WHERE game_id=$1
		ORDER BY rank
	`, gameID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (protocol.Standing, error) {
		var st protocol.Standing
		err := row.Scan(&st.Rank, &st.PlayerID, &st.PlayerName, &st.Score)
		return st, err
	})
}

// Recent lists the newest games first, without standings.
func (s *ResultsStore) Recent(ctx context.Context, limit int) ([]GameRecord, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id::text, room_code, started_at, ended_at, rounds
		FROM games
		ORDER BY ended_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (GameRecord, error) {
		var g GameRecord
		err := row.Scan(&g.ID, &g.RoomCode, &g.StartedAt, &g.EndedAt, &g.Rounds)
		return g, err
	})
}
