// Package sqlite persists game records and turn histories to a local
// sqlite database. Only setup and the ordered turn list are durable;
// sheets and resolution annotations are rebuilt by replay on load.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/pmarlowe/sleuth/internal/models"
)

// ErrNotFound is returned when a game id has no record.
var ErrNotFound = errors.New("game not found")

const schema = `
CREATE TABLE IF NOT EXISTS games (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	suspects   INTEGER NOT NULL,
	weapons    INTEGER NOT NULL,
	rooms      INTEGER NOT NULL,
	players    TEXT NOT NULL,
	hand       TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS turns (
	game_id TEXT NOT NULL,
	number  INTEGER NOT NULL,
	actor   INTEGER NOT NULL,
	guess   TEXT,
	PRIMARY KEY (game_id, number),
	FOREIGN KEY (game_id) REFERENCES games(id) ON DELETE CASCADE
);
`

// Store provides a sqlite-backed store for games and their turn logs.
type Store struct {
	sqlDB *sql.DB
}

// Open opens (or creates) a sqlite store at the provided path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the underlying sqlite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// PutGame inserts or updates a game record.
func (s *Store) PutGame(ctx context.Context, rec models.GameRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if rec.ID == uuid.Nil {
		return fmt.Errorf("game id is required")
	}

	players, err := json.Marshal(rec.Players)
	if err != nil {
		return fmt.Errorf("marshal players: %w", err)
	}
	hand, err := json.Marshal(rec.Hand)
	if err != nil {
		return fmt.Errorf("marshal hand: %w", err)
	}

	_, err = s.sqlDB.ExecContext(ctx, `
		INSERT INTO games (id, name, suspects, weapons, rooms, players, hand, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			players = excluded.players,
			hand = excluded.hand,
			updated_at = excluded.updated_at`,
		rec.ID.String(), rec.Name, rec.Suspects, rec.Weapons, rec.Rooms,
		string(players), string(hand), rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("put game: %w", err)
	}
	return nil
}

// AppendTurn persists one turn of a game's history.
func (s *Store) AppendTurn(ctx context.Context, gameID uuid.UUID, turn models.Turn) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	guess, err := marshalGuess(turn.Guess)
	if err != nil {
		return err
	}
	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO turns (game_id, number, actor, guess) VALUES (?, ?, ?, ?)`,
		gameID.String(), turn.Number, turn.Actor, guess)
	if err != nil {
		return fmt.Errorf("append turn: %w", err)
	}
	return nil
}

// ReplaceTurns atomically swaps a game's whole turn log. Used after a
// history edit, which rewrites every turn downstream of the change.
func (s *Store) ReplaceTurns(ctx context.Context, gameID uuid.UUID, turns []models.Turn) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace turns: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM turns WHERE game_id = ?`, gameID.String()); err != nil {
		return fmt.Errorf("clear turns: %w", err)
	}
	for _, turn := range turns {
		guess, err := marshalGuess(turn.Guess)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO turns (game_id, number, actor, guess) VALUES (?, ?, ?, ?)`,
			gameID.String(), turn.Number, turn.Actor, guess); err != nil {
			return fmt.Errorf("insert turn %d: %w", turn.Number, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace turns: %w", err)
	}
	return nil
}

// LoadGame returns a game record and its ordered turn log.
func (s *Store) LoadGame(ctx context.Context, gameID uuid.UUID) (models.GameRecord, []models.Turn, error) {
	if err := ctx.Err(); err != nil {
		return models.GameRecord{}, nil, err
	}
	if s == nil || s.sqlDB == nil {
		return models.GameRecord{}, nil, fmt.Errorf("storage is not configured")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
		SELECT id, name, suspects, weapons, rooms, players, hand, created_at, updated_at
		FROM games WHERE id = ?`, gameID.String())

	var rec models.GameRecord
	var id, players, hand string
	err := row.Scan(&id, &rec.Name, &rec.Suspects, &rec.Weapons, &rec.Rooms,
		&players, &hand, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.GameRecord{}, nil, fmt.Errorf("%w: %s", ErrNotFound, gameID)
	}
	if err != nil {
		return models.GameRecord{}, nil, fmt.Errorf("load game: %w", err)
	}
	rec.ID, err = uuid.Parse(id)
	if err != nil {
		return models.GameRecord{}, nil, fmt.Errorf("parse game id: %w", err)
	}
	if err := json.Unmarshal([]byte(players), &rec.Players); err != nil {
		return models.GameRecord{}, nil, fmt.Errorf("unmarshal players: %w", err)
	}
	if err := json.Unmarshal([]byte(hand), &rec.Hand); err != nil {
		return models.GameRecord{}, nil, fmt.Errorf("unmarshal hand: %w", err)
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT number, actor, guess FROM turns WHERE game_id = ? ORDER BY number`, gameID.String())
	if err != nil {
		return models.GameRecord{}, nil, fmt.Errorf("load turns: %w", err)
	}
	defer rows.Close()

	var turns []models.Turn
	for rows.Next() {
		var turn models.Turn
		var guess sql.NullString
		if err := rows.Scan(&turn.Number, &turn.Actor, &guess); err != nil {
			return models.GameRecord{}, nil, fmt.Errorf("scan turn: %w", err)
		}
		if guess.Valid {
			turn.Guess = &models.Guess{}
			if err := json.Unmarshal([]byte(guess.String), turn.Guess); err != nil {
				return models.GameRecord{}, nil, fmt.Errorf("unmarshal turn %d guess: %w", turn.Number, err)
			}
		}
		turns = append(turns, turn)
	}
	if err := rows.Err(); err != nil {
		return models.GameRecord{}, nil, fmt.Errorf("iterate turns: %w", err)
	}
	return rec, turns, nil
}

// ListGames returns every stored game record, most recently updated first.
func (s *Store) ListGames(ctx context.Context) ([]models.GameRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
		SELECT id, name, suspects, weapons, rooms, players, hand, created_at, updated_at
		FROM games ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	var out []models.GameRecord
	for rows.Next() {
		var rec models.GameRecord
		var id, players, hand string
		if err := rows.Scan(&id, &rec.Name, &rec.Suspects, &rec.Weapons, &rec.Rooms,
			&players, &hand, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		rec.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("parse game id: %w", err)
		}
		if err := json.Unmarshal([]byte(players), &rec.Players); err != nil {
			return nil, fmt.Errorf("unmarshal players: %w", err)
		}
		if err := json.Unmarshal([]byte(hand), &rec.Hand); err != nil {
			return nil, fmt.Errorf("unmarshal hand: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate games: %w", err)
	}
	return out, nil
}

// marshalGuess encodes an optional guess; a pass stores SQL NULL.
func marshalGuess(g *models.Guess) (any, error) {
	if g == nil {
		return nil, nil
	}
	data, err := json.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("marshal guess: %w", err)
	}
	return string(data), nil
}
