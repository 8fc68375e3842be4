package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"board-tracker/internal/errors"
	"board-tracker/internal/models"
)

// SQLiteStore implements ControllerStore using SQLite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens or creates the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single row is written at a time; one connection avoids lock contention.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{
		db:  db,
		now: time.Now,
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates all required tables.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- The agent holds exactly one controller
	CREATE TABLE IF NOT EXISTS controller (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		exchange TEXT NOT NULL,
		symbol TEXT NOT NULL,
		side TEXT NOT NULL,
		data TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveController replaces the stored Controller. The run flag is not persisted.
func (s *SQLiteStore) SaveController(ctx context.Context, c models.Controller) error {
	c.IsRunning = false

	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode controller: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO controller (id, exchange, symbol, side, data, updated_at)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			exchange = excluded.exchange,
			symbol = excluded.symbol,
			side = excluded.side,
			data = excluded.data,
			updated_at = excluded.updated_at
	`, string(c.Exchange.Name), c.Order.Symbol, string(c.Order.Side), string(data), s.now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save controller: %w", err)
	}
	return nil
}

// LoadController returns the stored Controller.
func (s *SQLiteStore) LoadController(ctx context.Context) (*StoredController, error) {
	var (
		data      string
		updatedAt time.Time
	)
	err := s.db.QueryRowContext(ctx, `SELECT data, updated_at FROM controller WHERE id = 1`).Scan(&data, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.Wrap(errors.ErrDataNotFound, "no stored controller")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load controller: %w", err)
	}

	var c models.Controller
	if err := json.Unmarshal([]byte(data), &c); err != nil {
		return nil, fmt.Errorf("failed to decode controller: %w", err)
	}

	return &StoredController{Controller: c, UpdatedAt: updatedAt}, nil
}

// DeleteController removes the stored Controller.
func (s *SQLiteStore) DeleteController(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM controller WHERE id = 1`); err != nil {
		return fmt.Errorf("failed to delete controller: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
