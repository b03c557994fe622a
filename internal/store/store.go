// Package store persists saved garden layouts in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gardengod/gardengod/internal/garden"
	"github.com/gardengod/gardengod/internal/metrics"
	"github.com/gardengod/gardengod/internal/persistence/sqlite"
)

// ErrNotFound is returned when a saved garden ID does not exist.
var ErrNotFound = errors.New("saved garden not found")

// SavedGarden is a persisted garden layout with identity and timestamps.
type SavedGarden struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Garden    garden.Garden `json:"garden"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Summary is the listing view of a saved garden (no grid payload).
type Summary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Planted   int       `json:"planted"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const schema = `
CREATE TABLE IF NOT EXISTS gardens (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	width      INTEGER NOT NULL,
	height     INTEGER NOT NULL,
	planted    INTEGER NOT NULL,
	grid       TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_gardens_updated_at ON gardens(updated_at DESC);
`

// Store is a SQLite-backed saved garden repository.
type Store struct {
	db *sql.DB
}

// Open opens (and migrates) the saved garden store at dbPath.
func Open(dbPath string) (*Store, error) {
	db, err := sqlite.Open(dbPath, sqlite.DefaultConfig())
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate gardens schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies database connectivity, for readiness checks.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Save persists a garden under a fresh ID and returns the saved record.
func (s *Store) Save(ctx context.Context, name string, g garden.Garden) (*SavedGarden, error) {
	grid, err := json.Marshal(g.Grid)
	if err != nil {
		metrics.IncStoreOp("save", "failure")
		return nil, fmt.Errorf("encode grid: %w", err)
	}

	now := time.Now().UTC()
	sg := &SavedGarden{
		ID:        uuid.New().String(),
		Name:      name,
		Garden:    g,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO gardens (id, name, width, height, planted, grid, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sg.ID, sg.Name, g.Width, g.Height, g.Occupied(), string(grid), now, now)
	if err != nil {
		metrics.IncStoreOp("save", "failure")
		return nil, fmt.Errorf("insert garden: %w", err)
	}

	metrics.IncStoreOp("save", "success")
	return sg, nil
}

// Get loads a saved garden by ID.
func (s *Store) Get(ctx context.Context, id string) (*SavedGarden, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, width, height, grid, created_at, updated_at FROM gardens WHERE id = ?`, id)

	var (
		sg   SavedGarden
		grid string
	)
	err := row.Scan(&sg.ID, &sg.Name, &sg.Garden.Width, &sg.Garden.Height, &grid, &sg.CreatedAt, &sg.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		metrics.IncStoreOp("get", "not_found")
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	if err != nil {
		metrics.IncStoreOp("get", "failure")
		return nil, fmt.Errorf("query garden: %w", err)
	}

	if err := json.Unmarshal([]byte(grid), &sg.Garden.Grid); err != nil {
		metrics.IncStoreOp("get", "failure")
		return nil, fmt.Errorf("decode grid: %w", err)
	}

	metrics.IncStoreOp("get", "success")
	return &sg, nil
}

// List returns summaries of all saved gardens, most recently updated first.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, width, height, planted, created_at, updated_at
		 FROM gardens ORDER BY updated_at DESC`)
	if err != nil {
		metrics.IncStoreOp("list", "failure")
		return nil, fmt.Errorf("list gardens: %w", err)
	}
	defer func() { _ = rows.Close() }()

	summaries := make([]Summary, 0)
	for rows.Next() {
		var sm Summary
		if err := rows.Scan(&sm.ID, &sm.Name, &sm.Width, &sm.Height, &sm.Planted, &sm.CreatedAt, &sm.UpdatedAt); err != nil {
			metrics.IncStoreOp("list", "failure")
			return nil, fmt.Errorf("scan garden row: %w", err)
		}
		summaries = append(summaries, sm)
	}
	if err := rows.Err(); err != nil {
		metrics.IncStoreOp("list", "failure")
		return nil, fmt.Errorf("iterate garden rows: %w", err)
	}

	metrics.IncStoreOp("list", "success")
	return summaries, nil
}

// Delete removes a saved garden by ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM gardens WHERE id = ?`, id)
	if err != nil {
		metrics.IncStoreOp("delete", "failure")
		return fmt.Errorf("delete garden: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		metrics.IncStoreOp("delete", "failure")
		return fmt.Errorf("delete garden: %w", err)
	}
	if affected == 0 {
		metrics.IncStoreOp("delete", "not_found")
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}

	metrics.IncStoreOp("delete", "success")
	return nil
}
