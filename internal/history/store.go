// internal/history/store.go
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS counter_readings (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	cycle_id    TEXT    NOT NULL,
	counter     INTEGER NOT NULL,
	key         TEXT    NOT NULL,
	value_m3    REAL    NOT NULL,
	recorded_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_counter_readings_counter
	ON counter_readings (counter, recorded_at DESC);
`

// Reading is one stored counter value.
type Reading struct {
	ID         int64     `json:"id"`
	CycleID    string    `json:"cycle_id"`
	Counter    int       `json:"counter"`
	Key        string    `json:"key"`
	ValueM3    float64   `json:"value_m3"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Store persists counter readings in sqlite.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("history: path required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", path, err)
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history: schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Insert stores readings in one transaction.
func (s *Store) Insert(ctx context.Context, rs []Reading) error {
	if len(rs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("history: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO counter_readings (cycle_id, counter, key, value_m3, recorded_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("history: prepare: %w", err)
	}
	defer stmt.Close()

	for _, r := range rs {
		if _, err := stmt.ExecContext(ctx, r.CycleID, r.Counter, r.Key, r.ValueM3, r.RecordedAt.UnixMilli()); err != nil {
			return fmt.Errorf("history: insert counter %d: %w", r.Counter, err)
		}
	}
	return tx.Commit()
}

// Latest returns the most recent value per counter key.
func (s *Store) Latest(ctx context.Context) (map[string]float64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.key, r.value_m3
		FROM counter_readings r
		JOIN (SELECT key, MAX(id) AS id FROM counter_readings GROUP BY key) m
		  ON r.id = m.id`)
	if err != nil {
		return nil, fmt.Errorf("history: latest: %w", err)
	}
	defer rows.Close()

	out := make(map[string]float64)
	for rows.Next() {
		var key string
		var v float64
		if err := rows.Scan(&key, &v); err != nil {
			return nil, fmt.Errorf("history: latest scan: %w", err)
		}
		out[key] = v
	}
	return out, rows.Err()
}

// History returns up to limit readings of counter, newest first.
func (s *Store) History(ctx context.Context, counter, limit int) ([]Reading, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, cycle_id, counter, key, value_m3, recorded_at
		FROM counter_readings
		WHERE counter = ?
		ORDER BY id DESC
		LIMIT ?`, counter, limit)
	if err != nil {
		return nil, fmt.Errorf("history: query counter %d: %w", counter, err)
	}
	defer rows.Close()

	out := []Reading{}
	for rows.Next() {
		var r Reading
		var ms int64
		if err := rows.Scan(&r.ID, &r.CycleID, &r.Counter, &r.Key, &r.ValueM3, &ms); err != nil {
			return nil, fmt.Errorf("history: scan: %w", err)
		}
		r.RecordedAt = time.UnixMilli(ms)
		out = append(out, r)
	}
	return out, rows.Err()
}
