// Package store persists scene records in a local SQLite database.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/danmaps/GridScaper/model"
)

// ErrNotFound is returned when the requested scene does not exist.
var ErrNotFound = errors.New("scene not found")

const schema = `
CREATE TABLE IF NOT EXISTS scenes (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    pole_count INTEGER NOT NULL,
    span_count INTEGER NOT NULL,
    payload    TEXT NOT NULL,
    updated_at TEXT NOT NULL
);
`

// SceneSummary is the listing row for a stored scene.
type SceneSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	PoleCount int       `json:"poleCount"`
	SpanCount int       `json:"spanCount"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store reads and writes scene records through a single SQLite handle.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the SQLite database at dbPath and
// applies the schema.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir db dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?cache=shared&mode=rwc&_pragma=busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save upserts the scene record keyed by its ID.
func (s *Store) Save(ctx context.Context, record model.SceneRecord) error {
	if record.ID == "" {
		return fmt.Errorf("save scene: empty id")
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode scene %s: %w", record.ID, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
        INSERT INTO scenes (id, name, pole_count, span_count, payload, updated_at)
        VALUES (?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            name = excluded.name,
            pole_count = excluded.pole_count,
            span_count = excluded.span_count,
            payload = excluded.payload,
            updated_at = excluded.updated_at
    `, record.ID, record.Name, len(record.Poles), len(record.Spans),
		string(payload), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save scene %s: %w", record.ID, err)
	}
	return tx.Commit()
}

// Load returns the scene record with the given ID.
func (s *Store) Load(ctx context.Context, id string) (model.SceneRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT payload FROM scenes WHERE id = ?`, id)

	var payload string
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.SceneRecord{}, fmt.Errorf("load scene %s: %w", id, ErrNotFound)
		}
		return model.SceneRecord{}, err
	}

	var record model.SceneRecord
	if err := json.Unmarshal([]byte(payload), &record); err != nil {
		return model.SceneRecord{}, fmt.Errorf("decode scene %s: %w", id, err)
	}
	return record, nil
}

// List returns summaries of all stored scenes ordered by name.
func (s *Store) List(ctx context.Context) ([]SceneSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, name, pole_count, span_count, updated_at
        FROM scenes
        ORDER BY name, id
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SceneSummary
	for rows.Next() {
		var summary SceneSummary
		var updated string
		if err := rows.Scan(&summary.ID, &summary.Name, &summary.PoleCount, &summary.SpanCount, &updated); err != nil {
			return nil, err
		}
		if ts, err := time.Parse(time.RFC3339Nano, updated); err == nil {
			summary.UpdatedAt = ts
		}
		out = append(out, summary)
	}
	return out, rows.Err()
}

// Delete removes the scene with the given ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM scenes WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("delete scene %s: %w", id, ErrNotFound)
	}
	return nil
}
