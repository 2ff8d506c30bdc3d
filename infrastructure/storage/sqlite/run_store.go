package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"gopkg.in/yaml.v3"

	"github.com/NickG503/World-Simulator/domain/history"
)

// RunStore is a SQLite-backed implementation of history.Store. The full
// record is stored as a YAML blob; listing columns are kept alongside
// so List never decodes blobs.
type RunStore struct {
	db *sql.DB
}

// NewRunStore creates a new SQLite run store with the given configuration.
func NewRunStore(cfg Config, opts ...Option) (*RunStore, error) {
	for _, opt := range opts {
		opt(&cfg)
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}

	s := &RunStore{db: db}

	if cfg.AutoMigrate {
		if err := s.migrate(); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	return s, nil
}

// NewRunStoreFromDB creates a run store from an existing database connection.
func NewRunStoreFromDB(db *sql.DB) (*RunStore, error) {
	s := &RunStore{db: db}

	if err := s.migrate(); err != nil {
		return nil, err
	}

	return s, nil
}

// migrate creates the runs table if it doesn't exist.
func (s *RunStore) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			object_type TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			nodes INTEGER NOT NULL,
			data BLOB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_runs_object_type ON runs(object_type);
		CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return errors.Join(ErrMigrationFailed, err)
	}

	return nil
}

// Save persists a new record.
func (s *RunStore) Save(ctx context.Context, rec *history.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rec.ID == "" {
		return history.ErrInvalidRunID
	}

	data, err := yaml.Marshal(rec)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, object_type, created_at, nodes, data)
		 VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.ObjectType, rec.CreatedAt.Unix(), len(rec.Nodes), data,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", history.ErrRunExists, rec.ID)
		}
		return err
	}

	return nil
}

// Get retrieves a record by run id.
func (s *RunStore) Get(ctx context.Context, id string) (*history.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, history.ErrInvalidRunID
	}

	var data []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT data FROM runs WHERE id = ?",
		id,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", history.ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	var rec history.Record
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("sqlite: decode run %s: %w", id, err)
	}
	return &rec, nil
}

// List returns summaries of stored runs, newest first.
func (s *RunStore) List(ctx context.Context, filter history.ListFilter) ([]history.Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	query := "SELECT id, object_type, created_at, nodes FROM runs"

	var conditions []string
	var args []any
	if filter.ObjectType != "" {
		conditions = append(conditions, "object_type = ?")
		args = append(args, filter.ObjectType)
	}
	if !filter.Since.IsZero() {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, filter.Since.Unix())
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY created_at DESC, id ASC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []history.Summary
	for rows.Next() {
		var sum history.Summary
		var createdAt int64
		if err := rows.Scan(&sum.ID, &sum.ObjectType, &createdAt, &sum.Nodes); err != nil {
			return nil, err
		}
		sum.CreatedAt = time.Unix(createdAt, 0).UTC()
		out = append(out, sum)
	}

	return out, rows.Err()
}

// Delete removes a record by run id.
func (s *RunStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if id == "" {
		return history.ErrInvalidRunID
	}

	result, err := s.db.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", history.ErrRunNotFound, id)
	}

	return nil
}

// Close closes the database connection.
func (s *RunStore) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection.
func (s *RunStore) DB() *sql.DB {
	return s.db
}

var _ history.Store = (*RunStore)(nil)
