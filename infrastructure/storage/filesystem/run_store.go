// Package filesystem provides a filesystem-backed history store. Each
// run is one YAML file under the base directory.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/NickG503/World-Simulator/domain/history"
)

// RunStore implements history.Store on the local filesystem.
type RunStore struct {
	dir string
}

// NewRunStore creates a filesystem run store rooted at dir.
func NewRunStore(dir string) (*RunStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("filesystem: create run directory: %w", err)
	}
	return &RunStore{dir: dir}, nil
}

// runPath maps a run id onto its file. Ids that would escape the base
// directory are rejected.
func (s *RunStore) runPath(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || id != filepath.Base(id) {
		return "", fmt.Errorf("%w: %q", history.ErrInvalidRunID, id)
	}
	return filepath.Join(s.dir, id+".yaml"), nil
}

// Save persists a new record.
func (s *RunStore) Save(ctx context.Context, rec *history.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.runPath(rec.ID)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(rec)
	if err != nil {
		return err
	}

	// O_EXCL makes the duplicate check atomic.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s", history.ErrRunExists, rec.ID)
		}
		return fmt.Errorf("filesystem: create run file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()        // #nosec G104 -- best-effort cleanup in error path
		os.Remove(path)  // #nosec G104 -- best-effort cleanup in error path
		return fmt.Errorf("filesystem: write run file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path) // #nosec G104 -- best-effort cleanup in error path
		return fmt.Errorf("filesystem: close run file: %w", err)
	}
	return nil
}

// Get retrieves a record by run id.
func (s *RunStore) Get(ctx context.Context, id string) (*history.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.runPath(id)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", history.ErrRunNotFound, id)
		}
		return nil, fmt.Errorf("filesystem: read run file: %w", err)
	}

	var rec history.Record
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("filesystem: decode run %s: %w", id, err)
	}
	return &rec, nil
}

// List returns summaries of stored runs, newest first. Files that do
// not decode are skipped.
func (s *RunStore) List(ctx context.Context, filter history.ListFilter) ([]history.Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("filesystem: read run directory: %w", err)
	}

	var out []history.Summary
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			continue
		}
		var rec history.Record
		if err := yaml.Unmarshal(data, &rec); err != nil {
			continue
		}
		sum := rec.Summarize()
		if filter.ObjectType != "" && sum.ObjectType != filter.ObjectType {
			continue
		}
		if !filter.Since.IsZero() && sum.CreatedAt.Before(filter.Since) {
			continue
		}
		out = append(out, sum)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// Delete removes a record by run id.
func (s *RunStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.runPath(id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", history.ErrRunNotFound, id)
		}
		return fmt.Errorf("filesystem: delete run file: %w", err)
	}
	return nil
}

// Close releases store resources.
func (s *RunStore) Close() error {
	return nil
}

var _ history.Store = (*RunStore)(nil)
