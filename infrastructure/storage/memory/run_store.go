// Package memory provides an in-memory history store, mainly for
// tests and throwaway runs.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/NickG503/World-Simulator/domain/history"
)

// RunStore is an in-memory implementation of history.Store. Records
// are stored serialized so callers cannot mutate shared state.
type RunStore struct {
	runs map[string][]byte
	mu   sync.RWMutex
}

// NewRunStore creates a new in-memory run store.
func NewRunStore() *RunStore {
	return &RunStore{runs: make(map[string][]byte)}
}

// Save persists a new record.
func (s *RunStore) Save(ctx context.Context, rec *history.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rec.ID == "" {
		return history.ErrInvalidRunID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[rec.ID]; exists {
		return fmt.Errorf("%w: %s", history.ErrRunExists, rec.ID)
	}

	data, err := yaml.Marshal(rec)
	if err != nil {
		return err
	}
	s.runs[rec.ID] = data
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

	s.mu.RLock()
	data, ok := s.runs[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", history.ErrRunNotFound, id)
	}

	var rec history.Record
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// List returns summaries of stored runs, newest first.
func (s *RunStore) List(ctx context.Context, filter history.ListFilter) ([]history.Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []history.Summary
	for _, data := range s.runs {
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

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[id]; !ok {
		return fmt.Errorf("%w: %s", history.ErrRunNotFound, id)
	}
	delete(s.runs, id)
	return nil
}

// Close releases store resources.
func (s *RunStore) Close() error {
	return nil
}

var _ history.Store = (*RunStore)(nil)
