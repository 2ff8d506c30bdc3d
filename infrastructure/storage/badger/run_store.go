package badger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"gopkg.in/yaml.v3"

	"github.com/NickG503/World-Simulator/domain/history"
)

// RunStore is a BadgerDB-backed implementation of history.Store.
type RunStore struct {
	db        *badger.DB
	keyPrefix string
	gcStop    chan struct{}
	gcWg      sync.WaitGroup
}

// NewRunStore creates a new BadgerDB run store with the given configuration.
func NewRunStore(cfg Config, opts ...Option) (*RunStore, error) {
	for _, opt := range opts {
		opt(&cfg)
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}

	s := &RunStore{
		db:        db,
		keyPrefix: cfg.KeyPrefix,
		gcStop:    make(chan struct{}),
	}

	if cfg.GCInterval > 0 {
		s.startGC(cfg.GCInterval, cfg.GCDiscardRatio)
	}

	return s, nil
}

// NewRunStoreFromDB creates a run store from an existing BadgerDB database.
func NewRunStoreFromDB(db *badger.DB, keyPrefix string) *RunStore {
	return &RunStore{
		db:        db,
		keyPrefix: keyPrefix,
		gcStop:    make(chan struct{}),
	}
}

// startGC starts the value log garbage collection goroutine.
func (s *RunStore) startGC(interval time.Duration, discardRatio float64) {
	s.gcWg.Add(1)
	go func() {
		defer s.gcWg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.gcStop:
				return
			case <-ticker.C:
				for {
					if err := s.db.RunValueLogGC(discardRatio); err != nil {
						break
					}
				}
			}
		}
	}()
}

func (s *RunStore) runKey(id string) []byte {
	return []byte(s.keyPrefix + "run:" + id)
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

	key := s.runKey(rec.ID)
	return s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		if err == nil {
			return fmt.Errorf("%w: %s", history.ErrRunExists, rec.ID)
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(key, data)
	})
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
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.runKey(id))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", history.ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	var rec history.Record
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("badger: decode run %s: %w", id, err)
	}
	return &rec, nil
}

// List returns summaries of stored runs, newest first. Entries that do
// not decode are skipped.
func (s *RunStore) List(ctx context.Context, filter history.ListFilter) ([]history.Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := []byte(s.keyPrefix + "run:")
	var out []history.Summary

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var rec history.Record
			err := it.Item().Value(func(val []byte) error {
				return yaml.Unmarshal(val, &rec)
			})
			if err != nil {
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

		return nil
	})
	if err != nil {
		return nil, err
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

	key := s.runKey(id)
	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("%w: %s", history.ErrRunNotFound, id)
			}
			return err
		}
		return txn.Delete(key)
	})
}

// Close stops GC and closes the database.
func (s *RunStore) Close() error {
	close(s.gcStop)
	s.gcWg.Wait()
	return s.db.Close()
}

// DB returns the underlying BadgerDB database.
func (s *RunStore) DB() *badger.DB {
	return s.db
}

var _ history.Store = (*RunStore)(nil)
