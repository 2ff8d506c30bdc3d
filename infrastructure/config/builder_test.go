package config

import (
	"context"
	"testing"
	"time"

	"github.com/NickG503/World-Simulator/domain/history"
)

func TestBuildDefaults(t *testing.T) {
	result, err := NewBuilder(Default()).Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	defer result.Store.Close()
	defer func() {
		if err := result.Observability.Shutdown(context.Background()); err != nil {
			t.Errorf("Shutdown() error = %v", err)
		}
	}()

	if result.Loader == nil || result.Guard == nil {
		t.Fatalf("Build() = %+v, missing components", result)
	}

	// The default store is in-memory and usable straight away.
	if _, err := result.Store.List(context.Background(), history.ListFilter{}); err != nil {
		t.Errorf("List() error = %v", err)
	}
}

func TestBuildFilesystemStore(t *testing.T) {
	cfg := Default()
	cfg.Storage.Backend = BackendFilesystem
	cfg.Storage.Dir = t.TempDir()

	result, err := NewBuilder(cfg).Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	defer result.Store.Close()
	defer result.Observability.Shutdown(context.Background())

	if _, err := result.Store.List(context.Background(), history.ListFilter{}); err != nil {
		t.Errorf("List() error = %v", err)
	}
}

func TestBuildUnknownBackend(t *testing.T) {
	cfg := Default()
	cfg.Storage.Backend = "cloud"

	if _, err := NewBuilder(cfg).Build(); err == nil {
		t.Error("Build() succeeded with unknown backend")
	}
}

func TestBuildGuardConfig(t *testing.T) {
	cfg := Default()
	cfg.Resilience.MaxConcurrent = 8
	cfg.Resilience.RetryMaxAttempts = 1
	cfg.Resilience.OpTimeout = Duration(time.Second)

	guard := NewBuilder(cfg).buildGuardConfig()
	if guard.MaxConcurrent != 8 || guard.RetryMaxAttempts != 1 || guard.OpTimeout != time.Second {
		t.Errorf("buildGuardConfig() = %+v", guard)
	}
	// Unset values fall back to guard defaults.
	if guard.RetryBackoffMultiplier != 2.0 {
		t.Errorf("backoff multiplier = %v", guard.RetryBackoffMultiplier)
	}
}
