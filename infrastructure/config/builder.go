package config

import (
	"fmt"

	"github.com/NickG503/World-Simulator/domain/history"
	"github.com/NickG503/World-Simulator/infrastructure/loader"
	"github.com/NickG503/World-Simulator/infrastructure/logging"
	"github.com/NickG503/World-Simulator/infrastructure/observability"
	"github.com/NickG503/World-Simulator/infrastructure/resilience"
	"github.com/NickG503/World-Simulator/infrastructure/storage/badger"
	"github.com/NickG503/World-Simulator/infrastructure/storage/filesystem"
	"github.com/NickG503/World-Simulator/infrastructure/storage/memory"
	"github.com/NickG503/World-Simulator/infrastructure/storage/sqlite"
)

// Builder builds wired components from configuration.
type Builder struct {
	config *Config
}

// NewBuilder creates a new configuration builder.
func NewBuilder(config *Config) *Builder {
	return &Builder{config: config}
}

// BuildResult contains the components built from configuration.
type BuildResult struct {
	// Loader loads knowledge base definitions.
	Loader *loader.Loader

	// Store persists run records.
	Store history.Store

	// Guard wraps store operations with resilience policies.
	Guard *resilience.Guard

	// Observability owns the tracer and meter providers.
	Observability *observability.Provider
}

// Build builds the components. The caller owns the store and the
// observability provider and must close them.
func (b *Builder) Build() (*BuildResult, error) {
	result := &BuildResult{}

	logging.Init(logging.Config{
		Level:  b.config.Logging.Level,
		Format: b.config.Logging.Format,
	})

	result.Loader = b.buildLoader()
	result.Guard = resilience.NewGuard(b.buildGuardConfig())

	store, err := b.buildStore()
	if err != nil {
		return nil, fmt.Errorf("building store: %w", err)
	}
	result.Store = store

	provider, err := b.buildObservability()
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("building observability: %w", err)
	}
	result.Observability = provider

	return result, nil
}

func (b *Builder) buildLoader() *loader.Loader {
	var opts []loader.Option
	if b.config.KnowledgeBase.StrictFields {
		opts = append(opts, loader.WithStrictFields())
	}
	return loader.New(opts...)
}

func (b *Builder) buildStore() (history.Store, error) {
	cfg := b.config.Storage
	switch cfg.Backend {
	case BackendMemory, "":
		return memory.NewRunStore(), nil
	case BackendFilesystem:
		return filesystem.NewRunStore(cfg.Dir)
	case BackendBadger:
		opts := []badger.Option{badger.WithDir(cfg.Dir)}
		if cfg.KeyPrefix != "" {
			opts = append(opts, badger.WithKeyPrefix(cfg.KeyPrefix))
		}
		return badger.NewRunStore(badger.DefaultConfig(), opts...)
	case BackendSQLite:
		return sqlite.NewRunStore(sqlite.DefaultConfig(), sqlite.WithDSN(cfg.DSN))
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

func (b *Builder) buildGuardConfig() resilience.GuardConfig {
	guard := resilience.DefaultGuardConfig()
	cfg := b.config.Resilience

	if cfg.MaxConcurrent > 0 {
		guard.MaxConcurrent = cfg.MaxConcurrent
	}
	if cfg.BreakerThreshold > 0 {
		guard.BreakerThreshold = cfg.BreakerThreshold
	}
	if cfg.RetryMaxAttempts > 0 {
		guard.RetryMaxAttempts = cfg.RetryMaxAttempts
	}
	if cfg.OpTimeout > 0 {
		guard.OpTimeout = cfg.OpTimeout.Std()
	}

	return guard
}

func exporterFor(name string) observability.Exporter {
	if name == "stdout" {
		return observability.ExporterStdout
	}
	return observability.ExporterNoop
}

func (b *Builder) buildObservability() (*observability.Provider, error) {
	cfg := b.config.Observability
	return observability.New(
		observability.WithServiceName(cfg.ServiceName),
		observability.WithEnvironment(cfg.Environment),
		observability.WithTraceExporter(exporterFor(cfg.TraceExporter)),
		observability.WithMetricExporter(exporterFor(cfg.MetricExporter)),
		observability.WithSampleRate(cfg.SampleRate),
	)
}
