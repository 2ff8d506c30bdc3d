package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/NickG503/World-Simulator/application"
	"github.com/NickG503/World-Simulator/domain/history"
	"github.com/NickG503/World-Simulator/domain/kb"
	"github.com/NickG503/World-Simulator/domain/space"
	"github.com/NickG503/World-Simulator/domain/state"
	"github.com/NickG503/World-Simulator/infrastructure/config"
	"github.com/NickG503/World-Simulator/infrastructure/observability"
)

// runtime bundles the wired components behind a command invocation.
type runtime struct {
	cfg       *config.Config
	kb        *kb.KnowledgeBase
	simulator *application.Simulator
	store     history.Store
	provider  *observability.Provider
}

// loadConfig loads the application configuration and applies CLI
// overrides on top of it.
func (a *App) loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if a.configPath != "" {
		loaded, err := config.NewLoader().LoadFile(a.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if a.kbDir != "" {
		cfg.KnowledgeBase.Dir = a.kbDir
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	return cfg, nil
}

// setup wires a full runtime: configuration, knowledge base, store and
// simulator. The caller must call close when done.
func (a *App) setup() (*runtime, func(), error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, nil, err
	}

	built, err := config.NewBuilder(cfg).Build()
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = built.Store.Close()
		_ = built.Observability.Shutdown(context.Background())
	}

	base, err := built.Loader.Load(cfg.KnowledgeBase.Dir)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("load knowledge base: %w", err)
	}

	metrics, err := observability.NewRunMetrics(built.Observability.Meter("worldsim"))
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	sim, err := application.NewSimulator(application.SimulatorConfig{
		KB:      base,
		Store:   built.Store,
		Guard:   built.Guard,
		Tracer:  built.Observability.Tracer("worldsim"),
		Metrics: metrics,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	return &runtime{
		cfg:       cfg,
		kb:        base,
		simulator: sim,
		store:     built.Store,
		provider:  built.Observability,
	}, cleanup, nil
}

// parseOverrides parses repeated attr=value flags into root snapshot
// overrides. A value may be a single level or a |-separated candidate
// set.
func parseOverrides(pairs []string) (map[string]state.Value, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]state.Value, len(pairs))
	for _, pair := range pairs {
		attr, value, ok := strings.Cut(pair, "=")
		if !ok || attr == "" || value == "" {
			return nil, fmt.Errorf("bad --set value (expected part.attr=level): %q", pair)
		}
		if strings.Contains(value, "|") {
			out[attr] = state.Candidates(strings.Split(value, "|"), space.TrendNone)
		} else {
			out[attr] = state.Known(value)
		}
	}
	return out, nil
}

// parseStep parses one action argument of the form "name" or
// "name:key=value,key=value".
func parseStep(arg string) (history.Step, error) {
	name, paramsStr, hasParams := strings.Cut(arg, ":")
	step := history.Step{Action: strings.TrimSpace(name)}
	if step.Action == "" {
		return history.Step{}, fmt.Errorf("empty action in %q", arg)
	}
	if !hasParams {
		return step, nil
	}

	step.Params = make(map[string]string)
	for _, pair := range strings.Split(paramsStr, ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return history.Step{}, fmt.Errorf("bad parameter (expected key=value) in %q", arg)
		}
		step.Params[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return step, nil
}

// parseParams parses repeated key=value flags.
func parseParams(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("bad --param value (expected key=value): %q", pair)
		}
		out[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return out, nil
}
