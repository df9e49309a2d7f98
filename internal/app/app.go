// Package app assembles the engine and its dependencies from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/abhisek/persona/internal/config"
	"github.com/abhisek/persona/internal/engine"
	"github.com/abhisek/persona/internal/llm"
	"github.com/abhisek/persona/internal/scenario"
	"github.com/abhisek/persona/internal/store"
)

// Options overrides parts of the assembly.
type Options struct {
	// DBPath overrides the configured SQLite path.
	DBPath string

	Logger *slog.Logger

	// LLMProvider replaces the provider built from config when scenario
	// generation is enabled.
	LLMProvider llm.Provider

	EngineOptions []engine.Option
}

// App owns an Engine plus the stores behind it.
type App struct {
	Engine *engine.Engine
	Config config.File

	// Bank is the static scenario bank, always present as the last fallback.
	Bank *scenario.Bank

	// Events is nil for the memory backend.
	Events store.EventRepo

	sessions sessionLister
	closers  []func() error
}

type sessionLister interface {
	List(ctx context.Context, opts store.ListOpts) ([]store.SessionSummary, error)
}

// Open builds an App. Close must be called to release stores.
func Open(ctx context.Context, cfg config.File, opts Options) (*App, error) {
	a := &App{Config: cfg}
	if err := a.build(ctx, opts); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context, opts Options) error {
	cfg := a.Config
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	st, err := a.openStores(ctx, opts.DBPath)
	if err != nil {
		return err
	}

	a.Bank, err = loadBank(cfg.Scenarios.BankPath)
	if err != nil {
		return err
	}

	ecfg, err := cfg.EngineConfig()
	if err != nil {
		return err
	}

	var provider scenario.Provider = a.Bank
	if cfg.Scenarios.Generate {
		p := opts.LLMProvider
		if p == nil {
			var rec llm.RequestRecorder
			if a.Events != nil {
				rec = a.Events
			}
			if p, err = llm.NewProvider(ctx, cfg.LLM, rec, logger); err != nil {
				return fmt.Errorf("llm provider: %w", err)
			}
		}
		gcfg := scenario.DefaultGeneratorConfig()
		if cfg.Scenarios.Discrimination > 0 {
			gcfg.Discrimination = cfg.Scenarios.Discrimination
		}
		gen := scenario.NewGenerator(p, ecfg.Dimensions, gcfg)
		provider = scenario.NewChain(logger, gen, a.Bank).
			WithStepTimeout(cfg.Scenarios.GeneratorTimeout)
	}

	eopts := []engine.Option{engine.WithLogger(logger)}
	if a.Events != nil {
		eopts = append(eopts, engine.WithEventRecorder(a.Events))
	}
	eopts = append(eopts, opts.EngineOptions...)

	a.Engine, err = engine.New(ecfg, provider, st, eopts...)
	return err
}

func (a *App) openStores(ctx context.Context, dbPath string) (engine.SessionStore, error) {
	sc := a.Config.Store

	if sc.Backend == config.BackendMemory {
		mem := engine.NewMemoryStore()
		a.sessions = memoryLister{mem: mem, app: a}
		return mem, nil
	}

	// The event log lives in SQLite for both persistent backends.
	path, err := resolveDBPath(dbPath, sc.Path)
	if err != nil {
		return nil, err
	}
	db, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	a.closers = append(a.closers, db.Close)
	a.Events = db.EventRepo()

	if sc.Backend == config.BackendSQLite {
		repo := db.SessionRepo()
		a.sessions = repo
		return repo, nil
	}

	client, err := store.DialRedis(ctx, sc.RedisAddr, sc.RedisPassword, sc.RedisDB)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, client.Close)
	rs := store.NewRedisSessionStore(client, sc.RedisPrefix)
	a.sessions = redisLister{rs: rs, app: a}
	return rs, nil
}

// ListSessions returns session summaries, most recently started first.
func (a *App) ListSessions(ctx context.Context, opts store.ListOpts) ([]store.SessionSummary, error) {
	return a.sessions.List(ctx, opts)
}

// Close releases every store. It is safe to call more than once.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func resolveDBPath(flag, configured string) (string, error) {
	for _, p := range []string{flag, configured} {
		if p != "" {
			return p, store.EnsureDir(p)
		}
	}
	return store.DefaultDBPath()
}

func loadBank(path string) (*scenario.Bank, error) {
	if path == "" {
		return scenario.DefaultBank()
	}
	return scenario.LoadFile(path)
}

// memoryLister and redisLister have no secondary index, so they summarize
// every session and filter in process.
type memoryLister struct {
	mem *engine.MemoryStore
	app *App
}

func (l memoryLister) List(ctx context.Context, opts store.ListOpts) ([]store.SessionSummary, error) {
	return l.app.summarize(ctx, l.mem.IDs(), opts)
}

type redisLister struct {
	rs  *store.RedisSessionStore
	app *App
}

func (l redisLister) List(ctx context.Context, opts store.ListOpts) ([]store.SessionSummary, error) {
	ids, err := l.rs.IDs(ctx)
	if err != nil {
		return nil, err
	}
	return l.app.summarize(ctx, ids, opts)
}

func (a *App) summarize(ctx context.Context, ids []string, opts store.ListOpts) ([]store.SessionSummary, error) {
	out := make([]store.SessionSummary, 0, len(ids))
	for _, id := range ids {
		s, err := a.Engine.Session(ctx, id)
		if errors.Is(err, engine.ErrSessionNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if opts.Status != "" && string(s.Status) != opts.Status {
			continue
		}
		if opts.OwnerUserID != "" && s.OwnerUserID != opts.OwnerUserID {
			continue
		}
		out = append(out, store.SessionSummary{
			ID:                s.ID,
			OwnerUserID:       s.OwnerUserID,
			Status:            string(s.Status),
			TotalAdministered: s.TotalAdministered,
			StartedAt:         s.StartedAt,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.After(out[j].StartedAt)
		}
		return out[i].ID < out[j].ID
	})
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}
