// Package engine orchestrates adaptive assessments: it starts sessions,
// hands out scenarios, folds responses into estimates and decides when a
// session is complete.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/persona/internal/estimate"
	"github.com/abhisek/persona/internal/response"
	"github.com/abhisek/persona/internal/scenario"
	"github.com/abhisek/persona/internal/selector"
	"github.com/abhisek/persona/internal/session"
	"github.com/abhisek/persona/internal/store"
)

// Operation names used in SessionError.
const (
	OpStart    = "start"
	OpNext     = "next"
	OpRespond  = "respond"
	OpResults  = "results"
	OpAbandon  = "abandon"
	OpCurrent  = "current"
	OpSnapshot = "session"
)

// Lifecycle event names.
const (
	EventStarted   = "started"
	EventCompleted = "completed"
	EventAbandoned = "abandoned"
)

// StartRequest carries the optional inputs of Start.
type StartRequest struct {
	OwnerUserID     string
	BusinessContext map[string]string
}

// Step is the outcome of NextItem and Respond: either the scenario to
// present or the final profile.
type Step struct {
	SessionID string
	Scenario  *scenario.Scenario
	Completed bool
	Profile   *session.Profile

	// Administered and MaxItems describe progress.
	Administered int
	MaxItems     int
}

// Engine runs assessments. It is safe for concurrent use; operations on
// the same session are serialized.
type Engine struct {
	cfg      Config
	provider scenario.Provider
	store    SessionStore
	selector *selector.Selector
	updater  *estimate.Updater
	events   EventRecorder
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
	locks    *keyedMutex
	selOpts  []selector.Option
}

// Option configures an Engine.
type Option func(*Engine)

// WithEventRecorder sends audit events to r.
func WithEventRecorder(r EventRecorder) Option {
	return func(e *Engine) { e.events = r }
}

// WithLogger replaces slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithIDGenerator replaces the uuid session id generator.
func WithIDGenerator(f func() string) Option {
	return func(e *Engine) {
		if f != nil {
			e.newID = f
		}
	}
}

// WithTieBreaker sets the selector tie-breaker.
func WithTieBreaker(tb selector.TieBreaker) Option {
	return func(e *Engine) { e.selOpts = append(e.selOpts, selector.WithTieBreaker(tb)) }
}

// New creates an Engine.
func New(cfg Config, provider scenario.Provider, st SessionStore, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if provider == nil {
		return nil, errors.New("engine: nil scenario provider")
	}
	if st == nil {
		return nil, errors.New("engine: nil session store")
	}

	e := &Engine{
		cfg:      cfg,
		provider: provider,
		store:    st,
		logger:   slog.Default(),
		now:      time.Now,
		newID:    uuid.NewString,
		locks:    newKeyedMutex(),
	}
	for _, o := range opts {
		o(e)
	}
	e.logger = e.logger.With("component", "engine")
	e.selector = selector.New(cfg.Selector, e.selOpts...)
	e.updater = &estimate.Updater{PriorVariance: cfg.PriorVariance, Now: e.now}
	return e, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() Config { return e.cfg }

// Start allocates and stores a new active session.
func (e *Engine) Start(ctx context.Context, req StartRequest) (*session.Session, error) {
	s := session.New(e.newID(), req.OwnerUserID, e.cfg.Dimensions.IDs(),
		e.cfg.InitialSE, req.BusinessContext, e.now())

	if err := e.save(ctx, s); err != nil {
		return nil, wrap(OpStart, s.ID, err)
	}
	e.logger.Info("session started", "session_id", s.ID, "owner", s.OwnerUserID)
	e.recordLifecycle(ctx, s, EventStarted)
	return s.Clone(), nil
}

// NextItem returns the pending scenario, the next scenario, or the final
// profile if the session has just completed. A pending scenario is
// returned unchanged until it is answered.
func (e *Engine) NextItem(ctx context.Context, id string) (*Step, error) {
	unlock := e.locks.Lock(id)
	defer unlock()

	s, err := e.load(ctx, id)
	if err != nil {
		return nil, wrap(OpNext, id, err)
	}
	if !s.Active() {
		return nil, wrap(OpNext, id, ErrSessionNotActive)
	}
	if s.Current != nil {
		return e.step(s), nil
	}

	work := s.Clone()
	if err := e.advance(ctx, work); err != nil {
		return nil, wrap(OpNext, id, err)
	}
	if err := e.save(ctx, work); err != nil {
		return nil, wrap(OpNext, id, err)
	}
	e.afterAdvance(ctx, work)
	return e.step(work), nil
}

// Respond folds the answer to the pending scenario into the session and
// advances it. On any failure the stored session is left unchanged, so the
// same answer may be resubmitted.
func (e *Engine) Respond(ctx context.Context, id, scenarioID, optionID string) (*Step, error) {
	unlock := e.locks.Lock(id)
	defer unlock()

	s, err := e.load(ctx, id)
	if err != nil {
		return nil, wrap(OpRespond, id, err)
	}
	if !s.Active() {
		return nil, wrap(OpRespond, id, ErrSessionNotActive)
	}
	if s.Current == nil || s.Current.ID != scenarioID {
		return nil, wrap(OpRespond, id, fmt.Errorf("%w: %q is not the current scenario", ErrScenarioMismatch, scenarioID))
	}

	sc := s.Current
	theta, info, err := response.Map(sc, optionID)
	if err != nil {
		return nil, wrap(OpRespond, id, err)
	}
	updated, err := e.updater.Update(s.Estimates[sc.Dimension], theta, info)
	if err != nil {
		return nil, wrap(OpRespond, id, fmt.Errorf("scenario %s: %w", sc.ID, err))
	}

	work := s.Clone()
	if err := work.RecordResponse(sc.Dimension, updated, sc.ID); err != nil {
		return nil, wrap(OpRespond, id, err)
	}
	if err := e.advance(ctx, work); err != nil {
		return nil, wrap(OpRespond, id, err)
	}
	if err := e.save(ctx, work); err != nil {
		return nil, wrap(OpRespond, id, err)
	}

	e.logger.Debug("response recorded",
		"session_id", id, "scenario_id", sc.ID, "dimension", sc.Dimension,
		"option", optionID, "theta", updated.Theta, "se", updated.StandardError)
	e.recordResponse(ctx, work, sc, optionID, theta, info, updated)
	e.afterAdvance(ctx, work)
	return e.step(work), nil
}

// Results returns the final profile of a completed session.
func (e *Engine) Results(ctx context.Context, id string) (*session.Profile, error) {
	s, err := e.load(ctx, id)
	if err != nil {
		return nil, wrap(OpResults, id, err)
	}
	if s.Status != session.StatusCompleted || s.Profile == nil {
		return nil, wrap(OpResults, id, ErrAssessmentNotComplete)
	}
	return s.Profile.Clone(), nil
}

// Abandon moves an active session to Abandoned.
func (e *Engine) Abandon(ctx context.Context, id string) error {
	unlock := e.locks.Lock(id)
	defer unlock()

	s, err := e.load(ctx, id)
	if err != nil {
		return wrap(OpAbandon, id, err)
	}
	if err := s.Abandon(e.now()); err != nil {
		return wrap(OpAbandon, id, err)
	}
	if err := e.save(ctx, s); err != nil {
		return wrap(OpAbandon, id, err)
	}
	e.logger.Info("session abandoned", "session_id", id, "administered", s.TotalAdministered)
	e.recordLifecycle(ctx, s, EventAbandoned)
	return nil
}

// CurrentScenario returns the scenario awaiting a response, or nil if none
// is pending. Callers use it to resync after ErrScenarioMismatch.
func (e *Engine) CurrentScenario(ctx context.Context, id string) (*scenario.Scenario, error) {
	s, err := e.load(ctx, id)
	if err != nil {
		return nil, wrap(OpCurrent, id, err)
	}
	if !s.Active() {
		return nil, wrap(OpCurrent, id, ErrSessionNotActive)
	}
	return s.Current.Clone(), nil
}

// Session returns a snapshot of the stored session.
func (e *Engine) Session(ctx context.Context, id string) (*session.Session, error) {
	s, err := e.load(ctx, id)
	if err != nil {
		return nil, wrap(OpSnapshot, id, err)
	}
	return s, nil
}

// advance either completes s or attaches the next scenario to it.
func (e *Engine) advance(ctx context.Context, s *session.Session) error {
	st := s.SelectorState()
	if e.selector.ShouldStop(st) {
		return e.complete(s)
	}

	sel, ok := e.selector.Next(st)
	if !ok {
		if st.TotalAdministered >= e.cfg.Selector.MinItems {
			return e.complete(s)
		}
		if sel, ok = e.selector.MostUncertain(st); !ok {
			return e.complete(s)
		}
	}

	sc, err := e.fetch(ctx, s, sel)
	if err != nil {
		return err
	}
	return s.SetCurrent(sc)
}

func (e *Engine) complete(s *session.Session) error {
	at := e.now()
	p := session.BuildProfile(s, e.cfg.Dimensions, e.cfg.Text, at)
	return s.Complete(p, at)
}

// fetch asks the provider for an unseen scenario. If none is left for the
// dimension it retries allowing repeats, avoiding the item just answered
// where possible.
func (e *Engine) fetch(ctx context.Context, s *session.Session, sel selector.Selection) (*scenario.Scenario, error) {
	req := scenario.Request{
		Dimension:        sel.Dimension,
		TargetDifficulty: sel.TargetDifficulty,
		BusinessContext:  s.BusinessContext,
		ExcludeIDs:       s.Administered,
	}
	sc, err := e.lookup(ctx, req)
	if errors.Is(err, scenario.ErrNotFound) {
		e.logger.Warn("scenario bank exhausted, allowing repeats",
			"session_id", s.ID, "dimension", sel.Dimension)

		req.ExcludeIDs = nil
		if s.LastScenarioID != "" {
			req.ExcludeIDs = []string{s.LastScenarioID}
		}
		sc, err = e.lookup(ctx, req)
		if errors.Is(err, scenario.ErrNotFound) && req.ExcludeIDs != nil {
			req.ExcludeIDs = nil
			sc, err = e.lookup(ctx, req)
		}
	}
	if errors.Is(err, scenario.ErrNotFound) {
		return nil, fmt.Errorf("%w: dimension %s", ErrNoScenarioAvailable, sel.Dimension)
	}
	if err != nil {
		return nil, err
	}

	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoScenarioAvailable, err)
	}
	if sc.Dimension != sel.Dimension {
		return nil, fmt.Errorf("%w: provider returned dimension %s, want %s",
			ErrNoScenarioAvailable, sc.Dimension, sel.Dimension)
	}
	return sc, nil
}

// lookup performs one bounded provider call.
func (e *Engine) lookup(ctx context.Context, req scenario.Request) (*scenario.Scenario, error) {
	tctx, cancel := context.WithTimeout(ctx, e.cfg.ProviderTimeout)
	defer cancel()

	sc, err := e.provider.GetScenario(tctx, req)
	if err == nil {
		return sc, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if errors.Is(tctx.Err(), context.DeadlineExceeded) {
		e.logger.Warn("scenario provider timed out",
			"dimension", req.Dimension, "timeout", e.cfg.ProviderTimeout)
		return nil, fmt.Errorf("%w after %s", ErrProviderTimeout, e.cfg.ProviderTimeout)
	}
	return nil, err
}

func (e *Engine) load(ctx context.Context, id string) (*session.Session, error) {
	rec, err := e.store.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	s, err := session.FromRecord(rec)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return s, nil
}

func (e *Engine) save(ctx context.Context, s *session.Session) error {
	rec, err := session.ToRecord(s)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	if err := e.store.Put(ctx, s.ID, rec); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (e *Engine) afterAdvance(ctx context.Context, s *session.Session) {
	if s.Status != session.StatusCompleted {
		return
	}
	e.logger.Info("session completed",
		"session_id", s.ID, "administered", s.TotalAdministered,
		"readiness", s.Profile.Readiness.Theta)
	e.recordLifecycle(ctx, s, EventCompleted)
}

func (e *Engine) step(s *session.Session) *Step {
	st := &Step{
		SessionID:    s.ID,
		Administered: s.TotalAdministered,
		MaxItems:     e.cfg.Selector.MaxItems,
	}
	if s.Status == session.StatusCompleted {
		st.Completed = true
		st.Profile = s.Profile.Clone()
		return st
	}
	st.Scenario = s.Current.Clone()
	return st
}

func (e *Engine) recordLifecycle(ctx context.Context, s *session.Session, event string) {
	if e.events == nil {
		return
	}
	data := store.LifecycleEventData{
		SessionID:    s.ID,
		OwnerUserID:  s.OwnerUserID,
		Event:        event,
		Administered: s.TotalAdministered,
	}
	if s.Profile != nil {
		data.ReadinessTheta = s.Profile.Readiness.Theta
	}
	if err := e.events.AppendLifecycleEvent(ctx, data); err != nil {
		e.logger.Warn("failed to record lifecycle event", "session_id", s.ID, "event", event, "error", err)
	}
}

func (e *Engine) recordResponse(ctx context.Context, s *session.Session, sc *scenario.Scenario,
	optionID string, theta, info float64, updated estimate.Estimate) {
	if e.events == nil {
		return
	}
	err := e.events.AppendResponseEvent(ctx, store.ResponseEventData{
		SessionID:     s.ID,
		ScenarioID:    sc.ID,
		Dimension:     sc.Dimension,
		OptionID:      optionID,
		ObservedTheta: theta,
		Information:   info,
		Theta:         updated.Theta,
		StandardError: updated.StandardError,
		ItemCount:     updated.ItemCount,
	})
	if err != nil {
		e.logger.Warn("failed to record response event", "session_id", s.ID, "error", err)
	}
}
