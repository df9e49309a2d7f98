package scenario

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ErrNotFound is returned by a Provider that has no eligible scenario.
var ErrNotFound = errors.New("no scenario found")

// Request describes the item the engine wants next.
type Request struct {
	Dimension        string
	TargetDifficulty float64

	// BusinessContext is passed through untouched from session start.
	BusinessContext map[string]string

	// ExcludeIDs lists scenarios already administered in the session.
	ExcludeIDs []string
}

// Provider supplies scenarios. Implementations must treat their content as
// read-only and be safe for concurrent use.
type Provider interface {
	// GetScenario returns the scenario for req.Dimension whose difficulty
	// is closest to req.TargetDifficulty, skipping req.ExcludeIDs.
	// Returns ErrNotFound when nothing is eligible.
	GetScenario(ctx context.Context, req Request) (*Scenario, error)
}

// Chain tries each provider in order and returns the first scenario.
type Chain struct {
	providers []Provider
	logger    *slog.Logger

	// stepTimeout bounds every provider but the last one.
	stepTimeout time.Duration
}

// NewChain builds a fallback chain. A nil logger uses slog.Default.
func NewChain(logger *slog.Logger, providers ...Provider) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{
		providers: providers,
		logger:    logger.With("component", "scenario-chain"),
	}
}

// WithStepTimeout gives every provider except the last its own deadline of
// d, so a hung provider cannot consume the caller's whole budget. When d is
// zero and the caller's context has a deadline, each non-final provider gets
// half of the time remaining.
func (c *Chain) WithStepTimeout(d time.Duration) *Chain {
	c.stepTimeout = d
	return c
}

// GetScenario implements Provider. It returns ErrNotFound when at least one
// provider reported not-found and none succeeded; otherwise the last error.
// Cancellation of ctx stops the chain immediately; a provider that only
// exceeds its own step deadline falls through to the next one.
func (c *Chain) GetScenario(ctx context.Context, req Request) (*Scenario, error) {
	var lastErr error
	notFound := false
	for i, p := range c.providers {
		pctx, cancel := c.stepContext(ctx, i)
		sc, err := p.GetScenario(pctx, req)
		cancel()
		if err == nil {
			return sc, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if errors.Is(err, ErrNotFound) {
			notFound = true
			continue
		}
		c.logger.Warn("scenario provider failed, falling back",
			"provider", i, "dimension", req.Dimension, "error", err)
		lastErr = err
	}
	if notFound || lastErr == nil {
		return nil, ErrNotFound
	}
	return nil, lastErr
}

func (c *Chain) stepContext(ctx context.Context, i int) (context.Context, context.CancelFunc) {
	if i == len(c.providers)-1 {
		return ctx, func() {}
	}
	d := c.stepTimeout
	if d <= 0 {
		deadline, ok := ctx.Deadline()
		if !ok {
			return ctx, func() {}
		}
		d = time.Until(deadline) / 2
	}
	return context.WithTimeout(ctx, d)
}
