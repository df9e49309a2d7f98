package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// sequenceCounter manages the global monotonic sequence number shared across
// all event tables. Per-table auto-increment ids can't order a response
// against the lifecycle event that followed it; this counter can.
//
// The mutex serializes within the process; the RETURNING clause makes the
// increment atomic at the database level.
type sequenceCounter struct {
	mu sync.Mutex
	db *sql.DB
}

// newSequenceCounter creates a counter and ensures the tracking table exists.
func newSequenceCounter(db *sql.DB) (*sequenceCounter, error) {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS global_sequence (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		next_val INTEGER NOT NULL DEFAULT 1
	)`)
	if err != nil {
		return nil, fmt.Errorf("create sequence table: %w", err)
	}

	_, err = db.Exec(`INSERT OR IGNORE INTO global_sequence (id, next_val) VALUES (1, 1)`)
	if err != nil {
		return nil, fmt.Errorf("seed sequence: %w", err)
	}

	return &sequenceCounter{db: db}, nil
}

// Next atomically returns the next sequence number and increments the counter.
func (sc *sequenceCounter) Next(ctx context.Context) (int64, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	var seq int64
	err := sc.db.QueryRowContext(ctx,
		`UPDATE global_sequence SET next_val = next_val + 1 WHERE id = 1 RETURNING next_val - 1`,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return seq, nil
}

// eventRepo implements EventRepo on raw tables and the global sequence.
type eventRepo struct {
	db  *sql.DB
	seq *sequenceCounter
	now func() time.Time
}

const (
	tableResponseEvents  = "response_events"
	tableLifecycleEvents = "lifecycle_events"
	tableLLMEvents       = "llm_request_events"
)

func (r *eventRepo) AppendResponseEvent(ctx context.Context, data ResponseEventData) error {
	return r.append(ctx, tableResponseEvents,
		[]string{"session_id", "scenario_id", "dimension", "option_id",
			"observed_theta", "information", "theta", "standard_error", "item_count"},
		data.SessionID, data.ScenarioID, data.Dimension, data.OptionID,
		data.ObservedTheta, data.Information, data.Theta, data.StandardError, data.ItemCount,
	)
}

func (r *eventRepo) AppendLifecycleEvent(ctx context.Context, data LifecycleEventData) error {
	return r.append(ctx, tableLifecycleEvents,
		[]string{"session_id", "owner_user_id", "event", "administered", "readiness_theta"},
		data.SessionID, data.OwnerUserID, data.Event, data.Administered, data.ReadinessTheta,
	)
}

func (r *eventRepo) AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error {
	return r.append(ctx, tableLLMEvents,
		[]string{"provider", "model", "purpose", "input_tokens", "output_tokens",
			"latency_ms", "success", "error_message", "request_body", "response_body"},
		data.Provider, data.Model, data.Purpose, data.InputTokens, data.OutputTokens,
		data.LatencyMs, data.Success, data.ErrorMessage, data.RequestBody, data.ResponseBody,
	)
}

// append inserts one event row, prefixing the sequence and timestamp columns.
func (r *eventRepo) append(ctx context.Context, table string, columns []string, values ...any) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	cols := append([]string{"sequence", "timestamp"}, columns...)
	vals := append([]any{seqNum, r.now().UTC().UnixNano()}, values...)

	query, args := builder().Insert(table).Columns(cols...).Values(vals...).Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save %s: %w", table, err)
	}
	return nil
}

func (r *eventRepo) QueryResponseEvents(ctx context.Context, sessionID string, opts QueryOpts) ([]ResponseEvent, error) {
	sel := eventSelector(tableResponseEvents, sessionID, opts,
		"sequence", "timestamp", "session_id", "scenario_id", "dimension", "option_id",
		"observed_theta", "information", "theta", "standard_error", "item_count")

	var out []ResponseEvent
	err := r.query(ctx, sel, func(rows *sql.Rows) error {
		var e ResponseEvent
		var ts int64
		if err := rows.Scan(&e.Sequence, &ts, &e.SessionID, &e.ScenarioID, &e.Dimension, &e.OptionID,
			&e.ObservedTheta, &e.Information, &e.Theta, &e.StandardError, &e.ItemCount); err != nil {
			return err
		}
		e.Timestamp = fromNanos(ts)
		out = append(out, e)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query response events: %w", err)
	}
	return out, nil
}

func (r *eventRepo) QueryLifecycleEvents(ctx context.Context, sessionID string, opts QueryOpts) ([]LifecycleEvent, error) {
	sel := eventSelector(tableLifecycleEvents, sessionID, opts,
		"sequence", "timestamp", "session_id", "owner_user_id", "event", "administered", "readiness_theta")

	var out []LifecycleEvent
	err := r.query(ctx, sel, func(rows *sql.Rows) error {
		var e LifecycleEvent
		var ts int64
		if err := rows.Scan(&e.Sequence, &ts, &e.SessionID, &e.OwnerUserID, &e.Event,
			&e.Administered, &e.ReadinessTheta); err != nil {
			return err
		}
		e.Timestamp = fromNanos(ts)
		out = append(out, e)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query lifecycle events: %w", err)
	}
	return out, nil
}

func (r *eventRepo) QueryLLMRequests(ctx context.Context, opts QueryOpts) ([]LLMRequestEvent, error) {
	sel := eventSelector(tableLLMEvents, "", opts,
		"sequence", "timestamp", "provider", "model", "purpose", "input_tokens", "output_tokens",
		"latency_ms", "success", "error_message", "request_body", "response_body")

	var out []LLMRequestEvent
	err := r.query(ctx, sel, func(rows *sql.Rows) error {
		var e LLMRequestEvent
		var ts int64
		if err := rows.Scan(&e.Sequence, &ts, &e.Provider, &e.Model, &e.Purpose, &e.InputTokens,
			&e.OutputTokens, &e.LatencyMs, &e.Success, &e.ErrorMessage, &e.RequestBody, &e.ResponseBody); err != nil {
			return err
		}
		e.Timestamp = fromNanos(ts)
		out = append(out, e)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query llm request events: %w", err)
	}
	return out, nil
}

func (r *eventRepo) query(ctx context.Context, sel *entsql.Selector, scan func(*sql.Rows) error) error {
	query, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

// eventSelector builds an ordered, filtered select over an event table.
func eventSelector(table, sessionID string, opts QueryOpts, columns ...string) *entsql.Selector {
	b := builder()
	sel := b.Select(columns...).From(b.Table(table))

	var preds []*entsql.Predicate
	if sessionID != "" {
		preds = append(preds, entsql.EQ("session_id", sessionID))
	}
	if opts.After > 0 {
		preds = append(preds, entsql.GT("sequence", opts.After))
	}
	if opts.Before > 0 {
		preds = append(preds, entsql.LT("sequence", opts.Before))
	}
	if !opts.From.IsZero() {
		preds = append(preds, entsql.GTE("timestamp", opts.From.UTC().UnixNano()))
	}
	if !opts.To.IsZero() {
		preds = append(preds, entsql.LTE("timestamp", opts.To.UTC().UnixNano()))
	}
	if len(preds) > 0 {
		sel.Where(entsql.And(preds...))
	}

	sel.OrderBy(entsql.Asc("sequence"))
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}
	return sel
}

func fromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}
