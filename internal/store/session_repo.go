package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// Record keys lifted into indexed columns. They match the session record
// layout; the rest of the record is stored as one JSON document.
const (
	recordKeyOwner   = "owner_user_id"
	recordKeyStatus  = "status"
	recordKeyStarted = "started_at"
	recordKeyTotal   = "total_administered"
)

const tableSessions = "sessions"

// sessionRepo implements SessionRepo on the sessions table.
type sessionRepo struct {
	db  *sql.DB
	now func() time.Time
}

func (r *sessionRepo) Get(ctx context.Context, id string) (map[string]string, error) {
	b := builder()
	query, args := b.Select("record").
		From(b.Table(tableSessions)).
		Where(entsql.EQ("id", id)).
		Query()

	var raw string
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query session: %w", err)
	}

	var rec map[string]string
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("decode session %q: %w", id, err)
	}
	return rec, nil
}

func (r *sessionRepo) Put(ctx context.Context, id string, rec map[string]string) error {
	started, err := time.Parse(time.RFC3339Nano, rec[recordKeyStarted])
	if err != nil {
		return fmt.Errorf("session %q: %s: %w", id, recordKeyStarted, err)
	}
	total, err := strconv.Atoi(rec[recordKeyTotal])
	if err != nil {
		return fmt.Errorf("session %q: %s: %w", id, recordKeyTotal, err)
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode session %q: %w", id, err)
	}

	query, args := builder().Insert(tableSessions).
		Columns("id", "owner_user_id", "status", "started_at", "updated_at", "total_administered", "record").
		Values(id, rec[recordKeyOwner], rec[recordKeyStatus], started.UTC().UnixNano(),
			r.now().UTC().UnixNano(), total, string(raw)).
		OnConflict(entsql.ConflictColumns("id"), entsql.ResolveWithNewValues()).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (r *sessionRepo) Delete(ctx context.Context, id string) error {
	query, args := builder().Delete(tableSessions).Where(entsql.EQ("id", id)).Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (r *sessionRepo) List(ctx context.Context, opts ListOpts) ([]SessionSummary, error) {
	b := builder()
	sel := b.Select("id", "owner_user_id", "status", "total_administered", "started_at", "updated_at").
		From(b.Table(tableSessions))

	var preds []*entsql.Predicate
	if opts.Status != "" {
		preds = append(preds, entsql.EQ("status", opts.Status))
	}
	if opts.OwnerUserID != "" {
		preds = append(preds, entsql.EQ("owner_user_id", opts.OwnerUserID))
	}
	if len(preds) > 0 {
		sel.Where(entsql.And(preds...))
	}
	sel.OrderBy(entsql.Desc("started_at"), entsql.Asc("id"))
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}

	query, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionSummary
	for rows.Next() {
		var s SessionSummary
		var started, updated int64
		if err := rows.Scan(&s.ID, &s.OwnerUserID, &s.Status, &s.TotalAdministered, &started, &updated); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		s.StartedAt = fromNanos(started)
		s.UpdatedAt = fromNanos(updated)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return out, nil
}
