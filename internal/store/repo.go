package store

import (
	"context"
	"time"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // sequence > After
	Before int64     // sequence < Before
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To
}

// ResponseEventData captures one scored response and the estimate it produced.
type ResponseEventData struct {
	SessionID     string
	ScenarioID    string
	Dimension     string
	OptionID      string
	ObservedTheta float64
	Information   float64
	Theta         float64
	StandardError float64
	ItemCount     int
}

// ResponseEvent is a stored ResponseEventData.
type ResponseEvent struct {
	Sequence  int64
	Timestamp time.Time
	ResponseEventData
}

// LifecycleEventData captures a session starting, completing or being
// abandoned.
type LifecycleEventData struct {
	SessionID      string
	OwnerUserID    string
	Event          string
	Administered   int
	ReadinessTheta float64
}

// LifecycleEvent is a stored LifecycleEventData.
type LifecycleEvent struct {
	Sequence  int64
	Timestamp time.Time
	LifecycleEventData
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEvent is a stored LLMRequestEventData.
type LLMRequestEvent struct {
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// EventRepo provides append and query access to domain events. Every event
// gets a sequence number from one counter, so events of different kinds
// can be ordered against each other.
type EventRepo interface {
	AppendResponseEvent(ctx context.Context, data ResponseEventData) error
	AppendLifecycleEvent(ctx context.Context, data LifecycleEventData) error

	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryResponseEvents returns a session's response events in sequence
	// order. An empty sessionID matches every session.
	QueryResponseEvents(ctx context.Context, sessionID string, opts QueryOpts) ([]ResponseEvent, error)
	QueryLifecycleEvents(ctx context.Context, sessionID string, opts QueryOpts) ([]LifecycleEvent, error)
	QueryLLMRequests(ctx context.Context, opts QueryOpts) ([]LLMRequestEvent, error)
}

// SessionSummary is the indexed part of a stored session.
type SessionSummary struct {
	ID                string    `json:"id"`
	OwnerUserID       string    `json:"owner_user_id,omitempty"`
	Status            string    `json:"status"`
	TotalAdministered int       `json:"total_administered"`
	StartedAt         time.Time `json:"started_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// ListOpts filters session listings.
type ListOpts struct {
	Status      string // exact match when set
	OwnerUserID string // exact match when set
	Limit       int    // max results (0 = unlimited)
}

// SessionRepo stores flat session records keyed by session id.
type SessionRepo interface {
	// Get returns the record for id, or an error wrapping ErrNotFound.
	Get(ctx context.Context, id string) (map[string]string, error)

	// Put inserts or replaces the record for id.
	Put(ctx context.Context, id string, rec map[string]string) error

	// Delete removes id. Deleting an unknown id is a no-op.
	Delete(ctx context.Context, id string) error

	// List returns summaries, most recently started first.
	List(ctx context.Context, opts ListOpts) ([]SessionSummary, error)
}
