package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/abhisek/persona/internal/estimate"
	"github.com/abhisek/persona/internal/scenario"
)

// RecordVersion is the current flat record layout.
const RecordVersion = "1"

// Record keys.
const (
	KeyVersion         = "version"
	KeySessionID       = "session_id"
	KeyOwnerUserID     = "owner_user_id"
	KeyStatus          = "status"
	KeyStartedAt       = "started_at"
	KeyCompletedAt     = "completed_at"
	KeyAbandonedAt     = "abandoned_at"
	KeyTotal           = "total_administered"
	KeyLastScenario    = "last_scenario_id"
	KeyDimensions      = "dimensions"
	KeyAdministered    = "administered"
	KeyBusinessContext = "business_context"
	KeyCurrent         = "current_scenario"
	KeyProfile         = "profile"

	// KeyEstimatePrefix prefixes one key per dimension estimate.
	KeyEstimatePrefix = "dim."
)

// ErrInvalidRecord is returned when a record cannot be decoded.
var ErrInvalidRecord = errors.New("invalid session record")

// Record is the flat key/value form of a session. Structured values are
// JSON-encoded; optional values are omitted when unset.
type Record = map[string]string

// ToRecord flattens s.
func ToRecord(s *Session) (Record, error) {
	r := Record{
		KeyVersion:   RecordVersion,
		KeySessionID: s.ID,
		KeyStatus:    string(s.Status),
		KeyStartedAt: s.StartedAt.Format(time.RFC3339Nano),
		KeyTotal:     strconv.Itoa(s.TotalAdministered),
	}
	if s.OwnerUserID != "" {
		r[KeyOwnerUserID] = s.OwnerUserID
	}
	if s.LastScenarioID != "" {
		r[KeyLastScenario] = s.LastScenarioID
	}
	if s.CompletedAt != nil {
		r[KeyCompletedAt] = s.CompletedAt.Format(time.RFC3339Nano)
	}
	if s.AbandonedAt != nil {
		r[KeyAbandonedAt] = s.AbandonedAt.Format(time.RFC3339Nano)
	}

	put := func(key string, v any) error {
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode %s: %w", key, err)
		}
		r[key] = string(b)
		return nil
	}

	if err := put(KeyDimensions, s.Dimensions); err != nil {
		return nil, err
	}
	for _, d := range s.Dimensions {
		if err := put(KeyEstimatePrefix+d, s.Estimates[d]); err != nil {
			return nil, err
		}
	}
	if len(s.Administered) > 0 {
		if err := put(KeyAdministered, s.Administered); err != nil {
			return nil, err
		}
	}
	if len(s.BusinessContext) > 0 {
		if err := put(KeyBusinessContext, s.BusinessContext); err != nil {
			return nil, err
		}
	}
	if s.Current != nil {
		if err := put(KeyCurrent, s.Current); err != nil {
			return nil, err
		}
	}
	if s.Profile != nil {
		if err := put(KeyProfile, s.Profile); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// FromRecord rebuilds a session from its flat form.
func FromRecord(r Record) (*Session, error) {
	if v := r[KeyVersion]; v != RecordVersion {
		return nil, fmt.Errorf("%w: unsupported version %q", ErrInvalidRecord, v)
	}

	s := &Session{
		ID:             r[KeySessionID],
		OwnerUserID:    r[KeyOwnerUserID],
		Status:         Status(r[KeyStatus]),
		LastScenarioID: r[KeyLastScenario],
	}
	if s.ID == "" {
		return nil, fmt.Errorf("%w: missing %s", ErrInvalidRecord, KeySessionID)
	}
	switch s.Status {
	case StatusActive, StatusCompleted, StatusAbandoned:
	default:
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidRecord, s.Status)
	}

	var err error
	if s.StartedAt, err = parseTime(r[KeyStartedAt]); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidRecord, KeyStartedAt, err)
	}
	if s.CompletedAt, err = parseOptionalTime(r, KeyCompletedAt); err != nil {
		return nil, err
	}
	if s.AbandonedAt, err = parseOptionalTime(r, KeyAbandonedAt); err != nil {
		return nil, err
	}
	if s.TotalAdministered, err = strconv.Atoi(r[KeyTotal]); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidRecord, KeyTotal, err)
	}

	get := func(key string, v any) error {
		raw, ok := r[key]
		if !ok {
			return nil
		}
		if err := json.Unmarshal([]byte(raw), v); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidRecord, key, err)
		}
		return nil
	}

	if err := get(KeyDimensions, &s.Dimensions); err != nil {
		return nil, err
	}
	s.Estimates = make(map[string]estimate.Estimate, len(s.Dimensions))
	for _, d := range s.Dimensions {
		key := KeyEstimatePrefix + d
		if _, ok := r[key]; !ok {
			return nil, fmt.Errorf("%w: missing %s", ErrInvalidRecord, key)
		}
		var e estimate.Estimate
		if err := get(key, &e); err != nil {
			return nil, err
		}
		if err := checkEstimate(e); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidRecord, key, err)
		}
		s.Estimates[d] = e
	}
	for k := range r {
		if d, ok := strings.CutPrefix(k, KeyEstimatePrefix); ok {
			if _, known := s.Estimates[d]; !known {
				return nil, fmt.Errorf("%w: estimate for undeclared dimension %q", ErrInvalidRecord, d)
			}
		}
	}

	if err := get(KeyAdministered, &s.Administered); err != nil {
		return nil, err
	}
	if err := get(KeyBusinessContext, &s.BusinessContext); err != nil {
		return nil, err
	}
	if _, ok := r[KeyCurrent]; ok {
		s.Current = &scenario.Scenario{}
		if err := get(KeyCurrent, s.Current); err != nil {
			return nil, err
		}
	}
	if _, ok := r[KeyProfile]; ok {
		s.Profile = &Profile{}
		if err := get(KeyProfile, s.Profile); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func checkEstimate(e estimate.Estimate) error {
	if e.ItemCount != len(e.History) {
		return fmt.Errorf("item count %d with %d observations", e.ItemCount, len(e.History))
	}
	if !(e.StandardError > 0) || math.IsInf(e.StandardError, 0) {
		return fmt.Errorf("standard error %v", e.StandardError)
	}
	if math.IsNaN(e.Theta) || math.IsInf(e.Theta, 0) {
		return fmt.Errorf("theta %v", e.Theta)
	}
	return nil
}

func parseTime(v string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, v)
}

func parseOptionalTime(r Record, key string) (*time.Time, error) {
	v, ok := r[key]
	if !ok {
		return nil, nil
	}
	t, err := parseTime(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidRecord, key, err)
	}
	return &t, nil
}
