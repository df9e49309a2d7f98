package engine

import (
	"errors"
	"fmt"

	"github.com/abhisek/persona/internal/estimate"
	"github.com/abhisek/persona/internal/response"
	"github.com/abhisek/persona/internal/session"
)

// Caller-visible errors. Every engine error wraps one of these in a
// *SessionError.
var (
	ErrSessionNotFound       = errors.New("session not found")
	ErrSessionNotActive      = session.ErrNotActive
	ErrScenarioMismatch      = errors.New("scenario mismatch")
	ErrAssessmentNotComplete = errors.New("assessment not complete")
	ErrNoScenarioAvailable   = errors.New("no scenario available")
	ErrProviderTimeout       = errors.New("scenario provider timed out")

	ErrUnknownOption        = response.ErrUnknownOption
	ErrInvalidInformation   = estimate.ErrInvalidInformation
	ErrEstimationDegenerate = estimate.ErrEstimationDegenerate
)

// SessionError enriches an engine failure with the operation and session.
type SessionError struct {
	Op        string
	SessionID string
	Err       error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("%s session %s: %v", e.Op, e.SessionID, e.Err)
}

func (e *SessionError) Unwrap() error { return e.Err }

// Retryable reports whether the failed step may succeed if repeated
// unchanged. Input errors are never retryable.
func Retryable(err error) bool {
	return errors.Is(err, ErrProviderTimeout) || errors.Is(err, ErrNoScenarioAvailable)
}

func wrap(op, id string, err error) error {
	if err == nil {
		return nil
	}
	var se *SessionError
	if errors.As(err, &se) {
		return err
	}
	return &SessionError{Op: op, SessionID: id, Err: err}
}
