// Package errors provides the coded error taxonomy shared by the
// matching engine and its workflow workers.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeInvalidMatchRequest      ErrorCode = "INVALID_MATCH_REQUEST"
	ErrCodeCandidateEvaluationError ErrorCode = "CANDIDATE_EVALUATION_FAILED"
	ErrCodeAvailabilityProbeFailed  ErrorCode = "AVAILABILITY_PROBE_FAILED"
	ErrCodeMatchRunFailed           ErrorCode = "MATCH_RUN_FAILED"
	ErrCodeMatchRunTimeout          ErrorCode = "MATCH_RUN_TIMEOUT"
	ErrCodePoolQueryFailed          ErrorCode = "POOL_QUERY_FAILED"
	ErrCodeProfileFetchFailed       ErrorCode = "PROFILE_FETCH_FAILED"
	ErrCodeCandidateSearchFailed    ErrorCode = "CANDIDATE_SEARCH_FAILED"
	ErrCodeAnnouncementFailed       ErrorCode = "ANNOUNCEMENT_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// AsStandard normalizes any error into a StandardError so callers
// always have a code and retryability to act on.
func AsStandard(err error) *StandardError {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}
	return &StandardError{
		Code:      "INTERNAL_ERROR",
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidMatchRequestError flags a malformed student/exam payload.
// Not retryable: the workflow must fix its input.
func NewInvalidMatchRequestError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidMatchRequest,
		Message:   "Match request failed validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCandidateEvaluationError wraps a per-candidate scoring failure.
// Recovered locally by skipping the candidate, never retried.
func NewCandidateEvaluationError(scribeID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCandidateEvaluationError,
		Message:   "Candidate evaluation failed",
		Details:   err.Error(),
		Retryable: false,
		Metadata:  map[string]interface{}{"scribeId": scribeID},
		Timestamp: time.Now().UTC(),
	}
}

// NewAvailabilityProbeError wraps a calendar lookup failure.
func NewAvailabilityProbeError(scribeID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAvailabilityProbeFailed,
		Message:   "Availability probe error",
		Details:   err.Error(),
		Retryable: true,
		Metadata:  map[string]interface{}{"scribeId": scribeID},
		Timestamp: time.Now().UTC(),
	}
}

// NewMatchRunFailedError marks a whole run as failed, as opposed to a
// run that completed with zero matches.
func NewMatchRunFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeMatchRunFailed,
		Message:   "Match run could not be completed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewMatchRunTimeoutError marks a run cut off by its deadline.
func NewMatchRunTimeoutError(evaluated, total int) *StandardError {
	return &StandardError{
		Code:      ErrCodeMatchRunTimeout,
		Message:   "Match run exceeded its deadline",
		Details:   fmt.Sprintf("evaluated %d of %d candidates", evaluated, total),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewPoolQueryFailedError wraps a candidate pool lookup failure.
func NewPoolQueryFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePoolQueryFailed,
		Message:   "Candidate pool query failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewProfileFetchFailedError wraps a scribe profile lookup failure.
func NewProfileFetchFailedError(scribeID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeProfileFetchFailed,
		Message:   "Scribe profile fetch failed",
		Details:   err.Error(),
		Retryable: true,
		Metadata:  map[string]interface{}{"scribeId": scribeID},
		Timestamp: time.Now().UTC(),
	}
}

// NewCandidateSearchFailedError wraps a search index failure.
func NewCandidateSearchFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCandidateSearchFailed,
		Message:   "Candidate search query failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewAnnouncementFailedError wraps a side-channel publish failure. The
// announcement is best-effort, so this is logged, not propagated.
func NewAnnouncementFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAnnouncementFailed,
		Message:   "Match announcement publish failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// GetRetryCount returns how many workflow-level retries a code earns.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeMatchRunFailed, ErrCodeMatchRunTimeout, ErrCodePoolQueryFailed,
		ErrCodeProfileFetchFailed, ErrCodeCandidateSearchFailed, ErrCodeAvailabilityProbeFailed:
		return 3
	default:
		return 0
	}
}

// GetErrorCategory groups codes for logging and metrics labels.
func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeInvalidMatchRequest:
		return "validation"
	case ErrCodeCandidateEvaluationError, ErrCodeMatchRunFailed, ErrCodeMatchRunTimeout:
		return "matching"
	case ErrCodePoolQueryFailed, ErrCodeProfileFetchFailed, ErrCodeCandidateSearchFailed, ErrCodeAvailabilityProbeFailed:
		return "upstream"
	case ErrCodeAnnouncementFailed:
		return "notification"
	default:
		return "internal"
	}
}
