package profile

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownKind indicates an unregistered profile kind.
	ErrUnknownKind = errors.New("unknown profile kind")
	// ErrUnknownTarget indicates a (section, subsection, field) triple
	// that does not exist in the profile schema.
	ErrUnknownTarget = errors.New("unknown target field")
	// ErrInvalidTransition indicates an illegal recommendation status change.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrConcurrentCommit indicates a commit was already in flight for the profile.
	ErrConcurrentCommit = errors.New("commit already in flight for profile")
	// ErrPersistence wraps a failed save; the whole commit is rolled back.
	ErrPersistence = errors.New("persistence failure")
	// ErrProfileNotFound indicates the store has no profile with that ID.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrSourceNotFound indicates a source ID not present on the field.
	ErrSourceNotFound = errors.New("source not found")
	// ErrRecommendationNotFound indicates an unknown recommendation ID.
	ErrRecommendationNotFound = errors.New("recommendation not found")
)

// ChunkValidationError reports a single malformed extraction chunk.
// A bad chunk is dropped from the batch; the rest keep processing.
type ChunkValidationError struct {
	Index  int    `json:"index"`
	Target string `json:"target"`
	Reason string `json:"reason"`
}

func (e ChunkValidationError) Error() string {
	return fmt.Sprintf("chunk %d (%s): %s", e.Index, e.Target, e.Reason)
}
