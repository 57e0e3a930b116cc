package verification

import (
	"errors"
	"fmt"

	"github.com/matdaan/vicore/internal/models"
)

var (
	// ErrRateLimited rejects a voter with too many recent failed attempts.
	ErrRateLimited = errors.New("too many failed verification attempts")

	// ErrUnknownVoter reports a voter ID with no enrolled signature.
	ErrUnknownVoter = errors.New("voter is not enrolled")
)

// StageError is a verification failure at one pipeline stage. The outcome
// identifies the stage that rejected the attempt.
type StageError struct {
	Outcome models.AttemptOutcome
	Reason  string
}

func (e *StageError) Error() string {
	return fmt.Sprintf("verification failed (%s): %s", e.Outcome, e.Reason)
}
