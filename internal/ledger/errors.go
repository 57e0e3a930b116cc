package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateVote rejects a second ballot for the same voter and election.
	ErrDuplicateVote = errors.New("vote already recorded for this voter and election")

	// ErrNoVerdict rejects an append without a prior passed verification.
	ErrNoVerdict = errors.New("no verification verdict for voter")

	// ErrStaleVerdict rejects an append whose verification verdict has expired.
	ErrStaleVerdict = errors.New("verification verdict has expired")

	// ErrMiningTimeout reports that the mining attempt ceiling was reached
	// before a conforming nonce was found. The chain is unchanged.
	ErrMiningTimeout = errors.New("mining attempt ceiling reached")

	// ErrLedgerHalted rejects writes after an integrity failure until an
	// operator intervenes.
	ErrLedgerHalted = errors.New("ledger halted after integrity failure")
)

// IntegrityError reports the first block at which chain verification failed.
// The ledger never repairs the chain itself.
type IntegrityError struct {
	Index  uint64
	Reason string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("chain integrity failure at block %d: %s", e.Index, e.Reason)
}
