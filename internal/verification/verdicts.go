package verification

import (
	"context"
	"sync"
	"time"

	"github.com/matdaan/vicore/internal/ledger"
)

// Verdict is a single-use token proving a voter passed verification.
type Verdict struct {
	VoterID   string    `json:"voter_id"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// VerdictStore holds unconsumed verdicts in memory. It satisfies the
// ledger's verdict source: Consume removes the verdict it accepts, so one
// passed verification admits exactly one ballot.
type VerdictStore struct {
	ttl time.Duration

	mu       sync.Mutex
	verdicts map[string]Verdict
}

func NewVerdictStore(ttl time.Duration) *VerdictStore {
	return &VerdictStore{
		ttl:      ttl,
		verdicts: make(map[string]Verdict),
	}
}

// Issue replaces any previous verdict for the voter.
func (s *VerdictStore) Issue(voterID string) Verdict {
	now := time.Now().UTC()
	verdict := Verdict{
		VoterID:   voterID,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl),
	}

	s.mu.Lock()
	s.verdicts[voterID] = verdict
	s.mu.Unlock()

	return verdict
}

// Consume accepts and invalidates the voter's verdict. An expired verdict is
// also invalidated: the voter must verify again.
func (s *VerdictStore) Consume(_ context.Context, voterID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	verdict, ok := s.verdicts[voterID]
	if !ok {
		return ledger.ErrNoVerdict
	}
	delete(s.verdicts, voterID)

	if time.Now().After(verdict.ExpiresAt) {
		return ledger.ErrStaleVerdict
	}
	return nil
}
