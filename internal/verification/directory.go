package verification

import (
	"context"
	"fmt"
	"sync"

	"github.com/matdaan/vicore/internal/biometric"
)

// Directory supplies enrolled voter signatures. Voter registration data
// belongs to the embedding application; the pipeline only ever reads
// signatures through this boundary.
type Directory interface {
	// Lookup returns the reference signature of one enrolled voter, or
	// ErrUnknownVoter.
	Lookup(ctx context.Context, voterID string) (biometric.Signature, error)

	// Enrolled returns all enrolled signatures keyed by voter ID. The
	// returned map is owned by the caller.
	Enrolled(ctx context.Context) (map[string]biometric.Signature, error)
}

// MemoryDirectory is a map-backed Directory for tests and single-process
// deployments.
type MemoryDirectory struct {
	mu         sync.RWMutex
	signatures map[string]biometric.Signature
}

func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{signatures: make(map[string]biometric.Signature)}
}

// Add enrolls or replaces a voter's reference signature.
func (d *MemoryDirectory) Add(voterID string, sig biometric.Signature) error {
	if voterID == "" {
		return fmt.Errorf("voter ID must be set")
	}
	if len(sig) != biometric.SignatureLen {
		return biometric.ErrSignatureLength
	}

	d.mu.Lock()
	d.signatures[voterID] = sig
	d.mu.Unlock()
	return nil
}

func (d *MemoryDirectory) Lookup(_ context.Context, voterID string) (biometric.Signature, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	sig, ok := d.signatures[voterID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVoter, voterID)
	}
	return sig, nil
}

func (d *MemoryDirectory) Enrolled(_ context.Context) (map[string]biometric.Signature, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make(map[string]biometric.Signature, len(d.signatures))
	for voterID, sig := range d.signatures {
		out[voterID] = sig
	}
	return out, nil
}
