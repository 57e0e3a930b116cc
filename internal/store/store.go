// Package store persists the vote ledger and the verification attempt log.
package store

import (
	"context"
	"time"

	"github.com/matdaan/vicore/internal/models"
)

// Store is the durability boundary of the ledger. Blocks are written once and
// never updated; attempts are append-only.
type Store interface {
	WriteBlock(ctx context.Context, block *models.Block) error
	LoadChain(ctx context.Context) ([]models.Block, error)
	WriteAttempt(ctx context.Context, attempt *models.VerificationAttempt) error
	CountRecentFailures(ctx context.Context, voterID string, since time.Time) (uint, error)
	Close() error
}
