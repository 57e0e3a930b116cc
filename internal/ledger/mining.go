package ledger

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/matdaan/vicore/internal/models"
)

// mineBlock searches for a nonce whose block digest carries at least
// difficulty leading zero bits. Workers stripe the nonce space and the search
// stops at the first hit, on context cancellation, or once the attempt
// ceiling is spent. The input block is not modified.
func mineBlock(ctx context.Context, block models.Block, difficulty uint, maxAttempts uint64, workers uint) (models.Block, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	perWorker := maxAttempts / uint64(workers)
	if maxAttempts%uint64(workers) != 0 {
		perWorker++
	}

	var (
		once  sync.Once
		found bool
		mined models.Block
	)

	g := new(errgroup.Group)
	for w := uint(0); w < workers; w++ {
		g.Go(func() error {
			candidate := block
			nonce := uint64(w)
			for attempt := uint64(0); attempt < perWorker; attempt++ {
				if attempt&0x03FF == 0 {
					select {
					case <-ctx.Done():
						return ctx.Err()
					default:
					}
				}

				candidate.Nonce = nonce
				hash := ComputeBlockHash(&candidate)
				if meetsDifficulty(hash, difficulty) {
					candidate.Hash = hash
					once.Do(func() {
						mined = candidate
						found = true
					})
					cancel()
					return nil
				}

				nonce += uint64(workers)
			}
			return nil
		})
	}

	err := g.Wait()
	if found {
		return mined, nil
	}
	if err != nil {
		return models.Block{}, err
	}

	return models.Block{}, ErrMiningTimeout
}
