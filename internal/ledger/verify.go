package ledger

import (
	"context"
	"fmt"

	"github.com/matdaan/vicore/internal/models"
)

// VerifyBlocks re-derives every block digest and checks linkage, index
// contiguity and difficulty compliance. It reports the first failing block
// and never modifies the chain. A nil error means the chain is intact.
func VerifyBlocks(ctx context.Context, blocks []models.Block, difficulty uint) error {
	if len(blocks) == 0 {
		return &IntegrityError{Index: 0, Reason: "missing genesis block"}
	}

	var prevHash models.Hash256
	for i, block := range blocks {
		if i&0xFF == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		if block.Index != uint64(i) {
			return &IntegrityError{Index: uint64(i), Reason: fmt.Sprintf("block index %d out of sequence", block.Index)}
		}

		if i == 0 {
			if !block.PreviousHash.IsZero() {
				return &IntegrityError{Index: 0, Reason: "genesis previous hash is not the zero sentinel"}
			}
			if !block.Data.IsGenesis() {
				return &IntegrityError{Index: 0, Reason: "genesis block carries a vote payload"}
			}
		} else if block.PreviousHash != prevHash {
			return &IntegrityError{Index: uint64(i), Reason: "previous hash does not match preceding block"}
		}

		if ComputeBlockHash(&block) != block.Hash {
			return &IntegrityError{Index: uint64(i), Reason: "stored hash does not match block contents"}
		}

		if !meetsDifficulty(block.Hash, difficulty) {
			return &IntegrityError{Index: uint64(i), Reason: fmt.Sprintf("hash does not meet difficulty %d", difficulty)}
		}

		prevHash = block.Hash
	}

	return nil
}

// TallyBlocks replays a chain and counts ballots per candidate for one
// election. Only the supplied candidate IDs are counted; ballots remain
// anonymous to callers who do not know a candidate ID.
func TallyBlocks(ctx context.Context, blocks []models.Block, electionID string, candidateIDs []string) (map[string]uint64, error) {
	if electionID == "" {
		return nil, fmt.Errorf("election ID must be set")
	}

	byHash := make(map[models.Hash256]string, len(candidateIDs))
	counts := make(map[string]uint64, len(candidateIDs))
	for _, id := range candidateIDs {
		byHash[HashCandidateID(id)] = id
		counts[id] = 0
	}

	for i, block := range blocks {
		if i&0x3FF == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		if block.Index == 0 || block.Data.ElectionID != electionID {
			continue
		}
		if id, ok := byHash[block.Data.CandidateHash]; ok {
			counts[id]++
		}
	}

	return counts, nil
}
