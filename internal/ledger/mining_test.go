package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matdaan/vicore/internal/models"
)

func unminedBlock(index uint64, previous models.Hash256) models.Block {
	castAt := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	return models.Block{
		Index:        index,
		Timestamp:    castAt,
		PreviousHash: previous,
		Data: models.VoteRecord{
			VoterHash:     HashVoterID("alice", "election-2026", "salt"),
			ElectionID:    "election-2026",
			CandidateHash: HashCandidateID("kodos"),
			CastAt:        castAt,
		},
	}
}

func TestMineBlockFindsNonce(t *testing.T) {
	block := unminedBlock(1, HashCandidateID("previous"))

	mined, err := mineBlock(context.Background(), block, 8, 1<<20, 2)
	require.NoError(t, err)

	assert.Equal(t, mined.Hash, ComputeBlockHash(&mined))
	assert.True(t, meetsDifficulty(mined.Hash, 8))

	// Everything except the nonce and hash comes through untouched.
	assert.Equal(t, block.Index, mined.Index)
	assert.Equal(t, block.PreviousHash, mined.PreviousHash)
	assert.Equal(t, block.Data, mined.Data)

	assert.Zero(t, block.Nonce)
	assert.True(t, block.Hash.IsZero())
}

func TestMineBlockExhaustsAttempts(t *testing.T) {
	block := unminedBlock(1, HashCandidateID("previous"))

	_, err := mineBlock(context.Background(), block, 64, 100, 2)
	require.ErrorIs(t, err, ErrMiningTimeout)
}

func TestMineBlockHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	block := unminedBlock(1, HashCandidateID("previous"))

	_, err := mineBlock(ctx, block, 64, 1<<30, 2)
	require.ErrorIs(t, err, context.Canceled)
}
