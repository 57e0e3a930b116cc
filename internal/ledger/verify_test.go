package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matdaan/vicore/internal/models"
)

const testDifficulty = 8

// mineChain builds a genesis block plus one mined block per ballot.
func mineChain(t *testing.T, ballots []models.VoteRecord) []models.Block {
	t.Helper()

	genesis := models.Block{
		Index:        0,
		Timestamp:    time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC),
		PreviousHash: models.ZeroHash,
	}
	mined, err := mineBlock(context.Background(), genesis, testDifficulty, 1<<20, 2)
	require.NoError(t, err)

	blocks := []models.Block{mined}
	for i, ballot := range ballots {
		block := models.Block{
			Index:        uint64(i + 1),
			Timestamp:    ballot.CastAt,
			PreviousHash: blocks[i].Hash,
			Data:         ballot,
		}
		mined, err := mineBlock(context.Background(), block, testDifficulty, 1<<20, 2)
		require.NoError(t, err)
		blocks = append(blocks, mined)
	}

	return blocks
}

func testBallot(voterID, candidateID string, minute int) models.VoteRecord {
	castAt := time.Date(2026, 3, 14, 9, minute, 0, 0, time.UTC)
	return models.VoteRecord{
		VoterHash:     HashVoterID(voterID, "election-2026", "salt"),
		ElectionID:    "election-2026",
		CandidateHash: HashCandidateID(candidateID),
		CastAt:        castAt,
	}
}

func testChain(t *testing.T) []models.Block {
	t.Helper()
	return mineChain(t, []models.VoteRecord{
		testBallot("alice", "kodos", 1),
		testBallot("bob", "kang", 2),
		testBallot("carol", "kodos", 3),
	})
}

func requireIntegrityError(t *testing.T, err error, index uint64, reason string) {
	t.Helper()
	var integrityErr *IntegrityError
	require.ErrorAs(t, err, &integrityErr)
	assert.Equal(t, index, integrityErr.Index)
	assert.Contains(t, integrityErr.Reason, reason)
}

func TestVerifyBlocksValidChain(t *testing.T) {
	require.NoError(t, VerifyBlocks(context.Background(), testChain(t), testDifficulty))
}

func TestVerifyBlocksEmptyChain(t *testing.T) {
	err := VerifyBlocks(context.Background(), nil, testDifficulty)
	requireIntegrityError(t, err, 0, "missing genesis block")
}

func TestVerifyBlocksDetectsTamperedPayload(t *testing.T) {
	blocks := testChain(t)
	blocks[2].Data.CandidateHash = HashCandidateID("rigged")

	err := VerifyBlocks(context.Background(), blocks, testDifficulty)
	requireIntegrityError(t, err, 2, "stored hash does not match block contents")
}

func TestVerifyBlocksDetectsReminedMiddleBlock(t *testing.T) {
	blocks := testChain(t)

	// Re-mining a middle block yields a self-consistent block whose new hash
	// no longer matches the successor's previous-hash link.
	tampered := blocks[2]
	tampered.Data.CandidateHash = HashCandidateID("rigged")
	tampered.Hash = models.ZeroHash
	tampered.Nonce = 0
	mined, err := mineBlock(context.Background(), tampered, testDifficulty, 1<<20, 2)
	require.NoError(t, err)
	blocks[2] = mined

	verifyErr := VerifyBlocks(context.Background(), blocks, testDifficulty)
	requireIntegrityError(t, verifyErr, 3, "previous hash does not match preceding block")
}

func TestVerifyBlocksDetectsBrokenLink(t *testing.T) {
	blocks := testChain(t)
	blocks[2].PreviousHash[0] ^= 1

	err := VerifyBlocks(context.Background(), blocks, testDifficulty)
	requireIntegrityError(t, err, 2, "previous hash does not match preceding block")
}

func TestVerifyBlocksDetectsIndexGap(t *testing.T) {
	blocks := testChain(t)
	truncated := append(blocks[:2:2], blocks[3])

	err := VerifyBlocks(context.Background(), truncated, testDifficulty)
	requireIntegrityError(t, err, 2, "out of sequence")
}

func TestVerifyBlocksDetectsForgedGenesisLink(t *testing.T) {
	blocks := testChain(t)
	blocks[0].PreviousHash = HashCandidateID("forged")

	err := VerifyBlocks(context.Background(), blocks, testDifficulty)
	requireIntegrityError(t, err, 0, "genesis previous hash is not the zero sentinel")
}

func TestVerifyBlocksDetectsGenesisWithPayload(t *testing.T) {
	fake := models.Block{
		Index:        0,
		Timestamp:    time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC),
		PreviousHash: models.ZeroHash,
		Data:         testBallot("alice", "kodos", 1),
	}
	mined, err := mineBlock(context.Background(), fake, testDifficulty, 1<<20, 2)
	require.NoError(t, err)

	// Even a properly mined block cannot smuggle a ballot into slot zero.
	verifyErr := VerifyBlocks(context.Background(), []models.Block{mined}, testDifficulty)
	requireIntegrityError(t, verifyErr, 0, "genesis block carries a vote payload")
}

func TestVerifyBlocksEnforcesDifficulty(t *testing.T) {
	blocks := testChain(t)

	err := VerifyBlocks(context.Background(), blocks, 30)
	requireIntegrityError(t, err, 0, "hash does not meet difficulty 30")
}

func TestVerifyBlocksHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := VerifyBlocks(ctx, testChain(t), testDifficulty)
	require.ErrorIs(t, err, context.Canceled)
}

func TestTallyBlocks(t *testing.T) {
	counts, err := TallyBlocks(context.Background(), testChain(t), "election-2026", []string{"kodos", "kang", "nobody"})
	require.NoError(t, err)

	assert.Equal(t, map[string]uint64{
		"kodos":  2,
		"kang":   1,
		"nobody": 0,
	}, counts)
}

func TestTallyBlocksGenesisOnlyChain(t *testing.T) {
	counts, err := TallyBlocks(context.Background(), mineChain(t, nil), "election-2026", []string{"kodos", "kang"})
	require.NoError(t, err)
	assert.Equal(t, map[string]uint64{"kodos": 0, "kang": 0}, counts)
}

func TestTallyBlocksIgnoresOtherElections(t *testing.T) {
	ballots := []models.VoteRecord{
		testBallot("alice", "kodos", 1),
		{
			VoterHash:     HashVoterID("bob", "election-2027", "salt"),
			ElectionID:    "election-2027",
			CandidateHash: HashCandidateID("kodos"),
			CastAt:        time.Date(2026, 3, 14, 9, 2, 0, 0, time.UTC),
		},
	}

	counts, err := TallyBlocks(context.Background(), mineChain(t, ballots), "election-2026", []string{"kodos"})
	require.NoError(t, err)
	assert.Equal(t, map[string]uint64{"kodos": 1}, counts)
}

func TestTallyBlocksRequiresElection(t *testing.T) {
	_, err := TallyBlocks(context.Background(), testChain(t), "", []string{"kodos"})
	require.ErrorContains(t, err, "election ID must be set")
}

func TestTallyBlocksHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := TallyBlocks(ctx, testChain(t), "election-2026", []string{"kodos"})
	require.ErrorIs(t, err, context.Canceled)
}
