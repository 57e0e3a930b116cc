package ledger_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matdaan/vicore/internal/ledger"
	"github.com/matdaan/vicore/internal/store"
	"github.com/matdaan/vicore/internal/testutil"
	"github.com/matdaan/vicore/internal/verification"
)

const testElection = "election-2026"

func newTestLedger(t *testing.T, dir string) (*ledger.Service, *verification.VerdictStore) {
	t.Helper()

	st, err := store.NewJSONStore(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	verdicts := verification.NewVerdictStore(time.Minute)
	svc, err := ledger.New(context.Background(), testutil.LedgerConfig(), st, verdicts, nil)
	require.NoError(t, err)

	return svc, verdicts
}

func castVote(t *testing.T, svc *ledger.Service, verdicts *verification.VerdictStore, voterID, candidateID string) {
	t.Helper()
	verdicts.Issue(voterID)
	_, err := svc.AppendVote(context.Background(), voterID, testElection, candidateID)
	require.NoError(t, err)
}

func TestNewMinesGenesisOnEmptyStore(t *testing.T) {
	svc, _ := newTestLedger(t, t.TempDir())

	assert.Equal(t, uint64(1), svc.Height())
	require.NoError(t, svc.VerifyChain(context.Background()))

	blocks := svc.Export()
	require.Len(t, blocks, 1)
	assert.True(t, blocks[0].PreviousHash.IsZero())
	assert.True(t, blocks[0].Data.IsGenesis())
}

func TestNewReloadsPersistedChain(t *testing.T) {
	dir := t.TempDir()

	svc, verdicts := newTestLedger(t, dir)
	castVote(t, svc, verdicts, "alice", "kodos")
	castVote(t, svc, verdicts, "bob", "kang")

	reloaded, _ := newTestLedger(t, dir)
	assert.Equal(t, uint64(3), reloaded.Height())
	assert.True(t, reloaded.HasVoted("alice", testElection))
	assert.True(t, reloaded.HasVoted("bob", testElection))
	assert.False(t, reloaded.HasVoted("carol", testElection))
	assert.False(t, reloaded.HasVoted("alice", "election-2027"))
	require.NoError(t, reloaded.VerifyChain(context.Background()))
}

func TestNewRefusesTamperedStore(t *testing.T) {
	dir := t.TempDir()

	svc, verdicts := newTestLedger(t, dir)
	castVote(t, svc, verdicts, "alice", "kodos")

	tampered := svc.Export()[1]
	tampered.Data.ElectionID = "rigged"

	st, err := store.NewJSONStore(dir)
	require.NoError(t, err)
	require.NoError(t, st.WriteBlock(context.Background(), &tampered))
	require.NoError(t, st.Close())

	st, err = store.NewJSONStore(dir)
	require.NoError(t, err)
	defer st.Close()

	_, err = ledger.New(context.Background(), testutil.LedgerConfig(), st, verification.NewVerdictStore(time.Minute), nil)
	require.ErrorContains(t, err, "refusing to start on invalid chain")

	var integrityErr *ledger.IntegrityError
	require.ErrorAs(t, err, &integrityErr)
	assert.Equal(t, uint64(1), integrityErr.Index)
}

func TestAppendVoteIssuesReceipt(t *testing.T) {
	svc, verdicts := newTestLedger(t, t.TempDir())
	verdicts.Issue("alice")

	receipt, err := svc.AppendVote(context.Background(), "alice", testElection, "kodos")
	require.NoError(t, err)

	assert.Equal(t, uint64(1), receipt.BlockIndex)
	assert.Len(t, receipt.TransactionID, 32)
	assert.WithinDuration(t, time.Now().UTC(), receipt.CastAt, time.Minute)

	block, ok := svc.BlockByHash(receipt.BlockHash)
	require.True(t, ok)
	assert.Equal(t, receipt.BlockIndex, block.Index)
	assert.Equal(t, testElection, block.Data.ElectionID)
}

func TestAppendVoteRequiresAllIDs(t *testing.T) {
	svc, _ := newTestLedger(t, t.TempDir())

	_, err := svc.AppendVote(context.Background(), "alice", testElection, "")
	require.ErrorContains(t, err, "must all be set")
}

func TestAppendVoteRejectsDuplicate(t *testing.T) {
	svc, verdicts := newTestLedger(t, t.TempDir())
	castVote(t, svc, verdicts, "alice", "kodos")

	// A fresh verdict does not buy a second ballot in the same election.
	verdicts.Issue("alice")
	_, err := svc.AppendVote(context.Background(), "alice", testElection, "kang")
	require.ErrorIs(t, err, ledger.ErrDuplicateVote)

	assert.Equal(t, uint64(2), svc.Height())
}

func TestAppendVoteAllowsOtherElection(t *testing.T) {
	svc, verdicts := newTestLedger(t, t.TempDir())
	castVote(t, svc, verdicts, "alice", "kodos")

	verdicts.Issue("alice")
	_, err := svc.AppendVote(context.Background(), "alice", "election-2027", "kodos")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), svc.Height())
}

func TestAppendVoteRequiresVerdict(t *testing.T) {
	svc, _ := newTestLedger(t, t.TempDir())

	_, err := svc.AppendVote(context.Background(), "alice", testElection, "kodos")
	require.ErrorIs(t, err, ledger.ErrNoVerdict)
	assert.Equal(t, uint64(1), svc.Height())
}

func TestAppendVoteRejectsStaleVerdict(t *testing.T) {
	st, err := store.NewJSONStore(t.TempDir())
	require.NoError(t, err)
	defer st.Close()

	verdicts := verification.NewVerdictStore(-time.Minute)
	svc, err := ledger.New(context.Background(), testutil.LedgerConfig(), st, verdicts, nil)
	require.NoError(t, err)

	verdicts.Issue("alice")
	_, err = svc.AppendVote(context.Background(), "alice", testElection, "kodos")
	require.ErrorIs(t, err, ledger.ErrStaleVerdict)

	// The stale verdict is gone; the voter must verify again.
	verdicts.Issue("alice")
	_, err = svc.AppendVote(context.Background(), "alice", testElection, "kodos")
	require.NoError(t, err)
}

func TestVerifyReceipt(t *testing.T) {
	svc, verdicts := newTestLedger(t, t.TempDir())
	verdicts.Issue("alice")

	receipt, err := svc.AppendVote(context.Background(), "alice", testElection, "kodos")
	require.NoError(t, err)

	check, err := svc.VerifyReceipt(context.Background(), receipt.BlockHash)
	require.NoError(t, err)
	assert.True(t, check.ChainValid)
	assert.Equal(t, receipt.BlockIndex, check.Block.Index)

	_, err = svc.VerifyReceipt(context.Background(), ledger.HashCandidateID("unknown"))
	require.ErrorContains(t, err, "no block with hash")
}

func TestStats(t *testing.T) {
	svc, verdicts := newTestLedger(t, t.TempDir())
	castVote(t, svc, verdicts, "alice", "kodos")
	castVote(t, svc, verdicts, "bob", "kang")

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, uint64(3), stats.Height)
	assert.Equal(t, uint64(2), stats.TotalVotes)
	assert.Equal(t, uint(8), stats.Difficulty)
	assert.True(t, stats.Valid)

	blocks := svc.Export()
	assert.Equal(t, blocks[len(blocks)-1].Hash, stats.LatestHash)
}

func TestTallyOnService(t *testing.T) {
	svc, verdicts := newTestLedger(t, t.TempDir())
	castVote(t, svc, verdicts, "alice", "kodos")
	castVote(t, svc, verdicts, "bob", "kang")
	castVote(t, svc, verdicts, "carol", "kodos")

	counts, err := svc.Tally(context.Background(), testElection, []string{"kodos", "kang"})
	require.NoError(t, err)
	assert.Equal(t, map[string]uint64{"kodos": 2, "kang": 1}, counts)
}

func TestConcurrentAppendsStayContiguous(t *testing.T) {
	svc, verdicts := newTestLedger(t, t.TempDir())

	voters := []string{"alice", "bob", "carol", "dave", "erin", "frank", "grace", "heidi"}
	for _, voter := range voters {
		verdicts.Issue(voter)
	}

	var wg sync.WaitGroup
	errs := make([]error, len(voters))
	for i, voter := range voters {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = svc.AppendVote(context.Background(), voter, testElection, "kodos")
		}()
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "voter %s", voters[i])
	}

	assert.Equal(t, uint64(len(voters)+1), svc.Height())
	require.NoError(t, svc.VerifyChain(context.Background()))

	for i, block := range svc.Export() {
		assert.Equal(t, uint64(i), block.Index)
	}
}

func TestConcurrentAppendsSingleVerdictAdmitsOneBallot(t *testing.T) {
	svc, verdicts := newTestLedger(t, t.TempDir())
	verdicts.Issue("alice")

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = svc.AppendVote(context.Background(), "alice", testElection, "kodos")
		}()
	}
	wg.Wait()

	var successes int
	for _, err := range errs {
		if err == nil {
			successes++
		} else {
			require.ErrorIs(t, err, ledger.ErrNoVerdict)
		}
	}

	assert.Equal(t, 1, successes)
	assert.Equal(t, uint64(2), svc.Height())
}
