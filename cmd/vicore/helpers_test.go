package vicore_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/matdaan/vicore/internal/ledger"
	"github.com/matdaan/vicore/internal/models"
	"github.com/matdaan/vicore/internal/store"
	"github.com/matdaan/vicore/internal/testutil"
	"github.com/matdaan/vicore/internal/verification"
)

const testElection = "election-2026"

// buildChain mines a ledger with one ballot per voter into dir.
func buildChain(t *testing.T, dir string, votes map[string]string) []models.Block {
	t.Helper()

	st, err := store.NewJSONStore(dir)
	require.NoError(t, err)
	defer st.Close()

	verdicts := verification.NewVerdictStore(time.Minute)
	svc, err := ledger.New(context.Background(), testutil.LedgerConfig(), st, verdicts, nil)
	require.NoError(t, err)

	for voter, candidate := range votes {
		verdicts.Issue(voter)
		_, err := svc.AppendVote(context.Background(), voter, testElection, candidate)
		require.NoError(t, err)
	}

	return svc.Export()
}

func splitLines(data []byte) []string {
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}
