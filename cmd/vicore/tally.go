package vicore

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/matdaan/vicore/internal/ledger"
	"github.com/matdaan/vicore/internal/store"
)

var TallyCmd = &cobra.Command{
	Use:   "tally",
	Short: "Count ballots per candidate for one election",
	Long:  `Tally verifies the chain and replays it, counting ballots for the supplied candidates.`,
}

var tallyJSONCmd = &cobra.Command{
	Use:   "json [flags]",
	Short: "Tally a JSON file ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openJSONStore()
		if err != nil {
			return err
		}
		defer st.Close()

		return runTally(cmd, st)
	},
}

var tallyPostgresCmd = &cobra.Command{
	Use:   "postgres [flags]",
	Short: "Tally a PostgreSQL ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openPostgresStore()
		if err != nil {
			return err
		}
		defer st.Close()

		return runTally(cmd, st)
	},
}

func runTally(cmd *cobra.Command, st store.Store) error {
	difficulty, err := chainDifficulty()
	if err != nil {
		return err
	}

	electionID := viper.GetString("election")
	if electionID == "" {
		return fmt.Errorf("missing election ID")
	}
	candidates := viper.GetStringSlice("candidates")
	if len(candidates) == 0 {
		return fmt.Errorf("missing candidate IDs")
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	handleInterrupt(cancel)

	blocks, err := st.LoadChain(ctx)
	if err != nil {
		return fmt.Errorf("failed to load chain: %w", err)
	}

	if err := ledger.VerifyBlocks(ctx, blocks, difficulty); err != nil {
		return fmt.Errorf("refusing to tally an invalid chain: %w", err)
	}

	counts, err := ledger.TallyBlocks(ctx, blocks, electionID, candidates)
	if err != nil {
		return fmt.Errorf("failed to tally chain: %w", err)
	}

	out := cmd.OutOrStdout()
	for _, id := range slices.Sorted(maps.Keys(counts)) {
		fmt.Fprintf(out, "%s\t%d\n", id, counts[id])
	}

	return nil
}

func init() {
	TallyCmd.PersistentFlags().StringP("election", "e", "", "Election ID to tally")
	TallyCmd.PersistentFlags().StringSliceP("candidates", "c", nil, "Candidate IDs to count")
	if err := viper.BindPFlags(TallyCmd.PersistentFlags()); err != nil {
		slog.Error("Failed to bind TallyCmd flags", "error", err)
	}

	TallyCmd.AddCommand(tallyJSONCmd)
	TallyCmd.AddCommand(tallyPostgresCmd)
}
