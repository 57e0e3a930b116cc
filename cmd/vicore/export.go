package vicore

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/matdaan/vicore/internal/exporter"
	"github.com/matdaan/vicore/internal/store"
)

var ExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write audit copies of the ledger to TSV files",
}

var exportJSONCmd = &cobra.Command{
	Use:   "json [flags]",
	Short: "Export a JSON file ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openJSONStore()
		if err != nil {
			return err
		}
		defer st.Close()

		return runExport(cmd, st)
	},
}

var exportPostgresCmd = &cobra.Command{
	Use:   "postgres [flags]",
	Short: "Export a PostgreSQL ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openPostgresStore()
		if err != nil {
			return err
		}
		defer st.Close()

		return runExport(cmd, st)
	},
}

func runExport(cmd *cobra.Command, st store.Store) error {
	exportOut := viper.GetString("export-out")
	slog.Debug("Command-line argument", "export-out", exportOut)

	if err := os.MkdirAll(exportOut, 0755); err != nil {
		return errors.WithMessage(err, "failed to create output directory")
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	handleInterrupt(cancel)

	blocks, err := st.LoadChain(ctx)
	if err != nil {
		return fmt.Errorf("failed to load chain: %w", err)
	}

	if err := exporter.ExportBlocksTSV(ctx, blocks, filepath.Join(exportOut, "blocks.tsv")); err != nil {
		return errors.WithMessage(err, "failed to export blocks")
	}
	if err := exporter.ExportVotesTSV(ctx, blocks, filepath.Join(exportOut, "votes.tsv")); err != nil {
		return errors.WithMessage(err, "failed to export votes")
	}

	slog.Info("Export complete", "blocks", len(blocks), "dir", exportOut)
	return nil
}

func init() {
	ExportCmd.PersistentFlags().StringP("export-out", "o", "audit", "Output directory")
	if err := viper.BindPFlags(ExportCmd.PersistentFlags()); err != nil {
		slog.Error("Failed to bind ExportCmd flags", "error", err)
	}

	ExportCmd.AddCommand(exportJSONCmd)
	ExportCmd.AddCommand(exportPostgresCmd)
}
