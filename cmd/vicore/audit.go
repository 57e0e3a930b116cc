package vicore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/matdaan/vicore/internal/alert"
	"github.com/matdaan/vicore/internal/config"
	"github.com/matdaan/vicore/internal/ledger"
	"github.com/matdaan/vicore/internal/metrics"
	"github.com/matdaan/vicore/internal/models"
	"github.com/matdaan/vicore/internal/store"
)

var AuditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Verify ledger integrity",
	Long:  `Audit replays the block chain, recomputes every digest and reports whether the ledger is intact.`,
}

var auditJSONCmd = &cobra.Command{
	Use:   "json [flags]",
	Short: "Audit a JSON file ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openJSONStore()
		if err != nil {
			return err
		}
		defer st.Close()

		return runAudit(cmd, st)
	},
}

var auditPostgresCmd = &cobra.Command{
	Use:   "postgres [flags]",
	Short: "Audit a PostgreSQL ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openPostgresStore()
		if err != nil {
			return err
		}
		defer st.Close()

		metricsConfig := config.LoadMetricsConfigFromCLI()
		if err := metricsConfig.Validate(); err != nil {
			return fmt.Errorf("invalid metrics configuration: %w", err)
		}
		if metricsConfig.Enabled {
			server, err := metrics.CreateMetricsServer(st.StdDB(), metricsConfig.Addr)
			if err != nil {
				return fmt.Errorf("failed to start metrics server: %w", err)
			}
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(ctx); err != nil {
					slog.Warn("Failed to shut down metrics server", "error", err)
				}
			}()
		}

		return runAudit(cmd, st)
	},
}

func runAudit(cmd *cobra.Command, st store.Store) error {
	difficulty, err := chainDifficulty()
	if err != nil {
		return err
	}

	alertConfig := config.LoadAlertConfigFromCLI()
	if err := alertConfig.Validate(); err != nil {
		return fmt.Errorf("invalid alert configuration: %w", err)
	}
	notifier := alert.NewWebhookNotifier(alertConfig)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	handleInterrupt(cancel)

	blocks, err := st.LoadChain(ctx)
	if err != nil {
		return fmt.Errorf("failed to load chain: %w", err)
	}

	slog.Info("Verifying chain", "blocks", len(blocks), "difficulty", difficulty)
	verifyErr := ledger.VerifyBlocks(ctx, blocks, difficulty)

	var integrityErr *ledger.IntegrityError
	if errors.As(verifyErr, &integrityErr) {
		notifier.IntegrityFailure(ctx, integrityErr, uint64(len(blocks)))
		return fmt.Errorf("chain audit failed: %w", verifyErr)
	}
	if verifyErr != nil {
		return verifyErr
	}

	stats := models.ChainStats{
		Height:     uint64(len(blocks)),
		TotalVotes: uint64(len(blocks) - 1),
		LatestHash: blocks[len(blocks)-1].Hash,
		Difficulty: difficulty,
		Valid:      true,
	}
	return json.NewEncoder(cmd.OutOrStdout()).Encode(stats)
}

func init() {
	AuditCmd.PersistentFlags().Bool("enable-metrics", false, "Serve Prometheus metrics while the audit runs")
	AuditCmd.PersistentFlags().String("metrics-addr", "0.0.0.0:2112", "Address and port of the Prometheus metrics server")
	AuditCmd.PersistentFlags().String("alert-webhook", "", "Webhook URL notified when the audit finds a broken chain")
	AuditCmd.PersistentFlags().Uint("alert-max-retries", 3, "Maximum number of alert delivery retries")
	if err := viper.BindPFlags(AuditCmd.PersistentFlags()); err != nil {
		slog.Error("Failed to bind AuditCmd flags", "error", err)
	}

	AuditCmd.AddCommand(auditJSONCmd)
	AuditCmd.AddCommand(auditPostgresCmd)
}
