package testutil

import (
	"time"

	"github.com/matdaan/vicore/internal/config"
)

// BiometricConfig returns the pipeline tuning used across tests. The
// thresholds are calibrated to the synthetic portraits in this package.
func BiometricConfig() config.BiometricConfig {
	return config.BiometricConfig{
		MinFrames:      5,
		MinFaceSize:    40,
		MatchThreshold: 0.08,
		MinMotionPx:    10,
		MaxFailures:    3,
		FailureWindow:  time.Minute,
	}
}

// LedgerConfig returns a ledger tuning with a low difficulty so tests mine
// blocks in microseconds.
func LedgerConfig() config.LedgerConfig {
	return config.LedgerConfig{
		Difficulty:        8,
		MaxMiningAttempts: 1 << 20,
		MiningWorkers:     2,
		VoterSalt:         "test-salt",
		VerdictTTL:        time.Minute,
	}
}
