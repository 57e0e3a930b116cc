package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type LedgerConfig struct {
	Difficulty        uint
	MaxMiningAttempts uint64
	MiningWorkers     uint
	VoterSalt         string
	VerdictTTL        time.Duration
}

func (c LedgerConfig) Validate() error {
	if c.Difficulty == 0 || c.Difficulty >= 256 {
		return fmt.Errorf("difficulty must be between 1 and 255 leading zero bits, got %d", c.Difficulty)
	}
	if c.MaxMiningAttempts == 0 {
		return fmt.Errorf("max mining attempts must be greater than zero")
	}
	if c.MiningWorkers == 0 {
		return fmt.Errorf("mining workers must be greater than zero")
	}
	if c.VoterSalt == "" {
		return fmt.Errorf("missing voter hash salt")
	}
	if c.VerdictTTL <= 0 {
		return fmt.Errorf("verdict TTL must be positive")
	}
	return nil
}

func LoadLedgerConfigFromCLI() LedgerConfig {
	return LedgerConfig{
		Difficulty:        viper.GetUint("difficulty"),
		MaxMiningAttempts: viper.GetUint64("max-mining-attempts"),
		MiningWorkers:     viper.GetUint("mining-workers"),
		VoterSalt:         viper.GetString("voter-salt"),
		VerdictTTL:        viper.GetDuration("verdict-ttl"),
	}
}
