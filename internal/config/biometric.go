package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type BiometricConfig struct {
	MinFrames      uint
	MinFaceSize    uint
	MatchThreshold float64
	MinMotionPx    float64
	MaxFailures    uint
	FailureWindow  time.Duration
}

func (c BiometricConfig) Validate() error {
	if c.MinFrames < 3 {
		return fmt.Errorf("liveness needs at least 3 frames, got %d", c.MinFrames)
	}
	if c.MinFaceSize == 0 {
		return fmt.Errorf("minimum face size must be greater than zero")
	}
	if c.MatchThreshold <= 0 || c.MatchThreshold >= 1 {
		return fmt.Errorf("match threshold must be in (0, 1), got %g", c.MatchThreshold)
	}
	if c.MinMotionPx <= 0 {
		return fmt.Errorf("minimum motion threshold must be positive")
	}
	if c.MaxFailures == 0 {
		return fmt.Errorf("max failures must be greater than zero")
	}
	if c.FailureWindow <= 0 {
		return fmt.Errorf("failure window must be positive")
	}
	return nil
}

func LoadBiometricConfigFromCLI() BiometricConfig {
	return BiometricConfig{
		MinFrames:      viper.GetUint("min-frames"),
		MinFaceSize:    viper.GetUint("min-face-size"),
		MatchThreshold: viper.GetFloat64("match-threshold"),
		MinMotionPx:    viper.GetFloat64("min-motion"),
		MaxFailures:    viper.GetUint("max-failures"),
		FailureWindow:  viper.GetDuration("failure-window"),
	}
}
