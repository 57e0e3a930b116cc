package config

import (
	"fmt"
	"net/url"

	"github.com/spf13/viper"
)

type AlertConfig struct {
	WebhookURL string
	MaxRetries uint
}

func (c AlertConfig) Validate() error {
	if c.WebhookURL == "" {
		// Alerting is optional; the ledger still halts on integrity failures.
		return nil
	}
	u, err := url.Parse(c.WebhookURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid alert webhook URL %q", c.WebhookURL)
	}
	return nil
}

func LoadAlertConfigFromCLI() AlertConfig {
	return AlertConfig{
		WebhookURL: viper.GetString("alert-webhook"),
		MaxRetries: viper.GetUint("alert-max-retries"),
	}
}
