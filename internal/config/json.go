package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type JSONStoreConfig struct {
	Dir string
}

func (c JSONStoreConfig) Validate() error {
	if c.Dir == "" {
		return fmt.Errorf("missing ledger directory")
	}
	return nil
}

func LoadJSONStoreConfigFromCLI() JSONStoreConfig {
	return JSONStoreConfig{
		Dir: viper.GetString("ledger-dir"),
	}
}
