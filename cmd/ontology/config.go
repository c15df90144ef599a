// Config loading for the ontology CLI.
package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	cfgKeyNamespace = "namespace"
	cfgKeyStore     = "store"
	cfgKeyAddr      = "addr"
	cfgKeyCacheTTL  = "cache_ttl"

	defaultStore = "dynamo"
	defaultAddr  = ":8080"
)

// cliConfig is the resolved configuration after merging defaults, the
// config file, ONTOLOGY_* environment variables and command-line flags.
type cliConfig struct {
	Namespace string
	Store     string
	Addr      string
	CacheTTL  time.Duration
}

// loadConfig reads ontology.yaml (or the --config path) with Viper.
// A missing config file is not an error; defaults and flags apply.
func loadConfig(cmd *cobra.Command, path string) (*cliConfig, error) {
	v := viper.New()
	v.SetDefault(cfgKeyStore, defaultStore)
	v.SetDefault(cfgKeyAddr, defaultAddr)
	v.SetEnvPrefix("ontology")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("ontology")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &cliConfig{
		Namespace: v.GetString(cfgKeyNamespace),
		Store:     v.GetString(cfgKeyStore),
		Addr:      v.GetString(cfgKeyAddr),
		CacheTTL:  v.GetDuration(cfgKeyCacheTTL),
	}

	// Flags win over file and environment.
	if ns, _ := cmd.Flags().GetString("namespace"); ns != "" {
		cfg.Namespace = ns
	}
	if st, _ := cmd.Flags().GetString("store"); st != "" {
		cfg.Store = st
	}
	return cfg, nil
}
