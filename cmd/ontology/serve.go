package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/captify-io/ontology/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Serve starts the ontology HTTP API.

The listen address comes from the --addr flag, the ONTOLOGY_ADDR
environment variable or the config file, in that order of precedence.

Example:
  ontology serve --addr :8080
  ontology serve --store memory`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	addr := cfg.Addr
	if flagAddr, _ := cmd.Flags().GetString("addr"); flagAddr != "" {
		addr = flagAddr
	}

	server := api.NewServer(eng, logger)
	logger.Info("listening", "addr", addr, "store", cfg.Store, "namespace", eng.Registry().Namespace())
	return server.Router().Run(addr)
}
