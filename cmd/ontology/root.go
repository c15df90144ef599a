package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/spf13/cobra"

	"github.com/captify-io/ontology/engine"
	"github.com/captify-io/ontology/registry"
	"github.com/captify-io/ontology/store"
)

var (
	// configFile is set by the --config flag.
	configFile string

	// eng is the global engine instance, initialized on startup.
	eng *engine.Engine

	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "ontology",
	Short: "Ontology is a metadata-driven entity engine",
	Long: `Ontology manages object types, link types and action types as data,
and serves generic CRUD, link resolution and introspection for the
instances those types describe.`,
	PersistentPreRunE: initEngine,
	SilenceUsage:      true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: ontology.yaml in the working directory)")
	rootCmd.PersistentFlags().String("namespace", "", "table namespace (overrides config)")
	rootCmd.PersistentFlags().String("store", "", "store backend: dynamo or memory (overrides config)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(describeCmd)
	rootCmd.AddCommand(objectTypeCmd)
	rootCmd.AddCommand(linkTypeCmd)
	rootCmd.AddCommand(actionTypeCmd)
	rootCmd.AddCommand(itemCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("ontology v0.1.0")
	},
}

// initEngine loads config, builds the store adapter and wires the engine.
func initEngine(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "version" {
		return nil
	}

	cfg, err := loadConfig(cmd, configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger = slog.New(slog.NewTextHandler(os.Stderr, nil))

	var adapter store.Adapter
	switch cfg.Store {
	case "memory":
		adapter = store.NewMemory()
	case "dynamo":
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background())
		if err != nil {
			return fmt.Errorf("load aws config: %w", err)
		}
		adapter = store.NewDynamo(dynamodb.NewFromConfig(awsCfg))
	default:
		return fmt.Errorf("unknown store backend %q (valid: dynamo, memory)", cfg.Store)
	}

	reg := registry.New(adapter, registry.Config{
		Namespace: cfg.Namespace,
		CacheTTL:  cfg.CacheTTL,
	})
	eng = engine.New(adapter, reg)
	return nil
}
