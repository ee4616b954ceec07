// server/cmd/api/main.go
package main

import (
	"fmt"
	"os"

	"magnova-scm-api-server/config"

	"github.com/spf13/cobra"
)

var configDir string

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "magnova-api",
		Short:         "Magnova/Nova IMEI supply-chain API server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd)
		},
	}
	root.PersistentFlags().StringVar(&configDir, "config", "./config", "directory holding config.yaml")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create indexes and apply pending data migrations, then exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "seed-admin",
		Short: "Create the configured Admin account if it does not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeedAdmin(cmd)
		},
	})
	return root
}

func loadConfig() (config.Config, error) {
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return cfg, fmt.Errorf("could not load config: %w", err)
	}
	return cfg, nil
}
