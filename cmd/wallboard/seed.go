package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nordkredit/wallboard/pkg/config"
	"github.com/nordkredit/wallboard/pkg/store"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Upsert the default benchmark rows into the store",
	Long: `Seed writes the default row for both teams into the external store
so a fresh deployment serves the same data as demo mode. Requires the
store write key.`,
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	client := store.NewClient(log, &cfg.Store)

	if err := client.SeedDefaults(context.Background()); err != nil {
		return fmt.Errorf("seeding defaults: %w", err)
	}

	log.Info("Default rows seeded")

	return nil
}
