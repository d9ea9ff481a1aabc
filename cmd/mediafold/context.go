package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mediafold/mediafold/config"
)

// loadConfig loads the configuration from the files named by --config,
// the environment, and the command's flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configFiles, _ := cmd.Flags().GetStringSlice("config")

	cfg, err := config.Load(configFiles, cmd.Flags())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// withConfig returns a new context with the config stored.
func withConfig(ctx context.Context, cfg *config.Config) context.Context {
	return config.WithContext(ctx, cfg)
}

// configFromContext retrieves the config from context.
func configFromContext(ctx context.Context) (*config.Config, error) {
	return config.FromContext(ctx)
}
