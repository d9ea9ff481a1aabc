package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Remove orphaned thumbnails from the cache",
	Long: `Remove cached thumbnails whose source file no longer exists in the
primary store.

Run this periodically to reclaim cache space after deletes that could
not clean up their thumbnails.`,
	RunE: runSweep,
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := configFromContext(ctx)
	if err != nil {
		return err
	}

	v, closeDB, err := buildVault(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	count, err := v.Sweep(ctx)
	if err != nil {
		return fmt.Errorf("sweep: %w", err)
	}

	slog.Info("sweep complete", "removed", count)
	return nil
}
