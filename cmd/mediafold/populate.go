package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

var populateCmd = &cobra.Command{
	Use:   "populate",
	Short: "Reconcile the registry with the primary store",
	Long: `Walk the primary store and bring the file registry in step with it.
New files get entries and thumbnails, files that disappeared are marked
missing. This is useful when:
  - Setting up mediafold over an existing media tree
  - Recovering the registry after database loss
  - Files were added to the store out of band`,
	RunE: runPopulate,
}

var populateDir string

func init() {
	populateCmd.Flags().StringVarP(&populateDir, "dir", "d", "", "directory key to reconcile (default: whole store)")
	rootCmd.AddCommand(populateCmd)
}

func runPopulate(cmd *cobra.Command, args []string) error {
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

	count, err := v.Populate(ctx, populateDir)
	if err != nil {
		return fmt.Errorf("populate: %w", err)
	}

	slog.Info("populate complete", "dir", populateDir, "tracked", count)
	return nil
}
