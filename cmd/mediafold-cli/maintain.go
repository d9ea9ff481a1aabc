package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

var populateCmd = &cobra.Command{
	Use:   "populate [dir]",
	Short: "Reconcile the server registry with its store",
	Long: `Ask the server to walk its primary store and bring the registry in
step with it. Prints the number of files now tracked.

Examples:
  mediafold-cli populate
  mediafold-cli populate albums/2026`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPopulate,
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Remove orphaned thumbnails on the server",
	Long: `Ask the server to remove cached thumbnails whose source file no
longer exists. Prints the number of thumbnails removed.`,
	Args: cobra.NoArgs,
	RunE: runSweep,
}

func runPopulate(_ *cobra.Command, args []string) error {
	dir := ""
	if len(args) > 0 {
		dir = args[0]
	}

	client, err := getClient()
	if err != nil {
		return err
	}

	count, err := client.Populate(context.Background(), dir)
	if err != nil {
		formatter := getFormatter()
		_ = formatter.FormatError(os.Stderr, err)
		return err
	}

	formatter := getFormatter()
	return formatter.FormatCount(os.Stdout, "Tracked files", count)
}

func runSweep(_ *cobra.Command, _ []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	count, err := client.Sweep(context.Background())
	if err != nil {
		formatter := getFormatter()
		_ = formatter.FormatError(os.Stderr, err)
		return err
	}

	formatter := getFormatter()
	return formatter.FormatCount(os.Stdout, "Removed thumbnails", count)
}
