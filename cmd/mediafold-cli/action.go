package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/mediafold/mediafold"
)

var actionTargetDir string

var moveCmd = &cobra.Command{
	Use:   "move <key> [key...]",
	Short: "Move files to another directory",
	Long: `Move one or more files to a target directory.

Each key moves independently; a failure on one key does not stop the
others. Registered entities keep their identity across the move.

Examples:
  mediafold-cli move inbox/a.jpg --to albums/2026
  mediafold-cli move inbox/a.jpg inbox/b.jpg --to albums/2026`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		return runAction(mediafold.OpMove, args, actionTargetDir)
	},
}

var copyCmd = &cobra.Command{
	Use:   "copy <key> [key...]",
	Short: "Copy files to another directory",
	Long: `Copy one or more files to a target directory.

Each key copies independently. The copies are registered as new
entities.

Examples:
  mediafold-cli copy albums/2026/a.jpg --to shared`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		return runAction(mediafold.OpCopy, args, actionTargetDir)
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <key> [key...]",
	Short: "Delete files from the server",
	Long: `Delete one or more files from the server.

Each key deletes independently and the per-key outcome is reported.
Cached thumbnails of deleted files are removed best-effort; run the
server's sweep to clean up any leftovers.

Examples:
  mediafold-cli delete albums/2026/a.jpg
  mediafold-cli delete old/a.jpg old/b.jpg old/c.jpg`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		return runAction(mediafold.OpDelete, args, "")
	},
}

func init() {
	moveCmd.Flags().StringVar(&actionTargetDir, "to", "", "target directory (required)")
	copyCmd.Flags().StringVar(&actionTargetDir, "to", "", "target directory (required)")
	_ = moveCmd.MarkFlagRequired("to")
	_ = copyCmd.MarkFlagRequired("to")
}

func runAction(op mediafold.Operation, sources []string, targetDir string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	results, err := client.Action(context.Background(), mediafold.FileActionRequest{
		Operation: op,
		Sources:   sources,
		TargetDir: targetDir,
	})
	if err != nil && len(results) == 0 {
		formatter := getFormatter()
		_ = formatter.FormatError(os.Stderr, err)
		return err
	}

	formatter := getFormatter()
	if err := formatter.FormatAction(os.Stdout, results); err != nil {
		return err
	}

	// Partial failures were already reported per key
	if err != nil {
		return &exitError{code: 1}
	}

	return nil
}
