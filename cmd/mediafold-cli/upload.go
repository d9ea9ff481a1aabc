package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/mediafold/mediafold/clientcli"
)

var uploadRecursive bool

var uploadCmd = &cobra.Command{
	Use:   "upload <local-path> [target-dir]",
	Short: "Upload files to the server",
	Long: `Upload files to the server under a target directory.

The server registers each file and renders its thumbnail into the
derived cache. Recursive uploads preserve the directory structure
relative to the local path.

Examples:
  mediafold-cli upload ./photo.jpg albums/2026
  mediafold-cli upload -r ./vacation albums/2026/vacation`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().BoolVarP(&uploadRecursive, "recursive", "r", false, "upload directory recursively")
}

func runUpload(_ *cobra.Command, args []string) error {
	localPath := args[0]

	targetDir := ""
	if len(args) > 1 {
		targetDir = args[1]
	}

	client, err := getClient()
	if err != nil {
		return err
	}

	results, err := client.Upload(context.Background(), clientcli.UploadOptions{
		LocalPath: localPath,
		TargetDir: targetDir,
		Recursive: uploadRecursive,
	})
	if err != nil {
		formatter := getFormatter()
		_ = formatter.FormatError(os.Stderr, err)
		return err
	}

	formatter := getFormatter()
	if err := formatter.FormatUpload(os.Stdout, results); err != nil {
		return err
	}

	if clientcli.HasUploadErrors(results) {
		return &exitError{code: 1}
	}

	return nil
}
