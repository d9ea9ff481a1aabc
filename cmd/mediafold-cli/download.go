package main

import (
	"context"
	"io"
	"os"
	"path"

	"github.com/spf13/cobra"

	"github.com/mediafold/mediafold/clientcli"
)

var (
	downloadOutput string
	downloadStdout bool
	downloadStore  string
)

var downloadCmd = &cobra.Command{
	Use:   "download <key> [local-path]",
	Short: "Download a file through a capability URL",
	Long: `Download a file from the server.

The CLI first requests a signed readonly URL for the key, then fetches
it without credentials. Use --store cache to download the derived
thumbnail instead of the original.

Examples:
  mediafold-cli download albums/2026/photo.jpg
  mediafold-cli download albums/2026/photo.jpg ./photo.jpg
  mediafold-cli download --store cache albums/2026/photo.jpg_thumbnail.jpg
  mediafold-cli download --stdout albums/2026/photo.jpg > photo.jpg`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runDownload,
}

func init() {
	downloadCmd.Flags().StringVarP(&downloadOutput, "output", "o", "", "output file path")
	downloadCmd.Flags().BoolVar(&downloadStdout, "stdout", false, "write to stdout")
	downloadCmd.Flags().StringVar(&downloadStore, "store", "", "backing store to read from: media, cache (default: media)")
}

func runDownload(_ *cobra.Command, args []string) error {
	key := args[0]

	localPath := ""
	if len(args) > 1 {
		localPath = args[1]
	}
	if downloadOutput != "" {
		localPath = downloadOutput
	}
	if downloadStdout {
		localPath = "-"
	}
	if localPath == "" {
		localPath = path.Base(key)
	}

	client, err := getClient()
	if err != nil {
		return err
	}

	result, reader, err := client.Download(context.Background(), clientcli.DownloadOptions{
		Key:       key,
		StoreName: downloadStore,
		LocalPath: localPath,
	})
	if err != nil {
		formatter := getFormatter()
		_ = formatter.FormatError(os.Stderr, err)
		return err
	}

	// If stdout, write content to stdout
	if reader != nil {
		defer func() { _ = reader.Close() }()
		if _, err := io.Copy(os.Stdout, reader); err != nil {
			return err
		}
		// Don't print metadata when writing to stdout (unless JSON mode)
		if jsonOutput {
			formatter := getFormatter()
			return formatter.FormatDownload(os.Stderr, result)
		}
		return nil
	}

	formatter := getFormatter()
	return formatter.FormatDownload(os.Stdout, result)
}
