package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/mediafold/mediafold/clientcli"
)

var listRecursive bool

var listCmd = &cobra.Command{
	Use:   "list [dir]",
	Short: "List files on the server",
	Long: `List files in a directory of the primary store.

Hidden entries (dotfiles and dot directories) are never listed.

Examples:
  mediafold-cli list
  mediafold-cli list albums/2026
  mediafold-cli list -r albums`,
	Args: cobra.MaximumNArgs(1),
	RunE: runList,
}

func init() {
	listCmd.Flags().BoolVarP(&listRecursive, "recursive", "r", false, "list the whole tree under dir")
}

func runList(_ *cobra.Command, args []string) error {
	dir := ""
	if len(args) > 0 {
		dir = args[0]
	}

	client, err := getClient()
	if err != nil {
		return err
	}

	listing, err := client.List(context.Background(), clientcli.ListOptions{
		Dir:       dir,
		Recursive: listRecursive,
	})
	if err != nil {
		formatter := getFormatter()
		_ = formatter.FormatError(os.Stderr, err)
		return err
	}

	formatter := getFormatter()
	return formatter.FormatList(os.Stdout, listing)
}
