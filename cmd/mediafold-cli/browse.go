package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/mediafold/mediafold"
	"github.com/mediafold/mediafold/clientcli"
	"github.com/mediafold/mediafold/gallery"
)

var browseStore string

var browseCmd = &cobra.Command{
	Use:   "browse [dir]",
	Short: "Browse a directory interactively",
	Long: `Open an interactive gallery session on a directory.

Picking an item toggles it in and out of the selection; move, copy, and
delete act on the whole selection at once. The view refreshes after
every action so it shows what the server actually did.

Examples:
  mediafold-cli browse
  mediafold-cli browse albums/2026`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBrowse,
}

func init() {
	browseCmd.Flags().StringVar(&browseStore, "store", clientcli.DefaultStoreName, "store to resolve view URLs from")
}

// galleryRow is a rendered cell for the terminal view: it only has to
// remember its URL until the next render.
type galleryRow struct {
	url string
}

func (r *galleryRow) SetURL(url string) { r.url = url }
func (r *galleryRow) Detach()           {}

func runBrowse(_ *cobra.Command, args []string) error {
	dir := ""
	if len(args) > 0 {
		dir = args[0]
	}

	client, err := getClient()
	if err != nil {
		return err
	}

	gc, err := clientcli.NewGalleryClient(client)
	if err != nil {
		return err
	}

	reconciler, err := gallery.NewReconciler(gc, nil, browseStore, func(string) gallery.Node {
		return &galleryRow{}
	})
	if err != nil {
		return err
	}

	coord, err := gallery.NewCoordinator(gc, reconciler, dir)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if err := coord.Refresh(ctx); err != nil {
		formatter := getFormatter()
		_ = formatter.FormatError(os.Stderr, err)
		return err
	}

	for {
		done, err := browseStep(ctx, coord)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

const (
	browseRefresh = "> refresh"
	browseMove    = "> move selection"
	browseCopy    = "> copy selection"
	browseDelete  = "> delete selection"
	browseQuit    = "> quit"
)

// browseStep renders one menu round: the visible keys with their
// selection marks, followed by the session commands.
func browseStep(ctx context.Context, coord *gallery.Coordinator) (bool, error) {
	state := coord.State()
	selected := make(map[string]bool)
	for _, key := range state.Selected() {
		selected[key] = true
	}

	keys := state.Keys()
	items := make([]string, 0, len(keys)+5)
	for _, key := range keys {
		mark := "[ ]"
		if selected[key] {
			mark = "[x]"
		}
		items = append(items, mark+" "+key)
	}
	items = append(items, browseRefresh, browseMove, browseCopy, browseDelete, browseQuit)

	prompt := promptui.Select{
		Label: fmt.Sprintf("%d item(s), %d selected", len(keys), len(selected)),
		Items: items,
		Size:  15,
	}

	idx, choice, err := prompt.Run()
	if err != nil {
		return true, handlePromptError(err)
	}

	switch choice {
	case browseQuit:
		return true, nil
	case browseRefresh:
		return false, browseRefreshView(ctx, coord)
	case browseMove:
		return false, browseSubmit(ctx, coord, mediafold.OpMove)
	case browseCopy:
		return false, browseSubmit(ctx, coord, mediafold.OpCopy)
	case browseDelete:
		return false, browseSubmit(ctx, coord, mediafold.OpDelete)
	}

	key := keys[idx]
	state.Select(key, !selected[key])
	if !selected[key] {
		fmt.Println(state.URL(key))
	}
	return false, nil
}

func browseRefreshView(ctx context.Context, coord *gallery.Coordinator) error {
	if err := coord.Refresh(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return nil
}

func browseSubmit(ctx context.Context, coord *gallery.Coordinator, op mediafold.Operation) error {
	if len(coord.State().Selected()) == 0 {
		fmt.Println("Nothing selected.")
		return nil
	}

	targetDir := ""
	if op == mediafold.OpDelete {
		confirm := promptui.Prompt{
			Label:     fmt.Sprintf("Delete %d file(s)", len(coord.State().Selected())),
			IsConfirm: true,
		}
		if _, err := confirm.Run(); err != nil {
			return handlePromptError(err)
		}
	} else {
		prompt := promptui.Prompt{
			Label: "Target directory",
			Validate: func(input string) error {
				if input == "" {
					return errors.New("target directory is required")
				}
				return nil
			},
		}
		dir, err := prompt.Run()
		if err != nil {
			return handlePromptError(err)
		}
		targetDir = dir
	}

	// a failed submit keeps the session alive with the selection intact
	if err := coord.Submit(ctx, op, targetDir); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return nil
}
