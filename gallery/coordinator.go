package gallery

import (
	"context"
	"fmt"

	"github.com/mediafold/mediafold"
)

// ActionClient is the gateway surface the coordinator submits file
// actions to. The vault satisfies it directly; clientcli.GalleryClient
// adapts the HTTP client.
type ActionClient interface {
	List(ctx context.Context, dirKey string, recursive bool) (mediafold.DirectoryListing, error)
	Copy(ctx context.Context, mappings []mediafold.FileKeyMapping, deleteSource bool) ([]mediafold.FileActionResult, error)
	Delete(ctx context.Context, keys []string) (mediafold.DeleteReport, error)
}

// Coordinator drives a gallery view of one directory: it loads the
// listing, tracks the rendered state, and submits selections as file
// actions. On a successful submit the selection is cleared and the view
// reconciled against a fresh listing; a failed submit leaves both the
// view and the selection alone so the user can retry.
type Coordinator struct {
	client     ActionClient
	reconciler *Reconciler
	dirKey     string
	state      *State
}

func NewCoordinator(client ActionClient, reconciler *Reconciler, dirKey string) (*Coordinator, error) {
	if client == nil {
		return nil, fmt.Errorf("new coordinator: client is required")
	}
	if reconciler == nil {
		return nil, fmt.Errorf("new coordinator: reconciler is required")
	}
	if !mediafold.IsValidDirKey(dirKey) {
		return nil, fmt.Errorf("new coordinator: invalid dir key %q: %w", dirKey, mediafold.ErrInvalidInput)
	}

	return &Coordinator{
		client:     client,
		reconciler: reconciler,
		dirKey:     dirKey,
		state:      NewState(),
	}, nil
}

// State exposes the rendered state for selection and inspection.
func (c *Coordinator) State() *State {
	return c.state
}

// Refresh reloads the directory listing and reconciles the view. When
// the listing itself fails the view is cleared: with no listing there is
// no way to tell which rendered items still exist, so none are shown.
func (c *Coordinator) Refresh(ctx context.Context) error {
	listing, err := c.client.List(ctx, c.dirKey, false)
	if err != nil {
		c.clear()
		return fmt.Errorf("refresh %s: %w", c.dirKey, err)
	}

	next, err := c.reconciler.Reconcile(ctx, c.state, listing)
	if err != nil {
		return fmt.Errorf("refresh %s: %w", c.dirKey, err)
	}

	c.state = next
	return nil
}

// clear detaches every rendered node and swaps in an empty state.
func (c *Coordinator) clear() {
	for _, key := range c.state.order {
		if it := c.state.items[key]; it.node != nil {
			it.node.Detach()
		}
	}
	c.state = NewState()
}

// Submit runs the operation against the current selection. Validation
// failures (empty selection, bad target) and transport failures return
// before anything changes. Per-key failures inside an accepted batch do
// not fail the submit; the follow-up listing shows what actually
// happened.
func (c *Coordinator) Submit(ctx context.Context, op mediafold.Operation, targetDir string) error {
	req := mediafold.FileActionRequest{
		Operation: op,
		Sources:   c.state.Selected(),
		TargetDir: targetDir,
	}
	if err := req.Validate(); err != nil {
		return fmt.Errorf("submit: %w", err)
	}

	switch op {
	case mediafold.OpCopy, mediafold.OpMove:
		if _, err := c.client.Copy(ctx, req.Mappings(), op == mediafold.OpMove); err != nil {
			return fmt.Errorf("submit %s: %w", op, err)
		}
	case mediafold.OpDelete:
		if _, err := c.client.Delete(ctx, req.Sources); err != nil {
			return fmt.Errorf("submit %s: %w", op, err)
		}
	default:
		return fmt.Errorf("submit: unknown operation %q: %w", op, mediafold.ErrInvalidInput)
	}

	c.state.ClearSelection()

	if err := c.Refresh(ctx); err != nil {
		return err
	}

	return nil
}
