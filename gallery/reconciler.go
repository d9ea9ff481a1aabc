// Package gallery keeps a rendered view of a directory in step with
// the store. The reconciler diffs listings against the rendered state
// instead of rebuilding it, so an unchanged listing costs no URL
// resolution and no re-rendering, and the coordinator turns user
// selections into batched file actions.
package gallery

import (
	"context"
	"fmt"

	"github.com/mediafold/mediafold"
)

// Node is one rendered gallery cell. Implementations own the actual
// presentation (DOM node, TUI row, test double).
type Node interface {
	// SetURL points the cell at a new readonly URL.
	SetURL(url string)
	// Detach removes the cell from the rendered view.
	Detach()
}

// NodeFactory creates cells for keys that just became visible.
type NodeFactory func(key string) Node

// Resolver resolves readonly URLs for a batch of keys. The vault
// gateway satisfies it directly; clientcli.GalleryClient adapts the
// HTTP client.
type Resolver interface {
	ReadonlyURLs(ctx context.Context, storeName string, keys []string) (mediafold.ReadonlyURLs, error)
}

// item is the per-key rendered state.
type item struct {
	node     Node
	url      string
	selected bool
}

// State is the rendered gallery: one item per visible key, in listing
// order. States are built by Reconcile and swapped in whole.
type State struct {
	order []string
	items map[string]*item
}

// NewState returns an empty rendered state.
func NewState() *State {
	return &State{items: make(map[string]*item)}
}

// Keys returns the visible keys in listing order.
func (s *State) Keys() []string {
	keys := make([]string, len(s.order))
	copy(keys, s.order)
	return keys
}

// Len is the number of visible items.
func (s *State) Len() int {
	return len(s.order)
}

// URL returns the readonly URL rendered for key, or "".
func (s *State) URL(key string) string {
	if it, ok := s.items[key]; ok {
		return it.url
	}
	return ""
}

// Select marks or unmarks a visible key. Unknown keys are ignored.
func (s *State) Select(key string, selected bool) {
	if it, ok := s.items[key]; ok {
		it.selected = selected
	}
}

// Selected returns the selected keys in listing order.
func (s *State) Selected() []string {
	var keys []string
	for _, key := range s.order {
		if s.items[key].selected {
			keys = append(keys, key)
		}
	}
	return keys
}

// ClearSelection unmarks every item.
func (s *State) ClearSelection() {
	for _, it := range s.items {
		it.selected = false
	}
}

// Reconciler builds the next rendered state from a listing, reusing
// what is already on screen.
type Reconciler struct {
	resolver   Resolver
	translator *mediafold.AddressTranslator
	storeName  string
	newNode    NodeFactory
}

// NewReconciler wires a reconciler. translator may be nil when issued
// URLs are reachable as-is.
func NewReconciler(resolver Resolver, translator *mediafold.AddressTranslator, storeName string, factory NodeFactory) (*Reconciler, error) {
	if resolver == nil {
		return nil, fmt.Errorf("new reconciler: resolver is required")
	}
	if factory == nil {
		return nil, fmt.Errorf("new reconciler: node factory is required")
	}
	if storeName == "" {
		return nil, fmt.Errorf("new reconciler: store name is required")
	}

	return &Reconciler{
		resolver:   resolver,
		translator: translator,
		storeName:  storeName,
		newNode:    factory,
	}, nil
}

// Reconcile diffs the listing against prev and returns the next state.
// Kept keys reuse their node, URL, and selection without any resolver
// traffic; URLs for added keys are resolved in one batch; removed keys
// have their node detached. prev may be nil for the first render.
func (r *Reconciler) Reconcile(ctx context.Context, prev *State, listing mediafold.DirectoryListing) (*State, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("reconcile: %w", err)
	}

	if prev == nil {
		prev = NewState()
	}

	next := NewState()
	var added []string

	for _, key := range listing.Keys() {
		if _, dup := next.items[key]; dup {
			continue
		}

		next.order = append(next.order, key)

		if kept, ok := prev.items[key]; ok {
			next.items[key] = kept
			continue
		}

		next.items[key] = &item{}
		added = append(added, key)
	}

	if len(added) > 0 {
		urls, err := r.resolver.ReadonlyURLs(ctx, r.storeName, added)
		if err != nil {
			return nil, fmt.Errorf("reconcile: resolve urls: %w", err)
		}

		for _, key := range added {
			url := urls.URLFor(key)
			if r.translator != nil {
				url = r.translator.Translate(url)
			}

			node := r.newNode(key)
			node.SetURL(url)

			it := next.items[key]
			it.node = node
			it.url = url
		}
	}

	for _, key := range prev.order {
		if _, ok := next.items[key]; ok {
			continue
		}
		if it := prev.items[key]; it.node != nil {
			it.node.Detach()
		}
	}

	return next, nil
}
