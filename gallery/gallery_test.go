package gallery_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediafold/mediafold"
	"github.com/mediafold/mediafold/gallery"
)

type fakeNode struct {
	key      string
	url      string
	setCalls int
	detached bool
}

func (n *fakeNode) SetURL(url string) {
	n.url = url
	n.setCalls++
}

func (n *fakeNode) Detach() {
	n.detached = true
}

type fakeResolver struct {
	calls    int
	resolved [][]string
	err      error
}

func (r *fakeResolver) ReadonlyURLs(_ context.Context, storeName string, keys []string) (mediafold.ReadonlyURLs, error) {
	r.calls++
	r.resolved = append(r.resolved, keys)

	if r.err != nil {
		return mediafold.ReadonlyURLs{}, r.err
	}

	urls := mediafold.ReadonlyURLs{
		BaseURL: "http://gateway.lan:8080",
		Paths:   make(map[string]string, len(keys)),
	}
	for _, key := range keys {
		urls.Paths[key] = "read/" + storeName + "/" + key + "?expires=2000000000&sig=abc"
	}
	return urls, nil
}

type testHarness struct {
	resolver   *fakeResolver
	nodes      map[string]*fakeNode
	created    int
	reconciler *gallery.Reconciler
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()

	h := &testHarness{
		resolver: &fakeResolver{},
		nodes:    make(map[string]*fakeNode),
	}

	translator := mediafold.NewAddressTranslator("http://gateway.lan", "https://photos.example.com")

	reconciler, err := gallery.NewReconciler(h.resolver, translator, "media", func(key string) gallery.Node {
		h.created++
		node := &fakeNode{key: key}
		h.nodes[key] = node
		return node
	})
	require.NoError(t, err)

	h.reconciler = reconciler
	return h
}

func listingOf(keys ...string) mediafold.DirectoryListing {
	entries := make([]mediafold.Entry, 0, len(keys))
	for _, key := range keys {
		entries = append(entries, mediafold.Entry{Key: key, Name: key})
	}
	return mediafold.DirectoryListing{Entries: entries}
}

func TestReconcileInitialRender(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()

	state, err := h.reconciler.Reconcile(ctx, nil, listingOf("a.jpg", "b.jpg", "c.jpg"))
	require.NoError(t, err)

	assert.Equal(t, 3, state.Len())
	assert.Equal(t, 3, h.created)
	assert.Equal(t, 1, h.resolver.calls, "added keys are resolved in one batch")
	assert.Equal(t, []string{"a.jpg", "b.jpg", "c.jpg"}, h.resolver.resolved[0])

	// translated through the address map before it hits the node
	assert.Equal(t, "https://photos.example.com/read/media/a.jpg?expires=2000000000&sig=abc", h.nodes["a.jpg"].url)
	assert.Equal(t, state.URL("a.jpg"), h.nodes["a.jpg"].url)
}

func TestReconcileUnchangedListingIsFree(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()

	state, err := h.reconciler.Reconcile(ctx, nil, listingOf("a.jpg", "b.jpg"))
	require.NoError(t, err)

	state.Select("a.jpg", true)

	next, err := h.reconciler.Reconcile(ctx, state, listingOf("a.jpg", "b.jpg"))
	require.NoError(t, err)

	assert.Equal(t, 1, h.resolver.calls, "no resolver traffic for kept keys")
	assert.Equal(t, 2, h.created, "no new nodes for kept keys")
	assert.Equal(t, 1, h.nodes["a.jpg"].setCalls, "kept nodes are not refreshed")
	assert.False(t, h.nodes["a.jpg"].detached)
	assert.Equal(t, []string{"a.jpg"}, next.Selected(), "selection survives reconcile")
}

func TestReconcileAddsAndRemoves(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()

	state, err := h.reconciler.Reconcile(ctx, nil, listingOf("a.jpg", "b.jpg"))
	require.NoError(t, err)

	next, err := h.reconciler.Reconcile(ctx, state, listingOf("b.jpg", "c.jpg"))
	require.NoError(t, err)

	assert.Equal(t, []string{"b.jpg", "c.jpg"}, next.Keys())
	assert.True(t, h.nodes["a.jpg"].detached, "removed keys are detached")
	assert.False(t, h.nodes["b.jpg"].detached)
	assert.Equal(t, [][]string{{"a.jpg", "b.jpg"}, {"c.jpg"}}, h.resolver.resolved,
		"only the added key is resolved")
}

func TestReconcileEmptyListingRemovesEverything(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()

	state, err := h.reconciler.Reconcile(ctx, nil, listingOf("a.jpg", "b.jpg", "c.jpg"))
	require.NoError(t, err)

	next, err := h.reconciler.Reconcile(ctx, state, mediafold.DirectoryListing{})
	require.NoError(t, err)

	assert.Zero(t, next.Len())
	for _, node := range h.nodes {
		assert.True(t, node.detached)
	}
	assert.Equal(t, 1, h.resolver.calls, "nothing to resolve on teardown")
}

func TestReconcileResolverFailureKeepsPrev(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()

	state, err := h.reconciler.Reconcile(ctx, nil, listingOf("a.jpg"))
	require.NoError(t, err)

	h.resolver.err = errors.New("gateway down")
	_, err = h.reconciler.Reconcile(ctx, state, listingOf("a.jpg", "b.jpg"))
	require.Error(t, err)

	assert.False(t, h.nodes["a.jpg"].detached, "previous render stays up on failure")
}

type fakeClient struct {
	listing     mediafold.DirectoryListing
	listErr     error
	copyCalls   []copyCall
	copyErr     error
	deleteCalls [][]string
	deleteErr   error
	report      mediafold.DeleteReport
}

type copyCall struct {
	mappings     []mediafold.FileKeyMapping
	deleteSource bool
}

func (c *fakeClient) List(context.Context, string, bool) (mediafold.DirectoryListing, error) {
	return c.listing, c.listErr
}

func (c *fakeClient) Copy(_ context.Context, mappings []mediafold.FileKeyMapping, deleteSource bool) ([]mediafold.FileActionResult, error) {
	c.copyCalls = append(c.copyCalls, copyCall{mappings: mappings, deleteSource: deleteSource})
	if c.copyErr != nil {
		return nil, c.copyErr
	}

	results := make([]mediafold.FileActionResult, 0, len(mappings))
	for _, mapping := range mappings {
		results = append(results, mediafold.FileActionResult{Key: mapping.SourceKey, Success: true})
	}
	return results, nil
}

func (c *fakeClient) Delete(_ context.Context, keys []string) (mediafold.DeleteReport, error) {
	c.deleteCalls = append(c.deleteCalls, keys)
	if c.deleteErr != nil {
		return mediafold.DeleteReport{}, c.deleteErr
	}
	if c.report.Succeeded != nil || c.report.Failed != nil {
		return c.report, nil
	}
	return mediafold.DeleteReport{Succeeded: keys}, nil
}

func newCoordinator(t *testing.T, client *fakeClient) (*gallery.Coordinator, *testHarness) {
	t.Helper()

	h := newHarness(t)
	coord, err := gallery.NewCoordinator(client, h.reconciler, "albums/summer")
	require.NoError(t, err)
	return coord, h
}

func TestRefreshListingFailureClearsView(t *testing.T) {
	t.Parallel()

	client := &fakeClient{listing: listingOf("a.jpg", "b.jpg")}
	coord, h := newCoordinator(t, client)
	ctx := context.Background()

	require.NoError(t, coord.Refresh(ctx))
	require.Equal(t, 2, coord.State().Len())
	coord.State().Select("a.jpg", true)

	client.listErr = fmt.Errorf("store: %w", mediafold.ErrInternal)
	require.Error(t, coord.Refresh(ctx))

	assert.Zero(t, coord.State().Len(), "no listing means nothing verifiable to show")
	assert.True(t, h.nodes["a.jpg"].detached)
	assert.True(t, h.nodes["b.jpg"].detached)
	assert.Empty(t, coord.State().Selected())

	// a recovered listing renders fresh nodes
	client.listErr = nil
	require.NoError(t, coord.Refresh(ctx))
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, coord.State().Keys())
}

func TestSubmitMoveClearsSelectionAndRefreshes(t *testing.T) {
	t.Parallel()

	client := &fakeClient{listing: listingOf("a.jpg", "b.jpg")}
	coord, _ := newCoordinator(t, client)
	ctx := context.Background()

	require.NoError(t, coord.Refresh(ctx))
	coord.State().Select("a.jpg", true)

	client.listing = listingOf("b.jpg")
	require.NoError(t, coord.Submit(ctx, mediafold.OpMove, "archive"))

	require.Len(t, client.copyCalls, 1)
	assert.True(t, client.copyCalls[0].deleteSource)
	assert.Equal(t, []mediafold.FileKeyMapping{
		{SourceKey: "a.jpg", DestinationKey: "archive/a.jpg"},
	}, client.copyCalls[0].mappings)

	assert.Empty(t, coord.State().Selected(), "selection cleared on submit")
	assert.Equal(t, []string{"b.jpg"}, coord.State().Keys(), "view reconciled against fresh listing")
}

func TestSubmitEmptySelection(t *testing.T) {
	t.Parallel()

	client := &fakeClient{listing: listingOf("a.jpg")}
	coord, _ := newCoordinator(t, client)
	ctx := context.Background()

	require.NoError(t, coord.Refresh(ctx))

	err := coord.Submit(ctx, mediafold.OpDelete, "")
	assert.ErrorIs(t, err, mediafold.ErrEmptyRequest)
	assert.Empty(t, client.deleteCalls, "nothing is submitted")
}

func TestSubmitTransportFailurePreservesSelection(t *testing.T) {
	t.Parallel()

	client := &fakeClient{listing: listingOf("a.jpg", "b.jpg"), deleteErr: fmt.Errorf("gateway: %w", mediafold.ErrInternal)}
	coord, _ := newCoordinator(t, client)
	ctx := context.Background()

	require.NoError(t, coord.Refresh(ctx))
	coord.State().Select("a.jpg", true)
	coord.State().Select("b.jpg", true)

	err := coord.Submit(ctx, mediafold.OpDelete, "")
	require.Error(t, err)

	assert.Equal(t, []string{"a.jpg", "b.jpg"}, coord.State().Selected(), "selection survives the failure")
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, coord.State().Keys(), "view untouched")
}

func TestSubmitDeleteWithPartialFailure(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		listing: listingOf("a.jpg", "b.jpg", "c.jpg"),
		report: mediafold.DeleteReport{
			Succeeded: []string{"a.jpg", "c.jpg"},
			Failed:    []mediafold.FileActionResult{{Key: "b.jpg", Error: "locked"}},
		},
	}
	coord, h := newCoordinator(t, client)
	ctx := context.Background()

	require.NoError(t, coord.Refresh(ctx))
	for _, key := range []string{"a.jpg", "b.jpg", "c.jpg"} {
		coord.State().Select(key, true)
	}

	// the store keeps the key that failed to delete
	client.listing = listingOf("b.jpg")
	require.NoError(t, coord.Submit(ctx, mediafold.OpDelete, ""))

	assert.Equal(t, []string{"b.jpg"}, coord.State().Keys())
	assert.True(t, h.nodes["a.jpg"].detached)
	assert.True(t, h.nodes["c.jpg"].detached)
	assert.False(t, h.nodes["b.jpg"].detached, "failed key keeps its node")
	assert.Empty(t, coord.State().Selected())
}

func TestSubmitCopyRequiresTarget(t *testing.T) {
	t.Parallel()

	client := &fakeClient{listing: listingOf("a.jpg")}
	coord, _ := newCoordinator(t, client)
	ctx := context.Background()

	require.NoError(t, coord.Refresh(ctx))
	coord.State().Select("a.jpg", true)

	err := coord.Submit(ctx, mediafold.OpCopy, "")
	require.ErrorIs(t, err, mediafold.ErrInvalidInput)
	assert.Equal(t, []string{"a.jpg"}, coord.State().Selected())
}
