package vault_test

import (
	"bytes"
	"context"
	"database/sql"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediafold/mediafold"
	"github.com/mediafold/mediafold/database/sqlite"
	"github.com/mediafold/mediafold/inmemory"
	"github.com/mediafold/mediafold/thumbnail"
	"github.com/mediafold/mediafold/vault"

	_ "modernc.org/sqlite" // SQLite driver
)

type fixture struct {
	vault    *vault.Vault
	data     *inmemory.Store
	cache    *inmemory.Store
	registry mediafold.FileRegistry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	tables := mediafold.Tables{FileEntries: "file_entries"}
	require.NoError(t, sqlite.Migrate(context.Background(), db, tables))

	registry, err := sqlite.NewRepo(db, tables)
	require.NoError(t, err)

	data := inmemory.New()
	cache := inmemory.New()

	v, err := vault.New(vault.Config{
		Data:          data,
		Cache:         cache,
		Registry:      registry,
		Signer:        mediafold.NewSigner("test-secret"),
		PublicBaseURL: "https://photos.example.com",
		URLTTL:        time.Hour,
		Logger:        slog.New(slog.DiscardHandler),
	})
	require.NoError(t, err)

	return &fixture{vault: v, data: data, cache: cache, registry: registry}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestUploadRegistersAndCachesThumbnail(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	entries, err := f.vault.Upload(ctx, "photos/2024", []mediafold.UploadEntry{
		{Filename: "beach.png", Data: pngBytes(t, 640, 480)},
		{Filename: "notes.txt", Data: []byte("plain text, not an image")},
	})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	img := entries[0]
	assert.Equal(t, "photos/2024/beach.png", img.FileKey)
	assert.Equal(t, mediafold.ActionCreate, img.Action)
	assert.Equal(t, "image/png", img.MimeType)
	assert.Equal(t, "photos/2024/beach.png_thumbnail.jpg", img.ThumbnailKey)
	assert.NotEmpty(t, img.Checksum)

	txt := entries[1]
	assert.False(t, txt.HasThumbnail(), "non-image content is registered without a thumbnail")

	// primary holds both, cache only the thumbnail
	rc, _, err := f.data.Get(ctx, "photos/2024/beach.png")
	require.NoError(t, err)
	_ = rc.Close()

	rc, mime, err := f.cache.Get(ctx, "photos/2024/beach.png_thumbnail.jpg")
	require.NoError(t, err)
	defer func() { _ = rc.Close() }()
	assert.Equal(t, thumbnail.MimeType, mime)

	thumb, err := io.ReadAll(rc)
	require.NoError(t, err)
	decoded, _, err := image.Decode(bytes.NewReader(thumb))
	require.NoError(t, err)
	assert.LessOrEqual(t, decoded.Bounds().Dx(), thumbnail.DefaultMaxSize)
}

func TestUploadStripsDirectoryFromFilename(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	entries, err := f.vault.Upload(ctx, "inbox", []mediafold.UploadEntry{
		{Filename: "../../etc/passwd", Data: []byte("nope")},
	})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "inbox/passwd", entries[0].FileKey)
}

func TestUploadEmptyRequest(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	_, err := f.vault.Upload(context.Background(), "inbox", nil)
	assert.ErrorIs(t, err, mediafold.ErrEmptyRequest)
}

func TestReadonlyURLsVerifiable(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	urls, err := f.vault.ReadonlyURLs(ctx, vault.StoreData, []string{"photos/beach 01.png"})
	require.NoError(t, err)
	assert.Equal(t, "https://photos.example.com", urls.BaseURL)

	full := urls.URLFor("photos/beach 01.png")
	require.NotEmpty(t, full)

	parsed, err := url.Parse(full)
	require.NoError(t, err)
	assert.Equal(t, "photos.example.com", parsed.Host)
	assert.True(t, strings.HasPrefix(parsed.Path, "/read/media/"), "path %q", parsed.Path)

	verifier := mediafold.NewVerifier("test-secret", 0)
	outcome := verifier.VerifyQuery("/read/media/photos/beach 01.png", parsed.Query(), time.Now())
	assert.Equal(t, mediafold.OutcomeValid, outcome)

	// a different secret must not verify
	other := mediafold.NewVerifier("other-secret", 0)
	outcome = other.VerifyQuery("/read/media/photos/beach 01.png", parsed.Query(), time.Now())
	assert.Equal(t, mediafold.OutcomeInvalid, outcome)
}

func TestReadonlyURLsUnknownStore(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	_, err := f.vault.ReadonlyURLs(context.Background(), "attic", []string{"a.png"})
	assert.ErrorIs(t, err, mediafold.ErrInvalidInput)
}

func TestMovePreservesEntityAndMirrorsCache(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	entries, err := f.vault.Upload(ctx, "inbox", []mediafold.UploadEntry{
		{Filename: "beach.png", Data: pngBytes(t, 320, 240)},
	})
	require.NoError(t, err)
	entity := entries[0].EntityID

	results, err := f.vault.Copy(ctx, []mediafold.FileKeyMapping{
		{SourceKey: "inbox/beach.png", DestinationKey: "albums/summer/beach.png"},
	}, true)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Success)

	// primary moved
	_, _, err = f.data.Get(ctx, "inbox/beach.png")
	assert.ErrorIs(t, err, mediafold.ErrNotFound)
	_, _, err = f.data.Get(ctx, "albums/summer/beach.png")
	assert.NoError(t, err)

	// cache mirrored the move
	_, _, err = f.cache.Get(ctx, "inbox/beach.png_thumbnail.jpg")
	assert.ErrorIs(t, err, mediafold.ErrNotFound)
	_, _, err = f.cache.Get(ctx, "albums/summer/beach.png_thumbnail.jpg")
	assert.NoError(t, err)

	// registry: destination live with same entity, source gone
	states, err := f.registry.States(ctx, []string{"albums/summer/beach.png", "inbox/beach.png"})
	require.NoError(t, err)
	require.Len(t, states, 1)
	assert.Equal(t, "albums/summer/beach.png", states[0].FileKey)
	assert.Equal(t, mediafold.ActionMove, states[0].Action)
	assert.Equal(t, entity, states[0].EntityID)
}

func TestCopyMintsNewEntity(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	entries, err := f.vault.Upload(ctx, "inbox", []mediafold.UploadEntry{
		{Filename: "beach.png", Data: pngBytes(t, 320, 240)},
	})
	require.NoError(t, err)
	entity := entries[0].EntityID

	_, err = f.vault.Copy(ctx, []mediafold.FileKeyMapping{
		{SourceKey: "inbox/beach.png", DestinationKey: "albums/summer/beach.png"},
	}, false)
	require.NoError(t, err)

	states, err := f.registry.States(ctx, []string{"inbox/beach.png", "albums/summer/beach.png"})
	require.NoError(t, err)
	require.Len(t, states, 2, "source stays live on copy")
	assert.Equal(t, mediafold.ActionCreate, states[1].Action)
	assert.NotEqual(t, entity, states[1].EntityID, "copy gets its own entity")
}

func TestDeleteReportAndCacheCleanup(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	_, err := f.vault.Upload(ctx, "inbox", []mediafold.UploadEntry{
		{Filename: "a.png", Data: pngBytes(t, 64, 64)},
		{Filename: "b.png", Data: pngBytes(t, 64, 64)},
	})
	require.NoError(t, err)

	report, err := f.vault.Delete(ctx, []string{"inbox/a.png", "inbox/b.png", "inbox/ghost.png"})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"inbox/a.png", "inbox/b.png"}, report.Succeeded)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, "inbox/ghost.png", report.Failed[0].Key)
	assert.False(t, report.AllSucceeded())

	_, _, err = f.cache.Get(ctx, "inbox/a.png_thumbnail.jpg")
	assert.ErrorIs(t, err, mediafold.ErrNotFound, "thumbnail removed with primary")

	states, err := f.registry.States(ctx, []string{"inbox/a.png", "inbox/b.png"})
	require.NoError(t, err)
	assert.Empty(t, states)
}

func TestFilesInfoMaterializesUnregisteredFiles(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	// file landed in the store outside the gateway
	f.data.Seed("photos/stray.png", pngBytes(t, 200, 100), "application/octet-stream")

	entries, err := f.vault.FilesInfo(ctx, []string{"photos/stray.png"})
	require.NoError(t, err)
	require.Len(t, entries, 1)

	entry := entries[0]
	assert.Equal(t, mediafold.ActionCreate, entry.Action)
	assert.Equal(t, "image/png", entry.MimeType, "mime is sniffed from content")
	assert.True(t, entry.HasThumbnail())
	assert.NotEmpty(t, entry.Checksum)

	_, _, err = f.cache.Get(ctx, entry.ThumbnailKey)
	assert.NoError(t, err)

	// second call is served from the registry
	again, err := f.vault.FilesInfo(ctx, []string{"photos/stray.png"})
	require.NoError(t, err)
	require.Len(t, again, 1)
	assert.Equal(t, entry.EntityID, again[0].EntityID)
}

func TestFilesInfoRecordsMissing(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	entries, err := f.vault.Upload(ctx, "inbox", []mediafold.UploadEntry{
		{Filename: "a.png", Data: pngBytes(t, 64, 64)},
	})
	require.NoError(t, err)

	// the file vanishes behind the gateway's back
	_, err = f.data.Delete(ctx, []string{"inbox/a.png"})
	require.NoError(t, err)

	infos, err := f.vault.FilesInfo(ctx, []string{"inbox/a.png"})
	require.NoError(t, err)
	assert.Empty(t, infos)

	states, err := f.registry.States(ctx, []string{"inbox/a.png"})
	require.NoError(t, err)
	require.Len(t, states, 1)
	assert.Equal(t, mediafold.ActionMissing, states[0].Action)
	assert.Equal(t, entries[0].EntityID, states[0].EntityID)
}

func TestFilesInfoRelinksMovedContent(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	data := pngBytes(t, 64, 64)
	entries, err := f.vault.Upload(ctx, "inbox", []mediafold.UploadEntry{
		{Filename: "a.png", Data: data},
	})
	require.NoError(t, err)

	// the file is moved behind the gateway's back
	f.data.Seed("albums/a.png", data, "image/png")
	_, err = f.data.Delete(ctx, []string{"inbox/a.png"})
	require.NoError(t, err)

	infos, err := f.vault.FilesInfo(ctx, []string{"albums/a.png"})
	require.NoError(t, err)
	require.Len(t, infos, 1)

	assert.Equal(t, mediafold.ActionMove, infos[0].Action, "matching checksum re-links instead of creating")
	assert.Equal(t, entries[0].EntityID, infos[0].EntityID, "entity survives the out-of-band move")

	states, err := f.registry.States(ctx, []string{"inbox/a.png"})
	require.NoError(t, err)
	require.Len(t, states, 1)
	assert.Equal(t, mediafold.ActionMissing, states[0].Action, "vacated key is recorded right away")
}

func TestFilesInfoFreshContentGetsFreshEntity(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	entries, err := f.vault.Upload(ctx, "inbox", []mediafold.UploadEntry{
		{Filename: "a.png", Data: pngBytes(t, 64, 64)},
	})
	require.NoError(t, err)

	// same content appears at a second key while the first is still live
	f.data.Seed("albums/a.png", pngBytes(t, 64, 64), "image/png")

	infos, err := f.vault.FilesInfo(ctx, []string{"albums/a.png"})
	require.NoError(t, err)
	require.Len(t, infos, 1)

	assert.Equal(t, mediafold.ActionCreate, infos[0].Action, "a live duplicate is a new file, not a move")
	assert.NotEqual(t, entries[0].EntityID, infos[0].EntityID)
}

func TestEntriesPagesRegistry(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	_, err := f.vault.Upload(ctx, "albums", []mediafold.UploadEntry{
		{Filename: "a.png", Data: pngBytes(t, 32, 32)},
		{Filename: "b.png", Data: pngBytes(t, 48, 48)},
		{Filename: "c.png", Data: pngBytes(t, 64, 64)},
	})
	require.NoError(t, err)

	page, err := f.vault.Entries(ctx, mediafold.ListQuery{KeyPrefix: "albums", Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	require.NotEmpty(t, page.NextCursor)

	rest, err := f.vault.Entries(ctx, mediafold.ListQuery{KeyPrefix: "albums", Cursor: page.NextCursor, Limit: 2})
	require.NoError(t, err)
	require.Len(t, rest.Items, 1)
	assert.Empty(t, rest.NextCursor)

	seen := []string{page.Items[0].FileKey, page.Items[1].FileKey, rest.Items[0].FileKey}
	assert.ElementsMatch(t, []string{"albums/a.png", "albums/b.png", "albums/c.png"}, seen)

	_, err = f.vault.Entries(ctx, mediafold.ListQuery{KeyPrefix: "../etc"})
	assert.ErrorIs(t, err, mediafold.ErrInvalidInput)
}

func TestPopulateSyncsRegistry(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	f.data.Seed("photos/a.png", pngBytes(t, 64, 64), "image/png")
	f.data.Seed("photos/b.png", pngBytes(t, 64, 64), "image/png")
	f.data.Seed("photos/.hidden.png", pngBytes(t, 64, 64), "image/png")

	count, err := f.vault.Populate(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "hidden files are not synced")

	result, err := f.registry.List(ctx, mediafold.ListQuery{KeyPrefix: "photos/", Limit: 10})
	require.NoError(t, err)
	assert.Len(t, result.Items, 2)
}

func TestSweepRemovesOrphanedThumbnails(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	f.data.Seed("photos/live.png", []byte("x"), "image/png")
	f.cache.Seed("photos/live.png_thumbnail.jpg", []byte("t"), "image/jpeg")
	f.cache.Seed("photos/gone.png_thumbnail.jpg", []byte("t"), "image/jpeg")

	removed, err := f.vault.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, _, err = f.cache.Get(ctx, "photos/live.png_thumbnail.jpg")
	assert.NoError(t, err)
	_, _, err = f.cache.Get(ctx, "photos/gone.png_thumbnail.jpg")
	assert.ErrorIs(t, err, mediafold.ErrNotFound)
}

func TestListFiltersHiddenEntries(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	f.data.Seed("photos/a.png", []byte("x"), "image/png")
	f.data.Seed("photos/.trash/b.png", []byte("x"), "image/png")

	listing, err := f.vault.List(ctx, "", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"photos/a.png"}, listing.Keys())
}
