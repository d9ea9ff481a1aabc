package vault

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/mediafold/mediafold"
	"github.com/mediafold/mediafold/metrics"
	"github.com/mediafold/mediafold/thumbnail"
)

// populateBatchSize bounds how many keys a registry sync touches at once.
const populateBatchSize = 64

// Upload stores the given files under targetDir in the primary store,
// renders and caches thumbnails for image content, and registers the
// new files. The filename of each entry is reduced to its base name, so
// uploads cannot escape the target directory.
//
// A primary-store write failure aborts the whole upload. Thumbnail
// rendering and cache writes are best-effort; a file whose content is
// not a decodable image is registered without a thumbnail.
func (v *Vault) Upload(ctx context.Context, targetDir string, uploads []mediafold.UploadEntry) ([]mediafold.FileEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}

	if len(uploads) == 0 {
		return nil, fmt.Errorf("upload: %w", mediafold.ErrEmptyRequest)
	}

	if !mediafold.IsValidDirKey(targetDir) {
		return nil, fmt.Errorf("upload: invalid target dir %q: %w", targetDir, mediafold.ErrInvalidInput)
	}

	entries := make([]mediafold.FileEntry, 0, len(uploads))

	for _, upload := range uploads {
		name := path.Base(strings.TrimSpace(upload.Filename))
		if name == "" || name == "." || name == "/" {
			return nil, fmt.Errorf("upload: invalid filename %q: %w", upload.Filename, mediafold.ErrInvalidInput)
		}

		key := name
		if targetDir != "" {
			key = path.Join(targetDir, name)
		}
		if !mediafold.IsValidKey(key) {
			return nil, fmt.Errorf("upload: invalid key %q: %w", key, mediafold.ErrInvalidInput)
		}

		mime := mimetype.Detect(upload.Data).String()
		if err := v.data.Put(ctx, key, bytes.NewReader(upload.Data), mime); err != nil {
			return nil, fmt.Errorf("upload %s: %w", key, err)
		}

		entry := mediafold.FileEntry{
			FileKey:  key,
			EntityID: uuid.New(),
			Action:   mediafold.ActionCreate,
			MimeType: mime,
			Checksum: thumbnail.Checksum(upload.Data),
		}

		if thumbKey, thumbMime, ok := v.materializeThumbnail(ctx, key, upload.Data); ok {
			entry.ThumbnailKey = thumbKey
			entry.ThumbnailMime = thumbMime
		}

		entries = append(entries, entry)
	}

	stored, err := v.registry.Record(ctx, entries)
	if err != nil {
		return nil, fmt.Errorf("upload: register: %w", err)
	}

	return stored, nil
}

// FilesInfo returns the registry state for each key, materializing
// state for keys the registry has never seen and thumbnails for
// registered files that lack one. Keys that are gone from the primary
// store are recorded as missing and skipped from the result.
func (v *Vault) FilesInfo(ctx context.Context, keys []string) ([]mediafold.FileEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("files info: %w", err)
	}

	states, err := v.registry.States(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("files info: %w", err)
	}

	byKey := make(map[string]mediafold.FileEntry, len(states))
	for _, state := range states {
		byKey[state.FileKey] = state
	}

	entries := make([]mediafold.FileEntry, 0, len(keys))
	var pending []mediafold.FileEntry

	for _, key := range keys {
		state, registered := byKey[key]
		if registered && state.HasThumbnail() {
			entries = append(entries, state)
			continue
		}

		entry, ok, err := v.materializeState(ctx, key, state, registered)
		if err != nil {
			return nil, fmt.Errorf("files info %s: %w", key, err)
		}
		if !ok {
			continue
		}

		entries = append(entries, entry)
		pending = append(pending, entry)
	}

	if len(pending) > 0 {
		stored, err := v.registry.Record(ctx, pending)
		if err != nil {
			return nil, fmt.Errorf("files info: register: %w", err)
		}

		// swap recorded rows back in so callers see assigned IDs
		recorded := make(map[string]mediafold.FileEntry, len(stored))
		for _, entry := range stored {
			recorded[entry.FileKey] = entry
		}
		for i, entry := range entries {
			if updated, ok := recorded[entry.FileKey]; ok {
				entries[i] = updated
			}
		}
	}

	return entries, nil
}

// Populate walks the primary store under dirKey and brings the registry
// in sync with what is actually there. It returns the number of live
// files seen.
func (v *Vault) Populate(ctx context.Context, dirKey string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("populate: %w", err)
	}

	listing, err := v.List(ctx, dirKey, true)
	if err != nil {
		return 0, fmt.Errorf("populate: %w", err)
	}

	keys := listing.Keys()
	total := 0

	for start := 0; start < len(keys); start += populateBatchSize {
		end := min(start+populateBatchSize, len(keys))

		entries, err := v.FilesInfo(ctx, keys[start:end])
		if err != nil {
			return total, fmt.Errorf("populate: %w", err)
		}
		total += len(entries)
	}

	return total, nil
}

// materializeState reads a primary file and builds its registry row,
// rendering the thumbnail along the way. ok is false when the file does
// not exist; a registered file that has vanished gets a missing row.
// Unregistered content whose checksum matches a vanished entry is
// re-linked to that entity as a move.
func (v *Vault) materializeState(ctx context.Context, key string, state mediafold.FileEntry, registered bool) (mediafold.FileEntry, bool, error) {
	rc, _, err := v.data.Get(ctx, key)
	if err != nil {
		if errors.Is(err, mediafold.ErrNotFound) {
			if registered {
				missing := mediafold.FileEntry{
					FileKey:  key,
					EntityID: state.EntityID,
					Action:   mediafold.ActionMissing,
					MimeType: state.MimeType,
					Checksum: state.Checksum,
				}
				if _, recordErr := v.registry.Record(ctx, []mediafold.FileEntry{missing}); recordErr != nil {
					return mediafold.FileEntry{}, false, fmt.Errorf("record missing: %w", recordErr)
				}
			}
			return mediafold.FileEntry{}, false, nil
		}
		return mediafold.FileEntry{}, false, err
	}
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(rc)
	if err != nil {
		return mediafold.FileEntry{}, false, fmt.Errorf("read content: %w", err)
	}

	entry := mediafold.FileEntry{
		FileKey:  key,
		EntityID: state.EntityID,
		Action:   state.Action,
		MimeType: mimetype.Detect(data).String(),
		Checksum: thumbnail.Checksum(data),
	}
	if !registered {
		entry.EntityID = uuid.New()
		entry.Action = mediafold.ActionCreate
		if prior, ok := v.relink(ctx, key, entry.Checksum); ok {
			entry.EntityID = prior.EntityID
			entry.Action = mediafold.ActionMove
		}
	}

	if thumbKey, thumbMime, ok := v.materializeThumbnail(ctx, key, data); ok {
		entry.ThumbnailKey = thumbKey
		entry.ThumbnailMime = thumbMime
	}

	return entry, true, nil
}

// relink looks for a live registry entry with the same content whose
// primary file has vanished. A match means the file was moved outside
// the system, so the new key inherits the old entity instead of
// starting a fresh one. The vacated key gets its missing row right
// away.
func (v *Vault) relink(ctx context.Context, key, checksum string) (mediafold.FileEntry, bool) {
	if checksum == "" {
		return mediafold.FileEntry{}, false
	}

	matches, err := v.registry.FindByChecksum(ctx, checksum)
	if err != nil {
		v.logger.Warn("checksum lookup failed", "key", key, "error", err)
		return mediafold.FileEntry{}, false
	}

	for _, match := range matches {
		if match.FileKey == key {
			continue
		}

		rc, _, err := v.data.Get(ctx, match.FileKey)
		if err == nil {
			_ = rc.Close()
			continue
		}
		if !errors.Is(err, mediafold.ErrNotFound) {
			continue
		}

		missing := mediafold.FileEntry{
			FileKey:  match.FileKey,
			EntityID: match.EntityID,
			Action:   mediafold.ActionMissing,
			MimeType: match.MimeType,
			Checksum: match.Checksum,
		}
		if _, err := v.registry.Record(ctx, []mediafold.FileEntry{missing}); err != nil {
			v.logger.Warn("record vacated key failed", "key", match.FileKey, "error", err)
		}

		return match, true
	}

	return mediafold.FileEntry{}, false
}

// materializeThumbnail renders and caches the thumbnail for key. It
// never fails the caller: undecodable content and cache write errors
// both leave the file without a thumbnail.
func (v *Vault) materializeThumbnail(ctx context.Context, key string, data []byte) (string, string, bool) {
	result, err := v.thumbs.Render(data)
	metrics.RecordThumbnailRender(err)
	if err != nil {
		v.logger.Debug("skipping thumbnail", "key", key, "error", err)
		return "", "", false
	}

	thumbKey := thumbnail.Key(key)
	if err := v.cache.Put(ctx, thumbKey, bytes.NewReader(result.Data), result.MimeType); err != nil {
		v.logger.Warn("cache thumbnail write failed", "key", thumbKey, "error", err)
		return "", "", false
	}

	return thumbKey, result.MimeType, true
}
