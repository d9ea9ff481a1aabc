package vault

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mediafold/mediafold"
	"github.com/mediafold/mediafold/metrics"
	"github.com/mediafold/mediafold/thumbnail"
)

// Copy applies the given key mappings to the primary store, moving when
// deleteSource is set. Cached thumbnails are mirrored for every mapping
// that succeeded; mirror failures are logged and swallowed, the primary
// outcome stands. The registry records a move (entity preserved) or a
// create (fresh entity) per successful mapping.
func (v *Vault) Copy(ctx context.Context, mappings []mediafold.FileKeyMapping, deleteSource bool) ([]mediafold.FileActionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("copy: %w", err)
	}

	if len(mappings) == 0 {
		return nil, fmt.Errorf("copy: %w", mediafold.ErrEmptyRequest)
	}

	sources := make([]string, 0, len(mappings))
	for _, mapping := range mappings {
		sources = append(sources, mapping.SourceKey)
	}

	states, err := v.registry.States(ctx, sources)
	if err != nil {
		return nil, fmt.Errorf("copy: %w", err)
	}
	byKey := make(map[string]mediafold.FileEntry, len(states))
	for _, state := range states {
		byKey[state.FileKey] = state
	}

	results, err := v.data.Copy(ctx, mappings, deleteSource)
	if err != nil {
		return nil, fmt.Errorf("copy: %w", err)
	}

	succeeded := make(map[string]bool, len(results))
	for _, result := range results {
		if result.Success {
			succeeded[result.Key] = true
		}
	}

	var thumbMappings []mediafold.FileKeyMapping
	var rows []mediafold.FileEntry

	for _, mapping := range mappings {
		if !succeeded[mapping.SourceKey] {
			continue
		}

		state, registered := byKey[mapping.SourceKey]

		row := mediafold.FileEntry{
			FileKey:  mapping.DestinationKey,
			EntityID: uuid.New(),
			Action:   mediafold.ActionCreate,
			MimeType: state.MimeType,
			Checksum: state.Checksum,
		}
		if deleteSource {
			row.Action = mediafold.ActionMove
			if registered {
				row.EntityID = state.EntityID
			}
		}

		if state.HasThumbnail() {
			thumbMappings = append(thumbMappings, mediafold.FileKeyMapping{
				SourceKey:      thumbnail.Key(mapping.SourceKey),
				DestinationKey: thumbnail.Key(mapping.DestinationKey),
			})
			row.ThumbnailKey = thumbnail.Key(mapping.DestinationKey)
			row.ThumbnailMime = state.ThumbnailMime
		}

		rows = append(rows, row)

		if deleteSource && registered {
			rows = append(rows, mediafold.FileEntry{
				FileKey:  mapping.SourceKey,
				EntityID: state.EntityID,
				Action:   mediafold.ActionDelete,
				MimeType: state.MimeType,
				Checksum: state.Checksum,
			})
		}
	}

	v.mirrorCopy(ctx, thumbMappings, deleteSource)

	if len(rows) > 0 {
		if _, err := v.registry.Record(ctx, rows); err != nil {
			return results, fmt.Errorf("copy: register: %w", err)
		}
	}

	return results, nil
}

// Delete removes keys from the primary store and reports the outcome
// per key. Cached thumbnails of the removed keys are deleted
// best-effort. Registered keys that were removed get a delete row.
func (v *Vault) Delete(ctx context.Context, keys []string) (mediafold.DeleteReport, error) {
	if err := ctx.Err(); err != nil {
		return mediafold.DeleteReport{}, fmt.Errorf("delete: %w", err)
	}

	if len(keys) == 0 {
		return mediafold.DeleteReport{}, fmt.Errorf("delete: %w", mediafold.ErrEmptyRequest)
	}

	states, err := v.registry.States(ctx, keys)
	if err != nil {
		return mediafold.DeleteReport{}, fmt.Errorf("delete: %w", err)
	}
	byKey := make(map[string]mediafold.FileEntry, len(states))
	for _, state := range states {
		byKey[state.FileKey] = state
	}

	results, err := v.data.Delete(ctx, keys)
	if err != nil {
		return mediafold.DeleteReport{}, fmt.Errorf("delete: %w", err)
	}

	var report mediafold.DeleteReport
	var thumbKeys []string
	var rows []mediafold.FileEntry

	for _, result := range results {
		if !result.Success {
			report.Failed = append(report.Failed, result)
			continue
		}

		report.Succeeded = append(report.Succeeded, result.Key)

		state, registered := byKey[result.Key]
		if registered {
			rows = append(rows, mediafold.FileEntry{
				FileKey:  result.Key,
				EntityID: state.EntityID,
				Action:   mediafold.ActionDelete,
				MimeType: state.MimeType,
				Checksum: state.Checksum,
			})
			if state.HasThumbnail() {
				thumbKeys = append(thumbKeys, state.ThumbnailKey)
			}
		}
	}

	if len(thumbKeys) > 0 {
		if cacheResults, cacheErr := v.cache.Delete(ctx, thumbKeys); cacheErr != nil {
			v.logger.Warn("cache delete failed", "keys", len(thumbKeys), "error", cacheErr)
		} else {
			for _, result := range cacheResults {
				if !result.Success {
					v.logger.Warn("cache delete failed", "key", result.Key, "error", result.Error)
				}
			}
		}
	}

	if len(rows) > 0 {
		if _, err := v.registry.Record(ctx, rows); err != nil {
			return report, fmt.Errorf("delete: register: %w", err)
		}
	}

	return report, nil
}

// Sweep deletes cached thumbnails whose primary file no longer exists
// and returns how many were removed.
func (v *Vault) Sweep(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("sweep: %w", err)
	}

	cached, err := v.cache.List(ctx, "", true)
	if err != nil {
		return 0, fmt.Errorf("sweep: list cache: %w", err)
	}

	primary, err := v.data.List(ctx, "", true)
	if err != nil {
		return 0, fmt.Errorf("sweep: list data: %w", err)
	}

	live := make(map[string]bool, len(primary.Entries))
	for _, key := range primary.Keys() {
		live[key] = true
	}

	var orphans []string
	for _, key := range cached.Keys() {
		source, ok := thumbnail.SourceKey(key)
		if !ok || live[source] {
			continue
		}
		orphans = append(orphans, key)
	}

	if len(orphans) == 0 {
		return 0, nil
	}

	results, err := v.cache.Delete(ctx, orphans)
	if err != nil {
		return 0, fmt.Errorf("sweep: %w", err)
	}

	removed := 0
	for _, result := range results {
		if result.Success {
			removed++
			continue
		}
		v.logger.Warn("sweep delete failed", "key", result.Key, "error", result.Error)
	}

	metrics.RecordSweepRemovals(removed)

	return removed, nil
}

// mirrorCopy replays successful primary mappings against the cache.
func (v *Vault) mirrorCopy(ctx context.Context, mappings []mediafold.FileKeyMapping, deleteSource bool) {
	if len(mappings) == 0 {
		return
	}

	results, err := v.cache.Copy(ctx, mappings, deleteSource)
	if err != nil {
		v.logger.Warn("cache mirror failed", "mappings", len(mappings), "error", err)
		return
	}

	for _, result := range results {
		if !result.Success {
			v.logger.Warn("cache mirror failed", "key", result.Key, "error", result.Error)
		}
	}
}
