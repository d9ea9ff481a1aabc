package database

import (
	"context"
	"time"

	"github.com/mediafold/mediafold"
	"github.com/mediafold/mediafold/metrics"
)

// instrumentedRegistry wraps a FileRegistry and records query latency.
type instrumentedRegistry struct {
	inner mediafold.FileRegistry
}

func (r instrumentedRegistry) Record(ctx context.Context, entries []mediafold.FileEntry) ([]mediafold.FileEntry, error) {
	defer observe("record", time.Now())
	return r.inner.Record(ctx, entries)
}

func (r instrumentedRegistry) States(ctx context.Context, fileKeys []string) ([]mediafold.FileEntry, error) {
	defer observe("states", time.Now())
	return r.inner.States(ctx, fileKeys)
}

func (r instrumentedRegistry) List(ctx context.Context, query mediafold.ListQuery) (mediafold.ListResult, error) {
	defer observe("list", time.Now())
	return r.inner.List(ctx, query)
}

func (r instrumentedRegistry) FindByChecksum(ctx context.Context, checksum string) ([]mediafold.FileEntry, error) {
	defer observe("find_by_checksum", time.Now())
	return r.inner.FindByChecksum(ctx, checksum)
}

func observe(query string, start time.Time) {
	metrics.RecordRegistryQuery(query, time.Since(start))
}
