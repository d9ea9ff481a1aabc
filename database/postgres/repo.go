// Package postgres implements the file registry using a pgx connection pool
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mediafold/mediafold"
)

// Tables is an alias for mediafold.Tables for package compatibility.
type Tables = mediafold.Tables

type Repo struct {
	pool      *pgxpool.Pool
	tableName string
}

func NewRepo(pool *pgxpool.Pool, tables Tables) (*Repo, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("new repo: %w", err)
	}

	return &Repo{pool: pool, tableName: tables.FileEntries}, nil
}

// Ping verifies database connectivity
func (r *Repo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *Repo) Record(ctx context.Context, entries []mediafold.FileEntry) ([]mediafold.FileEntry, error) {
	if len(entries) == 0 {
		return nil, nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("record: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := fmt.Sprintf(`
		INSERT INTO %s (id, file_key, entity_id, action, mime_type, thumbnail_key, thumbnail_mime, checksum, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, r.tableName)

	stored := make([]mediafold.FileEntry, 0, len(entries))
	now := time.Now().UTC()

	for _, entry := range entries {
		if entry.ID == uuid.Nil {
			entry.ID = uuid.New()
		}
		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = now
		}

		_, err = tx.Exec(ctx, query,
			entry.ID, entry.FileKey, entry.EntityID, string(entry.Action),
			textOrNil(entry.MimeType), textOrNil(entry.ThumbnailKey), textOrNil(entry.ThumbnailMime), textOrNil(entry.Checksum),
			entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", entry.FileKey, err)
		}

		stored = append(stored, entry)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("record: commit: %w", err)
	}

	return stored, nil
}

func (r *Repo) States(ctx context.Context, fileKeys []string) ([]mediafold.FileEntry, error) {
	if len(fileKeys) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT id, file_key, entity_id, action, mime_type, thumbnail_key, thumbnail_mime, checksum, created_at
		FROM (
			SELECT *, ROW_NUMBER() OVER (PARTITION BY file_key ORDER BY created_at DESC, id DESC) AS rn
			FROM %s
			WHERE file_key = ANY($1)
		) latest
		WHERE rn = 1 AND action != $2
	`, r.tableName)

	rows, err := r.pool.Query(ctx, query, fileKeys, string(mediafold.ActionDelete))
	if err != nil {
		return nil, fmt.Errorf("states: %w", err)
	}
	defer rows.Close()

	byKey := make(map[string]mediafold.FileEntry, len(fileKeys))
	for rows.Next() {
		entry, scanErr := scanEntry(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("states: %w", scanErr)
		}
		byKey[entry.FileKey] = entry
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("states: rows: %w", err)
	}

	entries := make([]mediafold.FileEntry, 0, len(byKey))
	for _, key := range fileKeys {
		if entry, ok := byKey[key]; ok {
			entries = append(entries, entry)
		}
	}

	return entries, nil
}

func (r *Repo) List(ctx context.Context, q mediafold.ListQuery) (mediafold.ListResult, error) {
	cursor, err := mediafold.DecodeCursor(q.Cursor)
	if err != nil {
		return mediafold.ListResult{}, fmt.Errorf("list: %w", err)
	}

	escapedPrefix := mediafold.EscapeLikePattern(q.KeyPrefix)

	var query string
	var args []any

	if q.Cursor == "" {
		query = fmt.Sprintf(`
			WITH latest AS (
				SELECT *, ROW_NUMBER() OVER (PARTITION BY file_key ORDER BY created_at DESC, id DESC) AS rn
				FROM %s
				WHERE file_key LIKE $1 || '%%'
			)
			SELECT id, file_key, entity_id, action, mime_type, thumbnail_key, thumbnail_mime, checksum, created_at
			FROM latest
			WHERE rn = 1 AND action = ANY($2)
			ORDER BY created_at, file_key
			LIMIT $3
		`, r.tableName)
		args = []any{escapedPrefix, liveActions(), q.Limit + 1}
	} else {
		query = fmt.Sprintf(`
			WITH latest AS (
				SELECT *, ROW_NUMBER() OVER (PARTITION BY file_key ORDER BY created_at DESC, id DESC) AS rn
				FROM %s
				WHERE file_key LIKE $1 || '%%'
			)
			SELECT id, file_key, entity_id, action, mime_type, thumbnail_key, thumbnail_mime, checksum, created_at
			FROM latest
			WHERE rn = 1 AND action = ANY($2) AND (created_at, file_key) > ($3, $4)
			ORDER BY created_at, file_key
			LIMIT $5
		`, r.tableName)
		args = []any{escapedPrefix, liveActions(), cursor.CreatedAt, cursor.FileKey, q.Limit + 1}
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return mediafold.ListResult{}, fmt.Errorf("list: %w", err)
	}
	defer rows.Close()

	items := make([]mediafold.FileEntry, 0, q.Limit)
	for rows.Next() {
		entry, scanErr := scanEntry(rows)
		if scanErr != nil {
			return mediafold.ListResult{}, fmt.Errorf("list: %w", scanErr)
		}
		items = append(items, entry)
	}

	if err := rows.Err(); err != nil {
		return mediafold.ListResult{}, fmt.Errorf("list: rows: %w", err)
	}

	var nextCursor string
	if len(items) > q.Limit {
		// Cursor points to the last item of the current page
		lastItem := items[q.Limit-1]
		nextCursor = mediafold.EncodeCursor(lastItem.CreatedAt, lastItem.FileKey)
		items = items[:q.Limit]
	}

	return mediafold.ListResult{Items: items, NextCursor: nextCursor}, nil
}

func (r *Repo) FindByChecksum(ctx context.Context, checksum string) ([]mediafold.FileEntry, error) {
	query := fmt.Sprintf(`
		SELECT id, file_key, entity_id, action, mime_type, thumbnail_key, thumbnail_mime, checksum, created_at
		FROM (
			SELECT *, ROW_NUMBER() OVER (PARTITION BY file_key ORDER BY created_at DESC, id DESC) AS rn
			FROM %s
		) latest
		WHERE rn = 1 AND checksum = $1 AND action = ANY($2)
		ORDER BY created_at, file_key
	`, r.tableName)

	rows, err := r.pool.Query(ctx, query, checksum, liveActions())
	if err != nil {
		return nil, fmt.Errorf("find by checksum: %w", err)
	}
	defer rows.Close()

	var entries []mediafold.FileEntry
	for rows.Next() {
		entry, scanErr := scanEntry(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("find by checksum: %w", scanErr)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find by checksum: rows: %w", err)
	}

	return entries, nil
}

func scanEntry(rows pgx.Rows) (mediafold.FileEntry, error) {
	var entry mediafold.FileEntry
	var action string
	var mimeType, thumbnailKey, thumbnailMime, checksum *string

	if err := rows.Scan(&entry.ID, &entry.FileKey, &entry.EntityID, &action,
		&mimeType, &thumbnailKey, &thumbnailMime, &checksum, &entry.CreatedAt); err != nil {
		return mediafold.FileEntry{}, fmt.Errorf("scan: %w", err)
	}

	entry.Action = mediafold.FileEntryAction(action)
	entry.MimeType = deref(mimeType)
	entry.ThumbnailKey = deref(thumbnailKey)
	entry.ThumbnailMime = deref(thumbnailMime)
	entry.Checksum = deref(checksum)

	return entry, nil
}

func liveActions() []string {
	return []string{string(mediafold.ActionCreate), string(mediafold.ActionMove)}
}

func textOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
