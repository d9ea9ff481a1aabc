// Package sqlite implements the file registry using SQLite
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mediafold/mediafold"
)

// Repo is a SQLite-backed file registry. Timestamps are stored as
// RFC3339Nano text so lexical order matches chronological order.
type Repo struct {
	db        *sql.DB
	tableName string
}

func NewRepo(db *sql.DB, tables mediafold.Tables) (*Repo, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("new repo: %w", err)
	}

	return &Repo{db: db, tableName: tables.FileEntries}, nil
}

// Ping verifies database connectivity
func (r *Repo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repo) Record(ctx context.Context, entries []mediafold.FileEntry) ([]mediafold.FileEntry, error) {
	if len(entries) == 0 {
		return nil, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("record: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`INSERT INTO %s (id, file_key, entity_id, action, mime_type, thumbnail_key, thumbnail_mime, checksum, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, r.tableName)

	stored := make([]mediafold.FileEntry, 0, len(entries))
	now := time.Now().UTC()

	for _, entry := range entries {
		if entry.ID == uuid.Nil {
			entry.ID = uuid.New()
		}
		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = now
		}

		_, err = tx.ExecContext(ctx, query,
			entry.ID.String(), entry.FileKey, entry.EntityID.String(), string(entry.Action),
			nullable(entry.MimeType), nullable(entry.ThumbnailKey), nullable(entry.ThumbnailMime), nullable(entry.Checksum),
			entry.CreatedAt.Format(time.RFC3339Nano),
		)
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", entry.FileKey, err)
		}

		stored = append(stored, entry)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("record: commit: %w", err)
	}

	return stored, nil
}

func (r *Repo) States(ctx context.Context, fileKeys []string) ([]mediafold.FileEntry, error) {
	if len(fileKeys) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(fileKeys)), ",")
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT id, file_key, entity_id, action, mime_type, thumbnail_key, thumbnail_mime, checksum, created_at
		FROM (
			SELECT *, ROW_NUMBER() OVER (PARTITION BY file_key ORDER BY created_at DESC, id DESC) AS rn
			FROM %s
			WHERE file_key IN (%s)
		)
		WHERE rn = 1 AND action != ?`, r.tableName, placeholders)

	args := make([]any, 0, len(fileKeys)+1)
	for _, key := range fileKeys {
		args = append(args, key)
	}
	args = append(args, string(mediafold.ActionDelete))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("states: %w", err)
	}
	defer func() { _ = rows.Close() }()

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
				WHERE file_key LIKE ? || '%%' ESCAPE '\'
			)
			SELECT id, file_key, entity_id, action, mime_type, thumbnail_key, thumbnail_mime, checksum, created_at
			FROM latest
			WHERE rn = 1 AND action IN (?, ?)
			ORDER BY created_at, file_key
			LIMIT ?
		`, r.tableName)
		args = []any{escapedPrefix, string(mediafold.ActionCreate), string(mediafold.ActionMove), q.Limit + 1}
	} else {
		query = fmt.Sprintf(`
			WITH latest AS (
				SELECT *, ROW_NUMBER() OVER (PARTITION BY file_key ORDER BY created_at DESC, id DESC) AS rn
				FROM %s
				WHERE file_key LIKE ? || '%%' ESCAPE '\'
			)
			SELECT id, file_key, entity_id, action, mime_type, thumbnail_key, thumbnail_mime, checksum, created_at
			FROM latest
			WHERE rn = 1 AND action IN (?, ?) AND (created_at, file_key) > (?, ?)
			ORDER BY created_at, file_key
			LIMIT ?
		`, r.tableName)
		args = []any{
			escapedPrefix, string(mediafold.ActionCreate), string(mediafold.ActionMove),
			cursor.CreatedAt.Format(time.RFC3339Nano), cursor.FileKey, q.Limit + 1,
		}
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return mediafold.ListResult{}, fmt.Errorf("list: %w", err)
	}
	defer func() { _ = rows.Close() }()

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
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT id, file_key, entity_id, action, mime_type, thumbnail_key, thumbnail_mime, checksum, created_at
		FROM (
			SELECT *, ROW_NUMBER() OVER (PARTITION BY file_key ORDER BY created_at DESC, id DESC) AS rn
			FROM %s
		)
		WHERE rn = 1 AND checksum = ? AND action IN (?, ?)
		ORDER BY created_at, file_key`, r.tableName)

	rows, err := r.db.QueryContext(ctx, query,
		checksum, string(mediafold.ActionCreate), string(mediafold.ActionMove))
	if err != nil {
		return nil, fmt.Errorf("find by checksum: %w", err)
	}
	defer func() { _ = rows.Close() }()

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

func scanEntry(rows *sql.Rows) (mediafold.FileEntry, error) {
	var entry mediafold.FileEntry
	var idStr, entityStr, action, createdAt string
	var mimeType, thumbnailKey, thumbnailMime, checksum sql.NullString

	if err := rows.Scan(&idStr, &entry.FileKey, &entityStr, &action,
		&mimeType, &thumbnailKey, &thumbnailMime, &checksum, &createdAt); err != nil {
		return mediafold.FileEntry{}, fmt.Errorf("scan: %w", err)
	}

	var err error
	entry.ID, err = uuid.Parse(idStr)
	if err != nil {
		return mediafold.FileEntry{}, fmt.Errorf("parse id: %w", err)
	}

	entry.EntityID, err = uuid.Parse(entityStr)
	if err != nil {
		return mediafold.FileEntry{}, fmt.Errorf("parse entity_id: %w", err)
	}

	entry.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return mediafold.FileEntry{}, fmt.Errorf("parse created_at: %w", err)
	}

	entry.Action = mediafold.FileEntryAction(action)
	entry.MimeType = mimeType.String
	entry.ThumbnailKey = thumbnailKey.String
	entry.ThumbnailMime = thumbnailMime.String
	entry.Checksum = checksum.String

	return entry, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
