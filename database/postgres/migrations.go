package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mediafold/mediafold"
)

func createFileEntriesTable(ctx context.Context, pool *pgxpool.Pool, tableName string) error {
	quotedTable := pgx.Identifier{tableName}.Sanitize()
	indexKeyCreated := pgx.Identifier{fmt.Sprintf("idx_%s_key_created", tableName)}.Sanitize()
	indexChecksum := pgx.Identifier{fmt.Sprintf("idx_%s_checksum", tableName)}.Sanitize()
	indexCreatedKey := pgx.Identifier{fmt.Sprintf("idx_%s_created_key", tableName)}.Sanitize()

	sql := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			file_key TEXT NOT NULL,
			entity_id UUID NOT NULL,
			action TEXT NOT NULL,
			mime_type TEXT,
			thumbnail_key TEXT,
			thumbnail_mime TEXT,
			checksum TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS %s
		ON %s (file_key, created_at);

		CREATE INDEX IF NOT EXISTS %s
		ON %s (checksum)
		WHERE (checksum IS NOT NULL);

		CREATE INDEX IF NOT EXISTS %s
		ON %s (created_at, file_key);
	`,
		quotedTable,
		indexKeyCreated, quotedTable,
		indexChecksum, quotedTable,
		indexCreatedKey, quotedTable,
	)

	_, err := pool.Exec(ctx, sql)
	if err != nil {
		return fmt.Errorf("create file entries table: %w", err)
	}
	return nil
}

func dropTable(ctx context.Context, pool *pgxpool.Pool, tableName string) error {
	quotedTable := pgx.Identifier{tableName}.Sanitize()

	_, err := pool.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", quotedTable))
	if err != nil {
		return fmt.Errorf("drop table %s: %w", tableName, err)
	}
	return nil
}

func Migrate(ctx context.Context, pool *pgxpool.Pool, tables mediafold.Tables) error {
	if err := tables.Validate(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	if err := createFileEntriesTable(ctx, pool, tables.FileEntries); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	return nil
}

func DropTables(ctx context.Context, pool *pgxpool.Pool, tables mediafold.Tables) error {
	if err := dropTable(ctx, pool, tables.FileEntries); err != nil {
		return fmt.Errorf("drop tables: %w", err)
	}
	return nil
}
