package mediafold_test

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediafold/mediafold"
)

func TestEncodeCursor_DecodeCursor_RoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		createdAt time.Time
		fileKey   string
	}{
		{
			name:      "simple key",
			createdAt: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
			fileKey:   "photos/beach.jpg",
		},
		{
			name:      "key with spaces",
			createdAt: time.Date(2024, 6, 20, 14, 45, 30, 123456789, time.UTC),
			fileKey:   "photos/family reunion 2024.jpg",
		},
		{
			name:      "nanosecond precision",
			createdAt: time.Date(2024, 12, 31, 23, 59, 59, 999999999, time.UTC),
			fileKey:   "precision-test.heic",
		},
		{
			name:      "key with pipe character",
			createdAt: time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC),
			fileKey:   "key|with|pipes.mp4",
		},
		{
			name:      "deeply nested key",
			createdAt: time.Date(2024, 5, 5, 12, 0, 0, 0, time.UTC),
			fileKey:   "a/b/c/d/e/f/g/h/i/j/clip.mov",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			encoded := mediafold.EncodeCursor(tt.createdAt, tt.fileKey)
			assert.NotEmpty(t, encoded, "encoded cursor should not be empty")

			decoded, err := mediafold.DecodeCursor(encoded)
			require.NoError(t, err)

			assert.True(t, tt.createdAt.Equal(decoded.CreatedAt),
				"createdAt mismatch: expected %v, got %v", tt.createdAt, decoded.CreatedAt)
			assert.Equal(t, tt.fileKey, decoded.FileKey)
		})
	}
}

func TestDecodeCursor_EmptyString(t *testing.T) {
	t.Parallel()

	cursor, err := mediafold.DecodeCursor("")
	require.NoError(t, err)

	assert.True(t, cursor.CreatedAt.IsZero(), "empty cursor should return zero time")
	assert.Empty(t, cursor.FileKey, "empty cursor should return empty key")
}

func TestDecodeCursor_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		cursor      string
		errContains string
	}{
		{
			name:        "not base64",
			cursor:      "not-valid-base64!!!",
			errContains: "invalid encoding",
		},
		{
			name:        "missing pipe separator",
			cursor:      base64.URLEncoding.EncodeToString([]byte("2024-01-15T10:30:00Z")),
			errContains: "invalid format",
		},
		{
			name:        "empty key after pipe",
			cursor:      base64.URLEncoding.EncodeToString([]byte("2024-01-15T10:30:00Z|")),
			errContains: "empty file key",
		},
		{
			name:        "bad timestamp",
			cursor:      base64.URLEncoding.EncodeToString([]byte("yesterday|photos/a.jpg")),
			errContains: "invalid timestamp",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := mediafold.DecodeCursor(tt.cursor)
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestTablesValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		tables  mediafold.Tables
		wantErr bool
	}{
		{name: "valid", tables: mediafold.Tables{FileEntries: "file_entries"}, wantErr: false},
		{name: "empty", tables: mediafold.Tables{}, wantErr: true},
		{name: "uppercase", tables: mediafold.Tables{FileEntries: "FileEntries"}, wantErr: true},
		{name: "leading digit", tables: mediafold.Tables{FileEntries: "1entries"}, wantErr: true},
		{name: "sql injection", tables: mediafold.Tables{FileEntries: "x; DROP TABLE y"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.tables.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEscapeLikePattern(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `photos/2024`, mediafold.EscapeLikePattern(`photos/2024`))
	assert.Equal(t, `100\%\_done`, mediafold.EscapeLikePattern(`100%_done`))
	assert.Equal(t, `a\\b`, mediafold.EscapeLikePattern(`a\b`))
}
