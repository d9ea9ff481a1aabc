package mediafold_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediafold/mediafold"
)

func TestParseOperation(t *testing.T) {
	for _, s := range []string{"copy", "move", "delete"} {
		op, err := mediafold.ParseOperation(s)
		require.NoError(t, err)
		assert.True(t, op.IsValid())
	}

	_, err := mediafold.ParseOperation("rename")
	assert.Error(t, err)
}

func TestFileActionRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     mediafold.FileActionRequest
		wantErr error
	}{
		{
			name: "valid move",
			req: mediafold.FileActionRequest{
				Operation: mediafold.OpMove,
				Sources:   []string{"x/1.jpg"},
				TargetDir: "y",
			},
		},
		{
			name: "valid delete",
			req: mediafold.FileActionRequest{
				Operation: mediafold.OpDelete,
				Sources:   []string{"x/1.jpg", "x/2.jpg"},
			},
		},
		{
			name: "empty sources",
			req: mediafold.FileActionRequest{
				Operation: mediafold.OpDelete,
			},
			wantErr: mediafold.ErrEmptyRequest,
		},
		{
			name: "copy without target dir",
			req: mediafold.FileActionRequest{
				Operation: mediafold.OpCopy,
				Sources:   []string{"x/1.jpg"},
			},
			wantErr: mediafold.ErrInvalidInput,
		},
		{
			name: "delete with target dir",
			req: mediafold.FileActionRequest{
				Operation: mediafold.OpDelete,
				Sources:   []string{"x/1.jpg"},
				TargetDir: "y",
			},
			wantErr: mediafold.ErrInvalidInput,
		},
		{
			name: "unknown operation",
			req: mediafold.FileActionRequest{
				Operation: "rename",
				Sources:   []string{"x/1.jpg"},
			},
			wantErr: mediafold.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFileActionRequestMappings(t *testing.T) {
	req := mediafold.FileActionRequest{
		Operation: mediafold.OpMove,
		Sources:   []string{"x/1.jpg", "z/deep/2.jpg"},
		TargetDir: "y",
	}

	got := req.Mappings()
	require.Len(t, got, 2)
	assert.Equal(t, mediafold.FileKeyMapping{SourceKey: "x/1.jpg", DestinationKey: "y/1.jpg"}, got[0])
	assert.Equal(t, mediafold.FileKeyMapping{SourceKey: "z/deep/2.jpg", DestinationKey: "y/2.jpg"}, got[1])
}

func TestFileActionRequestMappingsKeepsCollisions(t *testing.T) {
	// Two sources mapping to the same destination basename are submitted
	// independently; conflicts surface as per-key failures downstream.
	req := mediafold.FileActionRequest{
		Operation: mediafold.OpCopy,
		Sources:   []string{"a/1.jpg", "b/1.jpg"},
		TargetDir: "y",
	}

	got := req.Mappings()
	require.Len(t, got, 2)
	assert.Equal(t, "y/1.jpg", got[0].DestinationKey)
	assert.Equal(t, "y/1.jpg", got[1].DestinationKey)
}

func TestDirectoryListingKeys(t *testing.T) {
	listing := mediafold.DirectoryListing{Entries: []mediafold.Entry{
		{Key: "a/1.jpg"},
		{Key: "a/sub", IsDir: true},
		{Key: "a/2.jpg"},
	}}

	assert.Equal(t, []string{"a/1.jpg", "a/2.jpg"}, listing.Keys())
}

func TestReadonlyURLsURLFor(t *testing.T) {
	urls := mediafold.ReadonlyURLs{
		BaseURL: "https://host/read/media",
		Paths:   map[string]string{"a/1.jpg": "a/1.jpg?sig=s&expires=1"},
	}

	assert.Equal(t, "https://host/read/media/a/1.jpg?sig=s&expires=1", urls.URLFor("a/1.jpg"))
	assert.Empty(t, urls.URLFor("missing.jpg"))
}

func TestDeleteReportAllSucceeded(t *testing.T) {
	ok := mediafold.DeleteReport{Succeeded: []string{"a"}}
	assert.True(t, ok.AllSucceeded())

	partial := mediafold.DeleteReport{
		Succeeded: []string{"a"},
		Failed:    []mediafold.FileActionResult{{Key: "b", Error: "not found"}},
	}
	assert.False(t, partial.AllSucceeded())
}
