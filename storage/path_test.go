package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver_Resolve(t *testing.T) {
	r := NewResolver("/srv/storage")

	tests := []struct {
		name     string
		username string
		filename string
		dir      string
		want     string
		wantErr  error
	}{
		{
			name:     "root of the user's tree",
			username: "yoda",
			filename: "notes.txt",
			want:     filepath.Join("/srv/storage", "yoda", "notes.txt"),
		},
		{
			name:     "nested directory",
			username: "yoda",
			filename: "notes.txt",
			dir:      "a/b",
			want:     filepath.Join("/srv/storage", "yoda", "a", "b", "notes.txt"),
		},
		{
			name:     "empty filename",
			username: "yoda",
			filename: "",
			wantErr:  ErrEmptyFilename,
		},
		{
			name:     "filename with separator",
			username: "yoda",
			filename: "../secrets.txt",
			wantErr:  ErrPathEscapes,
		},
		{
			name:     "dot filename resolves to the user root itself",
			username: "yoda",
			filename: ".",
			wantErr:  ErrPathEscapes,
		},
		{
			name:     "dot-dot filename",
			username: "yoda",
			filename: "..",
			wantErr:  ErrPathEscapes,
		},
		{
			name:     "dir traverses out of the user root",
			username: "yoda",
			filename: "notes.txt",
			dir:      "../vader",
			wantErr:  ErrPathEscapes,
		},
		{
			name:     "dir traverses out of the storage root",
			username: "yoda",
			filename: "notes.txt",
			dir:      "../../../etc",
			wantErr:  ErrPathEscapes,
		},
		{
			name:     "absolute dir is treated as relative",
			username: "yoda",
			filename: "notes.txt",
			dir:      "/a/b",
			want:     filepath.Join("/srv/storage", "yoda", "a", "b", "notes.txt"),
		},
		{
			name:     "traversal hidden mid-path",
			username: "yoda",
			filename: "notes.txt",
			dir:      "a/../../vader/b",
			wantErr:  ErrPathEscapes,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(tt.username, tt.filename, tt.dir)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolver_NoFilesystemTouch(t *testing.T) {
	dir := t.TempDir()
	r := NewResolver(filepath.Join(dir, "does-not-exist"))

	_, err := r.Resolve("yoda", "notes.txt", "a/b")
	require.NoError(t, err, "resolve must not require the tree to exist")
}
