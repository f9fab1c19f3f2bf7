package hashing

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "hash simple file", content: "hello world"},
		{name: "hash empty file", content: ""},
		{name: "hash binary content", content: "\x00\x01\x02\x03"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filePath := filepath.Join(t.TempDir(), "areas.json")
			require.NoError(t, os.WriteFile(filePath, []byte(tt.content), 0644))

			hash, err := HashFile(filePath)
			require.NoError(t, err)
			assert.Len(t, hash, 64)

			hash2, err := HashFile(filePath)
			require.NoError(t, err)
			assert.Equal(t, hash, hash2)
		})
	}
}

func TestHashFile_Missing(t *testing.T) {
	_, err := HashFile(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open file")
}

func TestHashFiles(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.json")
	b := filepath.Join(dir, "b.json")
	require.NoError(t, os.WriteFile(a, []byte(`[{"lnglat":[[1,2]]}]`), 0644))
	require.NoError(t, os.WriteFile(b, []byte(`[]`), 0644))

	first, err := HashFiles(a, b)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(first, "sha256:"))

	reordered, err := HashFiles(b, a)
	require.NoError(t, err)
	assert.Equal(t, first, reordered, "order of arguments must not matter")

	withMissing, err := HashFiles(a, b, filepath.Join(dir, "missing.json"))
	require.NoError(t, err)
	assert.Equal(t, first, withMissing, "missing files are skipped")

	withDir, err := HashFiles(a, b, dir)
	require.NoError(t, err)
	assert.Equal(t, first, withDir, "directories are skipped")

	require.NoError(t, os.WriteFile(b, []byte(`[{"lnglat":[[3,4]]}]`), 0644))
	changed, err := HashFiles(a, b)
	require.NoError(t, err)
	assert.NotEqual(t, first, changed)
}

func TestHashBytes(t *testing.T) {
	assert.Equal(t,
		"sha256:b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9",
		HashBytes([]byte("hello world")),
	)
	assert.NotEqual(t, HashBytes([]byte("a")), HashBytes([]byte("b")))
}
