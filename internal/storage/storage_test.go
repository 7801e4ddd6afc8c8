package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskPut(t *testing.T) {
	dir := t.TempDir()
	disk, err := NewDisk(dir, "/uploads/")
	require.NoError(t, err)

	url, err := disk.Put("abc.png", []byte("image bytes"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/abc.png", url)

	data, err := os.ReadFile(filepath.Join(dir, "abc.png"))
	require.NoError(t, err)
	assert.Equal(t, []byte("image bytes"), data)
}

func TestDiskCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "uploads")
	disk, err := NewDisk(dir, "http://localhost:8080/uploads")
	require.NoError(t, err)
	assert.NoError(t, disk.Ready())

	url, err := disk.Put("x.jpg", []byte{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/uploads/x.jpg", url)
}
