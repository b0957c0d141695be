package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_RoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := NewLocalStorage(dir, "http://localhost:8080/files/")
	require.NoError(t, err)

	path, err := s.Upload(ctx, strings.NewReader("punches"), "imports/2024-03/batch.xlsx", "application/octet-stream")
	require.NoError(t, err)
	assert.Equal(t, "imports/2024-03/batch.xlsx", path)
	assert.FileExists(t, filepath.Join(dir, "imports", "2024-03", "batch.xlsx"))

	rc, err := s.Download(ctx, path)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "punches", string(data))

	url, err := s.GetURL(ctx, path, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/files/imports/2024-03/batch.xlsx", url)

	require.NoError(t, s.Delete(ctx, path))
	_, err = os.Stat(filepath.Join(dir, "imports", "2024-03", "batch.xlsx"))
	assert.True(t, os.IsNotExist(err))

	// Deleting twice is not an error
	assert.NoError(t, s.Delete(ctx, path))
}

func TestLocalStorage_RejectsEscapingPaths(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir(), "http://localhost:8080/files")
	require.NoError(t, err)

	_, err = s.Upload(ctx, strings.NewReader("x"), "../outside.xlsx", "")
	assert.Error(t, err)

	_, err = s.Download(ctx, "../../etc/passwd")
	assert.Error(t, err)

	_, err = s.GetURL(ctx, "../outside.xlsx", time.Hour)
	assert.Error(t, err)
}

func TestLocalStorage_DownloadMissing(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir(), "http://localhost:8080/files")
	require.NoError(t, err)

	_, err = s.Download(context.Background(), "imports/missing.xlsx")
	assert.Error(t, err)
}
