package invoice

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepRemovesOnlyStaleFiles(t *testing.T) {
	dir := t.TempDir()
	scratch, err := NewScratch(dir, "", time.Hour)
	require.NoError(t, err)

	stale := filepath.Join(dir, "invoice_OLD.pdf")
	fresh := filepath.Join(dir, "invoice_NEW.pdf")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))
	require.NoError(t, os.WriteFile(fresh, []byte("new"), 0o644))
	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(stale, past, past))

	removed, err := scratch.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = os.Stat(stale)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(fresh)
	assert.NoError(t, err)

	// Repeat run has nothing left to reclaim.
	removed, err = scratch.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
}

func TestSweepStopsOnCanceledContext(t *testing.T) {
	dir := t.TempDir()
	scratch, err := NewScratch(dir, "", time.Hour)
	require.NoError(t, err)

	stale := filepath.Join(dir, "invoice_OLD.pdf")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))
	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(stale, past, past))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = scratch.Sweep(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	_, statErr := os.Stat(stale)
	assert.NoError(t, statErr, "canceled sweep leaves files alone")
}

func TestSaveCopyWritesFile(t *testing.T) {
	dir := t.TempDir()
	scratch, err := NewScratch(dir, "", time.Hour)
	require.NoError(t, err)

	scratch.SaveCopy("invoice_X.pdf", []byte("%PDF"))

	data, err := os.ReadFile(filepath.Join(dir, "invoice_X.pdf"))
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF"), data)
}

func TestLogoPathNoURLConfigured(t *testing.T) {
	scratch, err := NewScratch(t.TempDir(), "", time.Hour)
	require.NoError(t, err)

	_, ok := scratch.LogoPath()
	assert.False(t, ok)
}

func TestLogoPathFetchesOnceAndCaches(t *testing.T) {
	fetches := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches++
		w.Write([]byte("png-bytes"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	scratch, err := NewScratch(dir, srv.URL, time.Hour)
	require.NoError(t, err)

	path, ok := scratch.LogoPath()
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "logo.png"), path)

	_, ok = scratch.LogoPath()
	require.True(t, ok)
	assert.Equal(t, 1, fetches)
}

func TestLogoPathFetchFailureFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	dir := t.TempDir()
	scratch, err := NewScratch(dir, srv.URL, time.Hour)
	require.NoError(t, err)

	_, ok := scratch.LogoPath()
	assert.False(t, ok)
	_, statErr := os.Stat(filepath.Join(dir, "logo.png"))
	assert.True(t, os.IsNotExist(statErr), "failed fetch leaves no partial file")
}
