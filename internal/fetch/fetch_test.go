package fetch

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

func TestFileName(t *testing.T) {
	d := time.Date(2025, 12, 8, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "subwaydatanyc_2025-12-08_csv.tar.xz", FileName(d))
}

func TestDownloadRange(t *testing.T) {
	published := map[string][]byte{
		"subwaydatanyc_2025-10-01_csv.tar.xz": []byte("day one"),
		"subwaydatanyc_2025-10-03_csv.tar.xz": []byte("day three"),
	}

	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		body, ok := published[filepath.Base(r.URL.Path)]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(body)
	}))
	defer server.Close()

	dir := t.TempDir()
	d := NewDownloader(server.URL, dir, nil)

	start := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 10, 3, 0, 0, 0, 0, time.UTC)

	stats, err := d.DownloadRange(context.Background(), start, end)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Downloaded)
	assert.Equal(t, 0, stats.Skipped)
	assert.Equal(t, 1, stats.Missing)
	assert.Equal(t, 0, stats.Failed)
	assert.Equal(t, 3, requests)

	content, err := os.ReadFile(filepath.Join(dir, "subwaydatanyc_2025-10-01_csv.tar.xz"))
	require.NoError(t, err)
	assert.Equal(t, []byte("day one"), content)

	// No stray temp files.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	// A second pass skips existing files instead of refetching them.
	stats, err = d.DownloadRange(context.Background(), start, end)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Downloaded)
	assert.Equal(t, 2, stats.Skipped)
	assert.Equal(t, 1, stats.Missing)
	assert.Equal(t, 4, requests, "only the missing day is retried")
}

func TestDownloadRangeServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	d := NewDownloader(server.URL, t.TempDir(), nil)
	day := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)

	stats, err := d.DownloadRange(context.Background(), day, day)
	require.NoError(t, err, "transient failures are counted, not fatal")
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 0, stats.Downloaded)
}

func TestDownloadRangeContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("data"))
	}))
	defer server.Close()

	d := NewDownloader(server.URL, t.TempDir(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 10, 10, 0, 0, 0, 0, time.UTC)

	_, err := d.DownloadRange(ctx, start, end)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewDownloaderDefaultBaseURL(t *testing.T) {
	d := NewDownloader("", t.TempDir(), nil)
	assert.Equal(t, DefaultBaseURL, d.baseURL)
}
