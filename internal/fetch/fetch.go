// Package fetch downloads the daily subwaydata.nyc archives for the analysis
// window. Downloads are rate limited to stay polite to the archive host, and
// days that were never published (404) are recorded as misses rather than
// failures.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/time/rate"

	"headways.subwaydata.nyc/internal/logging"
)

// DefaultBaseURL is the public archive host.
const DefaultBaseURL = "https://subwaydata.nyc/data"

// maxArchiveSize caps a single daily archive; the published files are a few
// megabytes compressed.
const maxArchiveSize = 100 * 1024 * 1024

// Stats summarizes one download pass.
type Stats struct {
	Downloaded int
	Skipped    int
	Missing    int
	Failed     int
}

// Downloader fetches daily archives into a local directory.
type Downloader struct {
	client    *http.Client
	limiter   *rate.Limiter
	baseURL   string
	outputDir string
	logger    *slog.Logger
}

// NewDownloader creates a Downloader writing into outputDir. baseURL may be
// empty to use the public host.
func NewDownloader(baseURL, outputDir string, logger *slog.Logger) *Downloader {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Downloader{
		client: &http.Client{
			Timeout: 5 * time.Minute,
			Transport: &http.Transport{
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 30 * time.Second,
				IdleConnTimeout:       90 * time.Second,
			}},
		// One request per 500ms keeps the bulk fetch polite.
		limiter:   rate.NewLimiter(rate.Every(500*time.Millisecond), 1),
		baseURL:   baseURL,
		outputDir: outputDir,
		logger:    logger.With(slog.String("component", "archive_downloader")),
	}
}

// FileName returns the published archive name for a service date.
func FileName(d time.Time) string {
	return fmt.Sprintf("subwaydatanyc_%s_csv.tar.xz", d.Format("2006-01-02"))
}

// DownloadRange fetches the archives for every date in [start, end],
// inclusive. Existing files are skipped, missing days and transient failures
// are counted and the pass continues; only context cancellation aborts it.
func (d *Downloader) DownloadRange(ctx context.Context, start, end time.Time) (Stats, error) {
	if err := os.MkdirAll(d.outputDir, 0o755); err != nil {
		return Stats{}, fmt.Errorf("creating output directory: %w", err)
	}

	var stats Stats
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		if err := d.limiter.Wait(ctx); err != nil {
			return stats, err
		}

		switch err := d.downloadDay(ctx, day); {
		case err == nil:
			stats.Downloaded++
		case errorIsSkip(err):
			stats.Skipped++
		case errorIsMiss(err):
			stats.Missing++
			d.logger.Info("archive not published", slog.String("date", day.Format("2006-01-02")))
		case ctx.Err() != nil:
			return stats, ctx.Err()
		default:
			stats.Failed++
			logging.LogError(d.logger, "download failed", err, slog.String("date", day.Format("2006-01-02")))
		}
	}

	logging.LogOperation(d.logger, "download_pass_complete",
		slog.Int("downloaded", stats.Downloaded),
		slog.Int("skipped", stats.Skipped),
		slog.Int("missing", stats.Missing),
		slog.Int("failed", stats.Failed))

	return stats, nil
}

type skipError struct{}

func (skipError) Error() string { return "already downloaded" }

type missError struct{}

func (missError) Error() string { return "not found" }

func errorIsSkip(err error) bool { _, ok := err.(skipError); return ok }
func errorIsMiss(err error) bool { _, ok := err.(missError); return ok }

func (d *Downloader) downloadDay(ctx context.Context, day time.Time) error {
	name := FileName(day)
	outputPath := filepath.Join(d.outputDir, name)

	if _, err := os.Stat(outputPath); err == nil {
		return skipError{}
	}

	url := d.baseURL + "/" + name
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer logging.SafeCloseWithLogging(resp.Body, d.logger, "http_response_body")

	if resp.StatusCode == http.StatusNotFound {
		return missError{}
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected HTTP status %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxArchiveSize+1))
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}
	if int64(len(body)) > maxArchiveSize {
		return fmt.Errorf("archive exceeds size limit of %d bytes", maxArchiveSize)
	}

	// Write to a temp name first so a partial download never looks like a
	// valid archive to the loader.
	tmpPath := outputPath + ".tmp"
	if err := os.WriteFile(tmpPath, body, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, outputPath); err != nil {
		if removeErr := os.Remove(tmpPath); removeErr != nil && !os.IsNotExist(removeErr) {
			logging.LogError(d.logger, "failed to remove temp file", removeErr)
		}
		return err
	}

	d.logger.Info("downloaded archive",
		slog.String("file", name),
		slog.Int("bytes", len(body)))
	return nil
}
