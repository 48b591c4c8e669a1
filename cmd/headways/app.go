package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"headways.subwaydata.nyc/headwaydb"
	"headways.subwaydata.nyc/internal/analysis"
	"headways.subwaydata.nyc/internal/app"
	"headways.subwaydata.nyc/internal/appconf"
	"headways.subwaydata.nyc/internal/archive"
	"headways.subwaydata.nyc/internal/clock"
	"headways.subwaydata.nyc/internal/fetch"
	"headways.subwaydata.nyc/internal/metrics"
	"headways.subwaydata.nyc/internal/report"
)

// BuildApplication assembles the application dependencies. The analysis
// configuration is validated here so a bad config fails before any work.
func BuildApplication(cfg appconf.Config, analysisCfg analysis.Config) (*app.Application, error) {
	logLevel := slog.LevelInfo
	if cfg.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))

	if err := analysisCfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid analysis configuration: %w", err)
	}

	coreApp := &app.Application{
		Config:   cfg,
		Analysis: analysisCfg,
		Logger:   logger,
		Clock:    clock.RealClock{},
		Metrics:  metrics.New(),
	}

	if cfg.DBPath != "" {
		store, err := headwaydb.NewClient(headwaydb.NewConfig(cfg.DBPath, cfg.Verbose))
		if err != nil {
			return nil, fmt.Errorf("failed to open results database: %w", err)
		}
		coreApp.Store = store
	}

	return coreApp, nil
}

// Run executes one full analysis pass: load archives, run the pipeline,
// record metrics, persist results, and write the report files.
func Run(ctx context.Context, coreApp *app.Application) error {
	pipeline, err := analysis.NewPipeline(coreApp.Analysis, coreApp.Logger)
	if err != nil {
		return err
	}

	loc, err := coreApp.Analysis.Location()
	if err != nil {
		return err
	}

	stationCode := coreApp.Analysis.StationCode
	loader := archive.NewLoader(loc, coreApp.Logger, func(stopID string) bool {
		return strings.HasPrefix(stopID, stationCode)
	})

	records, loadStats, err := loader.LoadDir(coreApp.Config.DataDir)
	if err != nil {
		return fmt.Errorf("loading archives: %w", err)
	}
	coreApp.Metrics.ArchivesLoaded.Add(float64(loadStats.ArchivesLoaded))
	coreApp.Metrics.ArchiveFailures.Add(float64(loadStats.ArchivesFailed))

	result := pipeline.Run(records)
	coreApp.Metrics.RecordPipeline(result)

	if coreApp.Store != nil {
		if err := coreApp.Store.ReplaceObservations(ctx, coreApp.Logger, result.Observations); err != nil {
			return fmt.Errorf("persisting observations: %w", err)
		}
		if err := coreApp.Store.ReplaceSummary(ctx, coreApp.Logger, result.Summary); err != nil {
			return fmt.Errorf("persisting summary: %w", err)
		}
	}

	writer := report.NewWriter(coreApp.Config.ResultsDir, coreApp.Clock, coreApp.Logger)
	return writer.WriteAll(coreApp.Analysis, result)
}

// runDownload fetches any daily archives missing from the data directory,
// covering both analysis windows.
func runDownload(ctx context.Context, coreApp *app.Application, baseURL string) error {
	start, err := time.Parse("2006-01-02", coreApp.Analysis.PreRange.Start)
	if err != nil {
		return err
	}
	end, err := time.Parse("2006-01-02", coreApp.Analysis.PostRange.End)
	if err != nil {
		return err
	}

	downloader := fetch.NewDownloader(baseURL, coreApp.Config.DataDir, coreApp.Logger)
	stats, err := downloader.DownloadRange(ctx, start, end)

	m := coreApp.Metrics.ArchiveDownloads
	m.WithLabelValues(metrics.DownloadOK).Add(float64(stats.Downloaded))
	m.WithLabelValues(metrics.DownloadSkipped).Add(float64(stats.Skipped))
	m.WithLabelValues(metrics.DownloadMissing).Add(float64(stats.Missing))
	m.WithLabelValues(metrics.DownloadFailed).Add(float64(stats.Failed))

	return err
}

// inspectSampleSize bounds how many records the inspect mode dumps.
const inspectSampleSize = 20

// runInspect dumps a sample of one day's station records for eyeballing the
// raw data, then exits without analyzing anything.
func runInspect(coreApp *app.Application, date string) error {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return fmt.Errorf("invalid inspect date %q: %w", date, err)
	}

	loc, err := coreApp.Analysis.Location()
	if err != nil {
		return err
	}

	loader := archive.NewLoader(loc, coreApp.Logger, nil)
	path := filepath.Join(coreApp.Config.DataDir, fetch.FileName(day))
	records, err := loader.LoadFile(path)
	if err != nil {
		return fmt.Errorf("loading archive for %s: %w", date, err)
	}

	filtered := coreApp.Analysis.FilterRecords(records)
	fmt.Printf("%s: %d records, %d at station %s (routes %s)\n",
		fetch.FileName(day), len(records), len(filtered),
		coreApp.Analysis.StationCode, strings.Join(coreApp.Analysis.Routes, "/"))

	sample := filtered
	if len(sample) > inspectSampleSize {
		sample = sample[:inspectSampleSize]
	}
	spew.Fdump(os.Stdout, sample)
	return nil
}

// serveMetrics exposes the run's Prometheus registry for scraping while a
// long download or analysis pass is in progress.
func serveMetrics(coreApp *app.Application, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(coreApp.Metrics.Registry, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  time.Minute,
	}

	coreApp.Logger.Info("serving metrics", slog.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		coreApp.Logger.Error("metrics server failed", slog.Any("error", err))
	}
}
