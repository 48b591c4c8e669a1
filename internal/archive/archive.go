// Package archive reads the daily subwaydata.nyc CSV archives and turns them
// into arrival records. Each archive holds one service day as a compressed
// tarball containing stop_times.csv (observed stop events keyed by trip_uid)
// and trips.csv (trip_uid to route_id). The loader joins the two and emits
// one ArrivalRecord per stop event, using arrival_time and falling back to
// departure_time when a train was only observed departing.
package archive

import (
	"archive/tar"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"

	"headways.subwaydata.nyc/internal/analysis"
	"headways.subwaydata.nyc/internal/logging"
)

// ErrNoArchives is returned by LoadDir when the data directory holds no
// recognizable daily archives.
var ErrNoArchives = errors.New("no daily archives found")

var supportedSuffixes = []string{".tar.xz", ".tar.gz", ".tgz", ".tar.zst"}

// Stats summarizes one LoadDir pass.
type Stats struct {
	ArchivesLoaded int
	ArchivesFailed int
	Records        int
}

// Loader reads daily archives into arrival records.
type Loader struct {
	loc    *time.Location
	logger *slog.Logger

	// keepStop, when non-nil, prefilters stop events while parsing so a
	// whole-system archive does not have to be materialized to analyze a
	// single station. Exact station/route filtering still happens in the
	// analysis pipeline.
	keepStop func(stopID string) bool
}

// NewLoader creates a Loader. loc is the timezone timestamps are converted
// into; keepStop may be nil to keep every stop event.
func NewLoader(loc *time.Location, logger *slog.Logger, keepStop func(stopID string) bool) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		loc:      loc,
		logger:   logger.With(slog.String("component", "archive_loader")),
		keepStop: keepStop,
	}
}

// ArchiveDate extracts the service date from an archive file name of the
// form subwaydatanyc_YYYY-MM-DD_csv.tar.xz.
func ArchiveDate(name string) (time.Time, error) {
	base := filepath.Base(name)
	parts := strings.Split(base, "_")
	if len(parts) < 3 {
		return time.Time{}, fmt.Errorf("archive name %q does not contain a date", base)
	}
	d, err := time.Parse("2006-01-02", parts[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("archive name %q does not contain a date: %w", base, err)
	}
	return d, nil
}

func isSupportedArchive(name string) bool {
	for _, suffix := range supportedSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// LoadDir loads every daily archive in dir, in date order, and merges them
// into one logical record stream. A file that fails to parse is logged and
// counted, not fatal; an empty directory is an error.
func (l *Loader) LoadDir(dir string) ([]analysis.ArrivalRecord, Stats, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("reading data directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !isSupportedArchive(entry.Name()) {
			continue
		}
		if _, err := ArchiveDate(entry.Name()); err != nil {
			l.logger.Warn("skipping archive with unparseable name", slog.String("file", entry.Name()))
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	if len(paths) == 0 {
		return nil, Stats{}, fmt.Errorf("%w in %s", ErrNoArchives, dir)
	}
	sort.Strings(paths)

	var (
		records []analysis.ArrivalRecord
		stats   Stats
	)
	for _, path := range paths {
		dayRecords, err := l.LoadFile(path)
		if err != nil {
			stats.ArchivesFailed++
			logging.LogError(l.logger, "failed to load archive", err, slog.String("file", filepath.Base(path)))
			continue
		}
		stats.ArchivesLoaded++
		stats.Records += len(dayRecords)
		records = append(records, dayRecords...)
		l.logger.Debug("loaded archive",
			slog.String("file", filepath.Base(path)),
			slog.Int("records", len(dayRecords)))
	}

	logging.LogOperation(l.logger, "archives_loaded",
		slog.Int("loaded", stats.ArchivesLoaded),
		slog.Int("failed", stats.ArchivesFailed),
		slog.Int("records", stats.Records))

	return records, stats, nil
}

// LoadFile loads one daily archive. Zero matching records is not an error;
// a missing stop_times.csv or trips.csv member is.
func (l *Loader) LoadFile(path string) ([]analysis.ArrivalRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer logging.SafeCloseWithLogging(f, l.logger, path)

	decompressed, err := newDecompressedReader(path, f)
	if err != nil {
		return nil, fmt.Errorf("decompressing %s: %w", filepath.Base(path), err)
	}
	defer logging.SafeCloseWithLogging(decompressed, l.logger, "decompressor")

	var (
		stopEvents []stopEvent
		routes     map[string]string
		sawStops   bool
	)

	tr := tar.NewReader(decompressed)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading tar: %w", err)
		}
		switch {
		case strings.HasSuffix(hdr.Name, "stop_times.csv"):
			stopEvents, err = l.parseStopTimes(tr)
			if err != nil {
				return nil, fmt.Errorf("parsing stop_times.csv: %w", err)
			}
			sawStops = true
		case strings.HasSuffix(hdr.Name, "trips.csv"):
			routes, err = parseTrips(tr)
			if err != nil {
				return nil, fmt.Errorf("parsing trips.csv: %w", err)
			}
		}
	}

	if !sawStops || routes == nil {
		return nil, fmt.Errorf("archive %s is missing stop_times.csv or trips.csv", filepath.Base(path))
	}

	records := make([]analysis.ArrivalRecord, 0, len(stopEvents))
	for _, ev := range stopEvents {
		records = append(records, analysis.ArrivalRecord{
			StopID:  ev.stopID,
			RouteID: routes[ev.tripUID],
			Time:    time.Unix(ev.unixSec, 0).In(l.loc),
		})
	}
	return records, nil
}

type stopEvent struct {
	tripUID string
	stopID  string
	unixSec int64
}

// parseStopTimes streams stop_times.csv, keeping the trip reference, stop id
// and the event timestamp: arrival_time when present, departure_time
// otherwise. Rows with neither are dropped.
func (l *Loader) parseStopTimes(r io.Reader) ([]stopEvent, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	cols, err := columnIndex(header, "trip_uid", "stop_id", "arrival_time", "departure_time")
	if err != nil {
		return nil, err
	}

	var events []stopEvent
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		stopID := field(row, cols["stop_id"])
		if l.keepStop != nil && !l.keepStop(stopID) {
			continue
		}

		sec, ok := parseUnixSeconds(field(row, cols["arrival_time"]))
		if !ok {
			sec, ok = parseUnixSeconds(field(row, cols["departure_time"]))
		}
		if !ok {
			continue
		}

		events = append(events, stopEvent{
			tripUID: field(row, cols["trip_uid"]),
			stopID:  stopID,
			unixSec: sec,
		})
	}
	return events, nil
}

// parseTrips builds the trip_uid to route_id map. The direction_id column is
// intentionally never read; direction comes from the stop id suffix in the
// analysis package.
func parseTrips(r io.Reader) (map[string]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	cols, err := columnIndex(header, "trip_uid", "route_id")
	if err != nil {
		return nil, err
	}

	routes := make(map[string]string)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		routes[field(row, cols["trip_uid"])] = field(row, cols["route_id"])
	}
	return routes, nil
}

func columnIndex(header []string, names ...string) (map[string]int, error) {
	index := make(map[string]int, len(names))
	for i, col := range header {
		index[strings.TrimSpace(col)] = i
	}
	for _, name := range names {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}
	return index, nil
}

func field(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// parseUnixSeconds parses a unix-seconds value which the feed sometimes
// serializes with a decimal point.
func parseUnixSeconds(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return int64(v), true
}

// newDecompressedReader picks the decompressor from the file name. The
// published archives are .tar.xz; gzip and zstd are accepted for locally
// recompressed data.
func newDecompressedReader(path string, f io.Reader) (io.ReadCloser, error) {
	switch {
	case strings.HasSuffix(path, ".tar.xz"):
		r, err := xz.NewReader(f)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(r), nil
	case strings.HasSuffix(path, ".tar.gz"), strings.HasSuffix(path, ".tgz"):
		return gzip.NewReader(f)
	case strings.HasSuffix(path, ".tar.zst"):
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, err
		}
		return dec.IOReadCloser(), nil
	default:
		return nil, fmt.Errorf("unsupported archive format: %s", filepath.Base(path))
	}
}
