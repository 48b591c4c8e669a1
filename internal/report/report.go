// Package report renders analysis results to the results directory: a
// per-headway CSV, a summary CSV, and a human-readable before/after
// comparison.
package report

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"headways.subwaydata.nyc/internal/analysis"
	"headways.subwaydata.nyc/internal/clock"
	"headways.subwaydata.nyc/internal/logging"
)

const (
	headwaysFileName = "headways.csv"
	summaryFileName  = "summary.csv"
	reportFileName   = "report.txt"
)

// Writer renders results into a directory.
type Writer struct {
	dir    string
	clk    clock.Clock
	logger *slog.Logger
}

// NewWriter creates a Writer targeting dir. The directory is created on the
// first write.
func NewWriter(dir string, clk clock.Clock, logger *slog.Logger) *Writer {
	if clk == nil {
		clk = clock.RealClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{
		dir:    dir,
		clk:    clk,
		logger: logger.With(slog.String("component", "report_writer")),
	}
}

// WriteAll renders every output file for one analysis run.
func (w *Writer) WriteAll(cfg analysis.Config, result analysis.Result) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("creating results directory: %w", err)
	}
	if err := w.writeHeadwaysCSV(result.Observations); err != nil {
		return err
	}
	if err := w.writeSummaryCSV(cfg, result.Summary); err != nil {
		return err
	}
	if err := w.writeTextReport(cfg, result); err != nil {
		return err
	}
	logging.LogOperation(w.logger, "reports_written",
		slog.String("dir", w.dir),
		slog.Int("observations", len(result.Observations)),
		slog.Int("summary_rows", len(result.Summary)))
	return nil
}

func (w *Writer) writeHeadwaysCSV(observations []analysis.Observation) error {
	return w.writeCSV(headwaysFileName, func(cw *csv.Writer) error {
		header := []string{"date", "direction", "bucket", "bucket_label", "day_type", "period", "hour", "in_change_window", "headway_min"}
		if err := cw.Write(header); err != nil {
			return err
		}
		for _, obs := range observations {
			row := []string{
				obs.Date,
				string(obs.Direction),
				strconv.Itoa(int(obs.Bucket)),
				obs.BucketLabel,
				obs.DayType,
				obs.Period,
				strconv.Itoa(obs.Hour),
				strconv.FormatBool(obs.InWindow),
				formatFloat(obs.HeadwayMin),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

func (w *Writer) writeSummaryCSV(cfg analysis.Config, summary []analysis.SummaryRow) error {
	return w.writeCSV(summaryFileName, func(cw *csv.Writer) error {
		header := []string{"day_type", "bucket", "bucket_label", "period", "direction", "storm_excluded", "n", "median_min", "p90_min"}
		for _, t := range cfg.ExceedThresholdsMin {
			header = append(header, fmt.Sprintf("pct_over_%s", trimFloat(t)))
		}
		if err := cw.Write(header); err != nil {
			return err
		}

		for _, row := range summary {
			fields := []string{
				row.DayType,
				strconv.Itoa(int(row.Bucket)),
				row.BucketLabel,
				row.Period,
				string(row.Direction),
				strconv.FormatBool(row.StormExcluded),
				strconv.Itoa(row.Count),
				formatNullFloat(row.MedianMin),
				formatNullFloat(row.P90Min),
			}
			// Empty cells for a group with no data, aligned with the header.
			rates := make(map[float64]float64, len(row.Exceedance))
			for _, ex := range row.Exceedance {
				rates[ex.ThresholdMin] = ex.Rate
			}
			for _, t := range cfg.ExceedThresholdsMin {
				if row.Count == 0 {
					fields = append(fields, "")
					continue
				}
				fields = append(fields, formatFloat(rates[t]*100))
			}
			if err := cw.Write(fields); err != nil {
				return err
			}
		}
		return nil
	})
}

func (w *Writer) writeCSV(name string, fill func(*csv.Writer) error) error {
	path := filepath.Join(w.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", name, err)
	}
	defer logging.SafeCloseWithLogging(f, w.logger, name)

	cw := csv.NewWriter(f)
	if err := fill(cw); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing %s: %w", name, err)
	}
	return nil
}

type comparisonKey struct {
	dayType   string
	bucket    analysis.TimeBucket
	direction analysis.Direction
}

func (w *Writer) writeTextReport(cfg analysis.Config, result analysis.Result) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Headway comparison: station %s, routes %s\n",
		cfg.StationCode, strings.Join(cfg.Routes, "/"))
	fmt.Fprintf(&b, "%s: %s to %s\n", analysis.PeriodBefore, cfg.PreRange.Start, cfg.PreRange.End)
	fmt.Fprintf(&b, "%s: %s to %s\n", analysis.PeriodAfter, cfg.PostRange.Start, cfg.PostRange.End)
	fmt.Fprintf(&b, "Generated: %s\n\n", w.clk.Now().In(reportLocation(cfg)).Format("2006-01-02 15:04:05 MST"))

	fmt.Fprintf(&b, "Records in: %d, kept: %d, malformed stop ids: %d\n",
		result.RecordsIn, result.RecordsKept, result.MalformedStopIDs)
	fmt.Fprintf(&b, "Headways computed: %d, dropped below floor: %d, dropped above cap: %d\n\n",
		result.HeadwaysComputed, result.DroppedBelowFloor, result.DroppedAboveCap)

	before := make(map[comparisonKey]analysis.SummaryRow)
	after := make(map[comparisonKey]analysis.SummaryRow)
	for _, row := range result.Summary {
		if row.StormExcluded {
			continue
		}
		key := comparisonKey{dayType: row.DayType, bucket: row.Bucket, direction: row.Direction}
		switch row.Period {
		case analysis.PeriodBefore:
			before[key] = row
		case analysis.PeriodAfter:
			after[key] = row
		}
	}

	for _, dayType := range []string{analysis.DayTypeWeekday, analysis.DayTypeWeekend} {
		fmt.Fprintf(&b, "== %s ==\n", dayType)
		for bi := range cfg.Buckets {
			bucket := analysis.TimeBucket(bi)
			fmt.Fprintf(&b, "%s\n", cfg.BucketLabel(bucket, dayType))
			for _, dir := range directionsOf(cfg) {
				key := comparisonKey{dayType: dayType, bucket: bucket, direction: dir}
				pre, post := before[key], after[key]
				fmt.Fprintf(&b, "  %s: median %s -> %s (%s), p90 %s -> %s, n %d -> %d\n",
					dir.String(),
					formatStat(pre.MedianMin), formatStat(post.MedianMin),
					formatChange(pre.MedianMin, post.MedianMin),
					formatStat(pre.P90Min), formatStat(post.P90Min),
					pre.Count, post.Count)
			}
		}
		b.WriteString("\n")
	}

	path := filepath.Join(w.dir, reportFileName)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", reportFileName, err)
	}
	return nil
}

func directionsOf(cfg analysis.Config) []analysis.Direction {
	seen := make(map[analysis.Direction]bool, len(cfg.DirectionLetters))
	var dirs []analysis.Direction
	for _, d := range cfg.DirectionLetters {
		if !seen[d] {
			seen[d] = true
			dirs = append(dirs, d)
		}
	}
	// Stable order regardless of map iteration.
	sort.Slice(dirs, func(i, j int) bool { return dirs[i] < dirs[j] })
	return dirs
}

// reportLocation falls back to UTC so a report can still be produced if the
// zone database is unavailable at render time.
func reportLocation(cfg analysis.Config) *time.Location {
	loc, err := cfg.Location()
	if err != nil {
		return time.UTC
	}
	return loc
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// trimFloat renders a threshold without a trailing ".0" so column names stay
// readable.
func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatNullFloat renders a nullable statistic as an empty CSV cell when the
// group had no data.
func formatNullFloat(v sql.NullFloat64) string {
	if !v.Valid {
		return ""
	}
	return formatFloat(v.Float64)
}

func formatStat(v sql.NullFloat64) string {
	if !v.Valid {
		return "N/A"
	}
	return formatFloat(v.Float64) + " min"
}

func formatChange(pre, post sql.NullFloat64) string {
	if !pre.Valid || !post.Valid {
		return "N/A"
	}
	delta := post.Float64 - pre.Float64
	return fmt.Sprintf("%+.2f min", delta)
}
