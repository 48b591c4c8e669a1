package headwaydb

import (
	"context"
	"fmt"
	"log/slog"

	"headways.subwaydata.nyc/internal/analysis"
	"headways.subwaydata.nyc/internal/logging"
)

// ReplaceObservations replaces the stored headway observations with a fresh
// run's output in a single transaction, so readers never see a half-written
// run.
func (c *Client) ReplaceObservations(ctx context.Context, logger *slog.Logger, observations []analysis.Observation) error {
	tx, err := c.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer logging.SafeRollbackWithLogging(tx, logger, "replace_observations")

	if _, err := tx.ExecContext(ctx, "DELETE FROM headways"); err != nil {
		return fmt.Errorf("clearing headways: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO headways (arrival_date, direction, bucket, bucket_label, day_type, period, hour, in_change_window, headway_min)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer logging.SafeCloseWithLogging(stmt, logger, "insert_headways_stmt")

	for _, obs := range observations {
		if _, err := stmt.ExecContext(ctx,
			obs.Date, string(obs.Direction), int(obs.Bucket), obs.BucketLabel,
			obs.DayType, obs.Period, obs.Hour, obs.InWindow, obs.HeadwayMin); err != nil {
			return fmt.Errorf("inserting observation for %s: %w", obs.Date, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing observations: %w", err)
	}
	return nil
}

// LoadObservations returns every stored observation in insertion order.
func (c *Client) LoadObservations(ctx context.Context) ([]analysis.Observation, error) {
	rows, err := c.DB.QueryContext(ctx, `
		SELECT arrival_date, direction, bucket, bucket_label, day_type, period, hour, in_change_window, headway_min
		FROM headways ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying headways: %w", err)
	}
	defer logging.SafeCloseWithLogging(rows, nil, "headways_rows")

	var observations []analysis.Observation
	for rows.Next() {
		var (
			obs       analysis.Observation
			direction string
			bucket    int
		)
		if err := rows.Scan(&obs.Date, &direction, &bucket, &obs.BucketLabel,
			&obs.DayType, &obs.Period, &obs.Hour, &obs.InWindow, &obs.HeadwayMin); err != nil {
			return nil, fmt.Errorf("scanning observation: %w", err)
		}
		obs.Direction = analysis.Direction(direction)
		obs.Bucket = analysis.TimeBucket(bucket)
		observations = append(observations, obs)
	}
	return observations, rows.Err()
}

// CountObservations returns the number of stored observations.
func (c *Client) CountObservations(ctx context.Context) (int, error) {
	var n int
	err := c.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM headways").Scan(&n)
	return n, err
}

// ReplaceSummary replaces the stored summary rows and their exceedance rates
// in a single transaction.
func (c *Client) ReplaceSummary(ctx context.Context, logger *slog.Logger, rows []analysis.SummaryRow) error {
	tx, err := c.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer logging.SafeRollbackWithLogging(tx, logger, "replace_summary")

	// summary_exceedance rows go with them via ON DELETE CASCADE.
	if _, err := tx.ExecContext(ctx, "DELETE FROM summary_rows"); err != nil {
		return fmt.Errorf("clearing summary rows: %w", err)
	}

	rowStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO summary_rows (day_type, bucket, bucket_label, period, direction, storm_excluded, n, median_min, p90_min)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing summary insert: %w", err)
	}
	defer logging.SafeCloseWithLogging(rowStmt, logger, "insert_summary_stmt")

	exceedStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO summary_exceedance (summary_id, threshold_min, rate)
		VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing exceedance insert: %w", err)
	}
	defer logging.SafeCloseWithLogging(exceedStmt, logger, "insert_exceedance_stmt")

	for _, row := range rows {
		res, err := rowStmt.ExecContext(ctx,
			row.DayType, int(row.Bucket), row.BucketLabel, row.Period,
			string(row.Direction), row.StormExcluded, row.Count, row.MedianMin, row.P90Min)
		if err != nil {
			return fmt.Errorf("inserting summary row: %w", err)
		}
		summaryID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("reading summary row id: %w", err)
		}
		for _, ex := range row.Exceedance {
			if _, err := exceedStmt.ExecContext(ctx, summaryID, ex.ThresholdMin, ex.Rate); err != nil {
				return fmt.Errorf("inserting exceedance rate: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing summary: %w", err)
	}
	return nil
}

// LoadSummary returns every stored summary row with its exceedance rates, in
// insertion order.
func (c *Client) LoadSummary(ctx context.Context) ([]analysis.SummaryRow, error) {
	rows, err := c.DB.QueryContext(ctx, `
		SELECT id, day_type, bucket, bucket_label, period, direction, storm_excluded, n, median_min, p90_min
		FROM summary_rows ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying summary rows: %w", err)
	}
	defer logging.SafeCloseWithLogging(rows, nil, "summary_rows")

	var (
		summary []analysis.SummaryRow
		ids     []int64
	)
	for rows.Next() {
		var (
			id        int64
			row       analysis.SummaryRow
			bucket    int
			direction string
		)
		if err := rows.Scan(&id, &row.DayType, &bucket, &row.BucketLabel, &row.Period,
			&direction, &row.StormExcluded, &row.Count, &row.MedianMin, &row.P90Min); err != nil {
			return nil, fmt.Errorf("scanning summary row: %w", err)
		}
		row.Bucket = analysis.TimeBucket(bucket)
		row.Direction = analysis.Direction(direction)
		summary = append(summary, row)
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, id := range ids {
		exceedance, err := c.loadExceedance(ctx, id)
		if err != nil {
			return nil, err
		}
		summary[i].Exceedance = exceedance
	}
	return summary, nil
}

func (c *Client) loadExceedance(ctx context.Context, summaryID int64) ([]analysis.ExceedanceRate, error) {
	rows, err := c.DB.QueryContext(ctx, `
		SELECT threshold_min, rate FROM summary_exceedance
		WHERE summary_id = ? ORDER BY threshold_min`, summaryID)
	if err != nil {
		return nil, fmt.Errorf("querying exceedance rates: %w", err)
	}
	defer logging.SafeCloseWithLogging(rows, nil, "exceedance_rows")

	var rates []analysis.ExceedanceRate
	for rows.Next() {
		var ex analysis.ExceedanceRate
		if err := rows.Scan(&ex.ThresholdMin, &ex.Rate); err != nil {
			return nil, fmt.Errorf("scanning exceedance rate: %w", err)
		}
		rates = append(rates, ex)
	}
	return rates, rows.Err()
}
