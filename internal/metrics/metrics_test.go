package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"headways.subwaydata.nyc/internal/analysis"
)

func TestNewRegistersAllMetrics(t *testing.T) {
	m := New()
	require.NotNil(t, m.Registry)

	// Counter vecs have no series until first use; touch one label each.
	m.HeadwaysDropped.WithLabelValues(ReasonBelowFloor)
	m.ArchiveDownloads.WithLabelValues(DownloadOK)

	families, err := m.Registry.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, expected := range []string{
		"headways_archives_loaded_total",
		"headways_archive_failures_total",
		"headways_records_ingested_total",
		"headways_malformed_stop_ids_total",
		"headways_computed_total",
		"headways_dropped_total",
		"headways_archive_downloads_total",
	} {
		assert.True(t, names[expected], "missing metric %s", expected)
	}
}

func TestTwoInstancesDoNotCollide(t *testing.T) {
	m1 := New()
	m2 := New()

	m1.ArchivesLoaded.Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(m1.ArchivesLoaded))
	assert.Equal(t, 0.0, testutil.ToFloat64(m2.ArchivesLoaded))
}

func TestRecordPipeline(t *testing.T) {
	m := New()

	m.RecordPipeline(analysis.Result{
		RecordsIn:         100,
		MalformedStopIDs:  2,
		HeadwaysComputed:  50,
		DroppedBelowFloor: 3,
		DroppedAboveCap:   1,
	})

	assert.Equal(t, 100.0, testutil.ToFloat64(m.RecordsIngested))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.MalformedStopIDs))
	assert.Equal(t, 50.0, testutil.ToFloat64(m.HeadwaysComputed))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.HeadwaysDropped.WithLabelValues(ReasonBelowFloor)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HeadwaysDropped.WithLabelValues(ReasonAboveCap)))
}
