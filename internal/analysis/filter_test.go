package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFilterRecords(t *testing.T) {
	cfg := DefaultConfig()
	at := time.Date(2025, 10, 1, 8, 0, 0, 0, time.UTC)

	records := []ArrivalRecord{
		{StopID: "B06N", RouteID: "F", Time: at},
		{StopID: "B06S", RouteID: "M", Time: at},
		{StopID: "B06N", RouteID: "Q", Time: at},  // wrong route
		{StopID: "D15S", RouteID: "F", Time: at},  // wrong station
		{StopID: "B06NN", RouteID: "F", Time: at}, // station prefix but longer code
		{StopID: "B", RouteID: "F", Time: at},     // too short to carry a suffix
	}

	kept := cfg.FilterRecords(records)

	assert.Len(t, kept, 2)
	assert.Equal(t, "B06N", kept[0].StopID)
	assert.Equal(t, "B06S", kept[1].StopID)
}

func TestFilterRecordsEmptyInput(t *testing.T) {
	cfg := DefaultConfig()
	assert.Empty(t, cfg.FilterRecords(nil))
}

func TestFilterRecordsPreservesOrder(t *testing.T) {
	cfg := DefaultConfig()
	base := time.Date(2025, 10, 1, 8, 0, 0, 0, time.UTC)

	var records []ArrivalRecord
	for i := 0; i < 5; i++ {
		records = append(records, ArrivalRecord{
			StopID:  "B06N",
			RouteID: "F",
			Time:    base.Add(time.Duration(i) * time.Minute),
		})
	}

	kept := cfg.FilterRecords(records)
	for i := 1; i < len(kept); i++ {
		assert.True(t, kept[i-1].Time.Before(kept[i].Time))
	}
}
