package app

import (
	"log/slog"

	"headways.subwaydata.nyc/headwaydb"
	"headways.subwaydata.nyc/internal/analysis"
	"headways.subwaydata.nyc/internal/appconf"
	"headways.subwaydata.nyc/internal/clock"
	"headways.subwaydata.nyc/internal/metrics"
)

// Application holds the dependencies shared across the command layers: the
// runtime configuration, the analysis configuration, and the ambient
// services (logger, clock, metrics, result store).
type Application struct {
	Config   appconf.Config
	Analysis analysis.Config
	Logger   *slog.Logger
	Clock    clock.Clock
	Metrics  *metrics.Metrics
	Store    *headwaydb.Client
}
