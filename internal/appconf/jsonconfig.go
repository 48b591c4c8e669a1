package appconf

import (
	"encoding/json"
	"fmt"
	"os"

	"headways.subwaydata.nyc/internal/analysis"
)

// JSONConfig mirrors the JSON config file. Every field is optional; unset
// fields keep their defaults. Analysis overrides exist so the study constants
// can be swapped without recompiling, e.g. to target another station.
type JSONConfig struct {
	Env           string `json:"env"`
	Verbose       bool   `json:"verbose"`
	DataDir       string `json:"data-dir"`
	ResultsDir    string `json:"results-dir"`
	DBPath        string `json:"db-path"`
	MetricsListen string `json:"metrics-listen"`

	Station             string    `json:"station"`
	Routes              []string  `json:"routes"`
	Timezone            string    `json:"timezone"`
	ChangeDate          string    `json:"change-date"`
	PreStart            string    `json:"pre-start"`
	PreEnd              string    `json:"pre-end"`
	PostStart           string    `json:"post-start"`
	PostEnd             string    `json:"post-end"`
	StormDate           string    `json:"storm-date"`
	ExceedThresholdsMin []float64 `json:"exceed-thresholds-min"`
}

// LoadFromFile reads and parses a JSON config file.
func LoadFromFile(path string) (*JSONConfig, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg JSONConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse JSON config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// validate performs the checks that can be done without assembling the full
// analysis configuration. Cross-field analysis checks happen later in
// analysis.Config.Validate.
func (jc *JSONConfig) validate() error {
	if jc.Env != "" {
		switch jc.Env {
		case "development", "test", "production", "prod":
		default:
			return fmt.Errorf("unknown env %q", jc.Env)
		}
	}
	if jc.Station != "" && len(jc.Station) < 2 {
		return fmt.Errorf("station code %q too short", jc.Station)
	}
	return nil
}

// ToAppConfig converts the file values into an application Config.
func (jc *JSONConfig) ToAppConfig() Config {
	return Config{
		Env:           EnvFromString(jc.Env),
		Verbose:       jc.Verbose,
		DataDir:       jc.DataDir,
		ResultsDir:    jc.ResultsDir,
		DBPath:        jc.DBPath,
		MetricsListen: jc.MetricsListen,
	}
}

// ApplyToAnalysis overlays the file's analysis overrides onto base and
// returns the result. The caller is expected to Validate the merged
// configuration before running anything.
func (jc *JSONConfig) ApplyToAnalysis(base analysis.Config) analysis.Config {
	if jc.Station != "" {
		base.StationCode = jc.Station
	}
	if len(jc.Routes) > 0 {
		base.Routes = jc.Routes
	}
	if jc.Timezone != "" {
		base.Timezone = jc.Timezone
	}
	if jc.ChangeDate != "" {
		base.ChangeDate = jc.ChangeDate
	}
	if jc.PreStart != "" {
		base.PreRange.Start = jc.PreStart
	}
	if jc.PreEnd != "" {
		base.PreRange.End = jc.PreEnd
	}
	if jc.PostStart != "" {
		base.PostRange.Start = jc.PostStart
	}
	if jc.PostEnd != "" {
		base.PostRange.End = jc.PostEnd
	}
	if jc.StormDate != "" {
		base.StormDate = jc.StormDate
	}
	if len(jc.ExceedThresholdsMin) > 0 {
		base.ExceedThresholdsMin = jc.ExceedThresholdsMin
	}
	return base
}
