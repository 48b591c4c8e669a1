package appconf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"headways.subwaydata.nyc/internal/analysis"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFromFile(t *testing.T) {
	t.Run("loads valid config file", func(t *testing.T) {
		path := writeConfigFile(t, `{
  "env": "production",
  "verbose": true,
  "data-dir": "/data/archives",
  "results-dir": "/data/results",
  "db-path": "/data/headways.db",
  "metrics-listen": ":2112"
}`)

		jsonConfig, err := LoadFromFile(path)
		require.NoError(t, err)
		require.NotNil(t, jsonConfig)

		cfg := jsonConfig.ToAppConfig()
		assert.Equal(t, Production, cfg.Env)
		assert.True(t, cfg.Verbose)
		assert.Equal(t, "/data/archives", cfg.DataDir)
		assert.Equal(t, "/data/results", cfg.ResultsDir)
		assert.Equal(t, "/data/headways.db", cfg.DBPath)
		assert.Equal(t, ":2112", cfg.MetricsListen)
	})

	t.Run("fails on malformed JSON", func(t *testing.T) {
		path := writeConfigFile(t, `{"env": "test",`)

		jsonConfig, err := LoadFromFile(path)
		assert.Error(t, err)
		assert.Nil(t, jsonConfig)
		assert.Contains(t, err.Error(), "failed to parse JSON config")
	})

	t.Run("fails on unknown env", func(t *testing.T) {
		path := writeConfigFile(t, `{"env": "staging"}`)

		jsonConfig, err := LoadFromFile(path)
		assert.Error(t, err)
		assert.Nil(t, jsonConfig)
		assert.Contains(t, err.Error(), "invalid configuration")
	})

	t.Run("fails on nonexistent file", func(t *testing.T) {
		jsonConfig, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.json"))
		assert.Error(t, err)
		assert.Nil(t, jsonConfig)
		assert.Contains(t, err.Error(), "failed to stat config file")
	})

	t.Run("fails on too-short station code", func(t *testing.T) {
		path := writeConfigFile(t, `{"station": "B"}`)

		_, err := LoadFromFile(path)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid configuration")
	})
}

func TestApplyToAnalysis(t *testing.T) {
	base := analysis.DefaultConfig()

	t.Run("empty file keeps defaults", func(t *testing.T) {
		jc := &JSONConfig{}
		merged := jc.ApplyToAnalysis(base)
		assert.Equal(t, base, merged)
	})

	t.Run("overrides replace defaults", func(t *testing.T) {
		jc := &JSONConfig{
			Station:             "R23",
			Routes:              []string{"N", "W"},
			ChangeDate:          "2026-03-01",
			PreStart:            "2026-01-01",
			PreEnd:              "2026-02-28",
			PostStart:           "2026-03-01",
			PostEnd:             "2026-04-30",
			StormDate:           "2026-04-01",
			ExceedThresholdsMin: []float64{6, 12},
		}
		merged := jc.ApplyToAnalysis(base)

		assert.Equal(t, "R23", merged.StationCode)
		assert.Equal(t, []string{"N", "W"}, merged.Routes)
		assert.Equal(t, "2026-03-01", merged.ChangeDate)
		assert.Equal(t, analysis.DateRange{Start: "2026-01-01", End: "2026-02-28"}, merged.PreRange)
		assert.Equal(t, analysis.DateRange{Start: "2026-03-01", End: "2026-04-30"}, merged.PostRange)
		assert.Equal(t, "2026-04-01", merged.StormDate)
		assert.Equal(t, []float64{6, 12}, merged.ExceedThresholdsMin)

		// Untouched fields keep their defaults.
		assert.Equal(t, base.Buckets, merged.Buckets)
		assert.Equal(t, base.Timezone, merged.Timezone)

		// The merged result is still a consistent configuration.
		assert.NoError(t, merged.Validate())
	})
}

func TestEnvFromString(t *testing.T) {
	tests := []struct {
		input    string
		expected Environment
	}{
		{input: "test", expected: Test},
		{input: "production", expected: Production},
		{input: "prod", expected: Production},
		{input: " Production ", expected: Production},
		{input: "development", expected: Development},
		{input: "", expected: Development},
		{input: "whatever", expected: Development},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, EnvFromString(tt.input), "input %q", tt.input)
	}
}

func TestEnvironmentString(t *testing.T) {
	assert.Equal(t, "development", Development.String())
	assert.Equal(t, "test", Test.String())
	assert.Equal(t, "production", Production.String())
}
