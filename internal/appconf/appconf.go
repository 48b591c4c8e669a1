// Package appconf holds the application-level configuration: environment,
// paths, and the JSON config-file loader. Analysis constants live in the
// analysis package; the config file may override them for testing or for
// pointing the analyzer at a different station.
package appconf

import "strings"

// Environment describes the runtime environment.
type Environment int

const (
	Development Environment = iota
	Test
	Production
)

// EnvFromString maps a config-file environment name onto an Environment.
// Unrecognized names default to Development.
func EnvFromString(s string) Environment {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "test":
		return Test
	case "production", "prod":
		return Production
	default:
		return Development
	}
}

// String returns the environment's config-file name.
func (e Environment) String() string {
	switch e {
	case Test:
		return "test"
	case Production:
		return "production"
	default:
		return "development"
	}
}

// Config is the application configuration, assembled from defaults, an
// optional JSON config file, and command-line flags.
type Config struct {
	Env        Environment
	Verbose    bool
	DataDir    string
	ResultsDir string

	// DBPath is the SQLite database the results are persisted to.
	// Empty disables persistence; ":memory:" is accepted for tests.
	DBPath string

	// MetricsListen is the optional address to serve Prometheus metrics on
	// while a run is in progress, e.g. ":2112". Empty disables the listener.
	MetricsListen string
}
