// Command headways analyzes train arrival headways at one subway station
// before and after a service change, from the daily subwaydata.nyc CSV
// archives. It writes per-headway and summary CSVs plus a readable
// before/after comparison, and can optionally persist results to SQLite.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"headways.subwaydata.nyc/internal/analysis"
	"headways.subwaydata.nyc/internal/appconf"
	"headways.subwaydata.nyc/internal/logging"
)

func main() {
	var (
		configPath    string
		dataDir       string
		resultsDir    string
		dbPath        string
		metricsListen string
		inspectDate   string
		baseURL       string
		download      bool
		verbose       bool
	)
	flag.StringVar(&configPath, "config", "", "Path to JSON config file")
	flag.StringVar(&dataDir, "data-dir", "data", "Directory holding the daily archives")
	flag.StringVar(&resultsDir, "results-dir", "results", "Directory reports are written to")
	flag.StringVar(&dbPath, "db", "", "SQLite database path for results (empty disables persistence)")
	flag.StringVar(&metricsListen, "metrics-listen", "", "Address to serve Prometheus metrics on during the run (empty disables)")
	flag.StringVar(&inspectDate, "inspect", "", "Dump a sample of one day's records (YYYY-MM-DD) and exit")
	flag.StringVar(&baseURL, "base-url", "", "Archive host override for -download")
	flag.BoolVar(&download, "download", false, "Download missing archives before analyzing")
	flag.BoolVar(&verbose, "verbose", false, "Enable debug logging")
	flag.Parse()

	cfg := appconf.Config{
		Env:           appconf.Development,
		DataDir:       dataDir,
		ResultsDir:    resultsDir,
		DBPath:        dbPath,
		MetricsListen: metricsListen,
		Verbose:       verbose,
	}
	analysisCfg := analysis.DefaultConfig()

	if configPath != "" {
		jsonCfg, err := appconf.LoadFromFile(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error loading config: %v\n", err)
			os.Exit(1)
		}
		cfg = mergeConfig(jsonCfg.ToAppConfig(), cfg, setFlags())
		analysisCfg = jsonCfg.ApplyToAnalysis(analysisCfg)
	}

	coreApp, err := BuildApplication(cfg, analysisCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if coreApp.Store != nil {
			logging.SafeCloseWithLogging(coreApp.Store, coreApp.Logger, "results_database")
		}
	}()

	if inspectDate != "" {
		if err := runInspect(coreApp, inspectDate); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if coreApp.Config.MetricsListen != "" {
		go serveMetrics(coreApp, coreApp.Config.MetricsListen)
	}

	if download {
		if err := runDownload(ctx, coreApp, baseURL); err != nil {
			fmt.Fprintf(os.Stderr, "error downloading archives: %v\n", err)
			os.Exit(1)
		}
	}

	if err := Run(ctx, coreApp); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// setFlags reports which flags were given explicitly on the command line.
func setFlags() map[string]bool {
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

// mergeConfig overlays explicit command-line flags onto the config-file
// values; flags left at their defaults defer to the file.
func mergeConfig(fromFile, fromFlags appconf.Config, set map[string]bool) appconf.Config {
	merged := fromFile
	if set["data-dir"] || merged.DataDir == "" {
		merged.DataDir = fromFlags.DataDir
	}
	if set["results-dir"] || merged.ResultsDir == "" {
		merged.ResultsDir = fromFlags.ResultsDir
	}
	if set["db"] {
		merged.DBPath = fromFlags.DBPath
	}
	if set["metrics-listen"] {
		merged.MetricsListen = fromFlags.MetricsListen
	}
	if set["verbose"] {
		merged.Verbose = fromFlags.Verbose
	}
	return merged
}
