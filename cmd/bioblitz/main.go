// Command bioblitz runs region-of-interest detection over every rendered
// spectrogram of a configured target.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ironsheep/spectro-roi/internal/batch"
	"github.com/ironsheep/spectro-roi/internal/config"
	"github.com/ironsheep/spectro-roi/internal/logger"
	"github.com/ironsheep/spectro-roi/internal/metrics"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("bioblitz %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		}
	}

	configPath := flag.String("config", "config.yaml", "Path to the YAML configuration")
	target := flag.String("target", "", "Target to process (required)")
	taxon := flag.String("taxon", config.DefaultTaxon, "Taxon parameter set within the target")
	dir := flag.String("dir", "", "Directory to scan (default: the target's processed_dir)")
	pattern := flag.String("pattern", batch.DefaultPattern, "Substring that marks spectrogram PNGs")
	workers := flag.Int("workers", 0, "Worker goroutines (default: number of CPUs)")
	reportPath := flag.String("report", "", "Write one JSON line per file to this path")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error, silent")
	metricsAddr := flag.String("metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")
	initConfig := flag.String("init-config", "", "Write an example configuration to this path and exit")
	flag.Parse()

	level, err := logger.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bioblitz: %v\n", err)
		os.Exit(2)
	}
	logger.Init(level, os.Stderr, false)

	if *initConfig != "" {
		if err := config.Save(config.Example(), *initConfig); err != nil {
			logger.Error("main", "%v", err)
			os.Exit(1)
		}
		logger.Info("main", "wrote example configuration to %s", *initConfig)
		return
	}

	if *target == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*configPath, *target, *taxon, *dir, *pattern, *workers, *reportPath, *metricsAddr); err != nil {
		logger.Error("main", "%v", err)
		os.Exit(1)
	}
}

func run(configPath, target, taxon, dir, pattern string, workers int, reportPath, metricsAddr string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	det, err := cfg.Detector(target, taxon)
	if err != nil {
		return err
	}
	xf, err := cfg.Transform(target)
	if err != nil {
		return err
	}
	if dir == "" {
		dir = cfg.Targets[target].ProcessedDir
	}
	if dir == "" {
		return fmt.Errorf("target %q has no processed_dir; pass -dir", target)
	}

	files, err := batch.Discover(dir, pattern)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		logger.Warn("main", "No PNG files processed")
		return nil
	}

	m := metrics.New()
	if metricsAddr != "" {
		go func() {
			logger.Info("main", "serving metrics on %s/metrics", metricsAddr)
			if err := m.StartServer(metricsAddr); err != nil {
				logger.Error("main", "metrics server: %v", err)
			}
		}()
	}

	opts := []batch.RunnerOption{batch.WithWorkers(workers), batch.WithMetrics(m)}
	if reportPath != "" {
		f, err := os.Create(reportPath)
		if err != nil {
			return fmt.Errorf("failed to create report: %w", err)
		}
		defer f.Close()
		report := batch.NewReportWriter(f, target, taxon)
		opts = append(opts, batch.WithResultHook(func(res batch.FileResult) {
			if err := report.Write(res); err != nil {
				logger.Warn("main", "%v", err)
			}
		}))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := batch.NewRunner(det, xf, opts...)
	logger.Info("main", "target %s taxon %s: %d files, %d workers", target, taxon, len(files), runner.Workers())

	start := time.Now()
	results, runErr := runner.Run(ctx, files)
	minutes := time.Since(start).Minutes()

	logger.Info("main", "Processed %d PNG files in %0.2f minutes", len(results), minutes)
	logger.Info("main", "%v", batch.Summarize(results))
	return runErr
}
