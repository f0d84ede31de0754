package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tmcpro/docusign-exporter/internal/config"
	"github.com/tmcpro/docusign-exporter/internal/dsapi"
	"github.com/tmcpro/docusign-exporter/internal/event"
	"github.com/tmcpro/docusign-exporter/internal/export"
	"github.com/tmcpro/docusign-exporter/internal/logger"
	"github.com/tmcpro/docusign-exporter/internal/manifest"
	"github.com/tmcpro/docusign-exporter/internal/presenter"
	"go.uber.org/zap"
)

const version = "1.0.0"

const dateLayout = "2006-01-02"

func main() {
	os.Exit(run())
}

func run() int {
	fromArg := flag.String("from", "", "start of the date range (YYYY-MM-DD, required)")
	toArg := flag.String("to", "", "end of the date range (YYYY-MM-DD, defaults to today)")
	outDir := flag.String("out", "", "output directory (defaults to ./exports)")
	mode := flag.String("mode", "", "output mode: combined or individual")
	parallel := flag.Int("parallel", 0, "max concurrent downloads (capped at 5)")
	manifestPath := flag.String("manifest", "", "optional path to a SQLite run manifest")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	logFormat := flag.String("log-format", "console", "log format: console or json")
	flag.Parse()

	from, to, err := parseDateRange(*fromArg, *toArg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid date range: %v\n", err)
		return 1
	}

	cfg, err := config.Load(config.Options{
		OutputDir:   *outDir,
		OutputMode:  *mode,
		MaxParallel: *parallel,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return 1
	}

	log, err := logger.New(*logLevel, *logFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		return 1
	}
	defer log.Sync()

	log.Info("starting docusign-exporter",
		zap.String("version", version),
		zap.String("environment", cfg.Environment),
		zap.String("output_dir", cfg.OutputDir))

	// The session assumes the output directory exists.
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		log.Error("failed to create output directory", zap.Error(err))
		return 1
	}

	bus := event.NewBus()
	client := dsapi.NewClient(cfg, bus, log)
	session := export.NewSession(cfg, client, bus, log)

	pres := presenter.New(log)
	go pres.Run(session.Events())

	// First signal cancels cooperatively; in-flight downloads finish.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		session.Cancel()
	}()

	ctx := context.Background()
	startedAt := time.Now()

	if _, err := session.Discover(ctx, from, to); err != nil {
		session.Close()
		<-pres.Done()
		if dsapi.IsAuthExpired(err) {
			return 1
		}
		log.Error("discovery failed", zap.Error(err))
		return 1
	}

	outcomes := session.DownloadAll(ctx)
	session.Close()
	<-pres.Done()

	if *manifestPath != "" {
		store, err := manifest.Open(*manifestPath)
		if err != nil {
			log.Error("failed to open manifest", zap.Error(err))
		} else {
			runID, err := store.RecordRun(startedAt, from, to, len(session.Envelopes()), outcomes)
			if err != nil {
				log.Error("failed to record manifest", zap.Error(err))
			} else {
				log.Info("manifest recorded", zap.String("run_id", runID))
			}
			store.Close()
		}
	}

	pres.Summarize(outcomes)

	// Partial download failures do not fail the process; an expired
	// token does.
	if pres.TokenExpired() {
		return 1
	}
	return 0
}

// parseDateRange validates the CLI date bounds before the session is
// built; from must not be after to.
func parseDateRange(fromArg, toArg string) (time.Time, time.Time, error) {
	if fromArg == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("-from is required")
	}
	from, err := time.Parse(dateLayout, fromArg)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("-from: %w", err)
	}

	to := time.Now().UTC().Truncate(24 * time.Hour).Add(24*time.Hour - time.Second)
	if toArg != "" {
		to, err = time.Parse(dateLayout, toArg)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("-to: %w", err)
		}
		// Inclusive upper bound: extend to end of day.
		to = to.Add(24*time.Hour - time.Second)
	}

	if from.After(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("-from %s is after -to %s", fromArg, toArg)
	}
	return from, to, nil
}
