package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"schedule-importer/config"
	"schedule-importer/formatter"
	"schedule-importer/importer"
	"schedule-importer/logger"
	"schedule-importer/metrics"
	"schedule-importer/store"
)

type convertFlags struct {
	inputDir    string
	pattern     string
	format      string
	outputDir   string
	store       bool
	storePath   string
	metricsAddr string
	pushURL     string
	wait        bool
}

var convertOpts convertFlags

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert every matching CSV file into per-level schedules",
	RunE:  runConvert,
}

func init() {
	f := convertCmd.Flags()
	f.StringVar(&convertOpts.inputDir, "input-dir", "", "directory holding the CSV files")
	f.StringVar(&convertOpts.pattern, "pattern", "", "glob pattern selecting CSV files")
	f.StringVar(&convertOpts.format, "format", "", "output format: "+fmt.Sprint(formatter.Names()))
	f.StringVar(&convertOpts.outputDir, "output-dir", "", "write one file per schedule here instead of stdout")
	f.BoolVar(&convertOpts.store, "store", false, "persist converted schedules to SQLite")
	f.StringVar(&convertOpts.storePath, "store-path", "", "SQLite database path")
	f.StringVar(&convertOpts.metricsAddr, "metrics-addr", "", "address to expose Prometheus metrics (e.g. :9090)")
	f.StringVar(&convertOpts.pushURL, "push-url", "", "Pushgateway URL to push metrics to")
	f.BoolVar(&convertOpts.wait, "wait", false, "keep the metrics endpoint up after the run until interrupted")
	rootCmd.AddCommand(convertCmd)
}

// applyFlags overrides configuration values with flags the user set.
func applyFlags(cmd *cobra.Command, c *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("input-dir") {
		c.Input.Dir = convertOpts.inputDir
	}
	if flags.Changed("pattern") {
		c.Input.Pattern = convertOpts.pattern
	}
	if flags.Changed("format") {
		c.Output.Format = convertOpts.format
	}
	if flags.Changed("output-dir") {
		c.Output.Dir = convertOpts.outputDir
	}
	if flags.Changed("store") {
		c.Store.Enabled = convertOpts.store
	}
	if flags.Changed("store-path") {
		c.Store.Path = convertOpts.storePath
	}
	if flags.Changed("metrics-addr") {
		c.Metrics.Addr = convertOpts.metricsAddr
	}
	if flags.Changed("push-url") {
		c.Metrics.PushURL = convertOpts.pushURL
	}
	return c.Validate()
}

func runConvert(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := applyFlags(cmd, cfg); err != nil {
		return err
	}

	runID := uuid.NewString()
	logger.SetRunID(runID)
	logg := logger.New("convert")

	if cfg.Metrics.Addr != "" {
		srv := metrics.NewServer(cfg.Metrics.Addr)
		go func() {
			logg.Infof("metrics server listening on %s/metrics", cfg.Metrics.Addr)
			if err := metrics.Serve(ctx, srv); err != nil {
				logg.Errorf("metrics server: %v", err)
			}
		}()
	}

	files, err := importer.Discover(cfg.Input.Dir, cfg.Input.Pattern)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		logg.Warnf("no files matching %s in %s", cfg.Input.Pattern, cfg.Input.Dir)
	}

	writer, err := formatter.NewWriter(cfg.Output.Format, cfg.Output.Dir, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	writer.Protect(files...)
	sinks := []importer.Sink{writer}
	if cfg.Store.Enabled {
		st, err := store.NewSQLiteStore(cfg.Store.Path)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer func() {
			if err := st.Close(); err != nil {
				logg.Errorf("store close: %v", err)
			}
		}()
		sinks = append(sinks, store.Sink{Store: st, RunID: runID})
	}

	report := importer.New(logger.New("importer"), sinks...).Run(ctx, files)
	failed := report.Failed()
	logg.Infof("run %s: %d file(s) processed, %d failed", runID, len(report.Files), len(failed))

	if cfg.Metrics.PushURL != "" {
		if err := metrics.Push(cfg.Metrics.PushURL, cfg.Metrics.Job); err != nil {
			logg.Errorf("%v", err)
		}
	}

	if convertOpts.wait && cfg.Metrics.Addr != "" {
		logg.Infof("process kept alive for metric scraping, press Ctrl+C to exit")
		<-ctx.Done()
	} else if cfg.Metrics.Addr != "" && cfg.Metrics.PushURL == "" {
		// Give a scraper a last chance before the listener goes away.
		time.Sleep(100 * time.Millisecond)
	}

	if len(failed) > 0 {
		return fmt.Errorf("%d of %d file(s) failed", len(failed), len(report.Files))
	}
	return nil
}
