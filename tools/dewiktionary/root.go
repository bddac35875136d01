package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/derdiedas/go-dewiktionary"
	"github.com/derdiedas/go-dewiktionary/config"
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dewiktionary",
		Short: "Import German noun declension tables from a Wiktionary dump",
		Long: `dewiktionary reads a German Wiktionary dump page by page, picks the
"Deutsch Substantiv Übersicht" table out of every noun page and stores it.

The dump may be plain xml, .bz2 (optionally a multistream dump together with
its --index), .gz or .zst.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	f := cmd.PersistentFlags()
	f.String("config", "", "YAML config file")
	f.String("dump", "", "dump file (default "+config.DefaultDump+")")
	f.String("index", "", "multistream index file")
	f.Int("workers", 0, "multistream decoding workers")
	f.Int("read-ahead", 0, "pages to decode ahead of the scanner")
	f.Int64("report-every", 0, "log throughput every this many pages")
	f.String("log-level", "", "debug, info, warn or error")
	f.String("metrics-addr", "", "serve prometheus metrics on this address")

	cmd.AddCommand(NewImportCmd())
	cmd.AddCommand(NewCouchLoadCmd())
	cmd.AddCommand(NewCBLoadCmd())
	cmd.AddCommand(NewESLoadCmd())
	cmd.AddCommand(NewMgoLoadCmd())
	cmd.AddCommand(NewTraverseCmd())
	cmd.AddCommand(NewIndexCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the config file and environment and applies the
// flags given on the command line on top.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	f := cmd.Flags()
	path, _ := f.GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if len(args) > 0 {
		cfg.Dump.File = args[0]
	}
	if f.Changed("dump") {
		cfg.Dump.File, _ = f.GetString("dump")
	}
	if f.Changed("index") {
		cfg.Dump.Index, _ = f.GetString("index")
	}
	if f.Changed("workers") {
		cfg.Dump.Workers, _ = f.GetInt("workers")
	}
	if f.Changed("read-ahead") {
		cfg.Import.ReadAhead, _ = f.GetInt("read-ahead")
	}
	if f.Changed("report-every") {
		cfg.Import.ReportEvery, _ = f.GetInt64("report-every")
	}
	if f.Changed("log-level") {
		cfg.Log.Level, _ = f.GetString("log-level")
	}
	if f.Changed("metrics-addr") {
		cfg.Metrics.Addr, _ = f.GetString("metrics-addr")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(w io.Writer, c config.LogConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(c.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// openDump opens the dump the config points at. The returned close
// function releases the underlying files.
func openDump(ctx context.Context, cfg *config.Config, logger *slog.Logger) (dewiktionary.Parser, func() error, error) {
	if cfg.Dump.Index != "" {
		ctx, cancel := context.WithCancel(ctx)
		p, err := dewiktionary.NewIndexedParser(ctx, cfg.Dump.Index, cfg.Dump.File, cfg.Dump.Workers)
		if err != nil {
			cancel()
			return nil, nil, fmt.Errorf("initializing multistream parser: %w", err)
		}
		logger.Info("Got site info", "sitename", p.SiteInfo().SiteName,
			"base", p.SiteInfo().Base, "generator", p.SiteInfo().Generator)
		return p, func() error { cancel(); return nil }, nil
	}

	r, err := dewiktionary.OpenDump(cfg.Dump.File)
	if err != nil {
		return nil, nil, fmt.Errorf("opening dump: %w", err)
	}
	p, err := dewiktionary.NewParser(r)
	if err != nil {
		r.Close()
		return nil, nil, fmt.Errorf("setting up page parser: %w", err)
	}
	logger.Info("Got site info", "sitename", p.SiteInfo().SiteName,
		"base", p.SiteInfo().Base, "generator", p.SiteInfo().Generator)
	return p, r.Close, nil
}

// serveMetrics registers the import counters and, if an address is
// configured, serves them until the returned function is called.
func serveMetrics(cfg *config.Config, logger *slog.Logger) (*dewiktionary.Metrics, func()) {
	reg := prometheus.NewRegistry()
	m := dewiktionary.NewMetrics(reg)
	if cfg.Metrics.Addr == "" {
		return m, func() {}
	}

	srv := &http.Server{
		Addr:              cfg.Metrics.Addr,
		Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics endpoint failed", "addr", cfg.Metrics.Addr, "error", err)
		}
	}()
	logger.Info("Serving metrics", "addr", cfg.Metrics.Addr)

	return m, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

// runImport imports the configured dump into sink.
func runImport(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger,
	sink dewiktionary.Sink, opts ...dewiktionary.ImporterOption) (dewiktionary.Stats, error) {

	ctx := cmd.Context()
	p, closeDump, err := openDump(ctx, cfg, logger)
	if err != nil {
		return dewiktionary.Stats{}, err
	}
	defer closeDump()

	m, stopMetrics := serveMetrics(cfg, logger)
	defer stopMetrics()

	opts = append([]dewiktionary.ImporterOption{
		dewiktionary.WithLogger(logger),
		dewiktionary.WithMetrics(m),
		dewiktionary.WithReportEvery(cfg.Import.ReportEvery),
		dewiktionary.WithReadAhead(cfg.Import.ReadAhead),
	}, opts...)
	return dewiktionary.NewImporter(sink, opts...).Run(ctx, p)
}
