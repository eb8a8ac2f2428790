package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/panbanda/triage/internal/output"
	"github.com/panbanda/triage/internal/progress"
	"github.com/panbanda/triage/internal/workspace"
	"github.com/panbanda/triage/pkg/analyzer"
	"github.com/panbanda/triage/pkg/pipeline"
	"github.com/panbanda/triage/pkg/report"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
)

func analyzeCmd() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Aliases:   []string{"a"},
		Usage:     "Run the analysis pipeline on a directory or git repository",
		ArgsUsage: "<path|git-url>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "project",
				Usage: "Project ID to record the report under (default: random UUID)",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Overall run limit (default: pipeline.timeout from config)",
			},
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "Serve Prometheus metrics on this address while the run is active",
			},
			&cli.BoolFlag{
				Name:  "no-progress",
				Usage: "Disable the progress bar",
			},
			&cli.IntFlag{
				Name:  "budget",
				Usage: "Print an estimate of the report's token usage against this context size",
			},
		},
		Action: runAnalyzeCmd,
	}
}

func runAnalyzeCmd(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return fmt.Errorf("analyze takes exactly one target, got %d", c.Args().Len())
	}
	target := c.Args().First()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logger, err := newLogger(c, cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	projectID := c.String("project")
	if projectID == "" {
		projectID = uuid.NewString()
	}

	db, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if addr := c.String("metrics-addr"); addr != "" {
		shutdown := serveMetrics(addr, reg, logger)
		defer shutdown()
	}

	ws, err := workspace.Prepare(ctx, target, workspace.Options{Logger: logger.With("project_id", projectID)})
	if err != nil {
		return err
	}

	opts := []pipeline.Option{
		pipeline.WithConfig(cfg),
		pipeline.WithLogger(logger),
		pipeline.WithRegisterer(reg),
	}
	if d := c.Duration("timeout"); d > 0 {
		opts = append(opts, pipeline.WithTimeout(d))
	}
	orch := pipeline.New(db, db, opts...)

	var bar *progress.Bar
	if !c.Bool("no-progress") && !c.Bool("verbose") && !color.NoColor {
		bar = progress.New(os.Stderr)
		ctx = analyzer.WithTracker(ctx, bar.Tracker())
	}

	runErr := orch.RunAnalysis(ctx, projectID, ws.Dir)
	if bar != nil {
		if runErr != nil {
			bar.Fail(runErr)
		} else {
			bar.Done()
		}
	}

	// a failed run still leaves a partial report behind when persistence worked
	rep, err := db.Get(context.WithoutCancel(ctx), projectID, report.AgentType)
	if err != nil {
		return errors.Join(runErr, fmt.Errorf("load report: %w", err))
	}

	formatter, err := newFormatter(c)
	if err != nil {
		return errors.Join(runErr, err)
	}
	defer formatter.Close()

	if err := formatter.Output(output.AnalysisView(rep, formatter.Colored())); err != nil {
		return errors.Join(runErr, err)
	}

	if budget := c.Int("budget"); budget > 0 {
		var buf bytes.Buffer
		if err := output.Encode(&buf, formatter.Format(), output.AnalysisView(rep, false)); err != nil {
			return errors.Join(runErr, err)
		}
		fmt.Fprintf(os.Stderr, "Report size: %s\n", output.EstimateBudget(buf.Bytes(), budget))
	}

	return runErr
}

// serveMetrics exposes reg on addr and returns a function that stops the
// server.
func serveMetrics(addr string, reg *prometheus.Registry, logger *slog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
