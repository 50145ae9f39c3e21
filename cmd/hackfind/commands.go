package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/poiesic/hackfind"
	"github.com/poiesic/hackfind/api"
	"github.com/poiesic/hackfind/config"
	"github.com/poiesic/hackfind/core"
	"github.com/poiesic/hackfind/ingestion"
	"github.com/poiesic/hackfind/metrics"
	"github.com/poiesic/hackfind/reembed"
	"github.com/poiesic/hackfind/storage"
	"github.com/urfave/cli/v2"
)

// loadConfig reads --config and applies the global flag overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if dir := c.String("data-dir"); dir != "" {
		cfg.DataDir = dir
	}
	return cfg, nil
}

func openService(c *cli.Context, opts ...hackfind.ServiceOption) (*hackfind.Service, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	svc, err := hackfind.Open(cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return svc, nil
}

func serveCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := openService(c, hackfind.WithMetrics(metrics.New()))
	if err != nil {
		return err
	}
	defer svc.Close()

	srv, err := api.NewServer(svc)
	if err != nil {
		return err
	}
	defer srv.Close()

	addr := c.String("addr")
	if addr == "" {
		addr = svc.Config().Server.Addr
	}
	return srv.ListenAndServe(ctx, addr)
}

func ingestCommand(c *cli.Context) error {
	ctx := context.Background()

	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	dir := c.String("dir")
	if dir == "" {
		dir = svc.Config().Ingestion.Dir
	}
	scrapers, err := ingestion.DirScrapers(dir)
	if err != nil {
		return fmt.Errorf("failed to list scraper dumps: %w", err)
	}

	pipeline, err := svc.NewIngestionPipeline(ingestion.WithScrapers(scrapers...))
	if err != nil {
		return err
	}
	defer pipeline.Release()

	var results []*ingestion.SourceResult
	switch {
	case c.String("source") != "":
		res, err := pipeline.IngestNamed(ctx, c.String("source"))
		if err != nil {
			return err
		}
		results = []*ingestion.SourceResult{res}
	case c.Bool("stale-only"):
		results, err = pipeline.RunStale(ctx, svc.Config().Freshness.MaxAge)
		if err != nil {
			return err
		}
	default:
		results = pipeline.IngestAll(ctx)
	}

	out := c.App.Writer
	for _, res := range results {
		line := fmt.Sprintf("%s: received=%d accepted=%d rejected=%d dropped=%d indexed=%d",
			res.Source, res.Received, res.Accepted, res.Rejected, res.Dropped, res.Indexed)
		if !res.Success {
			line += " error=" + res.Error
		}
		fmt.Fprintln(out, line)
	}

	accepted, rejected, dropped, failed := ingestion.Totals(results)
	fmt.Fprintf(out, "Total: %d sources, accepted=%d rejected=%d dropped=%d failed=%d\n",
		len(results), accepted, rejected, dropped, failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d sources failed", failed, len(results))
	}
	return nil
}

func searchCommand(c *cli.Context) error {
	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	q := storage.EventQuery{
		Search:    c.String("query"),
		Sources:   c.StringSlice("source"),
		Mode:      core.Mode(c.String("mode")),
		Status:    core.Status(c.String("status")),
		Tags:      c.StringSlice("tag"),
		MinPrize:  c.Float64("min-prize"),
		SortBy:    c.String("sort-by"),
		SortOrder: c.String("sort-order"),
		Page:      c.Int("page"),
		PageSize:  c.Int("page-size"),
	}
	events, total, err := svc.Events().Query(c.Context, q)
	if err != nil {
		return err
	}

	out := c.App.Writer
	q = q.Normalized()
	fmt.Fprintf(out, "Found %d events (page %d, %d per page)\n", total, q.Page, q.PageSize)
	for _, e := range events {
		fmt.Fprintf(out, "%s  %-10s %-9s %-10s %s\n", e.StartDate, e.Source, e.Mode, e.Status, e.Title)
	}
	return nil
}

func aiSearchCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return errors.New("query is required")
	}

	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	results, err := svc.Search(c.Context, query)
	if err != nil {
		return err
	}

	out := c.App.Writer
	fmt.Fprintf(out, "Found %d hits\n", len(results))
	for i, hit := range results {
		signals := make([]string, len(hit.Signals))
		for j, s := range hit.Signals {
			signals[j] = string(s)
		}
		fmt.Fprintf(out, "%d: '%s' (%s)[%0.4f] %s\n", i, hit.Event.Title, hit.ID, hit.Score, strings.Join(signals, "+"))
	}
	return nil
}

func statsCommand(c *cli.Context) error {
	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	stats, err := svc.Events().Stats(c.Context)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(stats)
}

func staleCommand(c *cli.Context) error {
	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	stale, err := svc.StaleSources(c.Context, c.Duration("max-age"))
	if err != nil {
		return err
	}
	if len(stale) == 0 {
		fmt.Fprintln(c.App.Writer, "All sources are fresh")
		return nil
	}
	for _, source := range stale {
		fmt.Fprintln(c.App.Writer, source)
	}
	return nil
}

func sweepCommand(c *cli.Context) error {
	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	deleted, err := svc.Sweep(c.Context, c.Int("days"))
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Deleted %d events\n", deleted)
	return nil
}

func reembedCommand(c *cli.Context) error {
	ctx := context.Background()

	reembedConfig := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
		Clear:          c.Bool("clear"),
	}

	// Validate config
	if reembedConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reembedConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if reembedConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	cfg := svc.Config()
	fmt.Fprintf(c.App.ErrWriter, "Database: %s\n", cfg.DataDir)
	fmt.Fprintf(c.App.ErrWriter, "Embedding host: %s\n", cfg.Embedding.Host)
	fmt.Fprintf(c.App.ErrWriter, "Embedding model: %s\n", cfg.Embedding.Model)
	fmt.Fprintln(c.App.ErrWriter)

	reembedder, err := svc.NewReembedder(reembedConfig, c.App.ErrWriter)
	if err != nil {
		return err
	}
	summary, err := reembedder.Run(ctx)
	if err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "Indexed %d of %d events (%d skipped) in %s\n",
		summary.Indexed, summary.Total, summary.Skipped, summary.Elapsed.Round(time.Millisecond))
	return nil
}
