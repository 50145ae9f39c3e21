// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "hackfind",
		Usage: "Hackathon aggregation, listing and hybrid search",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
			},
			&cli.StringFlag{
				Name:    "data-dir",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory (overrides config)",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Serve the HTTP API",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address (overrides config)",
					},
				},
			},
			{
				Name:   "ingest",
				Usage:  "Ingest scraper dumps, one <source>.json file per source",
				Action: ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "dir",
						Usage: "Directory of scraper dumps (overrides config)",
					},
					&cli.StringFlag{
						Name:  "source",
						Usage: "Only ingest this source",
					},
					&cli.BoolFlag{
						Name:  "stale-only",
						Usage: "Skip sources ingested within the freshness window",
					},
				},
			},
			{
				Name:   "search",
				Usage:  "List stored events with filters and sorting",
				Action: searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Substring over title, description and location"},
					&cli.StringSliceFlag{Name: "source", Usage: "Only these sources"},
					&cli.StringFlag{Name: "mode", Usage: "online, in-person, hybrid or unknown"},
					&cli.StringFlag{Name: "status", Usage: "upcoming, ongoing, ended or unknown"},
					&cli.StringSliceFlag{Name: "tag", Usage: "At least one of these tags"},
					&cli.Float64Flag{Name: "min-prize", Usage: "Minimum numeric prize pool"},
					&cli.StringFlag{Name: "sort-by", Usage: "start_date, prize, recency or title", Value: "start_date"},
					&cli.StringFlag{Name: "sort-order", Usage: "asc or desc"},
					&cli.IntFlag{Name: "page", Usage: "1-based page number", Value: 1},
					&cli.IntFlag{Name: "page-size", Usage: "Events per page", Value: 20},
				},
			},
			{
				Name:      "ai-search",
				Usage:     "Hybrid semantic and lexical search",
				ArgsUsage: "<query>",
				Action:    aiSearchCommand,
			},
			{
				Name:   "stats",
				Usage:  "Print store statistics as JSON",
				Action: statsCommand,
			},
			{
				Name:   "stale",
				Usage:  "List sources due for re-ingestion",
				Action: staleCommand,
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "max-age",
						Usage: "Freshness window (defaults to config)",
					},
				},
			},
			{
				Name:   "sweep",
				Usage:  "Delete events that ended more than N days ago",
				Action: sweepCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "days",
						Usage: "Retention in days (defaults to config)",
						Value: -1,
					},
				},
			},
			{
				Name:   "reembed",
				Usage:  "Rebuild the semantic index from every stored event",
				Action: reembedCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of events to process in each batch",
						Value: 32,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N events",
						Value: 50,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
					&cli.BoolFlag{
						Name:  "clear",
						Usage: "Drop every vector before rebuilding",
					},
				},
			},
		},
	}
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
