package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/hackfind/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func findCommand(t *testing.T, app *cli.App, name string) *cli.Command {
	t.Helper()
	for _, cmd := range app.Commands {
		if cmd.Name == name {
			return cmd
		}
	}
	t.Fatalf("command %q not found", name)
	return nil
}

func TestCommands(t *testing.T) {
	app := newApp()
	for _, name := range []string{"serve", "ingest", "search", "ai-search", "stats", "stale", "sweep", "reembed"} {
		assert.NotNil(t, findCommand(t, app, name), name)
	}
}

func TestReembedCommandFlags(t *testing.T) {
	cmd := findCommand(t, newApp(), "reembed")

	ints := map[string]int{}
	for _, flag := range cmd.Flags {
		if f, ok := flag.(*cli.IntFlag); ok {
			ints[f.Name] = f.Value
		}
	}
	assert.Equal(t, 32, ints["batch-size"])
	assert.Equal(t, 50, ints["report-interval"])
	assert.Equal(t, 3, ints["max-retries"])

	t.Run("retry-delay has default value of 1s", func(t *testing.T) {
		for _, flag := range cmd.Flags {
			if f, ok := flag.(*cli.DurationFlag); ok && f.Name == "retry-delay" {
				assert.Equal(t, time.Second, f.Value)
				return
			}
		}
		t.Fatal("retry-delay flag not found")
	})
}

func TestReembedCommandValidation(t *testing.T) {
	testCases := []struct {
		name string
		args []string
		want string
	}{
		{"zero batch size", []string{"--batch-size", "0"}, "batch-size"},
		{"zero report interval", []string{"--report-interval", "0"}, "report-interval"},
		{"zero retries", []string{"--max-retries", "0"}, "max-retries"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			app := newApp()
			app.Writer = io.Discard
			args := append([]string{"hackfind", "--data-dir", t.TempDir(), "reembed"}, tc.args...)
			err := app.Run(args)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestAISearchRequiresQuery(t *testing.T) {
	app := newApp()
	err := app.Run([]string{"hackfind", "--data-dir", t.TempDir(), "ai-search"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query is required")
}

func TestInvalidConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hackfind.yaml")
	require.NoError(t, os.WriteFile(path, []byte("freshness:\n  max_age: 0s\n"), 0o644))

	app := newApp()
	err := app.Run([]string{"hackfind", "--config", path, "stats"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "freshness.max_age")
}

// embeddingServer answers the OpenAI embeddings endpoint with the same
// vector for every input.
func embeddingServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		type datum struct {
			Object    string    `json:"object"`
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		}
		resp := struct {
			Object string  `json:"object"`
			Data   []datum `json:"data"`
			Model  string  `json:"model"`
		}{Object: "list", Model: req.Model}
		for i := range req.Input {
			resp.Data = append(resp.Data, datum{Object: "embedding", Embedding: []float32{1, 1}, Index: i})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// setupWorkspace writes a config file, a scraper dump dir with one source and
// returns the config path.
func setupWorkspace(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	srv := embeddingServer(t)

	scraped := filepath.Join(root, "scraped")
	require.NoError(t, os.MkdirAll(scraped, 0o755))

	start := time.Now().AddDate(0, 0, 30).Format("2006-01-02")
	end := time.Now().AddDate(0, 0, 32).Format("2006-01-02")
	dump := fmt.Sprintf(`[
		{"title": "Climate AI Hack", "url": "https://devpost.com/climate-ai", "start_date": %q, "end_date": %q, "tags": ["climate"]},
		{"title": "Robotics Weekend", "url": "https://devpost.com/robotics", "start_date": %q, "mode": "in-person"}
	]`, start, end, end)
	require.NoError(t, os.WriteFile(filepath.Join(scraped, "devpost.json"), []byte(dump), 0o644))

	cfg := fmt.Sprintf(`data_dir: %s
embedding:
  host: %s
  model: test-model
  cache_size: 0
ingestion:
  dir: %s
`, filepath.Join(root, "data"), srv.URL, scraped)
	path := filepath.Join(root, "hackfind.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	return path
}

func run(t *testing.T, configPath string, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = io.Discard
	err := app.Run(append([]string{"hackfind", "--log-level", "error", "--config", configPath}, args...))
	require.NoError(t, err, out.String())
	return out.String()
}

func TestEndToEnd(t *testing.T) {
	configPath := setupWorkspace(t)

	out := run(t, configPath, "ingest")
	assert.Contains(t, out, "devpost: received=2 accepted=2 rejected=0 dropped=0 indexed=2")
	assert.Contains(t, out, "failed=0")

	out = run(t, configPath, "ingest", "--stale-only")
	assert.Contains(t, out, "Total: 0 sources")

	var stats core.Statistics
	require.NoError(t, json.Unmarshal([]byte(run(t, configPath, "stats")), &stats))
	assert.Equal(t, 2, stats.TotalEvents)
	assert.Equal(t, 2, stats.BySource["devpost"])
	assert.Equal(t, []core.TagCount{{Tag: "climate", Count: 1}}, stats.Tags)

	out = run(t, configPath, "search", "--mode", "in-person")
	assert.Contains(t, out, "Found 1 events")
	assert.Contains(t, out, "Robotics Weekend")

	out = run(t, configPath, "ai-search", "climate")
	assert.Contains(t, out, "Found 2 hits")
	assert.Contains(t, out, "Climate AI Hack")
	assert.Contains(t, out, "semantic+lexical")

	out = run(t, configPath, "stale")
	assert.Contains(t, out, "All sources are fresh")

	out = run(t, configPath, "sweep", "--days", "0")
	assert.Contains(t, out, "Deleted 0 events")

	out = run(t, configPath, "reembed", "--clear")
	assert.Contains(t, out, "Indexed 2 of 2 events")
}

func TestIngestUnknownSource(t *testing.T) {
	configPath := setupWorkspace(t)

	app := newApp()
	app.Writer = io.Discard
	err := app.Run([]string{"hackfind", "--config", configPath, "ingest", "--source", "mlh"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mlh")
}

func TestSetupLogger(t *testing.T) {
	newLoggerApp := func() *cli.App {
		return &cli.App{
			Name: "test",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "log-level",
					Aliases: []string{"l"},
					Value:   "info",
				},
			},
			Before: setupLogger,
			Action: func(c *cli.Context) error {
				return nil
			},
		}
	}

	t.Run("valid log levels", func(t *testing.T) {
		for _, level := range []string{"debug", "info", "warn", "error", "DEBUG", "WaRn"} {
			t.Run(level, func(t *testing.T) {
				require.NoError(t, newLoggerApp().Run([]string{"test", "--log-level", level}))
			})
		}
	})

	t.Run("invalid log level returns error", func(t *testing.T) {
		err := newLoggerApp().Run([]string{"test", "-l", "verbose"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
		assert.Contains(t, err.Error(), "verbose")
	})

	t.Run("default log level is info", func(t *testing.T) {
		app := newLoggerApp()
		app.Action = func(c *cli.Context) error {
			assert.Equal(t, "info", c.String("log-level"))
			return nil
		}
		require.NoError(t, app.Run([]string{"test"}))
	})
}
