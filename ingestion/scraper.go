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

package ingestion

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/poiesic/hackfind/canonical"
	"github.com/poiesic/hackfind/core"
)

// Scraper produces the raw records of one source. Scraping logic itself
// lives outside this module; implementations only hand over what they found.
type Scraper interface {
	// Source is the stable identifier the records are stored under.
	Source() string

	// Scrape returns the records currently listed by the source.
	Scrape(ctx context.Context) ([]*canonical.RawRecord, error)
}

// Indexer writes accepted events into the semantic index.
// reembed.Indexer is the production implementation.
type Indexer interface {
	IndexEvents(ctx context.Context, events []*core.Event) (int, error)
}

// FileScraper reads a JSON array of raw records dumped by an external scraper.
type FileScraper struct {
	source string
	path   string
}

var _ Scraper = (*FileScraper)(nil)

// NewFileScraper creates a scraper that reads path on every run.
func NewFileScraper(source, path string) *FileScraper {
	return &FileScraper{source: source, path: path}
}

// Source returns the source name.
func (f *FileScraper) Source() string {
	return f.source
}

// Scrape reads and decodes the file.
func (f *FileScraper) Scrape(ctx context.Context) ([]*canonical.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}
	records, err := canonical.DecodeRecords(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.path, err)
	}
	return records, nil
}

// DirScrapers returns one FileScraper per *.json file in dir, named after
// the file without its extension and sorted by source.
func DirScrapers(dir string) ([]Scraper, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)

	scrapers := make([]Scraper, 0, len(matches))
	for _, path := range matches {
		source := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		scrapers = append(scrapers, NewFileScraper(source, path))
	}
	return scrapers, nil
}

// StaticScraper serves a fixed set of records. Useful for pushing records
// received over the API through the same pipeline.
type StaticScraper struct {
	source  string
	records []*canonical.RawRecord
}

var _ Scraper = (*StaticScraper)(nil)

// NewStaticScraper creates a scraper that always returns records.
func NewStaticScraper(source string, records []*canonical.RawRecord) *StaticScraper {
	return &StaticScraper{source: source, records: records}
}

// Source returns the source name.
func (s *StaticScraper) Source() string {
	return s.source
}

// Scrape returns the fixed records.
func (s *StaticScraper) Scrape(ctx context.Context) ([]*canonical.RawRecord, error) {
	return s.records, ctx.Err()
}
