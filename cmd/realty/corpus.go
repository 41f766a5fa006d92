package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fwojciec/realty"
	"github.com/fwojciec/realty/crawl"
	"github.com/fwojciec/realty/fs"
	"github.com/fwojciec/realty/gemini"
	"github.com/fwojciec/realty/htmltomarkdown"
	realtyhttp "github.com/fwojciec/realty/http"
	"github.com/fwojciec/realty/readability"
	realtyslog "github.com/fwojciec/realty/slog"
	"github.com/fwojciec/realty/sqlite"
	"github.com/fwojciec/realty/trafilatura"
)

// noTokenizer disables token counting.
const noTokenizer = "none"

// Run executes the corpus command.
func (c *CorpusCmd) Run(deps *Dependencies) error {
	cities := make([]string, 0, len(c.Cities))
	for _, raw := range c.Cities {
		city, err := realty.NormalizeArea(raw)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", realty.ErrorMessage(err))
			return err
		}
		cities = append(cities, city)
	}

	if c.DB != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(c.DB), 0755); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db := sqlite.NewDB(c.DB)
	if err := db.Open(); err != nil {
		fmt.Fprintf(deps.Stderr, "Hint: Set REALTY_DB to use a different database path\n")
		return fmt.Errorf("failed to open database at %q: %w", c.DB, err)
	}
	defer db.Close()
	documents := sqlite.NewCorpusService(db)

	var tokenCounter realty.TokenCounter
	if c.TokenizerModel != noTokenizer {
		tc, err := gemini.NewTokenCounter(c.TokenizerModel)
		if err != nil {
			return fmt.Errorf("failed to create token counter: %w", err)
		}
		tokenCounter = tc
	}

	collector := &crawl.Collector{
		Sitemaps:     realtyslog.NewLoggingSitemapService(realtyhttp.NewSitemapService(deps.Client, deps.Robots), deps.Logger),
		Fetcher:      deps.Fetcher,
		Extractor:    trafilatura.NewExtractor(readability.NewExtractor()),
		Converter:    htmltomarkdown.NewConverter(),
		Documents:    documents,
		TokenCounter: tokenCounter,
		RateLimiter:  deps.Limiter,
		Concurrency:  c.Concurrency,
		MaxDocuments: c.MaxDocuments,
	}

	for _, city := range cities {
		if err := c.collect(deps, collector, documents, city); err != nil {
			return err
		}
	}
	return nil
}

func (c *CorpusCmd) collect(deps *Dependencies, collector *crawl.Collector, documents realty.CorpusService, city string) error {
	fmt.Fprintf(deps.Stdout, "Collecting %s\n", city)

	if c.Replace {
		if err := documents.DeleteDocumentsByCity(deps.Ctx, city); err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", realty.ErrorMessage(err))
			return err
		}
	}

	progress := func(event crawl.ProgressEvent) {
		switch event.Type {
		case crawl.ProgressStarted:
			fmt.Fprintf(deps.Stdout, "  Found %d URLs\n", event.Total)
		case crawl.ProgressFailed:
			fmt.Fprintf(deps.Stderr, "  skip %s: %v\n", crawl.TruncateURL(event.URL, 80), event.Error)
		}
	}

	result, err := collector.Collect(deps.Ctx, c.Site, city, progress)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error collecting %s: %v\n", city, err)
		return err
	}
	fmt.Fprintf(deps.Stdout, "  Saved %d pages (%s, %s)\n",
		result.Saved, crawl.FormatBytes(result.Bytes), crawl.FormatTokens(result.Tokens))

	docs, err := documents.FindDocuments(deps.Ctx, realty.CorpusFilter{City: &city})
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", realty.ErrorMessage(err))
		return err
	}
	fmt.Fprintf(deps.Stdout, "  %d sources for %s\n", len(realty.Sources(docs)), city)

	if c.Export != "" {
		n, err := fs.NewExporter(c.Export).Export(docs)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error exporting %s: %v\n", city, err)
			return err
		}
		fmt.Fprintf(deps.Stdout, "  Exported %d documents to %s\n", n, filepath.Join(c.Export, city))
	}
	return nil
}
