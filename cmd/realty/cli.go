package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/realty"
	"github.com/fwojciec/realty/crawl"
	"github.com/fwojciec/realty/gemini"
	realtyhttp "github.com/fwojciec/realty/http"
	"github.com/fwojciec/realty/prometheus"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx     context.Context
	Stdout  io.Writer
	Stderr  io.Writer
	CLI     *CLI
	Logger  *slog.Logger
	Metrics *prometheus.Metrics

	Client  *http.Client
	Fetcher realty.Fetcher
	Robots  *realtyhttp.RobotsService
	Limiter *crawl.DomainLimiter
	Stages  map[realty.StageName]realty.Stage

	// Executable runs isolated stages; empty means os.Executable().
	Executable string
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Globals

	Run       RunCmd       `cmd:"" help:"Run the full pipeline for one or more areas"`
	Crawl     CrawlCmd     `cmd:"" help:"Crawl the listings of an area"`
	Aggregate AggregateCmd `cmd:"" help:"Summarize a listings file"`
	Render    RenderCmd    `cmd:"" help:"Render the price chart of a listings file"`
	Stage     StageCmd     `cmd:"" hidden:"" help:"Run one pipeline stage in isolation"`
	Corpus    CorpusCmd    `cmd:"" help:"Collect area market pages into the corpus database"`
}

// Globals are flags shared by every command.
type Globals struct {
	Dir         string        `short:"d" default:"." env:"REALTY_DIR" help:"Directory for pipeline artifacts"`
	BaseURL     string        `name:"base-url" default:"${base_url}" env:"REALTY_BASE_URL" help:"Listing site base URL"`
	Delay       time.Duration `default:"5s" env:"REALTY_DELAY" help:"Delay between requests to the same host"`
	UserAgent   string        `name:"user-agent" default:"${user_agent}" env:"REALTY_USER_AGENT" help:"User-Agent sent with every request"`
	Timeout     time.Duration `default:"10s" env:"REALTY_TIMEOUT" help:"Per-request timeout"`
	MaxPages    int           `name:"max-pages" default:"0" env:"REALTY_MAX_PAGES" help:"Stop after this many listing pages (0 for no limit)"`
	LogLevel    string        `name:"log-level" default:"info" enum:"debug,info,warn,error" env:"REALTY_LOG_LEVEL" help:"Log level (debug, info, warn, error)"`
	MetricsFile string        `name:"metrics-file" env:"REALTY_METRICS_FILE" help:"Write Prometheus metrics to this file on exit"`
}

// StageArgs returns the global flags that configure a stage child process.
// Artifact paths are passed per stage, so --dir is not forwarded.
func (g *Globals) StageArgs() []string {
	return []string{
		"--base-url", g.BaseURL,
		"--delay", g.Delay.String(),
		"--user-agent", g.UserAgent,
		"--timeout", g.Timeout.String(),
		"--max-pages", strconv.Itoa(g.MaxPages),
		"--log-level", g.LogLevel,
	}
}

// Vars returns the interpolation variables for flag defaults and help.
func Vars() kong.Vars {
	return kong.Vars{
		"base_url":        crawl.DefaultBaseURL,
		"user_agent":      realtyhttp.DefaultUserAgent,
		"default_area":    realty.DefaultArea,
		"db_path":         defaultDBPath(),
		"tokenizer_model": gemini.DefaultModel,
	}
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "realty.db"
	}
	return filepath.Join(home, ".realty", "corpus.db")
}

// RunCmd is the "run" subcommand.
type RunCmd struct {
	Areas       []string `arg:"" optional:"" help:"Areas to process (default: ${default_area})"`
	InProcess   bool     `name:"in-process" help:"Run stages in this process instead of child processes"`
	Concurrency int      `short:"c" default:"1" help:"Number of areas processed at once"`
}

// CrawlCmd is the "crawl" subcommand.
type CrawlCmd struct {
	Area   string `arg:"" optional:"" help:"Area to crawl (default: ${default_area})"`
	Output string `short:"o" help:"Listings file (default: {dir}/{area}.json)"`
}

// AggregateCmd is the "aggregate" subcommand.
type AggregateCmd struct {
	File   string `arg:"" type:"existingfile" help:"Listings file"`
	Area   string `help:"Area name (default: taken from the file name)"`
	Output string `short:"o" help:"Summary file (default: stats_{area}.json next to FILE)"`
}

// RenderCmd is the "render" subcommand.
type RenderCmd struct {
	File    string `arg:"" type:"existingfile" help:"Listings file"`
	Area    string `help:"Area name (default: taken from the file name)"`
	Summary string `short:"s" help:"Summary file (default: stats_{area}.json next to FILE if present)"`
	Output  string `short:"o" help:"Chart file (default: price_analysis_{area}.svg next to FILE)"`
}

// StageCmd is the hidden "stage" subcommand run by the pipeline in a
// child process.
type StageCmd struct {
	Name    string `arg:"" enum:"crawl,aggregate,render" help:"Stage to run"`
	Area    string `help:"Area"`
	Input   string `help:"Input listings file"`
	Summary string `help:"Input summary file"`
	Output  string `help:"Output artifact"`
}

// CorpusCmd is the "corpus" subcommand.
type CorpusCmd struct {
	Cities         []string `arg:"" help:"Cities to collect pages for"`
	Site           string   `default:"${base_url}" help:"Site whose sitemaps are searched"`
	DB             string   `name:"db" default:"${db_path}" env:"REALTY_DB" help:"Corpus database path"`
	Concurrency    int      `short:"c" default:"4" help:"Concurrent fetch limit"`
	MaxDocuments   int      `name:"max-documents" default:"0" help:"Stop after this many pages per city (0 for no limit)"`
	TokenizerModel string   `name:"tokenizer-model" default:"${tokenizer_model}" help:"Model used for token counts, or \"none\""`
	Replace        bool     `help:"Delete the city's existing documents first"`
	Export         string   `help:"Also write the city's documents as Markdown under this directory"`
}
