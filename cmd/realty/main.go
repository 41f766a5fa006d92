package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/realty"
	"github.com/fwojciec/realty/crawl"
	"github.com/fwojciec/realty/fs"
	"github.com/fwojciec/realty/goquery"
	realtyhttp "github.com/fwojciec/realty/http"
	"github.com/fwojciec/realty/prometheus"
	realtyslog "github.com/fwojciec/realty/slog"
	"github.com/fwojciec/realty/stage"
	"github.com/fwojciec/realty/svg"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Executable runs isolated stages. Defaults to os.Executable().
	Executable string

	// Metrics collected during the run, set when --metrics-file is given.
	Metrics *prometheus.Metrics
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{}
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) (err error) {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("realty"),
		kong.Description("Crawl real-estate listings and analyze prices per area"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		Vars(),
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'realty --help' to see available commands")
	}
	if args[0] == "help" || args[0] == "--help" || args[0] == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	deps.CLI = cli
	deps.Logger = newLogger(stderr, cli.LogLevel)

	if cli.MetricsFile != "" {
		m.Metrics = prometheus.NewMetrics()
		deps.Metrics = m.Metrics
		defer func() {
			if werr := m.Metrics.WriteTextfile(cli.MetricsFile); werr != nil && err == nil {
				err = fmt.Errorf("write metrics: %w", werr)
			}
		}()
	}

	m.wire(deps)

	return kongCtx.Run(deps)
}

// wire builds the listing pipeline from the global flags. Nothing here
// touches the network; the corpus command wires its own services.
func (m *Main) wire(deps *Dependencies) {
	cli := deps.CLI

	var fetcher realty.Fetcher = realtyhttp.NewFetcher(
		realtyhttp.WithTimeout(cli.Timeout),
		realtyhttp.WithUserAgent(cli.UserAgent),
	)
	fetcher = realtyslog.NewLoggingFetcher(fetcher, deps.Logger)
	if deps.Metrics != nil {
		fetcher = prometheus.NewFetcher(fetcher, deps.Metrics)
	}

	deps.Client = &http.Client{Timeout: cli.Timeout}
	deps.Fetcher = fetcher
	deps.Robots = realtyhttp.NewRobotsService(deps.Client, cli.UserAgent)
	deps.Limiter = crawl.NewDomainLimiter(cli.Delay)

	var crawler realty.ListingCrawler = &crawl.Crawler{
		BaseURL:  cli.BaseURL,
		Fetcher:  deps.Fetcher,
		Parser:   goquery.NewListingParser(),
		Robots:   deps.Robots,
		Limiter:  deps.Limiter,
		MaxPages: cli.MaxPages,
	}
	crawler = realtyslog.NewLoggingListingCrawler(crawler, deps.Logger)
	if deps.Metrics != nil {
		crawler = prometheus.NewListingCrawler(crawler, deps.Metrics)
	}

	store := fs.NewStore()
	deps.Stages = map[realty.StageName]realty.Stage{
		realty.StageCrawl:     &stage.CrawlStage{Crawler: crawler, Listings: store, Logger: deps.Logger},
		realty.StageAggregate: &stage.AggregateStage{Listings: store, Summaries: store},
		realty.StageRender:    &stage.RenderStage{Listings: store, Summaries: store, Renderer: svg.NewChartRenderer()},
	}
	deps.Executable = m.Executable
}

// newLogger returns a text logger on w at the named level.
func newLogger(w io.Writer, level string) *slog.Logger {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l}))
}
