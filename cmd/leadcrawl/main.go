// Command leadcrawl extracts business contact details (email, contact form
// URL, company name, industry) from company websites. It crawls only each
// target's root page, plus a bounded set of sub-pages for contact form and
// company profile detection.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/AnMoreNight/crawling/internal/app"
	"github.com/AnMoreNight/crawling/internal/robots"
)

func main() {
	// .env is optional; real environments set variables directly.
	_ = godotenv.Load()

	var (
		urlFlag     = flag.String("url", "", "single URL to crawl")
		inputFlag   = flag.String("input", "", "target list file (csv, ndjson, or plain lines)")
		outputFlag  = flag.String("output", "", "NDJSON output file (default stdout)")
		csvFlag     = flag.String("csv", "", "also export results as CSV to this file")
		configFlag  = flag.String("config", "", "YAML or JSON config file")
		uaFlag      = flag.String("ua", app.UserAgentDefault, "User-Agent header")
		robotsFlag  = flag.String("robots", robots.PolicyRespect, "robots.txt policy: respect or ignore")
		timeoutFlag = flag.Duration("timeout", app.TimeoutDefault, "per-request timeout")
		excludeFlag = flag.String("exclude", "", "comma-separated URL substrings to skip")
		dnsFlag     = flag.Bool("validate-dns", false, "validate email domains via MX/A lookup")
		renderFlag  = flag.Bool("render", false, "render script-built pages in a headless browser")
		noSubFlag   = flag.Bool("no-subfetch", false, "disable sub-page fetches (profile page, form candidates)")
		verboseFlag = flag.Bool("v", false, "verbose logging")
	)
	flag.Parse()

	cfg := app.Config{
		URL:              *urlFlag,
		InputPath:        *inputFlag,
		OutputPath:       *outputFlag,
		CSVExportPath:    *csvFlag,
		UserAgent:        *uaFlag,
		RobotsPolicy:     *robotsFlag,
		Timeout:          *timeoutFlag,
		ValidateDNS:      *dnsFlag,
		RenderFallback:   *renderFlag,
		SecondaryFetches: !*noSubFlag,
		Verbose:          *verboseFlag,
	}
	if *excludeFlag != "" {
		for _, p := range strings.Split(*excludeFlag, ",") {
			if p = strings.TrimSpace(p); p != "" {
				cfg.ExcludePatterns = append(cfg.ExcludePatterns, p)
			}
		}
	}

	if *configFlag != "" {
		fc, err := app.LoadConfigFile(*configFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
			os.Exit(2)
		}
		app.ApplyFileConfig(&cfg, fc)
	}
	if ua := os.Getenv("LEADCRAWL_USER_AGENT"); ua != "" && cfg.UserAgent == app.UserAgentDefault {
		cfg.UserAgent = ua
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, cfg); err != nil {
		log.Error().Err(err).Msg("run failed")
		os.Exit(1)
	}
}
