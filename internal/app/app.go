// Package app wires configuration, the crawl engine, and result output into
// the single Run entrypoint used by the CLI.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/AnMoreNight/crawling/internal/crawler"
	"github.com/AnMoreNight/crawling/internal/ioformats"
	"github.com/AnMoreNight/crawling/internal/render"
)

// Run executes the configured crawl: a single URL or a whole target list.
// Each result is appended to the output as soon as its crawl finishes, so a
// partial run still leaves usable output behind.
func Run(ctx context.Context, cfg Config) error {
	if cfg.URL == "" && cfg.InputPath == "" {
		return errors.New("no URL or input file configured")
	}

	var targets []crawler.Target
	if cfg.URL != "" {
		targets = []crawler.Target{{URL: cfg.URL}}
	} else {
		var err error
		targets, err = ioformats.ReadTargets(cfg.InputPath)
		if err != nil {
			return err
		}
		if len(targets) == 0 {
			return fmt.Errorf("no targets in %s", cfg.InputPath)
		}
	}

	engineCfg := crawler.Config{
		UserAgent:        cfg.UserAgent,
		RobotsPolicy:     cfg.RobotsPolicy,
		Timeout:          cfg.Timeout,
		ExcludePatterns:  cfg.ExcludePatterns,
		ValidateDNS:      cfg.ValidateDNS,
		SecondaryFetches: cfg.SecondaryFetches,
	}
	if cfg.RenderFallback {
		browser := &render.Browser{Stealth: true}
		defer browser.Close()
		engineCfg.Renderer = browser
	}
	engine := crawler.New(engineCfg)

	writer, err := ioformats.NewResultWriter(cfg.OutputPath)
	if err != nil {
		return err
	}
	defer writer.Close()

	var results []*crawler.Result
	var failed int
	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			return err
		}
		result := engine.Crawl(ctx, t)
		if result.CrawlStatus != crawler.StatusSuccess {
			failed++
		}
		results = append(results, result)
		if err := writer.Write(result); err != nil {
			return err
		}
	}

	if cfg.CSVExportPath != "" {
		if err := ioformats.ExportCSVFile(cfg.CSVExportPath, results); err != nil {
			return err
		}
		log.Info().Str("path", cfg.CSVExportPath).Int("results", len(results)).Msg("wrote CSV export")
	}

	log.Info().Int("targets", len(targets)).Int("failed", failed).Msg("crawl run finished")
	if failed == len(targets) {
		return errors.New("all crawls failed")
	}
	return nil
}
