// Package crawler orchestrates one crawl: fetch the root page once, run the
// four extractors over it, and assemble a single result record. A failed
// extractor never fails the crawl; the field stays empty and the rest of the
// record survives.
package crawler

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/AnMoreNight/crawling/internal/candidate"
	"github.com/AnMoreNight/crawling/internal/company"
	"github.com/AnMoreNight/crawling/internal/contactform"
	"github.com/AnMoreNight/crawling/internal/email"
	"github.com/AnMoreNight/crawling/internal/fetch"
	"github.com/AnMoreNight/crawling/internal/industry"
	"github.com/AnMoreNight/crawling/internal/render"
	"github.com/AnMoreNight/crawling/internal/robots"
)

// Crawl statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Target is one crawl input. The reference fields, when present, steer
// selection toward already-known values.
type Target struct {
	URL string
	// ReferenceCompanyName biases company name selection by fuzzy match.
	ReferenceCompanyName string
	// ReferenceFormURL biases contact form selection by path similarity.
	ReferenceFormURL string
}

// Result is the per-URL crawl record. Field names follow the NDJSON output
// format; extracted fields are null when nothing qualified.
type Result struct {
	URL            string  `json:"url"`
	Email          *string `json:"email"`
	InquiryFormURL *string `json:"inquiryFormUrl"`
	CompanyName    *string `json:"companyName"`
	Industry       *string `json:"industry"`
	HTTPStatus     int     `json:"httpStatus"`
	RobotsAllowed  bool    `json:"robotsAllowed"`
	LastCrawledAt  string  `json:"lastCrawledAt"`
	CrawlStatus    string  `json:"crawlStatus"`
	ErrorMessage   *string `json:"errorMessage"`

	EmailCandidates       []candidate.Candidate   `json:"emailCandidates,omitempty"`
	CompanyNameCandidates []candidate.Candidate   `json:"companyNameCandidates,omitempty"`
	IndustryCandidates    []candidate.Candidate   `json:"industryCandidates,omitempty"`
	FormCandidates        []contactform.Candidate `json:"formCandidates,omitempty"`
	FormRemarks           string                  `json:"formRemarks,omitempty"`
}

// Config carries the crawl policy shared by every target.
type Config struct {
	UserAgent    string
	RobotsPolicy string
	Timeout      time.Duration
	// ExcludePatterns are substrings; a matching URL is not crawled at all.
	ExcludePatterns []string
	// ValidateDNS enables MX/A lookups on email candidates.
	ValidateDNS bool
	// RejectSubstrings overrides the built-in email reject list when non-nil.
	RejectSubstrings []string
	// Renderer enables the headless fallback for script-built pages.
	Renderer render.Renderer
	// SecondaryFetches allows extractors to fetch sub-pages (company profile
	// page, contact form candidates). On by default in app config.
	SecondaryFetches bool
	// HTTPClient overrides the default transport, mainly for tests.
	HTTPClient *http.Client
}

// Engine runs crawls. Safe for sequential reuse across targets.
type Engine struct {
	cfg     Config
	fetcher *fetch.Client
	robots  *robots.Checker
	now     func() time.Time
}

func New(cfg Config) *Engine {
	if cfg.UserAgent == "" {
		cfg.UserAgent = "CrawlerBot/1.0"
	}
	if cfg.RobotsPolicy == "" {
		cfg.RobotsPolicy = robots.PolicyRespect
	}
	return &Engine{
		cfg: cfg,
		fetcher: &fetch.Client{
			HTTPClient:        cfg.HTTPClient,
			UserAgent:         cfg.UserAgent,
			PerRequestTimeout: cfg.Timeout,
		},
		robots: &robots.Checker{
			HTTPClient: cfg.HTTPClient,
			UserAgent:  cfg.UserAgent,
		},
		now: time.Now,
	}
}

// Crawl fetches the target's root URL once and extracts every field from it.
func (e *Engine) Crawl(ctx context.Context, t Target) *Result {
	log.Info().Str("url", t.URL).Msg("starting crawl")

	result := &Result{
		URL:           t.URL,
		RobotsAllowed: true,
		CrawlStatus:   StatusSuccess,
		LastCrawledAt: e.now().UTC().Format(time.RFC3339),
	}

	for _, pattern := range e.cfg.ExcludePatterns {
		if strings.Contains(t.URL, pattern) {
			log.Warn().Str("url", t.URL).Str("pattern", pattern).Msg("URL matches exclude pattern")
			return e.fail(result, "URL matches exclude pattern")
		}
	}

	if !e.robots.IsAllowed(ctx, t.URL, e.cfg.RobotsPolicy) {
		log.Warn().Str("url", t.URL).Msg("robots.txt disallows crawling")
		result.RobotsAllowed = false
		return e.fail(result, "Robots.txt disallows crawling")
	}

	res, err := e.fetcher.Fetch(ctx, t.URL)
	if err != nil {
		if res != nil {
			result.HTTPStatus = res.StatusCode
			if res.FinalURL != "" {
				result.URL = res.FinalURL
			}
		}
		return e.fail(result, err.Error())
	}
	result.URL = res.FinalURL
	result.HTTPStatus = res.StatusCode
	if res.Body == "" || res.StatusCode != 200 {
		return e.fail(result, fmt.Sprintf("HTTP %d", res.StatusCode))
	}

	e.extractEmail(ctx, result, res.Body)
	e.extractContactForm(ctx, result, t)
	e.extractCompanyName(ctx, result, res.Body, t)
	e.extractIndustry(result, res.Body)

	log.Info().Str("url", t.URL).Msg("crawl completed")
	return result
}

func (e *Engine) fail(result *Result, msg string) *Result {
	result.CrawlStatus = StatusError
	result.ErrorMessage = &msg
	return result
}

// extractEmail runs the email pipeline. A panic inside an extractor leaves
// the field empty and demotes the crawl result to error status.
func (e *Engine) extractEmail(ctx context.Context, result *Result, body string) {
	defer recoverExtractor(result, "email")

	ex, err := email.New(result.URL, email.Config{
		Renderer:         e.cfg.Renderer,
		ValidateDNS:      e.cfg.ValidateDNS,
		RejectSubstrings: e.cfg.RejectSubstrings,
	})
	if err != nil {
		log.Error().Err(err).Msg("email extraction failed")
		return
	}
	r := ex.Extract(ctx, body, result.URL)
	result.EmailCandidates = r.Candidates
	if r.Selected != nil {
		result.Email = &r.Selected.Value
		log.Info().Str("email", r.Selected.Value).Float64("confidence", r.Selected.Confidence).Msg("found email")
	}
}

func (e *Engine) extractContactForm(ctx context.Context, result *Result, t Target) {
	defer recoverExtractor(result, "contact form")

	d := &contactform.Detector{
		Robots:       e.robots,
		Policy:       e.cfg.RobotsPolicy,
		ReferenceURL: t.ReferenceFormURL,
	}
	if e.cfg.SecondaryFetches {
		d.Fetcher = e.fetcher
	}
	r := d.Detect(ctx, result.URL)
	result.FormCandidates = r.Candidates
	result.FormRemarks = r.Remarks
	if r.FormURL != "" {
		result.InquiryFormURL = &r.FormURL
		log.Info().Str("url", r.FormURL).Str("remarks", r.Remarks).Msg("found contact form URL")
	}
}

func (e *Engine) extractCompanyName(ctx context.Context, result *Result, body string, t Target) {
	defer recoverExtractor(result, "company name")

	cfg := company.Config{ReferenceName: t.ReferenceCompanyName}
	if e.cfg.SecondaryFetches {
		cfg.Fetcher = e.fetcher
	}
	ex, err := company.New(result.URL, cfg)
	if err != nil {
		log.Error().Err(err).Msg("company name extraction failed")
		return
	}
	r := ex.Extract(ctx, body, result.URL)
	result.CompanyNameCandidates = r.Candidates
	if r.Selected != nil {
		result.CompanyName = &r.Selected.Value
		log.Info().Str("name", r.Selected.Value).Str("source", r.Selected.Source).Msg("extracted company name")
	}
}

func (e *Engine) extractIndustry(result *Result, body string) {
	defer recoverExtractor(result, "industry")

	c := industry.New(result.URL, industry.Config{})
	r := c.Extract(body, result.URL)
	result.IndustryCandidates = r.Candidates
	if r.Selected != nil {
		result.Industry = &r.Selected.Value
		log.Info().Str("industry", r.Selected.Value).Str("source", r.Selected.Source).Msg("extracted industry")
	}
}

// recoverExtractor demotes the whole result to error status when an
// extractor panics. Fields the other extractors already filled in survive.
func recoverExtractor(result *Result, name string) {
	if r := recover(); r != nil {
		log.Error().Interface("panic", r).Str("extractor", name).Msg("extractor panicked")
		msg := fmt.Sprintf("%s extraction panicked: %v", name, r)
		result.CrawlStatus = StatusError
		result.ErrorMessage = &msg
	}
}
