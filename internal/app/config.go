package app

import "time"

// Config holds runtime configuration for the application.
type Config struct {
	// Single URL to crawl; mutually exclusive with InputPath.
	URL string
	// InputPath points at a target list (CSV, NDJSON, or plain lines).
	InputPath string
	// OutputPath receives NDJSON results, appended one line per target.
	OutputPath string
	// CSVExportPath, when set, additionally writes the batch as CSV.
	CSVExportPath string

	// Crawl policy
	UserAgent       string
	RobotsPolicy    string
	Timeout         time.Duration
	ExcludePatterns []string

	// Extraction behavior
	ValidateDNS      bool
	RenderFallback   bool
	SecondaryFetches bool

	Verbose bool
}
