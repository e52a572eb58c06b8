package ioformats

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/AnMoreNight/crawling/internal/crawler"
)

// ResultWriter appends crawl results as NDJSON, one object per line.
type ResultWriter struct {
	w io.Writer
	c io.Closer
}

// NewResultWriter opens path for appending. An empty path writes to stdout.
func NewResultWriter(path string) (*ResultWriter, error) {
	if path == "" {
		return &ResultWriter{w: os.Stdout}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open output: %w", err)
	}
	return &ResultWriter{w: f, c: f}, nil
}

func (rw *ResultWriter) Write(result *crawler.Result) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if _, err := rw.w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}

func (rw *ResultWriter) Close() error {
	if rw.c != nil {
		return rw.c.Close()
	}
	return nil
}

// csvHeader matches the NDJSON field order.
var csvHeader = []string{
	"url", "email", "inquiryFormUrl", "companyName", "industry",
	"httpStatus", "robotsAllowed", "lastCrawledAt", "crawlStatus", "errorMessage",
}

// ExportCSV writes results as a CSV table with a header row. Null fields
// become empty cells.
func ExportCSV(w io.Writer, results []*crawler.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range results {
		record := []string{
			r.URL,
			deref(r.Email),
			deref(r.InquiryFormURL),
			deref(r.CompanyName),
			deref(r.Industry),
			strconv.Itoa(r.HTTPStatus),
			strconv.FormatBool(r.RobotsAllowed),
			r.LastCrawledAt,
			r.CrawlStatus,
			deref(r.ErrorMessage),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportCSVFile writes results to a new CSV file at path.
func ExportCSVFile(path string, results []*crawler.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv export: %w", err)
	}
	if err := ExportCSV(f, results); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
