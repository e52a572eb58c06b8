// Package ioformats reads crawl target lists and writes crawl results.
// Inputs may be CSV with a header, NDJSON, or plain URL lines; outputs are
// append-only NDJSON plus an optional CSV export.
package ioformats

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/AnMoreNight/crawling/internal/crawler"
)

// ReadTargets loads crawl targets from path, picking the format from the
// file extension: .csv, .ndjson/.jsonl, anything else as plain lines.
func ReadTargets(path string) ([]crawler.Target, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return readCSVTargets(f)
	case ".ndjson", ".jsonl":
		return readNDJSONTargets(f)
	default:
		return readLineTargets(f)
	}
}

// readCSVTargets expects a header row with a url column; company_name and
// form_url columns become reference values when present.
func readCSVTargets(r io.Reader) ([]crawler.Target, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	urlIdx, ok := cols["url"]
	if !ok {
		return nil, fmt.Errorf("csv input has no url column")
	}
	nameIdx, hasName := cols["company_name"]
	formIdx, hasForm := cols["form_url"]

	var targets []crawler.Target
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		if urlIdx >= len(record) {
			continue
		}
		u := strings.TrimSpace(record[urlIdx])
		if u == "" {
			continue
		}
		t := crawler.Target{URL: u}
		if hasName && nameIdx < len(record) {
			t.ReferenceCompanyName = strings.TrimSpace(record[nameIdx])
		}
		if hasForm && formIdx < len(record) {
			t.ReferenceFormURL = strings.TrimSpace(record[formIdx])
		}
		targets = append(targets, t)
	}
	return targets, nil
}

func readNDJSONTargets(r io.Reader) ([]crawler.Target, error) {
	var targets []crawler.Target
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		raw := strings.TrimSpace(sc.Text())
		if raw == "" {
			continue
		}
		var rec struct {
			URL         string `json:"url"`
			CompanyName string `json:"company_name"`
			FormURL     string `json:"form_url"`
		}
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			log.Warn().Int("line", line).Err(err).Msg("skipping malformed NDJSON input line")
			continue
		}
		if rec.URL == "" {
			continue
		}
		targets = append(targets, crawler.Target{
			URL:                  rec.URL,
			ReferenceCompanyName: rec.CompanyName,
			ReferenceFormURL:     rec.FormURL,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read ndjson input: %w", err)
	}
	return targets, nil
}

// readLineTargets treats each non-empty, non-comment line as a URL.
func readLineTargets(r io.Reader) ([]crawler.Target, error) {
	var targets []crawler.Target
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		targets = append(targets, crawler.Target{URL: line})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return targets, nil
}
