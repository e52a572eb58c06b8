package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig represents the single-file configuration schema. Nested
// sections map naturally to flags.
type FileConfig struct {
	URL    string `yaml:"url" json:"url"`
	Input  string `yaml:"input" json:"input"`
	Output string `yaml:"output" json:"output"`
	CSV    string `yaml:"csv" json:"csv"`

	Crawl struct {
		UserAgent       string        `yaml:"userAgent" json:"userAgent"`
		RobotsPolicy    string        `yaml:"robotsPolicy" json:"robotsPolicy"`
		Timeout         time.Duration `yaml:"timeout" json:"timeout"`
		ExcludePatterns []string      `yaml:"excludePatterns" json:"excludePatterns"`
	} `yaml:"crawl" json:"crawl"`

	Extract struct {
		ValidateDNS      bool  `yaml:"validateDNS" json:"validateDNS"`
		RenderFallback   bool  `yaml:"renderFallback" json:"renderFallback"`
		SecondaryFetches *bool `yaml:"secondaryFetches" json:"secondaryFetches"`
	} `yaml:"extract" json:"extract"`

	Verbose bool `yaml:"verbose" json:"verbose"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		// Try YAML then JSON
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// Defaults shared by flag parsing and file-config overlay.
const (
	UserAgentDefault = "CrawlerBot/1.0"
	TimeoutDefault   = 30 * time.Second
)

// ApplyFileConfig overlays values from FileConfig into cfg for any fields
// that are currently unset/zero in cfg. Flags should already have been
// parsed; this lets file config supply defaults while preserving explicit
// flags.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	if cfg.URL == "" && fc.URL != "" {
		cfg.URL = fc.URL
	}
	if cfg.InputPath == "" && fc.Input != "" {
		cfg.InputPath = fc.Input
	}
	if cfg.OutputPath == "" && fc.Output != "" {
		cfg.OutputPath = fc.Output
	}
	if cfg.CSVExportPath == "" && fc.CSV != "" {
		cfg.CSVExportPath = fc.CSV
	}

	if (cfg.UserAgent == "" || cfg.UserAgent == UserAgentDefault) && fc.Crawl.UserAgent != "" {
		cfg.UserAgent = fc.Crawl.UserAgent
	}
	if cfg.RobotsPolicy == "" && fc.Crawl.RobotsPolicy != "" {
		cfg.RobotsPolicy = fc.Crawl.RobotsPolicy
	}
	if (cfg.Timeout == 0 || cfg.Timeout == TimeoutDefault) && fc.Crawl.Timeout > 0 {
		cfg.Timeout = fc.Crawl.Timeout
	}
	if len(cfg.ExcludePatterns) == 0 && len(fc.Crawl.ExcludePatterns) > 0 {
		cfg.ExcludePatterns = append([]string{}, fc.Crawl.ExcludePatterns...)
	}

	if !cfg.ValidateDNS && fc.Extract.ValidateDNS {
		cfg.ValidateDNS = true
	}
	if !cfg.RenderFallback && fc.Extract.RenderFallback {
		cfg.RenderFallback = true
	}
	if fc.Extract.SecondaryFetches != nil {
		cfg.SecondaryFetches = *fc.Extract.SecondaryFetches
	}

	if !cfg.Verbose && fc.Verbose {
		cfg.Verbose = true
	}
}
