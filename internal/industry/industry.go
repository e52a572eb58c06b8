// Package industry classifies a company's industry from its web page.
// Classification is a closed-taxonomy keyword match over structured data,
// metadata and weighted page text; an unclassifiable page yields no value
// rather than a guess.
package industry

import (
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"github.com/AnMoreNight/crawling/internal/candidate"
	"github.com/AnMoreNight/crawling/internal/dom"
)

// Detection source tags.
const (
	SourceDomainHint = "domain-hint"
	SourceJSONLD     = "jsonld"
	SourceMetadata   = "metadata"
	SourceText       = "text"
)

// Config tunes one classifier instance.
type Config struct {
	// Taxonomy overrides DefaultTaxonomy when non-nil.
	Taxonomy []Industry
}

// Classifier assigns an industry label to one page.
type Classifier struct {
	base     string
	taxonomy []Industry
}

func New(baseURL string, cfg Config) *Classifier {
	tax := cfg.Taxonomy
	if tax == nil {
		tax = DefaultTaxonomy
	}
	return &Classifier{base: baseURL, taxonomy: tax}
}

// Extract runs every source and selects the highest-confidence candidate.
// The result may have no selection; industry is nullable downstream.
func (c *Classifier) Extract(htmlContent string, finalURL string) candidate.Result {
	pageURL := finalURL
	if pageURL == "" {
		pageURL = c.base
	}

	var cands []candidate.Candidate
	if hint := c.domainHint(pageURL); hint != "" {
		cands = append(cands, candidate.Candidate{Value: hint, Source: SourceDomainHint, Confidence: 0.4})
	}

	doc, err := dom.Parse(htmlContent, pageURL)
	if err != nil {
		log.Warn().Err(err).Str("url", pageURL).Msg("industry: parse failed")
	} else {
		if jc := c.fromJSONLD(doc); jc != nil {
			cands = append(cands, *jc)
		}
		if mc := c.fromMetadata(doc); mc != nil {
			cands = append(cands, *mc)
		}
		if tc := c.fromText(doc); tc != nil {
			cands = append(cands, *tc)
		}
	}

	candidate.SortByConfidence(cands)
	result := candidate.Result{Candidates: cands}
	if top := candidate.Top(cands); top != nil {
		result.Selected = top
		log.Info().Str("industry", top.Value).Str("source", top.Source).Float64("confidence", top.Confidence).Msg("industry extracted")
	}
	return result
}

// domainHint matches the bare domain label against taxonomy keywords.
// Exact match only, so "bank.example" hints finance while "bankside" does
// not.
func (c *Classifier) domainHint(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	label := strings.Split(host, ".")[0]
	for _, ind := range c.taxonomy {
		for _, kw := range append(append([]string{}, ind.EN...), ind.JA...) {
			if strings.ToLower(kw) == label {
				return ind.Label
			}
		}
	}
	return ""
}

func (c *Classifier) fromJSONLD(doc *dom.Document) *candidate.Candidate {
	for _, block := range doc.JSONLD() {
		if label := c.industryFromJSON(block); label != "" {
			return &candidate.Candidate{Value: label, Source: SourceJSONLD, Confidence: 0.9}
		}
	}
	return nil
}

// industryFromJSON walks a JSON-LD block looking for explicit industry
// fields, mappable schema.org types, and finally keywords anywhere in the
// structure. Map keys are visited in sorted order.
func (c *Classifier) industryFromJSON(v any) string {
	switch t := v.(type) {
	case map[string]any:
		for _, field := range []string{"industry", "sector", "businessType", "description"} {
			if raw, ok := t[field]; ok {
				if s, ok := raw.(string); ok {
					if label := c.matchKeywords(strings.ToLower(s)); label != "" {
						return label
					}
				}
			}
		}
		if typ, ok := t["@type"].(string); ok {
			if mapped, known := schemaTypeMapping[strings.ToLower(typ)]; known && mapped != "" {
				return mapped
			}
		}
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			switch t[k].(type) {
			case map[string]any, []any:
				if label := c.industryFromJSON(t[k]); label != "" {
					return label
				}
			}
		}
	case []any:
		for _, item := range t {
			if label := c.industryFromJSON(item); label != "" {
				return label
			}
		}
	}
	return ""
}

// metaSources are checked in order; the first whose content matches any
// keyword wins, at that source's confidence.
var metaSources = []struct {
	selector   string
	confidence float64
}{
	{`meta[name="description"]`, 0.8},
	{`meta[property="og:description"]`, 0.8},
	{`meta[name="keywords"]`, 0.75},
	{`meta[name="industry"]`, 0.85},
	{`meta[name="business"]`, 0.8},
}

func (c *Classifier) fromMetadata(doc *dom.Document) *candidate.Candidate {
	for _, src := range metaSources {
		content, ok := doc.Find(src.selector).First().Attr("content")
		if !ok || content == "" {
			continue
		}
		if label := c.matchKeywords(strings.ToLower(content)); label != "" {
			return &candidate.Candidate{Value: label, Source: SourceMetadata, Confidence: src.confidence}
		}
	}
	return nil
}

// fromText searches a weighted slice of the page text: title, the first
// three h1 headings, the meta description, and up to 500 characters of each
// about/company section. The weights decide what gets included and how much
// of it; matching itself is a flat keyword count over the joined text.
func (c *Classifier) fromText(doc *dom.Document) *candidate.Candidate {
	var sections []string

	if title := doc.Find("title").First().Text(); title != "" {
		sections = append(sections, title)
	}
	doc.Find("h1").Each(func(i int, h *goquery.Selection) {
		if i < 3 {
			sections = append(sections, h.Text())
		}
	})
	if desc, ok := doc.Find(`meta[name="description"]`).First().Attr("content"); ok {
		sections = append(sections, desc)
	}
	doc.Find("section,div").Each(func(_ int, s *goquery.Selection) {
		class, _ := s.Attr("class")
		id, _ := s.Attr("id")
		marker := strings.ToLower(class + " " + id)
		for _, kw := range []string{"about", "company", "intro", "description"} {
			if strings.Contains(marker, kw) {
				text := s.Text()
				if runes := []rune(text); len(runes) > 500 {
					text = string(runes[:500])
				}
				sections = append(sections, text)
				break
			}
		}
	})

	combined := strings.ToLower(strings.Join(sections, " "))
	if label := c.matchKeywords(combined); label != "" {
		return &candidate.Candidate{Value: label, Source: SourceText, Confidence: 0.7}
	}
	return nil
}

// matchKeywords counts keyword hits per industry over already-lowercased
// text and returns the industry with the strictly highest count. On a tie
// the industry declared earlier in the taxonomy keeps the win.
func (c *Classifier) matchKeywords(text string) string {
	if text == "" {
		return ""
	}
	best := ""
	bestScore := 0
	for _, ind := range c.taxonomy {
		score := 0
		for _, kw := range ind.EN {
			if strings.Contains(text, strings.ToLower(kw)) {
				score++
			}
		}
		for _, kw := range ind.JA {
			if strings.Contains(text, kw) {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			best = ind.Label
		}
	}
	return best
}
