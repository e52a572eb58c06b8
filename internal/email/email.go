// Package email extracts business contact email addresses from a fetched
// page. Six detectors run in fixed priority order, their matches are
// normalized, validated, deduplicated, and scored, and the top candidate is
// selected only when it clears the acceptance threshold.
package email

import (
	"context"
	"net"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"

	"github.com/AnMoreNight/crawling/internal/candidate"
	"github.com/AnMoreNight/crawling/internal/dom"
	"github.com/AnMoreNight/crawling/internal/render"
)

// Detection method tags, in priority order.
const (
	SourceMailto      = "mailto_link"
	SourceJSONLD      = "jsonld_schema"
	SourceMicrodata   = "schema_microdata"
	SourceRegexPlain  = "regex_plain"
	SourcePlaceholder = "form_placeholder"
	SourceFormValue   = "form_value"
	SourceObfuscated  = "obfuscated_pattern"
	SourceJSAssembly  = "js_assembly"
)

// AcceptThreshold is the minimum normalized score for a candidate to be
// selected.
const AcceptThreshold = 0.6

var (
	emailPattern     = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	emailExact       = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	mailtoHref       = regexp.MustCompile(`(?i)^mailto:`)
	scriptFingerRe   = regexp.MustCompile(`(?i)<script[^>]*>`)
	jsAssemblyRe     = regexp.MustCompile(`["']([A-Za-z0-9._%+-]+)["']\s*\+\s*["']@["']\s*\+\s*["']([A-Za-z0-9.-]+\.[A-Za-z]{2,})["']`)
	emailFieldAttrRe = regexp.MustCompile(`(?i)email`)
)

// defaultRejectSubstrings drops boilerplate and placeholder addresses before
// scoring. Tuned against Japanese corporate sites; override via Config for
// tests or special corpora.
var defaultRejectSubstrings = []string{
	"noreply",
	"no-reply",
	"test@",
	"@test",
	"example.com",
}

// DNSResolver is the subset of net.Resolver the optional deliverability
// check needs.
type DNSResolver interface {
	LookupMX(ctx context.Context, name string) ([]*net.MX, error)
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// Config tunes one extractor instance.
type Config struct {
	// Renderer enables the JavaScript fallback when non-nil.
	Renderer render.Renderer
	// ValidateDNS enables the MX-then-A record check. Lookup failures count
	// as valid so transient DNS errors never drop real addresses.
	ValidateDNS bool
	// Resolver overrides the DNS resolver; nil means net.DefaultResolver.
	Resolver DNSResolver
	// RejectSubstrings overrides the reject list; nil means the default.
	RejectSubstrings []string
}

// Extractor finds email addresses on one page. Construct a fresh one per
// page; it keeps no state across pages.
type Extractor struct {
	base   *url.URL
	domain string
	cfg    Config
}

// New builds an extractor for a page rooted at baseURL.
func New(baseURL string, cfg Config) (*Extractor, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	if cfg.RejectSubstrings == nil {
		cfg.RejectSubstrings = defaultRejectSubstrings
	}
	return &Extractor{
		base:   u,
		domain: strings.TrimPrefix(strings.ToLower(u.Hostname()), "www."),
		cfg:    cfg,
	}, nil
}

type rawCandidate struct {
	email  string
	method string
	// node is the containing element when a detector has one; nil for
	// detectors that scan raw markup.
	node *html.Node
}

// Extract runs every detector over the page and returns the scored result.
// A failing detector contributes zero candidates; it never aborts the rest.
func (e *Extractor) Extract(ctx context.Context, htmlContent string, finalURL string) candidate.Result {
	pageURL := finalURL
	if pageURL == "" {
		pageURL = e.base.String()
	}

	doc, err := dom.Parse(htmlContent, pageURL)
	if err != nil {
		log.Warn().Err(err).Str("url", pageURL).Msg("email: parse failed")
		return candidate.Result{}
	}

	// JS fallback: when static detection finds nothing and the page smells
	// like an SPA, render once and restart against the real markup.
	if e.cfg.Renderer != nil && e.needsRendering(ctx, htmlContent, doc) {
		rendered, rerr := e.cfg.Renderer.Render(ctx, pageURL)
		if rerr != nil {
			log.Warn().Err(rerr).Str("url", pageURL).Msg("email: render fallback failed")
		} else if rendered != "" {
			if rdoc, perr := dom.Parse(rendered, pageURL); perr == nil {
				htmlContent = rendered
				doc = rdoc
				log.Info().Str("url", pageURL).Msg("email: using rendered markup")
			}
		}
	}

	raw := e.detectAll(doc, htmlContent)

	// Normalize, validate, dedupe keeping the earliest (highest-priority)
	// occurrence and recording the extra methods for the multi-method bonus.
	type agg struct {
		first   rawCandidate
		methods []string
	}
	order := make([]string, 0, len(raw))
	byEmail := map[string]*agg{}
	for _, rc := range raw {
		normalized := Normalize(rc.email)
		if normalized == "" {
			continue
		}
		if !e.validate(ctx, normalized) {
			continue
		}
		a, ok := byEmail[normalized]
		if !ok {
			rc.email = normalized
			byEmail[normalized] = &agg{first: rc}
			order = append(order, normalized)
			continue
		}
		dup := false
		if a.first.method == rc.method {
			dup = true
		}
		for _, m := range a.methods {
			if m == rc.method {
				dup = true
			}
		}
		if !dup {
			a.methods = append(a.methods, rc.method)
		}
	}

	cands := make([]candidate.Candidate, 0, len(order))
	for _, key := range order {
		a := byEmail[key]
		c := candidate.Candidate{
			Value:        a.first.email,
			Source:       a.first.method,
			AlsoDetected: a.methods,
		}
		c.Confidence = e.score(c, a.first.node, doc)
		cands = append(cands, c)
		log.Debug().Str("email", c.Value).Str("method", c.Source).Float64("score", c.Confidence).Msg("email candidate")
	}

	candidate.SortByConfidence(cands)

	result := candidate.Result{Candidates: cands}
	if top := candidate.Top(cands); top != nil && top.Confidence >= AcceptThreshold {
		result.Selected = top
		log.Info().Str("email", top.Value).Float64("confidence", top.Confidence).Msg("email selected")
	}
	return result
}

func (e *Extractor) detectAll(doc *dom.Document, htmlContent string) []rawCandidate {
	var raw []rawCandidate
	raw = append(raw, e.detectMailto(doc)...)
	raw = append(raw, e.detectStructured(doc)...)
	raw = append(raw, e.detectPlain(htmlContent)...)
	raw = append(raw, e.detectFormInputs(doc)...)
	raw = append(raw, e.detectObfuscated(htmlContent)...)
	raw = append(raw, e.detectJSAssembly(doc)...)
	return raw
}

func (e *Extractor) needsRendering(ctx context.Context, htmlContent string, doc *dom.Document) bool {
	lower := strings.ToLower(htmlContent)
	fingerprinted := scriptFingerRe.MatchString(htmlContent) ||
		strings.Contains(lower, "react") ||
		strings.Contains(lower, "vue") ||
		strings.Contains(lower, "angular") ||
		strings.Contains(lower, "ng-")
	if !fingerprinted {
		return false
	}
	// Only addresses that survive validation count as found; a page whose
	// sole static address is reject-listed still deserves the render pass.
	static := append(e.detectMailto(doc), e.detectPlain(htmlContent)...)
	for _, rc := range static {
		if n := Normalize(rc.email); n != "" && e.validate(ctx, n) {
			return false
		}
	}
	return true
}

func (e *Extractor) detectMailto(doc *dom.Document) []rawCandidate {
	var out []rawCandidate
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if !mailtoHref.MatchString(href) {
			return
		}
		if m := emailPattern.FindString(href); m != "" {
			out = append(out, rawCandidate{email: m, method: SourceMailto, node: firstNode(s)})
		}
	})
	return out
}

func (e *Extractor) detectStructured(doc *dom.Document) []rawCandidate {
	var out []rawCandidate
	for _, block := range doc.JSONLD() {
		for _, m := range emailsFromJSON(block, nil) {
			out = append(out, rawCandidate{email: m, method: SourceJSONLD})
		}
	}
	doc.Find(`[itemtype*="schema.org"] [itemprop]`).Each(func(_ int, s *goquery.Selection) {
		prop, _ := s.Attr("itemprop")
		if !emailFieldAttrRe.MatchString(prop) {
			return
		}
		v, ok := s.Attr("content")
		if !ok {
			v = s.Text()
		}
		if m := emailPattern.FindString(v); m != "" {
			out = append(out, rawCandidate{email: m, method: SourceMicrodata, node: firstNode(s)})
		}
	})
	return out
}

// emailsFromJSON collects every string value in a decoded JSON-LD block that
// looks like an email address, in a stable key order.
func emailsFromJSON(v any, acc []string) []string {
	switch t := v.(type) {
	case map[string]any:
		for _, key := range sortedKeys(t) {
			val := t[key]
			if s, ok := val.(string); ok {
				if emailExact.MatchString(strings.TrimSpace(s)) {
					acc = append(acc, strings.TrimSpace(s))
				}
				continue
			}
			acc = emailsFromJSON(val, acc)
		}
	case []any:
		for _, item := range t {
			acc = emailsFromJSON(item, acc)
		}
	}
	return acc
}

func (e *Extractor) detectPlain(htmlContent string) []rawCandidate {
	var out []rawCandidate
	for _, m := range emailPattern.FindAllString(htmlContent, -1) {
		out = append(out, rawCandidate{email: m, method: SourceRegexPlain})
	}
	return out
}

func (e *Extractor) detectFormInputs(doc *dom.Document) []rawCandidate {
	var out []rawCandidate
	doc.Find("input").Each(func(_ int, s *goquery.Selection) {
		typ, _ := s.Attr("type")
		placeholder, _ := s.Attr("placeholder")
		if !strings.EqualFold(typ, "email") && !emailFieldAttrRe.MatchString(placeholder) {
			return
		}
		if m := emailPattern.FindString(placeholder); m != "" {
			out = append(out, rawCandidate{email: m, method: SourcePlaceholder, node: firstNode(s)})
		}
		if value, ok := s.Attr("value"); ok {
			if m := emailPattern.FindString(value); m != "" {
				out = append(out, rawCandidate{email: m, method: SourceFormValue, node: firstNode(s)})
			}
		}
	})
	return out
}

func (e *Extractor) detectObfuscated(htmlContent string) []rawCandidate {
	var out []rawCandidate
	for _, pat := range obfuscationPatterns {
		for _, loc := range pat.re.FindAllStringIndex(htmlContent, -1) {
			start := loc[0] - 50
			if start < 0 {
				start = 0
			}
			end := loc[1] + 50
			if end > len(htmlContent) {
				end = len(htmlContent)
			}
			snippet := deobfuscate(htmlContent[start:end])
			if m := emailPattern.FindString(snippet); m != "" {
				out = append(out, rawCandidate{email: m, method: SourceObfuscated})
			}
		}
	}
	return out
}

func (e *Extractor) detectJSAssembly(doc *dom.Document) []rawCandidate {
	var out []rawCandidate
	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		body := s.Text()
		if body == "" {
			return
		}
		for _, m := range jsAssemblyRe.FindAllStringSubmatch(body, -1) {
			local, domain := m[1], m[2]
			if strings.Contains(local, "@") {
				continue
			}
			assembled := local + "@" + domain
			if emailExact.MatchString(assembled) {
				out = append(out, rawCandidate{email: assembled, method: SourceJSAssembly, node: firstNode(s)})
			}
		}
	})
	return out
}

// validate drops reject-listed addresses and optionally checks DNS records.
func (e *Extractor) validate(ctx context.Context, email string) bool {
	if !emailExact.MatchString(email) {
		return false
	}
	for _, bad := range e.cfg.RejectSubstrings {
		if strings.Contains(email, bad) {
			return false
		}
	}
	if !e.cfg.ValidateDNS {
		return true
	}
	return e.hasDNSRecords(ctx, email)
}

func (e *Extractor) hasDNSRecords(ctx context.Context, email string) bool {
	at := strings.LastIndexByte(email, '@')
	if at < 0 {
		return false
	}
	domain := email[at+1:]
	var resolver DNSResolver = e.cfg.Resolver
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	// MX first, then A; an empty MX answer is not a dead domain.
	if mx, err := resolver.LookupMX(ctx, domain); err == nil && len(mx) > 0 {
		return true
	}
	if hosts, err := resolver.LookupHost(ctx, domain); err == nil {
		return len(hosts) > 0
	}
	// Transient DNS failure: do not drop a plausible address.
	log.Debug().Str("domain", domain).Msg("email: dns lookup failed; keeping candidate")
	return true
}

func firstNode(s *goquery.Selection) *html.Node {
	if len(s.Nodes) == 0 {
		return nil
	}
	return s.Nodes[0]
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// insertion sort; JSON-LD objects are small
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j] < keys[j-1]; j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
	return keys
}
