// Package contactform finds the best contact form URL for a site. It walks
// the root page's internal links, keeps those whose text or path look like a
// contact page, fetches each surviving candidate under the robots policy,
// and scores it on what the fetched page actually contains.
package contactform

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"github.com/AnMoreNight/crawling/internal/dom"
	"github.com/AnMoreNight/crawling/internal/fetch"
	"github.com/AnMoreNight/crawling/internal/similarity"
)

// japaneseKeywords match contact-page link text on Japanese sites.
var japaneseKeywords = []string{
	"お問い合わせ",
	"お問合せ",
	"問い合わせ",
	"ご相談",
	"資料請求",
	"応募フォーム",
	"コンタクト",
	"お申し込み",
	"お問い合わせフォーム",
	"問い合わせフォーム",
}

var englishKeywords = []string{
	"contact",
	"inquiry",
	"support",
	"form",
	"request",
	"consultation",
}

var urlPatternRe = regexp.MustCompile(
	`(?i)/(contact|inquiry|support|form|otoiawase|toiawase|contact-us|soudan|shiryou|oubo)(/|$)`)

var emailFieldPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)type=["']email["']`),
	regexp.MustCompile(`(?i)name=["'][^"']*email[^"']*["']`),
	regexp.MustCompile(`(?i)id=["'][^"']*email[^"']*["']`),
	regexp.MustCompile(`(?i)placeholder=["'][^"']*email[^"']*["']`),
}

// Candidate is one scored contact-page candidate. Serialized into the crawl
// result as-is.
type Candidate struct {
	URL      string   `json:"url"`
	Score    float64  `json:"score"`
	HasForm  bool     `json:"has_form"`
	Keywords []string `json:"keywords"`

	linkText       string
	hasEmailFields bool
	inHeaderFooter bool
}

// Result is the detection outcome. FormURL is empty when nothing qualified;
// Remarks always says why.
type Result struct {
	FormURL    string      `json:"form_url,omitempty"`
	Candidates []Candidate `json:"candidates"`
	Remarks    string      `json:"remarks"`
}

// Fetcher fetches candidate pages. Satisfied by *fetch.Client.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*fetch.Result, error)
}

// RobotsChecker gates candidate fetches. Satisfied by *robots.Checker.
type RobotsChecker interface {
	IsAllowed(ctx context.Context, url string, policy string) bool
}

// Detector holds the collaborators for one detection run. A nil Fetcher is
// reported in the result rather than panicking.
type Detector struct {
	Fetcher Fetcher
	Robots  RobotsChecker
	// Policy is passed through to the robots checker for every candidate
	// fetch.
	Policy string
	// ReferenceURL, when set, selects the candidate whose path is closest
	// to it (cutoff 0.7) ahead of the score ranking.
	ReferenceURL string
}

// Detect finds the best contact form URL reachable from rootURL.
func (d *Detector) Detect(ctx context.Context, rootURL string) Result {
	if d.Fetcher == nil {
		return Result{Candidates: []Candidate{}, Remarks: "Fetcher not available"}
	}

	res, err := d.Fetcher.Fetch(ctx, rootURL)
	if err != nil {
		return Result{Candidates: []Candidate{}, Remarks: fmt.Sprintf("Failed to fetch root page: %v", err)}
	}
	if res.Body == "" || res.StatusCode != 200 {
		return Result{Candidates: []Candidate{}, Remarks: fmt.Sprintf("Failed to fetch root page: HTTP %d", res.StatusCode)}
	}

	doc, err := dom.Parse(res.Body, res.FinalURL)
	if err != nil {
		return Result{Candidates: []Candidate{}, Remarks: fmt.Sprintf("Failed to fetch root page: %v", err)}
	}

	candidates := identifyCandidates(doc)
	log.Info().Int("candidates", len(candidates)).Str("url", rootURL).Msg("contact form candidates identified")

	var scored []Candidate
	for _, c := range candidates {
		sc, ok := d.scoreCandidate(ctx, c)
		if !ok {
			continue
		}
		scored = append(scored, sc)
		log.Debug().Str("url", sc.URL).Float64("score", sc.Score).Bool("has_form", sc.HasForm).Msg("contact form candidate scored")
	}

	result := Result{Candidates: scored}
	if result.Candidates == nil {
		result.Candidates = []Candidate{}
	}

	if d.ReferenceURL != "" {
		if best, ok := fuzzyPathMatch(d.ReferenceURL, scored); ok {
			result.FormURL = best.URL
			result.Remarks = generateRemarks(best, scored) + " (fuzzy/path match)"
			return result
		}
	}

	if len(scored) == 0 {
		result.Remarks = "No contact form candidates found"
		return result
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	best := scored[0]
	if best.Score > 0 {
		result.FormURL = best.URL
		result.Remarks = generateRemarks(best, scored)
		log.Info().Str("url", best.URL).Float64("score", best.Score).Msg("contact form URL selected")
	} else {
		result.Remarks = "No candidate scored above 0"
	}
	return result
}

// identifyCandidates keeps same-domain links whose text or path suggests a
// contact page, in document order, deduplicated by absolute URL.
func identifyCandidates(doc *dom.Document) []Candidate {
	var candidates []Candidate
	seen := make(map[string]struct{})

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		abs := doc.Resolve(href)
		if abs == "" {
			return
		}
		u, err := url.Parse(abs)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return
		}
		if u.Hostname() != doc.Base().Hostname() {
			return
		}
		if _, dup := seen[abs]; dup {
			return
		}

		linkText := strings.TrimSpace(a.Text())
		path := strings.ToLower(u.Path)

		urlMatches := urlPatternRe.MatchString(abs)
		textJP := matchingKeywords(linkText, japaneseKeywords, false)
		textEN := matchingKeywords(linkText, englishKeywords, true)
		pathJP := containsAnyFold(path, japaneseKeywords, false)
		pathEN := containsAnyFold(path, englishKeywords, false)

		if !urlMatches && len(textJP) == 0 && len(textEN) == 0 && !pathJP && !pathEN {
			return
		}

		keywords := append(append([]string{}, textJP...), textEN...)
		if urlMatches {
			keywords = append(keywords, "url_pattern")
		}
		candidates = append(candidates, Candidate{URL: abs, Keywords: keywords, linkText: linkText})
		seen[abs] = struct{}{}
	})

	return candidates
}

// scoreCandidate fetches a candidate page and scores it. A robots denial or
// fetch failure drops the candidate entirely.
func (d *Detector) scoreCandidate(ctx context.Context, c Candidate) (Candidate, bool) {
	if d.Robots != nil && !d.Robots.IsAllowed(ctx, c.URL, d.Policy) {
		log.Debug().Str("url", c.URL).Msg("robots.txt disallows contact form candidate")
		return c, false
	}

	res, err := d.Fetcher.Fetch(ctx, c.URL)
	if err != nil || res.Body == "" || res.StatusCode != 200 {
		log.Debug().Err(err).Str("url", c.URL).Msg("failed to fetch contact form candidate")
		return c, false
	}
	if res.FinalURL != "" {
		c.URL = res.FinalURL
	}

	page, err := dom.Parse(res.Body, c.URL)
	if err != nil {
		return c, false
	}

	if c.linkText != "" {
		if len(matchingKeywords(c.linkText, japaneseKeywords, false)) > 0 ||
			len(matchingKeywords(c.linkText, englishKeywords, true)) > 0 {
			c.Score += 0.6
		}
	}
	if urlPatternRe.MatchString(c.URL) {
		c.Score += 0.5
	}
	if page.Find("form").Length() > 0 {
		c.HasForm = true
		c.Score += 0.8
		for _, re := range emailFieldPatterns {
			if re.MatchString(res.Body) {
				c.hasEmailFields = true
				c.Score += 0.2
				break
			}
		}
	}
	if inHeaderFooter(page, c.URL) {
		c.inHeaderFooter = true
		c.Score += 0.3
	}
	c.Score = math.Round(c.Score*100) / 100
	return c, true
}

// inHeaderFooter reports whether the URL is linked from the page's header or
// footer. Site navigation repeats on every page, so the candidate page's own
// chrome is checked.
func inHeaderFooter(doc *dom.Document, target string) bool {
	for _, section := range []*goquery.Selection{doc.Header(), doc.Footer()} {
		found := false
		section.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
			href, _ := a.Attr("href")
			if doc.Resolve(href) == target {
				found = true
				return false
			}
			return true
		})
		if found {
			return true
		}
	}
	return false
}

// normalizeURLPath reduces a URL to a comparable path: lowercased, trailing
// slash removed, common index and contact filenames stripped.
func normalizeURLPath(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	path := strings.ToLower(u.Path)
	if strings.HasSuffix(path, "/") && path != "/" {
		path = strings.TrimSuffix(path, "/")
	}
	for _, suffix := range []string{"/index.html", "/index.htm", "/contactus.html", "/contact.html", "/inquiry.html"} {
		if strings.HasSuffix(path, suffix) {
			path = strings.TrimSuffix(path, suffix)
			break
		}
	}
	return path
}

// fuzzyPathMatch returns the scored candidate whose normalized path is
// closest to the reference URL's, at a similarity cutoff of 0.7.
func fuzzyPathMatch(reference string, scored []Candidate) (Candidate, bool) {
	if reference == "" || len(scored) == 0 {
		return Candidate{}, false
	}
	paths := make([]string, len(scored))
	for i, c := range scored {
		paths[i] = normalizeURLPath(c.URL)
	}
	best, ok := similarity.Closest(normalizeURLPath(reference), paths, 0.7)
	if !ok {
		return Candidate{}, false
	}
	for i, p := range paths {
		if p == best {
			return scored[i], true
		}
	}
	return Candidate{}, false
}

func generateRemarks(best Candidate, all []Candidate) string {
	var parts []string
	if best.HasForm {
		parts = append(parts, "Contains form tag")
	} else {
		parts = append(parts, "No form tag found")
	}
	if len(best.Keywords) > 0 {
		kw := best.Keywords
		if len(kw) > 3 {
			kw = kw[:3]
		}
		parts = append(parts, "Keywords: "+strings.Join(kw, ", "))
	}
	if best.hasEmailFields {
		parts = append(parts, "Has email fields")
	}
	if best.inHeaderFooter {
		parts = append(parts, "Found in header/footer")
	}
	parts = append(parts, fmt.Sprintf("Score: %.2f", best.Score))
	if len(all) > 1 {
		parts = append(parts, fmt.Sprintf("Selected from %d candidates", len(all)))
	}
	return strings.Join(parts, "; ")
}

// matchingKeywords returns the keywords present in s, preserving keyword
// declaration order.
func matchingKeywords(s string, keywords []string, fold bool) []string {
	var out []string
	cmp := s
	if fold {
		cmp = strings.ToLower(s)
	}
	for _, kw := range keywords {
		k := kw
		if fold {
			k = strings.ToLower(kw)
		}
		if strings.Contains(cmp, k) {
			out = append(out, kw)
		}
	}
	return out
}

func containsAnyFold(s string, keywords []string, fold bool) bool {
	if fold {
		s = strings.ToLower(s)
	}
	for _, kw := range keywords {
		k := kw
		if fold {
			k = strings.ToLower(kw)
		}
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
