// Package company extracts a company name from a fetched corporate page.
// Six detectors run in priority order, from header logo alt text down to a
// domain-name fallback; the highest-confidence surviving candidate wins.
// Aimed at Japanese corporate sites, where a legal-entity suffix such as
// 株式会社 is the strongest available signal.
package company

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/AnMoreNight/crawling/internal/candidate"
	"github.com/AnMoreNight/crawling/internal/dom"
	"github.com/AnMoreNight/crawling/internal/fetch"
	"github.com/AnMoreNight/crawling/internal/similarity"
)

// Detection source tags, in priority order.
const (
	SourceHeaderImageAlt = "header_image_alt"
	SourceMetadata       = "metadata"
	SourceHeaderFooter   = "header_footer"
	SourceProfilePage    = "company_profile_page"
	SourceTextNER        = "text_ner"
	SourceDomainFallback = "domain_fallback"
	SourceReferenceMatch = "reference_match"
)

// Per-source confidence values.
const (
	confHeaderImageAlt = 0.95
	confMetadata       = 0.9
	confProfilePage    = 0.85
	confHeaderFooter   = 0.8
	confTextNER        = 0.6
	confDomainFallback = 0.3
)

// legalEntityMarkers is the closed list of Japanese corporate and juridical
// person suffixes.
var legalEntityMarkers = []string{
	"株式会社", "有限会社", "合同会社", "合資会社", "合名会社",
	"一般社団法人", "一般財団法人", "公益社団法人", "公益財団法人",
	"特定非営利活動法人", "学校法人", "医療法人", "社会医療法人",
	"社会福祉法人", "宗教法人",
}

var (
	legalEntityRe = regexp.MustCompile(
		`(株式会社|有限会社|合同会社|合資会社|合名会社|一般社団法人|一般財団法人|` +
			`公益社団法人|公益財団法人|特定非営利活動法人|学校法人|医療法人|` +
			`社会医療法人|社会福祉法人|宗教法人)` +
			`[A-Za-z0-9一-龥ぁ-んァ-ン・ー\s]+`)
	copyrightRe = regexp.MustCompile(`[©Ⓒ]\s*(株式会社|有限会社|合同会社)[A-Za-z0-9一-龥ぁ-んァ-ン・ー\s]+`)
	japaneseRe  = regexp.MustCompile(`[一-龥ぁ-んァ-ン]`)
)

// infoPageKeywords locate a "company profile" sub-page by link text.
var infoPageKeywords = []string{
	"会社概要", "会社情報", "企業情報", "企業概要",
	"About", "About us", "About Us", "会社について", "企業について",
}

// nameFieldKeywords match the label cell of a profile page's name row.
var nameFieldKeywords = []string{
	"会社名", "Company Name", "法人名", "企業名", "商号", "名称",
}

// Fetcher is the secondary-fetch capability used for the company profile
// page. Satisfied by *fetch.Client.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*fetch.Result, error)
}

// Config tunes one extractor instance.
type Config struct {
	// Fetcher enables the company-profile-page detector when non-nil.
	Fetcher Fetcher
	// ReferenceName, when set, switches selection to fuzzy matching against
	// the gathered candidate pool (cutoff 0.7), preferring the candidate
	// closest to the known name over the confidence ranking.
	ReferenceName string
}

// Extractor finds the company name on one page. Construct per page.
type Extractor struct {
	base *url.URL
	cfg  Config
}

func New(baseURL string, cfg Config) (*Extractor, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	return &Extractor{base: u, cfg: cfg}, nil
}

// Extract runs every detector in priority order. Company name always selects
// the top-ranked candidate when any exists; there is no threshold.
func (e *Extractor) Extract(ctx context.Context, htmlContent string, finalURL string) candidate.Result {
	pageURL := finalURL
	if pageURL == "" {
		pageURL = e.base.String()
	}
	doc, err := dom.Parse(htmlContent, pageURL)
	if err != nil {
		log.Warn().Err(err).Str("url", pageURL).Msg("company: parse failed")
		return candidate.Result{}
	}

	var cands []candidate.Candidate
	appendIf := func(c *candidate.Candidate) {
		if c != nil {
			cands = append(cands, *c)
		}
	}
	appendIf(e.fromHeaderImageAlt(doc))
	appendIf(e.fromMetadata(doc))
	appendIf(e.fromHeaderFooter(doc))
	appendIf(e.fromProfilePage(ctx, doc))
	appendIf(e.fromText(doc))
	appendIf(e.fromDomain(pageURL))

	cands = candidate.Dedupe(cands)
	candidate.SortByConfidence(cands)

	result := candidate.Result{Candidates: cands}

	if e.cfg.ReferenceName != "" {
		if ref := e.matchReference(cands, doc); ref != nil {
			result.Selected = ref
			log.Info().Str("name", ref.Value).Msg("company name matched reference")
			return result
		}
	}

	if top := candidate.Top(cands); top != nil {
		result.Selected = top
		log.Info().Str("name", top.Value).Str("source", top.Source).Float64("confidence", top.Confidence).Msg("company name selected")
	}
	return result
}

// matchReference prefers the name whose normalized form is closest to the
// known reference name, at a similarity cutoff of 0.7. The pool is the
// detector candidates widened with the rubric-ranked page pool.
func (e *Extractor) matchReference(cands []candidate.Candidate, doc *dom.Document) *candidate.Candidate {
	values := make([]string, 0, len(cands))
	for _, c := range cands {
		values = append(values, c.Value)
	}
	for _, s := range RankPool(doc) {
		values = append(values, s.Value)
	}
	if len(values) == 0 {
		return nil
	}
	pool := make([]string, len(values))
	for i, v := range values {
		pool[i] = normalizeForMatch(v)
	}
	target := normalizeForMatch(e.cfg.ReferenceName)
	best, ok := similarity.Closest(target, pool, 0.7)
	if !ok {
		return nil
	}
	for i, p := range pool {
		if p == best {
			return &candidate.Candidate{
				Value:      values[i],
				Source:     SourceReferenceMatch,
				Confidence: similarity.Ratio(target, p),
			}
		}
	}
	return nil
}

func (e *Extractor) fromHeaderImageAlt(doc *dom.Document) *candidate.Candidate {
	header := doc.Header()
	if header.Length() == 0 {
		return nil
	}
	var found *candidate.Candidate
	header.Find("img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		alt, _ := img.Attr("alt")
		alt = strings.TrimSpace(alt)
		if alt == "" {
			return true
		}
		if m := legalEntityRe.FindString(alt); m != "" {
			if cleaned := CleanName(m); IsValidName(cleaned) {
				found = &candidate.Candidate{Value: cleaned, Source: SourceHeaderImageAlt, Confidence: confHeaderImageAlt}
				return false
			}
		}
		// A logo alt that is itself a Japanese name counts even without a
		// legal-entity suffix.
		if cleaned := CleanName(alt); IsValidName(cleaned) {
			if hasLegalEntity(cleaned) || japaneseRe.MatchString(cleaned) {
				found = &candidate.Candidate{Value: cleaned, Source: SourceHeaderImageAlt, Confidence: confHeaderImageAlt}
				return false
			}
		}
		return true
	})
	return found
}

func (e *Extractor) fromMetadata(doc *dom.Document) *candidate.Candidate {
	sources := []string{
		`meta[property="og:site_name"]`,
		`meta[name="application-name"]`,
		`meta[itemprop="name"]`,
	}
	for _, sel := range sources {
		if content, ok := doc.Find(sel).First().Attr("content"); ok {
			if cleaned := CleanName(content); IsValidName(cleaned) {
				return &candidate.Candidate{Value: cleaned, Source: SourceMetadata, Confidence: confMetadata}
			}
		}
	}
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		if cleaned := CleanName(TitleLeadingSegment(title)); IsValidName(cleaned) {
			return &candidate.Candidate{Value: cleaned, Source: SourceMetadata, Confidence: confMetadata}
		}
	}
	return nil
}

func (e *Extractor) fromHeaderFooter(doc *dom.Document) *candidate.Candidate {
	for _, section := range []*goquery.Selection{doc.Header(), doc.Footer()} {
		if section.Length() == 0 {
			continue
		}
		text := section.Text()
		if m := legalEntityRe.FindString(text); m != "" {
			if cleaned := CleanName(m); IsValidName(cleaned) {
				return &candidate.Candidate{Value: cleaned, Source: SourceHeaderFooter, Confidence: confHeaderFooter}
			}
		}
		if m := copyrightRe.FindString(text); m != "" {
			stripped := strings.NewReplacer("©", "", "Ⓒ", "").Replace(m)
			if cleaned := CleanName(stripped); IsValidName(cleaned) {
				return &candidate.Candidate{Value: cleaned, Source: SourceHeaderFooter, Confidence: confHeaderFooter}
			}
		}
	}
	return nil
}

// fromProfilePage follows a 会社概要/About link and reads the name out of a
// label/value table row, falling back to a legal-entity scan of the page.
func (e *Extractor) fromProfilePage(ctx context.Context, doc *dom.Document) *candidate.Candidate {
	if e.cfg.Fetcher == nil {
		return nil
	}
	var profileURL string
	for _, link := range doc.InternalLinks() {
		for _, kw := range infoPageKeywords {
			if strings.Contains(link.Text, kw) {
				profileURL = link.URL
				break
			}
		}
		if profileURL != "" {
			break
		}
	}
	if profileURL == "" {
		return nil
	}

	res, err := e.cfg.Fetcher.Fetch(ctx, profileURL)
	if err != nil || res == nil || res.StatusCode != 200 || res.Body == "" {
		log.Warn().Err(err).Str("url", profileURL).Msg("company: profile page fetch failed")
		return nil
	}
	profile, err := dom.Parse(res.Body, res.FinalURL)
	if err != nil {
		return nil
	}

	var found *candidate.Candidate
	profile.Find("th").EachWithBreak(func(_ int, th *goquery.Selection) bool {
		label := strings.TrimSpace(th.Text())
		if !containsAnyKeyword(label, nameFieldKeywords) {
			return true
		}
		td := th.NextFiltered("td")
		if td.Length() == 0 {
			td = th.Parent().Find("td").First()
		}
		if td.Length() == 0 {
			return true
		}
		if cleaned := CleanName(td.Text()); IsValidName(cleaned) {
			found = &candidate.Candidate{Value: cleaned, Source: SourceProfilePage, Confidence: confProfilePage}
			return false
		}
		return true
	})
	if found != nil {
		return found
	}

	if m := legalEntityRe.FindString(profile.Find("body").Text()); m != "" {
		if cleaned := CleanName(m); IsValidName(cleaned) {
			return &candidate.Candidate{Value: cleaned, Source: SourceProfilePage, Confidence: confProfilePage}
		}
	}
	return nil
}

func (e *Extractor) fromText(doc *dom.Document) *candidate.Candidate {
	var found *candidate.Candidate
	doc.Find("h1,h2,h3").EachWithBreak(func(_ int, h *goquery.Selection) bool {
		if m := legalEntityRe.FindString(h.Text()); m != "" {
			if cleaned := CleanName(m); IsValidName(cleaned) {
				found = &candidate.Candidate{Value: cleaned, Source: SourceTextNER, Confidence: confTextNER}
				return false
			}
		}
		return true
	})
	if found != nil {
		return found
	}
	if m := legalEntityRe.FindString(doc.Find("body").Text()); m != "" {
		if cleaned := CleanName(m); IsValidName(cleaned) {
			return &candidate.Candidate{Value: cleaned, Source: SourceTextNER, Confidence: confTextNER}
		}
	}
	return nil
}

var tldSuffixRe = regexp.MustCompile(`(?i)\.(co\.jp|com|jp|net|org|co|biz)$`)

var titleCaser = cases.Title(language.Und)

// fromDomain is the lowest-confidence catch-all: the host name itself,
// title-cased. Always attempted last.
func (e *Extractor) fromDomain(pageURL string) *candidate.Candidate {
	u, err := url.Parse(pageURL)
	if err != nil || u.Hostname() == "" {
		return nil
	}
	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	host = tldSuffixRe.ReplaceAllString(host, "")
	parts := strings.Split(host, ".")
	label := parts[len(parts)-1]
	name := strings.NewReplacer("-", " ", "_", " ").Replace(label)
	name = titleCaser.String(name)
	if len([]rune(name)) < 2 {
		return nil
	}
	return &candidate.Candidate{Value: name, Source: SourceDomainFallback, Confidence: confDomainFallback}
}

func hasLegalEntity(name string) bool {
	for _, m := range legalEntityMarkers {
		if strings.Contains(name, m) {
			return true
		}
	}
	return false
}

func containsAnyKeyword(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
