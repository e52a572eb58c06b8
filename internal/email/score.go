package email

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/AnMoreNight/crawling/internal/candidate"
	"github.com/AnMoreNight/crawling/internal/dom"
)

// methodBaseScores are the per-detector base points of the 0-100 accumulator.
var methodBaseScores = map[string]int{
	SourceMailto:      40,
	SourceJSONLD:      30,
	SourceMicrodata:   30,
	SourceRegexPlain:  20,
	SourcePlaceholder: 15,
	SourceFormValue:   15,
	SourceObfuscated:  10,
	SourceJSAssembly:  5,
}

// Ancestor class/id markers. Contact-adjacent containers raise confidence;
// comment threads, sidebars, and social widgets lower it.
var (
	contactSectionMarkers = []string{"contact", "footer", "about", "inquiry", "address", "company"}
	lowValueMarkers       = []string{"comment", "sidebar", "social", "blog"}
)

// localPartKeywords mark inbox names that usually belong to a business
// contact point rather than an individual.
var localPartKeywords = []string{
	"contact", "info", "inquiry", "support", "sales", "hello", "team", "business",
	"お問い合わせ", "問い合わせ",
}

var genericLocalParts = []string{"admin", "webmaster", "postmaster"}

// freemailDomains are consumer mail providers; an address there is rarely
// the company's own contact point, so it takes a small penalty rather than
// being rejected outright.
var freemailDomains = map[string]struct{}{
	"gmail.com": {}, "yahoo.com": {}, "hotmail.com": {}, "outlook.com": {},
	"aol.com": {}, "mail.com": {}, "protonmail.com": {}, "icloud.com": {},
	"qq.com": {}, "sina.com": {}, "yahoo.co.jp": {},
}

// score applies the context rubric: the detector's base points plus
// placement, domain, and local-part signals, normalized to [0,1] by dividing
// the 0-100 accumulator by 100 and clamping.
func (e *Extractor) score(c candidate.Candidate, node *html.Node, doc *dom.Document) float64 {
	points := methodBaseScores[c.Source]
	if points == 0 {
		points = 10
	}

	if e.inContactSection(doc, c.Value) {
		points += 15
	}

	at := strings.LastIndexByte(c.Value, '@')
	local, domain := c.Value[:at], c.Value[at+1:]
	domain = strings.TrimPrefix(domain, "www.")

	if domain == e.domain {
		points += 20
	}
	if c.Source == SourceObfuscated {
		points -= 10
	}

	// Ancestor walk: reward contact-adjacent containers, penalize noise.
	// Detectors that scan raw markup have no containing node to walk from.
	for _, anc := range ancestorsOf(node) {
		marker := strings.ToLower(dom.NodeAttr(anc, "class") + " " + dom.NodeAttr(anc, "id"))
		if containsAny(marker, contactSectionMarkers) {
			points += 25
		}
		if containsAny(marker, lowValueMarkers) {
			points -= 15
		}
	}

	if containsAny(local, localPartKeywords) {
		points += 20
	}
	if reg := registeredDomain(e.domain); reg != "" && strings.Contains(domain, reg) {
		points += 25
	}
	if strings.Contains(domain, "-") {
		points += 8
	}
	if c.MethodCount() > 1 {
		points += 10
	}
	if len(local) > 30 {
		points -= 5
	}
	for _, g := range genericLocalParts {
		if local == g {
			points -= 10
			break
		}
	}
	if _, free := freemailDomains[domain]; free {
		points -= 10
	}

	score := float64(points) / 100.0
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// inContactSection reports whether the address appears in the text of the
// page's header, footer, or a contact-marked container.
func (e *Extractor) inContactSection(doc *dom.Document, email string) bool {
	needle := strings.ToLower(email)
	if strings.Contains(strings.ToLower(doc.Footer().Text()), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(doc.Header().Text()), needle) {
		return true
	}
	found := false
	doc.Find(`[class*="contact"],[id*="contact"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.Contains(strings.ToLower(s.Text()), needle) {
			found = true
			return false
		}
		return true
	})
	return found
}

// registeredDomain approximates the registrable part of a host: the last two
// labels, or three when the suffix is a known second-level TLD like co.jp.
func registeredDomain(host string) string {
	labels := strings.Split(host, ".")
	if len(labels) < 2 {
		return host
	}
	suffix := labels[len(labels)-2] + "." + labels[len(labels)-1]
	switch suffix {
	case "co.jp", "or.jp", "ne.jp", "ac.jp", "go.jp", "gr.jp", "co.uk", "com.au":
		if len(labels) >= 3 {
			return labels[len(labels)-3] + "." + suffix
		}
		return suffix
	}
	return suffix
}

func ancestorsOf(n *html.Node) []*html.Node {
	if n == nil {
		return nil
	}
	return dom.Ancestors(n)
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
