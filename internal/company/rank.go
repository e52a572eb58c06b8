package company

import (
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/AnMoreNight/crawling/internal/dom"
)

// Scored is one entry of the wide-pool ranking.
type Scored struct {
	Value string
	Score int
}

var (
	kanaRe      = regexp.MustCompile(`[ぁ-んァ-ン]`)
	separatorRe = regexp.MustCompile(`[|｜\-–—:：/]`)
)

// junkKeywords each cost a penalty when present in a pool entry.
var junkKeywords = []string{
	"ホームページ", "サイト", "婚活", "お問い合わせ", "ブログ", "公式", "ページ",
}

// poolSelectors widen the candidate pool beyond the priority detectors.
var poolSelectors = []string{
	".site-title", ".company-name", ".brand", ".logo-text",
	`meta[name="author"]`, `meta[name="publisher"]`,
}

// ScoreName applies the pool ranking rubric to a single cleaned name.
// Shorter names score better, a legal-entity suffix and kana both count
// for, heavy separator use and marketing words count against.
func ScoreName(name string) int {
	score := 0
	n := len([]rune(name))
	switch {
	case n <= 30:
		score += 10
	case n <= 50:
		score += 5
	}
	if hasLegalEntity(name) {
		score += 20
	}
	if kanaRe.MatchString(name) {
		score += 8
	}
	if len(separatorRe.FindAllString(name, -1)) > 2 {
		score -= 10
	}
	for _, kw := range junkKeywords {
		if strings.Contains(name, kw) {
			score -= 5
		}
	}
	return score
}

// RankPool gathers every plausible name on the page into one pool and sorts
// it by rubric score. Used to widen reference matching beyond the priority
// detectors.
func RankPool(doc *dom.Document) []Scored {
	var raw []string
	add := func(s string) {
		if cleaned := CleanName(s); IsValidName(cleaned) {
			raw = append(raw, cleaned)
		}
	}

	if title := doc.Find("title").First().Text(); title != "" {
		add(TitleLeadingSegment(title))
	}
	for _, sel := range []string{`meta[property="og:title"]`, `meta[property="og:site_name"]`} {
		if content, ok := doc.Find(sel).First().Attr("content"); ok {
			add(content)
		}
	}
	doc.Find("h1").Each(func(_ int, h *goquery.Selection) {
		add(h.Text())
	})
	for _, sel := range poolSelectors {
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			if content, ok := s.Attr("content"); ok {
				add(content)
				return
			}
			add(s.Text())
		})
	}
	doc.Find("img[alt]").Each(func(_ int, img *goquery.Selection) {
		alt, _ := img.Attr("alt")
		if hasLegalEntity(alt) || japaneseRe.MatchString(alt) {
			add(alt)
		}
	})
	for _, name := range organizationNames(doc.JSONLD()) {
		add(name)
	}
	for _, m := range legalEntityRe.FindAllString(doc.Find("body").Text(), 10) {
		add(m)
	}

	seen := make(map[string]struct{}, len(raw))
	pool := make([]Scored, 0, len(raw))
	for _, v := range raw {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		pool = append(pool, Scored{Value: v, Score: ScoreName(v)})
	}
	sort.SliceStable(pool, func(i, j int) bool { return pool[i].Score > pool[j].Score })
	return pool
}

// organizationNames pulls name fields from Organization-like JSON-LD blocks.
func organizationNames(blocks []any) []string {
	var names []string
	var walk func(v any)
	walk = func(v any) {
		switch t := v.(type) {
		case map[string]any:
			typ, _ := t["@type"].(string)
			if typ == "Organization" || typ == "LocalBusiness" || typ == "Corporation" {
				if name, ok := t["name"].(string); ok {
					names = append(names, name)
				}
			}
			keys := make([]string, 0, len(t))
			for k := range t {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				walk(t[k])
			}
		case []any:
			for _, item := range t {
				walk(item)
			}
		}
	}
	for _, b := range blocks {
		walk(b)
	}
	return names
}
