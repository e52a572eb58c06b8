package company

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// cleanSuffixes strip marketing tails commonly appended to titles and
// site names.
var cleanSuffixes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\s*[|｜\-–—:：]\s*(公式|オフィシャル|ホームページ|サイト|HP|Official|Home\s*Page|Website).*$`),
	regexp.MustCompile(`(?i)\s*(公式サイト|公式ホームページ|オフィシャルサイト|Official\s*Site|Official\s*Website)\s*$`),
	regexp.MustCompile(`(?i)\s*[|｜\-–—]\s*(TOP|トップ|Home|HOME|ホーム)\s*$`),
}

// genericNames are English names that carry no identity on their own.
var genericNames = map[string]struct{}{
	"home": {}, "top": {}, "welcome": {}, "index": {},
	"company": {}, "website": {}, "official": {}, "site": {},
	"homepage": {}, "about": {}, "contact": {},
}

// productKeywords mark strings that name a product or a page rather than
// an organization.
var productKeywords = []string{
	"お問い合わせ", "お申し込み", "ログイン", "採用情報", "プライバシーポリシー",
	"利用規約", "ニュース", "キャンペーン",
}

var (
	titleSplitRe = regexp.MustCompile(`\s*[|｜]\s*`)
	multiSpaceRe = regexp.MustCompile(`\s+`)
)

// TitleLeadingSegment returns the part of a <title> before the first pipe
// separator, where the organization name conventionally sits.
func TitleLeadingSegment(title string) string {
	parts := titleSplitRe.Split(title, 2)
	return strings.TrimSpace(parts[0])
}

// CleanName normalizes a raw candidate string: NFKC fold, whitespace
// collapse, marketing-suffix strip. The legal-entity suffix is kept.
func CleanName(raw string) string {
	s := norm.NFKC.String(raw)
	s = multiSpaceRe.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	for _, re := range cleanSuffixes {
		s = re.ReplaceAllString(s, "")
	}
	s = strings.Trim(s, " \t|｜-–—:：・")
	return strings.TrimSpace(s)
}

// IsValidName rejects strings too short, too long, or too generic to be an
// organization name. Names without any Japanese text must clear the generic
// English list.
func IsValidName(name string) bool {
	runes := []rune(name)
	if len(runes) < 2 || len(runes) > 100 {
		return false
	}
	for _, kw := range productKeywords {
		if strings.Contains(name, kw) {
			return false
		}
	}
	if hasLegalEntity(name) || japaneseRe.MatchString(name) {
		return true
	}
	if _, generic := genericNames[strings.ToLower(name)]; generic {
		return false
	}
	return true
}

var legalStripRe = regexp.MustCompile(
	`株式会社|有限会社|合同会社|合資会社|合名会社|一般社団法人|一般財団法人|` +
		`公益社団法人|公益財団法人|特定非営利活動法人|学校法人|医療法人|` +
		`社会医療法人|社会福祉法人|宗教法人`)

var symbolStripRe = regexp.MustCompile(`[\s|｜\-–—:：・.,、。]+`)

// normalizeForMatch reduces a name to the form used for fuzzy comparison:
// NFKC folded, legal-entity markers and separator symbols removed, lowercased.
func normalizeForMatch(name string) string {
	s := norm.NFKC.String(name)
	s = legalStripRe.ReplaceAllString(s, "")
	s = symbolStripRe.ReplaceAllString(s, "")
	return strings.ToLower(s)
}
