package email

import (
	htmlesc "html"
	"regexp"
	"strings"

	"golang.org/x/net/idna"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

type obfuscationPattern struct {
	re          *regexp.Regexp
	replacement string
}

// obfuscationPatterns deobfuscate the usual [at]/(dot)/spelled-out tricks.
// The spaced forms require surrounding whitespace so ordinary words are
// untouched.
var obfuscationPatterns = []obfuscationPattern{
	{regexp.MustCompile(`(?i)\[at\]`), "@"},
	{regexp.MustCompile(`(?i)\(at\)`), "@"},
	{regexp.MustCompile(`(?i)\s+at\s+`), "@"},
	{regexp.MustCompile(`(?i)\[dot\]`), "."},
	{regexp.MustCompile(`(?i)\(dot\)`), "."},
	{regexp.MustCompile(`(?i)\s+dot\s+`), "."},
}

var (
	mailtoPrefixRe = regexp.MustCompile(`(?i)^mailto:`)
	querySuffixRe  = regexp.MustCompile(`\?.*$`)
)

func deobfuscate(s string) string {
	for _, p := range obfuscationPatterns {
		s = p.re.ReplaceAllString(s, p.replacement)
	}
	return s
}

// Normalize canonicalizes a raw email match: HTML entities are decoded,
// Unicode is NFKC-normalized with fullwidth characters folded to ASCII
// (Japanese sites write ｉｎｆｏ＠... often enough to matter), obfuscation
// tokens are replaced, the mailto: prefix and query string are stripped, and
// an internationalized domain is punycode-encoded. Returns "" when the
// result is too short or not a plausible address. Normalize is idempotent.
func Normalize(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	s := htmlesc.UnescapeString(raw)
	s = norm.NFKC.String(s)
	s = width.Fold.String(s)
	s = deobfuscate(s)
	s = strings.ToLower(strings.TrimSpace(s))
	s = mailtoPrefixRe.ReplaceAllString(s, "")
	s = querySuffixRe.ReplaceAllString(s, "")

	if at := strings.LastIndexByte(s, '@'); at > 0 {
		local, domain := s[:at], s[at+1:]
		if !isASCII(domain) {
			if encoded, err := idna.Lookup.ToASCII(domain); err == nil {
				s = local + "@" + encoded
			}
		}
	}

	if len(s) <= 5 || !emailExact.MatchString(s) {
		return ""
	}
	return s
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
