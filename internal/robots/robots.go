package robots

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Crawl permission policies.
const (
	PolicyRespect = "respect"
	PolicyIgnore  = "ignore"
)

// Rules is a parsed robots.txt.
type Rules struct {
	Groups []Group
}

// Group is one user-agent block with its directives.
type Group struct {
	Agents   []string
	Allow    []string
	Disallow []string
}

// Checker evaluates robots.txt permission for URLs. It fetches and parses
// each host's robots.txt once and keeps the rules in an expiring in-memory
// cache. Fetch failures default to allow, matching the convention that an
// unreachable robots.txt is not a prohibition.
type Checker struct {
	HTTPClient *http.Client
	UserAgent  string
	// EntryExpiry bounds how long parsed rules are reused. Zero means 30 minutes.
	EntryExpiry time.Duration

	mu  sync.Mutex
	mem map[string]memEntry
	now func() time.Time
}

type memEntry struct {
	rules  Rules
	expiry time.Time
}

// IsAllowed reports whether the URL may be fetched under the given policy.
// Under PolicyIgnore it always returns true without touching the network.
func (c *Checker) IsAllowed(ctx context.Context, rawURL string, policy string) bool {
	if policy == PolicyIgnore {
		return true
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" || !isHTTPScheme(u) {
		return false
	}
	rules, err := c.rulesFor(ctx, u)
	if err != nil {
		log.Debug().Err(err).Str("host", u.Host).Msg("robots.txt unavailable; allowing")
		return true
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return rules.IsAllowed(c.UserAgent, path)
}

func (c *Checker) rulesFor(ctx context.Context, u *url.URL) (Rules, error) {
	robotsURL := u.Scheme + "://" + u.Host + "/robots.txt"

	if c.now == nil {
		c.now = time.Now
	}
	c.mu.Lock()
	if c.mem == nil {
		c.mem = make(map[string]memEntry)
	}
	if ent, ok := c.mem[robotsURL]; ok && c.now().Before(ent.expiry) {
		r := ent.rules
		c.mu.Unlock()
		return r, nil
	}
	c.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return Rules{}, err
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return Rules{}, err
	}
	defer resp.Body.Close()

	var rules Rules
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode <= 299:
		data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return Rules{}, err
		}
		rules = parseRobots(string(data))
	default:
		// Missing or broken robots.txt: no restrictions.
		rules = Rules{}
	}
	c.storeMem(robotsURL, rules)
	return rules, nil
}

func (c *Checker) storeMem(key string, rules Rules) {
	exp := c.EntryExpiry
	if exp <= 0 {
		exp = 30 * time.Minute
	}
	c.mu.Lock()
	c.mem[key] = memEntry{rules: rules, expiry: c.now().Add(exp)}
	c.mu.Unlock()
}

func parseRobots(text string) Rules {
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var groups []Group
	current := Group{}
	flush := func() {
		if len(current.Agents) == 0 && len(current.Allow) == 0 && len(current.Disallow) == 0 {
			return
		}
		groups = append(groups, current)
		current = Group{}
	}
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		colon := strings.IndexByte(line, ':')
		if colon <= 0 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(line[:colon]))
		val := strings.TrimSpace(line[colon+1:])
		switch key {
		case "user-agent", "useragent":
			if len(current.Agents) > 0 && (len(current.Allow) > 0 || len(current.Disallow) > 0) {
				flush()
			}
			current.Agents = append(current.Agents, strings.ToLower(val))
		case "allow":
			current.Allow = append(current.Allow, val)
		case "disallow":
			current.Disallow = append(current.Disallow, val)
		}
	}
	flush()
	return Rules{Groups: groups}
}

// IsAllowed evaluates whether the provided path (which may include a query
// string) is allowed for the given user agent.
//
// Decision policy:
//   - Select the most specific matching User-agent group (longest agent token
//     match), preferring exact names over wildcard "*"; ties resolved by first
//     occurrence.
//   - Within the selected group, the matching directive with the highest
//     specificity wins, where specificity is the pattern length with '*'
//     removed and a trailing '$' ignored. On a specificity tie, Allow beats
//     Disallow.
//   - If no directive matches, default allow.
func (r Rules) IsAllowed(userAgent string, pathWithOptionalQuery string) bool {
	grpIdx := r.selectGroupIndex(userAgent)
	if grpIdx < 0 || grpIdx >= len(r.Groups) {
		return true
	}
	grp := r.Groups[grpIdx]

	bestScore := -1
	bestAllow := true

	evaluate := func(patterns []string, isAllow bool) {
		for _, p := range patterns {
			if p == "" { // empty pattern matches nothing (treat as no restriction)
				continue
			}
			if patternMatches(p, pathWithOptionalQuery) {
				score := patternSpecificity(p)
				if score > bestScore || (score == bestScore && isAllow && !bestAllow) {
					bestScore = score
					bestAllow = isAllow
				}
			}
		}
	}

	evaluate(grp.Disallow, false)
	evaluate(grp.Allow, true)

	if bestScore == -1 {
		return true
	}
	return bestAllow
}

// selectGroupIndex chooses the best-matching group for the given user agent.
// Preference order: longest non-wildcard agent token substring match; wildcard
// '*' is considered but loses to any non-wildcard match. Ties choose the first
// encountered group.
func (r Rules) selectGroupIndex(userAgent string) int {
	ua := strings.ToLower(strings.TrimSpace(userAgent))
	bestIdx := -1
	bestScore := -1
	for i, g := range r.Groups {
		for _, a := range g.Agents {
			token := strings.ToLower(strings.TrimSpace(a))
			if token == "" {
				continue
			}
			var score int
			if token == "*" {
				score = 0
			} else if strings.Contains(ua, token) {
				score = len(token)
			} else {
				continue
			}
			if score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}
	}
	return bestIdx
}

// patternMatches reports whether the robots pattern matches the path.
// Supported features: '*' wildcard matching any sequence, '$' anchoring the
// end. Matching is anchored at the beginning of the path.
func patternMatches(pattern, path string) bool {
	anchorEnd := strings.HasSuffix(pattern, "$")
	p := pattern
	if anchorEnd {
		p = strings.TrimSuffix(p, "$")
	}
	var b strings.Builder
	b.WriteString("^")
	for _, rn := range p {
		if rn == '*' {
			b.WriteString(".*")
			continue
		}
		b.WriteString(regexp.QuoteMeta(string(rn)))
	}
	if anchorEnd {
		b.WriteString("$")
	}
	re, err := regexp.Compile(b.String())
	if err != nil {
		return false
	}
	return re.MatchString(path)
}

// patternSpecificity computes a comparable specificity score for a pattern:
// its length with '*' removed and a trailing '$' ignored.
func patternSpecificity(pattern string) int {
	p := strings.TrimSuffix(pattern, "$")
	p = strings.ReplaceAll(p, "*", "")
	return len(p)
}

func isHTTPScheme(u *url.URL) bool {
	if u == nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}
