package email

import (
	"context"
	"errors"
	"net"
	"testing"
)

func newExtractor(t *testing.T, baseURL string, cfg Config) *Extractor {
	t.Helper()
	e, err := New(baseURL, cfg)
	if err != nil {
		t.Fatalf("New(%q): %v", baseURL, err)
	}
	return e
}

func TestExtractMailtoInFooter(t *testing.T) {
	page := `<html><body>
		<footer id="footer" class="contact">
			<a href="mailto:info@acme.co.jp">info@acme.co.jp</a>
		</footer>
	</body></html>`
	e := newExtractor(t, "https://acme.co.jp/", Config{})
	r := e.Extract(context.Background(), page, "https://acme.co.jp/")
	if r.Selected == nil {
		t.Fatalf("no email selected; candidates: %+v", r.Candidates)
	}
	if r.Selected.Value != "info@acme.co.jp" {
		t.Errorf("selected = %q", r.Selected.Value)
	}
	if r.Selected.Source != SourceMailto {
		t.Errorf("source = %q, want %q", r.Selected.Source, SourceMailto)
	}
	if r.Selected.Confidence < AcceptThreshold {
		t.Errorf("confidence = %v, want >= %v", r.Selected.Confidence, AcceptThreshold)
	}
	// the visible text also matches the plain regex, so two methods agree
	if r.Selected.MethodCount() < 2 {
		t.Errorf("MethodCount = %d, want >= 2", r.Selected.MethodCount())
	}
}

func TestExtractRejectsBoilerplate(t *testing.T) {
	page := `<html><body>
		<a href="mailto:noreply@acme.co.jp">noreply@acme.co.jp</a>
	</body></html>`
	e := newExtractor(t, "https://acme.co.jp/", Config{})
	r := e.Extract(context.Background(), page, "")
	if r.Selected != nil {
		t.Fatalf("rejected address was selected: %+v", r.Selected)
	}
	if len(r.Candidates) != 0 {
		t.Fatalf("rejected address survived as candidate: %+v", r.Candidates)
	}
}

func TestExtractRejectListOverride(t *testing.T) {
	page := `<html><body><footer id="footer">
		<a href="mailto:info@example.com">info@example.com</a>
	</footer></body></html>`
	e := newExtractor(t, "https://example.com/", Config{RejectSubstrings: []string{"noreply"}})
	r := e.Extract(context.Background(), page, "")
	if r.Selected == nil || r.Selected.Value != "info@example.com" {
		t.Fatalf("selected = %+v", r.Selected)
	}
}

func TestExtractObfuscated(t *testing.T) {
	page := `<html><body>
		<p>Reach us: info[at]acme[dot]co[dot]jp</p>
	</body></html>`
	e := newExtractor(t, "https://acme.co.jp/", Config{})
	r := e.Extract(context.Background(), page, "")
	if r.Selected == nil {
		t.Fatalf("no email selected; candidates: %+v", r.Candidates)
	}
	if r.Selected.Value != "info@acme.co.jp" {
		t.Errorf("selected = %q", r.Selected.Value)
	}
	if r.Selected.Source != SourceObfuscated {
		t.Errorf("source = %q", r.Selected.Source)
	}
}

func TestExtractJSONLD(t *testing.T) {
	page := `<html><head>
		<script type="application/ld+json">{"@type":"Organization","email":"support@acme.co.jp"}</script>
	</head><body></body></html>`
	e := newExtractor(t, "https://acme.co.jp/", Config{})
	r := e.Extract(context.Background(), page, "")
	if r.Selected == nil || r.Selected.Value != "support@acme.co.jp" {
		t.Fatalf("selected = %+v", r.Selected)
	}
	if r.Selected.Source != SourceJSONLD {
		t.Errorf("source = %q", r.Selected.Source)
	}
}

func TestExtractJSAssembly(t *testing.T) {
	page := `<html><body>
		<script>var m = 'info' + '@' + 'acme.co.jp'; el.href = 'mailto:' + m;</script>
	</body></html>`
	e := newExtractor(t, "https://acme.co.jp/", Config{})
	r := e.Extract(context.Background(), page, "")
	found := false
	for _, c := range r.Candidates {
		if c.Value == "info@acme.co.jp" && c.Source == SourceJSAssembly {
			found = true
		}
	}
	if !found {
		t.Fatalf("assembled address missing from candidates: %+v", r.Candidates)
	}
}

func TestExtractFormPlaceholder(t *testing.T) {
	page := `<html><body>
		<form><input type="email" placeholder="contact@acme.co.jp"></form>
	</body></html>`
	e := newExtractor(t, "https://acme.co.jp/", Config{})
	r := e.Extract(context.Background(), page, "")
	if len(r.Candidates) != 1 {
		t.Fatalf("candidates = %+v", r.Candidates)
	}
	// the raw-markup regex sees the placeholder attribute first; the form
	// detector folds in as a second method
	if r.Candidates[0].Source != SourceRegexPlain {
		t.Errorf("source = %q", r.Candidates[0].Source)
	}
	if !containsStr(r.Candidates[0].AlsoDetected, SourcePlaceholder) {
		t.Errorf("AlsoDetected = %v", r.Candidates[0].AlsoDetected)
	}
}

func TestCandidatesSortedDescending(t *testing.T) {
	page := `<html><body>
		<footer id="footer"><a href="mailto:info@acme.co.jp">info@acme.co.jp</a></footer>
		<p>random@unrelated-site.net</p>
	</body></html>`
	e := newExtractor(t, "https://acme.co.jp/", Config{})
	r := e.Extract(context.Background(), page, "")
	if len(r.Candidates) < 2 {
		t.Fatalf("candidates = %+v", r.Candidates)
	}
	for i := 1; i < len(r.Candidates); i++ {
		if r.Candidates[i].Confidence > r.Candidates[i-1].Confidence {
			t.Fatalf("candidates not sorted: %+v", r.Candidates)
		}
	}
	if r.Candidates[0].Value != "info@acme.co.jp" {
		t.Errorf("top candidate = %q", r.Candidates[0].Value)
	}
}

type fakeRenderer struct {
	markup string
	err    error
	calls  int
}

func (f *fakeRenderer) Render(ctx context.Context, url string) (string, error) {
	f.calls++
	return f.markup, f.err
}

func TestRenderFallbackForScriptPages(t *testing.T) {
	spa := `<html><body>
		<div id="root"></div>
		<script src="/static/js/react-app.js"></script>
	</body></html>`
	rendered := `<html><body>
		<footer id="footer"><a href="mailto:info@acme.co.jp">info@acme.co.jp</a></footer>
	</body></html>`
	fr := &fakeRenderer{markup: rendered}
	e := newExtractor(t, "https://acme.co.jp/", Config{Renderer: fr})
	r := e.Extract(context.Background(), spa, "")
	if fr.calls != 1 {
		t.Fatalf("renderer calls = %d, want 1", fr.calls)
	}
	if r.Selected == nil || r.Selected.Value != "info@acme.co.jp" {
		t.Fatalf("selected = %+v", r.Selected)
	}
}

func TestRenderFallbackSkippedWhenStaticFinds(t *testing.T) {
	page := `<html><body>
		<script src="/app.js"></script>
		<a href="mailto:info@acme.co.jp">mail</a>
	</body></html>`
	fr := &fakeRenderer{markup: "<html></html>"}
	e := newExtractor(t, "https://acme.co.jp/", Config{Renderer: fr})
	r := e.Extract(context.Background(), page, "")
	if fr.calls != 0 {
		t.Fatalf("renderer called %d times for a static page", fr.calls)
	}
	if r.Selected == nil {
		t.Fatal("static mailto not selected")
	}
}

func TestRenderFailureFallsBackToStatic(t *testing.T) {
	spa := `<html><body><script src="/vue-app.js"></script></body></html>`
	fr := &fakeRenderer{err: errors.New("browser gone")}
	e := newExtractor(t, "https://acme.co.jp/", Config{Renderer: fr})
	r := e.Extract(context.Background(), spa, "")
	if r.Selected != nil {
		t.Fatalf("selected = %+v from empty page", r.Selected)
	}
}

type fakeResolver struct {
	mx      []*net.MX
	mxErr   error
	hosts   []string
	hostErr error
}

func (f *fakeResolver) LookupMX(ctx context.Context, name string) ([]*net.MX, error) {
	return f.mx, f.mxErr
}

func (f *fakeResolver) LookupHost(ctx context.Context, host string) ([]string, error) {
	return f.hosts, f.hostErr
}

func TestDNSValidationDropsDeadDomains(t *testing.T) {
	page := `<html><body><footer id="footer">
		<a href="mailto:info@acme.co.jp">info@acme.co.jp</a>
	</footer></body></html>`

	dead := &fakeResolver{mx: nil, hosts: nil}
	e := newExtractor(t, "https://acme.co.jp/", Config{ValidateDNS: true, Resolver: dead})
	if r := e.Extract(context.Background(), page, ""); r.Selected != nil {
		t.Fatalf("selected %+v despite empty DNS records", r.Selected)
	}

	alive := &fakeResolver{mx: []*net.MX{{Host: "mx.acme.co.jp"}}}
	e = newExtractor(t, "https://acme.co.jp/", Config{ValidateDNS: true, Resolver: alive})
	if r := e.Extract(context.Background(), page, ""); r.Selected == nil {
		t.Fatal("address with MX records was dropped")
	}
}

func TestDNSValidationKeepsOnLookupFailure(t *testing.T) {
	page := `<html><body><footer id="footer">
		<a href="mailto:info@acme.co.jp">info@acme.co.jp</a>
	</footer></body></html>`
	flaky := &fakeResolver{mxErr: errors.New("timeout"), hostErr: errors.New("timeout")}
	e := newExtractor(t, "https://acme.co.jp/", Config{ValidateDNS: true, Resolver: flaky})
	if r := e.Extract(context.Background(), page, ""); r.Selected == nil {
		t.Fatal("transient DNS failure dropped a plausible address")
	}
}

func TestMultipleMethodsMergeIntoOneCandidate(t *testing.T) {
	page := `<html><body>
		<a href="mailto:info@acme.co.jp">mail</a>
		<p>info@acme.co.jp</p>
	</body></html>`
	e := newExtractor(t, "https://acme.co.jp/", Config{})
	r := e.Extract(context.Background(), page, "")
	count := 0
	for _, c := range r.Candidates {
		if c.Value == "info@acme.co.jp" {
			count++
			if c.Source != SourceMailto {
				t.Errorf("merged source = %q, want %q", c.Source, SourceMailto)
			}
			if !containsStr(c.AlsoDetected, SourceRegexPlain) {
				t.Errorf("AlsoDetected = %v", c.AlsoDetected)
			}
		}
	}
	if count != 1 {
		t.Fatalf("value appears %d times after dedupe", count)
	}
}

func containsStr(ss []string, want string) bool {
	for _, s := range ss {
		if s == want {
			return true
		}
	}
	return false
}

func TestDNSValidationFallsBackToARecords(t *testing.T) {
	page := `<html><body><footer id="footer">
		<a href="mailto:info@acme.co.jp">info@acme.co.jp</a>
	</footer></body></html>`
	// MX lookup succeeds but is empty; the A record alone keeps the address.
	resolver := &fakeResolver{hosts: []string{"203.0.113.10"}}
	e := newExtractor(t, "https://acme.co.jp/", Config{ValidateDNS: true, Resolver: resolver})
	if r := e.Extract(context.Background(), page, ""); r.Selected == nil {
		t.Fatal("address with A records but an empty MX answer was dropped")
	}
}

func TestRenderFallbackWhenOnlyStaticAddressRejected(t *testing.T) {
	spa := `<html><body>
		<a href="mailto:noreply@acme.co.jp">noreply@acme.co.jp</a>
		<div id="root"></div>
		<script src="/static/js/react-app.js"></script>
	</body></html>`
	rendered := `<html><body>
		<footer id="footer"><a href="mailto:info@acme.co.jp">info@acme.co.jp</a></footer>
	</body></html>`
	fr := &fakeRenderer{markup: rendered}
	e := newExtractor(t, "https://acme.co.jp/", Config{Renderer: fr})
	r := e.Extract(context.Background(), spa, "")
	if fr.calls != 1 {
		t.Fatalf("renderer calls = %d, want 1: reject-listed static address should not satisfy detection", fr.calls)
	}
	if r.Selected == nil || r.Selected.Value != "info@acme.co.jp" {
		t.Fatalf("selected = %+v", r.Selected)
	}
}
