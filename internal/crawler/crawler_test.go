package crawler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/text/encoding/japanese"
)

func testSite(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("User-agent: *\nDisallow: /admin/\n"))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<html><head>
			<title>ソフトウェア開発のアクメ</title>
		</head><body>
			<header><img src="/logo.png" alt="株式会社アクメ"></header>
			<footer id="footer">
				<a href="/contact">お問い合わせ</a>
				<a href="mailto:info@acme.co.jp">info@acme.co.jp</a>
			</footer>
		</body></html>`))
	})
	mux.HandleFunc("/contact", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<html><body>
			<form action="/submit"><input type="email" name="email"></form>
		</body></html>`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestCrawlExtractsAllFields(t *testing.T) {
	srv := testSite(t)
	e := New(Config{Timeout: 5 * time.Second, SecondaryFetches: true})
	r := e.Crawl(context.Background(), Target{URL: srv.URL + "/"})

	if r.CrawlStatus != StatusSuccess {
		t.Fatalf("status = %q, error = %v", r.CrawlStatus, r.ErrorMessage)
	}
	if r.HTTPStatus != 200 {
		t.Errorf("http status = %d", r.HTTPStatus)
	}
	if !r.RobotsAllowed {
		t.Error("robots allowed = false")
	}
	if r.Email == nil || *r.Email != "info@acme.co.jp" {
		t.Errorf("email = %v", r.Email)
	}
	if r.InquiryFormURL == nil || *r.InquiryFormURL != srv.URL+"/contact" {
		t.Errorf("form url = %v; remarks: %s", r.InquiryFormURL, r.FormRemarks)
	}
	if r.CompanyName == nil || *r.CompanyName != "株式会社アクメ" {
		t.Errorf("company name = %v", r.CompanyName)
	}
	if r.Industry == nil || *r.Industry != "technology" {
		t.Errorf("industry = %v", r.Industry)
	}
	if _, err := time.Parse(time.RFC3339, r.LastCrawledAt); err != nil {
		t.Errorf("lastCrawledAt = %q: %v", r.LastCrawledAt, err)
	}
	if len(r.EmailCandidates) == 0 || len(r.CompanyNameCandidates) == 0 {
		t.Error("candidate lists missing")
	}
}

func TestCrawlExcludePattern(t *testing.T) {
	e := New(Config{ExcludePatterns: []string{"blocked"}})
	r := e.Crawl(context.Background(), Target{URL: "https://blocked.example.org/"})
	if r.CrawlStatus != StatusError {
		t.Fatalf("status = %q", r.CrawlStatus)
	}
	if r.ErrorMessage == nil || *r.ErrorMessage != "URL matches exclude pattern" {
		t.Errorf("error = %v", r.ErrorMessage)
	}
	if r.HTTPStatus != 0 {
		t.Errorf("http status = %d, want 0", r.HTTPStatus)
	}
}

func TestCrawlRobotsDisallowed(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("User-agent: *\nDisallow: /\n"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	e := New(Config{})
	r := e.Crawl(context.Background(), Target{URL: srv.URL + "/page"})
	if r.CrawlStatus != StatusError {
		t.Fatalf("status = %q", r.CrawlStatus)
	}
	if r.RobotsAllowed {
		t.Error("robots allowed = true")
	}
	if r.ErrorMessage == nil || *r.ErrorMessage != "Robots.txt disallows crawling" {
		t.Errorf("error = %v", r.ErrorMessage)
	}
}

func TestCrawlIgnorePolicySkipsRobots(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("User-agent: *\nDisallow: /\n"))
	})
	mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><body><p>hi</p></body></html>"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	e := New(Config{RobotsPolicy: "ignore"})
	r := e.Crawl(context.Background(), Target{URL: srv.URL + "/page"})
	if r.CrawlStatus != StatusSuccess {
		t.Fatalf("status = %q, error = %v", r.CrawlStatus, r.ErrorMessage)
	}
}

func TestCrawlHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(http.NotFound))
	defer srv.Close()

	e := New(Config{})
	r := e.Crawl(context.Background(), Target{URL: srv.URL + "/missing"})
	if r.CrawlStatus != StatusError {
		t.Fatalf("status = %q", r.CrawlStatus)
	}
	if r.HTTPStatus != 404 {
		t.Errorf("http status = %d", r.HTTPStatus)
	}
	if r.Email != nil || r.CompanyName != nil {
		t.Error("extracted fields from a failed fetch")
	}
}

func TestCrawlPartialResult(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body>
			<footer id="footer"><a href="mailto:info@acme.co.jp">info@acme.co.jp</a></footer>
		</body></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	e := New(Config{SecondaryFetches: true})
	r := e.Crawl(context.Background(), Target{URL: srv.URL + "/"})
	if r.CrawlStatus != StatusSuccess {
		t.Fatalf("status = %q", r.CrawlStatus)
	}
	if r.Email == nil {
		t.Error("email missing")
	}
	if r.Industry != nil {
		t.Errorf("industry = %v from an unclassifiable page", r.Industry)
	}
	if r.InquiryFormURL != nil {
		t.Errorf("form url = %v with no contact links", r.InquiryFormURL)
	}
	if !strings.Contains(r.FormRemarks, "No contact form candidates found") {
		t.Errorf("form remarks = %q", r.FormRemarks)
	}
}

func TestCrawlDecodesShiftJISSite(t *testing.T) {
	page := `<html><head>
		<meta http-equiv="Content-Type" content="text/html; charset=shift_jis">
		<title>ソフトウェア開発の株式会社アクメ</title>
	</head><body>
		<header><img src="/logo.png" alt="株式会社アクメ"></header>
		<footer id="footer">
			<p>株式会社アクメ</p>
		</footer>
	</body></html>`
	sjis, err := japanese.ShiftJIS.NewEncoder().Bytes([]byte(page))
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=shift_jis")
		w.Write(sjis)
	}))
	defer srv.Close()

	e := New(Config{})
	r := e.Crawl(context.Background(), Target{URL: srv.URL + "/"})
	if r.CrawlStatus != StatusSuccess {
		t.Fatalf("status = %q, error = %v", r.CrawlStatus, r.ErrorMessage)
	}
	if r.CompanyName == nil || *r.CompanyName != "株式会社アクメ" {
		t.Errorf("company name = %v, candidates = %+v", r.CompanyName, r.CompanyNameCandidates)
	}
	if r.Industry == nil || *r.Industry != "technology" {
		t.Errorf("industry = %v", r.Industry)
	}
}

func TestExtractorPanicDemotesResult(t *testing.T) {
	email := "info@acme.co.jp"
	r := &Result{CrawlStatus: StatusSuccess, RobotsAllowed: true, Email: &email}

	func() {
		defer recoverExtractor(r, "industry")
		panic("selector blew up")
	}()

	if r.CrawlStatus != StatusError {
		t.Fatalf("status = %q after extractor panic", r.CrawlStatus)
	}
	if r.ErrorMessage == nil || !strings.Contains(*r.ErrorMessage, "industry") {
		t.Errorf("error message = %v", r.ErrorMessage)
	}
	if r.Email == nil || *r.Email != "info@acme.co.jp" {
		t.Errorf("already-extracted email lost: %v", r.Email)
	}
}
