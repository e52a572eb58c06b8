package industry

import "testing"

func classify(t *testing.T, page, url string) *string {
	t.Helper()
	r := New(url, Config{}).Extract(page, "")
	if r.Selected == nil {
		return nil
	}
	return &r.Selected.Value
}

func TestJSONLDDescription(t *testing.T) {
	page := `<html><head>
		<script type="application/ld+json">{"@type":"Organization","description":"a leading software company"}</script>
	</head><body></body></html>`
	r := New("https://acme.co.jp/", Config{}).Extract(page, "")
	if r.Selected == nil {
		t.Fatalf("no industry; candidates: %+v", r.Candidates)
	}
	if r.Selected.Value != "technology" {
		t.Errorf("industry = %q", r.Selected.Value)
	}
	if r.Selected.Source != SourceJSONLD || r.Selected.Confidence != 0.9 {
		t.Errorf("selected = %+v", r.Selected)
	}
}

func TestSchemaTypeMapping(t *testing.T) {
	page := `<html><head>
		<script type="application/ld+json">{"@type":"Restaurant","name":"somewhere"}</script>
	</head><body></body></html>`
	got := classify(t, page, "https://acme.co.jp/")
	if got == nil || *got != "food_beverage" {
		t.Fatalf("industry = %v, want food_beverage", got)
	}
}

func TestGenericSchemaTypeIgnored(t *testing.T) {
	page := `<html><head>
		<script type="application/ld+json">{"@type":"Organization","name":"somewhere"}</script>
	</head><body></body></html>`
	if got := classify(t, page, "https://acme.co.jp/"); got != nil {
		t.Fatalf("generic @type classified as %q", *got)
	}
}

func TestMetadataIndustryTag(t *testing.T) {
	page := `<html><head>
		<meta name="industry" content="金融サービス">
	</head><body></body></html>`
	r := New("https://acme.co.jp/", Config{}).Extract(page, "")
	if r.Selected == nil || r.Selected.Value != "finance" {
		t.Fatalf("selected = %+v", r.Selected)
	}
	if r.Selected.Source != SourceMetadata || r.Selected.Confidence != 0.85 {
		t.Errorf("selected = %+v", r.Selected)
	}
}

func TestTextTieGoesToFirstDeclared(t *testing.T) {
	// "production" counts once for manufacturing, media, and entertainment;
	// the earliest taxonomy entry keeps the win.
	page := `<html><head><title>production</title></head><body></body></html>`
	got := classify(t, page, "https://acme.co.jp/")
	if got == nil || *got != "manufacturing" {
		t.Fatalf("industry = %v, want manufacturing", got)
	}
}

func TestTextStrictlyHigherWins(t *testing.T) {
	page := `<html><head><title>film production studio</title></head><body></body></html>`
	got := classify(t, page, "https://acme.co.jp/")
	if got == nil || *got != "entertainment" {
		t.Fatalf("industry = %v, want entertainment", got)
	}
}

func TestTextOrderIndependent(t *testing.T) {
	a := classify(t, `<html><head><title>ソフトウェア クラウド</title></head><body></body></html>`, "https://acme.co.jp/")
	b := classify(t, `<html><head><title>クラウド ソフトウェア</title></head><body></body></html>`, "https://acme.co.jp/")
	if a == nil || b == nil || *a != *b {
		t.Fatalf("order dependence: %v vs %v", a, b)
	}
}

func TestDomainHint(t *testing.T) {
	page := `<html><body></body></html>`
	r := New("https://bank.co.jp/", Config{}).Extract(page, "")
	if r.Selected == nil || r.Selected.Value != "finance" {
		t.Fatalf("selected = %+v", r.Selected)
	}
	if r.Selected.Source != SourceDomainHint || r.Selected.Confidence != 0.4 {
		t.Errorf("selected = %+v", r.Selected)
	}
}

func TestUnclassifiablePage(t *testing.T) {
	page := `<html><head><title>ようこそ</title></head><body><p>こんにちは</p></body></html>`
	if got := classify(t, page, "https://acme.co.jp/"); got != nil {
		t.Fatalf("classified as %q", *got)
	}
}

func TestCustomTaxonomy(t *testing.T) {
	tax := []Industry{{Label: "fishing", EN: []string{"trawler"}, JA: []string{"漁業"}}}
	r := New("https://acme.co.jp/", Config{Taxonomy: tax}).
		Extract(`<html><head><title>trawler fleet</title></head><body></body></html>`, "")
	if r.Selected == nil || r.Selected.Value != "fishing" {
		t.Fatalf("selected = %+v", r.Selected)
	}
}
