// Package dom wraps a parsed HTML page with the lookups the extractors share:
// header/footer sections, ancestor walks, JSON-LD blocks, and same-domain
// link enumeration.
package dom

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/kaptinlin/jsonrepair"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// Document is one parsed page plus its base URL for resolving links.
type Document struct {
	doc  *goquery.Document
	base *url.URL
}

// Link is one anchor on the page, resolved to an absolute URL.
type Link struct {
	URL  string
	Text string
}

// Parse builds a Document from UTF-8 HTML.
func Parse(htmlContent string, baseURL string) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	return &Document{doc: doc, base: base}, nil
}

// DecodeUTF8 converts raw page bytes to UTF-8 using the declared or sniffed
// charset. Japanese corporate sites still commonly serve Shift_JIS or
// EUC-JP. Bytes that are already valid UTF-8 survive a failed decode.
func DecodeUTF8(data []byte, contentType string) ([]byte, error) {
	enc, _, _ := charset.DetermineEncoding(data, contentType)
	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		if !utf8.Valid(data) {
			return nil, fmt.Errorf("decode charset: %w", err)
		}
		return data, nil
	}
	return decoded, nil
}

// ParseBytes decodes raw bytes with DecodeUTF8, then parses.
func ParseBytes(data []byte, contentType string, baseURL string) (*Document, error) {
	decoded, err := DecodeUTF8(data, contentType)
	if err != nil {
		return nil, err
	}
	return Parse(string(bytes.TrimSpace(decoded)), baseURL)
}

// Find exposes goquery selection over the whole document.
func (d *Document) Find(selector string) *goquery.Selection {
	return d.doc.Find(selector)
}

// Base returns the page's base URL.
func (d *Document) Base() *url.URL {
	return d.base
}

// Resolve turns href into an absolute URL against the page base. Returns an
// empty string when href cannot be parsed.
func (d *Document) Resolve(href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	return d.base.ResolveReference(ref).String()
}

// Header returns the page's header section: a <header> element, or a
// container with a header-ish id/class.
func (d *Document) Header() *goquery.Selection {
	return d.section("header")
}

// Footer returns the page's footer section, found the same way as Header.
func (d *Document) Footer() *goquery.Selection {
	return d.section("footer")
}

func (d *Document) section(name string) *goquery.Selection {
	if s := d.doc.Find(name).First(); s.Length() > 0 {
		return s
	}
	if s := d.doc.Find("#" + name).First(); s.Length() > 0 {
		return s
	}
	var found *goquery.Selection
	d.doc.Find("div,section").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if attrContains(s, "id", name) || attrContains(s, "class", name) {
			found = s
			return false
		}
		return true
	})
	if found != nil {
		return found
	}
	return d.doc.Find(name) // empty selection
}

func attrContains(s *goquery.Selection, key, needle string) bool {
	v, ok := s.Attr(key)
	return ok && strings.Contains(strings.ToLower(v), needle)
}

// JSONLD decodes every <script type="application/ld+json"> block. Blocks
// that fail strict decoding are run through jsonrepair once before giving
// up; corporate CMSes emit trailing commas and unquoted keys often enough
// that dropping them outright loses real data.
func (d *Document) JSONLD() []any {
	var blocks []any
	d.doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		raw := strings.TrimSpace(s.Text())
		if raw == "" {
			return
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			repaired, repairErr := jsonrepair.JSONRepair(raw)
			if repairErr != nil {
				return
			}
			if err := json.Unmarshal([]byte(repaired), &v); err != nil {
				return
			}
		}
		blocks = append(blocks, v)
	})
	return blocks
}

// InternalLinks returns every same-host anchor resolved to an absolute URL,
// in document order, deduplicated by URL.
func (d *Document) InternalLinks() []Link {
	var links []Link
	seen := map[string]struct{}{}
	d.doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		abs := d.Resolve(href)
		if abs == "" {
			return
		}
		u, err := url.Parse(abs)
		if err != nil {
			return
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return
		}
		if !strings.EqualFold(u.Host, d.base.Host) {
			return
		}
		if _, ok := seen[abs]; ok {
			return
		}
		seen[abs] = struct{}{}
		links = append(links, Link{URL: abs, Text: strings.TrimSpace(s.Text())})
	})
	return links
}

// Ancestors walks from n's parent up to the document root, nearest first.
func Ancestors(n *html.Node) []*html.Node {
	var out []*html.Node
	for cur := n.Parent; cur != nil; cur = cur.Parent {
		if cur.Type == html.ElementNode {
			out = append(out, cur)
		}
	}
	return out
}

// NodeAttr returns the named attribute of an element node, or "".
func NodeAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}
