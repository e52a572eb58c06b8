// Package render provides the optional headless-browser collaborator used by
// the email extractor's JavaScript fallback. A nil Renderer disables that
// path entirely.
package render

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/rs/zerolog/log"
)

// Renderer executes a page's scripts and returns the resulting markup.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// Browser renders pages with a shared headless Chromium instance. The
// browser launches lazily on first use and is reused across pages.
type Browser struct {
	// NavigateTimeout bounds navigation plus load. Zero means 30s.
	NavigateTimeout time.Duration
	// Stealth applies bot-detection evasion to each page.
	Stealth bool

	mu      sync.Mutex
	browser *rod.Browser
}

func (b *Browser) get() (*rod.Browser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.browser != nil {
		return b.browser, nil
	}
	browser := rod.New()
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("render: connect browser: %w", err)
	}
	b.browser = browser
	return b.browser, nil
}

// Render navigates to the URL, waits for the load event, and serialises the
// resulting DOM as HTML.
func (b *Browser) Render(ctx context.Context, url string) (string, error) {
	browser, err := b.get()
	if err != nil {
		return "", err
	}

	var page *rod.Page
	if b.Stealth {
		page, err = stealth.Page(browser)
	} else {
		page, err = browser.Page(proto.TargetCreateTarget{URL: ""})
	}
	if err != nil {
		return "", fmt.Errorf("render: create page: %w", err)
	}
	defer page.Close()

	timeout := b.NavigateTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	navCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := page.Context(navCtx).Navigate(url); err != nil {
		return "", fmt.Errorf("render: navigate %s: %w", url, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		log.Warn().Err(err).Str("url", url).Msg("render: wait load timeout")
	}

	res, err := page.Context(navCtx).Eval(`() => document.documentElement.outerHTML`)
	if err != nil {
		return "", fmt.Errorf("render: serialize DOM: %w", err)
	}
	return res.Value.Str(), nil
}

// Close shuts the shared browser down. Safe to call when never used.
func (b *Browser) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.browser != nil {
		_ = b.browser.Close()
		b.browser = nil
	}
}
