// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch retrieves paper landing pages and extracts title and abstract.
//
// Transport failures and non-2xx statuses are reported as network errors;
// a page without the expected title or abstract element is an extraction
// error. The fetcher never retries.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/paper-triage/pkg/types"
)

const (
	// DefaultTitleSelector matches the title heading of a NeurIPS virtual-site paper page.
	DefaultTitleSelector = "h2.card-title.main-title.text-center"

	// DefaultAbstractSelector matches the abstract paragraph of the same page.
	DefaultAbstractSelector = "div#abstract_details p"

	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "paper-triage/0.1"
)

// HTMLFetcher fetches a page over HTTP and extracts fields with CSS selectors.
type HTMLFetcher struct {
	client           *http.Client
	userAgent        string
	titleSelector    string
	abstractSelector string
}

// NewHTMLFetcher builds a fetcher from config. A nil client gets one with
// cfg.Timeout (default 30s).
func NewHTMLFetcher(client *http.Client, cfg types.FetchConfig) *HTMLFetcher {
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	f := &HTMLFetcher{
		client:           client,
		userAgent:        cfg.UserAgent,
		titleSelector:    cfg.TitleSelector,
		abstractSelector: cfg.AbstractSelector,
	}
	if f.userAgent == "" {
		f.userAgent = DefaultUserAgent
	}
	if f.titleSelector == "" {
		f.titleSelector = DefaultTitleSelector
	}
	if f.abstractSelector == "" {
		f.abstractSelector = DefaultAbstractSelector
	}
	return f
}

// Fetch downloads url and returns its title and abstract.
func (f *HTMLFetcher) Fetch(ctx context.Context, url string) (types.PaperContent, error) {
	doc, err := f.fetchDocument(ctx, url)
	if err != nil {
		return types.PaperContent{}, err
	}
	return Extract(doc, url, f.titleSelector, f.abstractSelector)
}

func (f *HTMLFetcher) fetchDocument(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, types.NewError(types.KindNetwork, url, fmt.Errorf("building request: %w", err))
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, types.NewError(types.KindNetwork, url, fmt.Errorf("requesting page: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, types.NewError(types.KindNetwork, url, fmt.Errorf("HTTP %d from %s", resp.StatusCode, url))
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, types.NewError(types.KindNetwork, url, fmt.Errorf("reading page: %w", err))
	}
	return doc, nil
}

// Extract pulls title and abstract from doc. A missing or empty element is
// an extraction error naming the field.
func Extract(doc *goquery.Document, url, titleSelector, abstractSelector string) (types.PaperContent, error) {
	title, ok := firstText(doc, titleSelector)
	if !ok {
		return types.PaperContent{}, types.NewError(types.KindExtraction, url,
			fmt.Errorf("couldn't find the HTML element for title (%s)", titleSelector))
	}
	abstract, ok := firstText(doc, abstractSelector)
	if !ok {
		return types.PaperContent{}, types.NewError(types.KindExtraction, url,
			fmt.Errorf("couldn't find the HTML element for abstract (%s)", abstractSelector))
	}
	return types.PaperContent{Title: title, Abstract: abstract}, nil
}

func firstText(doc *goquery.Document, selector string) (string, bool) {
	sel := doc.Find(selector).First()
	if sel.Length() == 0 {
		return "", false
	}
	text := strings.TrimSpace(sel.Text())
	return text, text != ""
}
