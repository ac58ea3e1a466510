// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-triage/pkg/types"
)

const paperPage = `<html><body>
<div class="card">
  <h2 class="card-title main-title text-center" style="color:#000">
    Scaling Sparse Attention
  </h2>
  <div id="abstract_details">
    <div><p>
      We study sparse attention at scale.
    </p></div>
  </div>
</div>
</body></html>`

func TestExtract(t *testing.T) {
	tests := []struct {
		name      string
		html      string
		want      types.PaperContent
		errSubstr string
	}{
		{
			name: "title and abstract present",
			html: paperPage,
			want: types.PaperContent{Title: "Scaling Sparse Attention", Abstract: "We study sparse attention at scale."},
		},
		{
			name:      "missing title",
			html:      `<div id="abstract_details"><p>text</p></div>`,
			errSubstr: "title",
		},
		{
			name:      "missing abstract",
			html:      `<h2 class="card-title main-title text-center">T</h2>`,
			errSubstr: "abstract",
		},
		{
			name:      "empty title text",
			html:      `<h2 class="card-title main-title text-center">   </h2><div id="abstract_details"><p>x</p></div>`,
			errSubstr: "title",
		},
		{
			name:      "title without all classes",
			html:      `<h2 class="card-title">T</h2><div id="abstract_details"><p>x</p></div>`,
			errSubstr: "title",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := goquery.NewDocumentFromReader(strings.NewReader(tt.html))
			require.NoError(t, err)

			got, err := Extract(doc, "https://example.org/p", DefaultTitleSelector, DefaultAbstractSelector)
			if tt.errSubstr != "" {
				require.Error(t, err)
				assert.Equal(t, types.KindExtraction, types.KindOf(err, ""))
				assert.Contains(t, err.Error(), tt.errSubstr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHTMLFetcherFetch(t *testing.T) {
	var gotUA string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte(paperPage))
	}))
	defer ts.Close()

	f := NewHTMLFetcher(ts.Client(), types.FetchConfig{})
	got, err := f.Fetch(context.Background(), ts.URL+"/virtual/2024/poster/1")

	require.NoError(t, err)
	assert.Equal(t, "Scaling Sparse Attention", got.Title)
	assert.Equal(t, "We study sparse attention at scale.", got.Abstract)
	assert.Equal(t, DefaultUserAgent, gotUA)
}

func TestHTMLFetcherCustomSelectors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`<h1 class="title">Custom</h1><blockquote class="abstract">Abs</blockquote>`))
	}))
	defer ts.Close()

	f := NewHTMLFetcher(ts.Client(), types.FetchConfig{
		HTTPConfig:       types.HTTPConfig{UserAgent: "test-agent"},
		TitleSelector:    "h1.title",
		AbstractSelector: "blockquote.abstract",
	})
	got, err := f.Fetch(context.Background(), ts.URL)

	require.NoError(t, err)
	assert.Equal(t, types.PaperContent{Title: "Custom", Abstract: "Abs"}, got)
}

func TestHTMLFetcherNetworkErrors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer ts.Close()

	f := NewHTMLFetcher(ts.Client(), types.FetchConfig{})

	_, err := f.Fetch(context.Background(), ts.URL)
	require.Error(t, err)
	assert.Equal(t, types.KindNetwork, types.KindOf(err, ""))
	assert.Contains(t, err.Error(), "HTTP 404")

	_, err = f.Fetch(context.Background(), "http://127.0.0.1:1/unreachable")
	require.Error(t, err)
	assert.Equal(t, types.KindNetwork, types.KindOf(err, ""))
}

func TestHTMLFetcherExtractionError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`<html><body><p>maintenance page</p></body></html>`))
	}))
	defer ts.Close()

	f := NewHTMLFetcher(ts.Client(), types.FetchConfig{})
	_, err := f.Fetch(context.Background(), ts.URL)

	require.Error(t, err)
	assert.Equal(t, types.KindExtraction, types.KindOf(err, ""))
	var te *types.Error
	require.ErrorAs(t, err, &te)
	assert.Equal(t, ts.URL, te.URL)
}

func TestHTMLFetcherCancelledContext(t *testing.T) {
	block := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()
	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := NewHTMLFetcher(ts.Client(), types.FetchConfig{})
	_, err := f.Fetch(ctx, ts.URL)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
