package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/mohammad-safakhou/sourcer/config"
)

func testClient() *HTTPClient { return NewHTTPClient(5*time.Second, 1, time.Millisecond) }

func TestSerperReadsAllSections(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.Header.Get("X-API-KEY") != "sk" {
			t.Errorf("unexpected request %s key=%q", r.Method, r.Header.Get("X-API-KEY"))
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["q"] != "jane doe ohio" {
			t.Errorf("query = %v", body["q"])
		}
		_, _ = w.Write([]byte(`{
			"organic": [{"title": "<b>Jane</b> Doe identified", "link": "https://a.example.com/1", "snippet": "Remains &amp; records", "date": "May 1, 2024"}],
			"news": [{"title": "Second", "link": "https://b.example.com/2", "snippet": "s2"}],
			"topStories": [{"title": "Third", "link": "https://c.example.com/3"}]
		}`))
	}))
	defer srv.Close()

	s := NewSerper(config.KeyedEndpoint{APIKey: "sk", Endpoint: srv.URL}, 2, testClient())
	got, err := s.Search(context.Background(), "jane doe ohio")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected cap of 2 results, got %d", len(got))
	}
	if got[0].Title != "Jane Doe identified" || got[0].Description != "Remains & records" {
		t.Fatalf("expected sanitized text, got %+v", got[0])
	}
	if got[0].Source != "serper" || got[0].PublishedAt != "May 1, 2024" || got[1].URL != "https://b.example.com/2" {
		t.Fatalf("unexpected records %+v", got)
	}
}

func TestSerpAPIFieldFallbacks(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("api_key") != "k" || r.URL.Query().Get("q") != "cold case" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{
			"news_results": [{"title": "News hit", "description": "from news", "url": "https://n.example.com", "published": "2024-01-02"}],
			"organic_results": [{"title": "Web hit", "snippet": "from web", "link": "https://w.example.com", "date": "2024-01-01"}]
		}`))
	}))
	defer srv.Close()

	s := NewSerpAPI(config.KeyedEndpoint{APIKey: "k", Endpoint: srv.URL}, 8, testClient())
	got, err := s.Search(context.Background(), "cold case")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	// organic results come first
	if got[0].URL != "https://w.example.com" || got[1].Description != "from news" || got[1].PublishedAt != "2024-01-02" {
		t.Fatalf("unexpected records %+v", got)
	}
}

func TestNewsAPIQueryParameters(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		checks := map[string]string{
			"q": "jane doe", "language": "en", "sortBy": "relevancy", "pageSize": "5", "from": "2024-05-01",
		}
		for k, want := range checks {
			if got := q.Get(k); got != want {
				t.Errorf("%s = %q, want %q", k, got, want)
			}
		}
		if r.Header.Get("X-Api-Key") != "nk" {
			t.Errorf("missing api key header")
		}
		_, _ = w.Write([]byte(`{"status": "ok", "articles": [{"title": "T", "url": "https://x.example.com", "publishedAt": "2024-05-20T10:00:00Z", "description": "D"}]}`))
	}))
	defer srv.Close()

	n := NewNewsAPI(config.NewsAPIConfig{APIKey: "nk", Endpoint: srv.URL, DaysBack: 30}, 5, testClient())
	n.now = func() time.Time { return time.Date(2024, 5, 31, 12, 0, 0, 0, time.UTC) }
	got, err := n.Search(context.Background(), "jane doe")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || got[0].PublishedAt != "2024-05-20T10:00:00Z" || got[0].Source != "newsapi" {
		t.Fatalf("unexpected records %+v", got)
	}
}

func TestNewsAPIErrorStatus(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status": "error", "message": "rate limited"}`))
	}))
	defer srv.Close()

	n := NewNewsAPI(config.NewsAPIConfig{APIKey: "nk", Endpoint: srv.URL}, 5, testClient())
	if _, err := n.Search(context.Background(), "q"); err == nil || !strings.Contains(err.Error(), "rate limited") {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestBraveResults(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Subscription-Token") != "bk" || r.URL.Query().Get("count") != "8" {
			t.Errorf("unexpected request %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"web": {"results": [{"title": "Brave hit", "url": "https://br.example.com", "description": "<p>desc</p>", "page_age": "2024-03-01T00:00:00"}]}}`))
	}))
	defer srv.Close()

	b := NewBrave(config.KeyedEndpoint{APIKey: "bk", Endpoint: srv.URL}, 0, testClient())
	got, err := b.Search(context.Background(), "q")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || got[0].Description != "desc" || got[0].PublishedAt != "2024-03-01T00:00:00" {
		t.Fatalf("unexpected records %+v", got)
	}
}

const googleNewsFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>"jane doe" - Google News</title>
<item>
  <title>Jane Doe identified after 40 years - Example Times</title>
  <link>https://news.google.com/rss/articles/abc</link>
  <pubDate>Wed, 01 May 2024 14:00:00 GMT</pubDate>
  <description>&lt;a href="https://times.example.com/jane"&gt;Jane Doe identified&lt;/a&gt;</description>
</item>
<item>
  <title>Second story</title>
  <link>https://news.google.com/rss/articles/def</link>
</item>
</channel>
</rss>`

func TestGoogleNewsParsesFeed(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("q") != "jane doe" || q.Get("hl") != "en-GB" || q.Get("ceid") != "US:en" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		if !strings.Contains(r.Header.Get("Accept"), "application/rss+xml") {
			t.Errorf("missing rss accept header")
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(googleNewsFeed))
	}))
	defer srv.Close()

	g := NewGoogleNews(config.GoogleNewsConfig{Endpoint: srv.URL, HL: "en-GB"}, 8, testClient())
	got, err := g.Search(context.Background(), "jane doe")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 items, got %d", len(got))
	}
	if got[0].PublishedAt != "2024-05-01T14:00:00Z" || got[0].Description != "Jane Doe identified" || got[0].Source != "googlenews" {
		t.Fatalf("unexpected first item %+v", got[0])
	}
	if got[1].PublishedAt != "" {
		t.Fatalf("expected empty date, got %q", got[1].PublishedAt)
	}
}

func TestHTTPClientRetries(t *testing.T) {
	t.Parallel()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["q"] != "x" {
			t.Errorf("attempt %d lost the request body", atomic.LoadInt32(&calls)+1)
		}
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(time.Second, 2, time.Millisecond)
	var out struct{ OK bool }
	if err := c.DoJSON(context.Background(), "POST", srv.URL, nil, map[string]string{"q": "x"}, &out); err != nil {
		t.Fatalf("DoJSON: %v", err)
	}
	if !out.OK || atomic.LoadInt32(&calls) != 3 {
		t.Fatalf("ok=%v calls=%d", out.OK, calls)
	}
}

func TestHTTPClientDoesNotRetryClientErrors(t *testing.T) {
	t.Parallel()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "bad key", http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewHTTPClient(time.Second, 3, time.Millisecond)
	err := c.DoJSON(context.Background(), "GET", srv.URL, nil, nil, nil)
	if err == nil || !strings.Contains(err.Error(), "bad key") {
		t.Fatalf("expected status error, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("calls = %d", calls)
	}
}

func TestFromConfigSkipsKeylessProviders(t *testing.T) {
	t.Parallel()
	cfg := config.SourcesConfig{
		Order:      []string{"serper", "newsapi", "googlenews"},
		MaxResults: 8,
		NewsAPI:    config.NewsAPIConfig{APIKey: "nk"},
	}
	providers, err := FromConfig(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	var names []string
	for _, p := range providers {
		names = append(names, p.Name())
	}
	if strings.Join(names, ",") != "newsapi,googlenews" {
		t.Fatalf("providers = %v", names)
	}

	if _, err := FromConfig(config.SourcesConfig{Order: []string{"serper"}}, zerolog.Nop()); err == nil {
		t.Fatalf("expected error when no provider is usable")
	}
}
