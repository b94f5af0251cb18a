package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/mohammad-safakhou/sourcer/internal/pipeline"
	"github.com/mohammad-safakhou/sourcer/models"
)

type fakeProvider struct {
	name     string
	articles []models.Article
	err      error
	calls    int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Search(context.Context, string) ([]models.Article, error) {
	f.calls++
	return f.articles, f.err
}

var _ pipeline.ArticleSource = (*Chain)(nil)
var _ pipeline.ArticleSource = (*Cached)(nil)

func TestChainFallsBackWhenEmpty(t *testing.T) {
	t.Parallel()
	first := &fakeProvider{name: "serpapi"}
	second := &fakeProvider{name: "newsapi", articles: []models.Article{{Title: "from newsapi"}}}
	third := &fakeProvider{name: "brave", articles: []models.Article{{Title: "unused"}}}

	got, err := NewChain(zerolog.Nop(), first, second, third).Fetch(context.Background(), "q")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(got) != 1 || got[0].Title != "from newsapi" {
		t.Fatalf("unexpected result %+v", got)
	}
	if third.calls != 0 {
		t.Fatalf("chain kept searching after a hit")
	}
}

func TestChainSkipsFailingProvider(t *testing.T) {
	t.Parallel()
	bad := &fakeProvider{name: "serper", err: errors.New("503")}
	good := &fakeProvider{name: "newsapi", articles: []models.Article{{Title: "ok"}}}
	got, err := NewChain(zerolog.Nop(), bad, good).Fetch(context.Background(), "q")
	if err != nil || len(got) != 1 {
		t.Fatalf("Fetch = %v, %v", got, err)
	}
}

func TestChainErrors(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")
	_, err := NewChain(zerolog.Nop(), &fakeProvider{name: "a", err: boom}, &fakeProvider{name: "b", err: errors.New("down")}).Fetch(context.Background(), "q")
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined provider errors, got %v", err)
	}

	// one failure plus one empty answer is an empty result, not an error
	got, err := NewChain(zerolog.Nop(), &fakeProvider{name: "a", err: boom}, &fakeProvider{name: "b"}).Fetch(context.Background(), "q")
	if err != nil || got == nil || len(got) != 0 {
		t.Fatalf("expected empty result, got %v, %v", got, err)
	}

	if _, err := NewChain(zerolog.Nop()).Fetch(context.Background(), "q"); !errors.Is(err, ErrNoProviders) {
		t.Fatalf("expected ErrNoProviders, got %v", err)
	}
}

func TestChainStopsOnCancellation(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	next := &fakeProvider{name: "b", articles: []models.Article{{Title: "x"}}}
	_, err := NewChain(zerolog.Nop(), &fakeProvider{name: "a", err: context.Canceled}, next).Fetch(ctx, "q")
	if !errors.Is(err, context.Canceled) || next.calls != 0 {
		t.Fatalf("expected cancellation to stop the chain, err=%v calls=%d", err, next.calls)
	}
}

type countingSource struct {
	articles []models.Article
	calls    int
}

func (c *countingSource) Fetch(context.Context, string) ([]models.Article, error) {
	c.calls++
	return c.articles, nil
}

type brokenCache struct{}

func (brokenCache) Get(context.Context, string) ([]models.Article, bool, error) {
	return nil, false, errors.New("cache down")
}

func (brokenCache) Set(context.Context, string, []models.Article, time.Duration) error {
	return errors.New("cache down")
}

func TestCachedServesNormalizedQueries(t *testing.T) {
	t.Parallel()
	src := &countingSource{articles: []models.Article{{Title: "a"}}}
	cached := NewCached(src, NewMemoryCache(), time.Hour, "test:", zerolog.Nop())

	for _, q := range []string{"Jane Doe", "  jane   doe ", "JANE DOE"} {
		got, err := cached.Fetch(context.Background(), q)
		if err != nil || len(got) != 1 {
			t.Fatalf("Fetch(%q) = %v, %v", q, got, err)
		}
	}
	if src.calls != 1 {
		t.Fatalf("source called %d times, want 1", src.calls)
	}
}

func TestCachedSkipsEmptyResultsAndBrokenCache(t *testing.T) {
	t.Parallel()
	empty := &countingSource{}
	cached := NewCached(empty, NewMemoryCache(), time.Hour, "", zerolog.Nop())
	_, _ = cached.Fetch(context.Background(), "q")
	_, _ = cached.Fetch(context.Background(), "q")
	if empty.calls != 2 {
		t.Fatalf("empty results should not be cached, calls=%d", empty.calls)
	}

	src := &countingSource{articles: []models.Article{{Title: "a"}}}
	got, err := NewCached(src, brokenCache{}, time.Hour, "", zerolog.Nop()).Fetch(context.Background(), "q")
	if err != nil || len(got) != 1 {
		t.Fatalf("broken cache must fall through, got %v, %v", got, err)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemoryCache()
	m.now = func() time.Time { return now }

	if err := m.Set(context.Background(), "k", []models.Article{{Title: "a"}}, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, ok, _ := m.Get(context.Background(), "k"); !ok {
		t.Fatalf("expected hit before expiry")
	}
	now = now.Add(time.Minute)
	if _, ok, _ := m.Get(context.Background(), "k"); ok {
		t.Fatalf("expected miss after expiry")
	}
}
