package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/mohammad-safakhou/sourcer/config"
	"github.com/mohammad-safakhou/sourcer/models"
)

// fakeOpenAI answers each capability by the model it is routed to.
func fakeOpenAI(t *testing.T, answers map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model string `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		answer, ok := answers[req.Model]
		if !ok {
			t.Errorf("unexpected model %q", req.Model)
			http.Error(w, "unknown model", http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"content": answer}}},
		})
	}))
}

func testConfig(openaiURL, serperURL string) *config.Config {
	return &config.Config{
		LLM: config.LLMConfig{
			Provider: "openai",
			OpenAI:   config.OpenAIConfig{APIKey: "test", BaseURL: openaiURL, Timeout: 5 * time.Second},
			Models: config.LLMModelsConfig{
				Extraction: "extract", Simplification: "simplify", Relevance: "relevance", Alignment: "align", Legal: "legal",
			},
		},
		Sources: config.SourcesConfig{
			Order:      []string{"serper"},
			MaxResults: 8,
			Timeout:    5 * time.Second,
			Serper:     config.KeyedEndpoint{APIKey: "sk", Endpoint: serperURL},
		},
		Pipeline: config.PipelineConfig{
			RelevanceThreshold: 80,
			BatchSize:          20,
			MaxConcurrency:     2,
			FetchTimeout:       5 * time.Second,
			CallTimeout:        5 * time.Second,
		},
		Cache:     config.CacheConfig{Enabled: true, Backend: "memory", TTL: time.Hour, Prefix: "test:"},
		Telemetry: config.TelemetryConfig{MetricsEnabled: true},
	}
}

func TestBuildAndProcess(t *testing.T) {
	t.Parallel()
	llmSrv := fakeOpenAI(t, map[string]string{
		"extract":   "```json\n{\"main_topics\": \"An Ohio Jane Doe is identified.\", \"keywords\": [\"Jane Doe\", \"Ohio\"], \"queries\": [\"Who was the Ohio Jane Doe?\"]}\n```",
		"simplify":  `{"results": [["jane doe", "ohio"]]}`,
		"relevance": "[92, 15]",
		"align":     "[2]",
		"legal":     `[{"label": "Fair Use Likely", "note": "News coverage quoted briefly."}]`,
	})
	defer llmSrv.Close()

	var searches int32
	serperSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&searches, 1)
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["q"] != "jane doe ohio" {
			t.Errorf("search query = %v", body["q"])
		}
		_, _ = w.Write([]byte(`{"organic": [
			{"title": "Ohio Jane Doe identified", "link": "https://news.example.com/jane?utm=1", "snippet": "DNA genealogy", "date": "2024-05-01"},
			{"title": "Recipe of the week", "link": "https://food.example.com/pie", "snippet": "Apple pie"}
		]}`))
	}))
	defer serperSrv.Close()

	a, err := Build(context.Background(), testConfig(llmSrv.URL, serperSrv.URL), zerolog.Nop())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer a.Close()

	script := "Remains were found near Dayton. Decades later, the Ohio Jane Doe was identified."
	report, err := a.Pipeline.Process(context.Background(), script)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(report.Queries) != 1 || len(report.SimplifiedQueries) != 1 || report.SimplifiedQueries[0] != "jane doe ohio" {
		t.Fatalf("unexpected queries %v / %v", report.Queries, report.SimplifiedQueries)
	}
	if len(report.Results) != 1 {
		t.Fatalf("expected 1 result, got %+v", report.Results)
	}
	got := report.Results[0]
	if got.Title != "Ohio Jane Doe identified" || got.RelevanceScore != 92 || got.ScriptPosition != 2 ||
		got.UsageLabel != models.UsageFairUseLikely || got.ResultNumber != 1 || got.Source != "serper" {
		t.Fatalf("unexpected result %+v", got)
	}
	if report.KeywordPositions["Ohio"] != 2 {
		t.Fatalf("keyword positions = %v", report.KeywordPositions)
	}

	// a second run is served from the search cache
	if _, err := a.Pipeline.Process(context.Background(), script); err != nil {
		t.Fatalf("second Process: %v", err)
	}
	if n := atomic.LoadInt32(&searches); n != 1 {
		t.Fatalf("search called %d times, want 1", n)
	}

	if a.Registry == nil {
		t.Fatalf("expected metrics registry")
	}
	n, err := testutil.GatherAndCount(a.Registry, "sourcer_pipeline_runs_total")
	if err != nil || n == 0 {
		t.Fatalf("expected run metrics, n=%d err=%v", n, err)
	}
}

func TestBuildErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		mutate func(c *config.Config)
		want   string
	}{
		{name: "missing llm key", mutate: func(c *config.Config) { c.LLM.OpenAI.APIKey = "" }, want: "API key"},
		{name: "missing gemini key", mutate: func(c *config.Config) { c.LLM.Provider = "gemini" }, want: "Gemini API key"},
		{name: "no usable sources", mutate: func(c *config.Config) { c.Sources.Serper.APIKey = "" }, want: "no search providers"},
		{name: "unreachable redis", mutate: func(c *config.Config) {
			c.Cache.Backend = "redis"
			c.Storage.Redis = config.RedisConfig{Host: "127.0.0.1", Port: "1", Timeout: 200 * time.Millisecond}
		}, want: "search cache"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := testConfig("http://127.0.0.1:1", "http://127.0.0.1:1")
			tt.mutate(cfg)
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_, err := Build(ctx, cfg, zerolog.Nop())
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestBuildWithoutMetrics(t *testing.T) {
	t.Parallel()
	cfg := testConfig("http://127.0.0.1:1", "http://127.0.0.1:1")
	cfg.Telemetry.MetricsEnabled = false
	cfg.Cache.Enabled = false
	a, err := Build(context.Background(), cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer a.Close()
	if a.Registry != nil {
		t.Fatalf("registry should be nil when metrics are disabled")
	}
}
