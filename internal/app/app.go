// Package app assembles the pipeline and its adapters from configuration.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/mohammad-safakhou/sourcer/config"
	"github.com/mohammad-safakhou/sourcer/internal/llm"
	"github.com/mohammad-safakhou/sourcer/internal/pipeline"
	"github.com/mohammad-safakhou/sourcer/internal/search"
	"github.com/mohammad-safakhou/sourcer/repository"
)

// App is a fully wired pipeline plus the resources it holds.
type App struct {
	Pipeline *pipeline.Pipeline
	// Registry is nil when metrics are disabled.
	Registry *prometheus.Registry

	closers []func() error
}

// Build wires every dependency named in cfg. Call Close when done.
func Build(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	a := &App{}
	ok := false
	defer func() {
		if !ok {
			_ = a.Close()
		}
	}()

	completer, err := a.completer(ctx, cfg.LLM)
	if err != nil {
		return nil, err
	}
	caps := llm.NewCapabilities(completer, cfg.LLM.Models).Bind()

	providers, err := search.FromConfig(cfg.Sources, logger)
	if err != nil {
		return nil, err
	}
	chain := search.NewChain(logger, providers...)
	caps.Source = chain
	if cfg.Cache.Enabled {
		cache, closeCache, err := repository.NewSearchCache(ctx, repository.CacheType(cfg.Cache.Backend), cfg.Storage.Redis)
		if err != nil {
			return nil, fmt.Errorf("search cache: %w", err)
		}
		a.closers = append(a.closers, closeCache)
		caps.Source = search.NewCached(chain, cache, cfg.Cache.TTL, cfg.Cache.Prefix, logger)
	}

	var metrics *pipeline.Metrics
	if cfg.Telemetry.MetricsEnabled {
		a.Registry = prometheus.NewRegistry()
		a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		if metrics, err = pipeline.NewMetrics(a.Registry); err != nil {
			return nil, fmt.Errorf("metrics: %w", err)
		}
	}

	a.Pipeline, err = pipeline.New(caps, pipeline.Options{
		RelevanceThreshold: cfg.Pipeline.RelevanceThreshold,
		BatchSize:          cfg.Pipeline.BatchSize,
		MaxConcurrency:     cfg.Pipeline.MaxConcurrency,
		FetchTimeout:       cfg.Pipeline.FetchTimeout,
		CallTimeout:        cfg.Pipeline.CallTimeout,
		GlobalRealign:      cfg.Pipeline.GlobalRealign,
	}, logger, metrics)
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("llm", cfg.LLM.Provider).
		Strs("sources", chain.Providers()).
		Bool("cache", cfg.Cache.Enabled).
		Msg("pipeline ready")
	ok = true
	return a, nil
}

func (a *App) completer(ctx context.Context, cfg config.LLMConfig) (llm.Completer, error) {
	switch cfg.Provider {
	case "openai":
		c, err := llm.NewOpenAIClient(cfg.OpenAI, cfg.Temperature)
		if err != nil {
			return nil, err
		}
		return c, nil
	case "gemini":
		c, err := llm.NewGeminiClient(ctx, cfg.Gemini, cfg.Temperature)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, c.Close)
		return c, nil
	}
	return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
}

// Close releases held connections.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
