package pipeline

import (
	"context"

	"github.com/mohammad-safakhou/sourcer/models"
)

// ScriptExtractor derives topics, keywords and search queries from a script.
type ScriptExtractor interface {
	Extract(ctx context.Context, script string) (models.ScriptAnalysis, error)
}

// QuerySimplifier reduces every query to a small group of keyword phrases.
// The result has one group per input query, in the same order.
type QuerySimplifier interface {
	Simplify(ctx context.Context, queries []string) ([][]string, error)
}

// ArticleSource returns raw, unscored articles for a search query.
type ArticleSource interface {
	Fetch(ctx context.Context, query string) ([]models.Article, error)
}

// RelevanceScorer returns one score in [0,100] per article, in input order.
type RelevanceScorer interface {
	Score(ctx context.Context, query string, keywords []string, articles []models.Article) ([]int, error)
}

// Aligner returns one 1-based sentence index per article, in input order.
type Aligner interface {
	Align(ctx context.Context, sentences []string, articles []models.Article) ([]int, error)
}

// LegalEstimator returns one usage verdict per article, in input order.
type LegalEstimator interface {
	Estimate(ctx context.Context, articles []models.Article) ([]models.Rights, error)
}

type ExtractorFunc func(ctx context.Context, script string) (models.ScriptAnalysis, error)

func (f ExtractorFunc) Extract(ctx context.Context, script string) (models.ScriptAnalysis, error) {
	return f(ctx, script)
}

type SimplifierFunc func(ctx context.Context, queries []string) ([][]string, error)

func (f SimplifierFunc) Simplify(ctx context.Context, queries []string) ([][]string, error) {
	return f(ctx, queries)
}

type SourceFunc func(ctx context.Context, query string) ([]models.Article, error)

func (f SourceFunc) Fetch(ctx context.Context, query string) ([]models.Article, error) {
	return f(ctx, query)
}

type ScorerFunc func(ctx context.Context, query string, keywords []string, articles []models.Article) ([]int, error)

func (f ScorerFunc) Score(ctx context.Context, query string, keywords []string, articles []models.Article) ([]int, error) {
	return f(ctx, query, keywords, articles)
}

type AlignerFunc func(ctx context.Context, sentences []string, articles []models.Article) ([]int, error)

func (f AlignerFunc) Align(ctx context.Context, sentences []string, articles []models.Article) ([]int, error) {
	return f(ctx, sentences, articles)
}

type LegalFunc func(ctx context.Context, articles []models.Article) ([]models.Rights, error)

func (f LegalFunc) Estimate(ctx context.Context, articles []models.Article) ([]models.Rights, error) {
	return f(ctx, articles)
}

// Capabilities bundles the external collaborators of a Pipeline.
type Capabilities struct {
	Extractor  ScriptExtractor
	Simplifier QuerySimplifier
	Source     ArticleSource
	Scorer     RelevanceScorer
	Aligner    Aligner
	Legal      LegalEstimator
}

func (c Capabilities) validate() error {
	switch {
	case c.Extractor == nil:
		return errMissing("extractor")
	case c.Simplifier == nil:
		return errMissing("simplifier")
	case c.Source == nil:
		return errMissing("source")
	case c.Scorer == nil:
		return errMissing("scorer")
	case c.Aligner == nil:
		return errMissing("aligner")
	case c.Legal == nil:
		return errMissing("legal estimator")
	}
	return nil
}
