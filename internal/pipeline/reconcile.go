package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/mohammad-safakhou/sourcer/models"
)

const (
	DefaultMaxConcurrency = 4
	DefaultFetchTimeout   = 20 * time.Second
	DefaultCallTimeout    = 60 * time.Second
)

// Reconciler runs fetch, dedup, relevance and alignment for every query
// variant and merges the results.
//
// Variants run concurrently but each writes only its own slot; slots are
// concatenated in query order before the final dedup pass, so the earliest
// query keeps its score and position when the same article shows up twice.
type Reconciler struct {
	Source  ArticleSource
	Filter  *RelevanceFilter
	Aligner *SentenceAligner

	MaxConcurrency int
	FetchTimeout   time.Duration
	CallTimeout    time.Duration
	// GlobalRealign re-runs alignment once over the merged list so positions
	// are assigned by a single capability call.
	GlobalRealign bool

	Logger  zerolog.Logger
	metrics *Metrics
}

// Reconcile returns the merged, deduplicated, position-tagged articles.
func (r *Reconciler) Reconcile(ctx context.Context, queries, keywords, sentences []string) ([]models.Article, error) {
	slots := make([][]models.Article, len(queries))

	limit := r.MaxConcurrency
	if limit <= 0 {
		limit = DefaultMaxConcurrency
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, q := range queries {
		g.Go(func() error {
			arts, err := r.runVariant(gctx, q, keywords, sentences)
			if err != nil {
				return err
			}
			slots[i] = arts
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var merged []models.Article
	for _, s := range slots {
		merged = append(merged, s...)
	}
	out := Deduplicate(merged)
	r.metrics.countArticles("merged", len(out))
	r.Logger.Debug().Int("variants", len(queries)).Int("collected", len(merged)).Int("kept", len(out)).Msg("reconciled query variants")

	if r.GlobalRealign && len(out) > 0 {
		realigned, err := r.realign(ctx, sentences, out)
		if err != nil {
			return nil, err
		}
		out = realigned
	}
	return out, nil
}

func (r *Reconciler) runVariant(ctx context.Context, query string, keywords, sentences []string) ([]models.Article, error) {
	log := r.Logger.With().Str("query", query).Logger()

	raw, err := r.fetch(ctx, query)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		r.metrics.queryFailure("source_error")
		log.Warn().Err(err).Msg("article source failed; skipping query")
		return nil, nil
	}
	r.metrics.countArticles("fetched", len(raw))
	if len(raw) == 0 {
		return nil, nil
	}

	unique := Deduplicate(raw)
	r.metrics.countArticles("deduplicated", len(unique))

	var relevant []models.Article
	err = r.withTimeout(ctx, func(cctx context.Context) error {
		var ferr error
		relevant, ferr = r.Filter.Filter(cctx, query, keywords, unique)
		return ferr
	})
	if err != nil {
		return r.absorbTimeout(ctx, log, StageRelevance, err)
	}
	r.metrics.countArticles("relevant", len(relevant))
	if len(relevant) == 0 {
		return nil, nil
	}

	var aligned []models.Article
	err = r.withTimeout(ctx, func(cctx context.Context) error {
		var aerr error
		aligned, aerr = r.Aligner.Align(cctx, sentences, relevant)
		return aerr
	})
	if err != nil {
		return r.absorbTimeout(ctx, log, StageAlignment, err)
	}
	r.metrics.countArticles("aligned", len(aligned))
	log.Debug().Int("fetched", len(raw)).Int("relevant", len(relevant)).Msg("query variant done")
	return aligned, nil
}

func (r *Reconciler) fetch(ctx context.Context, query string) ([]models.Article, error) {
	timeout := r.FetchTimeout
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	fctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	began := time.Now()
	arts, err := r.Source.Fetch(fctx, query)
	r.metrics.observeCapability(StageSource, began, err)
	return arts, err
}

func (r *Reconciler) withTimeout(ctx context.Context, fn func(context.Context) error) error {
	timeout := r.CallTimeout
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(cctx)
}

// absorbTimeout turns a per-call deadline into an empty variant. Anything
// else, including cancellation of the caller's context, is returned.
func (r *Reconciler) absorbTimeout(ctx context.Context, log zerolog.Logger, stage Stage, err error) ([]models.Article, error) {
	if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
		r.metrics.queryFailure("timeout")
		log.Warn().Err(err).Str("stage", string(stage)).Msg("capability timed out; skipping query")
		return nil, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return nil, err
}

func (r *Reconciler) realign(ctx context.Context, sentences []string, articles []models.Article) ([]models.Article, error) {
	var out []models.Article
	err := r.withTimeout(ctx, func(cctx context.Context) error {
		var aerr error
		out, aerr = r.Aligner.Align(cctx, sentences, articles)
		return aerr
	})
	if err == nil {
		return out, nil
	}
	if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
		r.Logger.Warn().Err(err).Msg("global realignment timed out; keeping per-query positions")
		return articles, nil
	}
	return nil, err
}
