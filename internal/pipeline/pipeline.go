// Package pipeline turns a script into a ranked, annotated list of source
// articles. External language-model and search services are reached through
// the capability interfaces in capabilities.go.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mohammad-safakhou/sourcer/models"
)

// Options tunes a Pipeline. Zero values fall back to the package defaults.
type Options struct {
	RelevanceThreshold int
	BatchSize          int
	MaxConcurrency     int
	FetchTimeout       time.Duration
	CallTimeout        time.Duration
	GlobalRealign      bool
}

// Pipeline runs the full script-to-citations flow. It keeps no state between
// runs and is safe for concurrent use.
type Pipeline struct {
	caps       Capabilities
	callTO     time.Duration
	log        zerolog.Logger
	metrics    *Metrics
	reconciler *Reconciler
	rights     *RightsAnnotator
}

func errMissing(what string) error {
	return fmt.Errorf("pipeline: %s capability is required", what)
}

// New validates caps and assembles the stages. metrics may be nil.
func New(caps Capabilities, opts Options, logger zerolog.Logger, metrics *Metrics) (*Pipeline, error) {
	if err := caps.validate(); err != nil {
		return nil, err
	}
	if opts.RelevanceThreshold < 0 || opts.RelevanceThreshold > 100 {
		return nil, fmt.Errorf("pipeline: relevance threshold %d outside [0,100]", opts.RelevanceThreshold)
	}
	callTO := opts.CallTimeout
	if callTO <= 0 {
		callTO = DefaultCallTimeout
	}
	logger = logger.With().Str("component", "pipeline").Logger()
	return &Pipeline{
		caps:    caps,
		callTO:  callTO,
		log:     logger,
		metrics: metrics,
		reconciler: &Reconciler{
			Source: caps.Source,
			Filter: &RelevanceFilter{
				Scorer:    caps.Scorer,
				Threshold: opts.RelevanceThreshold,
				BatchSize: opts.BatchSize,
				metrics:   metrics,
			},
			Aligner:        &SentenceAligner{Aligner: caps.Aligner, metrics: metrics},
			MaxConcurrency: opts.MaxConcurrency,
			FetchTimeout:   opts.FetchTimeout,
			CallTimeout:    callTO,
			GlobalRealign:  opts.GlobalRealign,
			Logger:         logger,
			metrics:        metrics,
		},
		rights: &RightsAnnotator{Legal: caps.Legal, metrics: metrics},
	}, nil
}

// Process analyses script and returns the citation report. Results is empty,
// not nil, when no article clears the relevance threshold.
func (p *Pipeline) Process(ctx context.Context, script string) (*models.Report, error) {
	script = strings.TrimSpace(script)
	if script == "" {
		return nil, ErrEmptyScript
	}
	runID := uuid.NewString()
	log := p.log.With().Str("run_id", runID).Logger()
	began := time.Now()

	report, err := p.run(ctx, log, script)
	if err != nil {
		p.metrics.observeRun("error")
		var ce *CapabilityError
		if errors.As(err, &ce) {
			log.Error().Err(err).Str("stage", string(ce.Stage)).Str("raw", ce.Raw).Msg("pipeline run failed")
		} else {
			log.Error().Err(err).Msg("pipeline run failed")
		}
		return nil, err
	}
	report.RunID = runID
	if len(report.Results) == 0 {
		p.metrics.observeRun("empty")
	} else {
		p.metrics.observeRun("ok")
	}
	log.Info().Int("results", len(report.Results)).Dur("took", time.Since(began)).Msg("pipeline run finished")
	return report, nil
}

func (p *Pipeline) run(ctx context.Context, log zerolog.Logger, script string) (*models.Report, error) {
	var analysis models.ScriptAnalysis
	err := p.call(ctx, StageExtraction, func(cctx context.Context) error {
		var e error
		analysis, e = p.caps.Extractor.Extract(cctx, script)
		return e
	})
	if err != nil {
		return nil, err
	}
	keywords := compact(analysis.Keywords)

	var groups [][]string
	if len(analysis.Queries) > 0 {
		err = p.call(ctx, StageSimplification, func(cctx context.Context) error {
			var e error
			groups, e = p.caps.Simplifier.Simplify(cctx, analysis.Queries)
			return e
		})
		if err != nil {
			return nil, err
		}
		if len(groups) != len(analysis.Queries) {
			return nil, Malformed(StageSimplification, rawJSON(groups), "got %d phrase groups for %d queries", len(groups), len(analysis.Queries))
		}
	}
	simplified := FlattenQueries(groups)
	sentences := SplitSentences(script)
	log.Debug().Int("keywords", len(keywords)).Int("queries", len(simplified)).Int("sentences", len(sentences)).Msg("script analysed")

	report := &models.Report{
		MainTopics:        analysis.MainTopics,
		Keywords:          keywords,
		Queries:           nonNil(analysis.Queries),
		SimplifiedQueries: simplified,
		KeywordPositions:  KeywordPositions(sentences, keywords),
		Results:           []models.Article{},
	}

	merged, err := p.reconciler.Reconcile(ctx, simplified, keywords, sentences)
	if err != nil {
		return nil, err
	}
	if len(merged) == 0 {
		return report, nil
	}

	var annotated []models.Article
	err = p.call(ctx, StageLegal, func(cctx context.Context) error {
		var e error
		annotated, e = p.rights.Annotate(cctx, merged)
		return e
	})
	if err != nil {
		return nil, err
	}
	report.Results = Rank(annotated)
	p.metrics.countArticles("ranked", len(report.Results))
	return report, nil
}

func (p *Pipeline) call(ctx context.Context, stage Stage, fn func(context.Context) error) error {
	cctx, cancel := context.WithTimeout(ctx, p.callTO)
	defer cancel()
	began := time.Now()
	err := fn(cctx)
	if stage == StageExtraction || stage == StageSimplification {
		p.metrics.observeCapability(stage, began, err)
	}
	return wrapStage(stage, err)
}

// FlattenQueries joins every phrase group into one search string, dropping
// blank groups and exact repeats while keeping group order.
func FlattenQueries(groups [][]string) []string {
	out := make([]string, 0, len(groups))
	seen := make(map[string]struct{}, len(groups))
	for _, g := range groups {
		q := strings.Join(compact(g), " ")
		if q == "" {
			continue
		}
		if _, ok := seen[q]; ok {
			continue
		}
		seen[q] = struct{}{}
		out = append(out, q)
	}
	return out
}

func compact(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
