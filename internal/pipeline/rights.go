package pipeline

import (
	"context"
	"time"

	"github.com/mohammad-safakhou/sourcer/models"
)

// RightsAnnotator attaches advisory usage labels to the reconciled list.
type RightsAnnotator struct {
	Legal   LegalEstimator
	metrics *Metrics
}

// Annotate makes a single estimation call for all articles.
func (r *RightsAnnotator) Annotate(ctx context.Context, articles []models.Article) ([]models.Article, error) {
	if len(articles) == 0 {
		return []models.Article{}, nil
	}
	began := time.Now()
	verdicts, err := r.Legal.Estimate(ctx, articles)
	r.metrics.observeCapability(StageLegal, began, err)
	if err != nil {
		return nil, wrapStage(StageLegal, err)
	}
	if len(verdicts) != len(articles) {
		return nil, Malformed(StageLegal, rawJSON(verdicts), "got %d verdicts for %d articles", len(verdicts), len(articles))
	}
	out := make([]models.Article, len(articles))
	for i, v := range verdicts {
		if !v.Label.Valid() {
			return nil, Malformed(StageLegal, rawJSON(verdicts), "unknown label %q at position %d", v.Label, i+1)
		}
		out[i] = articles[i]
		out[i].UsageLabel = v.Label
		out[i].UsageNote = v.Note
	}
	return out, nil
}
