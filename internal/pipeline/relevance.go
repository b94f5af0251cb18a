package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mohammad-safakhou/sourcer/models"
)

const (
	DefaultRelevanceThreshold = 80
	DefaultBatchSize          = 20
)

// RelevanceFilter scores articles for one query and keeps the ones at or
// above Threshold.
type RelevanceFilter struct {
	Scorer    RelevanceScorer
	Threshold int
	BatchSize int
	metrics   *Metrics
}

// Filter returns tagged copies of the retained articles, in input order.
// A score count that differs from the batch size, or a score outside
// [0,100], fails the call.
func (f *RelevanceFilter) Filter(ctx context.Context, query string, keywords []string, articles []models.Article) ([]models.Article, error) {
	if len(articles) == 0 {
		return []models.Article{}, nil
	}
	size := f.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}
	threshold := f.Threshold
	if threshold <= 0 {
		threshold = DefaultRelevanceThreshold
	}

	kept := make([]models.Article, 0, len(articles))
	for start := 0; start < len(articles); start += size {
		end := min(start+size, len(articles))
		batch := articles[start:end]

		began := time.Now()
		scores, err := f.Scorer.Score(ctx, query, keywords, batch)
		f.metrics.observeCapability(StageRelevance, began, err)
		if err != nil {
			return nil, wrapStage(StageRelevance, err)
		}
		if len(scores) != len(batch) {
			return nil, Malformed(StageRelevance, rawJSON(scores), "got %d scores for %d articles", len(scores), len(batch))
		}
		for i, score := range scores {
			if score < 0 || score > 100 {
				return nil, Malformed(StageRelevance, rawJSON(scores), "score %d at position %d is outside [0,100]", score, i+1)
			}
			if score < threshold {
				continue
			}
			a := batch[i]
			a.RelevanceScore = score
			a.OriginQuery = query
			kept = append(kept, a)
		}
	}
	return kept, nil
}

func rawJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
