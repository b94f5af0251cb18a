package pipeline

import (
	"context"
	"time"

	"github.com/mohammad-safakhou/sourcer/models"
)

// SentenceAligner tags articles with the script sentence they support.
type SentenceAligner struct {
	Aligner Aligner
	metrics *Metrics
}

// Align sends one batch to the alignment capability and maps the returned
// indices back onto copies of the articles.
func (s *SentenceAligner) Align(ctx context.Context, sentences []string, articles []models.Article) ([]models.Article, error) {
	if len(articles) == 0 {
		return []models.Article{}, nil
	}
	began := time.Now()
	positions, err := s.Aligner.Align(ctx, sentences, articles)
	s.metrics.observeCapability(StageAlignment, began, err)
	if err != nil {
		return nil, wrapStage(StageAlignment, err)
	}
	if len(positions) != len(articles) {
		return nil, Malformed(StageAlignment, rawJSON(positions), "got %d positions for %d articles", len(positions), len(articles))
	}
	out := make([]models.Article, len(articles))
	for i, pos := range positions {
		if pos < 1 || pos > len(sentences) {
			return nil, Malformed(StageAlignment, rawJSON(positions), "position %d is outside [1,%d]", pos, len(sentences))
		}
		out[i] = articles[i]
		out[i].ScriptPosition = pos
	}
	return out, nil
}
