package pipeline

import (
	"sort"

	"github.com/mohammad-safakhou/sourcer/models"
)

// Rank orders articles by script position, then by the raw publication date
// string, keeping merge order for ties, and numbers them from 1.
func Rank(articles []models.Article) []models.Article {
	out := make([]models.Article, len(articles))
	copy(out, articles)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ScriptPosition != out[j].ScriptPosition {
			return out[i].ScriptPosition < out[j].ScriptPosition
		}
		return out[i].PublishedAt < out[j].PublishedAt
	})
	for i := range out {
		out[i].ResultNumber = i + 1
	}
	return out
}
