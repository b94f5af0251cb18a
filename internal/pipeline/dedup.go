package pipeline

import (
	"github.com/mohammad-safakhou/sourcer/internal/helpers"
	"github.com/mohammad-safakhou/sourcer/models"
)

type normalized struct {
	url, title, desc string
}

func normalize(a models.Article) normalized {
	return normalized{
		url:   helpers.NormalizeURL(a.URL),
		title: helpers.NormalizeTitle(a.Title),
		desc:  helpers.NormalizeTitle(a.Description),
	}
}

// candidateKeys lists every identity key of an article. The url+title,
// title+description and content keys are checked together so a record that
// matches a kept one on any axis is a duplicate. The record key is used only
// when no text signal exists.
func candidateKeys(a models.Article) []string {
	n := normalize(a)
	keys := make([]string, 0, 3)
	if n.url != "" && n.title != "" {
		keys = append(keys, "ut:"+n.url+"\x1f"+n.title)
	}
	if n.title != "" && n.desc != "" {
		keys = append(keys, "td:"+n.title+"\x1f"+n.desc)
	}
	if n.title+n.desc != "" {
		keys = append(keys, "ch:"+helpers.ContentHash(n.title+n.desc))
	}
	if len(keys) == 0 {
		keys = append(keys, "rh:"+helpers.ContentHash(n.url, n.title, n.desc, a.PublishedAt))
	}
	return keys
}

// CompositeKey is the primary identity of an article: url+title when both are
// present, else title+description, else a content hash.
func CompositeKey(a models.Article) string {
	return candidateKeys(a)[0]
}

// Deduplicate keeps the first article of every duplicate cluster, in input
// order. It does not modify its input and is idempotent.
func Deduplicate(articles []models.Article) []models.Article {
	out := make([]models.Article, 0, len(articles))
	seen := make(map[string]struct{}, len(articles)*3)
	for _, a := range articles {
		keys := candidateKeys(a)
		dup := false
		for _, k := range keys {
			if _, ok := seen[k]; ok {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		for _, k := range keys {
			seen[k] = struct{}{}
		}
		out = append(out, a)
	}
	return out
}
