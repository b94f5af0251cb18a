package llm

import (
	"fmt"
	"strings"

	"github.com/mohammad-safakhou/sourcer/models"
)

const (
	systemExtraction     = "You help extract structured information from text."
	systemSimplification = "You extract concise keyword phrases and respond with strict JSON."
	systemRelevance      = "You score article relevance strictly."
	systemAlignment      = "You assign unique sentence indices to articles."
	systemLegal          = "You estimate likely legal use status and explain it concisely."
)

func extractionPrompt(script string) string {
	return fmt.Sprintf(`You are an intelligent text analysis agent.
Read the script below and return a JSON object with:

- "main_topics": a 3-5 sentence summary of the script's main ideas.
- "keywords": 5-10 of the most important names, places and concepts.
- "queries": 4-8 very specific search queries a journalist would use to investigate this exact case, not just the general topic.

Avoid generic phrasing such as "unidentified victims" or "forensic techniques". Be concrete.

Return ONLY the JSON object, with no extra text.

Script:
"""
%s
"""`, script)
}

func simplificationPrompt(queries []string) string {
	var b strings.Builder
	b.WriteString(`You are a query simplification assistant.

For each question below, extract only the 2 or 3 most important keyword phrases.
Return ONLY strictly valid JSON in this format, with one inner list per question, in order:

{
  "results": [
    ["keyword1 keyword2", "keyword1 keyword3"],
    ["keyword1 keyword2 keyword3"]
  ]
}

Questions:
`)
	for _, q := range queries {
		b.WriteString("- ")
		b.WriteString(q)
		b.WriteByte('\n')
	}
	return b.String()
}

func relevancePrompt(query string, keywords []string, articles []models.Article) string {
	var b strings.Builder
	b.WriteString(`You are an AI relevance scorer.

For each article below, assign a numeric relevance score between 0 and 100:

- 100: directly about the topic and discusses the key points in detail.
- 50: related to the topic but does not cover any key point substantially.
- 0: unrelated to the topic.

Be conservative with high scores: only assign 100 if the article clearly discusses the key points.

Topic:
"`)
	b.WriteString(query)
	b.WriteString("\"\n\nKey Points:\n")
	for _, k := range keywords {
		b.WriteString("- ")
		b.WriteString(k)
		b.WriteByte('\n')
	}
	b.WriteString("\nArticles:\n")
	for i, a := range articles {
		fmt.Fprintf(&b, "\n%d. Title: %s\nDescription: %s", i+1, a.Title, a.Description)
	}
	fmt.Fprintf(&b, "\n\nReturn ONLY a JSON array of exactly %d integer scores, in article order.\nExample:\n[100, 50, 0]", len(articles))
	return b.String()
}

func alignmentPrompt(sentences []string, articles []models.Article) string {
	var b strings.Builder
	b.WriteString(`You are an AI assistant helping to align articles to a script.

Task:
- The script below is split into numbered sentences.
- For each article, choose the sentence number (starting at 1) that best matches the article's topic and content.
- Each article must get a different sentence number whenever possible.
- Return ONLY a JSON array of integers, one per article, in article order.

Script Sentences:
`)
	for i, s := range sentences {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s)
	}
	b.WriteString("\nArticles:\n")
	for i, a := range articles {
		fmt.Fprintf(&b, "\nArticle %d:\nTitle: %s\nDescription: %s\n", i+1, a.Title, a.Description)
	}
	b.WriteString("\nReturn ONLY the JSON array of integers, no explanations.")
	return b.String()
}

func legalPrompt(articles []models.Article) string {
	var b strings.Builder
	fmt.Fprintf(&b, `You are an AI that estimates the likely copyright or usage status of online articles for content creators.
For each article, return a JSON object with:
- "label": one of %q, %q or %q
- "note": one short sentence explaining why.

Return ONLY a JSON array of objects in this format, one per article, in order:
[
  {"label": "...", "note": "..."},
  {"label": "...", "note": "..."}
]

Articles:
`, models.UsagePublicDomain, models.UsageFairUseLikely, models.UsageLicenseRequired)
	for i, a := range articles {
		fmt.Fprintf(&b, "\n%d. Title: %s\nURL: %s", i+1, a.Title, a.URL)
	}
	return b.String()
}
