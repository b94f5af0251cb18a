package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/mohammad-safakhou/sourcer/config"
	"github.com/mohammad-safakhou/sourcer/internal/pipeline"
	"github.com/mohammad-safakhou/sourcer/models"
)

// Capabilities implements every language-model capability of the pipeline
// with one Completer and a model per task.
type Capabilities struct {
	completer Completer
	models    config.LLMModelsConfig
}

// NewCapabilities wraps c. Each task uses the model named in m.
func NewCapabilities(c Completer, m config.LLMModelsConfig) *Capabilities {
	return &Capabilities{completer: c, models: m}
}

// Bind returns the pipeline capabilities backed by c, leaving Source unset.
func (c *Capabilities) Bind() pipeline.Capabilities {
	return pipeline.Capabilities{
		Extractor:  pipeline.ExtractorFunc(c.Extract),
		Simplifier: pipeline.SimplifierFunc(c.Simplify),
		Scorer:     pipeline.ScorerFunc(c.Score),
		Aligner:    pipeline.AlignerFunc(c.Align),
		Legal:      pipeline.LegalFunc(c.Estimate),
	}
}

// ask sends the prompt, validates the answer against schema and decodes it
// into out. Shape problems come back as malformed-response errors carrying
// the raw answer.
func (c *Capabilities) ask(ctx context.Context, stage pipeline.Stage, schema string, p Prompt, out any) error {
	raw, err := c.completer.Complete(ctx, p)
	if err != nil {
		return &pipeline.CapabilityError{Stage: stage, Err: err}
	}
	body := stripFences(raw)
	if err := validateJSON(schema, []byte(body)); err != nil {
		return pipeline.Malformed(stage, raw, "%v", err)
	}
	if err := json.Unmarshal([]byte(body), out); err != nil {
		return pipeline.Malformed(stage, raw, "decode: %v", err)
	}
	return nil
}

// Extract implements pipeline.ScriptExtractor. Keyword entries that are not
// strings are dropped.
func (c *Capabilities) Extract(ctx context.Context, script string) (models.ScriptAnalysis, error) {
	var resp struct {
		MainTopics string            `json:"main_topics"`
		Keywords   []json.RawMessage `json:"keywords"`
		Queries    []string          `json:"queries"`
	}
	p := Prompt{Model: c.models.Extraction, System: systemExtraction, User: extractionPrompt(script)}
	if err := c.ask(ctx, pipeline.StageExtraction, schemaExtraction, p, &resp); err != nil {
		return models.ScriptAnalysis{}, err
	}
	keywords := make([]string, 0, len(resp.Keywords))
	for _, raw := range resp.Keywords {
		var kw string
		if err := json.Unmarshal(raw, &kw); err != nil {
			continue
		}
		if kw = strings.TrimSpace(kw); kw != "" {
			keywords = append(keywords, kw)
		}
	}
	return models.ScriptAnalysis{
		MainTopics: strings.TrimSpace(resp.MainTopics),
		Keywords:   keywords,
		Queries:    resp.Queries,
	}, nil
}

// Simplify implements pipeline.QuerySimplifier. A bare string in place of a
// phrase list is treated as a single phrase.
func (c *Capabilities) Simplify(ctx context.Context, queries []string) ([][]string, error) {
	var resp struct {
		Results []json.RawMessage `json:"results"`
	}
	p := Prompt{Model: c.models.Simplification, System: systemSimplification, User: simplificationPrompt(queries)}
	if err := c.ask(ctx, pipeline.StageSimplification, schemaSimplification, p, &resp); err != nil {
		return nil, err
	}
	out := make([][]string, 0, len(resp.Results))
	for _, raw := range resp.Results {
		var group []string
		if err := json.Unmarshal(raw, &group); err != nil {
			var single string
			if err := json.Unmarshal(raw, &single); err != nil {
				return nil, pipeline.Malformed(pipeline.StageSimplification, string(raw), "phrase group: %v", err)
			}
			group = []string{single}
		}
		out = append(out, group)
	}
	return out, nil
}

// Score implements pipeline.RelevanceScorer.
func (c *Capabilities) Score(ctx context.Context, query string, keywords []string, articles []models.Article) ([]int, error) {
	var resp []float64
	p := Prompt{Model: c.models.Relevance, System: systemRelevance, User: relevancePrompt(query, keywords, articles)}
	if err := c.ask(ctx, pipeline.StageRelevance, schemaRelevance, p, &resp); err != nil {
		return nil, err
	}
	return toInts(resp), nil
}

// Align implements pipeline.Aligner.
func (c *Capabilities) Align(ctx context.Context, sentences []string, articles []models.Article) ([]int, error) {
	var resp []float64
	p := Prompt{Model: c.models.Alignment, System: systemAlignment, User: alignmentPrompt(sentences, articles)}
	if err := c.ask(ctx, pipeline.StageAlignment, schemaAlignment, p, &resp); err != nil {
		return nil, err
	}
	return toInts(resp), nil
}

// Estimate implements pipeline.LegalEstimator.
func (c *Capabilities) Estimate(ctx context.Context, articles []models.Article) ([]models.Rights, error) {
	var resp []struct {
		Label string `json:"label"`
		Note  string `json:"note"`
	}
	p := Prompt{Model: c.models.Legal, System: systemLegal, User: legalPrompt(articles)}
	if err := c.ask(ctx, pipeline.StageLegal, schemaLegal, p, &resp); err != nil {
		return nil, err
	}
	out := make([]models.Rights, 0, len(resp))
	for i, r := range resp {
		label, err := models.ParseUsageLabel(r.Label)
		if err != nil {
			return nil, pipeline.Malformed(pipeline.StageLegal, rawText(resp), "verdict %d: %v", i+1, err)
		}
		out = append(out, models.Rights{Label: label, Note: strings.TrimSpace(r.Note)})
	}
	return out, nil
}

// toInts converts schema-checked integral numbers.
func toInts(in []float64) []int {
	out := make([]int, len(in))
	for i, v := range in {
		out[i] = int(math.Round(v))
	}
	return out
}

func rawText(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
