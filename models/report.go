package models

// ScriptAnalysis is the extraction result for one script.
type ScriptAnalysis struct {
	MainTopics string   `json:"main_topics"`
	Keywords   []string `json:"keywords"`
	Queries    []string `json:"queries"`
	// SimplifiedQueryVariants holds the reduced keyword phrases per query, in query order.
	SimplifiedQueryVariants [][]string `json:"simplified_query_variants,omitempty"`
}

// Report is the outcome of one pipeline run.
type Report struct {
	RunID             string         `json:"run_id" yaml:"run_id"`
	MainTopics        string         `json:"main_topics" yaml:"main_topics"`
	Keywords          []string       `json:"keywords" yaml:"keywords"`
	Queries           []string       `json:"queries" yaml:"queries"`
	SimplifiedQueries []string       `json:"simplified_queries" yaml:"simplified_queries"`
	KeywordPositions  map[string]int `json:"keyword_positions,omitempty" yaml:"keyword_positions,omitempty"`
	Results           []Article      `json:"results" yaml:"results"`
}
