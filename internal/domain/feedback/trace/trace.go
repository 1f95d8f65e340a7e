// Package trace holds the diagnostic payload describing how a feedback
// query was expanded and executed. Built lazily, only when debug output
// is requested.
package trace

// Trace captures the original query, the raw expanded query, the executed
// filter clauses and stage timings.
type Trace struct {
	QueryString         string   `json:"query_string"`
	ParsedQuery         string   `json:"parsed_query"`
	FeedbackQuery       string   `json:"feedback_query"`
	FilterQueries       []string `json:"filter_queries,omitempty"`
	ParsedFilterQueries []string `json:"parsed_filter_queries,omitempty"`
	SeedNumFound        int      `json:"seed_num_found"`
	SeedElapsedMs       float64  `json:"seed_elapsed_ms"`
	ExpandElapsedMs     float64  `json:"expand_elapsed_ms"`
	Explain             []string `json:"explain,omitempty"`
}
