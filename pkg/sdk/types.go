package sdk

import (
	"encoding/json"
	"fmt"
)

// Term rendering styles for FeedbackRequest.InterestingTerms.
const (
	TermsNone    = "none"
	TermsList    = "list"
	TermsDetails = "details"
)

// FeedbackRequest parameterizes one feedback search.
type FeedbackRequest struct {
	Query                 string
	Parser                string
	Filters               []string
	Sort                  string
	Start                 int
	Rows                  int
	MaxDocumentsToProcess *int
	MatchInclude          *bool
	MatchOffset           int
	InterestingTerms      string
	Facet                 bool
	FacetFields           []string
	// Debug is one of "query", "results", "true", "all".
	Debug        string
	IncludeScore bool
}

// Document is one result document: arbitrary stored fields plus the
// identifier, and a score when requested.
type Document map[string]any

// DocList is a ranked result window.
type DocList struct {
	NumFound int        `json:"numFound"`
	Start    int        `json:"start"`
	Docs     []Document `json:"docs"`
}

// TermDetail is one (term, boost) entry of a details rendering.
type TermDetail struct {
	Term  string  `json:"term"`
	Boost float64 `json:"boost"`
}

// InterestingTerms holds either a plain list or detailed entries,
// depending on the requested style.
type InterestingTerms struct {
	List    []string
	Details []TermDetail
}

// UnmarshalJSON accepts both renderings.
func (t *InterestingTerms) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &t.List); err == nil {
		return nil
	}
	if err := json.Unmarshal(data, &t.Details); err != nil {
		return fmt.Errorf("interestingTerms: %w", err)
	}
	return nil
}

// FacetCount is one distinct field value with its document count.
type FacetCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// FacetCounts carries per-field value counts.
type FacetCounts struct {
	FacetFields map[string][]FacetCount `json:"facet_fields"`
}

// Debug is the diagnostic trace attached when a debug flag was set.
type Debug struct {
	QueryString         string   `json:"query_string"`
	ParsedQuery         string   `json:"parsed_query"`
	FeedbackQuery       string   `json:"feedback_query"`
	FilterQueries       []string `json:"filter_queries"`
	ParsedFilterQueries []string `json:"parsed_filter_queries"`
	SeedNumFound        int      `json:"seed_num_found"`
	SeedElapsedMs       float64  `json:"seed_elapsed_ms"`
	ExpandElapsedMs     float64  `json:"expand_elapsed_ms"`
	Explain             []string `json:"explain"`
}

// FeedbackResponse is the feedback endpoint's JSON document.
type FeedbackResponse struct {
	Response DocList  `json:"response"`
	Match    *DocList `json:"match"`
	// Terms is nil when the style was none.
	Terms *InterestingTerms `json:"interestingTerms"`
	// Facets is nil both when faceting was off and when the server sent
	// an explicit null (no documents matched).
	Facets               *FacetCounts `json:"facet_counts"`
	Debug                *Debug       `json:"debug"`
	ExceptionDuringDebug string       `json:"exception_during_debug"`
}

// APIError is a non-200 response from the server.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("relfeed api: %d %s: %s", e.StatusCode, e.Code, e.Message)
}
