package relfeed

import (
	"context"
	"fmt"

	"github.com/querystack/relfeed/internal/domain/feedback/request"
	"github.com/querystack/relfeed/internal/domain/feedback/term"
	"github.com/querystack/relfeed/internal/engine"
)

// Document is one indexed document.
type Document struct {
	ID     string
	Score  float64
	Fields map[string]string
}

// Term rendering styles for FeedbackRequest.InterestingTerms.
const (
	TermsNone    = "none"
	TermsList    = "list"
	TermsDetails = "details"
)

// FeedbackRequest parameterizes one feedback search.
type FeedbackRequest struct {
	// Query locates the seed document, e.g. "id:42".
	Query   string
	Parser  string
	Filters []string
	Sort    string
	Start   int
	Rows    int
	// MaxDocumentsToProcess bounds the seed-candidate window; nil means 1.
	MaxDocumentsToProcess *int
	// MatchInclude echoes the seed match list; nil means true.
	MatchInclude *bool
	MatchOffset  int
	// InterestingTerms is one of TermsNone, TermsList, TermsDetails.
	InterestingTerms string
	Facet            bool
	FacetFields      []string
	IncludeScore     bool
}

// InterestingTerm is one mined expansion term.
type InterestingTerm struct {
	Term  string
	Boost float64
}

// FacetCount is one distinct field value with its document count.
type FacetCount struct {
	Value string
	Count int
}

// FeedbackResult is the outcome of one feedback search.
type FeedbackResult struct {
	NumFound int
	Start    int
	Docs     []Document
	// Match echoes the seed match list; nil when suppressed.
	Match []Document
	// Terms are present when InterestingTerms was list or details.
	Terms []InterestingTerm
	// FacetCounts is nil when faceting was off or no documents matched.
	FacetCounts map[string][]FacetCount
}

// Feedback runs the relevance-feedback pipeline: find the seed document
// for the query, expand it into its characteristic terms, and return the
// documents the expanded query matches.
func (c *Client) Feedback(ctx context.Context, fr FeedbackRequest) (*FeedbackResult, error) {
	style, err := term.ParseStyle(fr.InterestingTerms)
	if err != nil {
		return nil, fmt.Errorf("relfeed: %w", err)
	}

	req, err := request.New(request.Params{
		Query:                 fr.Query,
		Parser:                fr.Parser,
		Filters:               fr.Filters,
		Sort:                  fr.Sort,
		Start:                 fr.Start,
		Rows:                  fr.Rows,
		MaxDocumentsToProcess: fr.MaxDocumentsToProcess,
		MatchInclude:          fr.MatchInclude,
		MatchOffset:           fr.MatchOffset,
		TermStyle:             style,
		Facet:                 fr.Facet,
		FacetFields:           fr.FacetFields,
		IncludeScore:          fr.IncludeScore,
	})
	if err != nil {
		return nil, fmt.Errorf("relfeed: %w", err)
	}

	res, err := c.handler.Handle(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("relfeed: %w", err)
	}

	out := &FeedbackResult{
		NumFound: res.Docs.NumFound,
		Start:    res.Docs.Start,
		Docs:     docsOut(res.Docs.Docs),
	}
	if res.Match != nil {
		out.Match = docsOut(res.Match.Docs)
	}
	for _, it := range res.Terms {
		out.Terms = append(out.Terms, InterestingTerm{Term: it.Label(), Boost: it.Boost()})
	}
	if res.FacetCounts != nil {
		out.FacetCounts = make(map[string][]FacetCount, len(res.FacetCounts))
		for f, counts := range res.FacetCounts {
			cs := make([]FacetCount, len(counts))
			for i, fc := range counts {
				cs[i] = FacetCount{Value: fc.Value, Count: fc.Count}
			}
			out.FacetCounts[f] = cs
		}
	}
	return out, nil
}

func docsOut(docs []engine.Document) []Document {
	out := make([]Document, len(docs))
	for i, d := range docs {
		out[i] = Document{ID: d.ID, Score: d.Score, Fields: d.Fields}
	}
	return out
}
