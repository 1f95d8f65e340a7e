// Package engine defines the contract between the feedback pipeline and
// the underlying inverted-index search engine, along with the value
// types that flow across it.
package engine

import (
	"context"

	"github.com/querystack/relfeed/internal/query"
)

// Document is one stored document with its ranked score.
type Document struct {
	ID     string
	Score  float64
	Fields map[string]string
}

// DocList is a ranked, paginated window over the matching documents.
type DocList struct {
	// NumFound is the total number of matches, independent of the window.
	NumFound int
	// Start is the window offset within the full ranking.
	Start int
	// Docs is the window itself, in ranked order.
	Docs []Document
}

// DocSet is the identifier set of matching documents, used for facet
// aggregation. A nil set means no set was computed.
type DocSet []string

// DocListAndSet pairs a paginated document window with the optional
// document set and the raw query text the engine executed. It is never
// nil-valued through the pipeline: the empty-seed path yields the zero
// value (empty list, nil set).
type DocListAndSet struct {
	List DocList
	Set  DocSet
	// Raw is the engine-dialect query text that was executed.
	Raw string
}

// SearchOptions parameterizes one engine search.
type SearchOptions struct {
	Filters    []query.Node
	Sort       []query.SortField
	Offset     int
	Limit      int
	WithScores bool
	// NeedDocSet requests the document set for facet aggregation.
	NeedDocSet bool
}

// Searcher executes queries against the index.
type Searcher interface {
	Search(ctx context.Context, q query.Node, opts SearchOptions) (*DocListAndSet, error)
}

// TermStats exposes the corpus statistics term extraction needs.
type TermStats interface {
	// DocCount returns the number of documents in the index.
	DocCount(ctx context.Context) (int, error)
	// DocFreq returns the number of documents containing term in field.
	DocFreq(ctx context.Context, field, text string) (int, error)
}

// FacetCount is one distinct field value with its document count.
type FacetCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Faceter aggregates facet counts over a search result.
type Faceter interface {
	FacetCounts(ctx context.Context, res *DocListAndSet, fields []string) (map[string][]FacetCount, error)
}

// Engine is the full collaborator surface the pipeline consumes.
type Engine interface {
	Searcher
	TermStats
	Faceter
	// UniqueKeyField names the document identifier field.
	UniqueKeyField() string
}
