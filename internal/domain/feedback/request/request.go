package request

import (
	"fmt"

	"github.com/querystack/relfeed/internal/domain"
	"github.com/querystack/relfeed/internal/domain/feedback/term"
)

// Request parameter limits and defaults.
const (
	DefaultRows = 10
	MaxRows     = 500

	// DefaultMaxDocumentsToProcess bounds the seed-candidate window.
	// Only the first ranked candidate drives expansion.
	DefaultMaxDocumentsToProcess = 1
	MaxDocumentsToProcessLimit   = 50

	MaxQueryLength = 4096
)

// Params carries raw feedback request parameters before validation.
// Pointer fields distinguish "not set" from an explicit zero/false.
type Params struct {
	Query                 string
	Parser                string
	Filters               []string
	Sort                  string
	Start                 int
	Rows                  int
	MaxDocumentsToProcess *int
	MatchInclude          *bool
	MatchOffset           int
	TermStyle             term.Style
	Facet                 bool
	FacetFields           []string
	DebugQuery            bool
	DebugResults          bool
	IncludeScore          bool
}

// Request is a validated, immutable feedback query request.
type Request struct {
	query        string
	parser       string
	filters      []string
	sort         string
	start        int
	rows         int
	maxDocs      int
	matchInclude bool
	matchOffset  int
	termStyle    term.Style
	facet        bool
	facetFields  []string
	debugQuery   bool
	debugResults bool
	includeScore bool
}

// New validates and normalizes feedback parameters.
// Defaults: rows=10, maxDocumentsToProcess=1, matchInclude=true, termStyle=none.
// maxDocumentsToProcess=0 is allowed and resolves to the empty-seed path.
func New(p Params) (Request, error) {
	if p.Query == "" {
		return Request{}, domain.ErrMissingQuery
	}
	if len(p.Query) > MaxQueryLength {
		return Request{}, fmt.Errorf("query too long (max %d chars)", MaxQueryLength)
	}
	if p.Start < 0 {
		return Request{}, fmt.Errorf("start must not be negative")
	}
	if p.MatchOffset < 0 {
		return Request{}, fmt.Errorf("matchOffset must not be negative")
	}

	rows := p.Rows
	if rows <= 0 {
		rows = DefaultRows
	}
	if rows > MaxRows {
		rows = MaxRows
	}

	maxDocs := DefaultMaxDocumentsToProcess
	if p.MaxDocumentsToProcess != nil {
		maxDocs = *p.MaxDocumentsToProcess
		if maxDocs < 0 {
			return Request{}, fmt.Errorf("maxDocumentsToProcess must not be negative")
		}
		if maxDocs > MaxDocumentsToProcessLimit {
			maxDocs = MaxDocumentsToProcessLimit
		}
	}

	matchInclude := true
	if p.MatchInclude != nil {
		matchInclude = *p.MatchInclude
	}

	style := p.TermStyle
	if style == "" {
		style = term.StyleNone
	}
	if !style.IsValid() {
		return Request{}, fmt.Errorf("invalid interestingTerms style: %q", style)
	}

	filters := make([]string, 0, len(p.Filters))
	for _, fq := range p.Filters {
		if fq != "" {
			filters = append(filters, fq)
		}
	}

	return Request{
		query:        p.Query,
		parser:       p.Parser,
		filters:      filters,
		sort:         p.Sort,
		start:        p.Start,
		rows:         rows,
		maxDocs:      maxDocs,
		matchInclude: matchInclude,
		matchOffset:  p.MatchOffset,
		termStyle:    style,
		facet:        p.Facet,
		facetFields:  p.FacetFields,
		debugQuery:   p.DebugQuery,
		debugResults: p.DebugResults,
		includeScore: p.IncludeScore,
	}, nil
}

// Query returns the seed query text.
func (r *Request) Query() string { return r.query }

// Parser returns the requested query parser name (empty for the default).
func (r *Request) Parser() string { return r.parser }

// Filters returns the filter clause strings applied to both searches.
func (r *Request) Filters() []string { return r.filters }

// Sort returns the raw sort specification for the expanded result.
func (r *Request) Sort() string { return r.sort }

// Start returns the pagination offset for the expanded result.
func (r *Request) Start() int { return r.start }

// Rows returns the page size for the expanded result.
func (r *Request) Rows() int { return r.rows }

// MaxDocumentsToProcess returns the seed-candidate window size.
func (r *Request) MaxDocumentsToProcess() int { return r.maxDocs }

// MatchInclude reports whether the seed match list should be echoed.
func (r *Request) MatchInclude() bool { return r.matchInclude }

// MatchOffset returns the offset into the seed ranking.
func (r *Request) MatchOffset() int { return r.matchOffset }

// TermStyle returns the interesting-terms rendering style.
func (r *Request) TermStyle() term.Style { return r.termStyle }

// Facet reports whether facet aggregation was requested.
func (r *Request) Facet() bool { return r.facet }

// FacetFields returns the fields to facet on.
func (r *Request) FacetFields() []string { return r.facetFields }

// DebugQuery reports whether query debug output was requested.
func (r *Request) DebugQuery() bool { return r.debugQuery }

// DebugResults reports whether results debug output was requested.
func (r *Request) DebugResults() bool { return r.debugResults }

// Debug reports whether any debug flag is set.
func (r *Request) Debug() bool { return r.debugQuery || r.debugResults }

// IncludeScore reports whether scores should be attached to result documents.
func (r *Request) IncludeScore() bool { return r.includeScore }
