package feedback

import (
	"context"

	"github.com/querystack/relfeed/internal/domain/feedback/term"
	"github.com/querystack/relfeed/internal/engine"
	"github.com/querystack/relfeed/internal/query"
)

// Engine defines the search-engine contract the feedback pipeline consumes.
type Engine interface {
	Search(ctx context.Context, q query.Node, opts engine.SearchOptions) (*engine.DocListAndSet, error)

	FacetCounts(ctx context.Context, res *engine.DocListAndSet, fields []string) (map[string][]engine.FacetCount, error)

	// UniqueKeyField names the document identifier field.
	UniqueKeyField() string
}

// QueryBuilder mines a seed document for its characteristic terms and
// assembles the expanded query. A nil query with nil error means nothing
// was extractable.
type QueryBuilder interface {
	Build(ctx context.Context, seed engine.Document, capacity int) (query.Node, []term.InterestingTerm, error)

	// MaxTermsPerField is the per-field term cap, used as the
	// interesting-terms capacity.
	MaxTermsPerField() int
}
