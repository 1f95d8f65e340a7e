package chi

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/oapi-codegen/runtime"

	"github.com/querystack/relfeed/internal/domain/feedback/request"
	"github.com/querystack/relfeed/internal/domain/feedback/term"
)

// bindParams extracts feedback parameters from the query string.
// Scalars go through the oapi-codegen binder; repeated and free-form
// string params are read directly.
func bindParams(r *http.Request) (request.Params, error) {
	q := r.URL.Query()

	p := request.Params{
		Query:       q.Get("q"),
		Parser:      q.Get("defType"),
		Filters:     q["fq"],
		Sort:        q.Get("sort"),
		FacetFields: q["facet.field"],
	}

	if err := bindScalar(q, "start", &p.Start); err != nil {
		return request.Params{}, err
	}
	if err := bindScalar(q, "rows", &p.Rows); err != nil {
		return request.Params{}, err
	}
	if err := bindScalar(q, "matchOffset", &p.MatchOffset); err != nil {
		return request.Params{}, err
	}
	if err := bindScalar(q, "maxDocumentsToProcess", &p.MaxDocumentsToProcess); err != nil {
		return request.Params{}, err
	}
	if err := bindScalar(q, "matchInclude", &p.MatchInclude); err != nil {
		return request.Params{}, err
	}
	if err := bindScalar(q, "facet", &p.Facet); err != nil {
		return request.Params{}, err
	}

	var debugQuery bool
	if err := bindScalar(q, "debugQuery", &debugQuery); err != nil {
		return request.Params{}, err
	}

	style, err := term.ParseStyle(q.Get("interestingTerms"))
	if err != nil {
		return request.Params{}, err
	}
	p.TermStyle = style

	// debug accepts query|results|true|all.
	switch q.Get("debug") {
	case "":
	case "query":
		p.DebugQuery = true
	case "results":
		p.DebugResults = true
	case "true", "all":
		p.DebugQuery = true
		p.DebugResults = true
	default:
		return request.Params{}, fmt.Errorf("invalid debug value %q", q.Get("debug"))
	}
	p.DebugQuery = p.DebugQuery || debugQuery

	// Scores are attached when the field list names the score pseudo-field.
	for _, fl := range q["fl"] {
		if fl == "score" || fl == "*,score" {
			p.IncludeScore = true
		}
	}

	return p, nil
}

func bindScalar(q url.Values, name string, dest any) error {
	if err := runtime.BindQueryParameter("form", true, false, name, q, dest); err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	return nil
}
