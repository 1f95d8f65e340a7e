// Package feedback orchestrates the relevance-feedback pipeline: resolve
// a seed document for the caller's query, mine it for characteristic
// terms, and re-execute the expanded query against the index.
package feedback

import (
	"context"
	"fmt"
	"time"

	"github.com/querystack/relfeed/internal/domain"
	"github.com/querystack/relfeed/internal/domain/feedback/request"
	"github.com/querystack/relfeed/internal/domain/feedback/term"
	"github.com/querystack/relfeed/internal/domain/feedback/trace"
	"github.com/querystack/relfeed/internal/engine"
	"github.com/querystack/relfeed/internal/metrics"
	"github.com/querystack/relfeed/internal/query"
)

// Response is the assembled outcome of one feedback request.
type Response struct {
	// Docs is the expanded-query result window.
	Docs engine.DocList
	// Match echoes the seed match list when requested; nil otherwise.
	Match *engine.DocList
	// Terms are the mined expansion terms, nil when the style is none.
	Terms     []term.InterestingTerm
	TermStyle term.Style
	// FacetRequested distinguishes "no facets asked for" from "facets
	// asked for but no document set" (rendered as an explicit null).
	FacetRequested bool
	FacetCounts    map[string][]engine.FacetCount
	// Debug carries the diagnostic trace when a debug flag was set.
	Debug *trace.Trace
	// DebugError holds the message of a fault swallowed during debug
	// assembly; a failed trace never fails the request.
	DebugError string
}

// Service handles feedback requests end to end.
type Service struct {
	eng     Engine
	builder QueryBuilder
	parsers *query.Registry
	// fields are the query fields the multi-field parser expands bare
	// terms across.
	fields []string
}

// New creates a feedback service.
func New(eng Engine, builder QueryBuilder, parsers *query.Registry, queryFields []string) *Service {
	return &Service{eng: eng, builder: builder, parsers: parsers, fields: queryFields}
}

// expansion is the intermediate outcome of seed resolution and
// re-execution, before response assembly.
type expansion struct {
	match    *engine.DocListAndSet
	expanded *engine.DocListAndSet
	terms    []term.InterestingTerm
	// raw is the string form of the expanded query, empty when no seed
	// or no terms.
	raw           string
	seedElapsed   time.Duration
	expandElapsed time.Duration
}

// Handle executes one feedback request.
func (s *Service) Handle(ctx context.Context, req request.Request) (*Response, error) {
	parser, err := s.parsers.Get(req.Parser())
	if err != nil {
		return nil, err
	}

	// Configuration merge: parsers that cannot resolve bare terms on
	// their own get the unique key as default field and a zero
	// minimum-should-match. The request itself is never mutated.
	opts := query.ParseOptions{Fields: s.fields}
	if dfr, ok := parser.(query.DefaultFieldRequirer); ok && dfr.NeedsDefaultField() {
		opts.DefaultField = s.eng.UniqueKeyField()
		opts.MinShouldMatch = 0
	}

	parsed, err := parser.Parse(req.Query(), opts)
	if err != nil {
		return nil, err
	}

	sortSpec, err := query.ParseSort(req.Sort())
	if err != nil {
		return nil, err
	}

	// Filter clauses always go through the standard parser, regardless
	// of the parser chosen for q.
	std, err := s.parsers.Get(query.StandardParser)
	if err != nil {
		return nil, err
	}
	filters, err := query.ParseFilters(std, req.Filters(), opts)
	if err != nil {
		return nil, err
	}

	exp, err := s.expand(ctx, req, parsed, filters, sortSpec)
	if err != nil {
		return nil, err
	}

	return s.assemble(ctx, req, parsed, filters, exp)
}

// expand resolves the seed document and re-executes the expanded query.
func (s *Service) expand(
	ctx context.Context, req request.Request,
	parsed query.Node, filters []query.Node, sortSpec []query.SortField,
) (*expansion, error) {
	exp := &expansion{}

	seedStart := time.Now()
	match, err := s.eng.Search(ctx, parsed, engine.SearchOptions{
		Filters:    filters,
		Offset:     req.MatchOffset(),
		Limit:      req.MaxDocumentsToProcess(),
		WithScores: true,
	})
	exp.seedElapsed = time.Since(seedStart)
	if err != nil {
		return nil, fmt.Errorf("%w: seed search: %w", domain.ErrEngineFailure, err)
	}
	metrics.SeedSearchDuration.Observe(exp.seedElapsed.Seconds())
	exp.match = match

	// No document matches the seed query: terminal, not an error.
	if match.List.NumFound == 0 {
		metrics.EmptySeedTotal.Inc()
		exp.expanded = &engine.DocListAndSet{}
		return exp, nil
	}
	// Matches exist but the window is empty (offset past the end, or a
	// zero-size window): nothing to expand from.
	if len(match.List.Docs) == 0 {
		exp.expanded = &engine.DocListAndSet{}
		return exp, nil
	}

	// Only the top-ranked candidate drives expansion.
	seed := match.List.Docs[0]

	capacity := 0
	if req.TermStyle() != term.StyleNone {
		capacity = s.builder.MaxTermsPerField()
	}

	expandStart := time.Now()
	fbq, terms, err := s.builder.Build(ctx, seed, capacity)
	if err != nil {
		return nil, fmt.Errorf("%w: build feedback query: %w", domain.ErrEngineFailure, err)
	}
	exp.terms = terms

	if fbq == nil {
		// Nothing extractable from the seed document.
		exp.expanded = &engine.DocListAndSet{}
		exp.expandElapsed = time.Since(expandStart)
		return exp, nil
	}
	exp.raw = fbq.String()
	if root, ok := fbq.(*query.Boolean); ok {
		metrics.ExpansionTermsCount.Observe(float64(len(root.Clauses)))
	}

	expanded, err := s.eng.Search(ctx, fbq, engine.SearchOptions{
		Filters:    filters,
		Sort:       sortSpec,
		Offset:     req.Start(),
		Limit:      req.Rows(),
		WithScores: req.IncludeScore(),
		NeedDocSet: req.Facet(),
	})
	exp.expandElapsed = time.Since(expandStart)
	if err != nil {
		return nil, fmt.Errorf("%w: expanded search: %w", domain.ErrEngineFailure, err)
	}
	metrics.ExpansionDuration.Observe(exp.expandElapsed.Seconds())
	exp.expanded = expanded

	return exp, nil
}

// assemble builds the response from an expansion outcome.
func (s *Service) assemble(
	ctx context.Context, req request.Request,
	parsed query.Node, filters []query.Node, exp *expansion,
) (*Response, error) {
	res := &Response{
		Docs:           exp.expanded.List,
		TermStyle:      req.TermStyle(),
		FacetRequested: req.Facet(),
	}

	// The match section is echoed only when some document matched the
	// seed query; an empty seed omits it entirely.
	if req.MatchInclude() && exp.match.List.NumFound > 0 {
		list := exp.match.List
		res.Match = &list
	}

	if req.TermStyle() != term.StyleNone {
		res.Terms = exp.terms
	}

	if req.Facet() && exp.expanded.Set != nil {
		counts, err := s.eng.FacetCounts(ctx, exp.expanded, req.FacetFields())
		if err != nil {
			return nil, fmt.Errorf("%w: facet counts: %w", domain.ErrEngineFailure, err)
		}
		res.FacetCounts = counts
	}

	if req.Debug() {
		s.attachDebug(req, parsed, filters, exp, res)
	}

	return res, nil
}

// attachDebug builds the diagnostic trace. Any fault inside debug
// assembly is swallowed into DebugError; the request itself succeeds.
func (s *Service) attachDebug(
	req request.Request, parsed query.Node, filters []query.Node,
	exp *expansion, res *Response,
) {
	defer func() {
		if r := recover(); r != nil {
			res.Debug = nil
			res.DebugError = fmt.Sprintf("%v", r)
		}
	}()

	t := &trace.Trace{
		QueryString:     req.Query(),
		ParsedQuery:     parsed.String(),
		FeedbackQuery:   exp.raw,
		SeedNumFound:    exp.match.List.NumFound,
		SeedElapsedMs:   float64(exp.seedElapsed.Microseconds()) / 1000,
		ExpandElapsedMs: float64(exp.expandElapsed.Microseconds()) / 1000,
	}

	if len(req.Filters()) > 0 {
		t.FilterQueries = req.Filters()
		parsedFilters := make([]string, 0, len(filters))
		for _, f := range filters {
			parsedFilters = append(parsedFilters, f.String())
		}
		t.ParsedFilterQueries = parsedFilters
	}

	if req.DebugResults() {
		explain := make([]string, 0, len(res.Docs.Docs))
		for _, d := range res.Docs.Docs {
			explain = append(explain, fmt.Sprintf("%s: score=%.4f", d.ID, d.Score))
		}
		t.Explain = explain
	}

	res.Debug = t
}
