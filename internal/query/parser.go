package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/querystack/relfeed/internal/domain"
)

// Parser names.
const (
	// StandardParser resolves bare terms against the single default field.
	StandardParser = "standard"
	// MultiFieldParser expands bare terms across the configured query fields.
	MultiFieldParser = "multifield"
	// DefaultParser is used when the request names no parser.
	DefaultParser = MultiFieldParser
)

// ParseOptions carries the merged parser configuration for one request.
// It is produced by the orchestrator's configuration-merge step; the
// caller-supplied request is never mutated.
type ParseOptions struct {
	// DefaultField resolves bare terms with no explicit field prefix.
	DefaultField string
	// Fields are the query fields a multi-field parser expands bare terms
	// across. Empty falls back to DefaultField.
	Fields []string
	// MinShouldMatch is recorded on the root boolean node.
	MinShouldMatch int
}

// Parser turns query text into an executable node.
type Parser interface {
	Name() string
	Parse(q string, opts ParseOptions) (Node, error)
}

// DefaultFieldRequirer is implemented by parsers that cannot operate
// without a default match field, even when the query names explicit
// fields. The orchestrator checks this capability instead of matching
// parser names.
type DefaultFieldRequirer interface {
	NeedsDefaultField() bool
}

// Registry resolves parsers by name.
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry creates a registry with the standard and multifield parsers.
func NewRegistry() *Registry {
	r := &Registry{parsers: make(map[string]Parser)}
	r.Register(&standardParser{})
	r.Register(&multiFieldParser{})
	return r
}

// Register adds a parser under its name, replacing any previous entry.
func (r *Registry) Register(p Parser) {
	r.parsers[p.Name()] = p
}

// Get resolves a parser by name. Empty resolves to the default parser.
func (r *Registry) Get(name string) (Parser, error) {
	if name == "" {
		name = DefaultParser
	}
	p, ok := r.parsers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownParser, name)
	}
	return p, nil
}

// token is one parsed query token before node construction.
type token struct {
	occur Occur
	field string
	text  string
	boost float64
}

// tokenize splits query text into occur/field/text/boost tokens.
// Grammar per token: [+|-][field:]text[^boost].
func tokenize(q string) ([]token, error) {
	raw := strings.Fields(q)
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty query", domain.ErrQuerySyntax)
	}

	tokens := make([]token, 0, len(raw))
	for _, s := range raw {
		t := token{occur: Should, boost: 1}

		switch {
		case strings.HasPrefix(s, "+"):
			t.occur = Must
			s = s[1:]
		case strings.HasPrefix(s, "-"):
			t.occur = MustNot
			s = s[1:]
		}

		if field, rest, ok := strings.Cut(s, ":"); ok {
			if field == "" {
				return nil, fmt.Errorf("%w: missing field before ':' in %q", domain.ErrQuerySyntax, s)
			}
			t.field = field
			s = rest
		}

		if text, boost, ok := strings.Cut(s, "^"); ok {
			b, err := strconv.ParseFloat(boost, 64)
			if err != nil || b <= 0 {
				return nil, fmt.Errorf("%w: invalid boost %q", domain.ErrQuerySyntax, boost)
			}
			t.boost = b
			s = text
		}

		if s == "" {
			return nil, fmt.Errorf("%w: empty term", domain.ErrQuerySyntax)
		}
		t.text = strings.ToLower(s)
		tokens = append(tokens, t)
	}
	return tokens, nil
}

// standardParser resolves bare terms against the default field only.
type standardParser struct{}

func (p *standardParser) Name() string { return StandardParser }

func (p *standardParser) Parse(q string, opts ParseOptions) (Node, error) {
	tokens, err := tokenize(q)
	if err != nil {
		return nil, err
	}

	root := &Boolean{MinShouldMatch: opts.MinShouldMatch}
	for _, t := range tokens {
		field := t.field
		if field == "" {
			if opts.DefaultField == "" {
				return nil, fmt.Errorf("%w: term %q has no field and no default field is configured",
					domain.ErrQuerySyntax, t.text)
			}
			field = opts.DefaultField
		}
		root.Add(t.occur, &Term{Field: field, Text: t.text, Boost: t.boost})
	}
	return root, nil
}

// multiFieldParser expands bare terms across the configured query fields.
// It requires a default field even for fully qualified queries.
type multiFieldParser struct{}

func (p *multiFieldParser) Name() string { return MultiFieldParser }

func (p *multiFieldParser) NeedsDefaultField() bool { return true }

func (p *multiFieldParser) Parse(q string, opts ParseOptions) (Node, error) {
	if opts.DefaultField == "" {
		return nil, fmt.Errorf("%w: multifield parser requires a default field", domain.ErrQuerySyntax)
	}

	tokens, err := tokenize(q)
	if err != nil {
		return nil, err
	}

	fields := opts.Fields
	if len(fields) == 0 {
		fields = []string{opts.DefaultField}
	}

	root := &Boolean{MinShouldMatch: opts.MinShouldMatch}
	for _, t := range tokens {
		if t.field != "" {
			root.Add(t.occur, &Term{Field: t.field, Text: t.text, Boost: t.boost})
			continue
		}
		if len(fields) == 1 {
			root.Add(t.occur, &Term{Field: fields[0], Text: t.text, Boost: t.boost})
			continue
		}
		group := &Boolean{}
		for _, f := range fields {
			group.Add(Should, &Term{Field: f, Text: t.text, Boost: t.boost})
		}
		root.Add(t.occur, group)
	}
	return root, nil
}

// ParseFilters parses filter clause strings with the given parser,
// skipping blank entries. Any syntax error aborts the whole set.
func ParseFilters(p Parser, fqs []string, opts ParseOptions) ([]Node, error) {
	if len(fqs) == 0 {
		return nil, nil
	}
	filters := make([]Node, 0, len(fqs))
	for _, fq := range fqs {
		if strings.TrimSpace(fq) == "" {
			continue
		}
		n, err := p.Parse(fq, opts)
		if err != nil {
			return nil, fmt.Errorf("filter %q: %w", fq, err)
		}
		filters = append(filters, n)
	}
	return filters, nil
}
