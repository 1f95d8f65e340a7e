// Package extract builds the feedback query: it mines the seed document
// for its most characteristic terms (tf·idf against the live index) and
// assembles a boosted expansion query from them.
package extract

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/querystack/relfeed/internal/domain/feedback/term"
	"github.com/querystack/relfeed/internal/engine"
	"github.com/querystack/relfeed/internal/query"
)

// Extraction defaults.
const (
	DefaultMaxQueryTermsPerField = 25
	DefaultMinTermFreq           = 1
	DefaultMinDocFreq            = 1
	DefaultMaxDocFreqPct         = 75
	DefaultMinWordLen            = 3
)

// defaultStopWords are skipped during term mining.
var defaultStopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "be": {}, "is": {}, "are": {},
	"was": {}, "to": {}, "of": {}, "and": {}, "in": {}, "that": {},
	"have": {}, "it": {}, "for": {}, "not": {}, "on": {}, "with": {},
	"as": {}, "you": {}, "do": {}, "at": {}, "this": {}, "but": {},
	"by": {}, "from": {}, "or": {}, "will": {},
}

// Config tunes term mining. Zero numeric fields fall back to the
// defaults above; DefaultConfig returns a fully populated value.
type Config struct {
	// Fields to mine terms from. Empty mines every stored field except
	// the unique key.
	Fields                []string
	MaxQueryTermsPerField int
	MinTermFreq           int
	MinDocFreq            int
	// MaxDocFreqPct skips terms occurring in more than this percentage
	// of the corpus. 0 disables the gate.
	MaxDocFreqPct int
	MinWordLen    int
	// MaxWordLen of 0 means unbounded.
	MaxWordLen int
	// Boost assigns tf·idf-derived boosts to expansion terms; without it
	// every term carries weight 1.
	Boost bool
	// StopWords overrides the default stop-word set when non-nil.
	StopWords []string
}

// DefaultConfig returns the default extraction configuration.
func DefaultConfig() Config {
	return Config{
		MaxQueryTermsPerField: DefaultMaxQueryTermsPerField,
		MinTermFreq:           DefaultMinTermFreq,
		MinDocFreq:            DefaultMinDocFreq,
		MaxDocFreqPct:         DefaultMaxDocFreqPct,
		MinWordLen:            DefaultMinWordLen,
		Boost:                 true,
	}
}

// Builder is the feedback query builder.
type Builder struct {
	stats     engine.TermStats
	uniqueKey string
	cfg       Config
	stop      map[string]struct{}
}

// NewBuilder creates a feedback query builder over the given term
// statistics source.
func NewBuilder(stats engine.TermStats, uniqueKey string, cfg Config) *Builder {
	if cfg.MaxQueryTermsPerField <= 0 {
		cfg.MaxQueryTermsPerField = DefaultMaxQueryTermsPerField
	}
	if cfg.MinTermFreq <= 0 {
		cfg.MinTermFreq = DefaultMinTermFreq
	}
	if cfg.MinDocFreq <= 0 {
		cfg.MinDocFreq = DefaultMinDocFreq
	}
	if cfg.MinWordLen <= 0 {
		cfg.MinWordLen = DefaultMinWordLen
	}

	stop := defaultStopWords
	if cfg.StopWords != nil {
		stop = make(map[string]struct{}, len(cfg.StopWords))
		for _, w := range cfg.StopWords {
			stop[w] = struct{}{}
		}
	}

	return &Builder{stats: stats, uniqueKey: uniqueKey, cfg: cfg, stop: stop}
}

// MaxTermsPerField returns the per-field term cap, which also serves as
// the interesting-terms capacity hint.
func (b *Builder) MaxTermsPerField() int { return b.cfg.MaxQueryTermsPerField }

// candidate is a scored term before selection.
type candidate struct {
	field string
	text  string
	score float64
}

// Build mines the seed document and assembles the expansion query.
// capacity bounds the returned interesting-terms list; capacity <= 0
// disables collection entirely (the query is still built). A nil query
// with nil error means no terms could be extracted.
func (b *Builder) Build(
	ctx context.Context, seed engine.Document, capacity int,
) (query.Node, []term.InterestingTerm, error) {
	docCount, err := b.stats.DocCount(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("doc count: %w", err)
	}

	candidates, err := b.mine(ctx, seed, docCount)
	if err != nil {
		return nil, nil, err
	}
	if len(candidates) == 0 {
		return nil, nil, nil
	}

	selected := b.selectTopTerms(candidates)

	topScore := selected[0].score
	root := &query.Boolean{}
	for _, c := range selected {
		boost := 1.0
		if b.cfg.Boost && topScore > 0 {
			boost = c.score / topScore
		}
		root.Add(query.Should, &query.Term{Field: c.field, Text: c.text, Boost: boost})
	}

	var terms []term.InterestingTerm
	if capacity > 0 {
		terms = make([]term.InterestingTerm, 0, capacity)
		for _, c := range selected {
			if len(terms) == capacity {
				break
			}
			boost := 1.0
			if b.cfg.Boost && topScore > 0 {
				boost = c.score / topScore
			}
			terms = append(terms, term.New(c.field, c.text, boost))
		}
	}

	return root, terms, nil
}

// mine scores every eligible term of the seed document.
func (b *Builder) mine(
	ctx context.Context, seed engine.Document, docCount int,
) ([]candidate, error) {
	fields := b.cfg.Fields
	if len(fields) == 0 {
		fields = make([]string, 0, len(seed.Fields))
		for f := range seed.Fields {
			if f != b.uniqueKey {
				fields = append(fields, f)
			}
		}
		sort.Strings(fields)
	}

	var candidates []candidate
	for _, field := range fields {
		value := seed.Fields[field]
		if value == "" {
			continue
		}

		tf := make(map[string]int)
		for _, tok := range engine.Tokenize(value) {
			if b.skipToken(tok) {
				continue
			}
			tf[tok]++
		}

		// Deterministic df lookup order.
		toks := make([]string, 0, len(tf))
		for tok := range tf {
			toks = append(toks, tok)
		}
		sort.Strings(toks)

		for _, tok := range toks {
			freq := tf[tok]
			if freq < b.cfg.MinTermFreq {
				continue
			}
			df, err := b.stats.DocFreq(ctx, field, tok)
			if err != nil {
				return nil, fmt.Errorf("doc freq %s:%s: %w", field, tok, err)
			}
			if df < b.cfg.MinDocFreq {
				continue
			}
			if b.cfg.MaxDocFreqPct > 0 && docCount > 0 && df*100 > b.cfg.MaxDocFreqPct*docCount {
				continue
			}
			idf := 1 + math.Log(float64(docCount)/float64(df+1))
			candidates = append(candidates, candidate{
				field: field,
				text:  tok,
				score: float64(freq) * idf,
			})
		}
	}
	return candidates, nil
}

// selectTopTerms ranks candidates by score and keeps at most
// MaxQueryTermsPerField per field, preserving overall rank order.
func (b *Builder) selectTopTerms(candidates []candidate) []candidate {
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		if candidates[i].field != candidates[j].field {
			return candidates[i].field < candidates[j].field
		}
		return candidates[i].text < candidates[j].text
	})

	perField := make(map[string]int)
	selected := make([]candidate, 0, len(candidates))
	for _, c := range candidates {
		if perField[c.field] == b.cfg.MaxQueryTermsPerField {
			continue
		}
		perField[c.field]++
		selected = append(selected, c)
	}
	return selected
}

func (b *Builder) skipToken(tok string) bool {
	if len(tok) < b.cfg.MinWordLen {
		return true
	}
	if b.cfg.MaxWordLen > 0 && len(tok) > b.cfg.MaxWordLen {
		return true
	}
	_, stop := b.stop[tok]
	return stop
}
