// Package memory implements the engine contract on an in-memory
// inverted index. It backs the embedded client and the pipeline tests.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/querystack/relfeed/internal/engine"
	"github.com/querystack/relfeed/internal/query"
)

// Engine is an in-memory inverted index. Documents are added up front;
// searches are read-only and safe for concurrent use after indexing.
type Engine struct {
	uniqueKey string
	docs      map[string]engine.Document
	order     []string
	// postings: field -> term -> docID -> term frequency
	postings map[string]map[string]map[string]int
}

// New creates an empty index with the given unique-key field name.
func New(uniqueKey string) *Engine {
	return &Engine{
		uniqueKey: uniqueKey,
		docs:      make(map[string]engine.Document),
		postings:  make(map[string]map[string]map[string]int),
	}
}

// UniqueKeyField names the document identifier field.
func (e *Engine) UniqueKeyField() string { return e.uniqueKey }

// Ping reports index availability. Always nil for the in-memory engine.
func (e *Engine) Ping(context.Context) error { return nil }

// Add indexes a document. The unique key is indexed as its own field so
// identifier queries like id:42 resolve.
func (e *Engine) Add(doc engine.Document) error {
	if doc.ID == "" {
		return fmt.Errorf("document id is required")
	}
	if _, exists := e.docs[doc.ID]; exists {
		return fmt.Errorf("document %q already indexed", doc.ID)
	}

	fields := make(map[string]string, len(doc.Fields)+1)
	for k, v := range doc.Fields {
		fields[k] = v
	}
	if _, ok := fields[e.uniqueKey]; !ok {
		fields[e.uniqueKey] = doc.ID
	}
	doc.Fields = fields

	for field, value := range fields {
		for _, tok := range engine.Tokenize(value) {
			terms := e.postings[field]
			if terms == nil {
				terms = make(map[string]map[string]int)
				e.postings[field] = terms
			}
			docs := terms[tok]
			if docs == nil {
				docs = make(map[string]int)
				terms[tok] = docs
			}
			docs[doc.ID]++
		}
	}

	e.docs[doc.ID] = doc
	e.order = append(e.order, doc.ID)
	return nil
}

// AddAll indexes documents in order, stopping at the first failure.
func (e *Engine) AddAll(docs []engine.Document) error {
	for _, d := range docs {
		if err := e.Add(d); err != nil {
			return err
		}
	}
	return nil
}

// Search evaluates the query over the whole index, applies filters,
// ranks and paginates. Ranking is deterministic: sort spec first, then
// document id ascending as the tiebreaker.
func (e *Engine) Search(
	ctx context.Context, q query.Node, opts engine.SearchOptions,
) (*engine.DocListAndSet, error) {
	type hit struct {
		id    string
		score float64
	}

	var hits []hit
	for _, id := range e.order {
		matched, score := e.evaluate(q, id)
		if !matched {
			continue
		}
		if !e.passesFilters(opts.Filters, id) {
			continue
		}
		hits = append(hits, hit{id: id, score: score})
	}

	sortSpec := opts.Sort
	if len(sortSpec) == 0 {
		sortSpec = []query.SortField{{Field: query.ScoreField, Desc: true}}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		for _, sf := range sortSpec {
			var cmp int
			if sf.Field == query.ScoreField {
				cmp = compareFloat(hits[i].score, hits[j].score)
			} else {
				cmp = compareFieldValues(
					e.docs[hits[i].id].Fields[sf.Field],
					e.docs[hits[j].id].Fields[sf.Field],
				)
			}
			if cmp == 0 {
				continue
			}
			if sf.Desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return hits[i].id < hits[j].id
	})

	res := &engine.DocListAndSet{
		List: engine.DocList{NumFound: len(hits), Start: opts.Offset},
		Raw:  renderRaw(q, opts.Filters),
	}

	if opts.NeedDocSet {
		set := make(engine.DocSet, 0, len(hits))
		for _, h := range hits {
			set = append(set, h.id)
		}
		res.Set = set
	}

	lo := opts.Offset
	if lo > len(hits) {
		lo = len(hits)
	}
	hi := lo + opts.Limit
	if hi > len(hits) {
		hi = len(hits)
	}
	for _, h := range hits[lo:hi] {
		doc := e.docs[h.id]
		out := engine.Document{ID: doc.ID, Fields: doc.Fields}
		if opts.WithScores {
			out.Score = h.score
		}
		res.List.Docs = append(res.List.Docs, out)
	}
	return res, nil
}

// DocCount returns the number of indexed documents.
func (e *Engine) DocCount(context.Context) (int, error) {
	return len(e.docs), nil
}

// DocFreq returns the number of documents containing text in field.
func (e *Engine) DocFreq(_ context.Context, field, text string) (int, error) {
	return len(e.postings[field][text]), nil
}

// FacetCounts counts distinct field values across the result document
// set, ordered by count descending then value ascending.
func (e *Engine) FacetCounts(
	_ context.Context, res *engine.DocListAndSet, fields []string,
) (map[string][]engine.FacetCount, error) {
	out := make(map[string][]engine.FacetCount, len(fields))
	for _, field := range fields {
		counts := make(map[string]int)
		for _, id := range res.Set {
			if v := e.docs[id].Fields[field]; v != "" {
				counts[v]++
			}
		}
		fc := make([]engine.FacetCount, 0, len(counts))
		for v, c := range counts {
			fc = append(fc, engine.FacetCount{Value: v, Count: c})
		}
		sort.Slice(fc, func(i, j int) bool {
			if fc[i].Count != fc[j].Count {
				return fc[i].Count > fc[j].Count
			}
			return fc[i].Value < fc[j].Value
		})
		out[field] = fc
	}
	return out, nil
}

// evaluate scores a query node against one document.
func (e *Engine) evaluate(n query.Node, docID string) (bool, float64) {
	switch q := n.(type) {
	case *query.Term:
		tf := e.postings[q.Field][q.Text][docID]
		if tf == 0 {
			return false, 0
		}
		boost := q.Boost
		if boost == 0 {
			boost = 1
		}
		return true, boost * float64(tf) * e.idf(q.Field, q.Text)
	case *query.Boolean:
		return e.evaluateBoolean(q, docID)
	default:
		return false, 0
	}
}

func (e *Engine) evaluateBoolean(b *query.Boolean, docID string) (bool, float64) {
	var score float64
	var hasMust, hasShould bool
	var shouldMatched int

	for _, c := range b.Clauses {
		matched, s := e.evaluate(c.Node, docID)
		switch c.Occur {
		case query.Must:
			hasMust = true
			if !matched {
				return false, 0
			}
			score += s
		case query.MustNot:
			if matched {
				return false, 0
			}
		case query.Should:
			hasShould = true
			if matched {
				shouldMatched++
				score += s
			}
		}
	}

	required := b.MinShouldMatch
	if required == 0 && !hasMust && hasShould {
		required = 1
	}
	if shouldMatched < required {
		return false, 0
	}
	if !hasMust && !hasShould {
		return false, 0
	}
	return true, score
}

func (e *Engine) passesFilters(filters []query.Node, docID string) bool {
	for _, f := range filters {
		if matched, _ := e.evaluate(f, docID); !matched {
			return false
		}
	}
	return true
}

func (e *Engine) idf(field, text string) float64 {
	df := len(e.postings[field][text])
	return 1 + math.Log(float64(len(e.docs))/float64(df+1))
}

func renderRaw(q query.Node, filters []query.Node) string {
	parts := []string{q.String()}
	for _, f := range filters {
		parts = append(parts, "fq("+f.String()+")")
	}
	return strings.Join(parts, " ")
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// compareFieldValues compares numerically when both values parse as
// numbers, lexicographically otherwise. Missing values sort first.
func compareFieldValues(a, b string) int {
	if a == b {
		return 0
	}
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	if errA == nil && errB == nil {
		return compareFloat(fa, fb)
	}
	return strings.Compare(a, b)
}
