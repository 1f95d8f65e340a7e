// Package redis implements the engine contract over a RediSearch index
// via rueidis (FT.SEARCH / FT.AGGREGATE).
package redis

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/rueidis"

	"github.com/querystack/relfeed/internal/engine"
	"github.com/querystack/relfeed/internal/query"
)

// Compile-time check: Engine implements engine.Engine.
var _ engine.Engine = (*Engine)(nil)

// Config holds connection and index parameters.
type Config struct {
	Addrs     []string
	Username  string
	Password  string
	DB        int
	Index     string
	UniqueKey string
	KeyPrefix string
}

// Engine executes feedback searches against one RediSearch index.
type Engine struct {
	client    rueidis.Client
	index     string
	uniqueKey string
	keyPrefix string
}

// New creates a RediSearch-backed engine.
func New(cfg Config) (*Engine, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}
	if cfg.Index == "" {
		return nil, fmt.Errorf("index name is required")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: true,
		AlwaysRESP2:  true, // FT.SEARCH result parsing expects RESP2 array format
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &Engine{
		client:    client,
		index:     cfg.Index,
		uniqueKey: uniqueKeyOrDefault(cfg.UniqueKey),
		keyPrefix: cfg.KeyPrefix,
	}, nil
}

// NewEngineForTest creates an Engine with the provided rueidis client (test-only).
func NewEngineForTest(c rueidis.Client, index, uniqueKey, keyPrefix string) *Engine {
	return &Engine{client: c, index: index, uniqueKey: uniqueKeyOrDefault(uniqueKey), keyPrefix: keyPrefix}
}

func uniqueKeyOrDefault(k string) string {
	if k == "" {
		return "id"
	}
	return k
}

// UniqueKeyField names the document identifier field.
func (e *Engine) UniqueKeyField() string { return e.uniqueKey }

// Ping checks connectivity.
func (e *Engine) Ping(ctx context.Context) error {
	cmd := e.client.B().Ping().Build()
	if err := e.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close shuts down the client.
func (e *Engine) Close() {
	e.client.Close()
}

// WaitForReady polls Ping until the index responds or timeout expires.
func (e *Engine) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for search index: %w", ctx.Err())
		case <-ticker.C:
			if err := e.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

// Search runs the query via FT.SEARCH with pagination, sorting and an
// optional score column.
func (e *Engine) Search(
	ctx context.Context, q query.Node, opts engine.SearchOptions,
) (*engine.DocListAndSet, error) {
	queryStr := Render(q, opts.Filters)

	args := []string{e.index, queryStr}
	if opts.WithScores {
		args = append(args, "WITHSCORES")
	}
	if len(opts.Sort) > 0 && opts.Sort[0].Field != query.ScoreField {
		dir := "ASC"
		if opts.Sort[0].Desc {
			dir = "DESC"
		}
		// FT.SEARCH supports a single SORTBY field; secondary sort
		// fields are ignored by this backend.
		args = append(args, "SORTBY", opts.Sort[0].Field, dir)
	}
	args = append(args,
		"LIMIT", strconv.Itoa(opts.Offset), strconv.Itoa(opts.Limit),
		"DIALECT", "2",
	)

	cmd := e.client.B().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := e.client.Do(ctx, cmd).ToArray()
	if err != nil {
		return nil, fmt.Errorf("ft.search %s: %w", e.index, err)
	}

	res, err := e.parseSearchResult(raw, opts)
	if err != nil {
		return nil, err
	}
	res.Raw = queryStr
	return res, nil
}

// DocCount counts all documents via FT.SEARCH * LIMIT 0 0.
func (e *Engine) DocCount(ctx context.Context) (int, error) {
	return e.count(ctx, "*")
}

// DocFreq counts documents containing text in field.
func (e *Engine) DocFreq(ctx context.Context, field, text string) (int, error) {
	t := &query.Term{Field: field, Text: text}
	return e.count(ctx, Render(t, nil))
}

func (e *Engine) count(ctx context.Context, queryStr string) (int, error) {
	cmd := e.client.B().Arbitrary("FT.SEARCH").
		Args(e.index, queryStr, "LIMIT", "0", "0", "DIALECT", "2").Build()
	raw, err := e.client.Do(ctx, cmd).ToArray()
	if err != nil {
		return 0, fmt.Errorf("ft.search count %s: %w", e.index, err)
	}
	if len(raw) == 0 {
		return 0, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return 0, fmt.Errorf("parse count: %w", err)
	}
	return int(total), nil
}

// FacetCounts aggregates distinct field values via FT.AGGREGATE GROUPBY
// over the same query the result was produced from.
func (e *Engine) FacetCounts(
	ctx context.Context, res *engine.DocListAndSet, fields []string,
) (map[string][]engine.FacetCount, error) {
	out := make(map[string][]engine.FacetCount, len(fields))
	for _, field := range fields {
		cmd := e.client.B().Arbitrary("FT.AGGREGATE").
			Args(e.index, res.Raw,
				"GROUPBY", "1", "@"+field,
				"REDUCE", "COUNT", "0", "AS", "count",
				"DIALECT", "2",
			).Build()
		raw, err := e.client.Do(ctx, cmd).ToArray()
		if err != nil {
			return nil, fmt.Errorf("ft.aggregate %s on %s: %w", e.index, field, err)
		}

		fc, err := parseAggregateCounts(raw, field)
		if err != nil {
			return nil, err
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

// parseSearchResult decodes the RESP2 FT.SEARCH reply.
// Without WITHSCORES the reply is [total, key1, fields1, ...] (stride 2);
// with WITHSCORES it is [total, key1, score1, fields1, ...] (stride 3).
func (e *Engine) parseSearchResult(
	raw []rueidis.RedisMessage, opts engine.SearchOptions,
) (*engine.DocListAndSet, error) {
	res := &engine.DocListAndSet{List: engine.DocList{Start: opts.Offset}}
	if opts.NeedDocSet {
		res.Set = engine.DocSet{}
	}
	if len(raw) == 0 {
		return res, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	res.List.NumFound = int(total)
	if total == 0 {
		return res, nil
	}

	stride := 2
	if opts.WithScores {
		stride = 3
	}

	for i := 1; i+stride-1 < len(raw); i += stride {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}

		doc := engine.Document{ID: trimPrefix(key, e.keyPrefix)}

		fieldsIdx := i + 1
		if opts.WithScores {
			scoreStr, err := raw[i+1].ToString()
			if err != nil {
				continue
			}
			if s, err := strconv.ParseFloat(scoreStr, 64); err == nil {
				doc.Score = s
			}
			fieldsIdx = i + 2
		}

		fields, err := raw[fieldsIdx].ToArray()
		if err != nil {
			continue
		}
		doc.Fields = parseFieldPairs(fields)

		res.List.Docs = append(res.List.Docs, doc)
		if opts.NeedDocSet {
			res.Set = append(res.Set, doc.ID)
		}
	}
	return res, nil
}

// parseAggregateCounts decodes [total, row1, row2, ...] where each row is
// a flat [name, value, "count", n] array.
func parseAggregateCounts(raw []rueidis.RedisMessage, field string) ([]engine.FacetCount, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	counts := make([]engine.FacetCount, 0, len(raw)-1)
	for i := 1; i < len(raw); i++ {
		row, err := raw[i].ToArray()
		if err != nil {
			continue
		}
		pairs := parseFieldPairs(row)
		value := pairs[field]
		n, err := strconv.Atoi(pairs["count"])
		if err != nil || value == "" {
			continue
		}
		counts = append(counts, engine.FacetCount{Value: value, Count: n})
	}
	return counts, nil
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}

func trimPrefix(key, prefix string) string {
	if prefix != "" && len(key) > len(prefix) && key[:len(prefix)] == prefix {
		return key[len(prefix):]
	}
	return key
}
