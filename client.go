// Package relfeed embeds the relevance-feedback search pipeline for use
// as a library, without running the HTTP server.
package relfeed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/querystack/relfeed/internal/engine"
	enginememory "github.com/querystack/relfeed/internal/engine/memory"
	engineredis "github.com/querystack/relfeed/internal/engine/redis"
	"github.com/querystack/relfeed/internal/extract"
	"github.com/querystack/relfeed/internal/query"
	feedbackuc "github.com/querystack/relfeed/internal/usecase/feedback"
)

const defaultReadinessTimeout = 10 * time.Second

// Client is the relfeed embedded entry point.
type Client struct {
	eng     engine.Engine
	mem     *enginememory.Engine
	handler feedbackuc.Handler
	closeFn func()
}

// New creates a Client backed by a RediSearch index.
func New(opts ...Option) (*Client, error) {
	cfg := newClientConfig()
	for _, o := range opts {
		o(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("relfeed: database address required (use WithRedis)")
	}

	eng, err := engineredis.New(engineredis.Config{
		Addrs:     cfg.addrs,
		Username:  cfg.username,
		Password:  cfg.password,
		Index:     cfg.index,
		UniqueKey: cfg.uniqueKey,
		KeyPrefix: cfg.keyPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("relfeed: create engine: %w", err)
	}

	if err := eng.WaitForReady(context.Background(), cfg.readinessTimeout); err != nil {
		eng.Close()
		return nil, fmt.Errorf("relfeed: engine not ready: %w", err)
	}

	c := wireClient(eng, cfg)
	c.closeFn = eng.Close
	return c, nil
}

// NewMemory creates a Client over an ephemeral in-memory index. Useful
// for tests and demos; documents are added through Index.
func NewMemory(opts ...Option) *Client {
	cfg := newClientConfig()
	for _, o := range opts {
		o(cfg)
	}

	mem := enginememory.New(cfg.uniqueKey)
	c := wireClient(mem, cfg)
	c.mem = mem
	c.closeFn = func() {}
	return c
}

func wireClient(eng engine.Engine, cfg *clientConfig) *Client {
	builder := extract.NewBuilder(eng, eng.UniqueKeyField(), cfg.extraction)
	svc := feedbackuc.New(eng, builder, query.NewRegistry(), cfg.queryFields)
	return &Client{eng: eng, handler: svc}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.closeFn != nil {
		c.closeFn()
	}
}

// Index adds documents to an in-memory client. It fails for clients
// backed by an external index, which is populated out of band.
func (c *Client) Index(docs ...Document) error {
	if c.mem == nil {
		return errors.New("relfeed: Index is only available on in-memory clients")
	}
	for _, d := range docs {
		if err := c.mem.Add(engine.Document{ID: d.ID, Fields: d.Fields}); err != nil {
			return fmt.Errorf("relfeed: index document %s: %w", d.ID, err)
		}
	}
	return nil
}
