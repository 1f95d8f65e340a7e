package relfeed

import (
	"time"

	"github.com/querystack/relfeed/internal/extract"
)

// clientConfig accumulates functional options.
type clientConfig struct {
	addrs            []string
	username         string
	password         string
	index            string
	uniqueKey        string
	keyPrefix        string
	readinessTimeout time.Duration
	queryFields      []string
	extraction       extract.Config
}

func newClientConfig() *clientConfig {
	return &clientConfig{
		index:            "relfeed",
		uniqueKey:        "id",
		keyPrefix:        "relfeed:",
		readinessTimeout: defaultReadinessTimeout,
		extraction:       extract.DefaultConfig(),
	}
}

// Option configures the Client.
type Option func(*clientConfig)

// WithRedis sets the RediSearch addresses.
func WithRedis(addrs ...string) Option {
	return func(c *clientConfig) { c.addrs = addrs }
}

// WithAuth sets database credentials.
func WithAuth(username, password string) Option {
	return func(c *clientConfig) {
		c.username = username
		c.password = password
	}
}

// WithIndex sets the search index name.
func WithIndex(name string) Option {
	return func(c *clientConfig) { c.index = name }
}

// WithUniqueKey sets the document identifier field.
func WithUniqueKey(field string) Option {
	return func(c *clientConfig) { c.uniqueKey = field }
}

// WithKeyPrefix sets the document key prefix in the database.
func WithKeyPrefix(prefix string) Option {
	return func(c *clientConfig) { c.keyPrefix = prefix }
}

// WithReadinessTimeout bounds the wait for database connectivity.
func WithReadinessTimeout(d time.Duration) Option {
	return func(c *clientConfig) { c.readinessTimeout = d }
}

// WithQueryFields sets the fields bare query terms are expanded across.
func WithQueryFields(fields ...string) Option {
	return func(c *clientConfig) { c.queryFields = fields }
}

// WithExtraction overrides the term-extraction settings.
func WithExtraction(cfg extract.Config) Option {
	return func(c *clientConfig) { c.extraction = cfg }
}
