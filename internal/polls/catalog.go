// Package polls serves the externally managed poll-option catalogs
// (parenting status, relationship status) from Redis, with a built-in
// seed used to populate the cache.
package polls

import (
	"context"
	"fmt"

	"socialstar-core/internal/common/logger"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "poll_options:"

// seedCatalog is the built-in code->label catalog, written to Redis by
// Seed and used as fallback when the cache is empty.
var seedCatalog = map[string]map[string]string{
	"parenting_status": {
		"expecting":  "Expecting",
		"parent":     "Parent",
		"not_parent": "Not a parent",
	},
	"relationship_status": {
		"single":    "Single",
		"married":   "Married",
		"partnered": "In a relationship",
		"divorced":  "Divorced",
		"widowed":   "Widowed",
	},
}

// Catalog is the Redis-backed poll options collaborator.
type Catalog struct {
	client *redis.Client
	logger logger.Logger
}

// NewCatalog wires the catalog to a Redis client.
func NewCatalog(client *redis.Client, log logger.Logger) *Catalog {
	return &Catalog{
		client: client,
		logger: log.WithFields(map[string]interface{}{"component": "polls"}),
	}
}

// Seed writes the built-in catalog into Redis. Existing entries are
// overwritten field by field.
func (c *Catalog) Seed(ctx context.Context) error {
	for category, options := range seedCatalog {
		pairs := make([]interface{}, 0, len(options)*2)
		for code, label := range options {
			pairs = append(pairs, code, label)
		}
		if err := c.client.HSet(ctx, keyPrefix+category, pairs...).Err(); err != nil {
			return fmt.Errorf("seed poll options for %s: %w", category, err)
		}
	}
	return nil
}

// AllowedValues returns the code->label set for a category. An empty
// cache falls back to the built-in seed.
func (c *Catalog) AllowedValues(ctx context.Context, category string) (map[string]string, error) {
	if _, ok := seedCatalog[category]; !ok {
		return nil, fmt.Errorf("unknown poll category %q", category)
	}

	options, err := c.client.HGetAll(ctx, keyPrefix+category).Result()
	if err != nil {
		return nil, fmt.Errorf("read poll options for %s: %w", category, err)
	}
	if len(options) == 0 {
		c.logger.Warn("poll options cache empty, using seed", map[string]interface{}{
			"category": category,
		})
		fallback := make(map[string]string, len(seedCatalog[category]))
		for code, label := range seedCatalog[category] {
			fallback[code] = label
		}
		return fallback, nil
	}
	return options, nil
}
