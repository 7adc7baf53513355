// Package texts resolves caller-facing strings by symbolic name. Values are
// operator-editable rows cached in redis; compiled-in defaults keep the
// system speaking when the table is empty.
package texts

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type textLister interface {
	ListByUser(ctx context.Context, userID string) ([]Text, error)
}

// Text mirrors the stored row shape without importing the models package,
// keeping the catalog usable from any layer.
type Text struct {
	Name  string
	Value string
}

// Catalog renders localized prompt text with {placeholder} substitution.
type Catalog struct {
	repo     textLister
	redis    *redis.Client
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewCatalog constructs a Catalog. redis may be nil; caching is then skipped.
func NewCatalog(repo textLister, redisClient *redis.Client, cacheTTL time.Duration, logger *zap.Logger) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}
	return &Catalog{repo: repo, redis: redisClient, cacheTTL: cacheTTL, logger: logger}
}

// Render resolves name for the user scope and substitutes {placeholder}
// occurrences from args. Resolution order: stored value, compiled default,
// the bare name. Rendering is best-effort; a broken catalog must never take
// a call down.
func (c *Catalog) Render(ctx context.Context, userID, name string, args map[string]string) string {
	value, ok := c.lookup(ctx, userID, name)
	if !ok {
		value, ok = defaults[name]
	}
	if !ok {
		c.logger.Warn("missing text", zap.String("name", name), zap.String("user_id", userID))
		value = name
	}
	return substitute(value, args)
}

func (c *Catalog) lookup(ctx context.Context, userID, name string) (string, bool) {
	table, err := c.load(ctx, userID)
	if err != nil {
		c.logger.Warn("text catalog unavailable", zap.Error(err))
		return "", false
	}
	value, ok := table[name]
	return value, ok
}

func (c *Catalog) load(ctx context.Context, userID string) (map[string]string, error) {
	cacheKey := "texts:" + userID

	if c.redis != nil {
		raw, err := c.redis.Get(ctx, cacheKey).Result()
		if err == nil {
			var table map[string]string
			if err := json.Unmarshal([]byte(raw), &table); err == nil {
				return table, nil
			}
		} else if err != redis.Nil {
			c.logger.Warn("text cache read failed", zap.Error(err))
		}
	}

	if c.repo == nil {
		return map[string]string{}, nil
	}
	rows, err := c.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load texts: %w", err)
	}
	table := make(map[string]string, len(rows))
	for _, row := range rows {
		table[row.Name] = row.Value
	}

	if c.redis != nil {
		if encoded, err := json.Marshal(table); err == nil {
			if err := c.redis.Set(ctx, cacheKey, encoded, c.cacheTTL).Err(); err != nil {
				c.logger.Warn("text cache write failed", zap.Error(err))
			}
		}
	}
	return table, nil
}

func substitute(value string, args map[string]string) string {
	if len(args) == 0 || !strings.Contains(value, "{") {
		return value
	}
	pairs := make([]string, 0, len(args)*2)
	for k, v := range args {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(value)
}
