package erp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	shippingapp "github.com/shipbridge/backend/internal/application/shipping"
)

// defaultCustomsTTL bounds how long looked-up attributes are reused. Tariff
// codes and origins change rarely but a stale value must eventually refresh.
const defaultCustomsTTL = 24 * time.Hour

// Ensure CachedLookup implements the enricher's lookup port
var _ shippingapp.ProductAttributeLookup = (*CachedLookup)(nil)

// CachedLookup decorates a ProductAttributeLookup with a Redis cache keyed
// by organization and product. Cache failures degrade to a direct lookup.
type CachedLookup struct {
	next      shippingapp.ProductAttributeLookup
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
	logger    *zap.Logger
}

// CachedLookupOption is a functional option for configuring CachedLookup
type CachedLookupOption func(*CachedLookup)

// WithTTL overrides the default cache TTL
func WithTTL(ttl time.Duration) CachedLookupOption {
	return func(c *CachedLookup) {
		c.ttl = ttl
	}
}

// WithCacheLogger sets a custom logger for CachedLookup
func WithCacheLogger(logger *zap.Logger) CachedLookupOption {
	return func(c *CachedLookup) {
		c.logger = logger
	}
}

// NewCachedLookup creates a caching decorator over the given lookup.
func NewCachedLookup(next shippingapp.ProductAttributeLookup, client *redis.Client, opts ...CachedLookupOption) *CachedLookup {
	c := &CachedLookup{
		next:      next,
		client:    client,
		keyPrefix: "customs:attrs:",
		ttl:       defaultCustomsTTL,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *CachedLookup) key(productCode, organizationCode string) string {
	return c.keyPrefix + organizationCode + ":" + productCode
}

// Lookup serves from cache when possible, otherwise delegates and stores the
// result. Redis errors are logged and never fail the lookup.
func (c *CachedLookup) Lookup(ctx context.Context, productCode, organizationCode string) (shippingapp.ProductAttributes, error) {
	key := c.key(productCode, organizationCode)

	raw, err := c.client.Get(ctx, key).Result()
	if err == nil {
		var attrs shippingapp.ProductAttributes
		if jsonErr := json.Unmarshal([]byte(raw), &attrs); jsonErr == nil {
			return attrs, nil
		}
		// Unreadable entry: fall through and overwrite it.
	} else if err != redis.Nil {
		c.logger.Warn("customs cache read failed", zap.String("key", key), zap.Error(err))
	}

	attrs, err := c.next.Lookup(ctx, productCode, organizationCode)
	if err != nil {
		return shippingapp.ProductAttributes{}, err
	}

	encoded, err := json.Marshal(attrs)
	if err == nil {
		if setErr := c.client.Set(ctx, key, encoded, c.ttl).Err(); setErr != nil {
			c.logger.Warn("customs cache write failed", zap.String("key", key), zap.Error(setErr))
		}
	}

	return attrs, nil
}
