package oracle

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/holiman/uint256"

	"github.com/iho/vaultledger/internal/domain"
	"github.com/iho/vaultledger/internal/usecase"
)

const quoteCacheKey = "quote:latest"

// CachedOracle wraps another oracle with a short-lived cache so bursts
// of requests do not hammer the upstream feed. Cache failures never
// block a quote, only the feed itself is authoritative.
type CachedOracle struct {
	inner  usecase.PriceOracle
	cache  usecase.Cache
	ttl    time.Duration
	logger *slog.Logger
}

type cachedQuote struct {
	Price    string `json:"price"`
	Decimals uint8  `json:"decimals"`
}

// NewCachedOracle creates a caching wrapper around inner.
func NewCachedOracle(inner usecase.PriceOracle, cache usecase.Cache, ttl time.Duration, logger *slog.Logger) *CachedOracle {
	return &CachedOracle{
		inner:  inner,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

func (o *CachedOracle) LatestQuote(ctx context.Context) (domain.Quote, error) {
	if raw, err := o.cache.Get(ctx, quoteCacheKey); err == nil {
		if q, err := decodeQuote(raw); err == nil {
			return q, nil
		}
		o.logger.Warn("discarding malformed cached quote")
	}

	quote, err := o.inner.LatestQuote(ctx)
	if err != nil {
		return domain.Quote{}, err
	}

	if raw, err := encodeQuote(quote); err == nil {
		if err := o.cache.Set(ctx, quoteCacheKey, raw, o.ttl); err != nil {
			o.logger.Warn("failed to cache quote", "error", err)
		}
	}

	return quote, nil
}

func encodeQuote(q domain.Quote) (string, error) {
	b, err := json.Marshal(cachedQuote{Price: q.Price.Dec(), Decimals: q.Decimals})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeQuote(raw string) (domain.Quote, error) {
	var c cachedQuote
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return domain.Quote{}, err
	}
	price, err := uint256.FromDecimal(c.Price)
	if err != nil {
		return domain.Quote{}, err
	}
	q := domain.Quote{Price: price, Decimals: c.Decimals}
	if err := q.Validate(); err != nil {
		return domain.Quote{}, err
	}
	return q, nil
}
