package oracle

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/holiman/uint256"

	"github.com/iho/vaultledger/internal/domain"
)

type fakeCache struct {
	values map[string]string
	setErr error
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: make(map[string]string)}
}

func (c *fakeCache) Get(_ context.Context, key string) (string, error) {
	v, ok := c.values[key]
	if !ok {
		return "", errors.New("cache miss")
	}
	return v, nil
}

func (c *fakeCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	if c.setErr != nil {
		return c.setErr
	}
	c.values[key] = value
	return nil
}

func (c *fakeCache) Delete(_ context.Context, key string) error {
	delete(c.values, key)
	return nil
}

type countingOracle struct {
	quote domain.Quote
	err   error
	calls int
}

func (o *countingOracle) LatestQuote(_ context.Context) (domain.Quote, error) {
	o.calls++
	if o.err != nil {
		return domain.Quote{}, o.err
	}
	return o.quote, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCachedOracleMissThenHit(t *testing.T) {
	inner := &countingOracle{quote: domain.Quote{Price: uint256.NewInt(200000000000), Decimals: 8}}
	cache := newFakeCache()
	o := NewCachedOracle(inner, cache, time.Minute, discardLogger())
	ctx := context.Background()

	first, err := o.LatestQuote(ctx)
	if err != nil {
		t.Fatalf("first quote failed: %v", err)
	}

	second, err := o.LatestQuote(ctx)
	if err != nil {
		t.Fatalf("second quote failed: %v", err)
	}

	if inner.calls != 1 {
		t.Errorf("feed called %d times, want 1", inner.calls)
	}
	if first.Price.Cmp(second.Price) != 0 || first.Decimals != second.Decimals {
		t.Error("cached quote differs from feed quote")
	}
}

func TestCachedOracleIgnoresMalformedEntry(t *testing.T) {
	inner := &countingOracle{quote: domain.Quote{Price: uint256.NewInt(100), Decimals: 2}}
	cache := newFakeCache()
	cache.values[quoteCacheKey] = "not json"

	o := NewCachedOracle(inner, cache, time.Minute, discardLogger())

	quote, err := o.LatestQuote(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote.Price.Dec() != "100" {
		t.Errorf("price = %s, want 100", quote.Price.Dec())
	}
	if inner.calls != 1 {
		t.Errorf("feed called %d times, want 1", inner.calls)
	}
}

func TestCachedOracleCacheWriteFailureIsNonFatal(t *testing.T) {
	inner := &countingOracle{quote: domain.Quote{Price: uint256.NewInt(100), Decimals: 2}}
	cache := newFakeCache()
	cache.setErr = errors.New("redis down")

	o := NewCachedOracle(inner, cache, time.Minute, discardLogger())

	if _, err := o.LatestQuote(context.Background()); err != nil {
		t.Fatalf("quote should survive cache failure: %v", err)
	}
}

func TestCachedOraclePropagatesFeedError(t *testing.T) {
	feedErr := errors.New("feed unavailable")
	inner := &countingOracle{err: feedErr}

	o := NewCachedOracle(inner, newFakeCache(), time.Minute, discardLogger())

	if _, err := o.LatestQuote(context.Background()); !errors.Is(err, feedErr) {
		t.Fatalf("error = %v, want %v", err, feedErr)
	}
}
