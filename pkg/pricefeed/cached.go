package pricefeed

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/mselser95/chainhawk/pkg/cache"
)

// CachedSource wraps a Source with a short-TTL cache so that scanners polling
// every few hundred milliseconds do not hammer the aggregator contracts.
type CachedSource struct {
	inner Source
	cache cache.Cache
	ttl   time.Duration
}

// NewCachedSource wraps inner with the given cache and TTL.
func NewCachedSource(inner Source, c cache.Cache, ttl time.Duration) *CachedSource {
	return &CachedSource{
		inner: inner,
		cache: c,
		ttl:   ttl,
	}
}

// Price returns the cached price when fresh, otherwise fetches and caches it.
func (s *CachedSource) Price(ctx context.Context, asset common.Address) (*uint256.Int, error) {
	key := "price:" + asset.Hex()

	if cached, found := s.cache.Get(key); found {
		if price, ok := cached.(*uint256.Int); ok {
			return price.Clone(), nil
		}
	}

	price, err := s.inner.Price(ctx, asset)
	if err != nil {
		return nil, err
	}

	s.cache.Set(key, price.Clone(), s.ttl)
	return price, nil
}
