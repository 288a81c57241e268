package homecache

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/civilshq/civilshq-go/civilsapi"
	"github.com/civilshq/civilshq-go/gateway"
)

const homeKey = "home"

// HomeClient serves the homepage aggregate through the TTL cache so repeat
// visits inside the window skip the network entirely.
type HomeClient struct {
	gw    *gateway.Client
	cache *Cache[civilsapi.HomeData]
}

// NewHomeClient creates a HomeClient with the given cache TTL.
func NewHomeClient(gw *gateway.Client, ttl time.Duration, options ...CacheOption[civilsapi.HomeData]) (*HomeClient, error) {
	if gw == nil {
		return nil, errors.New("[NewHomeClient] gateway client is required")
	}
	return &HomeClient{
		gw:    gw,
		cache: NewCache(ttl, options...),
	}, nil
}

// Fetch returns the homepage payload, from cache when fresh.
func (h *HomeClient) Fetch(ctx context.Context) (civilsapi.HomeData, error) {
	if data, ok := h.cache.Get(homeKey); ok {
		return data, nil
	}

	var resp civilsapi.HomeResponse
	if err := h.gw.Get(ctx, "/api/home", &resp); err != nil {
		return civilsapi.HomeData{}, errors.Wrap(err, "[HomeClient.Fetch]")
	}

	h.cache.Put(homeKey, resp.Data)
	return resp.Data, nil
}

// Invalidate drops the cached payload so the next Fetch refetches.
func (h *HomeClient) Invalidate() {
	h.cache.Delete(homeKey)
}
