package feeds

import (
	"context"
	"fmt"
	"net/http"
	"rss-monitor/models/entities"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

const cacheCleanupFactor = 4

type Service interface {
	Fetch(ctx context.Context, url string) ([]entities.Entry, error)
}

// FetchError reports a feed that could not be retrieved or parsed.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("cannot fetch feed %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

type Options struct {
	Timeout   time.Duration
	UserAgent string
	// ProxyURL is optional; the environment proxy settings apply when empty.
	ProxyURL string
	// CacheTTL keeps successful results for that long; zero disables caching.
	CacheTTL time.Duration
}

type Impl struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
	cache     *cache.Cache
	group     singleflight.Group
}
