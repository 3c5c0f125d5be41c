package feeds

import (
	"cmp"
	"context"
	"rss-monitor/models/constants"
	"rss-monitor/models/entities"
	"rss-monitor/utils/dates"
	"rss-monitor/utils/network"
	"slices"
	"strings"

	"github.com/mmcdole/gofeed"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
)

func New(opts Options) (*Impl, error) {
	client, err := network.NewHTTPClient(opts.ProxyURL)
	if err != nil {
		return nil, err
	}

	service := &Impl{
		client:    client,
		timeout:   opts.Timeout,
		userAgent: opts.UserAgent,
	}
	if opts.CacheTTL > 0 {
		service.cache = cache.New(opts.CacheTTL, cacheCleanupFactor*opts.CacheTTL)
	}

	return service, nil
}

// Fetch returns the entries of a feed, newest first. Entries without a
// readable publication time come last. Concurrent calls for the same URL
// share a single request.
func (service *Impl) Fetch(ctx context.Context, url string) ([]entities.Entry, error) {
	if service.cache != nil {
		if x, found := service.cache.Get(url); found {
			log.Debug().Str(constants.LogFeedURL, url).Msg("Feed served from cache")
			return slices.Clone(x.([]entities.Entry)), nil
		}
	}

	// The shared request is detached from the first caller so that its
	// cancellation does not fail the others; readFeed bounds it by timeout.
	ch := service.group.DoChan(url, func() (any, error) {
		entries, err := service.readFeed(context.WithoutCancel(ctx), url)
		if err != nil {
			return nil, err
		}
		if service.cache != nil {
			service.cache.SetDefault(url, entries)
		}
		return entries, nil
	})

	select {
	case <-ctx.Done():
		return nil, &FetchError{URL: url, Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return slices.Clone(res.Val.([]entities.Entry)), nil
	}
}

func (service *Impl) readFeed(ctx context.Context, url string) ([]entities.Entry, error) {
	if service.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, service.timeout)
		defer cancel()
	}

	fp := gofeed.NewParser()
	fp.Client = service.client
	fp.UserAgent = service.userAgent

	feed, err := fp.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}

	entries := make([]entities.Entry, 0, len(feed.Items))
	for _, item := range feed.Items {
		entries = append(entries, MapItemToEntry(item))
	}
	SortNewestFirst(entries)

	log.Debug().
		Str(constants.LogFeedURL, url).
		Int(constants.LogEntryNumber, len(entries)).
		Msg("Feed read")

	return entries, nil
}

func MapItemToEntry(item *gofeed.Item) entities.Entry {
	entry := entities.Entry{
		Title:     strings.TrimSpace(item.Title),
		Link:      strings.TrimSpace(cmp.Or(item.Link, item.GUID)),
		Published: strings.TrimSpace(cmp.Or(item.Published, item.Updated)),
	}

	if t, ok := dates.ParsePublished(entry.Published); ok {
		entry.PublishedParsed = &t
	}

	return entry
}

// SortNewestFirst orders entries by publication time, newest first, keeping
// undated entries at the end in their original order.
func SortNewestFirst(entries []entities.Entry) {
	slices.SortStableFunc(entries, func(a, b entities.Entry) int {
		switch {
		case a.PublishedParsed == nil && b.PublishedParsed == nil:
			return 0
		case a.PublishedParsed == nil:
			return 1
		case b.PublishedParsed == nil:
			return -1
		default:
			return b.PublishedParsed.Compare(*a.PublishedParsed)
		}
	})
}
