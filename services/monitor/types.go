package monitor

import (
	"context"
	"errors"
	"rss-monitor/pkg/notifier"
	"rss-monitor/repositories/subscriptions"
	"rss-monitor/services/feeds"
	"time"
)

const (
	defaultConcurrency = 1
	jobName            = "Check RSS subscriptions"
)

var (
	ErrInvalidInterval = errors.New("poll interval must be positive")

	// errStale aborts a watermark update that another writer made obsolete.
	errStale = errors.New("watermark changed since the pass started")
)

type Service interface {
	RunPass(ctx context.Context) (PassReport, error)
}

type Options struct {
	Interval    time.Duration
	Concurrency int
	DigestLimit int
	// RunAtStart triggers a first pass as soon as the scheduler starts.
	RunAtStart bool
}

// PassReport summarizes one polling pass.
type PassReport struct {
	Checked  int
	Failed   int
	Notified int
}

// target is one (container, subscriber, feed) triple as read at pass start.
type target struct {
	containerID    int64
	subscriberID   int64
	subscriberName string
	url            string
	watermark      *string
}

type Impl struct {
	repo        subscriptions.Repository
	fetcher     feeds.Service
	notifier    notifier.Notifier
	concurrency int
	digestLimit int
}
