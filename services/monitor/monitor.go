package monitor

import (
	"context"
	"errors"
	"fmt"
	"rss-monitor/models/constants"
	"rss-monitor/models/entities"
	"rss-monitor/pkg/detector"
	"rss-monitor/pkg/digest"
	"rss-monitor/pkg/notifier"
	"rss-monitor/repositories/subscriptions"
	"rss-monitor/services/feeds"
	"slices"
	"sync/atomic"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

type outcome int

const (
	outcomeUnchanged outcome = iota
	outcomeFailed
	outcomeNotified
)

func New(scheduler gocron.Scheduler, repo subscriptions.Repository, fetcher feeds.Service,
	n notifier.Notifier, opts Options) (*Impl, error) {
	if opts.Interval <= 0 {
		return nil, ErrInvalidInterval
	}

	service := &Impl{
		repo:        repo,
		fetcher:     fetcher,
		notifier:    n,
		concurrency: max(opts.Concurrency, defaultConcurrency),
		digestLimit: opts.DigestLimit,
	}

	jobOptions := []gocron.JobOption{
		gocron.WithName(jobName),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	}
	if opts.RunAtStart {
		jobOptions = append(jobOptions, gocron.WithStartAt(gocron.WithStartImmediately()))
	}

	_, errJob := scheduler.NewJob(
		gocron.DurationJob(opts.Interval),
		gocron.NewTask(func() { service.runScheduledPass() }),
		jobOptions...,
	)
	if errJob != nil {
		return nil, errJob
	}

	return service, nil
}

func (service *Impl) runScheduledPass() {
	if _, err := service.RunPass(context.Background()); err != nil {
		log.Error().Err(err).Msg("RSS pass aborted, next pass will retry")
	}
}

// RunPass checks every subscribed feed once. Feed and notification failures
// are logged and skipped; a storage failure aborts the pass.
func (service *Impl) RunPass(ctx context.Context) (PassReport, error) {
	log.Info().Msg("Checking RSS subscriptions...")

	targets, err := service.collectTargets()
	if err != nil {
		return PassReport{}, err
	}

	var checked, failed, notified atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(service.concurrency)
	for _, t := range targets {
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}

			result, errCheck := service.checkFeed(gctx, t)
			checked.Add(1)
			switch result {
			case outcomeFailed:
				failed.Add(1)
			case outcomeNotified:
				notified.Add(1)
			}
			return errCheck
		})
	}
	errPass := g.Wait()
	if errPass == nil {
		errPass = ctx.Err()
	}

	report := PassReport{
		Checked:  int(checked.Load()),
		Failed:   int(failed.Load()),
		Notified: int(notified.Load()),
	}
	log.Info().
		Int(constants.LogFeedNumber, report.Checked).
		Int(constants.LogFailedNumber, report.Failed).
		Int(constants.LogNotifyNumber, report.Notified).
		Msg("RSS subscriptions checked")

	return report, errPass
}

func (service *Impl) collectTargets() ([]target, error) {
	containerIDs, err := service.repo.ListContainers()
	if err != nil {
		return nil, err
	}

	var targets []target
	for _, containerID := range containerIDs {
		subs, errList := service.repo.ListSubscriptions(containerID)
		if errList != nil {
			return nil, errList
		}

		for _, sub := range subs {
			urls := sub.Feeds.URLs()
			slices.Sort(urls)
			for _, url := range urls {
				targets = append(targets, target{
					containerID:    sub.ContainerID,
					subscriberID:   sub.SubscriberID,
					subscriberName: sub.SubscriberName,
					url:            url,
					watermark:      sub.Feeds[url],
				})
			}
		}
	}

	return targets, nil
}

func (service *Impl) checkFeed(ctx context.Context, t target) (outcome, error) {
	logger := log.With().
		Int64(constants.LogContainerID, t.containerID).
		Int64(constants.LogSubscriberID, t.subscriberID).
		Str(constants.LogFeedURL, t.url).
		Logger()

	entries, err := service.fetcher.Fetch(ctx, t.url)
	if err != nil {
		logger.Error().Err(err).Msg("Cannot read feed, skipped for this pass")
		return outcomeFailed, nil
	}

	watermark, newEntries := detector.Diff(entries, t.watermark)
	if len(newEntries) == 0 {
		logger.Debug().Int(constants.LogEntryNumber, len(entries)).Msg("No new entry")
		return outcomeUnchanged, nil
	}

	// Compare-and-swap against the watermark read at pass start, so that a
	// concurrent unsubscribe or pass is never overwritten or notified twice.
	err = service.repo.Update(t.containerID, t.subscriberID, func(feeds entities.FeedMap) error {
		current, subscribed := feeds[t.url]
		if !subscribed || !detector.SameWatermark(current, t.watermark) {
			return errStale
		}
		feeds[t.url] = watermark
		return nil
	})
	switch {
	case errors.Is(err, errStale):
		logger.Info().Msg("Subscription changed during the pass, skipped")
		return outcomeUnchanged, nil
	case errors.Is(err, subscriptions.ErrConflict):
		logger.Warn().Err(err).Msg("Cannot save watermark, skipped for this pass")
		return outcomeFailed, nil
	case err != nil:
		return outcomeFailed, fmt.Errorf("cannot save watermark of %s: %w", t.url, err)
	}

	notification := notifier.Notification{
		ContainerID: t.containerID,
		Mention:     &notifier.Mention{ID: t.subscriberID, Name: t.subscriberName},
		Text:        digest.Format(newEntries, service.digestLimit),
	}
	// The watermark is already saved: the digest must go out even if the
	// pass gets cancelled by another worker.
	if errSend := service.notifier.Send(context.WithoutCancel(ctx), notification); errSend != nil {
		logger.Error().Err(errSend).Int(constants.LogEntryNumber, len(newEntries)).Msg("Cannot send notification")
		return outcomeFailed, nil
	}

	logger.Info().
		Int(constants.LogEntryNumber, len(newEntries)).
		Str(constants.LogWatermark, *watermark).
		Msg("New entries notified")

	return outcomeNotified, nil
}
