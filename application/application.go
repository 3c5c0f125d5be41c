package application

import (
	"rss-monitor/models/constants"
	"rss-monitor/models/entities"
	"rss-monitor/pkg/notifier"
	"rss-monitor/repositories/subscriptions"
	"rss-monitor/services/feeds"
	"rss-monitor/services/health"
	"rss-monitor/services/monitor"
	"rss-monitor/services/telegram"
	databases "rss-monitor/utils/databases"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

func New() (*Impl, error) {
	db := databases.New()
	if errDB := db.Run(); errDB != nil {
		return nil, errDB
	}

	if errMigration := db.Migrate(&entities.Subscription{}); errMigration != nil {
		return nil, errMigration
	}

	location, err := time.LoadLocation(viper.GetString(constants.Timezone))
	if err != nil {
		return nil, err
	}

	scheduler, errScheduler := gocron.NewScheduler(gocron.WithLocation(location))
	if errScheduler != nil {
		return nil, errScheduler
	}

	// Repositories
	subscriptionRepo := subscriptions.New(db)

	feedService, errFeeds := feeds.New(feeds.Options{
		Timeout:   time.Duration(viper.GetInt(constants.RSSTimeout)) * time.Second,
		UserAgent: viper.GetString(constants.UserAgent),
		ProxyURL:  viper.GetString(constants.ProxyURL),
		CacheTTL:  viper.GetDuration(constants.FeedCache),
	})
	if errFeeds != nil {
		return nil, errFeeds
	}

	telegramService, errTg := telegram.New(viper.GetString(constants.TelegramBotToken),
		subscriptionRepo, viper.GetString(constants.ProxyURL))
	if errTg != nil {
		return nil, errTg
	}

	broadcaster := notifier.NewBroadcaster()
	broadcaster.Register(telegramService)

	monitorService, errMonitor := monitor.New(scheduler, subscriptionRepo, feedService, broadcaster, monitor.Options{
		Interval:    viper.GetDuration(constants.PollInterval),
		Concurrency: viper.GetInt(constants.FetchConcurrency),
		DigestLimit: viper.GetInt(constants.DigestLimit),
		RunAtStart:  viper.GetBool(constants.Production),
	})
	if errMonitor != nil {
		return nil, errMonitor
	}

	healthService, errHealth := health.New(scheduler, db, subscriptionRepo)
	if errHealth != nil {
		return nil, errHealth
	}

	return &Impl{
		scheduler:       scheduler,
		healthService:   healthService,
		monitorService:  monitorService,
		telegramService: telegramService,
		db:              db,
	}, nil
}

func (app *Impl) Run() {
	app.scheduler.Start()
	go func() {
		if err := app.telegramService.ListenAndDispatch(); err != nil {
			log.Error().Err(err).Msg("Telegram bot stopped listening")
		}
	}()

	for _, job := range app.scheduler.Jobs() {
		scheduledTime, err := job.NextRun()
		if err == nil {
			log.Info().Msgf("%v scheduled at %v", job.Name(), scheduledTime)
		}
	}
}

func (app *Impl) Shutdown() {
	if err := app.scheduler.Shutdown(); err != nil {
		log.Error().Err(err).Msg("Cannot shutdown scheduler, continuing...")
	}
	app.telegramService.Shutdown()
	app.db.Shutdown()
	log.Info().Msgf("Application is no longer running")
}
