package health

import (
	"rss-monitor/models/constants"
	"rss-monitor/repositories/subscriptions"
	"rss-monitor/utils/databases"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

func New(scheduler gocron.Scheduler, db databases.SqlConnection, repo subscriptions.Repository) (*Impl, error) {
	service := Impl{db: db, repo: repo}

	_, errJob := scheduler.NewJob(
		gocron.CronJob(viper.GetString(constants.HealthCronTab), false),
		gocron.NewTask(func() { service.echo() }),
		gocron.WithName(jobName),
	)
	if errJob != nil {
		return nil, errJob
	}

	return &service, nil
}

func (service *Impl) Check() Status {
	status := Status{DatabaseConnected: service.db.IsConnected()}
	if status.DatabaseConnected {
		status.Subscriptions = service.repo.Count()
	}

	return status
}

func (service *Impl) echo() {
	status := service.Check()
	if !status.DatabaseConnected {
		log.Error().Msg("Application is running but the database is unreachable")
		return
	}

	log.Info().Int64(constants.LogSubNumber, status.Subscriptions).Msg("Application is running")
}
