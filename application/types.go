package application

import (
	"rss-monitor/services/health"
	"rss-monitor/services/monitor"
	"rss-monitor/services/telegram"
	databases "rss-monitor/utils/databases"

	"github.com/go-co-op/gocron/v2"
)

type Application interface {
	Run()
	Shutdown()
}

type Impl struct {
	scheduler       gocron.Scheduler
	healthService   health.Service
	monitorService  monitor.Service
	telegramService telegram.Service
	db              databases.SqlConnection
}
