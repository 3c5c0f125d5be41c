package health

import (
	"rss-monitor/repositories/subscriptions"
	"rss-monitor/utils/databases"
)

const jobName = "Check app running"

type Service interface {
	Check() Status
}

// Status is the outcome of one liveness check.
type Status struct {
	DatabaseConnected bool
	Subscriptions     int64
}

type Impl struct {
	db   databases.SqlConnection
	repo subscriptions.Repository
}
