package health

import (
	"path/filepath"
	"testing"

	"rss-monitor/models/constants"
	"rss-monitor/models/entities"
	"rss-monitor/repositories/subscriptions"
	"rss-monitor/utils/databases"

	"github.com/go-co-op/gocron/v2"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth(t *testing.T) {
	viper.SetDefault(constants.HealthCronTab, "*/30 * * * *")

	db := databases.NewWithDSN(filepath.Join(t.TempDir(), "health.db"))
	require.NoError(t, db.Run())
	require.NoError(t, db.Migrate(&entities.Subscription{}))
	repo := subscriptions.New(db)

	scheduler, err := gocron.NewScheduler()
	require.NoError(t, err)
	defer func() { _ = scheduler.Shutdown() }()

	service, err := New(scheduler, db, repo)
	require.NoError(t, err)
	require.Len(t, scheduler.Jobs(), 1)
	assert.Equal(t, jobName, scheduler.Jobs()[0].Name())

	assert.Equal(t, Status{DatabaseConnected: true}, service.Check())

	require.NoError(t, repo.Subscribe(1, 2, "ada", "https://a.example.com/rss"))
	require.NoError(t, repo.Subscribe(1, 3, "bob", "https://a.example.com/rss"))
	assert.Equal(t, Status{DatabaseConnected: true, Subscriptions: 2}, service.Check())

	db.Shutdown()
	assert.Equal(t, Status{}, service.Check())
}
