package subscriptions

import (
	"errors"
	"rss-monitor/models/entities"
	"rss-monitor/utils/databases"
)

const maxUpdateAttempts = 10

var (
	ErrEmptyURL          = errors.New("feed URL is empty")
	ErrAlreadySubscribed = errors.New("already subscribed to this feed")
	ErrNotSubscribed     = errors.New("not subscribed to this feed")
	ErrConflict          = errors.New("subscription was modified concurrently too many times")
)

type Repository interface {
	GetFeedMap(containerID, subscriberID int64) (entities.FeedMap, error)
	PutFeedMap(containerID, subscriberID int64, feeds entities.FeedMap) error
	ListContainers() ([]int64, error)
	ListSubscriptions(containerID int64) ([]entities.Subscription, error)
	Subscribe(containerID, subscriberID int64, name, url string) error
	Unsubscribe(containerID, subscriberID int64, url string) error
	Update(containerID, subscriberID int64, fn func(feeds entities.FeedMap) error) error
	Count() int64
}

type Impl struct {
	db databases.SqlConnection
}
