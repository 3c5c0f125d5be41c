package subscriptions

import (
	"errors"
	"fmt"
	"rss-monitor/models/constants"
	"rss-monitor/models/entities"
	"rss-monitor/utils/databases"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func New(db databases.SqlConnection) *Impl {
	return &Impl{db: db}
}

func (repo *Impl) GetFeedMap(containerID, subscriberID int64) (entities.FeedMap, error) {
	subscription, found, err := repo.find(containerID, subscriberID)
	if err != nil {
		return nil, err
	}
	if !found {
		return entities.FeedMap{}, nil
	}

	return subscription.Feeds.Clone(), nil
}

// PutFeedMap replaces the whole feed map of a subscriber in one statement,
// last writer wins. An empty map removes the subscriber. Callers that derive
// the new map from the current one use Update instead.
func (repo *Impl) PutFeedMap(containerID, subscriberID int64, feeds entities.FeedMap) error {
	if len(feeds) == 0 {
		err := repo.db.GetDB().
			Where("container_id = ? AND subscriber_id = ?", containerID, subscriberID).
			Delete(&entities.Subscription{}).
			Error
		if err != nil {
			return fmt.Errorf("failed to delete subscription: %w", err)
		}
		return nil
	}

	subscription := entities.Subscription{
		ContainerID:  containerID,
		SubscriberID: subscriberID,
		Feeds:        feeds.Clone(),
	}
	updates := append(
		clause.AssignmentColumns([]string{"feeds", "updated_at"}),
		clause.Assignment{Column: clause.Column{Name: "version"}, Value: gorm.Expr("version + 1")},
	)

	err := repo.db.GetDB().
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "container_id"}, {Name: "subscriber_id"}},
			DoUpdates: updates,
		}).
		Create(&subscription).
		Error
	if err != nil {
		return fmt.Errorf("failed to save subscription: %w", err)
	}

	return nil
}

func (repo *Impl) ListContainers() ([]int64, error) {
	var containerIDs []int64
	err := repo.db.GetDB().
		Model(&entities.Subscription{}).
		Distinct().
		Order("container_id").
		Pluck("container_id", &containerIDs).
		Error
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}

	return containerIDs, nil
}

func (repo *Impl) ListSubscriptions(containerID int64) ([]entities.Subscription, error) {
	var subscriptions []entities.Subscription
	err := repo.db.GetDB().
		Where("container_id = ?", containerID).
		Order("subscriber_id").
		Find(&subscriptions).
		Error
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	return subscriptions, nil
}

func (repo *Impl) Subscribe(containerID, subscriberID int64, name, url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return ErrEmptyURL
	}

	return repo.update(containerID, subscriberID, name, func(feeds entities.FeedMap) error {
		if _, exists := feeds[url]; exists {
			return ErrAlreadySubscribed
		}
		feeds[url] = nil
		return nil
	})
}

func (repo *Impl) Unsubscribe(containerID, subscriberID int64, url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return ErrEmptyURL
	}

	return repo.Update(containerID, subscriberID, func(feeds entities.FeedMap) error {
		if _, exists := feeds[url]; !exists {
			return ErrNotSubscribed
		}
		delete(feeds, url)
		return nil
	})
}

// Update applies fn to a copy of the current feed map and writes the result
// only if nobody else wrote the subscription in between, retrying otherwise.
// An error from fn aborts the update and is returned unchanged.
func (repo *Impl) Update(containerID, subscriberID int64, fn func(feeds entities.FeedMap) error) error {
	return repo.update(containerID, subscriberID, "", fn)
}

func (repo *Impl) update(containerID, subscriberID int64, name string, fn func(feeds entities.FeedMap) error) error {
	for attempt := 1; attempt <= maxUpdateAttempts; attempt++ {
		current, found, err := repo.find(containerID, subscriberID)
		if err != nil {
			return err
		}

		feeds := current.Feeds.Clone()
		if err := fn(feeds); err != nil {
			return err
		}

		var written bool
		switch {
		case !found && len(feeds) == 0:
			return nil
		case !found:
			written, err = repo.create(entities.Subscription{
				ContainerID:    containerID,
				SubscriberID:   subscriberID,
				SubscriberName: name,
				Feeds:          feeds,
			})
		case len(feeds) == 0:
			written, err = repo.deleteVersion(current)
		default:
			if name == "" {
				name = current.SubscriberName
			}
			written, err = repo.swap(current, name, feeds)
		}
		if err != nil {
			return err
		}
		if written {
			return nil
		}

		log.Debug().
			Int64(constants.LogContainerID, containerID).
			Int64(constants.LogSubscriberID, subscriberID).
			Int(constants.LogAttempt, attempt).
			Msg("Subscription changed concurrently, retrying")
	}

	return ErrConflict
}

func (repo *Impl) Count() int64 {
	count := new(int64)
	repo.db.GetDB().Model(&entities.Subscription{}).Count(count)

	return *count
}

func (repo *Impl) find(containerID, subscriberID int64) (entities.Subscription, bool, error) {
	var subscription entities.Subscription
	result := repo.db.GetDB().
		Where("container_id = ? AND subscriber_id = ?", containerID, subscriberID).
		First(&subscription)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return entities.Subscription{}, false, nil
		}
		return entities.Subscription{}, false, fmt.Errorf("failed to read subscription: %w", result.Error)
	}

	return subscription, true, nil
}

func (repo *Impl) create(subscription entities.Subscription) (bool, error) {
	result := repo.db.GetDB().Clauses(clause.OnConflict{DoNothing: true}).Create(&subscription)
	if result.Error != nil {
		return false, fmt.Errorf("failed to create subscription: %w", result.Error)
	}

	return result.RowsAffected == 1, nil
}

func (repo *Impl) swap(current entities.Subscription, name string, feeds entities.FeedMap) (bool, error) {
	result := repo.db.GetDB().
		Model(&entities.Subscription{}).
		Where("container_id = ? AND subscriber_id = ? AND version = ?",
			current.ContainerID, current.SubscriberID, current.Version).
		Select("feeds", "version", "subscriber_name", "updated_at").
		Updates(&entities.Subscription{
			Feeds:          feeds,
			Version:        current.Version + 1,
			SubscriberName: name,
			UpdatedAt:      time.Now().UTC(),
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to update subscription: %w", result.Error)
	}

	return result.RowsAffected == 1, nil
}

func (repo *Impl) deleteVersion(current entities.Subscription) (bool, error) {
	result := repo.db.GetDB().
		Where("container_id = ? AND subscriber_id = ? AND version = ?",
			current.ContainerID, current.SubscriberID, current.Version).
		Delete(&entities.Subscription{})
	if result.Error != nil {
		return false, fmt.Errorf("failed to delete subscription: %w", result.Error)
	}

	return result.RowsAffected == 1, nil
}
