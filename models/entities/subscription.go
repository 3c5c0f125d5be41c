package entities

import "time"

// FeedMap associates a feed URL with its watermark, the raw published
// time of the newest entry already notified. A nil watermark means the
// feed has never been polled.
type FeedMap map[string]*string

func (feeds FeedMap) Clone() FeedMap {
	clone := make(FeedMap, len(feeds))
	for url, watermark := range feeds {
		if watermark != nil {
			value := *watermark
			watermark = &value
		}
		clone[url] = watermark
	}
	return clone
}

// URLs returns the subscribed URLs in no particular order.
func (feeds FeedMap) URLs() []string {
	urls := make([]string, 0, len(feeds))
	for url := range feeds {
		urls = append(urls, url)
	}
	return urls
}

type Subscription struct {
	ContainerID    int64   `gorm:"primaryKey;autoIncrement:false"`
	SubscriberID   int64   `gorm:"primaryKey;autoIncrement:false"`
	SubscriberName string
	Feeds          FeedMap `gorm:"type:text;serializer:json;not null"`
	Version        int64   `gorm:"not null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
