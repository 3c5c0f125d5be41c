package entities

import "time"

// Entry is a feed item as seen by the monitor.
type Entry struct {
	Title string
	Link  string
	// Published is the publication time exactly as written in the feed.
	Published string
	// PublishedParsed is nil when Published could not be interpreted.
	PublishedParsed *time.Time
}
