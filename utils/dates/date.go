package dates

import (
	"encoding/xml"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

const (
	DateFormat    = "2006-01-02"
	DisplayFormat = "2006-01-02 15:04 MST"
)

// ISO-8601 shapes tried before falling back to the feed date parser.
// Layouts without an offset are read as UTC.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	DateFormat,
}

// ParsePublished interprets a feed-supplied timestamp and returns it in UTC.
// The boolean is false when the value is empty or cannot be understood.
func ParsePublished(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}

	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}

	return parseFeedDate(raw)
}

// InstantOrMin parses an optional timestamp, mapping absent or unreadable
// values to the zero time so that every comparison stays defined.
func InstantOrMin(raw *string) time.Time {
	if raw == nil {
		return time.Time{}
	}
	t, ok := ParsePublished(*raw)
	if !ok {
		return time.Time{}
	}
	return t
}

func Display(t time.Time) string {
	return t.UTC().Format(DisplayFormat)
}

// parseFeedDate hands the value to gofeed as the pubDate of a one-item RSS
// document, which covers RFC 822 and the many variants found in the wild.
func parseFeedDate(raw string) (time.Time, bool) {
	var escaped strings.Builder
	if err := xml.EscapeText(&escaped, []byte(raw)); err != nil {
		return time.Time{}, false
	}

	doc := `<rss version="2.0"><channel><item><pubDate>` + escaped.String() + `</pubDate></item></channel></rss>`
	feed, err := gofeed.NewParser().ParseString(doc)
	if err != nil || len(feed.Items) == 0 || feed.Items[0].PublishedParsed == nil {
		return time.Time{}, false
	}

	return feed.Items[0].PublishedParsed.UTC(), true
}
