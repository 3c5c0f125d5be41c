// Package digest renders new feed entries as a plain-text message.
package digest

import (
	"cmp"
	"fmt"
	"strings"

	"rss-monitor/models/entities"
	"rss-monitor/utils/dates"

	"github.com/dustin/go-humanize"
)

const DefaultLimit = 5

// Format renders at most limit entries in the given order, followed by a
// line counting the entries left out. A non-positive limit means DefaultLimit.
func Format(entries []entities.Entry, limit int) string {
	if limit <= 0 {
		limit = DefaultLimit
	}

	blocks := make([]string, 0, min(len(entries), limit)+1)
	for _, entry := range entries[:min(len(entries), limit)] {
		blocks = append(blocks, formatEntry(entry))
	}

	if overflow := len(entries) - limit; overflow > 0 {
		blocks = append(blocks, fmt.Sprintf("… %s more new entries not shown", humanize.Comma(int64(overflow))))
	}

	return strings.Join(blocks, "\n\n")
}

func formatEntry(entry entities.Entry) string {
	published := entry.Published
	if entry.PublishedParsed != nil {
		published = dates.Display(*entry.PublishedParsed)
	}

	msg := "📢 " + cmp.Or(strings.TrimSpace(entry.Title), "(untitled)") + "\n"
	msg += "🔗 " + entry.Link + "\n"
	msg += "🕒 " + cmp.Or(published, "unknown date")
	return msg
}
