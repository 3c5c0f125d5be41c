// Package detector decides which feed entries are new for a subscriber.
package detector

import (
	"rss-monitor/models/entities"
	"rss-monitor/utils/dates"
)

// Diff compares entries, sorted newest first, with the stored watermark.
//
// A nil watermark means the feed was never polled: every entry is new and
// the newest raw timestamp becomes the watermark. Otherwise only entries
// strictly after the watermark are new, and entries without a usable date
// are never considered new. The returned watermark is the input one when
// nothing is new.
func Diff(entries []entities.Entry, watermark *string) (*string, []entities.Entry) {
	if len(entries) == 0 {
		return watermark, nil
	}

	if watermark == nil {
		newest := entries[0].Published
		return &newest, entries
	}

	boundary := dates.InstantOrMin(watermark)
	var newEntries []entities.Entry
	for _, entry := range entries {
		if entry.PublishedParsed != nil && entry.PublishedParsed.After(boundary) {
			newEntries = append(newEntries, entry)
		}
	}

	if len(newEntries) == 0 {
		return watermark, nil
	}

	newest := newEntries[0].Published
	return &newest, newEntries
}

// SameWatermark reports whether two optional watermarks hold the same value.
func SameWatermark(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
