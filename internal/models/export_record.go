package models

import "time"

// DefaultTags is written to the Tags column when no other value is configured
const DefaultTags = "Imported from Plex"

// Date layouts accepted by the Letterboxd importer for the WatchedDate column
const (
	WatchedDateTimeLayout = time.RFC3339
	WatchedDateLayout     = "2006-01-02"
)

// ExportRecord is one row of the Letterboxd import CSV
type ExportRecord struct {
	Title     string
	IMDbID    string // "tt" followed by digits, never empty
	WatchedAt time.Time
	Tags      string
}

// WatchedDate formats WatchedAt in UTC. dateOnly drops the time of day.
func (r ExportRecord) WatchedDate(dateOnly bool) string {
	if dateOnly {
		return r.WatchedAt.UTC().Format(WatchedDateLayout)
	}
	return r.WatchedAt.UTC().Format(WatchedDateTimeLayout)
}

// ExportResult is the output of one pipeline run. Records are in history order.
type ExportResult struct {
	RunID   string
	Records []ExportRecord
	Summary Summary
}
