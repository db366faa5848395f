package models

import (
	"strconv"
	"strings"
	"time"
)

// HistoryPageSize is the number of history entries requested per page.
// Plex uses 100 as both default and practical maximum for the history container.
const HistoryPageSize = 100

// MediaKind is the kind of media a history entry refers to
type MediaKind string

const (
	MediaKindMovie   MediaKind = "movie"
	MediaKindEpisode MediaKind = "episode"
	MediaKindOther   MediaKind = "other"
)

// ParseMediaKind converts a Plex item type to a MediaKind
func ParseMediaKind(plexType string) MediaKind {
	switch strings.ToLower(plexType) {
	case "movie":
		return MediaKindMovie
	case "episode":
		return MediaKindEpisode
	default:
		return MediaKindOther
	}
}

// HistoryEntry is one watched occurrence returned by the history endpoint
type HistoryEntry struct {
	HistoryKey       string    // Server id of the watch event, e.g. "/status/sessions/history/42"
	RatingKey        string    // Item reference used to fetch metadata
	Title            string    // Display title (episode title for episodes)
	ShowTitle        string    // Grandparent title for episodes
	Kind             MediaKind // movie / episode / other
	WatchedAt        time.Time // UTC
	LibrarySectionID string
}

// Key identifies the watched item. Entries sharing a key are one item for
// deduplication, whether they repeat because pages overlapped or because the
// item was watched again. Without a rating key the watch event itself is used.
func (e HistoryEntry) Key() string {
	if e.RatingKey != "" {
		return e.RatingKey
	}
	if e.HistoryKey != "" {
		return "history:" + e.HistoryKey
	}
	return "watch:" + e.Title + "@" + strconv.FormatInt(e.WatchedAt.Unix(), 10)
}

// PageCursor is the pagination state for the history endpoint
type PageCursor struct {
	Offset int
	Size   int
}

// FirstPage returns the cursor every run starts from.
func FirstPage() PageCursor {
	return PageCursor{Offset: 0, Size: HistoryPageSize}
}

// Advance computes the next cursor after a page of received entries, and whether the page was
// the last one. A page is last when it is empty, shorter than requested, or when the server
// reported a total that the next offset reaches.
func (c PageCursor) Advance(received, totalSize int) (PageCursor, bool) {
	next := PageCursor{Offset: c.Offset + received, Size: c.Size}
	if received == 0 || received < c.Size {
		return next, true
	}
	if totalSize > 0 && next.Offset >= totalSize {
		return next, true
	}
	return next, false
}

// HistoryPage is one fetched slice of the watch history
type HistoryPage struct {
	Entries   []HistoryEntry
	Cursor    PageCursor // cursor used to fetch this page
	Next      PageCursor // cursor for the following page
	IsLast    bool
	TotalSize int // 0 when the server did not report it
}
