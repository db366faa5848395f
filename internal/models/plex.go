package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// MediaContainer is the envelope every Plex JSON response is wrapped in
type MediaContainer[T any] struct {
	MediaContainer T `json:"MediaContainer"`
}

// PlexHistoryContainer is the body of /status/sessions/history/all
type PlexHistoryContainer struct {
	Size      int               `json:"size"`
	TotalSize int               `json:"totalSize"` // only sent by servers that support it
	Offset    int               `json:"offset"`
	Metadata  []PlexHistoryItem `json:"Metadata"`
}

// PlexHistoryItem is one raw history row
type PlexHistoryItem struct {
	HistoryKey       string     `json:"historyKey"`
	RatingKey        FlexString `json:"ratingKey"`
	Title            string     `json:"title"`
	GrandparentTitle string     `json:"grandparentTitle"`
	Type             string     `json:"type"`
	ViewedAt         FlexInt64  `json:"viewedAt"` // unix seconds
	LibrarySectionID FlexString `json:"librarySectionID"`
	AccountID        FlexInt64  `json:"accountID"`
}

// ToEntry converts the raw row to a HistoryEntry
func (i PlexHistoryItem) ToEntry() HistoryEntry {
	return HistoryEntry{
		HistoryKey:       i.HistoryKey,
		RatingKey:        string(i.RatingKey),
		Title:            i.Title,
		ShowTitle:        i.GrandparentTitle,
		Kind:             ParseMediaKind(i.Type),
		WatchedAt:        time.Unix(int64(i.ViewedAt), 0).UTC(),
		LibrarySectionID: string(i.LibrarySectionID),
	}
}

// PlexMetadataContainer is the body of /library/metadata/{ratingKey}
type PlexMetadataContainer struct {
	Size     int                `json:"size"`
	Metadata []PlexMetadataItem `json:"Metadata"`
}

// PlexMetadataItem carries the identifiers of one library item.
// GUID is the primary agent GUID; Guids holds the external ids newer servers attach.
type PlexMetadataItem struct {
	RatingKey FlexString `json:"ratingKey"`
	Title     string     `json:"title"`
	Type      string     `json:"type"`
	GUID      string     `json:"guid"`
	Guids     []PlexGuid `json:"Guid"`
}

// PlexGuid is one entry of the Guid array
type PlexGuid struct {
	ID string `json:"id"`
}

// Identifiers returns every GUID string on the item, primary GUID first
func (m PlexMetadataItem) Identifiers() RawIdentifierSet {
	ids := make(RawIdentifierSet, 0, len(m.Guids)+1)
	if m.GUID != "" {
		ids = append(ids, m.GUID)
	}
	for _, g := range m.Guids {
		if g.ID != "" {
			ids = append(ids, g.ID)
		}
	}
	return ids
}

// PlexSectionsContainer is the body of /library/sections
type PlexSectionsContainer struct {
	Size      int                `json:"size"`
	Directory []PlexSectionEntry `json:"Directory"`
}

// PlexSectionEntry is one library section directory
type PlexSectionEntry struct {
	Key   FlexString `json:"key"`
	Title string     `json:"title"`
	Type  string     `json:"type"`
}

// LibrarySection is a library section the history can be filtered by
type LibrarySection struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Type  string `json:"type"`
}

// FlexString decodes a JSON string or number into a string.
// Plex sends ids such as ratingKey as strings on most versions and as numbers on some.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler interface
func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = FlexString(str)
		return nil
	}

	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*s = FlexString(num.String())
	return nil
}

// FlexInt64 decodes a JSON number or numeric string into an int64
type FlexInt64 int64

// UnmarshalJSON implements json.Unmarshaler interface
func (n *FlexInt64) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}

	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch v := raw.(type) {
	case float64:
		*n = FlexInt64(v)
	case string:
		if v == "" {
			*n = 0
			return nil
		}
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer string %q: %w", v, err)
		}
		*n = FlexInt64(parsed)
	default:
		return fmt.Errorf("unsupported type %T for integer field", raw)
	}
	return nil
}
