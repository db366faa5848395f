package testutil

import (
	"encoding/json"
	"fmt"
	"time"
)

// HistoryItemOptions describes one row of a generated history response
type HistoryItemOptions struct {
	HistoryKey       string
	RatingKey        string
	Title            string
	GrandparentTitle string
	Type             string // "movie" when empty
	ViewedAt         time.Time
	LibrarySectionID string
}

// MetadataOptions describes one generated metadata response
type MetadataOptions struct {
	RatingKey string
	Title     string
	GUID      string   // primary guid
	Guids     []string // Guid[].id entries
}

// SectionOptions describes one generated library section
type SectionOptions struct {
	Key   string
	Title string
	Type  string
}

// MakeHistoryItems returns n movie rows with rating keys "r<start>".."r<start+n-1>",
// one hour apart going back from 2024-06-01T00:00:00Z.
func MakeHistoryItems(start, n int) []HistoryItemOptions {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	items := make([]HistoryItemOptions, n)
	for i := range items {
		idx := start + i
		items[i] = HistoryItemOptions{
			HistoryKey: fmt.Sprintf("/status/sessions/history/%d", idx),
			RatingKey:  fmt.Sprintf("r%d", idx),
			Title:      fmt.Sprintf("Film %d", idx),
			Type:       "movie",
			ViewedAt:   base.Add(-time.Duration(idx) * time.Hour),
		}
	}
	return items
}

// GenerateHistoryJSON renders a /status/sessions/history/all body.
// totalSize is omitted when zero, like servers that do not report it.
func GenerateHistoryJSON(items []HistoryItemOptions, offset, totalSize int) string {
	rows := make([]map[string]any, 0, len(items))
	for _, it := range items {
		typ := it.Type
		if typ == "" {
			typ = "movie"
		}
		row := map[string]any{
			"title":    it.Title,
			"type":     typ,
			"viewedAt": it.ViewedAt.Unix(),
		}
		if it.HistoryKey != "" {
			row["historyKey"] = it.HistoryKey
		}
		if it.RatingKey != "" {
			row["ratingKey"] = it.RatingKey
		}
		if it.GrandparentTitle != "" {
			row["grandparentTitle"] = it.GrandparentTitle
		}
		if it.LibrarySectionID != "" {
			row["librarySectionID"] = it.LibrarySectionID
		}
		rows = append(rows, row)
	}

	container := map[string]any{
		"size":     len(rows),
		"offset":   offset,
		"Metadata": rows,
	}
	if totalSize > 0 {
		container["totalSize"] = totalSize
	}
	return mustJSON(map[string]any{"MediaContainer": container})
}

// GenerateMetadataJSON renders a /library/metadata/{ratingKey} body
func GenerateMetadataJSON(opts MetadataOptions) string {
	guids := make([]map[string]string, 0, len(opts.Guids))
	for _, id := range opts.Guids {
		guids = append(guids, map[string]string{"id": id})
	}
	item := map[string]any{
		"ratingKey": opts.RatingKey,
		"title":     opts.Title,
		"type":      "movie",
		"guid":      opts.GUID,
	}
	if len(guids) > 0 {
		item["Guid"] = guids
	}
	return mustJSON(map[string]any{
		"MediaContainer": map[string]any{
			"size":     1,
			"Metadata": []any{item},
		},
	})
}

// EmptyMetadataJSON is a metadata body with no items
const EmptyMetadataJSON = `{"MediaContainer":{"size":0}}`

// GenerateSectionsJSON renders a /library/sections body
func GenerateSectionsJSON(sections ...SectionOptions) string {
	dirs := make([]map[string]string, 0, len(sections))
	for _, s := range sections {
		dirs = append(dirs, map[string]string{"key": s.Key, "title": s.Title, "type": s.Type})
	}
	return mustJSON(map[string]any{
		"MediaContainer": map[string]any{
			"size":      len(dirs),
			"Directory": dirs,
		},
	})
}

func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(data)
}
