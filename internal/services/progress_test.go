package services

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/harrietfigueroa/plex-to-letterboxd/internal/apperrors"
	"github.com/harrietfigueroa/plex-to-letterboxd/internal/models"
	"github.com/rs/zerolog"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var lines []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid log line %q: %v", line, err)
		}
		lines = append(lines, m)
	}
	return lines
}

func TestLogReporter_PageFetched(t *testing.T) {
	var buf bytes.Buffer
	r := NewLogReporter(zerolog.New(&buf))

	r.PageFetched(models.HistoryPage{Cursor: models.PageCursor{Offset: 0, Size: 100}, Entries: make([]models.HistoryEntry, 100), TotalSize: 237})
	r.PageFetched(models.HistoryPage{Cursor: models.PageCursor{Offset: 100, Size: 100}, Entries: make([]models.HistoryEntry, 37)})

	lines := decodeLines(t, &buf)
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d", len(lines))
	}
	if lines[1]["page"] != float64(2) || lines[1]["offset"] != float64(100) || lines[1]["entries"] != float64(37) {
		t.Errorf("unexpected second page event: %v", lines[1])
	}
	if lines[0]["totalSize"] != float64(237) {
		t.Errorf("totalSize missing from first page event: %v", lines[0])
	}
	if _, ok := lines[1]["totalSize"]; ok {
		t.Errorf("totalSize should be omitted when unknown: %v", lines[1])
	}
}

func TestLogReporter_ItemSkippedLevels(t *testing.T) {
	tests := []struct {
		name    string
		outcome models.Outcome
		err     error
		level   string
	}{
		{"no imdb id", models.OutcomeSkippedNoIMDbID, apperrors.NewUnresolvedIdentifier("1", []string{"tmdb://1"}), "debug"},
		{"no metadata", models.OutcomeSkippedNoMetadata, apperrors.NewMetadataNotFound("2"), "warn"},
		{"transport", models.OutcomeSkippedTransportFailure, apperrors.NewTransportError("fetch metadata", "u", 500, nil), "warn"},
		{"duplicate", models.OutcomeDuplicate, nil, "debug"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			r := NewLogReporter(zerolog.New(&buf))
			r.ItemSkipped(models.HistoryEntry{Title: "Film", RatingKey: "1"}, tt.outcome, tt.err)

			lines := decodeLines(t, &buf)
			if len(lines) != 1 {
				t.Fatalf("expected 1 log line, got %d", len(lines))
			}
			if lines[0]["level"] != tt.level {
				t.Errorf("level = %v, want %s", lines[0]["level"], tt.level)
			}
			if lines[0]["outcome"] != tt.outcome.String() {
				t.Errorf("outcome = %v, want %s", lines[0]["outcome"], tt.outcome)
			}
		})
	}
}

func TestLogReporter_Finished(t *testing.T) {
	var buf bytes.Buffer
	r := NewLogReporter(zerolog.New(&buf))
	r.Finished(models.Summary{Exported: 3, SkippedNoIMDbID: 1, PagesFetched: 1})

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("expected 1 log line, got %d", len(lines))
	}
	if lines[0]["status"] != "exported with 1 skipped items" {
		t.Errorf("status = %v", lines[0]["status"])
	}
	if lines[0]["exported"] != float64(3) {
		t.Errorf("exported = %v", lines[0]["exported"])
	}
}

func TestLogReporter_StartedTagsRunID(t *testing.T) {
	var buf bytes.Buffer
	r := NewLogReporter(zerolog.New(&buf))

	r.Started("run-1")
	r.PageFetched(models.HistoryPage{Entries: make([]models.HistoryEntry, 3)})
	r.ItemSkipped(models.HistoryEntry{RatingKey: "r1"}, models.OutcomeSkippedNoMetadata, apperrors.NewMetadataNotFound("r1"))
	r.Finished(models.Summary{PagesFetched: 1})

	lines := decodeLines(t, &buf)
	if len(lines) != 3 {
		t.Fatalf("expected 3 log lines, got %d", len(lines))
	}
	for i, line := range lines {
		if line["run_id"] != "run-1" {
			t.Errorf("line %d run_id = %v, want run-1", i, line["run_id"])
		}
	}
	if lines[0]["page"] != float64(1) {
		t.Errorf("page counter must start at 1, got %v", lines[0]["page"])
	}
}

func TestHistoryExporter_ReporterEventsCarryRunID(t *testing.T) {
	var buf bytes.Buffer
	src := &fakeSource{
		pages:    [][]models.HistoryEntry{{entry(1), entry(1), entry(2)}},
		metaErrs: map[string]error{"r2": apperrors.NewMetadataNotFound("r2")},
	}

	result, err := NewHistoryExporter(src, ExporterOptions{Reporter: NewLogReporter(zerolog.New(&buf))}).Export(context.Background())
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	lines := decodeLines(t, &buf)
	// page, duplicate, skip, finished
	if len(lines) != 4 {
		t.Fatalf("expected 4 log lines, got %d: %v", len(lines), lines)
	}
	for i, line := range lines {
		if line["run_id"] != result.RunID {
			t.Errorf("line %d run_id = %v, want %s", i, line["run_id"], result.RunID)
		}
	}
	if lines[1]["message"] != "Dropping duplicate history entry" {
		t.Errorf("second event = %v", lines[1])
	}
}
