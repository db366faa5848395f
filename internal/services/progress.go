package services

import (
	"errors"

	"github.com/harrietfigueroa/plex-to-letterboxd/internal/apperrors"
	"github.com/harrietfigueroa/plex-to-letterboxd/internal/models"
	"github.com/rs/zerolog"
)

// LogReporter writes progress to a zerolog logger
type LogReporter struct {
	logger zerolog.Logger
	pages  int
}

// NewLogReporter creates a reporter that logs through logger
func NewLogReporter(logger zerolog.Logger) *LogReporter {
	return &LogReporter{logger: logger}
}

// Started tags every later event with the run id.
func (r *LogReporter) Started(runID string) {
	r.logger = r.logger.With().Str("run_id", runID).Logger()
	r.pages = 0
}

func (r *LogReporter) PageFetched(page models.HistoryPage) {
	r.pages++
	evt := r.logger.Info().
		Int("page", r.pages).
		Int("offset", page.Cursor.Offset).
		Int("entries", len(page.Entries))
	if page.TotalSize > 0 {
		evt = evt.Int("totalSize", page.TotalSize)
	}
	evt.Msg("Fetched history page")
}

// ItemSkipped logs a skipped entry. Duplicates and items without an IMDb id
// are routine and logged at debug; other skips are warnings.
func (r *LogReporter) ItemSkipped(entry models.HistoryEntry, outcome models.Outcome, err error) {
	msg := "Skipping history entry"
	evt := r.logger.Warn()
	switch {
	case outcome == models.OutcomeDuplicate:
		msg = "Dropping duplicate history entry"
		evt = r.logger.Debug()
	case outcome == models.OutcomeSkippedNoIMDbID, errors.Is(err, &apperrors.UnresolvedIdentifier{}):
		evt = r.logger.Debug()
	}
	evt.
		Str("title", entry.Title).
		Str("ratingKey", entry.RatingKey).
		Time("watchedAt", entry.WatchedAt).
		Str("outcome", outcome.String()).
		Err(err).
		Msg(msg)
}

func (r *LogReporter) Finished(summary models.Summary) {
	r.logger.Info().
		Str("status", summary.Status()).
		Int("exported", summary.Exported).
		Int("skippedNoMetadata", summary.SkippedNoMetadata).
		Int("skippedNoImdbId", summary.SkippedNoIMDbID).
		Int("skippedTransportFailure", summary.SkippedTransportFailure).
		Int("duplicates", summary.Duplicates).
		Int("pages", summary.PagesFetched).
		Msg("Export finished")
}
