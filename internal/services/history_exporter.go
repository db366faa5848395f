package services

import (
	"context"

	"github.com/harrietfigueroa/plex-to-letterboxd/internal/models"
)

// HistorySource is the part of the Plex client the exporter needs
type HistorySource interface {
	FetchHistoryPage(ctx context.Context, cursor models.PageCursor) (models.HistoryPage, error)
	FetchMetadata(ctx context.Context, ratingKey string) (models.RawIdentifierSet, error)
}

// HistoryExporter turns the watch history into Letterboxd export records
type HistoryExporter interface {
	// Export walks the whole history once. On a fatal error it returns the
	// records gathered from fully processed pages together with the error.
	Export(ctx context.Context) (*models.ExportResult, error)
}

// ProgressReporter receives run progress. Calls are made from a single goroutine.
type ProgressReporter interface {
	// Started is called once per run, before the first page is requested.
	Started(runID string)
	PageFetched(page models.HistoryPage)
	// ItemSkipped reports an entry that produced no record, duplicates included.
	ItemSkipped(entry models.HistoryEntry, outcome models.Outcome, err error)
	Finished(summary models.Summary)
}
