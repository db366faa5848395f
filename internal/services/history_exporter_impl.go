package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harrietfigueroa/plex-to-letterboxd/internal/apperrors"
	"github.com/harrietfigueroa/plex-to-letterboxd/internal/client"
	"github.com/harrietfigueroa/plex-to-letterboxd/internal/config"
	"github.com/harrietfigueroa/plex-to-letterboxd/internal/metrics"
	"github.com/harrietfigueroa/plex-to-letterboxd/internal/models"
	"github.com/harrietfigueroa/plex-to-letterboxd/internal/parser"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"
)

// DefaultConcurrency is the number of metadata lookups in flight per page
const DefaultConcurrency = 8

// ExporterOptions configures a DefaultHistoryExporter. Zero values fall back to defaults.
type ExporterOptions struct {
	Concurrency int
	Tags        string
	Resolver    parser.Resolver
	Reporter    ProgressReporter
}

// DefaultHistoryExporter implements HistoryExporter.
// Pages are processed one at a time; within a page, metadata lookups run on a
// bounded pool and results are merged back in history order.
type DefaultHistoryExporter struct {
	source      HistorySource
	concurrency int
	tags        string
	resolver    parser.Resolver
	reporter    ProgressReporter
}

// NewHistoryExporter creates a new exporter over source
func NewHistoryExporter(source HistorySource, opts ExporterOptions) HistoryExporter {
	e := &DefaultHistoryExporter{
		source:      source,
		concurrency: opts.Concurrency,
		tags:        opts.Tags,
		resolver:    opts.Resolver,
		reporter:    opts.Reporter,
	}
	if e.concurrency <= 0 {
		e.concurrency = DefaultConcurrency
	}
	if e.tags == "" {
		e.tags = models.DefaultTags
	}
	if e.resolver == nil {
		e.resolver = parser.NewGUIDResolver()
	}
	if e.reporter == nil {
		e.reporter = NewLogReporter(config.GetLogger())
	}
	return e
}

// itemResult is the outcome of one history entry. pending marks entries that
// still need a metadata lookup.
type itemResult struct {
	entry   models.HistoryEntry
	pending bool
	outcome models.Outcome
	record  models.ExportRecord
	err     error // cause of a skip
}

// recordKey identifies an exported watch for the second dedup pass
type recordKey struct {
	imdbID    string
	watchedAt int64
}

// Export walks the history and resolves every entry to an export record
func (e *DefaultHistoryExporter) Export(ctx context.Context) (*models.ExportResult, error) {
	runID := uuid.NewString()
	logger := config.GetLogger().With().Str("run_id", runID).Logger()
	logger.Info().Int("concurrency", e.concurrency).Msg("Starting watch history export")
	e.reporter.Started(runID)

	result := &models.ExportResult{RunID: runID, Records: []models.ExportRecord{}}
	seenItems := make(map[string]struct{})
	seenRecords := make(map[recordKey]struct{})
	start := time.Now()

	for page, err := range client.Paginate(ctx, e.source) {
		if err != nil {
			return e.abort(logger, result, fmt.Errorf("fetch history page at offset %d: %w", page.Cursor.Offset, err))
		}
		e.reporter.PageFetched(page)

		// An item already seen, on this page or an earlier one, is dropped before any lookup.
		results := make([]itemResult, len(page.Entries))
		pageSeen := make(map[string]struct{}, len(page.Entries))
		for i, entry := range page.Entries {
			results[i].entry = entry
			key := entry.Key()
			_, earlier := seenItems[key]
			_, here := pageSeen[key]
			if earlier || here {
				results[i].outcome = models.OutcomeDuplicate
				continue
			}
			pageSeen[key] = struct{}{}
			results[i].pending = true
		}

		if err := e.processPage(ctx, logger, results); err != nil {
			return e.abort(logger, result, fmt.Errorf("process history page at offset %d: %w", page.Cursor.Offset, err))
		}

		// The page is committed only once every entry on it has an outcome.
		for key := range pageSeen {
			seenItems[key] = struct{}{}
		}
		result.Summary.PagesFetched++
		if page.TotalSize > 0 {
			result.Summary.TotalSize = page.TotalSize
		}

		for _, res := range results {
			if res.outcome == models.OutcomeExported {
				key := recordKey{imdbID: res.record.IMDbID, watchedAt: res.record.WatchedAt.Unix()}
				if _, dup := seenRecords[key]; !dup {
					seenRecords[key] = struct{}{}
					result.Records = append(result.Records, res.record)
					e.recordOutcome(&result.Summary, models.OutcomeExported)
					continue
				}
				res.outcome = models.OutcomeDuplicate
			}
			e.recordOutcome(&result.Summary, res.outcome)
			e.reporter.ItemSkipped(res.entry, res.outcome, res.err)
		}
	}

	e.finish(result.Summary)
	logger.Info().
		Int("exported", result.Summary.Exported).
		Int("skipped", result.Summary.Skipped()).
		Int("duplicates", result.Summary.Duplicates).
		Int("pages", result.Summary.PagesFetched).
		Dur("elapsed", time.Since(start)).
		Msg("Watch history export complete")
	return result, nil
}

// processPage resolves the pending entries concurrently. Each lookup writes
// only its own slot, so results stay in history order. Only run-fatal errors
// are returned.
func (e *DefaultHistoryExporter) processPage(ctx context.Context, logger zerolog.Logger, results []itemResult) error {
	p := pool.New().
		WithContext(ctx).
		WithMaxGoroutines(e.concurrency).
		WithCancelOnError().
		WithFirstError()

	for i := range results {
		if !results[i].pending {
			continue
		}
		entry := results[i].entry
		p.Go(func(ctx context.Context) error {
			res, err := e.resolveEntry(ctx, logger, entry)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	return p.Wait()
}

// resolveEntry looks up one entry's metadata and picks its IMDb id.
// Per-item failures become skip outcomes; auth and cancellation are returned as errors.
func (e *DefaultHistoryExporter) resolveEntry(ctx context.Context, logger zerolog.Logger, entry models.HistoryEntry) (itemResult, error) {
	res := itemResult{entry: entry}

	if entry.RatingKey == "" {
		res.outcome = models.OutcomeSkippedNoMetadata
		res.err = apperrors.NewMetadataNotFound("")
		return res, nil
	}

	ids, err := e.source.FetchMetadata(ctx, entry.RatingKey)
	if err != nil {
		if isFatal(ctx, err) {
			return res, err
		}
		res.err = err
		if errors.Is(err, &apperrors.MetadataNotFound{}) {
			res.outcome = models.OutcomeSkippedNoMetadata
		} else {
			res.outcome = models.OutcomeSkippedTransportFailure
		}
		return res, nil
	}

	id, ok := e.resolver.Resolve(ids)
	if !ok {
		res.outcome = models.OutcomeSkippedNoIMDbID
		res.err = apperrors.NewUnresolvedIdentifier(entry.RatingKey, ids)
		return res, nil
	}

	logger.Debug().Str("ratingKey", entry.RatingKey).Str("imdbID", id.Value).Msg("Resolved IMDb id")
	res.outcome = models.OutcomeExported
	res.record = models.ExportRecord{
		Title:     entry.Title,
		IMDbID:    id.Value,
		WatchedAt: entry.WatchedAt,
		Tags:      e.tags,
	}
	return res, nil
}

// isFatal reports whether err ends the run rather than skipping one item
func isFatal(ctx context.Context, err error) bool {
	if errors.Is(err, &apperrors.AuthError{}) {
		return true
	}
	return ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded))
}

func (e *DefaultHistoryExporter) recordOutcome(summary *models.Summary, outcome models.Outcome) {
	summary.Record(outcome)
	metrics.ItemsProcessedTotal.WithLabelValues(outcome.String()).Inc()
}

// abort marks the run as aborted and hands back what was gathered so far
func (e *DefaultHistoryExporter) abort(logger zerolog.Logger, result *models.ExportResult, err error) (*models.ExportResult, error) {
	result.Summary.Aborted = true
	e.finish(result.Summary)
	logger.Error().
		Err(err).
		Int("exported", result.Summary.Exported).
		Int("pages", result.Summary.PagesFetched).
		Msg("Watch history export aborted")
	return result, err
}

func (e *DefaultHistoryExporter) finish(summary models.Summary) {
	metrics.LastRunTimestamp.SetToCurrentTime()
	if summary.Aborted {
		metrics.LastRunAborted.Set(1)
	} else {
		metrics.LastRunAborted.Set(0)
	}
	e.reporter.Finished(summary)
}
