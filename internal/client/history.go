package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/harrietfigueroa/plex-to-letterboxd/internal/config"
	"github.com/harrietfigueroa/plex-to-letterboxd/internal/metrics"
	"github.com/harrietfigueroa/plex-to-letterboxd/internal/models"
)

const historyPath = "/status/sessions/history/all"

// FetchHistoryPage fetches one page of the watch history, retrying transport failures.
// The returned page carries the cursor for the next request and whether it is the last page.
func (c *client) FetchHistoryPage(ctx context.Context, cursor models.PageCursor) (models.HistoryPage, error) {
	logger := config.GetLogger()
	if cursor.Size <= 0 {
		cursor.Size = models.HistoryPageSize
	}

	query := url.Values{}
	query.Set("sort", "viewedAt:desc")
	if c.accountID > 0 {
		query.Set("accountID", strconv.Itoa(c.accountID))
	}
	if c.librarySectionID != "" {
		query.Set("librarySectionID", c.librarySectionID)
	}

	header := http.Header{}
	header.Set("X-Plex-Container-Start", strconv.Itoa(cursor.Offset))
	header.Set("X-Plex-Container-Size", strconv.Itoa(cursor.Size))

	logger.Debug().Int("offset", cursor.Offset).Int("size", cursor.Size).Msg("Fetching history page")

	container, err := withRetry(ctx, c.retry, "history", func() (models.PlexHistoryContainer, error) {
		var resp models.MediaContainer[models.PlexHistoryContainer]
		err := c.getJSON(ctx, request{
			endpoint: "history",
			op:       "fetch history page",
			path:     historyPath,
			query:    query,
			header:   header,
		}, &resp)
		return resp.MediaContainer, err
	})
	if err != nil {
		return models.HistoryPage{Cursor: cursor}, err
	}
	metrics.HistoryPagesTotal.Inc()

	entries := make([]models.HistoryEntry, 0, len(container.Metadata))
	for _, item := range container.Metadata {
		entries = append(entries, item.ToEntry())
	}

	next, isLast := cursor.Advance(len(entries), container.TotalSize)
	if len(entries) > cursor.Size {
		logger.Warn().Int("requested", cursor.Size).Int("received", len(entries)).Msg("Server returned more history entries than requested")
	}

	logger.Debug().
		Int("offset", cursor.Offset).
		Int("received", len(entries)).
		Int("totalSize", container.TotalSize).
		Bool("isLast", isLast).
		Msg("Fetched history page")

	return models.HistoryPage{
		Entries:   entries,
		Cursor:    cursor,
		Next:      next,
		IsLast:    isLast,
		TotalSize: container.TotalSize,
	}, nil
}
