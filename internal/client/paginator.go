package client

import (
	"context"
	"iter"

	"github.com/harrietfigueroa/plex-to-letterboxd/internal/models"
)

// PageFetcher fetches one page of watch history. Client satisfies it.
type PageFetcher interface {
	FetchHistoryPage(ctx context.Context, cursor models.PageCursor) (models.HistoryPage, error)
}

// Paginate walks the watch history from offset 0, yielding pages in server order.
// Pages are fetched only as the consumer pulls them. Iteration stops after the last
// page, after the first error (yielded once with the partially filled page), or as
// soon as the consumer stops ranging. Each call starts again from the beginning.
func Paginate(ctx context.Context, fetcher PageFetcher) iter.Seq2[models.HistoryPage, error] {
	return func(yield func(models.HistoryPage, error) bool) {
		cursor := models.FirstPage()
		for {
			if err := ctx.Err(); err != nil {
				yield(models.HistoryPage{Cursor: cursor}, err)
				return
			}

			page, err := fetcher.FetchHistoryPage(ctx, cursor)
			if err != nil {
				yield(page, err)
				return
			}
			if !yield(page, nil) || page.IsLast {
				return
			}
			// Guard against a server that reports a full page without advancing.
			if page.Next.Offset <= cursor.Offset {
				return
			}
			cursor = page.Next
		}
	}
}
