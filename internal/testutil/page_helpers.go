package testutil

import (
	"iter"

	"github.com/harrietfigueroa/plex-to-letterboxd/internal/models"
)

// CollectPages drains a page sequence, returning the pages received before the
// first error and that error.
// This is a test helper and should not be used in production code.
func CollectPages(seq iter.Seq2[models.HistoryPage, error]) ([]models.HistoryPage, error) {
	var pages []models.HistoryPage
	for page, err := range seq {
		if err != nil {
			return pages, err
		}
		pages = append(pages, page)
	}
	return pages, nil
}

// CountEntries returns the total number of entries across pages
func CountEntries(pages []models.HistoryPage) int {
	n := 0
	for _, p := range pages {
		n += len(p.Entries)
	}
	return n
}
