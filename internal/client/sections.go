package client

import (
	"context"

	"github.com/harrietfigueroa/plex-to-letterboxd/internal/config"
	"github.com/harrietfigueroa/plex-to-letterboxd/internal/models"
)

// ListLibrarySections lists the server's library sections
func (c *client) ListLibrarySections(ctx context.Context) ([]models.LibrarySection, error) {
	logger := config.GetLogger()

	container, err := withRetry(ctx, c.retry, "sections", func() (models.PlexSectionsContainer, error) {
		var resp models.MediaContainer[models.PlexSectionsContainer]
		err := c.getJSON(ctx, request{
			endpoint: "sections",
			op:       "list library sections",
			path:     "/library/sections",
		}, &resp)
		return resp.MediaContainer, err
	})
	if err != nil {
		return nil, err
	}

	sections := make([]models.LibrarySection, 0, len(container.Directory))
	for _, dir := range container.Directory {
		sections = append(sections, models.LibrarySection{
			ID:    string(dir.Key),
			Title: dir.Title,
			Type:  dir.Type,
		})
	}

	logger.Debug().Int("count", len(sections)).Msg("Listed library sections")
	return sections, nil
}
