package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/harrietfigueroa/plex-to-letterboxd/internal/apperrors"
	"github.com/harrietfigueroa/plex-to-letterboxd/internal/models"
)

// FetchMetadata fetches the GUIDs for one item. A 404 or an empty container
// yields MetadataNotFound and is not retried.
func (c *client) FetchMetadata(ctx context.Context, ratingKey string) (models.RawIdentifierSet, error) {
	if ratingKey == "" {
		return nil, apperrors.NewMetadataNotFound("")
	}

	return withRetry(ctx, c.retry, "metadata", func() (models.RawIdentifierSet, error) {
		var resp models.MediaContainer[models.PlexMetadataContainer]
		err := c.getJSON(ctx, request{
			endpoint: "metadata",
			op:       "fetch metadata",
			path:     "/library/metadata/" + url.PathEscape(ratingKey),
		}, &resp)
		if statusCode(err) == http.StatusNotFound {
			return nil, apperrors.NewMetadataNotFound(ratingKey)
		}
		if err != nil {
			return nil, err
		}
		if len(resp.MediaContainer.Metadata) == 0 {
			return nil, apperrors.NewMetadataNotFound(ratingKey)
		}
		return resp.MediaContainer.Metadata[0].Identifiers(), nil
	})
}
