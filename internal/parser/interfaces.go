package parser

import "github.com/harrietfigueroa/plex-to-letterboxd/internal/models"

// Resolver picks the IMDb identifier out of the GUID strings attached to an item
type Resolver interface {
	// Resolve returns the IMDb id and true, or false when no valid IMDb id is present.
	Resolve(ids models.RawIdentifierSet) (models.ExternalID, bool)
	// Parse classifies a single GUID string by provider.
	Parse(guid string) models.ExternalID
}
