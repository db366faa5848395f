package parser

import (
	"regexp"
	"strings"

	"github.com/harrietfigueroa/plex-to-letterboxd/internal/config"
	"github.com/harrietfigueroa/plex-to-letterboxd/internal/models"
)

var (
	imdbIDPattern = regexp.MustCompile(`^tt\d+$`)
	// Provider label followed by the id, e.g. "plex://movie/imdb/tt0111161", "imdb:tt0111161" or "imdb-tt0111161"
	labeledIMDbPattern = regexp.MustCompile(`(?i)(?:^|[/:?&])imdb[-/:=]([^/?&#\s]+)`)
	legacyScheme       = "imdb://"
)

// GUIDResolver implements Resolver over the GUID encodings Plex servers and agents produce.
//
// Legacy agent GUIDs ("com.plexapp.agents.imdb://tt0111161?lang=en", "imdb://tt0111161")
// take priority over labeled native forms, since libraries upgraded from the old agents
// can carry both and the legacy one points at IMDb directly.
type GUIDResolver struct{}

// NewGUIDResolver creates a new GUID resolver instance
func NewGUIDResolver() Resolver {
	return &GUIDResolver{}
}

// Resolve scans the identifiers for a valid IMDb id. Malformed candidates are
// rejected and the scan continues.
func (r *GUIDResolver) Resolve(ids models.RawIdentifierSet) (models.ExternalID, bool) {
	logger := config.GetLogger()

	for _, guid := range ids {
		candidate, ok := legacyCandidate(guid)
		if !ok {
			continue
		}
		if imdbIDPattern.MatchString(candidate) {
			return models.ExternalID{Provider: models.ProviderIMDb, Value: candidate}, true
		}
		logger.Debug().Str("guid", guid).Str("candidate", candidate).Msg("Rejected malformed IMDb id in legacy GUID")
	}

	for _, guid := range ids {
		if strings.Contains(strings.ToLower(guid), legacyScheme) {
			continue
		}
		match := labeledIMDbPattern.FindStringSubmatch(guid)
		if match == nil {
			continue
		}
		if imdbIDPattern.MatchString(match[1]) {
			return models.ExternalID{Provider: models.ProviderIMDb, Value: match[1]}, true
		}
		logger.Debug().Str("guid", guid).Str("candidate", match[1]).Msg("Rejected malformed IMDb id in labeled GUID")
	}

	return models.ExternalID{}, false
}

// Parse classifies a single GUID. The provider comes from the last dotted component
// of the scheme, so "com.plexapp.agents.themoviedb://603" is tmdb.
func (r *GUIDResolver) Parse(guid string) models.ExternalID {
	if candidate, ok := legacyCandidate(guid); ok {
		if imdbIDPattern.MatchString(candidate) {
			return models.ExternalID{Provider: models.ProviderIMDb, Value: candidate}
		}
		return models.ExternalID{Provider: models.ProviderUnknown, Value: guid}
	}
	if match := labeledIMDbPattern.FindStringSubmatch(guid); match != nil && imdbIDPattern.MatchString(match[1]) {
		return models.ExternalID{Provider: models.ProviderIMDb, Value: match[1]}
	}

	scheme, rest, found := strings.Cut(guid, "://")
	if !found {
		return models.ExternalID{Provider: models.ProviderUnknown, Value: guid}
	}
	if i := strings.LastIndex(scheme, "."); i >= 0 {
		scheme = scheme[i+1:]
	}
	value := trimGUIDValue(rest)

	switch strings.ToLower(scheme) {
	case "tmdb", "themoviedb":
		return models.ExternalID{Provider: models.ProviderTMDb, Value: value}
	case "tvdb", "thetvdb":
		return models.ExternalID{Provider: models.ProviderTVDb, Value: value}
	default:
		return models.ExternalID{Provider: models.ProviderUnknown, Value: guid}
	}
}

// legacyCandidate returns the text after an "imdb://" scheme, up to the first
// query, fragment or path separator.
func legacyCandidate(guid string) (string, bool) {
	idx := strings.Index(strings.ToLower(guid), legacyScheme)
	if idx < 0 {
		return "", false
	}
	return trimGUIDValue(guid[idx+len(legacyScheme):]), true
}

func trimGUIDValue(s string) string {
	if i := strings.IndexAny(s, "?#/"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
