package models

// Provider is the external database an identifier belongs to
type Provider string

const (
	ProviderIMDb    Provider = "imdb"
	ProviderTMDb    Provider = "tmdb"
	ProviderTVDb    Provider = "tvdb"
	ProviderUnknown Provider = "unknown"
)

// ExternalID is a provider-tagged identifier, e.g. {imdb, tt0111161}
type ExternalID struct {
	Provider Provider `json:"provider"`
	Value    string   `json:"value"`
}

// IsIMDb reports whether the identifier can be used in an export record
func (id ExternalID) IsIMDb() bool {
	return id.Provider == ProviderIMDb && id.Value != ""
}

// RawIdentifierSet holds the GUID strings attached to one item's metadata,
// in whatever encoding the server or agent produced them.
type RawIdentifierSet []string
