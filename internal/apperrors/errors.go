package apperrors

import (
	"fmt"
	"net/http"
)

// TransportError is a network or HTTP-level failure talking to the Plex server.
// Timeouts and non-success statuses other than auth rejections land here. Retryable.
type TransportError struct {
	Op         string // operation, e.g. "fetch history page"
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("%s: %s returned status %d: %v", e.Op, e.URL, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: %s returned status %d", e.Op, e.URL, e.StatusCode)
	default:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.URL, e.Err)
	}
}

// Unwrap returns the underlying cause.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is allows for error checking with errors.Is().
func (e *TransportError) Is(target error) bool {
	_, ok := target.(*TransportError)
	return ok
}

// NewTransportError creates a new TransportError.
func NewTransportError(op, url string, statusCode int, err error) *TransportError {
	return &TransportError{Op: op, URL: url, StatusCode: statusCode, Err: err}
}

// AuthError is returned when the server rejects the token. It invalidates the whole run.
type AuthError struct {
	URL        string
	StatusCode int
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	return fmt.Sprintf("plex rejected the token (status %d %s) at %s", e.StatusCode, http.StatusText(e.StatusCode), e.URL)
}

// Is allows for error checking with errors.Is().
func (e *AuthError) Is(target error) bool {
	_, ok := target.(*AuthError)
	return ok
}

// NewAuthError creates a new AuthError.
func NewAuthError(url string, statusCode int) *AuthError {
	return &AuthError{URL: url, StatusCode: statusCode}
}

// IsAuthStatus reports whether an HTTP status means the credential was rejected.
func IsAuthStatus(statusCode int) bool {
	return statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden
}

// MetadataNotFound is returned when the server has no metadata for an item,
// typically because the media was deleted or never matched.
type MetadataNotFound struct {
	RatingKey string
}

// Error implements the error interface.
func (e *MetadataNotFound) Error() string {
	if e.RatingKey == "" {
		return "metadata not found"
	}
	return fmt.Sprintf("metadata for item %s not found", e.RatingKey)
}

// Is allows for error checking with errors.Is().
func (e *MetadataNotFound) Is(target error) bool {
	_, ok := target.(*MetadataNotFound)
	return ok
}

// NewMetadataNotFound creates a new MetadataNotFound.
func NewMetadataNotFound(ratingKey string) *MetadataNotFound {
	return &MetadataNotFound{RatingKey: ratingKey}
}

// UnresolvedIdentifier is returned when an item has metadata but none of its
// identifiers is a valid IMDb id.
type UnresolvedIdentifier struct {
	RatingKey  string
	Candidates []string
}

// Error implements the error interface.
func (e *UnresolvedIdentifier) Error() string {
	return fmt.Sprintf("no imdb id for item %s among %d identifiers", e.RatingKey, len(e.Candidates))
}

// Is allows for error checking with errors.Is().
func (e *UnresolvedIdentifier) Is(target error) bool {
	_, ok := target.(*UnresolvedIdentifier)
	return ok
}

// NewUnresolvedIdentifier creates a new UnresolvedIdentifier.
func NewUnresolvedIdentifier(ratingKey string, candidates []string) *UnresolvedIdentifier {
	return &UnresolvedIdentifier{RatingKey: ratingKey, Candidates: candidates}
}
