package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/harrietfigueroa/plex-to-letterboxd/internal/apperrors"
	"github.com/harrietfigueroa/plex-to-letterboxd/internal/config"
	"github.com/harrietfigueroa/plex-to-letterboxd/internal/metrics"
	"github.com/harrietfigueroa/plex-to-letterboxd/internal/models"
	"golang.org/x/time/rate"
)

// Client defines the interface for querying a Plex Media Server
type Client interface {
	// FetchHistoryPage fetches one page of watch history at cursor, newest first.
	FetchHistoryPage(ctx context.Context, cursor models.PageCursor) (models.HistoryPage, error)
	// FetchMetadata returns the GUID strings attached to an item.
	FetchMetadata(ctx context.Context, ratingKey string) (models.RawIdentifierSet, error)
	// ListLibrarySections lists the library sections history can be filtered by.
	ListLibrarySections(ctx context.Context) ([]models.LibrarySection, error)

	Close() error
}

// client implements the Client interface
type client struct {
	httpClient       *http.Client
	baseURL          string
	accountID        int
	librarySectionID string
	limiter          *rate.Limiter // nil when unlimited
	retry            retrySettings
}

// NewClient creates a new Plex client with proxy, pacing and retry settings from cfg
func NewClient(cfg *config.Config) Client {
	logger := config.GetLogger()

	timeout := config.ParseDuration(cfg.Plex.ClientTimeout, 30*time.Second)

	// Clone DefaultTransport to preserve all its settings (timeouts, connection pooling, HTTP/2, etc.)
	baseTransport := http.DefaultTransport.(*http.Transport).Clone()

	if cfg.ProxyConnectionString != "" {
		proxyURL, err := url.Parse(cfg.ProxyConnectionString)
		if err != nil {
			logger.Warn().Err(err).Str("proxy", cfg.ProxyConnectionString).Msg("Invalid proxy URL, continuing without proxy")
		} else {
			baseTransport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = config.DefaultUserAgent
	}
	clientIdentifier := cfg.Plex.ClientIdentifier
	if clientIdentifier == "" {
		clientIdentifier = config.DefaultClientIdentifier
	}

	httpClient := &http.Client{
		Timeout:   timeout,
		Transport: newPlexTransport(baseTransport, cfg.Plex.Token, clientIdentifier, userAgent),
	}

	var limiter *rate.Limiter
	if cfg.Plex.RequestsPerSecond > 0 {
		burst := int(cfg.Plex.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.Plex.RequestsPerSecond), burst)
	}

	return &client{
		httpClient:       httpClient,
		baseURL:          strings.TrimRight(cfg.Plex.URL, "/"),
		accountID:        cfg.Plex.AccountID,
		librarySectionID: cfg.Plex.LibrarySectionID,
		limiter:          limiter,
		retry:            newRetrySettings(cfg),
	}
}

// Close releases idle connections held by the client.
func (c *client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// request describes one GET against the Plex API
type request struct {
	endpoint string // metrics label
	op       string // error context
	path     string
	query    url.Values
	header   http.Header
}

// getJSON performs one GET and decodes the JSON body into out.
// Auth rejections become AuthError; any other failure becomes TransportError.
// Caller context cancellation is returned as-is.
func (c *client) getJSON(ctx context.Context, r request, out any) error {
	endpoint := c.baseURL + r.path
	if len(r.query) > 0 {
		endpoint += "?" + r.query.Encode()
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return apperrors.NewTransportError(r.op, redact(endpoint), 0, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range r.header {
		req.Header[k] = v
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.PlexRequestDuration.WithLabelValues(r.endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.PlexRequestsTotal.WithLabelValues(r.endpoint, metrics.StatusLabel(0)).Inc()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return apperrors.NewTransportError(r.op, redact(endpoint), 0, err)
	}
	defer resp.Body.Close()
	metrics.PlexRequestsTotal.WithLabelValues(r.endpoint, metrics.StatusLabel(resp.StatusCode)).Inc()

	if apperrors.IsAuthStatus(resp.StatusCode) {
		return apperrors.NewAuthError(redact(endpoint), resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apperrors.NewTransportError(r.op, redact(endpoint), resp.StatusCode, nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return apperrors.NewTransportError(r.op, redact(endpoint), resp.StatusCode, fmt.Errorf("failed to decode JSON response: %w", err))
	}
	return nil
}

// statusCode extracts the HTTP status of a TransportError, or 0.
func statusCode(err error) int {
	var te *apperrors.TransportError
	if errors.As(err, &te) {
		return te.StatusCode
	}
	return 0
}

// redact strips a token passed in the query string before a URL lands in an error or log line.
func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	if q.Has("X-Plex-Token") {
		q.Set("X-Plex-Token", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}
