package client

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
)

// plexTransport adds the headers every Plex API call needs and decodes
// gzip, brotli and zstd response bodies.
type plexTransport struct {
	base             http.RoundTripper
	token            string
	clientIdentifier string
	userAgent        string
}

func newPlexTransport(base http.RoundTripper, token, clientIdentifier, userAgent string) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &plexTransport{
		base:             base,
		token:            token,
		clientIdentifier: clientIdentifier,
		userAgent:        userAgent,
	}
}

// RoundTrip sets the Plex headers on a copy of req and unwraps the response body encoding.
func (t *plexTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())

	setDefault(req.Header, "Accept", "application/json")
	setDefault(req.Header, "Accept-Encoding", "gzip, br, zstd")
	setDefault(req.Header, "User-Agent", t.userAgent)
	setDefault(req.Header, "X-Plex-Product", "plex-letterboxd")
	setDefault(req.Header, "X-Plex-Client-Identifier", t.clientIdentifier)
	if t.token != "" {
		req.Header.Set("X-Plex-Token", t.token)
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.Body == nil || resp.Body == http.NoBody {
		return resp, nil
	}

	decoded, err := decodeBody(outermostEncoding(resp.Header.Get("Content-Encoding")), resp.Body)
	if err != nil {
		resp.Body.Close()
		return nil, err
	}
	if decoded == nil {
		return resp, nil
	}

	resp.Body = decoded
	resp.Header.Del("Content-Encoding")
	resp.Header.Del("Content-Length")
	resp.ContentLength = -1
	resp.Uncompressed = true
	return resp, nil
}

func setDefault(h http.Header, key, value string) {
	if value != "" && h.Get(key) == "" {
		h.Set(key, value)
	}
}

// decodeBody returns a reader over the decoded body, or nil when the encoding
// is empty or unknown and the body should be passed through.
func decodeBody(encoding string, body io.ReadCloser) (io.ReadCloser, error) {
	var reader io.ReadCloser
	switch encoding {
	case "gzip":
		gz, err := gzip.NewReader(body)
		if err != nil {
			return nil, err
		}
		reader = gz
	case "br":
		reader = io.NopCloser(brotli.NewReader(body))
	case "zstd":
		zr, err := zstd.NewReader(body)
		if err != nil {
			return nil, err
		}
		reader = zr.IOReadCloser()
	default:
		return nil, nil
	}
	return &decodedBody{ReadCloser: reader, raw: body}, nil
}

// decodedBody closes both the decoder and the raw body.
type decodedBody struct {
	io.ReadCloser
	raw io.ReadCloser
}

func (d *decodedBody) Close() error {
	decErr := d.ReadCloser.Close()
	rawErr := d.raw.Close()
	if decErr != nil {
		return decErr
	}
	return rawErr
}

// outermostEncoding returns the last coding listed in a Content-Encoding header,
// which is the one applied last and removed first.
func outermostEncoding(header string) string {
	parts := strings.Split(header, ",")
	return strings.ToLower(strings.TrimSpace(parts[len(parts)-1]))
}
