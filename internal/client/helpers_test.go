package client

import (
	"github.com/harrietfigueroa/plex-to-letterboxd/internal/config"
)

const testToken = "test-token"

// newTestConfig returns a config pointed at a fake server with fast retries.
func newTestConfig(serverURL string) *config.Config {
	cfg := &config.Config{}
	cfg.Plex.URL = serverURL
	cfg.Plex.Token = testToken
	cfg.Plex.ClientTimeout = "5s"
	cfg.Plex.AccountID = 1
	cfg.Pipeline.MaxAttempts = 3
	cfg.Pipeline.RetryBackoff = "1ms"
	cfg.Pipeline.RetryMaxBackoff = "5ms"
	return cfg
}
