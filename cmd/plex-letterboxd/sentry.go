package main

import (
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/harrietfigueroa/plex-to-letterboxd/internal/config"
)

var sentryEnabled bool

// initSentry enables error reporting when a DSN is configured. The returned
// func flushes buffered events and is safe to call when Sentry is off.
func initSentry(cfg *config.Config) (func(), error) {
	if cfg.Sentry.DSN == "" {
		return func() {}, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.Sentry.DSN,
		Environment: cfg.Sentry.Environment,
		Release:     "plex-letterboxd@" + Version,
	})
	if err != nil {
		return func() {}, err
	}
	sentryEnabled = true
	return func() {
		sentry.Flush(2 * time.Second)
		sentryEnabled = false
	}, nil
}

func reportError(err error) {
	if !sentryEnabled {
		return
	}
	sentry.CaptureException(err)
}
