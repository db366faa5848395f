package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/harrietfigueroa/plex-to-letterboxd/internal/apperrors"
	"github.com/harrietfigueroa/plex-to-letterboxd/internal/models"
	"github.com/harrietfigueroa/plex-to-letterboxd/internal/testutil"
)

func TestClient_FetchHistoryPage_RequestShape(t *testing.T) {
	requests := make(chan *http.Request, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests <- r.Clone(context.Background())
		_, _ = w.Write([]byte(testutil.GenerateHistoryJSON(testutil.MakeHistoryItems(0, 100), 200, 0)))
	}))
	defer server.Close()

	cfg := newTestConfig(server.URL)
	cfg.Plex.LibrarySectionID = "2"
	c := NewClient(cfg)
	defer c.Close()

	page, err := c.FetchHistoryPage(context.Background(), models.PageCursor{Offset: 200, Size: 100})
	if err != nil {
		t.Fatalf("FetchHistoryPage failed: %v", err)
	}

	got := <-requests
	if got.URL.Path != "/status/sessions/history/all" {
		t.Errorf("path = %q", got.URL.Path)
	}
	q := got.URL.Query()
	if q.Get("sort") != "viewedAt:desc" || q.Get("accountID") != "1" || q.Get("librarySectionID") != "2" {
		t.Errorf("unexpected query %q", got.URL.RawQuery)
	}
	if got.Header.Get("X-Plex-Container-Start") != "200" || got.Header.Get("X-Plex-Container-Size") != "100" {
		t.Errorf("container headers = %q/%q", got.Header.Get("X-Plex-Container-Start"), got.Header.Get("X-Plex-Container-Size"))
	}
	if got.Header.Get("X-Plex-Token") != testToken {
		t.Errorf("X-Plex-Token = %q", got.Header.Get("X-Plex-Token"))
	}
	if got.Header.Get("Accept") != "application/json" {
		t.Errorf("Accept = %q", got.Header.Get("Accept"))
	}

	if len(page.Entries) != 100 {
		t.Fatalf("expected 100 entries, got %d", len(page.Entries))
	}
	if page.IsLast {
		t.Error("full page without totalSize must not be last")
	}
	if page.Next.Offset != 300 {
		t.Errorf("Next.Offset = %d, want 300", page.Next.Offset)
	}
	if page.Entries[0].WatchedAt.Location() != time.UTC {
		t.Error("WatchedAt must be UTC")
	}
}

func TestClient_FetchHistoryPage_AllAccounts(t *testing.T) {
	queries := make(chan string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		queries <- r.URL.RawQuery
		_, _ = w.Write([]byte(testutil.GenerateHistoryJSON(nil, 0, 0)))
	}))
	defer server.Close()

	cfg := newTestConfig(server.URL)
	cfg.Plex.AccountID = 0
	c := NewClient(cfg)

	page, err := c.FetchHistoryPage(context.Background(), models.FirstPage())
	if err != nil {
		t.Fatalf("FetchHistoryPage failed: %v", err)
	}
	if rawQuery := <-queries; rawQuery != "sort=viewedAt%3Adesc" {
		t.Errorf("query = %q, want only sort", rawQuery)
	}
	if !page.IsLast || len(page.Entries) != 0 {
		t.Errorf("empty page: IsLast=%v entries=%d", page.IsLast, len(page.Entries))
	}
}

func TestClient_FetchHistoryPage_AuthErrorNotRetried(t *testing.T) {
	fake := testutil.NewFakePlexServer("right-token", testutil.MakeHistoryItems(0, 5), nil)
	defer fake.Close()

	c := NewClient(newTestConfig(fake.URL)) // sends testToken

	_, err := c.FetchHistoryPage(context.Background(), models.FirstPage())
	if !errors.Is(err, &apperrors.AuthError{}) {
		t.Fatalf("expected AuthError, got %v", err)
	}
	if fake.HistoryRequests() != 1 {
		t.Errorf("auth failure must not be retried, got %d requests", fake.HistoryRequests())
	}
}

func TestClient_FetchHistoryPage_RetriesTransientFailure(t *testing.T) {
	fake := testutil.NewFakePlexServer(testToken, testutil.MakeHistoryItems(0, 10), nil)
	defer fake.Close()
	var calls atomic.Int32
	fake.HistoryStatus = func(int) int {
		if calls.Add(1) <= 2 {
			return http.StatusServiceUnavailable
		}
		return http.StatusOK
	}

	c := NewClient(newTestConfig(fake.URL))
	page, err := c.FetchHistoryPage(context.Background(), models.FirstPage())
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if len(page.Entries) != 10 || !page.IsLast {
		t.Errorf("entries=%d isLast=%v", len(page.Entries), page.IsLast)
	}
	if fake.HistoryRequests() != 3 {
		t.Errorf("expected 3 requests, got %d", fake.HistoryRequests())
	}
}

func TestClient_FetchHistoryPage_RetriesExhausted(t *testing.T) {
	fake := testutil.NewFakePlexServer(testToken, testutil.MakeHistoryItems(0, 10), nil)
	defer fake.Close()
	fake.HistoryStatus = func(int) int { return http.StatusBadGateway }

	c := NewClient(newTestConfig(fake.URL))
	_, err := c.FetchHistoryPage(context.Background(), models.FirstPage())

	var te *apperrors.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if te.StatusCode != http.StatusBadGateway {
		t.Errorf("StatusCode = %d, want 502", te.StatusCode)
	}
	if fake.HistoryRequests() != 3 {
		t.Errorf("expected max attempts (3) requests, got %d", fake.HistoryRequests())
	}
}

func TestClient_FetchHistoryPage_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"MediaContainer":`))
	}))
	defer server.Close()

	cfg := newTestConfig(server.URL)
	cfg.Pipeline.MaxAttempts = 1
	c := NewClient(cfg)

	_, err := c.FetchHistoryPage(context.Background(), models.FirstPage())
	if !errors.Is(err, &apperrors.TransportError{}) {
		t.Fatalf("expected TransportError for undecodable body, got %v", err)
	}
}

func TestClient_FetchHistoryPage_ContextCanceled(t *testing.T) {
	fake := testutil.NewFakePlexServer(testToken, testutil.MakeHistoryItems(0, 10), nil)
	defer fake.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient(newTestConfig(fake.URL))
	_, err := c.FetchHistoryPage(ctx, models.FirstPage())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if errors.Is(err, &apperrors.TransportError{}) {
		t.Error("cancellation must not be reported as a transport failure")
	}
}
