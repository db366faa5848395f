package testutil

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

// FakePlexServer serves a fixed watch history and per-item metadata over httptest.
// It honours X-Plex-Container-Start and X-Plex-Container-Size and checks X-Plex-Token.
type FakePlexServer struct {
	*httptest.Server

	Token       string
	History     []HistoryItemOptions
	Metadata    map[string]MetadataOptions // by rating key; missing keys answer 404
	Sections    []SectionOptions
	ReportTotal bool // send totalSize in history responses

	// HistoryStatus, when set, overrides the status for a given page offset.
	HistoryStatus func(offset int) int
	// MetadataStatus, when set, overrides the status for a given rating key.
	MetadataStatus func(ratingKey string) int

	mu              sync.Mutex
	historyOffsets  []int
	metadataCalls   map[string]int
	historyRequests atomic.Int32
}

// NewFakePlexServer starts a server. Callers must Close it.
func NewFakePlexServer(token string, history []HistoryItemOptions, metadata map[string]MetadataOptions) *FakePlexServer {
	f := &FakePlexServer{
		Token:         token,
		History:       history,
		Metadata:      metadata,
		metadataCalls: make(map[string]int),
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.handle))
	return f
}

// HistoryOffsets returns the container start of every history request received, in order.
func (f *FakePlexServer) HistoryOffsets() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.historyOffsets...)
}

// MetadataCalls returns how many times metadata for ratingKey was requested.
func (f *FakePlexServer) MetadataCalls(ratingKey string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.metadataCalls[ratingKey]
}

// HistoryRequests returns the number of history requests received.
func (f *FakePlexServer) HistoryRequests() int {
	return int(f.historyRequests.Load())
}

func (f *FakePlexServer) handle(w http.ResponseWriter, r *http.Request) {
	ratingKey, isMetadata := strings.CutPrefix(r.URL.Path, "/library/metadata/")

	// Requests are counted before the token check so rejected calls show up too.
	switch {
	case r.URL.Path == "/status/sessions/history/all":
		f.historyRequests.Add(1)
	case isMetadata:
		f.mu.Lock()
		f.metadataCalls[ratingKey]++
		f.mu.Unlock()
	}

	if f.Token != "" && r.Header.Get("X-Plex-Token") != f.Token {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.URL.Path == "/status/sessions/history/all":
		f.serveHistory(w, r)
	case isMetadata:
		f.serveMetadata(w, ratingKey)
	case r.URL.Path == "/library/sections":
		_, _ = w.Write([]byte(GenerateSectionsJSON(f.Sections...)))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *FakePlexServer) serveHistory(w http.ResponseWriter, r *http.Request) {
	start, _ := strconv.Atoi(r.Header.Get("X-Plex-Container-Start"))
	size, err := strconv.Atoi(r.Header.Get("X-Plex-Container-Size"))
	if err != nil || size <= 0 {
		size = 100
	}

	f.mu.Lock()
	f.historyOffsets = append(f.historyOffsets, start)
	f.mu.Unlock()

	if f.HistoryStatus != nil {
		if status := f.HistoryStatus(start); status != 0 && status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
	}

	end := start + size
	if start > len(f.History) {
		start = len(f.History)
	}
	if end > len(f.History) {
		end = len(f.History)
	}
	total := 0
	if f.ReportTotal {
		total = len(f.History)
	}
	_, _ = w.Write([]byte(GenerateHistoryJSON(f.History[start:end], start, total)))
}

func (f *FakePlexServer) serveMetadata(w http.ResponseWriter, ratingKey string) {
	if f.MetadataStatus != nil {
		if status := f.MetadataStatus(ratingKey); status != 0 && status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
	}

	opts, ok := f.Metadata[ratingKey]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	_, _ = w.Write([]byte(GenerateMetadataJSON(opts)))
}
