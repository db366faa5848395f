package models

import (
	"fmt"
	"strings"
)

// Outcome is the per-item result of processing one history entry
type Outcome int

const (
	OutcomeExported Outcome = iota
	OutcomeSkippedNoMetadata
	OutcomeSkippedNoIMDbID
	OutcomeSkippedTransportFailure
	OutcomeDuplicate
)

// String returns the string representation of the outcome
func (o Outcome) String() string {
	switch o {
	case OutcomeExported:
		return "exported"
	case OutcomeSkippedNoMetadata:
		return "skipped_no_metadata"
	case OutcomeSkippedNoIMDbID:
		return "skipped_no_imdb_id"
	case OutcomeSkippedTransportFailure:
		return "skipped_transport_failure"
	case OutcomeDuplicate:
		return "duplicate"
	default:
		return "unknown"
	}
}

// IsSkip reports whether the outcome excludes the item from the export because
// it could not be resolved. Duplicates are not skips.
func (o Outcome) IsSkip() bool {
	switch o {
	case OutcomeSkippedNoMetadata, OutcomeSkippedNoIMDbID, OutcomeSkippedTransportFailure:
		return true
	default:
		return false
	}
}

// ParseOutcome converts an outcome string back to an Outcome
func ParseOutcome(s string) (Outcome, error) {
	switch strings.ToLower(s) {
	case "exported":
		return OutcomeExported, nil
	case "skipped_no_metadata":
		return OutcomeSkippedNoMetadata, nil
	case "skipped_no_imdb_id":
		return OutcomeSkippedNoIMDbID, nil
	case "skipped_transport_failure":
		return OutcomeSkippedTransportFailure, nil
	case "duplicate":
		return OutcomeDuplicate, nil
	default:
		return 0, fmt.Errorf("unknown outcome %q", s)
	}
}

// MarshalJSON implements json.Marshaler interface
func (o Outcome) MarshalJSON() ([]byte, error) {
	return []byte(`"` + o.String() + `"`), nil
}

// Summary counts item outcomes over a run
type Summary struct {
	Exported                int  `json:"exported"`
	SkippedNoMetadata       int  `json:"skippedNoMetadata"`
	SkippedNoIMDbID         int  `json:"skippedNoImdbId"`
	SkippedTransportFailure int  `json:"skippedTransportFailure"`
	Duplicates              int  `json:"duplicates"`
	PagesFetched            int  `json:"pagesFetched"`
	TotalSize               int  `json:"totalSize,omitempty"` // history size reported by the server
	Aborted                 bool `json:"aborted"`
}

// Record adds one outcome to the counts
func (s *Summary) Record(o Outcome) {
	switch o {
	case OutcomeExported:
		s.Exported++
	case OutcomeSkippedNoMetadata:
		s.SkippedNoMetadata++
	case OutcomeSkippedNoIMDbID:
		s.SkippedNoIMDbID++
	case OutcomeSkippedTransportFailure:
		s.SkippedTransportFailure++
	case OutcomeDuplicate:
		s.Duplicates++
	}
}

// Count returns the count recorded for one outcome
func (s Summary) Count(o Outcome) int {
	switch o {
	case OutcomeExported:
		return s.Exported
	case OutcomeSkippedNoMetadata:
		return s.SkippedNoMetadata
	case OutcomeSkippedNoIMDbID:
		return s.SkippedNoIMDbID
	case OutcomeSkippedTransportFailure:
		return s.SkippedTransportFailure
	case OutcomeDuplicate:
		return s.Duplicates
	default:
		return 0
	}
}

// Skipped is the number of items excluded from the export
func (s Summary) Skipped() int {
	return s.SkippedNoMetadata + s.SkippedNoIMDbID + s.SkippedTransportFailure
}

// Processed is the number of history entries that received an outcome
func (s Summary) Processed() int {
	return s.Exported + s.Skipped() + s.Duplicates
}

// Status is a one-line description of how the run ended
func (s Summary) Status() string {
	switch {
	case s.Aborted:
		return fmt.Sprintf("aborted after %d pages", s.PagesFetched)
	case s.Skipped() > 0:
		return fmt.Sprintf("exported with %d skipped items", s.Skipped())
	default:
		return "fully exported"
	}
}
