// Package query holds the view-models of the traffic and alert record
// browsers: filter state, pagination and the latest-wins fetch lifecycle.
//
// Actions return a request ticket. The caller runs Fetch with it (usually
// from a tea.Cmd) and hands the result back to Complete; only the result of
// the most recently issued ticket is applied. A nil ticket means an
// identical request is already in flight.
package query

import (
	"errors"
	"strings"
)

// Status is the fetch state of a browser.
type Status int

const (
	// StatusIdle means nothing has been requested yet.
	StatusIdle Status = iota
	// StatusLoading means a request is in flight.
	StatusLoading
	// StatusReady means the last request succeeded.
	StatusReady
	// StatusError means the last request failed.
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

var (
	// ErrInvalidStationID is returned when a station filter is not numeric.
	ErrInvalidStationID = errors.New("station id must be numeric")
	// ErrInvalidPage is returned for page numbers or sizes below 1.
	ErrInvalidPage = errors.New("page and page size must be at least 1")
)

// tracker issues sequence numbers and remembers the latest one in flight.
type tracker struct {
	seq        uint64
	pending    uint64
	pendingKey string
}

// begin issues a new sequence for key. It returns false when an identical
// request is already in flight.
func (t *tracker) begin(key string) (uint64, bool) {
	if t.pending != 0 && t.pendingKey == key {
		return 0, false
	}
	t.seq++
	t.pending = t.seq
	t.pendingKey = key
	return t.seq, true
}

// finish reports whether seq is the latest request and clears it if so.
func (t *tracker) finish(seq uint64) bool {
	if t.pending == 0 || seq != t.pending {
		return false
	}
	t.pending = 0
	t.pendingKey = ""
	return true
}

func (t *tracker) loading() bool {
	return t.pending != 0
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(strings.TrimSpace(substr)))
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
