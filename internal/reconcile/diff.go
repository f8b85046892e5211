// Package reconcile computes diffs between a staged payload and the stored
// record, and applies partially accepted confirmations until the two
// converge.
package reconcile

import (
	"sort"
	"strings"
	"time"

	"github.com/tony-held-carb/feedback-portal-sub001/internal/extract"
	"github.com/tony-held-carb/feedback-portal-sub001/internal/store"
)

// Entry is one field where the staged payload differs from the stored
// record. Values are held in normalized form so serialization noise never
// shows up as a difference.
type Entry struct {
	Field     string
	Stored    string
	Incoming  string
	Confirmed bool
}

// Diff compares the staged payload against the stored record. Only fields
// present in the payload are considered: a source that is silent about a
// field must never cause that field to be reverted. rec may be nil (nothing
// stored yet); then every payload field is a diff against "".
// Entries are ordered by field name.
func Diff(incoming map[string]string, rec *store.Record) []Entry {
	var stored map[string]string
	if rec != nil {
		stored = rec.Fields
	}

	var entries []Entry
	for field, in := range incoming {
		inNorm := normalize(in)
		storedNorm := normalize(stored[field])
		if inNorm == storedNorm {
			continue
		}
		entries = append(entries, Entry{
			Field:    field,
			Stored:   storedNorm,
			Incoming: inNorm,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Field < entries[j].Field })
	return entries
}

// storedTimeLayouts are legacy renderings seen in stored records, tried
// after the canonical layout.
var storedTimeLayouts = []string{
	extract.CanonicalTimeLayout,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"1/2/2006 15:04",
	"1/2/2006",
}

// normalize maps a value to the canonical comparison form: whitespace
// trimmed, datetimes promoted to the one reference civil-time convention.
func normalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if looksTemporal(s) {
		for _, layout := range storedTimeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.Format(extract.CanonicalTimeLayout)
			}
		}
	}
	return s
}

// looksTemporal is a cheap gate so normalize does not attempt date parsing
// on every facility name.
func looksTemporal(s string) bool {
	if len(s) < 8 || len(s) > 25 {
		return false
	}
	digits := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
			digits++
		case c == '-' || c == '/' || c == ':' || c == ' ' || c == 'T':
		default:
			return false
		}
	}
	return digits >= 6
}
