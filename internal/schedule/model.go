// Package schedule provides the per-date schedule record model and its store.
package schedule

import (
	"slices"
	"strings"
)

// NoVersion is the expected version of a date that has no stored record.
const NoVersion int64 = 0

// Event is a single entry in a day's ordered event list.
type Event struct {
	Text      string
	Important bool
}

// Record is the schedule for one calendar date.
type Record struct {
	Events          []Event
	Memo            string
	IsBreakDay      bool
	BreakDayImageID *string
	MorningTime     string
	AfternoonTime   string
	Version         int64
}

// IsEmpty reports whether the record carries no content.
// An empty record is equivalent to having no record for the date.
func (r Record) IsEmpty() bool {
	return len(r.Events) == 0 &&
		strings.TrimSpace(r.Memo) == "" &&
		!r.IsBreakDay &&
		strings.TrimSpace(r.MorningTime) == "" &&
		strings.TrimSpace(r.AfternoonTime) == ""
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	c := r
	if r.Events != nil {
		c.Events = slices.Clone(r.Events)
	}
	if r.BreakDayImageID != nil {
		id := *r.BreakDayImageID
		c.BreakDayImageID = &id
	}
	return c
}

// Equal reports whether two records have the same content and version.
func (r Record) Equal(other Record) bool {
	return r.Version == other.Version && r.SameContent(other)
}

// SameContent compares everything except the version.
// A nil and an empty event list are considered the same.
func (r Record) SameContent(other Record) bool {
	if len(r.Events) != len(other.Events) {
		return false
	}
	for i := range r.Events {
		if r.Events[i] != other.Events[i] {
			return false
		}
	}
	if (r.BreakDayImageID == nil) != (other.BreakDayImageID == nil) {
		return false
	}
	if r.BreakDayImageID != nil && *r.BreakDayImageID != *other.BreakDayImageID {
		return false
	}
	return r.Memo == other.Memo &&
		r.IsBreakDay == other.IsBreakDay &&
		r.MorningTime == other.MorningTime &&
		r.AfternoonTime == other.AfternoonTime
}

// Empty returns the canonical empty record for the given version.
func Empty(version int64) Record {
	return Record{Events: []Event{}, Version: version}
}

// PutResult is the authoritative outcome of an accepted write.
type PutResult struct {
	// Record is nil when the write removed the date's record.
	Record *Record
}

// Deleted reports whether the write removed the date's record.
func (r PutResult) Deleted() bool {
	return r.Record == nil
}
