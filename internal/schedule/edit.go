package schedule

import (
	"fmt"
	"strings"
)

// BreakDayPolicy decides what happens to existing events when a date
// becomes a break day.
type BreakDayPolicy int

const (
	// PreserveEvents keeps the event list when entering break-day state.
	PreserveEvents BreakDayPolicy = iota
	// DiscardEvents empties the event list while the date is a break day.
	DiscardEvents
)

// ParseBreakDayPolicy parses "preserve" or "discard".
func ParseBreakDayPolicy(s string) (BreakDayPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "preserve":
		return PreserveEvents, nil
	case "discard":
		return DiscardEvents, nil
	default:
		return PreserveEvents, fmt.Errorf("unknown break day policy %q", s)
	}
}

func (p BreakDayPolicy) String() string {
	if p == DiscardEvents {
		return "discard"
	}
	return "preserve"
}

// Edit describes the fields a user changed. Nil fields are left as they are.
type Edit struct {
	Events             *[]Event
	Memo               *string
	IsBreakDay         *bool
	BreakDayImageID    *string
	ClearBreakDayImage bool
	MorningTime        *string
	AfternoonTime      *string
}

// Clear returns an edit that removes all content of a date.
func Clear() Edit {
	events := []Event{}
	memo, morning, afternoon := "", "", ""
	breakDay := false
	return Edit{
		Events:             &events,
		Memo:               &memo,
		IsBreakDay:         &breakDay,
		ClearBreakDayImage: true,
		MorningTime:        &morning,
		AfternoonTime:      &afternoon,
	}
}

// Merge computes the record that results from applying edit to before.
// The result keeps before's version, which is the version a write of the
// result must expect.
func Merge(before Record, edit Edit, policy BreakDayPolicy) Record {
	after := before.Clone()

	if edit.Events != nil {
		after.Events = make([]Event, 0, len(*edit.Events))
		for _, e := range *edit.Events {
			text := strings.TrimSpace(e.Text)
			if text == "" {
				continue
			}
			after.Events = append(after.Events, Event{Text: text, Important: e.Important})
		}
	}
	if edit.Memo != nil {
		after.Memo = *edit.Memo
	}
	if edit.IsBreakDay != nil {
		after.IsBreakDay = *edit.IsBreakDay
	}
	if edit.MorningTime != nil {
		after.MorningTime = *edit.MorningTime
	}
	if edit.AfternoonTime != nil {
		after.AfternoonTime = *edit.AfternoonTime
	}
	if edit.ClearBreakDayImage {
		after.BreakDayImageID = nil
	}
	if edit.BreakDayImageID != nil {
		id := *edit.BreakDayImageID
		after.BreakDayImageID = &id
	}

	if after.IsBreakDay && !before.IsBreakDay {
		after.MorningTime = ""
		after.AfternoonTime = ""
	}
	if after.IsBreakDay && policy == DiscardEvents {
		after.Events = []Event{}
	}
	if !after.IsBreakDay {
		after.BreakDayImageID = nil
	}

	after.Version = before.Version
	if after.IsEmpty() {
		return Empty(before.Version)
	}
	if after.Events == nil {
		after.Events = []Event{}
	}
	return after
}
