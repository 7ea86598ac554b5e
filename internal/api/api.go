// Package api defines the JSON wire format of the schedule HTTP API.
package api

import (
	"github.com/haevelyn/schedule/internal/schedule"
)

// MessageSaved is returned in SaveResponse on every accepted write.
const MessageSaved = "Schedule saved successfully"

// EventDTO is the wire form of schedule.Event.
type EventDTO struct {
	Text        string `json:"text" yaml:"text" validate:"required"`
	IsImportant bool   `json:"isImportant" yaml:"isImportant"`
}

// ScheduleDTO is the wire form of schedule.Record. The yaml form is used by exports.
type ScheduleDTO struct {
	Events          []EventDTO `json:"events" yaml:"events"`
	Memo            string     `json:"memo" yaml:"memo"`
	IsBreakDay      bool       `json:"is_break_day" yaml:"is_break_day"`
	BreakDayImageID *string    `json:"break_day_image_id" yaml:"break_day_image_id"`
	MorningTime     string     `json:"morning_time" yaml:"morning_time"`
	AfternoonTime   string     `json:"afternoon_time" yaml:"afternoon_time"`
	Version         int64      `json:"version" yaml:"version"`
}

// SaveRequest is the body of POST /schedules.
// Version is the version the writer last observed, 0 when it saw no record.
type SaveRequest struct {
	Date            string     `json:"date" validate:"required,datetime=2006-01-02"`
	Events          []EventDTO `json:"events" validate:"dive"`
	Memo            string     `json:"memo"`
	IsBreakDay      bool       `json:"isBreakDay"`
	Version         int64      `json:"version" validate:"gte=0"`
	BreakDayImageID *string    `json:"breakDayImageId" validate:"omitempty,max=64"`
	MorningTime     string     `json:"morningTime" validate:"max=64"`
	AfternoonTime   string     `json:"afternoonTime" validate:"max=64"`
}

// SaveResponse is returned for an accepted write.
// Schedule is null when the write deleted the date's record.
type SaveResponse struct {
	Message  string       `json:"message"`
	Schedule *ScheduleDTO `json:"schedule"`
}

// ErrorResponse is returned for every non-2xx status.
type ErrorResponse struct {
	Error string `json:"error"`
}

// FromRecord converts a record to its wire form.
func FromRecord(r schedule.Record) ScheduleDTO {
	events := make([]EventDTO, 0, len(r.Events))
	for _, e := range r.Events {
		events = append(events, EventDTO{Text: e.Text, IsImportant: e.Important})
	}
	dto := ScheduleDTO{
		Events:        events,
		Memo:          r.Memo,
		IsBreakDay:    r.IsBreakDay,
		MorningTime:   r.MorningTime,
		AfternoonTime: r.AfternoonTime,
		Version:       r.Version,
	}
	if r.BreakDayImageID != nil {
		id := *r.BreakDayImageID
		dto.BreakDayImageID = &id
	}
	return dto
}

// ToRecord converts a wire record back to the model.
func (d ScheduleDTO) ToRecord() schedule.Record {
	r := schedule.Record{
		Events:        toEvents(d.Events),
		Memo:          d.Memo,
		IsBreakDay:    d.IsBreakDay,
		MorningTime:   d.MorningTime,
		AfternoonTime: d.AfternoonTime,
		Version:       d.Version,
	}
	if d.BreakDayImageID != nil {
		id := *d.BreakDayImageID
		r.BreakDayImageID = &id
	}
	return r
}

// FromRecords converts a date keyed mapping to its wire form.
func FromRecords(records map[string]schedule.Record) map[string]ScheduleDTO {
	dtos := make(map[string]ScheduleDTO, len(records))
	for date, r := range records {
		dtos[date] = FromRecord(r)
	}
	return dtos
}

// ToRecords converts a date keyed wire mapping to records.
func ToRecords(dtos map[string]ScheduleDTO) map[string]schedule.Record {
	records := make(map[string]schedule.Record, len(dtos))
	for date, d := range dtos {
		records[date] = d.ToRecord()
	}
	return records
}

// NewSaveRequest builds the request that writes candidate for date,
// expecting expectedVersion to be stored.
func NewSaveRequest(date string, candidate schedule.Record, expectedVersion int64) SaveRequest {
	dto := FromRecord(candidate)
	return SaveRequest{
		Date:            date,
		Events:          dto.Events,
		Memo:            dto.Memo,
		IsBreakDay:      dto.IsBreakDay,
		Version:         expectedVersion,
		BreakDayImageID: dto.BreakDayImageID,
		MorningTime:     dto.MorningTime,
		AfternoonTime:   dto.AfternoonTime,
	}
}

// Candidate returns the record the request asks to store.
// Its version is left zero; the request's Version is the expected version.
func (r SaveRequest) Candidate() schedule.Record {
	return ScheduleDTO{
		Events:          r.Events,
		Memo:            r.Memo,
		IsBreakDay:      r.IsBreakDay,
		BreakDayImageID: r.BreakDayImageID,
		MorningTime:     r.MorningTime,
		AfternoonTime:   r.AfternoonTime,
	}.ToRecord()
}

func toEvents(dtos []EventDTO) []schedule.Event {
	events := make([]schedule.Event, 0, len(dtos))
	for _, e := range dtos {
		events = append(events, schedule.Event{Text: e.Text, Important: e.IsImportant})
	}
	return events
}
