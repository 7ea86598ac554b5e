package schedule

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/jmoiron/sqlx"

	"github.com/haevelyn/schedule/internal/database"
)

//go:generate mockgen -source=repository.go -destination=../mocks/schedule/mock_repository.go -package=mock_schedule

// Store reads and writes schedule records keyed by date.
type Store interface {
	FindAll(ctx context.Context) (map[string]Record, error)
	FindByMonth(ctx context.Context, month YearMonth) (map[string]Record, error)
	// Put writes candidate for date if the stored version equals
	// expectedVersion (NoVersion when no record is expected).
	Put(ctx context.Context, date string, candidate Record, expectedVersion int64) (PutResult, error)
}

// DBRepository implements Store using SQL.
// Every write is a single conditional statement, so two writers holding
// the same expected version cannot both succeed.
type DBRepository struct {
	db *sqlx.DB
}

// NewDBRepository creates a new DBRepository.
func NewDBRepository(db *sqlx.DB) *DBRepository {
	return &DBRepository{db: db}
}

type scheduleRow struct {
	Date            string         `db:"date"`
	Events          string         `db:"events"`
	Memo            string         `db:"memo"`
	IsBreakDay      bool           `db:"is_break_day"`
	BreakDayImageID sql.NullString `db:"break_day_image_id"`
	MorningTime     string         `db:"morning_time"`
	AfternoonTime   string         `db:"afternoon_time"`
	Version         int64          `db:"version"`
}

type storedEvent struct {
	Text        string `json:"text"`
	IsImportant bool   `json:"isImportant"`
}

// MaxShortFieldLength bounds the times and the break day image id, which are
// stored as VARCHAR(64) on mysql.
const MaxShortFieldLength = 64

const selectColumns = "date, events, memo, is_break_day, break_day_image_id, morning_time, afternoon_time, version"

// FindAll returns every stored record ordered by date.
func (r *DBRepository) FindAll(ctx context.Context) (map[string]Record, error) {
	var rows []scheduleRow
	if err := r.db.SelectContext(ctx, &rows, "SELECT "+selectColumns+" FROM schedules ORDER BY date"); err != nil {
		return nil, &StorageError{Op: "db.SelectContext(schedules)", Err: err}
	}
	return toRecords(rows)
}

// FindByMonth returns the records whose date falls in month.
func (r *DBRepository) FindByMonth(ctx context.Context, month YearMonth) (map[string]Record, error) {
	var rows []scheduleRow
	query := "SELECT " + selectColumns + " FROM schedules WHERE date LIKE ? ORDER BY date"
	if err := r.db.SelectContext(ctx, &rows, query, month.String()+"-%"); err != nil {
		return nil, &StorageError{Op: fmt.Sprintf("db.SelectContext(schedules in %s)", month), Err: err}
	}
	return toRecords(rows)
}

// Put applies the optimistic concurrency protocol for one date.
func (r *DBRepository) Put(ctx context.Context, date string, candidate Record, expectedVersion int64) (PutResult, error) {
	if err := ValidateDate(date); err != nil {
		return PutResult{}, err
	}
	if err := validateCandidate(candidate, expectedVersion); err != nil {
		return PutResult{}, err
	}
	candidate = normalize(candidate)

	if candidate.IsEmpty() {
		return r.delete(ctx, date, expectedVersion)
	}
	if expectedVersion == NoVersion {
		return r.insert(ctx, date, candidate)
	}
	return r.update(ctx, date, candidate, expectedVersion)
}

func (r *DBRepository) insert(ctx context.Context, date string, candidate Record) (PutResult, error) {
	events, err := encodeEvents(candidate.Events)
	if err != nil {
		return PutResult{}, err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO schedules (date, events, memo, is_break_day, break_day_image_id, morning_time, afternoon_time, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, 1)`,
		date, events, candidate.Memo, candidate.IsBreakDay, nullString(candidate.BreakDayImageID),
		candidate.MorningTime, candidate.AfternoonTime)
	if err != nil {
		if database.IsDuplicateKey(err) {
			return PutResult{}, r.conflict(ctx, date, NoVersion)
		}
		return PutResult{}, &StorageError{Op: "db.ExecContext(insert schedule)", Err: err}
	}

	slog.Default().Debug("created schedule", "date", date, "version", 1)
	return accepted(candidate, 1), nil
}

func (r *DBRepository) update(ctx context.Context, date string, candidate Record, expectedVersion int64) (PutResult, error) {
	events, err := encodeEvents(candidate.Events)
	if err != nil {
		return PutResult{}, err
	}
	result, err := r.db.ExecContext(ctx,
		`UPDATE schedules SET events = ?, memo = ?, is_break_day = ?, break_day_image_id = ?,
		morning_time = ?, afternoon_time = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE date = ? AND version = ?`,
		events, candidate.Memo, candidate.IsBreakDay, nullString(candidate.BreakDayImageID),
		candidate.MorningTime, candidate.AfternoonTime, date, expectedVersion)
	if err != nil {
		return PutResult{}, &StorageError{Op: "db.ExecContext(update schedule)", Err: err}
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return PutResult{}, &StorageError{Op: "result.RowsAffected()", Err: err}
	}
	if affected == 0 {
		return PutResult{}, r.conflict(ctx, date, expectedVersion)
	}

	slog.Default().Debug("updated schedule", "date", date, "version", expectedVersion+1)
	return accepted(candidate, expectedVersion+1), nil
}

func (r *DBRepository) delete(ctx context.Context, date string, expectedVersion int64) (PutResult, error) {
	if expectedVersion == NoVersion {
		// Nothing is written, so checking absence is enough.
		stored, err := r.storedVersion(ctx, date)
		if err != nil {
			return PutResult{}, err
		}
		if stored != NoVersion {
			return PutResult{}, &ConflictError{Date: date, ExpectedVersion: expectedVersion, StoredVersion: stored}
		}
		return PutResult{}, nil
	}

	result, err := r.db.ExecContext(ctx, "DELETE FROM schedules WHERE date = ? AND version = ?", date, expectedVersion)
	if err != nil {
		return PutResult{}, &StorageError{Op: "db.ExecContext(delete schedule)", Err: err}
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return PutResult{}, &StorageError{Op: "result.RowsAffected()", Err: err}
	}
	if affected == 0 {
		return PutResult{}, r.conflict(ctx, date, expectedVersion)
	}

	slog.Default().Debug("deleted schedule", "date", date, "version", expectedVersion)
	return PutResult{}, nil
}

// conflict builds a ConflictError reporting the currently stored version.
// The lookup is informational; the write has already been rejected.
func (r *DBRepository) conflict(ctx context.Context, date string, expectedVersion int64) error {
	stored, err := r.storedVersion(ctx, date)
	if err != nil {
		slog.Default().Warn("failed to look up stored version after conflict", "date", date, "error", err)
		stored = -1
	}
	return &ConflictError{Date: date, ExpectedVersion: expectedVersion, StoredVersion: stored}
}

func (r *DBRepository) storedVersion(ctx context.Context, date string) (int64, error) {
	var version int64
	err := r.db.GetContext(ctx, &version, "SELECT version FROM schedules WHERE date = ?", date)
	if errors.Is(err, sql.ErrNoRows) {
		return NoVersion, nil
	}
	if err != nil {
		return 0, &StorageError{Op: "db.GetContext(schedule version)", Err: err}
	}
	return version, nil
}

func validateCandidate(candidate Record, expectedVersion int64) error {
	if expectedVersion < NoVersion {
		return &ValidationError{Field: "version", Message: fmt.Sprintf("version must not be negative, got %d", expectedVersion)}
	}
	short := []struct{ field, value string }{
		{"morningTime", candidate.MorningTime},
		{"afternoonTime", candidate.AfternoonTime},
	}
	if candidate.BreakDayImageID != nil {
		short = append(short, struct{ field, value string }{"breakDayImageId", *candidate.BreakDayImageID})
	}
	for _, f := range short {
		if utf8.RuneCountInString(f.value) > MaxShortFieldLength {
			return &ValidationError{Field: f.field, Message: fmt.Sprintf("must be at most %d characters", MaxShortFieldLength)}
		}
	}
	for i, e := range candidate.Events {
		if strings.TrimSpace(e.Text) == "" {
			return &ValidationError{Field: fmt.Sprintf("events[%d].text", i), Message: "event text must not be empty"}
		}
	}
	return nil
}

// normalize drops the break day image of a record that is not a break day.
func normalize(candidate Record) Record {
	if candidate.IsBreakDay || candidate.BreakDayImageID == nil {
		return candidate
	}
	rec := candidate.Clone()
	rec.BreakDayImageID = nil
	return rec
}

func accepted(candidate Record, version int64) PutResult {
	rec := candidate.Clone()
	if rec.Events == nil {
		rec.Events = []Event{}
	}
	rec.Version = version
	return PutResult{Record: &rec}
}

func encodeEvents(events []Event) (string, error) {
	stored := make([]storedEvent, 0, len(events))
	for _, e := range events {
		stored = append(stored, storedEvent{Text: e.Text, IsImportant: e.Important})
	}
	b, err := json.Marshal(stored)
	if err != nil {
		return "", &StorageError{Op: "json.Marshal(events)", Err: err}
	}
	return string(b), nil
}

func toRecords(rows []scheduleRow) (map[string]Record, error) {
	records := make(map[string]Record, len(rows))
	for _, row := range rows {
		var stored []storedEvent
		if row.Events != "" {
			if err := json.Unmarshal([]byte(row.Events), &stored); err != nil {
				return nil, &StorageError{Op: fmt.Sprintf("json.Unmarshal(events of %s)", row.Date), Err: err}
			}
		}
		events := make([]Event, 0, len(stored))
		for _, e := range stored {
			events = append(events, Event{Text: e.Text, Important: e.IsImportant})
		}

		rec := Record{
			Events:        events,
			Memo:          row.Memo,
			IsBreakDay:    row.IsBreakDay,
			MorningTime:   row.MorningTime,
			AfternoonTime: row.AfternoonTime,
			Version:       row.Version,
		}
		if row.BreakDayImageID.Valid {
			id := row.BreakDayImageID.String
			rec.BreakDayImageID = &id
		}
		records[row.Date] = rec
	}
	return records, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
