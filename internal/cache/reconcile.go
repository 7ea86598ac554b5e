package cache

import (
	"errors"

	"github.com/haevelyn/schedule/internal/schedule"
)

// Outcome is how a single edit settled.
type Outcome int

const (
	// OutcomeApplied means the store accepted the write and the cache holds its record.
	OutcomeApplied Outcome = iota
	// OutcomeDeleted means the write removed the date's record.
	OutcomeDeleted
	// OutcomeConflicted means another writer got there first; the edit was reverted.
	OutcomeConflicted
	// OutcomeFailed means the store could not be reached or failed; the edit was reverted.
	OutcomeFailed
	// OutcomeRejected means the edit was invalid; the edit was reverted.
	OutcomeRejected
)

func (o Outcome) String() string {
	switch o {
	case OutcomeApplied:
		return "applied"
	case OutcomeDeleted:
		return "deleted"
	case OutcomeConflicted:
		return "conflict"
	case OutcomeFailed:
		return "failed"
	case OutcomeRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// MessageSaveFailed is shown when a write failed for reasons other than a conflict.
const MessageSaveFailed = "Failed to save the schedule. Please try again."

// Settlement is what the cache must do once a write has returned.
type Settlement struct {
	// Record is the value to hold for the date; nil removes the date.
	Record  *schedule.Record
	Outcome Outcome
	// Notice is set when the user must be told about the outcome.
	Notice *Notice
	// Resync is set when the cached view of the date's month must be re-fetched.
	Resync bool
	Err    error
}

// Reconcile decides the cached value for date after a write of an edit
// made against before has returned result and err. It has no side effects.
func Reconcile(date string, before schedule.Record, result schedule.PutResult, err error) Settlement {
	if err == nil {
		if result.Deleted() {
			return Settlement{Outcome: OutcomeDeleted}
		}
		rec := result.Record.Clone()
		return Settlement{Record: &rec, Outcome: OutcomeApplied}
	}

	s := Settlement{Record: revert(before), Err: err}
	var conflictErr *schedule.ConflictError
	var validationErr *schedule.ValidationError
	switch {
	case errors.As(err, &conflictErr):
		s.Outcome = OutcomeConflicted
		s.Notice = &Notice{Kind: NoticeConflict, Date: date, Message: conflictErr.Error()}
		s.Resync = true
	case errors.As(err, &validationErr):
		// nothing reached the store, so the cached view is still current
		s.Outcome = OutcomeRejected
		s.Notice = &Notice{Kind: NoticeInvalid, Date: date, Message: validationErr.Error()}
	default:
		s.Outcome = OutcomeFailed
		s.Notice = &Notice{Kind: NoticeFailure, Date: date, Message: MessageSaveFailed}
		s.Resync = true
	}
	return s
}

func revert(before schedule.Record) *schedule.Record {
	if before.IsEmpty() {
		return nil
	}
	rec := before.Clone()
	return &rec
}
