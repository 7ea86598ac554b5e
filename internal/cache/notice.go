package cache

import (
	"log/slog"
)

// NoticeKind classifies a user-facing notification.
type NoticeKind int

const (
	NoticeConflict NoticeKind = iota
	NoticeFailure
	NoticeInvalid
)

func (k NoticeKind) String() string {
	switch k {
	case NoticeConflict:
		return "conflict"
	case NoticeFailure:
		return "failure"
	case NoticeInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Notice tells the user that an edit did not land.
type Notice struct {
	Kind    NoticeKind
	Date    string
	Message string
}

// Notifier receives notices from a Cache. Notify must not block for long.
type Notifier interface {
	Notify(n Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(n Notice)

func (f NotifierFunc) Notify(n Notice) {
	f(n)
}

type logNotifier struct{}

func (logNotifier) Notify(n Notice) {
	slog.Default().Warn("schedule edit not saved", "kind", n.Kind.String(), "date", n.Date, "message", n.Message)
}
