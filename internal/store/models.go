package store

import (
	"strings"
	"time"
)

// Status represents the translation lifecycle of a stored trace.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

var allStatuses = []Status{StatusPending, StatusCompleted, StatusFailed}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status. Unknown values are
// rejected so the three-state enum stays closed at the store boundary.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// Record is one persisted trace with its translation lifecycle. A record
// exists only when generation already succeeded; the translated trace is
// non-nil exactly when Status is StatusCompleted.
type Record struct {
	ID                       int64
	Title                    string
	Content                  string
	TraceSourceWithThink     string
	TraceTranslatedWithThink *string
	Status                   Status
	CreatedAt                time.Time
	TranslatedAt             *time.Time
}
