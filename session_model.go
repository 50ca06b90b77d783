package naparnik

import (
	"fmt"
	"time"
)

type SessionStatus string

const (
	SessionCompleted SessionStatus = "completed"
	SessionDropped   SessionStatus = "dropped"
)

type FocusQuality string

const (
	FocusOK      FocusQuality = "ok"
	FocusPartial FocusQuality = "partial"
	FocusLost    FocusQuality = "lost"
)

func ParseFocusQuality(s string) (FocusQuality, error) {
	switch q := FocusQuality(s); q {
	case FocusOK, FocusPartial, FocusLost:
		return q, nil
	default:
		return "", fmt.Errorf("unknown focus quality %q", s)
	}
}

// StatusFor maps the reported focus quality of a session that ran to the end
// onto its history status. Cancelled sessions are always dropped.
func StatusFor(q FocusQuality, cancelled bool) SessionStatus {
	if cancelled || q == FocusLost {
		return SessionDropped
	}
	return SessionCompleted
}

type SessionRecordID string

type FocusSessionRecord struct {
	UserID   string
	Domain   string
	TaskType string

	//
	PlannedMinutes int
	ActualMinutes  int
	Status         SessionStatus
	FocusQuality   FocusQuality
	Description    string
}

type ExistingFocusSessionRecord struct {
	ExistingRecord[SessionRecordID]
	FocusSessionRecord
}

type SessionRecordFilter struct {
	Domain, TaskType string
	// SinceDays limits results to records created in the last n days. Zero means no limit.
	SinceDays int
}

func (f SessionRecordFilter) Since(now time.Time) time.Time {
	if f.SinceDays <= 0 {
		return time.Time{}
	}
	return now.AddDate(0, 0, -f.SinceDays)
}
