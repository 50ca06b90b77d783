package main

import (
	"math"
	"time"

	"github.com/naparnik/naparnik-go"
	"github.com/naparnik/naparnik-go/timer"
)

// Session is a user's live focus session.
type Session struct {
	handle           *timer.Handle
	domain, taskType string
	plannedMinutes   int
	startedAt        time.Time
}

// SessionInfo is a point-in-time copy of a Session safe to hand to transports.
type SessionInfo struct {
	Domain, TaskType string
	PlannedMinutes   int
	StartedAt        time.Time
	timer.Snapshot
}

func (s *Session) info() SessionInfo {
	return SessionInfo{
		Domain:         s.domain,
		TaskType:       s.taskType,
		PlannedMinutes: s.plannedMinutes,
		StartedAt:      s.startedAt,
		Snapshot:       s.handle.Snapshot(),
	}
}

// pendingOutcome is a finished session waiting for the user to report how it went.
type pendingOutcome struct {
	SessionInfo
	cancelled bool
}

func newPendingOutcome(s *Session) *pendingOutcome {
	info := s.info()
	return &pendingOutcome{
		SessionInfo: info,
		cancelled:   info.State == timer.Cancelled,
	}
}

func (p pendingOutcome) toRecord(userID string, q naparnik.FocusQuality, description string) naparnik.FocusSessionRecord {
	return naparnik.FocusSessionRecord{
		UserID:         userID,
		Domain:         p.Domain,
		TaskType:       p.TaskType,
		PlannedMinutes: p.PlannedMinutes,
		ActualMinutes:  actualMinutes(p.ElapsedSeconds),
		Status:         naparnik.StatusFor(q, p.cancelled),
		FocusQuality:   q,
		Description:    description,
	}
}

func actualMinutes(elapsedSeconds int) int {
	return int(math.Round(float64(elapsedSeconds) / 60))
}
