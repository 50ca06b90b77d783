// Package estimate recommends focus session lengths from past sessions.
package estimate

import (
	"cmp"
	"math"
	"slices"
	"time"

	"github.com/naparnik/naparnik-go"
)

const (
	DefaultMinutes = 20

	trendWindow   = 3
	shortRatio    = 0.7
	longRatio     = 0.9
	minTrendedMin = 10
	maxTrendedMin = 30
)

// PlannedMinutes returns the recommended length of the next session for
// (domain, taskType). history may be in any order and is not modified.
func PlannedMinutes(domain, taskType string, history []naparnik.ExistingFocusSessionRecord) int {
	return PlannedMinutesSince(domain, taskType, history, time.Time{})
}

// PlannedMinutesSince is PlannedMinutes with the trend limited to records
// created at or after trendSince. The average always covers all of history.
// A zero trendSince means no limit.
func PlannedMinutesSince(domain, taskType string, history []naparnik.ExistingFocusSessionRecord, trendSince time.Time) int {
	var recent []naparnik.ExistingFocusSessionRecord
	var sum, completed int
	for _, r := range history {
		if r.Domain != domain || r.TaskType != taskType {
			continue
		}
		if r.Status == naparnik.SessionCompleted {
			sum += r.ActualMinutes
			completed++
		}
		if !r.CreatedAt.Before(trendSince) {
			recent = append(recent, r)
		}
	}
	if completed == 0 {
		return DefaultMinutes
	}
	avg := float64(sum) / float64(completed)

	var est int
	switch trend(recent) {
	case trendShort:
		est = max(minTrendedMin, int(math.Floor(avg*0.8)))
	case trendLong:
		est = min(maxTrendedMin, int(math.Floor(avg*1.2)))
	default:
		est = int(math.Round(avg))
	}
	return max(1, est)
}

type trendKind int

const (
	trendNone trendKind = iota
	trendShort
	trendLong
)

// trend looks at the three most recent sessions and reports whether all of
// them that had a plan ran well short of, or close to, what was planned.
func trend(records []naparnik.ExistingFocusSessionRecord) trendKind {
	if len(records) < trendWindow {
		return trendNone
	}
	last := slices.Clone(records)
	slices.SortStableFunc(last, func(a, b naparnik.ExistingFocusSessionRecord) int {
		return cmp.Compare(b.CreatedAt.UnixNano(), a.CreatedAt.UnixNano())
	})

	var rated int
	allShort, allLong := true, true
	for _, r := range last[:trendWindow] {
		if r.PlannedMinutes <= 0 {
			continue
		}
		rated++
		ratio := float64(r.ActualMinutes) / float64(r.PlannedMinutes)
		allShort = allShort && ratio < shortRatio
		allLong = allLong && ratio > longRatio
	}
	if rated == 0 {
		return trendNone
	}
	switch {
	case allShort:
		return trendShort
	case allLong:
		return trendLong
	default:
		return trendNone
	}
}
