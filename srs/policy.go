// Package srs schedules spaced-repetition reviews for words and phrases.
//
// Both policies share naparnik.ReviewState but keep their own notion of time:
// words are scheduled by calendar day, phrases by exact timestamp.
package srs

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/naparnik/naparnik-go"
)

var ErrInvalidState = errors.New("srs: invalid review state")

type Outcome bool

const (
	Fail    Outcome = false
	Success Outcome = true
)

type ReviewPolicy interface {
	// Advance returns the next state. The input is never modified.
	Advance(s naparnik.ReviewState, o Outcome, now time.Time) (naparnik.ReviewState, error)
	IsDue(s naparnik.ReviewState, now time.Time) bool
	// DueCutoff is the latest NextReview that still counts as due at now.
	DueCutoff(now time.Time) time.Time
	// Order sorts due items into review-queue priority in place.
	Order(items []naparnik.ExistingReviewItem)
	// Initial is the state of a freshly added item.
	Initial(now time.Time) naparnik.ReviewState
}

func ForKind(k naparnik.ReviewKind) (ReviewPolicy, error) {
	switch k {
	case naparnik.WordKind:
		return WordPolicy{}, nil
	case naparnik.PhraseKind:
		return PhrasePolicy{}, nil
	default:
		return nil, fmt.Errorf("srs: no policy for %s", k)
	}
}

func validate(s naparnik.ReviewState) (naparnik.ReviewState, error) {
	if s.IntervalDays < 1 {
		return s, fmt.Errorf("%w: interval %d", ErrInvalidState, s.IntervalDays)
	}
	if s.Repetitions < 0 {
		return s, fmt.Errorf("%w: repetitions %d", ErrInvalidState, s.Repetitions)
	}
	if math.IsNaN(s.EaseFactor) {
		return s, fmt.Errorf("%w: ease is NaN", ErrInvalidState)
	}
	s.EaseFactor = clampEase(s.EaseFactor)
	return s, nil
}

func clampEase(e float64) float64 {
	return math.Min(naparnik.MaxEaseFactor, math.Max(naparnik.MinEaseFactor, e))
}

func failedEase(e float64) float64 {
	return math.Max(naparnik.MinEaseFactor, e-0.2)
}

// startOfDay truncates t to local midnight.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// WordPolicy schedules vocabulary by calendar day.
type WordPolicy struct{}

// wordEaseDelta is the SM-2 ease update with quality fixed at 3. Ease drifts
// down by 0.06 on every success.
const wordEaseDelta = 0.1 - (5-3)*0.08

func (WordPolicy) Advance(s naparnik.ReviewState, o Outcome, now time.Time) (naparnik.ReviewState, error) {
	s, err := validate(s)
	if err != nil {
		return s, err
	}

	if o == Success {
		switch s.Repetitions {
		case 0:
			s.IntervalDays = 1
		case 1:
			s.IntervalDays = 6
		default:
			s.IntervalDays = max(1, int(math.Floor(float64(s.IntervalDays)*s.EaseFactor)))
		}
		s.EaseFactor = clampEase(s.EaseFactor + wordEaseDelta)
		s.Repetitions++
	} else {
		s.IntervalDays = 1
		s.Repetitions = 0
		s.EaseFactor = failedEase(s.EaseFactor)
	}

	s.LastReviewed = now
	s.NextReview = startOfDay(now).AddDate(0, 0, s.IntervalDays)
	return s, nil
}

func (p WordPolicy) IsDue(s naparnik.ReviewState, now time.Time) bool {
	return s.NextReview.IsZero() || !s.NextReview.After(p.DueCutoff(now))
}

// DueCutoff is the last instant of today, so anything dated today is due.
func (WordPolicy) DueCutoff(now time.Time) time.Time {
	return startOfDay(now).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

func (WordPolicy) Initial(now time.Time) naparnik.ReviewState {
	return naparnik.NewReviewState(startOfDay(now))
}

func (WordPolicy) Order(items []naparnik.ExistingReviewItem) {
	group := func(it naparnik.ExistingReviewItem) int {
		switch {
		case it.Repetitions == 0:
			return 0
		case it.EaseFactor < 2.0:
			return 1
		default:
			return 2
		}
	}
	sortStable(items, func(a, b naparnik.ExistingReviewItem) int {
		if ga, gb := group(a), group(b); ga != gb {
			return ga - gb
		}
		return compareNextReview(a.NextReview, b.NextReview)
	})
}

// PhrasePolicy schedules phrases by exact timestamp. Repetitions are not tracked.
type PhrasePolicy struct{}

func (PhrasePolicy) Advance(s naparnik.ReviewState, o Outcome, now time.Time) (naparnik.ReviewState, error) {
	s, err := validate(s)
	if err != nil {
		return s, err
	}

	if o == Success {
		s.EaseFactor = math.Min(s.EaseFactor+0.15, naparnik.MaxEaseFactor)
		s.IntervalDays = max(1, int(math.Floor(float64(s.IntervalDays)*s.EaseFactor)))
	} else {
		s.EaseFactor = failedEase(s.EaseFactor)
		s.IntervalDays = 1
	}

	s.LastReviewed = now
	s.NextReview = now.AddDate(0, 0, s.IntervalDays)
	return s, nil
}

func (PhrasePolicy) IsDue(s naparnik.ReviewState, now time.Time) bool {
	return !s.NextReview.After(now)
}

func (PhrasePolicy) DueCutoff(now time.Time) time.Time {
	return now
}

func (PhrasePolicy) Initial(now time.Time) naparnik.ReviewState {
	return naparnik.NewReviewState(now)
}

func (PhrasePolicy) Order(items []naparnik.ExistingReviewItem) {
	sortStable(items, func(a, b naparnik.ExistingReviewItem) int {
		return compareNextReview(a.NextReview, b.NextReview)
	})
}
