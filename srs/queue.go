package srs

import (
	"slices"
	"time"

	"github.com/naparnik/naparnik-go"
)

// DueQueue filters items down to those due at now and orders them by the
// policy's review priority. items is not modified.
func DueQueue(p ReviewPolicy, items []naparnik.ExistingReviewItem, now time.Time) []naparnik.ExistingReviewItem {
	due := make([]naparnik.ExistingReviewItem, 0, len(items))
	for _, it := range items {
		if p.IsDue(it.ReviewState, now) {
			due = append(due, it)
		}
	}
	p.Order(due)
	return due
}

// Apply advances item and updates its success/fail counters.
func Apply(p ReviewPolicy, item naparnik.ExistingReviewItem, o Outcome, now time.Time) (naparnik.ExistingReviewItem, error) {
	next, err := p.Advance(item.ReviewState, o, now)
	if err != nil {
		return item, err
	}
	item.ReviewState = next
	if o == Success {
		item.SuccessCount++
	} else {
		item.FailCount++
	}
	item.UpdatedAt = now
	return item, nil
}

func sortStable(items []naparnik.ExistingReviewItem, cmp func(a, b naparnik.ExistingReviewItem) int) {
	slices.SortStableFunc(items, cmp)
}

// compareNextReview orders unset dates first.
func compareNextReview(a, b time.Time) int {
	switch {
	case a.IsZero() && b.IsZero():
		return 0
	case a.IsZero():
		return -1
	case b.IsZero():
		return 1
	default:
		return a.Compare(b)
	}
}
