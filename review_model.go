package naparnik

import (
	"fmt"
	"time"
)

type ReviewKind uint8

const (
	_ ReviewKind = iota
	WordKind
	PhraseKind
)

func (k ReviewKind) String() string {
	switch k {
	case WordKind:
		return "word"
	case PhraseKind:
		return "phrase"
	default:
		return fmt.Sprintf("ReviewKind(%d)", uint8(k))
	}
}

func ParseReviewKind(s string) (ReviewKind, error) {
	switch s {
	case "word", "words":
		return WordKind, nil
	case "phrase", "phrases":
		return PhraseKind, nil
	default:
		return 0, fmt.Errorf("unknown review kind %q", s)
	}
}

const (
	MinEaseFactor     = 1.3
	MaxEaseFactor     = 2.5
	DefaultEaseFactor = 2.5
)

type ReviewItemID string

// ReviewState is the scheduling shape shared by words and phrases.
// A zero NextReview means the item was never scheduled.
type ReviewState struct {
	EaseFactor   float64
	IntervalDays int
	Repetitions  int
	LastReviewed time.Time
	NextReview   time.Time
}

func NewReviewState(nextReview time.Time) ReviewState {
	return ReviewState{
		EaseFactor:   DefaultEaseFactor,
		IntervalDays: 1,
		NextReview:   nextReview,
	}
}

type ReviewItemRecord struct {
	UserID      string
	Kind        ReviewKind
	Term        string
	Translation string
	Note        string

	//
	SuccessCount int
	FailCount    int
	ReviewState
}

type ExistingReviewItem struct {
	ExistingRecord[ReviewItemID]
	ReviewItemRecord
}

type ReviewLogID string

type ReviewLogRecord struct {
	ItemID     ReviewItemID
	UserID     string
	Success    bool
	Answer     string
	ReviewedAt time.Time
}

type ExistingReviewLogRecord struct {
	ExistingRecord[ReviewLogID]
	ReviewLogRecord
}
