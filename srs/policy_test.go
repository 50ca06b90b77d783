package srs

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/naparnik/naparnik-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 5, 14, 15, 30, 0, 0, time.Local)

func TestWordPolicy_Advance(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      naparnik.ReviewState
		outcome Outcome
		want    naparnik.ReviewState
	}{
		{
			name:    "success grows by ease",
			in:      naparnik.ReviewState{EaseFactor: 2.5, IntervalDays: 6, Repetitions: 2},
			outcome: Success,
			want:    naparnik.ReviewState{EaseFactor: 2.44, IntervalDays: 15, Repetitions: 3},
		},
		{
			name:    "first success",
			in:      naparnik.ReviewState{EaseFactor: 2.5, IntervalDays: 1, Repetitions: 0},
			outcome: Success,
			want:    naparnik.ReviewState{EaseFactor: 2.44, IntervalDays: 1, Repetitions: 1},
		},
		{
			name:    "second success",
			in:      naparnik.ReviewState{EaseFactor: 2.44, IntervalDays: 1, Repetitions: 1},
			outcome: Success,
			want:    naparnik.ReviewState{EaseFactor: 2.38, IntervalDays: 6, Repetitions: 2},
		},
		{
			name:    "failure resets",
			in:      naparnik.ReviewState{EaseFactor: 2.0, IntervalDays: 10, Repetitions: 4},
			outcome: Fail,
			want:    naparnik.ReviewState{EaseFactor: 1.8, IntervalDays: 1, Repetitions: 0},
		},
		{
			name:    "ease floor",
			in:      naparnik.ReviewState{EaseFactor: 1.3, IntervalDays: 3, Repetitions: 3},
			outcome: Success,
			want:    naparnik.ReviewState{EaseFactor: 1.3, IntervalDays: 3, Repetitions: 4},
		},
		{
			name:    "out of range ease is clamped first",
			in:      naparnik.ReviewState{EaseFactor: 9, IntervalDays: 2, Repetitions: 2},
			outcome: Success,
			want:    naparnik.ReviewState{EaseFactor: 2.44, IntervalDays: 5, Repetitions: 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := WordPolicy{}.Advance(tt.in, tt.outcome, now)
			require.NoError(t, err)
			assert.InDelta(t, tt.want.EaseFactor, got.EaseFactor, 1e-9)
			assert.Equal(t, tt.want.IntervalDays, got.IntervalDays)
			assert.Equal(t, tt.want.Repetitions, got.Repetitions)
			assert.Equal(t, now, got.LastReviewed)
			wantNext := time.Date(2024, 5, 14+tt.want.IntervalDays, 0, 0, 0, 0, time.Local)
			assert.Equal(t, wantNext, got.NextReview)
		})
	}
}

func TestPhrasePolicy_Advance(t *testing.T) {
	t.Parallel()

	got, err := PhrasePolicy{}.Advance(naparnik.ReviewState{EaseFactor: 2.3, IntervalDays: 4}, Success, now)
	require.NoError(t, err)
	assert.InDelta(t, 2.45, got.EaseFactor, 1e-9)
	assert.Equal(t, 9, got.IntervalDays)
	assert.Equal(t, now.AddDate(0, 0, 9), got.NextReview)
	assert.Equal(t, 0, got.Repetitions)

	got, err = PhrasePolicy{}.Advance(naparnik.ReviewState{EaseFactor: 2.45, IntervalDays: 9}, Fail, now)
	require.NoError(t, err)
	assert.InDelta(t, 2.25, got.EaseFactor, 1e-9)
	assert.Equal(t, 1, got.IntervalDays)
	assert.Equal(t, now.AddDate(0, 0, 1), got.NextReview)

	got, err = PhrasePolicy{}.Advance(naparnik.ReviewState{EaseFactor: 2.5, IntervalDays: 1}, Success, now)
	require.NoError(t, err)
	assert.InDelta(t, 2.5, got.EaseFactor, 1e-9)
	assert.Equal(t, 2, got.IntervalDays)
}

func TestAdvance_RejectsInvalidState(t *testing.T) {
	t.Parallel()

	for _, p := range []ReviewPolicy{WordPolicy{}, PhrasePolicy{}} {
		_, err := p.Advance(naparnik.ReviewState{EaseFactor: 2.5, IntervalDays: 0}, Success, now)
		assert.ErrorIs(t, err, ErrInvalidState)

		_, err = p.Advance(naparnik.ReviewState{EaseFactor: 2.5, IntervalDays: -3}, Fail, now)
		assert.ErrorIs(t, err, ErrInvalidState)

		_, err = p.Advance(naparnik.ReviewState{EaseFactor: 2.5, IntervalDays: 1, Repetitions: -1}, Success, now)
		assert.ErrorIs(t, err, ErrInvalidState)
	}
}

func TestAdvance_StaysInBounds(t *testing.T) {
	t.Parallel()

	r := rand.New(rand.NewPCG(1, 2))
	for _, p := range []ReviewPolicy{WordPolicy{}, PhrasePolicy{}} {
		s := naparnik.ReviewState{EaseFactor: r.Float64() * 10, IntervalDays: 1}
		for range 500 {
			var err error
			s, err = p.Advance(s, Outcome(r.IntN(2) == 1), now)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, s.EaseFactor, naparnik.MinEaseFactor)
			assert.LessOrEqual(t, s.EaseFactor, naparnik.MaxEaseFactor)
			assert.GreaterOrEqual(t, s.IntervalDays, 1)
			assert.GreaterOrEqual(t, s.Repetitions, 0)
			// keep intervals from overflowing on long success streaks
			if s.IntervalDays > 10000 {
				s.IntervalDays = 1
			}
		}
	}
}

func TestIsDue_DateVersusTimestamp(t *testing.T) {
	t.Parallel()

	laterToday := time.Date(2024, 5, 14, 23, 0, 0, 0, time.Local)
	tomorrow := time.Date(2024, 5, 15, 0, 0, 0, 0, time.Local)

	assert.True(t, WordPolicy{}.IsDue(naparnik.ReviewState{}, now))
	assert.True(t, WordPolicy{}.IsDue(naparnik.ReviewState{NextReview: laterToday}, now))
	assert.False(t, WordPolicy{}.IsDue(naparnik.ReviewState{NextReview: tomorrow}, now))

	assert.False(t, PhrasePolicy{}.IsDue(naparnik.ReviewState{NextReview: laterToday}, now))
	assert.True(t, PhrasePolicy{}.IsDue(naparnik.ReviewState{NextReview: now}, now))
	assert.True(t, PhrasePolicy{}.IsDue(naparnik.ReviewState{NextReview: now.Add(-time.Minute)}, now))
}

func TestForKind(t *testing.T) {
	t.Parallel()

	p, err := ForKind(naparnik.WordKind)
	require.NoError(t, err)
	assert.IsType(t, WordPolicy{}, p)

	p, err = ForKind(naparnik.PhraseKind)
	require.NoError(t, err)
	assert.IsType(t, PhrasePolicy{}, p)

	_, err = ForKind(0)
	assert.Error(t, err)
}

func TestInitial(t *testing.T) {
	t.Parallel()

	w := WordPolicy{}.Initial(now)
	assert.Equal(t, time.Date(2024, 5, 14, 0, 0, 0, 0, time.Local), w.NextReview)
	assert.Equal(t, naparnik.DefaultEaseFactor, w.EaseFactor)
	assert.Equal(t, 1, w.IntervalDays)

	p := PhrasePolicy{}.Initial(now)
	assert.Equal(t, now, p.NextReview)
	assert.True(t, PhrasePolicy{}.IsDue(p, now))
}
