package sqlstore

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/Thiht/transactor"
	txStdLib "github.com/Thiht/transactor/stdlib"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naparnik/naparnik-go"
)

type testStore struct {
	db       *DB
	tx       transactor.Transactor
	reviews  *reviewRepo
	sessions *sessionRepo
}

func newTestStore(t *testing.T) testStore {
	t.Helper()

	db, err := Open("sqlite://" + filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate(context.Background()))

	tx, dbGetter := txStdLib.NewTransactor(db.DB, txStdLib.NestedTransactionsSavepoints)
	logger := log.New(io.Discard)
	return testStore{
		db:       db,
		tx:       tx,
		reviews:  NewReviewRepo(db, dbGetter, logger),
		sessions: NewSessionRepo(db, dbGetter, logger),
	}
}

func newWord(userID, term string, s naparnik.ReviewState) naparnik.ExistingReviewItem {
	return naparnik.ExistingReviewItem{
		ReviewItemRecord: naparnik.ReviewItemRecord{
			UserID:      userID,
			Kind:        naparnik.WordKind,
			Term:        term,
			Translation: term + "-tr",
			ReviewState: s,
		},
	}
}

func TestOpen_RejectsUnknownScheme(t *testing.T) {
	t.Parallel()

	_, err := Open("mysql://localhost/db")
	assert.Error(t, err)
}

func TestMigrate_Idempotent(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	assert.NoError(t, s.db.Migrate(context.Background()))
}

func TestReviewRepo_RoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)
	next := time.Date(2024, 5, 20, 0, 0, 0, 0, time.Local)
	last := time.Date(2024, 5, 14, 15, 30, 0, 0, time.Local)

	w := newWord("u1", "serendipity", naparnik.ReviewState{EaseFactor: 2.36, IntervalDays: 6, Repetitions: 2, LastReviewed: last, NextReview: next})
	w.Note = "a happy accident"
	w.SuccessCount = 4

	created, err := s.reviews.UpsertReviewItem(ctx, w)
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	got, err := s.reviews.GetReviewItem(ctx, "u1", created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "serendipity", got.Term)
	assert.Equal(t, "a happy accident", got.Note)
	assert.Equal(t, naparnik.WordKind, got.Kind)
	assert.Equal(t, 4, got.SuccessCount)
	assert.InDelta(t, 2.36, got.EaseFactor, 1e-9)
	assert.Equal(t, 6, got.IntervalDays)
	assert.Equal(t, 2, got.Repetitions)
	assert.True(t, next.Equal(got.NextReview))
	assert.True(t, last.Equal(got.LastReviewed))

	got.IntervalDays = 1
	got.Repetitions = 0
	got.FailCount = 1
	got.NextReview = time.Time{}
	_, err = s.reviews.UpsertReviewItem(ctx, got)
	require.NoError(t, err)

	updated, err := s.reviews.GetReviewItem(ctx, "u1", created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.IntervalDays)
	assert.Equal(t, 1, updated.FailCount)
	assert.True(t, updated.NextReview.IsZero())
	assert.Equal(t, created.CreatedAt.Unix(), updated.CreatedAt.Unix())
}

func TestReviewRepo_IsolatedByUser(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)

	created, err := s.reviews.UpsertReviewItem(ctx, newWord("u1", "hello", naparnik.NewReviewState(time.Now())))
	require.NoError(t, err)

	_, err = s.reviews.GetReviewItem(ctx, "u2", created.ID)
	assert.ErrorIs(t, err, naparnik.ErrNotFound)

	hijack := created
	hijack.UserID = "u2"
	hijack.Term = "stolen"
	_, err = s.reviews.UpsertReviewItem(ctx, hijack)
	assert.ErrorIs(t, err, naparnik.ErrNotFound)

	assert.ErrorIs(t, s.reviews.DeleteReviewItem(ctx, "u2", created.ID), naparnik.ErrNotFound)

	got, err := s.reviews.GetReviewItem(ctx, "u1", created.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Term)
}

func TestReviewRepo_Delete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)

	created, err := s.reviews.UpsertReviewItem(ctx, newWord("u1", "ephemeral", naparnik.NewReviewState(time.Now())))
	require.NoError(t, err)
	_, err = s.reviews.InsertReviewLog(ctx, naparnik.ReviewLogRecord{ItemID: created.ID, UserID: "u1", Success: true})
	require.NoError(t, err)

	require.NoError(t, s.reviews.DeleteReviewItem(ctx, "u1", created.ID))
	_, err = s.reviews.GetReviewItem(ctx, "u1", created.ID)
	assert.ErrorIs(t, err, naparnik.ErrNotFound)
	assert.ErrorIs(t, s.reviews.DeleteReviewItem(ctx, "u1", created.ID), naparnik.ErrNotFound)
}

func TestReviewRepo_ListDue(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)
	now := time.Date(2024, 5, 14, 15, 30, 0, 0, time.Local)
	day := func(d int) time.Time { return time.Date(2024, 5, d, 0, 0, 0, 0, time.Local) }

	words := []naparnik.ExistingReviewItem{
		newWord("u1", "easy", naparnik.ReviewState{EaseFactor: 2.4, IntervalDays: 6, Repetitions: 3, NextReview: day(10)}),
		newWord("u1", "hard", naparnik.ReviewState{EaseFactor: 1.5, IntervalDays: 2, Repetitions: 2, NextReview: day(13)}),
		newWord("u1", "tomorrow", naparnik.ReviewState{EaseFactor: 2.5, IntervalDays: 1, Repetitions: 0, NextReview: day(15)}),
		newWord("u1", "new", naparnik.ReviewState{EaseFactor: 2.5, IntervalDays: 1, Repetitions: 0, NextReview: day(14)}),
		newWord("u1", "unscheduled", naparnik.ReviewState{EaseFactor: 2.5, IntervalDays: 1}),
		newWord("u2", "other user", naparnik.ReviewState{EaseFactor: 2.5, IntervalDays: 1, NextReview: day(1)}),
	}
	phrase := naparnik.ExistingReviewItem{ReviewItemRecord: naparnik.ReviewItemRecord{
		UserID: "u1", Kind: naparnik.PhraseKind, Term: "later today",
		ReviewState: naparnik.ReviewState{EaseFactor: 2.5, IntervalDays: 1, NextReview: now.Add(time.Hour)},
	}}
	duePhrase := naparnik.ExistingReviewItem{ReviewItemRecord: naparnik.ReviewItemRecord{
		UserID: "u1", Kind: naparnik.PhraseKind, Term: "an hour ago",
		ReviewState: naparnik.ReviewState{EaseFactor: 2.5, IntervalDays: 1, NextReview: now.Add(-time.Hour)},
	}}
	for _, it := range append(words, phrase, duePhrase) {
		_, err := s.reviews.UpsertReviewItem(ctx, it)
		require.NoError(t, err)
	}

	due, err := s.reviews.ListDue(ctx, "u1", naparnik.WordKind, now)
	require.NoError(t, err)
	terms := make([]string, 0, len(due))
	for _, it := range due {
		terms = append(terms, it.Term)
	}
	assert.Equal(t, []string{"unscheduled", "new", "hard", "easy"}, terms)

	duePhrases, err := s.reviews.ListDue(ctx, "u1", naparnik.PhraseKind, now)
	require.NoError(t, err)
	require.Len(t, duePhrases, 1)
	assert.Equal(t, "an hour ago", duePhrases[0].Term)

	users, err := s.reviews.ListReviewUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, users)
}

func TestReviewRepo_TransactionRollback(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)

	created, err := s.reviews.UpsertReviewItem(ctx, newWord("u1", "atomic", naparnik.ReviewState{EaseFactor: 2.5, IntervalDays: 6, Repetitions: 2}))
	require.NoError(t, err)

	boom := errors.New("boom")
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		changed := created
		changed.IntervalDays = 15
		if _, err := s.reviews.UpsertReviewItem(ctx, changed); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := s.reviews.GetReviewItem(ctx, "u1", created.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, got.IntervalDays)
}

func TestSessionRepo_AppendAndList(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)

	records := []naparnik.FocusSessionRecord{
		{UserID: "u1", Domain: "work", TaskType: "coding", PlannedMinutes: 20, ActualMinutes: 20, Status: naparnik.SessionCompleted, FocusQuality: naparnik.FocusOK, Description: "parser"},
		{UserID: "u1", Domain: "work", TaskType: "email", PlannedMinutes: 20, ActualMinutes: 8, Status: naparnik.SessionDropped, FocusQuality: naparnik.FocusLost},
		{UserID: "u1", Domain: "study", TaskType: "reading", PlannedMinutes: 25, ActualMinutes: 25, Status: naparnik.SessionCompleted, FocusQuality: naparnik.FocusPartial},
		{UserID: "u2", Domain: "work", TaskType: "coding", PlannedMinutes: 30, ActualMinutes: 30, Status: naparnik.SessionCompleted, FocusQuality: naparnik.FocusOK},
	}
	for _, r := range records {
		_, err := s.sessions.AppendSessionRecord(ctx, r)
		require.NoError(t, err)
	}

	all, err := s.sessions.ListSessionRecords(ctx, "u1", naparnik.SessionRecordFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	work, err := s.sessions.ListSessionRecords(ctx, "u1", naparnik.SessionRecordFilter{Domain: "work"})
	require.NoError(t, err)
	assert.Len(t, work, 2)

	coding, err := s.sessions.ListSessionRecords(ctx, "u1", naparnik.SessionRecordFilter{Domain: "work", TaskType: "coding", SinceDays: 30})
	require.NoError(t, err)
	require.Len(t, coding, 1)
	assert.Equal(t, "parser", coding[0].Description)
	assert.Equal(t, naparnik.SessionCompleted, coding[0].Status)
	assert.Equal(t, naparnik.FocusOK, coding[0].FocusQuality)
	assert.Equal(t, 20, coding[0].PlannedMinutes)

	s.sessions.now = func() time.Time { return time.Now().AddDate(0, 0, 60) }
	old, err := s.sessions.ListSessionRecords(ctx, "u1", naparnik.SessionRecordFilter{SinceDays: 30})
	require.NoError(t, err)
	assert.Empty(t, old)
}
