package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	txStdLib "github.com/Thiht/transactor/stdlib"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/naparnik/naparnik-go"
	"github.com/naparnik/naparnik-go/srs"
)

const selectAllReviewItems = "SELECT id, user_id, kind, term, translation, note, success_count, fail_count, ease_factor, interval_days, repetitions, last_reviewed, next_review, created_at, updated_at FROM review_items"

type reviewItemEntity struct {
	ID           string        `db:"id"`
	UserID       string        `db:"user_id"`
	Kind         uint8         `db:"kind"`
	Term         string        `db:"term"`
	Translation  string        `db:"translation"`
	Note         string        `db:"note"`
	SuccessCount int           `db:"success_count"`
	FailCount    int           `db:"fail_count"`
	EaseFactor   float64       `db:"ease_factor"`
	IntervalDays int           `db:"interval_days"`
	Repetitions  int           `db:"repetitions"`
	LastReviewed sql.NullInt64 `db:"last_reviewed"`
	NextReview   sql.NullInt64 `db:"next_review"`
	CreatedAt    int64         `db:"created_at"`
	UpdatedAt    int64         `db:"updated_at"`
}

type reviewLogEntity struct {
	ID         string
	ItemID     string
	UserID     string
	Success    bool
	Answer     string
	ReviewedAt int64
	CreatedAt  int64
	UpdatedAt  int64
}

type reviewRepo struct {
	dbGetter txStdLib.DBGetter
	db       *DB
	l        *log.Logger
}

var _ naparnik.ReviewRepo = (*reviewRepo)(nil)

func NewReviewRepo(db *DB, dbGetter txStdLib.DBGetter, logger *log.Logger) *reviewRepo {
	return &reviewRepo{
		dbGetter: dbGetter,
		db:       db,
		l:        logger,
	}
}

func (r *reviewRepo) GetReviewItem(ctx context.Context, userID string, id naparnik.ReviewItemID) (naparnik.ExistingReviewItem, error) {
	if id == "" {
		return naparnik.ExistingReviewItem{}, fmt.Errorf("provide id")
	}

	items, err := r.query(ctx, selectAllReviewItems+" WHERE id = ? AND user_id = ?", string(id), userID)
	if err != nil {
		return naparnik.ExistingReviewItem{}, err
	}
	if len(items) == 0 {
		return naparnik.ExistingReviewItem{}, naparnik.ErrNotFound
	}
	return items[0], nil
}

// ListDue returns the user's due items of one kind in review order.
func (r *reviewRepo) ListDue(ctx context.Context, userID string, kind naparnik.ReviewKind, now time.Time) ([]naparnik.ExistingReviewItem, error) {
	policy, err := srs.ForKind(kind)
	if err != nil {
		return nil, err
	}

	query := selectAllReviewItems + " WHERE user_id = ? AND kind = ? AND (next_review IS NULL OR next_review <= ?)"
	items, err := r.query(ctx, query, userID, uint8(kind), policy.DueCutoff(now).Unix())
	if err != nil {
		return nil, err
	}
	return srs.DueQueue(policy, items, now), nil
}

func (r *reviewRepo) UpsertReviewItem(ctx context.Context, item naparnik.ExistingReviewItem) (naparnik.ExistingReviewItem, error) {
	if item.UserID == "" {
		return naparnik.ExistingReviewItem{}, fmt.Errorf("provide required field 'UserID'")
	}
	if item.ID == "" {
		item.ExistingRecord = naparnik.NewExistingRecord[naparnik.ReviewItemID](uuid.NewString())
	}
	if item.UpdatedAt.IsZero() {
		item.UpdatedAt = time.Now()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = item.UpdatedAt
	}
	e := mapToReviewItemEntity(item)

	args := []any{
		e.ID,
		e.UserID,
		e.Kind,
		e.Term,
		e.Translation,
		e.Note,
		e.SuccessCount,
		e.FailCount,
		e.EaseFactor,
		e.IntervalDays,
		e.Repetitions,
		e.LastReviewed,
		e.NextReview,
		e.CreatedAt,
		e.UpdatedAt,
	}
	query := `INSERT INTO review_items (id, user_id, kind, term, translation, note, success_count, fail_count, ease_factor, interval_days, repetitions, last_reviewed, next_review, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
	term = excluded.term,
	translation = excluded.translation,
	note = excluded.note,
	success_count = excluded.success_count,
	fail_count = excluded.fail_count,
	ease_factor = excluded.ease_factor,
	interval_days = excluded.interval_days,
	repetitions = excluded.repetitions,
	last_reviewed = excluded.last_reviewed,
	next_review = excluded.next_review,
	updated_at = excluded.updated_at
WHERE review_items.user_id = excluded.user_id`
	r.l.Debug("upserting review item", "query", query, "args", args)
	res, err := r.dbGetter(ctx).ExecContext(ctx, r.db.rebind(query), args...)
	if err != nil {
		return naparnik.ExistingReviewItem{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// id belongs to another user
		return naparnik.ExistingReviewItem{}, naparnik.ErrNotFound
	}
	return item, nil
}

func (r *reviewRepo) DeleteReviewItem(ctx context.Context, userID string, id naparnik.ReviewItemID) error {
	query := "DELETE FROM review_items WHERE id = ? AND user_id = ?"
	r.l.Debug("deleting review item", "query", query, "id", id, "uid", userID)
	res, err := r.dbGetter(ctx).ExecContext(ctx, r.db.rebind(query), string(id), userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return naparnik.ErrNotFound
	}
	return nil
}

func (r *reviewRepo) InsertReviewLog(ctx context.Context, l naparnik.ReviewLogRecord) (naparnik.ExistingReviewLogRecord, error) {
	if l.ItemID == "" {
		return naparnik.ExistingReviewLogRecord{}, fmt.Errorf("provide required field 'ItemID'")
	}
	existing := naparnik.ExistingReviewLogRecord{
		ExistingRecord:  naparnik.NewExistingRecord[naparnik.ReviewLogID](uuid.NewString()),
		ReviewLogRecord: l,
	}
	if existing.ReviewedAt.IsZero() {
		existing.ReviewedAt = existing.CreatedAt
	}
	e := reviewLogEntity{
		ID:         string(existing.ID),
		ItemID:     string(existing.ItemID),
		UserID:     existing.UserID,
		Success:    existing.Success,
		Answer:     existing.Answer,
		ReviewedAt: existing.ReviewedAt.Unix(),
		CreatedAt:  existing.CreatedAt.Unix(),
		UpdatedAt:  existing.UpdatedAt.Unix(),
	}

	args := []any{e.ID, e.ItemID, e.UserID, e.Success, e.Answer, e.ReviewedAt, e.CreatedAt, e.UpdatedAt}
	query := "INSERT INTO review_logs (id, item_id, user_id, success, answer, reviewed_at, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)"
	r.l.Debug("creating review log", "query", query, "args", args)
	if _, err := r.dbGetter(ctx).ExecContext(ctx, r.db.rebind(query), args...); err != nil {
		return naparnik.ExistingReviewLogRecord{}, err
	}
	return existing, nil
}

func (r *reviewRepo) ListReviewUsers(ctx context.Context) ([]string, error) {
	query := "SELECT DISTINCT user_id FROM review_items ORDER BY user_id"
	rows, err := r.dbGetter(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint

	var users []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *reviewRepo) query(ctx context.Context, query string, args ...any) ([]naparnik.ExistingReviewItem, error) {
	r.l.Debug("getting review items", "query", query, "args", args)
	rows, err := r.dbGetter(ctx).QueryContext(ctx, r.db.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint

	var entities []reviewItemEntity
	if err := sqlx.StructScan(rows, &entities); err != nil {
		return nil, err
	}

	items := make([]naparnik.ExistingReviewItem, 0, len(entities))
	for _, e := range entities {
		items = append(items, mapToExistingReviewItem(e))
	}
	return items, nil
}

func mapToReviewItemEntity(item naparnik.ExistingReviewItem) reviewItemEntity {
	return reviewItemEntity{
		ID:           string(item.ID),
		UserID:       item.UserID,
		Kind:         uint8(item.Kind),
		Term:         item.Term,
		Translation:  item.Translation,
		Note:         item.Note,
		SuccessCount: item.SuccessCount,
		FailCount:    item.FailCount,
		EaseFactor:   item.EaseFactor,
		IntervalDays: item.IntervalDays,
		Repetitions:  item.Repetitions,
		LastReviewed: nullUnix(item.LastReviewed),
		NextReview:   nullUnix(item.NextReview),
		CreatedAt:    item.CreatedAt.Unix(),
		UpdatedAt:    item.UpdatedAt.Unix(),
	}
}

func mapToExistingReviewItem(e reviewItemEntity) naparnik.ExistingReviewItem {
	return naparnik.ExistingReviewItem{
		ExistingRecord: naparnik.ExistingRecord[naparnik.ReviewItemID]{
			ID:        naparnik.ReviewItemID(e.ID),
			CreatedAt: time.Unix(e.CreatedAt, 0),
			UpdatedAt: time.Unix(e.UpdatedAt, 0),
		},
		ReviewItemRecord: naparnik.ReviewItemRecord{
			UserID:       e.UserID,
			Kind:         naparnik.ReviewKind(e.Kind),
			Term:         e.Term,
			Translation:  e.Translation,
			Note:         e.Note,
			SuccessCount: e.SuccessCount,
			FailCount:    e.FailCount,
			ReviewState: naparnik.ReviewState{
				EaseFactor:   e.EaseFactor,
				IntervalDays: e.IntervalDays,
				Repetitions:  e.Repetitions,
				LastReviewed: fromNullUnix(e.LastReviewed),
				NextReview:   fromNullUnix(e.NextReview),
			},
		},
	}
}

func nullUnix(t time.Time) sql.NullInt64 {
	if t.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}

func fromNullUnix(n sql.NullInt64) time.Time {
	if !n.Valid {
		return time.Time{}
	}
	return time.Unix(n.Int64, 0)
}
