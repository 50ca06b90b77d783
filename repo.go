package naparnik

import (
	"context"
	"time"
)

// ReviewRepo is keyed by user. Item writes are single statements so a later
// read never observes a partial update.
type ReviewRepo interface {
	GetReviewItem(ctx context.Context, userID string, id ReviewItemID) (ExistingReviewItem, error)
	ListDue(ctx context.Context, userID string, kind ReviewKind, now time.Time) ([]ExistingReviewItem, error)
	UpsertReviewItem(ctx context.Context, item ExistingReviewItem) (ExistingReviewItem, error)
	DeleteReviewItem(ctx context.Context, userID string, id ReviewItemID) error
	InsertReviewLog(ctx context.Context, l ReviewLogRecord) (ExistingReviewLogRecord, error)
	ListReviewUsers(ctx context.Context) ([]string, error)
}

type SessionRecordRepo interface {
	AppendSessionRecord(ctx context.Context, r FocusSessionRecord) (ExistingFocusSessionRecord, error)
	ListSessionRecords(ctx context.Context, userID string, f SessionRecordFilter) ([]ExistingFocusSessionRecord, error)
}
