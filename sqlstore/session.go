package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	txStdLib "github.com/Thiht/transactor/stdlib"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/naparnik/naparnik-go"
)

const selectAllFocusSessions = "SELECT id, user_id, domain, task_type, planned_minutes, actual_minutes, status, focus_quality, description, created_at, updated_at FROM focus_sessions"

type focusSessionEntity struct {
	ID             string `db:"id"`
	UserID         string `db:"user_id"`
	Domain         string `db:"domain"`
	TaskType       string `db:"task_type"`
	PlannedMinutes int    `db:"planned_minutes"`
	ActualMinutes  int    `db:"actual_minutes"`
	Status         string `db:"status"`
	FocusQuality   string `db:"focus_quality"`
	Description    string `db:"description"`
	CreatedAt      int64  `db:"created_at"`
	UpdatedAt      int64  `db:"updated_at"`
}

type sessionRepo struct {
	dbGetter txStdLib.DBGetter
	db       *DB
	l        *log.Logger
	now      func() time.Time
}

var _ naparnik.SessionRecordRepo = (*sessionRepo)(nil)

func NewSessionRepo(db *DB, dbGetter txStdLib.DBGetter, logger *log.Logger) *sessionRepo {
	return &sessionRepo{
		dbGetter: dbGetter,
		db:       db,
		l:        logger,
		now:      time.Now,
	}
}

func (r *sessionRepo) AppendSessionRecord(ctx context.Context, s naparnik.FocusSessionRecord) (naparnik.ExistingFocusSessionRecord, error) {
	if s.UserID == "" {
		return naparnik.ExistingFocusSessionRecord{}, fmt.Errorf("provide required field 'UserID'")
	}
	existing := naparnik.ExistingFocusSessionRecord{
		ExistingRecord:     naparnik.NewExistingRecord[naparnik.SessionRecordID](uuid.NewString()),
		FocusSessionRecord: s,
	}
	e := mapToFocusSessionEntity(existing)

	args := []any{
		e.ID,
		e.UserID,
		e.Domain,
		e.TaskType,
		e.PlannedMinutes,
		e.ActualMinutes,
		e.Status,
		e.FocusQuality,
		e.Description,
		e.CreatedAt,
		e.UpdatedAt,
	}
	query := "INSERT INTO focus_sessions (id, user_id, domain, task_type, planned_minutes, actual_minutes, status, focus_quality, description, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
	r.l.Debug("creating focus session", "query", query, "args", args)
	if _, err := r.dbGetter(ctx).ExecContext(ctx, r.db.rebind(query), args...); err != nil {
		return naparnik.ExistingFocusSessionRecord{}, err
	}
	return existing, nil
}

// ListSessionRecords returns matching records oldest first.
func (r *sessionRepo) ListSessionRecords(ctx context.Context, userID string, f naparnik.SessionRecordFilter) ([]naparnik.ExistingFocusSessionRecord, error) {
	where := []string{"user_id = ?"}
	args := []any{userID}
	if f.Domain != "" {
		where = append(where, "domain = ?")
		args = append(args, f.Domain)
	}
	if f.TaskType != "" {
		where = append(where, "task_type = ?")
		args = append(args, f.TaskType)
	}
	if since := f.Since(r.now()); !since.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, since.Unix())
	}
	query := fmt.Sprintf("%s WHERE %s ORDER BY created_at, id", selectAllFocusSessions, strings.Join(where, " AND "))

	r.l.Debug("getting focus sessions", "query", query, "args", args)
	rows, err := r.dbGetter(ctx).QueryContext(ctx, r.db.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint

	var entities []focusSessionEntity
	if err := sqlx.StructScan(rows, &entities); err != nil {
		return nil, err
	}

	records := make([]naparnik.ExistingFocusSessionRecord, 0, len(entities))
	for _, e := range entities {
		records = append(records, mapToExistingFocusSessionRecord(e))
	}
	return records, nil
}

func mapToFocusSessionEntity(s naparnik.ExistingFocusSessionRecord) focusSessionEntity {
	return focusSessionEntity{
		ID:             string(s.ID),
		UserID:         s.UserID,
		Domain:         s.Domain,
		TaskType:       s.TaskType,
		PlannedMinutes: s.PlannedMinutes,
		ActualMinutes:  s.ActualMinutes,
		Status:         string(s.Status),
		FocusQuality:   string(s.FocusQuality),
		Description:    s.Description,
		CreatedAt:      s.CreatedAt.Unix(),
		UpdatedAt:      s.UpdatedAt.Unix(),
	}
}

func mapToExistingFocusSessionRecord(e focusSessionEntity) naparnik.ExistingFocusSessionRecord {
	return naparnik.ExistingFocusSessionRecord{
		ExistingRecord: naparnik.ExistingRecord[naparnik.SessionRecordID]{
			ID:        naparnik.SessionRecordID(e.ID),
			CreatedAt: time.Unix(e.CreatedAt, 0),
			UpdatedAt: time.Unix(e.UpdatedAt, 0),
		},
		FocusSessionRecord: naparnik.FocusSessionRecord{
			UserID:         e.UserID,
			Domain:         e.Domain,
			TaskType:       e.TaskType,
			PlannedMinutes: e.PlannedMinutes,
			ActualMinutes:  e.ActualMinutes,
			Status:         naparnik.SessionStatus(e.Status),
			FocusQuality:   naparnik.FocusQuality(e.FocusQuality),
			Description:    e.Description,
		},
	}
}
