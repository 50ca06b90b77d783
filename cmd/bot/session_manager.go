package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Thiht/transactor"
	"github.com/charmbracelet/log"

	"github.com/naparnik/naparnik-go"
	"github.com/naparnik/naparnik-go/estimate"
	"github.com/naparnik/naparnik-go/srs"
	"github.com/naparnik/naparnik-go/timer"
)

type startSessionRequest struct {
	userID, domain, taskType string
	// replace cancels a running session instead of failing with ErrAlreadyRunning
	replace bool
}

type SessionManager interface {
	HasSession(userID string) bool
	SessionSnapshot(userID string) (SessionInfo, bool)
	StartSession(context.Context, startSessionRequest) (SessionInfo, error)
	PauseSession(userID string) (SessionInfo, bool)
	ResumeSession(userID string) (SessionInfo, bool)
	CancelSession(userID string) (SessionInfo, bool)
	RecordOutcome(ctx context.Context, userID string, q naparnik.FocusQuality, description string) (naparnik.ExistingFocusSessionRecord, error)

	AddReviewItem(ctx context.Context, userID string, kind naparnik.ReviewKind, term, translation, note string) (naparnik.ExistingReviewItem, error)
	DueItems(ctx context.Context, userID string, kind naparnik.ReviewKind) ([]naparnik.ExistingReviewItem, error)
	ReviewItem(ctx context.Context, userID string, id naparnik.ReviewItemID, o srs.Outcome, answer string) (naparnik.ExistingReviewItem, error)
	DeleteReviewItem(ctx context.Context, userID string, id naparnik.ReviewItemID) error
	SeedPhrases(ctx context.Context, userID string) (int, error)

	Shutdown()
}

type sessionManager struct {
	reviewRepo  naparnik.ReviewRepo
	sessionRepo naparnik.SessionRecordRepo
	tx          transactor.Transactor
	engine      *timer.Engine
	l           *log.Logger

	cache     *sessionCache
	wg        sync.WaitGroup
	parentCtx context.Context
	cancel    context.CancelFunc

	historyDays int
	now         func() time.Time
}

func NewSessionManager(
	ctx context.Context,
	reviewRepo naparnik.ReviewRepo,
	sessionRepo naparnik.SessionRecordRepo,
	tx transactor.Transactor,
	engine *timer.Engine,
	historyDays int,
	logger *log.Logger,
) *sessionManager {
	parentCtx, cancel := context.WithCancel(ctx)
	return &sessionManager{
		reviewRepo:  reviewRepo,
		sessionRepo: sessionRepo,
		tx:          tx,
		engine:      engine,
		l:           logger,
		cache:       newSessionCache(),
		parentCtx:   parentCtx,
		cancel:      cancel,
		historyDays: historyDays,
		now:         time.Now,
	}
}

func (m *sessionManager) HasSession(userID string) bool {
	u, unlock := m.cache.Get(userID)
	if u == nil {
		return false
	}
	defer unlock()
	return u.active != nil
}

func (m *sessionManager) SessionSnapshot(userID string) (SessionInfo, bool) {
	u, unlock := m.cache.Get(userID)
	if u == nil {
		return SessionInfo{}, false
	}
	defer unlock()
	if u.active == nil {
		return SessionInfo{}, false
	}
	return u.active.info(), true
}

func (m *sessionManager) StartSession(ctx context.Context, req startSessionRequest) (SessionInfo, error) {
	if req.userID == "" {
		return SessionInfo{}, fmt.Errorf("startSessionRequest requires userID")
	}
	domain, taskType := normalize(req.domain), normalize(req.taskType)
	if domain == "" || taskType == "" {
		return SessionInfo{}, fmt.Errorf("startSessionRequest requires domain and task type")
	}

	u, unlock := m.cache.GetOrCreate(req.userID)
	defer unlock()

	m.settle(req.userID, u)
	if u.active != nil && !req.replace {
		return SessionInfo{}, naparnik.ErrAlreadyRunning
	}

	history, err := m.sessionRepo.ListSessionRecords(ctx, req.userID, naparnik.SessionRecordFilter{
		Domain:   domain,
		TaskType: taskType,
	})
	if err != nil {
		return SessionInfo{}, fmt.Errorf("%w: failed to list session history: %w", naparnik.ErrPersistence, err)
	}
	// the average uses all history, only the trend is windowed
	var trendSince time.Time
	if m.historyDays > 0 {
		trendSince = m.now().AddDate(0, 0, -m.historyDays)
	}
	planned := estimate.PlannedMinutesSince(domain, taskType, history, trendSince)

	if u.active != nil {
		u.active.handle.Cancel()
		m.l.Info("replaced running session", "uid", req.userID, "domain", u.active.domain)
		u.active = nil
	}
	u.pending = nil

	h, err := m.engine.Start(m.parentCtx, req.userID, planned)
	if err != nil {
		return SessionInfo{}, fmt.Errorf("failed to start timer: %w", err)
	}
	u.active = &Session{
		handle:         h,
		domain:         domain,
		taskType:       taskType,
		plannedMinutes: planned,
		startedAt:      m.now(),
	}
	m.watch(req.userID, h)

	m.l.Info("started session", "uid", req.userID, "domain", domain, "taskType", taskType, "planned", planned, "history", len(history))
	return u.active.info(), nil
}

// watch parks the session as awaiting outcome once its timer loop exits.
func (m *sessionManager) watch(userID string, h *timer.Handle) {
	m.wg.Go(func() {
		<-h.Done()
		u, unlock := m.cache.Get(userID)
		if u == nil {
			return
		}
		defer unlock()
		if u.active == nil || u.active.handle != h {
			// cancelled or replaced
			return
		}
		u.pending = newPendingOutcome(u.active)
		u.active = nil
		m.l.Debug("session awaiting outcome", "uid", userID, "state", u.pending.State)
	})
}

// settle parks a completed session whose watcher has not run yet. The
// completion message goes out before the timer loop exits, so an outcome can
// arrive first. Callers hold the user lock.
func (m *sessionManager) settle(userID string, u *userSessions) {
	if u.active == nil || u.active.handle.State() != timer.Completed {
		return
	}
	u.pending = newPendingOutcome(u.active)
	u.active = nil
	m.l.Debug("session awaiting outcome", "uid", userID, "state", u.pending.State)
}

func (m *sessionManager) PauseSession(userID string) (SessionInfo, bool) {
	return m.withActive(userID, func(s *Session) bool { return s.handle.Pause() })
}

func (m *sessionManager) ResumeSession(userID string) (SessionInfo, bool) {
	return m.withActive(userID, func(s *Session) bool { return s.handle.Resume() })
}

// CancelSession stops the user's timer and parks it as a dropped outcome
// candidate. A timer that already completed is parked as completed. Unknown
// users are a no-op.
func (m *sessionManager) CancelSession(userID string) (SessionInfo, bool) {
	u, unlock := m.cache.Get(userID)
	if u == nil {
		return SessionInfo{}, false
	}
	defer unlock()
	if u.active == nil {
		return SessionInfo{}, false
	}

	u.active.handle.Cancel()
	u.pending = newPendingOutcome(u.active)
	u.active = nil
	m.l.Info("cancelled session", "uid", userID, "elapsed", u.pending.ElapsedSeconds, "state", u.pending.State)
	return u.pending.SessionInfo, true
}

func (m *sessionManager) withActive(userID string, fn func(*Session) bool) (SessionInfo, bool) {
	u, unlock := m.cache.Get(userID)
	if u == nil {
		return SessionInfo{}, false
	}
	defer unlock()
	if u.active == nil {
		return SessionInfo{}, false
	}
	ok := fn(u.active)
	return u.active.info(), ok
}

// RecordOutcome persists the pending outcome. The pending outcome is kept
// when the write fails so the call can be retried.
func (m *sessionManager) RecordOutcome(ctx context.Context, userID string, q naparnik.FocusQuality, description string) (naparnik.ExistingFocusSessionRecord, error) {
	u, unlock := m.cache.Get(userID)
	if u == nil {
		return naparnik.ExistingFocusSessionRecord{}, naparnik.ErrNotFound
	}
	defer unlock()
	m.settle(userID, u)
	if u.pending == nil {
		return naparnik.ExistingFocusSessionRecord{}, naparnik.ErrNotFound
	}

	rec := u.pending.toRecord(userID, q, strings.TrimSpace(description))
	var inserted naparnik.ExistingFocusSessionRecord
	err := m.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		inserted, err = m.sessionRepo.AppendSessionRecord(ctx, rec)
		return err
	})
	if err != nil {
		return naparnik.ExistingFocusSessionRecord{}, fmt.Errorf("%w: failed to record outcome: %w", naparnik.ErrPersistence, err)
	}
	u.pending = nil
	m.l.Info("recorded session outcome", "uid", userID, "status", rec.Status, "quality", q, "actual", rec.ActualMinutes)
	return inserted, nil
}

// Review

func (m *sessionManager) AddReviewItem(ctx context.Context, userID string, kind naparnik.ReviewKind, term, translation, note string) (naparnik.ExistingReviewItem, error) {
	term, translation = strings.TrimSpace(term), strings.TrimSpace(translation)
	if term == "" || translation == "" {
		return naparnik.ExistingReviewItem{}, fmt.Errorf("review item requires term and translation")
	}
	policy, err := srs.ForKind(kind)
	if err != nil {
		return naparnik.ExistingReviewItem{}, err
	}

	item := naparnik.ExistingReviewItem{
		ReviewItemRecord: naparnik.ReviewItemRecord{
			UserID:      userID,
			Kind:        kind,
			Term:        term,
			Translation: translation,
			Note:        strings.TrimSpace(note),
			ReviewState: policy.Initial(m.now()),
		},
	}

	_, unlock := m.cache.GetOrCreate(userID)
	defer unlock()

	var inserted naparnik.ExistingReviewItem
	err = m.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		inserted, err = m.reviewRepo.UpsertReviewItem(ctx, item)
		return err
	})
	if err != nil {
		return naparnik.ExistingReviewItem{}, fmt.Errorf("%w: failed to add %s: %w", naparnik.ErrPersistence, kind, err)
	}
	m.l.Debug("added review item", "uid", userID, "kind", kind, "id", inserted.ID)
	return inserted, nil
}

func (m *sessionManager) DueItems(ctx context.Context, userID string, kind naparnik.ReviewKind) ([]naparnik.ExistingReviewItem, error) {
	items, err := m.reviewRepo.ListDue(ctx, userID, kind, m.now())
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list due %s items: %w", naparnik.ErrPersistence, kind, err)
	}
	return items, nil
}

// ReviewItem applies a review outcome. The item update and its log entry are
// written in one transaction and the new state is returned only after commit.
func (m *sessionManager) ReviewItem(ctx context.Context, userID string, id naparnik.ReviewItemID, o srs.Outcome, answer string) (naparnik.ExistingReviewItem, error) {
	_, unlock := m.cache.GetOrCreate(userID)
	defer unlock()

	now := m.now()
	var updated naparnik.ExistingReviewItem
	err := m.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		item, err := m.reviewRepo.GetReviewItem(ctx, userID, id)
		if err != nil {
			return err
		}
		policy, err := srs.ForKind(item.Kind)
		if err != nil {
			return err
		}
		next, err := srs.Apply(policy, item, o, now)
		if err != nil {
			return err
		}
		if updated, err = m.reviewRepo.UpsertReviewItem(ctx, next); err != nil {
			return err
		}
		_, err = m.reviewRepo.InsertReviewLog(ctx, naparnik.ReviewLogRecord{
			ItemID:     id,
			UserID:     userID,
			Success:    bool(o),
			Answer:     strings.TrimSpace(answer),
			ReviewedAt: now,
		})
		return err
	})
	switch {
	case err == nil:
	case errors.Is(err, naparnik.ErrNotFound), errors.Is(err, srs.ErrInvalidState):
		return naparnik.ExistingReviewItem{}, err
	default:
		return naparnik.ExistingReviewItem{}, fmt.Errorf("%w: failed to review item %s: %w", naparnik.ErrPersistence, id, err)
	}

	m.l.Debug("reviewed item", "uid", userID, "id", id, "success", bool(o),
		"interval", updated.IntervalDays, "ease", updated.EaseFactor, "next", updated.NextReview)
	return updated, nil
}

func (m *sessionManager) DeleteReviewItem(ctx context.Context, userID string, id naparnik.ReviewItemID) error {
	_, unlock := m.cache.GetOrCreate(userID)
	defer unlock()

	err := m.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		return m.reviewRepo.DeleteReviewItem(ctx, userID, id)
	})
	if err != nil && !errors.Is(err, naparnik.ErrNotFound) {
		return fmt.Errorf("%w: failed to delete item %s: %w", naparnik.ErrPersistence, id, err)
	}
	return err
}

// SeedPhrases adds the starter phrase deck to a user with no phrases yet.
// It returns the number of phrases added.
func (m *sessionManager) SeedPhrases(ctx context.Context, userID string) (int, error) {
	_, unlock := m.cache.GetOrCreate(userID)
	defer unlock()

	now := m.now()
	// every phrase is due a century from now
	existing, err := m.reviewRepo.ListDue(ctx, userID, naparnik.PhraseKind, now.AddDate(100, 0, 0))
	if err != nil {
		return 0, fmt.Errorf("%w: failed to list phrases: %w", naparnik.ErrPersistence, err)
	}
	if len(existing) > 0 {
		return 0, nil
	}

	records := srs.PhraseRecords(userID, srs.DefaultPhrases, now)
	err = m.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		for _, r := range records {
			if _, err := m.reviewRepo.UpsertReviewItem(ctx, naparnik.ExistingReviewItem{ReviewItemRecord: r}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: failed to seed phrases: %w", naparnik.ErrPersistence, err)
	}
	m.l.Info("seeded phrases", "uid", userID, "count", len(records))
	return len(records), nil
}

// Shutdown cancels every running timer and waits for their loops and watchers to exit.
func (m *sessionManager) Shutdown() {
	m.cancel()
	m.wg.Wait()
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Cache

type userSessions struct {
	mu      sync.Mutex
	active  *Session
	pending *pendingOutcome
}

type sessionCache struct {
	cacheMu sync.Mutex
	users   map[string]*userSessions
}

func newSessionCache() *sessionCache {
	return &sessionCache{
		users: make(map[string]*userSessions),
	}
}

// Get returns the user's entry locked, or nil if the user is unknown.
func (c *sessionCache) Get(userID string) (*userSessions, func()) {
	c.cacheMu.Lock()
	u := c.users[userID]
	c.cacheMu.Unlock()
	if u == nil {
		return nil, nil
	}
	u.mu.Lock()
	return u, u.mu.Unlock
}

func (c *sessionCache) GetOrCreate(userID string) (*userSessions, func()) {
	c.cacheMu.Lock()
	u := c.users[userID]
	if u == nil {
		u = &userSessions{}
		c.users[userID] = u
	}
	c.cacheMu.Unlock()
	u.mu.Lock()
	return u, u.mu.Unlock
}
