// Package timer drives per-user focus countdowns.
//
// A Handle owns one countdown. Its tick loop advances elapsed time in fixed
// steps, reports progress to a Renderer and reports completion at most once.
// Done is closed when the loop exits for any reason.
package timer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/naparnik/naparnik-go"
)

const (
	DefaultInterval = 10 * time.Second
	DefaultStep     = 10 * time.Second
)

var ErrInvalidDuration = errors.New("timer: duration must be positive")

type State uint8

const (
	Running State = iota
	Paused
	Completed
	Cancelled
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Completed:
		return "completed"
	case Cancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

func (s State) Terminal() bool {
	return s == Completed || s == Cancelled
}

// Renderer receives progress from running timers. Errors are logged and
// otherwise ignored.
type Renderer interface {
	RenderProgress(ctx context.Context, userID string, elapsedSeconds, totalSeconds int, paused bool) error
	RenderCompletion(ctx context.Context, userID string) error
}

type Engine struct {
	Renderer Renderer
	Logger   *log.Logger
	// Interval between wakes. Step is how much elapsed time each running wake adds.
	Interval, Step time.Duration
	Now            func() time.Time
}

func NewEngine(r Renderer, l *log.Logger) *Engine {
	return &Engine{
		Renderer: r,
		Logger:   l,
		Interval: DefaultInterval,
		Step:     DefaultStep,
		Now:      time.Now,
	}
}

func (e *Engine) logger() *log.Logger {
	if e.Logger == nil {
		return log.Default()
	}
	return e.Logger
}

func (e *Engine) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

// Start begins a countdown of the given length. Cancelling ctx cancels the
// countdown.
func (e *Engine) Start(ctx context.Context, userID string, minutes int) (*Handle, error) {
	if minutes <= 0 {
		return nil, fmt.Errorf("%w: got %d minutes", ErrInvalidDuration, minutes)
	}
	interval, step := e.Interval, e.Step
	if interval <= 0 {
		interval = DefaultInterval
	}
	if step <= 0 {
		step = DefaultStep
	}

	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{
		e:      e,
		userID: userID,
		total:  time.Duration(minutes) * time.Minute,
		step:   step,
		state:  Running,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go h.run(ctx, interval)
	return h, nil
}

type Handle struct {
	e      *Engine
	userID string
	total  time.Duration
	step   time.Duration
	cancel context.CancelFunc
	done   chan struct{}

	mu               sync.Mutex
	state            State
	elapsed          time.Duration
	pausedAt         time.Time
	accumulatedPause time.Duration
}

type Snapshot struct {
	UserID                  string
	DurationSeconds         int
	ElapsedSeconds          int
	Paused                  bool
	AccumulatedPauseSeconds int
	State                   State
}

func (h *Handle) UserID() string { return h.userID }

// Done is closed once the tick loop has exited.
func (h *Handle) Done() <-chan struct{} { return h.done }

func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

func (h *Handle) Snapshot() Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.snapshot()
}

func (h *Handle) snapshot() Snapshot {
	return Snapshot{
		UserID:                  h.userID,
		DurationSeconds:         int(h.total / time.Second),
		ElapsedSeconds:          int(h.elapsed / time.Second),
		Paused:                  h.state == Paused,
		AccumulatedPauseSeconds: int(h.accumulatedPause / time.Second),
		State:                   h.state,
	}
}

// Pause returns false if the countdown was not running.
func (h *Handle) Pause() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state != Running {
		return false
	}
	h.state = Paused
	h.pausedAt = h.e.now()
	return true
}

// Resume returns false if the countdown was not paused.
func (h *Handle) Resume() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state != Paused {
		return false
	}
	h.endPause()
	h.state = Running
	return true
}

func (h *Handle) endPause() {
	if d := h.e.now().Sub(h.pausedAt); d > 0 {
		h.accumulatedPause += d
	}
	h.pausedAt = time.Time{}
}

// Cancel stops the countdown. It is safe to call more than once and has no
// effect on a completed countdown. It reports whether this call cancelled it.
func (h *Handle) Cancel() bool {
	h.mu.Lock()
	cancelled := false
	if !h.state.Terminal() {
		if h.state == Paused {
			h.endPause()
		}
		h.state = Cancelled
		cancelled = true
	}
	h.mu.Unlock()
	h.cancel()
	return cancelled
}

// advance applies one wake. ok is false once the countdown is terminal.
func (h *Handle) advance() (snap Snapshot, completed, ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	switch h.state {
	case Cancelled, Completed:
		return h.snapshot(), false, false
	case Running:
		h.elapsed = min(h.elapsed+h.step, h.total)
		if h.elapsed == h.total {
			h.state = Completed
			completed = true
		}
	}
	return h.snapshot(), completed, true
}

func (h *Handle) run(ctx context.Context, interval time.Duration) {
	defer close(h.done)
	defer h.cancel()
	l := h.e.logger().With("uid", h.userID)

	if snap := h.Snapshot(); !snap.State.Terminal() {
		h.renderProgress(ctx, l, snap)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			if h.Cancel() {
				l.Debug("timer cancelled by context")
			}
			return
		case <-ticker.C:
		}

		snap, completed, ok := h.advance()
		if !ok {
			return
		}
		h.renderProgress(ctx, l, snap)
		if completed {
			if h.e.Renderer == nil {
				return
			}
			if err := h.e.Renderer.RenderCompletion(ctx, h.userID); err != nil {
				l.Warn("failed to render completion", "err", fmt.Errorf("%w: %w", naparnik.ErrTransientDelivery, err))
			}
			l.Info("timer completed", "minutes", snap.DurationSeconds/60)
			return
		}
	}
}

func (h *Handle) renderProgress(ctx context.Context, l *log.Logger, s Snapshot) {
	if h.e.Renderer == nil {
		return
	}
	err := h.e.Renderer.RenderProgress(ctx, s.UserID, s.ElapsedSeconds, s.DurationSeconds, s.Paused)
	if err != nil {
		l.Warn("failed to render progress", "err", fmt.Errorf("%w: %w", naparnik.ErrTransientDelivery, err))
	}
}
