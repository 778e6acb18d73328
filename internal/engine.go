package internal

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	ErrCommitInFlight   = errors.New("commit already in progress")
	ErrNoPendingChanges = errors.New("no pending changes")
)

// Trigger names the path that asked for a commit.
type Trigger string

const (
	TriggerAuto      Trigger = "auto"
	TriggerImmediate Trigger = "immediate"
	TriggerManual    Trigger = "manual"
)

// CommitFunc performs the version-control commit. A non-nil error leaves
// the pending changes in place.
type CommitFunc func(ctx context.Context, message string) error

type PendingChange struct {
	LinesChanged int
	SavedAt      time.Time
}

// CommitState is a copy of the engine's bookkeeping.
type CommitState struct {
	LastSaveTime      time.Time // zero until the first save
	LastCommitTime    time.Time
	LastEditTime      time.Time
	PreviousVelocity  float64
	PendingChanges    map[string]PendingChange
	LastEditCursorPos int
	LastEditScrollTop int
}

// CommitEngine decides when saved edits should be committed. One engine
// owns the state for one vault; all methods are safe for concurrent use.
type CommitEngine struct {
	mu    sync.Mutex
	state CommitState
	edits *editWindow
	last  ConfidenceResult

	now            func() time.Time
	minCommitDelay time.Duration
	evalInterval   time.Duration

	// go-git worktrees must not commit concurrently.
	inFlight atomic.Bool

	loopMu sync.Mutex
	loop   *evalLoop

	log     *logrus.Entry
	metrics *Metrics
}

type EngineOption func(*CommitEngine)

func WithClock(now func() time.Time) EngineOption {
	return func(e *CommitEngine) {
		if now != nil {
			e.now = now
		}
	}
}

func WithMinCommitDelay(d time.Duration) EngineOption {
	return func(e *CommitEngine) {
		if d > 0 {
			e.minCommitDelay = d
		}
	}
}

func WithVelocityWindow(d time.Duration) EngineOption {
	return func(e *CommitEngine) {
		if d > 0 {
			e.edits = newEditWindow(d)
		}
	}
}

func WithEvalInterval(d time.Duration) EngineOption {
	return func(e *CommitEngine) {
		if d > 0 {
			e.evalInterval = d
		}
	}
}

func WithLogger(log *logrus.Entry) EngineOption {
	return func(e *CommitEngine) {
		if log != nil {
			e.log = log
		}
	}
}

func WithMetrics(m *Metrics) EngineOption {
	return func(e *CommitEngine) {
		e.metrics = m
	}
}

func NewCommitEngine(opts ...EngineOption) *CommitEngine {
	e := &CommitEngine{
		now:            time.Now,
		minCommitDelay: DefaultMinCommitDelay,
		evalInterval:   DefaultEvalInterval,
		edits:          newEditWindow(DefaultVelocityWindow),
		log:            NewLogger("engine"),
	}
	for _, opt := range opts {
		opt(e)
	}

	now := e.now()
	e.state = CommitState{
		LastCommitTime: now,
		LastEditTime:   now,
		PendingChanges: make(map[string]PendingChange),
	}

	return e
}

// RecordEdit notes a content change at the given cursor and scroll offsets.
func (e *CommitEngine) RecordEdit(cursorPos, scrollTop int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	e.state.PreviousVelocity = e.edits.velocity(now)
	e.edits.record(now)

	e.state.LastEditTime = now
	e.state.LastEditCursorPos = cursorPos
	e.state.LastEditScrollTop = scrollTop
}

// EditVelocity is the current edit rate in edits per second.
func (e *CommitEngine) EditVelocity() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.edits.velocity(e.now())
}

// RecordSave registers a durable write of the document. A later save of the
// same document replaces its line count.
func (e *CommitEngine) RecordSave(documentID string, linesChanged int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	e.state.LastSaveTime = now
	e.state.PendingChanges[documentID] = PendingChange{
		LinesChanged: linesChanged,
		SavedAt:      now,
	}
	e.metrics.SetPending(len(e.state.PendingChanges))
}

// RecordCommit marks every pending change as committed.
func (e *CommitEngine) RecordCommit() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state.LastCommitTime = e.now()
	clear(e.state.PendingChanges)
	e.metrics.SetPending(0)
}

// recordCommitSince clears the changes saved at or before snapshot and keeps
// any that arrived while the commit ran.
func (e *CommitEngine) recordCommitSince(snapshot time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state.LastCommitTime = e.now()
	maps.DeleteFunc(e.state.PendingChanges, func(_ string, c PendingChange) bool {
		return !c.SavedAt.After(snapshot)
	})
	e.metrics.SetPending(len(e.state.PendingChanges))
}

func (e *CommitEngine) HasUncommittedChanges() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.state.PendingChanges) > 0
}

// State returns a copy of the current bookkeeping.
func (e *CommitEngine) State() CommitState {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.state
	s.PendingChanges = maps.Clone(e.state.PendingChanges)
	return s
}

// CalculateConfidence scores how natural a commit point the current moment is.
func (e *CommitEngine) CalculateConfidence(cursorPos, scrollTop, viewportHeight int, contentUpToCursor string) ConfidenceResult {
	e.mu.Lock()
	now := e.now()
	in := scoreInput{
		sinceSave:        now.Sub(e.state.LastSaveTime),
		sinceEdit:        now.Sub(e.state.LastEditTime),
		minCommitDelay:   e.minCommitDelay,
		currentVelocity:  e.edits.velocity(now),
		previousVelocity: e.state.PreviousVelocity,
		pendingLines:     e.pendingLinesLocked(),
		cursorDistance:   absInt(cursorPos - e.state.LastEditCursorPos),
		scrollDistance:   absInt(scrollTop - e.state.LastEditScrollTop),
		viewportHeight:   viewportHeight,
		content:          contentUpToCursor,
	}
	e.mu.Unlock()

	return scoreConfidence(in)
}

func (e *CommitEngine) pendingLinesLocked() int {
	total := 0
	for _, c := range e.state.PendingChanges {
		total += c.LinesChanged
	}
	return total
}

func (e *CommitEngine) inCoolDown() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.now().Sub(e.state.LastSaveTime) < e.minCommitDelay
}

// TriggerImmediateCommit commits pending changes right away once the
// post-save cool-down has elapsed. It is a no-op when nothing is pending or
// the last save is too recent. Errors from commitFn are returned unchanged.
func (e *CommitEngine) TriggerImmediateCommit(ctx context.Context, commitFn CommitFunc) error {
	if !e.HasUncommittedChanges() {
		return nil
	}
	if e.inCoolDown() {
		e.log.Debug("immediate commit skipped: save cool-down")
		return nil
	}

	return e.CommitPending(ctx, TriggerImmediate, e.GenerateCommitMessage(), commitFn)
}

// CommitPending runs commitFn for the pending changes without consulting the
// cool-down. An empty message is replaced by the generated one.
func (e *CommitEngine) CommitPending(ctx context.Context, trigger Trigger, message string, commitFn CommitFunc) error {
	if commitFn == nil {
		return fmt.Errorf("commit %s: no commit function", trigger)
	}
	if !e.inFlight.CompareAndSwap(false, true) {
		return ErrCommitInFlight
	}
	defer e.inFlight.Store(false)

	e.mu.Lock()
	if len(e.state.PendingChanges) == 0 {
		e.mu.Unlock()
		return ErrNoPendingChanges
	}
	snapshot := e.now()
	if message == "" {
		message = commitMessage(e.state.PendingChanges)
	}
	e.mu.Unlock()

	if err := commitFn(ctx, message); err != nil {
		e.metrics.CommitFailed(trigger)
		e.log.WithError(err).WithField("trigger", trigger).Debug("commit failed")
		return err
	}

	e.recordCommitSince(snapshot)
	e.metrics.CommitSucceeded(trigger)
	e.log.WithFields(logrus.Fields{
		"trigger": trigger,
		"message": message,
	}).Info("committed")

	return nil
}
