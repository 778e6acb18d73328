package internal

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// EditorState is what the editing surface reports on each evaluation.
// Content holds the document text up to the cursor.
type EditorState struct {
	Cursor   int
	Scroll   int
	Viewport int
	Content  string
}

type EditorStateFunc func() EditorState

// EvalCallback receives every evaluation made while changes are pending.
// It decides whether to actually commit.
type EvalCallback func(score int, shouldCommit bool, message string)

type evalLoop struct {
	cancel context.CancelFunc
	done   chan struct{} // closed when the goroutine returns
}

// StartEvalLoop polls the editor every eval interval and reports the
// confidence to callback. A running loop is stopped first. The loop also ends
// when ctx is cancelled. callback must not start or stop the loop itself.
func (e *CommitEngine) StartEvalLoop(ctx context.Context, callback EvalCallback, getState EditorStateFunc) {
	e.loopMu.Lock()
	defer e.loopMu.Unlock()

	e.stopLoopLocked()

	loopCtx, cancel := context.WithCancel(ctx)
	l := &evalLoop{cancel: cancel, done: make(chan struct{})}
	e.loop = l

	go e.runEvalLoop(loopCtx, l.done, callback, getState)
}

// StopEvalLoop stops the loop and waits for an in-progress tick to return.
func (e *CommitEngine) StopEvalLoop() {
	e.loopMu.Lock()
	defer e.loopMu.Unlock()
	e.stopLoopLocked()
}

// EvalLoopRunning reports whether a loop is active. A loop whose context was
// cancelled by its caller is not running even before StopEvalLoop.
func (e *CommitEngine) EvalLoopRunning() bool {
	e.loopMu.Lock()
	defer e.loopMu.Unlock()

	if e.loop == nil {
		return false
	}
	select {
	case <-e.loop.done:
		e.loop = nil
		return false
	default:
		return true
	}
}

// LastConfidence is the result of the most recent loop evaluation.
func (e *CommitEngine) LastConfidence() ConfidenceResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}

func (e *CommitEngine) stopLoopLocked() {
	if e.loop == nil {
		return
	}
	e.loop.cancel()
	<-e.loop.done
	e.loop = nil
}

func (e *CommitEngine) runEvalLoop(ctx context.Context, done chan<- struct{}, callback EvalCallback, getState EditorStateFunc) {
	defer close(done)

	ticker := time.NewTicker(e.evalInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.evaluate(callback, getState)
		}
	}
}

// evaluate runs a single tick. It reports whether the callback was invoked.
func (e *CommitEngine) evaluate(callback EvalCallback, getState EditorStateFunc) bool {
	if callback == nil || getState == nil || !e.HasUncommittedChanges() {
		return false
	}

	st := getState()
	res := e.CalculateConfidence(st.Cursor, st.Scroll, st.Viewport, st.Content)
	shouldCommit := res.Score >= MaxConfidence
	message := e.GenerateCommitMessage()

	e.mu.Lock()
	e.last = res
	e.mu.Unlock()

	e.metrics.ObserveConfidence(res)
	e.log.WithFields(logrus.Fields{
		"score":   res.Score,
		"signals": res.Signals.Names(),
	}).Debug("evaluated confidence")

	callback(res.Score, shouldCommit, message)
	return true
}
