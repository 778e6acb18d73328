package internal

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
)

// EvalReport is one confidence evaluation as seen by the auto-committer.
type EvalReport struct {
	Score        int
	ShouldCommit bool
	Message      string
	Signals      []string
	Committed    *CommitOutput
	Err          error
}

// AutoCommitter is the evaluation callback used by watch and serve. It
// commits when the engine is confident and auto-commit is enabled.
type AutoCommitter struct {
	commit  *CommitUseCase
	enabled bool
	report  func(EvalReport)
	log     *logrus.Entry
}

func NewAutoCommitter(commit *CommitUseCase, enabled bool, report func(EvalReport)) *AutoCommitter {
	return &AutoCommitter{
		commit:  commit,
		enabled: enabled,
		report:  report,
		log:     NewLogger("autocommit"),
	}
}

// Callback binds the committer to ctx for use with StartEvalLoop.
func (a *AutoCommitter) Callback(ctx context.Context) EvalCallback {
	return func(score int, shouldCommit bool, message string) {
		a.Evaluate(ctx, score, shouldCommit, message)
	}
}

func (a *AutoCommitter) Evaluate(ctx context.Context, score int, shouldCommit bool, message string) {
	r := EvalReport{
		Score:        score,
		ShouldCommit: shouldCommit,
		Message:      message,
		Signals:      a.commit.engine.LastConfidence().Signals.Names(),
	}

	if shouldCommit && a.enabled {
		out, err := a.commit.Execute(ctx, CommitInput{Message: message, Trigger: TriggerAuto})
		switch {
		case err == nil:
			r.Committed = out
		case errors.Is(err, ErrCommitInFlight), errors.Is(err, ErrNoPendingChanges):
			a.log.WithError(err).Debug("auto commit skipped")
		default:
			r.Err = err
			a.log.WithError(err).Warn("auto commit failed, changes stay pending")
		}
	}

	if a.report != nil {
		a.report(r)
	}
}

// Flush fires the immediate trigger. reason names the lifecycle event.
func (a *AutoCommitter) Flush(ctx context.Context, reason string) error {
	log := a.log.WithField("reason", reason)
	if !a.enabled {
		log.Debug("flush skipped: auto commit disabled")
		return nil
	}

	err := a.commit.Flush(ctx)
	if errors.Is(err, ErrCommitInFlight) || errors.Is(err, ErrNoPendingChanges) {
		log.WithError(err).Debug("flush skipped")
		return nil
	}
	if err != nil {
		log.WithError(err).Warn("flush failed, changes stay pending")
		return err
	}
	return nil
}
