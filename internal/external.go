package internal

import (
	"context"
	"sync"
)

// ExternalEditor maps settled file writes from an editor that is not attached
// to the engine onto the editor lifecycle. A write to a different note than
// the last tracked one is a note switch and fires the immediate trigger
// before the new note is staged, so the commit covers only the notes left
// behind.
type ExternalEditor struct {
	track *TrackChangeUseCase
	auto  *AutoCommitter

	mu      sync.Mutex
	current NotePath
}

func NewExternalEditor(track *TrackChangeUseCase, auto *AutoCommitter) *ExternalEditor {
	return &ExternalEditor{
		track: track,
		auto:  auto,
	}
}

// Changed handles a settled write to the file at abs.
func (x *ExternalEditor) Changed(ctx context.Context, abs string) (*TrackChangeOutput, error) {
	p, err := x.track.repo.Vault().Rel(abs)
	if err != nil {
		return nil, err
	}

	if x.switched(p) {
		// Flush logs its own failures; the changes stay pending for the next trigger.
		_ = x.auto.Flush(ctx, EventSwitch)
	}

	out, err := x.track.Execute(ctx, TrackChangeInput{AbsPath: abs})
	if err != nil {
		return nil, err
	}

	if out.Changed {
		x.mu.Lock()
		x.current = p
		x.mu.Unlock()
	}
	return out, nil
}

// Current is the note that received the last tracked change.
func (x *ExternalEditor) Current() string {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.current.String()
}

// Close fires the immediate trigger for the close lifecycle event.
func (x *ExternalEditor) Close(ctx context.Context) error {
	return x.auto.Flush(ctx, EventClose)
}

func (x *ExternalEditor) switched(p NotePath) bool {
	if x.track.repo.Ignored(p) {
		return false
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.current != "" && x.current != p
}
