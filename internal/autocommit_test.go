package internal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutoCommitterCommitsWhenConfident(t *testing.T) {
	uc, _, e, _ := setupUseCases(t)
	ctx := context.Background()

	_, err := uc.SaveNote.Execute(ctx, SaveNoteInput{Path: "a.md", Content: "a\n"})
	require.NoError(t, err)

	var reports []EvalReport
	auto := NewAutoCommitter(uc.Commit, true, func(r EvalReport) { reports = append(reports, r) })

	auto.Evaluate(ctx, 100, true, "Update a")

	require.Len(t, reports, 1)
	require.NotNil(t, reports[0].Committed)
	assert.Equal(t, "Update a", reports[0].Committed.Message)
	assert.NoError(t, reports[0].Err)
	assert.False(t, e.HasUncommittedChanges())
}

func TestAutoCommitterReportsWithoutCommitting(t *testing.T) {
	uc, _, e, _ := setupUseCases(t)
	ctx := context.Background()

	_, err := uc.SaveNote.Execute(ctx, SaveNoteInput{Path: "a.md", Content: "a\n"})
	require.NoError(t, err)

	var reports []EvalReport
	report := func(r EvalReport) { reports = append(reports, r) }

	NewAutoCommitter(uc.Commit, true, report).Evaluate(ctx, 60, false, "Update a")
	NewAutoCommitter(uc.Commit, false, report).Evaluate(ctx, 100, true, "Update a")

	require.Len(t, reports, 2)
	for _, r := range reports {
		assert.Nil(t, r.Committed)
	}
	assert.True(t, e.HasUncommittedChanges())
}

func TestAutoCommitterSkipsWhenNothingPending(t *testing.T) {
	uc, _, _, _ := setupUseCases(t)

	var got EvalReport
	NewAutoCommitter(uc.Commit, true, func(r EvalReport) { got = r }).Evaluate(context.Background(), 100, true, "x")

	assert.Nil(t, got.Committed)
	assert.NoError(t, got.Err)
}

func TestAutoCommitterFlush(t *testing.T) {
	uc, _, e, clock := setupUseCases(t)
	ctx := context.Background()

	_, err := uc.SaveNote.Execute(ctx, SaveNoteInput{Path: "a.md", Content: "a\n"})
	require.NoError(t, err)
	clock.Advance(time.Minute)

	require.NoError(t, NewAutoCommitter(uc.Commit, false, nil).Flush(ctx, "close"))
	assert.True(t, e.HasUncommittedChanges(), "disabled auto commit never flushes")

	require.NoError(t, NewAutoCommitter(uc.Commit, true, nil).Flush(ctx, "close"))
	assert.False(t, e.HasUncommittedChanges())
}

func TestAutoCommitterWithEvalLoop(t *testing.T) {
	repo := setupVault(t)
	e, clock := newTestEngine(t, WithEvalInterval(5*time.Millisecond))
	uc := NewUseCases(repo, e, nil)
	ctx := context.Background()

	_, err := uc.SaveNote.Execute(ctx, SaveNoteInput{Path: "a.md", Content: "a\n"})
	require.NoError(t, err)
	clock.Advance(5 * time.Minute)

	done := make(chan EvalReport, 16)
	auto := NewAutoCommitter(uc.Commit, true, func(r EvalReport) {
		select {
		case done <- r:
		default:
		}
	})

	state := EditorState{Cursor: 2000, Scroll: 5000, Viewport: 400, Content: "# End\n"}
	e.StartEvalLoop(ctx, auto.Callback(ctx), func() EditorState { return state })
	defer e.StopEvalLoop()

	select {
	case r := <-done:
		assert.True(t, r.ShouldCommit)
		require.NotNil(t, r.Committed)
	case <-time.After(2 * time.Second):
		t.Fatal("no evaluation")
	}
	assert.False(t, e.HasUncommittedChanges())
}
