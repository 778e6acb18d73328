package internal

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeNote(t *testing.T, repo *GitVault, name, content string) string {
	t.Helper()
	abs := repo.Vault().Abs(mustNotePath(t, name))
	require.NoError(t, os.WriteFile(abs, []byte(content), 0644))
	return abs
}

func lastMessage(t *testing.T, repo *GitVault) string {
	t.Helper()
	commits, err := repo.Log(context.Background(), 1)
	require.NoError(t, err)
	require.NotEmpty(t, commits)
	return commits[0].Message
}

func TestExternalEditorSwitchCommitsPreviousNote(t *testing.T) {
	uc, repo, e, clock := setupUseCases(t)
	ctx := context.Background()
	require.NoError(t, uc.TrackChange.Prime(ctx))

	x := NewExternalEditor(uc.TrackChange, NewAutoCommitter(uc.Commit, true, nil))

	out, err := x.Changed(ctx, writeNote(t, repo, "a.md", "alpha\n"))
	require.NoError(t, err)
	require.True(t, out.Changed)
	assert.Equal(t, "a.md", x.Current())

	clock.Advance(time.Minute)

	_, err = x.Changed(ctx, writeNote(t, repo, "b.md", "beta\n"))
	require.NoError(t, err)

	assert.Equal(t, "Update a", lastMessage(t, repo))
	pending := e.State().PendingChanges
	assert.Len(t, pending, 1)
	assert.Contains(t, pending, "b.md")
	assert.Equal(t, "b.md", x.Current())

	status, err := repo.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, []NotePath{"b.md"}, status.Dirty)
}

func TestExternalEditorSwitchWithinCoolDown(t *testing.T) {
	uc, repo, e, clock := setupUseCases(t)
	ctx := context.Background()
	require.NoError(t, uc.TrackChange.Prime(ctx))

	x := NewExternalEditor(uc.TrackChange, NewAutoCommitter(uc.Commit, true, nil))

	_, err := x.Changed(ctx, writeNote(t, repo, "b.md", "beta\n"))
	require.NoError(t, err)
	_, err = x.Changed(ctx, writeNote(t, repo, "c.md", "gamma\n"))
	require.NoError(t, err)

	assert.Len(t, e.State().PendingChanges, 2, "switch inside the cool-down keeps changes pending")
	assert.Equal(t, "init: initialize notes vault", lastMessage(t, repo))

	clock.Advance(time.Minute)
	require.NoError(t, x.Close(ctx))

	assert.False(t, e.HasUncommittedChanges())
	assert.Equal(t, "Update b, c", lastMessage(t, repo))
}

func TestExternalEditorSameNoteDoesNotFlush(t *testing.T) {
	uc, repo, e, clock := setupUseCases(t)
	ctx := context.Background()
	require.NoError(t, uc.TrackChange.Prime(ctx))

	x := NewExternalEditor(uc.TrackChange, NewAutoCommitter(uc.Commit, true, nil))

	_, err := x.Changed(ctx, writeNote(t, repo, "a.md", "alpha\n"))
	require.NoError(t, err)
	clock.Advance(time.Minute)
	_, err = x.Changed(ctx, writeNote(t, repo, "a.md", "alpha\nmore\n"))
	require.NoError(t, err)

	assert.True(t, e.HasUncommittedChanges())
	assert.Equal(t, "init: initialize notes vault", lastMessage(t, repo))
}

func TestExternalEditorDisabledAutoCommit(t *testing.T) {
	uc, repo, e, clock := setupUseCases(t)
	ctx := context.Background()
	require.NoError(t, uc.TrackChange.Prime(ctx))

	x := NewExternalEditor(uc.TrackChange, NewAutoCommitter(uc.Commit, false, nil))

	_, err := x.Changed(ctx, writeNote(t, repo, "a.md", "alpha\n"))
	require.NoError(t, err)
	clock.Advance(time.Minute)
	_, err = x.Changed(ctx, writeNote(t, repo, "b.md", "beta\n"))
	require.NoError(t, err)
	require.NoError(t, x.Close(ctx))

	assert.Len(t, e.State().PendingChanges, 2)
}
