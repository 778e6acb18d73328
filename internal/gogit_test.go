package internal

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestInitVault(t *testing.T) {
	repo := setupVault(t)
	ctx := context.Background()

	if !repo.Vault().Initialized() {
		t.Fatal("vault should be initialized")
	}

	branch, err := repo.Current(ctx)
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if branch.Name != DefaultBranch {
		t.Errorf("branch = %q, want %q", branch.Name, DefaultBranch)
	}

	commits, err := repo.Log(ctx, 0)
	if err != nil {
		t.Fatalf("log: %v", err)
	}
	if len(commits) != 1 {
		t.Fatalf("commits = %d, want 1", len(commits))
	}

	status, err := repo.Status(ctx)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !status.IsClean() {
		t.Errorf("fresh vault dirty: %v", status.Dirty)
	}
}

func TestOpenVaultNotInitialized(t *testing.T) {
	_, err := OpenVault(Vault{Root: t.TempDir()}, nil)
	if !errors.Is(err, ErrNotInitialized) {
		t.Errorf("err = %v, want ErrNotInitialized", err)
	}
}

func TestGitVaultSaveAndGet(t *testing.T) {
	repo := setupVault(t)
	ctx := context.Background()

	p := mustNotePath(t, "journal/today.md")
	if err := repo.Save(ctx, NewNote(p, []byte("hello\n"))); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := repo.Get(ctx, p)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got.Content) != "hello\n" {
		t.Errorf("content = %q, want %q", string(got.Content), "hello\n")
	}

	exists, err := repo.Exists(ctx, p)
	if err != nil || !exists {
		t.Errorf("exists = %v, %v", exists, err)
	}
}

func TestGitVaultGetNotFound(t *testing.T) {
	repo := setupVault(t)

	_, err := repo.Get(context.Background(), mustNotePath(t, "missing.md"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestGitVaultCommitAndLog(t *testing.T) {
	repo := setupVault(t)
	ctx := context.Background()

	p := mustNotePath(t, "a.md")
	if err := repo.Save(ctx, NewNote(p, []byte("a\n"))); err != nil {
		t.Fatalf("save: %v", err)
	}

	commit, err := repo.Commit(ctx, "Update a")
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if commit.Message != "Update a" || commit.Author != DefaultAuthor {
		t.Errorf("commit = %+v", commit)
	}
	if len(commit.Parents) != 1 {
		t.Errorf("parents = %d, want 1", len(commit.Parents))
	}

	commits, err := repo.Log(ctx, 1)
	if err != nil {
		t.Fatalf("log: %v", err)
	}
	if len(commits) != 1 || commits[0].Hash != commit.Hash {
		t.Errorf("log head = %v, want %s", commits, commit.ShortHash())
	}

	content, err := repo.HeadContent(ctx, p)
	if err != nil {
		t.Fatalf("head content: %v", err)
	}
	if content != "a\n" {
		t.Errorf("head content = %q", content)
	}
}

func TestGitVaultCommitNothing(t *testing.T) {
	repo := setupVault(t)

	_, err := repo.Commit(context.Background(), "empty")
	if !errors.Is(err, ErrNothingToCommit) {
		t.Errorf("err = %v, want ErrNothingToCommit", err)
	}
}

func TestGitVaultStageDeletion(t *testing.T) {
	repo := setupVault(t)
	ctx := context.Background()

	p := mustNotePath(t, "gone.md")
	if err := repo.Save(ctx, NewNote(p, []byte("bye\n"))); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := repo.Commit(ctx, "add gone"); err != nil {
		t.Fatalf("commit: %v", err)
	}

	if err := os.Remove(repo.Vault().Abs(p)); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := repo.Stage(ctx, p); err != nil {
		t.Fatalf("stage removal: %v", err)
	}
	if _, err := repo.Commit(ctx, "remove gone"); err != nil {
		t.Fatalf("commit removal: %v", err)
	}

	if _, err := repo.HeadContent(ctx, p); !errors.Is(err, ErrNotFound) {
		t.Errorf("head content err = %v, want ErrNotFound", err)
	}

	// Staging a path that never existed is a no-op.
	if err := repo.Stage(ctx, mustNotePath(t, "never.md")); err != nil {
		t.Errorf("stage unknown: %v", err)
	}
}

func TestGitVaultList(t *testing.T) {
	repo := setupVault(t)
	ctx := context.Background()

	for _, name := range []string{"a.md", "journal/b.md", "journal/c.md"} {
		if err := repo.Save(ctx, NewNote(mustNotePath(t, name), []byte(name))); err != nil {
			t.Fatalf("save %s: %v", name, err)
		}
	}
	if err := os.WriteFile(filepath.Join(repo.Vault().Root, "image.png"), []byte{0x89}, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	all, err := repo.List(ctx, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("list = %d notes, want 3", len(all))
	}

	journal, err := repo.List(ctx, "journal/")
	if err != nil {
		t.Fatalf("list prefix: %v", err)
	}
	if len(journal) != 2 {
		t.Errorf("list journal/ = %d notes, want 2", len(journal))
	}
}

func TestGitVaultStatusDirty(t *testing.T) {
	repo := setupVault(t)
	ctx := context.Background()

	if err := os.WriteFile(repo.Vault().Abs(mustNotePath(t, "b.md")), []byte("b"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := repo.Save(ctx, NewNote(mustNotePath(t, "a.md"), []byte("a"))); err != nil {
		t.Fatalf("save: %v", err)
	}

	status, err := repo.Status(ctx)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if len(status.Dirty) != 2 || status.Dirty[0] != "a.md" || status.Dirty[1] != "b.md" {
		t.Errorf("dirty = %v, want [a.md b.md]", status.Dirty)
	}
}
