package internal

import (
	"path/filepath"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestEngine(t *testing.T, opts ...EngineOption) (*CommitEngine, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	e := NewCommitEngine(append([]EngineOption{WithClock(clock.Now)}, opts...)...)
	t.Cleanup(e.StopEvalLoop)
	return e, clock
}

func setupVault(t *testing.T) *GitVault {
	t.Helper()

	v := Vault{Root: filepath.Join(t.TempDir(), "Notes")}
	if err := InitVault(v, nil); err != nil {
		t.Fatalf("init vault: %v", err)
	}

	repo, err := OpenVault(v, nil)
	if err != nil {
		t.Fatalf("open vault: %v", err)
	}
	return repo
}

func mustNotePath(t *testing.T, s string) NotePath {
	t.Helper()
	p, err := NewNotePath(s)
	if err != nil {
		t.Fatalf("note path %q: %v", s, err)
	}
	return p
}
