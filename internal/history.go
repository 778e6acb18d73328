package internal

import (
	"context"
	"errors"
	"time"
)

// ErrNothingToCommit is returned when the index matches HEAD.
var ErrNothingToCommit = errors.New("nothing to commit")

type Branch struct {
	Name string
	Head string // commit hash
}

type Commit struct {
	Hash      string
	Message   string
	Author    string
	Timestamp time.Time
	Parents   []string
}

func (c *Commit) ShortHash() string {
	if len(c.Hash) < 7 {
		return c.Hash
	}
	return c.Hash[:7]
}

// VaultStatus lists notes whose worktree content differs from HEAD.
type VaultStatus struct {
	Branch string
	Dirty  []NotePath
}

func (s *VaultStatus) IsClean() bool {
	return len(s.Dirty) == 0
}

type HistoryRepository interface {
	Commit(ctx context.Context, message string) (*Commit, error)
	Log(ctx context.Context, limit int) ([]*Commit, error)
	Current(ctx context.Context) (*Branch, error)
	Status(ctx context.Context) (*VaultStatus, error)
	HeadContent(ctx context.Context, p NotePath) (string, error)
}
