package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/filesystem"
)

const (
	DefaultBranch = "main"
	DefaultAuthor = "gitnotes"
	DefaultEmail  = "gitnotes@local"
)

// GitVault stores notes as files in a git worktree.
type GitVault struct {
	repo     *git.Repository
	worktree *git.Worktree
	vault    Vault
	author   string
	email    string
	ignore   *IgnoreMatcher
}

func OpenVault(v Vault, cfg *Config) (*GitVault, error) {
	if !v.Initialized() {
		return nil, fmt.Errorf("%w: %s", ErrNotInitialized, v.Root)
	}

	storage := filesystem.NewStorage(osfs.New(v.GitPath()), cache.NewObjectLRUDefault())
	repo, err := git.Open(storage, osfs.New(v.Root))
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("get worktree: %w", err)
	}

	matcher, err := NewIgnoreMatcher(v)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", IgnoreFilename, err)
	}

	if cfg == nil {
		cfg = DefaultConfig()
	}

	return &GitVault{
		repo:     repo,
		worktree: worktree,
		vault:    v,
		author:   cfg.Git.Author,
		email:    cfg.Git.Email,
		ignore:   matcher,
	}, nil
}

// InitVault creates the vault directory, its git repository on branch main
// and the config file, and records everything in an initial commit.
func InitVault(v Vault, cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	if err := os.MkdirAll(v.Root, 0755); err != nil {
		return fmt.Errorf("create vault directory: %w", err)
	}

	storage := filesystem.NewStorage(osfs.New(v.GitPath()), cache.NewObjectLRUDefault())
	repo, err := git.InitWithOptions(storage, osfs.New(v.Root), git.InitOptions{
		DefaultBranch: plumbing.NewBranchReferenceName(DefaultBranch),
	})
	if err != nil {
		return fmt.Errorf("init repository: %w", err)
	}

	if err := SaveConfig(v, cfg); err != nil {
		return err
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("get worktree: %w", err)
	}

	rel := filepath.ToSlash(filepath.Join(MetaDirName, filepath.Base(v.ConfigPath())))
	if _, err := worktree.Add(rel); err != nil {
		return fmt.Errorf("stage config: %w", err)
	}

	_, err = worktree.Commit("init: initialize notes vault", &git.CommitOptions{
		Author: &object.Signature{
			Name:  cfg.Git.Author,
			Email: cfg.Git.Email,
			When:  time.Now(),
		},
	})
	if err != nil {
		return fmt.Errorf("initial commit: %w", err)
	}

	return nil
}

func (r *GitVault) Vault() Vault {
	return r.vault
}

// Ignored reports whether p matches .gitnotesignore.
func (r *GitVault) Ignored(p NotePath) bool {
	return r.ignore.Match(r.vault.Abs(p))
}

// IgnoredDir reports whether the directory at abs matches .gitnotesignore.
func (r *GitVault) IgnoredDir(abs string) bool {
	return r.ignore.MatchDir(abs)
}

// NoteRepository implementation

func (r *GitVault) Get(ctx context.Context, p NotePath) (*Note, error) {
	path := r.vault.Abs(p)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return &Note{
		Path:      p,
		Content:   content,
		UpdatedAt: info.ModTime(),
	}, nil
}

func (r *GitVault) Save(ctx context.Context, note *Note) error {
	path := r.vault.Abs(note.Path)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	if err := os.WriteFile(path, note.Content, 0644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}

	return r.Stage(ctx, note.Path)
}

// Stage records the worktree state of p in the index, including deletion.
func (r *GitVault) Stage(ctx context.Context, p NotePath) error {
	if _, err := os.Stat(r.vault.Abs(p)); os.IsNotExist(err) {
		if _, err := r.worktree.Remove(p.String()); err != nil && !errors.Is(err, index.ErrEntryNotFound) {
			return fmt.Errorf("stage removal: %w", err)
		}
		return nil
	}

	if _, err := r.worktree.Add(p.String()); err != nil {
		return fmt.Errorf("stage file: %w", err)
	}
	return nil
}

func (r *GitVault) List(ctx context.Context, prefix string) ([]*Note, error) {
	var notes []*Note

	err := filepath.Walk(r.vault.Root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if path != r.vault.Root && (strings.HasPrefix(info.Name(), ".") || r.ignore.MatchDir(path)) {
				return filepath.SkipDir
			}
			return nil
		}

		p, err := r.vault.Rel(path)
		if err != nil {
			return nil
		}
		if prefix != "" && !strings.HasPrefix(p.String(), prefix) {
			return nil
		}
		if r.ignore.Match(path) {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		notes = append(notes, &Note{
			Path:      p,
			Content:   content,
			UpdatedAt: info.ModTime(),
		})

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}

	return notes, nil
}

func (r *GitVault) Exists(ctx context.Context, p NotePath) (bool, error) {
	_, err := os.Stat(r.vault.Abs(p))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// HistoryRepository implementation

func (r *GitVault) Commit(ctx context.Context, message string) (*Commit, error) {
	hash, err := r.worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  r.author,
			Email: r.email,
			When:  time.Now(),
		},
	})
	if errors.Is(err, git.ErrEmptyCommit) {
		return nil, ErrNothingToCommit
	}
	if err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	commit, err := r.repo.CommitObject(hash)
	if err != nil {
		return nil, fmt.Errorf("get commit: %w", err)
	}

	return toCommit(commit), nil
}

func (r *GitVault) Log(ctx context.Context, limit int) ([]*Commit, error) {
	iter, err := r.repo.Log(&git.LogOptions{})
	if err != nil {
		return nil, fmt.Errorf("get log: %w", err)
	}
	defer iter.Close()

	var commits []*Commit
	err = iter.ForEach(func(c *object.Commit) error {
		if limit > 0 && len(commits) >= limit {
			return io.EOF
		}
		commits = append(commits, toCommit(c))
		return nil
	})
	if err != nil && err != io.EOF {
		return nil, err
	}

	return commits, nil
}

func (r *GitVault) Current(ctx context.Context) (*Branch, error) {
	head, err := r.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("get HEAD: %w", err)
	}

	return &Branch{
		Name: head.Name().Short(),
		Head: head.Hash().String(),
	}, nil
}

func (r *GitVault) Status(ctx context.Context) (*VaultStatus, error) {
	branch, err := r.Current(ctx)
	if err != nil {
		return nil, err
	}

	status, err := r.worktree.Status()
	if err != nil {
		return nil, fmt.Errorf("get status: %w", err)
	}

	out := &VaultStatus{Branch: branch.Name}
	for path, s := range status {
		if s.Staging == git.Unmodified && s.Worktree == git.Unmodified {
			continue
		}
		p, err := NewNotePath(path)
		if err != nil || r.Ignored(p) {
			continue
		}
		out.Dirty = append(out.Dirty, p)
	}

	sort.Slice(out.Dirty, func(i, j int) bool {
		return out.Dirty[i] < out.Dirty[j]
	})

	return out, nil
}

// HeadContent returns the committed content of p, or ErrNotFound when HEAD
// does not contain it.
func (r *GitVault) HeadContent(ctx context.Context, p NotePath) (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("get HEAD: %w", err)
	}

	commit, err := r.repo.CommitObject(head.Hash())
	if err != nil {
		return "", fmt.Errorf("get HEAD commit: %w", err)
	}

	tree, err := commit.Tree()
	if err != nil {
		return "", fmt.Errorf("get HEAD tree: %w", err)
	}

	f, err := tree.File(p.String())
	if errors.Is(err, object.ErrFileNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get HEAD file: %w", err)
	}

	return f.Contents()
}

// helpers

func toCommit(c *object.Commit) *Commit {
	var parents []string
	for _, p := range c.ParentHashes {
		parents = append(parents, p.String())
	}

	return &Commit{
		Hash:      c.Hash.String(),
		Message:   strings.TrimSpace(c.Message),
		Author:    c.Author.Name,
		Timestamp: c.Author.When,
		Parents:   parents,
	}
}
