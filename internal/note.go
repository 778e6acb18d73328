package internal

import (
	"context"
	"errors"
	"path"
	"strings"
	"time"
)

var (
	ErrNotFound       = errors.New("note not found")
	ErrInvalidPath    = errors.New("invalid note path")
	ErrNotInitialized = errors.New("vault not initialized")
)

const NoteExt = ".md"

// NotePath is a slash-separated note location relative to the vault root.
type NotePath string

func NewNotePath(s string) (NotePath, error) {
	s = strings.ReplaceAll(s, "\\", "/")
	if s == "" || strings.HasPrefix(s, "/") {
		return "", ErrInvalidPath
	}

	cleaned := path.Clean(s)
	if !strings.EqualFold(path.Ext(cleaned), NoteExt) {
		return "", ErrInvalidPath
	}

	for _, part := range strings.Split(cleaned, "/") {
		if part == "" || part == ".." || strings.HasPrefix(part, ".") {
			return "", ErrInvalidPath
		}
	}

	return NotePath(cleaned), nil
}

func (p NotePath) String() string {
	return string(p)
}

// Name is the note's base name without extension, as shown in commit messages.
func (p NotePath) Name() string {
	return noteName(string(p))
}

func noteName(p string) string {
	base := path.Base(strings.ReplaceAll(p, "\\", "/"))
	name := strings.TrimSuffix(base, path.Ext(base))
	if name == "" || name == "." || name == "/" {
		return "note"
	}
	return name
}

type Note struct {
	Path      NotePath
	Content   []byte
	UpdatedAt time.Time
}

func NewNote(p NotePath, content []byte) *Note {
	return &Note{
		Path:      p,
		Content:   content,
		UpdatedAt: time.Now().UTC(),
	}
}

type NoteRepository interface {
	Get(ctx context.Context, p NotePath) (*Note, error)
	Save(ctx context.Context, note *Note) error
	Stage(ctx context.Context, p NotePath) error
	List(ctx context.Context, prefix string) ([]*Note, error)
	Exists(ctx context.Context, p NotePath) (bool, error)
}
