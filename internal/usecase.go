package internal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Use case input/output DTOs

type SaveNoteInput struct {
	Path    string
	Content string
}

type SaveNoteOutput struct {
	Path         string
	LinesChanged int
	Written      bool
}

type TrackChangeInput struct {
	AbsPath string
}

type TrackChangeOutput struct {
	Path         string
	LinesChanged int
	Cursor       int
	Deleted      bool
	Changed      bool
}

type SeedPendingOutput struct {
	Seeded []string
}

type CommitInput struct {
	Message string
	Trigger Trigger
}

type CommitOutput struct {
	Hash      string
	Message   string
	Timestamp time.Time
}

type LogInput struct {
	Limit int
}

type LogOutput struct {
	Commits []CommitOutput
}

type StatusOutput struct {
	Branch     string
	Dirty      []string
	Pending    int
	LastCommit *CommitOutput
}

// Use cases

// SaveNoteUseCase is the save path: write the note when it changed, stage
// it, and tell the engine how many lines moved.
type SaveNoteUseCase struct {
	repo   NoteRepository
	engine *CommitEngine
}

func NewSaveNoteUseCase(repo NoteRepository, engine *CommitEngine) *SaveNoteUseCase {
	return &SaveNoteUseCase{
		repo:   repo,
		engine: engine,
	}
}

func (uc *SaveNoteUseCase) Execute(ctx context.Context, input SaveNoteInput) (*SaveNoteOutput, error) {
	p, err := NewNotePath(input.Path)
	if err != nil {
		return nil, err
	}

	before := ""
	existing, err := uc.repo.Get(ctx, p)
	switch {
	case err == nil:
		before = string(existing.Content)
		if before == input.Content {
			return &SaveNoteOutput{Path: p.String()}, nil
		}
	case !errors.Is(err, ErrNotFound):
		return nil, fmt.Errorf("read note: %w", err)
	}

	if err := uc.repo.Save(ctx, NewNote(p, []byte(input.Content))); err != nil {
		return nil, fmt.Errorf("save note: %w", err)
	}

	lines := CountChangedLines(before, input.Content)
	uc.engine.RecordSave(p.String(), lines)

	return &SaveNoteOutput{
		Path:         p.String(),
		LinesChanged: lines,
		Written:      true,
	}, nil
}

// TrackChangeUseCase turns file writes made by an external editor into
// edit and save events, keeping the last seen content of every note.
type TrackChangeUseCase struct {
	repo   *GitVault
	engine *CommitEngine

	mu      sync.Mutex
	content map[NotePath]string
	state   EditorState
}

func NewTrackChangeUseCase(repo *GitVault, engine *CommitEngine) *TrackChangeUseCase {
	return &TrackChangeUseCase{
		repo:    repo,
		engine:  engine,
		content: make(map[NotePath]string),
	}
}

// Prime loads the current content of every note as the diff baseline.
func (uc *TrackChangeUseCase) Prime(ctx context.Context) error {
	notes, err := uc.repo.List(ctx, "")
	if err != nil {
		return fmt.Errorf("list notes: %w", err)
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()
	for _, n := range notes {
		uc.content[n.Path] = string(n.Content)
	}
	return nil
}

func (uc *TrackChangeUseCase) Execute(ctx context.Context, input TrackChangeInput) (*TrackChangeOutput, error) {
	p, err := uc.repo.Vault().Rel(input.AbsPath)
	if err != nil {
		return nil, err
	}
	if uc.repo.Ignored(p) {
		return &TrackChangeOutput{Path: p.String()}, nil
	}

	after, deleted := "", false
	note, err := uc.repo.Get(ctx, p)
	switch {
	case err == nil:
		after = string(note.Content)
	case errors.Is(err, ErrNotFound):
		deleted = true
	default:
		return nil, fmt.Errorf("read note: %w", err)
	}

	uc.mu.Lock()
	before, known := uc.content[p]
	uc.mu.Unlock()

	if !known {
		head, err := uc.repo.HeadContent(ctx, p)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		before, known = head, err == nil
	}
	// A note with no baseline that is already gone was never tracked.
	if (deleted && !known) || (!deleted && known && before == after) {
		return &TrackChangeOutput{Path: p.String()}, nil
	}

	if err := uc.repo.Stage(ctx, p); err != nil {
		return nil, err
	}

	lines := CountChangedLines(before, after)
	cursor := LastEditOffset(before, after)

	uc.engine.RecordEdit(cursor, 0)
	uc.engine.RecordSave(p.String(), lines)

	uc.mu.Lock()
	if deleted {
		delete(uc.content, p)
	} else {
		uc.content[p] = after
	}
	uc.state = EditorState{Cursor: cursor, Content: PrefixRunes(after, cursor)}
	uc.mu.Unlock()

	return &TrackChangeOutput{
		Path:         p.String(),
		LinesChanged: lines,
		Cursor:       cursor,
		Deleted:      deleted,
		Changed:      true,
	}, nil
}

// EditorState reports the position of the most recent tracked change. It
// is the state accessor for the evaluation loop when no editor is attached.
func (uc *TrackChangeUseCase) EditorState() EditorState {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.state
}

// SeedPendingUseCase loads notes that are dirty in git into the engine so
// changes made while nothing was running still get committed.
type SeedPendingUseCase struct {
	repo    NoteRepository
	history HistoryRepository
	engine  *CommitEngine
}

func NewSeedPendingUseCase(repo NoteRepository, history HistoryRepository, engine *CommitEngine) *SeedPendingUseCase {
	return &SeedPendingUseCase{
		repo:    repo,
		history: history,
		engine:  engine,
	}
}

func (uc *SeedPendingUseCase) Execute(ctx context.Context) (*SeedPendingOutput, error) {
	status, err := uc.history.Status(ctx)
	if err != nil {
		return nil, err
	}

	out := &SeedPendingOutput{}
	for _, p := range status.Dirty {
		before, err := uc.history.HeadContent(ctx, p)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}

		after := ""
		note, err := uc.repo.Get(ctx, p)
		switch {
		case err == nil:
			after = string(note.Content)
		case !errors.Is(err, ErrNotFound):
			return nil, err
		}

		if err := uc.repo.Stage(ctx, p); err != nil {
			return nil, err
		}

		uc.engine.RecordSave(p.String(), CountChangedLines(before, after))
		out.Seeded = append(out.Seeded, p.String())
	}

	return out, nil
}

// CommitUseCase commits the engine's pending changes to the vault.
type CommitUseCase struct {
	engine   *CommitEngine
	history  HistoryRepository
	onCommit func(*Commit)
}

func NewCommitUseCase(engine *CommitEngine, history HistoryRepository, onCommit func(*Commit)) *CommitUseCase {
	return &CommitUseCase{
		engine:   engine,
		history:  history,
		onCommit: onCommit,
	}
}

func (uc *CommitUseCase) Execute(ctx context.Context, input CommitInput) (*CommitOutput, error) {
	trigger := input.Trigger
	if trigger == "" {
		trigger = TriggerManual
	}

	var made *Commit
	err := uc.engine.CommitPending(ctx, trigger, input.Message, uc.commitFunc(&made))
	if err != nil {
		return nil, err
	}

	if made == nil {
		return &CommitOutput{Message: input.Message}, nil
	}
	return &CommitOutput{
		Hash:      made.Hash,
		Message:   made.Message,
		Timestamp: made.Timestamp,
	}, nil
}

// Flush is the immediate trigger used on note switch, blur and close.
func (uc *CommitUseCase) Flush(ctx context.Context) error {
	return uc.engine.TriggerImmediateCommit(ctx, uc.commitFunc(nil))
}

// commitFunc adapts the vault to a CommitFunc. An empty index counts as a
// successful commit.
func (uc *CommitUseCase) commitFunc(made **Commit) CommitFunc {
	return func(ctx context.Context, message string) error {
		c, err := uc.history.Commit(ctx, message)
		if errors.Is(err, ErrNothingToCommit) {
			return nil
		}
		if err != nil {
			return err
		}
		if made != nil {
			*made = c
		}
		if uc.onCommit != nil {
			uc.onCommit(c)
		}
		return nil
	}
}

type LogUseCase struct {
	history HistoryRepository
}

func NewLogUseCase(history HistoryRepository) *LogUseCase {
	return &LogUseCase{history: history}
}

func (uc *LogUseCase) Execute(ctx context.Context, input LogInput) (*LogOutput, error) {
	commits, err := uc.history.Log(ctx, input.Limit)
	if err != nil {
		return nil, err
	}

	output := &LogOutput{
		Commits: make([]CommitOutput, len(commits)),
	}

	for i, c := range commits {
		output.Commits[i] = CommitOutput{
			Hash:      c.Hash,
			Message:   c.Message,
			Timestamp: c.Timestamp,
		}
	}

	return output, nil
}

type StatusUseCase struct {
	history HistoryRepository
	engine  *CommitEngine
}

func NewStatusUseCase(history HistoryRepository, engine *CommitEngine) *StatusUseCase {
	return &StatusUseCase{
		history: history,
		engine:  engine,
	}
}

func (uc *StatusUseCase) Execute(ctx context.Context) (*StatusOutput, error) {
	status, err := uc.history.Status(ctx)
	if err != nil {
		return nil, err
	}

	out := &StatusOutput{
		Branch:  status.Branch,
		Pending: len(uc.engine.State().PendingChanges),
	}
	for _, p := range status.Dirty {
		out.Dirty = append(out.Dirty, p.String())
	}

	commits, err := uc.history.Log(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(commits) > 0 {
		out.LastCommit = &CommitOutput{
			Hash:      commits[0].Hash,
			Message:   commits[0].Message,
			Timestamp: commits[0].Timestamp,
		}
	}

	return out, nil
}

// UseCases groups the use cases wired to one vault and engine.
type UseCases struct {
	SaveNote    *SaveNoteUseCase
	TrackChange *TrackChangeUseCase
	SeedPending *SeedPendingUseCase
	Commit      *CommitUseCase
	Log         *LogUseCase
	Status      *StatusUseCase
}

func NewUseCases(repo *GitVault, engine *CommitEngine, onCommit func(*Commit)) *UseCases {
	return &UseCases{
		SaveNote:    NewSaveNoteUseCase(repo, engine),
		TrackChange: NewTrackChangeUseCase(repo, engine),
		SeedPending: NewSeedPendingUseCase(repo, repo, engine),
		Commit:      NewCommitUseCase(engine, repo, onCommit),
		Log:         NewLogUseCase(repo),
		Status:      NewStatusUseCase(repo, engine),
	}
}
