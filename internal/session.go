package internal

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"
)

// Inbound editor event types.
const (
	EventEdit   = "edit"
	EventState  = "state"
	EventSave   = "save"
	EventSwitch = "switch"
	EventBlur   = "blur"
	EventClose  = "close"
)

// Outbound reply types.
const (
	ReplyConfidence = "confidence"
	ReplyCommitted  = "committed"
	ReplySaved      = "saved"
	ReplyError      = "error"
)

const maxEventSize = 16 << 20

// Event is one line of the editor protocol.
type Event struct {
	Type     string `json:"type"`
	Cursor   int    `json:"cursor,omitempty"`
	Scroll   int    `json:"scroll,omitempty"`
	Viewport int    `json:"viewport,omitempty"`
	Content  string `json:"content,omitempty"`
	Path     string `json:"path,omitempty"`
}

type confidenceReply struct {
	Type         string   `json:"type"`
	Score        int      `json:"score"`
	ShouldCommit bool     `json:"should_commit"`
	Message      string   `json:"message"`
	Signals      []string `json:"signals"`
}

type committedReply struct {
	Type    string `json:"type"`
	Hash    string `json:"hash"`
	Message string `json:"message"`
}

type savedReply struct {
	Type         string `json:"type"`
	Path         string `json:"path"`
	LinesChanged int    `json:"lines_changed"`
}

type errorReply struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// EditorSession drives one engine from a line-delimited JSON stream, the
// way an attached editor reports edits, saves and focus changes.
type EditorSession struct {
	engine *CommitEngine
	uc     *UseCases
	auto   *AutoCommitter

	stateMu sync.Mutex
	state   EditorState

	outMu sync.Mutex
	enc   *json.Encoder

	log *logrus.Entry
}

func NewEditorSession(repo *GitVault, engine *CommitEngine, autoCommit bool) *EditorSession {
	s := &EditorSession{
		engine: engine,
		log:    NewLogger("session"),
	}
	s.uc = NewUseCases(repo, engine, s.committed)
	s.auto = NewAutoCommitter(s.uc.Commit, autoCommit, s.evaluated)
	return s
}

// Run serves events from r until close, EOF or ctx cancellation, writing
// replies to w. Pending changes are flushed on the way out.
func (s *EditorSession) Run(ctx context.Context, r io.Reader, w io.Writer) error {
	s.SetOutput(w)

	if _, err := s.uc.SeedPending.Execute(ctx); err != nil {
		return fmt.Errorf("seed pending changes: %w", err)
	}

	s.engine.StartEvalLoop(ctx, s.auto.Callback(ctx), s.EditorState)
	defer s.engine.StopEvalLoop()

	lines := make(chan []byte)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 64*1024), maxEventSize)
		for sc.Scan() {
			line := append([]byte(nil), sc.Bytes()...)
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			s.flush(context.WithoutCancel(ctx), "shutdown")
			return nil
		case line, ok := <-lines:
			if !ok {
				s.flush(ctx, "eof")
				select {
				case err := <-scanErr:
					if err != nil {
						return fmt.Errorf("read events: %w", err)
					}
				default:
				}
				return nil
			}
			if len(line) == 0 {
				continue
			}

			var ev Event
			if err := json.Unmarshal(line, &ev); err != nil {
				s.emitError(fmt.Errorf("decode event: %w", err))
				continue
			}
			if s.Handle(ctx, ev) {
				return nil
			}
		}
	}
}

// Handle applies one event. It reports whether the session should end.
func (s *EditorSession) Handle(ctx context.Context, ev Event) bool {
	switch ev.Type {
	case EventEdit:
		s.engine.RecordEdit(ev.Cursor, ev.Scroll)
		s.stateMu.Lock()
		s.state.Cursor = ev.Cursor
		s.state.Scroll = ev.Scroll
		s.stateMu.Unlock()

	case EventState:
		s.stateMu.Lock()
		s.state = EditorState{
			Cursor:   ev.Cursor,
			Scroll:   ev.Scroll,
			Viewport: ev.Viewport,
			Content:  ev.Content,
		}
		s.stateMu.Unlock()

	case EventSave:
		out, err := s.uc.SaveNote.Execute(ctx, SaveNoteInput{Path: ev.Path, Content: ev.Content})
		if err != nil {
			s.emitError(err)
			return false
		}
		s.emit(savedReply{Type: ReplySaved, Path: out.Path, LinesChanged: out.LinesChanged})

	case EventSwitch, EventBlur:
		s.flush(ctx, ev.Type)

	case EventClose:
		s.flush(ctx, ev.Type)
		return true

	default:
		s.emitError(fmt.Errorf("unknown event type %q", ev.Type))
	}

	return false
}

// SetOutput directs replies to w.
func (s *EditorSession) SetOutput(w io.Writer) {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	s.enc = json.NewEncoder(w)
}

// EditorState is the latest state reported by the editor.
func (s *EditorSession) EditorState() EditorState {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.state
}

func (s *EditorSession) flush(ctx context.Context, reason string) {
	if err := s.auto.Flush(ctx, reason); err != nil {
		s.emitError(err)
	}
}

func (s *EditorSession) evaluated(r EvalReport) {
	signals := r.Signals
	if signals == nil {
		signals = []string{}
	}
	s.emit(confidenceReply{
		Type:         ReplyConfidence,
		Score:        r.Score,
		ShouldCommit: r.ShouldCommit,
		Message:      r.Message,
		Signals:      signals,
	})
	if r.Err != nil {
		s.emitError(r.Err)
	}
}

func (s *EditorSession) committed(c *Commit) {
	s.emit(committedReply{Type: ReplyCommitted, Hash: c.Hash, Message: c.Message})
}

func (s *EditorSession) emitError(err error) {
	s.emit(errorReply{Type: ReplyError, Message: err.Error()})
}

func (s *EditorSession) emit(v any) {
	s.outMu.Lock()
	defer s.outMu.Unlock()

	if s.enc == nil {
		return
	}
	if err := s.enc.Encode(v); err != nil {
		s.log.WithError(err).Warn("write reply")
	}
}
