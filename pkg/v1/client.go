package v1

import (
	"context"
	"fmt"
	"sync"

	"github.com/4thel00z/gitnotes/internal"
)

// Client embeds the auto-commit engine for one notes vault.
type Client struct {
	repo   *internal.GitVault
	engine *internal.CommitEngine
	uc     *internal.UseCases
	cfg    *internal.Config

	mu    sync.Mutex
	state EditorState
}

// New opens (or with WithInitialize creates) a vault and its engine.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	v := internal.NewVaultResolver().Resolve(cfg.vault)
	if cfg.initialize && !v.Initialized() {
		if err := internal.InitVault(v, nil); err != nil {
			return nil, fmt.Errorf("init vault: %w", err)
		}
	}

	vaultCfg, err := internal.LoadConfig(v)
	if err != nil {
		return nil, err
	}
	internal.ConfigureLogging(vaultCfg.Logging, cfg.logOutput)

	repo, err := internal.OpenVault(v, vaultCfg)
	if err != nil {
		return nil, err
	}

	engineOpts := append(vaultCfg.EngineOptions(),
		internal.WithClock(cfg.now),
		internal.WithMinCommitDelay(cfg.minCommitDelay),
		internal.WithEvalInterval(cfg.evalInterval),
	)
	engine := internal.NewCommitEngine(engineOpts...)

	var onCommit func(*internal.Commit)
	if cfg.onCommit != nil {
		onCommit = func(c *internal.Commit) {
			cfg.onCommit(Commit{Hash: c.Hash, Message: c.Message, Timestamp: c.Timestamp})
		}
	}

	return &Client{
		repo:   repo,
		engine: engine,
		uc:     internal.NewUseCases(repo, engine, onCommit),
		cfg:    vaultCfg,
	}, nil
}

// Root is the vault directory.
func (c *Client) Root() string {
	return c.repo.Vault().Root
}

// Save writes a note and registers it as a pending change. It returns the
// number of changed lines; zero with no write when the content is unchanged.
func (c *Client) Save(ctx context.Context, path string, content []byte) (int, error) {
	out, err := c.uc.SaveNote.Execute(ctx, internal.SaveNoteInput{
		Path: path, Content: string(content),
	})
	if err != nil {
		return 0, fmt.Errorf("save: %w", err)
	}
	return out.LinesChanged, nil
}

// RecordEdit reports a keystroke-level change at the cursor and scroll
// position.
func (c *Client) RecordEdit(cursor, scroll int) {
	c.engine.RecordEdit(cursor, scroll)
	c.mu.Lock()
	c.state.Cursor = cursor
	c.state.Scroll = scroll
	c.mu.Unlock()
}

// SetState replaces the editor state the running loop scores against.
func (c *Client) SetState(s EditorState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = s
}

// Confidence scores s right now.
func (c *Client) Confidence(s EditorState) Confidence {
	res := c.engine.CalculateConfidence(s.Cursor, s.Scroll, s.Viewport, s.Content)
	return Confidence{Score: res.Score, Signals: res.Signals.Names()}
}

// Pending returns the uncommitted notes and their changed line counts.
func (c *Client) Pending() map[string]int {
	pending := c.engine.State().PendingChanges
	out := make(map[string]int, len(pending))
	for id, p := range pending {
		out[id] = p.LinesChanged
	}
	return out
}

// Message is the commit message the pending changes would get.
func (c *Client) Message() string {
	return c.engine.GenerateCommitMessage()
}

// Commit commits the pending changes now. An empty message uses the
// generated one.
func (c *Client) Commit(ctx context.Context, message string) (*Commit, error) {
	out, err := c.uc.Commit.Execute(ctx, internal.CommitInput{
		Message: message, Trigger: internal.TriggerManual,
	})
	if err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	commit := fromOutput(*out)
	return &commit, nil
}

// Trigger fires the immediate commit used on note switch, blur and close.
// It does nothing within the post-save cool-down.
func (c *Client) Trigger(ctx context.Context) error {
	return c.uc.Commit.Flush(ctx)
}

// Start runs the evaluation loop, committing automatically when the vault
// has auto-commit enabled. fn, when set, sees every evaluation.
func (c *Client) Start(ctx context.Context, fn func(Evaluation)) {
	report := func(r internal.EvalReport) {
		if fn == nil {
			return
		}
		ev := Evaluation{
			Score:        r.Score,
			ShouldCommit: r.ShouldCommit,
			Message:      r.Message,
			Signals:      r.Signals,
			Err:          r.Err,
		}
		if r.Committed != nil {
			commit := fromOutput(*r.Committed)
			ev.Committed = &commit
		}
		fn(ev)
	}

	auto := internal.NewAutoCommitter(c.uc.Commit, c.cfg.Git.AutoCommit, report)
	c.engine.StartEvalLoop(ctx, auto.Callback(ctx), c.editorState)
}

// Stop ends the evaluation loop.
func (c *Client) Stop() {
	c.engine.StopEvalLoop()
}

// Running reports whether the evaluation loop is active.
func (c *Client) Running() bool {
	return c.engine.EvalLoopRunning()
}

// Log returns up to limit recent commits, newest first.
func (c *Client) Log(ctx context.Context, limit int) ([]Commit, error) {
	out, err := c.uc.Log.Execute(ctx, internal.LogInput{Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("log: %w", err)
	}

	commits := make([]Commit, 0, len(out.Commits))
	for _, co := range out.Commits {
		commits = append(commits, fromOutput(co))
	}
	return commits, nil
}

// Close stops the loop and fires the immediate trigger.
func (c *Client) Close() error {
	c.Stop()
	return c.Trigger(context.Background())
}

func (c *Client) editorState() internal.EditorState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return internal.EditorState{
		Cursor:   c.state.Cursor,
		Scroll:   c.state.Scroll,
		Viewport: c.state.Viewport,
		Content:  c.state.Content,
	}
}

func fromOutput(o internal.CommitOutput) Commit {
	return Commit{Hash: o.Hash, Message: o.Message, Timestamp: o.Timestamp}
}
