package v1

import "time"

// Commit represents a git commit in the notes vault.
type Commit struct {
	Hash      string    `json:"hash"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// EditorState is the editor position the engine scores against.
type EditorState struct {
	Cursor   int    `json:"cursor"`
	Scroll   int    `json:"scroll"`
	Viewport int    `json:"viewport"`
	Content  string `json:"content"` // document text up to the cursor
}

// Confidence is a scored commit point.
type Confidence struct {
	Score   int      `json:"score"`
	Signals []string `json:"signals"`
}

// Evaluation is one tick of the running engine.
type Evaluation struct {
	Score        int      `json:"score"`
	ShouldCommit bool     `json:"should_commit"`
	Message      string   `json:"message"`
	Signals      []string `json:"signals"`
	Committed    *Commit  `json:"committed,omitempty"`
	Err          error    `json:"-"`
}
