package v1

import (
	"io"
	"time"
)

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	vault          string
	initialize     bool
	now            func() time.Time
	minCommitDelay time.Duration
	evalInterval   time.Duration
	onCommit       func(Commit)
	logOutput      io.Writer
}

// WithVault opens the vault at dir instead of resolving one.
func WithVault(dir string) Option {
	return func(c *clientConfig) {
		c.vault = dir
	}
}

// WithInitialize creates the vault when it does not exist yet.
func WithInitialize() Option {
	return func(c *clientConfig) {
		c.initialize = true
	}
}

// WithClock replaces the wall clock, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *clientConfig) {
		c.now = now
	}
}

// WithMinCommitDelay overrides the configured post-save cool-down.
func WithMinCommitDelay(d time.Duration) Option {
	return func(c *clientConfig) {
		c.minCommitDelay = d
	}
}

// WithEvalInterval overrides how often the running loop evaluates.
func WithEvalInterval(d time.Duration) Option {
	return func(c *clientConfig) {
		c.evalInterval = d
	}
}

// WithCommitHook is called after every commit the client makes.
func WithCommitHook(fn func(Commit)) Option {
	return func(c *clientConfig) {
		c.onCommit = fn
	}
}

// WithLogOutput sends engine logs to w. The vault's logging level and format
// apply either way.
func WithLogOutput(w io.Writer) Option {
	return func(c *clientConfig) {
		c.logOutput = w
	}
}
