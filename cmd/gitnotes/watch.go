package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/4thel00z/gitnotes/internal"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

func NewWatchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the vault and auto-commit at natural stopping points",
		Long: `Watch the vault for note changes made by any editor. Each settled write counts as an
edit and a save; the confidence engine commits once you pause. Moving on to another note
commits the notes you left, and Ctrl-C commits what is pending before exiting.`,
		RunE: makeWatchRunner(a),
	}

	cmd.Flags().Duration("debounce", 0, "Debounce window per file (default from config)")
	cmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address")
	cmd.Flags().Bool("no-auto", false, "Report confidence without committing")
	cmd.Flags().BoolP("verbose", "v", false, "Print every confidence evaluation")
	return cmd
}

func makeWatchRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		debounce, _ := cmd.Flags().GetDuration("debounce")
		metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
		noAuto, _ := cmd.Flags().GetBool("no-auto")
		verbose, _ := cmd.Flags().GetBool("verbose")

		out := cmd.OutOrStdout()
		ws, err := a.open(cmd, func(c *internal.Commit) {
			fmt.Fprintf(out, "[%s] %s\n", c.ShortHash(), c.Message)
		})
		if err != nil {
			return err
		}

		if debounce <= 0 {
			debounce = ws.cfg.Watch.Debounce
		}
		if metricsAddr == "" {
			metricsAddr = ws.cfg.Metrics.Addr
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if _, err := ws.uc.SeedPending.Execute(ctx); err != nil {
			return fmt.Errorf("collect changes: %w", err)
		}
		if err := ws.uc.TrackChange.Prime(ctx); err != nil {
			return err
		}

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("create watcher: %w", err)
		}
		defer watcher.Close()

		if err := addWatchDirs(watcher, ws.repo); err != nil {
			return fmt.Errorf("add watch dirs: %w", err)
		}

		if metricsAddr != "" {
			go serveMetrics(ctx, metricsAddr, ws.metrics, cmd.ErrOrStderr())
		}

		var report func(internal.EvalReport)
		if verbose {
			report = func(r internal.EvalReport) { printWatchReport(out, r) }
		}
		auto := internal.NewAutoCommitter(ws.uc.Commit, ws.cfg.Git.AutoCommit && !noAuto, report)
		editor := internal.NewExternalEditor(ws.uc.TrackChange, auto)
		ws.engine.StartEvalLoop(ctx, auto.Callback(ctx), ws.uc.TrackChange.EditorState)
		defer ws.engine.StopEvalLoop()

		fmt.Fprintf(out, "Watching %s for changes...\n", ws.vault.Root)

		settled := newDebouncer(debounce)
		defer settled.stop()

		log := internal.NewLogger("watch")
		for {
			select {
			case <-ctx.Done():
				ws.engine.StopEvalLoop()
				return editor.Close(context.WithoutCancel(ctx))
			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if event.Has(fsnotify.Create) && isDir(event.Name) {
					if err := addWatchDirs(watcher, ws.repo, event.Name); err != nil {
						log.WithError(err).Warn("watch new directory")
					}
					continue
				}
				if shouldIgnoreEvent(event, ws.vault) {
					continue
				}
				settled.touch(event.Name)
			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "watch error: %v\n", err)
			case name := <-settled.C():
				res, err := editor.Changed(ctx, name)
				if err != nil {
					log.WithError(err).WithField("path", name).Warn("track change")
					continue
				}
				if res.Changed {
					log.WithField("path", res.Path).WithField("lines", res.LinesChanged).Debug("saved")
				}
			}
		}
	}
}

// addWatchDirs watches root and every non-hidden, non-ignored directory
// below it. root defaults to the vault root.
func addWatchDirs(watcher *fsnotify.Watcher, repo *internal.GitVault, root ...string) error {
	start := repo.Vault().Root
	if len(root) > 0 {
		start = root[0]
	}
	return filepath.Walk(start, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}

		if info.IsDir() {
			base := filepath.Base(path)
			if path != repo.Vault().Root && (strings.HasPrefix(base, ".") || repo.IgnoredDir(path)) {
				return filepath.SkipDir
			}
			return watcher.Add(path)
		}
		return nil
	})
}

// shouldIgnoreEvent drops events outside the vault's notes: hidden paths,
// non-markdown files and chmod-only changes.
func shouldIgnoreEvent(event fsnotify.Event, v internal.Vault) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return true
	}

	if _, err := v.Rel(event.Name); err != nil {
		return true
	}

	return false
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// debouncer emits a path once no event for it arrived within delay.
type debouncer struct {
	delay time.Duration
	out   chan string
	done  chan struct{}

	mu     sync.Mutex
	timers map[string]*time.Timer
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{
		delay:  delay,
		out:    make(chan string),
		done:   make(chan struct{}),
		timers: make(map[string]*time.Timer),
	}
}

func (d *debouncer) C() <-chan string {
	return d.out
}

func (d *debouncer) touch(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if t, ok := d.timers[name]; ok {
		t.Reset(d.delay)
		return
	}
	d.timers[name] = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		delete(d.timers, name)
		d.mu.Unlock()

		select {
		case d.out <- name:
		case <-d.done:
		}
	})
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for name, t := range d.timers {
		t.Stop()
		delete(d.timers, name)
	}
	close(d.done)
}

func printWatchReport(w io.Writer, r internal.EvalReport) {
	fmt.Fprintf(w, "confidence %d%% [%s]\n", r.Score, strings.Join(r.Signals, " "))
	if r.Err != nil {
		fmt.Fprintf(w, "auto commit failed: %v\n", r.Err)
	}
}
