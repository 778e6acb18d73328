package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/4thel00z/gitnotes/internal"
)

// setupVault creates an initialized vault and returns its root.
func setupVault(t *testing.T) string {
	t.Helper()
	t.Setenv(internal.VaultEnvVar, "")

	root := filepath.Join(t.TempDir(), "Notes")
	if err := internal.InitVault(internal.Vault{Root: root}, nil); err != nil {
		t.Fatalf("init vault: %v", err)
	}
	return root
}

func run(t *testing.T, args ...string) string {
	t.Helper()

	root := NewRootCmd("test", newApp())
	root.SetArgs(args)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})

	if err := root.Execute(); err != nil {
		t.Fatalf("%s: %v", strings.Join(args, " "), err)
	}
	return out.String()
}

func TestCommitCmdGeneratesMessage(t *testing.T) {
	vault := setupVault(t)

	run(t, "--vault", vault, "save", "short.md", "one\n")
	run(t, "--vault", vault, "save", "long.md", "one\ntwo\nthree\n")

	output := run(t, "--vault", vault, "commit")
	if !strings.Contains(output, "Update long, short") {
		t.Errorf("output = %q, want generated message", output)
	}
}

func TestCommitCmdWithMessage(t *testing.T) {
	vault := setupVault(t)

	run(t, "--vault", vault, "save", "a.md", "alpha\n")

	output := run(t, "--vault", vault, "commit", "-m", "write alpha")
	if !strings.Contains(output, "write alpha") {
		t.Errorf("output = %q, want custom message", output)
	}
}

func TestCommitCmdClean(t *testing.T) {
	vault := setupVault(t)

	output := run(t, "--vault", vault, "commit")
	if !strings.Contains(output, "nothing to commit") {
		t.Errorf("output = %q, want clean message", output)
	}
}

func TestStripComments(t *testing.T) {
	got := stripComments("Update ideas\n\n# Edit the commit message above.\n  # indented\n")
	if got != "Update ideas" {
		t.Errorf("stripComments() = %q", got)
	}
}
