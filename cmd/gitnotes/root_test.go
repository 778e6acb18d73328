package main

import (
	"bytes"
	"testing"
)

func TestRootCmdSubcommands(t *testing.T) {
	root := NewRootCmd("test", newApp())

	want := []string{"init", "save", "commit", "status", "log", "watch", "serve"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestRootCmdHelp(t *testing.T) {
	root := NewRootCmd("test", nil)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{})

	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if out.Len() == 0 {
		t.Error("expected help output")
	}
}

func TestRootCmdVaultFlag(t *testing.T) {
	root := NewRootCmd("test", nil)
	if root.PersistentFlags().Lookup("vault") == nil {
		t.Fatal("missing --vault flag")
	}
}
