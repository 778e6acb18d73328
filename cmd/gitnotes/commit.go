package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/4thel00z/gitnotes/internal"
	"github.com/spf13/cobra"
)

func NewCommitCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Commit changed notes now",
		Long:  `Commit every changed note in the vault. Without -m the message is generated from the changed notes; --edit opens $EDITOR with it.`,
		RunE:  makeCommitRunner(a),
	}

	cmd.Flags().StringP("message", "m", "", "Commit message")
	cmd.Flags().BoolP("edit", "e", false, "Edit the commit message in $EDITOR")
	return cmd
}

func makeCommitRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		message, _ := cmd.Flags().GetString("message")
		edit, _ := cmd.Flags().GetBool("edit")

		ws, err := a.open(cmd, nil)
		if err != nil {
			return err
		}

		if _, err := ws.uc.SeedPending.Execute(cmd.Context()); err != nil {
			return fmt.Errorf("collect changes: %w", err)
		}

		if message == "" && edit {
			message, err = getMessageFromEditor(ws.engine.GenerateCommitMessage())
			if err != nil {
				return fmt.Errorf("get message: %w", err)
			}
			if message == "" {
				return fmt.Errorf("commit message required")
			}
		}

		out, err := ws.uc.Commit.Execute(cmd.Context(), internal.CommitInput{
			Message: message,
			Trigger: internal.TriggerManual,
		})
		if errors.Is(err, internal.ErrNoPendingChanges) {
			fmt.Fprintln(cmd.OutOrStdout(), "nothing to commit, notes clean")
			return nil
		}
		if err != nil {
			return fmt.Errorf("commit: %w", err)
		}

		if out.Hash == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "nothing to commit, notes clean")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s\n", out.Hash[:7], out.Message)
		return nil
	}
}

func getMessageFromEditor(initial string) (string, error) {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}

	tmpFile, err := os.CreateTemp("", "gitnotes-commit-*.txt")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.WriteString(initial + "\n# Edit the commit message above. Lines starting with # are ignored.\n"); err != nil {
		return "", err
	}
	tmpFile.Close()

	c := exec.Command(editor, tmpFile.Name())
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr

	if err := c.Run(); err != nil {
		return "", err
	}

	content, err := os.ReadFile(tmpFile.Name())
	if err != nil {
		return "", err
	}

	return stripComments(string(content)), nil
}

func stripComments(content string) string {
	var lines []string
	for _, line := range strings.Split(content, "\n") {
		if !strings.HasPrefix(strings.TrimSpace(line), "#") {
			lines = append(lines, line)
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
