package main

import (
	"encoding/json"
	"fmt"

	"github.com/4thel00z/gitnotes/internal"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func NewStatusCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show vault status",
		Long:  `Show the current branch, uncommitted notes and the last commit. --json prints the same as an object.`,
		RunE:  makeStatusRunner(a),
	}

	return cmd
}

func makeStatusRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		ws, err := a.open(cmd, nil)
		if err != nil {
			return err
		}

		out, err := ws.uc.Status.Execute(cmd.Context())
		if err != nil {
			return fmt.Errorf("get status: %w", err)
		}

		if asJSON {
			return outputStatusJSON(cmd, out)
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "On branch %s\n", out.Branch)

		if out.LastCommit != nil {
			fmt.Fprintf(w, "Last commit %s %s (%s)\n",
				out.LastCommit.Hash[:7], out.LastCommit.Message, humanize.Time(out.LastCommit.Timestamp))
		}

		if len(out.Dirty) == 0 {
			fmt.Fprintln(w, "nothing to commit, notes clean")
			return nil
		}

		fmt.Fprintf(w, "%s uncommitted:\n", pluralNotes(len(out.Dirty)))
		for _, p := range out.Dirty {
			fmt.Fprintf(w, "  %s\n", p)
		}
		return nil
	}
}

func pluralNotes(n int) string {
	if n == 1 {
		return "1 note"
	}
	return humanize.Comma(int64(n)) + " notes"
}

func outputStatusJSON(cmd *cobra.Command, status *internal.StatusOutput) error {
	dirty := status.Dirty
	if dirty == nil {
		dirty = []string{}
	}
	out := map[string]any{
		"branch": status.Branch,
		"dirty":  dirty,
		"clean":  len(dirty) == 0,
	}
	if c := status.LastCommit; c != nil {
		out["last_commit"] = map[string]any{
			"hash":      c.Hash,
			"message":   c.Message,
			"timestamp": c.Timestamp,
		}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
