package main

import (
	"fmt"

	"github.com/4thel00z/gitnotes/internal"
	"github.com/spf13/cobra"
)

func NewInitCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a notes vault",
		Long:  `Create the vault directory with a git repository on branch main and a .gitnotes config.`,
		RunE:  makeInitRunner(a),
	}

	cmd.Flags().Bool("manual", false, "Disable auto-commit in the new vault")
	return cmd
}

func makeInitRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		manual, _ := cmd.Flags().GetBool("manual")

		v := a.vaultFor(cmd)
		if v.Initialized() {
			return fmt.Errorf("already initialized at %s", v.Root)
		}

		cfg := internal.DefaultConfig()
		cfg.Git.AutoCommit = !manual

		if err := internal.InitVault(v, cfg); err != nil {
			return fmt.Errorf("init vault: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Initialized notes vault at %s\n", v.Root)
		return nil
	}
}
