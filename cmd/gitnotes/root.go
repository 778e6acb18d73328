package main

import (
	"github.com/spf13/cobra"
)

func NewRootCmd(version string, a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "gitnotes",
		Short:         "Markdown notes with confidence-based auto-commit",
		Long:          `A git-backed notes vault that commits your edits when you reach a natural stopping point.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	addPersistentFlags(rootCmd)

	if a != nil {
		addSubcommands(rootCmd, a)
	}

	return rootCmd
}

func addPersistentFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("vault", "", "Notes vault directory (default: $GITNOTES_PATH, nearest vault, ~/Notes)")
	cmd.PersistentFlags().Bool("json", false, "Output in JSON format")
}

func addSubcommands(root *cobra.Command, a *app) {
	root.AddCommand(
		NewInitCmd(a),
		NewSaveCmd(a),
		NewCommitCmd(a),
		NewStatusCmd(a),
		NewLogCmd(a),
		NewWatchCmd(a),
		NewServeCmd(a),
	)
}
