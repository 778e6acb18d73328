package main

import (
	"fmt"
	"io"
	"os"

	"github.com/4thel00z/gitnotes/internal"
	"github.com/spf13/cobra"
)

func NewSaveCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "save <note.md> [content]",
		Short: "Write a note into the vault",
		Long:  `Write a note and stage it. Content is read from stdin or --file when not given as an argument.`,
		Args:  cobra.RangeArgs(1, 2),
		RunE:  makeSaveRunner(a),
	}

	cmd.Flags().StringP("file", "f", "", "Read content from file")
	return cmd
}

func makeSaveRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		content, err := readContent(cmd, args)
		if err != nil {
			return err
		}

		ws, err := a.open(cmd, nil)
		if err != nil {
			return err
		}

		out, err := ws.uc.SaveNote.Execute(cmd.Context(), internal.SaveNoteInput{
			Path:    args[0],
			Content: content,
		})
		if err != nil {
			return fmt.Errorf("save: %w", err)
		}

		if !out.Written {
			fmt.Fprintf(cmd.OutOrStdout(), "%s unchanged\n", out.Path)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%d lines changed)\n", out.Path, out.LinesChanged)
		return nil
	}
}

func readContent(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 1 {
		return args[1], nil
	}

	file, _ := cmd.Flags().GetString("file")
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read file: %w", err)
		}
		return string(data), nil
	}

	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}
