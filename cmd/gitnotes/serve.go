package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/4thel00z/gitnotes/internal"
	"github.com/spf13/cobra"
)

func NewServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Drive the commit engine from an editor over stdin/stdout",
		Long: `Read newline-delimited JSON editor events on stdin and write confidence, commit and
error events to stdout.

Inbound:  {"type":"edit","cursor":N,"scroll":N}
          {"type":"state","cursor":N,"scroll":N,"viewport":N,"content":"..."}
          {"type":"save","path":"note.md","content":"..."}
          {"type":"switch"} {"type":"blur"} {"type":"close"}
Outbound: {"type":"confidence",...} {"type":"committed",...} {"type":"saved",...} {"type":"error",...}`,
		RunE: makeServeRunner(a),
	}

	cmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address")
	return cmd
}

func makeServeRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		metricsAddr, _ := cmd.Flags().GetString("metrics-addr")

		ws, err := a.open(cmd, nil)
		if err != nil {
			return err
		}
		if metricsAddr == "" {
			metricsAddr = ws.cfg.Metrics.Addr
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if metricsAddr != "" {
			go serveMetrics(ctx, metricsAddr, ws.metrics, cmd.ErrOrStderr())
		}

		session := internal.NewEditorSession(ws.repo, ws.engine, ws.cfg.Git.AutoCommit)
		return session.Run(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
	}
}
