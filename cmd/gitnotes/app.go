package main

import (
	"fmt"

	"github.com/4thel00z/gitnotes/internal"
	"github.com/spf13/cobra"
)

type app struct {
	resolver *internal.VaultResolver
}

func newApp() *app {
	return &app{
		resolver: internal.NewVaultResolver(),
	}
}

// workspace is one opened vault with its engine and use cases.
type workspace struct {
	vault   internal.Vault
	cfg     *internal.Config
	repo    *internal.GitVault
	engine  *internal.CommitEngine
	metrics *internal.Metrics
	uc      *internal.UseCases
}

func (a *app) vaultFor(cmd *cobra.Command) internal.Vault {
	explicit, _ := cmd.Flags().GetString("vault")
	return a.resolver.Resolve(explicit)
}

// open loads the vault named by the --vault flag and wires an engine to it.
// onCommit may be nil.
func (a *app) open(cmd *cobra.Command, onCommit func(*internal.Commit)) (*workspace, error) {
	v := a.vaultFor(cmd)

	cfg, err := internal.LoadConfig(v)
	if err != nil {
		return nil, err
	}
	internal.ConfigureLogging(cfg.Logging, cmd.ErrOrStderr())

	repo, err := internal.OpenVault(v, cfg)
	if err != nil {
		return nil, fmt.Errorf("open vault: %w", err)
	}

	metrics := internal.NewMetrics()
	opts := append(cfg.EngineOptions(),
		internal.WithMetrics(metrics),
		internal.WithLogger(internal.NewLogger("engine").WithField("vault", v.Root)),
	)
	engine := internal.NewCommitEngine(opts...)

	return &workspace{
		vault:   v,
		cfg:     cfg,
		repo:    repo,
		engine:  engine,
		metrics: metrics,
		uc:      internal.NewUseCases(repo, engine, onCommit),
	}, nil
}
