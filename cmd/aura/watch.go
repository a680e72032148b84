package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fahchen/aura/internal/config"
	"github.com/fahchen/aura/internal/ipc"
	"github.com/fahchen/aura/internal/registry"
	"github.com/fahchen/aura/internal/rollout"
	"github.com/fahchen/aura/internal/watch"
)

// newWatchCommand implements `aura watch`: a standalone process that
// runs its own IPC server, rollout watcher, and stale scheduler (so it
// can be used without a separately-running daemon) and renders session
// snapshots to the terminal. Supplemented per SPEC_FULL.md's
// SUPPLEMENTED FEATURES: it exercises the registry's read path with a
// real consumer, standing in for the out-of-scope GUI renderer.
func newWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Render tracked agent sessions to the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOrDefault(config.DefaultConfigPath())
			if err != nil {
				return err
			}

			reg := registry.New()
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			go registry.RunStaleScheduler(ctx, reg, cfg.Registry.StaleTimeout)
			go rollout.NewWatcher(reg).Run(ctx)
			go func() {
				_ = ipc.NewServer(cfg.Socket.Path, reg).ListenAndServe(ctx)
			}()

			watch.Run(ctx, reg, os.Stdout)
			return nil
		},
	}
}
