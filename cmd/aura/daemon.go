package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/fahchen/aura/internal/config"
	"github.com/fahchen/aura/internal/ipc"
	"github.com/fahchen/aura/internal/logx"
	"github.com/fahchen/aura/internal/registry"
	"github.com/fahchen/aura/internal/rollout"
)

// runDaemon wires the registry, IPC server, rollout watcher, and stale
// scheduler together and runs until an interrupt or terminate signal
// arrives. Grounded on cmd/server/main.go's context-cancel-plus-signal
// shutdown shape.
func runDaemon(ctx context.Context) error {
	cfg, err := config.LoadOrDefault(config.DefaultConfigPath())
	if err != nil {
		return err
	}

	reg := registry.New()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		registry.RunStaleScheduler(ctx, reg, cfg.Registry.StaleTimeout)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		rollout.NewWatcher(reg).Run(ctx)
	}()

	srv := ipc.NewServer(cfg.Socket.Path, reg)
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := srv.ListenAndServe(ctx); err != nil {
			logx.Warnf("ipc: server exited: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		logx.Infof("aura: shutting down")
	case <-ctx.Done():
	}

	cancel()
	wg.Wait()
	return nil
}
