package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/loomhq/loom/internal/design"
	"github.com/loomhq/loom/internal/scheduler"
)

var serveNoWatch bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the deployment scheduler daemon",
	Long: `Run the scheduler daemon.

Loads every active deployment from the store, registers its cron or
interval trigger, and executes the deployed design on each tick. Designs
in the configured designs directory are synced into the store at startup
and hot-reloaded on file changes unless --no-watch is set.

The daemon runs until interrupted (SIGINT/SIGTERM).`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	_, executor, err := newExecutor(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Sync design files into the store before the scheduler registers
	// triggers, so deployments resolve their designs on the first tick.
	if cfg.Designs.Dir != "" {
		if _, err := os.Stat(cfg.Designs.Dir); err == nil {
			if cfg.Designs.Watch && !serveNoWatch {
				watcher, err := design.NewWatcher(ctx, cfg.Designs.Dir, st)
				if err != nil {
					return fmt.Errorf("watch designs: %w", err)
				}
				defer watcher.Close()
			} else {
				designs, err := design.LoadDir(cfg.Designs.Dir)
				if err != nil {
					return fmt.Errorf("load designs: %w", err)
				}
				for _, d := range designs {
					if err := st.PutDesign(ctx, d); err != nil {
						return fmt.Errorf("store design %s: %w", d.ID, err)
					}
				}
				log.Printf("[serve.designs] loaded %d design(s) from %s", len(designs), cfg.Designs.Dir)
			}
		}
	}

	sched := scheduler.New(st, executor)
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer sched.Stop()

	log.Printf("[serve] scheduler running (store=%s), press Ctrl+C to stop", cfg.Store.Backend)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		log.Printf("[serve] received %s, shutting down", sig)
	case <-ctx.Done():
	}
	return nil
}

func init() {
	serveCmd.Flags().BoolVar(&serveNoWatch, "no-watch", false, "Sync the designs directory once instead of watching it")
}
