package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/keygate-inc/keygate/internal/infrastructure/scheduler"
	"github.com/keygate-inc/keygate/internal/interfaces/cli/bootstrap"
	httpRouter "github.com/keygate-inc/keygate/internal/interfaces/http"
	"github.com/keygate-inc/keygate/internal/shared/constants"
)

func main() {
	// Parse environment from command line or env variable
	env := constants.EnvDevelopment
	if len(os.Args) > 1 {
		env = os.Args[1]
	}
	env = bootstrap.ResolveEnv(env)

	if err := run(env); err != nil {
		fmt.Fprintf(os.Stderr, "worker failed: %v\n", err)
		os.Exit(1)
	}
}

func run(env string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.Open(ctx, env)
	if err != nil {
		return err
	}
	defer rt.Close()
	log := rt.Logger
	cfg := rt.Config.Scheduler
	log.Infow("starting maintenance worker", "environment", env)

	c, err := httpRouter.NewContainer(ctx, rt.Config, rt.DB, rt.Redis, log)
	if err != nil {
		return err
	}
	defer c.Shutdown()

	manager, err := scheduler.NewSchedulerManager(log)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	if err := manager.RegisterExpirySweep(scheduler.ExpirySweepJob(c.ExpireOverdue(), cfg.BatchSize), cfg.ExpirySweepInterval, cfg.BatchSize); err != nil {
		return fmt.Errorf("failed to register expiry sweep: %w", err)
	}
	if err := manager.RegisterIdempotencyPurge(scheduler.IdempotencyPurgeJob(c.IdempotencyPurger(), cfg.BatchSize), cfg.IdempotencyPurgeInterval, cfg.BatchSize); err != nil {
		return fmt.Errorf("failed to register idempotency purge: %w", err)
	}

	manager.Start()
	log.Infow("maintenance worker started",
		"expiry_sweep_interval", cfg.ExpirySweepInterval,
		"idempotency_purge_interval", cfg.IdempotencyPurgeInterval,
	)

	<-ctx.Done()
	log.Infow("received signal, shutting down")

	if err := manager.Stop(); err != nil {
		log.Errorw("failed to stop scheduler", "error", err)
	}
	log.Infow("maintenance worker stopped")
	return nil
}
