package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/opsgraph/opsgraph/internal/orchestration"
	"github.com/opsgraph/opsgraph/internal/resolve"
)

const summaryRounding = 10 * time.Millisecond

// Apply runs one full provisioning cycle:
//  1. Loads configuration and the declaration, builds the graph.
//  2. Reconciles interrupted operations left in state by a crashed run.
//  3. Applies every resource in dependency order.
//
// The returned error is non-nil when any resource failed or was skipped,
// so the process exits non-zero on a partial apply.
//
// When metricsListen is non-empty, scheduler metrics are served on that
// address for the duration of the run.
func Apply(ctx context.Context, configPath string, verbose bool, metricsListen string) error {
	env, err := loadEnvironment(ctx, configPath)
	if err != nil {
		return err
	}

	obs := orchestration.NewConsoleObserver()
	log := newLogger(verbose)

	if metricsListen != "" {
		_, stop, err := startMetricsServer(metricsListen, log)
		if err != nil {
			return err
		}
		defer stop()
	}

	if err := orchestration.Reconcile(ctx, env.store, env.registry, obs, log); err != nil {
		return fmt.Errorf("reconcile interrupted state: %w", err)
	}

	scheduler := orchestration.NewScheduler(
		env.graph,
		resolve.NewResolver(env.set),
		env.store,
		env.registry,
		orchestration.Config{
			Concurrency:  env.cfg.Concurrency,
			MaxRetries:   env.cfg.Retry.MaxRetries,
			InitialDelay: env.cfg.Retry.InitialDelay,
			MaxDelay:     env.cfg.Retry.MaxDelay,
			Observer:     obs,
			Logger:       log,
		},
	)

	summary, err := scheduler.Run(ctx)
	if err != nil {
		return err
	}

	obs.Printf("Applied %d, failed %d, skipped %d in %s.",
		len(summary.Applied), len(summary.Failed), len(summary.Skipped),
		summary.Duration.Round(summaryRounding))
	if summary.Cancelled {
		obs.Printf("Run was cancelled; completed operations were recorded.")
	}

	return summary.Err()
}
