package handlers

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"

	"github.com/opsgraph/opsgraph/internal/orchestration"
)

// confirmDestroy asks before deleting; replaced in tests.
var confirmDestroy = func() (bool, error) {
	if !isatty.IsTerminal(os.Stdin.Fd()) {
		return false, fmt.Errorf("refusing to destroy without a terminal; use --force")
	}
	var confirmed bool
	err := huh.NewConfirm().
		Title("Delete all tracked resources?").
		Description("This removes every remote object recorded in state.").
		Value(&confirmed).
		Run()
	if err != nil {
		return false, err
	}
	return confirmed, nil
}

// Destroy deletes every resource recorded in state, dependents before their
// dependencies.
func Destroy(ctx context.Context, configPath string, verbose, force bool) error {
	env, err := loadEnvironment(ctx, configPath)
	if err != nil {
		return err
	}

	if !force {
		ok, err := confirmDestroy()
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Destroy aborted.")
			return nil
		}
	}

	destroyer := orchestration.NewDestroyer(env.graph, env.store, env.registry, orchestration.Config{
		MaxRetries:   env.cfg.Retry.MaxRetries,
		InitialDelay: env.cfg.Retry.InitialDelay,
		MaxDelay:     env.cfg.Retry.MaxDelay,
		Observer:     orchestration.NewConsoleObserver(),
		Logger:       newLogger(verbose),
	})

	return destroyer.Run(ctx)
}
