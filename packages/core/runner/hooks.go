package runner

import (
	"context"
	"errors"
	"fmt"
)

// Hook runs once before or after the tests of a suite.
type Hook func(ctx context.Context) error

// runHooks runs every hook even when one fails and joins the errors.
func runHooks(ctx context.Context, hooks []Hook) error {
	var errs []error
	for i, hook := range hooks {
		if hook == nil {
			continue
		}
		if err := hook(ctx); err != nil {
			errs = append(errs, fmt.Errorf("hook %d: %w", i+1, err))
		}
	}
	return errors.Join(errs...)
}

// ShellHook runs command through the configured shell.
func ShellHook(command string, opts ShellOptions) Hook {
	return func(ctx context.Context) error {
		_, err := runShell(ctx, command, opts)
		return err
	}
}
