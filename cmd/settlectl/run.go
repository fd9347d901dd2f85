package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"stablesettle/internal/infrastructure/di"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

type job interface {
	RunOnce(ctx context.Context) *apperrors.AppError
}

func jobsFor(container di.Container) map[string]job {
	return map[string]job{
		"monitor":           container.MonitorWorker,
		"finalizer":         container.FinalizerWorker,
		"expire-intents":    container.IntentExpiryWorker,
		"expire-payouts":    container.PayoutExpiryWorker,
		"confirm-payouts":   container.PayoutConfirmationWorker,
		"dispatch-webhooks": container.WebhookWorker,
	}
}

func jobNames() []string {
	names := make([]string, 0, 6)
	for name := range jobsFor(di.Container{}) {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func selectJob(container di.Container, name string) (job, error) {
	selected, ok := jobsFor(container)[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown job %q (expected one of %s)", name, strings.Join(jobNames(), ", "))
	}
	return selected, nil
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "run [job]",
		Short:     "Run one cycle of a background job and exit",
		Long:      "Run one cycle of a background job and exit. Jobs: " + strings.Join(jobNames(), ", ") + ".",
		Args:      cobra.ExactArgs(1),
		ValidArgs: jobNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Reject unknown names before touching the database.
			if _, err := selectJob(di.Container{}, args[0]); err != nil {
				return err
			}

			ctx := cmd.Context()
			sess, err := openSession(ctx, skipMigrationsRequested(cmd))
			if err != nil {
				return err
			}
			defer sess.close()

			selected, err := selectJob(sess.container, args[0])
			if err != nil {
				return err
			}
			if appErr := selected.RunOnce(ctx); appErr != nil {
				return fmt.Errorf("job %s failed code=%s message=%s", args[0], appErr.Code, appErr.Message)
			}
			return nil
		},
	}
}
