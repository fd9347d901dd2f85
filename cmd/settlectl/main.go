package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"stablesettle/internal/application/dto"
	"stablesettle/internal/infrastructure/config"
	"stablesettle/internal/infrastructure/di"
)

var Version = "dev"

const skipMigrationsFlag = "skip-migrations"

func main() {
	rootCmd := &cobra.Command{
		Use:           "settlectl",
		Short:         "Operate stablesettle jobs and data from an external scheduler",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().Bool(skipMigrationsFlag, false, "only wait for the database, do not apply schema migrations")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(addressPoolCmd())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// session is the wired container plus the config it was built from.
type session struct {
	cfg       config.Config
	container di.Container
	logger    *log.Logger
}

// openSession loads configuration, wires dependencies and waits for the database,
// applying migrations unless skipMigrations is set.
func openSession(ctx context.Context, skipMigrations bool) (*session, error) {
	logger := log.New(os.Stdout, "", log.LstdFlags|log.LUTC)
	cfg, cfgErr := config.LoadConfig()
	if cfgErr != nil {
		return nil, fmt.Errorf("config error code=%s message=%s metadata=%v", cfgErr.Code, cfgErr.Message, cfgErr.Metadata)
	}

	container, err := di.Build(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("dependency wiring error: %w", err)
	}

	persistenceErr := container.InitializePersistenceUseCase.Execute(ctx, dto.InitializePersistenceCommand{
		ReadinessTimeout:       cfg.DBReadinessTimeout,
		ReadinessRetryInterval: cfg.DBReadinessRetryInterval,
		SkipMigrations:         skipMigrations,
	})
	if persistenceErr != nil {
		container.Close()
		return nil, fmt.Errorf(
			"persistence initialization failed code=%s message=%s metadata=%v",
			persistenceErr.Code,
			persistenceErr.Message,
			persistenceErr.Details,
		)
	}

	return &session{cfg: cfg, container: container, logger: logger}, nil
}

func (s *session) close() {
	if err := s.container.Close(); err != nil {
		s.logger.Printf("database close warning error=%v", err)
	}
}

func skipMigrationsRequested(cmd *cobra.Command) bool {
	skip, err := cmd.Flags().GetBool(skipMigrationsFlag)
	return err == nil && skip
}
