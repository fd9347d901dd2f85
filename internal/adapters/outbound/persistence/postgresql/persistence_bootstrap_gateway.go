package postgresql

import (
	"context"
	"database/sql"
	stderrors "errors"
	"log"
	"path/filepath"

	portsout "stablesettle/internal/application/ports/out"
	apperrors "stablesettle/internal/shared_kernel/errors"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// PersistenceBootstrapGateway checks the shared pool for readiness and applies the SQL
// migrations under migrationsPath with golang-migrate.
type PersistenceBootstrapGateway struct {
	db             *sql.DB
	databaseURL    string
	databaseTarget string
	migrationsPath string
	logger         *log.Logger
}

var _ portsout.PersistenceBootstrapGateway = (*PersistenceBootstrapGateway)(nil)

type MigrationStatus struct {
	Version uint
	Dirty   bool
	Applied bool
}

func NewPersistenceBootstrapGateway(
	db *sql.DB,
	databaseURL string,
	databaseTarget string,
	migrationsPath string,
	logger *log.Logger,
) *PersistenceBootstrapGateway {
	return &PersistenceBootstrapGateway{
		db:             db,
		databaseURL:    databaseURL,
		databaseTarget: databaseTarget,
		migrationsPath: migrationsPath,
		logger:         logger,
	}
}

func (g *PersistenceBootstrapGateway) CheckReadiness(ctx context.Context) *apperrors.AppError {
	if g.db == nil {
		return apperrors.NewInternal(
			"DB_POOL_MISSING",
			"database pool is not configured",
			map[string]any{"database_target": g.databaseTarget},
		)
	}

	if err := g.db.PingContext(ctx); err != nil {
		g.logf("database readiness check failed target=%s error=%v", g.databaseTarget, err)
		return apperrors.NewUnavailable(
			"DB_CONNECT_FAILED",
			"failed to connect to database",
			map[string]any{"database_target": g.databaseTarget},
		)
	}

	return nil
}

func (g *PersistenceBootstrapGateway) RunMigrations(ctx context.Context) *apperrors.AppError {
	if err := ctx.Err(); err != nil {
		return apperrors.NewInternal(
			"DB_MIGRATION_CONTEXT_CANCELED",
			"migration context canceled",
			map[string]any{"database_target": g.databaseTarget},
		)
	}

	runner, appErr := g.newMigrationRunner()
	if appErr != nil {
		return appErr
	}
	defer g.closeRunner(runner)

	err := runner.Up()
	if stderrors.Is(err, migrate.ErrNoChange) {
		g.logf("database migrations up to date target=%s", g.databaseTarget)
		return nil
	}
	if err != nil {
		g.logf("database migrations failed target=%s error=%v", g.databaseTarget, err)
		return apperrors.NewInternal(
			"DB_MIGRATION_APPLY_FAILED",
			"failed to apply migrations",
			map[string]any{
				"database_target": g.databaseTarget,
				"migrations_path": g.migrationsPath,
				"error":           err.Error(),
			},
		)
	}

	g.logf("database migrations applied target=%s", g.databaseTarget)
	return nil
}

// Status reports the applied migration version; Applied is false on an empty database.
func (g *PersistenceBootstrapGateway) Status(_ context.Context) (MigrationStatus, *apperrors.AppError) {
	runner, appErr := g.newMigrationRunner()
	if appErr != nil {
		return MigrationStatus{}, appErr
	}
	defer g.closeRunner(runner)

	version, dirty, err := runner.Version()
	if stderrors.Is(err, migrate.ErrNilVersion) {
		return MigrationStatus{}, nil
	}
	if err != nil {
		return MigrationStatus{}, apperrors.NewInternal(
			"DB_MIGRATION_STATUS_FAILED",
			"failed to read migration version",
			map[string]any{"database_target": g.databaseTarget, "error": err.Error()},
		)
	}
	return MigrationStatus{Version: version, Dirty: dirty, Applied: true}, nil
}

func (g *PersistenceBootstrapGateway) newMigrationRunner() (*migrate.Migrate, *apperrors.AppError) {
	migrationsAbsPath, err := filepath.Abs(g.migrationsPath)
	if err != nil {
		return nil, apperrors.NewInternal(
			"DB_MIGRATION_PATH_RESOLVE_FAILED",
			"failed to resolve migration path",
			map[string]any{"migrations_path": g.migrationsPath},
		)
	}

	runner, err := migrate.New("file://"+filepath.ToSlash(migrationsAbsPath), g.databaseURL)
	if err != nil {
		return nil, apperrors.NewInternal(
			"DB_MIGRATION_SETUP_FAILED",
			"failed to initialize migration runner",
			map[string]any{
				"database_target": g.databaseTarget,
				"migrations_path": g.migrationsPath,
				"error":           err.Error(),
			},
		)
	}
	return runner, nil
}

func (g *PersistenceBootstrapGateway) closeRunner(runner *migrate.Migrate) {
	sourceErr, dbErr := runner.Close()
	if sourceErr != nil {
		g.logf("migration source close warning path=%s error=%v", g.migrationsPath, sourceErr)
	}
	if dbErr != nil {
		g.logf("migration db close warning target=%s error=%v", g.databaseTarget, dbErr)
	}
}

func (g *PersistenceBootstrapGateway) logf(format string, args ...any) {
	if g.logger == nil {
		return
	}
	g.logger.Printf(format, args...)
}
