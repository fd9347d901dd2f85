package dto

import "time"

// InitializePersistenceCommand waits for the database and, unless SkipMigrations is
// set, applies pending schema migrations.
type InitializePersistenceCommand struct {
	ReadinessTimeout       time.Duration
	ReadinessRetryInterval time.Duration
	SkipMigrations         bool
}
