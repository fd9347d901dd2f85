package shared

import (
	"context"
	"database/sql"
	stderrors "errors"

	apperrors "stablesettle/internal/shared_kernel/errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolationCode = "23505"

// Execer is satisfied by both *sql.DB and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func IsUniqueViolation(err error) bool {
	_, ok := UniqueViolationConstraint(err)
	return ok
}

// UniqueViolationConstraint reports the violated constraint name for a 23505 error.
func UniqueViolationConstraint(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if !stderrors.As(err, &pgErr) {
		return "", false
	}
	if pgErr.Code != uniqueViolationCode {
		return "", false
	}
	return pgErr.ConstraintName, true
}

func IsNoRows(err error) bool {
	return stderrors.Is(err, sql.ErrNoRows)
}

func InternalError(code string, message string, err error) *apperrors.AppError {
	details := map[string]any{}
	if err != nil {
		details["error"] = err.Error()
	}
	return apperrors.NewInternal(code, message, details)
}

// ExecRowsAffected runs a compare-and-swap style statement and reports whether
// exactly one row changed.
func ExecRowsAffected(
	ctx context.Context,
	db Execer,
	errorCode string,
	query string,
	args ...any,
) (bool, *apperrors.AppError) {
	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, InternalError(errorCode, "failed to apply update", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, InternalError(errorCode, "failed to verify update", err)
	}
	return rowsAffected == 1, nil
}

// InTx runs fn in a read-committed transaction. The transaction is committed when fn
// returns commit=true with no error and rolled back otherwise.
func InTx(
	ctx context.Context,
	db *sql.DB,
	errorPrefix string,
	fn func(tx *sql.Tx) (commit bool, appErr *apperrors.AppError),
) *apperrors.AppError {
	tx, err := db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return InternalError(errorPrefix+"_tx_begin_failed", "failed to start transaction", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	commit, appErr := fn(tx)
	if appErr != nil || !commit {
		return appErr
	}
	if err := tx.Commit(); err != nil {
		return InternalError(errorPrefix+"_tx_commit_failed", "failed to commit transaction", err)
	}
	committed = true
	return nil
}

func NullableString(value *string) any {
	if value == nil {
		return nil
	}
	return *value
}

func StringPtr(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	out := value.String
	return &out
}
