package database

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"fulfillment-backend/internal/shared/apperror"
)

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx, so repositories run inside or outside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgreSQL error codes handled explicitly.
const (
	pgUniqueViolation      = "23505"
	pgForeignKeyViolation  = "23503"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
)

// MapError converts driver errors into apperror kinds.
// notFound is returned for pgx.ErrNoRows; pass nil to use the generic one.
func MapError(err error, notFound *apperror.Error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		if notFound != nil {
			return notFound
		}
		return apperror.ErrRecordNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return apperror.ErrDuplicate.Wrap(err)
		case pgForeignKeyViolation:
			return apperror.ErrReference.WithDetail("%s", pgErr.ConstraintName)
		case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
			return apperror.ErrConcurrent.Wrap(err)
		}
	}

	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return err
	}

	return apperror.Internal("database error", err)
}
