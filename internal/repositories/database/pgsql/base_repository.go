package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/onda_backoffice/internal/apperrors"
	"github.com/SscSPs/onda_backoffice/internal/core/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL error codes the repositories translate.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgInvalidText         = "22P02"
)

const (
	forUpdate        = " FOR UPDATE"
	openSessionIndex = "uq_cash_sessions_open_operator"
)

// BaseRepository binds a repository to the transaction of the running unit of work.
type BaseRepository struct {
	tx pgx.Tx
}

// mapWriteError translates constraint violations into the error taxonomy.
func mapWriteError(err error, what string) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			if pgErr.ConstraintName == openSessionIndex {
				return fmt.Errorf("%w: operator already has an open cash session", apperrors.ErrConflict)
			}
			return fmt.Errorf("%w: %s collides with an existing row (%s)", apperrors.ErrDuplicate, what, pgErr.ConstraintName)
		case pgForeignKeyViolation:
			return fmt.Errorf("%w: %s references a missing row (%s)", apperrors.ErrIntegrity, what, pgErr.ConstraintName)
		case pgCheckViolation:
			return fmt.Errorf("%w: %s violates %s", apperrors.ErrValidation, what, pgErr.ConstraintName)
		}
	}
	return apperrors.NewAppError(500, "failed to write "+what, err)
}

// queryOne scans a single row. No row is apperrors.ErrNotFound.
func queryOne[T any](ctx context.Context, tx pgx.Tx, scan func(pgx.Row) (T, error), what, sql string, args ...any) (*T, error) {
	v, err := scan(tx.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) || isMalformedID(err) {
		return nil, fmt.Errorf("%s: %w", what, apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to load "+what, err)
	}
	return &v, nil
}

// isMalformedID reports an id that cannot be a stored UUID.
func isMalformedID(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgInvalidText
}

// queryAll scans every row of the result. A malformed id matches nothing.
func queryAll[T any](ctx context.Context, tx pgx.Tx, scan func(pgx.Row) (T, error), what, sql string, args ...any) ([]T, error) {
	rows, err := tx.Query(ctx, sql, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query "+what, err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (T, error) {
		return scan(row)
	})
	if isMalformedID(err) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to scan "+what, err)
	}
	return out, nil
}

// execGuarded runs an update whose WHERE clause pins the expected state.
// Zero affected rows means the record moved since it was read.
func execGuarded(ctx context.Context, tx pgx.Tx, what, id string, from domain.State, sql string, args ...any) error {
	tag, err := tx.Exec(ctx, sql, args...)
	if err != nil {
		return mapWriteError(err, what)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s %s is no longer %s", apperrors.ErrStateConflict, what, id, from)
	}
	return nil
}

// execOne runs a write that must touch exactly one row.
func execOne(ctx context.Context, tx pgx.Tx, what, id, sql string, args ...any) error {
	tag, err := tx.Exec(ctx, sql, args...)
	if err != nil {
		return mapWriteError(err, what)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s %s: %w", what, id, apperrors.ErrNotFound)
	}
	return nil
}

// stateDates is never NULL in storage.
func stateDates(l domain.Lifecycle) map[domain.State]time.Time {
	if l.StateDates == nil {
		return map[domain.State]time.Time{}
	}
	return l.StateDates
}
