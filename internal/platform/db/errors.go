package db

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Storage error kinds surfaced to callers. Repositories translate raw
// pgx errors into these so services and handlers can branch with
// errors.Is instead of inspecting SQLSTATEs.
var (
	// ErrDuplicateKey is an integrity constraint breach, typically a
	// natural-key collision on a path that bypasses the merge.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrTypeMismatch is a value the column type cannot store.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrNotFound is a missing row or schema object.
	ErrNotFound = errors.New("not found")
)

// SQLSTATE codes this mart can realistically hit.
const (
	pgErrUniqueViolation           = "23505"
	pgErrNotNullViolation          = "23502"
	pgErrCheckViolation            = "23514"
	pgErrNumericValueOutOfRange    = "22003"
	pgErrInvalidTextRepresentation = "22P02"
	pgErrInvalidDatetimeFormat     = "22007"
	pgErrStringDataRightTruncation = "22001"
	pgErrUndefinedTable            = "42P01"
)

// IsSQLState reports whether err is a Postgres error with the given SQLSTATE.
func IsSQLState(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

// MapError translates a pgx error into one of the storage error kinds,
// keeping the original error in the chain. Errors with no mapping are
// returned unchanged.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgErrUniqueViolation:
		return fmt.Errorf("%w: %s: %w", ErrDuplicateKey, pgErr.ConstraintName, err)
	case pgErrNotNullViolation, pgErrCheckViolation,
		pgErrNumericValueOutOfRange, pgErrInvalidTextRepresentation,
		pgErrInvalidDatetimeFormat, pgErrStringDataRightTruncation:
		return fmt.Errorf("%w: %w", ErrTypeMismatch, err)
	case pgErrUndefinedTable:
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return err
}
