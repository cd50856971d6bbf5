package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapError_Nil(t *testing.T) {
	if got := MapError(nil); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

func TestMapError_NoRows(t *testing.T) {
	err := MapError(fmt.Errorf("get visit: %w", pgx.ErrNoRows))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMapError_UniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "ux_atendimento_chave_natural"}
	err := MapError(pgErr)
	if !errors.Is(err, ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestMapError_DataExceptions(t *testing.T) {
	for _, code := range []string{"23502", "22003", "22P02", "22007", "22001"} {
		err := MapError(&pgconn.PgError{Code: code})
		if !errors.Is(err, ErrTypeMismatch) {
			t.Errorf("code %s: expected ErrTypeMismatch, got %v", code, err)
		}
	}
}

func TestMapError_UndefinedTable(t *testing.T) {
	err := MapError(&pgconn.PgError{Code: "42P01"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMapError_Passthrough(t *testing.T) {
	orig := errors.New("connection refused")
	if got := MapError(orig); !errors.Is(got, orig) {
		t.Errorf("expected passthrough, got %v", got)
	}

	unmapped := &pgconn.PgError{Code: "40001"}
	if got := MapError(unmapped); !errors.Is(got, unmapped) {
		t.Errorf("expected passthrough for unmapped SQLSTATE, got %v", got)
	}
}

func TestIsSQLState(t *testing.T) {
	err := fmt.Errorf("merge: %w", &pgconn.PgError{Code: "23505"})
	if !IsSQLState(err, "23505") {
		t.Error("expected SQLSTATE 23505 to match")
	}
	if IsSQLState(err, "23503") {
		t.Error("did not expect SQLSTATE 23503 to match")
	}
	if IsSQLState(errors.New("plain"), "23505") {
		t.Error("plain error should not match any SQLSTATE")
	}
}
