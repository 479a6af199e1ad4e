package persistence

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Sentinel errors surfaced by the stores. Not-found covers rows owned by a
// different tenant as well, so existence never leaks across tenants.
var (
	ErrTenantNotFound          = errors.New("tenant not found")
	ErrTenantConflict          = errors.New("tenant conflict")
	ErrOptionSetNotFound       = errors.New("option set not found")
	ErrOptionSetConflict       = errors.New("option set conflict")
	ErrOptionNotFound          = errors.New("option not found")
	ErrOptionConflict          = errors.New("option conflict")
	ErrFieldDefinitionNotFound = errors.New("field definition not found")
	ErrFieldDefinitionConflict = errors.New("field definition conflict")
	ErrRecordNotFound          = errors.New("record not found")
)

// isUniqueViolation reports whether the error is a Postgres unique constraint violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

type rowScanner interface {
	Scan(dest ...any) error
}
