package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound is returned when an update or delete matched no row
	ErrNotFound = errors.New("record not found")
	// ErrUniqueViolation is returned when a unique constraint is violated
	ErrUniqueViolation = errors.New("unique constraint violation")
	// ErrForeignKeyViolation is returned when a foreign key constraint is violated
	ErrForeignKeyViolation = errors.New("foreign key constraint violation")
	// ErrCheckViolation is returned when a check constraint is violated
	ErrCheckViolation = errors.New("check constraint violation")
	// ErrNotNullViolation is returned when a NOT NULL constraint is violated
	ErrNotNullViolation = errors.New("not null constraint violation")
	// ErrUnknownDriver is returned for an unsupported database driver
	ErrUnknownDriver = errors.New("unknown database driver")
)

// PostgreSQL SQLSTATE codes for integrity violations
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeNotNullViolation    = "23502"
)

// ConvertDBError converts driver-specific errors to store errors
func ConvertDBError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if converted := fromSQLState(pgErr.Code, pgErr.Detail, pgErr.ColumnName); converted != nil {
			return converted
		}
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if converted := fromSQLState(string(pqErr.Code), pqErr.Detail, pqErr.Column); converted != nil {
			return converted
		}
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) && liteErr.Code == sqlite3.ErrConstraint {
		switch liteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return fmt.Errorf("%w: %v", ErrUniqueViolation, err)
		case sqlite3.ErrConstraintForeignKey:
			return fmt.Errorf("%w: %v", ErrForeignKeyViolation, err)
		case sqlite3.ErrConstraintCheck:
			return fmt.Errorf("%w: %v", ErrCheckViolation, err)
		case sqlite3.ErrConstraintNotNull:
			return fmt.Errorf("%w: %v", ErrNotNullViolation, err)
		}
	}

	return err
}

func fromSQLState(code, detail, column string) error {
	switch code {
	case codeUniqueViolation:
		return fmt.Errorf("%w: %s", ErrUniqueViolation, detail)
	case codeForeignKeyViolation:
		return fmt.Errorf("%w: %s", ErrForeignKeyViolation, detail)
	case codeCheckViolation:
		return fmt.Errorf("%w: %s", ErrCheckViolation, detail)
	case codeNotNullViolation:
		return fmt.Errorf("%w: column %s", ErrNotNullViolation, column)
	}
	return nil
}

// IsNotFound returns true if the error is ErrNotFound
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUniqueViolation returns true if the error is ErrUniqueViolation
func IsUniqueViolation(err error) bool {
	return errors.Is(err, ErrUniqueViolation)
}
