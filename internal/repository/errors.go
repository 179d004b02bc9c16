package repository

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("not found")

const pgUniqueViolation = "23505"

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// IsDuplicate reports whether err is a unique constraint violation on
// PostgreSQL or SQLite.
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Diagnostics extracts provider specific fields from a database error for
// logging and for the details of an error envelope.
func Diagnostics(err error) map[string]string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return map[string]string{
			"code":       pgErr.Code,
			"constraint": pgErr.ConstraintName,
			"table":      pgErr.TableName,
			"detail":     pgErr.Detail,
		}
	}
	if err == nil {
		return nil
	}
	return map[string]string{"message": err.Error()}
}
