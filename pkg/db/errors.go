package db

import (
	"errors"
	"strings"

	pkgerrors "github.com/angelmondragon/orderdesk-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// IsUniqueViolation reports whether err is a unique constraint violation on
// Postgres or sqlite. When constraint is provided, the helper also requires the
// constraint (or column) text to appear in the error message.
func IsUniqueViolation(err error, constraint string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	matched := pkgerrors.PGCode(err) == pgUniqueViolation ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
	if !matched {
		return false
	}
	if constraint != "" {
		return strings.Contains(msg, constraint)
	}
	return true
}

// IsForeignKeyViolation reports whether err is a foreign key violation.
func IsForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	return pkgerrors.PGCode(err) == pgForeignKeyViolation ||
		strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

// IsNotFound reports whether err is GORM's missing-row sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// Classify maps a repository error onto the domain taxonomy. Typed errors pass
// through, a missing row becomes NOT_FOUND for entity/id and anything else is a
// STORAGE_FAILURE tagged with op.
func Classify(err error, entity string, id uuid.UUID, op string) error {
	if err == nil {
		return nil
	}
	if pkgerrors.As(err) != nil {
		return err
	}
	if IsNotFound(err) {
		return pkgerrors.NotFound(entity, id)
	}
	return pkgerrors.Storage(err, op)
}
