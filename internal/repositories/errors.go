package repositories

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrDuplicateKey is returned by repositories when a storage-level unique
// constraint rejects a write. The certification issuer relies on this to
// close the check-then-insert race for the one-active-certificate rule.
var ErrDuplicateKey = errors.New("duplicate key violates unique constraint")

// ErrDuplicateIdentifier is returned when a generated certificate id or
// verification code collides with an existing row. Callers regenerate the
// identifiers and retry; this is never a duplicate award.
var ErrDuplicateIdentifier = errors.New("generated identifier collides with an existing row")

// IsNotFoundError reports whether err represents a missing record.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicateError reports whether err represents a unique-constraint
// violation, either our sentinel or the driver's error text.
func IsDuplicateError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDuplicateKey) || errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// pgx surfaces SQLSTATE 23505 for unique violations.
	return strings.Contains(err.Error(), "23505") ||
		strings.Contains(err.Error(), "duplicate key")
}
