//go:build !cgo

package sqlite

import "strings"

// isUniqueViolation checks if the error is a unique constraint violation.
// Without cgo the mattn/go-sqlite3 driver cannot produce typed errors, so
// only the string fallback applies.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
