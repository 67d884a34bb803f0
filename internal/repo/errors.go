// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file centralizes repository-level sentinel errors.
package repo

import "errors"

// ErrNotFound indicates that a lookup matched no row. Absence is an
// expected outcome for ticket and purchase lookups, not a failure; callers
// branch on it with errors.Is.
var ErrNotFound = errors.New("not found")
