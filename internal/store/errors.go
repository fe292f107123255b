package store

import "errors"

// ErrNotFound is returned when an update targets a record id that does not exist.
var ErrNotFound = errors.New("trace record not found")

// ErrConstraint is returned when a write carries missing or blank required fields.
var ErrConstraint = errors.New("trace record violates constraints")
