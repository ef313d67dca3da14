// Package repository holds the MySQL and MongoDB data access layer.  The
// sentinel errors below let the service layer tell failure scenarios apart
// without depending on driver error types.
package repository

import "errors"

// ErrNotFound is returned when a lookup, update or delete matches no row.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert violates a unique key, such as a
// second review for the same user and product or a colliding booking id.
var ErrDuplicate = errors.New("duplicate")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own, or one that must never be removed (an admin
// account).  Handlers translate it into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an operation cannot proceed because of the
// current state of a record.  Handlers translate it into an HTTP 409.
var ErrConflict = errors.New("conflict")
