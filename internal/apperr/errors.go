// Package apperr defines sentinel errors shared across zk packages.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")
	ErrInvalidID     = errors.New("invalid zettel id")

	// ErrInvalidRef is returned when a token is not a zk@<id> reference.
	ErrInvalidRef = errors.New("not a zettel ref")
	// ErrResolveFailed is returned when the resolver process exits non-zero.
	ErrResolveFailed = errors.New("failed to prepare zettel")
)
