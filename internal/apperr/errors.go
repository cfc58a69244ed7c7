// Package apperr defines the sentinel errors shared across the vault engine.
package apperr

import "errors"

var (
	// ErrNotFound is returned when an operation targets an id that exists
	// neither in the snapshot nor on disk.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a destination id is already occupied
	// and the operation does not auto-resolve the collision.
	ErrAlreadyExists = errors.New("already exists")
	// ErrOutOfTree is returned when a path escapes the vault root.
	ErrOutOfTree = errors.New("path outside vault root")
	// ErrInvalidVaultPath is returned by Open when the vault root does not
	// exist or is not a directory.
	ErrInvalidVaultPath = errors.New("invalid vault path")
)
