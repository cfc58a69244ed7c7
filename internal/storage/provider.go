// Package storage defines the vault file-system abstraction.
package storage

import "io/fs"

// Provider is the interface for vault file operations. All paths are
// vault-relative ids; implementations must reject paths that escape the root.
type Provider interface {
	// Root returns the absolute path of the vault root.
	Root() string
	// Stat returns file info for the entry at path.
	Stat(path string) (fs.FileInfo, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path, creating parent directories.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
	// Move renames oldPath to newPath, falling back to copy-then-delete
	// when the rename fails (e.g. across volumes).
	Move(oldPath, newPath string) error
	// MkdirAll creates the directory at path along with any parents.
	MkdirAll(path string) error
	// RemoveAll removes the directory at path and everything below it.
	RemoveAll(path string) error
	// MoveDir renames the directory oldPath to newPath, falling back to a
	// recursive copy-then-delete when the rename fails.
	MoveDir(oldPath, newPath string) error
}
