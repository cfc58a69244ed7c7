package storage

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ravnholt/laguz/internal/apperr"
)

// FS implements Provider backed by the local file system.
type FS struct {
	root string // absolute path to vault directory
}

// NewFS creates a new FS provider rooted at the given directory.
// The directory must already exist.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root %s: %w", abs, apperr.ErrInvalidVaultPath)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root %s is not a directory: %w", abs, apperr.ErrInvalidVaultPath)
	}
	return &FS{root: abs}, nil
}

// Root returns the absolute vault root path.
func (f *FS) Root() string { return f.root }

// safePath resolves a relative path against the vault root and rejects
// any result that escapes it (directory traversal).
func (f *FS) safePath(rel string) (string, error) {
	if rel == "" {
		return f.root, nil
	}
	cleaned := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("storage: absolute path %s: %w", rel, apperr.ErrOutOfTree)
	}
	abs, err := filepath.Abs(filepath.Join(f.root, cleaned))
	if err != nil {
		return "", fmt.Errorf("storage: resolve %s: %w", rel, err)
	}
	if abs != f.root && !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("storage: path %s escapes vault root: %w", rel, apperr.ErrOutOfTree)
	}
	return abs, nil
}

// Stat returns file info for the entry at path.
func (f *FS) Stat(path string) (fs.FileInfo, error) {
	abs, err := f.safePath(path)
	if err != nil {
		return nil, err
	}
	return os.Stat(abs)
}

// Read returns the raw bytes of a vault file.
func (f *FS) Read(path string) ([]byte, error) {
	abs, err := f.safePath(path)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(abs)
}

// Write atomically writes content: tmp file → fsync → rename.
func (f *FS) Write(path string, content []byte) error {
	abs, err := f.safePath(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".laguz-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}

// Delete removes a file from the vault.
func (f *FS) Delete(path string) error {
	abs, err := f.safePath(path)
	if err != nil {
		return err
	}
	return os.Remove(abs)
}

// Move renames a file within the vault. If the rename fails (cross-volume
// links, OS locks) it falls back to copy-then-delete, accepting a brief
// non-atomic window.
func (f *FS) Move(oldPath, newPath string) error {
	absOld, err := f.safePath(oldPath)
	if err != nil {
		return err
	}
	absNew, err := f.safePath(newPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(absNew), 0o755); err != nil {
		return fmt.Errorf("storage: mkdir for move: %w", err)
	}
	if err := os.Rename(absOld, absNew); err == nil {
		return nil
	}
	if err := copyFile(absOld, absNew); err != nil {
		return fmt.Errorf("storage: move %s: %w", oldPath, err)
	}
	if err := os.Remove(absOld); err != nil {
		return fmt.Errorf("storage: move cleanup %s: %w", oldPath, err)
	}
	return nil
}

// MkdirAll creates the directory at path along with any parents.
func (f *FS) MkdirAll(path string) error {
	abs, err := f.safePath(path)
	if err != nil {
		return err
	}
	return os.MkdirAll(abs, 0o755)
}

// RemoveAll removes the directory at path and everything below it.
func (f *FS) RemoveAll(path string) error {
	abs, err := f.safePath(path)
	if err != nil {
		return err
	}
	if abs == f.root {
		return fmt.Errorf("storage: refusing to remove vault root: %w", apperr.ErrOutOfTree)
	}
	return os.RemoveAll(abs)
}

// MoveDir renames a directory within the vault, falling back to a recursive
// copy-then-delete when the rename fails.
func (f *FS) MoveDir(oldPath, newPath string) error {
	absOld, err := f.safePath(oldPath)
	if err != nil {
		return err
	}
	absNew, err := f.safePath(newPath)
	if err != nil {
		return err
	}
	// A destination inside the source would make the copy fallback recurse
	// into its own output.
	if absNew == absOld || strings.HasPrefix(absNew, absOld+string(os.PathSeparator)) {
		return fmt.Errorf("storage: move dir %s into %s: destination inside source: %w", oldPath, newPath, apperr.ErrOutOfTree)
	}
	if err := os.MkdirAll(filepath.Dir(absNew), 0o755); err != nil {
		return fmt.Errorf("storage: mkdir for move: %w", err)
	}
	if err := os.Rename(absOld, absNew); err == nil {
		return nil
	}
	if err := copyTree(absOld, absNew); err != nil {
		_ = os.RemoveAll(absNew)
		return fmt.Errorf("storage: move dir %s: %w", oldPath, err)
	}
	if err := os.RemoveAll(absOld); err != nil {
		return fmt.Errorf("storage: move dir cleanup %s: %w", oldPath, err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	return out.Close()
}

func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(p, target)
	})
}
