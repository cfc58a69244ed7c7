// Package pathid maps between OS paths and canonical vault-relative ids.
//
// An id is the forward-slash, vault-root-relative path of a note or folder,
// with no leading or trailing slash (e.g. "projects/todo.md"). The empty id
// denotes the vault root itself. Ids are the only identity other components
// use; there is no separate UUID scheme.
package pathid

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/ravnholt/laguz/internal/apperr"
)

// ToID converts an absolute or root-joined OS path into a canonical id.
// The path must be inside root; anything else returns ErrOutOfTree.
func ToID(root, fullPath string) (string, error) {
	if root == "" {
		return "", fmt.Errorf("pathid: empty root: %w", apperr.ErrOutOfTree)
	}
	rel, err := filepath.Rel(root, fullPath)
	if err != nil {
		return "", fmt.Errorf("pathid: relativize %s: %w", fullPath, apperr.ErrOutOfTree)
	}
	rel = filepath.ToSlash(rel)
	if rel == "." {
		return "", nil
	}
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("pathid: %s escapes vault root: %w", fullPath, apperr.ErrOutOfTree)
	}
	return rel, nil
}

// ToFullPath converts an id back into an OS path under root. Absolute ids
// and ids that resolve outside root return ErrOutOfTree.
func ToFullPath(root, id string) (string, error) {
	if root == "" {
		return "", fmt.Errorf("pathid: empty root: %w", apperr.ErrOutOfTree)
	}
	if id == "" {
		return filepath.Clean(root), nil
	}
	if path.IsAbs(id) || filepath.IsAbs(filepath.FromSlash(id)) {
		return "", fmt.Errorf("pathid: absolute id %s: %w", id, apperr.ErrOutOfTree)
	}
	cleaned := path.Clean(id)
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("pathid: id %s escapes vault root: %w", id, apperr.ErrOutOfTree)
	}
	return filepath.Join(root, filepath.FromSlash(cleaned)), nil
}

// ParentOf returns the directory portion of id, or "" for root-level ids.
func ParentOf(id string) string {
	dir := path.Dir(id)
	if dir == "." || dir == "/" {
		return ""
	}
	return dir
}
