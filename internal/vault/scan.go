package vault

import (
	"io/fs"
	"log/slog"
	"path/filepath"

	"github.com/ravnholt/laguz/internal/pathid"
)

// scanLocked walks the vault root and populates the snapshot: every
// qualifying file is indexed, every qualifying directory recorded as a
// folder. Unreadable directories are logged and skipped, never fatal. The
// resulting id set is deterministic for a fixed filesystem state.
//
// Caller must hold e.mu.
func (e *Engine) scanLocked() {
	root := e.store.Root()
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			e.logger.Warn("vault: scan skip",
				slog.String("path", p),
				slog.String("error", walkErr.Error()))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if p == root {
			return nil
		}
		id, idErr := pathid.ToID(root, p)
		if idErr != nil {
			return nil
		}
		if d.IsDir() {
			if e.rules.SkipDir(d.Name()) {
				return fs.SkipDir
			}
			e.snap.addFolder(id)
			return nil
		}
		if e.rules.SkipFile(d.Name()) {
			return nil
		}
		if _, _, err := e.indexFileLocked(id); err != nil {
			e.logger.Warn("vault: scan index failed",
				slog.String("id", id),
				slog.String("error", err.Error()))
		}
		return nil
	})
	if err != nil {
		e.logger.Warn("vault: scan aborted", slog.String("error", err.Error()))
	}
}

// diskState walks the tree and returns the current on-disk note and folder
// id sets without touching the snapshot. Used by the reconcile pass.
func (e *Engine) diskState() (files map[string]struct{}, dirs map[string]struct{}) {
	files = make(map[string]struct{})
	dirs = make(map[string]struct{})
	root := e.store.Root()
	_ = filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if p == root {
			return nil
		}
		id, idErr := pathid.ToID(root, p)
		if idErr != nil {
			return nil
		}
		if d.IsDir() {
			if e.rules.SkipDir(d.Name()) {
				return fs.SkipDir
			}
			dirs[id] = struct{}{}
			return nil
		}
		if !e.rules.SkipFile(d.Name()) {
			files[id] = struct{}{}
		}
		return nil
	})
	return files, dirs
}
