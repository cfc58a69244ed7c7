package vault

import (
	"fmt"
	"path"
	"strings"

	"github.com/ravnholt/laguz/internal/apperr"
	"github.com/ravnholt/laguz/internal/models"
	"github.com/ravnholt/laguz/internal/pathid"
)

// CreateFolder creates a directory named after name inside parent ("" for
// the vault root), resolving collisions with the same numeric-suffix strategy
// as notes.
func (e *Engine) CreateFolder(name, parent string) (models.FolderMeta, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.FolderMeta{}, fmt.Errorf("vault: create folder: empty name")
	}
	if _, err := pathid.ToFullPath(e.store.Root(), path.Join(parent, name)); err != nil {
		return models.FolderMeta{}, err
	}

	e.mu.Lock()
	id := e.freeFileIDLocked(parent, name, "")
	if err := e.store.MkdirAll(id); err != nil {
		e.mu.Unlock()
		return models.FolderMeta{}, fmt.Errorf("vault: create folder %s: %w", id, err)
	}
	e.addFolderChainLocked(id)
	e.mu.Unlock()

	e.emit(models.Event{Kind: models.EventFolderCreated, ID: id})
	return models.FolderMeta{ID: id, ParentFolder: pathid.ParentOf(id)}, nil
}

// DeleteFolder removes the directory and everything below it, then purges all
// snapshot entries under the folder's prefix. Deleting an absent folder is
// not an error; an id naming a note is ErrNotFound.
func (e *Engine) DeleteFolder(id string) error {
	if id == "" {
		return fmt.Errorf("vault: delete folder: refusing vault root: %w", apperr.ErrOutOfTree)
	}

	e.mu.Lock()
	if !e.folderExistsLocked(id) && e.noteExistsLocked(id) {
		// A note at this id must not be removed through the folder API.
		e.mu.Unlock()
		return fmt.Errorf("vault: delete folder %s: %w", id, apperr.ErrNotFound)
	}
	if err := e.store.RemoveAll(id); err != nil {
		e.mu.Unlock()
		return fmt.Errorf("vault: delete folder %s: %w", id, err)
	}
	e.purgeSubtreeLocked(id)
	e.mu.Unlock()

	e.emit(models.Event{Kind: models.EventFolderDeleted, ID: id})
	e.emit(models.Event{Kind: models.EventRefresh, ID: id})
	return nil
}

// RenameFolder gives the folder a new basename and cascades the id change to
// every note, folder, and link entry under the old prefix. The watcher is
// paused around the single filesystem rename; some platforms hold exclusive
// locks on watched directories, and any events lost in the gap are covered by
// the cascade itself.
func (e *Engine) RenameFolder(id, newName string) (models.FolderMeta, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return models.FolderMeta{}, fmt.Errorf("vault: rename folder: empty name")
	}
	// A rename stays a rename: the new name must be a bare basename, or the
	// destination could end up nested under the source.
	if strings.ContainsAny(newName, `/\`) {
		return models.FolderMeta{}, fmt.Errorf("vault: rename folder: name %q contains a path separator: %w", newName, apperr.ErrOutOfTree)
	}
	newID := path.Join(pathid.ParentOf(id), newName)
	if _, err := pathid.ToFullPath(e.store.Root(), newID); err != nil {
		return models.FolderMeta{}, err
	}

	e.mu.Lock()
	if !e.folderExistsLocked(id) {
		e.mu.Unlock()
		return models.FolderMeta{}, fmt.Errorf("vault: rename folder %s: %w", id, apperr.ErrNotFound)
	}
	if newID == id {
		e.mu.Unlock()
		return models.FolderMeta{ID: id, ParentFolder: pathid.ParentOf(id)}, nil
	}
	if e.occupiedLocked(newID) {
		e.mu.Unlock()
		return models.FolderMeta{}, fmt.Errorf("vault: rename folder %s to %s: %w", id, newID, apperr.ErrAlreadyExists)
	}
	// The snapshot lock is released around the paused rename: the watch loop
	// must stay free to accept the pause request, and it is quiescent for the
	// duration of the filesystem call.
	e.mu.Unlock()
	if err := e.withWatcherPaused(func() error { return e.store.MoveDir(id, newID) }); err != nil {
		return models.FolderMeta{}, fmt.Errorf("vault: rename folder %s: %w", id, err)
	}
	e.mu.Lock()
	e.rewriteSubtreeLocked(id, newID)
	e.snap.addFolder(newID)
	e.mu.Unlock()

	e.emit(models.Event{Kind: models.EventRefresh, ID: newID})
	return models.FolderMeta{ID: newID, ParentFolder: pathid.ParentOf(newID)}, nil
}

// MoveFolder relocates the folder into targetFolder, keeping its basename and
// resolving destination collisions with a numeric suffix, then cascades the
// prefix change through the snapshot exactly as RenameFolder does.
func (e *Engine) MoveFolder(id, targetFolder string) (models.FolderMeta, error) {
	if id == "" {
		return models.FolderMeta{}, fmt.Errorf("vault: move folder: refusing vault root: %w", apperr.ErrOutOfTree)
	}
	if _, err := pathid.ToFullPath(e.store.Root(), targetFolder); err != nil {
		return models.FolderMeta{}, err
	}
	if targetFolder == id || strings.HasPrefix(targetFolder, id+"/") {
		return models.FolderMeta{}, fmt.Errorf("vault: move folder %s into itself", id)
	}

	e.mu.Lock()
	if !e.folderExistsLocked(id) {
		e.mu.Unlock()
		return models.FolderMeta{}, fmt.Errorf("vault: move folder %s: %w", id, apperr.ErrNotFound)
	}
	newID := path.Join(targetFolder, path.Base(id))
	if newID == id {
		e.mu.Unlock()
		return models.FolderMeta{ID: id, ParentFolder: pathid.ParentOf(id)}, nil
	}
	if e.occupiedLocked(newID) {
		newID = e.freeFileIDLocked(targetFolder, path.Base(id), "")
	}
	e.mu.Unlock()
	if err := e.withWatcherPaused(func() error { return e.store.MoveDir(id, newID) }); err != nil {
		return models.FolderMeta{}, fmt.Errorf("vault: move folder %s: %w", id, err)
	}
	e.mu.Lock()
	e.rewriteSubtreeLocked(id, newID)
	e.snap.addFolder(newID)
	e.addFolderChainLocked(targetFolder)
	e.mu.Unlock()

	e.emit(models.Event{Kind: models.EventRefresh, ID: newID})
	return models.FolderMeta{ID: newID, ParentFolder: pathid.ParentOf(newID)}, nil
}

func (e *Engine) folderExistsLocked(id string) bool {
	if _, ok := e.snap.folders[id]; ok {
		return true
	}
	info, err := e.store.Stat(id)
	return err == nil && info.IsDir()
}

// rewriteSubtreeLocked rewrites every id under oldPrefix to newPrefix across
// the notes, folders, and links maps, instead of re-scanning the subtree from
// disk. The boundary is exact: the folder id itself and ids containing
// "oldPrefix/" are rewritten; an id like "ab/x" is untouched by a rewrite of
// "a". Link labels are left alone — they are raw text, resolved at query
// time, and renaming folders does not change what users wrote.
func (e *Engine) rewriteSubtreeLocked(oldPrefix, newPrefix string) {
	rewrite := func(id string) (string, bool) {
		if id == oldPrefix {
			return newPrefix, true
		}
		if strings.HasPrefix(id, oldPrefix+"/") {
			return newPrefix + id[len(oldPrefix):], true
		}
		return id, false
	}

	for id, meta := range e.snap.notes {
		newID, hit := rewrite(id)
		if !hit {
			continue
		}
		meta.ID = newID
		meta.Title = path.Base(newID)
		meta.ParentFolder = pathid.ParentOf(newID)
		delete(e.snap.notes, id)
		e.snap.notes[newID] = meta

		if labels, ok := e.snap.links[id]; ok {
			delete(e.snap.links, id)
			e.snap.links[newID] = labels
		}
	}

	for id := range e.snap.folders {
		if newID, hit := rewrite(id); hit {
			delete(e.snap.folders, id)
			e.snap.folders[newID] = struct{}{}
		}
	}
}

// purgeSubtreeLocked drops the folder, every folder below it, and every note
// (with its links) under its prefix.
func (e *Engine) purgeSubtreeLocked(folderID string) {
	prefix := folderID + "/"
	for id := range e.snap.notes {
		if strings.HasPrefix(id, prefix) {
			e.snap.dropNote(id)
		}
	}
	for id := range e.snap.folders {
		if id == folderID || strings.HasPrefix(id, prefix) {
			e.snap.dropFolder(id)
		}
	}
}
