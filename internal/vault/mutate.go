package vault

import (
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/ravnholt/laguz/internal/apperr"
	"github.com/ravnholt/laguz/internal/models"
	"github.com/ravnholt/laguz/internal/pathid"
)

// Every mutation follows the same ordering contract: the filesystem effect
// completes first, then the snapshot is updated, then the change notification
// fires. A failed filesystem step leaves the snapshot untouched and the error
// propagates to the caller.

// CreateNote creates a new note named after title inside folder ("" for the
// vault root). A missing extension defaults to .md; a name collision is
// resolved with an incrementing numeric suffix ("Name 1", "Name 2", ...), so
// creation never overwrites.
func (e *Engine) CreateNote(title, folder string) (models.NoteMeta, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return models.NoteMeta{}, fmt.Errorf("vault: create: empty title")
	}
	if _, err := pathid.ToFullPath(e.store.Root(), path.Join(folder, title)); err != nil {
		return models.NoteMeta{}, err
	}
	ext := path.Ext(title)
	base := strings.TrimSuffix(title, ext)
	if ext == "" {
		ext = ".md"
	}

	e.mu.Lock()
	id := e.freeFileIDLocked(folder, base, ext)
	if err := e.store.Write(id, []byte("\n")); err != nil {
		e.mu.Unlock()
		return models.NoteMeta{}, fmt.Errorf("vault: create %s: %w", id, err)
	}
	meta, _, err := e.indexFileLocked(id)
	if err != nil {
		e.mu.Unlock()
		return models.NoteMeta{}, fmt.Errorf("vault: create %s: %w", id, err)
	}
	e.addFolderChainLocked(folder)
	e.mu.Unlock()

	e.emit(models.Event{Kind: models.EventNoteCreated, ID: id, Meta: &meta})
	return meta, nil
}

// SaveNote overwrites the content of an existing note and re-indexes it. The
// id must already exist in the snapshot or on disk; a note found on disk but
// not yet indexed is indexed as part of the save.
func (e *Engine) SaveNote(id string, content []byte) (models.NoteMeta, error) {
	e.mu.Lock()
	_, known := e.snap.notes[id]
	if !known {
		if _, err := e.store.Stat(id); err != nil {
			e.mu.Unlock()
			if errors.Is(err, os.ErrNotExist) {
				return models.NoteMeta{}, fmt.Errorf("vault: save %s: %w", id, apperr.ErrNotFound)
			}
			return models.NoteMeta{}, fmt.Errorf("vault: save %s: %w", id, err)
		}
		// Present on disk but not indexed yet: pick up the existing file
		// first so the sticky created-at baseline comes from it.
		if _, _, err := e.indexFileLocked(id); err != nil {
			e.mu.Unlock()
			return models.NoteMeta{}, fmt.Errorf("vault: save %s: %w", id, err)
		}
	}
	if err := e.store.Write(id, content); err != nil {
		e.mu.Unlock()
		return models.NoteMeta{}, fmt.Errorf("vault: save %s: %w", id, err)
	}
	meta, _, err := e.indexFileLocked(id)
	if err != nil {
		e.mu.Unlock()
		return models.NoteMeta{}, fmt.Errorf("vault: save %s: %w", id, err)
	}
	e.mu.Unlock()

	kind := models.EventNoteUpdated
	if !known {
		kind = models.EventNoteCreated
	}
	e.emit(models.Event{Kind: kind, ID: id, Meta: &meta})
	return meta, nil
}

// RenameNote gives the note a new basename, preserving the original extension
// unless newTitle supplies one. The destination must be free; callers holding
// external references to the old id are responsible for remapping them.
func (e *Engine) RenameNote(id, newTitle string) (models.NoteMeta, error) {
	newTitle = strings.TrimSpace(newTitle)
	if newTitle == "" {
		return models.NoteMeta{}, fmt.Errorf("vault: rename: empty title")
	}

	e.mu.Lock()
	if !e.noteExistsLocked(id) {
		e.mu.Unlock()
		return models.NoteMeta{}, fmt.Errorf("vault: rename %s: %w", id, apperr.ErrNotFound)
	}
	newBase := newTitle
	if path.Ext(newTitle) == "" {
		newBase += path.Ext(id)
	}
	newID := path.Join(pathid.ParentOf(id), newBase)
	if _, err := pathid.ToFullPath(e.store.Root(), newID); err != nil {
		e.mu.Unlock()
		return models.NoteMeta{}, err
	}
	if newID == id {
		meta, _, err := e.indexFileLocked(id)
		e.mu.Unlock()
		return meta, err
	}
	if e.occupiedLocked(newID) {
		e.mu.Unlock()
		return models.NoteMeta{}, fmt.Errorf("vault: rename %s to %s: %w", id, newID, apperr.ErrAlreadyExists)
	}
	if err := e.store.Move(id, newID); err != nil {
		e.mu.Unlock()
		return models.NoteMeta{}, fmt.Errorf("vault: rename %s: %w", id, err)
	}
	prev := e.snap.notes[id]
	e.snap.dropNote(id)
	meta, _, err := e.indexFileLocked(newID)
	if err == nil && !prev.CreatedAt.IsZero() && !prev.CreatedAt.After(meta.UpdatedAt) {
		// Renaming is not a content change; keep the original created-at.
		meta.CreatedAt = prev.CreatedAt
		e.snap.notes[newID] = meta
	}
	e.mu.Unlock()
	if err != nil {
		return models.NoteMeta{}, fmt.Errorf("vault: rename %s: %w", id, err)
	}

	e.emit(models.Event{Kind: models.EventNoteDeleted, ID: id})
	e.emit(models.Event{Kind: models.EventNoteCreated, ID: newID, Meta: &meta})
	return meta, nil
}

// MoveNote relocates the note into targetFolder, keeping its basename. A name
// collision at the destination is resolved with the same numeric-suffix
// strategy as CreateNote. The move is an atomic rename when the OS allows it,
// with a copy-then-delete fallback at the storage layer.
func (e *Engine) MoveNote(id, targetFolder string) (models.NoteMeta, error) {
	if _, err := pathid.ToFullPath(e.store.Root(), targetFolder); err != nil {
		return models.NoteMeta{}, err
	}

	e.mu.Lock()
	if !e.noteExistsLocked(id) {
		e.mu.Unlock()
		return models.NoteMeta{}, fmt.Errorf("vault: move %s: %w", id, apperr.ErrNotFound)
	}
	name := path.Base(id)
	ext := path.Ext(name)
	newID := path.Join(targetFolder, name)
	if newID == id {
		meta, _, err := e.indexFileLocked(id)
		e.mu.Unlock()
		return meta, err
	}
	if e.occupiedLocked(newID) {
		newID = e.freeFileIDLocked(targetFolder, strings.TrimSuffix(name, ext), ext)
	}
	if err := e.store.Move(id, newID); err != nil {
		e.mu.Unlock()
		return models.NoteMeta{}, fmt.Errorf("vault: move %s: %w", id, err)
	}
	prev := e.snap.notes[id]
	e.snap.dropNote(id)
	meta, _, err := e.indexFileLocked(newID)
	if err == nil && !prev.CreatedAt.IsZero() && !prev.CreatedAt.After(meta.UpdatedAt) {
		meta.CreatedAt = prev.CreatedAt
		e.snap.notes[newID] = meta
	}
	e.addFolderChainLocked(targetFolder)
	e.mu.Unlock()
	if err != nil {
		return models.NoteMeta{}, fmt.Errorf("vault: move %s: %w", id, err)
	}

	e.emit(models.Event{Kind: models.EventNoteDeleted, ID: id})
	e.emit(models.Event{Kind: models.EventNoteCreated, ID: newID, Meta: &meta})
	return meta, nil
}

// DeleteNote removes the note's file, metadata, and link edges. Deleting an
// already-absent file is not an error.
func (e *Engine) DeleteNote(id string) error {
	e.mu.Lock()
	if err := e.store.Delete(id); err != nil && !errors.Is(err, os.ErrNotExist) {
		e.mu.Unlock()
		return fmt.Errorf("vault: delete %s: %w", id, err)
	}
	e.snap.dropNote(id)
	e.mu.Unlock()

	e.emit(models.Event{Kind: models.EventNoteDeleted, ID: id})
	return nil
}

// noteExistsLocked reports whether id names a note in the snapshot or a file
// on disk.
func (e *Engine) noteExistsLocked(id string) bool {
	if _, ok := e.snap.notes[id]; ok {
		return true
	}
	info, err := e.store.Stat(id)
	return err == nil && !info.IsDir()
}

// occupiedLocked reports whether id is taken by any snapshot entry or any
// filesystem entry.
func (e *Engine) occupiedLocked(id string) bool {
	if _, ok := e.snap.notes[id]; ok {
		return true
	}
	if _, ok := e.snap.folders[id]; ok {
		return true
	}
	_, err := e.store.Stat(id)
	return err == nil
}

// freeFileIDLocked returns the first unoccupied id of the form
// folder/base.ext, folder/"base 1".ext, folder/"base 2".ext, ...
func (e *Engine) freeFileIDLocked(folder, base, ext string) string {
	for i := 0; ; i++ {
		name := base + ext
		if i > 0 {
			name = fmt.Sprintf("%s %d%s", base, i, ext)
		}
		id := path.Join(folder, name)
		if !e.occupiedLocked(id) {
			return id
		}
	}
}

// addFolderChainLocked records folder and all its ancestors in the snapshot.
// Mutations that implicitly create directories keep the folder set current
// without waiting for the watcher.
func (e *Engine) addFolderChainLocked(folder string) {
	for folder != "" {
		e.snap.addFolder(folder)
		folder = pathid.ParentOf(folder)
	}
}
