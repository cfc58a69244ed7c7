package vault

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ravnholt/laguz/internal/models"
	"github.com/ravnholt/laguz/internal/pathid"
)

// pauseReq asks the watch loop to close its handle, run fn, and reopen.
// Folder rename/move use this to dodge exclusive directory locks that some
// platforms hold on watched directories.
type pauseReq struct {
	fn   func() error
	done chan error
}

// Watch runs the filesystem watcher over the vault root until ctx is
// cancelled, keeping the snapshot current for changes made outside the API.
//
// Write bursts are debounced per flush window; the last write to a given id
// wins, which is safe against API races because every snapshot write is a
// full replace. Rename events trigger a debounced reconciliation pass that
// trues the snapshot up against disk, since fsnotify reports only the old
// path of a rename.
func (e *Engine) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("vault: watcher: %w", err)
	}

	root := e.store.Root()
	if err := addDirsRecursive(w, root, e.rules); err != nil {
		_ = w.Close()
		return fmt.Errorf("vault: watcher: %w", err)
	}

	done := make(chan struct{})
	e.watchMu.Lock()
	e.watchDone = done
	e.watchMu.Unlock()
	defer func() {
		e.watchMu.Lock()
		e.watchDone = nil
		e.watchMu.Unlock()
		close(done)
		_ = w.Close()
	}()

	e.logger.Info("watcher: started", slog.String("root", root))

	pending := make(map[string]struct{})
	var flushTimer *time.Timer
	var flushCh <-chan time.Time
	scheduleFlush := func() {
		if flushTimer == nil {
			flushTimer = time.NewTimer(e.debounce)
			flushCh = flushTimer.C
		} else {
			flushTimer.Reset(e.debounce)
		}
	}

	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time
	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(200 * time.Millisecond)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if flushTimer != nil {
				flushTimer.Stop()
			}
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			e.logger.Info("watcher: stopped")
			return nil

		case <-flushCh:
			e.flushPending(pending)
			pending = make(map[string]struct{})

		case <-reconcileCh:
			e.reconcile()

		case req := <-e.pauseCh:
			_ = w.Close()
			opErr := req.fn()
			nw, nerr := fsnotify.NewWatcher()
			if nerr != nil {
				req.done <- opErr
				e.logger.Error("watcher: reopen failed", slog.String("error", nerr.Error()))
				return fmt.Errorf("vault: watcher reopen: %w", nerr)
			}
			if aerr := addDirsRecursive(nw, root, e.rules); aerr != nil {
				e.logger.Warn("watcher: rewatch incomplete", slog.String("error", aerr.Error()))
			}
			w = nw
			req.done <- opErr
			// Events lost during the gap are the caller's cascade to cover;
			// a reconcile pass mops up anything else.
			scheduleReconcile()

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			e.handleWatchEvent(w, ev, pending, scheduleFlush, scheduleReconcile)

		case werr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			// The watcher keeps running: a dead watcher silently desyncs the
			// snapshot, which is worse than a logged miss.
			e.logger.Error("watcher: error", slog.String("error", werr.Error()))
		}
	}
}

// withWatcherPaused runs fn with the watcher suspended. It is the single
// accessor through which operations touch the watcher handle; concurrent
// callers serialize on the watch loop itself. With no watcher running, fn
// runs directly.
func (e *Engine) withWatcherPaused(fn func() error) error {
	e.watchMu.Lock()
	done := e.watchDone
	e.watchMu.Unlock()
	if done == nil {
		return fn()
	}
	req := pauseReq{fn: fn, done: make(chan error, 1)}
	select {
	case e.pauseCh <- req:
		return <-req.done
	case <-done:
		return fn()
	}
}

func (e *Engine) handleWatchEvent(w *fsnotify.Watcher, ev fsnotify.Event, pending map[string]struct{}, scheduleFlush, scheduleReconcile func()) {
	root := e.store.Root()
	id, err := pathid.ToID(root, ev.Name)
	if err != nil || id == "" {
		return
	}
	base := path.Base(id)

	// Removes and renames are decided by snapshot membership: the entry is
	// gone from disk, so its kind can no longer be stat'ed.
	if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		e.applyRemove(id)
		if ev.Op&fsnotify.Rename != 0 {
			// fsnotify fires Rename on the old path only; the new path
			// arrives as a separate Create if it stays under the root.
			scheduleReconcile()
		}
		return
	}

	if ev.Op&fsnotify.Create != 0 {
		if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
			if e.rules.SkipDir(base) {
				return
			}
			if addErr := addDirsRecursive(w, ev.Name, e.rules); addErr != nil {
				e.logger.Warn("watcher: add new dir failed",
					slog.String("path", ev.Name),
					slog.String("error", addErr.Error()))
			}
			e.absorbNewDir(id, ev.Name)
			return
		}
	}

	if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}
	if e.rules.SkipFile(base) {
		return
	}
	pending[id] = struct{}{}
	scheduleFlush()
}

// applyRemove drops whatever the snapshot knows under id: a folder takes its
// whole subtree with it, a note takes its metadata and link edges. Unknown
// ids are ignored.
func (e *Engine) applyRemove(id string) {
	e.mu.Lock()
	if _, ok := e.snap.folders[id]; ok {
		e.purgeSubtreeLocked(id)
		e.mu.Unlock()
		e.emit(models.Event{Kind: models.EventFolderDeleted, ID: id})
		e.emit(models.Event{Kind: models.EventRefresh, ID: id})
		return
	}
	if _, ok := e.snap.notes[id]; ok {
		e.snap.dropNote(id)
		e.mu.Unlock()
		e.emit(models.Event{Kind: models.EventNoteDeleted, ID: id})
		return
	}
	e.mu.Unlock()
}

// flushPending re-indexes every debounced id. Idempotent against the API:
// whichever write lands last fully replaces the entry. Read failures leave
// the previous entry untouched; if the file is truly gone a Remove event or
// the reconcile pass removes it.
func (e *Engine) flushPending(pending map[string]struct{}) {
	for id := range pending {
		e.mu.Lock()
		_, known := e.snap.notes[id]
		meta, changed, err := e.indexFileLocked(id)
		e.mu.Unlock()
		if err != nil {
			e.logger.Warn("watcher: index failed",
				slog.String("id", id),
				slog.String("error", err.Error()))
			continue
		}
		if !changed {
			continue
		}
		kind := models.EventNoteUpdated
		if !known {
			kind = models.EventNoteCreated
		}
		e.emit(models.Event{Kind: kind, ID: id, Meta: &meta})
	}
}

// absorbNewDir records a directory that appeared at runtime and indexes any
// qualifying files already inside it (a dir moved into the vault arrives as
// one Create event for its root).
func (e *Engine) absorbNewDir(id, dirPath string) {
	root := e.store.Root()
	var created []models.NoteMeta

	e.mu.Lock()
	e.addFolderChainLocked(id)
	_ = filepath.WalkDir(dirPath, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		sub, idErr := pathid.ToID(root, p)
		if idErr != nil || sub == "" {
			return nil
		}
		if d.IsDir() {
			if e.rules.SkipDir(d.Name()) {
				return fs.SkipDir
			}
			e.snap.addFolder(sub)
			return nil
		}
		if e.rules.SkipFile(d.Name()) {
			return nil
		}
		if meta, _, idxErr := e.indexFileLocked(sub); idxErr == nil {
			created = append(created, meta)
		}
		return nil
	})
	e.mu.Unlock()

	e.emit(models.Event{Kind: models.EventFolderCreated, ID: id})
	for i := range created {
		e.emit(models.Event{Kind: models.EventNoteCreated, ID: created[i].ID, Meta: &created[i]})
	}
	e.emit(models.Event{Kind: models.EventRefresh, ID: id})
}

// reconcile trues the snapshot up against the filesystem: stale entries are
// dropped, on-disk files missing from or differing in the snapshot are
// re-indexed, and the folder set is replaced by what the walk found.
func (e *Engine) reconcile() {
	files, dirs := e.diskState()

	e.mu.Lock()
	var removedNotes []string
	for id := range e.snap.notes {
		if _, ok := files[id]; !ok {
			e.snap.dropNote(id)
			removedNotes = append(removedNotes, id)
		}
	}
	foldersChanged := false
	for id := range e.snap.folders {
		if _, ok := dirs[id]; !ok {
			e.snap.dropFolder(id)
			foldersChanged = true
		}
	}
	for id := range dirs {
		if _, ok := e.snap.folders[id]; !ok {
			e.snap.addFolder(id)
			foldersChanged = true
		}
	}
	e.mu.Unlock()

	for _, id := range removedNotes {
		e.emit(models.Event{Kind: models.EventNoteDeleted, ID: id})
	}

	for id := range files {
		e.mu.Lock()
		_, known := e.snap.notes[id]
		meta, changed, err := e.indexFileLocked(id)
		e.mu.Unlock()
		if err != nil || !changed {
			continue
		}
		kind := models.EventNoteUpdated
		if !known {
			kind = models.EventNoteCreated
		}
		e.emit(models.Event{Kind: kind, ID: id, Meta: &meta})
	}

	if foldersChanged {
		e.emit(models.Event{Kind: models.EventRefresh, ID: ""})
	}
}

// addDirsRecursive adds root and all non-ignored subdirectories to the
// watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string, rules *IgnoreRules) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && rules.SkipDir(d.Name()) {
			return fs.SkipDir
		}
		return w.Add(p)
	})
}
