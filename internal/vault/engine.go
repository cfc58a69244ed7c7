// Package vault implements the storage and indexing engine: an in-memory
// snapshot of a directory tree of notes, kept synchronized with the real
// filesystem by explicit mutation operations and a filesystem watcher, plus
// the wikilink graph derived from note contents.
package vault

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/ravnholt/laguz/internal/apperr"
	"github.com/ravnholt/laguz/internal/models"
	"github.com/ravnholt/laguz/internal/parser"
	"github.com/ravnholt/laguz/internal/pathid"
	"github.com/ravnholt/laguz/internal/storage"
)

// Note is the full representation returned by LoadNote.
type Note struct {
	Meta        models.NoteMeta `json:"meta"`
	Content     string          `json:"content"`
	Tags        []string        `json:"tags"`
	Frontmatter map[string]any  `json:"frontmatter,omitempty"`
}

// Engine owns one open vault: its snapshot, its storage provider, and its
// watcher handle. There is no package-level state; callers hold the Engine
// value and pass it to consumers, so several vaults can coexist in a process.
type Engine struct {
	store    storage.Provider
	rules    *IgnoreRules
	logger   *slog.Logger
	debounce time.Duration

	// mu serializes every snapshot mutation, from the API and from the
	// watcher alike, making last-write-wins exact rather than emergent.
	mu   sync.Mutex
	snap *snapshot

	subMu   sync.Mutex
	subs    map[int]func(models.Event)
	nextSub int

	watchMu   sync.Mutex
	watchDone chan struct{} // non-nil while the watch loop runs; closed on exit
	pauseCh   chan pauseReq
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the structured logger (default: slog.Default()).
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithIgnoreGlobs adds user glob patterns to the built-in ignore rules.
func WithIgnoreGlobs(patterns []string) Option {
	return func(e *Engine) {
		if r, err := NewIgnoreRules(patterns); err == nil {
			e.rules = r
		}
	}
}

// WithDebounce sets the watcher write-event debounce interval.
func WithDebounce(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.debounce = d
		}
	}
}

// Open creates an Engine rooted at path and populates its snapshot with an
// initial scan. The directory must exist; anything else is
// ErrInvalidVaultPath.
func Open(root string, opts ...Option) (*Engine, error) {
	store, err := storage.NewFS(root)
	if err != nil {
		return nil, err
	}
	rules, _ := NewIgnoreRules(nil)
	e := &Engine{
		store:    store,
		rules:    rules,
		logger:   slog.Default(),
		debounce: 100 * time.Millisecond,
		snap:     newSnapshot(),
		subs:     make(map[int]func(models.Event)),
		pauseCh:  make(chan pauseReq),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.mu.Lock()
	e.scanLocked()
	e.mu.Unlock()
	return e, nil
}

// Close discards the snapshot and drops all subscribers. The watch loop, if
// running, stops through its own context.
func (e *Engine) Close() error {
	e.subMu.Lock()
	e.subs = make(map[int]func(models.Event))
	e.subMu.Unlock()

	e.mu.Lock()
	e.snap = newSnapshot()
	e.mu.Unlock()
	return nil
}

// Root returns the absolute vault root path.
func (e *Engine) Root() string { return e.store.Root() }

// Subscribe registers fn for change notifications and returns the matching
// unsubscribe handle. Callbacks run synchronously after the snapshot has been
// mutated, so a consumer never observes a notification ahead of its state.
func (e *Engine) Subscribe(fn func(models.Event)) func() {
	e.subMu.Lock()
	id := e.nextSub
	e.nextSub++
	e.subs[id] = fn
	e.subMu.Unlock()

	return func() {
		e.subMu.Lock()
		delete(e.subs, id)
		e.subMu.Unlock()
	}
}

func (e *Engine) emit(ev models.Event) {
	e.subMu.Lock()
	fns := make([]func(models.Event), 0, len(e.subs))
	for _, fn := range e.subs {
		fns = append(fns, fn)
	}
	e.subMu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

// ListNotes returns metadata for every indexed note, sorted by id.
func (e *Engine) ListNotes() []models.NoteMeta {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snap.noteList()
}

// ListFolders returns every known folder id, sorted.
func (e *Engine) ListFolders() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snap.folderList()
}

// ListEntries returns folders and notes as one tagged list, folders first.
func (e *Engine) ListEntries() []models.Entry {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]models.Entry, 0, len(e.snap.folders)+len(e.snap.notes))
	for _, id := range e.snap.folderList() {
		f := models.FolderMeta{ID: id, ParentFolder: pathid.ParentOf(id)}
		out = append(out, models.Entry{Kind: models.EntryFolder, Folder: &f})
	}
	for _, m := range e.snap.noteList() {
		meta := m
		out = append(out, models.Entry{Kind: models.EntryNote, Note: &meta})
	}
	return out
}

// LoadNote returns the metadata and content of one note. A note present on
// disk but not yet indexed is indexed on demand; a note present nowhere is
// ErrNotFound.
func (e *Engine) LoadNote(id string) (*Note, error) {
	e.mu.Lock()
	meta, ok := e.snap.notes[id]
	if !ok {
		m, _, err := e.indexFileLocked(id)
		if err != nil {
			e.mu.Unlock()
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("vault: load %s: %w", id, apperr.ErrNotFound)
			}
			return nil, fmt.Errorf("vault: load %s: %w", id, err)
		}
		meta = m
	}
	e.mu.Unlock()

	data, err := e.store.Read(id)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("vault: load %s: %w", id, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("vault: load %s: %w", id, err)
	}
	res := parser.Parse(data)
	return &Note{
		Meta:        meta,
		Content:     string(data),
		Tags:        res.Tags,
		Frontmatter: res.Frontmatter,
	}, nil
}
