package vault

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/ravnholt/laguz/internal/apperr"
	"github.com/ravnholt/laguz/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func newTestEngine(t *testing.T) (string, *Engine) {
	t.Helper()
	dir := t.TempDir()
	eng, err := Open(dir, WithLogger(testLogger()))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = eng.Close() })
	return dir, eng
}

func writeVaultFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func noteIDs(e *Engine) map[string]bool {
	out := make(map[string]bool)
	for _, m := range e.ListNotes() {
		out[m.ID] = true
	}
	return out
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing"))
	if !errors.Is(err, apperr.ErrInvalidVaultPath) {
		t.Errorf("err = %v, want ErrInvalidVaultPath", err)
	}
}

func TestOpen_ScanPopulates(t *testing.T) {
	dir := t.TempDir()
	for rel, content := range map[string]string{
		"top.md":              "# Top\n",
		"projects/todo.md":    "- [ ] ship\n",
		"projects/deep/x.txt": "plain\n",
		".hidden/secret.md":   "nope\n",
		"node_modules/pkg.md": "nope\n",
		"projects/image.png":  "binary",
		".dotfile.md":         "nope\n",
	} {
		writeVaultFile(t, dir, rel, content)
	}

	eng, err := Open(dir, WithLogger(testLogger()))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer eng.Close()

	ids := noteIDs(eng)
	for _, want := range []string{"top.md", "projects/todo.md", "projects/deep/x.txt"} {
		if !ids[want] {
			t.Errorf("missing note %q in %v", want, ids)
		}
	}
	for _, skip := range []string{".hidden/secret.md", "node_modules/pkg.md", "projects/image.png", ".dotfile.md"} {
		if ids[skip] {
			t.Errorf("ignored entry %q was indexed", skip)
		}
	}

	folders := eng.ListFolders()
	wantFolders := map[string]bool{"projects": false, "projects/deep": false}
	for _, f := range folders {
		if _, ok := wantFolders[f]; ok {
			wantFolders[f] = true
		}
		if f == ".hidden" || f == "node_modules" {
			t.Errorf("ignored folder %q recorded", f)
		}
	}
	for f, seen := range wantFolders {
		if !seen {
			t.Errorf("missing folder %q in %v", f, folders)
		}
	}
}

func TestCreateNote_DefaultExtensionAndSuffix(t *testing.T) {
	_, eng := newTestEngine(t)

	first, err := eng.CreateNote("Note", "")
	if err != nil {
		t.Fatalf("CreateNote: %v", err)
	}
	if first.ID != "Note.md" {
		t.Errorf("first id = %q, want Note.md", first.ID)
	}

	second, err := eng.CreateNote("Note", "")
	if err != nil {
		t.Fatalf("CreateNote: %v", err)
	}
	if second.ID == first.ID {
		t.Errorf("second create returned the same id %q", second.ID)
	}
	if second.ID != "Note 1.md" {
		t.Errorf("second id = %q, want Note 1.md", second.ID)
	}

	for _, id := range []string{first.ID, second.ID} {
		if _, err := eng.LoadNote(id); err != nil {
			t.Errorf("LoadNote(%q): %v", id, err)
		}
	}
}

func TestCreateNote_InFolder(t *testing.T) {
	_, eng := newTestEngine(t)
	meta, err := eng.CreateNote("idea", "inbox/drafts")
	if err != nil {
		t.Fatalf("CreateNote: %v", err)
	}
	if meta.ID != "inbox/drafts/idea.md" {
		t.Errorf("id = %q", meta.ID)
	}
	if meta.ParentFolder != "inbox/drafts" {
		t.Errorf("parent = %q", meta.ParentFolder)
	}

	folders := eng.ListFolders()
	seen := map[string]bool{}
	for _, f := range folders {
		seen[f] = true
	}
	if !seen["inbox"] || !seen["inbox/drafts"] {
		t.Errorf("folder chain not recorded: %v", folders)
	}
}

func TestSaveNote_NotFound(t *testing.T) {
	_, eng := newTestEngine(t)
	if _, err := eng.SaveNote("ghost.md", []byte("boo")); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSaveNote_StickyCreatedAt(t *testing.T) {
	_, eng := newTestEngine(t)
	meta, err := eng.CreateNote("sticky", "")
	if err != nil {
		t.Fatal(err)
	}

	m1, err := eng.SaveNote(meta.ID, []byte("first save\n"))
	if err != nil {
		t.Fatalf("SaveNote: %v", err)
	}
	m2, err := eng.SaveNote(meta.ID, []byte("second save\n"))
	if err != nil {
		t.Fatalf("SaveNote: %v", err)
	}
	if !m1.CreatedAt.Equal(meta.CreatedAt) || !m2.CreatedAt.Equal(meta.CreatedAt) {
		t.Errorf("createdAt drifted: %v, %v, %v", meta.CreatedAt, m1.CreatedAt, m2.CreatedAt)
	}
	if m2.Checksum == m1.Checksum {
		t.Error("checksum should change with content")
	}
}

func TestSaveNote_IndexOnDemand(t *testing.T) {
	dir, eng := newTestEngine(t)
	// Written behind the engine's back, no watcher running.
	writeVaultFile(t, dir, "unseen.md", "old content\n")

	meta, err := eng.SaveNote("unseen.md", []byte("new content\n"))
	if err != nil {
		t.Fatalf("SaveNote: %v", err)
	}
	if meta.ID != "unseen.md" {
		t.Errorf("id = %q", meta.ID)
	}
	if !noteIDs(eng)["unseen.md"] {
		t.Error("note not in snapshot after save")
	}
}

func TestRenameNote(t *testing.T) {
	_, eng := newTestEngine(t)
	meta, _ := eng.CreateNote("before", "docs")

	renamed, err := eng.RenameNote(meta.ID, "after")
	if err != nil {
		t.Fatalf("RenameNote: %v", err)
	}
	if renamed.ID != "docs/after.md" {
		t.Errorf("new id = %q, want docs/after.md", renamed.ID)
	}

	ids := noteIDs(eng)
	if ids[meta.ID] {
		t.Errorf("old id %q still listed", meta.ID)
	}
	if !ids[renamed.ID] {
		t.Errorf("new id %q not listed", renamed.ID)
	}
	if _, err := eng.LoadNote(meta.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("LoadNote(old) err = %v, want ErrNotFound", err)
	}
}

func TestRenameNote_SuppliedExtension(t *testing.T) {
	_, eng := newTestEngine(t)
	meta, _ := eng.CreateNote("plain", "")
	renamed, err := eng.RenameNote(meta.ID, "notes.txt")
	if err != nil {
		t.Fatalf("RenameNote: %v", err)
	}
	if renamed.ID != "notes.txt" {
		t.Errorf("id = %q, want notes.txt", renamed.ID)
	}
}

func TestRenameNote_AlreadyExists(t *testing.T) {
	_, eng := newTestEngine(t)
	a, _ := eng.CreateNote("a", "")
	_, _ = eng.CreateNote("b", "")
	if _, err := eng.RenameNote(a.ID, "b"); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("err = %v, want ErrAlreadyExists", err)
	}
}

func TestRenameNote_NotFound(t *testing.T) {
	_, eng := newTestEngine(t)
	if _, err := eng.RenameNote("ghost.md", "x"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestMoveNote(t *testing.T) {
	_, eng := newTestEngine(t)
	meta, _ := eng.CreateNote("roam", "")

	moved, err := eng.MoveNote(meta.ID, "archive")
	if err != nil {
		t.Fatalf("MoveNote: %v", err)
	}
	if moved.ID != "archive/roam.md" {
		t.Errorf("id = %q", moved.ID)
	}
	if noteIDs(eng)[meta.ID] {
		t.Error("old id still listed")
	}
}

func TestMoveNote_CollisionSuffix(t *testing.T) {
	_, eng := newTestEngine(t)
	src, _ := eng.CreateNote("same", "")
	_, _ = eng.CreateNote("same", "dst")

	moved, err := eng.MoveNote(src.ID, "dst")
	if err != nil {
		t.Fatalf("MoveNote: %v", err)
	}
	if moved.ID != "dst/same 1.md" {
		t.Errorf("id = %q, want dst/same 1.md", moved.ID)
	}
}

func TestDeleteNote_Idempotent(t *testing.T) {
	_, eng := newTestEngine(t)
	meta, _ := eng.CreateNote("gone", "")
	if err := eng.DeleteNote(meta.ID); err != nil {
		t.Fatalf("DeleteNote: %v", err)
	}
	if err := eng.DeleteNote(meta.ID); err != nil {
		t.Errorf("second DeleteNote: %v", err)
	}
	if noteIDs(eng)[meta.ID] {
		t.Error("deleted note still listed")
	}
}

func TestLoadNote_NotFound(t *testing.T) {
	_, eng := newTestEngine(t)
	if _, err := eng.LoadNote("missing.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestLoadNote_TagsAndFrontmatter(t *testing.T) {
	dir, eng := newTestEngine(t)
	writeVaultFile(t, dir, "meta.md", "---\ntags:\n  - alpha\n---\nBody #beta\n")

	note, err := eng.LoadNote("meta.md")
	if err != nil {
		t.Fatalf("LoadNote: %v", err)
	}
	if note.Meta.Title != "meta.md" {
		t.Errorf("title = %q, want basename", note.Meta.Title)
	}
	if len(note.Tags) != 2 {
		t.Errorf("tags = %v", note.Tags)
	}
	if note.Frontmatter == nil {
		t.Error("frontmatter missing")
	}
}

func TestListEntries_TaggedVariant(t *testing.T) {
	_, eng := newTestEngine(t)
	_, _ = eng.CreateNote("n", "f")

	entries := eng.ListEntries()
	var notes, folders int
	for _, en := range entries {
		switch en.Kind {
		case models.EntryNote:
			notes++
			if en.Note == nil || en.Folder != nil {
				t.Error("note entry variant malformed")
			}
		case models.EntryFolder:
			folders++
			if en.Folder == nil || en.Note != nil {
				t.Error("folder entry variant malformed")
			}
		}
	}
	if notes != 1 || folders != 1 {
		t.Errorf("notes=%d folders=%d, want 1/1", notes, folders)
	}
}

func TestSubscribe_Unsubscribe(t *testing.T) {
	_, eng := newTestEngine(t)

	var got int
	unsub := eng.Subscribe(func(models.Event) { got++ })
	_, _ = eng.CreateNote("one", "")
	if got != 1 {
		t.Fatalf("events = %d, want 1", got)
	}
	unsub()
	_, _ = eng.CreateNote("two", "")
	if got != 1 {
		t.Errorf("events after unsubscribe = %d, want 1", got)
	}
}
