package vault

import "testing"

func TestIgnoreRules_Dirs(t *testing.T) {
	r, err := NewIgnoreRules(nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{".git", ".obsidian", "node_modules", "dist", "vendor", "__pycache__"} {
		if !r.SkipDir(name) {
			t.Errorf("SkipDir(%q) = false, want true", name)
		}
	}
	for _, name := range []string{"notes", "projects", "a"} {
		if r.SkipDir(name) {
			t.Errorf("SkipDir(%q) = true, want false", name)
		}
	}
}

func TestIgnoreRules_Files(t *testing.T) {
	r, _ := NewIgnoreRules(nil)
	for _, name := range []string{"note.md", "doc.markdown", "plain.txt", "board.canvas", "notes.org", "UPPER.MD"} {
		if r.SkipFile(name) {
			t.Errorf("SkipFile(%q) = true, want false", name)
		}
	}
	for _, name := range []string{".hidden.md", "image.png", "archive.zip", "binary", "script.sh"} {
		if !r.SkipFile(name) {
			t.Errorf("SkipFile(%q) = false, want true", name)
		}
	}
}

func TestIgnoreRules_UserGlobs(t *testing.T) {
	r, err := NewIgnoreRules([]string{"*.tmp.md", "drafts"})
	if err != nil {
		t.Fatal(err)
	}
	if !r.SkipFile("scratch.tmp.md") {
		t.Error("user glob not applied to files")
	}
	if !r.SkipDir("drafts") {
		t.Error("user glob not applied to dirs")
	}
	if r.SkipFile("scratch.md") {
		t.Error("glob over-matched")
	}
}

func TestIgnoreRules_BadPattern(t *testing.T) {
	if _, err := NewIgnoreRules([]string{"[unclosed"}); err == nil {
		t.Error("expected error for malformed glob")
	}
}
