package vault

import "testing"

func TestSearch_TitleFirstThenContent(t *testing.T) {
	root, eng := newTestEngine(t)
	writeVaultFile(t, root, "kayak.md", "nothing relevant\n")
	writeVaultFile(t, root, "trip.md", "we rented a Kayak on the lake\n")
	writeVaultFile(t, root, "other.md", "unrelated\n")
	eng.mu.Lock()
	eng.scanLocked()
	eng.mu.Unlock()

	got := eng.Search("kayak")
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2: %v", len(got), got)
	}
	// Title hits come first.
	if got[0].ID != "kayak.md" {
		t.Errorf("first result = %q, want title match", got[0].ID)
	}
	if got[1].ID != "trip.md" {
		t.Errorf("second result = %q, want content match", got[1].ID)
	}
}

func TestSearch_CaseInsensitive(t *testing.T) {
	root, eng := newTestEngine(t)
	writeVaultFile(t, root, "note.md", "MIXED case Content\n")
	eng.mu.Lock()
	eng.scanLocked()
	eng.mu.Unlock()

	if got := eng.Search("mixed CASE"); len(got) != 1 {
		t.Errorf("results = %v", got)
	}
}

func TestSearch_EmptyQuery(t *testing.T) {
	_, eng := newTestEngine(t)
	_, _ = eng.CreateNote("whatever", "")
	if got := eng.Search("   "); got != nil {
		t.Errorf("empty query returned %v", got)
	}
}

func TestSearch_NoMatch(t *testing.T) {
	root, eng := newTestEngine(t)
	writeVaultFile(t, root, "note.md", "content\n")
	eng.mu.Lock()
	eng.scanLocked()
	eng.mu.Unlock()

	if got := eng.Search("zzz-not-here"); len(got) != 0 {
		t.Errorf("results = %v", got)
	}
}
