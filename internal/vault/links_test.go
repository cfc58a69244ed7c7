package vault

import (
	"reflect"
	"testing"
)

func TestBacklinksOf_ExactLabels(t *testing.T) {
	root, eng := newTestEngine(t)
	writeVaultFile(t, root, "one.md", "Mentions [[X]] here.\n")
	writeVaultFile(t, root, "two.md", "Aliased [[X|see this]] mention.\n")
	writeVaultFile(t, root, "three.md", "Only [[Xyz]] here.\n")
	// Re-scan after writing behind the engine's back.
	eng.mu.Lock()
	eng.scanLocked()
	eng.mu.Unlock()

	got := eng.BacklinksOf("X")
	want := []string{"one.md", "two.md"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("BacklinksOf(X) = %v, want %v", got, want)
	}
	if links := eng.BacklinksOf("Xy"); len(links) != 0 {
		t.Errorf("substring label matched: %v", links)
	}
}

func TestBacklinksOf_TitleWithExtension(t *testing.T) {
	root, eng := newTestEngine(t)
	writeVaultFile(t, root, "src.md", "see [[Other]]\n")
	eng.mu.Lock()
	eng.scanLocked()
	eng.mu.Unlock()

	// Titles are basenames with extension; [[Other]] links normally omit it.
	if got := eng.BacklinksOf("Other.md"); len(got) != 1 || got[0] != "src.md" {
		t.Errorf("BacklinksOf(Other.md) = %v", got)
	}
}

func TestDeleteNote_RemovesLinkEdges(t *testing.T) {
	root, eng := newTestEngine(t)
	writeVaultFile(t, root, "n.md", "[[Other]]\n")
	eng.mu.Lock()
	eng.scanLocked()
	eng.mu.Unlock()

	if got := eng.BacklinksOf("Other"); len(got) != 1 {
		t.Fatalf("precondition: backlinks = %v", got)
	}
	if err := eng.DeleteNote("n.md"); err != nil {
		t.Fatalf("DeleteNote: %v", err)
	}
	if got := eng.BacklinksOf("Other"); len(got) != 0 {
		t.Errorf("backlinks after delete = %v", got)
	}
}

func TestAllLinks_SortedDump(t *testing.T) {
	root, eng := newTestEngine(t)
	writeVaultFile(t, root, "a.md", "[[B]] and [[C]]\n")
	writeVaultFile(t, root, "b.md", "[[A]]\n")
	eng.mu.Lock()
	eng.scanLocked()
	eng.mu.Unlock()

	edges := eng.AllLinks()
	if len(edges) != 3 {
		t.Fatalf("len = %d, want 3: %v", len(edges), edges)
	}
	if edges[0].Source != "a.md" || edges[0].Target != "B" {
		t.Errorf("edges not sorted: %v", edges)
	}
}

func TestRenameNote_RewritesLinkSource(t *testing.T) {
	root, eng := newTestEngine(t)
	writeVaultFile(t, root, "src.md", "[[Target]]\n")
	eng.mu.Lock()
	eng.scanLocked()
	eng.mu.Unlock()

	if _, err := eng.RenameNote("src.md", "renamed"); err != nil {
		t.Fatalf("RenameNote: %v", err)
	}
	got := eng.BacklinksOf("Target")
	if len(got) != 1 || got[0] != "renamed.md" {
		t.Errorf("backlinks = %v, want [renamed.md]", got)
	}
}
