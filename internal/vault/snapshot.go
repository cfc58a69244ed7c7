package vault

import (
	"sort"

	"github.com/ravnholt/laguz/internal/models"
)

// snapshot is the in-memory mirror of vault state: note metadata, the folder
// set, and outbound link labels per note. It is owned exclusively by the
// Engine; every write to a note's entry is a full replace, so a race between
// the API and the watcher converges on whichever filesystem state landed last.
type snapshot struct {
	notes   map[string]models.NoteMeta
	folders map[string]struct{}
	links   map[string]map[string]struct{}
}

func newSnapshot() *snapshot {
	return &snapshot{
		notes:   make(map[string]models.NoteMeta),
		folders: make(map[string]struct{}),
		links:   make(map[string]map[string]struct{}),
	}
}

// putNote replaces the entry and link set for meta.ID wholesale.
func (s *snapshot) putNote(meta models.NoteMeta, links []string) {
	s.notes[meta.ID] = meta
	set := make(map[string]struct{}, len(links))
	for _, l := range links {
		set[l] = struct{}{}
	}
	s.links[meta.ID] = set
}

// dropNote removes the note and its link edges.
func (s *snapshot) dropNote(id string) {
	delete(s.notes, id)
	delete(s.links, id)
}

func (s *snapshot) addFolder(id string) {
	if id != "" {
		s.folders[id] = struct{}{}
	}
}

func (s *snapshot) dropFolder(id string) {
	delete(s.folders, id)
}

// noteList returns a copy of all note metadata sorted by id.
func (s *snapshot) noteList() []models.NoteMeta {
	out := make([]models.NoteMeta, 0, len(s.notes))
	for _, m := range s.notes {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// folderList returns all folder ids sorted.
func (s *snapshot) folderList() []string {
	out := make([]string, 0, len(s.folders))
	for id := range s.folders {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
