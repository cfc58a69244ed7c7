package vault

import (
	"path"

	"github.com/ravnholt/laguz/internal/checksum"
	"github.com/ravnholt/laguz/internal/models"
	"github.com/ravnholt/laguz/internal/parser"
	"github.com/ravnholt/laguz/internal/pathid"
)

// indexFileLocked derives metadata and the link set for one file and writes
// them into the snapshot, replacing any prior entry wholesale. The only field
// carried over is CreatedAt, which is sticky: the previous value survives
// re-indexing unless it is implausible (after the current modify time), so
// "created" dates do not flicker on every edit.
//
// A read or stat failure leaves any previous entry untouched; the file is
// simply not indexable right now, which must never look like a deletion.
//
// The second return reports whether the entry materially changed (new id or
// new content), letting the watcher suppress redundant notifications.
//
// Caller must hold e.mu.
func (e *Engine) indexFileLocked(id string) (models.NoteMeta, bool, error) {
	data, err := e.store.Read(id)
	if err != nil {
		return models.NoteMeta{}, false, err
	}
	info, err := e.store.Stat(id)
	if err != nil {
		return models.NoteMeta{}, false, err
	}

	updated := info.ModTime()
	created := updated
	prev, hadPrev := e.snap.notes[id]
	if hadPrev && !prev.CreatedAt.IsZero() && !prev.CreatedAt.After(updated) {
		created = prev.CreatedAt
	}

	res := parser.Parse(data)
	meta := models.NoteMeta{
		ID:           id,
		Title:        path.Base(id),
		Checksum:     checksum.Sum(data),
		CreatedAt:    created,
		UpdatedAt:    updated,
		ParentFolder: pathid.ParentOf(id),
	}
	e.snap.putNote(meta, res.Links)

	changed := !hadPrev || prev.Checksum != meta.Checksum || !prev.UpdatedAt.Equal(updated)
	return meta, changed, nil
}
