package vault

import (
	"bytes"
	"strings"

	"github.com/ravnholt/laguz/internal/models"
)

// Search matches query case-insensitively against note titles first, then
// scans the content of every note whose title did not match. No index is
// maintained; the scan always reflects current disk content and can never
// serve stale hits.
func (e *Engine) Search(query string) []models.NoteMeta {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	e.mu.Lock()
	metas := e.snap.noteList()
	e.mu.Unlock()

	var out []models.NoteMeta
	var rest []models.NoteMeta
	for _, m := range metas {
		if strings.Contains(strings.ToLower(m.Title), q) {
			out = append(out, m)
		} else {
			rest = append(rest, m)
		}
	}

	needle := []byte(q)
	for _, m := range rest {
		data, err := e.store.Read(m.ID)
		if err != nil {
			continue
		}
		if bytes.Contains(bytes.ToLower(data), needle) {
			out = append(out, m)
		}
	}
	return out
}
