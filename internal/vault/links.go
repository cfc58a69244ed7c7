package vault

import (
	"sort"
	"strings"

	"github.com/ravnholt/laguz/internal/models"
)

// BacklinksOf returns every note whose content links to the given title,
// sorted by id. Links store raw [[...]] labels, so resolution happens here at
// query time: a label matches when it equals the title exactly or equals the
// title with its extension dropped (notes are normally linked as [[todo]],
// not [[todo.md]]). This is a deliberate linear derive-on-query scan; vaults
// are human-authored note collections, not bulk data.
func (e *Engine) BacklinksOf(title string) []string {
	stem := title
	if i := strings.LastIndex(title, "."); i > 0 {
		stem = title[:i]
	}

	e.mu.Lock()
	var out []string
	for source, labels := range e.snap.links {
		if _, ok := labels[title]; ok {
			out = append(out, source)
			continue
		}
		if stem != title {
			if _, ok := labels[stem]; ok {
				out = append(out, source)
			}
		}
	}
	e.mu.Unlock()

	sort.Strings(out)
	return out
}

// AllLinks dumps every (source, label) edge, sorted by source then label.
// Dangling labels are included; whether a label resolves to a note is the
// caller's concern.
func (e *Engine) AllLinks() []models.LinkEdge {
	e.mu.Lock()
	var out []models.LinkEdge
	for source, labels := range e.snap.links {
		for label := range labels {
			out = append(out, models.LinkEdge{Source: source, Target: label})
		}
	}
	e.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Source != out[j].Source {
			return out[i].Source < out[j].Source
		}
		return out[i].Target < out[j].Target
	})
	return out
}
