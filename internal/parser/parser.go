// Package parser extracts wikilinks, tags, and frontmatter from note content.
package parser

import (
	"bytes"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	wikilinkRe = regexp.MustCompile(`\[\[(.*?)\]\]`)
	tagRe      = regexp.MustCompile(`(?:^|\s)#([A-Za-z][A-Za-z0-9_/-]*)`)
)

// Result holds the output of parsing a note.
type Result struct {
	Frontmatter map[string]any
	Body        string
	Links       []string
	Tags        []string
}

// Parse extracts frontmatter, body, wikilink targets, and tags from raw note
// content. It never fails: malformed frontmatter degrades to body-only.
func Parse(data []byte) *Result {
	fm, body := splitFrontmatter(data)
	return &Result{
		Frontmatter: fm,
		Body:        body,
		Links:       ExtractLinks(body),
		Tags:        extractTags(body, fm),
	}
}

// ExtractLinks returns the deduplicated wikilink targets in body.
// [[Target|Alias]] yields "Target"; empty targets are dropped.
func ExtractLinks(body string) []string {
	matches := wikilinkRe.FindAllStringSubmatch(body, -1)
	seen := make(map[string]struct{}, len(matches))
	var out []string
	for _, m := range matches {
		target := m[1]
		if i := strings.Index(target, "|"); i >= 0 {
			target = target[:i]
		}
		target = strings.TrimSpace(target)
		if target == "" {
			continue
		}
		if _, dup := seen[target]; dup {
			continue
		}
		seen[target] = struct{}{}
		out = append(out, target)
	}
	return out
}

// splitFrontmatter separates a leading YAML block (between --- fences) from
// the body. Missing or invalid frontmatter yields a nil map and the full
// content as body.
func splitFrontmatter(data []byte) (map[string]any, string) {
	const fence = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")
	if !bytes.HasPrefix(trimmed, []byte(fence)) {
		return nil, string(data)
	}
	rest := trimmed[len(fence):]
	end := bytes.Index(rest, []byte("\n"+fence))
	if end < 0 {
		return nil, string(data)
	}
	var fm map[string]any
	if err := yaml.Unmarshal(rest[:end], &fm); err != nil {
		return nil, string(data)
	}
	body := strings.TrimLeft(string(rest[end+1+len(fence):]), "\n\r")
	return fm, body
}

// extractTags collects #tags from body plus the frontmatter "tags" list.
func extractTags(body string, fm map[string]any) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(tag string) {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			return
		}
		if _, dup := seen[tag]; dup {
			return
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}

	if raw, ok := fm["tags"]; ok {
		if list, ok := raw.([]any); ok {
			for _, item := range list {
				if s, ok := item.(string); ok {
					add(s)
				}
			}
		}
	}
	for _, m := range tagRe.FindAllStringSubmatch(body, -1) {
		add(m[1])
	}
	return out
}
