// Package models defines the domain types for Laguz.
package models

import "time"

// NoteMeta is the indexed metadata of one note. ID is the note's vault-relative
// path and its sole identity; Title is always the basename of ID.
type NoteMeta struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Checksum     string    `json:"checksum"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	ParentFolder string    `json:"parent_folder"`
}

// FolderMeta identifies a vault directory. Folders are tracked independently
// of notes; an empty folder is still a folder.
type FolderMeta struct {
	ID           string `json:"id"`
	ParentFolder string `json:"parent_folder"`
}

// EntryKind discriminates the Entry variant.
type EntryKind string

// Entry kinds.
const (
	EntryNote   EntryKind = "note"
	EntryFolder EntryKind = "folder"
)

// Entry is a tagged variant over notes and folders, used by listings that
// return both. Exactly one of Note or Folder is non-nil, matching Kind.
type Entry struct {
	Kind   EntryKind   `json:"kind"`
	Note   *NoteMeta   `json:"note,omitempty"`
	Folder *FolderMeta `json:"folder,omitempty"`
}

// LinkEdge is a directed edge from a source note to a raw wikilink label.
// The label is the text inside [[...]], not a resolved id; resolution happens
// at query time so edges never need repair when other notes are renamed.
type LinkEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// EventKind names a vault change notification.
type EventKind string

// Event kinds emitted by the engine.
const (
	EventNoteCreated   EventKind = "note.created"
	EventNoteUpdated   EventKind = "note.updated"
	EventNoteDeleted   EventKind = "note.deleted"
	EventFolderCreated EventKind = "folder.created"
	EventFolderDeleted EventKind = "folder.deleted"
	// EventRefresh tells consumers to re-list; emitted for folder-level
	// changes whose contents are not enumerated incrementally.
	EventRefresh EventKind = "vault.refresh"
)

// Event is a change notification delivered to subscribers. Meta is set for
// note events where the note still exists.
type Event struct {
	Kind EventKind `json:"kind"`
	ID   string    `json:"id"`
	Meta *NoteMeta `json:"meta,omitempty"`
}
