package api

import (
	"github.com/ravnholt/laguz/internal/models"
)

// CreateNoteRequest is the request body for creating a note.
type CreateNoteRequest struct {
	Title  string `json:"title" example:"Meeting Notes" validate:"required"`
	Folder string `json:"folder" example:"work/projects"`
}

// SaveNoteRequest is the request body for saving note content.
type SaveNoteRequest struct {
	Content string `json:"content" example:"# Updated\nContent" validate:"required"`
}

// RenameNoteRequest is the request body for renaming a note in place.
type RenameNoteRequest struct {
	ID    string `json:"id" example:"work/Meeting Notes.md" validate:"required"`
	Title string `json:"title" example:"Standup Notes" validate:"required"`
}

// MoveNoteRequest is the request body for moving a note to another folder.
type MoveNoteRequest struct {
	ID     string `json:"id" example:"work/Meeting Notes.md" validate:"required"`
	Folder string `json:"folder" example:"archive"`
}

// CreateFolderRequest is the request body for creating a folder.
type CreateFolderRequest struct {
	Name   string `json:"name" example:"projects" validate:"required"`
	Parent string `json:"parent" example:"work"`
}

// RenameFolderRequest is the request body for renaming a folder in place.
type RenameFolderRequest struct {
	ID   string `json:"id" example:"work/projects" validate:"required"`
	Name string `json:"name" example:"archive" validate:"required"`
}

// MoveFolderRequest is the request body for moving a folder under a new parent.
type MoveFolderRequest struct {
	ID     string `json:"id" example:"work/projects" validate:"required"`
	Target string `json:"target" example:"archive"`
}

// NoteListResponse wraps note listings.
type NoteListResponse struct {
	Notes []models.NoteMeta `json:"notes" validate:"required"`
	Total int               `json:"total" example:"42" validate:"required"`
}

// EntryListResponse wraps a mixed listing of notes and folders.
type EntryListResponse struct {
	Entries []models.Entry `json:"entries" validate:"required"`
	Total   int            `json:"total" example:"42" validate:"required"`
}

// FolderListResponse wraps folder listings.
type FolderListResponse struct {
	Folders []string `json:"folders" validate:"required"`
	Total   int      `json:"total" example:"7" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []models.NoteMeta `json:"results" validate:"required"`
}

// BacklinksResponse wraps the ids of notes linking to a title.
type BacklinksResponse struct {
	Backlinks []string `json:"backlinks" validate:"required"`
}

// GraphResponse wraps the wikilink graph.
type GraphResponse struct {
	Nodes []models.NoteMeta `json:"nodes" validate:"required"`
	Links []models.LinkEdge `json:"links" validate:"required"`
}
