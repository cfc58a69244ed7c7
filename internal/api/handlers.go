package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/ravnholt/laguz/internal/apperr"
	"github.com/ravnholt/laguz/internal/vault"
)

// Handler holds API route handlers.
type Handler struct {
	eng *vault.Engine
}

// NewHandler creates a new Handler.
func NewHandler(eng *vault.Engine) *Handler {
	return &Handler{eng: eng}
}

// entryID extracts the entry id from the URL wildcard. Supports encoded
// slashes from OpenAPI clients (e.g. topics%2Fnote.md).
func entryID(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// writeVaultError maps vault errors to HTTP responses.
func writeVaultError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrAlreadyExists):
		writeJSON(w, http.StatusConflict, errorBody("already exists"))
	case errors.Is(err, apperr.ErrOutOfTree), errors.Is(err, apperr.ErrInvalidVaultPath):
		writeJSON(w, http.StatusBadRequest, errorBody("invalid path"))
	default:
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// ListEntries handles GET /api/entries.
//
//	@Summary		List all notes and folders in the vault
//	@Tags			entries
//	@Produce		json
//	@Success		200	{object}	EntryListResponse
//	@Security		BearerAuth
//	@Router			/entries [get]
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	entries := h.eng.ListEntries()
	writeJSON(w, http.StatusOK, EntryListResponse{Entries: entries, Total: len(entries)})
}

// ListNotes handles GET /api/notes.
//
//	@Summary		List all notes in the vault
//	@Tags			notes
//	@Produce		json
//	@Success		200	{object}	NoteListResponse
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	notes := h.eng.ListNotes()
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: notes, Total: len(notes)})
}

// GetNote handles GET /api/notes/*.
//
//	@Summary		Get a single note by id
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		string	true	"Note id"
//	@Success		200	{object}	vault.Note
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	id := entryID(r)
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("id is required"))
		return
	}
	note, err := h.eng.LoadNote(id)
	if err != nil {
		writeVaultError(w, "get note", err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// CreateNote handles POST /api/notes.
//
//	@Summary		Create a new empty note
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateNoteRequest	true	"Note to create"
//	@Success		201		{object}	models.NoteMeta
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [post]
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req CreateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Title == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("title is required"))
		return
	}
	meta, err := h.eng.CreateNote(req.Title, req.Folder)
	if err != nil {
		writeVaultError(w, "create note", err)
		return
	}
	writeJSON(w, http.StatusCreated, meta)
}

// SaveNote handles PUT /api/notes/*.
//
//	@Summary		Replace the content of a note
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Note id"
//	@Param			body	body		SaveNoteRequest	true	"New content"
//	@Success		200		{object}	models.NoteMeta
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [put]
func (h *Handler) SaveNote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	id := entryID(r)
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("id is required"))
		return
	}
	var req SaveNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	meta, err := h.eng.SaveNote(id, []byte(req.Content))
	if err != nil {
		writeVaultError(w, "save note", err)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

// DeleteNote handles DELETE /api/notes/*.
//
//	@Summary		Delete a note
//	@Tags			notes
//	@Param			id	path	string	true	"Note id"
//	@Success		204	"Note deleted"
//	@Security		BearerAuth
//	@Router			/notes/{id} [delete]
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	id := entryID(r)
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("id is required"))
		return
	}
	if err := h.eng.DeleteNote(id); err != nil {
		writeVaultError(w, "delete note", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RenameNote handles POST /api/notes/rename.
//
//	@Summary		Rename a note keeping its folder
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		RenameNoteRequest	true	"Rename request"
//	@Success		200		{object}	models.NoteMeta
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/rename [post]
func (h *Handler) RenameNote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req RenameNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.ID == "" || req.Title == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("id and title are required"))
		return
	}
	meta, err := h.eng.RenameNote(req.ID, req.Title)
	if err != nil {
		writeVaultError(w, "rename note", err)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

// MoveNote handles POST /api/notes/move.
//
//	@Summary		Move a note to a different folder
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		MoveNoteRequest	true	"Move request"
//	@Success		200		{object}	models.NoteMeta
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/move [post]
func (h *Handler) MoveNote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req MoveNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.ID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("id is required"))
		return
	}
	meta, err := h.eng.MoveNote(req.ID, req.Folder)
	if err != nil {
		writeVaultError(w, "move note", err)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

// ListFolders handles GET /api/folders.
//
//	@Summary		List all folders in the vault
//	@Tags			folders
//	@Produce		json
//	@Success		200	{object}	FolderListResponse
//	@Security		BearerAuth
//	@Router			/folders [get]
func (h *Handler) ListFolders(w http.ResponseWriter, r *http.Request) {
	folders := h.eng.ListFolders()
	writeJSON(w, http.StatusOK, FolderListResponse{Folders: folders, Total: len(folders)})
}

// CreateFolder handles POST /api/folders.
//
//	@Summary		Create a new folder
//	@Tags			folders
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateFolderRequest	true	"Folder to create"
//	@Success		201		{object}	models.FolderMeta
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/folders [post]
func (h *Handler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req CreateFolderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("name is required"))
		return
	}
	meta, err := h.eng.CreateFolder(req.Name, req.Parent)
	if err != nil {
		writeVaultError(w, "create folder", err)
		return
	}
	writeJSON(w, http.StatusCreated, meta)
}

// DeleteFolder handles DELETE /api/folders/*.
//
//	@Summary		Delete a folder and everything under it
//	@Tags			folders
//	@Param			id	path	string	true	"Folder id"
//	@Success		204	"Folder deleted"
//	@Security		BearerAuth
//	@Router			/folders/{id} [delete]
func (h *Handler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	id := entryID(r)
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("id is required"))
		return
	}
	if err := h.eng.DeleteFolder(id); err != nil {
		writeVaultError(w, "delete folder", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RenameFolder handles POST /api/folders/rename.
//
//	@Summary		Rename a folder keeping its parent
//	@Tags			folders
//	@Accept			json
//	@Produce		json
//	@Param			body	body		RenameFolderRequest	true	"Rename request"
//	@Success		200		{object}	models.FolderMeta
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/folders/rename [post]
func (h *Handler) RenameFolder(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req RenameFolderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.ID == "" || req.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("id and name are required"))
		return
	}
	meta, err := h.eng.RenameFolder(req.ID, req.Name)
	if err != nil {
		writeVaultError(w, "rename folder", err)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

// MoveFolder handles POST /api/folders/move.
//
//	@Summary		Move a folder under a new parent
//	@Tags			folders
//	@Accept			json
//	@Produce		json
//	@Param			body	body		MoveFolderRequest	true	"Move request"
//	@Success		200		{object}	models.FolderMeta
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/folders/move [post]
func (h *Handler) MoveFolder(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req MoveFolderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.ID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("id is required"))
		return
	}
	meta, err := h.eng.MoveFolder(req.ID, req.Target)
	if err != nil {
		writeVaultError(w, "move folder", err)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

// Search handles GET /api/search.
//
//	@Summary		Search note titles and content
//	@Tags			search
//	@Produce		json
//	@Param			q	query		string	true	"Search query"
//	@Success		200	{object}	SearchResponse
//	@Failure		400	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	results := h.eng.Search(q)
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// Backlinks handles GET /api/backlinks.
//
//	@Summary		List notes whose wikilinks point at a title
//	@Tags			graph
//	@Produce		json
//	@Param			title	query		string	true	"Link target title"
//	@Success		200		{object}	BacklinksResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/backlinks [get]
func (h *Handler) Backlinks(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("title")
	if title == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'title' is required"))
		return
	}
	writeJSON(w, http.StatusOK, BacklinksResponse{Backlinks: h.eng.BacklinksOf(title)})
}

// Graph handles GET /api/graph.
//
//	@Summary		Get the wikilink graph
//	@Tags			graph
//	@Produce		json
//	@Success		200	{object}	GraphResponse
//	@Security		BearerAuth
//	@Router			/graph [get]
func (h *Handler) Graph(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, GraphResponse{
		Nodes: h.eng.ListNotes(),
		Links: h.eng.AllLinks(),
	})
}
