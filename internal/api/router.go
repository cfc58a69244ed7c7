package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ravnholt/laguz/internal/vault"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(eng *vault.Engine, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(eng)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Vault listing.
	r.Get("/entries", h.ListEntries)

	// Notes CRUD.
	r.Get("/notes", h.ListNotes)
	r.Post("/notes", h.CreateNote)
	r.Post("/notes/rename", h.RenameNote)
	r.Post("/notes/move", h.MoveNote)
	r.Get("/notes/*", h.GetNote)
	r.Put("/notes/*", h.SaveNote)
	r.Delete("/notes/*", h.DeleteNote)

	// Folders.
	r.Get("/folders", h.ListFolders)
	r.Post("/folders", h.CreateFolder)
	r.Post("/folders/rename", h.RenameFolder)
	r.Post("/folders/move", h.MoveFolder)
	r.Delete("/folders/*", h.DeleteFolder)

	// Search.
	r.Get("/search", h.Search)

	// Graph.
	r.Get("/graph", h.Graph)
	r.Get("/backlinks", h.Backlinks)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
