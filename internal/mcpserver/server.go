// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Laguz vault tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ravnholt/laguz/internal/vault"
)

// Server wraps the MCP server with Laguz tools.
type Server struct {
	mcp *server.MCPServer
	eng *vault.Engine
}

// New creates a new MCP server with all Laguz tools registered.
func New(eng *vault.Engine) *Server {
	s := &Server{eng: eng}

	s.mcp = server.NewMCPServer(
		"Laguz",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List the ids of all notes in the vault."),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the full content of a note."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Vault-relative note id (e.g. folder/note.md)")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a new empty note. If a note with the same title "+
			"already exists a numbered variant is chosen automatically."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Title for the new note")),
		mcp.WithString("folder", mcp.Description("Optional folder to create the note in")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("save_note",
		mcp.WithDescription("Replace the full content of an existing note. "+
			"Markdown body with optional YAML frontmatter and [[wikilinks]]."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Vault-relative note id")),
		mcp.WithString("content", mcp.Required(), mcp.Description("New note content")),
	), s.saveNote)

	s.mcp.AddTool(mcp.NewTool("rename_note",
		mcp.WithDescription("Rename a note keeping it in the same folder."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Vault-relative note id")),
		mcp.WithString("title", mcp.Required(), mcp.Description("New title")),
	), s.renameNote)

	s.mcp.AddTool(mcp.NewTool("delete_note",
		mcp.WithDescription("Delete a note from the vault."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Vault-relative note id")),
	), s.deleteNote)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Search note titles and content."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("Find all notes whose wikilinks point at the given title."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Link target title (with or without extension)")),
	), s.getBacklinks)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var ids []string
	for _, m := range s.eng.ListNotes() {
		ids = append(ids, m.ID)
	}
	return mcp.NewToolResultText(strings.Join(ids, "\n")), nil
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.eng.LoadNote(id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	return mcp.NewToolResultText(note.Content), nil
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	folder := ""
	if f, ferr := req.RequireString("folder"); ferr == nil {
		folder = f
	}
	meta, err := s.eng.CreateNote(title, folder)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", meta.ID)), nil
}

func (s *Server) saveNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if _, err := s.eng.SaveNote(id, []byte(content)); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("saved: %s", id)), nil
}

func (s *Server) renameNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	meta, err := s.eng.RenameNote(id, title)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("renamed: %s", meta.ID)), nil
}

func (s *Server) deleteNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.eng.DeleteNote(id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %s", id)), nil
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results := s.eng.Search(query)
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	bl := s.eng.BacklinksOf(title)
	if len(bl) == 0 {
		return mcp.NewToolResultText("no backlinks found"), nil
	}
	return mcp.NewToolResultText(strings.Join(bl, "\n")), nil
}
