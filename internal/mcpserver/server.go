// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Zettelkasten tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/zk/internal/apperr"
	"github.com/starford/zk/internal/zettelservice"
)

const (
	formatURI = "zk://zettel-format"
	listLimit = 10000
)

// Server wraps the MCP server with zk tools.
type Server struct {
	mcp *server.MCPServer
	svc *zettelservice.Service
}

// New creates a new MCP server with all zk tools registered.
func New(svc *zettelservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"zk",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_zettels",
		mcp.WithDescription("Full-text search through zettel IDs, titles and content."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchZettels)

	s.mcp.AddTool(mcp.NewTool("read_zettel",
		mcp.WithDescription("Read the full content of a zettel."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Zettel ID (e.g. index)")),
	), s.readZettel)

	s.mcp.AddTool(mcp.NewTool("prepare_zettel",
		mcp.WithDescription("Make sure a zettel exists, creating an empty one if needed, "+
			"and return its absolute file path."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Zettel ID")),
	), s.prepareZettel)

	s.mcp.AddTool(mcp.NewTool("write_zettel",
		mcp.WithDescription("Replace the content of a zettel. Content MUST follow the zettel "+
			"format; read it first via get_zettel_format or the "+formatURI+" resource."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Zettel ID")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Full zettel text")),
		mcp.WithString("checksum", mcp.Description("Checksum of the version being replaced; empty skips the check")),
	), s.writeZettel)

	s.mcp.AddTool(mcp.NewTool("get_zettel_format",
		mcp.WithDescription("Returns the zettel format. Call this before writing zettels."),
	), s.getZettelFormat)

	s.mcp.AddTool(mcp.NewTool("list_zettels",
		mcp.WithDescription("List the IDs of all indexed zettels."),
	), s.listZettels)

	s.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("Find all zettels that reference the specified zettel."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Zettel ID to find backlinks for")),
	), s.getBacklinks)

	s.mcp.AddTool(mcp.NewTool("get_neighbors",
		mcp.WithDescription("Return the zettels referencing (upstream) and referenced by (downstream) a zettel."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Zettel ID")),
	), s.getNeighbors)

	s.mcp.AddResource(
		mcp.NewResource(formatURI, "Zettel Format",
			mcp.WithResourceDescription("Plaintext zettel format with metadata header and zk@ references."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readFormatResource,
	)

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

func toolError(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError("not found")
	case errors.Is(err, apperr.ErrInvalidID):
		return mcp.NewToolResultError("invalid zettel id")
	case errors.Is(err, apperr.ErrConflict):
		return mcp.NewToolResultError("checksum mismatch: re-read the zettel and retry")
	}
	return mcp.NewToolResultError(err.Error())
}

func jsonResult(v any) *mcp.CallToolResult {
	out, _ := json.MarshalIndent(v, "", "  ")
	return mcp.NewToolResultText(string(out))
}

func (s *Server) searchZettels(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(results), nil
}

func (s *Server) readZettel(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	z, err := s.svc.GetZettel(ctx, id)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(z.Content), nil
}

func (s *Server) prepareZettel(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.Prepare(ctx, id)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(res.Path), nil
}

func (s *Server) writeZettel(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	z, err := s.svc.SaveZettel(ctx, id, []byte(content), req.GetString("checksum", ""))
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("saved: %s (checksum %s)", z.ID, z.Checksum)), nil
}

func (s *Server) listZettels(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, _, err := s.svc.ListZettels(ctx, listLimit, 0)
	if err != nil {
		return toolError(err), nil
	}
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return mcp.NewToolResultText(strings.Join(ids, "\n")), nil
}

func (s *Server) getZettelFormat(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(ZettelFormat), nil
}

func (s *Server) readFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      formatURI,
			MIMEType: "text/markdown",
			Text:     ZettelFormat,
		},
	}, nil
}

func (s *Server) getBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	bl, err := s.svc.Backlinks(ctx, id)
	if err != nil {
		return toolError(err), nil
	}
	if len(bl) == 0 {
		return mcp.NewToolResultText("no backlinks found"), nil
	}
	return mcp.NewToolResultText(strings.Join(bl, "\n")), nil
}

func (s *Server) getNeighbors(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := s.svc.Neighbors(ctx, id)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(n), nil
}
