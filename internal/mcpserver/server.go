// Package mcpserver exposes the post collection over the Model Context Protocol.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/coursepress/internal/apperr"
	"github.com/starford/coursepress/internal/models"
	"github.com/starford/coursepress/internal/postservice"
)

const (
	formatURI   = "coursepress://post-format"
	searchLimit = 20
)

// Server wraps the MCP server with post tools.
type Server struct {
	mcp *server.MCPServer
	svc *postservice.Service
}

// New creates an MCP server backed by the post service.
func New(svc *postservice.Service, version string) *Server {
	s := &Server{svc: svc}

	m := server.NewMCPServer(
		"coursepress",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	m.AddTool(mcp.NewTool("list_posts",
		mcp.WithDescription("List post summaries, optionally filtered by section or category"),
		mcp.WithString("section", mcp.Description("Only posts of this section")),
		mcp.WithString("category", mcp.Description("Only posts of this category")),
	), s.listPosts)

	m.AddTool(mcp.NewTool("list_section",
		mcp.WithDescription("List the full posts of one section in reading order"),
		mcp.WithString("section", mcp.Required(), mcp.Description("Section name, e.g. ai")),
	), s.listSection)

	m.AddTool(mcp.NewTool("get_post",
		mcp.WithDescription("Read a post's front matter and Markdown body by slug"),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Post slug")),
	), s.getPost)

	m.AddTool(mcp.NewTool("search_posts",
		mcp.WithDescription("Full-text search across titles, bodies and tags"),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query")),
	), s.searchPosts)

	m.AddTool(mcp.NewTool("get_metadata",
		mcp.WithDescription("Corpus metadata: sections, categories, counts and the latest post"),
	), s.getMetadata)

	m.AddTool(mcp.NewTool("sync_content",
		mcp.WithDescription("Ingest the content tree, commit it to the store and re-export the static artifacts"),
	), s.syncContent)

	m.AddTool(mcp.NewTool("get_post_contract",
		mcp.WithDescription("Get the canonical Markdown post format contract. Call this before writing a new post."),
	), s.getPostContract)

	m.AddResource(mcp.NewResource(
		formatURI,
		"Post Format Contract",
		mcp.WithResourceDescription("Canonical Markdown post format and placement rules"),
		mcp.WithMIMEType("text/markdown"),
	), s.readPostFormatResource)

	s.mcp = m
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

func (s *Server) listPosts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	section := req.GetString("section", "")
	category := req.GetString("category", "")

	var posts []models.Post
	switch {
	case section != "":
		posts, _ = s.svc.PostsBySection(ctx, section)
	case category != "":
		posts, _ = s.svc.PostsByCategory(ctx, category)
	default:
		posts, _ = s.svc.ListPosts(ctx)
	}

	out := make([]models.Summary, 0, len(posts))
	for _, p := range posts {
		if category != "" && p.Category != category {
			continue
		}
		out = append(out, p.Summarize())
	}
	return jsonResult(out)
}

func (s *Server) listSection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	section, err := req.RequireString("section")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	posts, _ := s.svc.PostsBySection(ctx, section)
	if len(posts) == 0 {
		return mcp.NewToolResultError(fmt.Sprintf("no posts in section: %s", section)), nil
	}
	return jsonResult(posts)
}

func (s *Server) getPost(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	d, _, err := s.svc.GetPost(ctx, slug)
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", slug)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(d.Post)
}

func (s *Server) searchPosts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, searchLimit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results)
}

func (s *Server) getMetadata(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	meta, _ := s.svc.Metadata(ctx)
	return jsonResult(meta)
}

func (s *Server) syncContent(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rep, err := s.svc.Sync(ctx, postservice.TriggerMCP)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(rep)
}

func (s *Server) getPostContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(PostFormatContract), nil
}

func (s *Server) readPostFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      formatURI,
			MIMEType: "text/markdown",
			Text:     PostFormatContract,
		},
	}, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}
