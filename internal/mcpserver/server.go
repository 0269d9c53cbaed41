// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes dealroom tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/dealroom/internal/apperr"
	"github.com/starford/dealroom/internal/clientservice"
	"github.com/starford/dealroom/internal/models"
)

const contractURI = "dealroom://client-record"

// Server wraps the MCP server with dealroom tools.
type Server struct {
	mcp *server.MCPServer
	svc *clientservice.Service
}

// New creates a new MCP server with all dealroom tools registered.
func New(svc *clientservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Dealroom",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_clients",
		mcp.WithDescription("List the clients of a bucket, optionally narrowed by a name or client lead substring."),
		mcp.WithString("bucket", mcp.Description("current (default), archived or prospective")),
		mcp.WithString("query", mcp.Description("Optional case-insensitive substring")),
	), s.listClients)

	s.mcp.AddTool(mcp.NewTool("get_client",
		mcp.WithDescription("Read a full client record including its bucket and checksum."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Client id")),
	), s.getClient)

	s.mcp.AddTool(mcp.NewTool("search_clients",
		mcp.WithDescription("Full-text search through client names, leads, profiles, scopes, comments and ideas."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchClients)

	s.mcp.AddTool(mcp.NewTool("update_client",
		mcp.WithDescription("Merge a partial update into a client. Read the record contract first via "+
			"the get_record_contract tool or the "+contractURI+" resource."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Client id")),
		mcp.WithString("patch", mcp.Required(), mcp.Description("JSON object with the fields to overwrite")),
		mcp.WithString("if_match", mcp.Description("Checksum from get_client; the update fails if the client changed")),
	), s.updateClient)

	s.mcp.AddTool(mcp.NewTool("add_comment",
		mcp.WithDescription("Append a comment to a client. Blank text is ignored."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Client id")),
		mcp.WithString("text", mcp.Required(), mcp.Description("Comment text")),
	), s.addComment)

	s.mcp.AddTool(mcp.NewTool("add_idea",
		mcp.WithDescription("Append a big idea to a client. Blank text is ignored."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Client id")),
		mcp.WithString("text", mcp.Required(), mcp.Description("Idea text")),
	), s.addIdea)

	s.mcp.AddTool(mcp.NewTool("add_action_item",
		mcp.WithDescription("Append an unassigned action item due today. Blank text is ignored."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Client id")),
		mcp.WithString("text", mcp.Required(), mcp.Description("Task")),
	), s.addActionItem)

	s.mcp.AddTool(mcp.NewTool("set_action_item_completed",
		mcp.WithDescription("Mark an action item as completed or open."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Client id")),
		mcp.WithString("item_id", mcp.Required(), mcp.Description("Action item id")),
		mcp.WithBoolean("completed", mcp.Required(), mcp.Description("New completed flag")),
	), s.setActionItemCompleted)

	s.mcp.AddTool(mcp.NewTool("upload_document",
		mcp.WithDescription("Store a document for a client from an http(s) URL or a base64 data URI."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Client id")),
		mcp.WithString("url", mcp.Required(), mcp.Description("http(s) URL or data:<mime>;base64,<data>")),
		mcp.WithString("filename", mcp.Description("Optional file name; derived from the URL when empty")),
	), s.uploadDocument)

	s.mcp.AddTool(mcp.NewTool("get_record_contract",
		mcp.WithDescription("Returns the client record contract. "+
			"Call this before updating clients to ensure correct field names."),
	), s.getRecordContract)

	// Resource: client record contract.
	s.mcp.AddResource(
		mcp.NewResource(contractURI, "Client Record Contract",
			mcp.WithResourceDescription("Client record fields and update rules."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readContractResource,
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

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func errorResult(id string, err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id))
	case errors.Is(err, apperr.ErrConflict):
		return mcp.NewToolResultError(fmt.Sprintf("client %s changed since it was read, fetch it again", id))
	default:
		return mcp.NewToolResultError(err.Error())
	}
}

func (s *Server) listClients(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	b, err := models.ParseBucket(req.GetString("bucket", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(s.svc.Filter(ctx, b, req.GetString("query", ""))), nil
}

func (s *Server) getClient(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	d, err := s.svc.Get(ctx, id)
	if err != nil {
		return errorResult(id, err), nil
	}
	return jsonResult(d), nil
}

func (s *Server) searchClients(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results), nil
}

func (s *Server) updateClient(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := req.RequireString("patch")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var patch models.ClientPatch
	if err := json.Unmarshal([]byte(raw), &patch); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid patch: %v", err)), nil
	}
	d, err := s.svc.UpdateClient(ctx, id, patch, req.GetString("if_match", ""))
	if err != nil {
		return errorResult(id, err), nil
	}
	return jsonResult(d), nil
}

type appendFunc func(ctx context.Context, id, text string) (*clientservice.ClientDetail, bool, error)

func (s *Server) appendTool(ctx context.Context, req mcp.CallToolRequest, fn appendFunc) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	d, ok, err := fn(ctx, id, text)
	if err != nil {
		return errorResult(id, err), nil
	}
	if !ok {
		return mcp.NewToolResultText("ignored: blank text"), nil
	}
	return jsonResult(d), nil
}

func (s *Server) addComment(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.appendTool(ctx, req, s.svc.AddComment)
}

func (s *Server) addIdea(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.appendTool(ctx, req, s.svc.AddIdea)
}

func (s *Server) addActionItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.appendTool(ctx, req, s.svc.AddActionItem)
}

func (s *Server) setActionItemCompleted(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	itemID, err := req.RequireString("item_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	completed, err := req.RequireBool("completed")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	d, err := s.svc.SetActionItemCompleted(ctx, id, itemID, completed)
	if err != nil {
		return errorResult(id, err), nil
	}
	return jsonResult(d), nil
}

func (s *Server) getRecordContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(ClientRecordContract), nil
}

func (s *Server) readContractResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      contractURI,
			MIMEType: "text/markdown",
			Text:     ClientRecordContract,
		},
	}, nil
}
