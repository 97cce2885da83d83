// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes timesheet review tools for LLM integration via stdio
// transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/caffeinsmuggler/timesheet-ai/internal/index"
	"github.com/caffeinsmuggler/timesheet-ai/internal/models"
	"github.com/caffeinsmuggler/timesheet-ai/internal/review"
	"github.com/caffeinsmuggler/timesheet-ai/internal/roster"
)

// Server wraps the MCP server with review tools.
type Server struct {
	mcp    *server.MCPServer
	svc    *review.Service
	roster *roster.Store
}

// New creates a new MCP server with all review tools registered.
func New(svc *review.Service, rost *roster.Store) *Server {
	s := &Server{svc: svc, roster: rost}

	s.mcp = server.NewMCPServer(
		"Timesheet AI",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_sessions",
		mcp.WithDescription("List review sessions, newest first."),
		mcp.WithString("status", mcp.Description("Optional filter: open or finalized (empty for all)")),
	), s.listSessions)

	s.mcp.AddTool(mcp.NewTool("get_session",
		mcp.WithDescription("Read one review session with all its items."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id (e.g. rs-...)")),
	), s.getSession)

	s.mcp.AddTool(mcp.NewTool("list_unresolved",
		mcp.WithDescription("List the items of a session that still need a "+
			"confirmed name, with their raw OCR text and ranked candidates."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
	), s.listUnresolved)

	s.mcp.AddTool(mcp.NewTool("resolve_item",
		mcp.WithDescription("Confirm the name of one item and mark it "+
			"resolved. Prefer an exact roster entry for the item's shift; "+
			"use search_employees to find it first."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
		mcp.WithString("item_id", mcp.Required(), mcp.Description("Item id (e.g. it-...)")),
		mcp.WithString("name", mcp.Required(), mcp.Description("Exact roster name to confirm")),
	), s.resolveItem)

	s.mcp.AddTool(mcp.NewTool("search_employees",
		mcp.WithDescription("Search the roster by name substring within a shift."),
		mcp.WithString("query", mcp.Description("Substring to match (empty for all)")),
		mcp.WithString("shift", mcp.Description("DAY or NIGHT (default DAY)")),
	), s.searchEmployees)

	s.mcp.AddTool(mcp.NewTool("finalize_session",
		mcp.WithDescription("Finalize a fully resolved session and return the "+
			"export snapshot. Read the timesheet://export-format resource or "+
			"the get_export_contract tool for the snapshot structure."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
	), s.finalizeSession)

	s.mcp.AddTool(mcp.NewTool("get_export_contract",
		mcp.WithDescription("Returns the export snapshot contract. "+
			"Call this before interpreting finalize_session output."),
	), s.getExportContract)

	// Resource: export snapshot contract.
	s.mcp.AddResource(
		mcp.NewResource("timesheet://export-format", "Export Format Contract",
			mcp.WithResourceDescription("Structure of the finalize export snapshot."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readExportFormatResource,
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

func (s *Server) listSessions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status := index.StatusAny
	if v, err := req.RequireString("status"); err == nil {
		status = v
	}
	rows, _, err := s.svc.List(ctx, 50, 0, status)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(rows, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sess, err := s.svc.Get(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	out, _ := json.MarshalIndent(sess, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listUnresolved(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sess, err := s.svc.Get(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}

	var pending []models.ReviewItem
	for _, it := range sess.Items {
		if !it.Resolved() {
			pending = append(pending, it)
		}
	}
	if len(pending) == 0 {
		return mcp.NewToolResultText("all items resolved"), nil
	}
	out, _ := json.MarshalIndent(pending, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) resolveItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := req.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	itemID, err := req.RequireString("item_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	it, err := s.svc.PatchItem(ctx, sessionID, itemID, review.ItemPatch{SelectedName: &name})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(it, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) searchEmployees(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := ""
	if q, err := req.RequireString("query"); err == nil {
		query = q
	}

	shift := models.ShiftDay
	if v, err := req.RequireString("shift"); err == nil {
		switch strings.ToUpper(v) {
		case "", string(models.ShiftDay):
		case string(models.ShiftNight):
			shift = models.ShiftNight
		default:
			return mcp.NewToolResultError("shift must be DAY or NIGHT"), nil
		}
	}

	names := s.roster.Search(query, shift, 0)
	if len(names) == 0 {
		return mcp.NewToolResultText("no matches"), nil
	}
	return mcp.NewToolResultText(strings.Join(names, "\n")), nil
}

func (s *Server) finalizeSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	exp, err := s.svc.Finalize(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(exp, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getExportContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(ExportFormatContract), nil
}

func (s *Server) readExportFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "timesheet://export-format",
			MIMEType: "text/markdown",
			Text:     ExportFormatContract,
		},
	}, nil
}
