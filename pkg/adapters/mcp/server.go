package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/stepgrid"
	"github.com/aretw0/stepgrid/internal/logging"
	"github.com/aretw0/stepgrid/pkg/domain"
	"github.com/aretw0/stepgrid/pkg/ports"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// SnapshotResponse is returned by every tool that touches a session.
type SnapshotResponse struct {
	SessionID string           `json:"session_id" jsonschema_description:"The session the snapshot belongs to"`
	Summary   string           `json:"summary" jsonschema_description:"One-line algorithm, status, step count and path summary"`
	Frame     string           `json:"frame" jsonschema_description:"The grid drawn one character per cell: S start, E end, # barrier, . open, o frontier, @ current, x closed, * path, digits are weights"`
	Snapshot  *domain.Snapshot `json:"snapshot" jsonschema_description:"Full machine-readable snapshot"`
}

// Server wraps a SessionService and exposes it as an MCP Server.
type Server struct {
	sessions  ports.SessionService
	library   ports.TemplateLoader
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance. library may be nil.
func NewServer(sessions ports.SessionService, library ports.TemplateLoader, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		sessions:  sessions,
		library:   library,
		logger:    logger,
		mcpServer: server.NewMCPServer("stepgrid-mcp", strings.TrimSpace(stepgrid.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops it when ctx ends.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("create_session",
		mcp.WithDescription("Create a pathfinding session from a library template, an inline layout, or a blank grid."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Unique session ID")),
		mcp.WithString("template_id", mcp.Description("ID of a library template (see list_templates)")),
		mcp.WithString("layout", mcp.Description("Inline layout: one line per row, tokens START, END, # or a weight 1-254 (255 also marks a barrier)")),
		mcp.WithString("algorithm", mcp.Description("bfs, dfs, dijkstra or astar")),
		mcp.WithOutputSchema[SnapshotResponse](),
	), mcp.NewStructuredToolHandler(s.handleCreate))

	s.mcpServer.AddTool(mcp.NewTool("step",
		mcp.WithDescription("Advance the search by a number of steps, stopping early once it finishes."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithNumber("count", mcp.Description("Steps to take (default 1)")),
		mcp.WithOutputSchema[SnapshotResponse](),
	), mcp.NewStructuredToolHandler(s.handleStep))

	s.mcpServer.AddTool(mcp.NewTool("get_snapshot",
		mcp.WithDescription("Show the current grid without advancing the search."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithOutputSchema[SnapshotResponse](),
	), mcp.NewStructuredToolHandler(s.handleSnapshot))

	s.mcpServer.AddTool(mcp.NewTool("toggle_cell",
		mcp.WithDescription("Place a barrier, clear a cell, or move START/END. Resets a search in progress."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithNumber("col", mcp.Required(), mcp.Description("Zero-based column")),
		mcp.WithNumber("row", mcp.Required(), mcp.Description("Zero-based row")),
		mcp.WithString("state", mcp.Required(), mcp.Description("barrier, default, start or end")),
		mcp.WithOutputSchema[SnapshotResponse](),
	), mcp.NewStructuredToolHandler(s.handleToggle))

	s.mcpServer.AddTool(mcp.NewTool("apply_command",
		mcp.WithDescription("Run any engine command (reset, select_algorithm, set_weight, increase_weight, decrease_weight, clear, randomize, load_template)."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithString("command", mcp.Required(), mcp.Description(`JSON command, e.g. {"type":"set_weight","cell":{"col":1,"row":2},"weight":9}`)),
		mcp.WithOutputSchema[SnapshotResponse](),
	), mcp.NewStructuredToolHandler(s.handleApply))

	s.mcpServer.AddTool(mcp.NewTool("delete_session",
		mcp.WithDescription("End a session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := request.GetString("session_id", "")
		if err := s.sessions.Delete(ctx, id); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("delete failed: %v", err)), nil
		}
		return mcp.NewToolResultText("deleted " + id), nil
	})

	s.mcpServer.AddTool(mcp.NewTool("list_templates",
		mcp.WithDescription("List the template library."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ids, err := s.templateIDs(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
		}
		jsonBytes, _ := json.Marshal(ids)
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}

func (s *Server) respond(id string, snap *domain.Snapshot) SnapshotResponse {
	return SnapshotResponse{
		SessionID: id,
		Summary:   stepgrid.Summary(snap),
		Frame:     stepgrid.PlainFrame(snap),
		Snapshot:  snap,
	}
}

func (s *Server) handleCreate(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (SnapshotResponse, error) {
	id, _ := args["session_id"].(string)
	templateID, _ := args["template_id"].(string)
	layout, _ := args["layout"].(string)
	algorithm, _ := args["algorithm"].(string)

	var tmpl *domain.Template
	switch {
	case layout != "":
		tmpl = &domain.Template{Layout: layout}
	case templateID != "":
		if s.library == nil {
			return SnapshotResponse{}, errors.New("no template library configured")
		}
		loaded, err := s.library.Load(ctx, templateID)
		if err != nil {
			return SnapshotResponse{}, err
		}
		tmpl = loaded
	}
	if algorithm != "" {
		if tmpl == nil {
			tmpl = &domain.Template{}
		}
		tmpl.Algorithm = domain.Algorithm(algorithm)
	}

	snap, err := s.sessions.Create(ctx, id, tmpl)
	if err != nil {
		s.logger.Warn("MCP create_session failed", "session_id", id, "err", err)
		return SnapshotResponse{}, fmt.Errorf("create failed: %w", err)
	}
	return s.respond(id, snap), nil
}

func (s *Server) handleStep(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (SnapshotResponse, error) {
	id, _ := args["session_id"].(string)
	count := 1
	if n, ok := args["count"].(float64); ok && n >= 1 {
		count = int(n)
	}

	snap, err := s.sessions.Step(ctx, id, count)
	if err != nil {
		return SnapshotResponse{}, fmt.Errorf("step failed: %w", err)
	}
	return s.respond(id, snap), nil
}

func (s *Server) handleSnapshot(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (SnapshotResponse, error) {
	id, _ := args["session_id"].(string)
	snap, err := s.sessions.Snapshot(ctx, id)
	if err != nil {
		return SnapshotResponse{}, fmt.Errorf("snapshot failed: %w", err)
	}
	return s.respond(id, snap), nil
}

func (s *Server) handleToggle(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (SnapshotResponse, error) {
	id, _ := args["session_id"].(string)
	col, okCol := args["col"].(float64)
	row, okRow := args["row"].(float64)
	if !okCol || !okRow {
		return SnapshotResponse{}, fmt.Errorf("%w: col and row are required numbers", domain.ErrInvalidCommand)
	}
	name, _ := args["state"].(string)
	state, err := domain.ParseCellState(name)
	if err != nil {
		return SnapshotResponse{}, fmt.Errorf("%w: %w", domain.ErrInvalidCommand, err)
	}

	return s.apply(ctx, id, domain.Command{
		Type:  domain.CommandToggleCell,
		Cell:  &domain.Coord{Col: int(col), Row: int(row)},
		State: state,
	})
}

func (s *Server) handleApply(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (SnapshotResponse, error) {
	id, _ := args["session_id"].(string)
	raw, _ := args["command"].(string)

	var cmd domain.Command
	if err := json.Unmarshal([]byte(raw), &cmd); err != nil {
		return SnapshotResponse{}, fmt.Errorf("%w: %w", domain.ErrInvalidCommand, err)
	}
	return s.apply(ctx, id, cmd)
}

func (s *Server) apply(ctx context.Context, id string, cmd domain.Command) (SnapshotResponse, error) {
	snap, err := s.sessions.Apply(ctx, id, cmd)
	if err != nil {
		s.logger.Warn("MCP command failed", "session_id", id, "type", cmd.Type, "err", err)
		return SnapshotResponse{}, fmt.Errorf("command failed: %w", err)
	}
	return s.respond(id, snap), nil
}

func (s *Server) templateIDs(ctx context.Context) ([]string, error) {
	if s.library == nil {
		return []string{}, nil
	}
	return s.library.List(ctx)
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("stepgrid://templates", "Template Library",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		ids, err := s.templateIDs(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list templates: %w", err)
		}
		jsonBytes, _ := json.Marshal(ids)

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "stepgrid://templates",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})

	s.mcpServer.AddResource(mcp.NewResource("stepgrid://legend", "Frame Legend",
		mcp.WithMIMEType("text/plain"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "stepgrid://legend",
				MIMEType: "text/plain",
				Text:     legend,
			},
		}, nil
	})
}

const legend = `S start
E end
# barrier
. open cell of weight 1
1-9 open cell, last digit of its weight
o frontier (in queue)
@ cell expanded by the latest step
x closed
* path`
