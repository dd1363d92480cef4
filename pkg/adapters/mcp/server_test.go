package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/stepgrid/pkg/adapters/memory"
	"github.com/aretw0/stepgrid/pkg/domain"
	"github.com/aretw0/stepgrid/pkg/ports"
	"github.com/aretw0/stepgrid/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	library, err := memory.NewFromTemplates(
		&domain.Template{ID: "corridor", Algorithm: domain.AlgorithmDijkstra, Layout: "START 3 1 END\n"},
	)
	require.NoError(t, err)
	return NewServer(session.NewManager(nil, session.WithDefaultSize(3, 3)), library, nil)
}

func TestServer_CreateStepAndSnapshot(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	req := mcp.CallToolRequest{}

	resp, err := s.handleCreate(ctx, req, map[string]any{"session_id": "a", "template_id": "corridor"})
	require.NoError(t, err)
	assert.Equal(t, "a", resp.SessionID)
	assert.Equal(t, "S3.E", resp.Frame)
	assert.Equal(t, domain.AlgorithmDijkstra, resp.Snapshot.Algorithm)

	resp, err = s.handleStep(ctx, req, map[string]any{"session_id": "a", "count": float64(50)})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPathDone, resp.Snapshot.Status)
	assert.Equal(t, "S**E", resp.Frame)
	assert.Contains(t, resp.Summary, "cost=5")

	resp, err = s.handleSnapshot(ctx, req, map[string]any{"session_id": "a"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPathDone, resp.Snapshot.Status)
}

func TestServer_CreateVariants(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	resp, err := s.handleCreate(ctx, mcp.CallToolRequest{}, map[string]any{"session_id": "blank", "algorithm": "ASTAR"})
	require.NoError(t, err)
	assert.Equal(t, domain.AlgorithmAStar, resp.Snapshot.Algorithm)
	assert.Equal(t, 3, resp.Snapshot.Columns)

	resp, err = s.handleCreate(ctx, mcp.CallToolRequest{}, map[string]any{"session_id": "inline", "layout": "END START\n"})
	require.NoError(t, err)
	assert.Equal(t, "ES", resp.Frame)

	_, err = s.handleCreate(ctx, mcp.CallToolRequest{}, map[string]any{"session_id": "inline"})
	assert.ErrorIs(t, err, domain.ErrSessionExists)

	_, err = s.handleCreate(ctx, mcp.CallToolRequest{}, map[string]any{"session_id": "x", "template_id": "nope"})
	assert.ErrorIs(t, err, domain.ErrTemplateNotFound)
}

func TestServer_Commands(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	req := mcp.CallToolRequest{}

	_, err := s.handleCreate(ctx, req, map[string]any{"session_id": "c", "layout": "START 1 END\n"})
	require.NoError(t, err)

	resp, err := s.handleToggle(ctx, req, map[string]any{"session_id": "c", "col": float64(1), "row": float64(0), "state": "barrier"})
	require.NoError(t, err)
	assert.Equal(t, "S#E", resp.Frame)

	resp, err = s.handleApply(ctx, req, map[string]any{"session_id": "c", "command": `{"type":"clear"}`})
	require.NoError(t, err)
	assert.Equal(t, "S.E", resp.Frame)

	resp, err = s.handleApply(ctx, req, map[string]any{"session_id": "c", "command": `{"type":"set_weight","cell":{"col":1,"row":0},"weight":17}`})
	require.NoError(t, err)
	assert.Equal(t, "S7E", resp.Frame)

	_, err = s.handleToggle(ctx, req, map[string]any{"session_id": "c", "state": "barrier"})
	assert.ErrorIs(t, err, domain.ErrInvalidCommand)

	_, err = s.handleToggle(ctx, req, map[string]any{"session_id": "c", "col": float64(0), "row": float64(0), "state": "lava"})
	assert.ErrorIs(t, err, domain.ErrInvalidCommand)

	_, err = s.handleApply(ctx, req, map[string]any{"session_id": "c", "command": `not json`})
	assert.ErrorIs(t, err, domain.ErrInvalidCommand)

	_, err = s.handleApply(ctx, req, map[string]any{"session_id": "ghost", "command": `{"type":"reset"}`})
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestServer_ToolsRegistered(t *testing.T) {
	s := newTestServer(t)

	msg := s.mcpServer.HandleMessage(context.Background(), json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	raw, err := json.Marshal(msg)
	require.NoError(t, err)

	for _, name := range []string{"create_session", "step", "get_snapshot", "toggle_cell", "apply_command", "delete_session", "list_templates"} {
		assert.Contains(t, string(raw), `"name":"`+name+`"`)
	}
}

func TestServer_TemplateIDsWithoutLibrary(t *testing.T) {
	s := NewServer(session.NewManager(nil), nil, nil)
	ids, err := s.templateIDs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestServer_SavedTemplates(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.Save(ctx, &domain.Template{ID: "saved", Layout: "START # END\n1 1 1\n"}))

	library, err := memory.NewFromTemplates(&domain.Template{ID: "corridor", Layout: "START END\n"})
	require.NoError(t, err)

	sessions := session.NewManager(store, session.WithDefaultSize(3, 3))
	s := NewServer(sessions, ports.NewCatalog(store, library), nil)

	resp, err := s.handleCreate(ctx, mcp.CallToolRequest{}, map[string]any{"session_id": "saved", "template_id": "saved"})
	require.NoError(t, err)
	assert.Equal(t, "S#E\n...", resp.Frame)

	ids, err := s.templateIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"corridor", "saved"}, ids, "session checkpoints are not listed")
}
