package http

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/stepgrid/pkg/adapters/memory"
	"github.com/aretw0/stepgrid/pkg/domain"
	"github.com/aretw0/stepgrid/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, opts ...Option) *httptest.Server {
	t.Helper()
	library, err := memory.NewFromTemplates(
		&domain.Template{ID: "corridor", Title: "Corridor", Algorithm: domain.AlgorithmAStar, Layout: "START 1 1 END\n"},
	)
	require.NoError(t, err)

	mgr := session.NewManager(memory.NewStore(), session.WithDefaultSize(4, 3))
	opts = append([]Option{WithLibrary(library)}, opts...)
	srv := httptest.NewServer(NewHandler(mgr, opts...))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, body string) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func decodeSnapshot(t *testing.T, data []byte) domain.Snapshot {
	t.Helper()
	var snap domain.Snapshot
	require.NoError(t, json.Unmarshal(data, &snap), string(data))
	return snap
}

func TestServer_SessionLifecycle(t *testing.T) {
	srv := newTestServer(t)

	resp, data := do(t, http.MethodPost, srv.URL+"/sessions", `{"id":"s1","layout":"START 1 1\n1 1 1\n1 1 END\n"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))
	assert.Equal(t, "/sessions/s1", resp.Header.Get("Location"))
	snap := decodeSnapshot(t, data)
	assert.Equal(t, domain.StatusIdle, snap.Status)
	assert.Equal(t, 3, snap.Columns)

	resp, data = do(t, http.MethodPost, srv.URL+"/sessions/s1/commands", `{"type":"toggle_cell","cell":{"col":1,"row":1},"state":"barrier"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	assert.Equal(t, domain.StateBarrier, decodeSnapshot(t, data).StateAt(domain.Coord{Col: 1, Row: 1}))

	resp, data = do(t, http.MethodPost, srv.URL+"/sessions/s1/step?n=100", "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	snap = decodeSnapshot(t, data)
	assert.Equal(t, domain.StatusPathDone, snap.Status)
	assert.Len(t, snap.Path, 5)

	resp, data = do(t, http.MethodGet, srv.URL+"/sessions/s1/template", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "START 1 1\n1 # 1\n1 1 END\n", string(data))

	resp, data = do(t, http.MethodGet, srv.URL+"/sessions", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"sessions":["s1"]}`, string(data))

	resp, _ = do(t, http.MethodDelete, srv.URL+"/sessions/s1", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = do(t, http.MethodGet, srv.URL+"/sessions/s1", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_CreateFromLibrary(t *testing.T) {
	srv := newTestServer(t)

	resp, data := do(t, http.MethodPost, srv.URL+"/sessions", `{"id":"lib","template_id":"corridor"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))
	snap := decodeSnapshot(t, data)
	assert.Equal(t, domain.AlgorithmAStar, snap.Algorithm)
	assert.Equal(t, 4, snap.Columns)

	resp, data = do(t, http.MethodPost, srv.URL+"/sessions", `{"id":"blank","algorithm":"dfs"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))
	snap = decodeSnapshot(t, data)
	assert.Equal(t, domain.AlgorithmDFS, snap.Algorithm)
	assert.Equal(t, 4, snap.Columns, "blank grids use the manager default size")
	assert.Equal(t, 3, snap.Rows)
}

func TestServer_Errors(t *testing.T) {
	srv := newTestServer(t)
	_, _ = do(t, http.MethodPost, srv.URL+"/sessions", `{"id":"s"}`)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"duplicate session", http.MethodPost, "/sessions", `{"id":"s"}`, http.StatusConflict},
		{"bad json", http.MethodPost, "/sessions", `{`, http.StatusBadRequest},
		{"bad layout", http.MethodPost, "/sessions", `{"id":"x","layout":"START\n"}`, http.StatusBadRequest},
		{"unknown template", http.MethodPost, "/sessions", `{"id":"x","template_id":"nope"}`, http.StatusNotFound},
		{"unknown session", http.MethodPost, "/sessions/ghost/step", "", http.StatusNotFound},
		{"bad step count", http.MethodPost, "/sessions/s/step?n=zero", "", http.StatusBadRequest},
		{"unknown command", http.MethodPost, "/sessions/s/commands", `{"type":"fly"}`, http.StatusBadRequest},
		{"out of bounds", http.MethodPost, "/sessions/s/commands", `{"type":"set_weight","cell":{"col":40,"row":0},"weight":3}`, http.StatusBadRequest},
		{"unknown algorithm", http.MethodPost, "/sessions/s/commands", `{"type":"select_algorithm","algorithm":"bogo"}`, http.StatusBadRequest},
		{"unknown library template", http.MethodGet, "/templates/nope", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, data := do(t, tt.method, srv.URL+tt.path, tt.body)
			assert.Equal(t, tt.want, resp.StatusCode, string(data))
		})
	}
}

func TestServer_Templates(t *testing.T) {
	srv := newTestServer(t)

	resp, data := do(t, http.MethodGet, srv.URL+"/templates", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"templates":["corridor"]}`, string(data))

	resp, data = do(t, http.MethodGet, srv.URL+"/templates/corridor", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var tmpl domain.Template
	require.NoError(t, json.Unmarshal(data, &tmpl))
	assert.Equal(t, "Corridor", tmpl.Title)
}

func TestServer_TemplatesFromStore(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.Save(ctx, &domain.Template{ID: "mine", Algorithm: domain.AlgorithmDijkstra, Layout: "START 3 END\n"}))
	require.NoError(t, store.Save(ctx, &domain.Template{ID: domain.CheckpointID("old"), Layout: "START END\n"}))
	require.NoError(t, store.Save(ctx, &domain.Template{ID: "corridor", Title: "Saved corridor", Layout: "START END\n"}))

	srv := newTestServer(t, WithTemplateStore(store))

	resp, data := do(t, http.MethodGet, srv.URL+"/templates", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"templates":["corridor","mine"]}`, string(data))

	resp, data = do(t, http.MethodGet, srv.URL+"/templates/corridor", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var tmpl domain.Template
	require.NoError(t, json.Unmarshal(data, &tmpl))
	assert.Equal(t, "Saved corridor", tmpl.Title, "the store shadows the library")

	resp, data = do(t, http.MethodPost, srv.URL+"/sessions", `{"id":"s","template_id":"mine"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))
	snap := decodeSnapshot(t, data)
	assert.Equal(t, domain.AlgorithmDijkstra, snap.Algorithm)
	assert.Equal(t, 3, snap.Columns)

	resp, _ = do(t, http.MethodGet, srv.URL+"/templates/"+domain.CheckpointID("old"), "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_HealthInfoMetrics(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("# metrics"))
	})
	srv := newTestServer(t, WithMetrics(metrics))

	resp, data := do(t, http.MethodGet, srv.URL+"/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(data))

	resp, data = do(t, http.MethodGet, srv.URL+"/info", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), `"app":"stepgrid-http"`)

	resp, data = do(t, http.MethodGet, srv.URL+"/metrics", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "# metrics", string(data))
}

func TestSubscribeEvents_Session(t *testing.T) {
	srv := newTestServer(t)
	_, _ = do(t, http.MethodPost, srv.URL+"/sessions", `{"id":"live","layout":"START 1 END\n"}`)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/sessions/live/events?watch=status", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			if line := scanner.Text(); strings.HasPrefix(line, "data: ") {
				lines <- strings.TrimPrefix(line, "data: ")
			}
		}
		close(lines)
	}()

	assert.Equal(t, "connected", <-lines)

	var initial domain.SnapshotDiff
	require.NoError(t, json.Unmarshal([]byte(<-lines), &initial))
	assert.Len(t, initial.Cells, 3)

	_, _ = do(t, http.MethodPost, srv.URL+"/sessions/live/step?n=10", "")

	var statuses []domain.Status
	for len(statuses) < 3 {
		var diff domain.SnapshotDiff
		require.NoError(t, json.Unmarshal([]byte(<-lines), &diff))
		require.NotNil(t, diff.Status, "watch=status filters out diffs without a status change")
		statuses = append(statuses, *diff.Status)
	}
	assert.Equal(t, []domain.Status{domain.StatusRunning, domain.StatusGoalFound, domain.StatusPathDone}, statuses)

	_, _ = do(t, http.MethodDelete, srv.URL+"/sessions/live", "")
	assert.Equal(t, "live", <-lines, "the closed event carries the session id")
}

func TestMatches(t *testing.T) {
	running := domain.StatusRunning
	diff := &domain.SnapshotDiff{Status: &running}

	assert.True(t, matches(diff, nil))
	assert.True(t, matches(diff, []string{"cells", " status"}))
	assert.False(t, matches(diff, []string{"cells"}))
	assert.True(t, matches(&domain.SnapshotDiff{Resized: true}, []string{"cells"}))
}
