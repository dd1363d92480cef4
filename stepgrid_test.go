package stepgrid_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/stepgrid"
	"github.com/aretw0/stepgrid/pkg/adapters/memory"
	"github.com/aretw0/stepgrid/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const corridor = "START 1 1 END\n"

func TestNew_InvalidTemplate(t *testing.T) {
	_, err := stepgrid.New([]byte("START 1\n1\n"))
	assert.ErrorIs(t, err, domain.ErrInvalidTemplate)

	_, err = stepgrid.New([]byte(corridor), stepgrid.WithAlgorithm("teleport"))
	assert.ErrorIs(t, err, domain.ErrUnknownAlgorithm)
}

func TestNewBlank(t *testing.T) {
	eng, err := stepgrid.NewBlank(4, 3, stepgrid.WithAlgorithm(domain.AlgorithmAStar))
	require.NoError(t, err)

	assert.Equal(t, 4, eng.Columns())
	assert.Equal(t, 3, eng.Rows())
	assert.Equal(t, domain.AlgorithmAStar, eng.Algorithm())
	assert.Equal(t, "START 1 1 1\n1 1 1 1\n1 1 1 END\n", string(eng.Template()))

	assert.Equal(t, domain.StatusPathDone, eng.Run(0))
	assert.Len(t, eng.Path(), 6)
	assert.Equal(t, 5, eng.PathCost())
}

func TestEngine_FacadeDelegates(t *testing.T) {
	var statuses []domain.Status
	eng, err := stepgrid.New([]byte(corridor), stepgrid.WithLifecycleHooks(domain.LifecycleHooks{
		OnStatusChange: func(e *domain.StatusEvent) { statuses = append(statuses, e.To) },
	}))
	require.NoError(t, err)

	assert.Equal(t, domain.StatusRunning, eng.Step())
	cur, ok := eng.Current()
	require.True(t, ok)
	assert.Equal(t, domain.Coord{}, cur)

	assert.Equal(t, domain.StatusPathDone, eng.Run(0))
	assert.True(t, eng.IsDone())
	assert.True(t, eng.PathFound())
	assert.Equal(t, 3, eng.PathCost())
	assert.Equal(t, []domain.Status{domain.StatusRunning, domain.StatusGoalFound, domain.StatusPathDone}, statuses)

	state, err := eng.CellState(domain.Coord{Col: 1})
	require.NoError(t, err)
	assert.Equal(t, domain.StatePathElement, state)

	require.NoError(t, eng.ToggleCell(domain.Coord{Col: 2}, domain.StateBarrier))
	assert.Equal(t, domain.StatusIdle, eng.Status(), "editing a finished grid resets it")
	assert.Equal(t, domain.StatusExhausted, eng.Run(0))
}

func TestFromTemplate_AlgorithmPrecedence(t *testing.T) {
	tmpl := &domain.Template{ID: "c", Algorithm: domain.AlgorithmDijkstra, Layout: corridor}

	eng, err := stepgrid.FromTemplate(tmpl)
	require.NoError(t, err)
	assert.Equal(t, domain.AlgorithmDijkstra, eng.Algorithm())
	assert.Equal(t, "c", eng.Name)

	eng, err = stepgrid.FromTemplate(tmpl, stepgrid.WithAlgorithm(domain.AlgorithmDFS))
	require.NoError(t, err)
	assert.Equal(t, domain.AlgorithmDFS, eng.Algorithm())
}

func TestLoad_WithLibrary(t *testing.T) {
	lib, err := memory.NewFromTemplates(
		&domain.Template{ID: "corridor", Algorithm: domain.AlgorithmAStar, Layout: corridor},
		&domain.Template{ID: "wall", Layout: "START # END\n"},
	)
	require.NoError(t, err)
	ctx := context.Background()

	eng, err := stepgrid.Load(ctx, "", "corridor", stepgrid.WithLibrary(lib))
	require.NoError(t, err)
	assert.Equal(t, domain.AlgorithmAStar, eng.Algorithm())

	ids, err := eng.Templates(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"corridor", "wall"}, ids)

	eng.Run(0)
	require.NoError(t, eng.LoadFromLibrary(ctx, "wall"))
	assert.Equal(t, domain.StatusIdle, eng.Status())
	assert.Equal(t, "START # END\n", string(eng.Template()))
	assert.Equal(t, domain.AlgorithmAStar, eng.Algorithm(), "a template without algorithm keeps the current one")

	err = eng.LoadFromLibrary(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrTemplateNotFound)
	assert.Equal(t, "START # END\n", string(eng.Template()))

	_, err = stepgrid.Load(ctx, "", "missing", stepgrid.WithLibrary(lib))
	assert.ErrorIs(t, err, domain.ErrTemplateNotFound)
}

func TestLoad_DefaultsToLoam(t *testing.T) {
	dir := t.TempDir()
	doc := "---\ntitle: Corridor\nalgorithm: bfs\n---\nSTART 1 1 END\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "corridor.md"), []byte(doc), 0o644))

	eng, err := stepgrid.Load(context.Background(), dir, "corridor")
	require.NoError(t, err)
	assert.Equal(t, "corridor", eng.Name)
	assert.NotNil(t, eng.Library())
	assert.Equal(t, corridor, string(eng.Template()))

	_, err = stepgrid.Load(context.Background(), "", "corridor")
	assert.Error(t, err)
}

func TestEngine_NoLibrary(t *testing.T) {
	eng, err := stepgrid.New([]byte(corridor))
	require.NoError(t, err)

	assert.Error(t, eng.LoadFromLibrary(context.Background(), "x"))
	_, err = eng.Templates(context.Background())
	assert.Error(t, err)
}
