package stepgrid_test

import (
	"testing"

	"github.com/aretw0/stepgrid"
	"github.com/aretw0/stepgrid/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(col, row int) *domain.Coord { return &domain.Coord{Col: col, Row: row} }

func TestEngine_Apply(t *testing.T) {
	eng, err := stepgrid.New([]byte("START 1 1\n1 1 1\n1 1 END\n"), stepgrid.WithSeed(7))
	require.NoError(t, err)

	cell := func(c *domain.Coord) *domain.Cell {
		got, err := eng.Cell(*c)
		require.NoError(t, err)
		return &got
	}

	require.NoError(t, eng.Apply(domain.Command{Type: domain.CommandSetWeight, Cell: at(1, 1), Weight: 40}))
	assert.Equal(t, 40, cell(at(1, 1)).Weight())

	require.NoError(t, eng.Apply(domain.Command{Type: domain.CommandIncreaseWeight, Cell: at(1, 1)}))
	assert.Equal(t, 41, cell(at(1, 1)).Weight(), "amount defaults to one")

	require.NoError(t, eng.Apply(domain.Command{Type: domain.CommandDecreaseWeight, Cell: at(1, 1), Amount: 100}))
	assert.Equal(t, domain.MinWeight, cell(at(1, 1)).Weight())

	require.NoError(t, eng.Apply(domain.Command{Type: domain.CommandToggleCell, Cell: at(1, 0), State: domain.StateBarrier}))
	assert.Equal(t, domain.StateBarrier, cell(at(1, 0)).State())

	require.NoError(t, eng.Apply(domain.Command{Type: domain.CommandSelectAlgorithm, Algorithm: "ASTAR"}))
	assert.Equal(t, domain.AlgorithmAStar, eng.Algorithm())

	eng.Run(0)
	require.NoError(t, eng.Apply(domain.Command{Type: domain.CommandReset}))
	assert.Equal(t, domain.StatusIdle, eng.Status())

	require.NoError(t, eng.Apply(domain.Command{Type: domain.CommandClear}))
	assert.Equal(t, domain.StateDefault, cell(at(1, 0)).State())

	require.NoError(t, eng.Apply(domain.Command{Type: domain.CommandLoadTemplate, Layout: "END START\n"}))
	assert.Equal(t, "END START\n", string(eng.Template()))

	require.NoError(t, eng.Apply(domain.Command{Type: domain.CommandRandomize}))
	assert.Equal(t, domain.StatusIdle, eng.Status())
}

func TestEngine_ApplyErrors(t *testing.T) {
	eng, err := stepgrid.New([]byte("START 1 END\n"))
	require.NoError(t, err)

	tests := []struct {
		name string
		cmd  domain.Command
		want error
	}{
		{"unknown type", domain.Command{Type: "fly"}, domain.ErrInvalidCommand},
		{"missing cell", domain.Command{Type: domain.CommandToggleCell}, domain.ErrInvalidCommand},
		{"unknown algorithm", domain.Command{Type: domain.CommandSelectAlgorithm, Algorithm: "bogo"}, domain.ErrUnknownAlgorithm},
		{"out of bounds", domain.Command{Type: domain.CommandToggleCell, Cell: at(9, 9), State: domain.StateBarrier}, domain.ErrOutOfBounds},
		{"transient state", domain.Command{Type: domain.CommandToggleCell, Cell: at(1, 0), State: domain.StateClosed}, domain.ErrInvalidPlacement},
		{"weight too high", domain.Command{Type: domain.CommandSetWeight, Cell: at(1, 0), Weight: 256}, domain.ErrInvalidWeight},
		{"negative amount", domain.Command{Type: domain.CommandIncreaseWeight, Cell: at(1, 0), Amount: -2}, domain.ErrInvalidWeight},
		{"bad layout", domain.Command{Type: domain.CommandLoadTemplate, Layout: "START\n"}, domain.ErrInvalidTemplate},
		{"bad density", domain.Command{Type: domain.CommandRandomize, Randomize: &domain.RandomizeOptions{BarrierDensity: 2}}, domain.ErrInvalidCommand},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, eng.Apply(tt.cmd), tt.want)
		})
	}
	assert.Equal(t, "START 1 END\n", string(eng.Template()), "failed commands leave the grid alone")
}
