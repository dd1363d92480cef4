package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/stepgrid/pkg/adapters/file"
	"github.com/aretw0/stepgrid/pkg/domain"
	"github.com/aretw0/stepgrid/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.TemplateStore = (*file.Store)(nil)

func TestStore_Contract(t *testing.T) {
	ports.RunTemplateStoreContract(t, file.New(t.TempDir()))
}

func TestStore_WritesJSONFile(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &domain.Template{ID: "maze", Layout: "START # END\n"}))

	data, err := os.ReadFile(filepath.Join(dir, "maze.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"layout": "START # END\n"`)

	leftovers, err := filepath.Glob(filepath.Join(dir, "tmp-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers, "temp files are cleaned up after rename")
}

func TestStore_RejectsPathIDs(t *testing.T) {
	store := file.New(t.TempDir())
	ctx := context.Background()

	for _, id := range []string{"../escape", "a/b", ".hidden"} {
		err := store.Save(ctx, &domain.Template{ID: id, Layout: "START END\n"})
		assert.ErrorIs(t, err, domain.ErrInvalidTemplate, id)

		_, err = store.Load(ctx, id)
		assert.ErrorIs(t, err, domain.ErrTemplateNotFound, id)
	}
}

func TestStore_ListMissingDir(t *testing.T) {
	store := file.New(filepath.Join(t.TempDir(), "absent"))

	ids, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestStore_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0o644))

	_, err := file.New(dir).Load(context.Background(), "broken")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrTemplateNotFound)
}
