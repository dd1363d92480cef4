package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/stepgrid/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunTemplateStoreContract runs a suite of tests to verify that a TemplateStore implementation
// adheres to the defined interface contract.
func RunTemplateStoreContract(t *testing.T, store TemplateStore) {
	ctx := context.Background()
	id := "contract-test-" + time.Now().Format("20060102150405")

	newTemplate := func(id, layout string) *domain.Template {
		return &domain.Template{
			ID:        id,
			Title:     "Contract " + id,
			Algorithm: domain.AlgorithmAStar,
			Layout:    layout,
			UpdatedAt: time.Now().UTC().Truncate(time.Second),
		}
	}

	t.Run("Save and Load", func(t *testing.T) {
		tmpl := newTemplate(id, "START 1 #\n7 255 END\n")

		err := store.Save(ctx, tmpl)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, tmpl.ID, loaded.ID)
		assert.Equal(t, tmpl.Title, loaded.Title)
		assert.Equal(t, tmpl.Algorithm, loaded.Algorithm)
		assert.Equal(t, tmpl.Layout, loaded.Layout, "layout must round-trip byte for byte")
		assert.True(t, tmpl.UpdatedAt.Equal(loaded.UpdatedAt))
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, newTemplate(id, "START END\n")))

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "START END\n", loaded.Layout)
	})

	t.Run("Save Rejects Invalid", func(t *testing.T) {
		err := store.Save(ctx, newTemplate(id+"-bad", "START START\n"))
		assert.ErrorIs(t, err, domain.ErrInvalidTemplate)

		_, err = store.Load(ctx, id+"-bad")
		assert.ErrorIs(t, err, domain.ErrTemplateNotFound)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+id)
		assert.ErrorIs(t, err, domain.ErrTemplateNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, newTemplate(id, "START END\n")))

		err := store.Delete(ctx, id)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, id)
		assert.ErrorIs(t, err, domain.ErrTemplateNotFound, "Load after Delete should return ErrTemplateNotFound")

		assert.NoError(t, store.Delete(ctx, id), "deleting twice is not an error")
	})

	t.Run("List", func(t *testing.T) {
		id1 := id + "-1"
		id2 := id + "-2"
		require.NoError(t, store.Save(ctx, newTemplate(id1, "START END\n")))
		require.NoError(t, store.Save(ctx, newTemplate(id2, "END START\n")))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}
