package tests

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/stepgrid/pkg/domain"
	"github.com/aretw0/stepgrid/pkg/ports"
)

// TemplateLoaderContractTest is a reusable test suite that verifies if an adapter complies with ports.TemplateLoader.
// setupData maps every template ID the loader holds to its expected layout.
func TemplateLoaderContractTest(t *testing.T, loader ports.TemplateLoader, setupData map[string]string) {
	t.Helper()
	ctx := context.Background()

	t.Run("Load_Success", func(t *testing.T) {
		for id, expected := range setupData {
			tmpl, err := loader.Load(ctx, id)
			if err != nil {
				t.Fatalf("unexpected error loading template %s: %v", id, err)
			}
			if tmpl.ID != id {
				t.Errorf("id mismatch: got %q, want %q", tmpl.ID, id)
			}
			if tmpl.Layout != expected {
				t.Errorf("layout mismatch for %s. got %q, want %q", id, tmpl.Layout, expected)
			}
			if _, err := tmpl.Grid(); err != nil {
				t.Errorf("template %s does not decode: %v", id, err)
			}
		}
	})

	t.Run("Load_NotFound", func(t *testing.T) {
		_, err := loader.Load(ctx, "non-existent-template")
		if !errors.Is(err, domain.ErrTemplateNotFound) {
			t.Errorf("expected ErrTemplateNotFound, got %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		ids, err := loader.List(ctx)
		if err != nil {
			t.Fatalf("unexpected error listing templates: %v", err)
		}

		if len(ids) != len(setupData) {
			t.Errorf("expected %d templates, got %d", len(setupData), len(ids))
		}

		lookup := make(map[string]bool)
		for _, id := range ids {
			lookup[id] = true
		}

		for id := range setupData {
			if !lookup[id] {
				t.Errorf("template %s missing from list", id)
			}
		}
	})
}
