package cli

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/aretw0/stepgrid"
	"github.com/aretw0/stepgrid/internal/config"
	"github.com/aretw0/stepgrid/pkg/domain"
	"github.com/aretw0/stepgrid/pkg/ports"
)

// Template sources.
const (
	SourceLibrary = "library"
	SourceStore   = "store"
)

// TemplateEntry is one row of the templates listing.
type TemplateEntry struct {
	ID     string
	Source string
}

// ListTemplates merges library and store ids. Either may be nil.
// Session checkpoints in the store are skipped.
func ListTemplates(ctx context.Context, library ports.TemplateLoader, store ports.TemplateStore) ([]TemplateEntry, error) {
	var entries []TemplateEntry
	if library != nil {
		ids, err := library.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("library: %w", err)
		}
		for _, id := range ids {
			entries = append(entries, TemplateEntry{ID: id, Source: SourceLibrary})
		}
	}
	if store != nil {
		ids, err := store.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("store: %w", err)
		}
		for _, id := range ids {
			if domain.IsCheckpointID(id) {
				continue
			}
			entries = append(entries, TemplateEntry{ID: id, Source: SourceStore})
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].ID != entries[j].ID {
			return entries[i].ID < entries[j].ID
		}
		return entries[i].Source < entries[j].Source
	})
	return entries, nil
}

// FindTemplate looks id up in the store first, then in the library.
func FindTemplate(ctx context.Context, id string, library ports.TemplateLoader, store ports.TemplateStore) (*domain.Template, error) {
	catalog := ports.NewCatalog(store, library)
	if catalog == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrTemplateNotFound, id)
	}
	return catalog.Load(ctx, id)
}

// SaveTemplate persists tmpl in store. Ids reserved for session checkpoints are refused.
func SaveTemplate(ctx context.Context, store ports.TemplateStore, tmpl *domain.Template) error {
	if domain.IsCheckpointID(tmpl.ID) {
		return fmt.Errorf("%w: id %q uses the reserved prefix %q", domain.ErrInvalidTemplate, tmpl.ID, domain.CheckpointPrefix)
	}
	return store.Save(ctx, tmpl)
}

// ImportTemplate stores the layout file at path under id.
func ImportTemplate(ctx context.Context, store ports.TemplateStore, id, path, algorithm string) (*domain.Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template: %w", err)
	}
	tmpl := &domain.Template{
		ID:        id,
		Layout:    string(data),
		UpdatedAt: time.Now().UTC(),
	}
	if algorithm != "" {
		algo, err := domain.ParseAlgorithm(algorithm)
		if err != nil {
			return nil, err
		}
		tmpl.Algorithm = algo
	}
	if err := SaveTemplate(ctx, store, tmpl); err != nil {
		return nil, err
	}
	return tmpl, nil
}

// RandomTemplate generates a randomized grid of the configured size.
func RandomTemplate(cfg config.Config, id string) (*domain.Template, error) {
	opts := []stepgrid.Option{stepgrid.WithAlgorithm(cfg.Algorithm())}
	if cfg.Grid.Seed != 0 {
		opts = append(opts, stepgrid.WithSeed(cfg.Grid.Seed))
	}
	engine, err := stepgrid.NewBlank(cfg.Grid.Columns, cfg.Grid.Rows, opts...)
	if err != nil {
		return nil, err
	}
	engine.Randomize(cfg.Randomize())

	return &domain.Template{
		ID:        id,
		Algorithm: engine.Algorithm(),
		Layout:    string(engine.Template()),
		UpdatedAt: time.Now().UTC(),
	}, nil
}
