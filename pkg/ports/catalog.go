package ports

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/aretw0/stepgrid/pkg/domain"
)

// Catalog resolves template ids against a store first, then a library.
// Session checkpoints kept in the store are not templates and are never returned.
type Catalog struct {
	Store   TemplateStore
	Library TemplateLoader
}

// NewCatalog combines store and library. It returns nil when both are nil.
func NewCatalog(store TemplateStore, library TemplateLoader) TemplateLoader {
	if store == nil && library == nil {
		return nil
	}
	return &Catalog{Store: store, Library: library}
}

// Load implements TemplateLoader.
func (c *Catalog) Load(ctx context.Context, id string) (*domain.Template, error) {
	if c.Store != nil && !domain.IsCheckpointID(id) {
		tmpl, err := c.Store.Load(ctx, id)
		if err == nil {
			return tmpl, nil
		}
		if !errors.Is(err, domain.ErrTemplateNotFound) {
			return nil, err
		}
	}
	if c.Library != nil {
		return c.Library.Load(ctx, id)
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrTemplateNotFound, id)
}

// List implements TemplateLoader. Ids present in both sources appear once.
func (c *Catalog) List(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	if c.Store != nil {
		ids, err := c.Store.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("store: %w", err)
		}
		for _, id := range ids {
			if !domain.IsCheckpointID(id) {
				seen[id] = struct{}{}
			}
		}
	}
	if c.Library != nil {
		ids, err := c.Library.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("library: %w", err)
		}
		for _, id := range ids {
			seen[id] = struct{}{}
		}
	}

	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}
