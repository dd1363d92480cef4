package ports

import (
	"context"

	"github.com/aretw0/stepgrid/pkg/domain"
)

// TemplateLoader defines how named templates are retrieved.
type TemplateLoader interface {
	// Load retrieves a template by ID.
	// Returns domain.ErrTemplateNotFound if the template does not exist.
	Load(ctx context.Context, id string) (*domain.Template, error)

	// List returns the IDs of every available template.
	List(ctx context.Context) ([]string, error)
}

// TemplateStore defines the interface for persisting templates.
// Session managers also use it to checkpoint the layout of each session.
type TemplateStore interface {
	TemplateLoader

	// Save persists the template under its ID, replacing any previous version.
	Save(ctx context.Context, tmpl *domain.Template) error

	// Delete removes the template. Deleting a missing ID is not an error.
	Delete(ctx context.Context, id string) error
}
