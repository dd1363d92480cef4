package ports

import (
	"context"

	"github.com/aretw0/stepgrid/pkg/domain"
)

// SessionService drives a set of named engines on behalf of remote callers.
// This is the primary interface used by adapters (e.g., HTTP, MCP).
// Every method serializes access to the session it names.
type SessionService interface {
	// Create starts a session from tmpl. A nil tmpl, or one without a layout, creates a blank
	// grid of the default size (using tmpl's algorithm if set).
	// Returns domain.ErrSessionExists if id is taken.
	Create(ctx context.Context, id string, tmpl *domain.Template) (*domain.Snapshot, error)

	// Snapshot returns the current view of the session without advancing it.
	Snapshot(ctx context.Context, id string) (*domain.Snapshot, error)

	// Step advances the session by up to n steps, stopping early at a terminal status.
	Step(ctx context.Context, id string, n int) (*domain.Snapshot, error)

	// Apply runs one command (reset, edit, algorithm change...) against the session.
	Apply(ctx context.Context, id string, cmd domain.Command) (*domain.Snapshot, error)

	// Template exports the persistent layout of the session.
	Template(ctx context.Context, id string) (*domain.Template, error)

	// Delete ends the session and removes its checkpoint.
	Delete(ctx context.Context, id string) error

	// List returns the IDs of every known session.
	List(ctx context.Context) ([]string, error)
}
