package domain

import (
	"fmt"
	"strings"
	"time"
)

// Template is a named grid layout as kept by template stores and libraries.
// Layout holds the Encode form of the grid.
type Template struct {
	ID          string    `json:"id"`
	Title       string    `json:"title,omitempty"`
	Description string    `json:"description,omitempty"`
	Algorithm   Algorithm `json:"algorithm,omitempty"`
	Layout      string    `json:"layout"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewTemplate captures the persistent part of g under id.
func NewTemplate(id string, g *Grid) *Template {
	return &Template{
		ID:        id,
		Layout:    string(g.Encode()),
		UpdatedAt: time.Now().UTC(),
	}
}

// Grid decodes the layout.
func (t *Template) Grid() (*Grid, error) {
	return ParseTemplate([]byte(t.Layout))
}

// Validate checks the id and that the layout decodes.
func (t *Template) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidTemplate)
	}
	if _, err := t.Grid(); err != nil {
		return fmt.Errorf("template %q: %w", t.ID, err)
	}
	if t.Algorithm != "" {
		if _, err := ParseAlgorithm(string(t.Algorithm)); err != nil {
			return fmt.Errorf("template %q: %w", t.ID, err)
		}
	}
	return nil
}

// CheckpointPrefix namespaces session checkpoints inside a template store,
// so saved templates and sessions never share a key.
const CheckpointPrefix = "session."

// CheckpointID is the store key of the checkpoint of a session.
func CheckpointID(sessionID string) string {
	return CheckpointPrefix + sessionID
}

// IsCheckpointID reports whether a store key belongs to a session checkpoint.
func IsCheckpointID(id string) bool {
	return strings.HasPrefix(id, CheckpointPrefix)
}
