package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidTemplate is returned when a grid encoding is malformed or inconsistent.
var ErrInvalidTemplate = errors.New("invalid template")

// ErrInvalidPlacement is returned when START or END would land on the other endpoint or a barrier.
var ErrInvalidPlacement = errors.New("invalid placement")

// ErrOutOfBounds is returned when a coordinate lies outside the grid.
var ErrOutOfBounds = errors.New("coordinate out of bounds")

// ErrInvalidWeight is returned when a weight falls outside [MinWeight, MaxWeight].
var ErrInvalidWeight = errors.New("invalid weight")

// ErrUnknownAlgorithm is returned when an algorithm name cannot be resolved.
var ErrUnknownAlgorithm = errors.New("unknown algorithm")

// ErrTemplateNotFound is returned when a template name cannot be found in a store or library.
var ErrTemplateNotFound = errors.New("template not found")

// ErrSessionNotFound is returned when a session ID cannot be found.
var ErrSessionNotFound = errors.New("session not found")

// TemplateError pinpoints where a template failed to parse.
// Line and Column are 1-based; Column is 0 when the problem spans a whole line.
type TemplateError struct {
	Line   int
	Column int
	Reason string
}

func (e *TemplateError) Error() string {
	switch {
	case e.Line == 0:
		return fmt.Sprintf("invalid template: %s", e.Reason)
	case e.Column == 0:
		return fmt.Sprintf("invalid template: line %d: %s", e.Line, e.Reason)
	default:
		return fmt.Sprintf("invalid template: line %d, column %d: %s", e.Line, e.Column, e.Reason)
	}
}

// Unwrap lets errors.Is match ErrInvalidTemplate.
func (e *TemplateError) Unwrap() error {
	return ErrInvalidTemplate
}

// ErrSessionExists is returned when creating a session under an ID already in use.
var ErrSessionExists = errors.New("session already exists")

// ErrInvalidCommand is returned when a command is missing the fields its type requires.
var ErrInvalidCommand = errors.New("invalid command")
