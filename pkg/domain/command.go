package domain

import "fmt"

// CommandType names an engine mutation that remote callers can request.
type CommandType string

const (
	CommandReset           CommandType = "reset"
	CommandSelectAlgorithm CommandType = "select_algorithm"
	CommandToggleCell      CommandType = "toggle_cell"
	CommandSetWeight       CommandType = "set_weight"
	CommandIncreaseWeight  CommandType = "increase_weight"
	CommandDecreaseWeight  CommandType = "decrease_weight"
	CommandClear           CommandType = "clear"
	CommandRandomize       CommandType = "randomize"
	CommandLoadTemplate    CommandType = "load_template"
)

// Command is the serialized form of one engine mutation.
// Only the fields relevant to Type are read.
type Command struct {
	Type      CommandType       `json:"type"`
	Algorithm string            `json:"algorithm,omitempty"`
	Cell      *Coord            `json:"cell,omitempty"`
	State     CellState         `json:"state,omitempty"`
	Weight    int               `json:"weight,omitempty"`
	Amount    int               `json:"amount,omitempty"`
	Randomize *RandomizeOptions `json:"randomize,omitempty"`
	Layout    string            `json:"layout,omitempty"`
}

// Validate checks that the fields required by Type are present.
func (c Command) Validate() error {
	switch c.Type {
	case CommandReset, CommandClear, CommandRandomize:
		return nil
	case CommandSelectAlgorithm:
		_, err := ParseAlgorithm(c.Algorithm)
		return err
	case CommandToggleCell, CommandSetWeight, CommandIncreaseWeight, CommandDecreaseWeight:
		if c.Cell == nil {
			return fmt.Errorf("%w: %s requires a cell", ErrInvalidCommand, c.Type)
		}
		return nil
	case CommandLoadTemplate:
		if c.Layout == "" {
			return fmt.Errorf("%w: %s requires a layout", ErrInvalidCommand, c.Type)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidCommand, c.Type)
	}
}
