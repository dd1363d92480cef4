package stepgrid

import (
	"fmt"

	"github.com/aretw0/stepgrid/pkg/domain"
)

// DefaultRandomizeOptions is applied by a randomize command that carries no options.
var DefaultRandomizeOptions = domain.RandomizeOptions{
	RelocateEndpoints: true,
	BarrierDensity:    0.25,
}

// Apply runs one serialized command against the engine.
func (e *Engine) Apply(cmd domain.Command) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	switch cmd.Type {
	case domain.CommandReset:
		e.Reset()
	case domain.CommandClear:
		e.ClearBarriersAndReset()
	case domain.CommandRandomize:
		opts := DefaultRandomizeOptions
		if cmd.Randomize != nil {
			opts = *cmd.Randomize
		}
		if opts.BarrierDensity < 0 || opts.BarrierDensity > 1 {
			return fmt.Errorf("%w: barrier density %v outside [0,1]", domain.ErrInvalidCommand, opts.BarrierDensity)
		}
		e.Randomize(opts)
	case domain.CommandSelectAlgorithm:
		return e.SelectAlgorithm(cmd.Algorithm)
	case domain.CommandToggleCell:
		return e.ToggleCell(*cmd.Cell, cmd.State)
	case domain.CommandSetWeight:
		return e.SetWeight(*cmd.Cell, cmd.Weight)
	case domain.CommandIncreaseWeight:
		return e.IncreaseWeight(*cmd.Cell, amount(cmd))
	case domain.CommandDecreaseWeight:
		return e.DecreaseWeight(*cmd.Cell, amount(cmd))
	case domain.CommandLoadTemplate:
		return e.LoadTemplate([]byte(cmd.Layout))
	}
	return nil
}

func amount(cmd domain.Command) int {
	if cmd.Amount == 0 {
		return 1
	}
	return cmd.Amount
}
