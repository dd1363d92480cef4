package domain

import (
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventStep         EventType = "step"
	EventStatusChange EventType = "status_change"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Algorithm Algorithm `json:"algorithm"`
}

// StepEvent is emitted after every Step that did some work.
type StepEvent struct {
	EventBase
	Step         int    `json:"step"`
	Status       Status `json:"status"`
	Current      *Coord `json:"current,omitempty"`
	FrontierSize int    `json:"frontier_size"`
}

// StatusEvent is emitted whenever the engine status changes.
type StatusEvent struct {
	EventBase
	From       Status `json:"from"`
	To         Status `json:"to"`
	Steps      int    `json:"steps"`
	PathLength int    `json:"path_length,omitempty"`
	PathCost   int    `json:"path_cost,omitempty"`
}

// LifecycleHooks defines callbacks for engine observability.
// Hooks run synchronously inside Step and must not call back into the engine.
type LifecycleHooks struct {
	OnStep         func(*StepEvent)
	OnStatusChange func(*StatusEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnStep: func(e *StepEvent) {
			if h.OnStep != nil {
				h.OnStep(e)
			}
			if other.OnStep != nil {
				other.OnStep(e)
			}
		},
		OnStatusChange: func(e *StatusEvent) {
			if h.OnStatusChange != nil {
				h.OnStatusChange(e)
			}
			if other.OnStatusChange != nil {
				other.OnStatusChange(e)
			}
		},
	}
}
