package stepgrid

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/stepgrid/internal/logging"
	"github.com/aretw0/stepgrid/internal/runtime"
	loamAdapter "github.com/aretw0/stepgrid/pkg/adapters/loam"
	"github.com/aretw0/stepgrid/pkg/domain"
	"github.com/aretw0/stepgrid/pkg/ports"
)

// Version is the library version reported by the CLI and the servers.
const Version = "0.4.0"

// Engine is the high-level entry point for the stepgrid library.
// It wraps the internal runtime and provides a simplified API for consumers.
//
// Like the runtime it wraps, an Engine is not safe for concurrent use.
// pkg/session serializes access for servers.
type Engine struct {
	runtime     *runtime.Engine
	library     ports.TemplateLoader
	runtimeOpts []runtime.EngineOption
	hooks       domain.LifecycleHooks
	logger      *slog.Logger
	algorithm   domain.Algorithm
	Name        string
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithAlgorithm selects the initial algorithm, overriding the one a template names.
func WithAlgorithm(a domain.Algorithm) Option {
	return func(e *Engine) {
		e.algorithm = a
	}
}

// WithSeed makes Randomize deterministic.
func WithSeed(seed uint64) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithSeed(seed))
	}
}

// WithLibrary injects a template library, bypassing the default Loam initialization in Load.
func WithLibrary(l ports.TemplateLoader) Option {
	return func(e *Engine) {
		e.library = l
	}
}

// New parses a template and returns an idle engine over it.
func New(template []byte, opts ...Option) (*Engine, error) {
	g, err := domain.ParseTemplate(template)
	if err != nil {
		return nil, err
	}
	return newEngine(g, "", opts...)
}

// NewBlank returns an idle engine over a cols x rows grid of weight-1 cells,
// START in the top-left corner and END in the bottom-right one.
func NewBlank(cols, rows int, opts ...Option) (*Engine, error) {
	g, err := domain.NewGrid(cols, rows, domain.Coord{}, domain.Coord{Col: cols - 1, Row: rows - 1})
	if err != nil {
		return nil, err
	}
	return newEngine(g, "", opts...)
}

// FromTemplate returns an idle engine over a stored template.
// The template's algorithm applies unless WithAlgorithm overrides it.
func FromTemplate(tmpl *domain.Template, opts ...Option) (*Engine, error) {
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	g, err := tmpl.Grid()
	if err != nil {
		return nil, err
	}
	if tmpl.Algorithm != "" {
		opts = append([]Option{WithAlgorithm(tmpl.Algorithm)}, opts...)
	}
	return newEngine(g, tmpl.ID, opts...)
}

// Load reads template id from a library and returns an idle engine over it.
// By default the library is a read-only Loam repository at repoPath.
// If WithLibrary is provided, repoPath is ignored.
func Load(ctx context.Context, repoPath, id string, opts ...Option) (*Engine, error) {
	probe := &Engine{}
	for _, opt := range opts {
		opt(probe)
	}

	library := probe.library
	if library == nil {
		if repoPath == "" {
			return nil, fmt.Errorf("repoPath is required when no library is provided")
		}
		l, err := loamAdapter.Open(repoPath)
		if err != nil {
			return nil, err
		}
		library = l
		opts = append(opts, WithLibrary(l))
	}

	tmpl, err := library.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromTemplate(tmpl, opts...)
}

func newEngine(g *domain.Grid, name string, opts ...Option) (*Engine, error) {
	eng := &Engine{Name: name}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.Name != "" {
		eng.logger = eng.logger.With("template", eng.Name)
	}

	runtimeOpts := []runtime.EngineOption{
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithLogger(eng.logger),
	}
	if eng.algorithm != "" {
		runtimeOpts = append(runtimeOpts, runtime.WithAlgorithm(eng.algorithm))
	}
	runtimeOpts = append(runtimeOpts, eng.runtimeOpts...)

	rt, err := runtime.NewEngine(g, runtimeOpts...)
	if err != nil {
		return nil, err
	}
	eng.runtime = rt
	return eng, nil
}

// Step performs one unit of work and returns the resulting status.
// On a terminal status it is a no-op.
func (e *Engine) Step() domain.Status { return e.runtime.Step() }

// Run steps until a terminal status or limit steps (limit <= 0 means no limit).
func (e *Engine) Run(limit int) domain.Status { return e.runtime.Run(limit) }

// Reset clears search tags and returns to idle, keeping layout and weights.
func (e *Engine) Reset() { e.runtime.Reset() }

// SelectAlgorithm switches algorithm and resets.
func (e *Engine) SelectAlgorithm(name string) error { return e.runtime.SelectAlgorithm(name) }

// ToggleCell sets c to one of START, END, BARRIER or DEFAULT.
func (e *Engine) ToggleCell(c domain.Coord, state domain.CellState) error {
	return e.runtime.ToggleCell(c, state)
}

// SetWeight sets the weight of a passable cell.
func (e *Engine) SetWeight(c domain.Coord, w int) error { return e.runtime.SetWeight(c, w) }

// IncreaseWeight raises the weight of c by n, clamped to the maximum.
func (e *Engine) IncreaseWeight(c domain.Coord, n int) error { return e.runtime.IncreaseWeight(c, n) }

// DecreaseWeight lowers the weight of c by n, clamped to the minimum.
func (e *Engine) DecreaseWeight(c domain.Coord, n int) error { return e.runtime.DecreaseWeight(c, n) }

// ClearBarriersAndReset removes every barrier and weight and resets.
func (e *Engine) ClearBarriersAndReset() { e.runtime.ClearBarriersAndReset() }

// Randomize redraws the grid and resets.
func (e *Engine) Randomize(opts domain.RandomizeOptions) { e.runtime.Randomize(opts) }

// LoadTemplate replaces the grid with a parsed template and resets.
// On error the current grid is kept.
func (e *Engine) LoadTemplate(data []byte) error { return e.runtime.LoadTemplate(data) }

// LoadFromLibrary replaces the grid with template id from the configured library.
func (e *Engine) LoadFromLibrary(ctx context.Context, id string) error {
	if e.library == nil {
		return fmt.Errorf("no template library configured")
	}
	tmpl, err := e.library.Load(ctx, id)
	if err != nil {
		return err
	}
	if err := e.runtime.LoadTemplate([]byte(tmpl.Layout)); err != nil {
		return err
	}
	if tmpl.Algorithm != "" {
		return e.runtime.SelectAlgorithm(string(tmpl.Algorithm))
	}
	return nil
}

// Templates lists the ids held by the configured library.
func (e *Engine) Templates(ctx context.Context) ([]string, error) {
	if e.library == nil {
		return nil, fmt.Errorf("no template library configured")
	}
	return e.library.List(ctx)
}

// Template encodes the current layout.
func (e *Engine) Template() []byte { return e.runtime.Template() }

// Status returns the current status.
func (e *Engine) Status() domain.Status { return e.runtime.Status() }

// Algorithm returns the selected algorithm.
func (e *Engine) Algorithm() domain.Algorithm { return e.runtime.Algorithm() }

// Steps returns the number of steps taken since the last reset.
func (e *Engine) Steps() int { return e.runtime.Steps() }

// IsDone reports whether the engine reached a terminal status.
func (e *Engine) IsDone() bool { return e.runtime.IsDone() }

// PathFound reports whether the pass reached END.
func (e *Engine) PathFound() bool { return e.runtime.PathFound() }

// CellState returns the tag of c.
func (e *Engine) CellState(c domain.Coord) (domain.CellState, error) { return e.runtime.CellState(c) }

// Cell returns a copy of the cell at c.
func (e *Engine) Cell(c domain.Coord) (domain.Cell, error) { return e.runtime.Cell(c) }

// Path returns the START to END path once found, or nil.
func (e *Engine) Path() []domain.Coord { return e.runtime.Path() }

// PathCost returns the summed weight of the path, excluding START.
func (e *Engine) PathCost() int { return e.runtime.PathCost() }

// Snapshot copies everything a renderer needs.
func (e *Engine) Snapshot() *domain.Snapshot { return e.runtime.Snapshot() }

// Library returns the template library, or nil.
func (e *Engine) Library() ports.TemplateLoader { return e.library }

// Columns returns the grid width.
func (e *Engine) Columns() int { return e.runtime.Columns() }

// Rows returns the grid height.
func (e *Engine) Rows() int { return e.runtime.Rows() }

// Current returns the cell considered by the latest step.
func (e *Engine) Current() (domain.Coord, bool) { return e.runtime.Current() }
