package runtime

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/aretw0/stepgrid/internal/logging"
	"github.com/aretw0/stepgrid/internal/search"
	"github.com/aretw0/stepgrid/pkg/domain"
)

// Engine is the step-driven search state machine over one grid.
// It is not safe for concurrent use; callers serialize every call.
type Engine struct {
	grid      *domain.Grid
	algorithm domain.Algorithm
	status    domain.Status
	steps     int

	pass *search.Pass
	path *search.Reconstructor

	hooks  domain.LifecycleHooks
	logger *slog.Logger
	rng    *rand.Rand
	clock  func() time.Time
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the structured logger. Transitions are logged at Debug.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithAlgorithm selects the initial algorithm (default BFS).
func WithAlgorithm(a domain.Algorithm) EngineOption {
	return func(e *Engine) {
		e.algorithm = a
	}
}

// WithRand sets the random source used by Randomize.
func WithRand(rng *rand.Rand) EngineOption {
	return func(e *Engine) {
		if rng != nil {
			e.rng = rng
		}
	}
}

// WithSeed seeds the random source used by Randomize deterministically.
func WithSeed(seed uint64) EngineOption {
	return func(e *Engine) {
		e.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// WithClock overrides the event timestamp source.
func WithClock(clock func() time.Time) EngineOption {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// NewEngine creates an idle engine over g. The engine takes ownership of g.
func NewEngine(g *domain.Grid, opts ...EngineOption) (*Engine, error) {
	if g == nil {
		return nil, fmt.Errorf("%w: nil grid", domain.ErrInvalidTemplate)
	}
	e := &Engine{
		grid:      g,
		algorithm: domain.AlgorithmBFS,
		status:    domain.StatusIdle,
		logger:    logging.NewNop(),
		rng:       rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	a, err := domain.ParseAlgorithm(string(e.algorithm))
	if err != nil {
		return nil, err
	}
	e.algorithm = a
	return e, nil
}

// Step performs one unit of work and returns the resulting status.
//
//   - IDLE: seed the frontier with START and expand it (enters RUNNING).
//   - RUNNING: pop and expand one frontier entry.
//   - GOAL_FOUND: tag one more cell of the path.
//   - PATH_DONE, EXHAUSTED: no-op.
func (e *Engine) Step() domain.Status {
	if e.status.Terminal() {
		return e.status
	}
	if e.grid.Stale() {
		e.grid.RefreshNeighbors()
	}

	if e.status == domain.StatusIdle {
		pass, err := search.NewPass(e.grid, e.algorithm)
		if err != nil {
			// Algorithm was validated on selection.
			e.logger.Error("cannot start pass", "algorithm", e.algorithm, "err", err)
			return e.status
		}
		e.pass = pass
	}

	e.steps++
	switch e.status {
	case domain.StatusIdle:
		e.setStatus(domain.StatusRunning)
		e.searchStep()
	case domain.StatusRunning:
		e.searchStep()
	case domain.StatusGoalFound:
		e.pathStep()
	}
	e.emitStep()
	return e.status
}

func (e *Engine) searchStep() {
	switch e.pass.Step() {
	case search.GoalReached:
		e.setStatus(domain.StatusGoalFound)
	case search.Exhausted:
		e.setStatus(domain.StatusExhausted)
	}
}

func (e *Engine) pathStep() {
	if e.path == nil {
		e.pass.CloseCurrent()
		e.path = search.NewReconstructor(e.pass)
	}
	if e.path.Step() {
		e.setStatus(domain.StatusPathDone)
	}
}

// Run steps until the engine is done or limit steps were taken (limit <= 0 means no limit).
// It returns the final status.
func (e *Engine) Run(limit int) domain.Status {
	for i := 0; !e.IsDone() && (limit <= 0 || i < limit); i++ {
		e.Step()
	}
	return e.status
}

// Reset discards the pass, clears every search tag and returns to IDLE.
func (e *Engine) Reset() {
	e.grid.ClearSearch()
	e.pass = nil
	e.path = nil
	e.steps = 0
	e.setStatus(domain.StatusIdle)
}

// SelectAlgorithm switches algorithm and resets, even mid-pass.
func (e *Engine) SelectAlgorithm(name string) error {
	a, err := domain.ParseAlgorithm(name)
	if err != nil {
		return err
	}
	e.algorithm = a
	e.Reset()
	return nil
}

// ToggleCell sets the tag of c to state. BARRIER and DEFAULT are no-ops on START and END;
// START and END move the endpoint. A mutation resets a pass in progress; a rejected or
// no-op toggle leaves it running.
func (e *Engine) ToggleCell(c domain.Coord, state domain.CellState) error {
	changes, err := e.toggleChanges(c, state)
	if err != nil || !changes {
		return err
	}
	e.resetIfActive()

	switch state {
	case domain.StateBarrier:
		return e.grid.SetBarrier(c)
	case domain.StateDefault:
		return e.grid.SetDefault(c)
	case domain.StateStart:
		return e.grid.SetStart(c)
	default:
		return e.grid.SetEnd(c)
	}
}

// toggleChanges validates a toggle and reports whether it would alter the layout.
func (e *Engine) toggleChanges(c domain.Coord, state domain.CellState) (bool, error) {
	cell, err := e.grid.Cell(c)
	if err != nil {
		return false, err
	}
	current := cell.State()

	switch state {
	case domain.StateBarrier:
		return current != domain.StateBarrier && !current.IsEndpoint(), nil
	case domain.StateDefault:
		return current == domain.StateBarrier, nil
	case domain.StateStart, domain.StateEnd:
		switch {
		case current == state:
			return false, nil
		case current.IsEndpoint():
			return false, fmt.Errorf("%w: %s already holds %s", domain.ErrInvalidPlacement, c, current)
		case current == domain.StateBarrier:
			return false, fmt.Errorf("%w: %s is a barrier", domain.ErrInvalidPlacement, c)
		}
		return true, nil
	}
	return false, fmt.Errorf("%w: %s is set by the search only", domain.ErrInvalidPlacement, state)
}

// SetWeight sets the cost to enter c. No-op on START and END.
func (e *Engine) SetWeight(c domain.Coord, w int) error {
	cell, err := e.grid.Cell(c)
	if err != nil {
		return err
	}
	if w < domain.MinWeight || w > domain.MaxWeight {
		return fmt.Errorf("%w: %d", domain.ErrInvalidWeight, w)
	}
	if cell.State().IsEndpoint() || cell.Weight() == w {
		return nil
	}
	e.resetIfActive()
	return e.grid.SetWeight(c, w)
}

// IncreaseWeight raises the weight of c by n, clamped to MaxWeight.
func (e *Engine) IncreaseWeight(c domain.Coord, n int) error {
	return e.adjustWeight(c, n, 1)
}

// DecreaseWeight lowers the weight of c by n, clamped to MinWeight.
func (e *Engine) DecreaseWeight(c domain.Coord, n int) error {
	return e.adjustWeight(c, n, -1)
}

func (e *Engine) adjustWeight(c domain.Coord, n, sign int) error {
	cell, err := e.grid.Cell(c)
	if err != nil {
		return err
	}
	if n < 0 {
		return fmt.Errorf("%w: negative adjustment %d", domain.ErrInvalidWeight, n)
	}
	return e.SetWeight(c, min(domain.MaxWeight, max(domain.MinWeight, cell.Weight()+sign*n)))
}

// ClearBarriersAndReset resets, removes every barrier and sets every weight back to MinWeight.
func (e *Engine) ClearBarriersAndReset() {
	e.Reset()
	e.grid.ClearAll()
}

// Randomize resets and redraws the grid from the engine's random source.
func (e *Engine) Randomize(opts domain.RandomizeOptions) {
	e.Reset()
	e.grid.Randomize(e.rng, opts)
	e.logger.Debug("grid randomized",
		"relocate_endpoints", opts.RelocateEndpoints,
		"barrier_density", opts.BarrierDensity,
		"random_weights", opts.RandomWeights,
	)
}

// LoadTemplate replaces the grid with the decoded template and resets.
// On error the current grid is kept.
func (e *Engine) LoadTemplate(data []byte) error {
	g, err := domain.ParseTemplate(data)
	if err != nil {
		return err
	}
	e.grid = g
	e.Reset()
	return nil
}

// Template encodes the persistent part of the grid.
func (e *Engine) Template() []byte {
	return e.grid.Encode()
}

func (e *Engine) resetIfActive() {
	if e.status != domain.StatusIdle {
		e.Reset()
	}
}

// Status returns the current lifecycle status.
func (e *Engine) Status() domain.Status { return e.status }

// Algorithm returns the selected algorithm.
func (e *Engine) Algorithm() domain.Algorithm { return e.algorithm }

// Steps counts Step calls that did work since the last reset.
func (e *Engine) Steps() int { return e.steps }

// IsDone reports whether the status is PATH_DONE or EXHAUSTED.
func (e *Engine) IsDone() bool { return e.status.Terminal() }

// PathFound reports whether END was reached, whether or not the path is fully tagged.
func (e *Engine) PathFound() bool {
	return e.status == domain.StatusGoalFound || e.status == domain.StatusPathDone
}

// Columns returns the grid width.
func (e *Engine) Columns() int { return e.grid.Columns() }

// Rows returns the grid height.
func (e *Engine) Rows() int { return e.grid.Rows() }

// CellState returns the tag of c.
func (e *Engine) CellState(c domain.Coord) (domain.CellState, error) {
	cell, err := e.grid.Cell(c)
	if err != nil {
		return 0, err
	}
	return cell.State(), nil
}

// Cell returns a copy of the cell at c.
func (e *Engine) Cell(c domain.Coord) (domain.Cell, error) {
	cell, err := e.grid.Cell(c)
	if err != nil {
		return domain.Cell{}, err
	}
	return *cell, nil
}

// Path returns the START→END path once the goal was reached, nil otherwise.
func (e *Engine) Path() []domain.Coord {
	if !e.PathFound() {
		return nil
	}
	return search.Trace(e.pass)
}

// PathCost sums the weights entered along Path.
func (e *Engine) PathCost() int {
	path := e.Path()
	if path == nil {
		return 0
	}
	return search.Cost(e.grid, path)
}

// Current returns the cell considered by the latest step: the popped cell while
// searching, the latest path cell while reconstructing.
func (e *Engine) Current() (domain.Coord, bool) {
	if e.path != nil {
		if pos, ok := e.path.Position(); ok {
			return pos, true
		}
	}
	if e.pass == nil {
		return domain.Coord{}, false
	}
	return e.pass.Current()
}

// Snapshot copies everything a renderer needs.
func (e *Engine) Snapshot() *domain.Snapshot {
	s := &domain.Snapshot{
		Columns:   e.grid.Columns(),
		Rows:      e.grid.Rows(),
		Algorithm: e.algorithm,
		Status:    e.status,
		Steps:     e.steps,
		Start:     e.grid.Start(),
		End:       e.grid.End(),
		States:    make([]domain.CellState, 0, e.grid.Len()),
		Weights:   make([]int, 0, e.grid.Len()),
	}
	e.grid.Each(func(c *domain.Cell) {
		s.States = append(s.States, c.State())
		s.Weights = append(s.Weights, c.Weight())
	})
	if cur, ok := e.Current(); ok {
		s.Current = &cur
	}
	if e.pass != nil && e.status == domain.StatusRunning {
		s.Frontier = e.pass.Frontier()
	}
	if path := e.Path(); path != nil {
		s.Path = path
		s.PathCost = search.Cost(e.grid, path)
	}
	return s
}

func (e *Engine) setStatus(to domain.Status) {
	from := e.status
	if from == to {
		return
	}
	e.status = to
	e.logger.Debug("status changed", "algorithm", e.algorithm, "from", from, "to", to, "steps", e.steps)

	if e.hooks.OnStatusChange == nil {
		return
	}
	ev := &domain.StatusEvent{
		EventBase: domain.EventBase{Timestamp: e.clock(), Type: domain.EventStatusChange, Algorithm: e.algorithm},
		From:      from,
		To:        to,
		Steps:     e.steps,
	}
	if to == domain.StatusPathDone {
		if path := e.Path(); path != nil {
			ev.PathLength = len(path)
			ev.PathCost = search.Cost(e.grid, path)
		}
	}
	e.hooks.OnStatusChange(ev)
}

func (e *Engine) emitStep() {
	if e.hooks.OnStep == nil {
		return
	}
	ev := &domain.StepEvent{
		EventBase: domain.EventBase{Timestamp: e.clock(), Type: domain.EventStep, Algorithm: e.algorithm},
		Step:      e.steps,
		Status:    e.status,
	}
	if cur, ok := e.Current(); ok {
		ev.Current = &cur
	}
	if e.pass != nil && e.status == domain.StatusRunning {
		ev.FrontierSize = len(e.pass.Frontier())
	}
	e.hooks.OnStep(ev)
}
