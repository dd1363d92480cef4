package domain

// Status is the position of the engine in its pass lifecycle.
type Status string

const (
	StatusIdle      Status = "idle"       // No pass started since the last reset
	StatusRunning   Status = "running"    // Frontier being expanded
	StatusGoalFound Status = "goal_found" // END reached, path not yet walked
	StatusPathDone  Status = "path_done"  // Path fully tagged (terminal)
	StatusExhausted Status = "exhausted"  // Frontier emptied without reaching END (terminal)
)

// Terminal reports whether further steps are no-ops.
func (s Status) Terminal() bool {
	return s == StatusPathDone || s == StatusExhausted
}

// Snapshot is a read-only copy of everything a renderer needs between steps.
type Snapshot struct {
	Columns   int         `json:"columns"`
	Rows      int         `json:"rows"`
	Algorithm Algorithm   `json:"algorithm"`
	Status    Status      `json:"status"`
	Steps     int         `json:"steps"`
	Start     Coord       `json:"start"`
	End       Coord       `json:"end"`
	Current   *Coord      `json:"current,omitempty"`
	Frontier  []Coord     `json:"frontier,omitempty"`
	Path      []Coord     `json:"path,omitempty"`
	PathCost  int         `json:"path_cost,omitempty"`
	States    []CellState `json:"states"`  // row-major
	Weights   []int       `json:"weights"` // row-major
}

// StateAt returns the tag of c within the snapshot.
func (s *Snapshot) StateAt(c Coord) CellState {
	return s.States[c.Row*s.Columns+c.Col]
}

// WeightAt returns the weight of c within the snapshot.
func (s *Snapshot) WeightAt(c Coord) int {
	return s.Weights[c.Row*s.Columns+c.Col]
}
