package stepgrid

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aretw0/stepgrid/pkg/domain"
)

// Runner drives an Engine to completion and writes one frame per step.
// This allows for easy testing and integration with different frontends (CLI, TUI, etc).
type Runner struct {
	Output io.Writer
	// Renderer turns a snapshot into a frame. Defaults to PlainFrame.
	Renderer FrameRenderer
	// Delay is slept between steps; zero runs flat out.
	Delay time.Duration
	// MaxSteps bounds the run (<= 0 means until terminal).
	MaxSteps int
	// Headless suppresses frames and prints only the summary.
	Headless bool
	// Summarizer draws the closing line. Defaults to Summary; an empty result prints nothing.
	Summarizer FrameRenderer
}

// FrameRenderer is a function that draws a snapshot.
// This allows for ANSI rendering without coupling the core package.
type FrameRenderer func(*domain.Snapshot) string

// NewRunner creates a Runner with the plain text renderer.
// Output must be set before Run.
func NewRunner() *Runner {
	return &Runner{Renderer: PlainFrame}
}

// Run steps the engine until a terminal status, MaxSteps, or ctx cancellation.
// A cancelled run leaves the engine mid-pass and returns ctx.Err().
func (r *Runner) Run(ctx context.Context, engine *Engine) (domain.Status, error) {
	writer := r.Output
	if writer == nil {
		return engine.Status(), fmt.Errorf("output writer must be set (use os.Stdout)")
	}
	render := r.Renderer
	if render == nil {
		render = PlainFrame
	}

	var timer *time.Timer
	if r.Delay > 0 {
		timer = time.NewTimer(r.Delay)
		defer timer.Stop()
	}

	for taken := 0; !engine.IsDone() && (r.MaxSteps <= 0 || taken < r.MaxSteps); taken++ {
		if err := ctx.Err(); err != nil {
			return engine.Status(), err
		}

		engine.Step()

		if !r.Headless {
			fmt.Fprintln(writer, render(engine.Snapshot()))
		}

		if timer != nil && !engine.IsDone() {
			timer.Reset(r.Delay)
			select {
			case <-ctx.Done():
				return engine.Status(), ctx.Err()
			case <-timer.C:
			}
		}
	}

	summarize := r.Summarizer
	if summarize == nil {
		summarize = Summary
	}
	if line := summarize(engine.Snapshot()); line != "" {
		fmt.Fprintln(writer, line)
	}
	return engine.Status(), nil
}

// Summary is the one-line outcome of a pass.
func Summary(s *domain.Snapshot) string {
	line := fmt.Sprintf("algorithm=%s status=%s steps=%d", s.Algorithm, s.Status, s.Steps)
	if len(s.Path) > 0 {
		line += fmt.Sprintf(" path=%d cost=%d", len(s.Path), s.PathCost)
	}
	return line
}

var glyphs = map[domain.CellState]byte{
	domain.StateDefault:     '.',
	domain.StateBarrier:     '#',
	domain.StateStart:       'S',
	domain.StateEnd:         'E',
	domain.StateInQueue:     'o',
	domain.StateActive:      '@',
	domain.StateClosed:      'x',
	domain.StatePathElement: '*',
}

// PlainFrame draws one character per cell, one line per row.
// Passable cells heavier than the minimum show their weight's last digit.
func PlainFrame(s *domain.Snapshot) string {
	var b strings.Builder
	b.Grow((s.Columns + 1) * s.Rows)
	for r := 0; r < s.Rows; r++ {
		if r > 0 {
			b.WriteByte('\n')
		}
		for c := 0; c < s.Columns; c++ {
			pos := domain.Coord{Col: c, Row: r}
			state := s.StateAt(pos)
			if state == domain.StateDefault && s.WeightAt(pos) > domain.MinWeight {
				b.WriteByte(byte('0' + s.WeightAt(pos)%10))
				continue
			}
			b.WriteByte(glyphs[state])
		}
	}
	return b.String()
}
