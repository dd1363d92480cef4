package tui

import (
	"strings"

	"github.com/aretw0/stepgrid"
	"github.com/aretw0/stepgrid/pkg/domain"
	"github.com/muesli/termenv"
)

// Palette maps each cell tag to a hex foreground color.
type Palette map[domain.CellState]string

// DefaultPalette follows the visualizer colors: green start, red end,
// purple frontier, pink closed and yellow path.
var DefaultPalette = Palette{
	domain.StateDefault:     "#9ca3af",
	domain.StateBarrier:     "#374151",
	domain.StateStart:       "#22c55e",
	domain.StateEnd:         "#ef4444",
	domain.StateInQueue:     "#a855f7",
	domain.StateActive:      "#f97316",
	domain.StateClosed:      "#f472b6",
	domain.StatePathElement: "#facc15",
}

// NewGridRenderer colors PlainFrame glyphs for the given terminal profile.
// Cells are padded with one space so the grid looks square.
func NewGridRenderer(profile termenv.Profile, palette Palette) stepgrid.FrameRenderer {
	if palette == nil {
		palette = DefaultPalette
	}
	return func(s *domain.Snapshot) string {
		lines := strings.Split(stepgrid.PlainFrame(s), "\n")
		var b strings.Builder
		for r, line := range lines {
			if r > 0 {
				b.WriteByte('\n')
			}
			for c := 0; c < len(line); c++ {
				if c > 0 {
					b.WriteByte(' ')
				}
				state := s.StateAt(domain.Coord{Col: c, Row: r})
				style := profile.String(string(line[c])).Foreground(profile.Color(palette[state]))
				if state == domain.StateActive {
					style = style.Bold()
				}
				b.WriteString(style.String())
			}
		}
		return b.String()
	}
}

// ClearScreen prefixes a renderer with the ANSI sequence that redraws in place.
func ClearScreen(render stepgrid.FrameRenderer) stepgrid.FrameRenderer {
	return func(s *domain.Snapshot) string {
		return "\x1b[H\x1b[2J" + render(s)
	}
}
