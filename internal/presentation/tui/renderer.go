package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/stepgrid/pkg/domain"
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown using glamour.
// It detects a light or dark background.
func NewRenderer() func(string) (string, error) {
	return newRenderer(glamour.WithAutoStyle())
}

// NewPlainRenderer renders markdown without colors, for pipes and tests.
func NewPlainRenderer() func(string) (string, error) {
	return newRenderer(glamour.WithStandardStyle("notty"))
}

func newRenderer(style glamour.TermRendererOption) func(string) (string, error) {
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(80))
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}
	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// SummaryMarkdown describes a finished pass as a markdown table.
func SummaryMarkdown(s *domain.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s on a %dx%d grid\n\n", s.Algorithm, s.Columns, s.Rows)
	b.WriteString("| Status | Steps | Path | Cost |\n")
	b.WriteString("|---|---|---|---|\n")

	path, cost := "-", "-"
	if len(s.Path) > 0 {
		path = fmt.Sprintf("%d cells", len(s.Path))
		cost = fmt.Sprintf("%d", s.PathCost)
	}
	fmt.Fprintf(&b, "| %s | %d | %s | %s |\n", s.Status, s.Steps, path, cost)

	if s.Status == domain.StatusExhausted {
		fmt.Fprintf(&b, "\nNo path connects START %s and END %s.\n", s.Start, s.End)
	}
	return b.String()
}
