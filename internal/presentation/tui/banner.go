package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the stepgrid banner to w.
func PrintBanner(w io.Writer, version string) {
	p := termenv.EnvColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"      _                        _     _ ", "#818cf8"},
		{"  ___| |_ ___ _ __   __ _ _ __(_) __| |", "#a78bfa"},
		{" / __| __/ _ \\ '_ \\ / _` | '__| |/ _` |", "#c084fc"},
		{" \\__ \\ ||  __/ |_) | (_| | |  | | (_| |", "#e879f9"},
		{" |___/\\__\\___| .__/ \\__, |_|  |_|\\__,_|", "#f472b6"},
		{"             |_|    |___/               ", "#fb7185"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, p.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, p.String("  v"+version).Faint())
	fmt.Fprintln(w)
}
