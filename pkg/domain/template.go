package domain

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// Template tokens.
const (
	TokenStart   = "START"
	TokenEnd     = "END"
	TokenBarrier = "#"
)

// ParseTemplate builds a Grid from its text encoding: one line per row, each holding one
// space-separated token per column. A token is START, END, # (barrier) or a weight in
// [MinWeight, MaxWeight]. BarrierWeight is also read as a barrier and encodes back as #.
// Trailing blank lines are ignored.
//
// On any inconsistency ParseTemplate returns a *TemplateError (matching ErrInvalidTemplate)
// and no grid.
func ParseTemplate(data []byte) (*Grid, error) {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	if len(lines) == 1 && strings.TrimSpace(lines[0]) == "" {
		return nil, &TemplateError{Reason: "empty template"}
	}

	rows := make([][]string, len(lines))
	for i, line := range lines {
		rows[i] = strings.Fields(line)
		if len(rows[i]) == 0 {
			return nil, &TemplateError{Line: i + 1, Reason: "empty row"}
		}
		if len(rows[i]) != len(rows[0]) {
			return nil, &TemplateError{
				Line:   i + 1,
				Reason: fmt.Sprintf("row has %d columns, expected %d", len(rows[i]), len(rows[0])),
			}
		}
	}

	g := newBlankGrid(len(rows[0]), len(rows))
	var starts, ends []Coord

	for r, tokens := range rows {
		for c, token := range tokens {
			pos := Coord{Col: c, Row: r}
			cell := g.At(pos)
			switch token {
			case TokenStart:
				cell.state = StateStart
				starts = append(starts, pos)
			case TokenEnd:
				cell.state = StateEnd
				ends = append(ends, pos)
			case TokenBarrier:
				cell.state = StateBarrier
			default:
				w, err := strconv.Atoi(token)
				if err != nil {
					return nil, &TemplateError{Line: r + 1, Column: c + 1, Reason: fmt.Sprintf("unknown token %q", token)}
				}
				if w == BarrierWeight {
					cell.state = StateBarrier
					continue
				}
				if w < MinWeight || w > MaxWeight {
					return nil, &TemplateError{
						Line:   r + 1,
						Column: c + 1,
						Reason: fmt.Sprintf("weight %d outside [%d,%d]", w, MinWeight, MaxWeight),
					}
				}
				cell.weight = w
			}
		}
	}

	if len(starts) != 1 {
		return nil, &TemplateError{Reason: fmt.Sprintf("expected exactly one %s marker, found %d", TokenStart, len(starts))}
	}
	if len(ends) != 1 {
		return nil, &TemplateError{Reason: fmt.Sprintf("expected exactly one %s marker, found %d", TokenEnd, len(ends))}
	}
	g.start, g.end = starts[0], ends[0]
	return g, nil
}

// Encode serializes the persistent part of the grid (endpoints, barriers, weights) in the
// ParseTemplate format. Search tags are not encoded, so Encode(ParseTemplate(Encode(g)))
// is byte-for-byte identical to Encode(g).
func (g *Grid) Encode() []byte {
	var buf bytes.Buffer
	for r := 0; r < g.rows; r++ {
		for c := 0; c < g.cols; c++ {
			if c > 0 {
				buf.WriteByte(' ')
			}
			buf.WriteString(g.At(Coord{Col: c, Row: r}).Token())
		}
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// MarshalText implements encoding.TextMarshaler using Encode.
func (g *Grid) MarshalText() ([]byte, error) {
	return g.Encode(), nil
}

// Token returns the template token describing the persistent state of the cell.
func (c *Cell) Token() string {
	switch c.state {
	case StateStart:
		return TokenStart
	case StateEnd:
		return TokenEnd
	case StateBarrier:
		return TokenBarrier
	default:
		return strconv.Itoa(c.weight)
	}
}
