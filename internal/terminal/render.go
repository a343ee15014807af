package terminal

import (
	"strconv"
	"strings"

	"github.com/samiralibabic/rexterm/internal/screen"
)

const sgrReset = "\x1b[0m"

// Render encodes the screen as ANSI text. Each row starts with a reset and
// the first cell's style; after that a reset plus the full style is
// emitted only where a cell's style differs from the last one written.
// Every row ends with a reset and rows are separated by newlines.
func Render(s *screen.Screen) string {
	rows, cols := s.Size()
	var b strings.Builder
	b.Grow(rows * (cols + len(sgrReset)*2 + 1))

	for r := 0; r < rows; r++ {
		if r > 0 {
			b.WriteByte('\n')
		}
		var last screen.Style
		first := true
		for c := 0; c < cols; c++ {
			cell, _ := s.Cell(r, c)
			if cell.Continuation {
				continue
			}
			if first || cell.Style != last {
				writeStyle(&b, cell.Style)
				last = cell.Style
				first = false
			}
			b.WriteString(cell.Text())
		}
		b.WriteString(sgrReset)
	}
	return b.String()
}

func writeStyle(b *strings.Builder, st screen.Style) {
	b.WriteString(sgrReset)
	codes := sgrCodes(st)
	if len(codes) == 0 {
		return
	}
	b.WriteString("\x1b[")
	b.WriteString(strings.Join(codes, ";"))
	b.WriteByte('m')
}

// sgrCodes lists the SGR parameters that recreate st from a reset state:
// attributes first, then foreground, then background.
func sgrCodes(st screen.Style) []string {
	var codes []string
	if st.Bold {
		codes = append(codes, "1")
	}
	if st.Italic {
		codes = append(codes, "3")
	}
	if st.Underline {
		codes = append(codes, "4")
	}
	if st.Inverse {
		codes = append(codes, "7")
	}
	if fg := colorCode(st.Fg, false); fg != "" {
		codes = append(codes, fg)
	}
	if bg := colorCode(st.Bg, true); bg != "" {
		codes = append(codes, bg)
	}
	return codes
}

func colorCode(c screen.Color, background bool) string {
	base, bright, extended := 30, 90, "38"
	if background {
		base, bright, extended = 40, 100, "48"
	}
	switch c.Kind {
	case screen.ColorIndexed:
		switch {
		case c.Index < 8:
			return strconv.Itoa(base + int(c.Index))
		case c.Index < 16:
			return strconv.Itoa(bright + int(c.Index) - 8)
		default:
			return extended + ";5;" + strconv.Itoa(int(c.Index))
		}
	case screen.ColorRGB:
		return extended + ";2;" + strconv.Itoa(int(c.R)) + ";" + strconv.Itoa(int(c.G)) + ";" + strconv.Itoa(int(c.B))
	default:
		return ""
	}
}
