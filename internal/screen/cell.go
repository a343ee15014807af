package screen

// ColorKind distinguishes the three ways a cell colour can be specified.
type ColorKind uint8

const (
	ColorDefault ColorKind = iota // terminal default
	ColorIndexed                  // 256-colour palette index
	ColorRGB                      // 24-bit true colour
)

// Color is a cell foreground or background. The zero value is the
// terminal default. Colors are comparable with ==.
type Color struct {
	Kind  ColorKind
	Index uint8
	R     uint8
	G     uint8
	B     uint8
}

// DefaultColor is the terminal default colour.
var DefaultColor = Color{}

// Indexed returns a palette colour.
func Indexed(i uint8) Color {
	return Color{Kind: ColorIndexed, Index: i}
}

// RGB returns a true colour.
func RGB(r, g, b uint8) Color {
	return Color{Kind: ColorRGB, R: r, G: g, B: b}
}

// Style is everything about a cell except its content.
type Style struct {
	Fg        Color
	Bg        Color
	Bold      bool
	Italic    bool
	Underline bool
	Inverse   bool
}

// Cell is one grid position. A wide glyph occupies its cell plus a
// continuation cell to the right that renders as nothing.
type Cell struct {
	Ch           rune
	Style        Style
	Wide         bool
	Continuation bool
}

// Text is what the cell contributes to a text rendering of its row.
func (c Cell) Text() string {
	switch {
	case c.Continuation:
		return ""
	case c.Ch == 0:
		return " "
	default:
		return string(c.Ch)
	}
}

// IsEmpty reports whether the cell holds no character.
func (c Cell) IsEmpty() bool {
	return c.Ch == 0 && !c.Continuation
}

func blankCell(bg Color) Cell {
	return Cell{Style: Style{Bg: bg}}
}
