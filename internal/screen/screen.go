// Package screen keeps the visible state of a terminal: a rows x cols grid
// of styled cells, the cursor, and a bounded scrollback. It is fed the raw
// byte stream a shell writes to its pty and interprets the xterm control
// sequences needed to track what is on screen.
//
// A Screen is not safe for concurrent use.
package screen

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
)

// MaxScrollback is the number of lines kept after they scroll off the top.
const MaxScrollback = 1000

type cursorState struct {
	row   int
	col   int
	style Style
}

type Screen struct {
	rows int
	cols int

	grid      [][]Cell
	primary   [][]Cell // held while the alternate screen is active
	altActive bool

	row         int
	col         int
	wrapPending bool
	autoWrap    bool
	pen         Style
	saved       cursorState

	scrollTop    int
	scrollBottom int

	scrollback    [][]Cell
	maxScrollback int

	// holds escape sequences and runes split across writes
	parser *ansi.Parser
}

// New returns a blank screen. Dimensions below 1 are raised to 1.
func New(rows, cols int) *Screen {
	rows, cols = max(rows, 1), max(cols, 1)
	s := &Screen{
		rows:          rows,
		cols:          cols,
		autoWrap:      true,
		maxScrollback: MaxScrollback,
	}
	s.grid = newGrid(rows, cols)
	s.scrollBottom = rows - 1
	s.parser = newParser(s)
	return s
}

func newGrid(rows, cols int) [][]Cell {
	grid := make([][]Cell, rows)
	for i := range grid {
		grid[i] = make([]Cell, cols)
	}
	return grid
}

// Size reports (rows, cols).
func (s *Screen) Size() (int, int) {
	return s.rows, s.cols
}

// CursorPosition reports the zero-based (row, col) of the cursor.
func (s *Screen) CursorPosition() (int, int) {
	return s.row, s.col
}

// Cell returns the cell at (row, col) and whether the position exists.
func (s *Screen) Cell(row, col int) (Cell, bool) {
	if row < 0 || row >= s.rows || col < 0 || col >= s.cols {
		return Cell{}, false
	}
	return s.grid[row][col], true
}

// AlternateScreen reports whether a full-screen program switched to the
// alternate buffer.
func (s *Screen) AlternateScreen() bool {
	return s.altActive
}

// Contents renders every row at full width, joined by newlines.
func (s *Screen) Contents() string {
	var b strings.Builder
	for r := 0; r < s.rows; r++ {
		if r > 0 {
			b.WriteByte('\n')
		}
		writeCells(&b, s.grid[r])
	}
	return b.String()
}

// Row renders one row at full width. Out of range rows render empty.
func (s *Screen) Row(row int) string {
	if row < 0 || row >= s.rows {
		return ""
	}
	var b strings.Builder
	writeCells(&b, s.grid[row])
	return b.String()
}

// ContentsBetween renders the text from (startRow, startCol) up to but not
// including (endRow, endCol), reading rows top to bottom. Positions are
// clamped to the grid.
func (s *Screen) ContentsBetween(startRow, startCol, endRow, endCol int) string {
	startRow = clamp(startRow, 0, s.rows-1)
	endRow = clamp(endRow, 0, s.rows-1)
	startCol = clamp(startCol, 0, s.cols)
	endCol = clamp(endCol, 0, s.cols)
	if startRow > endRow || (startRow == endRow && startCol >= endCol) {
		return ""
	}
	var b strings.Builder
	for r := startRow; r <= endRow; r++ {
		from, to := 0, s.cols
		if r == startRow {
			from = startCol
		}
		if r == endRow {
			to = endCol
		}
		if r > startRow {
			b.WriteByte('\n')
		}
		writeCells(&b, s.grid[r][from:to])
	}
	return b.String()
}

// Scrollback renders retained lines, oldest first.
func (s *Screen) Scrollback() []string {
	lines := make([]string, len(s.scrollback))
	for i, line := range s.scrollback {
		var b strings.Builder
		writeCells(&b, line)
		lines[i] = strings.TrimRight(b.String(), " ")
	}
	return lines
}

func writeCells(b *strings.Builder, cells []Cell) {
	for _, c := range cells {
		b.WriteString(c.Text())
	}
}

// SetSize changes the grid dimensions. Scrollback is kept. When the grid
// loses rows, lines above the cursor move into scrollback so the cursor
// line stays visible; remaining excess is cut from the bottom.
func (s *Screen) SetSize(rows, cols int) {
	rows, cols = max(rows, 1), max(cols, 1)
	if rows == s.rows && cols == s.cols {
		return
	}
	if s.altActive {
		s.primary = resizeGrid(s.primary, rows, cols)
		s.grid = resizeGrid(s.grid, rows, cols)
	} else {
		if shift := s.row - (rows - 1); shift > 0 {
			for i := 0; i < shift; i++ {
				s.pushScrollback(s.grid[i])
			}
			s.grid = s.grid[shift:]
			s.row -= shift
			s.saved.row = max(s.saved.row-shift, 0)
		}
		s.grid = resizeGrid(s.grid, rows, cols)
	}
	s.rows, s.cols = rows, cols
	s.scrollTop, s.scrollBottom = 0, rows-1
	s.row = clamp(s.row, 0, rows-1)
	s.col = clamp(s.col, 0, cols-1)
	s.saved.row = clamp(s.saved.row, 0, rows-1)
	s.saved.col = clamp(s.saved.col, 0, cols-1)
	s.wrapPending = false
}

func resizeGrid(grid [][]Cell, rows, cols int) [][]Cell {
	out := make([][]Cell, rows)
	for r := range out {
		line := make([]Cell, cols)
		if r < len(grid) {
			copy(line, grid[r])
			// a wide glyph cut in half by the new edge is dropped
			if last := line[cols-1]; last.Wide {
				line[cols-1] = blankCell(last.Style.Bg)
			}
		}
		out[r] = line
	}
	return out
}

func (s *Screen) pushScrollback(line []Cell) {
	if s.maxScrollback <= 0 {
		return
	}
	cp := make([]Cell, len(line))
	copy(cp, line)
	if len(s.scrollback) >= s.maxScrollback {
		copy(s.scrollback, s.scrollback[1:])
		s.scrollback[len(s.scrollback)-1] = cp
		return
	}
	s.scrollback = append(s.scrollback, cp)
}

func (s *Screen) blank() Cell {
	return blankCell(s.pen.Bg)
}

func (s *Screen) blankLine() []Cell {
	line := make([]Cell, s.cols)
	if s.pen.Bg != DefaultColor {
		for i := range line {
			line[i] = s.blank()
		}
	}
	return line
}

// print places one rune at the cursor, wrapping first if the previous
// character filled the last column.
func (s *Screen) print(r rune) {
	width := runewidth.RuneWidth(r)
	if width == 0 {
		return
	}
	if width > 1 && s.cols < 2 {
		width = 1
	}
	if s.wrapPending {
		s.col = 0
		s.lineFeed()
	}
	if width == 2 && s.col == s.cols-1 {
		if !s.autoWrap {
			return
		}
		s.clearCell(s.row, s.col)
		s.col = 0
		s.lineFeed()
	}

	s.clearCell(s.row, s.col)
	s.grid[s.row][s.col] = Cell{Ch: r, Style: s.pen, Wide: width == 2}
	if width == 2 {
		s.clearCell(s.row, s.col+1)
		s.grid[s.row][s.col+1] = Cell{Style: s.pen, Continuation: true}
	}

	if next := s.col + width; next < s.cols {
		s.col = next
	} else {
		s.col = s.cols - 1
		s.wrapPending = s.autoWrap
	}
}

// clearCell blanks a cell, also blanking the other half of a wide glyph it
// belongs to.
func (s *Screen) clearCell(row, col int) {
	line := s.grid[row]
	c := line[col]
	if c.Wide && col+1 < s.cols {
		line[col+1] = blankCell(line[col+1].Style.Bg)
	}
	if c.Continuation && col > 0 {
		line[col-1] = blankCell(line[col-1].Style.Bg)
	}
	line[col] = blankCell(c.Style.Bg)
}

func (s *Screen) carriageReturn() {
	s.col = 0
	s.wrapPending = false
}

func (s *Screen) lineFeed() {
	s.wrapPending = false
	switch {
	case s.row == s.scrollBottom:
		s.scrollUp(1)
	case s.row < s.rows-1:
		s.row++
	}
}

func (s *Screen) reverseIndex() {
	s.wrapPending = false
	switch {
	case s.row == s.scrollTop:
		s.scrollDown(1)
	case s.row > 0:
		s.row--
	}
}

func (s *Screen) backspace() {
	s.wrapPending = false
	if s.col > 0 {
		s.col--
	}
}

func (s *Screen) tab() {
	s.wrapPending = false
	next := (s.col/8 + 1) * 8
	s.col = min(next, s.cols-1)
}

// scrollUp moves the scroll region up n lines. Lines leaving the top of a
// full-height region on the primary screen go to scrollback.
func (s *Screen) scrollUp(n int) {
	height := s.scrollBottom - s.scrollTop + 1
	n = clamp(n, 0, height)
	if n == 0 {
		return
	}
	if s.scrollTop == 0 && !s.altActive {
		for i := 0; i < n; i++ {
			s.pushScrollback(s.grid[i])
		}
	}
	region := s.grid[s.scrollTop : s.scrollBottom+1]
	copy(region, region[n:])
	for i := height - n; i < height; i++ {
		region[i] = s.blankLine()
	}
}

func (s *Screen) scrollDown(n int) {
	height := s.scrollBottom - s.scrollTop + 1
	n = clamp(n, 0, height)
	if n == 0 {
		return
	}
	region := s.grid[s.scrollTop : s.scrollBottom+1]
	copy(region[n:], region[:height-n])
	for i := 0; i < n; i++ {
		region[i] = s.blankLine()
	}
}

func (s *Screen) moveTo(row, col int) {
	s.row = clamp(row, 0, s.rows-1)
	s.col = clamp(col, 0, s.cols-1)
	s.wrapPending = false
}

func (s *Screen) eraseInLine(mode int) {
	from, to := 0, s.cols
	switch mode {
	case 0:
		from = s.col
	case 1:
		to = s.col + 1
	case 2:
	default:
		return
	}
	s.eraseCells(s.row, from, to)
	s.wrapPending = false
}

func (s *Screen) eraseCells(row, from, to int) {
	for c := from; c < to && c < s.cols; c++ {
		s.clearCell(row, c)
		s.grid[row][c] = s.blank()
	}
}

func (s *Screen) eraseInDisplay(mode int) {
	switch mode {
	case 0:
		s.eraseCells(s.row, s.col, s.cols)
		for r := s.row + 1; r < s.rows; r++ {
			s.grid[r] = s.blankLine()
		}
	case 1:
		for r := 0; r < s.row; r++ {
			s.grid[r] = s.blankLine()
		}
		s.eraseCells(s.row, 0, s.col+1)
	case 2:
		for r := range s.grid {
			s.grid[r] = s.blankLine()
		}
	case 3:
		s.scrollback = nil
	default:
		return
	}
	s.wrapPending = false
}

func (s *Screen) insertLines(n int) {
	if s.row < s.scrollTop || s.row > s.scrollBottom {
		return
	}
	top := s.scrollTop
	s.scrollTop = s.row
	s.scrollDown(n)
	s.scrollTop = top
	s.col = 0
	s.wrapPending = false
}

func (s *Screen) deleteLines(n int) {
	if s.row < s.scrollTop || s.row > s.scrollBottom {
		return
	}
	top := s.scrollTop
	s.scrollTop = s.row
	// deleted lines never reach scrollback
	alt := s.altActive
	s.altActive = true
	s.scrollUp(n)
	s.altActive = alt
	s.scrollTop = top
	s.col = 0
	s.wrapPending = false
}

func (s *Screen) insertChars(n int) {
	n = clamp(n, 0, s.cols-s.col)
	line := s.grid[s.row]
	copy(line[s.col+n:], line[s.col:])
	for c := s.col; c < s.col+n; c++ {
		line[c] = s.blank()
	}
	s.wrapPending = false
}

func (s *Screen) deleteChars(n int) {
	n = clamp(n, 0, s.cols-s.col)
	line := s.grid[s.row]
	copy(line[s.col:], line[s.col+n:])
	for c := s.cols - n; c < s.cols; c++ {
		line[c] = s.blank()
	}
	s.wrapPending = false
}

func (s *Screen) setScrollRegion(top, bottom int) {
	top = clamp(top, 0, s.rows-1)
	bottom = clamp(bottom, 0, s.rows-1)
	if top >= bottom {
		return
	}
	s.scrollTop, s.scrollBottom = top, bottom
	s.moveTo(0, 0)
}

func (s *Screen) saveCursor() {
	s.saved = cursorState{row: s.row, col: s.col, style: s.pen}
}

func (s *Screen) restoreCursor() {
	s.pen = s.saved.style
	s.moveTo(s.saved.row, s.saved.col)
}

func (s *Screen) enterAlternate(saveCursor bool) {
	if s.altActive {
		return
	}
	if saveCursor {
		s.saveCursor()
	}
	s.primary = s.grid
	s.grid = newGrid(s.rows, s.cols)
	s.altActive = true
}

func (s *Screen) exitAlternate(restoreCursor bool) {
	if !s.altActive {
		return
	}
	s.grid = s.primary
	s.primary = nil
	s.altActive = false
	if restoreCursor {
		s.restoreCursor()
	}
}

// reset returns to the power-on state. Scrollback survives.
func (s *Screen) reset() {
	s.exitAlternate(false)
	s.grid = newGrid(s.rows, s.cols)
	s.row, s.col = 0, 0
	s.wrapPending = false
	s.autoWrap = true
	s.pen = Style{}
	s.saved = cursorState{}
	s.scrollTop, s.scrollBottom = 0, s.rows-1
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
