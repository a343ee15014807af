package screen

import "github.com/charmbracelet/x/ansi"

// maxSequenceData bounds the payload kept for OSC, DCS and similar strings.
// Their contents are never used, so longer payloads are cut.
const maxSequenceData = 4096

// maxParam caps numeric parameters so counts stay cheap to apply.
const maxParam = 1 << 16

func newParser(s *Screen) *ansi.Parser {
	p := ansi.NewParser()
	p.SetDataSize(maxSequenceData)
	p.SetHandler(ansi.Handler{
		Print:     s.printRune,
		Execute:   s.control,
		HandleCsi: s.handleCsi,
		HandleEsc: s.handleEsc,
	})
	return p
}

// Write feeds raw pty output to the screen. Sequences and runes split
// across calls are completed on a later call. It never fails.
func (s *Screen) Write(p []byte) (int, error) {
	for _, b := range p {
		s.parser.Advance(b)
	}
	return len(p), nil
}

// WriteString is Write for string input.
func (s *Screen) WriteString(str string) (int, error) {
	return s.Write([]byte(str))
}

func (s *Screen) printRune(r rune) {
	// C1 controls arrive UTF-8 encoded and are not printable
	if r >= 0x80 && r < 0xa0 {
		return
	}
	s.print(r)
}

func (s *Screen) control(b byte) {
	switch b {
	case '\r':
		s.carriageReturn()
	case '\n', '\v', '\f':
		s.lineFeed()
	case '\b':
		s.backspace()
	case '\t':
		s.tab()
	}
}

func (s *Screen) handleEsc(cmd ansi.Cmd) {
	// charset designations and other sequences with intermediates
	if cmd.Intermediate() != 0 {
		return
	}
	switch cmd.Final() {
	case '7':
		s.saveCursor()
	case '8':
		s.restoreCursor()
	case 'D':
		s.lineFeed()
	case 'E':
		s.carriageReturn()
		s.lineFeed()
	case 'M':
		s.reverseIndex()
	case 'c':
		s.reset()
	}
}

// arg returns parameter i, or def when it is missing or zero.
func arg(params ansi.Params, i, def int) int {
	n, _, ok := params.Param(i, def)
	if !ok || n <= 0 {
		return def
	}
	return min(n, maxParam)
}

func (s *Screen) handleCsi(cmd ansi.Cmd, params ansi.Params) {
	if cmd.Intermediate() != 0 {
		return
	}
	switch cmd.Prefix() {
	case 0:
	case '?':
		switch cmd.Final() {
		case 'h':
			s.setPrivateModes(params, true)
		case 'l':
			s.setPrivateModes(params, false)
		}
		return
	default:
		return
	}

	switch cmd.Final() {
	case 'A':
		s.moveTo(s.row-arg(params, 0, 1), s.col)
	case 'B', 'e':
		s.moveTo(s.row+arg(params, 0, 1), s.col)
	case 'C', 'a':
		s.moveTo(s.row, s.col+arg(params, 0, 1))
	case 'D':
		s.moveTo(s.row, s.col-arg(params, 0, 1))
	case 'E':
		s.moveTo(s.row+arg(params, 0, 1), 0)
	case 'F':
		s.moveTo(s.row-arg(params, 0, 1), 0)
	case 'G', '`':
		s.moveTo(s.row, arg(params, 0, 1)-1)
	case 'H', 'f':
		s.moveTo(arg(params, 0, 1)-1, arg(params, 1, 1)-1)
	case 'd':
		s.moveTo(arg(params, 0, 1)-1, s.col)
	case 'J':
		s.eraseInDisplay(arg(params, 0, 0))
	case 'K':
		s.eraseInLine(arg(params, 0, 0))
	case 'L':
		s.insertLines(arg(params, 0, 1))
	case 'M':
		s.deleteLines(arg(params, 0, 1))
	case 'P':
		s.deleteChars(arg(params, 0, 1))
	case '@':
		s.insertChars(arg(params, 0, 1))
	case 'X':
		s.eraseCells(s.row, s.col, s.col+arg(params, 0, 1))
		s.wrapPending = false
	case 'S':
		s.scrollUp(arg(params, 0, 1))
	case 'T':
		s.scrollDown(arg(params, 0, 1))
	case 'r':
		s.setScrollRegion(arg(params, 0, 1)-1, arg(params, 1, s.rows)-1)
	case 's':
		s.saveCursor()
	case 'u':
		s.restoreCursor()
	case 'm':
		s.selectGraphicRendition(params)
	}
}

func (s *Screen) setPrivateModes(params ansi.Params, on bool) {
	params.ForEach(-1, func(_, mode int, _ bool) {
		switch mode {
		case 7:
			s.autoWrap = on
			if !on {
				s.wrapPending = false
			}
		case 47, 1047:
			if on {
				s.enterAlternate(false)
			} else {
				s.exitAlternate(false)
			}
		case 1049:
			if on {
				s.enterAlternate(true)
			} else {
				s.exitAlternate(true)
			}
		}
	})
}
