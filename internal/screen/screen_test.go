package screen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feed(t *testing.T, s *Screen, chunks ...string) {
	t.Helper()
	for _, c := range chunks {
		n, err := s.WriteString(c)
		require.NoError(t, err)
		require.Equal(t, len(c), n)
	}
}

func trimmedRow(s *Screen, row int) string {
	return strings.TrimRight(s.Row(row), " ")
}

func TestNewScreenIsBlank(t *testing.T) {
	s := New(3, 5)
	rows, cols := s.Size()
	assert.Equal(t, 3, rows)
	assert.Equal(t, 5, cols)
	assert.Equal(t, "     \n     \n     ", s.Contents())
	r, c := s.CursorPosition()
	assert.Equal(t, 0, r)
	assert.Equal(t, 0, c)
}

func TestPrintAndNewline(t *testing.T) {
	s := New(4, 10)
	feed(t, s, "hello\r\nworld")
	assert.Equal(t, "hello", trimmedRow(s, 0))
	assert.Equal(t, "world", trimmedRow(s, 1))
	r, c := s.CursorPosition()
	assert.Equal(t, 1, r)
	assert.Equal(t, 5, c)
}

func TestLineFeedKeepsColumn(t *testing.T) {
	s := New(3, 10)
	feed(t, s, "ab\ncd")
	assert.Equal(t, "ab", trimmedRow(s, 0))
	assert.Equal(t, "  cd", trimmedRow(s, 1))
}

func TestAutoWrapIsDeferred(t *testing.T) {
	s := New(3, 4)
	feed(t, s, "abcd")
	r, c := s.CursorPosition()
	assert.Equal(t, 0, r)
	assert.Equal(t, 3, c, "cursor stays on the last column until the next glyph")

	feed(t, s, "e")
	assert.Equal(t, "abcd", s.Row(0))
	assert.Equal(t, "e", trimmedRow(s, 1))
}

func TestCarriageReturnCancelsPendingWrap(t *testing.T) {
	s := New(3, 4)
	feed(t, s, "abcd\rX")
	assert.Equal(t, "Xbcd", s.Row(0))
	assert.Equal(t, "", trimmedRow(s, 1))
}

func TestSplitEscapeSequenceAcrossWrites(t *testing.T) {
	s := New(3, 10)
	feed(t, s, "ab\x1b", "[", "2", "J", "\x1b[1;", "3Hx")
	assert.Equal(t, "  x", trimmedRow(s, 0))
}

func TestSplitUTF8AcrossWrites(t *testing.T) {
	s := New(2, 10)
	b := []byte("é!")
	_, _ = s.Write(b[:1])
	assert.Equal(t, "", trimmedRow(s, 0))
	_, _ = s.Write(b[1:])
	assert.Equal(t, "é!", trimmedRow(s, 0))
}

func TestOverlongStringIsConsumed(t *testing.T) {
	s := New(2, 10)
	feed(t, s, "\x1b]0;"+strings.Repeat("t", maxSequenceData+10), "\x07ok")
	assert.Equal(t, "ok", trimmedRow(s, 0))
	feed(t, s, "\x1bP1$r"+strings.Repeat("d", maxSequenceData*2)+"\x1b\\!")
	assert.Equal(t, "ok!", trimmedRow(s, 0))
}

func TestOSCIsConsumed(t *testing.T) {
	s := New(2, 20)
	feed(t, s, "\x1b]0;title\x07a\x1b]2;other\x1b\\b")
	assert.Equal(t, "ab", trimmedRow(s, 0))
}

func TestCharsetDesignationIsConsumed(t *testing.T) {
	s := New(2, 10)
	feed(t, s, "\x1b(Bx\x1b)0y")
	assert.Equal(t, "xy", trimmedRow(s, 0))
}

func TestCursorMovement(t *testing.T) {
	s := New(10, 20)
	feed(t, s, "\x1b[5;10H")
	assertCursor(t, s, 4, 9)
	feed(t, s, "\x1b[2A")
	assertCursor(t, s, 2, 9)
	feed(t, s, "\x1b[B")
	assertCursor(t, s, 3, 9)
	feed(t, s, "\x1b[3C")
	assertCursor(t, s, 3, 12)
	feed(t, s, "\x1b[100D")
	assertCursor(t, s, 3, 0)
	feed(t, s, "\x1b[7G")
	assertCursor(t, s, 3, 6)
	feed(t, s, "\x1b[9d")
	assertCursor(t, s, 8, 6)
	feed(t, s, "\x1b[2F")
	assertCursor(t, s, 6, 0)
	feed(t, s, "\x1b[E")
	assertCursor(t, s, 7, 0)
	feed(t, s, "\x1b[99;99f")
	assertCursor(t, s, 9, 19)
	feed(t, s, "\x1b[H")
	assertCursor(t, s, 0, 0)
}

func assertCursor(t *testing.T, s *Screen, row, col int) {
	t.Helper()
	r, c := s.CursorPosition()
	assert.Equal(t, [2]int{row, col}, [2]int{r, c})
}

func TestSaveRestoreCursor(t *testing.T) {
	s := New(5, 10)
	feed(t, s, "\x1b[2;3H\x1b7\x1b[H\x1b8")
	assertCursor(t, s, 1, 2)
	feed(t, s, "\x1b[4;4H\x1b[s\x1b[H\x1b[u")
	assertCursor(t, s, 3, 3)
}

func TestEraseInLine(t *testing.T) {
	s := New(1, 10)
	feed(t, s, "0123456789\x1b[1;5H\x1b[K")
	assert.Equal(t, "0123", trimmedRow(s, 0))

	s = New(1, 10)
	feed(t, s, "0123456789\x1b[1;5H\x1b[1K")
	assert.Equal(t, "     56789", s.Row(0))

	s = New(1, 10)
	feed(t, s, "0123456789\x1b[2K")
	assert.Equal(t, "", trimmedRow(s, 0))
}

func TestEraseInDisplay(t *testing.T) {
	s := New(3, 3)
	feed(t, s, "aaa\r\nbbb\r\nccc\x1b[2;2H\x1b[J")
	assert.Equal(t, "aaa\nb  \n   ", s.Contents())

	s = New(3, 3)
	feed(t, s, "aaa\r\nbbb\r\nccc\x1b[2;2H\x1b[1J")
	assert.Equal(t, "   \n  b\nccc", s.Contents())

	s = New(3, 3)
	feed(t, s, "aaa\r\nbbb\r\nccc\x1b[2J")
	assert.Equal(t, "   \n   \n   ", s.Contents())
}

func TestEraseChars(t *testing.T) {
	s := New(1, 6)
	feed(t, s, "abcdef\x1b[1;2H\x1b[2X")
	assert.Equal(t, "a  def", s.Row(0))
}

func TestInsertDeleteChars(t *testing.T) {
	s := New(1, 6)
	feed(t, s, "abcdef\x1b[1;2H\x1b[2P")
	assert.Equal(t, "adef  ", s.Row(0))
	feed(t, s, "\x1b[1@")
	assert.Equal(t, "a def ", s.Row(0))
}

func TestInsertDeleteLines(t *testing.T) {
	s := New(3, 1)
	feed(t, s, "a\r\nb\r\nc\x1b[1;1H\x1b[L")
	assert.Equal(t, " \na\nb", s.Contents())
	feed(t, s, "\x1b[2M")
	assert.Equal(t, "b\n \n ", s.Contents())
	assert.Empty(t, s.Scrollback(), "deleted lines are not scrollback")
}

func TestScrollbackCollectsScrolledLines(t *testing.T) {
	s := New(2, 5)
	feed(t, s, "one\r\ntwo\r\nthree\r\nfour")
	assert.Equal(t, []string{"one", "two"}, s.Scrollback())
	assert.Equal(t, "three", trimmedRow(s, 0))
	assert.Equal(t, "four", trimmedRow(s, 1))
}

func TestScrollbackIsBounded(t *testing.T) {
	s := New(1, 6)
	for i := 0; i < MaxScrollback+50; i++ {
		feed(t, s, "x\r\n")
	}
	assert.Len(t, s.Scrollback(), MaxScrollback)
}

func TestScrollRegion(t *testing.T) {
	s := New(4, 1)
	feed(t, s, "a\r\nb\r\nc\r\nd")
	feed(t, s, "\x1b[2;3r")
	assertCursor(t, s, 0, 0)
	feed(t, s, "\x1b[3;1H\n")
	assert.Equal(t, "a\nc\n \nd", s.Contents())
	assert.Empty(t, s.Scrollback(), "region not at top does not feed scrollback")

	feed(t, s, "\x1b[2;1H\x1bM")
	assert.Equal(t, "a\n \nc\nd", s.Contents())
}

func TestScrollUpDownSequences(t *testing.T) {
	s := New(3, 1)
	feed(t, s, "a\r\nb\r\nc\x1b[S")
	assert.Equal(t, "b\nc\n ", s.Contents())
	feed(t, s, "\x1b[2T")
	assert.Equal(t, " \n \nb", s.Contents())
}

func TestTabStops(t *testing.T) {
	s := New(1, 20)
	feed(t, s, "a\tb\tc")
	assert.Equal(t, "a       b       c", trimmedRow(s, 0))
	feed(t, s, "\t\t\t")
	assertCursor(t, s, 0, 19)
}

func TestBackspace(t *testing.T) {
	s := New(1, 5)
	feed(t, s, "ab\bc\b\b\bd")
	assert.Equal(t, "dc", trimmedRow(s, 0))
}

func TestAlternateScreen(t *testing.T) {
	s := New(2, 10)
	feed(t, s, "shell$\x1b[?1049h")
	assert.True(t, s.AlternateScreen())
	assert.Equal(t, "", trimmedRow(s, 0))
	feed(t, s, "\x1b[Hvim")
	assert.Equal(t, "vim", trimmedRow(s, 0))

	feed(t, s, "\x1b[?1049l")
	assert.False(t, s.AlternateScreen())
	assert.Equal(t, "shell$", trimmedRow(s, 0))
	assertCursor(t, s, 0, 6)
}

func TestAlternateScreenDoesNotFeedScrollback(t *testing.T) {
	s := New(2, 4)
	feed(t, s, "\x1b[?47h1\r\n2\r\n3\r\n4\x1b[?47l")
	assert.Empty(t, s.Scrollback())
}

func TestFullReset(t *testing.T) {
	s := New(2, 5)
	feed(t, s, "\x1b[1mab\x1bc")
	assert.Equal(t, "     \n     ", s.Contents())
	assertCursor(t, s, 0, 0)
	c, _ := s.Cell(0, 0)
	assert.Equal(t, Style{}, c.Style)
}

func TestWideGlyphs(t *testing.T) {
	s := New(2, 5)
	feed(t, s, "a世b")
	c, ok := s.Cell(0, 1)
	require.True(t, ok)
	assert.True(t, c.Wide)
	c, _ = s.Cell(0, 2)
	assert.True(t, c.Continuation)
	assert.Equal(t, "a世b ", s.Row(0))
	assertCursor(t, s, 0, 4)

	// no room for a wide glyph in the last column: it wraps
	feed(t, s, "界")
	assert.Equal(t, "a世b ", s.Row(0))
	assert.Equal(t, "界   ", s.Row(1))
}

func TestOverwritingHalfAWideGlyph(t *testing.T) {
	s := New(1, 4)
	feed(t, s, "世\x1b[1;2Hx")
	assert.Equal(t, " x  ", s.Row(0))
}

func TestContentsBetween(t *testing.T) {
	s := New(3, 5)
	feed(t, s, "abcde\r\nfghij\r\nklmno")
	assert.Equal(t, "cde\nfghij\nkl", s.ContentsBetween(0, 2, 2, 2))
	assert.Equal(t, "fghij", s.ContentsBetween(1, 0, 1, 5))
	assert.Equal(t, "", s.ContentsBetween(2, 0, 1, 0))
	assert.Equal(t, "abcde\nfghij\nklmno", s.ContentsBetween(-4, -1, 99, 99))
}

func TestSetSizeGrowAndShrinkColumns(t *testing.T) {
	s := New(2, 5)
	feed(t, s, "abcde")
	s.SetSize(2, 3)
	assert.Equal(t, "abc\n   ", s.Contents())
	assertCursor(t, s, 0, 2)

	s.SetSize(3, 6)
	rows, cols := s.Size()
	assert.Equal(t, 3, rows)
	assert.Equal(t, 6, cols)
	assert.Equal(t, "abc   \n      \n      ", s.Contents())
}

func TestSetSizeKeepsCursorLineVisible(t *testing.T) {
	s := New(4, 3)
	feed(t, s, "1\r\n2\r\n3\r\n4")
	s.SetSize(2, 3)
	assert.Equal(t, "3  \n4  ", s.Contents())
	assert.Equal(t, []string{"1", "2"}, s.Scrollback())
	assertCursor(t, s, 1, 1)
}

func TestSetSizeResetsScrollRegion(t *testing.T) {
	s := New(5, 3)
	feed(t, s, "\x1b[2;3r")
	s.SetSize(6, 3)
	assert.Equal(t, 0, s.scrollTop)
	assert.Equal(t, 5, s.scrollBottom)
}

func TestUnknownSequencesAreIgnored(t *testing.T) {
	s := New(1, 10)
	feed(t, s, "\x1b[?25l\x1b[>c\x1b[!p\x1b[4hok\x1b=")
	assert.Equal(t, "ok", trimmedRow(s, 0))
}

func TestControlByteInsideCSIIsExecuted(t *testing.T) {
	s := New(2, 10)
	feed(t, s, "\x1b[2\nCx")
	assert.Equal(t, "", trimmedRow(s, 0))
	assert.Equal(t, "  x", trimmedRow(s, 1))
}

func TestC1ControlsArePrintedAsNothing(t *testing.T) {
	s := New(1, 10)
	feed(t, s, "a\u0085b\xc2")
	feed(t, s, "\x9cc")
	assert.Equal(t, "abc", trimmedRow(s, 0))
}

func TestOversizedParametersAreClamped(t *testing.T) {
	s := New(3, 5)
	feed(t, s, "\x1b[99999999999999999999;4H")
	assertCursor(t, s, 2, 3)
	feed(t, s, "\x1b[1;1H\x1b[99999999C")
	assertCursor(t, s, 0, 4)
}
