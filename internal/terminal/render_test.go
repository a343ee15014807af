package terminal

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/samiralibabic/rexterm/internal/screen"
)

func render(t *testing.T, rows, cols int, input string) string {
	t.Helper()
	s := screen.New(rows, cols)
	_, _ = s.WriteString(input)
	return Render(s)
}

func TestRenderPlainRows(t *testing.T) {
	got := render(t, 2, 3, "ab")
	assert.Equal(t, "\x1b[0mab \x1b[0m\n\x1b[0m   \x1b[0m", got)
}

func TestRenderRepeatedStyleIsEmittedOnce(t *testing.T) {
	got := render(t, 1, 4, "\x1b[1;32mabcd")
	assert.Equal(t, "\x1b[0m\x1b[1;32mabcd\x1b[0m", got)
}

func TestRenderAlternatingStyles(t *testing.T) {
	got := render(t, 1, 4, "\x1b[31ma\x1b[32mb\x1b[31mc\x1b[32md")
	want := "\x1b[0m\x1b[31ma" +
		"\x1b[0m\x1b[32mb" +
		"\x1b[0m\x1b[31mc" +
		"\x1b[0m\x1b[32md" +
		"\x1b[0m"
	assert.Equal(t, want, got)
}

func TestRenderStyleEndsMidRow(t *testing.T) {
	got := render(t, 1, 4, "\x1b[4mab\x1b[24mcd")
	assert.Equal(t, "\x1b[0m\x1b[4mab\x1b[0mcd\x1b[0m", got)
}

func TestRenderEachRowRestatesStyle(t *testing.T) {
	got := render(t, 2, 2, "\x1b[7mab\x1b[2;1Hcd")
	assert.Equal(t, "\x1b[0m\x1b[7mab\x1b[0m\n\x1b[0m\x1b[7mcd\x1b[0m", got)
}

func TestRenderSkipsWideContinuation(t *testing.T) {
	got := render(t, 1, 3, "世x")
	assert.Equal(t, "\x1b[0m世x\x1b[0m", got)
}

func TestSGRCodes(t *testing.T) {
	tests := []struct {
		name  string
		style screen.Style
		want  []string
	}{
		{"default", screen.Style{}, nil},
		{"attrs in order", screen.Style{Inverse: true, Underline: true, Italic: true, Bold: true}, []string{"1", "3", "4", "7"}},
		{"basic fg", screen.Style{Fg: screen.Indexed(3)}, []string{"33"}},
		{"basic bg", screen.Style{Bg: screen.Indexed(7)}, []string{"47"}},
		{"bright fg", screen.Style{Fg: screen.Indexed(8)}, []string{"90"}},
		{"bright bg", screen.Style{Bg: screen.Indexed(15)}, []string{"107"}},
		{"palette", screen.Style{Fg: screen.Indexed(16), Bg: screen.Indexed(255)}, []string{"38;5;16", "48;5;255"}},
		{"rgb", screen.Style{Fg: screen.RGB(1, 2, 3), Bg: screen.RGB(4, 5, 6)}, []string{"38;2;1;2;3", "48;2;4;5;6"}},
		{"attrs then colours", screen.Style{Bold: true, Fg: screen.Indexed(1), Bg: screen.Indexed(2)}, []string{"1", "31", "42"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sgrCodes(tt.style))
		})
	}
}
