package terminal

import (
	"strings"
	"unicode"

	"github.com/charmbracelet/x/ansi"
)

// StripANSI removes escape sequences, leaving the printable text.
func StripANSI(s string) string {
	return ansi.Strip(s)
}

// CleanOutput trims trailing whitespace from every line and drops trailing
// empty lines. Applying it twice gives the same result as once.
func CleanOutput(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRightFunc(line, unicode.IsSpace)
	}
	end := len(lines)
	for end > 0 && lines[end-1] == "" {
		end--
	}
	return strings.Join(lines[:end], "\n")
}
