// Package keys maps human-readable key names to the byte sequences an
// xterm-compatible terminal sends for them.
package keys

import "strings"

// named holds every fixed key name, lower-cased.
var named = map[string]string{
	"enter":     "\r",
	"return":    "\r",
	"tab":       "\t",
	"escape":    "\x1b",
	"esc":       "\x1b",
	"backspace": "\x7f",
	"delete":    "\x1b[3~",
	"del":       "\x1b[3~",
	"space":     " ",

	"up":         "\x1b[A",
	"arrowup":    "\x1b[A",
	"down":       "\x1b[B",
	"arrowdown":  "\x1b[B",
	"right":      "\x1b[C",
	"arrowright": "\x1b[C",
	"left":       "\x1b[D",
	"arrowleft":  "\x1b[D",

	"home":     "\x1b[H",
	"end":      "\x1b[F",
	"pageup":   "\x1b[5~",
	"pgup":     "\x1b[5~",
	"pagedown": "\x1b[6~",
	"pgdn":     "\x1b[6~",
	"insert":   "\x1b[2~",
	"ins":      "\x1b[2~",

	// F1-F4 are SS3 encoded, the rest use the CSI tilde form.
	"f1":  "\x1bOP",
	"f2":  "\x1bOQ",
	"f3":  "\x1bOR",
	"f4":  "\x1bOS",
	"f5":  "\x1b[15~",
	"f6":  "\x1b[17~",
	"f7":  "\x1b[18~",
	"f8":  "\x1b[19~",
	"f9":  "\x1b[20~",
	"f10": "\x1b[21~",
	"f11": "\x1b[23~",
	"f12": "\x1b[24~",

	"ctrl+[":  "\x1b",
	"ctrl-[":  "\x1b",
	"ctrl+\\": "\x1c",
	"ctrl-\\": "\x1c",
	"ctrl+]":  "\x1d",
	"ctrl-]":  "\x1d",
	"ctrl+^":  "\x1e",
	"ctrl-^":  "\x1e",
	"ctrl+_":  "\x1f",
	"ctrl-_":  "\x1f",
}

var (
	ctrlPrefixes = []string{"ctrl+", "ctrl-", "c-"}
	altPrefixes  = []string{"alt+", "alt-", "m-"}
)

// Encode returns the bytes for a key name. Lookup is case-insensitive.
// Names it does not recognise are returned unchanged so they reach the
// shell as literal text.
func Encode(name string) []byte {
	seq, ok := Lookup(name)
	if !ok {
		return []byte(name)
	}
	return []byte(seq)
}

// Lookup reports the sequence for name and whether name is a known key.
func Lookup(name string) (string, bool) {
	key := strings.ToLower(name)
	if seq, ok := named[key]; ok {
		return seq, true
	}
	for _, prefix := range ctrlPrefixes {
		rest, found := strings.CutPrefix(key, prefix)
		if found && len(rest) == 1 && rest[0] >= 'a' && rest[0] <= 'z' {
			return string([]byte{rest[0] - 'a' + 1}), true
		}
	}
	for _, prefix := range altPrefixes {
		if rest, found := strings.CutPrefix(key, prefix); found {
			return "\x1b" + rest, true
		}
	}
	return "", false
}
