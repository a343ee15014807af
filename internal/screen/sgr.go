package screen

import "github.com/charmbracelet/x/ansi"

// selectGraphicRendition applies an SGR parameter list to the pen.
func (s *Screen) selectGraphicRendition(params ansi.Params) {
	if len(params) == 0 {
		s.pen = Style{}
		return
	}
	for i := 0; i < len(params); i++ {
		// a parameter and the ':' sub-parameters that follow it
		end := i
		for end < len(params)-1 && params[end].HasMore() {
			end++
		}
		group := params[i : end+1]

		switch code := group[0].Param(0); {
		case code == 0:
			s.pen = Style{}
		case code == 1:
			s.pen.Bold = true
		case code == 3:
			s.pen.Italic = true
		case code == 4:
			// 4:0 is the colon form of "no underline"
			s.pen.Underline = len(group) < 2 || group[1].Param(1) != 0
		case code == 7:
			s.pen.Inverse = true
		case code == 22:
			s.pen.Bold = false
		case code == 23:
			s.pen.Italic = false
		case code == 24:
			s.pen.Underline = false
		case code == 27:
			s.pen.Inverse = false
		case code >= 30 && code <= 37:
			s.pen.Fg = Indexed(uint8(code - 30))
		case code == 38:
			if c, ok := extendedColor(params, group, &end); ok {
				s.pen.Fg = c
			}
		case code == 39:
			s.pen.Fg = DefaultColor
		case code >= 40 && code <= 47:
			s.pen.Bg = Indexed(uint8(code - 40))
		case code == 48:
			if c, ok := extendedColor(params, group, &end); ok {
				s.pen.Bg = c
			}
		case code == 49:
			s.pen.Bg = DefaultColor
		case code >= 90 && code <= 97:
			s.pen.Fg = Indexed(uint8(code - 90 + 8))
		case code >= 100 && code <= 107:
			s.pen.Bg = Indexed(uint8(code - 100 + 8))
		}
		i = end
	}
}

// extendedColor decodes the colour introduced by a 38 or 48, either from
// its ':' sub-parameters (38:5:n, 38:2::r:g:b) or from the ';' parameters
// after it (38;5;n, 38;2;r;g;b). In the ';' form *end is advanced past the
// parameters consumed.
func extendedColor(params, group ansi.Params, end *int) (Color, bool) {
	if sub := group[1:]; len(sub) > 0 {
		switch mode := sub[0].Param(-1); {
		case mode == 5 && len(sub) >= 2:
			return Indexed(channel(sub[1])), true
		case mode == 2 && len(sub) >= 5:
			return RGB(channel(sub[2]), channel(sub[3]), channel(sub[4])), true
		case mode == 2 && len(sub) == 4:
			return RGB(channel(sub[1]), channel(sub[2]), channel(sub[3])), true
		}
		return Color{}, false
	}

	rest := params[*end+1:]
	mode, _, _ := rest.Param(0, -1)
	switch {
	case mode == 5 && len(rest) >= 2:
		*end += 2
		return Indexed(channel(rest[1])), true
	case mode == 2 && len(rest) >= 4:
		*end += 4
		return RGB(channel(rest[1]), channel(rest[2]), channel(rest[3])), true
	}
	*end = len(params) - 1
	return Color{}, false
}

func channel(p ansi.Param) uint8 {
	return uint8(clamp(p.Param(0), 0, 255))
}
