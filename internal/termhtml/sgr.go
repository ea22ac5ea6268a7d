package termhtml

import (
	"fmt"
	"strconv"
	"strings"
)

type colorKind uint8

const (
	colorNone colorKind = iota
	colorRGB
)

type color struct {
	kind    colorKind
	r, g, b uint8
}

func rgb(r, g, b uint8) color { return color{kind: colorRGB, r: r, g: g, b: b} }

func (c color) hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.r, c.g, c.b)
}

// basePalette holds the 16 standard colors: 0-7 normal, 8-15 bright.
var basePalette = [16]color{
	rgb(0, 0, 0), rgb(187, 0, 0), rgb(0, 187, 0), rgb(187, 187, 0),
	rgb(0, 0, 187), rgb(187, 0, 187), rgb(0, 187, 187), rgb(255, 255, 255),
	rgb(85, 85, 85), rgb(255, 85, 85), rgb(0, 255, 0), rgb(255, 255, 85),
	rgb(85, 85, 255), rgb(255, 85, 255), rgb(85, 255, 255), rgb(255, 255, 255),
}

var cubeLevels = [6]uint8{0, 95, 135, 175, 215, 255}

// paletteColor resolves an xterm 256 color index.
func paletteColor(idx int) (color, bool) {
	switch {
	case idx < 0 || idx > 255:
		return color{}, false
	case idx < 16:
		return basePalette[idx], true
	case idx < 232:
		idx -= 16
		return rgb(cubeLevels[idx/36], cubeLevels[(idx/6)%6], cubeLevels[idx%6]), true
	default:
		level := uint8(8 + 10*(idx-232))
		return rgb(level, level, level), true
	}
}

// style is the SGR state in effect for the text being written.
type style struct {
	bold      bool
	faint     bool
	italic    bool
	underline bool
	strike    bool
	inverse   bool
	fg        color
	bg        color
}

func (s style) isZero() bool { return s == style{} }

// css renders the style as a compact inline declaration list. Every
// declaration ends with ';' and matches stylePattern.
func (s style) css() string {
	fg, bg := s.fg, s.bg
	if s.inverse {
		fg, bg = bg, fg
		if fg.kind == colorNone {
			fg = basePalette[0]
		}
		if bg.kind == colorNone {
			bg = basePalette[7]
		}
	}

	var b strings.Builder
	if fg.kind != colorNone {
		b.WriteString("color:" + fg.hex() + ";")
	}
	if bg.kind != colorNone {
		b.WriteString("background-color:" + bg.hex() + ";")
	}
	if s.bold {
		b.WriteString("font-weight:bold;")
	}
	if s.faint {
		b.WriteString("opacity:0.7;")
	}
	if s.italic {
		b.WriteString("font-style:italic;")
	}
	switch {
	case s.underline && s.strike:
		b.WriteString("text-decoration:underline line-through;")
	case s.underline:
		b.WriteString("text-decoration:underline;")
	case s.strike:
		b.WriteString("text-decoration:line-through;")
	}
	return b.String()
}

// applySGR folds the parameter list of one SGR sequence into s. ok is false
// when the parameter list is not a valid SGR list; s is then unchanged.
func applySGR(s style, params string) (style, bool) {
	codes, ok := parseParams(params)
	if !ok {
		return s, false
	}
	if len(codes) == 0 {
		return style{}, true
	}

	next := s
	for i := 0; i < len(codes); i++ {
		code := codes[i]
		switch {
		case code == 0:
			next = style{}
		case code == 1:
			next.bold = true
		case code == 2:
			next.faint = true
		case code == 3:
			next.italic = true
		case code == 4:
			next.underline = true
		case code == 7:
			next.inverse = true
		case code == 9:
			next.strike = true
		case code == 21 || code == 22:
			next.bold, next.faint = false, false
		case code == 23:
			next.italic = false
		case code == 24:
			next.underline = false
		case code == 27:
			next.inverse = false
		case code == 29:
			next.strike = false
		case code >= 30 && code <= 37:
			next.fg = basePalette[code-30]
		case code == 39:
			next.fg = color{}
		case code >= 40 && code <= 47:
			next.bg = basePalette[code-40]
		case code == 49:
			next.bg = color{}
		case code >= 90 && code <= 97:
			next.fg = basePalette[code-90+8]
		case code >= 100 && code <= 107:
			next.bg = basePalette[code-100+8]
		case code == 38 || code == 48:
			c, consumed, valid := extendedColor(codes[i+1:])
			if !valid {
				return s, false
			}
			i += consumed
			if code == 38 {
				next.fg = c
			} else {
				next.bg = c
			}
		default:
			// Blink, conceal, fonts and friends have no rendering here.
		}
	}
	return next, true
}

// extendedColor parses the tail of a 38/48 selector: "5;n" or "2;r;g;b".
func extendedColor(rest []int) (color, int, bool) {
	if len(rest) == 0 {
		return color{}, 0, false
	}
	switch rest[0] {
	case 5:
		if len(rest) < 2 {
			return color{}, 0, false
		}
		c, ok := paletteColor(rest[1])
		return c, 2, ok
	case 2:
		if len(rest) < 4 {
			return color{}, 0, false
		}
		for _, v := range rest[1:4] {
			if v > 255 {
				return color{}, 0, false
			}
		}
		return rgb(uint8(rest[1]), uint8(rest[2]), uint8(rest[3])), 4, true
	default:
		return color{}, 0, false
	}
}

// parseParams splits an SGR parameter string. Empty parameters count as 0 and
// ':' sub-parameters are treated like ';'.
func parseParams(params string) ([]int, bool) {
	if params == "" {
		return nil, true
	}
	fields := strings.Split(strings.ReplaceAll(params, ":", ";"), ";")
	codes := make([]int, 0, len(fields))
	for _, f := range fields {
		if f == "" {
			codes = append(codes, 0)
			continue
		}
		n, err := strconv.Atoi(f)
		if err != nil || n < 0 {
			return nil, false
		}
		codes = append(codes, n)
	}
	return codes, true
}
