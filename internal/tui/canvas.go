package tui

import (
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/hybridsim/internal/coupling"
)

// Mode glyphs drawn for each object.
var modeGlyph = map[coupling.Mode]rune{
	coupling.OrbitalOnly: 'o',
	coupling.RigidOnly:   '#',
	coupling.Coupled:     '@',
}

func glyph(m coupling.Mode) rune {
	if g, ok := modeGlyph[m]; ok {
		return g
	}
	return '?'
}

type canvas struct {
	w, h  int
	cells [][]rune
}

func newCanvas(w, h int) *canvas {
	c := &canvas{w: w, h: h, cells: make([][]rune, h)}
	for i := range c.cells {
		c.cells[i] = make([]rune, w)
	}
	c.clear()
	return c
}

func (c *canvas) clear() {
	for y := range c.cells {
		for x := range c.cells[y] {
			c.cells[y][x] = ' '
		}
	}
}

func (c *canvas) set(x, y int, r rune) {
	if x >= 0 && x < c.w && y >= 0 && y < c.h {
		c.cells[y][x] = r
	}
}

func (c *canvas) get(x, y int) rune {
	if x >= 0 && x < c.w && y >= 0 && y < c.h {
		return c.cells[y][x]
	}
	return ' '
}

func (c *canvas) line(x1, y1, x2, y2 int, r rune) {
	dx := abs(x2 - x1)
	dy := abs(y2 - y1)
	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}
	err := dx - dy
	for {
		c.set(x1, y1, r)
		if x1 == x2 && y1 == y2 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

func (c *canvas) rows() []string {
	out := make([]string, len(c.cells))
	for i, row := range c.cells {
		out[i] = string(row)
	}
	return out
}

func (c *canvas) String() string { return strings.Join(c.rows(), "\n") }

// view maps the world XY plane onto the canvas. Its bounds only grow, so
// the picture does not jitter as objects move.
type view struct {
	minX, maxX float64
	minY, maxY float64
	empty      bool
}

func newView() *view { return &view{empty: true} }

func (v *view) include(p mgl64.Vec3) {
	if v.empty {
		v.minX, v.maxX, v.minY, v.maxY = p[0], p[0], p[1], p[1]
		v.empty = false
		return
	}
	v.minX = math.Min(v.minX, p[0])
	v.maxX = math.Max(v.maxX, p[0])
	v.minY = math.Min(v.minY, p[1])
	v.maxY = math.Max(v.maxY, p[1])
}

// cell projects p. Y grows upwards in the world and downwards on screen.
func (v *view) cell(p mgl64.Vec3, w, h int) (int, int) {
	if v.empty || w < 2 || h < 2 {
		return w / 2, h / 2
	}
	spanX := math.Max(v.maxX-v.minX, 1) * 1.1
	spanY := math.Max(v.maxY-v.minY, 1) * 1.1
	cx := (v.minX + v.maxX) / 2
	cy := (v.minY + v.maxY) / 2
	x := int(math.Round((p[0]-cx)/spanX*float64(w-1))) + w/2
	y := h/2 - int(math.Round((p[1]-cy)/spanY*float64(h-1)))
	return x, y
}

func sparkline(data []float64, width int) string {
	if len(data) == 0 {
		return ""
	}
	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	minVal, maxVal := data[0], data[0]
	for _, v := range data {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	rang := maxVal - minVal
	if rang == 0 {
		rang = 1
	}
	step := max(len(data)/width, 1)
	var sb strings.Builder
	for i := 0; i < width && i*step < len(data); i++ {
		idx := int((data[i*step] - minVal) / rang * 7)
		sb.WriteRune(chars[min(max(idx, 0), 7)])
	}
	return sb.String()
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
