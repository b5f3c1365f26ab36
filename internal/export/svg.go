// Package export renders recorded runs as standalone SVG images.
package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/hybridsim/internal/analysis"
	"github.com/san-kum/hybridsim/internal/storage"
)

var palette = []string{"#00ff9c", "#ffd166", "#ef476f", "#4cc9f0", "#b388ff", "#f8961e"}

// bounds is a padded drawing area in world units.
type bounds struct {
	minX, maxX, minY, maxY float64
}

func (b *bounds) include(x, y float64) {
	b.minX, b.maxX = min(b.minX, x), max(b.maxX, x)
	b.minY, b.maxY = min(b.minY, y), max(b.maxY, y)
}

func (b bounds) padded() bounds {
	rangeX := b.maxX - b.minX
	rangeY := b.maxY - b.minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	return bounds{
		minX: b.minX - rangeX*0.1, maxX: b.maxX + rangeX*0.1,
		minY: b.minY - rangeY*0.1, maxY: b.maxY + rangeY*0.1,
	}
}

func (b bounds) project(x, y float64, width, height int) (float64, float64) {
	px := (x - b.minX) / (b.maxX - b.minX) * float64(width)
	py := float64(height) - (y-b.minY)/(b.maxY-b.minY)*float64(height)
	return px, py
}

func header(sb *strings.Builder, width, height int) {
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))
}

func path(sb *strings.Builder, pts []analysis.Point, b bounds, width, height int, stroke string) {
	sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="M`, stroke))
	for i, p := range pts {
		x, y := b.project(p.X, p.Y, width, height)
		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}
	sb.WriteString("\"/>\n")
}

// TrajectoriesToSVG draws the XY path of every object in rows, one color
// per object in order of first appearance, with a legend.
func TrajectoriesToSVG(rows []storage.Row, width, height int) string {
	if len(rows) == 0 {
		return ""
	}

	var order []string
	tracks := make(map[string][]analysis.Point)
	b := bounds{minX: rows[0].Position[0], maxX: rows[0].Position[0], minY: rows[0].Position[1], maxY: rows[0].Position[1]}
	for _, r := range rows {
		if _, ok := tracks[r.ID]; !ok {
			order = append(order, r.ID)
		}
		tracks[r.ID] = append(tracks[r.ID], analysis.Point{X: r.Position[0], Y: r.Position[1]})
		b.include(r.Position[0], r.Position[1])
	}
	b = b.padded()

	var sb strings.Builder
	header(&sb, width, height)
	for i, id := range order {
		color := palette[i%len(palette)]
		pts := tracks[id]
		if len(pts) > 1 {
			path(&sb, pts, b, width, height, color)
		}
		last := pts[len(pts)-1]
		x, y := b.project(last.X, last.Y, width, height)
		sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="3" fill="%s"/>
`, x, y, color))
		sb.WriteString(fmt.Sprintf(`<text x="8" y="%d" fill="%s" font-family="monospace" font-size="12">%s</text>
`, 16+14*i, color, id))
	}
	sb.WriteString("</svg>")
	return sb.String()
}

// PhaseToSVG draws a phase portrait as a single path.
func PhaseToSVG(p *analysis.PhasePortrait, width, height int, strokeColor string) string {
	if p == nil || len(p.Points) < 2 {
		return ""
	}
	minX, maxX, minY, maxY := p.Bounds()
	b := bounds{minX: minX, maxX: maxX, minY: minY, maxY: maxY}.padded()

	var sb strings.Builder
	header(&sb, width, height)
	path(&sb, p.Points, b, width, height, strokeColor)
	sb.WriteString("</svg>")
	return sb.String()
}
