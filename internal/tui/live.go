package tui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/hybridsim/internal/sim"
)

const (
	width       = 70
	height      = 20
	trailLength = 40
	clearScreen = "\033[2J\033[H"
	hideCursor  = "\033[?25l"
	showCursor  = "\033[?25h"
)

// LiveRenderer draws published frames to a terminal as plain text. It is
// a sim.FrameListener and drops frames beyond its frame rate.
type LiveRenderer struct {
	out       io.Writer
	title     string
	frameRate int
	lastFrame time.Time
	canvas    *canvas
	view      *view
	trails    *trails
}

func NewLiveRenderer(out io.Writer, title string, frameRate int) *LiveRenderer {
	return &LiveRenderer{
		out:       out,
		title:     title,
		frameRate: frameRate,
		canvas:    newCanvas(width, height),
		view:      newView(),
		trails:    newTrails(trailLength),
	}
}

func (r *LiveRenderer) Observe(f sim.Frame) error {
	r.trails.push(f, r.view)
	if r.frameRate > 0 && time.Since(r.lastFrame) < time.Second/time.Duration(r.frameRate) {
		return nil
	}
	r.lastFrame = time.Now()

	r.canvas.clear()
	draw(r.canvas, f, r.view, r.trails)

	var b strings.Builder
	b.WriteString(clearScreen)
	fmt.Fprintf(&b, "  %s  t=%.2fs  tick=%d  substeps=%d\n", r.title, f.Time, f.Tick, f.SubSteps)
	b.WriteString("  " + strings.Repeat("-", width) + "\n")
	for _, row := range r.canvas.rows() {
		b.WriteString("  " + row + "\n")
	}
	b.WriteString("  " + strings.Repeat("-", width) + "\n")
	for _, o := range f.Objects {
		p := o.State.Position()
		fmt.Fprintf(&b, "  %c %-10s %-12s (%.2f, %.2f, %.2f)\n", glyph(o.Mode), o.ID, o.Mode, p[0], p[1], p[2])
	}
	for _, e := range f.Transitions {
		if e.Changed() {
			fmt.Fprintf(&b, "  ! %s\n", e)
		}
	}

	_, err := io.WriteString(r.out, b.String())
	return err
}

func (r *LiveRenderer) Start() { fmt.Fprint(r.out, hideCursor) }
func (r *LiveRenderer) Stop()  { fmt.Fprint(r.out, showCursor) }

// trails keeps the recent XY history of every object.
type trails struct {
	limit  int
	points map[string][]mgl64.Vec3
}

func newTrails(limit int) *trails {
	return &trails{limit: limit, points: make(map[string][]mgl64.Vec3)}
}

func (t *trails) push(f sim.Frame, v *view) {
	for _, o := range f.Objects {
		p := o.State.Position()
		v.include(p)
		pts := append(t.points[o.ID], p)
		if len(pts) > t.limit {
			pts = pts[1:]
		}
		t.points[o.ID] = pts
	}
}

func (t *trails) reset() { clear(t.points) }

// draw renders trails first and objects on top.
func draw(c *canvas, f sim.Frame, v *view, t *trails) {
	for _, pts := range t.points {
		for i, p := range pts {
			x, y := v.cell(p, c.w, c.h)
			if c.get(x, y) != ' ' {
				continue
			}
			if i < len(pts)/2 {
				c.set(x, y, '.')
			} else {
				c.set(x, y, ':')
			}
		}
	}
	for _, o := range f.Objects {
		x, y := v.cell(o.State.Position(), c.w, c.h)
		c.set(x, y, glyph(o.Mode))
	}
}
