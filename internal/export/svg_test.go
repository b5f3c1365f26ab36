package export

import (
	"strings"
	"testing"

	"github.com/san-kum/hybridsim/internal/analysis"
	"github.com/san-kum/hybridsim/internal/storage"
)

func TestTrajectoriesToSVG(t *testing.T) {
	if TrajectoriesToSVG(nil, 100, 100) != "" {
		t.Error("expected empty output for no rows")
	}

	rows := []storage.Row{
		{ID: "shuttle", Position: [3]float64{0, 0, 0}},
		{ID: "station", Position: [3]float64{5, 5, 0}},
		{ID: "shuttle", Position: [3]float64{1, 2, 0}},
	}
	svg := TrajectoriesToSVG(rows, 200, 100)
	if !strings.HasPrefix(svg, "<?xml") || !strings.HasSuffix(svg, "</svg>") {
		t.Fatal("not a complete svg document")
	}
	if strings.Count(svg, "<path") != 1 {
		t.Errorf("expected one path for the moving object, got %d", strings.Count(svg, "<path"))
	}
	if strings.Count(svg, "<circle") != 2 {
		t.Errorf("expected a marker per object, got %d", strings.Count(svg, "<circle"))
	}
	for _, id := range []string{"shuttle", "station"} {
		if !strings.Contains(svg, ">"+id+"<") {
			t.Errorf("legend missing %s", id)
		}
	}
}

func TestPhaseToSVG(t *testing.T) {
	if PhaseToSVG(nil, 10, 10, "#fff") != "" {
		t.Error("expected empty output for nil portrait")
	}
	p := &analysis.PhasePortrait{Points: []analysis.Point{{X: 0, Y: 1}, {X: 1, Y: 0}, {X: 0, Y: -1}}}
	svg := PhaseToSVG(p, 100, 100, "#00ff00")
	if !strings.Contains(svg, `stroke="#00ff00"`) || strings.Count(svg, " L") != 2 {
		t.Errorf("unexpected svg: %s", svg)
	}
}
