package main

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/samber/lo"
	"github.com/san-kum/hybridsim/internal/analysis"
	"github.com/san-kum/hybridsim/internal/export"
	"github.com/san-kum/hybridsim/internal/snapshot"
	"github.com/san-kum/hybridsim/internal/storage"
	"github.com/spf13/cobra"
)

var axisNames = []string{"x", "y", "z"}

func sortedKeys[V any](m map[string]V) []string {
	keys := lo.Keys(m)
	slices.Sort(keys)
	return keys
}

func checkAxis() error {
	if axis < 0 || axis > 2 {
		return fmt.Errorf("axis must be 0, 1 or 2, got %d", axis)
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tDURATION\tDT\tBACKEND\tTICKS\tSNAPSHOTS")

	for _, run := range runs {
		be := run.Backend
		if run.FellBack {
			be += "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%s\t%d\t%d\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			be,
			run.Ticks,
			run.Snapshots,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	if err := checkAxis(); err != nil {
		return err
	}
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	rows, err := st.LoadStates(runID)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("no data to plot")
	}

	ids := meta.Objects
	if objectID != "" {
		ids = []string{objectID}
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s\n", meta.Scenario)
	fmt.Printf("samples: %d\n\n", len(rows))

	for _, id := range ids {
		_, data := storage.Series(rows, id, axis)
		if len(data) == 0 {
			if objectID != "" {
				return fmt.Errorf("no samples for object %s", id)
			}
			continue
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("%s %s vs time", id, axisNames[axis])),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	if err := checkAxis(); err != nil {
		return err
	}
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	rows, err := st.LoadStates(runID)
	if err != nil {
		return err
	}

	fmt.Printf("frequency analysis: %s (%s axis)\n\n", meta.ID, axisNames[axis])
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "OBJECT\tFREQUENCY\tPERIOD")
	for _, id := range meta.Objects {
		times, data := storage.Series(rows, id, axis)
		if len(times) < 2 {
			continue
		}
		hz, ok := analysis.DominantFrequency(data, times[1]-times[0])
		if !ok {
			fmt.Fprintf(w, "%s\t-\t-\n", id)
			continue
		}
		fmt.Fprintf(w, "%s\t%.3f hz\t%.3f s\n", id, hz, 1/hz)
	}
	return w.Flush()
}

func replayRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	snaps, err := st.LoadSnapshots(runID)
	if err != nil {
		return err
	}
	if len(snaps) == 0 {
		return fmt.Errorf("run %s has no snapshots, run it with --record", runID)
	}

	rec := snapshot.NewRecorder()
	for _, s := range snaps {
		rec.Record(s)
	}

	name := func(h snapshot.Handle) string {
		if int(h) < len(meta.Objects) {
			return meta.Objects[h]
		}
		return fmt.Sprintf("#%d", h)
	}

	var prev snapshot.HybridSnapshot
	step := max(every, 1)
	return rec.Replay(func(i int, s snapshot.HybridSnapshot) error {
		defer func() { prev = s }()
		if i%step != 0 {
			return nil
		}

		// Render at the sub-step blend point when there is a previous frame.
		view := s
		if i > 0 {
			v, err := snapshot.Interpolate(prev, s, s.Alpha())
			if err != nil {
				return err
			}
			view = v
		}

		var b strings.Builder
		fmt.Fprintf(&b, "t=%.3f alpha=%.2f", s.Time(), s.Alpha())
		for _, h := range view.Handles() {
			bs, _ := view.GeneralState(h)
			p := bs.Position()
			marker := ""
			if _, ok := view.OrbitalState(h); ok {
				marker = "~"
			}
			fmt.Fprintf(&b, "  %s%s(%.2f, %.2f, %.2f)", name(h), marker, p[0], p[1], p[2])
		}
		fmt.Println(b.String())
		return nil
	})
}

func output() (io.WriteCloser, error) {
	if outFile == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(outFile)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func exportJSON(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	rows, err := st.LoadStates(runID)
	if err != nil {
		return err
	}

	if outFile != "" {
		return storage.ExportJSONFile(outFile, *meta, rows)
	}
	return storage.ExportJSON(os.Stdout, *meta, rows)
}

func exportSVG(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	rows, err := st.LoadStates(runID)
	if err != nil {
		return err
	}

	var svg string
	if phase {
		if err := checkAxis(); err != nil {
			return err
		}
		if objectID == "" {
			return fmt.Errorf("--phase needs --object")
		}
		svg = export.PhaseToSVG(analysis.NewPhasePortrait(rows, objectID, axis), 800, 600, "#00ff9c")
	} else {
		svg = export.TrajectoriesToSVG(rows, 800, 600)
	}
	if svg == "" {
		return fmt.Errorf("not enough data to draw")
	}

	w, err := output()
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, svg); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
