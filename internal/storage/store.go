package storage

import (
	"cmp"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/san-kum/hybridsim/internal/snapshot"
)

const (
	metadataFile  = "metadata.json"
	statesFile    = "states.csv"
	snapshotsFile = "snapshots.bin"
)

var csvHeader = []string{"time", "id", "mode", "x", "y", "z", "qw", "qx", "qy", "qz", "vx", "vy", "vz"}

type Store struct {
	baseDir string
	logger  *log.Logger
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

// SetLogger enables debug logging of writes.
func (s *Store) SetLogger(l *log.Logger) { s.logger = l }

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID             string             `json:"id"`
	Session        string             `json:"session,omitempty"`
	Scenario       string             `json:"scenario"`
	Backend        string             `json:"backend"`
	FellBack       bool               `json:"fell_back"`
	Reason         string             `json:"reason,omitempty"`
	Timestamp      time.Time          `json:"timestamp"`
	Dt             float64            `json:"dt"`
	Duration       float64            `json:"duration"`
	Ticks          uint64             `json:"ticks"`
	Objects        []string           `json:"objects"`
	Snapshots      int                `json:"snapshots"`
	SnapshotFormat int                `json:"snapshot_format"`
	Metrics        map[string]float64 `json:"metrics"`
}

// Save writes a new run directory and returns its id. The id, timestamp
// and snapshot fields of meta are filled in.
func (s *Store) Save(meta RunMetadata, rows []Row, snaps []snapshot.HybridSnapshot) (string, error) {
	runID := fmt.Sprintf("%s_%s", meta.Scenario, uuid.NewString()[:8])
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = time.Now()
	meta.Snapshots = len(snaps)
	meta.SnapshotFormat = snapshot.FormatVersion

	if err := writeFile(filepath.Join(runDir, metadataFile), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	}); err != nil {
		return "", err
	}

	if err := writeFile(filepath.Join(runDir, statesFile), func(w io.Writer) error {
		return writeRows(w, rows)
	}); err != nil {
		return "", err
	}

	if err := writeFile(filepath.Join(runDir, snapshotsFile), func(w io.Writer) error {
		return snapshot.Encode(w, snaps)
	}); err != nil {
		return "", err
	}

	if s.logger != nil {
		s.logger.Debug("run saved", "id", runID, "rows", len(rows), "snapshots", len(snaps))
	}
	return runID, nil
}

func writeFile(path string, fn func(w io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

func writeRows(out io.Writer, rows []Row) error {
	w := csv.NewWriter(out)
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	format := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	for _, r := range rows {
		rec := []string{format(r.Time), r.ID, r.Mode}
		for _, v := range r.Position {
			rec = append(rec, format(v))
		}
		for _, v := range r.Orientation {
			rec = append(rec, format(v))
		}
		for _, v := range r.Velocity {
			rec = append(rec, format(v))
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns stored runs, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	slices.SortFunc(runs, func(a, b RunMetadata) int {
		return cmp.Or(b.Timestamp.Compare(a.Timestamp), cmp.Compare(a.ID, b.ID))
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadStates reads states.csv. Malformed rows are skipped.
func (s *Store) LoadStates(runID string) ([]Row, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, statesFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []Row{}, nil
	}

	rows := make([]Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		row, err := parseRow(rec)
		if err != nil {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

var errShortRow = errors.New("short row")

func parseRow(rec []string) (Row, error) {
	if len(rec) != len(csvHeader) {
		return Row{}, errShortRow
	}
	vals := make([]float64, 0, 11)
	for _, field := range append([]string{rec[0]}, rec[3:]...) {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return Row{}, err
		}
		vals = append(vals, v)
	}
	return Row{
		Time:        vals[0],
		ID:          rec[1],
		Mode:        rec[2],
		Position:    [3]float64{vals[1], vals[2], vals[3]},
		Orientation: [4]float64{vals[4], vals[5], vals[6], vals[7]},
		Velocity:    [3]float64{vals[8], vals[9], vals[10]},
	}, nil
}

func (s *Store) LoadSnapshots(runID string) ([]snapshot.HybridSnapshot, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, snapshotsFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return snapshot.Decode(f)
}
