package snapshot

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/hybridsim/internal/physics"
	"github.com/vmihailenco/msgpack/v5"
)

// FormatVersion is written at the head of every encoded stream.
const FormatVersion = 1

var (
	ErrUnsupportedVersion = errors.New("snapshot: unsupported format version")
	ErrCorrupt            = errors.New("snapshot: corrupt stream")
)

type wireState struct {
	_msgpack struct{} `msgpack:",as_array"`

	Position    [3]float64
	Orientation [4]float64
	Linear      [3]float64
	Angular     [3]float64
	Frame       uint8
	Timestamp   float64
}

type wireEntry struct {
	_msgpack struct{} `msgpack:",as_array"`

	Handle uint64
	State  wireState
}

type wireSnapshot struct {
	_msgpack struct{} `msgpack:",as_array"`

	Time          float64
	Alpha         float64
	Extrapolation float64
	General       []wireEntry
	Orbital       []wireEntry
}

type wireFile struct {
	_msgpack struct{} `msgpack:",as_array"`

	Version   int
	Snapshots []wireSnapshot
}

// Encode writes snaps in order. Map entries are written in ascending
// handle order so equal input always produces identical bytes.
func Encode(w io.Writer, snaps []HybridSnapshot) error {
	file := wireFile{Version: FormatVersion, Snapshots: make([]wireSnapshot, len(snaps))}
	for i, s := range snaps {
		file.Snapshots[i] = wireSnapshot{
			Time:          s.time,
			Alpha:         s.alpha,
			Extrapolation: s.extrapolation,
			General:       toWire(s.general),
			Orbital:       toWire(s.orbital),
		}
	}
	if err := msgpack.NewEncoder(w).Encode(&file); err != nil {
		return fmt.Errorf("encode snapshots: %w", err)
	}
	return nil
}

// Decode reads a stream written by Encode and validates every snapshot.
func Decode(r io.Reader) ([]HybridSnapshot, error) {
	var file wireFile
	if err := msgpack.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if file.Version != FormatVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, file.Version)
	}

	out := make([]HybridSnapshot, 0, len(file.Snapshots))
	for i, ws := range file.Snapshots {
		general, err := fromWire(ws.General)
		if err != nil {
			return nil, fmt.Errorf("snapshot %d general: %w", i, err)
		}
		orbital, err := fromWire(ws.Orbital)
		if err != nil {
			return nil, fmt.Errorf("snapshot %d orbital: %w", i, err)
		}
		s, err := New(ws.Time, ws.Alpha, ws.Extrapolation, general, orbital)
		if err != nil {
			return nil, fmt.Errorf("snapshot %d: %w", i, err)
		}
		out = append(out, s)
	}
	return out, nil
}

func Marshal(snaps []HybridSnapshot) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, snaps); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func Unmarshal(data []byte) ([]HybridSnapshot, error) {
	return Decode(bytes.NewReader(data))
}

func toWire(m map[Handle]physics.BodyState) []wireEntry {
	out := make([]wireEntry, 0, len(m))
	for _, h := range slices.Sorted(maps.Keys(m)) {
		s := m[h]
		p, q := s.Position(), s.Orientation()
		lin, ang := s.LinearVelocity(), s.AngularVelocity()
		out = append(out, wireEntry{
			Handle: uint64(h),
			State: wireState{
				Position:    [3]float64(p),
				Orientation: [4]float64{q.W, q.V[0], q.V[1], q.V[2]},
				Linear:      [3]float64(lin),
				Angular:     [3]float64(ang),
				Frame:       uint8(s.Frame()),
				Timestamp:   s.Timestamp(),
			},
		})
	}
	return out
}

func fromWire(entries []wireEntry) (map[Handle]physics.BodyState, error) {
	out := make(map[Handle]physics.BodyState, len(entries))
	for _, e := range entries {
		h := Handle(e.Handle)
		if _, dup := out[h]; dup {
			return nil, fmt.Errorf("%w: duplicate handle %d", ErrCorrupt, h)
		}
		ws := e.State
		q := mgl64.Quat{W: ws.Orientation[0], V: mgl64.Vec3{ws.Orientation[1], ws.Orientation[2], ws.Orientation[3]}}
		s, err := physics.NewBodyState(mgl64.Vec3(ws.Position), q, mgl64.Vec3(ws.Linear), mgl64.Vec3(ws.Angular), physics.Frame(ws.Frame), ws.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("%w: handle %d: %v", ErrCorrupt, h, err)
		}
		out[h] = s
	}
	return out, nil
}
