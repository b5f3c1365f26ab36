package snapshot

import (
	"fmt"
	"io"
	"slices"

	"github.com/google/uuid"
)

// Recorder appends snapshots in call order. It is not synchronized.
type Recorder struct {
	session uuid.UUID
	snaps   []HybridSnapshot
}

func NewRecorder() *Recorder {
	return &Recorder{session: uuid.New()}
}

// Session identifies one recording; Reset starts a new one.
func (r *Recorder) Session() uuid.UUID { return r.session }

func (r *Recorder) Record(s HybridSnapshot) { r.snaps = append(r.snaps, s) }

func (r *Recorder) Len() int { return len(r.snaps) }

func (r *Recorder) At(i int) (HybridSnapshot, bool) {
	if i < 0 || i >= len(r.snaps) {
		return HybridSnapshot{}, false
	}
	return r.snaps[i], true
}

func (r *Recorder) Snapshots() []HybridSnapshot { return slices.Clone(r.snaps) }

// Replay calls fn for every snapshot in recorded order and stops at the
// first error.
func (r *Recorder) Replay(fn func(i int, s HybridSnapshot) error) error {
	for i, s := range r.snaps {
		if err := fn(i, s); err != nil {
			return fmt.Errorf("replay snapshot %d: %w", i, err)
		}
	}
	return nil
}

func (r *Recorder) Reset() {
	r.snaps = nil
	r.session = uuid.New()
}

func (r *Recorder) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	err := Encode(cw, r.snaps)
	return cw.n, err
}

// Load replaces the recording with the snapshots decoded from rd.
func (r *Recorder) Load(rd io.Reader) error {
	snaps, err := Decode(rd)
	if err != nil {
		return err
	}
	r.snaps = snaps
	return nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
