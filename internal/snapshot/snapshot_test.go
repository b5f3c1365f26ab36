package snapshot_test

import (
	"bytes"
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/hybridsim/internal/physics"
	"github.com/san-kum/hybridsim/internal/snapshot"
)

func state(x, vx, ts float64) physics.BodyState {
	q := mgl64.QuatRotate(x/10, mgl64.Vec3{0, 0, 1})
	return physics.MustBodyState(mgl64.Vec3{x, x / 3, -x}, q, mgl64.Vec3{vx, 0, 0.125}, mgl64.Vec3{0, 0.1, 0}, physics.FrameInertial, ts)
}

func sample(t float64) snapshot.HybridSnapshot {
	return snapshot.MustNew(t, 0.25, 0.01,
		map[snapshot.Handle]physics.BodyState{1: state(t, 1, t), 7: state(t+math.Pi, -2, t)},
		map[snapshot.Handle]physics.BodyState{3: state(1e6+t, 7.5, t)},
	)
}

var _ = Describe("HybridSnapshot", func() {
	It("deep-copies the maps it is built from", func() {
		general := map[snapshot.Handle]physics.BodyState{1: state(1, 0, 0)}
		s := snapshot.MustNew(1, 0, 0, general, nil)

		general[2] = state(2, 0, 0)
		Expect(s.General()).To(HaveLen(1))

		out := s.General()
		delete(out, 1)
		_, ok := s.GeneralState(1)
		Expect(ok).To(BeTrue())
		Expect(s.Orbital()).To(BeEmpty())
	})

	DescribeTable("rejects invalid scalars",
		func(t, alpha, extrapolation float64) {
			_, err := snapshot.New(t, alpha, extrapolation, nil, nil)
			Expect(err).To(MatchError(snapshot.ErrInvalidArgument))
		},
		Entry("negative alpha", 0.0, -0.1, 0.0),
		Entry("alpha above one", 0.0, 1.5, 0.0),
		Entry("NaN alpha", 0.0, math.NaN(), 0.0),
		Entry("negative extrapolation", 0.0, 0.5, -1.0),
		Entry("negative time", -1.0, 0.5, 0.0),
		Entry("infinite time", math.Inf(1), 0.5, 0.0),
	)

	It("rejects unset states", func() {
		_, err := snapshot.New(0, 0, 0, map[snapshot.Handle]physics.BodyState{1: {}}, nil)
		Expect(err).To(MatchError(snapshot.ErrInvalidArgument))
	})

	It("accepts the alpha bounds", func() {
		_, err := snapshot.New(0, 0, 0, nil, nil)
		Expect(err).NotTo(HaveOccurred())
		_, err = snapshot.New(0, 1, 0, nil, nil)
		Expect(err).NotTo(HaveOccurred())
	})

	It("lists handles from both maps", func() {
		Expect(sample(1).Handles()).To(Equal([]snapshot.Handle{1, 3, 7}))
	})
})

var _ = Describe("Codec", func() {
	It("round-trips snapshots exactly", func() {
		in := []snapshot.HybridSnapshot{sample(0), sample(0.02), sample(123.456)}

		data, err := snapshot.Marshal(in)
		Expect(err).NotTo(HaveOccurred())

		out, err := snapshot.Unmarshal(data)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(HaveLen(len(in)))
		for i := range in {
			Expect(out[i].Equal(in[i])).To(BeTrue(), "snapshot %d", i)
			Expect(out[i].Time()).To(Equal(in[i].Time()))
			Expect(out[i].Alpha()).To(Equal(in[i].Alpha()))
			Expect(out[i].Extrapolation()).To(Equal(in[i].Extrapolation()))
			Expect(out[i].General()).To(HaveLen(2))
			Expect(out[i].Orbital()).To(HaveLen(1))
		}
	})

	It("round-trips an empty sequence", func() {
		var buf bytes.Buffer
		Expect(snapshot.Encode(&buf, nil)).To(Succeed())
		out, err := snapshot.Decode(&buf)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(BeEmpty())
	})

	It("produces identical bytes for equal input", func() {
		a, err := snapshot.Marshal([]snapshot.HybridSnapshot{sample(5)})
		Expect(err).NotTo(HaveOccurred())
		b, err := snapshot.Marshal([]snapshot.HybridSnapshot{sample(5)})
		Expect(err).NotTo(HaveOccurred())
		Expect(a).To(Equal(b))
	})

	It("rejects garbage", func() {
		_, err := snapshot.Unmarshal([]byte{0xc1, 0x00, 0x12})
		Expect(err).To(MatchError(snapshot.ErrCorrupt))
	})

	It("rejects truncated input", func() {
		data, err := snapshot.Marshal([]snapshot.HybridSnapshot{sample(1)})
		Expect(err).NotTo(HaveOccurred())
		_, err = snapshot.Unmarshal(data[:len(data)/2])
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Recorder", func() {
	It("replays in recorded order", func() {
		rec := snapshot.NewRecorder()
		times := []float64{0.5, 0.1, 0.3, 0.2}
		for _, t := range times {
			rec.Record(sample(t))
		}
		Expect(rec.Len()).To(Equal(4))

		var seen []float64
		Expect(rec.Replay(func(i int, s snapshot.HybridSnapshot) error {
			Expect(i).To(Equal(len(seen)))
			seen = append(seen, s.Time())
			return nil
		})).To(Succeed())
		Expect(seen).To(Equal(times))
	})

	It("stops replay at the first error", func() {
		rec := snapshot.NewRecorder()
		rec.Record(sample(0))
		rec.Record(sample(1))

		boom := errors.New("boom")
		calls := 0
		err := rec.Replay(func(int, snapshot.HybridSnapshot) error {
			calls++
			return boom
		})
		Expect(err).To(MatchError(boom))
		Expect(calls).To(Equal(1))
	})

	It("persists and reloads a recording", func() {
		rec := snapshot.NewRecorder()
		rec.Record(sample(1))
		rec.Record(sample(2))

		var buf bytes.Buffer
		n, err := rec.WriteTo(&buf)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(BeNumerically("==", buf.Len()))

		other := snapshot.NewRecorder()
		Expect(other.Load(&buf)).To(Succeed())
		Expect(other.Len()).To(Equal(2))
		s, ok := other.At(1)
		Expect(ok).To(BeTrue())
		Expect(s.Equal(sample(2))).To(BeTrue())
		_, ok = other.At(2)
		Expect(ok).To(BeFalse())
	})

	It("starts a new session on reset", func() {
		rec := snapshot.NewRecorder()
		rec.Record(sample(0))
		first := rec.Session()
		rec.Reset()
		Expect(rec.Len()).To(BeZero())
		Expect(rec.Session()).NotTo(Equal(first))
	})
})

var _ = Describe("Interpolate", func() {
	It("lerps positions and keeps next's handle set", func() {
		prev := snapshot.MustNew(1, 0, 0, map[snapshot.Handle]physics.BodyState{
			1: physics.MustBodyState(mgl64.Vec3{0, 0, 0}, mgl64.QuatIdent(), mgl64.Vec3{}, mgl64.Vec3{}, physics.FrameWorld, 1),
			2: state(3, 0, 1),
		}, nil)
		next := snapshot.MustNew(2, 0, 0, map[snapshot.Handle]physics.BodyState{
			1: physics.MustBodyState(mgl64.Vec3{10, 0, 0}, mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 0, 1}), mgl64.Vec3{}, mgl64.Vec3{}, physics.FrameWorld, 2),
			3: state(4, 0, 2),
		}, nil)

		mid, err := snapshot.Interpolate(prev, next, 0.5)
		Expect(err).NotTo(HaveOccurred())
		Expect(mid.Time()).To(BeNumerically("~", 1.5, 1e-12))
		Expect(mid.Handles()).To(Equal([]snapshot.Handle{1, 3}))

		s, _ := mid.GeneralState(1)
		Expect(s.Position().X()).To(BeNumerically("~", 5, 1e-12))
		Expect(s.Timestamp()).To(BeNumerically("~", 1.5, 1e-12))

		want := mgl64.QuatRotate(math.Pi/4, mgl64.Vec3{0, 0, 1})
		Expect(math.Abs(s.Orientation().Dot(want))).To(BeNumerically("~", 1, 1e-9))
	})

	It("returns the endpoints at alpha 0 and 1", func() {
		a, b := sample(1), sample(2)

		lo, err := snapshot.Interpolate(a, b, 0)
		Expect(err).NotTo(HaveOccurred())
		s, _ := lo.GeneralState(1)
		want, _ := a.GeneralState(1)
		Expect(s.Position().Sub(want.Position()).Len()).To(BeNumerically("<", 1e-12))

		hi, err := snapshot.Interpolate(a, b, 1)
		Expect(err).NotTo(HaveOccurred())
		s, _ = hi.GeneralState(1)
		want, _ = b.GeneralState(1)
		Expect(s.Position().Sub(want.Position()).Len()).To(BeNumerically("<", 1e-12))
	})

	It("rejects alpha outside [0,1]", func() {
		_, err := snapshot.Interpolate(sample(0), sample(1), 1.1)
		Expect(err).To(MatchError(snapshot.ErrInvalidArgument))
	})
})
