package sim_test

import (
	"context"
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/hybridsim/internal/coupling"
	"github.com/san-kum/hybridsim/internal/fixedstep"
	"github.com/san-kum/hybridsim/internal/orbital"
	"github.com/san-kum/hybridsim/internal/physics"
	"github.com/san-kum/hybridsim/internal/sim"
	"github.com/san-kum/hybridsim/internal/snapshot"
)

func ball(y float64) physics.BodyDefinition {
	sphere, err := physics.NewSphere(0.5)
	Expect(err).NotTo(HaveOccurred())
	initial := physics.MustBodyState(mgl64.Vec3{0, y, 0}, mgl64.QuatIdent(), mgl64.Vec3{}, mgl64.Vec3{}, physics.FrameWorld, 0)
	return physics.MustBodyDefinition(physics.Dynamic, 1, sphere, initial)
}

func baseline() *physics.BaselineWorld {
	w, err := physics.NewBaselineWorld(physics.DefaultTuning())
	Expect(err).NotTo(HaveOccurred())
	return w
}

var _ = Describe("Simulator", func() {
	var s *sim.Simulator

	Describe("tick", func() {
		BeforeEach(func() {
			s = sim.New(nil, nil)
			_, err := s.AddObject(sim.ObjectSpec{ID: "beacon", Mode: coupling.OrbitalOnly, Trajectory: orbital.Fixed(mgl64.Vec3{1, 2, 3})})
			Expect(err).NotTo(HaveOccurred())
		})

		It("runs phases in a fixed order", func() {
			var seen []sim.Phase
			s.AddPhaseListener(func(p sim.Phase, _ float64) error {
				seen = append(seen, p)
				return nil
			})

			_, err := s.Tick(0.1)
			Expect(err).NotTo(HaveOccurred())
			Expect(seen).To(Equal([]sim.Phase{sim.PhaseOrbital, sim.PhaseCoupling, sim.PhaseRigid, sim.PhaseStep, sim.PhasePublish}))

			_, err = s.Tick(0.1)
			Expect(err).NotTo(HaveOccurred())
			Expect(seen).To(HaveLen(10))
			Expect(seen[5:]).To(Equal(sim.Phases))
		})

		It("names phases", func() {
			var names []string
			for _, p := range sim.Phases {
				names = append(names, p.String())
			}
			Expect(names).To(Equal([]string{"orbital", "coupling", "rigid", "step", "publish"}))
		})

		It("runs listeners of one phase in registration order", func() {
			var order []int
			for i := range 3 {
				s.AddPhaseListener(func(p sim.Phase, _ float64) error {
					if p == sim.PhaseStep {
						order = append(order, i)
					}
					return nil
				})
			}
			_, err := s.Tick(0.1)
			Expect(err).NotTo(HaveOccurred())
			Expect(order).To(Equal([]int{0, 1, 2}))
		})

		It("returns the sum of every dt", func() {
			var want float64
			var times []float64
			s.AddPhaseListener(func(p sim.Phase, t float64) error {
				if p == sim.PhasePublish {
					times = append(times, t)
				}
				return nil
			})
			for _, dt := range []float64{0.1, 0.25, 0.05, 1.0 / 3} {
				want += dt
				got, err := s.Tick(dt)
				Expect(err).NotTo(HaveOccurred())
				Expect(got).To(Equal(want))
			}
			Expect(s.Time()).To(Equal(want))
			Expect(s.Ticks()).To(BeEquivalentTo(4))
			Expect(times[len(times)-1]).To(Equal(want))
		})

		It("rejects a bad dt without halting", func() {
			_, err := s.Tick(-1)
			Expect(err).To(MatchError(sim.ErrInvalidArgument))
			_, err = s.Tick(math.NaN())
			Expect(err).To(MatchError(sim.ErrInvalidArgument))
			_, err = s.Tick(0.1)
			Expect(err).NotTo(HaveOccurred())
		})

		It("propagates listener errors and halts", func() {
			boom := errors.New("boom")
			s.AddPhaseListener(func(p sim.Phase, _ float64) error {
				if p == sim.PhaseRigid {
					return boom
				}
				return nil
			})

			_, err := s.Tick(0.1)
			Expect(err).To(MatchError(boom))

			var te *sim.TickError
			Expect(errors.As(err, &te)).To(BeTrue())
			Expect(te.Phase).To(Equal(sim.PhaseRigid))
			Expect(te.Tick).To(BeEquivalentTo(1))
			Expect(s.Time()).To(BeZero())

			_, err = s.Tick(0.1)
			Expect(err).To(MatchError(sim.ErrHalted))
			Expect(s.Err()).To(HaveOccurred())
		})

		It("propagates transition listener errors from the coupling phase", func() {
			boom := errors.New("telemetry sink down")
			s.AddTransitionListener(func(coupling.Event) error { return boom })

			_, err := s.Tick(0.1)
			var te *sim.TickError
			Expect(errors.As(err, &te)).To(BeTrue())
			Expect(te.Phase).To(Equal(sim.PhaseCoupling))
			Expect(err).To(MatchError(boom))
		})

		It("publishes transforms keyed by registry index", func() {
			_, err := s.Tick(0.1)
			Expect(err).NotTo(HaveOccurred())

			idx, ok := s.Registry().Index("beacon")
			Expect(ok).To(BeTrue())
			tr, ok := s.Transforms().Get(idx)
			Expect(ok).To(BeTrue())
			Expect(tr.Position).To(Equal(mgl64.Vec3{1, 2, 3}))
			Expect(tr.Mode).To(Equal(coupling.OrbitalOnly))
			Expect(tr.Time).To(Equal(0.1))
		})

		It("emits telemetry every tick", func() {
			var events []coupling.Event
			s.AddTransitionListener(func(e coupling.Event) error {
				events = append(events, e)
				return nil
			})
			for range 3 {
				_, err := s.Tick(0.1)
				Expect(err).NotTo(HaveOccurred())
			}
			Expect(events).To(HaveLen(3))
			Expect(events[0].Reason).To(Equal(coupling.ReasonNoChange))
		})
	})

	Describe("objects", func() {
		It("validates specs", func() {
			s = sim.New(nil, nil)
			_, err := s.AddObject(sim.ObjectSpec{ID: "", Trajectory: orbital.Fixed(mgl64.Vec3{})})
			Expect(err).To(MatchError(sim.ErrInvalidArgument))

			_, err = s.AddObject(sim.ObjectSpec{ID: "ghost"})
			Expect(err).To(MatchError(sim.ErrInvalidArgument))

			_, err = s.AddObject(sim.ObjectSpec{ID: "rock", Mode: coupling.RigidOnly, Body: ball(0)})
			Expect(err).To(MatchError(sim.ErrInvalidArgument), "no world")

			_, err = s.AddObject(sim.ObjectSpec{ID: "a", Trajectory: orbital.Fixed(mgl64.Vec3{})})
			Expect(err).NotTo(HaveOccurred())
			_, err = s.AddObject(sim.ObjectSpec{ID: "a", Trajectory: orbital.Fixed(mgl64.Vec3{})})
			Expect(err).To(MatchError(sim.ErrInvalidArgument))
		})

		It("removes objects from every subsystem", func() {
			w := baseline()
			s = sim.New(w, nil)
			_, err := s.AddObject(sim.ObjectSpec{ID: "rock", Mode: coupling.RigidOnly, Body: ball(5)})
			Expect(err).NotTo(HaveOccurred())
			_, err = s.Tick(0.01)
			Expect(err).NotTo(HaveOccurred())

			Expect(s.RemoveObject("rock")).To(BeTrue())
			Expect(s.RemoveObject("rock")).To(BeFalse())
			Expect(w.Bodies()).To(BeEmpty())
			Expect(s.Registry().Len()).To(BeZero())
			Expect(s.Transforms().Len()).To(BeZero())
			_, ok := s.RigidStates().Load("rock")
			Expect(ok).To(BeFalse())
			Expect(s.Coupling().IDs()).To(BeEmpty())
		})

		It("publishes a zero-dt tick without stepping the world", func() {
			s = sim.New(baseline(), nil)
			_, err := s.AddObject(sim.ObjectSpec{ID: "rock", Mode: coupling.RigidOnly, Body: ball(10)})
			Expect(err).NotTo(HaveOccurred())

			var frames []sim.Frame
			s.AddFrameListener(func(f sim.Frame) error {
				frames = append(frames, f)
				return nil
			})
			_, err = s.Tick(0.01)
			Expect(err).NotTo(HaveOccurred())
			now, err := s.Tick(0)
			Expect(err).NotTo(HaveOccurred())

			Expect(now).To(Equal(0.01))
			Expect(s.Ticks()).To(BeEquivalentTo(2))
			Expect(frames).To(HaveLen(2))
			Expect(frames[1].Dt).To(BeZero())
			Expect(frames[1].SubSteps).To(BeZero())
			before, _ := frames[0].Object("rock")
			after, _ := frames[1].Object("rock")
			Expect(after.State.Position()).To(Equal(before.State.Position()))
		})

		It("lets the rigid world own rigid-only objects", func() {
			s = sim.New(baseline(), nil)
			_, err := s.AddObject(sim.ObjectSpec{ID: "rock", Mode: coupling.RigidOnly, Body: ball(10)})
			Expect(err).NotTo(HaveOccurred())

			var last sim.Frame
			s.AddFrameListener(func(f sim.Frame) error {
				last = f
				return nil
			})
			for range 20 {
				_, err := s.Tick(0.01)
				Expect(err).NotTo(HaveOccurred())
			}

			obj, ok := last.Object("rock")
			Expect(ok).To(BeTrue())
			Expect(obj.HasBody).To(BeTrue())
			Expect(obj.State.Position().Y()).To(BeNumerically("<", 10))
			Expect(obj.State.Timestamp()).To(BeNumerically("~", 0.2, 1e-12))

			buffered, ok := s.RigidStates().Load("rock")
			Expect(ok).To(BeTrue())
			Expect(buffered.Position().Y()).To(BeNumerically("~", obj.State.Position().Y(), 1e-12))
		})
	})

	Describe("coupling", func() {
		var w *physics.BaselineWorld

		BeforeEach(func() {
			w = baseline()
			policy, err := coupling.NewDistancePolicy(mgl64.Vec3{}, 5, 8, coupling.Coupled)
			Expect(err).NotTo(HaveOccurred())
			s = sim.New(w, policy)
			_, err = s.AddObject(sim.ObjectSpec{
				ID:         "shuttle",
				Mode:       coupling.OrbitalOnly,
				Trajectory: orbital.Linear(mgl64.Vec3{20, 0, 0}, mgl64.Vec3{-10, 0, 0}, 0),
				Body:       ball(0),
			})
			Expect(err).NotTo(HaveOccurred())
		})

		It("moves a body into the world on capture and out on release", func() {
			var reasons []coupling.Reason
			s.AddTransitionListener(func(e coupling.Event) error {
				if e.Changed() {
					reasons = append(reasons, e.Reason)
				}
				return nil
			})

			for range 2 {
				_, err := s.Tick(0.5)
				Expect(err).NotTo(HaveOccurred())
			}
			_, ok := s.Body("shuttle")
			Expect(ok).To(BeFalse())
			Expect(w.Bodies()).To(BeEmpty())

			_, err := s.Tick(0.5)
			Expect(err).NotTo(HaveOccurred())
			h, ok := s.Body("shuttle")
			Expect(ok).To(BeTrue())
			mode, _ := s.Coupling().Mode("shuttle")
			Expect(mode).To(Equal(coupling.Coupled))

			st, ok := w.State(h)
			Expect(ok).To(BeTrue())
			Expect(st.Position().X()).To(BeNumerically("<", 5.5))

			for range 3 {
				_, err := s.Tick(0.5)
				Expect(err).NotTo(HaveOccurred())
			}
			_, ok = s.Body("shuttle")
			Expect(ok).To(BeFalse())
			Expect(w.Bodies()).To(BeEmpty())
			Expect(reasons).To(Equal([]coupling.Reason{coupling.ReasonEnteredCaptureRadius, coupling.ReasonLeftReleaseRadius}))
		})

		It("publishes the trajectory for coupled objects", func() {
			for range 4 {
				_, err := s.Tick(0.5)
				Expect(err).NotTo(HaveOccurred())
			}
			idx, _ := s.Registry().Index("shuttle")
			tr, ok := s.Transforms().Get(idx)
			Expect(ok).To(BeTrue())
			Expect(tr.Mode).To(Equal(coupling.Coupled))
			Expect(tr.Position.X()).To(BeNumerically("~", 0, 1e-12))
			Expect(tr.Position.Y()).To(BeNumerically("~", 0, 1e-12))
		})

		It("forces a mode outside the policy", func() {
			Expect(s.ForceMode("shuttle", coupling.RigidOnly)).To(Succeed())
			_, ok := s.Body("shuttle")
			Expect(ok).To(BeTrue())

			Expect(s.ForceMode("missing", coupling.RigidOnly)).To(MatchError(sim.ErrInvalidArgument))
		})
	})

	Describe("fixed step", func() {
		It("runs sub-steps and reports alpha", func() {
			s = sim.New(nil, nil)
			_, err := s.AddObject(sim.ObjectSpec{ID: "beacon", Trajectory: orbital.Fixed(mgl64.Vec3{})})
			Expect(err).NotTo(HaveOccurred())

			var steps []float64
			s.SetStep(func(dt float64) error {
				steps = append(steps, dt)
				return nil
			})
			acc, err := fixedstep.New(0.02, 8)
			Expect(err).NotTo(HaveOccurred())
			s.SetAccumulator(acc)

			var frame sim.Frame
			s.AddFrameListener(func(f sim.Frame) error {
				frame = f
				return nil
			})

			t, err := s.Tick(0.05)
			Expect(err).NotTo(HaveOccurred())
			Expect(t).To(Equal(0.05))
			Expect(steps).To(Equal([]float64{0.02, 0.02}))
			Expect(frame.SubSteps).To(Equal(2))
			Expect(frame.Alpha).To(BeNumerically("~", 0.5, 1e-9))
		})

		It("halts when a sub-step fails", func() {
			s = sim.New(nil, nil)
			boom := errors.New("solver exploded")
			s.SetStep(func(float64) error { return boom })

			_, err := s.Tick(0.1)
			var te *sim.TickError
			Expect(errors.As(err, &te)).To(BeTrue())
			Expect(te.Phase).To(Equal(sim.PhaseStep))
		})
	})

	Describe("recording", func() {
		It("records one snapshot per tick", func() {
			s = sim.New(baseline(), nil)
			rec := snapshot.NewRecorder()
			s.SetRecorder(rec)

			idx, err := s.AddObject(sim.ObjectSpec{ID: "beacon", Trajectory: orbital.Fixed(mgl64.Vec3{4, 0, 0})})
			Expect(err).NotTo(HaveOccurred())
			rock, err := s.AddObject(sim.ObjectSpec{ID: "rock", Mode: coupling.RigidOnly, Body: ball(3)})
			Expect(err).NotTo(HaveOccurred())

			for range 3 {
				_, err := s.Tick(0.02)
				Expect(err).NotTo(HaveOccurred())
			}
			Expect(rec.Len()).To(Equal(3))

			snap, _ := rec.At(2)
			Expect(snap.Time()).To(Equal(s.Time()))
			Expect(snap.General()).To(HaveLen(2))
			Expect(snap.Orbital()).To(HaveLen(1))

			st, ok := snap.OrbitalState(snapshot.Handle(idx))
			Expect(ok).To(BeTrue())
			Expect(st.Position()).To(Equal(mgl64.Vec3{4, 0, 0}))
			_, ok = snap.GeneralState(snapshot.Handle(rock))
			Expect(ok).To(BeTrue())
		})
	})

	Describe("scene sync", func() {
		It("pushes bound body states from published frames", func() {
			s = sim.New(baseline(), nil)
			_, err := s.AddObject(sim.ObjectSpec{ID: "rock", Mode: coupling.RigidOnly, Body: ball(3)})
			Expect(err).NotTo(HaveOccurred())
			h, _ := s.Body("rock")

			nodes := map[string]mgl64.Vec3{}
			sync, err := sim.NewSceneSync(func(node string, st physics.BodyState) error {
				nodes[node] = st.Position()
				return nil
			})
			Expect(err).NotTo(HaveOccurred())
			sync.Bind(h, "rock-mesh")

			s.AddFrameListener(func(f sim.Frame) error {
				_, err := sync.ApplyFrame(f.Bodies())
				return err
			})
			_, err = s.Tick(0.02)
			Expect(err).NotTo(HaveOccurred())
			Expect(nodes).To(HaveKey("rock-mesh"))
			Expect(nodes["rock-mesh"].Y()).To(BeNumerically("<", 3))
		})
	})

	Describe("Run", func() {
		It("ticks until the duration is reached", func() {
			s = sim.New(nil, nil)
			_, err := s.AddObject(sim.ObjectSpec{ID: "beacon", Trajectory: orbital.Fixed(mgl64.Vec3{})})
			Expect(err).NotTo(HaveOccurred())

			res, err := s.Run(context.Background(), sim.Config{Dt: 0.1, Duration: 1})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Ticks).To(BeEquivalentTo(10))
			Expect(res.Time).To(BeNumerically("~", 1, 1e-9))
		})

		It("stops on a cancelled context", func() {
			s = sim.New(nil, nil)
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			res, err := s.Run(ctx, sim.Config{Dt: 0.1, Duration: 1})
			Expect(err).To(MatchError(context.Canceled))
			Expect(res.Ticks).To(BeZero())
		})

		It("validates its config", func() {
			s = sim.New(nil, nil)
			_, err := s.Run(context.Background(), sim.Config{Dt: 0, Duration: 1})
			Expect(err).To(MatchError(sim.ErrInvalidArgument))
		})
	})

	Describe("Ensemble", func() {
		It("runs independent simulators concurrently", func() {
			e, err := sim.NewEnsemble(func(i int) (*sim.Simulator, error) {
				s := sim.New(baseline(), nil)
				_, err := s.AddObject(sim.ObjectSpec{ID: "rock", Mode: coupling.RigidOnly, Body: ball(float64(i + 1))})
				return s, err
			}, 4)
			Expect(err).NotTo(HaveOccurred())

			results, err := e.Run(context.Background(), sim.Config{Dt: 0.01, Duration: 0.1})
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(4))
			for _, r := range results {
				Expect(r.Ticks).To(BeEquivalentTo(10))
			}
		})

		It("rejects bad arguments", func() {
			_, err := sim.NewEnsemble(nil, 1)
			Expect(err).To(MatchError(sim.ErrInvalidArgument))
		})
	})
})
