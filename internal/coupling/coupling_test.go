package coupling_test

import (
	"errors"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/hybridsim/internal/coupling"
	"github.com/san-kum/hybridsim/internal/orbital"
	"github.com/san-kum/hybridsim/internal/physics"
)

func orbitalAt(x float64) coupling.ContextFunc {
	return func(id string, current coupling.Mode) coupling.Context {
		return coupling.Context{
			Orbital:    orbital.State{Position: mgl64.Vec3{x, 0, 0}, Orientation: mgl64.QuatIdent()},
			HasOrbital: true,
		}
	}
}

func resting(x float64) physics.BodyState {
	return physics.MustBodyState(mgl64.Vec3{x, 0, 0}, mgl64.QuatIdent(), mgl64.Vec3{}, mgl64.Vec3{}, physics.FrameWorld, 0)
}

var _ = Describe("Mode", func() {
	It("round-trips through its name", func() {
		for _, m := range []coupling.Mode{coupling.OrbitalOnly, coupling.RigidOnly, coupling.Coupled} {
			parsed, err := coupling.ParseMode(m.String())
			Expect(err).NotTo(HaveOccurred())
			Expect(parsed).To(Equal(m))
		}
	})

	It("rejects unknown names", func() {
		_, err := coupling.ParseMode("FLOATING")
		Expect(err).To(MatchError(coupling.ErrInvalidArgument))
	})

	It("reports which worlds a mode uses", func() {
		Expect(coupling.Coupled.UsesRigid()).To(BeTrue())
		Expect(coupling.Coupled.UsesOrbital()).To(BeTrue())
		Expect(coupling.OrbitalOnly.UsesRigid()).To(BeFalse())
		Expect(coupling.RigidOnly.UsesOrbital()).To(BeFalse())
	})
})

var _ = Describe("Manager", func() {
	var (
		mgr    *coupling.Manager
		events []coupling.Event
	)

	BeforeEach(func() {
		mgr = coupling.NewManager(nil)
		events = nil
		mgr.AddListener(func(e coupling.Event) error {
			events = append(events, e)
			return nil
		})
	})

	It("tracks objects in order", func() {
		Expect(mgr.Track("b", coupling.OrbitalOnly)).To(Succeed())
		Expect(mgr.Track("a", coupling.RigidOnly)).To(Succeed())
		Expect(mgr.IDs()).To(Equal([]string{"b", "a"}))

		mode, ok := mgr.Mode("a")
		Expect(ok).To(BeTrue())
		Expect(mode).To(Equal(coupling.RigidOnly))
	})

	It("rejects duplicate, empty and invalid tracking", func() {
		Expect(mgr.Track("a", coupling.OrbitalOnly)).To(Succeed())
		Expect(mgr.Track("a", coupling.OrbitalOnly)).To(MatchError(coupling.ErrInvalidArgument))
		Expect(mgr.Track("", coupling.OrbitalOnly)).To(MatchError(coupling.ErrInvalidArgument))
		Expect(mgr.Track("z", coupling.Mode(42))).To(MatchError(coupling.ErrInvalidArgument))
	})

	It("untracks objects", func() {
		Expect(mgr.Track("a", coupling.OrbitalOnly)).To(Succeed())
		Expect(mgr.Untrack("a")).To(BeTrue())
		Expect(mgr.Untrack("a")).To(BeFalse())
		_, ok := mgr.Mode("a")
		Expect(ok).To(BeFalse())
		Expect(mgr.IDs()).To(BeEmpty())
	})

	It("emits telemetry for decisions that change nothing", func() {
		Expect(mgr.Track("a", coupling.OrbitalOnly)).To(Succeed())

		out, err := mgr.Update(1.5, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(HaveLen(1))
		Expect(events).To(HaveLen(1))
		Expect(events[0].Reason).To(Equal(coupling.ReasonNoChange))
		Expect(events[0].Changed()).To(BeFalse())
		Expect(events[0].Time).To(Equal(1.5))
	})

	It("applies policy decisions", func() {
		mgr.SetPolicy(coupling.PolicyFunc(func(ctx coupling.Context) coupling.Decision {
			return coupling.Decision{Mode: coupling.Coupled, Reason: "TEST"}
		}))
		Expect(mgr.Track("a", coupling.OrbitalOnly)).To(Succeed())

		_, err := mgr.Update(0, nil)
		Expect(err).NotTo(HaveOccurred())

		mode, _ := mgr.Mode("a")
		Expect(mode).To(Equal(coupling.Coupled))
		Expect(events[0].From).To(Equal(coupling.OrbitalOnly))
		Expect(events[0].To).To(Equal(coupling.Coupled))
		Expect(events[0].Reason).To(Equal(coupling.Reason("TEST")))
	})

	It("rejects invalid policy output", func() {
		mgr.SetPolicy(coupling.PolicyFunc(func(ctx coupling.Context) coupling.Decision {
			return coupling.Decision{Mode: coupling.Mode(-1)}
		}))
		Expect(mgr.Track("a", coupling.OrbitalOnly)).To(Succeed())

		_, err := mgr.Update(0, nil)
		Expect(err).To(MatchError(coupling.ErrInvalidArgument))
		mode, _ := mgr.Mode("a")
		Expect(mode).To(Equal(coupling.OrbitalOnly))
	})

	It("propagates listener errors", func() {
		boom := errors.New("boom")
		mgr.AddListener(func(coupling.Event) error { return boom })
		Expect(mgr.Track("a", coupling.OrbitalOnly)).To(Succeed())
		Expect(mgr.Track("b", coupling.OrbitalOnly)).To(Succeed())

		out, err := mgr.Update(0, nil)
		Expect(err).To(MatchError(boom))
		Expect(out).To(HaveLen(1))
	})

	It("forces a mode", func() {
		Expect(mgr.Track("a", coupling.OrbitalOnly)).To(Succeed())

		e, err := mgr.Force("a", coupling.RigidOnly, 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(e.Reason).To(Equal(coupling.ReasonForced))
		Expect(e.Changed()).To(BeTrue())

		mode, _ := mgr.Mode("a")
		Expect(mode).To(Equal(coupling.RigidOnly))

		_, err = mgr.Force("missing", coupling.RigidOnly, 2)
		Expect(err).To(MatchError(coupling.ErrInvalidArgument))
	})
})

var _ = Describe("DistancePolicy", func() {
	var (
		mgr    *coupling.Manager
		policy *coupling.DistancePolicy
	)

	BeforeEach(func() {
		var err error
		policy, err = coupling.NewDistancePolicy(mgl64.Vec3{}, 10, 20, coupling.Coupled)
		Expect(err).NotTo(HaveOccurred())
		mgr = coupling.NewManager(policy)
		Expect(mgr.Track("voyager", coupling.OrbitalOnly)).To(Succeed())
	})

	step := func(x float64) coupling.Event {
		out, err := mgr.Update(0, orbitalAt(x))
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(HaveLen(1))
		return out[0]
	}

	It("captures inside the capture radius", func() {
		Expect(step(15).Reason).To(Equal(coupling.ReasonNoChange))

		e := step(9)
		Expect(e.Reason).To(Equal(coupling.ReasonEnteredCaptureRadius))
		Expect(e.To).To(Equal(coupling.Coupled))
	})

	It("holds the mode inside the hysteresis band", func() {
		step(5)
		for _, x := range []float64{12, 18, 20} {
			e := step(x)
			Expect(e.Changed()).To(BeFalse())
			Expect(e.To).To(Equal(coupling.Coupled))
		}
	})

	It("releases beyond the release radius", func() {
		step(5)
		e := step(25)
		Expect(e.Reason).To(Equal(coupling.ReasonLeftReleaseRadius))
		Expect(e.To).To(Equal(coupling.OrbitalOnly))
	})

	It("reads the rigid position while the rigid world owns the object", func() {
		step(5)
		out, err := mgr.Update(0, func(string, coupling.Mode) coupling.Context {
			return coupling.Context{
				Orbital:    orbital.State{Position: mgl64.Vec3{100, 0, 0}},
				HasOrbital: true,
				Rigid:      resting(3),
				HasRigid:   true,
			}
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(out[0].Changed()).To(BeFalse())
	})

	It("does not release objects without a trajectory", func() {
		Expect(mgr.Track("debris", coupling.RigidOnly)).To(Succeed())
		out, err := mgr.Update(0, func(id string, _ coupling.Mode) coupling.Context {
			if id == "debris" {
				return coupling.Context{Rigid: resting(50), HasRigid: true}
			}
			return orbitalAt(15)(id, 0)
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(out[1].To).To(Equal(coupling.RigidOnly))
	})

	DescribeTable("validates its radii",
		func(capture, release float64, into coupling.Mode) {
			_, err := coupling.NewDistancePolicy(mgl64.Vec3{}, capture, release, into)
			Expect(err).To(MatchError(coupling.ErrInvalidArgument))
		},
		Entry("zero capture", 0.0, 1.0, coupling.Coupled),
		Entry("release inside capture", 5.0, 1.0, coupling.Coupled),
		Entry("orbital target", 1.0, 2.0, coupling.OrbitalOnly),
	)
})
