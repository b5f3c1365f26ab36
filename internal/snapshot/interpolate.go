package snapshot

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/hybridsim/internal/physics"
)

// Interpolate blends two snapshots for rendering between ticks. Positions,
// velocities and timestamps are lerped and orientations slerped along the
// shorter arc. Only handles present in next are kept; a handle missing
// from prev takes next's state unchanged.
func Interpolate(prev, next HybridSnapshot, alpha float64) (HybridSnapshot, error) {
	if math.IsNaN(alpha) || alpha < 0 || alpha > 1 {
		return HybridSnapshot{}, fmt.Errorf("%w: alpha must be in [0,1], got %g", ErrInvalidArgument, alpha)
	}
	general, err := blendStates(prev.general, next.general, alpha)
	if err != nil {
		return HybridSnapshot{}, err
	}
	orbital, err := blendStates(prev.orbital, next.orbital, alpha)
	if err != nil {
		return HybridSnapshot{}, err
	}
	t := prev.time + (next.time-prev.time)*alpha
	return New(t, alpha, next.extrapolation, general, orbital)
}

func blendStates(a, b map[Handle]physics.BodyState, alpha float64) (map[Handle]physics.BodyState, error) {
	out := make(map[Handle]physics.BodyState, len(b))
	for h, sb := range b {
		sa, ok := a[h]
		if !ok {
			out[h] = sb
			continue
		}
		s, err := BlendState(sa, sb, alpha)
		if err != nil {
			return nil, fmt.Errorf("handle %d: %w", h, err)
		}
		out[h] = s
	}
	return out, nil
}

// BlendState blends two body states. The frame is taken from b.
func BlendState(a, b physics.BodyState, alpha float64) (physics.BodyState, error) {
	lerp := func(x, y mgl64.Vec3) mgl64.Vec3 { return x.Add(y.Sub(x).Mul(alpha)) }

	qa, qb := a.Orientation().Normalize(), b.Orientation().Normalize()
	if qa.Dot(qb) < 0 {
		qb = qb.Scale(-1)
	}
	return physics.NewBodyState(
		lerp(a.Position(), b.Position()),
		mgl64.QuatSlerp(qa, qb, alpha).Normalize(),
		lerp(a.LinearVelocity(), b.LinearVelocity()),
		lerp(a.AngularVelocity(), b.AngularVelocity()),
		b.Frame(),
		a.Timestamp()+(b.Timestamp()-a.Timestamp())*alpha,
	)
}
