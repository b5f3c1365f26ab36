package solver

import (
	"math"

	"github.com/san-kum/hybridsim/internal/collision"
)

// ResponseFunc resolves one response-enabled contact. The manifold normal
// points from A to B.
type ResponseFunc[T comparable] func(adapter RigidBodyAdapter[T], c collision.Contact[T])

// ImpulseConfig tunes ImpulseResponse.
type ImpulseConfig struct {
	// Percent of the penetration beyond Slop removed per contact.
	Percent float64
	Slop    float64
	// DynamicFriction scales the Coulomb limit once sliding starts.
	DynamicFriction float64
}

func DefaultImpulseConfig() ImpulseConfig {
	return ImpulseConfig{Percent: 0.8, Slop: 0.01, DynamicFriction: 0.8}
}

// ImpulseResponse applies a restitution impulse along the normal, a
// Coulomb friction impulse along the sliding direction, and a linear
// positional correction. Restitution combines by minimum and friction by
// geometric mean.
func ImpulseResponse[T comparable](cfg ImpulseConfig) ResponseFunc[T] {
	return func(adapter RigidBodyAdapter[T], c collision.Contact[T]) {
		a, b := c.A(), c.B()
		wa, wb := adapter.InverseMass(a), adapter.InverseMass(b)
		w := wa + wb
		if w == 0 {
			return
		}
		n := c.Manifold.Normal()

		va, vb := adapter.Velocity(a), adapter.Velocity(b)
		rel := vb.Sub(va)
		along := rel.Dot(n)

		if along < 0 {
			e := math.Min(adapter.Restitution(a), adapter.Restitution(b))
			j := -(1 + e) * along / w
			impulse := n.Mul(j)
			va = va.Sub(impulse.Mul(wa))
			vb = vb.Add(impulse.Mul(wb))

			rel = vb.Sub(va)
			tangent := rel.Sub(n.Mul(rel.Dot(n)))
			if tl := tangent.Len(); tl > 1e-9 {
				tangent = tangent.Mul(1 / tl)
				jt := -rel.Dot(tangent) / w
				mu := math.Sqrt(adapter.Friction(a) * adapter.Friction(b))
				if math.Abs(jt) > j*mu {
					jt = -j * mu * cfg.DynamicFriction
				}
				f := tangent.Mul(jt)
				va = va.Sub(f.Mul(wa))
				vb = vb.Add(f.Mul(wb))
			}

			adapter.SetVelocity(a, va)
			adapter.SetVelocity(b, vb)
		}

		pen := c.Manifold.Penetration()
		if pen <= cfg.Slop {
			return
		}
		corr := n.Mul((pen - cfg.Slop) / w * cfg.Percent)
		if wa > 0 {
			adapter.SetPosition(a, adapter.Position(a).Sub(corr.Mul(wa)))
		}
		if wb > 0 {
			adapter.SetPosition(b, adapter.Position(b).Add(corr.Mul(wb)))
		}
	}
}
