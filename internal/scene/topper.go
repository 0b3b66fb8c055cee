package scene

import (
	"math"

	"cogentcore.org/core/math32"

	"github.com/ayusman/treelight/internal/session"
)

// Topper heights.
const (
	TopperAssembledY = 9.5
	TopperExplodedY  = 12
)

// Topper is the star on top of the tree and its glow halo.
type Topper struct {
	y       float32
	elapsed float64
}

// NewTopper places the topper at its assembled height.
func NewTopper() *Topper {
	return &Topper{y: TopperAssembledY}
}

// Tick advances the topper one render tick.
func (t *Topper) Tick(state session.State, elapsed float64) {
	target := float32(TopperAssembledY)
	if state == session.Exploded {
		target = TopperExplodedY
	}
	t.y = math32.Lerp(t.y, target, TopperSmoothing)
	t.elapsed = elapsed
}

// Y returns the current height.
func (t *Topper) Y() float32 { return t.y }

// Pose returns the star's pose.
func (t *Topper) Pose() Pose {
	return Pose{
		Position: math32.Vec3(0, t.y, 0),
		Rotation: math32.Vec3(0, phase(t.elapsed), float32(math.Sin(2*t.elapsed))*0.1),
		Scale:    1,
	}
}

// Halo returns the glow pose. It follows the star and pulses between 1.0 and 1.4.
func (t *Topper) Halo() Pose {
	return Pose{
		Position: math32.Vec3(0, t.y, 0),
		Scale:    1.2 + 0.2*float32(math.Sin(5*t.elapsed)),
	}
}
