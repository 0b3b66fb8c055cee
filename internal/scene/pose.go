// Package scene generates the particle tree layout and advances every object
// of the scene one render tick at a time.
//
// Each animated object keeps three independent channels (position, Euler
// rotation, uniform scale) that are interpolated toward per-tick targets and
// composed into a transform matrix for the renderer. Nothing in this package
// reads a clock: elapsed time is always passed in by the caller.
package scene

import (
	"math"

	"cogentcore.org/core/math32"
)

// Pose is a position, XYZ Euler rotation and uniform scale.
type Pose struct {
	Position math32.Vector3 `json:"position"`
	Rotation math32.Vector3 `json:"rotation"`
	Scale    float32        `json:"scale"`
}

// Matrix composes the pose into a transform matrix.
func (p Pose) Matrix() math32.Matrix4 {
	var m math32.Matrix4
	m.SetTransform(p.Position, math32.NewQuatEuler(p.Rotation), math32.Vec3(p.Scale, p.Scale, p.Scale))
	return m
}

// Approach moves every channel of p a fraction of the way toward target.
// Each rotation axis is interpolated on its own, the short way around, and
// kept in [-π, π].
func (p *Pose) Approach(target Pose, factor float32) {
	p.Position = lerp3(p.Position, target.Position, factor)
	p.Rotation = math32.Vec3(
		lerpAngle(p.Rotation.X, target.Rotation.X, factor),
		lerpAngle(p.Rotation.Y, target.Rotation.Y, factor),
		lerpAngle(p.Rotation.Z, target.Rotation.Z, factor),
	)
	p.Scale = math32.Lerp(p.Scale, target.Scale, factor)
}

func lerpAngle(a, b, f float32) float32 {
	d := math.Remainder(float64(b)-float64(a), 2*math.Pi)
	return float32(math.Remainder(float64(a)+d*float64(f), 2*math.Pi))
}

// phase reduces an angle in radians to (-2π, 2π) before narrowing to float32.
func phase(rad float64) float32 {
	return float32(math.Mod(rad, 2*math.Pi))
}

func lerp3(a, b math32.Vector3, f float32) math32.Vector3 {
	return math32.Vec3(
		math32.Lerp(a.X, b.X, f),
		math32.Lerp(a.Y, b.Y, f),
		math32.Lerp(a.Z, b.Z, f),
	)
}
