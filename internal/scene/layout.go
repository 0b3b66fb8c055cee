package scene

import (
	"fmt"
	"math"
	"math/rand/v2"

	"cogentcore.org/core/math32"
)

// Tree dimensions in world units.
const (
	TreeHeight = 18
	TreeRadius = 7

	// ExplodeMinRadius and ExplodeMaxRadius bound the scattered sphere shell.
	ExplodeMinRadius = 15
	ExplodeMaxRadius = 25

	ribbonTurns   = 3.5
	ribbonOffset  = 0.5
	ornamentShell = 0.9
)

// Kind identifies a particle group.
type Kind int

const (
	Leaf Kind = iota
	Ornament
	Ribbon
)

func (k Kind) String() string {
	switch k {
	case Leaf:
		return "leaves"
	case Ornament:
		return "ornaments"
	case Ribbon:
		return "ribbon"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// GroupSpec configures one particle group.
type GroupSpec struct {
	Kind  Kind
	Count int
	// SpinSpeed is added to the x and y rotation per second of elapsed time.
	SpinSpeed float32
}

// DefaultGroups returns the leaf, ornament and ribbon groups.
func DefaultGroups() []GroupSpec {
	return []GroupSpec{
		{Kind: Leaf, Count: 5000, SpinSpeed: 0.5},
		{Kind: Ornament, Count: 1500, SpinSpeed: 0.2},
		{Kind: Ribbon, Count: 1000, SpinSpeed: 0.1},
	}
}

// Particle is the immutable layout record of one instance.
type Particle struct {
	Assembled math32.Vector3
	Exploded  math32.Vector3
	Spin      math32.Vector3 // fixed rotation offset
	Scale     float32
}

// GenerateParticle lays out particle i of n. The result depends only on its
// arguments: every particle draws from its own PCG stream keyed by seed,
// kind and index.
func GenerateParticle(kind Kind, i, n int, seed uint64) Particle {
	rng := rand.New(rand.NewPCG(seed, uint64(kind)<<32|uint64(uint32(i))))
	var p Particle

	if kind == Ribbon {
		ratio := float64(i) / float64(n)
		angle := ratio * 2 * math.Pi * ribbonTurns
		radius := (1 - ratio) * (TreeRadius + ribbonOffset)
		p.Assembled = vec3(
			math.Cos(angle)*radius,
			ratio*TreeHeight-TreeHeight/2,
			math.Sin(angle)*radius,
		)
	} else {
		h := rng.Float64()
		radiusAt := (1 - h) * TreeRadius
		angle := rng.Float64() * 2 * math.Pi
		r := math.Sqrt(rng.Float64()) * radiusAt // area-uniform over the disk
		if kind == Ornament {
			r = radiusAt * ornamentShell
		}
		p.Assembled = vec3(math.Cos(angle)*r, h*TreeHeight-TreeHeight/2, math.Sin(angle)*r)
	}

	// Fibonacci sphere, radius jittered inside the shell.
	phi := math.Acos(-1 + 2*float64(i)/float64(n))
	theta := math.Sqrt(float64(n)*math.Pi) * phi
	radius := ExplodeMinRadius + rng.Float64()*(ExplodeMaxRadius-ExplodeMinRadius)
	p.Exploded = vec3(
		radius*math.Cos(theta)*math.Sin(phi),
		radius*math.Sin(theta)*math.Sin(phi),
		radius*math.Cos(phi),
	)

	p.Spin = vec3(rng.Float64()*math.Pi, rng.Float64()*math.Pi, 0)

	switch kind {
	case Leaf:
		p.Scale = float32(0.3 + rng.Float64()*0.3)
	case Ornament:
		p.Scale = 0.4
	case Ribbon:
		p.Scale = 0.15
	}
	return p
}

// Generate lays out a whole group.
func Generate(kind Kind, n int, seed uint64) []Particle {
	out := make([]Particle, n)
	for i := range out {
		out[i] = GenerateParticle(kind, i, n, seed)
	}
	return out
}

// RingPose returns the assembled pose of photo frame i of n: a descending
// ring just outside the leaves, each frame facing outward.
func RingPose(i, n int) Pose {
	ratio := float64(i) / float64(n)
	angle := ratio * 2 * math.Pi
	y := ratio*TreeHeight*0.8 - TreeHeight/2 + 2
	r := (1-ratio)*TreeRadius + 1.5
	return Pose{
		Position: vec3(math.Cos(angle)*r, y, math.Sin(angle)*r),
		Rotation: vec3(0, -angle+math.Pi/2, 0),
		Scale:    1,
	}
}

func vec3(x, y, z float64) math32.Vector3 {
	return math32.Vec3(float32(x), float32(y), float32(z))
}
