package scene

import (
	"math"

	"cogentcore.org/core/math32"

	"github.com/ayusman/treelight/internal/session"
)

// Smoothing factors applied once per tick.
const (
	ParticleSmoothing = 0.05
	FrameSmoothing    = 0.1
	TopperSmoothing   = 0.05
	GroupSmoothing    = 0.1

	pulseAmplitude = 0.08
)

// Group is one instanced particle batch. Layout tables are written by
// NewGroup and read-only afterwards; live state is owned by the caller's
// tick goroutine.
type Group struct {
	Spec      GroupSpec
	particles []Particle
	positions []math32.Vector3
	matrices  []math32.Matrix4
}

// NewGroup generates the layout for spec. Live positions start at the origin.
func NewGroup(spec GroupSpec, seed uint64) *Group {
	return &Group{
		Spec:      spec,
		particles: Generate(spec.Kind, spec.Count, seed),
		positions: make([]math32.Vector3, spec.Count),
		matrices:  make([]math32.Matrix4, spec.Count),
	}
}

// Len returns the instance count.
func (g *Group) Len() int { return len(g.particles) }

// Particle returns the layout record of instance i.
func (g *Group) Particle(i int) Particle { return g.particles[i] }

// Position returns the live position of instance i.
func (g *Group) Position(i int) math32.Vector3 { return g.positions[i] }

// Matrices returns the instance transforms computed by the last Tick.
// The slice is reused across ticks.
func (g *Group) Matrices() []math32.Matrix4 { return g.matrices }

// Target returns the layout position instance i is moving toward in state.
func (g *Group) Target(i int, state session.State) math32.Vector3 {
	if state == session.Exploded {
		return g.particles[i].Exploded
	}
	return g.particles[i].Assembled
}

// Tick advances every instance one render tick. elapsed is in seconds.
func (g *Group) Tick(state session.State, elapsed float64) {
	spin := phase(elapsed * float64(g.Spec.SpinSpeed))
	for i := range g.particles {
		p := &g.particles[i]
		g.positions[i] = lerp3(g.positions[i], g.Target(i, state), ParticleSmoothing)

		pose := Pose{
			Position: g.positions[i],
			Rotation: math32.Vec3(p.Spin.X+spin, p.Spin.Y+spin, p.Spin.Z),
			Scale:    p.Scale + pulseAmplitude*float32(math.Sin(2*elapsed+float64(i))),
		}
		g.matrices[i] = pose.Matrix()
	}
}

// Field is the set of particle groups making up the tree.
type Field struct {
	groups []*Group
}

// NewField generates every group from seed.
func NewField(seed uint64, specs ...GroupSpec) *Field {
	f := &Field{groups: make([]*Group, len(specs))}
	for i, spec := range specs {
		f.groups[i] = NewGroup(spec, seed)
	}
	return f
}

// Groups returns the groups in construction order.
func (f *Field) Groups() []*Group { return f.groups }

// Tick advances every group.
func (f *Field) Tick(state session.State, elapsed float64) {
	for _, g := range f.groups {
		g.Tick(state, elapsed)
	}
}
