package particle

import (
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/lucasb-eyer/go-colorful"
)

// DefaultCount is the default number of particles.
const DefaultCount = 10000

// HalfExtent is half the side of the cube original positions are drawn from.
const HalfExtent = 5

// Particle is the immutable per-particle state.
type Particle struct {
	Position mgl32.Vec3
	Template Template
	// Color is always white; the global base color does the tinting.
	Color colorful.Color
}

// Field is a fixed set of particles created once and never mutated.
type Field struct {
	positions []mgl32.Vec3
	templates []Template
	colors    []colorful.Color
}

// NewField creates n particles with positions uniform in the cube
// [-HalfExtent, HalfExtent]^3 and templates uniform over NumTemplates.
// A nil rng uses a randomly seeded source.
func NewField(n int, rng *rand.Rand) *Field {
	if n < 0 {
		n = 0
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	f := &Field{
		positions: make([]mgl32.Vec3, n),
		templates: make([]Template, n),
		colors:    make([]colorful.Color, n),
	}

	for i := 0; i < n; i++ {
		f.positions[i] = mgl32.Vec3{
			float32((rng.Float64() - 0.5) * 2 * HalfExtent),
			float32((rng.Float64() - 0.5) * 2 * HalfExtent),
			float32((rng.Float64() - 0.5) * 2 * HalfExtent),
		}
		f.colors[i] = White
		f.templates[i] = Template(rng.IntN(NumTemplates))
	}

	return f
}

// NewSeededField creates a reproducible field from seed.
func NewSeededField(n int, seed int64) *Field {
	s := uint64(seed)
	return NewField(n, rand.New(rand.NewPCG(s, s^0x9e3779b97f4a7c15)))
}

// Len returns the number of particles.
func (f *Field) Len() int {
	return len(f.positions)
}

// At returns a copy of particle i.
func (f *Field) At(i int) Particle {
	return Particle{
		Position: f.positions[i],
		Template: f.templates[i],
		Color:    f.colors[i],
	}
}

// Counts returns how many particles use each template.
func (f *Field) Counts() [NumTemplates]int {
	var counts [NumTemplates]int
	for _, t := range f.templates {
		counts[t]++
	}
	return counts
}
