package particle

import (
	"context"
	"fmt"
	"runtime"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/sync/errgroup"
)

// minChunk keeps tiny fields from being split across many goroutines.
const minChunk = 512

// Vertex is the output of the kernel for one particle.
type Vertex struct {
	Position mgl32.Vec3
	Color    colorful.Color
}

// Kernel evaluates Morph over a field in parallel.
// Each worker reads the shared field and uniforms and writes a disjoint
// range of the output slice.
type Kernel struct {
	workers int
}

// NewKernel creates a kernel with the given worker count.
// Zero or negative uses GOMAXPROCS.
func NewKernel(workers int) *Kernel {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Kernel{workers: workers}
}

// Workers returns the number of parallel workers.
func (k *Kernel) Workers() int {
	return k.workers
}

// Evaluate writes the displayed vertex of every particle into out,
// which must hold at least f.Len() entries.
func (k *Kernel) Evaluate(ctx context.Context, f *Field, u Uniforms, out []Vertex) error {
	n := f.Len()
	if len(out) < n {
		return fmt.Errorf("output holds %d vertices, field has %d", len(out), n)
	}
	if n == 0 {
		return nil
	}

	chunk := (n + k.workers - 1) / k.workers
	if chunk < minChunk {
		chunk = minChunk
	}

	g, ctx := errgroup.WithContext(ctx)
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for i := start; i < end; i++ {
				out[i] = Vertex{
					Position: Morph(f.positions[i], f.templates[i], &u),
					Color:    f.colors[i],
				}
			}
			return nil
		})
	}
	return g.Wait()
}
