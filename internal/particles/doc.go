// Package particles implements a pairwise-interaction particle model on a
// toroidal canvas.
//
// A [Config] fixes the canvas size, the square relation matrix between
// particle variants and the particle count. A [Model] owns the particle
// batch and advances it with [Model.Update]:
//
//   - every target particle sums a force from every other particle, using a
//     [ForceModel] ([CutoffDamped] or [InverseDistance]);
//   - an [Integrator] ([SemiImplicitEuler] or [TransitionMatrix]) advances
//     velocities and positions by dt;
//   - positions are wrapped back into [0, width) x [0, height).
//
// Forces for a step are computed from the positions at the start of the
// step, so the result does not depend on particle order.
//
// # Example
//
//	cfg := particles.DefaultConfig()
//	m, _ := particles.New(cfg, particles.WithSeed(42))
//	for frame := 0; frame < 600; frame++ {
//	    if err := m.Update(0.016); err != nil {
//	        return err
//	    }
//	}
//
// # Thread Safety
//
// Model instances are NOT thread-safe. Config is immutable and may be shared.
package particles
