// Package compute spreads force evaluation over CPU workers.
//
// [CPUBackend] wraps any [particles.RangeForceModel] and hands each worker a
// contiguous range of target particles. Every target still sums its sources
// in index order, so results are bit-identical to the serial force model.
//
//	force := compute.NewCPUBackend(particles.NewCutoffDamped(), 0)
//	m, _ := particles.New(cfg, particles.WithForce(force))
//
// Batches smaller than [MinParallel] run serially.
package compute
