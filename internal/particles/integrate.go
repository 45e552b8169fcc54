package particles

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r2"
)

// Integrator advances positions and velocities in place by one explicit
// fixed step, reading only the forces computed for this step.
type Integrator interface {
	Name() string
	Step(pos, vel, force []r2.Vec, dt float64)
}

// SemiImplicitEuler updates velocity first and moves with the new velocity.
type SemiImplicitEuler struct{}

func NewSemiImplicitEuler() *SemiImplicitEuler { return &SemiImplicitEuler{} }

func (SemiImplicitEuler) Name() string { return "euler" }

func (SemiImplicitEuler) Step(pos, vel, force []r2.Vec, dt float64) {
	for i := range pos {
		vel[i] = r2.Add(vel[i], r2.Scale(dt, force[i]))
		pos[i] = r2.Add(pos[i], r2.Scale(dt, vel[i]))
	}
}

// TransitionMatrix advances the whole batch with one matrix product:
//
//	[x']   [1 dt dt²] [x]
//	[v'] = [0  1  dt] [v]
//	                  [f]
//
// applied to every axis of every particle at once. It keeps scratch buffers,
// so each model needs its own instance.
type TransitionMatrix struct {
	state []float64
	next  mat.Dense
}

func NewTransitionMatrix() *TransitionMatrix { return &TransitionMatrix{} }

func (*TransitionMatrix) Name() string { return "transition" }

func (tm *TransitionMatrix) Step(pos, vel, force []r2.Vec, dt float64) {
	cols := 2 * len(pos)
	if len(tm.state) != 3*cols {
		tm.state = make([]float64, 3*cols)
		tm.next.Reset()
	}

	for i := range pos {
		tm.state[2*i], tm.state[2*i+1] = pos[i].X, pos[i].Y
		tm.state[cols+2*i], tm.state[cols+2*i+1] = vel[i].X, vel[i].Y
		tm.state[2*cols+2*i], tm.state[2*cols+2*i+1] = force[i].X, force[i].Y
	}

	transition := mat.NewDense(2, 3, []float64{
		1, dt, dt * dt,
		0, 1, dt,
	})
	tm.next.Mul(transition, mat.NewDense(3, cols, tm.state))

	for i := range pos {
		pos[i] = r2.Vec{X: tm.next.At(0, 2*i), Y: tm.next.At(0, 2*i+1)}
		vel[i] = r2.Vec{X: tm.next.At(1, 2*i), Y: tm.next.At(1, 2*i+1)}
	}
}
