package integrators

import "github.com/odelab/odesim/internal/ode"

type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Order() int { return 1 }

func (e *Euler) Step(sys ode.System, t float64, y ode.State, p ode.Params, h float64) ode.State {
	dy := sys.Derive(t, y, p)
	result := make(ode.State, len(y))
	for i := range y {
		result[i] = y[i] + h*dy[i]
	}
	return result
}
