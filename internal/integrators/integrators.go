// Package integrators provides the stepping schemes driven by the
// trajectory driver: an embedded Dormand-Prince 4(5) pair for adaptive
// control, fixed-step RK4 and Euler schemes, and a step-doubling adapter
// that gives any fixed scheme a usable local error estimate.
package integrators

import (
	"fmt"

	"github.com/odelab/odesim/internal/ode"
)

// Stepper advances a state by a single step of size h.
type Stepper interface {
	Step(sys ode.System, t float64, y ode.State, p ode.Params, h float64) ode.State
	Order() int
}

// AdaptiveStepper additionally produces a weighted local error norm for the
// candidate step. The step is acceptable when the norm is <= 1.
type AdaptiveStepper interface {
	Stepper
	TryStep(sys ode.System, t float64, y ode.State, p ode.Params, h, absTol, relTol float64) (ode.State, float64)
}

// ForScheme resolves a scheme name to a fresh stepper instance.
func ForScheme(name string) (Stepper, error) {
	switch name {
	case "dopri45", "rk45", "dopri":
		return NewDormandPrince(), nil
	case "rk4":
		return NewRK4(), nil
	case "euler":
		return NewEuler(), nil
	default:
		return nil, fmt.Errorf("%w: unknown scheme %q", ode.ErrBadConfig, name)
	}
}

// Schemes lists the recognized scheme names.
func Schemes() []string {
	return []string{"dopri45", "rk4", "euler"}
}
