package integrators

import (
	"math"

	"github.com/odelab/odesim/internal/ode"
)

// Doubling wraps a fixed-step scheme so it can serve under adaptive step
// control: one full step is compared against two half steps and the
// Richardson-extrapolated difference is the local error estimate. The
// two-half-step result, being the more accurate, is the candidate.
type Doubling struct {
	inner Stepper
}

func NewDoubling(inner Stepper) *Doubling {
	return &Doubling{inner: inner}
}

func (d *Doubling) Order() int { return d.inner.Order() }

func (d *Doubling) Step(sys ode.System, t float64, y ode.State, p ode.Params, h float64) ode.State {
	return d.inner.Step(sys, t, y, p, h)
}

func (d *Doubling) TryStep(sys ode.System, t float64, y ode.State, p ode.Params, h, absTol, relTol float64) (ode.State, float64) {
	full := d.inner.Step(sys, t, y, p, h)
	half := d.inner.Step(sys, t, y, p, h/2)
	fine := d.inner.Step(sys, t+h/2, half, p, h/2)

	// error of the fine solution per Richardson extrapolation
	denom := math.Pow(2, float64(d.inner.Order())) - 1

	errNorm := 0.0
	for i := range y {
		errEst := (fine[i] - full[i]) / denom
		sk := absTol + relTol*math.Max(math.Abs(y[i]), math.Abs(fine[i]))
		errNorm = math.Max(errNorm, math.Abs(errEst)/sk)
	}

	return fine, errNorm
}
