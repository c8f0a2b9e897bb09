package models

import "github.com/odelab/odesim/internal/ode"

// DampedOscillator is a unit-frequency harmonic oscillator with linear
// damping theta:
//
//	position' = velocity
//	velocity' = -position - theta*velocity
type DampedOscillator struct{}

func NewDampedOscillator() DampedOscillator { return DampedOscillator{} }

func (DampedOscillator) Name() string { return "oscillator" }

func (DampedOscillator) Dim() int { return 2 }

func (DampedOscillator) Layout() ode.Layout {
	return ode.MustLayout("position", "velocity")
}

func (DampedOscillator) Defaults() ode.Params {
	return ode.Params{"theta": 0.15}
}

func (m DampedOscillator) Derive(t float64, y ode.State, p ode.Params) ode.State {
	theta := param(p, "theta", 0.15)
	return ode.State{y[1], -y[0] - theta*y[1]}
}

// Energy is the mechanical energy of the oscillator; with positive damping
// it decreases monotonically along trajectories.
func (DampedOscillator) Energy(y ode.State) float64 {
	return 0.5 * (y[0]*y[0] + y[1]*y[1])
}
