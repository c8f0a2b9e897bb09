// Package models provides the built-in ODE systems. Each model fixes a
// component layout and default parameters; the actual parameter values for
// a run arrive through the Params argument of Derive, so one model value
// can serve many runs concurrently.
package models

import "github.com/odelab/odesim/internal/ode"

// Model is an ODE system with a named component layout and defaults.
type Model interface {
	ode.System
	Name() string
	Layout() ode.Layout
	Defaults() ode.Params
}

func param(p ode.Params, name string, def float64) float64 {
	if v, ok := p[name]; ok {
		return v
	}
	return def
}
