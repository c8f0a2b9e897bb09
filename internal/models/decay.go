package models

import "github.com/odelab/odesim/internal/ode"

// Decay is first-order exponential decay: amount' = -k*amount.
type Decay struct{}

func NewDecay() Decay { return Decay{} }

func (Decay) Name() string { return "decay" }

func (Decay) Dim() int { return 1 }

func (Decay) Layout() ode.Layout { return ode.MustLayout("amount") }

func (Decay) Defaults() ode.Params { return ode.Params{"k": 0.5} }

func (m Decay) Derive(t float64, y ode.State, p ode.Params) ode.State {
	return ode.State{-param(p, "k", 0.5) * y[0]}
}

// Logistic is logistic growth: population' = r*population*(1 - population/K).
type Logistic struct{}

func NewLogistic() Logistic { return Logistic{} }

func (Logistic) Name() string { return "logistic" }

func (Logistic) Dim() int { return 1 }

func (Logistic) Layout() ode.Layout { return ode.MustLayout("population") }

func (Logistic) Defaults() ode.Params { return ode.Params{"r": 0.8, "K": 100} }

func (m Logistic) Derive(t float64, y ode.State, p ode.Params) ode.State {
	r := param(p, "r", 0.8)
	k := param(p, "K", 100)
	return ode.State{r * y[0] * (1 - y[0]/k)}
}
