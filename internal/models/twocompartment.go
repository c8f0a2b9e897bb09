package models

import "github.com/odelab/odesim/internal/ode"

// TwoCompartment is a two-compartment pharmacokinetic model with first-order
// absorption from a gut depot. States are drug amounts; concentrations are
// amounts over the compartment volumes.
//
//	gut'        = -ka*gut
//	central'    =  ka*gut - (CL/Vc)*central - (Q/Vc)*central + (Q/Vp)*peripheral
//	peripheral' =  (Q/Vc)*central - (Q/Vp)*peripheral
type TwoCompartment struct{}

func NewTwoCompartment() TwoCompartment { return TwoCompartment{} }

func (TwoCompartment) Name() string { return "twocomp" }

func (TwoCompartment) Dim() int { return 3 }

func (TwoCompartment) Layout() ode.Layout {
	return ode.MustLayout("gut", "central", "peripheral")
}

func (TwoCompartment) Defaults() ode.Params {
	return ode.Params{"CL": 10, "Q": 13, "Vc": 20, "Vp": 73, "ka": 3}
}

func (m TwoCompartment) Derive(t float64, y ode.State, p ode.Params) ode.State {
	ka := param(p, "ka", 3)
	cl := param(p, "CL", 10)
	q := param(p, "Q", 13)
	vc := param(p, "Vc", 20)
	vp := param(p, "Vp", 73)

	gut, cent, peri := y[0], y[1], y[2]

	return ode.State{
		-ka * gut,
		ka*gut - (cl/vc)*cent - (q/vc)*cent + (q/vp)*peri,
		(q/vc)*cent - (q/vp)*peri,
	}
}
