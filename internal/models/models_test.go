package models

import (
	"math"
	"testing"

	"github.com/odelab/odesim/internal/ode"
)

func TestTwoCompartment_EmptySystem(t *testing.T) {
	m := NewTwoCompartment()
	dy := m.Derive(0, ode.State{0, 0, 0}, m.Defaults())

	for i, v := range dy {
		if v != 0 {
			t.Errorf("derivative[%d] with empty compartments should be 0, got %f", i, v)
		}
	}
}

func TestTwoCompartment_GutAbsorption(t *testing.T) {
	m := NewTwoCompartment()
	p := ode.Params{"CL": 10, "Q": 13, "Vc": 20, "Vp": 73, "ka": 3}

	dy := m.Derive(0, ode.State{5, 0, 0}, p)

	if math.Abs(dy[0]-(-15)) > 1e-12 {
		t.Errorf("gut' = %f, want -15", dy[0])
	}
	if math.Abs(dy[1]-15) > 1e-12 {
		t.Errorf("central' = %f, want 15", dy[1])
	}
	if dy[2] != 0 {
		t.Errorf("peripheral' = %f, want 0", dy[2])
	}
}

func TestTwoCompartment_MassBalanceWithoutElimination(t *testing.T) {
	m := NewTwoCompartment()
	p := ode.Params{"CL": 0, "Q": 13, "Vc": 20, "Vp": 73, "ka": 3}

	dy := m.Derive(0, ode.State{2, 7, 4}, p)

	total := dy[0] + dy[1] + dy[2]
	if math.Abs(total) > 1e-12 {
		t.Errorf("mass not conserved with CL=0: net flux %e", total)
	}
}

func TestDampedOscillator_Derivative(t *testing.T) {
	m := NewDampedOscillator()
	p := ode.Params{"theta": 0.15}

	dy := m.Derive(0, ode.State{1, 2}, p)

	if dy[0] != 2 {
		t.Errorf("position' = %f, want 2", dy[0])
	}
	want := -1 - 0.15*2
	if math.Abs(dy[1]-want) > 1e-12 {
		t.Errorf("velocity' = %f, want %f", dy[1], want)
	}
}

func TestDecay_Derivative(t *testing.T) {
	m := NewDecay()
	dy := m.Derive(0, ode.State{4}, ode.Params{"k": 0.25})
	if dy[0] != -1 {
		t.Errorf("amount' = %f, want -1", dy[0])
	}
}

func TestLogistic_Equilibria(t *testing.T) {
	m := NewLogistic()
	p := ode.Params{"r": 0.8, "K": 100}

	if dy := m.Derive(0, ode.State{0}, p); dy[0] != 0 {
		t.Errorf("derivative at 0 should be 0, got %f", dy[0])
	}
	if dy := m.Derive(0, ode.State{100}, p); dy[0] != 0 {
		t.Errorf("derivative at carrying capacity should be 0, got %f", dy[0])
	}
}

func TestModels_LayoutMatchesDim(t *testing.T) {
	ms := []Model{NewTwoCompartment(), NewDampedOscillator(), NewDecay(), NewLogistic()}
	for _, m := range ms {
		if m.Layout().Dim() != m.Dim() {
			t.Errorf("%s: layout dim %d != system dim %d", m.Name(), m.Layout().Dim(), m.Dim())
		}
	}
}
