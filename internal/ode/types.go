package ode

import (
	"fmt"
	"math"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// Params maps parameter names to scalar values. A Params value handed to a
// run must not be mutated for the duration of that run.
type Params map[string]float64

func (p Params) Clone() Params {
	c := make(Params, len(p))
	for k, v := range p {
		c[k] = v
	}
	return c
}

// Layout fixes the component names of a state vector and their order.
// It is built once per run; every State produced during the run shares it.
type Layout struct {
	names []string
	index map[string]int
}

func NewLayout(names ...string) (Layout, error) {
	if len(names) == 0 {
		return Layout{}, fmt.Errorf("layout: %w: no components", ErrBadConfig)
	}
	index := make(map[string]int, len(names))
	for i, n := range names {
		if n == "" {
			return Layout{}, fmt.Errorf("layout: %w: empty component name at position %d", ErrBadConfig, i)
		}
		if _, dup := index[n]; dup {
			return Layout{}, fmt.Errorf("layout: %w: duplicate component %q", ErrBadConfig, n)
		}
		index[n] = i
	}
	return Layout{names: names, index: index}, nil
}

// MustLayout is NewLayout for statically known component lists.
func MustLayout(names ...string) Layout {
	l, err := NewLayout(names...)
	if err != nil {
		panic(err)
	}
	return l
}

func (l Layout) Dim() int { return len(l.names) }

func (l Layout) Index(name string) (int, bool) {
	i, ok := l.index[name]
	return i, ok
}

// Names returns the component names in state order. The returned slice is a
// copy and may be retained by the caller.
func (l Layout) Names() []string {
	out := make([]string, len(l.names))
	copy(out, l.names)
	return out
}

// System is the right-hand side of an ODE system. Derive must be a pure
// function of its arguments: it is invoked several times per attempted step
// and must return the same derivative for identical (t, y, p). It must not
// retain y.
type System interface {
	Derive(t float64, y State, p Params) State
	Dim() int
}

// Func adapts a plain function to the System interface.
type Func func(t float64, y State, p Params) State

type funcSystem struct {
	dim int
	fn  Func
}

func FromFunc(dim int, fn Func) System {
	return funcSystem{dim: dim, fn: fn}
}

func (f funcSystem) Derive(t float64, y State, p Params) State { return f.fn(t, y, p) }
func (f funcSystem) Dim() int                                  { return f.dim }

// TimeEps is the relative tolerance used to decide that two time values
// denote the same instant. A step landing within TimeEps of a stop time is
// snapped onto it exactly, so output rows and event triggers never drift.
const TimeEps = 1e-9

func SameTime(a, b float64) bool {
	scale := math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
	return math.Abs(a-b) <= TimeEps*scale
}
