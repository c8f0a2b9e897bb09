// Package events defines scheduled discrete state modifications: each event
// adds to or scales one state component at an exact trigger time. All events
// sharing a trigger time are applied as one atomic transition, in schedule
// order, so a later event at the same instant sees the result of an earlier
// one.
package events

import (
	"fmt"

	"github.com/odelab/odesim/internal/ode"
)

type Op string

const (
	OpAdd      Op = "add"
	OpMultiply Op = "multiply"
)

func ParseOp(s string) (Op, error) {
	switch Op(s) {
	case OpAdd:
		return OpAdd, nil
	case OpMultiply:
		return OpMultiply, nil
	default:
		return "", fmt.Errorf("%w: %q", ode.ErrBadEventOp, s)
	}
}

// Event modifies one state component at one instant.
type Event struct {
	Time      float64
	Component string
	Op        Op
	Value     float64
}

func (e Event) String() string {
	return fmt.Sprintf("event(t=%g %s %s %g)", e.Time, e.Component, e.Op, e.Value)
}

// Schedule is an ordered sequence of events, ascending by time. The relative
// order of events sharing a time is caller-determined and preserved.
type Schedule []Event

func (s Schedule) Clone() Schedule {
	c := make(Schedule, len(s))
	copy(c, s)
	return c
}

// Validate checks the schedule against a state layout and the run interval.
// It runs before any stepping so malformed events never abort a run midway.
func (s Schedule) Validate(layout ode.Layout, t0, tN float64) error {
	for i, ev := range s {
		if i > 0 && ev.Time < s[i-1].Time && !ode.SameTime(ev.Time, s[i-1].Time) {
			return fmt.Errorf("%w: events not sorted by time (%s after t=%g)", ode.ErrBadConfig, ev, s[i-1].Time)
		}
		if ev.Time < t0 && !ode.SameTime(ev.Time, t0) || ev.Time > tN && !ode.SameTime(ev.Time, tN) {
			return fmt.Errorf("%w: %s outside [%g, %g]", ode.ErrBadConfig, ev, t0, tN)
		}
		if _, ok := layout.Index(ev.Component); !ok {
			return fmt.Errorf("%w: %s", ode.ErrUnknownComponent, ev)
		}
		if ev.Op != OpAdd && ev.Op != OpMultiply {
			return fmt.Errorf("%w: %s", ode.ErrBadEventOp, ev)
		}
	}
	return nil
}

// Times returns the distinct trigger times in ascending order.
func (s Schedule) Times() []float64 {
	out := make([]float64, 0, len(s))
	for _, ev := range s {
		if len(out) == 0 || !ode.SameTime(out[len(out)-1], ev.Time) {
			out = append(out, ev.Time)
		}
	}
	return out
}

// Apply applies a same-time batch of events to y in order and returns the
// new state. The input state is not mutated.
func Apply(y ode.State, layout ode.Layout, batch []Event) (ode.State, error) {
	out := y.Clone()
	for _, ev := range batch {
		i, ok := layout.Index(ev.Component)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ode.ErrUnknownComponent, ev)
		}
		switch ev.Op {
		case OpAdd:
			out[i] += ev.Value
		case OpMultiply:
			out[i] *= ev.Value
		default:
			return nil, fmt.Errorf("%w: %s", ode.ErrBadEventOp, ev)
		}
	}
	return out, nil
}
