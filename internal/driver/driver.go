package driver

import (
	"context"
	"fmt"
	"math"

	"github.com/odelab/odesim/internal/events"
	"github.com/odelab/odesim/internal/integrators"
	"github.com/odelab/odesim/internal/ode"
)

// Step-size controller constants, shared by every scheme.
const (
	safety   = 0.9
	minScale = 0.2
	maxScale = 10.0
)

// Trajectory is the result of one run: one row per requested output time,
// in output-time order. Duplicate requested times yield duplicate rows.
type Trajectory struct {
	Components []string
	Times      []float64
	States     []ode.State
}

func (tr *Trajectory) Len() int { return len(tr.Times) }

// Component extracts the series of one named component across all rows.
func (tr *Trajectory) Component(name string) ([]float64, error) {
	idx := -1
	for i, n := range tr.Components {
		if n == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q", ode.ErrUnknownComponent, name)
	}
	out := make([]float64, len(tr.States))
	for i, s := range tr.States {
		out[i] = s[idx]
	}
	return out, nil
}

type Driver struct {
	sys     ode.System
	layout  ode.Layout
	stepper integrators.Stepper
}

func New(sys ode.System, layout ode.Layout, stepper integrators.Stepper) *Driver {
	return &Driver{sys: sys, layout: layout, stepper: stepper}
}

// Run integrates from the first to the last output time, honoring the event
// schedule, and returns the trajectory at exactly the requested output
// times. All failures are terminal: no partial trajectory is returned.
func (d *Driver) Run(ctx context.Context, y0 ode.State, p ode.Params, outputs []float64, sched events.Schedule, cfg ode.Config) (*Trajectory, error) {
	if err := d.validate(y0, p, outputs, sched, cfg); err != nil {
		return nil, err
	}

	t0 := outputs[0]
	tN := outputs[len(outputs)-1]

	adapt := d.adaptive()
	stops := stopTimes(outputs, sched.Times())

	traj := &Trajectory{
		Components: d.layout.Names(),
		Times:      make([]float64, 0, len(outputs)),
		States:     make([]ode.State, 0, len(outputs)),
	}

	y := y0.Clone()
	t := t0
	h := initialStep(cfg, tN-t0)
	steps := 0
	evIdx := 0
	outIdx := 0

	var err error
	if y, err = d.applyEventsAt(t, y, sched, &evIdx); err != nil {
		return nil, err
	}
	d.record(traj, outputs, &outIdx, t, y)

	for si := 1; si < len(stops); si++ {
		tb := stops[si]

		for !ode.SameTime(t, tb) {
			select {
			case <-ctx.Done():
				return nil, &ode.RunError{Time: t, State: y, Err: fmt.Errorf("%w: %v", ode.ErrTimeout, ctx.Err())}
			default:
			}
			if cfg.MaxSteps > 0 && steps >= cfg.MaxSteps {
				return nil, &ode.RunError{Time: t, State: y, Err: fmt.Errorf("%w: step budget of %d exhausted", ode.ErrTimeout, cfg.MaxSteps)}
			}

			// Never cross the next stop; land on it exactly when close.
			hTry := math.Min(h, tb-t)
			steps++

			yNew, errNorm := adapt.TryStep(d.sys, t, y, p, hTry, cfg.AbsTol, cfg.RelTol)

			if errNorm > 1 {
				// Rejected step: internal retry, no state transition.
				scale := math.Max(minScale, safety*math.Pow(errNorm, -1.0/float64(adapt.Order())))
				h = hTry * scale
				if h < cfg.HMin {
					return nil, &ode.RunError{Time: t, State: y, Err: ode.ErrStepUnderflow}
				}
				continue
			}

			if !yNew.IsValid() {
				return nil, &ode.RunError{Time: t, State: y, Err: ode.ErrInvalidState}
			}

			if ode.SameTime(t+hTry, tb) {
				t = tb
			} else {
				t += hTry
			}
			y = yNew
			h = growStep(hTry, errNorm, adapt.Order(), cfg)
		}

		t = tb
		if y, err = d.applyEventsAt(t, y, sched, &evIdx); err != nil {
			return nil, err
		}
		d.record(traj, outputs, &outIdx, t, y)
	}

	return traj, nil
}

func (d *Driver) adaptive() integrators.AdaptiveStepper {
	if a, ok := d.stepper.(integrators.AdaptiveStepper); ok {
		return a
	}
	return integrators.NewDoubling(d.stepper)
}

// applyEventsAt consumes the batch of events triggered at t, if any, and
// applies it as one atomic transition in schedule order.
func (d *Driver) applyEventsAt(t float64, y ode.State, sched events.Schedule, evIdx *int) (ode.State, error) {
	start := *evIdx
	for *evIdx < len(sched) && ode.SameTime(sched[*evIdx].Time, t) {
		*evIdx++
	}
	if *evIdx == start {
		return y, nil
	}
	yNew, err := events.Apply(y, d.layout, sched[start:*evIdx])
	if err != nil {
		return nil, &ode.RunError{Time: t, State: y, Err: err}
	}
	return yNew, nil
}

// record emits one trajectory row per requested output time matching t,
// so duplicate output times produce duplicate rows.
func (d *Driver) record(traj *Trajectory, outputs []float64, outIdx *int, t float64, y ode.State) {
	for *outIdx < len(outputs) && ode.SameTime(outputs[*outIdx], t) {
		traj.Times = append(traj.Times, outputs[*outIdx])
		traj.States = append(traj.States, y.Clone())
		*outIdx++
	}
}

func (d *Driver) validate(y0 ode.State, p ode.Params, outputs []float64, sched events.Schedule, cfg ode.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if len(y0) == 0 {
		return fmt.Errorf("%w: empty initial state", ode.ErrBadConfig)
	}
	if d.layout.Dim() != len(y0) {
		return fmt.Errorf("%w: layout has %d components, state has %d", ode.ErrBadConfig, d.layout.Dim(), len(y0))
	}
	if d.sys.Dim() != len(y0) {
		return fmt.Errorf("%w: system dimension %d, state dimension %d", ode.ErrDimensionMismatch, d.sys.Dim(), len(y0))
	}
	if len(outputs) == 0 {
		return fmt.Errorf("%w: no output times", ode.ErrBadConfig)
	}
	for i := 1; i < len(outputs); i++ {
		if outputs[i] < outputs[i-1] && !ode.SameTime(outputs[i], outputs[i-1]) {
			return fmt.Errorf("%w: output times not ascending at index %d (%g after %g)", ode.ErrBadConfig, i, outputs[i], outputs[i-1])
		}
	}

	// Probe the RHS once at t0 to catch dimension mismatches up front.
	dy := d.sys.Derive(outputs[0], y0.Clone(), p)
	if len(dy) != len(y0) {
		return fmt.Errorf("%w: RHS returned %d derivatives for %d components", ode.ErrDimensionMismatch, len(dy), len(y0))
	}

	return sched.Validate(d.layout, outputs[0], outputs[len(outputs)-1])
}

func initialStep(cfg ode.Config, span float64) float64 {
	h := cfg.InitialStep
	if h == 0 {
		h = math.Min(cfg.HMax, span/100)
	}
	return clamp(h, cfg.HMin, cfg.HMax)
}

func growStep(h, errNorm float64, order int, cfg ode.Config) float64 {
	var scale float64
	if errNorm > 0 {
		scale = math.Min(maxScale, safety*math.Pow(errNorm, -1.0/float64(order)))
	} else {
		scale = maxScale
	}
	return clamp(h*scale, cfg.HMin, cfg.HMax)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
