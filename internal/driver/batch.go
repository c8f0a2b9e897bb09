package driver

import (
	"context"
	"sync"

	"github.com/odelab/odesim/internal/events"
	"github.com/odelab/odesim/internal/integrators"
	"github.com/odelab/odesim/internal/ode"
)

// Batch executes independent runs over distinct parameter sets in parallel.
// Each run gets its own driver, state copy, and schedule copy; no mutable
// state crosses run boundaries. The stepper factory is invoked once per run
// because steppers may carry scratch buffers.
type Batch struct {
	sys     ode.System
	layout  ode.Layout
	stepper func() integrators.Stepper
}

func NewBatch(sys ode.System, layout ode.Layout, stepper func() integrators.Stepper) *Batch {
	return &Batch{sys: sys, layout: layout, stepper: stepper}
}

// Run returns one trajectory per parameter set, in input order. If any run
// fails, the first error wins and no trajectories are returned.
func (b *Batch) Run(ctx context.Context, y0 ode.State, paramSets []ode.Params, outputs []float64, sched events.Schedule, cfg ode.Config) ([]*Trajectory, error) {
	results := make([]*Trajectory, len(paramSets))
	errs := make([]error, len(paramSets))

	var wg sync.WaitGroup
	for i, p := range paramSets {
		wg.Add(1)
		go func(idx int, p ode.Params) {
			defer wg.Done()

			d := New(b.sys, b.layout, b.stepper())
			results[idx], errs[idx] = d.Run(ctx, y0.Clone(), p.Clone(), outputs, sched.Clone(), cfg)
		}(i, p)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}
