package driver_test

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/odelab/odesim/internal/driver"
	"github.com/odelab/odesim/internal/events"
	"github.com/odelab/odesim/internal/integrators"
	"github.com/odelab/odesim/internal/models"
	"github.com/odelab/odesim/internal/ode"
)

func grid(from, to, step float64) []float64 {
	var out []float64
	for i := 0; ; i++ {
		t := from + float64(i)*step
		if t > to+1e-12 {
			break
		}
		out = append(out, t)
	}
	return out
}

// countingStepper wraps Dormand-Prince to observe how often it is driven.
type countingStepper struct {
	inner *integrators.DormandPrince
	calls int
}

func (c *countingStepper) Order() int { return c.inner.Order() }

func (c *countingStepper) Step(sys ode.System, t float64, y ode.State, p ode.Params, h float64) ode.State {
	c.calls++
	return c.inner.Step(sys, t, y, p, h)
}

func (c *countingStepper) TryStep(sys ode.System, t float64, y ode.State, p ode.Params, h, absTol, relTol float64) (ode.State, float64) {
	c.calls++
	return c.inner.TryStep(sys, t, y, p, h, absTol, relTol)
}

// countingSystem observes RHS evaluations.
type countingSystem struct {
	dim   int
	fn    ode.Func
	calls int
}

func (c *countingSystem) Dim() int { return c.dim }

func (c *countingSystem) Derive(t float64, y ode.State, p ode.Params) ode.State {
	c.calls++
	return c.fn(t, y, p)
}

var _ = Describe("Driver", func() {
	var cfg ode.Config

	BeforeEach(func() {
		cfg = ode.DefaultConfig()
	})

	newDriver := func(sys ode.System, layout ode.Layout) *driver.Driver {
		return driver.New(sys, layout, integrators.NewDormandPrince())
	}

	Describe("event-free integration", func() {
		It("reproduces constant-derivative trajectories exactly", func() {
			layout := ode.MustLayout("a", "b")
			sys := ode.FromFunc(2, func(t float64, y ode.State, p ode.Params) ode.State {
				return ode.State{2.0, -1.0}
			})

			outputs := grid(0, 5, 0.5)
			traj, err := newDriver(sys, layout).Run(context.Background(), ode.State{1, 3}, nil, outputs, nil, cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(traj.Len()).To(Equal(len(outputs)))

			for i, tt := range traj.Times {
				Expect(traj.States[i][0]).To(BeNumerically("~", 1+2*tt, 1e-8))
				Expect(traj.States[i][1]).To(BeNumerically("~", 3-tt, 1e-8))
			}
		})

		It("matches the exact exponential within tolerance", func() {
			m := models.NewDecay()
			p := ode.Params{"k": 0.7}

			traj, err := newDriver(m, m.Layout()).Run(context.Background(), ode.State{2}, p, grid(0, 10, 1), nil, cfg)
			Expect(err).NotTo(HaveOccurred())

			for i, tt := range traj.Times {
				Expect(traj.States[i][0]).To(BeNumerically("~", 2*math.Exp(-0.7*tt), 1e-5))
			}
		})

		It("is deterministic across identical runs", func() {
			m := models.NewDampedOscillator()
			outputs := grid(0, 20, 0.25)

			run := func() *driver.Trajectory {
				traj, err := newDriver(m, m.Layout()).Run(context.Background(), ode.State{1, 0}, m.Defaults(), outputs, nil, cfg)
				Expect(err).NotTo(HaveOccurred())
				return traj
			}

			Expect(run()).To(Equal(run()))
		})

		It("keeps the damped oscillator bounded with decreasing energy", func() {
			m := models.NewDampedOscillator()
			p := ode.Params{"theta": 0.15}

			traj, err := newDriver(m, m.Layout()).Run(context.Background(), ode.State{1, 0}, p, grid(1, 100, 1), nil, cfg)
			Expect(err).NotTo(HaveOccurred())

			prev := math.Inf(1)
			for _, s := range traj.States {
				Expect(s.Norm()).To(BeNumerically("<=", 1.0+1e-6))
				e := m.Energy(s)
				Expect(e).To(BeNumerically("<=", prev+1e-9))
				prev = e
			}
		})

		It("records duplicate output times as duplicate rows", func() {
			m := models.NewDecay()
			outputs := []float64{0, 1, 1, 2}

			traj, err := newDriver(m, m.Layout()).Run(context.Background(), ode.State{1}, nil, outputs, nil, cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(traj.Len()).To(Equal(4))
			Expect(traj.Times[1]).To(Equal(traj.Times[2]))
			Expect(traj.States[1]).To(Equal(traj.States[2]))
		})

		It("serves an output grid consisting of t0 alone without stepping", func() {
			m := models.NewDecay()
			stepper := &countingStepper{inner: integrators.NewDormandPrince()}
			d := driver.New(m, m.Layout(), stepper)

			traj, err := d.Run(context.Background(), ode.State{7}, nil, []float64{0}, nil, cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(traj.Len()).To(Equal(1))
			Expect(traj.States[0]).To(Equal(ode.State{7}))
			Expect(stepper.calls).To(BeZero())
		})
	})

	Describe("events", func() {
		frozen := ode.MustLayout("x", "y")
		still := ode.FromFunc(2, func(t float64, y ode.State, p ode.Params) ode.State {
			return ode.State{0, 0}
		})

		It("applies an additive event between output times", func() {
			sched := events.Schedule{{Time: 0.5, Component: "x", Op: events.OpAdd, Value: 2.5}}

			traj, err := newDriver(still, frozen).Run(context.Background(), ode.State{1, 4}, nil, grid(0, 2, 1), sched, cfg)
			Expect(err).NotTo(HaveOccurred())

			Expect(traj.States[0]).To(Equal(ode.State{1, 4}))
			Expect(traj.States[1][0]).To(BeNumerically("~", 3.5, 1e-9))
			Expect(traj.States[1][1]).To(BeNumerically("~", 4, 1e-9))
		})

		It("applies a multiplicative event between output times", func() {
			sched := events.Schedule{{Time: 0.5, Component: "y", Op: events.OpMultiply, Value: 3}}

			traj, err := newDriver(still, frozen).Run(context.Background(), ode.State{1, 4}, nil, grid(0, 2, 1), sched, cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(traj.States[1][0]).To(BeNumerically("~", 1, 1e-9))
			Expect(traj.States[1][1]).To(BeNumerically("~", 12, 1e-9))
		})

		It("applies same-time events in schedule order", func() {
			sched := events.Schedule{
				{Time: 1, Component: "x", Op: events.OpAdd, Value: 5},
				{Time: 1, Component: "x", Op: events.OpMultiply, Value: 2},
			}

			traj, err := newDriver(still, frozen).Run(context.Background(), ode.State{3, 0}, nil, grid(0, 2, 1), sched, cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(traj.States[1][0]).To(BeNumerically("~", 16, 1e-9))
		})

		It("records the post-event state when an event time is an output time", func() {
			sched := events.Schedule{{Time: 1, Component: "x", Op: events.OpAdd, Value: 10}}

			traj, err := newDriver(still, frozen).Run(context.Background(), ode.State{0, 0}, nil, grid(0, 2, 1), sched, cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(traj.States[1][0]).To(BeNumerically("~", 10, 1e-9))
		})

		It("applies a t0 event before recording the first row", func() {
			sched := events.Schedule{{Time: 0, Component: "x", Op: events.OpAdd, Value: 1}}

			traj, err := newDriver(still, frozen).Run(context.Background(), ode.State{0, 0}, nil, []float64{0, 1}, sched, cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(traj.States[0][0]).To(BeNumerically("~", 1, 1e-9))
		})

		It("produces the dosing sawtooth for the two-compartment scenario", func() {
			m := models.NewTwoCompartment()
			p := ode.Params{"CL": 10, "Q": 13, "Vc": 20, "Vp": 73, "ka": 3}

			var sched events.Schedule
			for td := 10.0; td <= 70; td += 10 {
				sched = append(sched, events.Event{Time: td, Component: "gut", Op: events.OpAdd, Value: 5})
			}

			step := 0.5
			outputs := grid(0, 150, step)
			traj, err := newDriver(m, m.Layout()).Run(context.Background(), ode.State{0, 0, 0}, p, outputs, sched, cfg)
			Expect(err).NotTo(HaveOccurred())

			gut, err := traj.Component("gut")
			Expect(err).NotTo(HaveOccurred())
			central, err := traj.Component("central")
			Expect(err).NotTo(HaveOccurred())

			for td := 10.0; td <= 70; td += 10 {
				i := int(math.Round(td / step))
				// Post-dose row jumps by the full dose; the depot drains fast
				// enough that the residual before each dose is negligible.
				Expect(gut[i]).To(BeNumerically("~", 5.0, 0.01))
				Expect(gut[i] - gut[i-1]).To(BeNumerically(">", 4.5))
				// Smooth decay until the next dose.
				for j := i + 1; j < i+8 && j < len(gut); j++ {
					Expect(gut[j]).To(BeNumerically("<", gut[j-1]))
				}
			}

			Expect(central[len(central)-1]).To(BeNumerically(">", 0))
			for _, v := range central {
				Expect(v).To(BeNumerically(">=", 0))
			}
		})
	})

	Describe("failure handling", func() {
		It("rejects non-ascending output times before any RHS work", func() {
			sys := &countingSystem{dim: 1, fn: func(t float64, y ode.State, p ode.Params) ode.State {
				return ode.State{0}
			}}

			_, err := newDriver(sys, ode.MustLayout("a")).Run(context.Background(), ode.State{1}, nil, []float64{0, 2, 1}, nil, cfg)
			Expect(err).To(MatchError(ode.ErrBadConfig))
			Expect(sys.calls).To(BeZero())
		})

		It("rejects an RHS whose output dimension differs from the state", func() {
			sys := ode.FromFunc(2, func(t float64, y ode.State, p ode.Params) ode.State {
				return ode.State{0}
			})

			_, err := newDriver(sys, ode.MustLayout("a", "b")).Run(context.Background(), ode.State{1, 2}, nil, []float64{0, 1}, nil, cfg)
			Expect(err).To(MatchError(ode.ErrDimensionMismatch))
		})

		It("rejects an empty initial state", func() {
			m := models.NewDecay()
			_, err := newDriver(m, m.Layout()).Run(context.Background(), ode.State{}, nil, []float64{0, 1}, nil, cfg)
			Expect(err).To(MatchError(ode.ErrBadConfig))
		})

		It("surfaces step underflow with the last reached time", func() {
			stiff := ode.FromFunc(1, func(t float64, y ode.State, p ode.Params) ode.State {
				return ode.State{1e3 * y[0]}
			})
			cfg.HMin = 0.1
			cfg.HMax = 1.0
			cfg.AbsTol = 1e-12
			cfg.RelTol = 1e-12

			_, err := driver.New(stiff, ode.MustLayout("a"), integrators.NewDormandPrince()).
				Run(context.Background(), ode.State{1}, nil, []float64{0, 10}, nil, cfg)
			Expect(err).To(MatchError(ode.ErrStepUnderflow))

			var runErr *ode.RunError
			Expect(err).To(BeAssignableToTypeOf(runErr))
		})

		It("returns no partial trajectory on cancellation", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			m := models.NewDecay()
			traj, err := newDriver(m, m.Layout()).Run(ctx, ode.State{1}, nil, grid(0, 10, 1), nil, cfg)
			Expect(err).To(MatchError(ode.ErrTimeout))
			Expect(traj).To(BeNil())
		})

		It("enforces the step budget", func() {
			m := models.NewDampedOscillator()
			cfg.MaxSteps = 3
			cfg.HMax = 0.01

			_, err := newDriver(m, m.Layout()).Run(context.Background(), ode.State{1, 0}, nil, grid(0, 100, 10), nil, cfg)
			Expect(err).To(MatchError(ode.ErrTimeout))
		})
	})

	Describe("Batch", func() {
		It("matches sequential runs over distinct parameter sets", func() {
			m := models.NewDecay()
			outputs := grid(0, 5, 0.5)
			paramSets := []ode.Params{{"k": 0.25}, {"k": 0.5}, {"k": 1.0}}

			b := driver.NewBatch(m, m.Layout(), func() integrators.Stepper {
				return integrators.NewDormandPrince()
			})

			batched, err := b.Run(context.Background(), ode.State{1}, paramSets, outputs, nil, ode.DefaultConfig())
			Expect(err).NotTo(HaveOccurred())
			Expect(batched).To(HaveLen(3))

			for i, p := range paramSets {
				single, err := newDriver(m, m.Layout()).Run(context.Background(), ode.State{1}, p, outputs, nil, ode.DefaultConfig())
				Expect(err).NotTo(HaveOccurred())
				Expect(batched[i]).To(Equal(single))
			}
		})

		It("returns no results when any run fails", func() {
			m := models.NewDecay()
			sched := events.Schedule{{Time: 1, Component: "nope", Op: events.OpAdd, Value: 1}}

			b := driver.NewBatch(m, m.Layout(), func() integrators.Stepper {
				return integrators.NewDormandPrince()
			})

			results, err := b.Run(context.Background(), ode.State{1}, []ode.Params{{"k": 0.5}, {"k": 1}}, grid(0, 5, 1), sched, ode.DefaultConfig())
			Expect(err).To(MatchError(ode.ErrUnknownComponent))
			Expect(results).To(BeNil())
		})
	})
})
