package ode

import "fmt"

// Config holds the integrator configuration for one run. It is constructed
// once per run and read-only thereafter.
type Config struct {
	// Scheme names the stepping scheme ("dopri45", "rk4", "euler").
	Scheme string

	// AbsTol and RelTol weight the per-component local error estimate.
	AbsTol float64
	RelTol float64

	// HMin and HMax bound the adaptive step size.
	HMin float64
	HMax float64

	// InitialStep seeds the adaptive controller. Zero means derive one
	// from HMax and the span of the run.
	InitialStep float64

	// MaxSteps caps attempted steps (accepted plus rejected) per run.
	// Zero means unlimited.
	MaxSteps int
}

func DefaultConfig() Config {
	return Config{
		Scheme: "dopri45",
		AbsTol: 1e-8,
		RelTol: 1e-6,
		HMin:   1e-10,
		HMax:   1.0,
	}
}

func (c Config) Validate() error {
	if c.AbsTol <= 0 {
		return fmt.Errorf("%w: abs_tol must be positive, got %g", ErrBadConfig, c.AbsTol)
	}
	if c.RelTol <= 0 {
		return fmt.Errorf("%w: rel_tol must be positive, got %g", ErrBadConfig, c.RelTol)
	}
	if c.HMin <= 0 {
		return fmt.Errorf("%w: h_min must be positive, got %g", ErrBadConfig, c.HMin)
	}
	if c.HMax <= c.HMin {
		return fmt.Errorf("%w: h_max (%g) must exceed h_min (%g)", ErrBadConfig, c.HMax, c.HMin)
	}
	if c.InitialStep < 0 {
		return fmt.Errorf("%w: initial step must not be negative, got %g", ErrBadConfig, c.InitialStep)
	}
	if c.MaxSteps < 0 {
		return fmt.Errorf("%w: max steps must not be negative, got %d", ErrBadConfig, c.MaxSteps)
	}
	return nil
}
