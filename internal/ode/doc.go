// Package ode provides the core value types and contracts for event-aware
// ODE integration:
//
//   - [State]: dense vector of dependent variables at one instant
//   - [Layout]: fixed, ordered mapping of component names to state indices
//   - [Params]: named scalar parameters, immutable for one run
//   - [System]: the right-hand side contract (dy/dt = f(t, y, p))
//   - [Config]: per-run integrator configuration
//
// The package also defines the error taxonomy shared by the stepper and the
// trajectory driver, and the time-comparison policy ([SameTime]) used to
// snap adaptive steps onto scheduled stop times.
package ode
