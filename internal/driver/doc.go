// Package driver orchestrates event-aware ODE integration runs.
//
// A [Driver] owns the mutable state vector for the duration of one run. It
// builds the sorted union of requested output times and event trigger times
// (the stop times), advances the state between consecutive stops with an
// adaptive stepper that is never allowed to cross a stop, applies all
// events sharing a stop time as one atomic transition, and records the
// state at every requested output time. At a time that is both an event
// time and an output time, the post-event state is recorded.
//
// A Driver is not safe for concurrent use; [Batch] runs independent
// parameter sets in parallel, one driver per run.
package driver
