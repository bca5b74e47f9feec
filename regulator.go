package qsim

/*
Regulator defines an interface for types that regulate the flow of
simulation work through the pool and its backends. Each regulator acts as a
control-system component, observing pool metrics and deciding whether the
regulated action should proceed.

Regulators in this package:
  - CircuitBreaker: stops submissions to a failing backend until it recovers
  - RateLimiter: bounds the rate of remote job submissions
  - BackPressureRegulator: sheds incoming jobs when the queue saturates
  - MemoryGovernor: caps concurrent state-vector memory
*/
type Regulator interface {
	// Observe lets the regulator monitor current pool metrics.
	Observe(metrics *Metrics)

	// Limit reports whether the regulated action should be restricted.
	Limit() bool

	// Renormalize attempts to return the regulator to normal operation,
	// e.g. after a cooldown or a token refill interval.
	Renormalize()
}
