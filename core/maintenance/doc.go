// Package maintenance runs the one-time startup job that gates full system
// readiness. It waits for both servers to come up, executes the injected job,
// and records completion in the server state registry. Renewal cycles wait on
// that record before touching the listeners.
package maintenance
