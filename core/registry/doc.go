// Package registry provides a durable, cross-process-readable record of
// server readiness: is the main server up, is the second server up, is
// maintenance complete. Independently started sibling processes (boot,
// maintenance, renewal) poll it instead of sharing memory.
//
// The backing store is swappable behind the Registry interface: a JSON file
// for single-host deployments, or Redis when sibling processes run with real
// write concurrency.
package registry
