// Package certstore persists PEM certificate material on a configured
// filesystem root. Every write is read back and byte-compared against the
// input before the save is considered successful; the backing volume is a
// network mount where partial writes have been observed, so callers must not
// skip the verification.
//
// A certificate that is absent is an expected state (it triggers issuance) and
// is reported as ErrNotFound, distinct from I/O failures.
package certstore
