// Package challenge manages domain-ownership validation artifacts: the served
// challenge directory and the plain-HTTP responder the certificate authority
// probes at the well-known validation path.
//
// The responder doubles as the plaintext entry point: any request outside the
// validation path is redirected permanently to its HTTPS equivalent.
package challenge
