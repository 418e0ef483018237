// Package ca models the external certificate authority as a narrow capability:
// issue, verify, download, revoke. The wire protocol behind the Client
// interface is a collaborator detail; the HTTP implementation in this package
// talks to a REST-style CA API, while key and CSR generation happen locally.
//
// Remote calls do not retry internally except for Download, which has a small
// bounded retry budget. The issuance workflow is the retry boundary for
// everything else.
package ca
