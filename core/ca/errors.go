package ca

import "errors"

var (
	// ErrRequestFailed is returned when a remote CA call fails with a
	// non-retryable transport or protocol error.
	ErrRequestFailed = errors.New("certificate authority request failed")

	// ErrDraftRejected is returned when the CA refuses to create a
	// certificate from the submitted CSR.
	ErrDraftRejected = errors.New("certificate draft rejected")

	// ErrVerificationFailed is returned when the CA could not fetch the
	// challenge artifact from the domain.
	ErrVerificationFailed = errors.New("domain verification failed")

	// ErrNotReady is returned when the certificate is not yet available for
	// download after verification.
	ErrNotReady = errors.New("certificate not ready for download")

	// ErrMissingChallenge is returned when a certificate handle carries no
	// HTTP validation data.
	ErrMissingChallenge = errors.New("certificate handle has no http challenge")

	// ErrIncompleteMaterial is returned when certificate material is missing
	// one of its three PEM components.
	ErrIncompleteMaterial = errors.New("certificate material incomplete")

	// ErrKeyMismatch is returned when the certificate does not match the
	// private key.
	ErrKeyMismatch = errors.New("certificate does not match private key")

	// ErrChainInvalid is returned when the certificate cannot be validated
	// against the CA bundle.
	ErrChainInvalid = errors.New("certificate chain validation failed")

	// ErrNotFound is returned when the CA does not know the certificate id.
	ErrNotFound = errors.New("certificate not found")
)
