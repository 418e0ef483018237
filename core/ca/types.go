package ca

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"time"

	"github.com/go-acme/lego/v4/certcrypto"
)

// CertificateMaterial is the complete set of PEM-encoded credentials for one
// domain. Material is superseded on renewal, never mutated: the old set stays
// on disk until the new listener is confirmed live.
type CertificateMaterial struct {
	PrivateKey  string
	Certificate string
	CABundle    string
}

// FullChain returns the leaf certificate concatenated with the CA bundle,
// for TLS consumers expecting a single file.
func (m CertificateMaterial) FullChain() string {
	return m.Certificate + "\n" + m.CABundle
}

// Leaf parses and returns the leaf certificate.
func (m CertificateMaterial) Leaf() (*x509.Certificate, error) {
	cert, err := certcrypto.ParsePEMCertificate([]byte(m.Certificate))
	if err != nil {
		return nil, fmt.Errorf("failed to parse leaf certificate: %w", err)
	}
	return cert, nil
}

// Validate checks that the material is complete: all three components present,
// certificate matching the private key, and chain verifiable against the CA
// bundle. Material must pass this check before it is persisted or bound to a
// listener.
func (m CertificateMaterial) Validate() error {
	if m.PrivateKey == "" || m.Certificate == "" || m.CABundle == "" {
		return ErrIncompleteMaterial
	}

	if _, err := tls.X509KeyPair([]byte(m.Certificate), []byte(m.PrivateKey)); err != nil {
		return fmt.Errorf("%w: %w", ErrKeyMismatch, err)
	}

	leaf, err := m.Leaf()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrChainInvalid, err)
	}

	pool := x509.NewCertPool()
	if ok := pool.AppendCertsFromPEM([]byte(m.CABundle)); !ok {
		return fmt.Errorf("%w: no certificates in ca bundle", ErrChainInvalid)
	}

	if _, err := leaf.Verify(x509.VerifyOptions{
		Roots:         pool,
		Intermediates: pool,
		KeyUsages:     []x509.ExtKeyUsage{x509.ExtKeyUsageAny},
	}); err != nil {
		return fmt.Errorf("%w: %w", ErrChainInvalid, err)
	}

	return nil
}

// TLSCertificate builds a tls.Certificate from the full chain and private key.
func (m CertificateMaterial) TLSCertificate() (tls.Certificate, error) {
	cert, err := tls.X509KeyPair([]byte(m.FullChain()), []byte(m.PrivateKey))
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("%w: %w", ErrKeyMismatch, err)
	}
	return cert, nil
}

// ChallengeArtifact is the ephemeral proof-of-control file the CA instructs
// the domain owner to serve under the well-known validation path. One live
// artifact exists per domain at a time.
type ChallengeArtifact struct {
	FileName    string
	FileContent string
}

// Certificate status values reported by the CA.
const (
	StatusDraft             = "draft"
	StatusPendingValidation = "pending_validation"
	StatusIssued            = "issued"
	StatusCancelled         = "cancelled"
	StatusRevoked           = "revoked"
	StatusExpired           = "expired"
)

// CertificateHandle references a remote certificate order. The HTTP challenge
// is captured at creation time so extraction needs no further remote call.
type CertificateHandle struct {
	ID        string
	Status    string
	Challenge *ChallengeArtifact
}

// CertificateInfo describes a remote certificate for the operator tooling.
type CertificateInfo struct {
	ID      string    `json:"id"`
	Domain  string    `json:"common_name"`
	Status  string    `json:"status"`
	Created time.Time `json:"created"`
	Expires time.Time `json:"expires"`
}

// DownloadedCertificate is the CA's response to a download request. The
// private key never leaves the process; the issuance workflow combines this
// with the locally generated key into CertificateMaterial.
type DownloadedCertificate struct {
	Certificate string `json:"certificate"`
	CABundle    string `json:"ca_bundle"`
}
