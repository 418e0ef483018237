package ca

import "context"

// Client is the capability surface of the external certificate authority.
// Implementations may fail any remote call with a transient error; the
// issuance workflow decides whether and when to retry.
type Client interface {
	// CreateCertificate submits a CSR and returns a handle to the remote
	// certificate order in draft state.
	CreateCertificate(ctx context.Context, csrPEM string) (*CertificateHandle, error)

	// ExtractHTTPChallenge returns the file name/content pair that must be
	// served at http://<domain>/.well-known/pki-validation/<fileName>.
	ExtractHTTPChallenge(handle *CertificateHandle) (*ChallengeArtifact, error)

	// RequestVerification asks the CA to fetch the challenge artifact from
	// the domain. Blocks until the CA reports success or failure; callers
	// should bound it with a context timeout.
	RequestVerification(ctx context.Context, certificateID string) error

	// Download fetches the issued certificate and CA bundle. Returns
	// ErrNotReady when issuance still lags verification.
	Download(ctx context.Context, certificateID string) (*DownloadedCertificate, error)
}

// AdminClient is the administrative surface used only by the operator tool,
// never by the automated issuance path.
type AdminClient interface {
	List(ctx context.Context, status string) ([]CertificateInfo, error)
	Get(ctx context.Context, certificateID string) (*CertificateInfo, error)
	Status(ctx context.Context, certificateID string) (string, error)
	Cancel(ctx context.Context, certificateID string) error
	Revoke(ctx context.Context, certificateID, reason string) error
}
