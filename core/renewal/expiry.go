package renewal

import (
	"time"

	"github.com/go-acme/lego/v4/certcrypto"

	"github.com/stackway/edgecert/core/certstore"
)

// Decision is the outcome of one expiry evaluation.
type Decision struct {
	// Renew reports whether a new certificate must be obtained now.
	Renew bool

	// Reason is a short human-readable explanation of the decision.
	Reason string

	// NotAfter is the stored certificate's expiry, zero when no
	// certificate could be read.
	NotAfter time.Time

	// Remaining is NotAfter minus the evaluation time, zero when no
	// certificate could be read.
	Remaining time.Duration
}

// Evaluate inspects the stored leaf certificate and decides whether renewal
// is due at the given time. A certificate that cannot be read or parsed is
// treated as due: the only safe response to unusable material is to replace
// it.
func Evaluate(store *certstore.Store, threshold time.Duration, now time.Time) Decision {
	pemBytes, err := store.Load(certstore.FileCertificate)
	if err != nil {
		if certstore.IsNotFound(err) {
			return Decision{Renew: true, Reason: "no certificate on disk"}
		}
		return Decision{Renew: true, Reason: "certificate unreadable: " + err.Error()}
	}

	cert, err := certcrypto.ParsePEMCertificate(pemBytes)
	if err != nil {
		return Decision{Renew: true, Reason: "certificate unparsable: " + err.Error()}
	}

	remaining := cert.NotAfter.Sub(now)
	if remaining <= threshold {
		return Decision{
			Renew:     true,
			Reason:    "certificate inside expiry threshold",
			NotAfter:  cert.NotAfter,
			Remaining: remaining,
		}
	}

	return Decision{
		Renew:     false,
		Reason:    "certificate valid beyond threshold",
		NotAfter:  cert.NotAfter,
		Remaining: remaining,
	}
}
