package ca_test

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackway/edgecert/core/ca"
)

// newTestMaterial builds a private CA, issues a leaf for example.com expiring
// at notAfter, and returns the complete PEM material.
func newTestMaterial(t *testing.T, notAfter time.Time) ca.CertificateMaterial {
	t.Helper()

	caKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	caTemplate := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "edgecert test ca"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              notAfter.Add(24 * time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign,
	}
	caDER, err := x509.CreateCertificate(rand.Reader, caTemplate, caTemplate, &caKey.PublicKey, caKey)
	require.NoError(t, err)
	caCert, err := x509.ParseCertificate(caDER)
	require.NoError(t, err)

	leafKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	leafTemplate := &x509.Certificate{
		SerialNumber: big.NewInt(2),
		Subject:      pkix.Name{CommonName: "example.com"},
		DNSNames:     []string{"example.com"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     notAfter,
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	leafDER, err := x509.CreateCertificate(rand.Reader, leafTemplate, caCert, &leafKey.PublicKey, caKey)
	require.NoError(t, err)

	keyDER, err := x509.MarshalECPrivateKey(leafKey)
	require.NoError(t, err)

	return ca.CertificateMaterial{
		PrivateKey:  string(pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})),
		Certificate: string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: leafDER})),
		CABundle:    string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: caDER})),
	}
}

func TestCertificateMaterial_Validate(t *testing.T) {
	t.Parallel()

	t.Run("accepts complete material", func(t *testing.T) {
		t.Parallel()

		m := newTestMaterial(t, time.Now().Add(90*24*time.Hour))
		require.NoError(t, m.Validate())
	})

	t.Run("rejects missing components", func(t *testing.T) {
		t.Parallel()

		m := newTestMaterial(t, time.Now().Add(time.Hour))
		for _, mutate := range []func(*ca.CertificateMaterial){
			func(m *ca.CertificateMaterial) { m.PrivateKey = "" },
			func(m *ca.CertificateMaterial) { m.Certificate = "" },
			func(m *ca.CertificateMaterial) { m.CABundle = "" },
		} {
			broken := m
			mutate(&broken)
			require.ErrorIs(t, broken.Validate(), ca.ErrIncompleteMaterial)
		}
	})

	t.Run("rejects key that does not match certificate", func(t *testing.T) {
		t.Parallel()

		m := newTestMaterial(t, time.Now().Add(time.Hour))
		other := newTestMaterial(t, time.Now().Add(time.Hour))
		m.PrivateKey = other.PrivateKey
		require.ErrorIs(t, m.Validate(), ca.ErrKeyMismatch)
	})

	t.Run("rejects bundle from a different authority", func(t *testing.T) {
		t.Parallel()

		m := newTestMaterial(t, time.Now().Add(time.Hour))
		other := newTestMaterial(t, time.Now().Add(time.Hour))
		m.CABundle = other.CABundle
		require.ErrorIs(t, m.Validate(), ca.ErrChainInvalid)
	})

	t.Run("rejects garbage bundle", func(t *testing.T) {
		t.Parallel()

		m := newTestMaterial(t, time.Now().Add(time.Hour))
		m.CABundle = "not a pem"
		require.ErrorIs(t, m.Validate(), ca.ErrChainInvalid)
	})
}

func TestCertificateMaterial_FullChain(t *testing.T) {
	t.Parallel()

	m := ca.CertificateMaterial{Certificate: "LEAF", CABundle: "BUNDLE"}
	assert.Equal(t, "LEAF\nBUNDLE", m.FullChain())
}

func TestCertificateMaterial_Leaf(t *testing.T) {
	t.Parallel()

	notAfter := time.Now().Add(48 * time.Hour).Truncate(time.Second).UTC()
	m := newTestMaterial(t, notAfter)

	leaf, err := m.Leaf()
	require.NoError(t, err)
	assert.Equal(t, "example.com", leaf.Subject.CommonName)
	assert.Equal(t, notAfter, leaf.NotAfter.UTC())

	_, err = ca.CertificateMaterial{Certificate: "garbage"}.Leaf()
	require.Error(t, err)
}

func TestCertificateMaterial_TLSCertificate(t *testing.T) {
	t.Parallel()

	m := newTestMaterial(t, time.Now().Add(time.Hour))
	cert, err := m.TLSCertificate()
	require.NoError(t, err)
	// Full chain carries the leaf and the bundled CA.
	assert.Len(t, cert.Certificate, 2)

	m.PrivateKey = "garbage"
	_, err = m.TLSCertificate()
	require.ErrorIs(t, err, ca.ErrKeyMismatch)
}
