package renewal_test

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackway/edgecert/core/certstore"
	"github.com/stackway/edgecert/core/renewal"
)

func newTestStore(t *testing.T) *certstore.Store {
	t.Helper()

	base := t.TempDir()
	store, err := certstore.New(certstore.Config{
		CertificateDir: filepath.Join(base, "certs"),
		DBCertDir:      filepath.Join(base, "db"),
		DBCADir:        filepath.Join(base, "db"),
	})
	require.NoError(t, err)
	return store
}

// leafPEM generates a self-signed certificate expiring at notAfter.
func leafPEM(t *testing.T, notAfter time.Time) []byte {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "example.com"},
		NotBefore:    notAfter.Add(-90 * 24 * time.Hour),
		NotAfter:     notAfter,
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
}

func TestEvaluate(t *testing.T) {
	t.Parallel()

	threshold := 720 * time.Hour
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("missing certificate is due", func(t *testing.T) {
		t.Parallel()

		decision := renewal.Evaluate(newTestStore(t), threshold, now)
		assert.True(t, decision.Renew)
		assert.Equal(t, "no certificate on disk", decision.Reason)
		assert.True(t, decision.NotAfter.IsZero())
	})

	t.Run("unparsable certificate is due", func(t *testing.T) {
		t.Parallel()

		store := newTestStore(t)
		require.NoError(t, store.Save(certstore.FileCertificate, []byte("not a pem")))

		decision := renewal.Evaluate(store, threshold, now)
		assert.True(t, decision.Renew)
		assert.Contains(t, decision.Reason, "unparsable")
	})

	t.Run("certificate well beyond threshold is not due", func(t *testing.T) {
		t.Parallel()

		store := newTestStore(t)
		notAfter := now.Add(threshold + 30*24*time.Hour)
		require.NoError(t, store.Save(certstore.FileCertificate, leafPEM(t, notAfter)))

		decision := renewal.Evaluate(store, threshold, now)
		assert.False(t, decision.Renew)
		assert.Equal(t, notAfter, decision.NotAfter.UTC())
		assert.Equal(t, threshold+30*24*time.Hour, decision.Remaining)
	})

	t.Run("remaining exactly at threshold is due", func(t *testing.T) {
		t.Parallel()

		store := newTestStore(t)
		require.NoError(t, store.Save(certstore.FileCertificate, leafPEM(t, now.Add(threshold))))

		decision := renewal.Evaluate(store, threshold, now)
		assert.True(t, decision.Renew)
	})

	t.Run("one second past the threshold boundary is not due", func(t *testing.T) {
		t.Parallel()

		store := newTestStore(t)
		require.NoError(t, store.Save(certstore.FileCertificate, leafPEM(t, now.Add(threshold+time.Second))))

		decision := renewal.Evaluate(store, threshold, now)
		assert.False(t, decision.Renew)
	})

	t.Run("expired certificate is due", func(t *testing.T) {
		t.Parallel()

		store := newTestStore(t)
		require.NoError(t, store.Save(certstore.FileCertificate, leafPEM(t, now.Add(-time.Hour))))

		decision := renewal.Evaluate(store, threshold, now)
		assert.True(t, decision.Renew)
		assert.Negative(t, decision.Remaining)
	})
}
