package ca

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"

	"github.com/go-acme/lego/v4/certcrypto"
)

// Fixed CSR subject fields. Only the common name and email address vary per
// deployment.
var csrSubjectTemplate = pkix.Name{
	Country:      []string{"US"},
	Province:     []string{"California"},
	Locality:     []string{"San Francisco"},
	Organization: []string{"edgecert"},
}

// GenerateKeyAndRequest creates a fresh 2048-bit RSA key pair and a CSR for
// the given domain and contact email. Both are returned PEM-encoded.
func GenerateKeyAndRequest(domain, email string) (csrPEM, keyPEM string, err error) {
	if domain == "" {
		return "", "", fmt.Errorf("%w: domain is required", ErrRequestFailed)
	}
	if email == "" {
		return "", "", fmt.Errorf("%w: email is required", ErrRequestFailed)
	}

	key, err := certcrypto.GeneratePrivateKey(certcrypto.RSA2048)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate private key: %w", err)
	}

	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return "", "", fmt.Errorf("unexpected private key type %T", key)
	}

	subject := csrSubjectTemplate
	subject.CommonName = domain

	template := x509.CertificateRequest{
		Subject:            subject,
		DNSNames:           []string{domain},
		EmailAddresses:     []string{email},
		SignatureAlgorithm: x509.SHA256WithRSA,
	}

	der, err := x509.CreateCertificateRequest(rand.Reader, &template, rsaKey)
	if err != nil {
		return "", "", fmt.Errorf("failed to create certificate request: %w", err)
	}

	csrPEM = string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE REQUEST", Bytes: der}))
	keyPEM = string(certcrypto.PEMEncode(rsaKey))

	return csrPEM, keyPEM, nil
}
