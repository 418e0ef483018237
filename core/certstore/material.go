package certstore

import (
	"errors"
	"fmt"

	"github.com/stackway/edgecert/core/ca"
)

// SaveMaterial persists a complete certificate set under the canonical names,
// plus the mirrored layout for the database consumer. The material must pass
// its own consistency check first; nothing is written otherwise.
func (s *Store) SaveMaterial(m ca.CertificateMaterial) error {
	if err := m.Validate(); err != nil {
		return err
	}

	files := []struct {
		dir     string
		name    string
		content string
	}{
		{s.dir, FilePrivateKey, m.PrivateKey},
		{s.dir, FileCertificate, m.Certificate},
		{s.dir, FileCABundle, m.CABundle},
		{s.dir, FileFullChain, m.FullChain()},
		{s.dbCertDir, DBFilePrivateKey, m.PrivateKey},
		{s.dbCertDir, DBFileCertificate, m.Certificate},
		{s.dbCADir, DBFileCACert, m.CABundle},
	}

	for _, f := range files {
		if err := s.SaveTo(f.dir, f.name, []byte(f.content)); err != nil {
			return fmt.Errorf("persist %s: %w", f.name, err)
		}
	}

	return nil
}

// LoadMaterial reads the canonical certificate set back from disk.
// ErrNotFound from any component means the set is absent or partial and
// issuance should run.
func (s *Store) LoadMaterial() (ca.CertificateMaterial, error) {
	var m ca.CertificateMaterial

	key, err := s.Load(FilePrivateKey)
	if err != nil {
		return m, err
	}
	cert, err := s.Load(FileCertificate)
	if err != nil {
		return m, err
	}
	bundle, err := s.Load(FileCABundle)
	if err != nil {
		return m, err
	}

	m.PrivateKey = string(key)
	m.Certificate = string(cert)
	m.CABundle = string(bundle)
	return m, nil
}

// HasMaterial reports whether all three canonical components are present.
func (s *Store) HasMaterial() (bool, error) {
	for _, name := range []string{FilePrivateKey, FileCertificate, FileCABundle} {
		ok, err := s.Exists(name)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// IsNotFound reports whether the error is the expected-absent state.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
