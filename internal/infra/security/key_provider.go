package security

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrKeyNotFound indicates no verification key matches the requested kid.
var ErrKeyNotFound = errors.New("key not found")

// KeyProvider supplies the RSA keys the token service signs and verifies with.
// The signing key is process-wide immutable configuration, read-only after
// startup.
type KeyProvider interface {
	GetSigningKey() (*rsa.PrivateKey, error)
	GetVerificationKey(kid string) (*rsa.PublicKey, error)
}

// FileKeyProvider loads PEM-encoded RSA keys from a directory. The file name
// without extension becomes the kid. Exactly one private key must be present;
// any number of additional public keys may sit alongside it so tokens signed
// under retired kids stay verifiable.
type FileKeyProvider struct {
	verify  map[string]*rsa.PublicKey
	signing *rsa.PrivateKey
}

// NewFileKeyProvider reads every PEM file in keyDir.
func NewFileKeyProvider(keyDir string) (*FileKeyProvider, error) {
	entries, err := os.ReadDir(keyDir)
	if err != nil {
		return nil, fmt.Errorf("read key directory: %w", err)
	}

	p := &FileKeyProvider{verify: make(map[string]*rsa.PublicKey)}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		path := filepath.Join(keyDir, entry.Name())
		priv, pub, err := loadPEMKey(path)
		if err != nil {
			return nil, err
		}

		kid := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		if priv != nil {
			if p.signing == nil {
				p.signing = priv
			}
			p.verify[kid] = &priv.PublicKey
			continue
		}
		p.verify[kid] = pub
	}

	if p.signing == nil {
		return nil, errors.New("no private key found for signing")
	}
	return p, nil
}

// loadPEMKey parses one PEM file as a private or a public RSA key, trying the
// PKCS1, PKCS8, and PKIX encodings.
func loadPEMKey(path string) (*rsa.PrivateKey, *rsa.PublicKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read key file %s: %w", path, err)
	}

	block, _ := pem.Decode(data)
	if block == nil {
		return nil, nil, fmt.Errorf("no PEM block in %s", path)
	}

	if priv, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return priv, nil, nil
	}
	if parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		if priv, ok := parsed.(*rsa.PrivateKey); ok {
			return priv, nil, nil
		}
	}
	if pub, err := x509.ParsePKCS1PublicKey(block.Bytes); err == nil {
		return nil, pub, nil
	}
	if parsed, err := x509.ParsePKIXPublicKey(block.Bytes); err == nil {
		if pub, ok := parsed.(*rsa.PublicKey); ok {
			return nil, pub, nil
		}
	}

	return nil, nil, fmt.Errorf("no RSA key in %s", path)
}

// GetSigningKey returns the private key used to sign tokens.
func (p *FileKeyProvider) GetSigningKey() (*rsa.PrivateKey, error) {
	return p.signing, nil
}

// GetVerificationKey returns the public key registered under kid.
func (p *FileKeyProvider) GetVerificationKey(kid string) (*rsa.PublicKey, error) {
	key, ok := p.verify[kid]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, kid)
	}
	return key, nil
}
