package resolver

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/pkcs12"
)

// Credential is the materialized authentication material for one
// resolution path. Exactly one of Secret or (PrivateKey, Certificate)
// is populated, matching Method.
type Credential struct {
	Method string
	Source string

	Secret      string
	PrivateKey  *rsa.PrivateKey
	Certificate *x509.Certificate
}

// loadCertificateFile loads a client certificate with its private key
// from a PEM or PFX/PKCS#12 file.
func loadCertificateFile(path, password string) (*rsa.PrivateKey, *x509.Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading certificate file: %w", err)
	}

	if strings.HasPrefix(strings.TrimSpace(string(data)), "-----BEGIN") {
		return parsePEM(data)
	}

	return parsePFX(data, password)
}

// parsePFXBase64 decodes a base64 PFX blob, the format Key Vault
// returns when a certificate's secret is fetched.
func parsePFXBase64(b64, password string) (*rsa.PrivateKey, *x509.Certificate, error) {
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(b64))
	if err != nil {
		return nil, nil, fmt.Errorf("decoding base64 certificate: %w", err)
	}

	return parsePFX(data, password)
}

func parsePFX(data []byte, password string) (*rsa.PrivateKey, *x509.Certificate, error) {
	key, cert, err := pkcs12.Decode(data, password)
	if err != nil {
		return nil, nil, fmt.Errorf("decoding PKCS#12 bundle: %w", err)
	}

	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, nil, fmt.Errorf("certificate key is %T, only RSA keys are supported", key)
	}

	return rsaKey, cert, nil
}

func parsePEM(data []byte) (*rsa.PrivateKey, *x509.Certificate, error) {
	var (
		key  *rsa.PrivateKey
		cert *x509.Certificate
	)

	for {
		var block *pem.Block

		block, data = pem.Decode(data)
		if block == nil {
			break
		}

		switch block.Type {
		case "CERTIFICATE":
			if cert != nil {
				continue // chain certs after the leaf are ignored
			}

			parsed, err := x509.ParseCertificate(block.Bytes)
			if err != nil {
				return nil, nil, fmt.Errorf("parsing certificate: %w", err)
			}

			cert = parsed
		case "RSA PRIVATE KEY":
			parsed, err := x509.ParsePKCS1PrivateKey(block.Bytes)
			if err != nil {
				return nil, nil, fmt.Errorf("parsing RSA private key: %w", err)
			}

			key = parsed
		case "PRIVATE KEY":
			parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
			if err != nil {
				return nil, nil, fmt.Errorf("parsing private key: %w", err)
			}

			rsaKey, ok := parsed.(*rsa.PrivateKey)
			if !ok {
				return nil, nil, fmt.Errorf("private key is %T, only RSA keys are supported", parsed)
			}

			key = rsaKey
		}
	}

	if cert == nil {
		return nil, nil, fmt.Errorf("no certificate found in PEM data")
	}

	if key == nil {
		return nil, nil, fmt.Errorf("no private key found in PEM data")
	}

	return key, cert, nil
}
