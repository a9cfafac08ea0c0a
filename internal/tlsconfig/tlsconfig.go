package tlsconfig

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"

	"golang.org/x/crypto/pkcs12"

	"github.com/unkn0wn-root/reqrun/internal/errdef"
	"github.com/unkn0wn-root/reqrun/internal/model"
)

type Files struct {
	RootCAs  []string
	Insecure bool
}

// Build constructs a tls.Config from CA files plus the request's client
// certificates as resolved by the certificate store. Paths are resolved
// relative to baseDir when not absolute.
func Build(cfg Files, certs []model.Certificate, baseDir string) (*tls.Config, error) {
	tc := &tls.Config{InsecureSkipVerify: cfg.Insecure} // nolint:gosec

	if len(cfg.RootCAs) > 0 {
		pool, err := loadRootCAs(cfg.RootCAs, baseDir)
		if err != nil {
			return nil, err
		}
		tc.RootCAs = pool
	} else if sys, err := x509.SystemCertPool(); err == nil && sys != nil {
		tc.RootCAs = sys
	}

	for i := range certs {
		cert, err := clientCert(certs[i])
		if err != nil {
			return nil, err
		}
		tc.Certificates = append(tc.Certificates, cert)
	}

	return tc, nil
}

func loadRootCAs(paths []string, baseDir string) (*x509.CertPool, error) {
	pool := x509.NewCertPool()
	for _, p := range paths {
		resolved := resolvePath(p, baseDir)
		data, readErr := os.ReadFile(resolved)
		if readErr != nil {
			return nil, errdef.Wrap(errdef.CodeConfig, readErr, "read root ca %s", p)
		}
		if ok := pool.AppendCertsFromPEM(data); !ok {
			return nil, errdef.New(errdef.CodeConfig, "append cert from %s", p)
		}
	}
	return pool, nil
}

// clientCert converts stored certificate material into a usable key pair.
// PEM certificates carry cert and key separately; p12 bundles both behind a
// passphrase.
func clientCert(c model.Certificate) (tls.Certificate, error) {
	switch c.Type {
	case "pem":
		if c.Cert == nil || c.Key == nil {
			return tls.Certificate{}, errdef.New(errdef.CodeConfig, "pem certificate %s needs cert and key", c.ID)
		}
		cert, err := tls.X509KeyPair(c.Cert.Data, c.Key.Data)
		if err != nil {
			return tls.Certificate{}, errdef.Wrap(errdef.CodeConfig, err, "load pem certificate %s", c.ID)
		}
		return cert, nil
	case "p12":
		if c.Cert == nil {
			return tls.Certificate{}, errdef.New(errdef.CodeConfig, "p12 certificate %s has no data", c.ID)
		}
		blocks, err := pkcs12.ToPEM(c.Cert.Data, c.Cert.Passphrase)
		if err != nil {
			return tls.Certificate{}, errdef.Wrap(errdef.CodeConfig, err, "decode p12 certificate %s", c.ID)
		}
		var certPEM, keyPEM []byte
		for _, block := range blocks {
			encoded := pem.EncodeToMemory(block)
			if block.Type == "CERTIFICATE" {
				certPEM = append(certPEM, encoded...)
			} else {
				keyPEM = append(keyPEM, encoded...)
			}
		}
		cert, err := tls.X509KeyPair(certPEM, keyPEM)
		if err != nil {
			return tls.Certificate{}, errdef.Wrap(errdef.CodeConfig, err, "load p12 certificate %s", c.ID)
		}
		return cert, nil
	default:
		return tls.Certificate{}, errdef.New(errdef.CodeConfig, "unsupported certificate type %q", c.Type)
	}
}

func resolvePath(path, baseDir string) string {
	if filepath.IsAbs(path) || baseDir == "" {
		return filepath.Clean(path)
	}
	return filepath.Clean(filepath.Join(baseDir, path))
}
