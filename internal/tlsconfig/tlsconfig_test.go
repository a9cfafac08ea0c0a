package tlsconfig

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/unkn0wn-root/reqrun/internal/model"
)

func TestBuildUsesCustomRootCAs(t *testing.T) {
	tmp := t.TempDir()
	caPath := filepath.Join(tmp, "ca.pem")
	writeTestCA(t, caPath)

	cfg, err := Build(Files{RootCAs: []string{"ca.pem"}}, nil, tmp)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if cfg.RootCAs == nil {
		t.Fatalf("expected RootCAs to be set")
	}
	cert := parseCert(t, caPath)
	if _, err := cert.Verify(x509.VerifyOptions{Roots: cfg.RootCAs}); err != nil {
		t.Fatalf("expected custom CA to verify: %v", err)
	}
}

func TestBuildMissingRootCAFile(t *testing.T) {
	if _, err := Build(Files{RootCAs: []string{"missing.pem"}}, nil, t.TempDir()); err == nil {
		t.Fatalf("expected error for missing root ca file")
	}
}

func TestBuildLoadsPEMClientCert(t *testing.T) {
	certPEM, keyPEM := makeClientPair(t)

	cfg, err := Build(Files{}, []model.Certificate{{
		ID:   "client",
		Type: "pem",
		Cert: &model.CertificateData{Data: certPEM},
		Key:  &model.CertificateData{Data: keyPEM},
	}}, "")
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if len(cfg.Certificates) != 1 {
		t.Fatalf("expected client certificate to be loaded, got %d", len(cfg.Certificates))
	}
}

func TestBuildRejectsPartialPEMCert(t *testing.T) {
	certPEM, _ := makeClientPair(t)
	_, err := Build(Files{}, []model.Certificate{{
		ID:   "partial",
		Type: "pem",
		Cert: &model.CertificateData{Data: certPEM},
	}}, "")
	if err == nil {
		t.Fatalf("expected error for pem certificate without key")
	}
}

func TestBuildRejectsUnknownCertType(t *testing.T) {
	_, err := Build(Files{}, []model.Certificate{{ID: "x", Type: "jks"}}, "")
	if err == nil {
		t.Fatalf("expected error for unsupported certificate type")
	}
}

func TestBuildInsecureFlag(t *testing.T) {
	cfg, err := Build(Files{Insecure: true}, nil, "")
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if !cfg.InsecureSkipVerify {
		t.Fatalf("expected InsecureSkipVerify to be set")
	}
}

func parseCert(t *testing.T, path string) *x509.Certificate {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read cert: %v", err)
	}
	block, _ := pem.Decode(data)
	if block == nil {
		t.Fatalf("decode cert %s: got nil block", path)
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		t.Fatalf("parse cert: %v", err)
	}
	return cert
}

func writeTestCA(t *testing.T, path string) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate ca key: %v", err)
	}

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject: pkix.Name{
			CommonName: "reqrun-test-ca",
		},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("create ca cert: %v", err)
	}
	pemData := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	if err := os.WriteFile(path, pemData, 0o644); err != nil {
		t.Fatalf("write ca pem: %v", err)
	}
}

func makeClientPair(t *testing.T) (certPEM, keyPEM []byte) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate client key: %v", err)
	}

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(2),
		Subject: pkix.Name{
			CommonName: "reqrun-test-client",
		},
		NotBefore:   time.Now().Add(-time.Hour),
		NotAfter:    time.Now().Add(time.Hour),
		KeyUsage:    x509.KeyUsageDigitalSignature,
		ExtKeyUsage: []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth},
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("create client cert: %v", err)
	}

	certPEM = pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})

	keyBytes, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatalf("marshal client key: %v", err)
	}
	keyPEM = pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyBytes})
	return certPEM, keyPEM
}
