package web

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"io"
	"math/big"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// generateServerCert writes a self-signed certificate valid for
// localhost and 127.0.0.1 into a temp directory.
func generateServerCert(t *testing.T) (certFile, keyFile string) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	template := x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "bolt.test"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1")},
		DNSNames:              []string{"localhost"},
	}
	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("create certificate: %v", err)
	}
	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatalf("marshal key: %v", err)
	}

	dir := t.TempDir()
	certFile = filepath.Join(dir, "server.pem")
	keyFile = filepath.Join(dir, "server-key.pem")
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})
	if err := os.WriteFile(certFile, certPEM, 0o600); err != nil {
		t.Fatalf("write cert: %v", err)
	}
	if err := os.WriteFile(keyFile, keyPEM, 0o600); err != nil {
		t.Fatalf("write key: %v", err)
	}
	return certFile, keyFile
}

func TestTLSConfig_ValidateRequiresPair(t *testing.T) {
	if err := (&TLSConfig{CertFile: "cert.pem"}).Validate(); err == nil {
		t.Error("cert without key should fail validation")
	}
	if err := (&TLSConfig{KeyFile: "key.pem"}).Validate(); err == nil {
		t.Error("key without cert should fail validation")
	}
	if err := (&TLSConfig{}).Validate(); err != nil {
		t.Errorf("empty config should validate: %v", err)
	}
}

func TestTLSConfig_BuildDisabled(t *testing.T) {
	cfg, err := (&TLSConfig{}).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if cfg != nil {
		t.Error("expected nil config when nothing is set")
	}
}

func TestTLSConfig_BuildMissingFiles(t *testing.T) {
	c := &TLSConfig{
		CertFile: filepath.Join(t.TempDir(), "absent.pem"),
		KeyFile:  filepath.Join(t.TempDir(), "absent-key.pem"),
	}
	if _, err := c.Build(); err == nil {
		t.Fatal("expected an error for missing certificate files")
	}
}

func TestTLSConfig_Build(t *testing.T) {
	certFile, keyFile := generateServerCert(t)
	cfg, err := (&TLSConfig{CertFile: certFile, KeyFile: keyFile}).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(cfg.Certificates) != 1 {
		t.Fatalf("expected 1 certificate, got %d", len(cfg.Certificates))
	}
	if cfg.MinVersion != tls.VersionTLS12 {
		t.Errorf("expected TLS 1.2 minimum, got %x", cfg.MinVersion)
	}
}

func TestServer_ServesTLS(t *testing.T) {
	certFile, keyFile := generateServerCert(t)
	tlsCfg, err := (&TLSConfig{CertFile: certFile, KeyFile: keyFile}).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "secure ok")
	})
	srv := NewServer("127.0.0.1:0", handler, nil, WithTLS(tlsCfg))
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { _ = srv.Stop(context.Background()) })

	certPEM, err := os.ReadFile(certFile)
	if err != nil {
		t.Fatalf("read cert: %v", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(certPEM) {
		t.Fatal("failed to add certificate to pool")
	}
	client := &http.Client{
		Transport: &http.Transport{
			TLSClientConfig:   &tls.Config{RootCAs: pool},
			ForceAttemptHTTP2: true,
		},
		Timeout: 5 * time.Second,
	}

	resp, err := client.Get("https://" + srv.Addr() + "/")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	if string(body) != "secure ok" {
		t.Errorf("unexpected body %q", body)
	}
	if resp.TLS == nil {
		t.Error("expected a TLS connection state")
	}
	if resp.ProtoMajor != 2 {
		t.Errorf("expected HTTP/2 over ALPN, got HTTP/%d", resp.ProtoMajor)
	}
}
