package web

import (
	"crypto/tls"
	"fmt"
)

// TLSConfig holds the certificate settings for serving HTTPS.
type TLSConfig struct {
	// CertFile is the path to the server certificate PEM file.
	CertFile string
	// KeyFile is the path to the server private key PEM file.
	KeyFile string
	// MinVersion is the minimum TLS version. Defaults to TLS 1.2.
	MinVersion uint16
}

// Enabled reports whether a certificate is configured.
func (c *TLSConfig) Enabled() bool {
	if c == nil {
		return false
	}
	return c.CertFile != "" || c.KeyFile != ""
}

// Validate checks that the settings are consistent.
func (c *TLSConfig) Validate() error {
	if c == nil {
		return nil
	}
	if (c.CertFile != "") != (c.KeyFile != "") {
		return fmt.Errorf("tls: cert file and key file must be provided together")
	}
	return nil
}

// Build creates a *tls.Config from the settings. Returns nil when
// nothing is configured.
func (c *TLSConfig) Build() (*tls.Config, error) {
	if !c.Enabled() {
		return nil, nil
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	cert, err := tls.LoadX509KeyPair(c.CertFile, c.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("tls: load certificate: %w", err)
	}
	minVersion := c.MinVersion
	if minVersion == 0 {
		minVersion = tls.VersionTLS12
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   minVersion,
	}, nil
}
