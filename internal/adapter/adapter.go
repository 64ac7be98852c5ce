package adapter

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
)

// A MakeTLSConfig returns [*tls.Config] for broker and schema registry
// clients.
//
// All args are the filepaths. The client certificate is optional, cert
// and key must be given together.
func MakeTLSConfig(ca, cert, key string) (*tls.Config, error) {
	const op = "adapter.MakeTLSConfig"

	cfg := &tls.Config{MinVersion: tls.VersionTLS12}

	if ca != "" {
		caCert, err := os.ReadFile(ca)
		if err != nil {
			return nil, fmt.Errorf(
				"%s: failed to read CA certificate file: %w", op, err,
			)
		}

		caCertPool := x509.NewCertPool()
		if !caCertPool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("%s: failed to parse CA certificate", op)
		}
		cfg.RootCAs = caCertPool
	}

	if (cert == "") != (key == "") {
		return nil, fmt.Errorf(
			"%s: %w", op, errors.New("certificate and key go together"),
		)
	}

	if cert != "" {
		clientCert, err := tls.LoadX509KeyPair(cert, key)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		cfg.Certificates = []tls.Certificate{clientCert}
	}

	return cfg, nil
}
