package schema

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"time"

	"github.com/hamba/avro/v2"
	"github.com/twmb/franz-go/pkg/sr"
)

func AvroEncodeFn(s avro.Schema) func(v any) ([]byte, error) {
	return func(v any) ([]byte, error) {
		return avro.Marshal(s, v)
	}
}

func AvroDecodeFn(s avro.Schema) func([]byte, any) error {
	return func(data []byte, v any) error {
		return avro.Unmarshal(s, data, v)
	}
}

// A SchemaIdentifier resolves the registry id of a schema under a subject.
type SchemaIdentifier interface {
	DetermineID(ctx context.Context, subject, avroSchemaText string) (int, error)
}

// A RegistryIdentifier registers schemas in a schema registry.
// Registering an already known schema returns its existing id.
type RegistryIdentifier struct {
	cl *sr.Client
}

func NewRegistryIdentifier(
	urls []string, tlsConfig *tls.Config, timeout time.Duration,
) (RegistryIdentifier, error) {
	const op = "NewRegistryIdentifier"

	opts := []sr.ClientOpt{sr.URLs(urls...)}
	httpClient := &http.Client{Timeout: timeout}
	if tlsConfig != nil {
		httpClient.Transport = &http.Transport{TLSClientConfig: tlsConfig}
	}
	opts = append(opts, sr.HTTPClient(httpClient))

	cl, err := sr.NewClient(opts...)
	if err != nil {
		return RegistryIdentifier{}, fmt.Errorf("%s: %w", op, err)
	}
	return RegistryIdentifier{cl}, nil
}

func (r RegistryIdentifier) DetermineID(
	ctx context.Context, subject, avroSchemaText string,
) (int, error) {
	const op = "RegistryIdentifier.DetermineID"

	ss, err := r.cl.CreateSchema(ctx, subject, sr.Schema{
		Schema: avroSchemaText,
		Type:   sr.TypeAvro,
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return ss.ID, nil
}
