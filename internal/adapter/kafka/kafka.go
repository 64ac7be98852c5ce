package kafka

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/lovoo/goka"
	"github.com/niksmo/digital-store/internal/core/domain"
	"github.com/niksmo/digital-store/pkg/schema"
	"github.com/twmb/franz-go/pkg/kgo"
)

var (
	ErrTooFewOpts       = errors.New("too few options")
	ErrInvalidValueType = errors.New("invalid value type")
)

type ProducerOpt func(*producerOpts) error

type producerOpts struct {
	cl      ProducerClient
	encoder Encoder
}

// ProducerClientOpt connects a producing client. A nil tlsConfig
// dials in plain text.
func ProducerClientOpt(
	ctx context.Context, seedBrokers []string, topic string, tlsConfig *tls.Config,
) ProducerOpt {
	return func(opts *producerOpts) error {
		kopts := []kgo.Opt{
			kgo.SeedBrokers(seedBrokers...),
			kgo.DefaultProduceTopicAlways(),
			kgo.DefaultProduceTopic(topic),
			kgo.RequiredAcks(kgo.AllISRAcks()),
		}
		if tlsConfig != nil {
			kopts = append(kopts, kgo.DialTLSConfig(tlsConfig))
		}

		cl, err := kgo.NewClient(kopts...)
		if err != nil {
			return err
		}

		if err := cl.Ping(ctx); err != nil {
			cl.Close()
			return err
		}
		opts.cl = cl
		return nil
	}
}

func ProducerEncoderOpt(encoder Encoder) ProducerOpt {
	return func(opts *producerOpts) error {
		if encoder == nil {
			return errors.New("encoder is nil")
		}
		opts.encoder = encoder
		return nil
	}
}

type ProducerClient interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

type Encoder interface {
	Encode(v any) ([]byte, error)
}

type Decoder interface {
	Decode(b []byte, v any) error
}

type Serde interface {
	Encoder
	Decoder
}

// UseTLS makes every goka processor and view created afterwards dial
// brokers over TLS. A nil config leaves the plain text default.
func UseTLS(tlsConfig *tls.Config) {
	if tlsConfig == nil {
		return
	}
	cfg := goka.DefaultConfig()
	cfg.Net.TLS.Enable = true
	cfg.Net.TLS.Config = tlsConfig
	goka.ReplaceGlobalConfig(cfg)
}

func withNonlogProcOpt() goka.ProcessorOption {
	return goka.WithLogger(log.New(io.Discard, "", 0))
}

func makeOp(s ...string) string {
	return strings.Join(s, ".")
}

func opErr(err error, op ...string) error {
	return fmt.Errorf("%s: %w", makeOp(op...), err)
}

func orderPaidToSchemaV1(v domain.OrderPaid) (s schema.OrderPaidV1) {
	s.OrderID = v.OrderID
	s.PaymentIntentID = v.PaymentIntentID
	s.Email = v.Email
	s.Amount = v.Amount
	s.Currency = v.Currency
	s.PaidAt = v.PaidAt.UTC()

	s.Items = make([]schema.OrderPaidItemV1, len(v.Items))
	for i, it := range v.Items {
		s.Items[i].ProductID = it.ProductID
		s.Items[i].Quantity = int32(it.Quantity)
		s.Items[i].UnitPrice = it.UnitPrice
	}
	return
}

func schemaV1ToOrderPaid(s schema.OrderPaidV1) (v domain.OrderPaid) {
	v.OrderID = s.OrderID
	v.PaymentIntentID = s.PaymentIntentID
	v.Email = s.Email
	v.Amount = s.Amount
	v.Currency = s.Currency
	v.PaidAt = s.PaidAt

	v.Items = make([]domain.OrderItem, len(s.Items))
	for i, it := range s.Items {
		v.Items[i].ProductID = it.ProductID
		v.Items[i].Quantity = int(it.Quantity)
		v.Items[i].UnitPrice = it.UnitPrice
	}
	return
}
