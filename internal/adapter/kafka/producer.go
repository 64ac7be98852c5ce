package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/niksmo/digital-store/internal/core/domain"
	"github.com/niksmo/digital-store/internal/core/port"
	"github.com/niksmo/digital-store/pkg/schema"
	"github.com/twmb/franz-go/pkg/kgo"
)

var _ port.OrderPaidProducer = (*OrderPaidProducer)(nil)

// A producer is used for composition.
//
// Producing records to kafka broker and closing underlying [kgo.Client].
type producer struct {
	opPrefix string
	cl       ProducerClient
}

func (p producer) close() {
	const op = "close"
	log := slog.With("op", makeOp(p.opPrefix, op))
	log.Info("closing producer...")
	p.cl.Close()
	log.Info("producer is closed")
}

func (p producer) produce(
	ctx context.Context, rs ...*kgo.Record,
) error {
	const op = "produce"
	res := p.cl.ProduceSync(ctx, rs...)
	if err := res.FirstErr(); err != nil {
		return opErr(err, p.opPrefix, op)
	}
	return nil
}

// An OrderPaidProducer publishes [domain.OrderPaid] keyed by order id,
// so all events of one order land on one partition.
type OrderPaidProducer struct {
	producer producer
	encoder  Encoder
	opPrefix string
}

func NewOrderPaidProducer(
	opts ...ProducerOpt,
) (OrderPaidProducer, error) {
	const op = "NewOrderPaidProducer"

	if len(opts) != 2 {
		panic(opErr(ErrTooFewOpts, op)) // develop mistake
	}

	var options producerOpts
	for _, opt := range opts {
		if err := opt(&options); err != nil {
			return OrderPaidProducer{}, opErr(err, op)
		}
	}

	opPrefix := "OrderPaidProducer"
	p := producer{
		opPrefix: opPrefix,
		cl:       options.cl,
	}

	return OrderPaidProducer{
		producer: p,
		encoder:  options.encoder,
		opPrefix: opPrefix,
	}, nil
}

func (p OrderPaidProducer) Close() {
	p.producer.close()
}

func (p OrderPaidProducer) ProduceOrderPaid(
	ctx context.Context, evt domain.OrderPaid,
) error {
	const op = "ProduceOrderPaid"

	if err := ctx.Err(); err != nil {
		return opErr(err, p.opPrefix, op)
	}

	r, err := p.createRecord(evt)
	if err != nil {
		return opErr(err, p.opPrefix, op)
	}

	if err := p.producer.produce(ctx, r); err != nil {
		return opErr(fmt.Errorf("%w: %w", domain.ErrUpstream, err), p.opPrefix, op)
	}
	return nil
}

func (p OrderPaidProducer) createRecord(
	v domain.OrderPaid,
) (*kgo.Record, error) {
	const op = "createRecord"

	s := p.toSchema(v)
	b, err := p.encoder.Encode(s)
	if err != nil {
		return nil, opErr(err, p.opPrefix, op)
	}
	msgKey := []byte(strconv.FormatInt(s.OrderID, 10))
	return &kgo.Record{Key: msgKey, Value: b}, nil
}

func (OrderPaidProducer) toSchema(v domain.OrderPaid) schema.OrderPaidV1 {
	return orderPaidToSchemaV1(v)
}
