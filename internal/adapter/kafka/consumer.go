package kafka

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/niksmo/digital-store/internal/core/domain"
	"github.com/niksmo/digital-store/internal/core/port"
	"github.com/niksmo/digital-store/pkg/retry"
	"github.com/niksmo/digital-store/pkg/schema"
	"github.com/twmb/franz-go/pkg/kgo"
)

const (
	slowDownDelay        = time.Second
	defaultHandleTries   = 5
	defaultHandleBackoff = 200 * time.Millisecond
)

type ConsumerClient interface {
	PollFetches(context.Context) kgo.Fetches
	CommitUncommittedOffsets(context.Context) error
	Close()
}

////////////////////////////////////////////////////////
///////////////           OPTS            //////////////
////////////////////////////////////////////////////////

type ConsumerOpt func(*consumerOpts) error

// ConsumerClientOpt joins the consumer group with auto commit disabled,
// offsets are committed once a fetch is handled.
func ConsumerClientOpt(
	seedBrokers []string, topic, group string, tlsConfig *tls.Config,
) ConsumerOpt {
	return func(co *consumerOpts) error {
		kopts := []kgo.Opt{
			kgo.SeedBrokers(seedBrokers...),
			kgo.ConsumeTopics(topic),
			kgo.ConsumerGroup(group),
			kgo.DisableAutoCommit(),
		}
		if tlsConfig != nil {
			kopts = append(kopts, kgo.DialTLSConfig(tlsConfig))
		}

		cl, err := kgo.NewClient(kopts...)
		if err != nil {
			return err
		}
		co.cl = cl
		return nil
	}
}

func ConsumerDecoderOpt(decoder Decoder) ConsumerOpt {
	return func(co *consumerOpts) error {
		if decoder == nil {
			return errors.New("decoder is nil")
		}
		co.decoder = decoder
		return nil
	}
}

func OrderPaidHandlerOpt(h port.OrderPaidHandler) ConsumerOpt {
	return func(co *consumerOpts) error {
		if h == nil {
			return errors.New("order paid handler is nil")
		}
		co.orderPaidHandler = h
		return nil
	}
}

// HandleRetryOpt sets how a failing event is retried before the
// consumer slows down and tries it again.
func HandleRetryOpt(attempts int, backoff retry.Backoff) ConsumerOpt {
	return func(co *consumerOpts) error {
		co.handleRetry = retry.RetryConfig{
			MaxAttempts: attempts,
			Backoff:     backoff,
		}
		return nil
	}
}

type consumerOpts struct {
	cl               ConsumerClient
	decoder          Decoder
	orderPaidHandler port.OrderPaidHandler
	handleRetry      retry.RetryConfig
}

func (co *consumerOpts) apply(opts ...ConsumerOpt) error {
	co.handleRetry = retry.RetryConfig{
		MaxAttempts: defaultHandleTries,
		Backoff:     retry.ExponentialBackoff(defaultHandleBackoff),
	}
	for _, opt := range opts {
		if err := opt(co); err != nil {
			return err
		}
	}
	if co.cl == nil || co.decoder == nil {
		return ErrTooFewOpts
	}
	return nil
}

////////////////////////////////////////////////////////
////////////           CONSUMERS            ////////////
////////////////////////////////////////////////////////

// A consumer is used for composition.
//
// Fetching records from kafka broker and closing underlying [kgo.Client].

type consumerParent interface {
	processFetches(context.Context, kgo.Fetches) error
}

type consumer struct {
	opPrefix      string
	parent        consumerParent
	cl            ConsumerClient
	slowDownTimer *time.Timer
}

func (c consumer) run(ctx context.Context) {
	const op = "run"
	log := slog.With("op", makeOp(c.opPrefix, op))

	log.Info("running")

	for {
		select {
		case <-ctx.Done():
			return
		default:
			err := c.consume(ctx)
			if err != nil {
				if ctx.Err() != nil {
					continue
				}
				log.Error("failed to consume", "err", err)
				c.slowDown(ctx)
			}
		}
	}
}

func (c consumer) consume(ctx context.Context) error {
	const op = "consume"

	fetches, err := c.pollFetches(ctx)
	if err != nil {
		return opErr(err, c.opPrefix, op)
	}

	if fetches.Empty() {
		return nil
	}

	err = c.parent.processFetches(ctx, fetches)
	if err != nil {
		return opErr(err, c.opPrefix, op)
	}

	err = c.commit(ctx)
	if err != nil {
		return opErr(err, c.opPrefix, op)
	}
	return nil
}

func (c consumer) pollFetches(ctx context.Context) (kgo.Fetches, error) {
	const op = "pollFetches"

	fetches := c.cl.PollFetches(ctx)
	if err := fetches.Err0(); err != nil {
		return nil, opErr(err, c.opPrefix, op)
	}

	err := c.handleFetchesErrs(fetches)
	if err != nil {
		return nil, opErr(err, c.opPrefix, op)
	}

	return fetches, nil
}

func (c consumer) handleFetchesErrs(fetches kgo.Fetches) error {
	var errsMessages []string
	fetches.EachError(func(t string, p int32, err error) {
		if err != nil {
			errMsg := fmt.Sprintf(
				"topic %q partition %d: %q", t, p, err,
			)
			errsMessages = append(errsMessages, errMsg)
		}
	})

	if len(errsMessages) != 0 {
		return errors.New(strings.Join(errsMessages, "; "))
	}
	return nil
}

func (c consumer) slowDown(ctx context.Context) {
	c.slowDownTimer.Reset(slowDownDelay)
	select {
	case <-ctx.Done():
	case <-c.slowDownTimer.C:
	}
}

func (c consumer) commit(ctx context.Context) error {
	const op = "commit"

	err := ctx.Err()
	if err != nil {
		return opErr(err, c.opPrefix, op)
	}

	err = c.cl.CommitUncommittedOffsets(ctx)
	if err != nil {
		return opErr(err, c.opPrefix, op)
	}
	return nil
}

func (c consumer) close() {
	const op = "close"
	log := slog.With("op", makeOp(c.opPrefix, op))

	c.slowDownTimer.Stop()

	log.Info("closing consumer...")
	c.cl.Close()
	log.Info("consumer is closed")
}

// A FulfillmentConsumer hands paid orders to the fulfillment service.
//
// Records are handled one by one in partition order. A failing record is
// retried until it succeeds or the consumer stops; offsets are committed
// only after the whole fetch is handled, so delivery is at least once.
type FulfillmentConsumer struct {
	opPrefix string
	consumer consumer
	handler  port.OrderPaidHandler
	decoder  Decoder
	retryCfg retry.RetryConfig
}

func NewFulfillmentConsumer(
	opts ...ConsumerOpt,
) (fc FulfillmentConsumer, err error) {
	const op = "NewFulfillmentConsumer"

	var options consumerOpts
	if err := options.apply(opts...); err != nil {
		return fc, opErr(err, op)
	}
	if options.orderPaidHandler == nil {
		return fc, opErr(ErrTooFewOpts, op)
	}

	opPrefix := "FulfillmentConsumer"

	fc.opPrefix = opPrefix
	fc.handler = options.orderPaidHandler
	fc.decoder = options.decoder
	fc.retryCfg = options.handleRetry

	fc.consumer = consumer{
		opPrefix:      opPrefix,
		parent:        fc,
		cl:            options.cl,
		slowDownTimer: time.NewTimer(0),
	}

	return fc, nil
}

func (c FulfillmentConsumer) Run(ctx context.Context) {
	c.consumer.run(ctx)
}

func (c FulfillmentConsumer) Close() {
	c.consumer.close()
}

func (c FulfillmentConsumer) processFetches(
	ctx context.Context, fetches kgo.Fetches,
) error {
	const op = "processFetches"
	log := slog.With("op", makeOp(c.opPrefix, op))

	var records []*kgo.Record
	fetches.EachRecord(func(r *kgo.Record) {
		records = append(records, r)
	})

	for _, r := range records {
		evt, err := c.decodeRecValue(r)
		if err != nil {
			log.Error(
				"skip undecodable record",
				"partition", r.Partition, "offset", r.Offset,
				"err", opErr(err, c.opPrefix, op),
			)
			continue
		}

		if err := c.handle(ctx, evt); err != nil {
			return opErr(err, c.opPrefix, op)
		}
	}
	return nil
}

func (c FulfillmentConsumer) handle(
	ctx context.Context, evt domain.OrderPaid,
) error {
	const op = "handle"
	log := slog.With("op", makeOp(c.opPrefix, op), "orderID", evt.OrderID)

	for {
		err := retry.Do(ctx, c.retryCfg, func() error {
			return c.handler.HandleOrderPaid(ctx, evt)
		})
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return opErr(err, c.opPrefix, op)
		}
		log.Error("failed to handle order paid event", "err", err)
		pause(ctx, slowDownDelay)
	}
}

func pause(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (c FulfillmentConsumer) decodeRecValue(
	r *kgo.Record,
) (domain.OrderPaid, error) {
	var s schema.OrderPaidV1
	err := c.decoder.Decode(r.Value, &s)
	if err != nil {
		return domain.OrderPaid{}, err
	}
	return schemaV1ToOrderPaid(s), nil
}
