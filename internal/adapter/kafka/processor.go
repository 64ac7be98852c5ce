package kafka

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"

	"github.com/lovoo/goka"
	"github.com/niksmo/digital-store/internal/core/port"
	"github.com/niksmo/digital-store/pkg/schema"
)

var _ port.SalesProcessor = (*ProductSalesProcessor)(nil)

// A processor is used for composition.
//
// Running and closing the underlying [goka.Processor]
type processor struct {
	opPrefix string
	gp       *goka.Processor
}

func (p *processor) run(
	ctx context.Context, stopFn context.CancelFunc, wg *sync.WaitGroup,
) {
	const op = "run"
	log := slog.With("op", makeOp(p.opPrefix, op))

	defer wg.Done()

	go p.runProc(ctx, stopFn)

	log.Info("preparing...")
	p.waitForReady(ctx)
	log.Info("running")
}

func (p *processor) runProc(ctx context.Context, stopFn context.CancelFunc) {
	const op = "runProc"
	log := slog.With("op", makeOp(p.opPrefix, op))

	defer stopFn()

	err := p.gp.Run(ctx)
	if err != nil {
		log.Error("stopped", "err", err)
		return
	}
	log.Info("stopped")
}

func (p *processor) waitForReady(ctx context.Context) {
	const op = "waitForReady"
	log := slog.With("op", makeOp(p.opPrefix, op))

	err := p.gp.WaitForReadyContext(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		log.Error("fall down while preparing", "err", err)
	}
}

func (p *processor) close() {
	const op = "close"
	log := slog.With("op", makeOp(p.opPrefix, op))

	log.Info("closing processor...")
	p.gp.Stop()
	log.Info("processor is closed")
}

// An orderPaidCodec used for serde [schema.OrderPaidV1]
type orderPaidCodec struct {
	serde Serde
}

func newOrderPaidCodec(s Serde) orderPaidCodec {
	return orderPaidCodec{s}
}

func (c orderPaidCodec) Encode(v any) ([]byte, error) {
	const op = "orderPaidCodec.Encode"
	if _, ok := v.(schema.OrderPaidV1); !ok {
		return nil, opErr(ErrInvalidValueType, op)
	}
	return c.serde.Encode(v)
}

func (c orderPaidCodec) Decode(data []byte) (any, error) {
	const op = "orderPaidCodec.Decode"
	var s schema.OrderPaidV1
	if err := c.serde.Decode(data, &s); err != nil {
		return nil, opErr(err, op)
	}
	return s, nil
}

// A unitsCodec used for serde sold units of one product.
type unitsCodec struct{}

func (unitsCodec) Encode(v any) ([]byte, error) {
	const op = "unitsCodec.Encode"
	n, ok := v.(int64)
	if !ok {
		return nil, opErr(ErrInvalidValueType, op)
	}
	return strconv.AppendInt([]byte(nil), n, 10), nil
}

func (unitsCodec) Decode(data []byte) (any, error) {
	const op = "unitsCodec.Decode"
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return nil, opErr(err, op)
	}
	return n, nil
}

// A ProductSalesProcessor counts sold units per product.
//
// Paid orders arrive keyed by order id, every line is re-keyed by
// product id through the loopback topic and summed into the group table.
type ProductSalesProcessor struct {
	opPrefix string
	proc     processor
}

func NewProductSalesProc(
	seedBrokers []string,
	inputStream string,
	group string,
	orderPaidSerde Serde,
	opts ...goka.ProcessorOption,
) (*ProductSalesProcessor, error) {
	const op = "NewProductSalesProc"

	p := ProductSalesProcessor{opPrefix: "ProductSalesProcessor"}

	gg := goka.DefineGroup(goka.Group(group),
		goka.Input(
			goka.Stream(inputStream),
			newOrderPaidCodec(orderPaidSerde),
			p.splitFn,
		),
		goka.Loop(unitsCodec{}, p.countFn),
		goka.Persist(unitsCodec{}),
	)

	opts = append([]goka.ProcessorOption{withNonlogProcOpt()}, opts...)
	gp, err := goka.NewProcessor(seedBrokers, gg, opts...)
	if err != nil {
		return nil, opErr(err, op)
	}

	p.proc = processor{
		opPrefix: p.opPrefix,
		gp:       gp,
	}
	return &p, nil
}

func (p *ProductSalesProcessor) Run(
	ctx context.Context, stopFn context.CancelFunc, wg *sync.WaitGroup,
) {
	p.proc.run(ctx, stopFn, wg)
}

func (p *ProductSalesProcessor) Close() {
	p.proc.close()
}

func (p *ProductSalesProcessor) splitFn(ctx goka.Context, msg any) {
	const op = "splitFn"
	log := slog.With("op", makeOp(p.opPrefix, op))

	evt, ok := msg.(schema.OrderPaidV1)
	if !ok {
		log.Error("unexpected message", "key", ctx.Key())
		return
	}
	for _, it := range evt.Items {
		if it.Quantity <= 0 {
			continue
		}
		ctx.Loopback(
			strconv.FormatInt(it.ProductID, 10), int64(it.Quantity),
		)
	}
	log.Debug("order split", "orderID", evt.OrderID, "nItems", len(evt.Items))
}

func (p *ProductSalesProcessor) countFn(ctx goka.Context, msg any) {
	const op = "countFn"
	log := slog.With("op", makeOp(p.opPrefix, op), "productID", ctx.Key())

	units, ok := msg.(int64)
	if !ok {
		log.Error("unexpected message")
		return
	}
	total := addUnits(ctx.Value(), units)
	ctx.SetValue(total)
	log.Debug("units counted", "total", total)
}

func addUnits(current any, units int64) int64 {
	n, _ := current.(int64)
	return n + units
}
