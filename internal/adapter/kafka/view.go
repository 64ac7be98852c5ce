package kafka

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"slices"
	"strconv"

	"github.com/lovoo/goka"
	"github.com/niksmo/digital-store/internal/core/domain"
	"github.com/niksmo/digital-store/internal/core/port"
)

var _ port.SalesReader = (*ProductSalesView)(nil)

var ErrViewNotReady = errors.New("sales view is recovering")

// A ProductSalesView reads the group table of [ProductSalesProcessor].
type ProductSalesView struct {
	gv *goka.View
}

func NewProductSalesView(
	seedBrokers []string, group string,
) (*ProductSalesView, error) {
	const op = "NewProductSalesView"

	gv, err := goka.NewView(
		seedBrokers,
		goka.GroupTable(goka.Group(group)),
		unitsCodec{},
	)
	if err != nil {
		return nil, opErr(err, op)
	}
	return &ProductSalesView{gv}, nil
}

func (v *ProductSalesView) Run(ctx context.Context) {
	const op = "ProductSalesView.Run"
	log := slog.With("op", op)

	err := v.gv.Run(ctx)
	if err != nil {
		log.Error("unexpected fail on run", "err", err)
	}
}

// TopSellers returns products ordered by sold units, most sold first.
// A non-positive limit returns every product.
func (v *ProductSalesView) TopSellers(limit int) ([]domain.ProductSales, error) {
	const op = "ProductSalesView.TopSellers"

	if !v.gv.Recovered() {
		return nil, opErr(ErrViewNotReady, op)
	}

	it, err := v.gv.Iterator()
	if err != nil {
		return nil, opErr(err, op)
	}
	defer it.Release()

	var sales []domain.ProductSales
	for it.Next() {
		s, err := toProductSales(it.Key(), it.Value)
		if err != nil {
			slog.Warn("skip table entry", "op", op, "key", it.Key(), "err", err)
			continue
		}
		sales = append(sales, s)
	}
	if err := it.Err(); err != nil {
		return nil, opErr(err, op)
	}

	return rankSales(sales, limit), nil
}

func toProductSales(
	key string, valueFn func() (any, error),
) (domain.ProductSales, error) {
	id, err := strconv.ParseInt(key, 10, 64)
	if err != nil {
		return domain.ProductSales{}, err
	}
	v, err := valueFn()
	if err != nil {
		return domain.ProductSales{}, err
	}
	units, ok := v.(int64)
	if !ok {
		return domain.ProductSales{}, ErrInvalidValueType
	}
	return domain.ProductSales{ProductID: id, Units: units}, nil
}

func rankSales(sales []domain.ProductSales, limit int) []domain.ProductSales {
	slices.SortFunc(sales, func(a, b domain.ProductSales) int {
		if c := cmp.Compare(b.Units, a.Units); c != 0 {
			return c
		}
		return cmp.Compare(a.ProductID, b.ProductID)
	})
	if limit > 0 && len(sales) > limit {
		sales = sales[:limit]
	}
	return sales
}
