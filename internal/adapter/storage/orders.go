package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/niksmo/digital-store/internal/core/domain"
	"github.com/niksmo/digital-store/internal/core/port"
)

var _ port.OrdersStorage = (*OrdersRepository)(nil)

const orderColumns = `
	id, session_id, cart_id, payment_intent_id, amount, currency,
	status, email, notification_status, created_at, paid_at`

type OrdersRepository struct {
	sqldb   sqldb
	timeout time.Duration
}

func NewOrdersRepository(sqldb sqldb, timeout time.Duration) OrdersRepository {
	return OrdersRepository{sqldb, timeout}
}

// CreateOrder stores the order with its items in one transaction.
func (r OrdersRepository) CreateOrder(
	ctx context.Context, o domain.Order,
) (domain.Order, error) {
	const op = "OrdersRepository.CreateOrder"
	log := slog.With("op", op)

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	err := inTx(ctx, r.sqldb, func(tx *sql.Tx) error {
		query := `
			INSERT INTO orders (
				session_id, cart_id, payment_intent_id, amount, currency,
				status, email, notification_status
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id, created_at;`

		err := tx.QueryRowContext(ctx, query,
			o.SessionID, o.CartID, o.PaymentIntentID, o.Amount, o.Currency,
			string(o.Status), o.Email, string(o.NotificationStatus),
		).Scan(&o.ID, &o.CreatedAt)
		if err != nil {
			return translateErr(err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO order_items (order_id, product_id, quantity, unit_price)
			VALUES ($1, $2, $3, $4);`)
		if err != nil {
			return fmt.Errorf("failed to prepare stmt: %w", err)
		}
		defer func() {
			if err := stmt.Close(); err != nil {
				log.Error("failed to close prepared stmt", "err", err)
			}
		}()

		for _, it := range o.Items {
			_, err := stmt.ExecContext(ctx,
				o.ID, it.ProductID, it.Quantity, it.UnitPrice,
			)
			if err != nil {
				return translateErr(err)
			}
		}
		return nil
	})
	if err != nil {
		return domain.Order{}, fmt.Errorf("%s: %w", op, err)
	}
	return o, nil
}

func (r OrdersRepository) ReadOrder(
	ctx context.Context, id int64,
) (domain.Order, error) {
	const op = "OrdersRepository.ReadOrder"

	o, err := r.readOne(ctx, "id = $1", id)
	if err != nil {
		return domain.Order{}, fmt.Errorf("%s: %w", op, err)
	}
	return o, nil
}

func (r OrdersRepository) ReadOrderByIntent(
	ctx context.Context, intentID string,
) (domain.Order, error) {
	const op = "OrdersRepository.ReadOrderByIntent"

	o, err := r.readOne(ctx, "payment_intent_id = $1", intentID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("%s: %w", op, err)
	}
	return o, nil
}

// MarkOrderPaid moves a pending order to paid. Only one caller per
// order observes the transition.
func (r OrdersRepository) MarkOrderPaid(
	ctx context.Context, intentID, email string,
) (domain.Order, bool, error) {
	const op = "OrdersRepository.MarkOrderPaid"

	updCtx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		UPDATE orders SET status = 'paid', email = $2, paid_at = now()
		WHERE payment_intent_id = $1 AND status = 'pending';`

	res, err := r.sqldb.ExecContext(updCtx, query, intentID, email)
	if err != nil {
		return domain.Order{}, false, fmt.Errorf("%s: %w", op, translateErr(err))
	}

	n, err := rowsAffected(res)
	if err != nil {
		return domain.Order{}, false, fmt.Errorf("%s: %w", op, err)
	}

	o, err := r.readOne(ctx, "payment_intent_id = $1", intentID)
	if err != nil {
		return domain.Order{}, false, fmt.Errorf("%s: %w", op, err)
	}
	return o, n == 1, nil
}

func (r OrdersRepository) SetNotificationStatus(
	ctx context.Context, orderID int64, s domain.NotificationStatus,
) error {
	const op = "OrdersRepository.SetNotificationStatus"

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	query := `UPDATE orders SET notification_status = $2 WHERE id = $1;`

	res, err := r.sqldb.ExecContext(ctx, query, orderID, string(s))
	if err != nil {
		return fmt.Errorf("%s: %w", op, translateErr(err))
	}

	n, err := rowsAffected(res)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	return nil
}

// ListOrders returns the most recent orders first.
func (r OrdersRepository) ListOrders(
	ctx context.Context, limit int,
) ([]domain.Order, error) {
	const op = "OrdersRepository.ListOrders"

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	query := "SELECT" + orderColumns + `
		FROM orders ORDER BY created_at DESC, id DESC LIMIT $1;`

	rows, err := r.sqldb.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translateErr(err))
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, translateErr(err))
	}

	if err := r.attachItems(ctx, orders); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return orders, nil
}

func (r OrdersRepository) readOne(
	ctx context.Context, where string, arg any,
) (domain.Order, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	query := "SELECT" + orderColumns + " FROM orders WHERE " + where + ";"

	o, err := scanOrder(r.sqldb.QueryRowContext(ctx, query, arg))
	if err != nil {
		return domain.Order{}, translateErr(err)
	}

	orders := []domain.Order{o}
	if err := r.attachItems(ctx, orders); err != nil {
		return domain.Order{}, err
	}
	return orders[0], nil
}

func (r OrdersRepository) attachItems(
	ctx context.Context, orders []domain.Order,
) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]int64, len(orders))
	idx := make(map[int64]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		idx[o.ID] = i
		orders[i].Items = []domain.OrderItem{}
	}

	query := `
		SELECT order_id, product_id, quantity, unit_price
		FROM order_items WHERE order_id = ANY($1)
		ORDER BY order_id, product_id;`

	rows, err := r.sqldb.QueryContext(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("failed to read order items: %w", translateErr(err))
	}
	defer rows.Close()

	for rows.Next() {
		var (
			orderID int64
			it      domain.OrderItem
		)
		if err := rows.Scan(&orderID, &it.ProductID, &it.Quantity, &it.UnitPrice); err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		i, ok := idx[orderID]
		if !ok {
			return errors.New("order item of unknown order")
		}
		orders[i].Items = append(orders[i].Items, it)
	}
	return translateErr(rows.Err())
}

func scanOrder(row rowScanner) (domain.Order, error) {
	var (
		o      domain.Order
		status string
		notif  string
		paidAt sql.NullTime
	)
	err := row.Scan(
		&o.ID, &o.SessionID, &o.CartID, &o.PaymentIntentID, &o.Amount,
		&o.Currency, &status, &o.Email, &notif, &o.CreatedAt, &paidAt,
	)
	if err != nil {
		return domain.Order{}, err
	}
	o.Status = domain.OrderStatus(status)
	o.NotificationStatus = domain.NotificationStatus(notif)
	if paidAt.Valid {
		t := paidAt.Time
		o.PaidAt = &t
	}
	return o, nil
}
