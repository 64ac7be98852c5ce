package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/niksmo/digital-store/internal/core/domain"
	"github.com/niksmo/digital-store/internal/core/port"
)

var _ port.Checkouter = (*CheckoutService)(nil)

type CheckoutService struct {
	carts    port.CartStorage
	orders   port.OrdersStorage
	payments port.PaymentGateway
	producer port.OrderPaidProducer
}

func NewCheckoutService(
	carts port.CartStorage,
	orders port.OrdersStorage,
	payments port.PaymentGateway,
	producer port.OrderPaidProducer,
) CheckoutService {
	return CheckoutService{
		carts:    carts,
		orders:   orders,
		payments: payments,
		producer: producer,
	}
}

// CreatePaymentIntent charges the session's cart at stored catalog prices.
//
// Nothing from the client other than the session and the optional
// receipt email takes part in the amount.
func (s CheckoutService) CreatePaymentIntent(
	ctx context.Context, sessionID, email string,
) (domain.CheckoutResult, error) {
	const op = "CheckoutService.CreatePaymentIntent"

	if err := validateSession(ctx, sessionID); err != nil {
		return domain.CheckoutResult{}, fmt.Errorf("%s: %w", op, err)
	}

	email = strings.TrimSpace(email)
	if email != "" {
		if err := domain.ValidateEmail(email); err != nil {
			return domain.CheckoutResult{}, fmt.Errorf("%s: %w", op, err)
		}
	}

	cart, err := s.carts.GetOrCreateCart(ctx, sessionID)
	if err != nil {
		return domain.CheckoutResult{}, fmt.Errorf("%s: %w", op, err)
	}

	lines, err := s.carts.ListItems(ctx, cart.ID)
	if err != nil {
		return domain.CheckoutResult{}, fmt.Errorf("%s: %w", op, err)
	}

	if len(lines) == 0 {
		return domain.CheckoutResult{}, fmt.Errorf("%s: %w", op, domain.ErrEmptyCart)
	}

	total := domain.CartTotal(lines)
	if total <= 0 {
		err := domain.NewValidationError("total", "must be positive")
		return domain.CheckoutResult{}, fmt.Errorf("%s: %w", op, err)
	}

	metadata := map[string]string{
		"session_id": sessionID,
		"cart_id":    strconv.FormatInt(cart.ID, 10),
	}
	intent, err := s.payments.CreateIntent(ctx, total, domain.Currency, metadata)
	if err != nil {
		return domain.CheckoutResult{}, fmt.Errorf("%s: %w", op, err)
	}

	order, err := s.orders.CreateOrder(ctx, domain.Order{
		SessionID:          sessionID,
		CartID:             cart.ID,
		PaymentIntentID:    intent.ID,
		Amount:             total,
		Currency:           domain.Currency,
		Status:             domain.OrderStatusPending,
		Email:              email,
		NotificationStatus: domain.NotificationNone,
		Items:              toOrderItems(lines),
	})
	if err != nil {
		return domain.CheckoutResult{}, fmt.Errorf("%s: %w", op, err)
	}

	return domain.CheckoutResult{
		OrderID:      order.ID,
		Intent:       intent,
		Amount:       total,
		Currency:     domain.Currency,
		ItemsCharged: len(lines),
	}, nil
}

// ConfirmPayment marks the intent's order paid once the processor
// reports success, empties the cart and queues fulfillment.
//
// Only the session that created the order may confirm it; for any other
// session the order does not exist. The email given here is used only
// when the order was created without one.
//
// Repeating a confirmation returns the paid order without queueing again.
// A queueing failure is reported in the result, never as an error.
func (s CheckoutService) ConfirmPayment(
	ctx context.Context, sessionID, intentID, email string,
) (domain.Confirmation, error) {
	const op = "CheckoutService.ConfirmPayment"
	log := slog.With("op", op, "paymentIntentID", intentID)

	if err := validateSession(ctx, sessionID); err != nil {
		return domain.Confirmation{}, fmt.Errorf("%s: %w", op, err)
	}

	intentID = strings.TrimSpace(intentID)
	if intentID == "" {
		err := domain.NewValidationError("paymentIntentId", "required")
		return domain.Confirmation{}, fmt.Errorf("%s: %w", op, err)
	}

	order, err := s.orders.ReadOrderByIntent(ctx, intentID)
	if err != nil {
		return domain.Confirmation{}, fmt.Errorf("%s: %w", op, err)
	}

	if order.SessionID != sessionID {
		log.Warn("confirmation from a foreign session", "orderID", order.ID)
		return domain.Confirmation{}, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}

	if order.Status == domain.OrderStatusPaid {
		return domain.Confirmation{
			Order: order, Notification: order.NotificationStatus,
		}, nil
	}

	dest := order.Email
	if dest == "" {
		dest = strings.TrimSpace(email)
	}
	if err := domain.ValidateEmail(dest); err != nil {
		return domain.Confirmation{}, fmt.Errorf("%s: %w", op, err)
	}

	intent, err := s.payments.GetIntent(ctx, intentID)
	if err != nil {
		return domain.Confirmation{}, fmt.Errorf("%s: %w", op, err)
	}

	if !intent.Succeeded || intent.Amount != order.Amount {
		return domain.Confirmation{}, fmt.Errorf(
			"%s: %w", op, domain.ErrPaymentIncomplete,
		)
	}

	paid, transitioned, err := s.orders.MarkOrderPaid(ctx, intentID, dest)
	if err != nil {
		return domain.Confirmation{}, fmt.Errorf("%s: %w", op, err)
	}

	if !transitioned {
		return domain.Confirmation{
			Order: paid, Notification: paid.NotificationStatus,
		}, nil
	}

	if err := s.carts.ClearCart(ctx, paid.CartID); err != nil {
		log.Error("failed to clear paid cart", "cartID", paid.CartID, "err", err)
	}

	paid.NotificationStatus = s.queueFulfillment(ctx, paid)
	log.Info("order paid",
		"orderID", paid.ID, "amount", paid.Amount,
		"notification", paid.NotificationStatus,
	)

	return domain.Confirmation{
		Order: paid, Notification: paid.NotificationStatus,
	}, nil
}

func (s CheckoutService) queueFulfillment(
	ctx context.Context, o domain.Order,
) domain.NotificationStatus {
	const op = "CheckoutService.queueFulfillment"
	log := slog.With("op", op, "orderID", o.ID)

	// queued is stored before producing, the consumer may report sent
	// before ProduceOrderPaid returns
	status := domain.NotificationQueued
	if err := s.orders.SetNotificationStatus(ctx, o.ID, status); err != nil {
		log.Error("failed to store notification status", "err", err)
	}

	var paidAt = o.CreatedAt
	if o.PaidAt != nil {
		paidAt = *o.PaidAt
	}

	err := s.producer.ProduceOrderPaid(ctx, domain.OrderPaid{
		OrderID:         o.ID,
		PaymentIntentID: o.PaymentIntentID,
		Email:           o.Email,
		Amount:          o.Amount,
		Currency:        o.Currency,
		Items:           o.Items,
		PaidAt:          paidAt,
	})
	if err == nil {
		return status
	}

	log.Error("failed to queue fulfillment", "err", err)
	status = domain.NotificationFailed
	if err := s.orders.SetNotificationStatus(ctx, o.ID, status); err != nil {
		log.Error("failed to store notification status", "err", err)
	}
	return status
}

func toOrderItems(lines []domain.CartLine) []domain.OrderItem {
	items := make([]domain.OrderItem, len(lines))
	for i, l := range lines {
		items[i] = domain.OrderItem{
			ProductID: l.Product.ID,
			Quantity:  l.Item.Quantity,
			UnitPrice: l.Product.Price,
		}
	}
	return items
}
