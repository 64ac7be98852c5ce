package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"text/template"
	"time"

	"github.com/niksmo/digital-store/internal/core/domain"
	"github.com/niksmo/digital-store/internal/core/port"
	"github.com/niksmo/digital-store/pkg/retry"
)

var _ port.DownloadSender = (*FulfillmentService)(nil)
var _ port.OrderPaidHandler = (*FulfillmentService)(nil)
var _ port.PurchaseDownloader = (*FulfillmentService)(nil)

const downloadSubject = "Your downloads are ready"

var downloadBody = template.Must(template.New("download").Parse(
	`Thank you for your purchase!

Your content is available at the links below:
{{range .Links}}
  - {{.Title}}: {{.URL}}
{{- end}}

These links are valid for {{.ValidDays}} days, until {{.ExpiresAt}}.
Save your files before then.
`))

type FulfillmentConfig struct {
	SendAttempts int
	SendBackoff  retry.Backoff
}

// A FulfillmentService delivers purchased content by email.
type FulfillmentService struct {
	products port.ProductsStorage
	orders   port.OrdersStorage
	sender   port.EmailSender
	retryCfg retry.RetryConfig
	now      func() time.Time
}

func NewFulfillmentService(
	products port.ProductsStorage,
	orders port.OrdersStorage,
	sender port.EmailSender,
	cfg FulfillmentConfig,
) FulfillmentService {
	return FulfillmentService{
		products: products,
		orders:   orders,
		sender:   sender,
		retryCfg: retry.RetryConfig{
			MaxAttempts: cfg.SendAttempts,
			Backoff:     cfg.SendBackoff,
			ShouldRetry: func(err error) bool {
				return !errors.Is(err, domain.ErrValidation)
			},
		},
		now: time.Now,
	}
}

// SendDownloadEmail mails the delivery links of the given products.
//
// A product links its download URL, else its preview URL. Products with
// neither are left out; when none is left the request is invalid.
func (s FulfillmentService) SendDownloadEmail(
	ctx context.Context, email string, productIDs []int64,
) (domain.Delivery, error) {
	const op = "FulfillmentService.SendDownloadEmail"
	log := slog.With("op", op)

	if err := ctx.Err(); err != nil {
		return domain.Delivery{}, fmt.Errorf("%s: %w", op, err)
	}

	email = strings.TrimSpace(email)
	if err := domain.ValidateEmail(email); err != nil {
		return domain.Delivery{}, fmt.Errorf("%s: %w", op, err)
	}

	ids := uniqueIDs(productIDs)
	if len(ids) == 0 {
		err := domain.NewValidationError("productIds", "required")
		return domain.Delivery{}, fmt.Errorf("%s: %w", op, err)
	}

	products, err := s.products.ReadProducts(ctx, ids)
	if err != nil {
		return domain.Delivery{}, fmt.Errorf("%s: %w", op, err)
	}

	links := make([]domain.DownloadLink, 0, len(products))
	for _, p := range products {
		url := p.DeliveryURL()
		if url == "" {
			log.Warn("product has nothing to deliver", "productID", p.ID)
			continue
		}
		links = append(links, domain.DownloadLink{
			ProductID: p.ID, Title: p.Title, URL: url,
		})
	}

	if len(links) == 0 {
		err := domain.NewValidationError("productIds", "no deliverable products")
		return domain.Delivery{}, fmt.Errorf("%s: %w", op, err)
	}

	d := domain.Delivery{
		Email:     email,
		Links:     links,
		ExpiresAt: s.now().Add(domain.LinkValidity).UTC(),
	}

	msg, err := composeDownloadEmail(d)
	if err != nil {
		return domain.Delivery{}, fmt.Errorf("%s: %w", op, err)
	}

	err = retry.Do(ctx, s.retryCfg, func() error {
		return s.sender.Send(ctx, msg)
	})
	if err != nil {
		return domain.Delivery{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("download email sent", "nLinks", len(links))
	return d, nil
}

// SendOrderDownloads mails the downloads of a paid order again.
//
// The order must carry intentID, otherwise it does not exist for the
// caller. The links go to the order's email; email is used only for an
// order created without one.
func (s FulfillmentService) SendOrderDownloads(
	ctx context.Context, orderID int64, intentID, email string,
) (domain.Delivery, error) {
	const op = "FulfillmentService.SendOrderDownloads"
	log := slog.With("op", op, "orderID", orderID)

	if err := ctx.Err(); err != nil {
		return domain.Delivery{}, fmt.Errorf("%s: %w", op, err)
	}

	intentID = strings.TrimSpace(intentID)
	switch {
	case orderID <= 0:
		err := domain.NewValidationError("orderId", "required")
		return domain.Delivery{}, fmt.Errorf("%s: %w", op, err)
	case intentID == "":
		err := domain.NewValidationError("paymentIntentId", "required")
		return domain.Delivery{}, fmt.Errorf("%s: %w", op, err)
	}

	order, err := s.orders.ReadOrder(ctx, orderID)
	if err != nil {
		return domain.Delivery{}, fmt.Errorf("%s: %w", op, err)
	}

	if order.PaymentIntentID != intentID {
		log.Warn("intent does not match the order")
		return domain.Delivery{}, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}

	if order.Status != domain.OrderStatusPaid {
		return domain.Delivery{}, fmt.Errorf(
			"%s: %w", op, domain.ErrPaymentIncomplete,
		)
	}

	dest := order.Email
	if dest == "" {
		dest = email
	}

	d, err := s.SendDownloadEmail(ctx, dest, order.ProductIDs())
	status := domain.NotificationSent
	if err != nil {
		status = domain.NotificationFailed
	}
	if err := s.orders.SetNotificationStatus(ctx, order.ID, status); err != nil {
		log.Error("failed to store notification status", "err", err)
	}
	if err != nil {
		return domain.Delivery{}, fmt.Errorf("%s: %w", op, err)
	}
	return d, nil
}

// HandleOrderPaid sends the order's downloads and records the outcome.
//
// A failed send is recorded on the order and not returned, the order stays
// available for a manual resend. Only a failure to record is returned so
// the event is delivered again.
func (s FulfillmentService) HandleOrderPaid(
	ctx context.Context, evt domain.OrderPaid,
) error {
	const op = "FulfillmentService.HandleOrderPaid"
	log := slog.With("op", op, "orderID", evt.OrderID)

	ids := make([]int64, len(evt.Items))
	for i, it := range evt.Items {
		ids[i] = it.ProductID
	}

	status := domain.NotificationSent
	if _, err := s.SendDownloadEmail(ctx, evt.Email, ids); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		log.Error("failed to send download email", "err", err)
		status = domain.NotificationFailed
	}

	err := s.orders.SetNotificationStatus(ctx, evt.OrderID, status)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func composeDownloadEmail(d domain.Delivery) (domain.Email, error) {
	data := struct {
		Links     []domain.DownloadLink
		ValidDays int
		ExpiresAt string
	}{
		Links:     d.Links,
		ValidDays: int(domain.LinkValidity / (24 * time.Hour)),
		ExpiresAt: d.ExpiresAt.Format("January 2, 2006 15:04 MST"),
	}

	var body bytes.Buffer
	if err := downloadBody.Execute(&body, data); err != nil {
		return domain.Email{}, err
	}

	return domain.Email{
		To:      d.Email,
		Subject: downloadSubject,
		Body:    body.String(),
		Links:   d.Links,
	}, nil
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
