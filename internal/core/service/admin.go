package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/niksmo/digital-store/internal/core/domain"
	"github.com/niksmo/digital-store/internal/core/port"
)

var _ port.AdminManager = (*AdminService)(nil)

const (
	defaultOrdersLimit = 50
	maxOrdersLimit     = 200
	topSellersLimit    = 10
)

type AdminService struct {
	testimonials port.TestimonialsStorage
	settings     port.SettingsStorage
	orders       port.OrdersStorage
	analytics    port.AnalyticsStorage
	sales        port.SalesReader
	downloads    port.DownloadSender
}

func NewAdminService(
	testimonials port.TestimonialsStorage,
	settings port.SettingsStorage,
	orders port.OrdersStorage,
	analytics port.AnalyticsStorage,
	sales port.SalesReader,
	downloads port.DownloadSender,
) AdminService {
	return AdminService{
		testimonials: testimonials,
		settings:     settings,
		orders:       orders,
		analytics:    analytics,
		sales:        sales,
		downloads:    downloads,
	}
}

func (s AdminService) ListTestimonials(
	ctx context.Context,
) ([]domain.Testimonial, error) {
	const op = "AdminService.ListTestimonials"

	ts, err := s.testimonials.ListTestimonials(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if ts == nil {
		ts = []domain.Testimonial{}
	}
	return ts, nil
}

func (s AdminService) CreateTestimonial(
	ctx context.Context, t domain.Testimonial,
) (domain.Testimonial, error) {
	const op = "AdminService.CreateTestimonial"

	t.ID = 0
	if err := t.Validate(); err != nil {
		return domain.Testimonial{}, fmt.Errorf("%s: %w", op, err)
	}

	created, err := s.testimonials.CreateTestimonial(ctx, t)
	if err != nil {
		return domain.Testimonial{}, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

func (s AdminService) UpdateTestimonial(
	ctx context.Context, t domain.Testimonial,
) (domain.Testimonial, error) {
	const op = "AdminService.UpdateTestimonial"

	if t.ID <= 0 {
		return domain.Testimonial{}, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}

	if err := t.Validate(); err != nil {
		return domain.Testimonial{}, fmt.Errorf("%s: %w", op, err)
	}

	updated, err := s.testimonials.UpdateTestimonial(ctx, t)
	if err != nil {
		return domain.Testimonial{}, fmt.Errorf("%s: %w", op, err)
	}
	return updated, nil
}

func (s AdminService) DeleteTestimonial(ctx context.Context, id int64) error {
	const op = "AdminService.DeleteTestimonial"

	if id <= 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}

	if err := s.testimonials.DeleteTestimonial(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s AdminService) GetSettings(
	ctx context.Context,
) (domain.SiteSettings, error) {
	const op = "AdminService.GetSettings"

	st, err := s.settings.ReadSettings(ctx)
	if err != nil {
		return domain.SiteSettings{}, fmt.Errorf("%s: %w", op, err)
	}
	if st.Features == nil {
		st.Features = map[string]bool{}
	}
	return st, nil
}

func (s AdminService) ReplaceSettings(
	ctx context.Context, st domain.SiteSettings,
) (domain.SiteSettings, error) {
	const op = "AdminService.ReplaceSettings"

	if err := st.Validate(); err != nil {
		return domain.SiteSettings{}, fmt.Errorf("%s: %w", op, err)
	}

	if st.Features == nil {
		st.Features = map[string]bool{}
	}

	stored, err := s.settings.StoreSettings(ctx, st)
	if err != nil {
		return domain.SiteSettings{}, fmt.Errorf("%s: %w", op, err)
	}
	return stored, nil
}

func (s AdminService) ListOrders(
	ctx context.Context, limit int,
) ([]domain.Order, error) {
	const op = "AdminService.ListOrders"

	switch {
	case limit <= 0:
		limit = defaultOrdersLimit
	case limit > maxOrdersLimit:
		limit = maxOrdersLimit
	}

	list, err := s.orders.ListOrders(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if list == nil {
		list = []domain.Order{}
	}
	return list, nil
}

// ResendOrderEmail sends a paid order's downloads again, outside of the
// event flow, and records the outcome on the order.
func (s AdminService) ResendOrderEmail(
	ctx context.Context, orderID int64,
) (domain.Delivery, error) {
	const op = "AdminService.ResendOrderEmail"
	log := slog.With("op", op, "orderID", orderID)

	if orderID <= 0 {
		return domain.Delivery{}, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}

	o, err := s.orders.ReadOrder(ctx, orderID)
	if err != nil {
		return domain.Delivery{}, fmt.Errorf("%s: %w", op, err)
	}

	if o.Status != domain.OrderStatusPaid {
		err := domain.NewValidationError("order", "is not paid")
		return domain.Delivery{}, fmt.Errorf("%s: %w", op, err)
	}

	d, sendErr := s.downloads.SendDownloadEmail(ctx, o.Email, o.ProductIDs())

	status := domain.NotificationSent
	if sendErr != nil {
		status = domain.NotificationFailed
	}
	if err := s.orders.SetNotificationStatus(ctx, o.ID, status); err != nil {
		log.Error("failed to store notification status", "err", err)
	}

	if sendErr != nil {
		return domain.Delivery{}, fmt.Errorf("%s: %w", op, sendErr)
	}
	return d, nil
}

// Analytics combines SQL aggregates with units sold from the sales table.
// Top sellers are empty while the sales table is unavailable.
func (s AdminService) Analytics(ctx context.Context) (domain.Analytics, error) {
	const op = "AdminService.Analytics"
	log := slog.With("op", op)

	a, err := s.analytics.ReadAnalytics(ctx)
	if err != nil {
		return domain.Analytics{}, fmt.Errorf("%s: %w", op, err)
	}

	if a.ProductsByType == nil {
		a.ProductsByType = map[domain.ProductType]int64{}
	}

	a.TopSellers = []domain.ProductSales{}
	if s.sales == nil {
		return a, nil
	}

	top, err := s.sales.TopSellers(topSellersLimit)
	if err != nil {
		log.Warn("sales table unavailable", "err", err)
		return a, nil
	}
	if top != nil {
		a.TopSellers = top
	}
	return a, nil
}
