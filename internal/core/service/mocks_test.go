package service_test

import (
	"context"

	"github.com/niksmo/digital-store/internal/core/domain"
	"github.com/niksmo/digital-store/internal/core/port"
	"github.com/stretchr/testify/mock"
)

type MockCartStorage struct {
	mock.Mock
	txCount int
}

func (m *MockCartStorage) InTx(
	ctx context.Context, fn func(port.CartStorage) error,
) error {
	m.txCount++
	return fn(m)
}

func (m *MockCartStorage) GetOrCreateCart(
	ctx context.Context, sessionID string,
) (domain.Cart, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(domain.Cart), args.Error(1)
}

func (m *MockCartStorage) ListItems(
	ctx context.Context, cartID int64,
) ([]domain.CartLine, error) {
	args := m.Called(ctx, cartID)
	lines, _ := args.Get(0).([]domain.CartLine)
	return lines, args.Error(1)
}

func (m *MockCartStorage) AddItem(
	ctx context.Context, cartID, productID int64, quantity int,
) (domain.CartItem, error) {
	args := m.Called(ctx, cartID, productID, quantity)
	return args.Get(0).(domain.CartItem), args.Error(1)
}

func (m *MockCartStorage) SetItemQuantity(
	ctx context.Context, cartID, productID int64, quantity int,
) (domain.CartItem, error) {
	args := m.Called(ctx, cartID, productID, quantity)
	return args.Get(0).(domain.CartItem), args.Error(1)
}

func (m *MockCartStorage) RemoveItem(
	ctx context.Context, cartID, productID int64,
) (bool, error) {
	args := m.Called(ctx, cartID, productID)
	return args.Bool(0), args.Error(1)
}

func (m *MockCartStorage) ClearCart(ctx context.Context, cartID int64) error {
	args := m.Called(ctx, cartID)
	return args.Error(0)
}

type MockProductsStorage struct {
	mock.Mock
}

func (m *MockProductsStorage) ListProducts(
	ctx context.Context, f domain.ProductFilter,
) ([]domain.Product, error) {
	args := m.Called(ctx, f)
	ps, _ := args.Get(0).([]domain.Product)
	return ps, args.Error(1)
}

func (m *MockProductsStorage) ReadProduct(
	ctx context.Context, id int64,
) (domain.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProductsStorage) ReadProducts(
	ctx context.Context, ids []int64,
) ([]domain.Product, error) {
	args := m.Called(ctx, ids)
	ps, _ := args.Get(0).([]domain.Product)
	return ps, args.Error(1)
}

func (m *MockProductsStorage) CreateProduct(
	ctx context.Context, p domain.Product,
) (domain.Product, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProductsStorage) UpdateProduct(
	ctx context.Context, p domain.Product,
) (domain.Product, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProductsStorage) DeactivateProduct(
	ctx context.Context, id int64,
) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockOrdersStorage struct {
	mock.Mock
}

func (m *MockOrdersStorage) CreateOrder(
	ctx context.Context, o domain.Order,
) (domain.Order, error) {
	args := m.Called(ctx, o)
	return args.Get(0).(domain.Order), args.Error(1)
}

func (m *MockOrdersStorage) ReadOrder(
	ctx context.Context, id int64,
) (domain.Order, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Order), args.Error(1)
}

func (m *MockOrdersStorage) ReadOrderByIntent(
	ctx context.Context, intentID string,
) (domain.Order, error) {
	args := m.Called(ctx, intentID)
	return args.Get(0).(domain.Order), args.Error(1)
}

func (m *MockOrdersStorage) MarkOrderPaid(
	ctx context.Context, intentID, email string,
) (domain.Order, bool, error) {
	args := m.Called(ctx, intentID, email)
	return args.Get(0).(domain.Order), args.Bool(1), args.Error(2)
}

func (m *MockOrdersStorage) SetNotificationStatus(
	ctx context.Context, orderID int64, s domain.NotificationStatus,
) error {
	args := m.Called(ctx, orderID, s)
	return args.Error(0)
}

func (m *MockOrdersStorage) ListOrders(
	ctx context.Context, limit int,
) ([]domain.Order, error) {
	args := m.Called(ctx, limit)
	os, _ := args.Get(0).([]domain.Order)
	return os, args.Error(1)
}

type MockPaymentGateway struct {
	mock.Mock
}

func (m *MockPaymentGateway) CreateIntent(
	ctx context.Context, amount int64, currency string, metadata map[string]string,
) (domain.PaymentIntent, error) {
	args := m.Called(ctx, amount, currency, metadata)
	return args.Get(0).(domain.PaymentIntent), args.Error(1)
}

func (m *MockPaymentGateway) GetIntent(
	ctx context.Context, id string,
) (domain.PaymentIntent, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.PaymentIntent), args.Error(1)
}

type MockOrderPaidProducer struct {
	mock.Mock
}

func (m *MockOrderPaidProducer) ProduceOrderPaid(
	ctx context.Context, evt domain.OrderPaid,
) error {
	args := m.Called(ctx, evt)
	return args.Error(0)
}

type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) Send(ctx context.Context, e domain.Email) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

type MockDownloadSender struct {
	mock.Mock
}

func (m *MockDownloadSender) SendDownloadEmail(
	ctx context.Context, email string, productIDs []int64,
) (domain.Delivery, error) {
	args := m.Called(ctx, email, productIDs)
	return args.Get(0).(domain.Delivery), args.Error(1)
}

type MockAnalyticsStorage struct {
	mock.Mock
}

func (m *MockAnalyticsStorage) ReadAnalytics(
	ctx context.Context,
) (domain.Analytics, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.Analytics), args.Error(1)
}

type MockSalesReader struct {
	mock.Mock
}

func (m *MockSalesReader) TopSellers(limit int) ([]domain.ProductSales, error) {
	args := m.Called(limit)
	top, _ := args.Get(0).([]domain.ProductSales)
	return top, args.Error(1)
}

type MockTestimonialsStorage struct {
	mock.Mock
}

func (m *MockTestimonialsStorage) ListTestimonials(
	ctx context.Context,
) ([]domain.Testimonial, error) {
	args := m.Called(ctx)
	ts, _ := args.Get(0).([]domain.Testimonial)
	return ts, args.Error(1)
}

func (m *MockTestimonialsStorage) CreateTestimonial(
	ctx context.Context, t domain.Testimonial,
) (domain.Testimonial, error) {
	args := m.Called(ctx, t)
	return args.Get(0).(domain.Testimonial), args.Error(1)
}

func (m *MockTestimonialsStorage) UpdateTestimonial(
	ctx context.Context, t domain.Testimonial,
) (domain.Testimonial, error) {
	args := m.Called(ctx, t)
	return args.Get(0).(domain.Testimonial), args.Error(1)
}

func (m *MockTestimonialsStorage) DeleteTestimonial(
	ctx context.Context, id int64,
) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockSettingsStorage struct {
	mock.Mock
}

func (m *MockSettingsStorage) ReadSettings(
	ctx context.Context,
) (domain.SiteSettings, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.SiteSettings), args.Error(1)
}

func (m *MockSettingsStorage) StoreSettings(
	ctx context.Context, s domain.SiteSettings,
) (domain.SiteSettings, error) {
	args := m.Called(ctx, s)
	return args.Get(0).(domain.SiteSettings), args.Error(1)
}
