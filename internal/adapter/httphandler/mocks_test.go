package httphandler_test

import (
	"context"
	"time"

	"github.com/niksmo/digital-store/internal/core/domain"
	"github.com/stretchr/testify/mock"
)

type MockPinger struct {
	mock.Mock
}

func (m *MockPinger) Ping(ctx context.Context, timeout time.Duration) error {
	args := m.Called(ctx, timeout)
	return args.Error(0)
}

type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) ListProducts(
	ctx context.Context, category string,
) ([]domain.Product, error) {
	args := m.Called(ctx, category)
	ps, _ := args.Get(0).([]domain.Product)
	return ps, args.Error(1)
}

func (m *MockCatalog) ListProductsByType(
	ctx context.Context, productType string,
) ([]domain.Product, error) {
	args := m.Called(ctx, productType)
	ps, _ := args.Get(0).([]domain.Product)
	return ps, args.Error(1)
}

func (m *MockCatalog) GetProduct(
	ctx context.Context, id int64,
) (domain.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockCatalog) ListAllProducts(ctx context.Context) ([]domain.Product, error) {
	args := m.Called(ctx)
	ps, _ := args.Get(0).([]domain.Product)
	return ps, args.Error(1)
}

func (m *MockCatalog) GetAnyProduct(
	ctx context.Context, id int64,
) (domain.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockCatalog) CreateProduct(
	ctx context.Context, p domain.Product,
) (domain.Product, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockCatalog) UpdateProduct(
	ctx context.Context, p domain.Product,
) (domain.Product, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockCatalog) DeactivateProduct(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockCart struct {
	mock.Mock
}

func (m *MockCart) View(
	ctx context.Context, sessionID string,
) (domain.CartView, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(domain.CartView), args.Error(1)
}

func (m *MockCart) AddItem(
	ctx context.Context, sessionID string, productID int64, quantity int,
) (domain.CartItem, error) {
	args := m.Called(ctx, sessionID, productID, quantity)
	return args.Get(0).(domain.CartItem), args.Error(1)
}

func (m *MockCart) SetItemQuantity(
	ctx context.Context, sessionID string, productID int64, quantity int,
) (domain.CartItem, bool, error) {
	args := m.Called(ctx, sessionID, productID, quantity)
	return args.Get(0).(domain.CartItem), args.Bool(1), args.Error(2)
}

func (m *MockCart) RemoveItem(
	ctx context.Context, sessionID string, productID int64,
) (bool, error) {
	args := m.Called(ctx, sessionID, productID)
	return args.Bool(0), args.Error(1)
}

func (m *MockCart) Clear(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

type MockCheckout struct {
	mock.Mock
}

func (m *MockCheckout) CreatePaymentIntent(
	ctx context.Context, sessionID, email string,
) (domain.CheckoutResult, error) {
	args := m.Called(ctx, sessionID, email)
	return args.Get(0).(domain.CheckoutResult), args.Error(1)
}

func (m *MockCheckout) ConfirmPayment(
	ctx context.Context, sessionID, intentID, email string,
) (domain.Confirmation, error) {
	args := m.Called(ctx, sessionID, intentID, email)
	return args.Get(0).(domain.Confirmation), args.Error(1)
}

type MockDownloads struct {
	mock.Mock
}

func (m *MockDownloads) SendOrderDownloads(
	ctx context.Context, orderID int64, intentID, email string,
) (domain.Delivery, error) {
	args := m.Called(ctx, orderID, intentID, email)
	return args.Get(0).(domain.Delivery), args.Error(1)
}

type MockAdmin struct {
	mock.Mock
}

func (m *MockAdmin) ListTestimonials(ctx context.Context) ([]domain.Testimonial, error) {
	args := m.Called(ctx)
	ts, _ := args.Get(0).([]domain.Testimonial)
	return ts, args.Error(1)
}

func (m *MockAdmin) CreateTestimonial(
	ctx context.Context, t domain.Testimonial,
) (domain.Testimonial, error) {
	args := m.Called(ctx, t)
	return args.Get(0).(domain.Testimonial), args.Error(1)
}

func (m *MockAdmin) UpdateTestimonial(
	ctx context.Context, t domain.Testimonial,
) (domain.Testimonial, error) {
	args := m.Called(ctx, t)
	return args.Get(0).(domain.Testimonial), args.Error(1)
}

func (m *MockAdmin) DeleteTestimonial(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAdmin) GetSettings(ctx context.Context) (domain.SiteSettings, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.SiteSettings), args.Error(1)
}

func (m *MockAdmin) ReplaceSettings(
	ctx context.Context, s domain.SiteSettings,
) (domain.SiteSettings, error) {
	args := m.Called(ctx, s)
	return args.Get(0).(domain.SiteSettings), args.Error(1)
}

func (m *MockAdmin) ListOrders(ctx context.Context, limit int) ([]domain.Order, error) {
	args := m.Called(ctx, limit)
	orders, _ := args.Get(0).([]domain.Order)
	return orders, args.Error(1)
}

func (m *MockAdmin) ResendOrderEmail(
	ctx context.Context, orderID int64,
) (domain.Delivery, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).(domain.Delivery), args.Error(1)
}

func (m *MockAdmin) Analytics(ctx context.Context) (domain.Analytics, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.Analytics), args.Error(1)
}

type MockAuth struct {
	mock.Mock
}

func (m *MockAuth) Login(ctx context.Context, password string) (string, error) {
	args := m.Called(ctx, password)
	return args.String(0), args.Error(1)
}

func (m *MockAuth) Verify(token string) error {
	args := m.Called(token)
	return args.Error(0)
}

type MockProductsStore struct {
	mock.Mock
}

func (m *MockProductsStore) ListProducts(
	ctx context.Context, f domain.ProductFilter,
) ([]domain.Product, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *MockProductsStore) ReadProduct(
	ctx context.Context, id int64,
) (domain.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProductsStore) ReadProducts(
	ctx context.Context, ids []int64,
) ([]domain.Product, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *MockProductsStore) CreateProduct(
	ctx context.Context, p domain.Product,
) (domain.Product, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProductsStore) UpdateProduct(
	ctx context.Context, p domain.Product,
) (domain.Product, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProductsStore) DeactivateProduct(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockOrdersStore struct {
	mock.Mock
}

func (m *MockOrdersStore) CreateOrder(
	ctx context.Context, o domain.Order,
) (domain.Order, error) {
	args := m.Called(ctx, o)
	return args.Get(0).(domain.Order), args.Error(1)
}

func (m *MockOrdersStore) ReadOrder(
	ctx context.Context, id int64,
) (domain.Order, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Order), args.Error(1)
}

func (m *MockOrdersStore) ReadOrderByIntent(
	ctx context.Context, intentID string,
) (domain.Order, error) {
	args := m.Called(ctx, intentID)
	return args.Get(0).(domain.Order), args.Error(1)
}

func (m *MockOrdersStore) MarkOrderPaid(
	ctx context.Context, intentID, email string,
) (domain.Order, bool, error) {
	args := m.Called(ctx, intentID, email)
	return args.Get(0).(domain.Order), args.Bool(1), args.Error(2)
}

func (m *MockOrdersStore) SetNotificationStatus(
	ctx context.Context, orderID int64, s domain.NotificationStatus,
) error {
	args := m.Called(ctx, orderID, s)
	return args.Error(0)
}

func (m *MockOrdersStore) ListOrders(
	ctx context.Context, limit int,
) ([]domain.Order, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]domain.Order), args.Error(1)
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, e domain.Email) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}
