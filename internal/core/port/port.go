package port

import (
	"context"
	"sync"

	"github.com/niksmo/digital-store/internal/core/domain"
)

type (
	runnerContextWg interface {
		Run(context.Context, context.CancelFunc, *sync.WaitGroup)
	}

	closer interface {
		Close()
	}
)

////////////////////////////////////////////////////////
///////////////         INBOUND           //////////////
////////////////////////////////////////////////////////

type CatalogReader interface {
	ListProducts(ctx context.Context, category string) ([]domain.Product, error)
	ListProductsByType(ctx context.Context, productType string) ([]domain.Product, error)
	GetProduct(ctx context.Context, id int64) (domain.Product, error)
}

type CatalogAdmin interface {
	ListAllProducts(ctx context.Context) ([]domain.Product, error)
	GetAnyProduct(ctx context.Context, id int64) (domain.Product, error)
	CreateProduct(ctx context.Context, p domain.Product) (domain.Product, error)
	UpdateProduct(ctx context.Context, p domain.Product) (domain.Product, error)
	DeactivateProduct(ctx context.Context, id int64) error
}

type CartManager interface {
	View(ctx context.Context, sessionID string) (domain.CartView, error)
	AddItem(
		ctx context.Context, sessionID string, productID int64, quantity int,
	) (domain.CartItem, error)
	SetItemQuantity(
		ctx context.Context, sessionID string, productID int64, quantity int,
	) (item domain.CartItem, removed bool, err error)
	RemoveItem(
		ctx context.Context, sessionID string, productID int64,
	) (bool, error)
	Clear(ctx context.Context, sessionID string) error
}

type Checkouter interface {
	CreatePaymentIntent(
		ctx context.Context, sessionID, email string,
	) (domain.CheckoutResult, error)
	ConfirmPayment(
		ctx context.Context, sessionID, intentID, email string,
	) (domain.Confirmation, error)
}

// A PurchaseDownloader re-sends the downloads of a paid order to its
// buyer. The intent id proves the purchase.
type PurchaseDownloader interface {
	SendOrderDownloads(
		ctx context.Context, orderID int64, intentID, email string,
	) (domain.Delivery, error)
}

type DownloadSender interface {
	SendDownloadEmail(
		ctx context.Context, email string, productIDs []int64,
	) (domain.Delivery, error)
}

type OrderPaidHandler interface {
	HandleOrderPaid(ctx context.Context, evt domain.OrderPaid) error
}

type AdminManager interface {
	ListTestimonials(ctx context.Context) ([]domain.Testimonial, error)
	CreateTestimonial(ctx context.Context, t domain.Testimonial) (domain.Testimonial, error)
	UpdateTestimonial(ctx context.Context, t domain.Testimonial) (domain.Testimonial, error)
	DeleteTestimonial(ctx context.Context, id int64) error
	GetSettings(ctx context.Context) (domain.SiteSettings, error)
	ReplaceSettings(ctx context.Context, s domain.SiteSettings) (domain.SiteSettings, error)
	ListOrders(ctx context.Context, limit int) ([]domain.Order, error)
	ResendOrderEmail(ctx context.Context, orderID int64) (domain.Delivery, error)
	Analytics(ctx context.Context) (domain.Analytics, error)
}

type AdminAuthenticator interface {
	Login(ctx context.Context, password string) (string, error)
	Verify(token string) error
}

////////////////////////////////////////////////////////
///////////////         OUTBOUND          //////////////
////////////////////////////////////////////////////////

type ProductsStorage interface {
	ListProducts(ctx context.Context, f domain.ProductFilter) ([]domain.Product, error)
	ReadProduct(ctx context.Context, id int64) (domain.Product, error)
	ReadProducts(ctx context.Context, ids []int64) ([]domain.Product, error)
	CreateProduct(ctx context.Context, p domain.Product) (domain.Product, error)
	UpdateProduct(ctx context.Context, p domain.Product) (domain.Product, error)
	DeactivateProduct(ctx context.Context, id int64) error
}

// A CartStorage persists carts and their line items.
//
// InTx runs fn against a storage bound to one database transaction;
// the transaction commits when fn returns nil.
type CartStorage interface {
	InTx(ctx context.Context, fn func(CartStorage) error) error
	GetOrCreateCart(ctx context.Context, sessionID string) (domain.Cart, error)
	ListItems(ctx context.Context, cartID int64) ([]domain.CartLine, error)
	AddItem(
		ctx context.Context, cartID, productID int64, quantity int,
	) (domain.CartItem, error)
	SetItemQuantity(
		ctx context.Context, cartID, productID int64, quantity int,
	) (domain.CartItem, error)
	RemoveItem(ctx context.Context, cartID, productID int64) (bool, error)
	ClearCart(ctx context.Context, cartID int64) error
}

type OrdersStorage interface {
	CreateOrder(ctx context.Context, o domain.Order) (domain.Order, error)
	ReadOrder(ctx context.Context, id int64) (domain.Order, error)
	ReadOrderByIntent(ctx context.Context, intentID string) (domain.Order, error)
	// MarkOrderPaid reports whether this call moved the order from pending.
	MarkOrderPaid(
		ctx context.Context, intentID, email string,
	) (domain.Order, bool, error)
	SetNotificationStatus(
		ctx context.Context, orderID int64, s domain.NotificationStatus,
	) error
	ListOrders(ctx context.Context, limit int) ([]domain.Order, error)
}

type TestimonialsStorage interface {
	ListTestimonials(ctx context.Context) ([]domain.Testimonial, error)
	CreateTestimonial(ctx context.Context, t domain.Testimonial) (domain.Testimonial, error)
	UpdateTestimonial(ctx context.Context, t domain.Testimonial) (domain.Testimonial, error)
	DeleteTestimonial(ctx context.Context, id int64) error
}

type SettingsStorage interface {
	ReadSettings(ctx context.Context) (domain.SiteSettings, error)
	StoreSettings(ctx context.Context, s domain.SiteSettings) (domain.SiteSettings, error)
}

type AnalyticsStorage interface {
	ReadAnalytics(ctx context.Context) (domain.Analytics, error)
}

type PaymentGateway interface {
	CreateIntent(
		ctx context.Context, amount int64, currency string, metadata map[string]string,
	) (domain.PaymentIntent, error)
	GetIntent(ctx context.Context, id string) (domain.PaymentIntent, error)
}

type EmailSender interface {
	Send(ctx context.Context, e domain.Email) error
}

type OrderPaidProducer interface {
	ProduceOrderPaid(ctx context.Context, evt domain.OrderPaid) error
}

type SalesReader interface {
	TopSellers(limit int) ([]domain.ProductSales, error)
}

type SalesProcessor interface {
	runnerContextWg
	closer
}
