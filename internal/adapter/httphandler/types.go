package httphandler

import (
	"encoding/json"
	"time"

	"github.com/niksmo/digital-store/internal/core/domain"
)

type (
	Product struct {
		ID           int64     `json:"id"`
		Title        string    `json:"title"`
		Description  string    `json:"description"`
		Type         string    `json:"type"`
		Category     string    `json:"category"`
		Price        int64     `json:"price"`
		ImageURL     string    `json:"imageUrl"`
		PreviewURL   string    `json:"previewUrl,omitempty"`
		DownloadURL  string    `json:"downloadUrl,omitempty"`
		Duration     string    `json:"duration,omitempty"`
		Badge        string    `json:"badge,omitempty"`
		IsBestseller bool      `json:"isBestseller"`
		IsNew        bool      `json:"isNew"`
		IsActive     bool      `json:"isActive"`
		CreatedAt    time.Time `json:"createdAt"`
		UpdatedAt    time.Time `json:"updatedAt"`
	}

	// ProductInput is an admin product write. A missing isActive keeps the
	// product listed.
	ProductInput struct {
		Title        string `json:"title"`
		Description  string `json:"description"`
		Type         string `json:"type"`
		Category     string `json:"category"`
		Price        int64  `json:"price"`
		ImageURL     string `json:"imageUrl"`
		PreviewURL   string `json:"previewUrl"`
		DownloadURL  string `json:"downloadUrl"`
		Duration     string `json:"duration"`
		Badge        string `json:"badge"`
		IsBestseller bool   `json:"isBestseller"`
		IsNew        bool   `json:"isNew"`
		IsActive     *bool  `json:"isActive"`
	}
)

type (
	Cart struct {
		ID        int64     `json:"id"`
		SessionID string    `json:"sessionId"`
		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`
	}

	CartItem struct {
		ID        int64     `json:"id"`
		CartID    int64     `json:"cartId"`
		ProductID int64     `json:"productId"`
		Quantity  int       `json:"quantity"`
		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`
	}

	CartLine struct {
		CartItem
		Product  Product `json:"product"`
		Subtotal int64   `json:"subtotal"`
	}

	CartView struct {
		Cart  Cart       `json:"cart"`
		Items []CartLine `json:"items"`
		Total int64      `json:"total"`
	}

	AddItemInput struct {
		ProductID int64 `json:"productId"`
		Quantity  *int  `json:"quantity"`
	}

	SetQuantityInput struct {
		Quantity *int `json:"quantity"`
	}

	SetQuantityResult struct {
		Item    *CartItem `json:"item,omitempty"`
		Removed bool      `json:"removed"`
	}

	RemoveResult struct {
		Removed bool `json:"removed"`
	}
)

type (
	// CheckoutInput accepts the client's cart echo for compatibility.
	// Only the email is used, amounts come from the stored cart.
	CheckoutInput struct {
		Email string          `json:"email"`
		Items json.RawMessage `json:"items"`
		Total json.RawMessage `json:"total"`
	}

	CheckoutResult struct {
		ClientSecret    string `json:"clientSecret"`
		PaymentIntentID string `json:"paymentIntentId"`
		OrderID         int64  `json:"orderId"`
		Amount          int64  `json:"amount"`
		Currency        string `json:"currency"`
	}

	ConfirmInput struct {
		PaymentIntentID string `json:"paymentIntentId"`
		Email           string `json:"email"`
	}

	ConfirmResult struct {
		Order        Order  `json:"order"`
		Notification string `json:"notification"`
	}

	DownloadEmailInput struct {
		OrderID         int64  `json:"orderId"`
		PaymentIntentID string `json:"paymentIntentId"`
		Email           string `json:"email"`
	}

	// A DeliveryReceipt confirms a sent email without its links.
	DeliveryReceipt struct {
		Email     string    `json:"email"`
		ExpiresAt time.Time `json:"expiresAt"`
		Count     int       `json:"count"`
	}

	DownloadLink struct {
		ProductID int64  `json:"productId"`
		Title     string `json:"title"`
		URL       string `json:"url"`
	}

	Delivery struct {
		Email     string         `json:"email"`
		Links     []DownloadLink `json:"links"`
		ExpiresAt time.Time      `json:"expiresAt"`
	}
)

type (
	Order struct {
		ID                 int64       `json:"id"`
		SessionID          string      `json:"sessionId"`
		CartID             int64       `json:"cartId"`
		PaymentIntentID    string      `json:"paymentIntentId"`
		Amount             int64       `json:"amount"`
		Currency           string      `json:"currency"`
		Status             string      `json:"status"`
		Email              string      `json:"email,omitempty"`
		NotificationStatus string      `json:"notificationStatus"`
		Items              []OrderItem `json:"items"`
		CreatedAt          time.Time   `json:"createdAt"`
		PaidAt             *time.Time  `json:"paidAt,omitempty"`
	}

	OrderItem struct {
		ProductID int64 `json:"productId"`
		Quantity  int   `json:"quantity"`
		UnitPrice int64 `json:"unitPrice"`
	}
)

type (
	LoginInput struct {
		Password string `json:"password"`
	}

	LoginResult struct {
		Token string `json:"token"`
	}

	Testimonial struct {
		ID        int64     `json:"id"`
		Name      string    `json:"name"`
		ImageURL  string    `json:"imageUrl,omitempty"`
		Rating    int       `json:"rating"`
		Comment   string    `json:"comment"`
		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`
	}

	TestimonialInput struct {
		Name     string `json:"name"`
		ImageURL string `json:"imageUrl"`
		Rating   int    `json:"rating"`
		Comment  string `json:"comment"`
	}

	Settings struct {
		SiteName     string          `json:"siteName"`
		ContactEmail string          `json:"contactEmail"`
		Features     map[string]bool `json:"features"`
		UpdatedAt    time.Time       `json:"updatedAt"`
	}

	SettingsInput struct {
		SiteName     string          `json:"siteName"`
		ContactEmail string          `json:"contactEmail"`
		Features     map[string]bool `json:"features"`
	}

	ProductSales struct {
		ProductID int64 `json:"productId"`
		Units     int64 `json:"units"`
	}

	Analytics struct {
		ProductsTotal  int64            `json:"productsTotal"`
		ProductsActive int64            `json:"productsActive"`
		ProductsByType map[string]int64 `json:"productsByType"`
		CartsTotal     int64            `json:"cartsTotal"`
		CartsWithItems int64            `json:"cartsWithItems"`
		OrdersPaid     int64            `json:"ordersPaid"`
		Revenue        int64            `json:"revenue"`
		TopSellers     []ProductSales   `json:"topSellers"`
	}
)

// toProduct hides the download URL unless withDownload is set; it is
// what a buyer pays for.
func toProduct(p domain.Product, withDownload bool) Product {
	out := Product{
		ID:           p.ID,
		Title:        p.Title,
		Description:  p.Description,
		Type:         string(p.Type),
		Category:     p.Category,
		Price:        p.Price,
		ImageURL:     p.ImageURL,
		PreviewURL:   p.PreviewURL,
		Duration:     p.Duration,
		Badge:        p.Badge,
		IsBestseller: p.IsBestseller,
		IsNew:        p.IsNew,
		IsActive:     p.IsActive,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
	if withDownload {
		out.DownloadURL = p.DownloadURL
	}
	return out
}

func toProducts(ps []domain.Product, withDownload bool) []Product {
	out := make([]Product, len(ps))
	for i, p := range ps {
		out[i] = toProduct(p, withDownload)
	}
	return out
}

func (in ProductInput) toDomain(id int64) domain.Product {
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	return domain.Product{
		ID:           id,
		Title:        in.Title,
		Description:  in.Description,
		Type:         domain.ProductType(in.Type),
		Category:     in.Category,
		Price:        in.Price,
		ImageURL:     in.ImageURL,
		PreviewURL:   in.PreviewURL,
		DownloadURL:  in.DownloadURL,
		Duration:     in.Duration,
		Badge:        in.Badge,
		IsBestseller: in.IsBestseller,
		IsNew:        in.IsNew,
		IsActive:     active,
	}
}

func toCartItem(it domain.CartItem) CartItem {
	return CartItem{
		ID:        it.ID,
		CartID:    it.CartID,
		ProductID: it.ProductID,
		Quantity:  it.Quantity,
		CreatedAt: it.CreatedAt,
		UpdatedAt: it.UpdatedAt,
	}
}

func toCartView(v domain.CartView) CartView {
	out := CartView{
		Cart: Cart{
			ID:        v.Cart.ID,
			SessionID: v.Cart.SessionID,
			CreatedAt: v.Cart.CreatedAt,
			UpdatedAt: v.Cart.UpdatedAt,
		},
		Items: make([]CartLine, len(v.Lines)),
		Total: v.Total,
	}
	for i, l := range v.Lines {
		out.Items[i] = CartLine{
			CartItem: toCartItem(l.Item),
			Product:  toProduct(l.Product, false),
			Subtotal: l.Subtotal(),
		}
	}
	return out
}

func toOrder(o domain.Order) Order {
	out := Order{
		ID:                 o.ID,
		SessionID:          o.SessionID,
		CartID:             o.CartID,
		PaymentIntentID:    o.PaymentIntentID,
		Amount:             o.Amount,
		Currency:           o.Currency,
		Status:             string(o.Status),
		Email:              o.Email,
		NotificationStatus: string(o.NotificationStatus),
		Items:              make([]OrderItem, len(o.Items)),
		CreatedAt:          o.CreatedAt,
		PaidAt:             o.PaidAt,
	}
	for i, it := range o.Items {
		out.Items[i] = OrderItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		}
	}
	return out
}

func toDelivery(d domain.Delivery) Delivery {
	out := Delivery{
		Email:     d.Email,
		Links:     make([]DownloadLink, len(d.Links)),
		ExpiresAt: d.ExpiresAt,
	}
	for i, l := range d.Links {
		out.Links[i] = DownloadLink{
			ProductID: l.ProductID,
			Title:     l.Title,
			URL:       l.URL,
		}
	}
	return out
}

func toDeliveryReceipt(d domain.Delivery) DeliveryReceipt {
	return DeliveryReceipt{
		Email:     d.Email,
		ExpiresAt: d.ExpiresAt,
		Count:     len(d.Links),
	}
}

func toTestimonial(t domain.Testimonial) Testimonial {
	return Testimonial{
		ID:        t.ID,
		Name:      t.Name,
		ImageURL:  t.ImageURL,
		Rating:    t.Rating,
		Comment:   t.Comment,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func (in TestimonialInput) toDomain(id int64) domain.Testimonial {
	return domain.Testimonial{
		ID:       id,
		Name:     in.Name,
		ImageURL: in.ImageURL,
		Rating:   in.Rating,
		Comment:  in.Comment,
	}
}

func toSettings(s domain.SiteSettings) Settings {
	features := s.Features
	if features == nil {
		features = map[string]bool{}
	}
	return Settings{
		SiteName:     s.SiteName,
		ContactEmail: s.ContactEmail,
		Features:     features,
		UpdatedAt:    s.UpdatedAt,
	}
}

func (in SettingsInput) toDomain() domain.SiteSettings {
	return domain.SiteSettings{
		SiteName:     in.SiteName,
		ContactEmail: in.ContactEmail,
		Features:     in.Features,
	}
}

func toAnalytics(a domain.Analytics) Analytics {
	out := Analytics{
		ProductsTotal:  a.ProductsTotal,
		ProductsActive: a.ProductsActive,
		ProductsByType: make(map[string]int64, len(a.ProductsByType)),
		CartsTotal:     a.CartsTotal,
		CartsWithItems: a.CartsWithItems,
		OrdersPaid:     a.OrdersPaid,
		Revenue:        a.Revenue,
		TopSellers:     make([]ProductSales, len(a.TopSellers)),
	}
	for t, n := range a.ProductsByType {
		out.ProductsByType[string(t)] = n
	}
	for i, s := range a.TopSellers {
		out.TopSellers[i] = ProductSales{ProductID: s.ProductID, Units: s.Units}
	}
	return out
}
