package httphandler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/niksmo/digital-store/internal/adapter/httphandler"
	"github.com/niksmo/digital-store/internal/core/domain"
	"github.com/niksmo/digital-store/internal/core/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-session-secret"

type deps struct {
	db        *MockPinger
	catalog   *MockCatalog
	cart      *MockCart
	checkout  *MockCheckout
	downloads *MockDownloads
	admin     *MockAdmin
	auth      *MockAuth
}

func newDeps() deps {
	return deps{
		db:        new(MockPinger),
		catalog:   new(MockCatalog),
		cart:      new(MockCart),
		checkout:  new(MockCheckout),
		downloads: new(MockDownloads),
		admin:     new(MockAdmin),
		auth:      new(MockAuth),
	}
}

func (d deps) handler() http.Handler {
	mux := http.NewServeMux()
	sessions := httphandler.NewSessionResolver(testSecret, time.Hour, false)

	httphandler.RegisterHealth(mux, d.db)
	httphandler.RegisterCatalog(mux, d.catalog, d.admin)
	httphandler.RegisterCart(mux, sessions, d.cart)
	httphandler.RegisterCheckout(mux, sessions, d.checkout, d.downloads)
	httphandler.RegisterAdmin(mux, d.auth, d.catalog, d.admin)

	return httphandler.Recover(httphandler.LogRequests(httphandler.AllowJSON(mux)))
}

func do(
	t *testing.T, h http.Handler, method, target, body string,
	mutate ...func(*http.Request),
) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	for _, fn := range mutate {
		fn(r)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func withCookie(c *http.Cookie) func(*http.Request) {
	return func(r *http.Request) { r.AddCookie(c) }
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == httphandler.SessionCookieName {
			return c
		}
	}
	return nil
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error
}

func TestSession(t *testing.T) {
	d := newDeps()
	h := d.handler()

	var seen []string
	d.cart.On("View", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			seen = append(seen, args.String(1))
		}).
		Return(domain.CartView{Cart: domain.Cart{ID: 3}}, nil)

	first := do(t, h, http.MethodGet, "/api/cart", "")
	require.Equal(t, http.StatusOK, first.Code)

	c := sessionCookie(t, first)
	require.NotNil(t, c)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, "/", c.Path)

	second := do(t, h, http.MethodGet, "/api/cart", "", withCookie(c))
	require.Equal(t, http.StatusOK, second.Code)
	assert.Nil(t, sessionCookie(t, second), "valid cookie is kept")

	forged := &http.Cookie{Name: httphandler.SessionCookieName, Value: c.Value + "x"}
	third := do(t, h, http.MethodGet, "/api/cart", "", withCookie(forged))
	require.Equal(t, http.StatusOK, third.Code)
	assert.NotNil(t, sessionCookie(t, third), "invalid cookie is replaced")

	require.Len(t, seen, 3)
	_, err := uuid.Parse(seen[0])
	require.NoError(t, err)
	assert.Equal(t, seen[0], seen[1])
	assert.NotEqual(t, seen[0], seen[2])

	var body httphandler.CartView
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &body))
	assert.Equal(t, int64(3), body.Cart.ID)
	assert.NotNil(t, body.Items)
}

func TestCartHandlers(t *testing.T) {
	t.Run("AddDefaultsToOne", func(t *testing.T) {
		d := newDeps()
		d.cart.On("AddItem", mock.Anything, mock.Anything, int64(7), 1).
			Return(domain.CartItem{ID: 1, ProductID: 7, Quantity: 1}, nil)

		w := do(t, d.handler(), http.MethodPost, "/api/cart/items", `{"productId":7}`)
		require.Equal(t, http.StatusCreated, w.Code)

		var item httphandler.CartItem
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &item))
		assert.Equal(t, 1, item.Quantity)
	})

	t.Run("AddOnCartAlias", func(t *testing.T) {
		d := newDeps()
		d.cart.On("AddItem", mock.Anything, mock.Anything, int64(7), 2).
			Return(domain.CartItem{ID: 1, ProductID: 7, Quantity: 3}, nil)

		w := do(t, d.handler(), http.MethodPost, "/api/cart", `{"productId":7,"quantity":2}`)
		require.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("AddUnknownProduct", func(t *testing.T) {
		d := newDeps()
		d.cart.On("AddItem", mock.Anything, mock.Anything, int64(99), 1).
			Return(domain.CartItem{}, domain.ErrNotFound)

		w := do(t, d.handler(), http.MethodPost, "/api/cart/items", `{"productId":99}`)
		require.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "not found", errorBody(t, w))
	})

	t.Run("SetQuantityZeroRemoves", func(t *testing.T) {
		d := newDeps()
		d.cart.On("SetItemQuantity", mock.Anything, mock.Anything, int64(7), 0).
			Return(domain.CartItem{}, true, nil)

		w := do(t, d.handler(), http.MethodPatch, "/api/cart/items/7", `{"quantity":0}`)
		require.Equal(t, http.StatusOK, w.Code)

		var res httphandler.SetQuantityResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.True(t, res.Removed)
		assert.Nil(t, res.Item)
	})

	t.Run("SetQuantityRequired", func(t *testing.T) {
		d := newDeps()
		w := do(t, d.handler(), http.MethodPut, "/api/cart/items/7", `{}`)
		require.Equal(t, http.StatusBadRequest, w.Code)
		d.cart.AssertNotCalled(t, "SetItemQuantity", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("BadProductID", func(t *testing.T) {
		d := newDeps()
		w := do(t, d.handler(), http.MethodDelete, "/api/cart/items/abc", "")
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Remove", func(t *testing.T) {
		d := newDeps()
		d.cart.On("RemoveItem", mock.Anything, mock.Anything, int64(7)).
			Return(false, nil)

		w := do(t, d.handler(), http.MethodDelete, "/api/cart/items/7", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"removed":false}`, w.Body.String())
	})

	t.Run("Clear", func(t *testing.T) {
		d := newDeps()
		d.cart.On("Clear", mock.Anything, mock.Anything).Return(nil)

		w := do(t, d.handler(), http.MethodDelete, "/api/cart/clear", "")
		require.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("InvalidJSON", func(t *testing.T) {
		d := newDeps()
		w := do(t, d.handler(), http.MethodPost, "/api/cart/items", `{"productId":`)
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("NonJSONBody", func(t *testing.T) {
		d := newDeps()
		w := do(t, d.handler(), http.MethodPost, "/api/cart/items", "productId=7",
			func(r *http.Request) {
				r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			},
		)
		require.Equal(t, http.StatusUnsupportedMediaType, w.Code)
		d.cart.AssertNotCalled(t, "AddItem", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestCheckoutHandlers(t *testing.T) {
	t.Run("ClientPricesIgnored", func(t *testing.T) {
		d := newDeps()
		d.checkout.On("CreatePaymentIntent", mock.Anything, mock.Anything, "a@b.co").
			Return(domain.CheckoutResult{
				OrderID:  5,
				Intent:   domain.PaymentIntent{ID: "pi_1", ClientSecret: "pi_1_secret"},
				Amount:   5997,
				Currency: "mxn",
			}, nil)

		body := `{"email":"a@b.co","items":[{"productId":7,"price":1}],"total":1}`
		w := do(t, d.handler(), http.MethodPost, "/api/checkout", body)
		require.Equal(t, http.StatusOK, w.Code)

		var res httphandler.CheckoutResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.Equal(t, int64(5997), res.Amount)
		assert.Equal(t, "pi_1_secret", res.ClientSecret)
		assert.Equal(t, "pi_1", res.PaymentIntentID)
	})

	t.Run("EmptyCart", func(t *testing.T) {
		d := newDeps()
		d.checkout.On("CreatePaymentIntent", mock.Anything, mock.Anything, "").
			Return(domain.CheckoutResult{}, domain.ErrEmptyCart)

		w := do(t, d.handler(), http.MethodPost, "/api/checkout", "")
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "cart is empty", errorBody(t, w))
	})

	t.Run("ProcessorDown", func(t *testing.T) {
		d := newDeps()
		d.checkout.On("CreatePaymentIntent", mock.Anything, mock.Anything, "").
			Return(domain.CheckoutResult{}, errors.Join(domain.ErrUpstream, errors.New("502 from api")))

		w := do(t, d.handler(), http.MethodPost, "/api/checkout", "")
		require.Equal(t, http.StatusBadGateway, w.Code)
		assert.NotContains(t, w.Body.String(), "502 from api")
	})

	t.Run("ConfirmIncomplete", func(t *testing.T) {
		d := newDeps()
		d.checkout.On("ConfirmPayment", mock.Anything, mock.Anything, "pi_1", "a@b.co").
			Return(domain.Confirmation{}, domain.ErrPaymentIncomplete)

		w := do(t, d.handler(), http.MethodPost, "/api/checkout/confirm",
			`{"paymentIntentId":"pi_1","email":"a@b.co"}`)
		require.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("Confirm", func(t *testing.T) {
		d := newDeps()
		d.checkout.On("ConfirmPayment", mock.Anything, mock.Anything, "pi_1", "a@b.co").
			Return(domain.Confirmation{
				Order: domain.Order{
					ID: 5, Status: domain.OrderStatusPaid,
					Items: []domain.OrderItem{{ProductID: 7, Quantity: 3, UnitPrice: 1999}},
				},
				Notification: domain.NotificationQueued,
			}, nil)

		w := do(t, d.handler(), http.MethodPost, "/api/checkout/confirm",
			`{"paymentIntentId":"pi_1","email":"a@b.co"}`)
		require.Equal(t, http.StatusOK, w.Code)

		var res httphandler.ConfirmResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.Equal(t, "queued", res.Notification)
		assert.Equal(t, "paid", res.Order.Status)
		assert.Len(t, res.Order.Items, 1)
	})

	t.Run("ConfirmUsesCookieSession", func(t *testing.T) {
		d := newDeps()
		d.cart.On("View", mock.Anything, mock.Anything).Return(domain.CartView{}, nil)
		first := do(t, d.handler(), http.MethodGet, "/api/cart", "")
		cookie := sessionCookie(t, first)
		require.NotNil(t, cookie)
		sid := d.cart.Calls[0].Arguments.String(1)

		d.checkout.On("ConfirmPayment", mock.Anything, sid, "pi_1", "").
			Return(domain.Confirmation{}, domain.ErrNotFound)

		w := do(t, d.handler(), http.MethodPost, "/api/checkout/confirm",
			`{"paymentIntentId":"pi_1"}`, withCookie(cookie))
		require.Equal(t, http.StatusNotFound, w.Code)
		d.checkout.AssertExpectations(t)
	})

	t.Run("SendDownloadEmailHidesLinks", func(t *testing.T) {
		d := newDeps()
		expires := time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)
		d.downloads.On("SendOrderDownloads", mock.Anything, int64(5), "pi_1", "a@b.co").
			Return(domain.Delivery{
				Email:     "a@b.co",
				Links:     []domain.DownloadLink{{ProductID: 1, Title: "T", URL: "https://cdn/1"}},
				ExpiresAt: expires,
			}, nil)

		w := do(t, d.handler(), http.MethodPost, "/api/send-download-email",
			`{"orderId":5,"paymentIntentId":"pi_1","email":"a@b.co"}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.NotContains(t, w.Body.String(), "https://cdn/1")

		var res httphandler.DeliveryReceipt
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.True(t, expires.Equal(res.ExpiresAt))
		assert.Equal(t, 1, res.Count)
		assert.Equal(t, "a@b.co", res.Email)
	})

	t.Run("SendDownloadEmailNeedsPurchase", func(t *testing.T) {
		products := new(MockProductsStore)
		orders := new(MockOrdersStore)
		mailer := new(MockMailer)
		products.On("ReadProducts", mock.Anything, []int64{7}).
			Return([]domain.Product{{
				ID: 7, Title: "Paid Audiobook", DownloadURL: "https://cdn/full-file.mp3",
			}}, nil)
		orders.On("ReadOrder", mock.Anything, int64(5)).Return(domain.Order{
			ID:              5,
			PaymentIntentID: "pi_real",
			Status:          domain.OrderStatusPaid,
			Email:           "buyer@example.com",
			Items:           []domain.OrderItem{{ProductID: 7, Quantity: 1}},
		}, nil)
		orders.On("SetNotificationStatus", mock.Anything, int64(5), mock.Anything).
			Return(nil)
		mailer.On("Send", mock.Anything, mock.Anything).Return(nil)

		fulfillment := service.NewFulfillmentService(products, orders, mailer,
			service.FulfillmentConfig{SendAttempts: 1},
		)
		mux := http.NewServeMux()
		sessions := httphandler.NewSessionResolver(testSecret, time.Hour, false)
		httphandler.RegisterCheckout(mux, sessions, new(MockCheckout), fulfillment)
		h := httphandler.AllowJSON(mux)

		w := do(t, h, http.MethodPost, "/api/send-download-email",
			`{"email":"attacker@example.com","productIds":[7]}`)
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.NotContains(t, w.Body.String(), "https://cdn/full-file.mp3")

		w = do(t, h, http.MethodPost, "/api/send-download-email",
			`{"orderId":5,"paymentIntentId":"pi_guess","email":"attacker@example.com"}`)
		require.Equal(t, http.StatusNotFound, w.Code)
		mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)

		w = do(t, h, http.MethodPost, "/api/send-download-email",
			`{"orderId":5,"paymentIntentId":"pi_real","email":"attacker@example.com"}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.NotContains(t, w.Body.String(), "https://cdn/full-file.mp3")
		mailer.AssertCalled(t, "Send", mock.Anything,
			mock.MatchedBy(func(e domain.Email) bool {
				return e.To == "buyer@example.com"
			}))
	})

	t.Run("Timeout", func(t *testing.T) {
		d := newDeps()
		d.downloads.On("SendOrderDownloads", mock.Anything, int64(5), "pi_1", "").
			Return(domain.Delivery{}, context.DeadlineExceeded)

		w := do(t, d.handler(), http.MethodPost, "/api/send-download-email",
			`{"orderId":5,"paymentIntentId":"pi_1"}`)
		require.Equal(t, http.StatusGatewayTimeout, w.Code)
	})
}

func TestCatalogHandlers(t *testing.T) {
	t.Run("ListHidesDownloadURL", func(t *testing.T) {
		d := newDeps()
		d.catalog.On("ListProducts", mock.Anything, "mindset").
			Return([]domain.Product{{ID: 1, Title: "A", DownloadURL: "https://cdn/paid"}}, nil)

		w := do(t, d.handler(), http.MethodGet, "/api/products?category=mindset", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.NotContains(t, w.Body.String(), "https://cdn/paid")
	})

	t.Run("EmptyListIsArray", func(t *testing.T) {
		d := newDeps()
		d.catalog.On("ListProducts", mock.Anything, "").Return([]domain.Product{}, nil)

		w := do(t, d.handler(), http.MethodGet, "/api/products", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String())
	})

	t.Run("HiddenProduct", func(t *testing.T) {
		d := newDeps()
		d.catalog.On("GetProduct", mock.Anything, int64(4)).
			Return(domain.Product{}, domain.ErrNotFound)

		w := do(t, d.handler(), http.MethodGet, "/api/products/4", "")
		require.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("ByUnknownType", func(t *testing.T) {
		d := newDeps()
		d.catalog.On("ListProductsByType", mock.Anything, "vinyl").
			Return(nil, domain.NewValidationError("type", "unknown"))

		w := do(t, d.handler(), http.MethodGet, "/api/products/type/vinyl", "")
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "type: unknown", errorBody(t, w))
	})

	t.Run("PublicSettings", func(t *testing.T) {
		d := newDeps()
		d.admin.On("GetSettings", mock.Anything).
			Return(domain.SiteSettings{SiteName: "Digital Store"}, nil)

		w := do(t, d.handler(), http.MethodGet, "/api/settings", "")
		require.Equal(t, http.StatusOK, w.Code)

		var s httphandler.Settings
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &s))
		assert.Equal(t, "Digital Store", s.SiteName)
		assert.NotNil(t, s.Features)
	})
}

func TestAdminHandlers(t *testing.T) {
	bearer := func(token string) func(*http.Request) {
		return func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+token)
		}
	}

	t.Run("NoToken", func(t *testing.T) {
		d := newDeps()
		w := do(t, d.handler(), http.MethodGet, "/api/admin/products", "")
		require.Equal(t, http.StatusUnauthorized, w.Code)
		d.catalog.AssertNotCalled(t, "ListAllProducts", mock.Anything)
	})

	t.Run("BadToken", func(t *testing.T) {
		d := newDeps()
		d.auth.On("Verify", "nope").Return(domain.ErrUnauthorized)

		w := do(t, d.handler(), http.MethodGet, "/api/admin/products", "", bearer("nope"))
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Login", func(t *testing.T) {
		d := newDeps()
		d.auth.On("Login", mock.Anything, "s3cret").Return("tok", nil)

		w := do(t, d.handler(), http.MethodPost, "/api/admin/login", `{"password":"s3cret"}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"token":"tok"}`, w.Body.String())
	})

	t.Run("ListShowsDownloadURL", func(t *testing.T) {
		d := newDeps()
		d.auth.On("Verify", "tok").Return(nil)
		d.catalog.On("ListAllProducts", mock.Anything).
			Return([]domain.Product{{ID: 1, DownloadURL: "https://cdn/paid"}}, nil)

		w := do(t, d.handler(), http.MethodGet, "/api/admin/products", "", bearer("tok"))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "https://cdn/paid")
	})

	t.Run("CreateProductDefaultsActive", func(t *testing.T) {
		d := newDeps()
		d.auth.On("Verify", "tok").Return(nil)
		d.catalog.On("CreateProduct", mock.Anything, mock.MatchedBy(func(p domain.Product) bool {
			return p.IsActive && p.Price == 1999 && p.Type == domain.ProductTypeGuide
		})).Return(domain.Product{ID: 10, IsActive: true}, nil)

		w := do(t, d.handler(), http.MethodPost, "/api/admin/products",
			`{"title":"G","type":"guide","price":1999,"imageUrl":"https://img/g"}`, bearer("tok"))
		require.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("DeleteProduct", func(t *testing.T) {
		d := newDeps()
		d.auth.On("Verify", "tok").Return(nil)
		d.catalog.On("DeactivateProduct", mock.Anything, int64(10)).Return(nil)

		w := do(t, d.handler(), http.MethodDelete, "/api/admin/products/10", "", bearer("tok"))
		require.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("OrdersLimit", func(t *testing.T) {
		d := newDeps()
		d.auth.On("Verify", "tok").Return(nil)
		d.admin.On("ListOrders", mock.Anything, 20).Return([]domain.Order{}, nil)

		w := do(t, d.handler(), http.MethodGet, "/api/admin/orders?limit=20", "", bearer("tok"))
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String())

		w = do(t, d.handler(), http.MethodGet, "/api/admin/orders?limit=x", "", bearer("tok"))
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Analytics", func(t *testing.T) {
		d := newDeps()
		d.auth.On("Verify", "tok").Return(nil)
		d.admin.On("Analytics", mock.Anything).Return(domain.Analytics{
			ProductsByType: map[domain.ProductType]int64{domain.ProductTypeVideo: 2},
			TopSellers:     []domain.ProductSales{{ProductID: 7, Units: 5}},
		}, nil)

		w := do(t, d.handler(), http.MethodGet, "/api/admin/analytics", "", bearer("tok"))
		require.Equal(t, http.StatusOK, w.Code)

		var a httphandler.Analytics
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &a))
		assert.Equal(t, int64(2), a.ProductsByType["video"])
		assert.Equal(t, []httphandler.ProductSales{{ProductID: 7, Units: 5}}, a.TopSellers)
	})
}

func TestHealth(t *testing.T) {
	d := newDeps()
	d.db.On("Ping", mock.Anything, mock.Anything).Return(nil).Once()
	d.db.On("Ping", mock.Anything, mock.Anything).Return(errors.New("down")).Once()
	h := d.handler()

	require.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/healthz", "").Code)
	require.Equal(t, http.StatusServiceUnavailable, do(t, h, http.MethodGet, "/healthz", "").Code)
}

func TestRecover(t *testing.T) {
	d := newDeps()
	d.catalog.On("ListProducts", mock.Anything, "").
		Run(func(mock.Arguments) { panic("boom") })

	w := do(t, d.handler(), http.MethodGet, "/api/products", "")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal error", errorBody(t, w))
}
