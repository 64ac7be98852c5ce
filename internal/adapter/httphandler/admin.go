package httphandler

import (
	"net/http"
	"strconv"

	"github.com/niksmo/digital-store/internal/core/domain"
	"github.com/niksmo/digital-store/internal/core/port"
)

// POST /api/admin/login JSON {"password" string} (200 OK, 401 Unauthorized)
//
// Routes below require Authorization: Bearer <token>.
//
// GET, POST /api/admin/products
// GET, PUT, DELETE /api/admin/products/{id}
// GET, POST /api/admin/testimonials
// PUT, DELETE /api/admin/testimonials/{id}
// GET, PUT /api/admin/settings
// GET /api/admin/orders?limit=n
// POST /api/admin/orders/{id}/resend-email
// GET /api/admin/analytics

type AdminHandler struct {
	auth    port.AdminAuthenticator
	catalog port.CatalogAdmin
	admin   port.AdminManager
}

func RegisterAdmin(
	mux *http.ServeMux,
	auth port.AdminAuthenticator,
	catalog port.CatalogAdmin,
	admin port.AdminManager,
) {
	h := AdminHandler{auth, catalog, admin}
	guard := RequireAdmin(auth)
	handle := func(pattern string, hf http.HandlerFunc) {
		mux.Handle(pattern, guard(hf))
	}

	mux.HandleFunc("POST /api/admin/login", h.PostLogin)

	handle("GET /api/admin/products", h.GetProducts)
	handle("POST /api/admin/products", h.PostProduct)
	handle("GET /api/admin/products/{id}", h.GetProduct)
	handle("PUT /api/admin/products/{id}", h.PutProduct)
	handle("DELETE /api/admin/products/{id}", h.DeleteProduct)

	handle("GET /api/admin/testimonials", h.GetTestimonials)
	handle("POST /api/admin/testimonials", h.PostTestimonial)
	handle("PUT /api/admin/testimonials/{id}", h.PutTestimonial)
	handle("DELETE /api/admin/testimonials/{id}", h.DeleteTestimonial)

	handle("GET /api/admin/settings", h.GetSettings)
	handle("PUT /api/admin/settings", h.PutSettings)

	handle("GET /api/admin/orders", h.GetOrders)
	handle("POST /api/admin/orders/{id}/resend-email", h.PostResendEmail)

	handle("GET /api/admin/analytics", h.GetAnalytics)
}

func (h AdminHandler) PostLogin(w http.ResponseWriter, r *http.Request) {
	const op = "AdminHandler.PostLogin"

	var in LoginInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, op, err)
		return
	}

	token, err := h.auth.Login(r.Context(), in.Password)
	if err != nil {
		writeError(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, LoginResult{token})
}

func (h AdminHandler) GetProducts(w http.ResponseWriter, r *http.Request) {
	const op = "AdminHandler.GetProducts"

	ps, err := h.catalog.ListAllProducts(r.Context())
	if err != nil {
		writeError(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, toProducts(ps, true))
}

func (h AdminHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	const op = "AdminHandler.GetProduct"

	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, op, err)
		return
	}

	p, err := h.catalog.GetAnyProduct(r.Context(), id)
	if err != nil {
		writeError(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, toProduct(p, true))
}

func (h AdminHandler) PostProduct(w http.ResponseWriter, r *http.Request) {
	const op = "AdminHandler.PostProduct"

	var in ProductInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, op, err)
		return
	}

	p, err := h.catalog.CreateProduct(r.Context(), in.toDomain(0))
	if err != nil {
		writeError(w, r, op, err)
		return
	}

	requestLog(r, op).Info("product created", "productID", p.ID)
	writeJSON(w, http.StatusCreated, toProduct(p, true))
}

func (h AdminHandler) PutProduct(w http.ResponseWriter, r *http.Request) {
	const op = "AdminHandler.PutProduct"

	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, op, err)
		return
	}

	var in ProductInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, op, err)
		return
	}

	p, err := h.catalog.UpdateProduct(r.Context(), in.toDomain(id))
	if err != nil {
		writeError(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, toProduct(p, true))
}

func (h AdminHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	const op = "AdminHandler.DeleteProduct"

	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, op, err)
		return
	}

	if err := h.catalog.DeactivateProduct(r.Context(), id); err != nil {
		writeError(w, r, op, err)
		return
	}

	requestLog(r, op).Info("product deactivated", "productID", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h AdminHandler) GetTestimonials(w http.ResponseWriter, r *http.Request) {
	const op = "AdminHandler.GetTestimonials"

	ts, err := h.admin.ListTestimonials(r.Context())
	if err != nil {
		writeError(w, r, op, err)
		return
	}

	out := make([]Testimonial, len(ts))
	for i, t := range ts {
		out[i] = toTestimonial(t)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h AdminHandler) PostTestimonial(w http.ResponseWriter, r *http.Request) {
	const op = "AdminHandler.PostTestimonial"

	var in TestimonialInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, op, err)
		return
	}

	t, err := h.admin.CreateTestimonial(r.Context(), in.toDomain(0))
	if err != nil {
		writeError(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTestimonial(t))
}

func (h AdminHandler) PutTestimonial(w http.ResponseWriter, r *http.Request) {
	const op = "AdminHandler.PutTestimonial"

	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, op, err)
		return
	}

	var in TestimonialInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, op, err)
		return
	}

	t, err := h.admin.UpdateTestimonial(r.Context(), in.toDomain(id))
	if err != nil {
		writeError(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, toTestimonial(t))
}

func (h AdminHandler) DeleteTestimonial(w http.ResponseWriter, r *http.Request) {
	const op = "AdminHandler.DeleteTestimonial"

	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, op, err)
		return
	}

	if err := h.admin.DeleteTestimonial(r.Context(), id); err != nil {
		writeError(w, r, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h AdminHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	const op = "AdminHandler.GetSettings"

	s, err := h.admin.GetSettings(r.Context())
	if err != nil {
		writeError(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, toSettings(s))
}

func (h AdminHandler) PutSettings(w http.ResponseWriter, r *http.Request) {
	const op = "AdminHandler.PutSettings"

	var in SettingsInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, op, err)
		return
	}

	s, err := h.admin.ReplaceSettings(r.Context(), in.toDomain())
	if err != nil {
		writeError(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, toSettings(s))
}

func (h AdminHandler) GetOrders(w http.ResponseWriter, r *http.Request) {
	const op = "AdminHandler.GetOrders"

	var limit int
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, r, op, domain.NewValidationError("limit", "must be an integer"))
			return
		}
		limit = n
	}

	orders, err := h.admin.ListOrders(r.Context(), limit)
	if err != nil {
		writeError(w, r, op, err)
		return
	}

	out := make([]Order, len(orders))
	for i, o := range orders {
		out[i] = toOrder(o)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h AdminHandler) PostResendEmail(w http.ResponseWriter, r *http.Request) {
	const op = "AdminHandler.PostResendEmail"

	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, op, err)
		return
	}

	d, err := h.admin.ResendOrderEmail(r.Context(), id)
	if err != nil {
		writeError(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, toDelivery(d))
}

func (h AdminHandler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	const op = "AdminHandler.GetAnalytics"

	a, err := h.admin.Analytics(r.Context())
	if err != nil {
		writeError(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, toAnalytics(a))
}
