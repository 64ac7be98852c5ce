package httphandler

import (
	"context"
	"net/http"
	"time"

	"github.com/niksmo/digital-store/internal/core/port"
)

const pingTimeout = time.Second

// GET /healthz (200 OK, 503 Service unavailable)

type Pinger interface {
	Ping(ctx context.Context, timeout time.Duration) error
}

type HealthHandler struct {
	db Pinger
}

func RegisterHealth(mux *http.ServeMux, db Pinger) {
	h := HealthHandler{db}
	mux.HandleFunc("GET /healthz", h.GetHealth)
}

func (h HealthHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	const op = "HealthHandler.GetHealth"

	if err := h.db.Ping(r.Context(), pingTimeout); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
		})
		requestLog(r, op).Error("database is unreachable", "err", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /api/products?category=name (200 OK)
// GET /api/products/{id} (200 OK, 404 Not found)
// GET /api/products/type/{type} (200 OK, 400 Bad request)
// GET /api/testimonials (200 OK)
// GET /api/settings (200 OK)

type CatalogHandler struct {
	catalog port.CatalogReader
	site    port.AdminManager
}

func RegisterCatalog(
	mux *http.ServeMux, catalog port.CatalogReader, site port.AdminManager,
) {
	h := CatalogHandler{catalog, site}
	mux.HandleFunc("GET /api/products", h.GetProducts)
	mux.HandleFunc("GET /api/products/{id}", h.GetProduct)
	mux.HandleFunc("GET /api/products/type/{type}", h.GetProductsByType)
	mux.HandleFunc("GET /api/testimonials", h.GetTestimonials)
	mux.HandleFunc("GET /api/settings", h.GetSettings)
}

func (h CatalogHandler) GetProducts(w http.ResponseWriter, r *http.Request) {
	const op = "CatalogHandler.GetProducts"

	ps, err := h.catalog.ListProducts(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		writeError(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, toProducts(ps, false))
}

func (h CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	const op = "CatalogHandler.GetProduct"

	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, op, err)
		return
	}

	p, err := h.catalog.GetProduct(r.Context(), id)
	if err != nil {
		writeError(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, toProduct(p, false))
}

func (h CatalogHandler) GetProductsByType(w http.ResponseWriter, r *http.Request) {
	const op = "CatalogHandler.GetProductsByType"

	ps, err := h.catalog.ListProductsByType(r.Context(), r.PathValue("type"))
	if err != nil {
		writeError(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, toProducts(ps, false))
}

func (h CatalogHandler) GetTestimonials(w http.ResponseWriter, r *http.Request) {
	const op = "CatalogHandler.GetTestimonials"

	ts, err := h.site.ListTestimonials(r.Context())
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

func (h CatalogHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	const op = "CatalogHandler.GetSettings"

	s, err := h.site.GetSettings(r.Context())
	if err != nil {
		writeError(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, toSettings(s))
}
