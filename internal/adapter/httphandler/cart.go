package httphandler

import (
	"net/http"

	"github.com/niksmo/digital-store/internal/core/domain"
	"github.com/niksmo/digital-store/internal/core/port"
)

// GET /api/cart (200 OK)
// POST /api/cart/items, /api/cart JSON {"productId" int, "quantity" int?} (201 Created, 400, 404)
// PATCH, PUT /api/cart/items/{productId} JSON {"quantity" int} (200 OK, 400, 404)
// DELETE /api/cart/items/{productId} (200 OK)
// DELETE /api/cart/clear (204 No content)

type CartHandler struct {
	cart port.CartManager
}

func RegisterCart(
	mux *http.ServeMux, sessions SessionResolver, cart port.CartManager,
) {
	h := CartHandler{cart}
	mux.Handle("GET /api/cart", sessions.WrapFunc(h.GetCart))
	mux.Handle("POST /api/cart", sessions.WrapFunc(h.PostItem))
	mux.Handle("POST /api/cart/items", sessions.WrapFunc(h.PostItem))
	mux.Handle("PATCH /api/cart/items/{productId}", sessions.WrapFunc(h.PutItem))
	mux.Handle("PUT /api/cart/items/{productId}", sessions.WrapFunc(h.PutItem))
	mux.Handle("DELETE /api/cart/items/{productId}", sessions.WrapFunc(h.DeleteItem))
	mux.Handle("DELETE /api/cart/clear", sessions.WrapFunc(h.DeleteAll))
}

func (h CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.GetCart"

	sid, _ := sessionFromContext(r.Context())
	v, err := h.cart.View(r.Context(), sid)
	if err != nil {
		writeError(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartView(v))
}

func (h CartHandler) PostItem(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.PostItem"

	var in AddItemInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, op, err)
		return
	}

	quantity := 1
	if in.Quantity != nil {
		quantity = *in.Quantity
	}

	sid, _ := sessionFromContext(r.Context())
	item, err := h.cart.AddItem(r.Context(), sid, in.ProductID, quantity)
	if err != nil {
		writeError(w, r, op, err)
		return
	}

	requestLog(r, op).Info(
		"item added", "productID", item.ProductID, "quantity", item.Quantity,
	)
	writeJSON(w, http.StatusCreated, toCartItem(item))
}

func (h CartHandler) PutItem(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.PutItem"

	productID, err := pathID(r, "productId")
	if err != nil {
		writeError(w, r, op, err)
		return
	}

	var in SetQuantityInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, op, err)
		return
	}
	if in.Quantity == nil {
		writeError(w, r, op, domain.NewValidationError("quantity", "required"))
		return
	}

	sid, _ := sessionFromContext(r.Context())
	item, removed, err := h.cart.SetItemQuantity(
		r.Context(), sid, productID, *in.Quantity,
	)
	if err != nil {
		writeError(w, r, op, err)
		return
	}

	res := SetQuantityResult{Removed: removed}
	if !removed {
		ci := toCartItem(item)
		res.Item = &ci
	}
	writeJSON(w, http.StatusOK, res)
}

func (h CartHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.DeleteItem"

	productID, err := pathID(r, "productId")
	if err != nil {
		writeError(w, r, op, err)
		return
	}

	sid, _ := sessionFromContext(r.Context())
	removed, err := h.cart.RemoveItem(r.Context(), sid, productID)
	if err != nil {
		writeError(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, RemoveResult{removed})
}

func (h CartHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.DeleteAll"

	sid, _ := sessionFromContext(r.Context())
	if err := h.cart.Clear(r.Context(), sid); err != nil {
		writeError(w, r, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
