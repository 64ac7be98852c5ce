package httphandler

import (
	"net/http"

	"github.com/niksmo/digital-store/internal/core/port"
)

// POST /api/checkout JSON {"email" string?} (200 OK, 400 Bad request, 502 Bad gateway)
// POST /api/checkout/confirm JSON {"paymentIntentId" string, "email" string} (200 OK, 404, 409)
// POST /api/send-download-email JSON {"orderId" int, "paymentIntentId" string, "email" string?} (200 OK, 400, 404, 409)

type CheckoutHandler struct {
	checkout  port.Checkouter
	downloads port.PurchaseDownloader
}

func RegisterCheckout(
	mux *http.ServeMux,
	sessions SessionResolver,
	checkout port.Checkouter,
	downloads port.PurchaseDownloader,
) {
	h := CheckoutHandler{checkout, downloads}
	mux.Handle("POST /api/checkout", sessions.WrapFunc(h.PostCheckout))
	mux.Handle("POST /api/checkout/confirm", sessions.WrapFunc(h.PostConfirm))
	mux.HandleFunc("POST /api/send-download-email", h.PostDownloadEmail)
}

func (h CheckoutHandler) PostCheckout(w http.ResponseWriter, r *http.Request) {
	const op = "CheckoutHandler.PostCheckout"

	var in CheckoutInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, op, err)
		return
	}

	sid, _ := sessionFromContext(r.Context())
	res, err := h.checkout.CreatePaymentIntent(r.Context(), sid, in.Email)
	if err != nil {
		writeError(w, r, op, err)
		return
	}

	requestLog(r, op).Info(
		"payment intent created",
		"orderID", res.OrderID, "amount", res.Amount, "nItems", res.ItemsCharged,
	)
	writeJSON(w, http.StatusOK, CheckoutResult{
		ClientSecret:    res.Intent.ClientSecret,
		PaymentIntentID: res.Intent.ID,
		OrderID:         res.OrderID,
		Amount:          res.Amount,
		Currency:        res.Currency,
	})
}

func (h CheckoutHandler) PostConfirm(w http.ResponseWriter, r *http.Request) {
	const op = "CheckoutHandler.PostConfirm"

	var in ConfirmInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, op, err)
		return
	}

	sid, _ := sessionFromContext(r.Context())
	c, err := h.checkout.ConfirmPayment(
		r.Context(), sid, in.PaymentIntentID, in.Email,
	)
	if err != nil {
		writeError(w, r, op, err)
		return
	}

	writeJSON(w, http.StatusOK, ConfirmResult{
		Order:        toOrder(c.Order),
		Notification: string(c.Notification),
	})
}

func (h CheckoutHandler) PostDownloadEmail(w http.ResponseWriter, r *http.Request) {
	const op = "CheckoutHandler.PostDownloadEmail"

	var in DownloadEmailInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, op, err)
		return
	}

	d, err := h.downloads.SendOrderDownloads(
		r.Context(), in.OrderID, in.PaymentIntentID, in.Email,
	)
	if err != nil {
		writeError(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, toDeliveryReceipt(d))
}
