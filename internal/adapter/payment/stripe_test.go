package payment_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/niksmo/digital-store/internal/adapter/payment"
	"github.com/niksmo/digital-store/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGateway(t *testing.T, h http.HandlerFunc) payment.StripeGateway {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return payment.NewStripeGateway(payment.StripeConfig{
		SecretKey: "sk_test_123",
		Timeout:   2 * time.Second,
		APIURL:    srv.URL,
	})
}

func TestCreateIntent(t *testing.T) {
	var form map[string][]string
	g := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/payment_intents", r.URL.Path)
		require.NoError(t, r.ParseForm())
		form = r.PostForm

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "pi_1",
			"object": "payment_intent",
			"amount": 5997,
			"currency": "mxn",
			"client_secret": "pi_1_secret_x",
			"status": "requires_payment_method"
		}`))
	})

	pi, err := g.CreateIntent(t.Context(), 5997, "mxn",
		map[string]string{"cart_id": "21"})
	require.NoError(t, err)

	assert.Equal(t, "pi_1", pi.ID)
	assert.Equal(t, "pi_1_secret_x", pi.ClientSecret)
	assert.Equal(t, int64(5997), pi.Amount)
	assert.False(t, pi.Succeeded)

	assert.Equal(t, []string{"5997"}, form["amount"])
	assert.Equal(t, []string{"mxn"}, form["currency"])
	assert.Equal(t, []string{"true"}, form["automatic_payment_methods[enabled]"])
	assert.Equal(t, []string{"21"}, form["metadata[cart_id]"])
}

func TestGetIntent(t *testing.T) {
	t.Run("Succeeded", func(t *testing.T) {
		g := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/v1/payment_intents/pi_2", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"id": "pi_2", "object": "payment_intent",
				"amount": 1999, "currency": "mxn", "status": "succeeded"
			}`))
		})

		pi, err := g.GetIntent(t.Context(), "pi_2")
		require.NoError(t, err)
		assert.True(t, pi.Succeeded)
		assert.Equal(t, int64(1999), pi.Amount)
	})

	t.Run("Missing", func(t *testing.T) {
		g := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error": {
				"type": "invalid_request_error",
				"code": "resource_missing",
				"message": "No such payment_intent: 'pi_x'"
			}}`))
		})

		_, err := g.GetIntent(t.Context(), "pi_x")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("ProcessorDown", func(t *testing.T) {
		g := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error": {"type": "api_error", "message": "boom"}}`))
		})

		_, err := g.GetIntent(t.Context(), "pi_3")
		require.ErrorIs(t, err, domain.ErrUpstream)
	})

	t.Run("CanceledContext", func(t *testing.T) {
		g := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("request must not be sent")
		})

		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		_, err := g.GetIntent(ctx, "pi_4")
		require.ErrorIs(t, err, context.Canceled)
	})
}
