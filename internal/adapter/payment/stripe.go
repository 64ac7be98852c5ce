package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/niksmo/digital-store/internal/core/domain"
	"github.com/niksmo/digital-store/internal/core/port"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

var _ port.PaymentGateway = (*StripeGateway)(nil)

const defaultTimeout = 10 * time.Second

type StripeConfig struct {
	SecretKey  string
	Timeout    time.Duration
	MaxRetries int64

	// APIURL overrides the processor endpoint, e.g. for stripe-mock.
	APIURL string
}

type StripeGateway struct {
	sc *client.API
}

func NewStripeGateway(cfg StripeConfig) StripeGateway {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	backendCfg := &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: cfg.Timeout},
		LeveledLogger:     slogLogger{slog.With("op", "StripeGateway")},
		MaxNetworkRetries: stripe.Int64(cfg.MaxRetries),
	}
	if cfg.APIURL != "" {
		backendCfg.URL = stripe.String(cfg.APIURL)
	}

	sc := &client.API{}
	sc.Init(cfg.SecretKey, &stripe.Backends{
		API:     stripe.GetBackendWithConfig(stripe.APIBackend, backendCfg),
		Connect: stripe.GetBackendWithConfig(stripe.ConnectBackend, backendCfg),
		Uploads: stripe.GetBackendWithConfig(stripe.UploadsBackend, backendCfg),
	})
	return StripeGateway{sc}
}

func (g StripeGateway) CreateIntent(
	ctx context.Context, amount int64, currency string, metadata map[string]string,
) (domain.PaymentIntent, error) {
	const op = "StripeGateway.CreateIntent"
	log := slog.With("op", op)

	if err := ctx.Err(); err != nil {
		return domain.PaymentIntent{}, fmt.Errorf("%s: %w", op, err)
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	pi, err := g.sc.PaymentIntents.New(params)
	if err != nil {
		return domain.PaymentIntent{}, fmt.Errorf("%s: %w", op, translateErr(ctx, err))
	}

	log.Info("payment intent created", "paymentIntentID", pi.ID, "amount", pi.Amount)
	return toDomain(pi), nil
}

func (g StripeGateway) GetIntent(
	ctx context.Context, id string,
) (domain.PaymentIntent, error) {
	const op = "StripeGateway.GetIntent"

	if err := ctx.Err(); err != nil {
		return domain.PaymentIntent{}, fmt.Errorf("%s: %w", op, err)
	}

	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := g.sc.PaymentIntents.Get(id, params)
	if err != nil {
		return domain.PaymentIntent{}, fmt.Errorf("%s: %w", op, translateErr(ctx, err))
	}
	return toDomain(pi), nil
}

func toDomain(pi *stripe.PaymentIntent) domain.PaymentIntent {
	return domain.PaymentIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		Succeeded:    pi.Status == stripe.PaymentIntentStatusSucceeded,
	}
}

func translateErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %w", ctxErr, err)
	}

	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		if stripeErr.Code == stripe.ErrorCodeResourceMissing {
			return fmt.Errorf("%w: %s", domain.ErrNotFound, stripeErr.Msg)
		}
	}
	return fmt.Errorf("%w: %w", domain.ErrUpstream, err)
}

// slogLogger routes the stripe client's own logging into slog.
type slogLogger struct {
	log *slog.Logger
}

func (l slogLogger) Debugf(format string, v ...any) {
	l.log.Debug(fmt.Sprintf(format, v...))
}

func (l slogLogger) Infof(format string, v ...any) {
	l.log.Debug(fmt.Sprintf(format, v...))
}

func (l slogLogger) Warnf(format string, v ...any) {
	l.log.Warn(fmt.Sprintf(format, v...))
}

func (l slogLogger) Errorf(format string, v ...any) {
	l.log.Error(fmt.Sprintf(format, v...))
}
