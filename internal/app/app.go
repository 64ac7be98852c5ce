package app

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/niksmo/digital-store/config"
	"github.com/niksmo/digital-store/internal/adapter"
	"github.com/niksmo/digital-store/internal/adapter/httphandler"
	"github.com/niksmo/digital-store/internal/adapter/kafka"
	"github.com/niksmo/digital-store/internal/adapter/mailer"
	"github.com/niksmo/digital-store/internal/adapter/payment"
	"github.com/niksmo/digital-store/internal/adapter/storage"
	"github.com/niksmo/digital-store/internal/core/service"
	"github.com/niksmo/digital-store/pkg/retry"
	"github.com/niksmo/digital-store/pkg/schema"
)

const (
	registryTimeout = 10 * time.Second
	sendBackoff     = 500 * time.Millisecond
)

type repositories struct {
	products     storage.ProductsRepository
	carts        storage.CartsRepository
	orders       storage.OrdersRepository
	testimonials storage.TestimonialsRepository
	settings     storage.SettingsRepository
	analytics    storage.AnalyticsRepository
}

type coreService struct {
	catalog     service.CatalogService
	cart        service.CartService
	checkout    service.CheckoutService
	fulfillment service.FulfillmentService
	admin       service.AdminService
	auth        service.AuthService
}

type App struct {
	ctx       context.Context
	cfg       config.Config
	tlsConfig *tls.Config

	sqldb        storage.SQLDB
	repositories repositories
	orderPaid    schema.Serde

	producer   kafka.OrderPaidProducer
	payments   payment.StripeGateway
	mail       mailer.SMTPSender
	salesProc  *kafka.ProductSalesProcessor
	salesView  *kafka.ProductSalesView
	consumer   kafka.FulfillmentConsumer
	service    coreService
	httpServer httphandler.HTTPServer
}

func New(ctx context.Context, cfg config.Config) *App {
	app := &App{ctx: ctx, cfg: cfg}

	app.initLogger()
	app.initTLS()
	app.initStorage()
	app.initSerdes()
	app.initOutboundAdapters()
	app.initSales()
	app.initCoreService()
	app.initConsumer()
	app.initInboundAdapters()

	return app
}

func (app *App) initLogger() {
	opts := &slog.HandlerOptions{Level: app.cfg.LogLevel}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, opts))
	slog.SetDefault(logger)
}

func (app *App) initTLS() {
	const op = "App.initTLS"

	t := app.cfg.Broker.TLS
	if !t.Enabled() {
		return
	}

	tlsConfig, err := adapter.MakeTLSConfig(t.CA, t.Cert, t.Key)
	if err != nil {
		app.fallDown(op, err)
	}
	kafka.UseTLS(tlsConfig)
	app.tlsConfig = tlsConfig
}

func (app *App) initStorage() {
	const op = "App.initStorage"

	sqldb, err := storage.NewSQLDB(app.ctx, app.cfg.SQLDB)
	if err != nil {
		app.fallDown(op, err)
	}

	timeout := app.cfg.SQLTimeout
	app.sqldb = sqldb
	app.repositories = repositories{
		products:     storage.NewProductsRepository(sqldb, timeout),
		carts:        storage.NewCartsRepository(sqldb, timeout),
		orders:       storage.NewOrdersRepository(sqldb, timeout),
		testimonials: storage.NewTestimonialsRepository(sqldb, timeout),
		settings:     storage.NewSettingsRepository(sqldb, timeout),
		analytics:    storage.NewAnalyticsRepository(sqldb, timeout),
	}
}

func (app *App) initSerdes() {
	const op = "App.initSerdes"

	identifier, err := schema.NewRegistryIdentifier(
		app.cfg.Broker.SchemaRegistryURLs, app.tlsConfig, registryTimeout,
	)
	if err != nil {
		app.fallDown(op, err)
	}

	orderPaidSubject := app.cfg.Broker.Topics.OrdersPaid + "-value"
	orderPaidSerde, err := schema.NewSerdeOrderPaidV1(
		app.ctx,
		schema.SubjectOpt(orderPaidSubject),
		schema.SchemaIdentifierOpt(identifier),
	)
	if err != nil {
		app.fallDown(op, err)
	}

	app.orderPaid = orderPaidSerde
}

func (app *App) initOutboundAdapters() {
	const op = "App.initOutboundAdapters"

	producer, err := kafka.NewOrderPaidProducer(
		kafka.ProducerClientOpt(
			app.ctx,
			app.cfg.Broker.SeedBrokers,
			app.cfg.Broker.Topics.OrdersPaid,
			app.tlsConfig,
		),
		kafka.ProducerEncoderOpt(app.orderPaid),
	)
	if err != nil {
		app.fallDown(op, err)
	}

	mail, err := mailer.NewSMTPSender(mailer.Config{
		Host:     app.cfg.Mail.Host,
		Port:     app.cfg.Mail.Port,
		Username: app.cfg.Mail.Username,
		Password: app.cfg.Mail.Password,
		From:     app.cfg.Mail.From,
		Timeout:  app.cfg.Mail.Timeout,
		Insecure: app.cfg.Mail.Insecure,
	})
	if err != nil {
		app.fallDown(op, err)
	}

	app.producer = producer
	app.mail = mail
	app.payments = payment.NewStripeGateway(payment.StripeConfig{
		SecretKey:  app.cfg.Payment.SecretKey,
		Timeout:    app.cfg.Payment.Timeout,
		MaxRetries: app.cfg.Payment.MaxRetries,
		APIURL:     app.cfg.Payment.APIURL,
	})
}

func (app *App) initSales() {
	const op = "App.initSales"

	seedBrokers := app.cfg.Broker.SeedBrokers
	group := app.cfg.Broker.Consumers.SalesGroup

	proc, err := kafka.NewProductSalesProc(
		seedBrokers, app.cfg.Broker.Topics.OrdersPaid, group, app.orderPaid,
	)
	if err != nil {
		app.fallDown(op, err)
	}

	view, err := kafka.NewProductSalesView(seedBrokers, group)
	if err != nil {
		app.fallDown(op, err)
	}

	app.salesProc = proc
	app.salesView = view
}

func (app *App) initCoreService() {
	r := app.repositories

	fulfillment := service.NewFulfillmentService(
		r.products, r.orders, app.mail,
		service.FulfillmentConfig{
			SendAttempts: app.cfg.Mail.MaxAttempts,
			SendBackoff:  retry.ExponentialBackoff(sendBackoff),
		},
	)

	app.service = coreService{
		catalog: service.NewCatalogService(r.products),
		cart:    service.NewCartService(r.carts),
		checkout: service.NewCheckoutService(
			r.carts, r.orders, app.payments, app.producer,
		),
		fulfillment: fulfillment,
		admin: service.NewAdminService(
			r.testimonials, r.settings, r.orders, r.analytics,
			app.salesView, fulfillment,
		),
		auth: service.NewAuthService(
			app.cfg.Admin.PasswordHash,
			app.cfg.Session.Secret,
			app.cfg.Admin.TokenTTL,
		),
	}
}

func (app *App) initConsumer() {
	const op = "App.initConsumer"

	consumer, err := kafka.NewFulfillmentConsumer(
		kafka.ConsumerClientOpt(
			app.cfg.Broker.SeedBrokers,
			app.cfg.Broker.Topics.OrdersPaid,
			app.cfg.Broker.Consumers.FulfillmentGroup,
			app.tlsConfig,
		),
		kafka.ConsumerDecoderOpt(app.orderPaid),
		kafka.OrderPaidHandlerOpt(app.service.fulfillment),
	)
	if err != nil {
		app.fallDown(op, err)
	}
	app.consumer = consumer
}

func (app *App) initInboundAdapters() {
	s := app.service
	sessions := httphandler.NewSessionResolver(
		app.cfg.Session.Secret, app.cfg.Session.TTL, app.cfg.Session.Secure,
	)

	mux := http.NewServeMux()
	httphandler.RegisterHealth(mux, app.sqldb)
	httphandler.RegisterCatalog(mux, s.catalog, s.admin)
	httphandler.RegisterCart(mux, sessions, s.cart)
	httphandler.RegisterCheckout(mux, sessions, s.checkout, s.fulfillment)
	httphandler.RegisterAdmin(mux, s.auth, s.catalog, s.admin)

	app.httpServer = httphandler.NewHTTPServer(
		app.cfg.HTTPServerAddr, mux, app.cfg.HTTPTimeout,
	)
}

func (app *App) Run(stopFn context.CancelFunc) {
	go app.httpServer.Run(stopFn)
	go app.consumer.Run(app.ctx)
	go app.salesView.Run(app.ctx)

	var wg sync.WaitGroup
	wg.Add(1)
	app.salesProc.Run(app.ctx, stopFn, &wg)
	wg.Wait()

	slog.Info("application is running")
}

func (app *App) Close(ctx context.Context) {
	slog.Info("application is closing...")

	app.httpServer.Close(ctx)
	app.consumer.Close()
	app.salesProc.Close()
	app.producer.Close()
	app.sqldb.Close()

	slog.Info("application is closed")
}

func (app *App) fallDown(op string, err error) {
	panic(fmt.Errorf("%s: %w", op, err))
}
