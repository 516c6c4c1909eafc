// Package app wires configuration, storage, domain services and HTTP for
// each service binary.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/xenking/shiptrack/internal/artifact"
	"github.com/xenking/shiptrack/internal/client"
	"github.com/xenking/shiptrack/internal/domain/invoice"
	"github.com/xenking/shiptrack/internal/domain/notification"
	"github.com/xenking/shiptrack/internal/domain/order"
	"github.com/xenking/shiptrack/internal/domain/verification"
	"github.com/xenking/shiptrack/internal/handler"
	"github.com/xenking/shiptrack/internal/mail"
	"github.com/xenking/shiptrack/internal/storage/memory"
	"github.com/xenking/shiptrack/internal/storage/postgres"
	"github.com/xenking/shiptrack/pkg/health"
	"github.com/xenking/shiptrack/pkg/httpmiddleware"
)

// orderStore is what both storage backends provide for orders.
type orderStore interface {
	order.Repository
	Save(ctx context.Context, o *order.Order) error
}

// base holds the shared pieces every service needs.
type base struct {
	lg     *zap.Logger
	m      *app.Telemetry
	cfg    *Config
	svc    Service
	pool   *pgxpool.Pool
	health *health.Health
}

func newRuntime(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config, svc Service) (*base, error) {
	lg.Info("Initializing",
		zap.String("service", string(svc)),
		zap.String("addr", cfg.Addr),
		zap.String("storage", cfg.Storage.Mode),
		zap.String("environment", cfg.Environment),
	)

	rt := &base{
		lg:     lg,
		m:      m,
		cfg:    cfg,
		svc:    svc,
		health: health.New(health.Info{Environment: cfg.Environment, Storage: cfg.Storage.Mode}),
	}
	rt.health.AddLivenessCheck("runtime", time.Second, health.RuntimeCheck(10000, 0))

	if cfg.Storage.Mode == StoragePostgres {
		pool, err := postgres.NewPool(ctx, cfg.Storage.DatabaseURL)
		if err != nil {
			return nil, errors.Wrap(err, "create db pool")
		}
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, errors.Wrap(err, "run migrations")
		}
		rt.pool = pool
		rt.health.AddReadinessCheck("postgres", 5*time.Second, health.PingCheck(pool))
	}
	return rt, nil
}

func (rt *base) close() {
	if rt.pool != nil {
		rt.pool.Close()
	}
}

func (rt *base) orders() orderStore {
	if rt.pool != nil {
		return postgres.NewOrderRepository(rt.pool)
	}
	return memory.NewOrderRepository()
}

func (rt *base) artifacts() (artifact.Store, error) {
	if rt.pool != nil {
		signer := artifact.NewSigner(rt.cfg.PublicURL, []byte(rt.cfg.SigningKey), rt.cfg.URLTTL)
		return postgres.NewArtifactStore(rt.pool, signer), nil
	}
	return artifact.NewDiskStore(rt.cfg.ExportDir, rt.cfg.PublicURL)
}

func (rt *base) mailer() (mail.Mailer, error) {
	mc := rt.cfg.Mail
	var m mail.Mailer = mail.LogMailer{}
	if mc.Mode == MailSMTP {
		smtp, err := mail.NewSMTPMailer(mail.SMTPConfig{
			Host:     mc.Host,
			Port:     mc.Port,
			Username: mc.Username,
			Password: mc.Password,
			From:     mc.From,
			Timeout:  mc.Timeout,
		})
		if err != nil {
			return nil, err
		}
		m = smtp
	}
	if mc.SandboxRecipient != "" {
		rt.lg.Info("Mail sandbox enabled", zap.String("recipient", mc.SandboxRecipient))
		m = &mail.Sandbox{Next: m, Recipient: mc.SandboxRecipient}
	}
	return m, nil
}

// RunOrders serves the orders API.
func RunOrders(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	rt, err := newRuntime(ctx, lg, m, cfg, Orders)
	if err != nil {
		return err
	}
	defer rt.close()

	store := rt.orders()
	ids := order.NewIDGenerator()
	existing, err := store.List(ctx)
	if err != nil {
		return errors.Wrap(err, "load order ids")
	}
	for _, o := range existing {
		ids.Seed(o.ID)
	}

	clientOpts := client.Options{
		Timeout:        cfg.SideEffectTimeout,
		TracerProvider: m.TracerProvider(),
	}
	svc, err := order.NewService(store,
		client.NewInvoices(cfg.InvoicesURL, clientOpts),
		client.NewNotifications(cfg.NotificationsURL, clientOpts),
		order.Options{
			PushReplica:       cfg.pushReplica(),
			SideEffectTimeout: cfg.SideEffectTimeout,
			IDs:               ids,
			MeterProvider:     m.MeterProvider(),
			TracerProvider:    m.TracerProvider(),
		},
	)
	if err != nil {
		return errors.Wrap(err, "create order service")
	}
	defer svc.Wait()

	lg.Info("Downstream services",
		zap.String("invoices", cfg.InvoicesURL),
		zap.String("notifications", cfg.NotificationsURL),
		zap.Bool("push_replica", cfg.pushReplica()),
	)
	return rt.serve(ctx, handler.NewOrders(svc))
}

// RunInvoices serves the invoices API.
func RunInvoices(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	rt, err := newRuntime(ctx, lg, m, cfg, Invoices)
	if err != nil {
		return err
	}
	defer rt.close()

	artifacts, err := rt.artifacts()
	if err != nil {
		return errors.Wrap(err, "create artifact store")
	}
	mailer, err := rt.mailer()
	if err != nil {
		return errors.Wrap(err, "create mailer")
	}

	svc := invoice.NewService(rt.orders(), invoice.NewPDFRenderer(cfg.Company), artifacts, mailer, cfg.Company)
	return rt.serve(ctx, handler.NewInvoices(svc, artifacts))
}

// RunNotifications serves the notifications API.
func RunNotifications(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	rt, err := newRuntime(ctx, lg, m, cfg, Notifications)
	if err != nil {
		return err
	}
	defer rt.close()

	mailer, err := rt.mailer()
	if err != nil {
		return errors.Wrap(err, "create mailer")
	}
	return rt.serve(ctx, handler.NewNotifications(notification.NewService(mailer), cfg.Mail.TestEmail))
}

// RunVerification serves the delivery verification API.
func RunVerification(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	rt, err := newRuntime(ctx, lg, m, cfg, Verification)
	if err != nil {
		return err
	}
	defer rt.close()

	artifacts, err := rt.artifacts()
	if err != nil {
		return errors.Wrap(err, "create artifact store")
	}
	svc := verification.NewService(memory.NewVerificationRepository(), artifacts)
	return rt.serve(ctx, handler.NewVerification(svc, artifacts))
}

// serve runs the HTTP server until ctx is cancelled, then drains: readiness
// goes false, the server waits ReadinessDelay and shuts down within
// ShutdownTimeout.
func (rt *base) serve(ctx context.Context, routes handler.Registrar) error {
	cfg, lg := rt.cfg, rt.lg

	gin.SetMode(gin.ReleaseMode)
	router := handler.NewRouter(rt.health, routes)

	rt.health.Start(ctx, 10*time.Second)
	rt.health.SetReady(true)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(router,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				Origins:          cfg.CORS.Origins,
				Headers:          []string{"Content-Type", httpmiddleware.HeaderRequestID},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Instrument("shiptrack-"+string(rt.svc), rt.m.TracerProvider(), rt.m.MeterProvider()),
			httpmiddleware.LogRequests(),
		),
	}

	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		rt.health.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		rt.health.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
