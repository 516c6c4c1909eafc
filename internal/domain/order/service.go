package order

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"
)

const instrumentationName = "github.com/xenking/shiptrack/internal/domain/order"

// Options tunes a Service. Zero values fall back to sensible defaults.
type Options struct {
	// PushReplica sends every new order to the invoices service before asking
	// for an invoice. Needed when each service keeps its own volatile store.
	PushReplica bool
	// SideEffectTimeout bounds each downstream call. Defaults to 5s.
	SideEffectTimeout time.Duration

	IDs            *IDGenerator
	Now            func() time.Time
	MeterProvider  metric.MeterProvider
	TracerProvider trace.TracerProvider
}

// CreateResult is the outcome of a successful create. The order is always
// stored; the invoice and notification outcomes are advisory.
type CreateResult struct {
	Order        *Order
	Invoice      InvoiceOutcome
	Notification NotificationOutcome
}

// Service owns order writes and fans out to the invoices and notifications
// services after each write.
type Service struct {
	orders   Repository
	invoices Invoicer
	notifier Notifier

	ids         *IDGenerator
	now         func() time.Time
	pushReplica bool
	timeout     time.Duration

	tracer      trace.Tracer
	sideEffects metric.Int64Counter

	detached sync.WaitGroup
}

// NewService creates an order Service with the required collaborators.
func NewService(
	orders Repository,
	invoices Invoicer,
	notifier Notifier,
	opts Options,
) (*Service, error) {
	if opts.SideEffectTimeout <= 0 {
		opts.SideEffectTimeout = 5 * time.Second
	}
	if opts.IDs == nil {
		opts.IDs = NewIDGenerator()
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	if opts.MeterProvider == nil {
		opts.MeterProvider = metricnoop.NewMeterProvider()
	}
	if opts.TracerProvider == nil {
		opts.TracerProvider = tracenoop.NewTracerProvider()
	}

	counter, err := opts.MeterProvider.Meter(instrumentationName).Int64Counter("orders.side_effects",
		metric.WithDescription("Best-effort downstream calls made after order writes"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create side effect counter")
	}

	return &Service{
		orders:      orders,
		invoices:    invoices,
		notifier:    notifier,
		ids:         opts.IDs,
		now:         opts.Now,
		pushReplica: opts.PushReplica,
		timeout:     opts.SideEffectTimeout,
		tracer:      opts.TracerProvider.Tracer(instrumentationName),
		sideEffects: counter,
	}, nil
}

// Create validates and stores a new order, then runs the invoice and
// notification side effects concurrently. Only a storage failure fails the
// call.
func (s *Service) Create(ctx context.Context, in Input) (*CreateResult, error) {
	if err := in.Validate(true); err != nil {
		return nil, err
	}

	o := in.newOrder(s.ids.Next(), s.now())
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	res := &CreateResult{Order: o}

	var g errgroup.Group
	g.Go(func() error {
		res.Invoice = s.invoice(ctx, o)
		return nil
	})
	g.Go(func() error {
		res.Notification = s.notify(ctx, o)
		return nil
	})
	_ = g.Wait()

	return res, nil
}

// Get returns a single order.
func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "get order")
	}
	return o, nil
}

// List returns every order.
func (s *Service) List(ctx context.Context) ([]Order, error) {
	orders, err := s.orders.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	return orders, nil
}

// ListByStatus returns orders in the given status. Unknown literals are
// rejected with ErrInvalidStatus.
func (s *Service) ListByStatus(ctx context.Context, raw string) ([]Order, error) {
	status, err := ParseStatus(raw)
	if err != nil {
		return nil, err
	}
	orders, err := s.orders.ListByStatus(ctx, status)
	if err != nil {
		return nil, errors.Wrap(err, "list orders by status")
	}
	return orders, nil
}

// ListByEmail returns the customer's orders, matching the address
// case-insensitively.
func (s *Service) ListByEmail(ctx context.Context, email string) ([]Order, error) {
	orders, err := s.orders.ListByEmail(ctx, email)
	if err != nil {
		return nil, errors.Wrap(err, "list orders by email")
	}
	return orders, nil
}

// Update replaces the order's fields with in and recomputes its totals. A
// status change notifies the customer after the write.
func (s *Service) Update(ctx context.Context, id string, in Input) (*Order, error) {
	if err := in.Validate(false); err != nil {
		return nil, err
	}

	var prev Status
	p := in.patch()
	p.OnApply = func(st Status) { prev = st }

	updated, err := s.orders.Update(ctx, id, p)
	if err != nil {
		return nil, errors.Wrap(err, "update order")
	}

	if updated.Status != prev {
		s.notifyDetached(ctx, updated)
	}
	return updated, nil
}

// UpdateStatus changes only the status and notifies the customer after the
// write.
func (s *Service) UpdateStatus(ctx context.Context, id, raw string) (*Order, error) {
	status, err := ParseStatus(raw)
	if err != nil {
		return nil, err
	}

	updated, err := s.orders.Update(ctx, id, StatusPatch(status))
	if err != nil {
		return nil, errors.Wrap(err, "update order status")
	}

	s.notifyDetached(ctx, updated)
	return updated, nil
}

// Delete removes the order and returns the removed snapshot.
func (s *Service) Delete(ctx context.Context, id string) (*Order, error) {
	o, err := s.orders.Delete(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "delete order")
	}
	return o, nil
}

// GenerateInvoice asks the invoices service for an invoice on demand. Unlike
// the create path, a failure here is returned to the caller.
func (s *Service) GenerateInvoice(ctx context.Context, id string) (*InvoiceReceipt, error) {
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "get order")
	}

	outcome := s.invoice(ctx, o)
	if !outcome.Generated {
		return nil, errors.Errorf("generate invoice: %s", outcome.Error)
	}
	return outcome.Details, nil
}

// Wait blocks until detached notifications have finished.
func (s *Service) Wait() {
	s.detached.Wait()
}
