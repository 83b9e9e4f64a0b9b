/**
 * @description
 * Application service for KioskPay. It owns the business flows (capture,
 * refund, refill, maintenance, notifications) and talks to the store, the
 * payment gateway and the event bus through interfaces.
 */
package app

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kioskpay/kioskpay/internal/domain"
	"github.com/kioskpay/kioskpay/internal/store"
	"github.com/kioskpay/kioskpay/pkg/razorpay"
)

// Gateway is the payment checkout provider.
type Gateway interface {
	CreateOrder(ctx context.Context, amountPaise int64, currency, receipt string, notes map[string]string) (*razorpay.Order, error)
	VerifyPaymentSignature(orderID, paymentID, signature string) bool
	CheckoutOptions(order razorpay.Order, name, description string, prefill razorpay.Prefill) razorpay.CheckoutOptions
	KeyID() string
}

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	Publish(ctx context.Context, exchange, routingKey string, body interface{}) error
}

// RateLimiter counts attempts per subject inside a window.
type RateLimiter interface {
	ConsumeRateLimit(ctx context.Context, scope, subject string, limit int, window time.Duration) (count int, retryAfterSeconds int, err error)
	ResetRateLimit(ctx context.Context, scope, subject string) error
}

// Options are the tunables the service reads from configuration.
type Options struct {
	Splitter          domain.Splitter
	RefillPolicy      domain.RefillPolicy
	EventExchange     string
	AllowLegacyDigest bool
	LoginRateLimit    int
	LoginRateWindow   time.Duration
	PublicBaseURL     string
	BrandName         string
}

// Service implements the KioskPay use cases.
type Service struct {
	repo      store.Repository
	gateway   Gateway
	publisher EventPublisher
	limiter   RateLimiter
	logger    *slog.Logger
	opts      Options
	now       func() time.Time
}

// NewService wires the service. limiter may be nil.
func NewService(repo store.Repository, gateway Gateway, publisher EventPublisher, limiter RateLimiter, logger *slog.Logger, opts Options) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.RefillPolicy.PaymentLimit <= 0 {
		opts.RefillPolicy.PaymentLimit = domain.DefaultRefillPaymentLimit
	}
	if strings.TrimSpace(opts.EventExchange) == "" {
		opts.EventExchange = "kioskpay.events"
	}
	if strings.TrimSpace(opts.BrandName) == "" {
		opts.BrandName = "KioskPay"
	}
	opts.PublicBaseURL = strings.TrimRight(opts.PublicBaseURL, "/")
	return &Service{
		repo:      repo,
		gateway:   gateway,
		publisher: publisher,
		limiter:   limiter,
		logger:    logger,
		opts:      opts,
		now:       time.Now,
	}
}

// RefillPolicy exposes the active policy.
func (s *Service) RefillPolicy() domain.RefillPolicy {
	return s.opts.RefillPolicy
}

// publishEvent sends an event and only logs failures.
func (s *Service) publishEvent(ctx context.Context, routingKey string, body interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, s.opts.EventExchange, routingKey, body); err != nil {
		s.logger.Warn("failed to publish event", "routing_key", routingKey, "error", err)
	}
}

// kioskFor loads a kiosk the actor may see. Customers get ErrNotFound for
// kiosks they do not own.
func (s *Service) kioskFor(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Kiosk, error) {
	k, err := s.repo.GetKiosk(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanSeeCustomer(k.CustomerID) {
		return nil, store.ErrKioskNotFound
	}
	return k, nil
}

// scopeFilter restricts a list filter to the actor's own rows.
func scopeFilter(actor domain.Actor, filter store.Filter) store.Filter {
	if id, ok := actor.CustomerID(); ok {
		filter.CustomerID = &id
	}
	return filter
}

func requireAdmin(actor domain.Actor) error {
	if !actor.IsAdmin() {
		return domain.ErrForbidden
	}
	return nil
}
