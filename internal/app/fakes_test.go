package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kioskpay/kioskpay/internal/domain"
	"github.com/kioskpay/kioskpay/internal/store"
	"github.com/kioskpay/kioskpay/pkg/razorpay"
	"github.com/shopspring/decimal"
)

// memoryRepo keeps rows in maps. Methods not overridden panic through the
// embedded nil interface.
type memoryRepo struct {
	store.Repository

	mu            sync.Mutex
	accounts      []domain.Account
	customers     map[uuid.UUID]*domain.Customer
	kiosks        map[uuid.UUID]*domain.Kiosk
	payments      map[uuid.UUID]*domain.Payment
	maintenance   map[uuid.UUID]*domain.MaintenanceRequest
	refills       map[uuid.UUID]*domain.RefillRequest
	refundTickets map[uuid.UUID]*domain.RefundTicket
	notifications []domain.Notification
	updatedHashes map[uuid.UUID]string

	listKiosksErr   error
	listPaymentsErr error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		customers:     map[uuid.UUID]*domain.Customer{},
		kiosks:        map[uuid.UUID]*domain.Kiosk{},
		payments:      map[uuid.UUID]*domain.Payment{},
		maintenance:   map[uuid.UUID]*domain.MaintenanceRequest{},
		refills:       map[uuid.UUID]*domain.RefillRequest{},
		refundTickets: map[uuid.UUID]*domain.RefundTicket{},
		updatedHashes: map[uuid.UUID]string{},
	}
}

func (r *memoryRepo) FindAccountsByEmail(ctx context.Context, kind domain.AccountKind, email string) ([]domain.Account, error) {
	var out []domain.Account
	for _, a := range r.accounts {
		if a.Kind == kind && a.Email == email {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memoryRepo) UpdatePasswordHash(ctx context.Context, kind domain.AccountKind, id uuid.UUID, hash string) error {
	r.updatedHashes[id] = hash
	return nil
}

func (r *memoryRepo) CreateCustomer(ctx context.Context, c *domain.Customer) error {
	for _, existing := range r.customers {
		if existing.Email == c.Email {
			return domain.ErrConflict
		}
	}
	cp := *c
	r.customers[c.ID] = &cp
	return nil
}

func (r *memoryRepo) GetCustomer(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	c, ok := r.customers[id]
	if !ok {
		return nil, store.ErrCustomerNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *memoryRepo) CreateKiosk(ctx context.Context, k *domain.Kiosk) error {
	cp := *k
	r.kiosks[k.ID] = &cp
	return nil
}

func (r *memoryRepo) GetKiosk(ctx context.Context, id uuid.UUID) (*domain.Kiosk, error) {
	k, ok := r.kiosks[id]
	if !ok {
		return nil, store.ErrKioskNotFound
	}
	cp := *k
	return &cp, nil
}

func (r *memoryRepo) ListKiosks(ctx context.Context, filter store.Filter) ([]domain.Kiosk, error) {
	if r.listKiosksErr != nil {
		return nil, r.listKiosksErr
	}
	out := []domain.Kiosk{}
	for _, k := range r.kiosks {
		if filter.CustomerID != nil && !k.OwnedBy(*filter.CustomerID) {
			continue
		}
		out = append(out, *k)
	}
	return out, nil
}

func (r *memoryRepo) UpdateKiosk(ctx context.Context, id uuid.UUID, mutate func(*domain.Kiosk) error) (*domain.Kiosk, error) {
	k, err := r.GetKiosk(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := mutate(k); err != nil {
		return nil, err
	}
	r.kiosks[id] = k
	cp := *k
	return &cp, nil
}

func (r *memoryRepo) CreatePayment(ctx context.Context, p *domain.Payment) error {
	cp := *p
	r.payments[p.ID] = &cp
	return nil
}

func (r *memoryRepo) CapturePayment(ctx context.Context, p *domain.Payment, credit func(*domain.Kiosk) error) (*domain.Kiosk, error) {
	for _, existing := range r.payments {
		if existing.GatewayPaymentID == p.GatewayPaymentID && existing.Status != domain.PaymentFailed {
			return nil, domain.ErrConflict
		}
	}
	k, err := r.UpdateKiosk(ctx, p.KioskID, credit)
	if err != nil {
		return nil, err
	}
	cp := *p
	r.payments[p.ID] = &cp
	return k, nil
}

func (r *memoryRepo) GetPayment(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	p, ok := r.payments[id]
	if !ok {
		return nil, store.ErrPaymentNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *memoryRepo) FindCompletedPaymentByGatewayID(ctx context.Context, gatewayPaymentID string) (*domain.Payment, error) {
	for _, p := range r.payments {
		if p.GatewayPaymentID == gatewayPaymentID && p.Status != domain.PaymentFailed {
			cp := *p
			return &cp, nil
		}
	}
	return nil, store.ErrPaymentNotFound
}

func (r *memoryRepo) ListPayments(ctx context.Context, filter store.Filter) ([]domain.Payment, error) {
	if r.listPaymentsErr != nil {
		return nil, r.listPaymentsErr
	}
	out := []domain.Payment{}
	for _, p := range r.payments {
		if filter.KioskID != nil && p.KioskID != *filter.KioskID {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (r *memoryRepo) RefundPayment(ctx context.Context, id uuid.UUID, refund func(*domain.Payment, *domain.Kiosk) error) (*domain.Payment, *domain.Kiosk, error) {
	p, err := r.GetPayment(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	k, err := r.GetKiosk(ctx, p.KioskID)
	if err != nil {
		return nil, nil, err
	}
	if err := refund(p, k); err != nil {
		return nil, nil, err
	}
	r.payments[id] = p
	r.kiosks[k.ID] = k
	return p, k, nil
}

func (r *memoryRepo) CreateMaintenanceRequest(ctx context.Context, m *domain.MaintenanceRequest) error {
	cp := *m
	r.maintenance[m.ID] = &cp
	return nil
}

func (r *memoryRepo) ListMaintenanceRequests(ctx context.Context, filter store.Filter) ([]domain.MaintenanceRequest, error) {
	out := []domain.MaintenanceRequest{}
	for _, m := range r.maintenance {
		if filter.Status != "" && string(m.Status) != filter.Status {
			continue
		}
		out = append(out, *m)
	}
	return out, nil
}

func (r *memoryRepo) UpdateMaintenanceRequest(ctx context.Context, id uuid.UUID, mutate func(*domain.MaintenanceRequest, *domain.Kiosk) error) (*domain.MaintenanceRequest, *domain.Kiosk, error) {
	m, ok := r.maintenance[id]
	if !ok {
		return nil, nil, store.ErrMaintenanceNotFound
	}
	req := *m
	k, err := r.GetKiosk(ctx, req.KioskID)
	if err != nil {
		return nil, nil, err
	}
	if err := mutate(&req, k); err != nil {
		return nil, nil, err
	}
	r.maintenance[id] = &req
	r.kiosks[k.ID] = k
	return &req, k, nil
}

func (r *memoryRepo) CreateRefillRequest(ctx context.Context, rr *domain.RefillRequest) error {
	cp := *rr
	r.refills[rr.ID] = &cp
	return nil
}

func (r *memoryRepo) ListRefillRequests(ctx context.Context, filter store.Filter) ([]domain.RefillRequest, error) {
	out := []domain.RefillRequest{}
	for _, rr := range r.refills {
		if filter.Status != "" && string(rr.Status) != filter.Status {
			continue
		}
		out = append(out, *rr)
	}
	return out, nil
}

func (r *memoryRepo) UpdateRefillRequest(ctx context.Context, id uuid.UUID, mutate func(*domain.RefillRequest, *domain.Kiosk) error) (*domain.RefillRequest, *domain.Kiosk, error) {
	rr, ok := r.refills[id]
	if !ok {
		return nil, nil, store.ErrRefillNotFound
	}
	req := *rr
	k, err := r.GetKiosk(ctx, req.KioskID)
	if err != nil {
		return nil, nil, err
	}
	if err := mutate(&req, k); err != nil {
		return nil, nil, err
	}
	r.refills[id] = &req
	r.kiosks[k.ID] = k
	return &req, k, nil
}

func (r *memoryRepo) CreateRefundTicket(ctx context.Context, t *domain.RefundTicket) error {
	for _, existing := range r.refundTickets {
		if existing.PaymentID == t.PaymentID && existing.Status == domain.RefundTicketPending {
			return domain.ErrConflict
		}
	}
	cp := *t
	r.refundTickets[t.ID] = &cp
	return nil
}

func (r *memoryRepo) GetRefundTicket(ctx context.Context, id uuid.UUID) (*domain.RefundTicket, error) {
	t, ok := r.refundTickets[id]
	if !ok {
		return nil, store.ErrRefundTicketNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *memoryRepo) ListRefundTickets(ctx context.Context, filter store.Filter) ([]domain.RefundTicket, error) {
	out := []domain.RefundTicket{}
	for _, t := range r.refundTickets {
		if filter.Status != "" && string(t.Status) != filter.Status {
			continue
		}
		if filter.CustomerID != nil && (t.CustomerID == nil || *t.CustomerID != *filter.CustomerID) {
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}

func (r *memoryRepo) UpdateRefundTicket(ctx context.Context, id uuid.UUID, mutate func(*domain.RefundTicket) error) (*domain.RefundTicket, error) {
	t, err := r.GetRefundTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := mutate(t); err != nil {
		return nil, err
	}
	r.refundTickets[id] = t
	return t, nil
}

func (r *memoryRepo) ProcessRefundTicket(ctx context.Context, id uuid.UUID, process func(*domain.RefundTicket, *domain.Payment, *domain.Kiosk) error) (*domain.RefundTicket, *domain.Payment, *domain.Kiosk, error) {
	t, err := r.GetRefundTicket(ctx, id)
	if err != nil {
		return nil, nil, nil, err
	}
	p, err := r.GetPayment(ctx, t.PaymentID)
	if err != nil {
		return nil, nil, nil, err
	}
	k, err := r.GetKiosk(ctx, p.KioskID)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := process(t, p, k); err != nil {
		return nil, nil, nil, err
	}
	r.refundTickets[id] = t
	r.payments[p.ID] = p
	r.kiosks[k.ID] = k
	return t, p, k, nil
}

func (r *memoryRepo) CreateNotification(ctx context.Context, n *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, *n)
	return nil
}

func (r *memoryRepo) GetNotification(ctx context.Context, id uuid.UUID) (*domain.Notification, error) {
	for _, n := range r.notifications {
		if n.ID == id {
			cp := n
			return &cp, nil
		}
	}
	return nil, store.ErrNotificationNotFound
}

func (r *memoryRepo) MarkNotificationRead(ctx context.Context, id uuid.UUID) error {
	for i := range r.notifications {
		if r.notifications[i].ID == id {
			r.notifications[i].Read = true
			return nil
		}
	}
	return store.ErrNotificationNotFound
}

func (r *memoryRepo) ListNotifications(ctx context.Context, filter store.Filter) ([]domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Notification{}
	for _, n := range r.notifications {
		if filter.UnreadOnly && n.Read {
			continue
		}
		if filter.CustomerID != nil && (n.CustomerID == nil || *n.CustomerID != *filter.CustomerID) {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (r *memoryRepo) notificationsOfType(kind domain.NotificationType) []domain.Notification {
	var out []domain.Notification
	for _, n := range r.notifications {
		if n.Type == kind {
			out = append(out, n)
		}
	}
	return out
}

type fakeGateway struct {
	validSignature bool
	orderErr       error
	orders         []int64
}

func (g *fakeGateway) CreateOrder(ctx context.Context, amountPaise int64, currency, receipt string, notes map[string]string) (*razorpay.Order, error) {
	if g.orderErr != nil {
		return nil, g.orderErr
	}
	g.orders = append(g.orders, amountPaise)
	return &razorpay.Order{ID: "order_test", Amount: amountPaise, Currency: currency, Receipt: receipt}, nil
}

func (g *fakeGateway) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	return g.validSignature
}

func (g *fakeGateway) CheckoutOptions(order razorpay.Order, name, description string, prefill razorpay.Prefill) razorpay.CheckoutOptions {
	return razorpay.CheckoutOptions{Key: "rzp_test", Amount: order.Amount, Currency: order.Currency, Name: name, Description: description, OrderID: order.ID, Prefill: prefill}
}

func (g *fakeGateway) KeyID() string { return "rzp_test" }

type recordingPublisher struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (p *recordingPublisher) Publish(ctx context.Context, exchange, routingKey string, body interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, routingKey)
	return p.err
}

type stubLimiter struct {
	count  int
	err    error
	resets []string
}

func (l *stubLimiter) ResetRateLimit(ctx context.Context, scope, subject string) error {
	l.resets = append(l.resets, scope+":"+subject)
	l.count = 0
	return nil
}

func (l *stubLimiter) ConsumeRateLimit(ctx context.Context, scope, subject string, limit int, window time.Duration) (int, int, error) {
	if l.err != nil {
		return 0, 0, l.err
	}
	l.count++
	return l.count, 30, nil
}

var fixedNow = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

type testEnv struct {
	svc       *Service
	repo      *memoryRepo
	gateway   *fakeGateway
	publisher *recordingPublisher
	limiter   *stubLimiter
}

func newTestEnv() *testEnv {
	repo := newMemoryRepo()
	gateway := &fakeGateway{validSignature: true}
	publisher := &recordingPublisher{}
	limiter := &stubLimiter{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(repo, gateway, publisher, limiter, logger, Options{
		Splitter:          domain.NewSplitter(10),
		RefillPolicy:      domain.DefaultRefillPolicy(),
		AllowLegacyDigest: true,
		LoginRateLimit:    5,
		LoginRateWindow:   time.Minute,
		PublicBaseURL:     "https://pay.example.com/",
	})
	svc.now = func() time.Time { return fixedNow }
	return &testEnv{svc: svc, repo: repo, gateway: gateway, publisher: publisher, limiter: limiter}
}

var (
	adminActor = domain.Actor{UserID: uuid.New(), Kind: domain.AccountAdmin, Role: domain.RoleAdmin}
	errBoom    = errors.New("boom")
)

func customerActor(id uuid.UUID) domain.Actor {
	return domain.Actor{UserID: id, Kind: domain.AccountCustomer, Role: domain.RoleCustomer}
}

// seedKiosk stores an active kiosk priced at price, owned by owner.
func (e *testEnv) seedKiosk(price string, owner *uuid.UUID) *domain.Kiosk {
	k, err := domain.NewKiosk(domain.NewKioskInput{
		Name:             "Mall Kiosk",
		Location:         "Level 2",
		CustomerID:       owner,
		PricePerCleaning: decimal.RequireFromString(price),
	}, fixedNow)
	if err != nil {
		panic(err)
	}
	e.repo.kiosks[k.ID] = k
	return k
}
