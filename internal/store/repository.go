/**
 * @description
 * Repository contract for the KioskPay store. Mutations that must respect a
 * domain rule take a callback that runs against row-locked copies inside one
 * transaction; the callback's error aborts the transaction unchanged.
 */
package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/kioskpay/kioskpay/internal/domain"
)

// Filter narrows list queries. Zero values mean "no constraint".
type Filter struct {
	KioskID    *uuid.UUID
	CustomerID *uuid.UUID
	Status     string
	Type       string
	UnreadOnly bool
	Limit      int
}

// Repository is the persistence boundary used by the app layer.
type Repository interface {
	// Accounts
	FindAccountsByEmail(ctx context.Context, kind domain.AccountKind, email string) ([]domain.Account, error)
	UpdatePasswordHash(ctx context.Context, kind domain.AccountKind, id uuid.UUID, hash string) error
	CreateAdminUser(ctx context.Context, account domain.Account) error

	// Customers
	CreateCustomer(ctx context.Context, customer *domain.Customer) error
	GetCustomer(ctx context.Context, id uuid.UUID) (*domain.Customer, error)
	ListCustomers(ctx context.Context, filter Filter) ([]domain.Customer, error)
	UpdateCustomer(ctx context.Context, id uuid.UUID, mutate func(*domain.Customer) error) (*domain.Customer, error)

	// Kiosks
	CreateKiosk(ctx context.Context, kiosk *domain.Kiosk) error
	GetKiosk(ctx context.Context, id uuid.UUID) (*domain.Kiosk, error)
	ListKiosks(ctx context.Context, filter Filter) ([]domain.Kiosk, error)
	UpdateKiosk(ctx context.Context, id uuid.UUID, mutate func(*domain.Kiosk) error) (*domain.Kiosk, error)

	// Payments
	CreatePayment(ctx context.Context, payment *domain.Payment) error
	CapturePayment(ctx context.Context, payment *domain.Payment, credit func(*domain.Kiosk) error) (*domain.Kiosk, error)
	GetPayment(ctx context.Context, id uuid.UUID) (*domain.Payment, error)
	FindCompletedPaymentByGatewayID(ctx context.Context, gatewayPaymentID string) (*domain.Payment, error)
	ListPayments(ctx context.Context, filter Filter) ([]domain.Payment, error)
	RefundPayment(ctx context.Context, id uuid.UUID, refund func(*domain.Payment, *domain.Kiosk) error) (*domain.Payment, *domain.Kiosk, error)

	// Maintenance requests
	CreateMaintenanceRequest(ctx context.Context, req *domain.MaintenanceRequest) error
	GetMaintenanceRequest(ctx context.Context, id uuid.UUID) (*domain.MaintenanceRequest, error)
	ListMaintenanceRequests(ctx context.Context, filter Filter) ([]domain.MaintenanceRequest, error)
	UpdateMaintenanceRequest(ctx context.Context, id uuid.UUID, mutate func(*domain.MaintenanceRequest, *domain.Kiosk) error) (*domain.MaintenanceRequest, *domain.Kiosk, error)

	// Refill requests
	CreateRefillRequest(ctx context.Context, req *domain.RefillRequest) error
	GetRefillRequest(ctx context.Context, id uuid.UUID) (*domain.RefillRequest, error)
	ListRefillRequests(ctx context.Context, filter Filter) ([]domain.RefillRequest, error)
	UpdateRefillRequest(ctx context.Context, id uuid.UUID, mutate func(*domain.RefillRequest, *domain.Kiosk) error) (*domain.RefillRequest, *domain.Kiosk, error)

	// Refund tickets
	CreateRefundTicket(ctx context.Context, ticket *domain.RefundTicket) error
	GetRefundTicket(ctx context.Context, id uuid.UUID) (*domain.RefundTicket, error)
	ListRefundTickets(ctx context.Context, filter Filter) ([]domain.RefundTicket, error)
	UpdateRefundTicket(ctx context.Context, id uuid.UUID, mutate func(*domain.RefundTicket) error) (*domain.RefundTicket, error)
	ProcessRefundTicket(ctx context.Context, id uuid.UUID, process func(*domain.RefundTicket, *domain.Payment, *domain.Kiosk) error) (*domain.RefundTicket, *domain.Payment, *domain.Kiosk, error)

	// Notifications
	CreateNotification(ctx context.Context, n *domain.Notification) error
	GetNotification(ctx context.Context, id uuid.UUID) (*domain.Notification, error)
	ListNotifications(ctx context.Context, filter Filter) ([]domain.Notification, error)
	MarkNotificationRead(ctx context.Context, id uuid.UUID) error
	MarkAllNotificationsRead(ctx context.Context, customerID *uuid.UUID) (int64, error)
}
