package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/kioskpay/kioskpay/internal/domain"
	"github.com/kioskpay/kioskpay/internal/store"
)

// CustomerInput is the admin form for registering a kiosk owner.
type CustomerInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

// CreateCustomer registers a kiosk owner with a bcrypt credential.
func (s *Service) CreateCustomer(ctx context.Context, actor domain.Actor, in CustomerInput) (*domain.Customer, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	customer, err := domain.NewCustomer(in.Name, in.Email, in.Phone, s.now())
	if err != nil {
		return nil, err
	}
	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	customer.PasswordHash = hash
	if err := s.repo.CreateCustomer(ctx, customer); err != nil {
		return nil, err
	}

	s.logger.Info("customer created", "customer_id", customer.ID)
	s.notify(ctx, domain.NotificationCustomer, nil, nil, domain.NotificationLow,
		fmt.Sprintf("New customer registered: %s", customer.Name))
	return customer, nil
}

// ListCustomers returns every customer for admins and only the caller for
// customers.
func (s *Service) ListCustomers(ctx context.Context, actor domain.Actor, status string, limit int) ([]domain.Customer, error) {
	if status != "" && !domain.CustomerStatus(status).Valid() {
		return nil, domain.NewValidationError("status", "is not a known customer status")
	}
	return s.repo.ListCustomers(ctx, scopeFilter(actor, store.Filter{Status: status, Limit: limit}))
}

// GetCustomer loads one customer the actor may see.
func (s *Service) GetCustomer(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Customer, error) {
	if !actor.CanSeeCustomer(&id) {
		return nil, store.ErrCustomerNotFound
	}
	return s.repo.GetCustomer(ctx, id)
}

// CustomerUpdate is an admin edit. Nil fields are left alone.
type CustomerUpdate struct {
	Name     *string
	Phone    *string
	Status   *domain.CustomerStatus
	Password *string
}

// UpdateCustomer edits a customer. A new password is stored as bcrypt.
func (s *Service) UpdateCustomer(ctx context.Context, actor domain.Actor, id uuid.UUID, u CustomerUpdate) (*domain.Customer, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	var hash string
	if u.Password != nil {
		h, err := HashPassword(*u.Password)
		if err != nil {
			return nil, err
		}
		hash = h
	}

	customer, err := s.repo.UpdateCustomer(ctx, id, func(c *domain.Customer) error {
		if u.Name != nil {
			name := strings.TrimSpace(*u.Name)
			if name == "" {
				return domain.NewValidationError("name", "cannot be empty")
			}
			c.Name = name
		}
		if u.Phone != nil {
			c.Phone = strings.TrimSpace(*u.Phone)
		}
		if u.Status != nil {
			if !u.Status.Valid() {
				return domain.NewValidationError("status", "is not a known customer status")
			}
			c.Status = *u.Status
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if hash != "" {
		if err := s.repo.UpdatePasswordHash(ctx, domain.AccountCustomer, id, hash); err != nil {
			return nil, err
		}
	}
	return customer, nil
}
