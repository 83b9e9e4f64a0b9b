package domain

import (
	"github.com/google/uuid"
)

// AccountKind selects which table a login is checked against.
type AccountKind string

const (
	AccountAdmin    AccountKind = "admin"
	AccountCustomer AccountKind = "customer"
)

// Valid reports whether k is a known kind.
func (k AccountKind) Valid() bool {
	return k == AccountAdmin || k == AccountCustomer
}

const (
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
	RoleCustomer   = "customer"
)

// Account is a login row from admin_users or customers.
type Account struct {
	ID           uuid.UUID
	Kind         AccountKind
	Email        string
	Name         string
	Role         string
	PasswordHash string
}

// UserDescriptor is what a successful credential check returns.
type UserDescriptor struct {
	ID    uuid.UUID   `json:"id"`
	Email string      `json:"email"`
	Name  string      `json:"name"`
	Role  string      `json:"role"`
	Kind  AccountKind `json:"kind"`
}

// Descriptor builds the user descriptor for a. Customers always carry the
// customer role.
func (a Account) Descriptor() UserDescriptor {
	role := a.Role
	switch a.Kind {
	case AccountCustomer:
		role = RoleCustomer
	case AccountAdmin:
		if role == "" {
			role = RoleAdmin
		}
	}
	return UserDescriptor{ID: a.ID, Email: a.Email, Name: a.Name, Role: role, Kind: a.Kind}
}

// Actor is the authenticated caller of a mutation.
type Actor struct {
	UserID uuid.UUID
	Kind   AccountKind
	Role   string
}

// ActorFromDescriptor converts a login result into an Actor.
func ActorFromDescriptor(u UserDescriptor) Actor {
	return Actor{UserID: u.ID, Kind: u.Kind, Role: u.Role}
}

// IsAdmin reports whether the actor signed in as an admin.
func (a Actor) IsAdmin() bool {
	return a.Kind == AccountAdmin
}

// CustomerID returns the actor's customer id when signed in as a customer.
func (a Actor) CustomerID() (uuid.UUID, bool) {
	if a.Kind != AccountCustomer {
		return uuid.Nil, false
	}
	return a.UserID, true
}

// CanSeeCustomer reports whether the actor may read rows owned by id.
func (a Actor) CanSeeCustomer(id *uuid.UUID) bool {
	if a.IsAdmin() {
		return true
	}
	return id != nil && *id == a.UserID
}
