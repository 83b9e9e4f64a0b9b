package api

import (
	"net/http"

	"github.com/kioskpay/kioskpay/internal/app"
	"github.com/kioskpay/kioskpay/internal/domain"
)

type createCustomerRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"omitempty,max=32"`
	Password string `json:"password" validate:"required,min=8"`
}

type updateCustomerRequest struct {
	Name     *string `json:"name" validate:"omitempty,max=200"`
	Phone    *string `json:"phone" validate:"omitempty,max=32"`
	Status   *string `json:"status" validate:"omitempty,oneof=active inactive suspended"`
	Password *string `json:"password" validate:"omitempty,min=8"`
}

func (h *Handler) ListCustomersHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	q, ok := parseListQuery(w, r)
	if !ok {
		return
	}
	customers, err := h.service.ListCustomers(r.Context(), actor, q.Status, q.Limit)
	if err != nil {
		writeServiceError(w, "list_customers", err)
		return
	}
	writeJSON(w, http.StatusOK, customers)
}

func (h *Handler) CreateCustomerHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req createCustomerRequest
	if !h.decode(w, r, "create_customer", &req) {
		return
	}
	customer, err := h.service.CreateCustomer(r.Context(), actor, app.CustomerInput{
		Name: req.Name, Email: req.Email, Phone: req.Phone, Password: req.Password,
	})
	if err != nil {
		writeServiceError(w, "create_customer", err)
		return
	}
	writeJSON(w, http.StatusCreated, customer)
}

func (h *Handler) GetCustomerHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "customerID")
	if !ok {
		return
	}
	customer, err := h.service.GetCustomer(r.Context(), actor, id)
	if err != nil {
		writeServiceError(w, "get_customer", err)
		return
	}
	writeJSON(w, http.StatusOK, customer)
}

func (h *Handler) UpdateCustomerHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "customerID")
	if !ok {
		return
	}
	var req updateCustomerRequest
	if !h.decode(w, r, "update_customer", &req) {
		return
	}
	update := app.CustomerUpdate{Name: req.Name, Phone: req.Phone, Password: req.Password}
	if req.Status != nil {
		status := domain.CustomerStatus(*req.Status)
		update.Status = &status
	}
	customer, err := h.service.UpdateCustomer(r.Context(), actor, id, update)
	if err != nil {
		writeServiceError(w, "update_customer", err)
		return
	}
	writeJSON(w, http.StatusOK, customer)
}
