/**
 * @description
 * HTTP handlers for the KioskPay API. Handlers decode and validate the
 * request, call the application service and translate its errors into
 * status codes.
 *
 * @dependencies
 * - github.com/go-playground/validator/v10: request body validation.
 */

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/kioskpay/kioskpay/internal/app"
	"github.com/kioskpay/kioskpay/internal/domain"
)

const maxBodyBytes = 1 << 20

// Handler holds the application service that handlers will use.
type Handler struct {
	service  *app.Service
	sessions *Sessions
	validate *validator.Validate
}

// NewHandler creates a new Handler.
func NewHandler(service *app.Service, sessions *Sessions) *Handler {
	return &Handler{service: service, sessions: sessions, validate: validator.New()}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// decode reads a JSON body into dst and runs struct validation.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, endpoint string, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		log.Printf("level=warn component=api endpoint=%s outcome=reject reason=invalid_json err=%v", endpoint, err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		log.Printf("level=warn component=api endpoint=%s outcome=reject reason=validation err=%v", endpoint, err)
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return "Invalid request body"
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return "Validation failed: " + strings.Join(parts, ", ")
}

// writeServiceError maps the domain error taxonomy onto status codes.
func writeServiceError(w http.ResponseWriter, endpoint string, err error) {
	var rateErr *app.RateLimitError
	var validationErr *domain.ValidationError
	switch {
	case errors.As(err, &rateErr):
		w.Header().Set("Retry-After", strconv.Itoa(rateErr.RetryAfterSeconds))
		writeError(w, http.StatusTooManyRequests, "Too many attempts. Please try again later.")
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, validationErr.Error())
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "You do not have access to this resource")
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "Too many attempts. Please try again later.")
	case errors.Is(err, domain.ErrGateway):
		log.Printf("level=warn component=api endpoint=%s outcome=failed reason=gateway err=%v", endpoint, err)
		writeError(w, http.StatusBadGateway, "Payment gateway error")
	default:
		log.Printf("level=error component=api endpoint=%s outcome=failed err=%v", endpoint, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func pathID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid %s", param))
		return uuid.Nil, false
	}
	return id, true
}

// requireActor returns the session actor. The session middleware guarantees
// one on protected routes.
func requireActor(w http.ResponseWriter, r *http.Request) (domain.Actor, bool) {
	actor, ok := actorFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
	}
	return actor, ok
}

// listQuery holds the common list query parameters.
type listQuery struct {
	KioskID *uuid.UUID
	Status  string
	Limit   int
}

func parseListQuery(w http.ResponseWriter, r *http.Request) (listQuery, bool) {
	q := listQuery{Status: strings.TrimSpace(r.URL.Query().Get("status"))}
	if raw := strings.TrimSpace(r.URL.Query().Get("kiosk_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid kiosk_id")
			return q, false
		}
		q.KioskID = &id
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return q, false
		}
		q.Limit = limit
	}
	return q, true
}
