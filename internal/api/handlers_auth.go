package api

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/kioskpay/kioskpay/internal/domain"
	"github.com/shopspring/decimal"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Kind     string `json:"kind" validate:"required,oneof=admin customer"`
}

type loginResponse struct {
	Token     string                `json:"token"`
	ExpiresAt time.Time             `json:"expires_at"`
	User      domain.UserDescriptor `json:"user"`
}

// LoginHandler checks credentials and issues a session token.
func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, "login", &req) {
		return
	}

	user, err := h.service.Authenticate(r.Context(), req.Email, req.Password, domain.AccountKind(req.Kind))
	if err != nil {
		log.Printf("level=warn component=api endpoint=login outcome=reject kind=%s err=%v", req.Kind, err)
		writeServiceError(w, "login", err)
		return
	}

	token, expires, err := h.sessions.Issue(*user)
	if err != nil {
		writeServiceError(w, "login", err)
		return
	}
	log.Printf("level=info component=api endpoint=login outcome=accepted kind=%s user_id=%s", user.Kind, user.ID)
	writeJSON(w, http.StatusOK, loginResponse{Token: token, ExpiresAt: expires, User: *user})
}

// MeHandler returns the session user.
func (h *Handler) MeHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := SessionUser(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// SplitPreviewHandler shows the platform and owner share of ?amount=.
func (h *Handler) SplitPreviewHandler(w http.ResponseWriter, r *http.Request) {
	amount, err := decimal.NewFromString(strings.TrimSpace(r.URL.Query().Get("amount")))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount")
		return
	}
	split, err := h.service.PreviewSplit(amount)
	if err != nil {
		writeServiceError(w, "split_preview", err)
		return
	}
	writeJSON(w, http.StatusOK, split)
}

// DashboardHandler returns the role-specific overview.
func (h *Handler) DashboardHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	dashboard, err := h.service.Dashboard(r.Context(), actor)
	if err != nil {
		writeServiceError(w, "dashboard", err)
		return
	}
	writeJSON(w, http.StatusOK, dashboard)
}
