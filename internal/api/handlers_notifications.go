package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/kioskpay/kioskpay/internal/app"
	"github.com/kioskpay/kioskpay/internal/domain"
)

func (h *Handler) ListNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	q, ok := parseListQuery(w, r)
	if !ok {
		return
	}
	query := app.NotificationQuery{
		Type:  domain.NotificationType(strings.TrimSpace(r.URL.Query().Get("type"))),
		Limit: q.Limit,
	}
	if raw := r.URL.Query().Get("unread"); raw != "" {
		unread, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid unread flag")
			return
		}
		query.UnreadOnly = unread
	}
	notifications, err := h.service.ListNotifications(r.Context(), actor, query)
	if err != nil {
		writeServiceError(w, "list_notifications", err)
		return
	}
	writeJSON(w, http.StatusOK, notifications)
}

func (h *Handler) MarkNotificationReadHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "notificationID")
	if !ok {
		return
	}
	if err := h.service.MarkNotificationRead(r.Context(), actor, id); err != nil {
		writeServiceError(w, "mark_notification_read", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) MarkAllNotificationsReadHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	updated, err := h.service.MarkAllNotificationsRead(r.Context(), actor)
	if err != nil {
		writeServiceError(w, "mark_all_notifications_read", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"updated": updated})
}
