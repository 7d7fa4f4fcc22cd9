package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"coursehub/backend/internal/gateway/util"
	"coursehub/backend/internal/notification"
)

// NotificationHandler exposes the caller's inbox
type NotificationHandler struct {
	Notifications *notification.Service
}

// List handles GET /notifications
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	items, unread, err := h.Notifications.List(r.Context(), util.ActorFrom(r))
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.OK(w, http.StatusOK, util.M{"notifications": items, "unreadCount": unread})
}

// MarkRead handles PUT /notifications/{id}/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.Notifications.MarkRead(r.Context(), util.ActorFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.OK(w, http.StatusOK, util.M{"notification": n})
}

// MarkAllRead handles PUT /notifications/mark-all-read
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	updated, err := h.Notifications.MarkAllRead(r.Context(), util.ActorFrom(r))
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.OK(w, http.StatusOK, util.M{"message": "All notifications marked as read", "updated": updated})
}

// Delete handles DELETE /notifications/{id}
func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Notifications.Delete(r.Context(), util.ActorFrom(r), chi.URLParam(r, "id")); err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.OK(w, http.StatusOK, util.M{"message": "Notification deleted"})
}
