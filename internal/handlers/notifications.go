package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cosmichub/api/internal/services"
)

// NotificationHandlers exposes the one-slot transient message channel.
type NotificationHandlers struct {
	notifier *services.Notifier
}

// NewNotificationHandlers constructs handlers for the notification endpoints.
func NewNotificationHandlers(notifier *services.Notifier) *NotificationHandlers {
	return &NotificationHandlers{notifier: notifier}
}

// Routes registers the notification endpoints.
func (h *NotificationHandlers) Routes(r chi.Router) {
	r.Get("/", h.Current)
	r.Delete("/", h.Clear)
}

type notificationPayload struct {
	Text     string `json:"text"`
	Severity string `json:"severity"`
	IssuedAt string `json:"issuedAt"`
}

// Current serves the pending message, or an empty slot.
func (h *NotificationHandlers) Current(w http.ResponseWriter, r *http.Request) {
	if h.notifier == nil {
		writeJSON(w, http.StatusOK, map[string]any{"notification": nil})
		return
	}

	message, ok := h.notifier.Current()
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"notification": nil})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"notification": notificationPayload{
		Text:     message.Text,
		Severity: string(message.Severity),
		IssuedAt: message.IssuedAt.UTC().Format(time.RFC3339Nano),
	}})
}

// Clear drops the pending message immediately.
func (h *NotificationHandlers) Clear(w http.ResponseWriter, r *http.Request) {
	if h.notifier != nil {
		h.notifier.Clear()
	}
	w.WriteHeader(http.StatusNoContent)
}
