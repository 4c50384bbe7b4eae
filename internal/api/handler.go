// Package api provides the HTTP endpoints used in webhook mode.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/carelink/bpbot/internal/middleware"
)

const maxUpdateBodySize = 1 << 20

// UpdateHandler consumes a decoded Telegram update.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, u tgbotapi.Update) error
}

// WebhookHandler receives updates pushed by Telegram.
type WebhookHandler struct {
	updates UpdateHandler
	logger  *slog.Logger
}

// NewWebhookHandler creates a WebhookHandler.
func NewWebhookHandler(updates UpdateHandler, logger *slog.Logger) *WebhookHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookHandler{updates: updates, logger: logger}
}

// RegisterRoutes mounts the index and webhook routes.
func (h *WebhookHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Index)
	r.With(middleware.RequireJSON).Post("/webhook", h.Webhook)
}

// Index reports that the webhook receiver is up.
func (h *WebhookHandler) Index(w http.ResponseWriter, _ *http.Request) {
	Text(w, http.StatusOK, "Webhook is running.")
}

// Webhook decodes one update and processes it before acknowledging. Delivery
// failures are logged but still acknowledged so Telegram does not redeliver
// an update whose state transition already happened.
func (h *WebhookHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUpdateBodySize)

	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			Error(w, http.StatusRequestEntityTooLarge, "update too large")
			return
		}
		Error(w, http.StatusBadRequest, "invalid update payload")
		return
	}

	if err := h.updates.HandleUpdate(r.Context(), update); err != nil {
		h.logger.Error("Failed to process webhook update", "update_id", update.UpdateID, "error", err)
	}
	Text(w, http.StatusOK, "OK")
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// Text writes a plain-text response.
func Text(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
