// Package handlers holds admin HTTP handlers that sit outside the webhook
// pipeline.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/NiveshSarthi/RealNex-sub001/internal/transcript"
	"github.com/NiveshSarthi/RealNex-sub001/pkg/logging"
)

// AdminTranscriptsHandler exposes conversation history for the agent console.
type AdminTranscriptsHandler struct {
	store  *transcript.Store
	logger *logging.Logger
}

// NewAdminTranscriptsHandler creates the handler. store may be nil when
// transcript persistence is disabled; requests then return 404.
func NewAdminTranscriptsHandler(store *transcript.Store, logger *logging.Logger) *AdminTranscriptsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminTranscriptsHandler{store: store, logger: logger}
}

// MessageResponse is one message in a conversation detail.
type MessageResponse struct {
	ID        string `json:"id"`
	Direction string `json:"direction"`
	Kind      string `json:"kind"`
	Body      string `json:"body"`
	CreatedAt string `json:"created_at"`
}

// ConversationResponse is the conversation detail payload.
type ConversationResponse struct {
	ContactID           string            `json:"contact_id"`
	Status              string            `json:"status"`
	Channel             string            `json:"channel"`
	MessageCount        int               `json:"message_count"`
	ContactMessageCount int               `json:"contact_message_count"`
	BotMessageCount     int               `json:"bot_message_count"`
	StartedAt           string            `json:"started_at"`
	Messages            []MessageResponse `json:"messages"`
}

// GetConversation handles GET /admin/conversations/{contactID}.
func (h *AdminTranscriptsHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	contactID := chi.URLParam(r, "contactID")
	if contactID == "" {
		http.Error(w, "contactID required", http.StatusBadRequest)
		return
	}

	conv, err := h.store.Get(r.Context(), contactID)
	if err != nil {
		h.logger.Error("loading conversation", "contact_id", contactID, "error", err)
		http.Error(w, "failed to load conversation", http.StatusInternalServerError)
		return
	}
	if conv == nil {
		http.Error(w, "conversation not found", http.StatusNotFound)
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	msgs, err := h.store.Recent(r.Context(), contactID, limit)
	if err != nil {
		h.logger.Error("loading messages", "contact_id", contactID, "error", err)
		http.Error(w, "failed to load messages", http.StatusInternalServerError)
		return
	}

	resp := ConversationResponse{
		ContactID:           conv.ContactID,
		Status:              conv.Status,
		Channel:             conv.Channel,
		MessageCount:        conv.MessageCount,
		ContactMessageCount: conv.ContactMessageCount,
		BotMessageCount:     conv.BotMessageCount,
		StartedAt:           conv.StartedAt.Format("2006-01-02T15:04:05Z07:00"),
		Messages:            make([]MessageResponse, 0, len(msgs)),
	}
	for _, m := range msgs {
		resp.Messages = append(resp.Messages, MessageResponse{
			ID:        m.ID.String(),
			Direction: m.Direction,
			Kind:      m.Kind,
			Body:      m.Body,
			CreatedAt: m.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
