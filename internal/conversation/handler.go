package conversation

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/NiveshSarthi/RealNex-sub001/internal/observability/metrics"
	"github.com/NiveshSarthi/RealNex-sub001/pkg/logging"
)

// Handler receives normalized WhatsApp webhook events and enqueues them.
type Handler struct {
	publisher   *Publisher
	verifyToken string
	logger      *logging.Logger
	metrics     *metrics.EngineMetrics
}

// NewHandler creates a webhook handler.
func NewHandler(publisher *Publisher, verifyToken string, logger *logging.Logger, m *metrics.EngineMetrics) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		publisher:   publisher,
		verifyToken: verifyToken,
		logger:      logger,
		metrics:     m,
	}
}

// Verify handles Meta's GET subscription handshake: echo hub.challenge when
// the verify token matches.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mode := q.Get("hub.mode")
	token := q.Get("hub.verify_token")
	challenge := q.Get("hub.challenge")

	if mode != "subscribe" || subtle.ConstantTimeCompare([]byte(token), []byte(h.verifyToken)) != 1 {
		h.logger.Warn("webhook verification rejected", "mode", mode)
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(challenge))
}

// webhookEvent is the normalized inbound payload posted by the webhook
// normalizer in front of this service.
type webhookEvent struct {
	ContactID string    `json:"contact_id"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	MediaType string    `json:"media_type,omitempty"`
}

// Receive handles POST /webhooks/whatsapp: decode, enqueue, 202.
func (h *Handler) Receive(w http.ResponseWriter, r *http.Request) {
	var evt webhookEvent
	if err := json.NewDecoder(r.Body).Decode(&evt); err != nil {
		h.logger.Error("failed to decode webhook event", "error", err)
		h.metrics.ObserveInbound("malformed")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if evt.ContactID == "" {
		h.metrics.ObserveInbound("malformed")
		http.Error(w, "contact_id required", http.StatusBadRequest)
		return
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}

	msg := InboundMessage(evt)
	if err := h.publisher.EnqueueMessage(r.Context(), msg); err != nil {
		if errors.Is(err, ErrQueueFull) {
			h.logger.Warn("inbound queue full, asking provider to retry", "contact_id", evt.ContactID)
			h.metrics.ObserveInbound("queue_full")
			w.Header().Set("Retry-After", "1")
			http.Error(w, "Busy, retry shortly", http.StatusServiceUnavailable)
			return
		}
		h.logger.Error("failed to enqueue inbound message", "contact_id", evt.ContactID, "error", err)
		h.metrics.ObserveInbound("enqueue_failed")
		http.Error(w, "Failed to accept message", http.StatusInternalServerError)
		return
	}

	h.metrics.ObserveInbound("accepted")
	w.WriteHeader(http.StatusAccepted)
}
