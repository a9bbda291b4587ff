package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/NiveshSarthi/RealNex-sub001/pkg/logging"
)

var whatsappSendTracer = otel.Tracer("realnex.internal.messaging.whatsapp_send")

// WhatsAppSender posts messages through the WhatsApp Cloud API.
type WhatsAppSender struct {
	token         string
	phoneNumberID string
	baseURL       string
	httpClient    *http.Client
	logger        *logging.Logger
}

// NewWhatsAppSender builds a sender for the WhatsApp Cloud API (Graph API).
func NewWhatsAppSender(token, phoneNumberID, baseURL string, logger *logging.Logger) *WhatsAppSender {
	if logger == nil {
		logger = logging.Default()
	}
	if baseURL == "" {
		baseURL = "https://graph.facebook.com/v19.0"
	}
	return &WhatsAppSender{
		token:         token,
		phoneNumberID: phoneNumberID,
		baseURL:       strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

var _ Messenger = (*WhatsAppSender)(nil)

// SendText dispatches a plain text message.
func (s *WhatsAppSender) SendText(ctx context.Context, to, body string) error {
	payload := map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "text",
		"text":              map[string]any{"body": body},
	}
	return s.post(ctx, "text", to, payload)
}

// SendButtons dispatches an interactive message with up to 3 reply buttons.
func (s *WhatsAppSender) SendButtons(ctx context.Context, to, body string, buttons []Button) error {
	if len(buttons) == 0 || len(buttons) > maxButtons {
		return fmt.Errorf("messaging: button count %d out of range [1,%d]", len(buttons), maxButtons)
	}

	actions := make([]map[string]any, 0, len(buttons))
	for _, b := range buttons {
		actions = append(actions, map[string]any{
			"type": "reply",
			"reply": map[string]any{
				"id":    b.ID,
				"title": b.Title,
			},
		})
	}

	payload := map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "interactive",
		"interactive": map[string]any{
			"type":   "button",
			"body":   map[string]any{"text": body},
			"action": map[string]any{"buttons": actions},
		},
	}
	return s.post(ctx, "buttons", to, payload)
}

// SendList dispatches an interactive list message.
func (s *WhatsAppSender) SendList(ctx context.Context, to, header, body string, sections []ListSection) error {
	if len(sections) == 0 {
		return errors.New("messaging: list requires at least one section")
	}

	apiSections := make([]map[string]any, 0, len(sections))
	for _, sec := range sections {
		rows := make([]map[string]any, 0, len(sec.Rows))
		for _, row := range sec.Rows {
			rows = append(rows, map[string]any{
				"id":          row.ID,
				"title":       row.Title,
				"description": row.Description,
			})
		}
		apiSections = append(apiSections, map[string]any{
			"title": sec.Title,
			"rows":  rows,
		})
	}

	payload := map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "interactive",
		"interactive": map[string]any{
			"type":   "list",
			"header": map[string]any{"type": "text", "text": header},
			"body":   map[string]any{"text": body},
			"action": map[string]any{
				"button":   "Choose an option",
				"sections": apiSections,
			},
		},
	}
	return s.post(ctx, "list", to, payload)
}

func (s *WhatsAppSender) post(ctx context.Context, kind, to string, payload map[string]any) error {
	if s.token == "" {
		return errors.New("messaging: whatsapp token missing")
	}
	if to == "" {
		return errors.New("messaging: to required")
	}

	ctx, span := whatsappSendTracer.Start(ctx, "messaging.whatsapp.send")
	defer span.End()
	span.SetAttributes(
		attribute.String("realnex.to", to),
		attribute.String("realnex.message_kind", kind),
	)

	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("messaging: failed to marshal whatsapp payload: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", s.baseURL, s.phoneNumberID)

	var lastErr error
	// One retry on transport errors or 5xx; 4xx is never retried.
	for attempt := 1; attempt <= 2; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
		if err != nil {
			return fmt.Errorf("messaging: failed to build request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+s.token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			s.logger.Info("whatsapp message sent", "to", to, "kind", kind)
			return nil
		}

		lastErr = fmt.Errorf("messaging: whatsapp api status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
		span.RecordError(lastErr)
		if resp.StatusCode < 500 {
			break
		}
	}

	s.logger.Error("whatsapp send failed", "to", to, "kind", kind, "error", lastErr)
	return lastErr
}
