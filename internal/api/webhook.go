package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// EventHandler processes one admitted inbound user message.
type EventHandler interface {
	HandleEvent(ctx context.Context, subjectID, eventID string, now time.Time)
}

// WebhookHandler answers the platform's verification handshake and receives
// page events. Echoes and non-message events are filtered here; only
// genuine user messages reach the EventHandler.
type WebhookHandler struct {
	verifyToken string
	events      EventHandler
}

// NewWebhookHandler creates a webhook handler.
func NewWebhookHandler(verifyToken string, events EventHandler) *WebhookHandler {
	return &WebhookHandler{
		verifyToken: verifyToken,
		events:      events,
	}
}

// RegisterRoutes mounts the webhook endpoints on the router.
func (h *WebhookHandler) RegisterRoutes(r chi.Router) {
	r.Get("/webhook", h.Verify)
	r.Post("/webhook", h.Receive)
}

// Verify answers the subscription handshake by echoing hub.challenge when
// the verify token matches.
func (h *WebhookHandler) Verify(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("hub.mode")
	token := r.URL.Query().Get("hub.verify_token")
	challenge := r.URL.Query().Get("hub.challenge")

	if mode == "" || token == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if mode != "subscribe" || token != h.verifyToken {
		w.WriteHeader(http.StatusForbidden)
		return
	}

	slog.Info("Webhook verified")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(challenge))
}

type webhookPayload struct {
	Object string `json:"object"`
	Entry  []struct {
		Messaging []messagingEvent `json:"messaging"`
	} `json:"entry"`
}

type messagingEvent struct {
	Sender struct {
		ID string `json:"id"`
	} `json:"sender"`
	Message *inboundMessage `json:"message"`
}

type inboundMessage struct {
	MID         string            `json:"mid"`
	Text        string            `json:"text"`
	IsEcho      bool              `json:"is_echo"`
	Attachments []json.RawMessage `json:"attachments"`
}

// isUserMessage reports whether the event is a genuine inbound user
// message rather than an echo of our own output or a non-message event
// (delivery receipt, read receipt, postback).
func (e *messagingEvent) isUserMessage() bool {
	if e.Sender.ID == "" || e.Message == nil || e.Message.IsEcho {
		return false
	}
	return e.Message.Text != "" || len(e.Message.Attachments) > 0
}

// Receive accepts a page event batch, acknowledges it immediately and
// dispatches each user message to the orchestrator in its own goroutine.
// The platform retries deliveries that are not acknowledged quickly, so
// the response must not wait on outbound sends.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	var payload webhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		slog.Warn("Failed to decode webhook payload", "error", err)
		Error(w, http.StatusBadRequest, "malformed payload")
		return
	}

	if payload.Object != "page" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	now := time.Now()
	for _, entry := range payload.Entry {
		for _, event := range entry.Messaging {
			if !event.isUserMessage() {
				continue
			}
			subjectID := event.Sender.ID
			eventID := event.Message.MID
			go h.events.HandleEvent(context.Background(), subjectID, eventID, now)
		}
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("EVENT_RECEIVED"))
}
