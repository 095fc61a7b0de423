package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type recordedEvent struct {
	subjectID string
	eventID   string
}

// channelHandler forwards events to a channel so tests can wait for the
// goroutine dispatch.
type channelHandler struct {
	events chan recordedEvent
}

func newChannelHandler() *channelHandler {
	return &channelHandler{events: make(chan recordedEvent, 16)}
}

func (h *channelHandler) HandleEvent(_ context.Context, subjectID, eventID string, _ time.Time) {
	h.events <- recordedEvent{subjectID: subjectID, eventID: eventID}
}

func (h *channelHandler) waitForEvent(t *testing.T) recordedEvent {
	t.Helper()
	select {
	case event := <-h.events:
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for event dispatch")
		return recordedEvent{}
	}
}

func (h *channelHandler) expectNoEvent(t *testing.T) {
	t.Helper()
	select {
	case event := <-h.events:
		t.Fatalf("Unexpected event dispatched: %+v", event)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestVerify_MatchingTokenEchoesChallenge(t *testing.T) {
	h := NewWebhookHandler("secret-token", newChannelHandler())

	r := httptest.NewRequest(http.MethodGet,
		"/webhook?hub.mode=subscribe&hub.verify_token=secret-token&hub.challenge=12345", nil)
	w := httptest.NewRecorder()

	h.Verify(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if w.Body.String() != "12345" {
		t.Errorf("Expected challenge echoed, got %q", w.Body.String())
	}
}

func TestVerify_WrongTokenForbidden(t *testing.T) {
	h := NewWebhookHandler("secret-token", newChannelHandler())

	r := httptest.NewRequest(http.MethodGet,
		"/webhook?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=12345", nil)
	w := httptest.NewRecorder()

	h.Verify(w, r)

	if w.Code != http.StatusForbidden {
		t.Errorf("Expected status 403, got %d", w.Code)
	}
}

func TestVerify_MissingParamsBadRequest(t *testing.T) {
	h := NewWebhookHandler("secret-token", newChannelHandler())

	r := httptest.NewRequest(http.MethodGet, "/webhook", nil)
	w := httptest.NewRecorder()

	h.Verify(w, r)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func postWebhook(t *testing.T, h *WebhookHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.Receive(w, r)
	return w
}

func TestReceive_DispatchesUserMessage(t *testing.T) {
	events := newChannelHandler()
	h := NewWebhookHandler("secret-token", events)

	w := postWebhook(t, h, `{
		"object": "page",
		"entry": [{
			"messaging": [{
				"sender": {"id": "psid-1"},
				"message": {"mid": "mid.1", "text": "hello"}
			}]
		}]
	}`)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if w.Body.String() != "EVENT_RECEIVED" {
		t.Errorf("Expected EVENT_RECEIVED ack, got %q", w.Body.String())
	}

	event := events.waitForEvent(t)
	if event.subjectID != "psid-1" || event.eventID != "mid.1" {
		t.Errorf("Unexpected event: %+v", event)
	}
}

func TestReceive_AttachmentOnlyMessageDispatches(t *testing.T) {
	events := newChannelHandler()
	h := NewWebhookHandler("secret-token", events)

	postWebhook(t, h, `{
		"object": "page",
		"entry": [{
			"messaging": [{
				"sender": {"id": "psid-1"},
				"message": {"mid": "mid.2", "attachments": [{"type": "image"}]}
			}]
		}]
	}`)

	event := events.waitForEvent(t)
	if event.eventID != "mid.2" {
		t.Errorf("Unexpected event: %+v", event)
	}
}

func TestReceive_EchoIsFiltered(t *testing.T) {
	events := newChannelHandler()
	h := NewWebhookHandler("secret-token", events)

	w := postWebhook(t, h, `{
		"object": "page",
		"entry": [{
			"messaging": [{
				"sender": {"id": "psid-1"},
				"message": {"mid": "mid.1", "text": "our own reply", "is_echo": true}
			}]
		}]
	}`)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	events.expectNoEvent(t)
}

func TestReceive_NonMessageEventIsFiltered(t *testing.T) {
	events := newChannelHandler()
	h := NewWebhookHandler("secret-token", events)

	// Delivery receipt: no message field at all.
	postWebhook(t, h, `{
		"object": "page",
		"entry": [{
			"messaging": [{"sender": {"id": "psid-1"}}]
		}]
	}`)

	events.expectNoEvent(t)
}

func TestReceive_NonPageObjectNotFound(t *testing.T) {
	events := newChannelHandler()
	h := NewWebhookHandler("secret-token", events)

	w := postWebhook(t, h, `{"object": "user", "entry": []}`)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestReceive_MalformedBodyBadRequest(t *testing.T) {
	events := newChannelHandler()
	h := NewWebhookHandler("secret-token", events)

	w := postWebhook(t, h, `{not json`)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestReceive_MultipleEntriesAllDispatched(t *testing.T) {
	events := newChannelHandler()
	h := NewWebhookHandler("secret-token", events)

	postWebhook(t, h, `{
		"object": "page",
		"entry": [
			{"messaging": [{"sender": {"id": "psid-1"}, "message": {"mid": "mid.1", "text": "hi"}}]},
			{"messaging": [{"sender": {"id": "psid-2"}, "message": {"mid": "mid.2", "text": "hi"}}]}
		]
	}`)

	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		event := events.waitForEvent(t)
		seen[event.subjectID] = true
	}
	if !seen["psid-1"] || !seen["psid-2"] {
		t.Errorf("Expected both subjects dispatched, got %v", seen)
	}
}
