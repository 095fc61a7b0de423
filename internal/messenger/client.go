// Package messenger implements the outbound platform Send API client.
package messenger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jmrelampagos/pagereply/internal/domain"
)

const defaultBaseURL = "https://graph.facebook.com/v19.0"

// Sender is the outbound capability the engagement core depends on. The
// core only inspects success/failure, never the error payload.
type Sender interface {
	// SendText delivers a plain text message to a subject.
	SendText(ctx context.Context, subjectID, text string) error

	// SendMediaBatch delivers a chunk of media items in one call.
	SendMediaBatch(ctx context.Context, subjectID string, items []domain.MediaDescriptor) error

	// SendSingleMedia delivers one media item as a bare attachment.
	SendSingleMedia(ctx context.Context, subjectID string, item domain.MediaDescriptor) error
}

// Client implements Sender against the platform's Send API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// NewClient creates a Send API client for the given page access token.
func NewClient(token string) *Client {
	return NewClientWithBaseURL(token, defaultBaseURL)
}

// NewClientWithBaseURL creates a client against a custom API endpoint.
// Used by tests to point at a local server.
func NewClientWithBaseURL(token, baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    baseURL,
		token:      token,
	}
}

type sendRequest struct {
	Recipient recipient `json:"recipient"`
	Message   message   `json:"message"`
}

type recipient struct {
	ID string `json:"id"`
}

type message struct {
	Text       string      `json:"text,omitempty"`
	Attachment *attachment `json:"attachment,omitempty"`
}

type attachment struct {
	Type    string            `json:"type"`
	Payload attachmentPayload `json:"payload"`
}

type attachmentPayload struct {
	URL          string            `json:"url,omitempty"`
	IsReusable   bool              `json:"is_reusable,omitempty"`
	TemplateType string            `json:"template_type,omitempty"`
	Elements     []templateElement `json:"elements,omitempty"`
}

type templateElement struct {
	MediaType string `json:"media_type"`
	URL       string `json:"url"`
}

// SendText delivers a plain text message to a subject.
func (c *Client) SendText(ctx context.Context, subjectID, text string) error {
	return c.post(ctx, sendRequest{
		Recipient: recipient{ID: subjectID},
		Message:   message{Text: text},
	})
}

// SendMediaBatch delivers a chunk of media items as one template call.
func (c *Client) SendMediaBatch(ctx context.Context, subjectID string, items []domain.MediaDescriptor) error {
	elements := make([]templateElement, 0, len(items))
	for _, item := range items {
		elements = append(elements, templateElement{
			MediaType: string(item.Kind),
			URL:       item.URL,
		})
	}
	return c.post(ctx, sendRequest{
		Recipient: recipient{ID: subjectID},
		Message: message{
			Attachment: &attachment{
				Type: "template",
				Payload: attachmentPayload{
					TemplateType: "media",
					Elements:     elements,
				},
			},
		},
	})
}

// SendSingleMedia delivers one media item as a bare attachment.
func (c *Client) SendSingleMedia(ctx context.Context, subjectID string, item domain.MediaDescriptor) error {
	return c.post(ctx, sendRequest{
		Recipient: recipient{ID: subjectID},
		Message: message{
			Attachment: &attachment{
				Type: string(item.Kind),
				Payload: attachmentPayload{
					URL:        item.URL,
					IsReusable: true,
				},
			},
		},
	})
}

func (c *Client) post(ctx context.Context, payload sendRequest) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal send request: %w", err)
	}

	url := c.baseURL + "/me/messages?access_token=" + c.token
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call send API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("send API returned %d: %s", resp.StatusCode, detail)
	}
	return nil
}
