package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/sweetcrumb/bakebill-api/internal/config"
)

// Client performs the raw messaging platform calls. It knows nothing about
// bills; the delivery service drives the protocol state machine on top.
type Client struct {
	http    *http.Client
	baseURL string
	channel string
	token   string
}

// NewClient builds a client from validated configuration. Every outbound
// call carries the configured timeout.
func NewClient(cfg *config.WhatsAppConfig) *Client {
	return &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.APIBaseURL,
		channel: cfg.PhoneNumberID,
		token:   cfg.AccessToken,
	}
}

// SendTemplate sends the pre-approved template message that opens (or
// refreshes) the conversation window for the recipient.
func (c *Client) SendTemplate(ctx context.Context, to, templateName, languageCode string) error {
	payload := map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "template",
		"template": map[string]any{
			"name":     templateName,
			"language": map[string]string{"code": languageCode},
		},
	}
	var out json.RawMessage
	return c.postJSON(ctx, "/messages", payload, &out)
}

// UploadMedia submits the document bytes to the platform's media endpoint
// and returns the opaque media handle.
func (c *Client) UploadMedia(ctx context.Context, data []byte, filename string) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("messaging_product", "whatsapp"); err != nil {
		return "", &APIError{Reason: ReasonUnknown, Message: "building media request: " + err.Error()}
	}
	if err := w.WriteField("type", "application/pdf"); err != nil {
		return "", &APIError{Reason: ReasonUnknown, Message: "building media request: " + err.Error()}
	}
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return "", &APIError{Reason: ReasonUnknown, Message: "building media request: " + err.Error()}
	}
	if _, err := part.Write(data); err != nil {
		return "", &APIError{Reason: ReasonUnknown, Message: "building media request: " + err.Error()}
	}
	if err := w.Close(); err != nil {
		return "", &APIError{Reason: ReasonUnknown, Message: "building media request: " + err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/media"), &buf)
	if err != nil {
		return "", &APIError{Reason: ReasonUnknown, Message: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return "", classifyTransport(err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", classifyResponse(resp.StatusCode, body)
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &result); err != nil || result.ID == "" {
		return "", &APIError{Reason: ReasonUnknown, Message: "media upload returned no handle"}
	}
	return result.ID, nil
}

// SendDocument sends a document message referencing an uploaded media
// handle. Returns the provider message id and canonical recipient id.
func (c *Client) SendDocument(ctx context.Context, to, mediaID, caption, filename string) (messageID, recipientID string, err error) {
	payload := map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "document",
		"document": map[string]string{
			"id":       mediaID,
			"caption":  caption,
			"filename": filename,
		},
	}

	var result struct {
		Messages []struct {
			ID string `json:"id"`
		} `json:"messages"`
		Contacts []struct {
			WaID string `json:"wa_id"`
		} `json:"contacts"`
	}
	if err := c.postJSON(ctx, "/messages", payload, &result); err != nil {
		return "", "", err
	}
	if len(result.Messages) > 0 {
		messageID = result.Messages[0].ID
	}
	if len(result.Contacts) > 0 {
		recipientID = result.Contacts[0].WaID
	}
	if messageID == "" {
		return "", "", &APIError{Reason: ReasonUnknown, Message: "document send returned no message id"}
	}
	return messageID, recipientID, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return &APIError{Reason: ReasonUnknown, Message: "encoding request: " + err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path), bytes.NewReader(body))
	if err != nil {
		return &APIError{Reason: ReasonUnknown, Message: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return classifyTransport(err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return classifyResponse(resp.StatusCode, respBody)
	}
	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return &APIError{Reason: ReasonUnknown, Message: "decoding response: " + err.Error()}
		}
	}
	return nil
}

func (c *Client) endpoint(path string) string {
	return fmt.Sprintf("%s/%s%s", c.baseURL, c.channel, path)
}
