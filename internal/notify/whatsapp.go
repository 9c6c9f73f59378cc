package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// WhatsAppClient sends messages through the WhatsApp Business API. The
// phone number id and token belong to the tenant and are passed per call.
// Retry policy belongs to the caller.
type WhatsAppClient struct {
	baseURL string
	http    *http.Client
}

func NewWhatsAppClient(baseURL string, timeout time.Duration) *WhatsAppClient {
	return &WhatsAppClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (w *WhatsAppClient) post(ctx context.Context, phoneID, token string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		w.baseURL+"/"+phoneID+"/messages", bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("whatsapp api error: status %d", resp.StatusCode)
	}
	return nil
}

func (w *WhatsAppClient) SendDocument(ctx context.Context, phoneID, token, to, link, caption string) error {
	payload := map[string]interface{}{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "document",
		"document": map[string]string{
			"link":    link,
			"caption": caption,
		},
	}
	return w.post(ctx, phoneID, token, payload)
}
