package invoice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// ZohoClient talks to the Zoho Invoice REST API. Access tokens are minted
// from each tenant's refresh token and cached per organization until close
// to expiry. Credentials arrive with every call, so one client instance
// serves all tenants without holding tenant secrets itself.
type ZohoClient struct {
	baseURL string
	authURL string
	http    *http.Client

	mu     sync.Mutex
	tokens map[string]cachedToken // keyed by org id
}

type cachedToken struct {
	accessToken string
	expiresAt   time.Time
}

func NewZohoClient(baseURL, authURL string, timeout time.Duration) *ZohoClient {
	return &ZohoClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		authURL: authURL,
		http:    &http.Client{Timeout: timeout},
		tokens:  make(map[string]cachedToken),
	}
}

func (z *ZohoClient) accessToken(ctx context.Context, creds Credentials) (string, error) {
	z.mu.Lock()
	cached, ok := z.tokens[creds.OrgID]
	z.mu.Unlock()
	if ok && time.Now().Before(cached.expiresAt) {
		return cached.accessToken, nil
	}

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {creds.RefreshToken},
		"client_id":     {creds.ClientID},
		"client_secret": {creds.ClientSecret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, z.authURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := z.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("token refresh failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token refresh failed: status %d", resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("token refresh failed: %w", err)
	}
	if body.AccessToken == "" {
		return "", errors.New("token refresh failed: empty access token")
	}

	expiry := time.Now().Add(time.Duration(body.ExpiresIn)*time.Second - time.Minute)
	z.mu.Lock()
	z.tokens[creds.OrgID] = cachedToken{accessToken: body.AccessToken, expiresAt: expiry}
	z.mu.Unlock()

	return body.AccessToken, nil
}

func (z *ZohoClient) do(ctx context.Context, creds Credentials, method, path string, payload, out interface{}) error {
	token, err := z.accessToken(ctx, creds)
	if err != nil {
		return err
	}

	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, z.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Zoho-oauthtoken "+token)
	req.Header.Set("X-com-zoho-invoice-organizationid", creds.OrgID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := z.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return fmt.Errorf("zoho api error: status %d code %d: %s", resp.StatusCode, apiErr.Code, apiErr.Message)
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (z *ZohoClient) CreateInvoice(ctx context.Context, creds Credentials, req CreateInvoiceRequest) (string, error) {
	type zohoLine struct {
		Name     string  `json:"name"`
		Quantity int     `json:"quantity"`
		Rate     float64 `json:"rate"`
	}

	lines := make([]zohoLine, 0, len(req.LineItems))
	for _, li := range req.LineItems {
		lines = append(lines, zohoLine{
			Name:     li.Name,
			Quantity: li.Quantity,
			Rate:     float64(li.UnitPriceCents) / 100,
		})
	}

	payload := map[string]interface{}{
		"customer_name": req.CustomerName,
		"email":         req.CustomerEmail,
		"currency_code": req.Currency,
		"line_items":    lines,
		"notes":         req.Notes,
	}

	var out struct {
		Invoice struct {
			InvoiceID string `json:"invoice_id"`
		} `json:"invoice"`
	}
	if err := z.do(ctx, creds, http.MethodPost, "/invoices", payload, &out); err != nil {
		return "", err
	}
	if out.Invoice.InvoiceID == "" {
		return "", errors.New("zoho api error: response carried no invoice id")
	}

	return out.Invoice.InvoiceID, nil
}

func (z *ZohoClient) GetInvoiceStatus(ctx context.Context, creds Credentials, invoiceID string) (*Status, error) {
	var out struct {
		Invoice struct {
			Status  string  `json:"status"`
			Balance float64 `json:"balance"`
		} `json:"invoice"`
	}
	if err := z.do(ctx, creds, http.MethodGet, "/invoices/"+invoiceID, nil, &out); err != nil {
		return nil, err
	}

	return &Status{
		Status:       out.Invoice.Status,
		BalanceCents: int64(math.Round(out.Invoice.Balance * 100)),
	}, nil
}

func (z *ZohoClient) SendInvoiceEmail(ctx context.Context, creds Credentials, invoiceID, email string) error {
	payload := map[string]interface{}{
		"to_mail_ids": []string{email},
	}
	return z.do(ctx, creds, http.MethodPost, "/invoices/"+invoiceID+"/email", payload, nil)
}

func (z *ZohoClient) InvoiceURL(ctx context.Context, creds Credentials, invoiceID string) (string, error) {
	var out struct {
		Invoice struct {
			InvoiceURL string `json:"invoice_url"`
		} `json:"invoice"`
	}
	if err := z.do(ctx, creds, http.MethodGet, "/invoices/"+invoiceID, nil, &out); err != nil {
		return "", err
	}
	if out.Invoice.InvoiceURL == "" {
		return "", errors.New("zoho api error: response carried no invoice url")
	}

	return out.Invoice.InvoiceURL, nil
}
