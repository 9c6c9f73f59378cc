package invoice

import "context"

// Client is the narrow surface of the external invoicing API. Implemented
// by ZohoClient; tests substitute a mock. OAuth refresh is the client's
// problem, callers only hand over per-tenant credentials.
type Client interface {
	CreateInvoice(ctx context.Context, creds Credentials, req CreateInvoiceRequest) (string, error)
	GetInvoiceStatus(ctx context.Context, creds Credentials, invoiceID string) (*Status, error)
	SendInvoiceEmail(ctx context.Context, creds Credentials, invoiceID, email string) error
	InvoiceURL(ctx context.Context, creds Credentials, invoiceID string) (string, error)
}

// DocumentSender delivers a hosted document over WhatsApp using the
// tenant's own phone number id and token.
type DocumentSender interface {
	SendDocument(ctx context.Context, phoneID, token, to, link, caption string) error
}
