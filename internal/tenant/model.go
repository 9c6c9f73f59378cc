package tenant

import "time"

// Tenant carries per-tenant settings, including the credentials for the
// external accounting and messaging systems. Credentials are read per
// request and handed to the clients at call time; nothing tenant-specific
// lives in package-level state.
type Tenant struct {
	ID       int    `db:"id" json:"id"`
	Name     string `db:"name" json:"name"`
	Currency string `db:"currency" json:"currency"`

	ZohoOrgID        string `db:"zoho_org_id" json:"-"`
	ZohoClientID     string `db:"zoho_client_id" json:"-"`
	ZohoClientSecret string `db:"zoho_client_secret" json:"-"`
	ZohoRefreshToken string `db:"zoho_refresh_token" json:"-"`

	WhatsAppPhoneID string `db:"whatsapp_phone_id" json:"-"`
	WhatsAppToken   string `db:"whatsapp_token" json:"-"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// HasInvoicing reports whether the tenant is wired to the external
// accounting system at all. Tenants without credentials skip invoicing.
func (t *Tenant) HasInvoicing() bool {
	return t.ZohoOrgID != "" && t.ZohoClientID != "" && t.ZohoRefreshToken != ""
}
