package accounts

// Supported email providers.
const (
	ProviderGmail   = "gmail"
	ProviderOutlook = "outlook"
)

// Account is a connected email-provider account.
type Account struct {
	ID          string `json:"id"`
	Provider    string `json:"provider"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
	IsActive    bool   `json:"is_active"`
	IsPrimary   bool   `json:"is_primary"`
	LastSync    string `json:"last_sync,omitempty"`
	SyncEnabled bool   `json:"sync_enabled"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// Credentials is an opaque collection of provider-specific fields
// (tokens, client ids, tenant ids). This layer never inspects them; the
// backend validates and exchanges them.
type Credentials map[string]string

// connectResponse is the backend envelope for connect operations.
type connectResponse struct {
	Status  string   `json:"status"`
	Message string   `json:"message"`
	Account *Account `json:"account"`
}

// SyncResult reports the outcome of a per-account sync.
type SyncResult struct {
	Status  string   `json:"status"`
	Message string   `json:"message"`
	Account *Account `json:"account"`
}

// authURLResponse carries the provider consent URL built by the backend.
type authURLResponse struct {
	AuthURL string `json:"auth_url"`
}
