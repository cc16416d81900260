// Package provider runs the OAuth consent flow for Gmail and Outlook
// and shapes the resulting tokens into the opaque credential fields the
// backend's connect endpoints expect. The backend owns the provider
// APIs; this layer only obtains and ferries tokens.
package provider

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/microsoft"

	"github.com/mailpilot/mailpilot/internal/accounts"
)

// OOBRedirect is the out-of-band redirect for terminal flows: the
// provider shows the code for the user to paste back.
const OOBRedirect = "urn:ietf:wg:oauth:2.0:oob"

var gmailScopes = []string{"https://mail.google.com/"}

var outlookScopes = []string{
	"https://graph.microsoft.com/Mail.ReadWrite",
	"https://graph.microsoft.com/Mail.Send",
	"offline_access",
}

// Flow is a configured OAuth consent flow for one provider.
type Flow struct {
	provider string
	conf     *oauth2.Config
}

// Gmail builds the Google consent flow. An empty redirectURL falls back
// to the out-of-band flow.
func Gmail(clientID, clientSecret, redirectURL string) *Flow {
	if redirectURL == "" {
		redirectURL = OOBRedirect
	}
	return &Flow{
		provider: accounts.ProviderGmail,
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     google.Endpoint,
			RedirectURL:  redirectURL,
			Scopes:       gmailScopes,
		},
	}
}

// Outlook builds the Microsoft consent flow.
func Outlook(clientID, clientSecret, redirectURL string) *Flow {
	if redirectURL == "" {
		redirectURL = OOBRedirect
	}
	return &Flow{
		provider: accounts.ProviderOutlook,
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     microsoft.AzureADEndpoint("common"),
			RedirectURL:  redirectURL,
			Scopes:       outlookScopes,
		},
	}
}

// Provider names which provider this flow belongs to.
func (f *Flow) Provider() string {
	return f.provider
}

// AuthURL returns the consent URL to open in a browser. Offline access
// is requested so the backend receives a refresh token.
func (f *Flow) AuthURL(state string) string {
	return f.conf.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades an authorization code for tokens and returns them as
// the credential fields of the connect payload.
func (f *Flow) Exchange(ctx context.Context, code, email string) (accounts.Credentials, error) {
	if f.conf.ClientID == "" {
		return nil, fmt.Errorf("%s OAuth client is not configured", f.provider)
	}

	token, err := f.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange %s auth code: %w", f.provider, err)
	}

	creds := accounts.Credentials{
		"access_token":  token.AccessToken,
		"refresh_token": token.RefreshToken,
		"email":         email,
	}
	if !token.Expiry.IsZero() {
		creds["token_expiry"] = token.Expiry.UTC().Format(time.RFC3339)
	}
	return creds, nil
}
