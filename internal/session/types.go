package session

import "fmt"

// User is the authenticated user's profile as returned by the backend.
// Timestamps are kept as the backend's ISO strings; they are display-only
// on this side.
type User struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	FullName   string `json:"full_name"`
	IsVerified bool   `json:"is_verified"`
	IsActive   bool   `json:"is_active"`
	CreatedAt  string `json:"created_at,omitempty"`
	LastLogin  string `json:"last_login,omitempty"`
}

// State is the session lifecycle state.
type State int

const (
	// StateAnonymous means no credential is held.
	StateAnonymous State = iota

	// StateAuthenticating means a login or registration is in flight.
	StateAuthenticating

	// StateAuthenticated means a credential and user profile are held.
	StateAuthenticated
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// RegisterInput is the payload for account registration.
type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name,omitempty"`
}

// RegisterResult reports the outcome of a registration. When Token is
// empty the account was created but requires separate verification before
// login; Message carries the informational text to show the user.
type RegisterResult struct {
	AutoLogin bool
	Message   string
	User      *User
}

// loginResponse is the backend's login/register envelope.
type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        *User  `json:"user"`
	Message     string `json:"message"`
}
