package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/mailpilot/mailpilot/internal/api"
	"github.com/mailpilot/mailpilot/internal/instrumentation"
	"github.com/mailpilot/mailpilot/internal/logging"
)

// Login responses missing one half of the credential/user pair are
// distinct failures, surfaced with distinct messages. Neither is a
// rejected-credentials failure.
var (
	// ErrMissingToken means the backend accepted the credentials but the
	// response carried no access token.
	ErrMissingToken = errors.New("login response did not include an access token")

	// ErrMissingUser means the backend accepted the credentials but the
	// response carried no user profile.
	ErrMissingUser = errors.New("login response did not include a user profile")
)

// Notifier delivers the best-effort logout notification to the backend.
// It is a separate interface so tests can assert that the local session
// clear happens independent of the network call's outcome.
type Notifier interface {
	NotifyLogout(ctx context.Context) error
}

// Store holds the current user identity and credential. The credential
// and user are always set and cleared together, never one without the
// other.
//
// Store implements api.CredentialSource: the API client reads the bearer
// token from here on every request.
type Store struct {
	mu       sync.RWMutex
	state    State
	token    string
	user     *User
	persist  *FileStore
	notifier Notifier
	client   *api.Client
	logger   *slog.Logger
	metrics  *instrumentation.Metrics
	audit    *instrumentation.AuditLogger
}

// NewStore creates a session store. persist may be nil for a purely
// in-memory session (tests); when set, a previously persisted session is
// restored immediately so a process restart does not require re-login.
func NewStore(persist *FileStore, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		state:   StateAnonymous,
		persist: persist,
		logger:  logger,
	}

	if persist != nil {
		token, user, err := persist.Load()
		if err != nil {
			logger.Warn("ignoring unreadable credentials file", logging.Err(err))
		} else if token != "" && user != nil {
			s.token = token
			s.user = user
			s.state = StateAuthenticated
		}
	}
	return s
}

// Attach wires the store to the API client it authenticates and
// subscribes to credential-rejection notifications. Must be called once
// before any operation that reaches the backend.
func (s *Store) Attach(client *api.Client) {
	s.mu.Lock()
	s.client = client
	if s.notifier == nil {
		s.notifier = &clientNotifier{client: client}
	}
	s.mu.Unlock()

	client.OnUnauthorized(s.handleUnauthorized)
}

// Instrument attaches the auth metrics and audit trail. Both are
// optional; an uninstrumented store records nothing.
func (s *Store) Instrument(metrics *instrumentation.Metrics, audit *instrumentation.AuditLogger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics = metrics
	s.audit = audit
}

// SetNotifier overrides the backend logout notifier. Used by tests.
func (s *Store) SetNotifier(n Notifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifier = n
}

// Token implements api.CredentialSource.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns the current user profile, or nil when anonymous.
func (s *Store) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// State returns the current session state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Authenticated reports whether a credential and user are held.
func (s *Store) Authenticated() bool {
	return s.State() == StateAuthenticated
}

// Login authenticates with the backend and stores credential and user
// atomically on success. A 200 response missing either half is reported
// via ErrMissingToken or ErrMissingUser, which are distinguishable from a
// rejected-credentials failure.
func (s *Store) Login(ctx context.Context, email, password string) (*User, error) {
	client := s.apiClient()
	if client == nil {
		return nil, errors.New("session store is not attached to an API client")
	}

	ctx, span := instrumentation.StartStoreSpan(ctx, "session", "login")
	defer span.End()
	start := time.Now()

	s.setState(StateAuthenticating)

	var resp loginResponse
	err := client.Post(ctx, "login", "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &resp)
	if err != nil {
		s.clearLocal()
		s.recordAuth(ctx, span, "login", email, start, err)
		return nil, err
	}

	if resp.AccessToken == "" {
		s.clearLocal()
		s.recordAuth(ctx, span, "login", email, start, ErrMissingToken)
		return nil, ErrMissingToken
	}
	if resp.User == nil {
		s.clearLocal()
		s.recordAuth(ctx, span, "login", email, start, ErrMissingUser)
		return nil, ErrMissingUser
	}

	s.setSession(resp.AccessToken, resp.User)
	s.recordAuth(ctx, span, "login", resp.User.Email, start, nil)
	s.logger.Info("logged in",
		logging.Operation("login"),
		logging.UserHash(resp.User.Email))
	return resp.User, nil
}

// Register creates an account. Any existing session data is cleared
// first so a stale session is never mixed with a new registration. When
// the response includes a credential the registration is an auto-login;
// otherwise the account requires separate verification and the session
// stays anonymous.
func (s *Store) Register(ctx context.Context, input RegisterInput) (*RegisterResult, error) {
	client := s.apiClient()
	if client == nil {
		return nil, errors.New("session store is not attached to an API client")
	}

	ctx, span := instrumentation.StartStoreSpan(ctx, "session", "register")
	defer span.End()
	start := time.Now()

	s.clearLocal()
	s.setState(StateAuthenticating)

	var resp loginResponse
	if err := client.Post(ctx, "register", "/auth/register", input, &resp); err != nil {
		s.clearLocal()
		s.recordAuth(ctx, span, "register", input.Email, start, err)
		return nil, err
	}

	s.recordAuth(ctx, span, "register", input.Email, start, nil)

	if resp.AccessToken != "" && resp.User != nil {
		s.setSession(resp.AccessToken, resp.User)
		s.logger.Info("registered and logged in",
			logging.Operation("register"),
			logging.UserHash(resp.User.Email))
		return &RegisterResult{AutoLogin: true, Message: resp.Message, User: resp.User}, nil
	}

	s.clearLocal()
	msg := resp.Message
	if msg == "" {
		msg = "Registration successful. Please verify your email before logging in."
	}
	return &RegisterResult{AutoLogin: false, Message: msg, User: resp.User}, nil
}

// Logout clears the local session synchronously and immediately, then
// notifies the backend best-effort in the background. A failure of the
// backend notification is logged, never surfaced.
func (s *Store) Logout() {
	s.mu.RLock()
	notifier := s.notifier
	s.mu.RUnlock()

	var email string
	if u := s.User(); u != nil {
		email = u.Email
	}

	s.clearLocal()
	s.logger.Info("logged out", logging.Operation("logout"))
	s.recordAuth(context.Background(), nil, "logout", email, time.Now(), nil)

	if notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), api.DefaultTimeout)
		defer cancel()
		if err := notifier.NotifyLogout(ctx); err != nil {
			s.logger.Debug("backend logout notification failed", logging.Err(err))
		}
	}()
}

// CheckAuth validates the stored credential against the backend. It is
// run at startup when a persisted session exists. The session is cleared
// only when the credential is actually rejected; a backend that cannot be
// reached ("could not verify") keeps the local session intact, so a
// transient network blip never logs the user out.
func (s *Store) CheckAuth(ctx context.Context) error {
	client := s.apiClient()
	if client == nil {
		return errors.New("session store is not attached to an API client")
	}
	if s.Token() == "" {
		return nil
	}

	ctx, span := instrumentation.StartStoreSpan(ctx, "session", "checkAuth")
	defer span.End()

	var user User
	err := client.Get(ctx, "checkAuth", "/auth/me", nil, &user)
	if err == nil {
		instrumentation.SetSpanSuccess(span)
		// Refresh the profile alongside the validated credential.
		s.mu.Lock()
		s.user = &user
		token := s.token
		s.mu.Unlock()
		s.save(token, &user)
		return nil
	}
	instrumentation.SetSpanError(span, err)

	if api.IsUnauthorized(err) {
		// The OnUnauthorized subscription has already cleared the
		// session; clearing again is harmless and keeps this path
		// correct even for an unattached client.
		s.clearLocal()
		return fmt.Errorf("stored credential was rejected: %w", err)
	}
	return fmt.Errorf("could not verify stored credential: %w", err)
}

// Refresh exchanges the current credential for a fresh one.
func (s *Store) Refresh(ctx context.Context) error {
	client := s.apiClient()
	if client == nil {
		return errors.New("session store is not attached to an API client")
	}

	var resp loginResponse
	if err := client.Post(ctx, "refreshToken", "/auth/refresh", nil, &resp); err != nil {
		return err
	}
	if resp.AccessToken == "" {
		return ErrMissingToken
	}

	s.mu.Lock()
	s.token = resp.AccessToken
	user := s.user
	s.mu.Unlock()
	s.save(resp.AccessToken, user)
	return nil
}

type messageResponse struct {
	Message string `json:"message"`
}

// VerifyEmail submits an email verification token.
func (s *Store) VerifyEmail(ctx context.Context, token string) (string, error) {
	client := s.apiClient()
	if client == nil {
		return "", errors.New("session store is not attached to an API client")
	}

	var resp messageResponse
	q := url.Values{}
	q.Set("token", token)
	if err := client.Do(ctx, "verifyEmail", "POST", "/auth/verify-email", q, nil, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// ForgotPassword requests a password reset link for email.
func (s *Store) ForgotPassword(ctx context.Context, email string) (string, error) {
	client := s.apiClient()
	if client == nil {
		return "", errors.New("session store is not attached to an API client")
	}

	var resp messageResponse
	err := client.Post(ctx, "forgotPassword", "/auth/forgot-password", map[string]string{"email": email}, &resp)
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}

// ResetPassword sets a new password using a reset token.
func (s *Store) ResetPassword(ctx context.Context, token, newPassword string) (string, error) {
	client := s.apiClient()
	if client == nil {
		return "", errors.New("session store is not attached to an API client")
	}

	var resp messageResponse
	err := client.Post(ctx, "resetPassword", "/auth/reset-password", map[string]string{
		"token":        token,
		"new_password": newPassword,
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (s *Store) apiClient() *api.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.client
}

func (s *Store) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *Store) setSession(token string, user *User) {
	s.mu.Lock()
	s.token = token
	s.user = user
	s.state = StateAuthenticated
	s.mu.Unlock()
	s.logger.Debug("session credential stored",
		logging.UserHash(user.Email),
		slog.String("token", logging.SanitizeToken(token)))
	s.save(token, user)
}

func (s *Store) clearLocal() {
	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.state = StateAnonymous
	persist := s.persist
	s.mu.Unlock()

	if persist != nil {
		if err := persist.Clear(); err != nil {
			s.logger.Warn("failed to clear persisted credentials", logging.Err(err))
		}
	}
}

func (s *Store) save(token string, user *User) {
	s.mu.RLock()
	persist := s.persist
	s.mu.RUnlock()

	if persist == nil {
		return
	}
	if err := persist.Save(token, user); err != nil {
		s.logger.Warn("failed to persist credentials", logging.Err(err))
	}
}

// recordAuth closes out one auth operation on the span, the auth-attempt
// counter and the audit trail. span may be nil for operations that do
// not open one.
func (s *Store) recordAuth(ctx context.Context, span trace.Span, op, email string, start time.Time, err error) {
	result := instrumentation.StatusSuccess
	if err != nil {
		result = instrumentation.StatusError
	}
	if span != nil {
		if err != nil {
			instrumentation.SetSpanError(span, err)
		} else {
			instrumentation.SetSpanSuccess(span)
		}
	}

	s.mu.RLock()
	metrics, audit := s.metrics, s.audit
	s.mu.RUnlock()

	metrics.RecordAuthAttempt(ctx, op, result)

	event := instrumentation.AuthEvent{
		Operation: op,
		UserEmail: email,
		StartTime: start,
		Duration:  time.Since(start),
		Success:   err == nil,
	}
	if err != nil {
		event.Error = err.Error()
	}
	audit.Record(ctx, event)
}

func (s *Store) handleUnauthorized() {
	if s.State() == StateAnonymous {
		return
	}
	s.logger.Info("credential rejected by backend, clearing session",
		logging.Operation("unauthorized"))
	s.clearLocal()
}

// clientNotifier sends the logout notification over the API client. The
// backend's logout endpoint is unauthenticated, so the request is valid
// even though the local credential has already been cleared.
type clientNotifier struct {
	client *api.Client
}

func (n *clientNotifier) NotifyLogout(ctx context.Context) error {
	return n.client.Post(ctx, "logout", "/auth/logout", nil, nil)
}
