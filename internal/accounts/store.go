package accounts

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/mailpilot/mailpilot/internal/api"
	"github.com/mailpilot/mailpilot/internal/instrumentation"
	"github.com/mailpilot/mailpilot/internal/logging"
)

// Store holds the connected email-provider accounts. Sync state is
// tracked with an independent in-flight flag per account id, so syncing
// one account never disables controls for another.
type Store struct {
	mu       sync.RWMutex
	accounts []Account
	syncing  map[string]bool

	client  *api.Client
	logger  *slog.Logger
	metrics *instrumentation.Metrics
}

// NewStore creates an empty account store.
func NewStore(client *api.Client, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		syncing: make(map[string]bool),
		client:  client,
		logger:  logging.WithStore(logger, "accounts"),
	}
}

// Instrument attaches the sync metrics. Optional; an uninstrumented
// store records nothing.
func (s *Store) Instrument(metrics *instrumentation.Metrics) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics = metrics
}

// Load fetches the connected accounts from the backend.
func (s *Store) Load(ctx context.Context) ([]Account, error) {
	var accounts []Account
	if err := s.client.Get(ctx, "loadAccounts", "/email-accounts", nil, &accounts); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.accounts = accounts
	s.mu.Unlock()
	return accounts, nil
}

// Accounts returns the last loaded account list.
func (s *Store) Accounts() []Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Account, len(s.accounts))
	copy(out, s.accounts)
	return out
}

// Get returns the account with the given id from the last loaded list.
func (s *Store) Get(id string) (Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.accounts {
		if a.ID == id {
			return a, true
		}
	}
	return Account{}, false
}

// ConnectGmail connects a Gmail account using opaque provider
// credentials and re-fetches the account list on success. The list fetch
// waits for the connect response; dependent calls are awaited in order.
func (s *Store) ConnectGmail(ctx context.Context, creds Credentials) (*Account, error) {
	return s.connect(ctx, "connectGmail", "/email-accounts/connect/gmail", creds)
}

// ConnectGmailCode connects a Gmail account from an OAuth authorization
// code; the backend performs the token exchange.
func (s *Store) ConnectGmailCode(ctx context.Context, code, redirectURI string) (*Account, error) {
	return s.connect(ctx, "connectGmailCode", "/email-accounts/connect/gmail/code", Credentials{
		"code":         code,
		"redirect_uri": redirectURI,
	})
}

// ConnectOutlook connects an Outlook account using opaque provider
// credentials and re-fetches the account list on success.
func (s *Store) ConnectOutlook(ctx context.Context, creds Credentials) (*Account, error) {
	return s.connect(ctx, "connectOutlook", "/email-accounts/connect/outlook", creds)
}

// GmailAuthURL asks the backend for the provider consent URL to begin a
// Gmail connection.
func (s *Store) GmailAuthURL(ctx context.Context, redirectURI string) (string, error) {
	q := url.Values{}
	q.Set("redirect_uri", redirectURI)

	var resp authURLResponse
	err := s.client.Do(ctx, "gmailAuthURL", "GET", "/email-accounts/connect/gmail/url", q, nil, &resp)
	if err != nil {
		return "", err
	}
	return resp.AuthURL, nil
}

// Disconnect removes a connected account and re-fetches the list.
func (s *Store) Disconnect(ctx context.Context, accountID string) error {
	if accountID == "" {
		return fmt.Errorf("accountID cannot be empty")
	}
	if err := s.client.Delete(ctx, "disconnectAccount", "/email-accounts/"+accountID, nil); err != nil {
		return err
	}

	s.logger.Info("account disconnected",
		logging.Operation("disconnectAccount"), logging.Account(accountID))

	if _, err := s.Load(ctx); err != nil {
		return err
	}
	return nil
}

// Sync syncs one account. The in-flight flag for accountID is held for
// the duration; flags for other accounts are untouched. A second sync of
// the same account while one is in flight is rejected locally - the
// backend remains the authority on idempotency for races that slip past
// this check.
func (s *Store) Sync(ctx context.Context, accountID string) (*SyncResult, error) {
	if accountID == "" {
		return nil, fmt.Errorf("accountID cannot be empty")
	}

	s.mu.Lock()
	if s.syncing[accountID] {
		s.mu.Unlock()
		return nil, fmt.Errorf("account %s sync already in progress", accountID)
	}
	s.syncing[accountID] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.syncing, accountID)
		s.mu.Unlock()
	}()

	acct, _ := s.Get(accountID)

	ctx, span := instrumentation.StartStoreSpan(ctx, "accounts", "sync",
		instrumentation.NewSpanAttributeBuilder().
			WithProvider(acct.Provider).
			WithResource("account", accountID).
			Build()...)
	defer span.End()
	start := time.Now()

	var result SyncResult
	err := s.client.Post(ctx, "syncAccount", "/email-accounts/"+accountID+"/sync", nil, &result)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		s.recordSync(ctx, acct, instrumentation.StatusError, time.Since(start))
		return nil, err
	}
	instrumentation.SetSpanSuccess(span)
	s.recordSync(ctx, acct, instrumentation.StatusSuccess, time.Since(start))

	s.logger.Info("account synced",
		logging.Operation("syncAccount"), logging.Account(accountID),
		logging.Status(result.Status))

	// Reload after sync: waits for the sync response above.
	if _, err := s.Load(ctx); err != nil {
		return &result, err
	}
	return &result, nil
}

func (s *Store) recordSync(ctx context.Context, acct Account, result string, duration time.Duration) {
	s.mu.RLock()
	metrics := s.metrics
	s.mu.RUnlock()
	metrics.RecordAccountSync(ctx, acct.Provider, acct.Email, result, duration)
}

// Syncing reports whether a sync for accountID is in flight.
func (s *Store) Syncing(accountID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.syncing[accountID]
}

func (s *Store) connect(ctx context.Context, op, path string, creds Credentials) (*Account, error) {
	var resp connectResponse
	if err := s.client.Post(ctx, op, path, creds, &resp); err != nil {
		return nil, err
	}

	if resp.Account != nil {
		s.logger.Info("account connected",
			logging.Operation(op),
			slog.String("provider", resp.Account.Provider),
			logging.UserHash(resp.Account.Email))
	}

	if _, err := s.Load(ctx); err != nil {
		return resp.Account, err
	}
	return resp.Account, nil
}
