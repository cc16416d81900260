package inbox

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"

	"github.com/mailpilot/mailpilot/internal/api"
	"github.com/mailpilot/mailpilot/internal/logging"
)

// AuthState exposes the session store's authentication flag. Collection
// stores read it to decide between backend data and the fixture set.
type AuthState interface {
	Authenticated() bool
}

// Store holds the working set of emails keyed by id and exposes derived
// filtered, sorted views. Storage order is irrelevant; ordering is applied
// at view time by the active sort criterion.
type Store struct {
	mu      sync.RWMutex
	emails  map[string]Email
	fromFix bool

	client *api.Client
	auth   AuthState
	logger *slog.Logger
}

// NewStore creates an empty email store.
func NewStore(client *api.Client, auth AuthState, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		emails: make(map[string]Email),
		client: client,
		auth:   auth,
		logger: logging.WithStore(logger, "inbox"),
	}
}

// Load populates the working set. Unauthenticated sessions get the fixture
// set. Authenticated sessions fetch from the backend; if the fetch fails
// the store still falls back to the fixture set rather than showing an
// empty inbox, and the error is returned so the caller can render a
// banner. The fallback is a deliberate degrade-gracefully policy.
func (s *Store) Load(ctx context.Context) error {
	if s.auth == nil || !s.auth.Authenticated() {
		s.replaceAll(fixtureEmails(), true)
		return nil
	}

	var emails []Email
	err := s.client.Get(ctx, "loadEmails", "/emails/my-inbox", nil, &emails)
	if err != nil {
		s.logger.Warn("inbox fetch failed, falling back to fixture data",
			logging.Operation("loadEmails"), logging.Err(err))
		s.replaceAll(fixtureEmails(), true)
		return err
	}

	s.replaceAll(emails, false)
	s.logger.Debug("inbox loaded",
		logging.Operation("loadEmails"), slog.Int("count", len(emails)))
	return nil
}

// FromFixture reports whether the current working set is the fallback
// fixture data rather than backend data.
func (s *Store) FromFixture() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fromFix
}

// Len returns the size of the working set before filtering.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.emails)
}

// View returns the working set filtered by f and sorted by order.
func (s *Store) View(f Filter, order SortOrder) []Email {
	s.mu.RLock()
	all := make([]Email, 0, len(s.emails))
	for _, e := range s.emails {
		all = append(all, e)
	}
	s.mu.RUnlock()

	return Apply(all, f, order)
}

// Get returns the email with the given id.
func (s *Store) Get(id string) (Email, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.emails[id]
	return e, ok
}

// UpdateCategory optimistically updates local state and, when
// authenticated, persists the change. A persistence failure propagates to
// the caller while the local update stays in place; the optimistic write
// is not rolled back (see DESIGN.md).
func (s *Store) UpdateCategory(ctx context.Context, id, category string) error {
	s.mu.Lock()
	e, ok := s.emails[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("email %q not found", id)
	}
	e.Category = category
	s.emails[id] = e
	s.mu.Unlock()

	if s.auth == nil || !s.auth.Authenticated() {
		return nil
	}

	q := url.Values{}
	q.Set("category", category)
	err := s.client.Do(ctx, "updateCategory", "PUT", "/emails/"+id+"/category", q, nil, nil)
	if err != nil {
		s.logger.Warn("category update not persisted",
			logging.Operation("updateCategory"), logging.EmailID(id), logging.Err(err))
		return err
	}
	return nil
}

// MarkRead marks an email as read. Read state is client-side only.
func (s *Store) MarkRead(id string) error {
	return s.mutate(id, func(e *Email) { e.IsRead = true })
}

// Archive archives an email. Archive state is client-side only.
func (s *Store) Archive(id string) error {
	return s.mutate(id, func(e *Email) { e.IsArchived = true })
}

// SyncAll asks the backend to sync connected accounts into the inbox and
// then reloads the working set. The reload waits for the sync response;
// this is sequential dependent awaiting, not fire-and-forget.
func (s *Store) SyncAll(ctx context.Context) (*SyncResult, error) {
	var result SyncResult
	if err := s.client.Post(ctx, "syncEmails", "/emails/sync", nil, &result); err != nil {
		return nil, err
	}
	if err := s.Load(ctx); err != nil {
		return &result, err
	}
	return &result, nil
}

// LoadMock asks the backend to seed the account with demo emails and
// reloads. Development convenience carried over from the product.
func (s *Store) LoadMock(ctx context.Context) error {
	if err := s.client.Post(ctx, "loadMockEmails", "/emails/load-mock", nil, nil); err != nil {
		return err
	}
	return s.Load(ctx)
}

func (s *Store) mutate(id string, fn func(*Email)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.emails[id]
	if !ok {
		return fmt.Errorf("email %q not found", id)
	}
	fn(&e)
	s.emails[id] = e
	return nil
}

func (s *Store) replaceAll(emails []Email, fromFixture bool) {
	next := make(map[string]Email, len(emails))
	for _, e := range emails {
		next[e.ID] = e
	}

	s.mu.Lock()
	s.emails = next
	s.fromFix = fromFixture
	s.mu.Unlock()
}
