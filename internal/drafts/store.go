package drafts

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mailpilot/mailpilot/internal/api"
	"github.com/mailpilot/mailpilot/internal/logging"
)

// AuthState reports whether a user session is active.
type AuthState interface {
	Authenticated() bool
}

// Store holds drafts locally first: create, edit and delete mutate the
// in-memory set immediately, and are mirrored to the backend when a
// session is active. Anonymous drafts live only in memory.
type Store struct {
	mu     sync.RWMutex
	drafts map[string]Draft

	client *api.Client
	auth   AuthState
	logger *slog.Logger
	now    func() time.Time
}

// NewStore creates an empty draft store.
func NewStore(client *api.Client, auth AuthState, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		drafts: make(map[string]Draft),
		client: client,
		auth:   auth,
		logger: logging.WithStore(logger, "drafts"),
		now:    time.Now,
	}
}

func (s *Store) authenticated() bool {
	return s.auth != nil && s.auth.Authenticated()
}

// Load fetches the user's drafts from the backend and replaces the local
// set. Without a session the local set is kept as-is.
func (s *Store) Load(ctx context.Context) error {
	if !s.authenticated() {
		return nil
	}

	var records []draftRecord
	if err := s.client.Get(ctx, "loadDrafts", "/drafts", nil, &records); err != nil {
		return err
	}

	next := make(map[string]Draft, len(records))
	for _, r := range records {
		next[r.ID] = r.draft()
	}

	s.mu.Lock()
	s.drafts = next
	s.mu.Unlock()
	return nil
}

// List returns the drafts ordered by most recently updated first.
func (s *Store) List() []Draft {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Draft, 0, len(s.drafts))
	for _, d := range s.drafts {
		out = append(out, d)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].UpdatedAt != out[j].UpdatedAt {
			return out[i].UpdatedAt > out[j].UpdatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Get returns the draft with the given id.
func (s *Store) Get(id string) (Draft, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.drafts[id]
	return d, ok
}

// Create adds a draft. It is stored locally immediately; with an active
// session it is also persisted and the server-assigned id and timestamps
// are adopted.
func (s *Store) Create(ctx context.Context, draft Draft) (Draft, error) {
	if draft.Status == "" {
		draft.Status = StatusDraft
	}
	if draft.ID == "" {
		draft.ID = uuid.NewString()
	}
	stamp := s.now().UTC().Format(time.RFC3339)
	draft.CreatedAt = stamp
	draft.UpdatedAt = stamp

	s.mu.Lock()
	s.drafts[draft.ID] = draft
	s.mu.Unlock()

	if !s.authenticated() {
		return draft, nil
	}

	var created draftRecord
	if err := s.client.Post(ctx, "createDraft", "/drafts", draft.record(), &created); err != nil {
		return draft, err
	}

	// Adopt the server record under its id, dropping the provisional one.
	persisted := created.draft()
	s.mu.Lock()
	delete(s.drafts, draft.ID)
	s.drafts[persisted.ID] = persisted
	s.mu.Unlock()

	s.logger.Info("draft created",
		logging.Operation("createDraft"), slog.String("draft_id", persisted.ID))
	return persisted, nil
}

// Update edits a draft in place and mirrors the change to the backend
// when a session is active.
func (s *Store) Update(ctx context.Context, draft Draft) (Draft, error) {
	s.mu.Lock()
	if _, ok := s.drafts[draft.ID]; !ok {
		s.mu.Unlock()
		return Draft{}, fmt.Errorf("draft %s not found", draft.ID)
	}
	draft.UpdatedAt = s.now().UTC().Format(time.RFC3339)
	s.drafts[draft.ID] = draft
	s.mu.Unlock()

	if !s.authenticated() {
		return draft, nil
	}

	var updated draftRecord
	err := s.client.Put(ctx, "updateDraft", "/drafts/"+draft.ID, draft.record(), &updated)
	if err != nil {
		return draft, err
	}
	persisted := updated.draft()
	s.mu.Lock()
	s.drafts[persisted.ID] = persisted
	s.mu.Unlock()
	return persisted, nil
}

// Delete removes a draft locally and, with an active session, from the
// backend.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	if _, ok := s.drafts[id]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("draft %s not found", id)
	}
	delete(s.drafts, id)
	s.mu.Unlock()

	if !s.authenticated() {
		return nil
	}
	return s.client.Delete(ctx, "deleteDraft", "/drafts/"+id, nil)
}

// MarkReady transitions a draft to the ready state.
func (s *Store) MarkReady(ctx context.Context, id string) (Draft, error) {
	s.mu.RLock()
	d, ok := s.drafts[id]
	s.mu.RUnlock()
	if !ok {
		return Draft{}, fmt.Errorf("draft %s not found", id)
	}
	d.Status = StatusReady
	return s.Update(ctx, d)
}
