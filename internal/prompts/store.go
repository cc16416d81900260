package prompts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/mailpilot/mailpilot/internal/api"
	"github.com/mailpilot/mailpilot/internal/logging"
)

// ErrSystemPrompt is returned when a mutation targets a system prompt.
// The guard runs locally so no request is issued for an operation the
// backend would reject anyway.
var ErrSystemPrompt = errors.New("system prompts cannot be modified or deleted")

// Store holds the prompt templates.
type Store struct {
	mu      sync.RWMutex
	prompts map[string]Prompt

	client *api.Client
	logger *slog.Logger
}

// NewStore creates an empty prompt store.
func NewStore(client *api.Client, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		prompts: make(map[string]Prompt),
		client:  client,
		logger:  logging.WithStore(logger, "prompts"),
	}
}

// Load fetches all prompt templates and replaces the local set.
func (s *Store) Load(ctx context.Context) error {
	var prompts []Prompt
	if err := s.client.Get(ctx, "loadPrompts", "/prompts", nil, &prompts); err != nil {
		return err
	}

	next := make(map[string]Prompt, len(prompts))
	for _, p := range prompts {
		next[p.ID] = p
	}

	s.mu.Lock()
	s.prompts = next
	s.mu.Unlock()
	return nil
}

// List returns the prompts ordered by category, then name.
func (s *Store) List() []Prompt {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Prompt, 0, len(s.prompts))
	for _, p := range s.prompts {
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Get returns the prompt with the given id.
func (s *Store) Get(id string) (Prompt, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.prompts[id]
	return p, ok
}

// Active returns the active prompt for a category, if any.
func (s *Store) Active(category string) (Prompt, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.prompts {
		if p.Category == category && p.IsActive {
			return p, true
		}
	}
	return Prompt{}, false
}

// Create adds a user prompt. The backend assigns the id and starts the
// version at 1 with is_system false.
func (s *Store) Create(ctx context.Context, p Prompt) (Prompt, error) {
	var created Prompt
	if err := s.client.Post(ctx, "createPrompt", "/prompts", p.input(), &created); err != nil {
		return Prompt{}, err
	}

	s.mu.Lock()
	s.prompts[created.ID] = created
	s.mu.Unlock()

	s.logger.Info("prompt created",
		logging.Operation("createPrompt"),
		slog.String("category", created.Category))

	// Activating a prompt deactivates the others in its category on the
	// server, so the local view has to be refreshed.
	if created.IsActive {
		if err := s.Load(ctx); err != nil {
			return created, err
		}
	}
	return created, nil
}

// Update edits a user prompt. The server increments the version by one
// and the store mirrors the returned record.
func (s *Store) Update(ctx context.Context, p Prompt) (Prompt, error) {
	existing, ok := s.Get(p.ID)
	if !ok {
		return Prompt{}, fmt.Errorf("prompt %s not found", p.ID)
	}
	if existing.IsSystem {
		return Prompt{}, ErrSystemPrompt
	}

	var updated Prompt
	err := s.client.Put(ctx, "updatePrompt", "/prompts/"+p.ID, p.input(), &updated)
	if err != nil {
		return Prompt{}, err
	}

	s.mu.Lock()
	s.prompts[updated.ID] = updated
	s.mu.Unlock()

	if updated.IsActive && !existing.IsActive {
		if err := s.Load(ctx); err != nil {
			return updated, err
		}
	}
	return updated, nil
}

// Delete removes a user prompt. System prompts are rejected locally.
func (s *Store) Delete(ctx context.Context, id string) error {
	existing, ok := s.Get(id)
	if !ok {
		return fmt.Errorf("prompt %s not found", id)
	}
	if existing.IsSystem {
		return ErrSystemPrompt
	}

	if err := s.client.Delete(ctx, "deletePrompt", "/prompts/"+id, nil); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.prompts, id)
	s.mu.Unlock()
	return nil
}
