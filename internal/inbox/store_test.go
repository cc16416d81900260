package inbox

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailpilot/mailpilot/internal/api"
)

type fakeAuth bool

func (a fakeAuth) Authenticated() bool { return bool(a) }

func newBackedStore(t *testing.T, authed bool, handler http.Handler) *Store {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := api.NewClient(srv.URL, nil)
	require.NoError(t, err)
	return NewStore(client, fakeAuth(authed), nil)
}

func TestFilterMatchesProperty(t *testing.T) {
	emails := fixtureEmails()

	tests := []struct {
		name     string
		filter   Filter
		category string
		search   string
	}{
		{"no filter", Filter{}, "", ""},
		{"all category", Filter{Category: CategoryAll}, CategoryAll, ""},
		{"category only", Filter{Category: CategorySpam}, CategorySpam, ""},
		{"search only", Filter{Search: "budget"}, "", "budget"},
		{"category and search", Filter{Category: CategoryImportant, Search: "lunch"}, CategoryImportant, "lunch"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Apply(emails, tt.filter, SortNewest)
			seen := make(map[string]bool, len(got))
			for _, e := range got {
				seen[e.ID] = true
			}

			// An email appears in the view iff it satisfies both clauses.
			for _, e := range emails {
				categoryOK := tt.category == "" || tt.category == CategoryAll || e.Category == tt.category
				q := strings.ToLower(tt.search)
				searchOK := tt.search == "" ||
					strings.Contains(strings.ToLower(e.Sender), q) ||
					strings.Contains(strings.ToLower(e.Subject), q) ||
					strings.Contains(strings.ToLower(e.Body), q)
				assert.Equal(t, categoryOK && searchOK, seen[e.ID], "email %s", e.ID)
			}
		})
	}
}

func TestFilterSpamBankScenario(t *testing.T) {
	got := Apply(fixtureEmails(), Filter{Category: CategorySpam, Search: "bank"}, SortNewest)

	require.Len(t, got, 1)
	assert.Equal(t, "URGENT: Your Account Will Be Suspended", got[0].Subject)
	assert.Equal(t, "security@bank-update.com", got[0].Sender)
}

func TestSearchIsCaseInsensitive(t *testing.T) {
	got := Apply(fixtureEmails(), Filter{Search: "URGENT"}, SortNewest)
	require.Len(t, got, 1)
	assert.Equal(t, "4", got[0].ID)

	got = Apply(fixtureEmails(), Filter{Search: "urgent"}, SortNewest)
	require.Len(t, got, 1)
	assert.Equal(t, "4", got[0].ID)
}

func TestSortNewestOldestAreExactReverses(t *testing.T) {
	emails := fixtureEmails()

	newest := Apply(emails, Filter{}, SortNewest)
	oldest := Apply(emails, Filter{}, SortOldest)

	require.Equal(t, len(newest), len(oldest))
	for i := range newest {
		assert.Equal(t, newest[i].ID, oldest[len(oldest)-1-i].ID, "position %d", i)
	}

	// Newest first means non-increasing timestamps.
	for i := 1; i < len(newest); i++ {
		assert.GreaterOrEqual(t, newest[i-1].Timestamp, newest[i].Timestamp)
	}
}

func TestSortBySender(t *testing.T) {
	got := Apply(fixtureEmails(), Filter{}, SortSender)
	for i := 1; i < len(got); i++ {
		assert.LessOrEqual(t, got[i-1].Sender, got[i].Sender)
	}
}

func TestSortAppliedAfterFilter(t *testing.T) {
	got := Apply(fixtureEmails(), Filter{Category: CategoryNewsletter}, SortOldest)
	require.Len(t, got, 2)
	assert.Equal(t, "6", got[0].ID)
	assert.Equal(t, "2", got[1].ID)
}

func TestLoadUnauthenticatedUsesFixture(t *testing.T) {
	store := newBackedStore(t, false, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("unauthenticated load must not hit the backend")
	}))

	require.NoError(t, store.Load(context.Background()))
	assert.True(t, store.FromFixture())
	assert.Equal(t, len(fixtureEmails()), store.Len())
}

func TestLoadAuthenticatedFetchesBackend(t *testing.T) {
	store := newBackedStore(t, true, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/emails/my-inbox", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]Email{
			{ID: "b-1", Sender: "a@example.com", Subject: "hello", Body: "x", Timestamp: "2025-02-01T10:00:00", Category: CategoryImportant},
		})
	}))

	require.NoError(t, store.Load(context.Background()))
	assert.False(t, store.FromFixture())
	assert.Equal(t, 1, store.Len())
	_, ok := store.Get("b-1")
	assert.True(t, ok)
}

func TestLoadFailureFallsBackToFixtureAndReturnsError(t *testing.T) {
	store := newBackedStore(t, true, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail": "Failed to get emails"}`))
	}))

	err := store.Load(context.Background())
	require.Error(t, err, "failure must surface for the error banner")
	assert.True(t, store.FromFixture(), "failure must fall back to fixture, not an empty inbox")
	assert.Equal(t, len(fixtureEmails()), store.Len())
}

func TestUpdateCategoryOptimisticWithoutRollback(t *testing.T) {
	store := newBackedStore(t, true, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/emails/my-inbox" {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(fixtureEmails())
			return
		}
		// Persistence fails.
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail": "update failed"}`))
	}))
	require.NoError(t, store.Load(context.Background()))

	err := store.UpdateCategory(context.Background(), "3", CategoryImportant)
	require.Error(t, err, "persistence failure must propagate to the caller")

	// The optimistic local update stays in place.
	e, ok := store.Get("3")
	require.True(t, ok)
	assert.Equal(t, CategoryImportant, e.Category)
}

func TestUpdateCategoryPersistsWhenAuthenticated(t *testing.T) {
	var gotPath, gotCategory string
	store := newBackedStore(t, true, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/emails/my-inbox" {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(fixtureEmails())
			return
		}
		gotPath = r.URL.Path
		gotCategory = r.URL.Query().Get("category")
		_, _ = w.Write([]byte(`{"message": "Category updated successfully"}`))
	}))
	require.NoError(t, store.Load(context.Background()))

	require.NoError(t, store.UpdateCategory(context.Background(), "2", CategoryImportant))
	assert.Equal(t, "/emails/2/category", gotPath)
	assert.Equal(t, CategoryImportant, gotCategory)
}

func TestUpdateCategoryUnauthenticatedIsLocalOnly(t *testing.T) {
	store := newBackedStore(t, false, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("unauthenticated category update must not hit the backend")
	}))
	require.NoError(t, store.Load(context.Background()))

	require.NoError(t, store.UpdateCategory(context.Background(), "2", CategoryImportant))
	e, _ := store.Get("2")
	assert.Equal(t, CategoryImportant, e.Category)
}

func TestUpdateCategoryUnknownID(t *testing.T) {
	store := NewStore(nil, fakeAuth(false), nil)
	err := store.UpdateCategory(context.Background(), "nope", CategorySpam)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestMarkReadAndArchive(t *testing.T) {
	store := newBackedStore(t, false, http.NewServeMux())
	require.NoError(t, store.Load(context.Background()))

	require.NoError(t, store.MarkRead("1"))
	require.NoError(t, store.Archive("1"))

	e, _ := store.Get("1")
	assert.True(t, e.IsRead)
	assert.True(t, e.IsArchived)
}

func TestSyncAllReloadsAfterSyncResponse(t *testing.T) {
	var order []string
	store := newBackedStore(t, true, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, r.URL.Path)
		switch r.URL.Path {
		case "/emails/sync":
			_, _ = w.Write([]byte(`{"message": "Email sync completed", "synced_at": "2025-02-01T10:00:00"}`))
		case "/emails/my-inbox":
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode([]Email{{ID: "s-1", Sender: "x@example.com", Timestamp: "2025-02-01T09:00:00"}})
		}
	}))

	result, err := store.SyncAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Email sync completed", result.Message)

	// The reload must wait for the sync response: sequential dependent
	// awaiting, not fire-and-forget.
	require.Equal(t, []string{"/emails/sync", "/emails/my-inbox"}, order)
	assert.Equal(t, 1, store.Len())
}
