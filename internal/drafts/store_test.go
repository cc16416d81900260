package drafts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailpilot/mailpilot/internal/api"
)

type staticToken string

func (t staticToken) Token() string { return string(t) }

type fakeAuth bool

func (a fakeAuth) Authenticated() bool { return bool(a) }

func newLocalStore(t *testing.T) *Store {
	t.Helper()
	client, err := api.NewClient("http://127.0.0.1:1", staticToken(""))
	require.NoError(t, err)
	return NewStore(client, fakeAuth(false), nil)
}

func newBackedStore(t *testing.T, handler http.Handler) *Store {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := api.NewClient(srv.URL, staticToken("tok"))
	require.NoError(t, err)
	return NewStore(client, fakeAuth(true), nil)
}

func TestCreateLocalOnlyWhenAnonymous(t *testing.T) {
	store := newLocalStore(t)

	draft, err := store.Create(context.Background(), Draft{Subject: "hello", Body: "world"})
	require.NoError(t, err)
	assert.NotEmpty(t, draft.ID)
	assert.Equal(t, StatusDraft, draft.Status)

	got, ok := store.Get(draft.ID)
	require.True(t, ok)
	assert.Equal(t, "hello", got.Subject)
}

func TestCreateAdoptsServerRecord(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/drafts", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "POST", r.Method)
		var rec draftRecord
		require.NoError(t, json.NewDecoder(r.Body).Decode(&rec))
		assert.Equal(t, "re: contract", rec.Subject)
		// Workflow fields travel inside metadata.
		assert.Equal(t, "draft", rec.Metadata["status"])
		assert.Equal(t, "formal", rec.Metadata["tone"])

		rec.ID = "server-1"
		rec.UserID = "u1"
		rec.CreatedAt = "2026-08-30T10:00:00"
		rec.UpdatedAt = "2026-08-30T10:00:00"
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(rec))
	})
	store := newBackedStore(t, mux)

	draft, err := store.Create(context.Background(), Draft{
		Subject: "re: contract",
		Body:    "Dear Mike,",
		Tone:    "formal",
	})
	require.NoError(t, err)
	assert.Equal(t, "server-1", draft.ID)
	assert.Equal(t, "formal", draft.Tone)
	assert.Equal(t, StatusDraft, draft.Status)

	_, ok := store.Get("server-1")
	assert.True(t, ok)
	assert.Len(t, store.List(), 1)
}

func TestCreateKeepsLocalDraftOnBackendFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/drafts", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"detail": "storage unavailable"}`))
	})
	store := newBackedStore(t, mux)

	draft, err := store.Create(context.Background(), Draft{Subject: "keep me"})
	require.Error(t, err)
	assert.Equal(t, api.KindServer, api.KindOf(err))

	got, ok := store.Get(draft.ID)
	require.True(t, ok)
	assert.Equal(t, "keep me", got.Subject)
}

func TestUpdateAndDeleteLocal(t *testing.T) {
	store := newLocalStore(t)
	draft, err := store.Create(context.Background(), Draft{Subject: "v1"})
	require.NoError(t, err)

	draft.Subject = "v2"
	updated, err := store.Update(context.Background(), draft)
	require.NoError(t, err)
	assert.Equal(t, "v2", updated.Subject)

	require.NoError(t, store.Delete(context.Background(), draft.ID))
	_, ok := store.Get(draft.ID)
	assert.False(t, ok)
}

func TestUpdateUnknownDraft(t *testing.T) {
	store := newLocalStore(t)
	_, err := store.Update(context.Background(), Draft{ID: "missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestLoadReplacesLocalSet(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/drafts", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id": "d1", "subject": "one", "body": "b", "metadata": {"status": "ready", "source": "agent"}, "updated_at": "2026-08-30T12:00:00"},
			{"id": "d2", "subject": "two", "body": "b", "metadata": {}, "updated_at": "2026-08-30T11:00:00"}
		]`))
	})
	store := newBackedStore(t, mux)

	require.NoError(t, store.Load(context.Background()))
	list := store.List()
	require.Len(t, list, 2)
	// Most recently updated first.
	assert.Equal(t, "d1", list[0].ID)
	assert.Equal(t, StatusReady, list[0].Status)
	// Non-workflow metadata keys survive the lift.
	assert.Equal(t, "agent", list[0].Metadata["source"])
	assert.Equal(t, StatusDraft, list[1].Status)
}

func TestMarkReady(t *testing.T) {
	store := newLocalStore(t)
	draft, err := store.Create(context.Background(), Draft{Subject: "s"})
	require.NoError(t, err)

	ready, err := store.MarkReady(context.Background(), draft.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusReady, ready.Status)
}

func TestDeletePersistsWhenAuthenticated(t *testing.T) {
	var deleted string
	mux := http.NewServeMux()
	mux.HandleFunc("/drafts/", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "DELETE", r.Method)
		deleted = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message": "Draft deleted successfully"}`))
	})
	mux.HandleFunc("/drafts", func(w http.ResponseWriter, r *http.Request) {
		var rec draftRecord
		require.NoError(t, json.NewDecoder(r.Body).Decode(&rec))
		rec.ID = "d9"
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(rec))
	})
	store := newBackedStore(t, mux)

	draft, err := store.Create(context.Background(), Draft{Subject: "bye"})
	require.NoError(t, err)
	require.NoError(t, store.Delete(context.Background(), draft.ID))
	assert.Equal(t, "/drafts/d9", deleted)
}
