package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/mailpilot/mailpilot/internal/api"
	"github.com/mailpilot/mailpilot/internal/instrumentation"
)

func newTestStore(t *testing.T, handler http.Handler) (*Store, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store := NewStore(nil, nil)
	client, err := api.NewClient(srv.URL, store)
	require.NoError(t, err)
	store.Attach(client)
	return store, srv
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestLoginSuccess(t *testing.T) {
	store, _ := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/login", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "jane@example.com", body["email"])

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"access_token": "tok-1",
			"token_type":   "bearer",
			"user": map[string]interface{}{
				"id":    "u-1",
				"email": "jane@example.com",
			},
		})
	}))

	user, err := store.Login(context.Background(), "jane@example.com", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "u-1", user.ID)
	assert.Equal(t, StateAuthenticated, store.State())
	assert.Equal(t, "tok-1", store.Token())
	require.NotNil(t, store.User())
	assert.Equal(t, "jane@example.com", store.User().Email)
}

func TestLoginMissingTokenAndMissingUserAreDistinct(t *testing.T) {
	tests := []struct {
		name    string
		resp    map[string]interface{}
		wantErr error
	}{
		{
			name: "missing token",
			resp: map[string]interface{}{
				"user": map[string]interface{}{"id": "u-1", "email": "jane@example.com"},
			},
			wantErr: ErrMissingToken,
		},
		{
			name: "missing user",
			resp: map[string]interface{}{
				"access_token": "tok-1",
			},
			wantErr: ErrMissingUser,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, _ := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, tt.resp)
			}))

			_, err := store.Login(context.Background(), "jane@example.com", "pw")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, StateAnonymous, store.State())
			assert.Empty(t, store.Token())
			assert.Nil(t, store.User())
		})
	}

	// The two failures must carry different messages.
	assert.NotEqual(t, ErrMissingToken.Error(), ErrMissingUser.Error())
}

func TestLoginRejectedCredentials(t *testing.T) {
	store, _ := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Invalid email or password"})
	}))

	_, err := store.Login(context.Background(), "jane@example.com", "wrong")
	require.Error(t, err)
	assert.True(t, api.IsUnauthorized(err))
	assert.NotErrorIs(t, err, ErrMissingToken)
	assert.NotErrorIs(t, err, ErrMissingUser)
	assert.Equal(t, "Invalid email or password", api.Detail(err))
	assert.Equal(t, StateAnonymous, store.State())
}

func TestRegisterAutoLogin(t *testing.T) {
	store, _ := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/register", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"message":      "User registered successfully",
			"access_token": "tok-new",
			"user": map[string]interface{}{
				"id":    "u-2",
				"email": "new@example.com",
			},
		})
	}))

	result, err := store.Register(context.Background(), RegisterInput{
		Email:    "new@example.com",
		Password: "pw",
		FullName: "New User",
	})
	require.NoError(t, err)
	assert.True(t, result.AutoLogin)
	assert.Equal(t, StateAuthenticated, store.State())
	assert.Equal(t, "tok-new", store.Token())
}

func TestRegisterWithoutTokenStaysAnonymous(t *testing.T) {
	store, _ := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"message": "User registered successfully",
		})
	}))

	result, err := store.Register(context.Background(), RegisterInput{Email: "new@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.False(t, result.AutoLogin)
	assert.NotEmpty(t, result.Message)
	assert.Equal(t, StateAnonymous, store.State())
	assert.Empty(t, store.Token())
}

func TestRegisterClearsExistingSessionFirst(t *testing.T) {
	var sawAuth string
	store, _ := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"access_token": "tok-old",
				"user":         map[string]interface{}{"id": "u-1", "email": "old@example.com"},
			})
		case "/auth/register":
			// A stale credential must not ride along with the registration.
			sawAuth = r.Header.Get("Authorization")
			writeJSON(w, http.StatusOK, map[string]interface{}{"message": "ok"})
		}
	}))

	_, err := store.Login(context.Background(), "old@example.com", "pw")
	require.NoError(t, err)

	_, err = store.Register(context.Background(), RegisterInput{Email: "new@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Empty(t, sawAuth)
	assert.Equal(t, StateAnonymous, store.State())
}

type noopNotifier struct{}

func (noopNotifier) NotifyLogout(ctx context.Context) error { return nil }

// blockingNotifier simulates a backend logout call that never resolves.
type blockingNotifier struct {
	started chan struct{}
	release chan struct{}
}

func (n *blockingNotifier) NotifyLogout(ctx context.Context) error {
	close(n.started)
	select {
	case <-n.release:
	case <-ctx.Done():
	}
	return errors.New("backend unavailable")
}

func TestLogoutClearsLocallyWithoutWaitingOnBackend(t *testing.T) {
	store, _ := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"access_token": "tok-1",
			"user":         map[string]interface{}{"id": "u-1", "email": "jane@example.com"},
		})
	}))

	_, err := store.Login(context.Background(), "jane@example.com", "pw")
	require.NoError(t, err)

	notifier := &blockingNotifier{started: make(chan struct{}), release: make(chan struct{})}
	defer close(notifier.release)
	store.SetNotifier(notifier)

	store.Logout()

	// Local state is gone immediately, regardless of the hanging call.
	assert.Equal(t, StateAnonymous, store.State())
	assert.Empty(t, store.Token())
	assert.Nil(t, store.User())

	select {
	case <-notifier.started:
	case <-time.After(time.Second):
		t.Fatal("backend logout notification was never attempted")
	}
}

func TestCheckAuthKeepsSessionOnTransportError(t *testing.T) {
	store := NewStore(nil, nil)
	// Unreachable backend: connection refused, not a credential rejection.
	client, err := api.NewClient("http://127.0.0.1:1", store)
	require.NoError(t, err)
	store.Attach(client)
	store.setSession("tok-1", &User{ID: "u-1", Email: "jane@example.com"})

	err = store.CheckAuth(context.Background())
	require.Error(t, err)
	assert.True(t, api.IsTransient(err))
	assert.Equal(t, StateAuthenticated, store.State(), "transient failure must not destroy the session")
	assert.Equal(t, "tok-1", store.Token())
}

func TestCheckAuthClearsSessionOnRejection(t *testing.T) {
	store, _ := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Could not validate credentials"})
	}))
	store.setSession("tok-stale", &User{ID: "u-1", Email: "jane@example.com"})

	err := store.CheckAuth(context.Background())
	require.Error(t, err)
	assert.True(t, api.IsUnauthorized(err))
	assert.Equal(t, StateAnonymous, store.State())
	assert.Empty(t, store.Token())
}

func TestCheckAuthRefreshesProfile(t *testing.T) {
	store, _ := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/me", r.URL.Path)
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"id":        "u-1",
			"email":     "jane@example.com",
			"full_name": "Jane Doe",
		})
	}))
	store.setSession("tok-1", &User{ID: "u-1", Email: "jane@example.com"})

	require.NoError(t, store.CheckAuth(context.Background()))
	require.NotNil(t, store.User())
	assert.Equal(t, "Jane Doe", store.User().FullName)
}

func TestCheckAuthNoopWhenAnonymous(t *testing.T) {
	store, _ := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("anonymous CheckAuth must not hit the backend")
	}))
	require.NoError(t, store.CheckAuth(context.Background()))
}

func TestUnauthorizedOnAnyRequestClearsSession(t *testing.T) {
	store, _ := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Could not validate credentials"})
	}))
	store.setSession("tok-stale", &User{ID: "u-1", Email: "jane@example.com"})

	// Any authenticated request observing a 401 tears the session down
	// through the OnUnauthorized subscription.
	err := store.apiClient().Get(context.Background(), "loadEmails", "/emails/my-inbox", nil, nil)
	require.Error(t, err)
	assert.Equal(t, StateAnonymous, store.State())
	assert.Empty(t, store.Token())
	assert.Nil(t, store.User())
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	fs := NewFileStore(path)

	user := &User{ID: "u-1", Email: "jane@example.com", FullName: "Jane Doe"}
	require.NoError(t, fs.Save("tok-1", user))

	token, loaded, err := fs.Load()
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)
	require.NotNil(t, loaded)
	assert.Equal(t, "jane@example.com", loaded.Email)

	require.NoError(t, fs.Clear())
	token, loaded, err = fs.Load()
	require.NoError(t, err)
	assert.Empty(t, token)
	assert.Nil(t, loaded)

	// Clearing an already-missing file is not an error.
	require.NoError(t, fs.Clear())
}

func TestNewStoreRestoresPersistedSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	fs := NewFileStore(path)
	require.NoError(t, fs.Save("tok-1", &User{ID: "u-1", Email: "jane@example.com"}))

	store := NewStore(fs, nil)
	assert.Equal(t, StateAuthenticated, store.State())
	assert.Equal(t, "tok-1", store.Token())
	require.NotNil(t, store.User())
	assert.Equal(t, "u-1", store.User().ID)
}

func TestLogoutRemovesPersistedSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	fs := NewFileStore(path)
	require.NoError(t, fs.Save("tok-1", &User{ID: "u-1", Email: "jane@example.com"}))

	store := NewStore(fs, nil)
	require.Equal(t, StateAuthenticated, store.State())

	store.Logout()

	token, user, err := fs.Load()
	require.NoError(t, err)
	assert.Empty(t, token)
	assert.Nil(t, user)
}

// newTestInstruments builds a metrics sink backed by a manual reader and
// an audit logger writing to buf.
func newTestInstruments(t *testing.T, buf *bytes.Buffer) (*instrumentation.Metrics, *instrumentation.AuditLogger, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test")
	metrics, err := instrumentation.NewMetrics(meter, false)
	require.NoError(t, err)
	audit := instrumentation.NewAuditLogger(slog.New(slog.NewTextHandler(buf, nil)), false)
	return metrics, audit, reader
}

func counterValue(t *testing.T, reader *sdkmetric.ManualReader, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var total int64
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "metric %s is not an int64 sum", name)
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	return total
}

func TestLoginRecordsAuthAttemptAndAudit(t *testing.T) {
	store, _ := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"access_token": "tok-1",
			"user":         map[string]interface{}{"id": "u-1", "email": "jane@example.com"},
		})
	}))

	var buf bytes.Buffer
	metrics, audit, reader := newTestInstruments(t, &buf)
	store.Instrument(metrics, audit)

	_, err := store.Login(context.Background(), "jane@example.com", "hunter2")
	require.NoError(t, err)

	assert.Equal(t, int64(1), counterValue(t, reader, "auth_attempts_total"))

	out := buf.String()
	assert.Contains(t, out, "auth audit")
	assert.Contains(t, out, "operation=login")
	assert.Contains(t, out, "success=true")
	// Without PII opt-in the audit line carries only the domain.
	assert.NotContains(t, out, "jane@example.com")
	assert.Contains(t, out, "example.com")
}

func TestRejectedLoginRecordsFailedAudit(t *testing.T) {
	store, _ := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Incorrect email or password"})
	}))

	var buf bytes.Buffer
	metrics, audit, reader := newTestInstruments(t, &buf)
	store.Instrument(metrics, audit)

	_, err := store.Login(context.Background(), "jane@example.com", "wrong")
	require.Error(t, err)

	assert.Equal(t, int64(1), counterValue(t, reader, "auth_attempts_total"))
	out := buf.String()
	assert.Contains(t, out, "operation=login")
	assert.Contains(t, out, "success=false")
	assert.Contains(t, out, "WARN")
}

func TestLogoutRecordsAudit(t *testing.T) {
	store, _ := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"access_token": "tok-1",
			"user":         map[string]interface{}{"id": "u-1", "email": "jane@example.com"},
		})
	}))
	store.SetNotifier(&noopNotifier{})

	var buf bytes.Buffer
	metrics, audit, _ := newTestInstruments(t, &buf)
	store.Instrument(metrics, audit)

	_, err := store.Login(context.Background(), "jane@example.com", "hunter2")
	require.NoError(t, err)

	store.Logout()
	assert.Contains(t, buf.String(), "operation=logout")
}

func TestUninstrumentedStoreLoginSucceeds(t *testing.T) {
	store, _ := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"access_token": "tok-1",
			"user":         map[string]interface{}{"id": "u-1", "email": "jane@example.com"},
		})
	}))

	_, err := store.Login(context.Background(), "jane@example.com", "hunter2")
	require.NoError(t, err)
}
