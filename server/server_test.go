package server_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/subhub-server/auth"
	"github.com/jrsteele09/subhub-server/auth/sessions"
	"github.com/jrsteele09/subhub-server/internal/config"
	"github.com/jrsteele09/subhub-server/server"
	"github.com/jrsteele09/subhub-server/storage"
	"github.com/jrsteele09/subhub-server/users"
	"github.com/stretchr/testify/require"
)

const (
	testEmail    = "a@x.com"
	testUsername = "alice"
	testPassword = "P1!aaaaa"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testFixture struct {
	handler  http.Handler
	userRepo *users.InMemoryUserRepo
	manager  *storage.Manager
	clock    *testClock
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	clock := &testClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	ur := users.NewInMemoryUserRepo()
	mgr := storage.NewManager(filepath.Join(t.TempDir(), "subhub_data.json"), ur, storage.WithNowTime(clock.Now))

	us, err := users.NewService(ur, users.NewArgon2Hasher(users.Argon2Config{
		Memory:      1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}), users.WithPersister(mgr))
	require.NoError(t, err)

	as, err := auth.NewAuthenticationService(auth.Repos{
		Users:    us,
		Sessions: sessions.NewInMemoryRepo(),
	}, auth.WithNowTime(clock.Now), auth.WithSessionTTL(time.Hour))
	require.NoError(t, err)

	srv, err := server.New(config.New(), as, us)
	require.NoError(t, err)

	return &testFixture{handler: srv, userRepo: ur, manager: mgr, clock: clock}
}

func (f *testFixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func (f *testFixture) register(t *testing.T) {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/register", "", map[string]string{
		"email":    testEmail,
		"username": testUsername,
		"password": testPassword,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func (f *testFixture) login(t *testing.T) string {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/login", "", map[string]string{
		"email":    testEmail,
		"password": testPassword,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		UserEmail   string `json:"user_email"`
		Username    string `json:"username"`
		Expires     int64  `json:"expires"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)
	require.Equal(t, "bearer", resp.TokenType)
	require.Equal(t, testEmail, resp.UserEmail)
	require.Equal(t, testUsername, resp.Username)
	require.Equal(t, f.clock.Now().Add(time.Hour).Unix(), resp.Expires)
	return resp.AccessToken
}

func detail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Detail string `json:"detail"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Detail
}

func message(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Message
}

func TestSystemRoutes(t *testing.T) {
	f := setupTestFixture(t)

	rec := f.do(t, http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"status":"running"`)
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = f.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "healthy")
}

func TestRegisterLoginMeLogout(t *testing.T) {
	f := setupTestFixture(t)
	f.register(t)

	// Registration is written straight through to disk
	_, err := os.Stat(f.manager.Path())
	require.NoError(t, err)

	token := f.login(t)

	rec := f.do(t, http.MethodGet, "/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), testUsername)
	require.NotContains(t, rec.Body.String(), "argon2")

	rec = f.do(t, http.MethodPost, "/logout", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Logout successful", message(t, rec))

	rec = f.do(t, http.MethodGet, "/me", token, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodPost, "/logout", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Already logged out", message(t, rec))
}

func TestRegisterErrors(t *testing.T) {
	f := setupTestFixture(t)
	f.register(t)

	tests := []struct {
		name       string
		body       any
		wantStatus int
		wantDetail string
	}{
		{
			name:       "duplicate email",
			body:       map[string]string{"email": testEmail, "username": "bob", "password": testPassword},
			wantStatus: http.StatusBadRequest,
			wantDetail: "Email already registered",
		},
		{
			name:       "invalid email",
			body:       map[string]string{"email": "not-an-email", "username": "bob", "password": testPassword},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "weak password",
			body:       map[string]string{"email": "b@x.com", "username": "bob", "password": "password1"},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "blank username",
			body:       map[string]string{"email": "b@x.com", "username": "   ", "password": testPassword},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "not json",
			body:       "nope",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, "/register", "", tt.body)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantDetail != "" {
				require.Equal(t, tt.wantDetail, detail(t, rec))
			}
		})
	}
}

func TestLoginErrors(t *testing.T) {
	f := setupTestFixture(t)
	f.register(t)

	rec := f.do(t, http.MethodPost, "/login", "", map[string]string{"email": "nobody@x.com", "password": testPassword})
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "User not found", detail(t, rec))

	rec = f.do(t, http.MethodPost, "/login", "", map[string]string{"email": testEmail, "password": "Wrong1!xx"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthRejectsUniformly(t *testing.T) {
	f := setupTestFixture(t)
	f.register(t)
	token := f.login(t)

	headers := map[string]string{
		"missing header": "",
		"wrong scheme":   "Basic " + token,
		"empty token":    "Bearer ",
		"unknown token":  "Bearer nope",
	}

	var bodies []string
	for name, header := range headers {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()
			f.handler.ServeHTTP(rec, req)

			require.Equal(t, http.StatusUnauthorized, rec.Code)
			require.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
			bodies = append(bodies, rec.Body.String())
		})
	}

	// An expired token looks exactly like every other failure
	f.clock.Advance(time.Hour + time.Second)
	rec := f.do(t, http.MethodGet, "/me", token, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	for _, body := range bodies {
		require.Equal(t, body, rec.Body.String())
	}
}

func TestSecondLoginEvictsFirstToken(t *testing.T) {
	f := setupTestFixture(t)
	f.register(t)

	first := f.login(t)
	second := f.login(t)
	require.NotEqual(t, first, second)

	require.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, "/me", first, nil).Code)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/me", second, nil).Code)
}

func TestSubscriptionLifecycle(t *testing.T) {
	f := setupTestFixture(t)
	f.register(t)
	token := f.login(t)

	rec := f.do(t, http.MethodPost, "/subscriptions", token, map[string]any{
		"service_name":  "Netflix",
		"monthly_price": 15.99,
		"category":      "streaming",
		"starting_date": "2024-03-01",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Equal(t, "Subscription added", message(t, rec))

	// Duplicate names are compared ignoring case
	rec = f.do(t, http.MethodPost, "/subscriptions", token, map[string]any{
		"service_name":  "netflix",
		"monthly_price": 9.99,
		"category":      "streaming",
	})
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(t, http.MethodPost, "/subscriptions", token, map[string]any{
		"service_name":  "Spotify",
		"monthly_price": 0,
		"category":      "music",
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = f.do(t, http.MethodGet, "/subscriptions", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Subscriptions []struct {
			ServiceName  string  `json:"service_name"`
			MonthlyPrice float64 `json:"monthly_price"`
			Category     string  `json:"category"`
			StartingDate string  `json:"starting_date"`
		} `json:"subscriptions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Subscriptions, 1)
	require.Equal(t, "Streaming", list.Subscriptions[0].Category)
	require.Equal(t, "2024-03-01", list.Subscriptions[0].StartingDate)

	rec = f.do(t, http.MethodPut, "/subscriptions/NETFLIX", token, map[string]any{"monthly_price": 17.99})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Contains(t, rec.Body.String(), "17.99")

	user, ok := f.userRepo.Get(testEmail)
	require.True(t, ok)
	require.Len(t, user.Subscriptions, 1)
	require.Equal(t, 17.99, user.Subscriptions[0].MonthlyPrice)

	rec = f.do(t, http.MethodPut, "/subscriptions/Hulu", token, map[string]any{"monthly_price": 5.0})
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodDelete, "/subscriptions/netflix", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodDelete, "/subscriptions/netflix", token, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodGet, "/subscriptions", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCorsPreflight(t *testing.T) {
	f := setupTestFixture(t)

	req := httptest.NewRequest(http.MethodOptions, "/subscriptions", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "DELETE")
}

func TestUnknownPathIsNotFound(t *testing.T) {
	f := setupTestFixture(t)

	for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodOptions} {
		t.Run(method, func(t *testing.T) {
			rec := f.do(t, method, "/nope", "", nil)
			require.Equal(t, http.StatusNotFound, rec.Code)
		})
	}

	// Known paths still answer preflight requests.
	req := httptest.NewRequest(http.MethodOptions, "/subscriptions/Netflix", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}
