package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavelhrube/go-account-api/internal/logging"
	"github.com/pavelhrube/go-account-api/internal/session"
	"github.com/pavelhrube/go-account-api/internal/user"
)

const testCookieName = "account_session"

// newTestAPI wires the handlers the way cmd/api does, backed by the
// in-memory repo and miniredis
func newTestAPI(t *testing.T) (*httptest.Server, *fakeUserRepo, *session.Store) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := newFakeUserRepo()
	sessions := session.NewStore(client, time.Hour)
	logger := logging.NewLogger(true)

	svc := NewService(repo, logger)
	authHandler := NewHandler(svc, sessions, testCookieName, time.Hour, false)
	userHandler := user.NewHandler(repo, sessions)
	mw := session.NewMiddleware(sessions, testCookieName)

	r := chi.NewRouter()
	r.Use(mw.Resolve)
	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)
			r.Get("/me", authHandler.Me)
		})
		r.Group(func(r chi.Router) {
			r.Use(session.RequireAuth)
			r.Get("/profile", userHandler.GetProfile)
			r.Put("/profile", userHandler.UpdateProfile)
		})
	})

	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)

	return ts, repo, sessions
}

func newClientWithJar(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func postJSON(t *testing.T, client *http.Client, url string, body any) (*http.Response, []byte) {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := client.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	return resp, raw
}

func getJSON(t *testing.T, client *http.Client, url string) (*http.Response, []byte) {
	t.Helper()

	resp, err := client.Get(url)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	return resp, raw
}

func TestRegisterLoginLogoutFlow(t *testing.T) {
	ts, _, _ := newTestAPI(t)
	client := newClientWithJar(t)

	// Register
	resp, raw := postJSON(t, client, ts.URL+"/api/auth/register", map[string]string{
		"email":           "a@x.com",
		"name":            "Ann",
		"password":        "password1",
		"confirmPassword": "password1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var registered struct {
		User map[string]any `json:"user"`
	}
	require.NoError(t, json.Unmarshal(raw, &registered))
	assert.Equal(t, "a@x.com", registered.User["email"])

	// The response must not leak the hash under any field name
	assert.NotContains(t, string(raw), "passwordHash")
	assert.NotContains(t, string(raw), "password_hash")
	assert.NotContains(t, string(raw), "argon2id")

	// Duplicate registration fails with a conflict
	resp, raw = postJSON(t, client, ts.URL+"/api/auth/register", map[string]string{
		"email":           "a@x.com",
		"name":            "Ann",
		"password":        "password1",
		"confirmPassword": "password1",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(raw), "EMAIL_EXISTS")

	// Login sets a session cookie
	resp, _ = postJSON(t, client, ts.URL+"/api/auth/login", map[string]string{
		"email":    "a@x.com",
		"password": "password1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var sawCookie bool
	for _, c := range resp.Cookies() {
		if c.Name == testCookieName && c.Value != "" {
			sawCookie = true
			assert.True(t, c.HttpOnly)
		}
	}
	assert.True(t, sawCookie, "login response must set the session cookie")

	// Authenticated profile fetch
	resp, raw = getJSON(t, client, ts.URL+"/api/profile")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var profile struct {
		User struct {
			Name string `json:"name"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(raw, &profile))
	assert.Equal(t, "Ann", profile.User.Name)

	// Logout destroys the session
	resp, _ = postJSON(t, client, ts.URL+"/api/auth/logout", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// The old cookie no longer authenticates
	resp, _ = getJSON(t, client, ts.URL+"/api/profile")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// A second logout with the now-invalid session still succeeds
	resp, _ = postJSON(t, client, ts.URL+"/api/auth/logout", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRegister_AutoLogin(t *testing.T) {
	ts, _, _ := newTestAPI(t)
	client := newClientWithJar(t)

	resp, _ := postJSON(t, client, ts.URL+"/api/auth/register", map[string]string{
		"email":           "b@x.com",
		"name":            "Bob",
		"password":        "password1",
		"confirmPassword": "password1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Registration is an auto-login: the cookie works immediately
	resp, raw := getJSON(t, client, ts.URL+"/api/auth/me")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var me MeResponse
	require.NoError(t, json.Unmarshal(raw, &me))
	assert.True(t, me.IsAuthenticated)
	require.NotNil(t, me.User)
	assert.Equal(t, "b@x.com", me.User.Email)
	assert.Equal(t, "Bob", me.User.Name)
}

func TestRegister_ValidationListsAllViolations(t *testing.T) {
	ts, _, _ := newTestAPI(t)
	client := newClientWithJar(t)

	resp, raw := postJSON(t, client, ts.URL+"/api/auth/register", map[string]string{
		"email":           "not-an-email",
		"name":            "",
		"password":        "short",
		"confirmPassword": "different",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body struct {
		Code   string `json:"code"`
		Fields []struct {
			Field string `json:"field"`
		} `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "VALIDATION_FAILED", body.Code)

	got := make(map[string]bool)
	for _, f := range body.Fields {
		got[f.Field] = true
	}
	assert.True(t, got["email"])
	assert.True(t, got["name"])
	assert.True(t, got["password"])
	assert.True(t, got["confirmPassword"])
}

func TestLogin_FailuresAreByteIdentical(t *testing.T) {
	ts, _, _ := newTestAPI(t)
	client := newClientWithJar(t)

	resp, _ := postJSON(t, client, ts.URL+"/api/auth/register", map[string]string{
		"email":           "a@x.com",
		"name":            "Ann",
		"password":        "password1",
		"confirmPassword": "password1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	respWrong, rawWrong := postJSON(t, client, ts.URL+"/api/auth/login", map[string]string{
		"email":    "a@x.com",
		"password": "password2",
	})
	respUnknown, rawUnknown := postJSON(t, client, ts.URL+"/api/auth/login", map[string]string{
		"email":    "nobody@x.com",
		"password": "password1",
	})

	assert.Equal(t, http.StatusBadRequest, respWrong.StatusCode)
	assert.Equal(t, respWrong.StatusCode, respUnknown.StatusCode)
	assert.Equal(t, rawWrong, rawUnknown, "wrong password and unknown email must be indistinguishable")
}

func TestMe_Unauthenticated(t *testing.T) {
	ts, _, _ := newTestAPI(t)
	client := newClientWithJar(t)

	resp, raw := getJSON(t, client, ts.URL+"/api/auth/me")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var me MeResponse
	require.NoError(t, json.Unmarshal(raw, &me))
	assert.False(t, me.IsAuthenticated)
	assert.Nil(t, me.User)
}

func TestLogout_ClearsCookie(t *testing.T) {
	ts, _, sessions := newTestAPI(t)
	client := newClientWithJar(t)

	resp, _ := postJSON(t, client, ts.URL+"/api/auth/register", map[string]string{
		"email":           "c@x.com",
		"name":            "Cat",
		"password":        "password1",
		"confirmPassword": "password1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var sid string
	for _, c := range resp.Cookies() {
		if c.Name == testCookieName {
			sid = c.Value
		}
	}
	require.NotEmpty(t, sid)

	resp, _ = postJSON(t, client, ts.URL+"/api/auth/logout", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var cleared bool
	for _, c := range resp.Cookies() {
		if c.Name == testCookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared, "logout must expire the cookie")

	_, err := sessions.Get(context.Background(), sid)
	assert.ErrorIs(t, err, session.ErrNotFound)
}
