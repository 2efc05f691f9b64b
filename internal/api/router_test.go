package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/data"
	"fintrack/internal/service"
)

const testSessionKey = "0123456789abcdef0123456789abcdef"

type testEnv struct {
	srv    *httptest.Server
	client *http.Client
	dir    string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	db, err := data.InitDB(filepath.Join(dir, "meta.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	crypto, err := service.NewEncryptionService(testSessionKey)
	require.NoError(t, err)

	configRepo := data.NewConfigRepo(db, crypto)
	registry := service.NewRegistry(configRepo, data.NewMigrationRepo(db))
	t.Cleanup(func() { registry.Close() })

	router := NewRouter(Deps{
		Registry:    registry,
		Auth:        service.NewAuthService(registry),
		Initializer: service.NewInitializer(registry, configRepo),
		SessionKey:  testSessionKey,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testEnv{srv: srv, client: &http.Client{Jar: jar}, dir: dir}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(buf)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := e.client.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

// initialize runs first-run setup with a local sqlite database and logs in.
func (e *testEnv) initialize(t *testing.T) {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/api/initialization/", map[string]any{
		"admin": map[string]any{
			"username":        "admin",
			"email":           "admin@example.com",
			"password":        "correct horse",
			"confirmPassword": "correct horse",
		},
		"database": map[string]any{
			"name":        "local",
			"provider":    "sqlite",
			"credentials": map[string]any{"filePath": filepath.Join(e.dir, "app.db")},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = e.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"username": "admin", "password": "correct horse",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestInitializationStatusIsPublic(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/initialization/status", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	status := decodeBody[map[string]any](t, resp)
	assert.Equal(t, false, status["initialized"])
	assert.Len(t, status["providers"], 6)
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/accounts/", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body := decodeBody[map[string]any](t, resp)
	assert.Equal(t, false, body["success"])
	assert.NotEmpty(t, body["error"])
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	env := newTestEnv(t)
	env.initialize(t)

	resp := env.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"username": "admin", "password": "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body := decodeBody[map[string]any](t, resp)
	assert.Equal(t, false, body["success"])
}

func TestInitializeTwiceConflicts(t *testing.T) {
	env := newTestEnv(t)
	env.initialize(t)

	resp := env.do(t, http.MethodPost, "/api/initialization/", map[string]any{
		"admin": map[string]any{
			"username": "admin2", "email": "a2@example.com",
			"password": "password123", "confirmPassword": "password123",
		},
		"database": map[string]any{
			"name": "again", "provider": "sqlite",
			"credentials": map[string]any{"filePath": filepath.Join(env.dir, "again.db")},
		},
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
}

func TestAccountLifecycle(t *testing.T) {
	env := newTestEnv(t)
	env.initialize(t)

	resp := env.do(t, http.MethodPost, "/api/accounts/", map[string]any{
		"name": "Checking", "type": "checking", "balance": 1500.25, "currency": "USD",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[core.Account](t, resp)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Checking", created.Name)
	assert.Equal(t, "1500.25", created.Balance.String())

	resp = env.do(t, http.MethodGet, "/api/accounts/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decodeBody[[]core.Account](t, resp)
	require.Len(t, list, 1)

	resp = env.do(t, http.MethodPut, "/api/accounts/"+created.ID, map[string]any{"name": "Main Checking"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decodeBody[core.Account](t, resp)
	assert.Equal(t, "Main Checking", updated.Name)
	assert.Equal(t, "1500.25", updated.Balance.String(), "unpatched balance unchanged")

	resp = env.do(t, http.MethodDelete, "/api/accounts/"+created.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = env.do(t, http.MethodGet, "/api/accounts/"+created.ID, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestCreateAccountValidation(t *testing.T) {
	env := newTestEnv(t)
	env.initialize(t)

	resp := env.do(t, http.MethodPost, "/api/accounts/", map[string]any{
		"name": "Bad", "type": "offshore", "currency": "USD",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeBody[map[string]any](t, resp)
	assert.Equal(t, false, body["success"])
}

func TestProfileUpdateWithEmptyPasswordKeepsLogin(t *testing.T) {
	env := newTestEnv(t)
	env.initialize(t)

	resp := env.do(t, http.MethodPut, "/api/user/profile", map[string]any{
		"firstName": "Ada", "password": "",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = env.do(t, http.MethodPost, "/api/auth/logout", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// the old password still works
	resp = env.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"username": "admin", "password": "correct horse",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	user := decodeBody[core.User](t, resp)
	assert.Equal(t, "Ada", user.FirstName)
}

func TestDatabaseAdminRedactsCredentials(t *testing.T) {
	env := newTestEnv(t)
	env.initialize(t)

	resp := env.do(t, http.MethodPost, "/api/admin/databases/", map[string]any{
		"name":     "prod",
		"provider": "postgresql",
		"credentials": map[string]any{
			"host": "db.internal", "port": 5432, "database": "app",
			"username": "app", "password": "hunter2-secret",
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[core.DatabaseConfig](t, resp)
	assert.Empty(t, created.Credentials.Password)
	assert.Equal(t, "db.internal", created.Credentials.Host)

	resp = env.do(t, http.MethodGet, "/api/admin/databases/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	configs := decodeBody[[]core.DatabaseConfig](t, resp)
	require.Len(t, configs, 2) // the sqlite config from setup plus this one
	for _, cfg := range configs {
		assert.Empty(t, cfg.Credentials.Password, "%s leaked a password", cfg.Name)
	}
}

func TestActivateUntestedDatabaseBlocked(t *testing.T) {
	env := newTestEnv(t)
	env.initialize(t)

	resp := env.do(t, http.MethodPost, "/api/admin/databases/", map[string]any{
		"name":     "prod",
		"provider": "postgresql",
		"credentials": map[string]any{
			"host": "127.0.0.1", "port": 5432, "database": "app",
			"username": "app", "password": "pw",
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[core.DatabaseConfig](t, resp)

	resp = env.do(t, http.MethodPost, fmt.Sprintf("/api/admin/databases/%s/activate", created.ID), nil)
	require.Equal(t, http.StatusPreconditionFailed, resp.StatusCode)
	body := decodeBody[map[string]any](t, resp)
	assert.Contains(t, body["error"], "Connection Test Required")
}

func TestDeleteActiveDatabaseBlocked(t *testing.T) {
	env := newTestEnv(t)
	env.initialize(t)

	resp := env.do(t, http.MethodGet, "/api/admin/databases/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	configs := decodeBody[[]core.DatabaseConfig](t, resp)
	require.Len(t, configs, 1)
	require.True(t, configs[0].IsActive)

	resp = env.do(t, http.MethodDelete, "/api/admin/databases/"+configs[0].ID, nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
}

func TestLoginRateLimited(t *testing.T) {
	env := newTestEnv(t)

	blocked := false
	for i := 0; i < 6; i++ {
		resp := env.do(t, http.MethodPost, "/api/auth/login", map[string]string{
			"username": "nobody", "password": "nope",
		})
		if resp.StatusCode == http.StatusTooManyRequests {
			blocked = true
		}
		resp.Body.Close()
	}
	assert.True(t, blocked, "burst of login attempts should trip the limiter")
}
