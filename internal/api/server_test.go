package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"a11yhub/internal/config"
	"a11yhub/internal/db"
	"a11yhub/internal/handlers"
)

const (
	adminEmail    = "root@a11yhub.test"
	adminPassword = "super secret password"
)

type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (m *memStore) PutObject(_ context.Context, key string, body []byte, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = append([]byte(nil), body...)
	return nil
}

func (m *memStore) GetObject(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	body, ok := m.objects[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return body, nil
}

func (m *memStore) GetSignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://objects.test/" + key, nil
}

type testServer struct {
	t   *testing.T
	srv *Server
}

func newTestServer(t *testing.T, withStore bool) *testServer {
	t.Helper()
	t.Setenv("SUPERADMIN_EMAIL", adminEmail)
	t.Setenv("SUPERADMIN_PASSWORD", adminPassword)
	t.Setenv("SUPERADMIN_NAME", "Root")

	if withStore {
		handlers.RegisterScriptStore(&memStore{objects: make(map[string][]byte)})
	} else {
		handlers.RegisterScriptStore(nil)
	}
	t.Cleanup(func() { handlers.RegisterScriptStore(nil) })

	cfg := config.LoadTestConfig()
	srv, err := NewServer(cfg, db.OpenTestDB(t), Options{})
	require.NoError(t, err)
	return &testServer{t: t, srv: srv}
}

type request struct {
	method  string
	path    string
	body    interface{}
	token   string
	headers map[string]string
}

func (ts *testServer) do(r request) *httptest.ResponseRecorder {
	ts.t.Helper()
	var body bytes.Buffer
	if r.body != nil {
		require.NoError(ts.t, json.NewEncoder(&body).Encode(r.body))
	}
	req := httptest.NewRequest(r.method, r.path, &body)
	if r.body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if r.token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+r.token)
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	ts.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (ts *testServer) register(email string) (id, token string) {
	ts.t.Helper()
	rec := ts.do(request{method: http.MethodPost, path: "/api/v1/auth/register", body: map[string]string{
		"email":    email,
		"password": "correct horse battery",
	}})
	require.Equal(ts.t, http.StatusCreated, rec.Code, rec.Body.String())
	out := decode(ts.t, rec)
	return out["user"].(map[string]interface{})["id"].(string), out["accessToken"].(string)
}

func (ts *testServer) login(email, password string) string {
	ts.t.Helper()
	rec := ts.do(request{method: http.MethodPost, path: "/api/v1/auth/login", body: map[string]string{
		"email":    email,
		"password": password,
	}})
	require.Equal(ts.t, http.StatusOK, rec.Code, rec.Body.String())
	return decode(ts.t, rec)["accessToken"].(string)
}

func (ts *testServer) upload(token string, content []byte) *httptest.ResponseRecorder {
	ts.t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(ts.t, w.WriteField("name", "widget"))
	require.NoError(ts.t, w.WriteField("version", "1.2.0"))
	require.NoError(ts.t, w.WriteField("type", "core"))
	require.NoError(ts.t, w.WriteField("latest", "true"))
	fw, err := w.CreateFormFile("file", "widget.js")
	require.NoError(ts.t, err)
	_, err = fw.Write(content)
	require.NoError(ts.t, err)
	require.NoError(ts.t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cdn/scripts", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec := httptest.NewRecorder()
	ts.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, false)
	rec := ts.do(request{method: http.MethodGet, path: "/health"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode(t, rec)["status"])
}

func TestRegisterLoginAndProfile(t *testing.T) {
	ts := newTestServer(t, false)
	_, token := ts.register("Ada@Example.com")

	rec := ts.do(request{method: http.MethodGet, path: "/api/v1/users/me", token: token})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	me := decode(t, rec)
	assert.Equal(t, "ada@example.com", me["email"])
	roles := me["roles"].([]interface{})
	require.Len(t, roles, 1)
	assert.Equal(t, "user", roles[0].(map[string]interface{})["name"])

	ts.login("ada@example.com", "correct horse battery")

	rec = ts.do(request{method: http.MethodPost, path: "/api/v1/auth/login", body: map[string]string{
		"email":    "ada@example.com",
		"password": "wrong password",
	}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "CredentialInvalid", decode(t, rec)["kind"])
	assert.Equal(t, "Bearer", rec.Header().Get(echo.HeaderWWWAuthenticate))
}

func TestRegisterValidation(t *testing.T) {
	ts := newTestServer(t, false)
	rec := ts.do(request{method: http.MethodPost, path: "/api/v1/auth/register", body: map[string]string{
		"email":    "not-an-email",
		"password": "short",
	}})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	fields := decode(t, rec)["error"].(map[string]interface{})
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")
}

func TestDuplicateRegistrationConflicts(t *testing.T) {
	ts := newTestServer(t, false)
	ts.register("dup@example.com")
	rec := ts.do(request{method: http.MethodPost, path: "/api/v1/auth/register", body: map[string]string{
		"email":    "DUP@example.com",
		"password": "correct horse battery",
	}})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestMissingCredential(t *testing.T) {
	ts := newTestServer(t, false)
	rec := ts.do(request{method: http.MethodGet, path: "/api/v1/users/me"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "AuthenticationRequired", decode(t, rec)["kind"])
}

func TestRoleAdministration(t *testing.T) {
	ts := newTestServer(t, false)
	userID, userToken := ts.register("member@example.com")

	rec := ts.do(request{method: http.MethodGet, path: "/api/v1/roles", token: userToken})
	require.Equal(t, http.StatusForbidden, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "AuthorizationDenied", body["kind"])
	assert.NotEmpty(t, body["missing"])

	adminToken := ts.login(adminEmail, adminPassword)

	rec = ts.do(request{method: http.MethodGet, path: "/api/v1/roles", token: adminToken})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(request{method: http.MethodPost, path: "/api/v1/permissions", token: adminToken,
		body: map[string]string{"name": "rockets:launch"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(request{method: http.MethodPost, path: "/api/v1/permissions", token: adminToken,
		body: map[string]string{"name": "faq:read"}})
	assert.Equal(t, http.StatusOK, rec.Code, "seeded permissions already exist")

	rec = ts.do(request{method: http.MethodPost, path: "/api/v1/users/" + userID + "/roles", token: adminToken,
		body: map[string]string{"role": "admin"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, decode(t, rec)["roles"], 2)

	// the old credential still carries only "user"; a fresh login sees admin
	rec = ts.do(request{method: http.MethodGet, path: "/api/v1/roles", token: userToken})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	promoted := ts.login("member@example.com", "correct horse battery")
	rec = ts.do(request{method: http.MethodGet, path: "/api/v1/roles", token: promoted})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(request{method: http.MethodDelete, path: "/api/v1/users/" + userID + "/roles/user", token: adminToken})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = ts.do(request{method: http.MethodDelete, path: "/api/v1/users/" + userID + "/roles/admin", token: adminToken})
	assert.Equal(t, http.StatusConflict, rec.Code, "last role cannot be revoked")
}

func TestLogoutRevokesRefresh(t *testing.T) {
	ts := newTestServer(t, false)
	rec := ts.do(request{method: http.MethodPost, path: "/api/v1/auth/register", body: map[string]string{
		"email":    "leaving@example.com",
		"password": "correct horse battery",
	}})
	require.Equal(t, http.StatusCreated, rec.Code)
	pair := decode(t, rec)

	rec = ts.do(request{method: http.MethodPost, path: "/api/v1/auth/refresh",
		body: map[string]string{"refreshToken": pair["refreshToken"].(string)}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(request{method: http.MethodPost, path: "/api/v1/auth/logout", token: pair["accessToken"].(string)})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(request{method: http.MethodPost, path: "/api/v1/auth/refresh",
		body: map[string]string{"refreshToken": pair["refreshToken"].(string)}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

var loaderConfig = regexp.MustCompile(`var config = (\{.*\});`)

func TestIntegrationDeliveryFlow(t *testing.T) {
	ts := newTestServer(t, true)
	_, ownerToken := ts.register("owner@example.com")
	_, strangerToken := ts.register("stranger@example.com")
	adminToken := ts.login(adminEmail, adminPassword)

	rec := ts.do(request{method: http.MethodPost, path: "/api/v1/integrations", token: ownerToken, body: map[string]interface{}{
		"name":           "Docs",
		"domain":         "Example.com",
		"allowedDomains": []string{"*.example.org"},
		"settings":       map[string]interface{}{"theme": "dark"},
	}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	integration := decode(t, rec)
	id := integration["id"].(string)
	apiKey := integration["apiKey"].(string)
	assert.Equal(t, "pending", integration["status"])
	assert.Equal(t, "example.com", integration["domain"])

	rec = ts.do(request{method: http.MethodGet, path: "/api/v1/integrations/" + id, token: strangerToken})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	loaderPath := "/api/v1/cdn/loader.js?" + url.Values{"apiKey": {apiKey}}.Encode()
	origin := map[string]string{"Origin": "https://docs.example.org"}

	rec = ts.do(request{method: http.MethodGet, path: loaderPath, headers: origin})
	assert.Equal(t, http.StatusForbidden, rec.Code, "pending integrations are not served")

	rec = ts.do(request{method: http.MethodPut, path: "/api/v1/integrations/" + id + "/status", token: ownerToken,
		body: map[string]string{"status": "active"}})
	assert.Equal(t, http.StatusForbidden, rec.Code, "owners cannot activate themselves")

	rec = ts.do(request{method: http.MethodPut, path: "/api/v1/integrations/" + id + "/status", token: adminToken,
		body: map[string]string{"status": "active"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(request{method: http.MethodGet, path: loaderPath, headers: origin})
	assert.Equal(t, http.StatusNotFound, rec.Code, "no core script yet")

	content := []byte(`console.log("a11y");`)
	rec = ts.upload(ownerToken, content)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = ts.upload(adminToken, content)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	script := decode(t, rec)
	assert.Equal(t, true, script["isLatest"])

	rec = ts.do(request{method: http.MethodGet, path: loaderPath})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "DomainNotAuthorized", decode(t, rec)["kind"])

	rec = ts.do(request{method: http.MethodGet, path: loaderPath, headers: map[string]string{"Origin": "https://evil.test"}})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(request{method: http.MethodGet, path: loaderPath, headers: origin})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "public, max-age=3600", rec.Header().Get(echo.HeaderCacheControl))
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "application/javascript")

	match := loaderConfig.FindSubmatch(rec.Body.Bytes())
	require.NotNil(t, match, rec.Body.String())
	var cfg map[string]interface{}
	require.NoError(t, json.Unmarshal(match[1], &cfg))
	assert.Equal(t, script["id"], cfg["scriptId"])
	assert.Equal(t, script["integrityHash"], cfg["integrity"])
	assert.Equal(t, map[string]interface{}{"theme": "dark"}, cfg["settings"])
	token := cfg["token"].(string)

	scriptPath := func(tok string) string {
		return "/api/v1/cdn/scripts/" + script["id"].(string) + "?" + url.Values{"apiKey": {apiKey}, "token": {tok}}.Encode()
	}

	rec = ts.do(request{method: http.MethodGet, path: scriptPath(token)})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, content, rec.Body.Bytes())
	assert.Equal(t, script["integrityHash"], rec.Header().Get("Integrity"))

	tampered := []byte(token)
	if tampered[0] == 'a' {
		tampered[0] = 'b'
	} else {
		tampered[0] = 'a'
	}
	rec = ts.do(request{method: http.MethodGet, path: scriptPath(string(tampered))})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "DeliveryTokenTampered", decode(t, rec)["kind"])

	rec = ts.do(request{method: http.MethodGet, path: "/api/v1/cdn/scripts", token: adminToken})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 1, decode(t, rec)["total"])

	rec = ts.do(request{method: http.MethodGet, path: "/api/v1/cdn/scripts", token: ownerToken})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(request{method: http.MethodDelete, path: "/api/v1/integrations/" + id, token: ownerToken})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = ts.do(request{method: http.MethodGet, path: loaderPath, headers: origin})
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "deleted integrations no longer resolve")
}

func TestUploadWithoutStorage(t *testing.T) {
	ts := newTestServer(t, false)
	adminToken := ts.login(adminEmail, adminPassword)
	rec := ts.upload(adminToken, []byte("void 0;"))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusTeapot, statusOf(echo.NewHTTPError(http.StatusTeapot)))
	assert.Equal(t, http.StatusInternalServerError, statusOf(errors.New("boom")))
}
