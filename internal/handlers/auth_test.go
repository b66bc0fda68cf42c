package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"user_accounts/internal/apperr"
	"user_accounts/internal/models"
	"user_accounts/internal/service"

	"github.com/gin-gonic/gin"
)

type envelope struct {
	StatusCode int             `json:"statusCode"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	Status     string          `json:"status"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body=%s)", err, w.Body.String())
	}
	if env.StatusCode != w.Code {
		t.Fatalf("envelope statusCode %d != HTTP status %d", env.StatusCode, w.Code)
	}
	return env
}

func postJSON(r http.Handler, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestRegister_Success(t *testing.T) {
	auth := &mockAuth{registerUser: models.UserSummary{ID: "id-1", Name: "Ann", Username: "ann1", Email: "a@x.com"}}
	r := newTestRouter(&service.Service{Authorization: auth})

	w := postJSON(r, "/api/v1/users/register", `{"name":"Ann","username":"ann1","email":"a@x.com","password":"secret1"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("register status=%d, body=%s", w.Code, w.Body.String())
	}
	env := decodeEnvelope(t, w)
	if env.Status != "success" || env.Message != msgRegistered {
		t.Fatalf("unexpected envelope: %+v", env)
	}
	if strings.Contains(w.Body.String(), "password") {
		t.Fatalf("response must not mention password: %s", w.Body.String())
	}

	var data struct {
		User models.UserSummary `json:"user"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data.User.ID != "id-1" || data.User.Username != "ann1" {
		t.Fatalf("unexpected user: %+v", data.User)
	}
	want := service.RegisterInput{Name: "Ann", Username: "ann1", Email: "a@x.com", Password: "secret1"}
	if auth.lastRegister != want {
		t.Fatalf("service got %+v, want %+v", auth.lastRegister, want)
	}
}

func TestRegister_FormEncoded(t *testing.T) {
	auth := &mockAuth{registerUser: models.UserSummary{ID: "id-1"}}
	r := newTestRouter(&service.Service{Authorization: auth})

	form := url.Values{"name": {"Ann"}, "username": {"ann1"}, "email": {"a@x.com"}, "password": {"secret1"}}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if auth.lastRegister.Username != "ann1" || auth.lastRegister.Password != "secret1" {
		t.Fatalf("form fields not bound: %+v", auth.lastRegister)
	}
}

func TestRegister_ServiceErrorsUseEnvelope(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{"validation", apperr.Validation(service.MsgMissingRegisterFields, nil), http.StatusBadRequest, service.MsgMissingRegisterFields},
		{"conflict", apperr.Conflict(service.MsgUserExists, nil), http.StatusBadRequest, service.MsgUserExists},
		{"unexpected", errors.New("disk on fire"), http.StatusInternalServerError, "Internal server error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRouter(&service.Service{Authorization: &mockAuth{registerErr: tc.err}})
			w := postJSON(r, "/api/v1/users/register", `{"name":"A","username":"u","email":"e","password":"p"}`)

			if w.Code != tc.wantCode {
				t.Fatalf("status=%d, want %d", w.Code, tc.wantCode)
			}
			env := decodeEnvelope(t, w)
			if env.Status != "error" || env.Message != tc.wantMsg {
				t.Fatalf("unexpected envelope: %+v", env)
			}
			if strings.Contains(w.Body.String(), "disk on fire") {
				t.Fatalf("internal cause leaked: %s", w.Body.String())
			}
		})
	}
}

func TestRegister_MalformedBody(t *testing.T) {
	auth := &mockAuth{}
	r := newTestRouter(&service.Service{Authorization: auth})

	w := postJSON(r, "/api/v1/users/register", `{"username":1}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad body, got %d", w.Code)
	}
	if env := decodeEnvelope(t, w); env.Message != msgInvalidBody {
		t.Fatalf("unexpected message %q", env.Message)
	}
	if auth.lastRegister != (service.RegisterInput{}) {
		t.Fatalf("service must not be called")
	}
}

func TestLogin_SetsCookiesAndReturnsTokens(t *testing.T) {
	auth := &mockAuth{loginResult: service.LoginResult{
		User:         models.UserSummary{ID: "id-1", Username: "ann1"},
		AccessToken:  "acc",
		RefreshToken: "ref",
	}}
	r := newTestRouter(&service.Service{Authorization: auth})

	w := postJSON(r, "/api/v1/users/login", `{"username":"ann1","password":"secret1"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("login status=%d, body=%s", w.Code, w.Body.String())
	}

	resp := w.Result()
	for name, want := range map[string]string{accessTokenCookie: "acc", refreshTokenCookie: "ref"} {
		c := findCookie(resp, name)
		if c == nil {
			t.Fatalf("cookie %s missing", name)
		}
		if c.Value != want || !c.HttpOnly || c.Secure || c.Path != "/" {
			t.Fatalf("cookie %s: %+v", name, c)
		}
	}

	env := decodeEnvelope(t, w)
	var data struct {
		User   models.UserSummary `json:"user"`
		Tokens struct {
			AccessToken  string `json:"accessToken"`
			RefreshToken string `json:"refreshToken"`
		} `json:"tokens"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data.Tokens.AccessToken != "acc" || data.Tokens.RefreshToken != "ref" || data.User.ID != "id-1" {
		t.Fatalf("unexpected data: %+v", data)
	}
	if auth.lastLogin.Username != "ann1" || auth.lastLogin.Password != "secret1" {
		t.Fatalf("service got %+v", auth.lastLogin)
	}
}

func TestLogin_SecureCookieOption(t *testing.T) {
	r := NewHandler(&service.Service{Authorization: &mockAuth{loginResult: service.LoginResult{AccessToken: "a", RefreshToken: "r"}}}, nil, Options{
		Cookies: CookieOptions{Secure: true, Path: "/api"},
	}).InitRoutes()

	w := postJSON(r, "/api/v1/users/login", `{"username":"u","password":"p"}`)
	c := findCookie(w.Result(), accessTokenCookie)
	if c == nil || !c.Secure || c.Path != "/api" {
		t.Fatalf("unexpected cookie %+v", c)
	}
}

func TestLogin_FailureSetsNoCookies(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"bad password", apperr.Unauthorized(service.MsgInvalidPassword, nil), http.StatusUnauthorized},
		{"no user", apperr.NotFound(service.MsgUserNotFound, nil), http.StatusNotFound},
		{"missing credentials", apperr.Validation(service.MsgMissingCredentials, nil), http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRouter(&service.Service{Authorization: &mockAuth{loginErr: tc.err}})
			w := postJSON(r, "/api/v1/users/login", `{"username":"u","password":"p"}`)
			if w.Code != tc.code {
				t.Fatalf("status=%d, want %d", w.Code, tc.code)
			}
			if len(w.Result().Cookies()) != 0 {
				t.Fatalf("no cookies expected, got %v", w.Result().Cookies())
			}
			if env := decodeEnvelope(t, w); env.Status != "error" {
				t.Fatalf("unexpected envelope %+v", env)
			}
		})
	}
}

func TestLogout_ClearsCookies(t *testing.T) {
	auth := &mockAuth{authUser: &models.User{ID: "id-1"}}
	r := newTestRouter(&service.Service{Authorization: auth})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/logout", nil)
	req.AddCookie(&http.Cookie{Name: accessTokenCookie, Value: "acc"})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("logout status=%d body=%s", w.Code, w.Body.String())
	}
	if env := decodeEnvelope(t, w); env.Message != msgLoggedOut || env.Data != nil {
		t.Fatalf("unexpected envelope %+v", env)
	}
	for _, name := range []string{accessTokenCookie, refreshTokenCookie} {
		c := findCookie(w.Result(), name)
		if c == nil || c.MaxAge >= 0 || c.Value != "" {
			t.Fatalf("cookie %s not cleared: %+v", name, c)
		}
	}
	if auth.lastLogout != (service.LogoutInput{AccessToken: "acc", UserID: "id-1"}) {
		t.Fatalf("service got %+v", auth.lastLogout)
	}
	if auth.lastAuthToken != "acc" {
		t.Fatalf("guard should authenticate the cookie token, got %q", auth.lastAuthToken)
	}
}

func TestLogout_WithoutAnyToken(t *testing.T) {
	auth := &mockAuth{}
	r := newTestRouter(&service.Service{Authorization: auth})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/users/logout", nil))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d", w.Code)
	}
	if env := decodeEnvelope(t, w); env.Message != "No token found" {
		t.Fatalf("unexpected message %q", env.Message)
	}
	if auth.logoutCalls != 0 {
		t.Fatalf("logout must not run without a session")
	}
}

func TestLogout_BearerOnlyStillNeedsCookie(t *testing.T) {
	auth := &mockAuth{
		authUser:  &models.User{ID: "id-1"},
		logoutErr: apperr.Unauthorized(service.MsgNoToken, nil),
	}
	r := newTestRouter(&service.Service{Authorization: auth})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/logout", nil)
	req.Header = authHeader("acc")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d", w.Code)
	}
	if auth.lastLogout.AccessToken != "" {
		t.Fatalf("cookie token should be empty, got %q", auth.lastLogout.AccessToken)
	}
	if len(w.Result().Cookies()) != 0 {
		t.Fatalf("cookies must not be cleared on failure")
	}
}

func TestHealthAndMetricsRoutes(t *testing.T) {
	r := newTestRouter(&service.Service{Authorization: &mockAuth{}})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok"`) {
		t.Fatalf("health: %d %s", w.Code, w.Body.String())
	}

	_ = postJSON(r, "/api/v1/users/login", `{"username":"u","password":"p"}`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("metrics status %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `accounts_auth_events_total{op="login",outcome="success"} 1`) {
		t.Fatalf("login event not exported:\n%s", w.Body.String())
	}
}

func TestCustomBasePath(t *testing.T) {
	r := NewHandler(&service.Service{Authorization: &mockAuth{}}, nil, Options{BasePath: "/users"}).InitRoutes()
	w := postJSON(r, "/users/register", `{}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected route under custom base path, got %d", w.Code)
	}
}

func TestPanicAnswersWithEnvelope(t *testing.T) {
	r := newTestRouter(&service.Service{Authorization: &mockAuth{}})
	r.GET("/boom", func(*gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d, want %d", w.Code, http.StatusInternalServerError)
	}
	env := decodeEnvelope(t, w)
	if env.Message != "Internal server error" || env.Status != "error" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}
