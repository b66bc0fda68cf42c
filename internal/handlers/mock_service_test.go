package handlers

import (
	"context"
	"net/http"

	"user_accounts/internal/models"
	"user_accounts/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	registerUser models.UserSummary
	registerErr  error
	loginResult  service.LoginResult
	loginErr     error
	logoutErr    error
	authUser     *models.User
	authErr      error

	lastRegister  service.RegisterInput
	lastLogin     service.LoginInput
	lastLogout    service.LogoutInput
	lastAuthToken string
	logoutCalls   int
}

func (m *mockAuth) Register(_ context.Context, in service.RegisterInput) (models.UserSummary, error) {
	m.lastRegister = in
	return m.registerUser, m.registerErr
}

func (m *mockAuth) Login(_ context.Context, in service.LoginInput) (service.LoginResult, error) {
	m.lastLogin = in
	return m.loginResult, m.loginErr
}

func (m *mockAuth) Logout(_ context.Context, in service.LogoutInput) error {
	m.logoutCalls++
	m.lastLogout = in
	return m.logoutErr
}

func (m *mockAuth) Authenticate(_ context.Context, token string) (*models.User, error) {
	m.lastAuthToken = token
	return m.authUser, m.authErr
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(s, nil, Options{})
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}

func findCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
