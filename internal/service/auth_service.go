package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"user_accounts/internal/apperr"
	"user_accounts/internal/models"
	"user_accounts/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

// Client-facing messages.
const (
	MsgMissingRegisterFields = "All fields are required or one field is missing"
	MsgUserExists            = "Username or email already exists"
	MsgMissingCredentials    = "Username or email and password are required"
	MsgUserNotFound          = "User not found"
	MsgInvalidPassword       = "Invalid password"
	MsgNoToken               = "No token found"
	MsgInvalidToken          = "Invalid or expired token"
	MsgPasswordTooLong       = "Password must be at most 72 bytes"
)

// maxPasswordBytes is the longest input bcrypt will hash.
const maxPasswordBytes = 72

type RegisterInput struct {
	Name     string
	Username string
	Email    string
	Password string
}

type LoginInput struct {
	Username string
	Email    string
	Password string
}

type LoginResult struct {
	User         models.UserSummary
	AccessToken  string
	RefreshToken string
}

type LogoutInput struct {
	// AccessToken is the value of the accessToken cookie.
	AccessToken string
	// UserID is the authenticated caller, if the session guard ran.
	UserID string
}

// AuthService handles registration, login, logout and token authentication.
type AuthService struct {
	users       repository.Users
	tokens      *TokenIssuer
	bcryptCost  int
	legacyLogin bool
}

func NewAuthService(users repository.Users, tokens *TokenIssuer, bcryptCost int, legacyLogin bool) *AuthService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{
		users:       users,
		tokens:      tokens,
		bcryptCost:  bcryptCost,
		legacyLogin: legacyLogin,
	}
}

// Register validates input, rejects taken identities and stores a new user
// with a bcrypt password hash.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (models.UserSummary, error) {
	if isBlank(in.Name) || isBlank(in.Username) || isBlank(in.Email) || isBlank(in.Password) {
		return models.UserSummary{}, apperr.Validation(MsgMissingRegisterFields, nil)
	}
	if len(in.Password) > maxPasswordBytes {
		return models.UserSummary{}, apperr.Validation(MsgPasswordTooLong, nil)
	}

	existing, err := s.users.FindByUsernameOrEmail(ctx, in.Username, in.Email)
	if err != nil {
		return models.UserSummary{}, apperr.Internal(err)
	}
	if existing != nil {
		return models.UserSummary{}, apperr.Conflict(MsgUserExists, nil)
	}

	hash, err := hashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return models.UserSummary{}, apperr.Internal(err)
	}

	created, err := s.users.Create(ctx, &models.User{
		Name:         in.Name,
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
	})
	if err != nil {
		// lost the check-then-insert race
		if errors.Is(err, repository.ErrDuplicateUser) {
			return models.UserSummary{}, apperr.Conflict(MsgUserExists, err)
		}
		return models.UserSummary{}, apperr.Internal(err)
	}
	return created.Summary(), nil
}

// Login verifies credentials, issues a token pair and stores the refresh token.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (LoginResult, error) {
	if !s.hasLoginCredentials(in) {
		return LoginResult{}, apperr.Validation(MsgMissingCredentials, nil)
	}

	username, email := s.lookupKeys(in)
	u, err := s.users.FindByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return LoginResult{}, apperr.Internal(err)
	}
	if u == nil {
		return LoginResult{}, apperr.NotFound(MsgUserNotFound, nil)
	}

	if err := verifyPassword(u.PasswordHash, in.Password); err != nil {
		return LoginResult{}, apperr.Unauthorized(MsgInvalidPassword, nil)
	}

	access, err := s.tokens.GenerateAccessToken(u)
	if err != nil {
		return LoginResult{}, apperr.Internal(err)
	}
	refresh, err := s.tokens.GenerateRefreshToken(u)
	if err != nil {
		return LoginResult{}, apperr.Internal(err)
	}
	if err := s.users.SetRefreshToken(ctx, u.ID, &refresh); err != nil {
		return LoginResult{}, apperr.Internal(err)
	}

	return LoginResult{User: u.Summary(), AccessToken: access, RefreshToken: refresh}, nil
}

// Logout requires the access token cookie. Outside legacy mode it also
// forgets the caller's stored refresh token.
func (s *AuthService) Logout(ctx context.Context, in LogoutInput) error {
	if in.AccessToken == "" {
		return apperr.Unauthorized(MsgNoToken, nil)
	}
	if s.legacyLogin || in.UserID == "" {
		return nil
	}
	if err := s.users.SetRefreshToken(ctx, in.UserID, nil); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return apperr.NotFound(MsgUserNotFound, err)
		}
		return apperr.Internal(err)
	}
	return nil
}

// Authenticate resolves an access token to its user, without secrets.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*models.User, error) {
	if accessToken == "" {
		return nil, apperr.Unauthorized(MsgNoToken, nil)
	}
	userID, err := s.tokens.ParseAccessToken(accessToken)
	if err != nil {
		return nil, apperr.Unauthorized(MsgInvalidToken, err)
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if u == nil {
		return nil, apperr.NotFound(MsgUserNotFound, nil)
	}
	return u, nil
}

// hasLoginCredentials applies the field-presence rule for the active mode.
// Legacy mode only rejects when the password is missing and at least one
// identifier is missing too.
func (s *AuthService) hasLoginCredentials(in LoginInput) bool {
	noUsername, noEmail, noPassword := isBlank(in.Username), isBlank(in.Email), isBlank(in.Password)
	if s.legacyLogin {
		return !((noEmail || noUsername) && noPassword)
	}
	return !noPassword && !(noUsername && noEmail)
}

// lookupKeys returns the (username, email) values to search by. Legacy mode
// matches the username column against the supplied email.
func (s *AuthService) lookupKeys(in LoginInput) (string, string) {
	if s.legacyLogin {
		return in.Email, in.Email
	}
	return in.Username, in.Email
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// helper: hash password safely
func hashPassword(password string, cost int) (string, error) {
	if isBlank(password) {
		return "", errors.New("password is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// helper: verify password against hash
func verifyPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
