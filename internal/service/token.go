package service

import (
	"errors"
	"fmt"
	"time"

	"user_accounts/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Defaults used when TokenConfig leaves a lifetime unset.
const (
	defaultAccessTokenTTL  = 15 * time.Minute
	defaultRefreshTokenTTL = 7 * 24 * time.Hour
)

var ErrInvalidToken = errors.New("invalid token")

// Claims defines JWT claims. UserID is serialised as "id".
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"id"`
}

type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// TokenIssuer signs and verifies access and refresh tokens. Access and
// refresh tokens use distinct secrets so neither can stand in for the other.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewTokenIssuer(cfg TokenConfig) *TokenIssuer {
	t := &TokenIssuer{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		now:           time.Now,
	}
	if t.accessTTL <= 0 {
		t.accessTTL = defaultAccessTokenTTL
	}
	if t.refreshTTL <= 0 {
		t.refreshTTL = defaultRefreshTokenTTL
	}
	return t
}

// GenerateAccessToken returns a short-lived token for u.
func (t *TokenIssuer) GenerateAccessToken(u *models.User) (string, error) {
	return t.sign(u.ID, t.accessSecret, t.accessTTL)
}

// GenerateRefreshToken returns a long-lived token for u.
func (t *TokenIssuer) GenerateRefreshToken(u *models.User) (string, error) {
	return t.sign(u.ID, t.refreshSecret, t.refreshTTL)
}

// ParseAccessToken verifies signature and expiry and returns the user id.
func (t *TokenIssuer) ParseAccessToken(accessToken string) (string, error) {
	return t.parse(accessToken, t.accessSecret)
}

func (t *TokenIssuer) sign(userID string, secret []byte, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", errors.New("sign token: empty user id")
	}
	now := t.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID: userID,
	})
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (t *TokenIssuer) parse(raw string, secret []byte) (string, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Ensure HMAC signing is used
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	}, jwt.WithTimeFunc(t.now), jwt.WithExpirationRequired())
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return "", ErrInvalidToken
	}
	return claims.UserID, nil
}
