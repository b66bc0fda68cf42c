package service

import (
	"context"

	"user_accounts/internal/models"
	"user_accounts/internal/repository"
)

// Authorization is the auth flow consumed by the HTTP layer.
type Authorization interface {
	Register(ctx context.Context, in RegisterInput) (models.UserSummary, error)
	Login(ctx context.Context, in LoginInput) (LoginResult, error)
	Logout(ctx context.Context, in LogoutInput) error
	Authenticate(ctx context.Context, accessToken string) (*models.User, error)
}

type Options struct {
	Tokens      TokenConfig
	BcryptCost  int
	LegacyLogin bool
}

// Service aggregates all sub-services.
type Service struct {
	Authorization
}

func NewService(repos *repository.Repository, opts Options) *Service {
	return &Service{
		Authorization: NewAuthService(repos.Users, NewTokenIssuer(opts.Tokens), opts.BcryptCost, opts.LegacyLogin),
	}
}
