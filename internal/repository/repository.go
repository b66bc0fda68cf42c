package repository

import (
	"context"
	"database/sql"

	"user_accounts/internal/models"
)

// Users is the credential store.
type Users interface {
	Create(ctx context.Context, u *models.User) (*models.User, error)
	// FindByUsernameOrEmail returns the first user whose username equals
	// username or whose email equals email. Returns (nil, nil) if none.
	FindByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error)
	// GetByID loads a user without the password hash or refresh token.
	// Returns (nil, nil) if not found.
	GetByID(ctx context.Context, id string) (*models.User, error)
	SetRefreshToken(ctx context.Context, id string, token *string) error
}

type Repository struct {
	Users Users
}

// NewRepository wires the SQL-backed repositories. dialect is one of the
// db.Driver* values and controls placeholder syntax.
func NewRepository(db *sql.DB, dialect string) *Repository {
	return &Repository{
		Users: NewUserRepository(db, dialect),
	}
}
