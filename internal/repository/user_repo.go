package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"user_accounts/internal/models"
	"user_accounts/internal/repository/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

var (
	ErrDuplicateUser = errors.New("username or email already taken")
	ErrUserNotFound  = errors.New("user not found")
)

const pgUniqueViolation = "23505"

type UserRepository struct {
	db      *sql.DB
	dialect string
}

func NewUserRepository(db *sql.DB, dialect string) *UserRepository {
	return &UserRepository{db: db, dialect: dialect}
}

// Ensure implementation of Users interface at compile time.
var _ Users = (*UserRepository)(nil)

const (
	insertUserSQL = `INSERT INTO users (id, name, username, email, password_hash, refresh_token, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	selectUserByUsernameOrEmailSQL = `SELECT id, name, username, email, password_hash, refresh_token, created_at, updated_at FROM users WHERE username = ? OR email = ? ORDER BY username = ? DESC LIMIT 1`

	selectUserByIDSQL = `SELECT id, name, username, email, created_at, updated_at FROM users WHERE id = ?`

	updateRefreshTokenSQL = `UPDATE users SET refresh_token = ?, updated_at = ? WHERE id = ?`
)

// q adapts a query written with '?' placeholders to the repository dialect.
func (r *UserRepository) q(query string) string {
	return rebind(r.dialect, query)
}

// rebind rewrites '?' placeholders to '$n' for Postgres.
func rebind(dialect, query string) string {
	if dialect != db.DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}

// Create inserts u, assigning its ID and timestamps. A unique-constraint
// violation is reported as ErrDuplicateUser.
func (r *UserRepository) Create(ctx context.Context, u *models.User) (*models.User, error) {
	created := *u
	created.ID = uuid.NewString()
	now := time.Now().UTC()
	created.CreatedAt = now
	created.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, r.q(insertUserSQL),
		created.ID, created.Name, created.Username, created.Email,
		created.PasswordHash, nullString(created.RefreshToken),
		created.CreatedAt, created.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("insert user %q: %w", u.Username, ErrDuplicateUser)
		}
		return nil, fmt.Errorf("insert user %q: %w", u.Username, err)
	}
	return &created, nil
}

// FindByUsernameOrEmail fetches a user by either identity. When the username
// and the email belong to different users, the username match wins. Returns
// (nil, nil) if not found.
func (r *UserRepository) FindByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error) {
	var (
		u       models.User
		refresh sql.NullString
	)
	err := r.db.QueryRowContext(ctx, r.q(selectUserByUsernameOrEmailSQL), username, email, username).Scan(
		&u.ID, &u.Name, &u.Username, &u.Email, &u.PasswordHash, &refresh, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select user by username %q or email %q: %w", username, email, err)
	}
	if refresh.Valid {
		u.RefreshToken = &refresh.String
	}
	return &u, nil
}

// GetByID fetches the public projection of a user. Returns (nil, nil) if not found.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := r.db.QueryRowContext(ctx, r.q(selectUserByIDSQL), id).Scan(
		&u.ID, &u.Name, &u.Username, &u.Email, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select user %q: %w", id, err)
	}
	return &u, nil
}

// SetRefreshToken overwrites (or clears, when token is nil) the stored refresh token.
func (r *UserRepository) SetRefreshToken(ctx context.Context, id string, token *string) error {
	res, err := r.db.ExecContext(ctx, r.q(updateRefreshTokenSQL), nullString(token), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update refresh token for user %q: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for user %q: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("update refresh token for user %q: %w", id, ErrUserNotFound)
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return false
}
