package repo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// User is a registered account in any role.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	Role         string
	CreatedAt    time.Time
}

// Session is a refresh token record. Only the token hash is stored.
type Session struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// UsersRepo reads and writes accounts and refresh sessions.
type UsersRepo struct {
	DB DB
}

// Create inserts a new account and returns its id.
func (r UsersRepo) Create(ctx context.Context, email, passwordHash, name, role string) (string, error) {
	var id pgtype.UUID
	err := r.DB.QueryRow(ctx,
		`INSERT INTO users (email, password_hash, name, role) VALUES ($1, $2, $3, $4) RETURNING id`,
		email, passwordHash, name, role).Scan(&id)
	if err != nil {
		return "", err
	}
	return uuidString(id), nil
}

// GetByEmail returns the account with the given email.
func (r UsersRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT id, email, password_hash, name, role, created_at FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// GetByID returns the account with the given id.
func (r UsersRepo) GetByID(ctx context.Context, id string) (User, error) {
	uid, err := uuidValue(id)
	if err != nil {
		return User{}, err
	}
	row := r.DB.QueryRow(ctx,
		`SELECT id, email, password_hash, name, role, created_at FROM users WHERE id = $1`, uid)
	return scanUser(row)
}

// CreateSession stores a refresh session for the user.
func (r UsersRepo) CreateSession(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	uid, err := uuidValue(userID)
	if err != nil {
		return err
	}
	_, err = r.DB.Exec(ctx,
		`INSERT INTO sessions (user_id, token_hash, expires_at) VALUES ($1, $2, $3)`,
		uid, tokenHash, expiresAt)
	return err
}

// GetSession returns the unexpired session matching the token hash.
func (r UsersRepo) GetSession(ctx context.Context, tokenHash string) (Session, error) {
	var (
		s        Session
		id, user pgtype.UUID
	)
	err := r.DB.QueryRow(ctx,
		`SELECT id, user_id, token_hash, expires_at, created_at
		FROM sessions WHERE token_hash = $1 AND expires_at > now()`,
		tokenHash).Scan(&id, &user, &s.TokenHash, &s.ExpiresAt, &s.CreatedAt)
	if err != nil {
		return Session{}, mapNoRows(err)
	}
	s.ID = uuidString(id)
	s.UserID = uuidString(user)
	return s, nil
}

// DeleteSession revokes a refresh session by token hash.
func (r UsersRepo) DeleteSession(ctx context.Context, tokenHash string) error {
	_, err := r.DB.Exec(ctx, `DELETE FROM sessions WHERE token_hash = $1`, tokenHash)
	return err
}

func scanUser(row interface{ Scan(dest ...any) error }) (User, error) {
	var (
		u  User
		id pgtype.UUID
	)
	err := row.Scan(&id, &u.Email, &u.PasswordHash, &u.Name, &u.Role, &u.CreatedAt)
	if err != nil {
		return User{}, mapNoRows(err)
	}
	u.ID = uuidString(id)
	return u, nil
}
