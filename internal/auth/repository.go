package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"sushi-samurai/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrCredentialNotFound = errors.New("credential not found")
	ErrEmailTaken         = errors.New("account with this email already exists")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionRevoked     = errors.New("session has been revoked")
)

// CredentialRepository stores password records, separate from user profiles.
type CredentialRepository interface {
	Create(ctx context.Context, cred *domain.Credential) error
	FindByEmail(ctx context.Context, email string) (*domain.Credential, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Credential, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}

// SessionRepository stores refresh-token sessions.
type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) error
	FindByToken(ctx context.Context, token string) (*domain.Session, error)
	Revoke(ctx context.Context, token string) error
}

type credentialRepository struct {
	db *sql.DB
}

// NewCredentialRepository creates a new instance of CredentialRepository
func NewCredentialRepository(db *sql.DB) CredentialRepository {
	return &credentialRepository{db: db}
}

func (r *credentialRepository) Create(ctx context.Context, cred *domain.Credential) error {
	query := `
		INSERT INTO auth_credentials (id, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(ctx, query,
		cred.ID, cred.Email, cred.PasswordHash, cred.CreatedAt, cred.UpdatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "auth_credentials_email_key") {
			return ErrEmailTaken
		}
		return fmt.Errorf("failed to create credential: %w", err)
	}
	return nil
}

func (r *credentialRepository) FindByEmail(ctx context.Context, email string) (*domain.Credential, error) {
	query := `
		SELECT id, email, password_hash, created_at, updated_at
		FROM auth_credentials
		WHERE email = $1
	`

	cred := &domain.Credential{}
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&cred.ID, &cred.Email, &cred.PasswordHash, &cred.CreatedAt, &cred.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCredentialNotFound
		}
		return nil, fmt.Errorf("failed to find credential by email: %w", err)
	}
	return cred, nil
}

func (r *credentialRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Credential, error) {
	query := `
		SELECT id, email, password_hash, created_at, updated_at
		FROM auth_credentials
		WHERE id = $1
	`

	cred := &domain.Credential{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&cred.ID, &cred.Email, &cred.PasswordHash, &cred.CreatedAt, &cred.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCredentialNotFound
		}
		return nil, fmt.Errorf("failed to find credential by id: %w", err)
	}
	return cred, nil
}

func (r *credentialRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	query := `
		UPDATE auth_credentials
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, passwordHash)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrCredentialNotFound
	}
	return nil
}

type sessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new instance of SessionRepository
func NewSessionRepository(db *sql.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(ctx context.Context, session *domain.Session) error {
	query := `
		INSERT INTO sessions (id, user_id, token, expires_at, created_at, revoked)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		session.ID, session.UserID, session.Token, session.ExpiresAt, session.CreatedAt, session.Revoked)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *sessionRepository) FindByToken(ctx context.Context, token string) (*domain.Session, error) {
	query := `
		SELECT id, user_id, token, expires_at, created_at, revoked
		FROM sessions
		WHERE token = $1
	`

	session := &domain.Session{}
	err := r.db.QueryRowContext(ctx, query, token).Scan(
		&session.ID, &session.UserID, &session.Token,
		&session.ExpiresAt, &session.CreatedAt, &session.Revoked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to find session: %w", err)
	}

	if session.Revoked {
		return nil, ErrSessionRevoked
	}
	return session, nil
}

func (r *sessionRepository) Revoke(ctx context.Context, token string) error {
	query := `
		UPDATE sessions
		SET revoked = TRUE
		WHERE token = $1
	`

	result, err := r.db.ExecContext(ctx, query, token)
	if err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrSessionNotFound
	}
	return nil
}
