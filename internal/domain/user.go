package domain

import (
	"time"

	"github.com/google/uuid"
)

// User roles
const (
	RoleAdmin    = "admin"
	RoleStaff    = "staff"
	RoleCustomer = "customer"
)

// User is the profile row held in the users table. The locally held copy may
// diverge from the server row until a profile fetch reconciles them.
type User struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	Role      string    `json:"role" db:"role"`
	FullName  *string   `json:"full_name" db:"full_name"`
	AvatarURL *string   `json:"avatar_url" db:"avatar_url"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// RawAuthUser is whatever the auth provider hands back on sign-in/sign-up.
// Optional fields stay nil when the provider did not supply them.
type RawAuthUser struct {
	ID        uuid.UUID
	Email     string
	Role      *string
	FullName  *string
	AvatarURL *string
	CreatedAt *time.Time
	UpdatedAt *time.Time
}

// NormalizeAuthUser builds a User from a raw auth-provider user, defaulting
// role to customer and synthesizing timestamps when the provider omitted them.
func NormalizeAuthUser(raw *RawAuthUser) *User {
	now := time.Now()
	user := &User{
		ID:        raw.ID,
		Email:     raw.Email,
		Role:      RoleCustomer,
		FullName:  raw.FullName,
		AvatarURL: raw.AvatarURL,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if raw.Role != nil && *raw.Role != "" {
		user.Role = *raw.Role
	}
	if raw.CreatedAt != nil {
		user.CreatedAt = *raw.CreatedAt
	}
	if raw.UpdatedAt != nil {
		user.UpdatedAt = *raw.UpdatedAt
	}
	return user
}

// Session is a refresh-token session issued by the auth service.
type Session struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Token     string    `json:"token" db:"token"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	Revoked   bool      `json:"revoked" db:"revoked"`
}

// Credential is the password record backing an auth account. Kept separate
// from the users profile table so sign-up can succeed even when the profile
// insert fails.
type Credential struct {
	ID           uuid.UUID `db:"id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// AuthData is what sign-in and sign-up return: the provider's view of the
// user plus the issued session.
type AuthData struct {
	User        *RawAuthUser
	Session     *Session
	AccessToken string
}
