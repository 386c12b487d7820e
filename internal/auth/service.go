package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sushi-samurai/internal/collection"
	"sushi-samurai/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	// BcryptCost is the cost factor for bcrypt hashing
	BcryptCost = 10

	AccessTokenExpiration = 15 * time.Minute
	SessionExpiration     = 7 * 24 * time.Hour
	ResetTokenExpiration  = 1 * time.Hour
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token has expired")
)

// ProfileStore is the slice of the users table the auth service needs for
// the best-effort profile insert and profile lookups.
type ProfileStore interface {
	Create(ctx context.Context, fields map[string]any) (*domain.User, error)
	GetOne(ctx context.Context, id any) (*domain.User, error)
}

// Service is the auth provider boundary: credential and session management
// plus the follow-up profile row handling on sign-up.
type Service interface {
	SignIn(ctx context.Context, email, password string) (*domain.AuthData, error)
	SignUp(ctx context.Context, email, password string, fullName *string) (*domain.AuthData, error)
	SignOut(ctx context.Context, refreshToken string) error
	CurrentSession(ctx context.Context, refreshToken string) (*domain.Session, error)
	CurrentUser(ctx context.Context, refreshToken string) (*domain.RawAuthUser, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	ResetPassword(ctx context.Context, email string) (string, error)
	UpdatePassword(ctx context.Context, refreshToken, password string) (*domain.RawAuthUser, error)
	ValidateToken(tokenString string) (*Claims, error)
}

// Claims represents the JWT claims carried by access tokens
type Claims struct {
	UserID uuid.UUID `json:"user_id"`
	Role   string    `json:"role"`
	jwt.RegisteredClaims
}

type service struct {
	credentials CredentialRepository
	sessions    SessionRepository
	profiles    ProfileStore
	jwtSecret   string
	logger      *zap.Logger
}

// NewService creates a new auth Service
func NewService(
	credentials CredentialRepository,
	sessions SessionRepository,
	profiles ProfileStore,
	jwtSecret string,
	logger *zap.Logger,
) Service {
	return &service{
		credentials: credentials,
		sessions:    sessions,
		profiles:    profiles,
		jwtSecret:   jwtSecret,
		logger:      logger,
	}
}

// SignIn authenticates by email and password and issues a session plus an
// access token.
func (s *service) SignIn(ctx context.Context, email, password string) (*domain.AuthData, error) {
	cred, err := s.credentials.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrCredentialNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find credential: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issue(ctx, cred)
}

// SignUp creates a credential row, then attempts a profile row insert into
// the users table. The profile insert is best-effort: a failure is logged
// and swallowed so the caller still gets a completed registration.
func (s *service) SignUp(ctx context.Context, email, password string, fullName *string) (*domain.AuthData, error) {
	existing, err := s.credentials.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, ErrCredentialNotFound) {
		return nil, fmt.Errorf("failed to check existing credential: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	cred := &domain.Credential{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.credentials.Create(ctx, cred); err != nil {
		return nil, fmt.Errorf("failed to create credential: %w", err)
	}

	fields := map[string]any{
		"id":         cred.ID,
		"email":      email,
		"role":       domain.RoleCustomer,
		"created_at": now,
		"updated_at": now,
	}
	if fullName != nil {
		fields["full_name"] = *fullName
	}
	if _, err := s.profiles.Create(ctx, fields); err != nil {
		// Account exists without a profile row until reconciled.
		s.logger.Warn("Profile insert failed after sign-up",
			zap.String("user_id", cred.ID.String()),
			zap.Error(err),
		)
	}

	return s.issue(ctx, cred)
}

// SignOut revokes the session. A token that no longer exists counts as
// already signed out.
func (s *service) SignOut(ctx context.Context, refreshToken string) error {
	if err := s.sessions.Revoke(ctx, refreshToken); err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil
		}
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

// CurrentSession resolves a refresh token to its session. Absence is not an
// error: a missing, revoked, or expired session yields (nil, nil).
func (s *service) CurrentSession(ctx context.Context, refreshToken string) (*domain.Session, error) {
	if refreshToken == "" {
		return nil, nil
	}
	session, err := s.sessions.FindByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrSessionRevoked) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if time.Now().After(session.ExpiresAt) {
		return nil, nil
	}
	return session, nil
}

// CurrentUser resolves the session's user. Returns (nil, nil) when there is
// no live session.
func (s *service) CurrentUser(ctx context.Context, refreshToken string) (*domain.RawAuthUser, error) {
	session, err := s.CurrentSession(ctx, refreshToken)
	if err != nil || session == nil {
		return nil, err
	}

	cred, err := s.credentials.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find credential: %w", err)
	}
	return s.rawUser(ctx, cred), nil
}

// Refresh issues a new access token for a live session.
func (s *service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	session, err := s.sessions.FindByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrSessionRevoked) {
			return "", ErrInvalidToken
		}
		return "", fmt.Errorf("failed to find session: %w", err)
	}
	if time.Now().After(session.ExpiresAt) {
		return "", ErrTokenExpired
	}

	cred, err := s.credentials.FindByID(ctx, session.UserID)
	if err != nil {
		return "", fmt.Errorf("failed to find credential: %w", err)
	}
	return s.generateAccessToken(s.rawUser(ctx, cred))
}

// ResetPassword mints a short-lived token for the account with the given
// email. Delivery of the token (normally by email) is up to the caller.
func (s *service) ResetPassword(ctx context.Context, email string) (string, error) {
	cred, err := s.credentials.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrCredentialNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("failed to find credential: %w", err)
	}

	session, err := s.createSession(ctx, cred.ID, ResetTokenExpiration)
	if err != nil {
		return "", err
	}
	return session.Token, nil
}

// UpdatePassword changes the password of the user behind a live token and
// revokes that token.
func (s *service) UpdatePassword(ctx context.Context, refreshToken, password string) (*domain.RawAuthUser, error) {
	session, err := s.CurrentSession(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrInvalidToken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.credentials.UpdatePassword(ctx, session.UserID, string(hash)); err != nil {
		return nil, fmt.Errorf("failed to update password: %w", err)
	}
	if err := s.sessions.Revoke(ctx, refreshToken); err != nil && !errors.Is(err, ErrSessionNotFound) {
		s.logger.Warn("Failed to revoke token after password change", zap.Error(err))
	}

	cred, err := s.credentials.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find credential: %w", err)
	}
	return s.rawUser(ctx, cred), nil
}

// ValidateToken parses and validates an access token
func (s *service) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *service) issue(ctx context.Context, cred *domain.Credential) (*domain.AuthData, error) {
	session, err := s.createSession(ctx, cred.ID, SessionExpiration)
	if err != nil {
		return nil, err
	}

	raw := s.rawUser(ctx, cred)
	accessToken, err := s.generateAccessToken(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	return &domain.AuthData{User: raw, Session: session, AccessToken: accessToken}, nil
}

func (s *service) createSession(ctx context.Context, userID uuid.UUID, ttl time.Duration) (*domain.Session, error) {
	session := &domain.Session{
		ID:        uuid.New(),
		UserID:    userID,
		Token:     uuid.New().String(),
		ExpiresAt: time.Now().Add(ttl),
		CreatedAt: time.Now(),
		Revoked:   false,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// rawUser assembles the provider's view of a user. When the profile row is
// missing (possible after a partially completed sign-up) the credential
// alone is returned, with role and name fields absent.
func (s *service) rawUser(ctx context.Context, cred *domain.Credential) *domain.RawAuthUser {
	raw := &domain.RawAuthUser{
		ID:        cred.ID,
		Email:     cred.Email,
		CreatedAt: &cred.CreatedAt,
		UpdatedAt: &cred.UpdatedAt,
	}

	profile, err := s.profiles.GetOne(ctx, cred.ID)
	if err != nil {
		if !errors.Is(err, collection.ErrNotFound) {
			s.logger.Debug("Profile lookup failed", zap.Error(err))
		}
		return raw
	}

	raw.Role = &profile.Role
	raw.FullName = profile.FullName
	raw.AvatarURL = profile.AvatarURL
	raw.CreatedAt = &profile.CreatedAt
	raw.UpdatedAt = &profile.UpdatedAt
	return raw
}

func (s *service) generateAccessToken(raw *domain.RawAuthUser) (string, error) {
	role := domain.RoleCustomer
	if raw.Role != nil && *raw.Role != "" {
		role = *raw.Role
	}

	claims := &Claims{
		UserID: raw.ID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(AccessTokenExpiration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}
