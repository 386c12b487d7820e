package state

import (
	"context"
	"sync"

	"sushi-samurai/internal/domain"
)

// AuthClient is the slice of the auth service the store drives.
type AuthClient interface {
	SignIn(ctx context.Context, email, password string) (*domain.AuthData, error)
	SignUp(ctx context.Context, email, password string, fullName *string) (*domain.AuthData, error)
	SignOut(ctx context.Context, refreshToken string) error
	CurrentUser(ctx context.Context, refreshToken string) (*domain.RawAuthUser, error)
}

// AuthStore holds authentication state: the normalized user, the auth flag,
// a loading flag, and the last error. It is a plain injected container, not
// a package singleton. Mutations are serialized by a mutex; overlapping
// calls to the same action are last-write-wins.
type AuthStore struct {
	mu            sync.Mutex
	client        AuthClient
	user          *domain.User
	sessionToken  string
	authenticated bool
	loading       bool
	lastError     string
}

// NewAuthStore creates an uninitialized store: no user, not authenticated.
func NewAuthStore(client AuthClient) *AuthStore {
	return &AuthStore{client: client}
}

// Login signs in and normalizes the returned user. A response without a
// user sets the error "Authentication failed"; a failed call stores the
// error's message. The loading flag is cleared on every path.
func (s *AuthStore) Login(ctx context.Context, email, password string) {
	s.begin()
	data, err := s.client.SignIn(ctx, email, password)
	s.finish(data, err, "Authentication failed")
}

// Register mirrors Login against sign-up, with "Registration failed" as the
// fallback error.
func (s *AuthStore) Register(ctx context.Context, email, password string) {
	s.begin()
	data, err := s.client.SignUp(ctx, email, password, nil)
	s.finish(data, err, "Registration failed")
}

// Logout signs out and clears the user. A failed sign-out records the error
// but keeps the prior authenticated state: the session is presumed intact.
func (s *AuthStore) Logout(ctx context.Context) {
	s.begin()
	token := s.token()
	err := s.client.SignOut(ctx, token)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.lastError = errorMessage(err, "Logout failed")
	} else {
		s.user = nil
		s.sessionToken = ""
		s.authenticated = false
	}
	s.loading = false
}

// LoadUser fetches the current session's user. Absence of a session is not
// a failure: it clears the user with no error.
func (s *AuthStore) LoadUser(ctx context.Context) {
	s.begin()
	raw, err := s.client.CurrentUser(ctx, s.token())

	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case err != nil:
		s.lastError = errorMessage(err, "Failed to load user")
		s.user = nil
		s.authenticated = false
	case raw != nil:
		s.user = domain.NormalizeAuthUser(raw)
		s.authenticated = true
	default:
		s.user = nil
		s.authenticated = false
	}
	s.loading = false
}

// ClearError resets the error; no side effects.
func (s *AuthStore) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastError = ""
}

func (s *AuthStore) User() *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

func (s *AuthStore) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated
}

func (s *AuthStore) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the last error message, or "" when none is set.
func (s *AuthStore) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

// SessionToken returns the refresh token of the active session, if any.
func (s *AuthStore) SessionToken() string {
	return s.token()
}

func (s *AuthStore) begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = true
	s.lastError = ""
}

// finish applies the shared login/register outcome matrix.
func (s *AuthStore) finish(data *domain.AuthData, err error, fallback string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case err != nil:
		s.lastError = errorMessage(err, fallback)
	case data == nil || data.User == nil:
		s.lastError = fallback
	default:
		s.user = domain.NormalizeAuthUser(data.User)
		s.authenticated = true
		if data.Session != nil {
			s.sessionToken = data.Session.Token
		}
	}
	s.loading = false
}

func (s *AuthStore) token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionToken
}

func errorMessage(err error, fallback string) string {
	if err == nil || err.Error() == "" {
		return fallback
	}
	return err.Error()
}
