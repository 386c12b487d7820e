package state

import (
	"context"
	"errors"
	"testing"

	"sushi-samurai/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAuthClient scripts each auth call.
type fakeAuthClient struct {
	signInData  *domain.AuthData
	signInErr   error
	signUpData  *domain.AuthData
	signUpErr   error
	signOutErr  error
	currentUser *domain.RawAuthUser
	currentErr  error
}

func (f *fakeAuthClient) SignIn(ctx context.Context, email, password string) (*domain.AuthData, error) {
	return f.signInData, f.signInErr
}

func (f *fakeAuthClient) SignUp(ctx context.Context, email, password string, fullName *string) (*domain.AuthData, error) {
	return f.signUpData, f.signUpErr
}

func (f *fakeAuthClient) SignOut(ctx context.Context, refreshToken string) error {
	return f.signOutErr
}

func (f *fakeAuthClient) CurrentUser(ctx context.Context, refreshToken string) (*domain.RawAuthUser, error) {
	return f.currentUser, f.currentErr
}

func authData(email string) *domain.AuthData {
	return &domain.AuthData{
		User:        &domain.RawAuthUser{ID: uuid.New(), Email: email},
		Session:     &domain.Session{Token: "refresh-token"},
		AccessToken: "access-token",
	}
}

func TestAuthStore_LoginSuccess(t *testing.T) {
	client := &fakeAuthClient{signInData: authData("user@example.com")}
	store := NewAuthStore(client)

	store.Login(context.Background(), "user@example.com", "password123")

	require.NotNil(t, store.User())
	assert.Equal(t, "user@example.com", store.User().Email)
	assert.Equal(t, domain.RoleCustomer, store.User().Role)
	assert.True(t, store.IsAuthenticated())
	assert.False(t, store.IsLoading())
	assert.Empty(t, store.Err())
	assert.Equal(t, "refresh-token", store.SessionToken())
}

func TestAuthStore_LoginWithoutUserSetsFallbackError(t *testing.T) {
	client := &fakeAuthClient{signInData: &domain.AuthData{}}
	store := NewAuthStore(client)

	store.Login(context.Background(), "user@example.com", "password123")

	assert.Equal(t, "Authentication failed", store.Err())
	assert.False(t, store.IsAuthenticated())
	assert.False(t, store.IsLoading())
}

func TestAuthStore_LoginErrorStoresMessage(t *testing.T) {
	client := &fakeAuthClient{signInErr: errors.New("invalid email or password")}
	store := NewAuthStore(client)

	store.Login(context.Background(), "user@example.com", "wrong")

	assert.Equal(t, "invalid email or password", store.Err())
	assert.False(t, store.IsAuthenticated())
	assert.False(t, store.IsLoading())
}

func TestAuthStore_RegisterFallbackError(t *testing.T) {
	client := &fakeAuthClient{signUpData: nil}
	store := NewAuthStore(client)

	store.Register(context.Background(), "user@example.com", "password123")

	assert.Equal(t, "Registration failed", store.Err())
	assert.False(t, store.IsAuthenticated())
}

func TestAuthStore_RegisterSuccess(t *testing.T) {
	client := &fakeAuthClient{signUpData: authData("new@example.com")}
	store := NewAuthStore(client)

	store.Register(context.Background(), "new@example.com", "password123")

	assert.True(t, store.IsAuthenticated())
	assert.Empty(t, store.Err())
}

func TestAuthStore_LogoutClearsState(t *testing.T) {
	client := &fakeAuthClient{signInData: authData("user@example.com")}
	store := NewAuthStore(client)
	store.Login(context.Background(), "user@example.com", "password123")

	store.Logout(context.Background())

	assert.Nil(t, store.User())
	assert.False(t, store.IsAuthenticated())
	assert.Empty(t, store.SessionToken())
}

func TestAuthStore_LogoutFailureKeepsSession(t *testing.T) {
	client := &fakeAuthClient{signInData: authData("user@example.com")}
	store := NewAuthStore(client)
	store.Login(context.Background(), "user@example.com", "password123")

	client.signOutErr = errors.New("network down")
	store.Logout(context.Background())

	// The session is presumed intact on a failed sign-out.
	assert.True(t, store.IsAuthenticated())
	assert.NotNil(t, store.User())
	assert.Equal(t, "network down", store.Err())
}

func TestAuthStore_LoadUserAbsentSessionIsNotAnError(t *testing.T) {
	client := &fakeAuthClient{currentUser: nil}
	store := NewAuthStore(client)

	store.LoadUser(context.Background())

	assert.Nil(t, store.User())
	assert.False(t, store.IsAuthenticated())
	assert.Empty(t, store.Err())
	assert.False(t, store.IsLoading())
}

func TestAuthStore_LoadUserErrorClearsUser(t *testing.T) {
	client := &fakeAuthClient{signInData: authData("user@example.com")}
	store := NewAuthStore(client)
	store.Login(context.Background(), "user@example.com", "password123")

	client.currentErr = errors.New("session lookup failed")
	store.LoadUser(context.Background())

	assert.Nil(t, store.User())
	assert.False(t, store.IsAuthenticated())
	assert.Equal(t, "session lookup failed", store.Err())
}

func TestAuthStore_LoadUserNormalizesRole(t *testing.T) {
	role := domain.RoleAdmin
	client := &fakeAuthClient{currentUser: &domain.RawAuthUser{
		ID:    uuid.New(),
		Email: "admin@example.com",
		Role:  &role,
	}}
	store := NewAuthStore(client)

	store.LoadUser(context.Background())

	require.NotNil(t, store.User())
	assert.Equal(t, domain.RoleAdmin, store.User().Role)
	assert.True(t, store.IsAuthenticated())
}

func TestAuthStore_ClearError(t *testing.T) {
	client := &fakeAuthClient{signInErr: errors.New("boom")}
	store := NewAuthStore(client)
	store.Login(context.Background(), "user@example.com", "password123")
	require.NotEmpty(t, store.Err())

	store.ClearError()
	assert.Empty(t, store.Err())
}
