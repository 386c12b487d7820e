package transport

import (
	"errors"
	"net/http"

	"sushi-samurai/internal/auth"
	"sushi-samurai/internal/domain"
	"sushi-samurai/internal/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// RegisterRequest represents the registration request payload
type RegisterRequest struct {
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=8"`
	FullName *string `json:"full_name"`
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TokenRequest carries a refresh token
type TokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// ResetPasswordRequest asks for a password reset token
type ResetPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// UpdatePasswordRequest changes the password behind a live token
type UpdatePasswordRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
	Password     string `json:"password" validate:"required,min=8"`
}

// UserProfile represents user profile data
type UserProfile struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	Role      string  `json:"role"`
	FullName  *string `json:"full_name"`
	AvatarURL *string `json:"avatar_url"`
}

// AuthResponse carries tokens and the signed-in user's profile
type AuthResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	User         UserProfile `json:"user"`
}

// AuthHandler handles HTTP requests for authentication
type AuthHandler struct {
	service auth.Service
	logger  *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service auth.Service, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{service: service, logger: logger}
}

// RegisterRoutes registers all auth routes
func (h *AuthHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/refresh", h.Refresh)
		r.Post("/reset-password", h.ResetPassword)
		r.Post("/update-password", h.UpdatePassword)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Post("/logout", h.Logout)
			r.Get("/profile", h.Profile)
		})
	})
}

// Register handles user sign-up
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decode(w, r, &req, h.logger) {
		return
	}

	data, err := h.service.SignUp(r.Context(), req.Email, req.Password, req.FullName)
	if err != nil {
		if errors.Is(err, auth.ErrEmailTaken) {
			middleware.RespondWithError(w, http.StatusConflict, "account with this email already exists")
			return
		}
		h.logger.Error("Registration failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to register")
		return
	}

	h.logger.Info("User registered", zap.String("user_id", data.User.ID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, authResponse(data))
}

// Login handles user sign-in
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decode(w, r, &req, h.logger) {
		return
	}

	data, err := h.service.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			middleware.RespondWithError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		h.logger.Error("Login failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to login")
		return
	}

	h.logger.Info("User logged in", zap.String("user_id", data.User.ID.String()))
	middleware.RespondWithJSON(w, http.StatusOK, authResponse(data))
}

// Logout revokes the session
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if !decode(w, r, &req, h.logger) {
		return
	}

	if err := h.service.SignOut(r.Context(), req.RefreshToken); err != nil {
		h.logger.Error("Logout failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to logout")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "logged out successfully"})
}

// Refresh issues a new access token
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if !decode(w, r, &req, h.logger) {
		return
	}

	accessToken, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrTokenExpired) {
			middleware.RespondWithError(w, http.StatusUnauthorized, "invalid refresh token")
			return
		}
		h.logger.Error("Token refresh failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to refresh token")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"access_token": accessToken})
}

// ResetPassword mints a short-lived reset token. The response does not say
// whether the account exists.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if !decode(w, r, &req, h.logger) {
		return
	}

	if _, err := h.service.ResetPassword(r.Context(), req.Email); err != nil && !errors.Is(err, auth.ErrInvalidCredentials) {
		h.logger.Error("Password reset failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to reset password")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "password reset requested"})
}

// UpdatePassword changes the password behind a live token
func (h *AuthHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	var req UpdatePasswordRequest
	if !decode(w, r, &req, h.logger) {
		return
	}

	raw, err := h.service.UpdatePassword(r.Context(), req.RefreshToken, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) {
			middleware.RespondWithError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		h.logger.Error("Password update failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update password")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, profileOf(raw))
}

// Profile returns the authenticated user's profile
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	req.RefreshToken = r.Header.Get("X-Session-Token")
	if req.RefreshToken == "" {
		middleware.RespondWithError(w, http.StatusBadRequest, "missing session token")
		return
	}

	raw, err := h.service.CurrentUser(r.Context(), req.RefreshToken)
	if err != nil {
		h.logger.Error("Profile fetch failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to fetch profile")
		return
	}
	if raw == nil {
		middleware.RespondWithError(w, http.StatusUnauthorized, "no active session")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, profileOf(raw))
}

func authResponse(data *domain.AuthData) AuthResponse {
	return AuthResponse{
		AccessToken:  data.AccessToken,
		RefreshToken: data.Session.Token,
		User:         profileOf(data.User),
	}
}

func profileOf(raw *domain.RawAuthUser) UserProfile {
	user := domain.NormalizeAuthUser(raw)
	return UserProfile{
		ID:        user.ID.String(),
		Email:     user.Email,
		Role:      user.Role,
		FullName:  user.FullName,
		AvatarURL: user.AvatarURL,
	}
}

// decode reads and validates the request body, writing the error response
// itself. Returns false when the request was rejected.
func decode(w http.ResponseWriter, r *http.Request, v interface{}, logger *zap.Logger) bool {
	if err := middleware.DecodeAndValidate(r, v); err != nil {
		logger.Debug("Request validation failed", zap.Error(err))
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return false
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
