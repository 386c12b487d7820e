package transport

import (
	"errors"
	"net/http"

	"sushi-samurai/internal/collection"
	"sushi-samurai/internal/domain"
	"sushi-samurai/internal/media"
	"sushi-samurai/internal/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// maxUploadSize caps multipart uploads at 10 MiB.
const maxUploadSize = 10 << 20

// MediaUploadResponse is the upload result with the public URL
type MediaUploadResponse struct {
	Media *domain.Media `json:"media"`
	URL   string        `json:"url"`
}

// MediaHandler handles file uploads and media management
type MediaHandler struct {
	service *media.Service
	logger  *zap.Logger
}

// NewMediaHandler creates a new MediaHandler
func NewMediaHandler(service *media.Service, logger *zap.Logger) *MediaHandler {
	return &MediaHandler{service: service, logger: logger}
}

// RegisterRoutes registers media routes. Listing and deleting other users'
// files is a staff concern, so everything sits behind authentication.
func (h *MediaHandler) RegisterRoutes(r chi.Router, authMiddleware, staffMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/media", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/", h.Upload)
		r.Get("/", h.List)

		r.Group(func(r chi.Router) {
			r.Use(staffMiddleware)
			r.Delete("/{id}", h.Delete)
		})
	})
}

// Upload stores a multipart file and records it
func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "user not authenticated")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid multipart request")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	row, url, err := h.service.Upload(r.Context(), file, media.UploadOptions{
		UserID:   userID,
		FileName: header.Filename,
		Folder:   r.FormValue("folder"),
		MimeType: header.Header.Get("Content-Type"),
	})
	if err != nil {
		h.logger.Error("Upload failed", zap.String("file", header.Filename), zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to upload file")
		return
	}

	h.logger.Info("File uploaded",
		zap.String("media_id", row.ID.String()),
		zap.String("user_id", userID.String()),
		zap.Int64("size", row.Size),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, MediaUploadResponse{Media: row, URL: url})
}

// List returns the caller's uploads. Staff and admins see everything.
func (h *MediaHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "user not authenticated")
		return
	}

	owner := &userID
	if role, ok := middleware.GetUserRole(r.Context()); ok && role != domain.RoleCustomer {
		owner = nil
	}

	rows, err := h.service.List(r.Context(), owner)
	if err != nil {
		h.logger.Error("Media list failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list media")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, rows)
}

// Delete removes a media row and its stored object
func (h *MediaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		if errors.Is(err, collection.ErrNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "media not found")
			return
		}
		h.logger.Error("Media delete failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to delete media")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
