package media

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"sushi-samurai/internal/collection"
	"sushi-samurai/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UploadOptions describe the object being uploaded.
type UploadOptions struct {
	UserID   uuid.UUID
	FileName string
	Folder   string
	MimeType string
	Metadata map[string]any
}

// Service stores uploaded objects and records a media row for each.
type Service struct {
	objects ObjectStore
	rows    *collection.Table[domain.Media]
	logger  *zap.Logger
}

func NewService(objects ObjectStore, rows *collection.Table[domain.Media], logger *zap.Logger) *Service {
	return &Service{objects: objects, rows: rows, logger: logger}
}

// Upload writes the object under a unique path so uploads never overwrite
// each other, then records it in the media table.
func (s *Service) Upload(ctx context.Context, r io.Reader, opts UploadOptions) (*domain.Media, string, error) {
	folder := opts.Folder
	if folder == "" {
		folder = "uploads"
	}

	objectPath := path.Join(folder, uuid.New().String()+extension(opts.FileName))
	url, size, err := s.objects.Put(ctx, objectPath, r)
	if err != nil {
		return nil, "", fmt.Errorf("failed to upload %s: %w", opts.FileName, err)
	}

	now := time.Now()
	fields := map[string]any{
		"id":         uuid.New(),
		"name":       opts.FileName,
		"file_path":  objectPath,
		"mime_type":  opts.MimeType,
		"size":       size,
		"user_id":    opts.UserID,
		"created_at": now,
		"updated_at": now,
	}
	if len(opts.Metadata) > 0 {
		meta, err := json.Marshal(opts.Metadata)
		if err != nil {
			return nil, "", fmt.Errorf("failed to encode metadata: %w", err)
		}
		fields["metadata"] = meta
	}

	row, err := s.rows.Create(ctx, fields)
	if err != nil {
		// Object is orphaned if the row insert fails; clean it up.
		if delErr := s.objects.Delete(ctx, objectPath); delErr != nil {
			s.logger.Warn("Failed to remove orphaned object", zap.String("path", objectPath), zap.Error(delErr))
		}
		return nil, "", err
	}
	return row, url, nil
}

// List returns media rows, optionally filtered by owner.
func (s *Service) List(ctx context.Context, userID *uuid.UUID) ([]*domain.Media, error) {
	opts := collection.ListOptions{
		OrderBy: &collection.Order{Column: "created_at", Descending: true},
	}
	if userID != nil {
		opts.Filters = map[string]any{"user_id": *userID}
	}
	return s.rows.GetAll(ctx, opts)
}

// Delete removes the media row and its stored object.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	row, err := s.rows.GetOne(ctx, id)
	if err != nil {
		return err
	}
	if err := s.rows.Remove(ctx, id); err != nil {
		return err
	}
	if err := s.objects.Delete(ctx, row.FilePath); err != nil {
		s.logger.Warn("Failed to delete object", zap.String("path", row.FilePath), zap.Error(err))
	}
	return nil
}

func extension(fileName string) string {
	if i := strings.LastIndex(fileName, "."); i >= 0 {
		return fileName[i:]
	}
	return ""
}
