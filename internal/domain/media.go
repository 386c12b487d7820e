package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Media is a record of an uploaded object
type Media struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	Name      string          `json:"name" db:"name"`
	FilePath  string          `json:"file_path" db:"file_path"`
	MimeType  string          `json:"mime_type" db:"mime_type"`
	Size      int64           `json:"size" db:"size"`
	UserID    uuid.UUID       `json:"user_id" db:"user_id"`
	Metadata  json.RawMessage `json:"metadata" db:"metadata"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

// HealthCheck is a single row used to probe database connectivity
type HealthCheck struct {
	ID        int64     `json:"id" db:"id"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
