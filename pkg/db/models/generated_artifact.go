package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/legacy-capsule/capsule-backend/pkg/types"
)

// GeneratedArtifact links a paid checkout session to one generated document.
// Rows are append-only; uniqueness on (session_id, template_id) is the
// serialization point for idempotent generation.
type GeneratedArtifact struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SessionID     string              `gorm:"column:session_id;not null;uniqueIndex:idx_artifacts_session_template,priority:1"`
	TemplateID    string              `gorm:"column:template_id;not null;uniqueIndex:idx_artifacts_session_template,priority:2"`
	Filename      string              `gorm:"column:filename;not null;uniqueIndex:idx_artifacts_filename"`
	StorageRef    string              `gorm:"column:storage_ref;not null"`
	Customization types.Customization `gorm:"column:customization;type:jsonb;serializer:json"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
}

// TableName overrides the default pluralization.
func (GeneratedArtifact) TableName() string {
	return "generated_artifacts"
}
