package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/legacy-capsule/capsule-backend/pkg/enums"
	"github.com/legacy-capsule/capsule-backend/pkg/types"
)

// CustomQuote records a request for a bespoke template.
type CustomQuote struct {
	ID           uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string              `gorm:"column:name;not null"`
	Email        string              `gorm:"column:email;not null"`
	TemplateType string              `gorm:"column:template_type"`
	Notes        string              `gorm:"column:notes"`
	Files        []types.FileRef     `gorm:"column:files;type:jsonb;serializer:json"`
	Status       enums.RequestStatus `gorm:"column:status;not null;default:'pending'"`
	CreatedAt    time.Time           `gorm:"column:created_at;autoCreateTime"`
}

// TableName overrides the default pluralization.
func (CustomQuote) TableName() string {
	return "custom_quotes"
}
