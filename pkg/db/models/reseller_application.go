package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/legacy-capsule/capsule-backend/pkg/enums"
)

// ResellerApplication records a reseller program signup.
type ResellerApplication struct {
	ID         uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name       string              `gorm:"column:name;not null"`
	Email      string              `gorm:"column:email;not null"`
	Package    string              `gorm:"column:package"`
	Experience string              `gorm:"column:experience"`
	Status     enums.RequestStatus `gorm:"column:status;not null;default:'pending'"`
	CreatedAt  time.Time           `gorm:"column:created_at;autoCreateTime"`
}

// TableName overrides the default pluralization.
func (ResellerApplication) TableName() string {
	return "reseller_applications"
}
