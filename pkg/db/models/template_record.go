package models

import "time"

// TemplateRecord is an administrator-published template stored in the
// document store. The serving catalog remains the startup snapshot; admin
// writes land here so multiple server instances never diverge on in-memory
// state.
type TemplateRecord struct {
	ID          string    `gorm:"column:id;primaryKey"`
	Name        string    `gorm:"column:name;not null"`
	PriceCents  int64     `gorm:"column:price_cents;not null"`
	Description string    `gorm:"column:description"`
	Category    string    `gorm:"column:category"`
	Fields      []string  `gorm:"column:fields;type:jsonb;serializer:json"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides the default pluralization.
func (TemplateRecord) TableName() string {
	return "template_records"
}
