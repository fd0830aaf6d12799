package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/legacy-capsule/capsule-backend/pkg/enums"
	"github.com/legacy-capsule/capsule-backend/pkg/types"
)

// FulfillmentRecord is the durable state machine for one checkout session's
// fulfillment run. Exactly one row exists per session; insert-if-absent on
// session_id makes concurrent fulfillment requests collapse onto one run.
type FulfillmentRecord struct {
	ID               uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SessionID        string                 `gorm:"column:session_id;not null;uniqueIndex:idx_fulfillment_session"`
	State            enums.FulfillmentState `gorm:"column:state;not null"`
	Items            types.FulfillmentItems `gorm:"column:items;type:jsonb;serializer:json"`
	CustomerEmail    string                 `gorm:"column:customer_email"`
	AmountTotalCents int64                  `gorm:"column:amount_total_cents"`
	FailureReason    string                 `gorm:"column:failure_reason"`
	CreatedAt        time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides the default pluralization.
func (FulfillmentRecord) TableName() string {
	return "fulfillment_records"
}
