package types

import "github.com/legacy-capsule/capsule-backend/pkg/enums"

// FulfillmentItem is the per-template outcome inside a fulfillment record.
// Failed items carry a reason; completed items carry the artifact handle.
type FulfillmentItem struct {
	TemplateID string            `json:"template_id"`
	Outcome    enums.ItemOutcome `json:"outcome"`
	Filename   string            `json:"filename,omitempty"`
	StorageRef string            `json:"storage_ref,omitempty"`
	Reason     string            `json:"reason,omitempty"`
}

// FulfillmentItems is stored as a JSON column on the fulfillment record.
type FulfillmentItems []FulfillmentItem

// AllSucceeded reports whether every item produced an artifact. An empty
// list did not succeed at anything.
func (items FulfillmentItems) AllSucceeded() bool {
	if len(items) == 0 {
		return false
	}
	for _, it := range items {
		if it.Outcome != enums.ItemOutcomeCompleted {
			return false
		}
	}
	return true
}
