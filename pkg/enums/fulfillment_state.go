package enums

import "fmt"

// FulfillmentState tracks the per-session fulfillment state machine.
// Created -> Verifying -> Fulfilling -> Completed, or Created -> Verifying -> Failed.
type FulfillmentState string

const (
	FulfillmentStateCreated    FulfillmentState = "created"
	FulfillmentStateVerifying  FulfillmentState = "verifying"
	FulfillmentStateFulfilling FulfillmentState = "fulfilling"
	FulfillmentStateCompleted  FulfillmentState = "completed"
	FulfillmentStateFailed     FulfillmentState = "failed"
)

var validFulfillmentStates = []FulfillmentState{
	FulfillmentStateCreated,
	FulfillmentStateVerifying,
	FulfillmentStateFulfilling,
	FulfillmentStateCompleted,
	FulfillmentStateFailed,
}

// String implements fmt.Stringer.
func (f FulfillmentState) String() string {
	return string(f)
}

// IsValid reports whether the value is a known FulfillmentState.
func (f FulfillmentState) IsValid() bool {
	for _, candidate := range validFulfillmentStates {
		if candidate == f {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the state ends the fulfillment attempt.
func (f FulfillmentState) IsTerminal() bool {
	return f == FulfillmentStateCompleted || f == FulfillmentStateFailed
}

// ParseFulfillmentState converts raw input into a FulfillmentState.
func ParseFulfillmentState(value string) (FulfillmentState, error) {
	for _, candidate := range validFulfillmentStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid fulfillment state %q", value)
}
