package enums

import "fmt"

// ItemOutcome records how one template fared within a fulfillment run.
type ItemOutcome string

const (
	ItemOutcomeCompleted ItemOutcome = "completed"
	ItemOutcomeFailed    ItemOutcome = "failed"
)

var validItemOutcomes = []ItemOutcome{
	ItemOutcomeCompleted,
	ItemOutcomeFailed,
}

// String implements fmt.Stringer.
func (o ItemOutcome) String() string {
	return string(o)
}

// IsValid reports whether the value is a known ItemOutcome.
func (o ItemOutcome) IsValid() bool {
	for _, candidate := range validItemOutcomes {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseItemOutcome converts raw input into an ItemOutcome.
func ParseItemOutcome(value string) (ItemOutcome, error) {
	for _, candidate := range validItemOutcomes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid item outcome %q", value)
}
