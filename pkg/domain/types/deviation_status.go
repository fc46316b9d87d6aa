package types

import "fmt"

// DeviationStatus represents the authoring state of a deviation record
type DeviationStatus string

const (
	DeviationStatusDraft  DeviationStatus = "draft"
	DeviationStatusSaved  DeviationStatus = "saved"
	DeviationStatusLocked DeviationStatus = "locked"
)

// AllDeviationStatuses returns all valid deviation statuses
func AllDeviationStatuses() []DeviationStatus {
	return []DeviationStatus{
		DeviationStatusDraft,
		DeviationStatusSaved,
		DeviationStatusLocked,
	}
}

// IsValid checks if the deviation status is valid
func (s DeviationStatus) IsValid() bool {
	switch s {
	case DeviationStatusDraft, DeviationStatusSaved, DeviationStatusLocked:
		return true
	default:
		return false
	}
}

// String returns the string representation of the deviation status
func (s DeviationStatus) String() string {
	return string(s)
}

// ParseDeviationStatus parses a string into a DeviationStatus
func ParseDeviationStatus(s string) (DeviationStatus, error) {
	status := DeviationStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid deviation status: %s", s)
	}
	return status, nil
}
