package types

import "fmt"

// RecommendationStatus represents the lifecycle state of a recommendation
type RecommendationStatus string

const (
	RecommendationStatusUnassigned       RecommendationStatus = "unassigned"
	RecommendationStatusAssigned         RecommendationStatus = "assigned"
	RecommendationStatusAccepted         RecommendationStatus = "accepted"
	RecommendationStatusRejected         RecommendationStatus = "rejected"
	RecommendationStatusCompleted        RecommendationStatus = "completed"
	RecommendationStatusVerifiedApproved RecommendationStatus = "verified_approved"
)

// AllRecommendationStatuses returns all valid recommendation statuses
func AllRecommendationStatuses() []RecommendationStatus {
	return []RecommendationStatus{
		RecommendationStatusUnassigned,
		RecommendationStatusAssigned,
		RecommendationStatusAccepted,
		RecommendationStatusRejected,
		RecommendationStatusCompleted,
		RecommendationStatusVerifiedApproved,
	}
}

// IsValid checks if the recommendation status is valid
func (s RecommendationStatus) IsValid() bool {
	switch s {
	case RecommendationStatusUnassigned,
		RecommendationStatusAssigned,
		RecommendationStatusAccepted,
		RecommendationStatusRejected,
		RecommendationStatusCompleted,
		RecommendationStatusVerifiedApproved:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is possible
func (s RecommendationStatus) IsTerminal() bool {
	return s == RecommendationStatusVerifiedApproved || s == RecommendationStatusRejected
}

// IsResolved reports whether the recommendation counts as done for study completion
func (s RecommendationStatus) IsResolved() bool {
	return s == RecommendationStatusCompleted || s.IsTerminal()
}

// Emoji returns the Slack emoji for the status
func (s RecommendationStatus) Emoji() string {
	switch s {
	case RecommendationStatusUnassigned:
		return ":inbox_tray:"
	case RecommendationStatusAssigned:
		return ":bust_in_silhouette:"
	case RecommendationStatusAccepted:
		return ":hammer_and_wrench:"
	case RecommendationStatusRejected:
		return ":no_entry_sign:"
	case RecommendationStatusCompleted:
		return ":white_check_mark:"
	case RecommendationStatusVerifiedApproved:
		return ":trophy:"
	default:
		return ":grey_question:"
	}
}

// String returns the string representation of the recommendation status
func (s RecommendationStatus) String() string {
	return string(s)
}

// ParseRecommendationStatus parses a string into a RecommendationStatus
func ParseRecommendationStatus(s string) (RecommendationStatus, error) {
	status := RecommendationStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid recommendation status: %s", s)
	}
	return status, nil
}

// AcceptanceStatus is the assignee's answer to an assignment
type AcceptanceStatus string

const (
	AcceptanceStatusPending  AcceptanceStatus = "pending"
	AcceptanceStatusAccepted AcceptanceStatus = "accepted"
	AcceptanceStatusRejected AcceptanceStatus = "rejected"
)

// IsValid checks if the acceptance status is valid
func (s AcceptanceStatus) IsValid() bool {
	switch s {
	case AcceptanceStatusPending, AcceptanceStatusAccepted, AcceptanceStatusRejected:
		return true
	default:
		return false
	}
}

// String returns the string representation of the acceptance status
func (s AcceptanceStatus) String() string {
	return string(s)
}

// VerificationAction is the verifier's decision on a completed recommendation
type VerificationAction string

const (
	VerificationActionNone     VerificationAction = ""
	VerificationActionApproved VerificationAction = "approved"
	VerificationActionRejected VerificationAction = "rejected"
)

// String returns the string representation of the verification action
func (a VerificationAction) String() string {
	return string(a)
}
