package types

import "fmt"

// ApprovalActionKind names a state-changing action guarded by an OTP challenge
type ApprovalActionKind string

const (
	ApprovalActionVerifyRecommendation ApprovalActionKind = "verify_recommendation"
	ApprovalActionSendForVerification  ApprovalActionKind = "send_for_verification"
	ApprovalActionFinalSignOff         ApprovalActionKind = "final_sign_off"
)

// IsValid checks if the action kind is valid
func (k ApprovalActionKind) IsValid() bool {
	switch k {
	case ApprovalActionVerifyRecommendation,
		ApprovalActionSendForVerification,
		ApprovalActionFinalSignOff:
		return true
	default:
		return false
	}
}

// String returns the string representation of the action kind
func (k ApprovalActionKind) String() string {
	return string(k)
}

// ParseApprovalActionKind parses a string into an ApprovalActionKind
func ParseApprovalActionKind(s string) (ApprovalActionKind, error) {
	kind := ApprovalActionKind(s)
	if !kind.IsValid() {
		return "", fmt.Errorf("invalid approval action: %s", s)
	}
	return kind, nil
}
