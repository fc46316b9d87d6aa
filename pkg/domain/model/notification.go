package model

import "github.com/secmon-lab/hazop/pkg/domain/types"

// NotificationKind names the event a notification reports
type NotificationKind string

const (
	NotificationAssigned           NotificationKind = "assigned"
	NotificationReassigned         NotificationKind = "reassigned"
	NotificationUnassigned         NotificationKind = "unassigned"
	NotificationAssignmentAnswered NotificationKind = "assignment_answered"
	NotificationVerified           NotificationKind = "verified"
	NotificationVerifyRejected     NotificationKind = "verify_rejected"
	NotificationOTP                NotificationKind = "otp"
)

// Notification is a best-effort message to one person
type Notification struct {
	Kind      NotificationKind
	Recipient types.EmployeeID
	Subject   string
	Body      string
	// Code carries the OTP for NotificationOTP and is never logged.
	Code string `masq:"secret"`
	// Recommendation is set for recommendation lifecycle events
	Recommendation *Recommendation
}
