package config

import (
	"time"

	"github.com/secmon-lab/hazop/pkg/domain/types"
)

// ProbabilityLevel is the display label of a probability score
type ProbabilityLevel struct {
	ID          string
	Name        string
	Description string
	Score       types.Probability
}

// SeverityLevel is the display label of a severity score
type SeverityLevel struct {
	ID          string
	Name        string
	Description string
	Score       types.Severity
}

// Department is a responsible department recommendations can be routed to
type Department struct {
	ID   string
	Name string
}

// OTP holds one-time passcode settings
type OTP struct {
	TTL         time.Duration
	Digits      int
	MaxAttempts int
}

// HazopConfig holds the study-wide configuration
type HazopConfig struct {
	Probability []ProbabilityLevel
	Severity    []SeverityLevel
	Departments []Department
	OTP         OTP
}

// ProbabilityLabel returns the configured name for the score, or "" if none
func (c *HazopConfig) ProbabilityLabel(p types.Probability) string {
	for _, l := range c.Probability {
		if l.Score == p {
			return l.Name
		}
	}
	return ""
}

// SeverityLabel returns the configured name for the score, or "" if none
func (c *HazopConfig) SeverityLabel(s types.Severity) string {
	for _, l := range c.Severity {
		if l.Score == s {
			return l.Name
		}
	}
	return ""
}

// HasDepartment reports whether the department is configured. Any department
// is accepted when none are configured.
func (c *HazopConfig) HasDepartment(id string) bool {
	if len(c.Departments) == 0 {
		return true
	}
	for _, d := range c.Departments {
		if d.ID == id {
			return true
		}
	}
	return false
}
