package model

import (
	"strings"
	"time"

	"github.com/secmon-lab/hazop/pkg/domain/types"
)

// Employee is the local copy of a directory entry
type Employee struct {
	ID         types.EmployeeID
	Name       string // login name (e.g., "john.doe")
	RealName   string // display name (e.g., "John Doe")
	Email      string
	Department string
	ImageURL   string    // empty string = no image
	UpdatedAt  time.Time // last synchronized from the directory
}

// DisplayName returns the real name, or the login name when none is set
func (e *Employee) DisplayName() string {
	if e.RealName != "" {
		return e.RealName
	}
	return e.Name
}

// Matches reports whether the query is a case-insensitive substring of the
// employee's names, email or department. An empty query matches everyone.
func (e *Employee) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	for _, f := range []string{e.Name, e.RealName, e.Email, e.Department} {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// EmployeeMetadata tracks the health of directory synchronization
type EmployeeMetadata struct {
	LastRefreshSuccess time.Time
	LastRefreshAttempt time.Time
	EmployeeCount      int
}
