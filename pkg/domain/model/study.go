package model

import (
	"time"

	"github.com/secmon-lab/hazop/pkg/domain/types"
)

// Study represents a HAZOP study. Studies are never deleted; Retired hides
// them from active listings.
type Study struct {
	ID                      types.StudyID
	Title                   string
	Site                    string
	Department              string
	Team                    []types.EmployeeID
	CreatedBy               types.EmployeeID
	CompletionStatus        bool
	SendForVerification     bool
	VerificationActionTaken bool
	SignedOffBy             types.EmployeeID
	SignedOffAt             *time.Time
	Retired                 bool
	Version                 int64
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// HasMember reports whether the employee is part of the study team
func (s *Study) HasMember(id types.EmployeeID) bool {
	for _, m := range s.Team {
		if m == id {
			return true
		}
	}
	return false
}

// Node represents a section of the process under study
type Node struct {
	ID                types.NodeID
	StudyID           types.StudyID
	NodeNumber        int
	Title             string
	DesignIntent      string
	Drawing           string // P&ID number
	DrawingRevision   string
	ProcessParameters []string
	CompletionStatus  bool
	CompletedAt       *time.Time
	// Version also guards the member set and ordering of the node's
	// deviations: every change to either commits the node with them.
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}
