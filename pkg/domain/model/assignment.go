package model

import (
	"time"

	"github.com/secmon-lab/hazop/pkg/domain/types"
)

// Assignment is one hand-off of a recommendation to a responsible person.
// A recommendation keeps its whole assignment chain; at most one is active.
type Assignment struct {
	ID               types.AssignmentID
	RecommendationID types.RecommendationID
	Seq              int // 1-based position in the recommendation's chain
	AssigneeID       types.EmployeeID
	AssignedBy       types.EmployeeID
	Comment          string
	AssignWorkDate   time.Time
	AcceptanceStatus types.AcceptanceStatus
	TargetDate       *time.Time
	CompletionDate   *time.Time
	Superseded       bool
	SupersededAt     *time.Time
	Version          int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewAssignment creates a pending assignment
func NewAssignment(recID types.RecommendationID, seq int, assignee, assignedBy types.EmployeeID, workDate time.Time, comment string) *Assignment {
	return &Assignment{
		ID:               types.NewAssignmentID(),
		RecommendationID: recID,
		Seq:              seq,
		AssigneeID:       assignee,
		AssignedBy:       assignedBy,
		Comment:          comment,
		AssignWorkDate:   workDate,
		AcceptanceStatus: types.AcceptanceStatusPending,
	}
}

// IsActive reports whether the assignment is the live one of its recommendation
func (a *Assignment) IsActive() bool {
	return !a.Superseded && a.AcceptanceStatus != types.AcceptanceStatusRejected
}

// Supersede retires the assignment. Its target date history stays attached.
func (a *Assignment) Supersede(at time.Time) {
	a.Superseded = true
	a.SupersededAt = &at
}

// TargetDateRecord is an append-only entry in an assignment's target date history
type TargetDateRecord struct {
	ID           types.TargetDateID
	AssignmentID types.AssignmentID
	Seq          int
	Date         time.Time
	SetBy        types.EmployeeID
	Version      int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AssignmentHistory is an assignment together with its target date records
type AssignmentHistory struct {
	Assignment  *Assignment
	TargetDates []*TargetDateRecord
}

// DateOf truncates t to its UTC calendar date
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
