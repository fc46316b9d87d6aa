package http

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/hazop/pkg/domain/model"
	"github.com/secmon-lab/hazop/pkg/domain/types"
	"github.com/secmon-lab/hazop/pkg/utils/logging"
	"github.com/secmon-lab/hazop/pkg/utils/safe"
)

// dateLayout is the wire format of calendar dates
const dateLayout = "2006-01-02"

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.From(r.Context()).Error("failed to marshal response", "error", err.Error())
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	safe.Write(r.Context(), w, data)
}

// decodeJSON reads the request body into v. An empty body leaves v as is.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && err != io.EOF {
		return model.NewValidationError("body", goerr.V("cause", err.Error()))
	}
	return nil
}

// parseDate accepts YYYY-MM-DD. An empty string is the zero time.
func parseDate(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, model.NewValidationError(field, goerr.V("value", s))
	}
	return t, nil
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(dateLayout)
	return &s
}

type studyResponse struct {
	ID                      types.StudyID      `json:"id"`
	Title                   string             `json:"title"`
	Site                    string             `json:"site,omitempty"`
	Department              string             `json:"department,omitempty"`
	Team                    []types.EmployeeID `json:"team"`
	CreatedBy               types.EmployeeID   `json:"createdBy,omitempty"`
	CompletionStatus        bool               `json:"completionStatus"`
	SendForVerification     bool               `json:"sendForVerification"`
	VerificationActionTaken bool               `json:"verificationActionTaken"`
	SignedOffBy             types.EmployeeID   `json:"signedOffBy,omitempty"`
	SignedOffAt             *time.Time         `json:"signedOffAt,omitempty"`
	Retired                 bool               `json:"retired"`
	Version                 int64              `json:"version"`
	CreatedAt               time.Time          `json:"createdAt"`
	UpdatedAt               time.Time          `json:"updatedAt"`
}

func toStudyResponse(s *model.Study) *studyResponse {
	team := s.Team
	if team == nil {
		team = []types.EmployeeID{}
	}
	return &studyResponse{
		ID:                      s.ID,
		Title:                   s.Title,
		Site:                    s.Site,
		Department:              s.Department,
		Team:                    team,
		CreatedBy:               s.CreatedBy,
		CompletionStatus:        s.CompletionStatus,
		SendForVerification:     s.SendForVerification,
		VerificationActionTaken: s.VerificationActionTaken,
		SignedOffBy:             s.SignedOffBy,
		SignedOffAt:             s.SignedOffAt,
		Retired:                 s.Retired,
		Version:                 s.Version,
		CreatedAt:               s.CreatedAt,
		UpdatedAt:               s.UpdatedAt,
	}
}

type nodeResponse struct {
	ID                types.NodeID  `json:"id"`
	StudyID           types.StudyID `json:"studyId"`
	NodeNumber        int           `json:"nodeNumber"`
	Title             string        `json:"title"`
	DesignIntent      string        `json:"designIntent,omitempty"`
	Drawing           string        `json:"drawing,omitempty"`
	DrawingRevision   string        `json:"drawingRevision,omitempty"`
	ProcessParameters []string      `json:"processParameters,omitempty"`
	CompletionStatus  bool          `json:"completionStatus"`
	CompletedAt       *time.Time    `json:"completedAt,omitempty"`
	Version           int64         `json:"version"`
}

func toNodeResponse(n *model.Node) *nodeResponse {
	return &nodeResponse{
		ID:                n.ID,
		StudyID:           n.StudyID,
		NodeNumber:        n.NodeNumber,
		Title:             n.Title,
		DesignIntent:      n.DesignIntent,
		Drawing:           n.Drawing,
		DrawingRevision:   n.DrawingRevision,
		ProcessParameters: n.ProcessParameters,
		CompletionStatus:  n.CompletionStatus,
		CompletedAt:       n.CompletedAt,
		Version:           n.Version,
	}
}

type deviationResponse struct {
	ID                    types.DeviationID     `json:"id"`
	NodeID                types.NodeID          `json:"nodeId"`
	StudyID               types.StudyID         `json:"studyId"`
	SequenceNumber        int                   `json:"sequenceNumber"`
	GeneralParameter      string                `json:"generalParameter"`
	SpecificParameter     string                `json:"specificParameter"`
	GuideWord             string                `json:"guideWord"`
	Deviation             string                `json:"deviation"`
	Causes                string                `json:"causes"`
	Consequences          string                `json:"consequences"`
	ExistingControl       string                `json:"existingControl"`
	ExistingProbability   types.Probability     `json:"existingProbability"`
	ExistingSeverity      types.Severity        `json:"existingSeverity"`
	InitialRisk           types.Rating          `json:"initialRisk"`
	InitialBand           types.Band            `json:"initialBand"`
	AdditionalControl     string                `json:"additionalControl,omitempty"`
	AdditionalProbability types.Probability     `json:"additionalProbability,omitempty"`
	AdditionalSeverity    types.Severity        `json:"additionalSeverity,omitempty"`
	FinalRisk             types.Rating          `json:"finalRisk,omitempty"`
	Status                types.DeviationStatus `json:"status"`
	CreatedBy             types.EmployeeID      `json:"createdBy,omitempty"`
	Version               int64                 `json:"version"`
	CreatedAt             time.Time             `json:"createdAt"`
	UpdatedAt             time.Time             `json:"updatedAt"`
}

func toDeviationResponse(d *model.Deviation) *deviationResponse {
	return &deviationResponse{
		ID:                    d.ID,
		NodeID:                d.NodeID,
		StudyID:               d.StudyID,
		SequenceNumber:        d.SequenceNumber,
		GeneralParameter:      d.GeneralParameter,
		SpecificParameter:     d.SpecificParameter,
		GuideWord:             d.GuideWord,
		Deviation:             d.Deviation,
		Causes:                d.Causes,
		Consequences:          d.Consequences,
		ExistingControl:       d.ExistingControl,
		ExistingProbability:   d.ExistingProbability,
		ExistingSeverity:      d.ExistingSeverity,
		InitialRisk:           d.InitialRisk,
		InitialBand:           types.Classify(d.InitialRisk),
		AdditionalControl:     d.AdditionalControl,
		AdditionalProbability: d.AdditionalProbability,
		AdditionalSeverity:    d.AdditionalSeverity,
		FinalRisk:             d.FinalRisk,
		Status:                d.Status,
		CreatedBy:             d.CreatedBy,
		Version:               d.Version,
		CreatedAt:             d.CreatedAt,
		UpdatedAt:             d.UpdatedAt,
	}
}

type recommendationResponse struct {
	ID                        types.RecommendationID     `json:"id"`
	DeviationID               types.DeviationID          `json:"deviationId"`
	NodeID                    types.NodeID               `json:"nodeId"`
	StudyID                   types.StudyID              `json:"studyId"`
	Position                  int                        `json:"position"`
	Action                    string                     `json:"action"`
	Remark                    string                     `json:"remark,omitempty"`
	Department                string                     `json:"department,omitempty"`
	Status                    types.RecommendationStatus `json:"status"`
	SendForVerification       bool                       `json:"sendForVerification"`
	SendForVerificationAction types.VerificationAction   `json:"sendForVerificationAction,omitempty"`
	VerificationRemark        string                     `json:"verificationRemark,omitempty"`
	CompletionStatus          bool                       `json:"completionStatus"`
	CompletionDate            *string                    `json:"completionDate,omitempty"`
	ActiveAssignmentID        types.AssignmentID         `json:"activeAssignmentId,omitempty"`
	PendingReassignment       bool                       `json:"pendingReassignment"`
	Version                   int64                      `json:"version"`
}

func toRecommendationResponse(r *model.Recommendation) *recommendationResponse {
	return &recommendationResponse{
		ID:                        r.ID,
		DeviationID:               r.DeviationID,
		NodeID:                    r.NodeID,
		StudyID:                   r.StudyID,
		Position:                  r.Position,
		Action:                    r.Action,
		Remark:                    r.Remark,
		Department:                r.Department,
		Status:                    r.Status,
		SendForVerification:       r.SendForVerification,
		SendForVerificationAction: r.SendForVerificationAction,
		VerificationRemark:        r.VerificationRemark,
		CompletionStatus:          r.CompletionStatus,
		CompletionDate:            formatDate(r.CompletionDate),
		ActiveAssignmentID:        r.ActiveAssignmentID,
		PendingReassignment:       r.PendingReassignment,
		Version:                   r.Version,
	}
}

type assignmentResponse struct {
	ID               types.AssignmentID     `json:"id"`
	RecommendationID types.RecommendationID `json:"recommendationId"`
	Seq              int                    `json:"seq"`
	AssigneeID       types.EmployeeID       `json:"assigneeId"`
	AssignedBy       types.EmployeeID       `json:"assignedBy,omitempty"`
	Comment          string                 `json:"comment,omitempty"`
	AssignWorkDate   string                 `json:"assignWorkDate"`
	AcceptanceStatus types.AcceptanceStatus `json:"acceptanceStatus"`
	TargetDate       *string                `json:"targetDate,omitempty"`
	CompletionDate   *string                `json:"completionDate,omitempty"`
	Superseded       bool                   `json:"superseded"`
	Version          int64                  `json:"version"`
}

func toAssignmentResponse(a *model.Assignment) *assignmentResponse {
	return &assignmentResponse{
		ID:               a.ID,
		RecommendationID: a.RecommendationID,
		Seq:              a.Seq,
		AssigneeID:       a.AssigneeID,
		AssignedBy:       a.AssignedBy,
		Comment:          a.Comment,
		AssignWorkDate:   a.AssignWorkDate.UTC().Format(dateLayout),
		AcceptanceStatus: a.AcceptanceStatus,
		TargetDate:       formatDate(a.TargetDate),
		CompletionDate:   formatDate(a.CompletionDate),
		Superseded:       a.Superseded,
		Version:          a.Version,
	}
}

type targetDateResponse struct {
	ID           types.TargetDateID `json:"id"`
	AssignmentID types.AssignmentID `json:"assignmentId"`
	Seq          int                `json:"seq"`
	Date         string             `json:"date"`
	SetBy        types.EmployeeID   `json:"setBy,omitempty"`
}

func toTargetDateResponse(t *model.TargetDateRecord) *targetDateResponse {
	return &targetDateResponse{
		ID:           t.ID,
		AssignmentID: t.AssignmentID,
		Seq:          t.Seq,
		Date:         t.Date.UTC().Format(dateLayout),
		SetBy:        t.SetBy,
	}
}

type historyResponse struct {
	Assignment  *assignmentResponse   `json:"assignment"`
	TargetDates []*targetDateResponse `json:"targetDates"`
}

// challengeResponse never carries the code
type challengeResponse struct {
	ID          types.ChallengeID        `json:"id"`
	Action      types.ApprovalActionKind `json:"action"`
	SubjectID   string                   `json:"subjectId"`
	Recipient   types.EmployeeID         `json:"recipientId"`
	ExpiresAt   time.Time                `json:"expiresAt"`
	MaxAttempts int                      `json:"maxAttempts"`
}

func toChallengeResponse(c *model.Challenge) *challengeResponse {
	return &challengeResponse{
		ID:          c.ID,
		Action:      c.Action.Kind,
		SubjectID:   c.Action.SubjectID,
		Recipient:   c.Recipient,
		ExpiresAt:   c.ExpiresAt,
		MaxAttempts: c.MaxAttempts,
	}
}

type employeeResponse struct {
	ID          types.EmployeeID `json:"id"`
	Name        string           `json:"name"`
	DisplayName string           `json:"displayName"`
	Email       string           `json:"email,omitempty"`
	Department  string           `json:"department,omitempty"`
	ImageURL    string           `json:"imageUrl,omitempty"`
}

func toEmployeeResponse(e *model.Employee) *employeeResponse {
	return &employeeResponse{
		ID:          e.ID,
		Name:        e.Name,
		DisplayName: e.DisplayName(),
		Email:       e.Email,
		Department:  e.Department,
		ImageURL:    e.ImageURL,
	}
}

// mapSlice converts every element with fn and never returns nil
func mapSlice[S any, D any](src []S, fn func(S) D) []D {
	out := make([]D, len(src))
	for i, v := range src {
		out[i] = fn(v)
	}
	return out
}
