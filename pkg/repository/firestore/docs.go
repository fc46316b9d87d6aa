package firestore

import (
	"time"

	"github.com/secmon-lab/hazop/pkg/domain/model"
	"github.com/secmon-lab/hazop/pkg/domain/types"
)

// Persistence models. Every workflow document carries "version" for the
// optimistic check in Commit.

type studyDoc struct {
	ID                      string     `firestore:"id"`
	Title                   string     `firestore:"title"`
	Site                    string     `firestore:"site"`
	Department              string     `firestore:"department"`
	Team                    []string   `firestore:"team"`
	CreatedBy               string     `firestore:"created_by"`
	CompletionStatus        bool       `firestore:"completion_status"`
	SendForVerification     bool       `firestore:"send_for_verification"`
	VerificationActionTaken bool       `firestore:"verification_action_taken"`
	SignedOffBy             string     `firestore:"signed_off_by"`
	SignedOffAt             *time.Time `firestore:"signed_off_at"`
	Retired                 bool       `firestore:"retired"`
	Version                 int64      `firestore:"version"`
	CreatedAt               time.Time  `firestore:"created_at"`
	UpdatedAt               time.Time  `firestore:"updated_at"`
}

func toStudyDoc(s *model.Study) *studyDoc {
	return &studyDoc{
		ID:                      s.ID.String(),
		Title:                   s.Title,
		Site:                    s.Site,
		Department:              s.Department,
		Team:                    employeeIDsToStrings(s.Team),
		CreatedBy:               s.CreatedBy.String(),
		CompletionStatus:        s.CompletionStatus,
		SendForVerification:     s.SendForVerification,
		VerificationActionTaken: s.VerificationActionTaken,
		SignedOffBy:             s.SignedOffBy.String(),
		SignedOffAt:             s.SignedOffAt,
		Retired:                 s.Retired,
		Version:                 s.Version,
		CreatedAt:               s.CreatedAt,
		UpdatedAt:               s.UpdatedAt,
	}
}

func (d *studyDoc) toModel() *model.Study {
	return &model.Study{
		ID:                      types.StudyID(d.ID),
		Title:                   d.Title,
		Site:                    d.Site,
		Department:              d.Department,
		Team:                    stringsToEmployeeIDs(d.Team),
		CreatedBy:               types.EmployeeID(d.CreatedBy),
		CompletionStatus:        d.CompletionStatus,
		SendForVerification:     d.SendForVerification,
		VerificationActionTaken: d.VerificationActionTaken,
		SignedOffBy:             types.EmployeeID(d.SignedOffBy),
		SignedOffAt:             d.SignedOffAt,
		Retired:                 d.Retired,
		Version:                 d.Version,
		CreatedAt:               d.CreatedAt,
		UpdatedAt:               d.UpdatedAt,
	}
}

type nodeDoc struct {
	ID                string     `firestore:"id"`
	StudyID           string     `firestore:"study_id"`
	NodeNumber        int        `firestore:"node_number"`
	Title             string     `firestore:"title"`
	DesignIntent      string     `firestore:"design_intent"`
	Drawing           string     `firestore:"drawing"`
	DrawingRevision   string     `firestore:"drawing_revision"`
	ProcessParameters []string   `firestore:"process_parameters"`
	CompletionStatus  bool       `firestore:"completion_status"`
	CompletedAt       *time.Time `firestore:"completed_at"`
	Version           int64      `firestore:"version"`
	CreatedAt         time.Time  `firestore:"created_at"`
	UpdatedAt         time.Time  `firestore:"updated_at"`
}

func toNodeDoc(n *model.Node) *nodeDoc {
	return &nodeDoc{
		ID:                n.ID.String(),
		StudyID:           n.StudyID.String(),
		NodeNumber:        n.NodeNumber,
		Title:             n.Title,
		DesignIntent:      n.DesignIntent,
		Drawing:           n.Drawing,
		DrawingRevision:   n.DrawingRevision,
		ProcessParameters: n.ProcessParameters,
		CompletionStatus:  n.CompletionStatus,
		CompletedAt:       n.CompletedAt,
		Version:           n.Version,
		CreatedAt:         n.CreatedAt,
		UpdatedAt:         n.UpdatedAt,
	}
}

func (d *nodeDoc) toModel() *model.Node {
	return &model.Node{
		ID:                types.NodeID(d.ID),
		StudyID:           types.StudyID(d.StudyID),
		NodeNumber:        d.NodeNumber,
		Title:             d.Title,
		DesignIntent:      d.DesignIntent,
		Drawing:           d.Drawing,
		DrawingRevision:   d.DrawingRevision,
		ProcessParameters: d.ProcessParameters,
		CompletionStatus:  d.CompletionStatus,
		CompletedAt:       d.CompletedAt,
		Version:           d.Version,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
}

type deviationDoc struct {
	ID                    string    `firestore:"id"`
	NodeID                string    `firestore:"node_id"`
	StudyID               string    `firestore:"study_id"`
	SequenceNumber        int       `firestore:"sequence_number"`
	GeneralParameter      string    `firestore:"general_parameter"`
	SpecificParameter     string    `firestore:"specific_parameter"`
	GuideWord             string    `firestore:"guide_word"`
	Deviation             string    `firestore:"deviation"`
	Causes                string    `firestore:"causes"`
	Consequences          string    `firestore:"consequences"`
	ExistingControl       string    `firestore:"existing_control"`
	ExistingProbability   int       `firestore:"existing_probability"`
	ExistingSeverity      int       `firestore:"existing_severity"`
	InitialRisk           int       `firestore:"initial_risk"`
	AdditionalControl     string    `firestore:"additional_control"`
	AdditionalProbability int       `firestore:"additional_probability"`
	AdditionalSeverity    int       `firestore:"additional_severity"`
	FinalRisk             int       `firestore:"final_risk"`
	Status                string    `firestore:"status"`
	CreatedBy             string    `firestore:"created_by"`
	Version               int64     `firestore:"version"`
	CreatedAt             time.Time `firestore:"created_at"`
	UpdatedAt             time.Time `firestore:"updated_at"`
}

func toDeviationDoc(d *model.Deviation) *deviationDoc {
	return &deviationDoc{
		ID:                    d.ID.String(),
		NodeID:                d.NodeID.String(),
		StudyID:               d.StudyID.String(),
		SequenceNumber:        d.SequenceNumber,
		GeneralParameter:      d.GeneralParameter,
		SpecificParameter:     d.SpecificParameter,
		GuideWord:             d.GuideWord,
		Deviation:             d.Deviation,
		Causes:                d.Causes,
		Consequences:          d.Consequences,
		ExistingControl:       d.ExistingControl,
		ExistingProbability:   int(d.ExistingProbability),
		ExistingSeverity:      int(d.ExistingSeverity),
		InitialRisk:           int(d.InitialRisk),
		AdditionalControl:     d.AdditionalControl,
		AdditionalProbability: int(d.AdditionalProbability),
		AdditionalSeverity:    int(d.AdditionalSeverity),
		FinalRisk:             int(d.FinalRisk),
		Status:                d.Status.String(),
		CreatedBy:             d.CreatedBy.String(),
		Version:               d.Version,
		CreatedAt:             d.CreatedAt,
		UpdatedAt:             d.UpdatedAt,
	}
}

func (d *deviationDoc) toModel() *model.Deviation {
	return &model.Deviation{
		ID:                    types.DeviationID(d.ID),
		NodeID:                types.NodeID(d.NodeID),
		StudyID:               types.StudyID(d.StudyID),
		SequenceNumber:        d.SequenceNumber,
		GeneralParameter:      d.GeneralParameter,
		SpecificParameter:     d.SpecificParameter,
		GuideWord:             d.GuideWord,
		Deviation:             d.Deviation,
		Causes:                d.Causes,
		Consequences:          d.Consequences,
		ExistingControl:       d.ExistingControl,
		ExistingProbability:   types.Probability(d.ExistingProbability),
		ExistingSeverity:      types.Severity(d.ExistingSeverity),
		InitialRisk:           types.Rating(d.InitialRisk),
		AdditionalControl:     d.AdditionalControl,
		AdditionalProbability: types.Probability(d.AdditionalProbability),
		AdditionalSeverity:    types.Severity(d.AdditionalSeverity),
		FinalRisk:             types.Rating(d.FinalRisk),
		Status:                types.DeviationStatus(d.Status),
		CreatedBy:             types.EmployeeID(d.CreatedBy),
		Version:               d.Version,
		CreatedAt:             d.CreatedAt,
		UpdatedAt:             d.UpdatedAt,
	}
}

type recommendationDoc struct {
	ID                        string     `firestore:"id"`
	DeviationID               string     `firestore:"deviation_id"`
	NodeID                    string     `firestore:"node_id"`
	StudyID                   string     `firestore:"study_id"`
	Position                  int        `firestore:"position"`
	Action                    string     `firestore:"action"`
	Remark                    string     `firestore:"remark"`
	Department                string     `firestore:"department"`
	Status                    string     `firestore:"status"`
	SendForVerification       bool       `firestore:"send_for_verification"`
	SendForVerificationAction string     `firestore:"send_for_verification_action"`
	VerificationRemark        string     `firestore:"verification_remark"`
	CompletionStatus          bool       `firestore:"completion_status"`
	CompletionDate            *time.Time `firestore:"completion_date"`
	ActiveAssignmentID        string     `firestore:"active_assignment_id"`
	PendingReassignment       bool       `firestore:"pending_reassignment"`
	Version                   int64      `firestore:"version"`
	CreatedAt                 time.Time  `firestore:"created_at"`
	UpdatedAt                 time.Time  `firestore:"updated_at"`
}

func toRecommendationDoc(r *model.Recommendation) *recommendationDoc {
	return &recommendationDoc{
		ID:                        r.ID.String(),
		DeviationID:               r.DeviationID.String(),
		NodeID:                    r.NodeID.String(),
		StudyID:                   r.StudyID.String(),
		Position:                  r.Position,
		Action:                    r.Action,
		Remark:                    r.Remark,
		Department:                r.Department,
		Status:                    r.Status.String(),
		SendForVerification:       r.SendForVerification,
		SendForVerificationAction: r.SendForVerificationAction.String(),
		VerificationRemark:        r.VerificationRemark,
		CompletionStatus:          r.CompletionStatus,
		CompletionDate:            r.CompletionDate,
		ActiveAssignmentID:        r.ActiveAssignmentID.String(),
		PendingReassignment:       r.PendingReassignment,
		Version:                   r.Version,
		CreatedAt:                 r.CreatedAt,
		UpdatedAt:                 r.UpdatedAt,
	}
}

func (d *recommendationDoc) toModel() *model.Recommendation {
	return &model.Recommendation{
		ID:                        types.RecommendationID(d.ID),
		DeviationID:               types.DeviationID(d.DeviationID),
		NodeID:                    types.NodeID(d.NodeID),
		StudyID:                   types.StudyID(d.StudyID),
		Position:                  d.Position,
		Action:                    d.Action,
		Remark:                    d.Remark,
		Department:                d.Department,
		Status:                    types.RecommendationStatus(d.Status),
		SendForVerification:       d.SendForVerification,
		SendForVerificationAction: types.VerificationAction(d.SendForVerificationAction),
		VerificationRemark:        d.VerificationRemark,
		CompletionStatus:          d.CompletionStatus,
		CompletionDate:            d.CompletionDate,
		ActiveAssignmentID:        types.AssignmentID(d.ActiveAssignmentID),
		PendingReassignment:       d.PendingReassignment,
		Version:                   d.Version,
		CreatedAt:                 d.CreatedAt,
		UpdatedAt:                 d.UpdatedAt,
	}
}

type assignmentDoc struct {
	ID               string     `firestore:"id"`
	RecommendationID string     `firestore:"recommendation_id"`
	Seq              int        `firestore:"seq"`
	AssigneeID       string     `firestore:"assignee_id"`
	AssignedBy       string     `firestore:"assigned_by"`
	Comment          string     `firestore:"comment"`
	AssignWorkDate   time.Time  `firestore:"assign_work_date"`
	AcceptanceStatus string     `firestore:"acceptance_status"`
	TargetDate       *time.Time `firestore:"target_date"`
	CompletionDate   *time.Time `firestore:"completion_date"`
	Superseded       bool       `firestore:"superseded"`
	SupersededAt     *time.Time `firestore:"superseded_at"`
	Version          int64      `firestore:"version"`
	CreatedAt        time.Time  `firestore:"created_at"`
	UpdatedAt        time.Time  `firestore:"updated_at"`
}

func toAssignmentDoc(a *model.Assignment) *assignmentDoc {
	return &assignmentDoc{
		ID:               a.ID.String(),
		RecommendationID: a.RecommendationID.String(),
		Seq:              a.Seq,
		AssigneeID:       a.AssigneeID.String(),
		AssignedBy:       a.AssignedBy.String(),
		Comment:          a.Comment,
		AssignWorkDate:   a.AssignWorkDate,
		AcceptanceStatus: a.AcceptanceStatus.String(),
		TargetDate:       a.TargetDate,
		CompletionDate:   a.CompletionDate,
		Superseded:       a.Superseded,
		SupersededAt:     a.SupersededAt,
		Version:          a.Version,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}

func (d *assignmentDoc) toModel() *model.Assignment {
	return &model.Assignment{
		ID:               types.AssignmentID(d.ID),
		RecommendationID: types.RecommendationID(d.RecommendationID),
		Seq:              d.Seq,
		AssigneeID:       types.EmployeeID(d.AssigneeID),
		AssignedBy:       types.EmployeeID(d.AssignedBy),
		Comment:          d.Comment,
		AssignWorkDate:   d.AssignWorkDate,
		AcceptanceStatus: types.AcceptanceStatus(d.AcceptanceStatus),
		TargetDate:       d.TargetDate,
		CompletionDate:   d.CompletionDate,
		Superseded:       d.Superseded,
		SupersededAt:     d.SupersededAt,
		Version:          d.Version,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}

type targetDateDoc struct {
	ID           string    `firestore:"id"`
	AssignmentID string    `firestore:"assignment_id"`
	Seq          int       `firestore:"seq"`
	Date         time.Time `firestore:"date"`
	SetBy        string    `firestore:"set_by"`
	Version      int64     `firestore:"version"`
	CreatedAt    time.Time `firestore:"created_at"`
	UpdatedAt    time.Time `firestore:"updated_at"`
}

func toTargetDateDoc(t *model.TargetDateRecord) *targetDateDoc {
	return &targetDateDoc{
		ID:           t.ID.String(),
		AssignmentID: t.AssignmentID.String(),
		Seq:          t.Seq,
		Date:         t.Date,
		SetBy:        t.SetBy.String(),
		Version:      t.Version,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

func (d *targetDateDoc) toModel() *model.TargetDateRecord {
	return &model.TargetDateRecord{
		ID:           types.TargetDateID(d.ID),
		AssignmentID: types.AssignmentID(d.AssignmentID),
		Seq:          d.Seq,
		Date:         d.Date.UTC(),
		SetBy:        types.EmployeeID(d.SetBy),
		Version:      d.Version,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

type challengeDoc struct {
	ID             string     `firestore:"id"`
	ActionKind     string     `firestore:"action_kind"`
	ActionSubject  string     `firestore:"action_subject"`
	Recipient      string     `firestore:"recipient"`
	CodeHash       string     `firestore:"code_hash"`
	IssuedAt       time.Time  `firestore:"issued_at"`
	ExpiresAt      time.Time  `firestore:"expires_at"`
	Consumed       bool       `firestore:"consumed"`
	ConsumedAt     *time.Time `firestore:"consumed_at"`
	FailedAttempts int        `firestore:"failed_attempts"`
	MaxAttempts    int        `firestore:"max_attempts"`
	Version        int64      `firestore:"version"`
	CreatedAt      time.Time  `firestore:"created_at"`
	UpdatedAt      time.Time  `firestore:"updated_at"`
}

func toChallengeDoc(c *model.Challenge) *challengeDoc {
	return &challengeDoc{
		ID:             c.ID.String(),
		ActionKind:     c.Action.Kind.String(),
		ActionSubject:  c.Action.SubjectID,
		Recipient:      c.Recipient.String(),
		CodeHash:       c.CodeHash,
		IssuedAt:       c.IssuedAt,
		ExpiresAt:      c.ExpiresAt,
		Consumed:       c.Consumed,
		ConsumedAt:     c.ConsumedAt,
		FailedAttempts: c.FailedAttempts,
		MaxAttempts:    c.MaxAttempts,
		Version:        c.Version,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

func (d *challengeDoc) toModel() *model.Challenge {
	return &model.Challenge{
		ID: types.ChallengeID(d.ID),
		Action: model.ActionRef{
			Kind:      types.ApprovalActionKind(d.ActionKind),
			SubjectID: d.ActionSubject,
		},
		Recipient:      types.EmployeeID(d.Recipient),
		CodeHash:       d.CodeHash,
		IssuedAt:       d.IssuedAt,
		ExpiresAt:      d.ExpiresAt,
		Consumed:       d.Consumed,
		ConsumedAt:     d.ConsumedAt,
		FailedAttempts: d.FailedAttempts,
		MaxAttempts:    d.MaxAttempts,
		Version:        d.Version,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

func employeeIDsToStrings(ids []types.EmployeeID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func stringsToEmployeeIDs(ss []string) []types.EmployeeID {
	out := make([]types.EmployeeID, len(ss))
	for i, s := range ss {
		out[i] = types.EmployeeID(s)
	}
	return out
}
