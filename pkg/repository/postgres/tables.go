package postgres

import (
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/secmon-lab/hazop/pkg/domain/model"
	"github.com/secmon-lab/hazop/pkg/domain/types"
)

// table describes a versioned table. The first column is always "id" and
// the last three are version, created_at and updated_at.
type table struct {
	name    string
	entity  string
	columns []string
}

func (t table) selectSQL() string {
	return "SELECT " + strings.Join(t.columns, ", ") + " FROM " + t.name
}

func (t table) insertSQL() string {
	ph := make([]string, len(t.columns))
	for i := range t.columns {
		ph[i] = "$" + strconv.Itoa(i+1)
	}
	return "INSERT INTO " + t.name + " (" + strings.Join(t.columns, ", ") +
		") VALUES (" + strings.Join(ph, ", ") + ") ON CONFLICT (id) DO NOTHING"
}

// updateSQL sets every non-id column; the expected version is the last argument
func (t table) updateSQL() string {
	sets := make([]string, 0, len(t.columns)-1)
	for i, c := range t.columns[1:] {
		sets = append(sets, c+" = $"+strconv.Itoa(i+2))
	}
	return "UPDATE " + t.name + " SET " + strings.Join(sets, ", ") +
		" WHERE id = $1 AND version = $" + strconv.Itoa(len(t.columns)+1)
}

func (t table) deleteSQL() string {
	return "DELETE FROM " + t.name + " WHERE id = $1 AND version = $2"
}

var studiesTable = table{
	name:   "studies",
	entity: "study",
	columns: []string{
		"id", "title", "site", "department", "team", "created_by",
		"completion_status", "send_for_verification", "verification_action_taken",
		"signed_off_by", "signed_off_at", "retired",
		"version", "created_at", "updated_at",
	},
}

func studyValues(s *model.Study) []any {
	return []any{
		s.ID.String(), s.Title, s.Site, s.Department, employeeIDsToStrings(s.Team), s.CreatedBy.String(),
		s.CompletionStatus, s.SendForVerification, s.VerificationActionTaken,
		s.SignedOffBy.String(), s.SignedOffAt, s.Retired,
		s.Version, s.CreatedAt, s.UpdatedAt,
	}
}

func scanStudy(row pgx.Row) (*model.Study, error) {
	var (
		s                 model.Study
		id, createdBy, by string
		team              []string
	)
	if err := row.Scan(&id, &s.Title, &s.Site, &s.Department, &team, &createdBy,
		&s.CompletionStatus, &s.SendForVerification, &s.VerificationActionTaken,
		&by, &s.SignedOffAt, &s.Retired,
		&s.Version, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.ID = types.StudyID(id)
	s.CreatedBy = types.EmployeeID(createdBy)
	s.SignedOffBy = types.EmployeeID(by)
	s.Team = stringsToEmployeeIDs(team)
	return &s, nil
}

var nodesTable = table{
	name:   "nodes",
	entity: "node",
	columns: []string{
		"id", "study_id", "node_number", "title", "design_intent", "drawing", "drawing_revision",
		"process_parameters", "completion_status", "completed_at",
		"version", "created_at", "updated_at",
	},
}

func nodeValues(n *model.Node) []any {
	params := n.ProcessParameters
	if params == nil {
		params = []string{}
	}
	return []any{
		n.ID.String(), n.StudyID.String(), n.NodeNumber, n.Title, n.DesignIntent, n.Drawing, n.DrawingRevision,
		params, n.CompletionStatus, n.CompletedAt,
		n.Version, n.CreatedAt, n.UpdatedAt,
	}
}

func scanNode(row pgx.Row) (*model.Node, error) {
	var (
		n           model.Node
		id, studyID string
	)
	if err := row.Scan(&id, &studyID, &n.NodeNumber, &n.Title, &n.DesignIntent, &n.Drawing, &n.DrawingRevision,
		&n.ProcessParameters, &n.CompletionStatus, &n.CompletedAt,
		&n.Version, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return nil, err
	}
	n.ID = types.NodeID(id)
	n.StudyID = types.StudyID(studyID)
	return &n, nil
}

var deviationsTable = table{
	name:   "deviations",
	entity: "deviation",
	columns: []string{
		"id", "node_id", "study_id", "sequence_number",
		"general_parameter", "specific_parameter", "guide_word", "deviation", "causes", "consequences",
		"existing_control", "existing_probability", "existing_severity", "initial_risk",
		"additional_control", "additional_probability", "additional_severity", "final_risk",
		"status", "created_by",
		"version", "created_at", "updated_at",
	},
}

func deviationValues(d *model.Deviation) []any {
	return []any{
		d.ID.String(), d.NodeID.String(), d.StudyID.String(), d.SequenceNumber,
		d.GeneralParameter, d.SpecificParameter, d.GuideWord, d.Deviation, d.Causes, d.Consequences,
		d.ExistingControl, int(d.ExistingProbability), int(d.ExistingSeverity), int(d.InitialRisk),
		d.AdditionalControl, int(d.AdditionalProbability), int(d.AdditionalSeverity), int(d.FinalRisk),
		d.Status.String(), d.CreatedBy.String(),
		d.Version, d.CreatedAt, d.UpdatedAt,
	}
}

func scanDeviation(row pgx.Row) (*model.Deviation, error) {
	var (
		d                               model.Deviation
		id, nodeID, studyID, status, by string
		ep, es, ir, ap, as, fr          int
	)
	if err := row.Scan(&id, &nodeID, &studyID, &d.SequenceNumber,
		&d.GeneralParameter, &d.SpecificParameter, &d.GuideWord, &d.Deviation, &d.Causes, &d.Consequences,
		&d.ExistingControl, &ep, &es, &ir,
		&d.AdditionalControl, &ap, &as, &fr,
		&status, &by,
		&d.Version, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	d.ID = types.DeviationID(id)
	d.NodeID = types.NodeID(nodeID)
	d.StudyID = types.StudyID(studyID)
	d.ExistingProbability = types.Probability(ep)
	d.ExistingSeverity = types.Severity(es)
	d.InitialRisk = types.Rating(ir)
	d.AdditionalProbability = types.Probability(ap)
	d.AdditionalSeverity = types.Severity(as)
	d.FinalRisk = types.Rating(fr)
	d.Status = types.DeviationStatus(status)
	d.CreatedBy = types.EmployeeID(by)
	return &d, nil
}

var recommendationsTable = table{
	name:   "recommendations",
	entity: "recommendation",
	columns: []string{
		"id", "deviation_id", "node_id", "study_id", "position", "action", "remark", "department", "status",
		"send_for_verification", "send_for_verification_action", "verification_remark",
		"completion_status", "completion_date", "active_assignment_id", "pending_reassignment",
		"version", "created_at", "updated_at",
	},
}

func recommendationValues(r *model.Recommendation) []any {
	return []any{
		r.ID.String(), r.DeviationID.String(), r.NodeID.String(), r.StudyID.String(),
		r.Position, r.Action, r.Remark, r.Department, r.Status.String(),
		r.SendForVerification, r.SendForVerificationAction.String(), r.VerificationRemark,
		r.CompletionStatus, r.CompletionDate, r.ActiveAssignmentID.String(), r.PendingReassignment,
		r.Version, r.CreatedAt, r.UpdatedAt,
	}
}

func scanRecommendation(row pgx.Row) (*model.Recommendation, error) {
	var (
		r                                          model.Recommendation
		id, devID, nodeID, studyID, status, action string
		sfvAction, activeID                        string
	)
	if err := row.Scan(&id, &devID, &nodeID, &studyID,
		&r.Position, &action, &r.Remark, &r.Department, &status,
		&r.SendForVerification, &sfvAction, &r.VerificationRemark,
		&r.CompletionStatus, &r.CompletionDate, &activeID, &r.PendingReassignment,
		&r.Version, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.ID = types.RecommendationID(id)
	r.DeviationID = types.DeviationID(devID)
	r.NodeID = types.NodeID(nodeID)
	r.StudyID = types.StudyID(studyID)
	r.Action = action
	r.Status = types.RecommendationStatus(status)
	r.SendForVerificationAction = types.VerificationAction(sfvAction)
	r.ActiveAssignmentID = types.AssignmentID(activeID)
	return &r, nil
}

var assignmentsTable = table{
	name:   "assignments",
	entity: "assignment",
	columns: []string{
		"id", "recommendation_id", "seq", "assignee_id", "assigned_by", "comment",
		"assign_work_date", "acceptance_status", "target_date", "completion_date",
		"superseded", "superseded_at",
		"version", "created_at", "updated_at",
	},
}

func assignmentValues(a *model.Assignment) []any {
	return []any{
		a.ID.String(), a.RecommendationID.String(), a.Seq, a.AssigneeID.String(), a.AssignedBy.String(), a.Comment,
		a.AssignWorkDate, a.AcceptanceStatus.String(), a.TargetDate, a.CompletionDate,
		a.Superseded, a.SupersededAt,
		a.Version, a.CreatedAt, a.UpdatedAt,
	}
}

func scanAssignment(row pgx.Row) (*model.Assignment, error) {
	var (
		a                                    model.Assignment
		id, recID, assignee, assignedBy, acc string
	)
	if err := row.Scan(&id, &recID, &a.Seq, &assignee, &assignedBy, &a.Comment,
		&a.AssignWorkDate, &acc, &a.TargetDate, &a.CompletionDate,
		&a.Superseded, &a.SupersededAt,
		&a.Version, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.ID = types.AssignmentID(id)
	a.RecommendationID = types.RecommendationID(recID)
	a.AssigneeID = types.EmployeeID(assignee)
	a.AssignedBy = types.EmployeeID(assignedBy)
	a.AcceptanceStatus = types.AcceptanceStatus(acc)
	return &a, nil
}

var targetDatesTable = table{
	name:   "target_dates",
	entity: "target_date",
	columns: []string{
		"id", "assignment_id", "seq", "date", "set_by",
		"version", "created_at", "updated_at",
	},
}

func targetDateValues(t *model.TargetDateRecord) []any {
	return []any{
		t.ID.String(), t.AssignmentID.String(), t.Seq, t.Date, t.SetBy.String(),
		t.Version, t.CreatedAt, t.UpdatedAt,
	}
}

func scanTargetDate(row pgx.Row) (*model.TargetDateRecord, error) {
	var (
		t                    model.TargetDateRecord
		id, assignmentID, by string
		date                 time.Time
	)
	if err := row.Scan(&id, &assignmentID, &t.Seq, &date, &by,
		&t.Version, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.ID = types.TargetDateID(id)
	t.AssignmentID = types.AssignmentID(assignmentID)
	t.Date = date.UTC()
	t.SetBy = types.EmployeeID(by)
	return &t, nil
}

var challengesTable = table{
	name:   "otp_challenges",
	entity: "challenge",
	columns: []string{
		"id", "action_kind", "action_subject", "recipient", "code_hash",
		"issued_at", "expires_at", "consumed", "consumed_at", "failed_attempts", "max_attempts",
		"version", "created_at", "updated_at",
	},
}

func challengeValues(c *model.Challenge) []any {
	return []any{
		c.ID.String(), c.Action.Kind.String(), c.Action.SubjectID, c.Recipient.String(), c.CodeHash,
		c.IssuedAt, c.ExpiresAt, c.Consumed, c.ConsumedAt, c.FailedAttempts, c.MaxAttempts,
		c.Version, c.CreatedAt, c.UpdatedAt,
	}
}

func scanChallenge(row pgx.Row) (*model.Challenge, error) {
	var (
		c                   model.Challenge
		id, kind, recipient string
	)
	if err := row.Scan(&id, &kind, &c.Action.SubjectID, &recipient, &c.CodeHash,
		&c.IssuedAt, &c.ExpiresAt, &c.Consumed, &c.ConsumedAt, &c.FailedAttempts, &c.MaxAttempts,
		&c.Version, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.ID = types.ChallengeID(id)
	c.Action.Kind = types.ApprovalActionKind(kind)
	c.Recipient = types.EmployeeID(recipient)
	return &c, nil
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
