package model

import (
	"regexp"
	"strings"
	"time"

	"github.com/secmon-lab/hazop/pkg/domain/types"
)

// Deviation field names used in validation errors, in check order
const (
	FieldGeneralParameter      = "generalParameter"
	FieldSpecificParameter     = "specificParameter"
	FieldGuideWord             = "guideWord"
	FieldCauses                = "causes"
	FieldConsequences          = "consequences"
	FieldDeviation             = "deviation"
	FieldExistingControl       = "existingControl"
	FieldExistingProbability   = "existingProbability"
	FieldExistingSeverity      = "existingSeverity"
	FieldAdditionalControl     = "additionalControl"
	FieldAdditionalProbability = "additionalProbability"
	FieldAdditionalSeverity    = "additionalSeverity"
)

// Deviation is a single hazard scenario analyzed under one guide word and
// parameter combination. Additional* and FinalRisk are zero unless
// InitialRisk requires escalation.
type Deviation struct {
	ID                    types.DeviationID
	NodeID                types.NodeID
	StudyID               types.StudyID
	SequenceNumber        int
	GeneralParameter      string
	SpecificParameter     string
	GuideWord             string
	Deviation             string
	Causes                string
	Consequences          string
	ExistingControl       string
	ExistingProbability   types.Probability
	ExistingSeverity      types.Severity
	InitialRisk           types.Rating
	AdditionalControl     string
	AdditionalProbability types.Probability
	AdditionalSeverity    types.Severity
	FinalRisk             types.Rating
	Status                types.DeviationStatus
	CreatedBy             types.EmployeeID
	Version               int64
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// DeviationInput holds the author-editable fields of a deviation
type DeviationInput struct {
	GeneralParameter      string
	SpecificParameter     string
	GuideWord             string
	Deviation             string
	Causes                string
	Consequences          string
	ExistingControl       string
	ExistingProbability   types.Probability
	ExistingSeverity      types.Severity
	AdditionalControl     string
	AdditionalProbability types.Probability
	AdditionalSeverity    types.Severity
}

// Apply copies the input fields onto the deviation
func (in *DeviationInput) Apply(d *Deviation) {
	d.GeneralParameter = in.GeneralParameter
	d.SpecificParameter = in.SpecificParameter
	d.GuideWord = in.GuideWord
	d.Deviation = in.Deviation
	d.Causes = in.Causes
	d.Consequences = in.Consequences
	d.ExistingControl = in.ExistingControl
	d.ExistingProbability = in.ExistingProbability
	d.ExistingSeverity = in.ExistingSeverity
	d.AdditionalControl = in.AdditionalControl
	d.AdditionalProbability = in.AdditionalProbability
	d.AdditionalSeverity = in.AdditionalSeverity
}

// IsEscalated reports whether the deviation carries an additional-control assessment
func (d *Deviation) IsEscalated() bool {
	return types.RequiresEscalation(d.InitialRisk)
}

// IsLocked reports whether the deviation can no longer be edited
func (d *Deviation) IsLocked() bool {
	return d.Status == types.DeviationStatusLocked
}

// Evaluate validates the deviation and stamps its risk ratings. Fields are
// checked in a fixed order and the first failure is returned as
// ErrValidationFailed naming that field.
func (d *Deviation) Evaluate() error {
	narratives := []struct {
		name  string
		value string
	}{
		{FieldGeneralParameter, d.GeneralParameter},
		{FieldSpecificParameter, d.SpecificParameter},
		{FieldGuideWord, d.GuideWord},
		{FieldCauses, d.Causes},
		{FieldConsequences, d.Consequences},
		{FieldDeviation, d.Deviation},
		{FieldExistingControl, d.ExistingControl},
	}
	for _, n := range narratives {
		if strings.TrimSpace(n.value) == "" {
			return NewValidationError(n.name)
		}
	}

	if !d.ExistingProbability.IsValid() {
		return NewValidationError(FieldExistingProbability)
	}
	if !d.ExistingSeverity.IsValid() {
		return NewValidationError(FieldExistingSeverity)
	}

	initial, err := types.Score(d.ExistingProbability, d.ExistingSeverity)
	if err != nil {
		return NewValidationError(FieldExistingProbability)
	}
	d.InitialRisk = initial

	if !types.RequiresEscalation(initial) {
		d.AdditionalProbability = 0
		d.AdditionalSeverity = 0
		d.FinalRisk = 0
		return nil
	}

	if strings.TrimSpace(d.AdditionalControl) == "" {
		return NewValidationError(FieldAdditionalControl)
	}
	if !d.AdditionalProbability.IsValid() {
		return NewValidationError(FieldAdditionalProbability)
	}
	if !d.AdditionalSeverity.IsValid() {
		return NewValidationError(FieldAdditionalSeverity)
	}

	final, err := types.Score(d.AdditionalProbability, d.AdditionalSeverity)
	if err != nil {
		return NewValidationError(FieldAdditionalProbability)
	}
	d.FinalRisk = final
	return nil
}

var (
	lineBreak = regexp.MustCompile(`\r\n|\r|\n`)
	// One leading bullet glyph run, or an enumerator such as "1." or "2)"
	// followed by whitespace.
	bulletPrefix = regexp.MustCompile(`^(?:[•◦▪▫‣●○■□·∙⁃–—*\-]+|\d+[.)]\s)`)
)

// DeriveRecommendations splits an additional-control narrative into one
// action per line: bullet markers and stray commas at the line edges are
// stripped, whitespace is trimmed and empty lines are dropped. Line order is
// kept.
func DeriveRecommendations(text string) []string {
	lines := lineBreak.Split(text, -1)
	result := make([]string, 0, len(lines))
	for _, line := range lines {
		if cleaned := cleanRecommendationLine(line); cleaned != "" {
			result = append(result, cleaned)
		}
	}
	return result
}

func cleanRecommendationLine(line string) string {
	for {
		next := strings.Trim(line, " \t, ")
		next = bulletPrefix.ReplaceAllString(next, "")
		next = strings.Trim(next, " \t, ")
		if next == line {
			return next
		}
		line = next
	}
}

// EvaluateDraft scores a draft. Narrative fields may be empty, but any
// selector that is set must be in range. Ratings are stamped only when both
// selectors of a pair are present.
func (d *Deviation) EvaluateDraft() error {
	selectors := []struct {
		name  string
		value int
	}{
		{FieldExistingProbability, int(d.ExistingProbability)},
		{FieldExistingSeverity, int(d.ExistingSeverity)},
		{FieldAdditionalProbability, int(d.AdditionalProbability)},
		{FieldAdditionalSeverity, int(d.AdditionalSeverity)},
	}
	for _, s := range selectors {
		if s.value != 0 && (s.value < 1 || s.value > 5) {
			return NewValidationError(s.name)
		}
	}

	d.InitialRisk, d.FinalRisk = 0, 0
	if d.ExistingProbability != 0 && d.ExistingSeverity != 0 {
		d.InitialRisk = types.Rating(int(d.ExistingProbability) * int(d.ExistingSeverity))
	}
	if !types.RequiresEscalation(d.InitialRisk) {
		d.AdditionalProbability = 0
		d.AdditionalSeverity = 0
		return nil
	}
	if d.AdditionalProbability != 0 && d.AdditionalSeverity != 0 {
		d.FinalRisk = types.Rating(int(d.AdditionalProbability) * int(d.AdditionalSeverity))
	}
	return nil
}
