package model_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/hazop/pkg/domain/model"
	"github.com/secmon-lab/hazop/pkg/domain/types"
)

func TestDeriveRecommendations(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "bullets and blank lines",
			text: "• Install PSV\n\n- Add high level alarm\r\n* Train operators",
			want: []string{"Install PSV", "Add high level alarm", "Train operators"},
		},
		{
			name: "enumerators",
			text: "1. Check flange\r2) Replace gasket",
			want: []string{"Check flange", "Replace gasket"},
		},
		{
			name: "edge commas stripped",
			text: "Install interlock,\n, Review SOP ,",
			want: []string{"Install interlock", "Review SOP"},
		},
		{
			name: "only whitespace",
			text: " \n\t\n",
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := model.DeriveRecommendations(tt.text)
			gt.Value(t, got).Equal(tt.want)
		})
	}
}

func TestDeriveRecommendationsIdempotent(t *testing.T) {
	first := model.DeriveRecommendations("● Add bypass valve\n▪ Inspect pump seals\n3. Log trips")
	joined := ""
	for i, line := range first {
		if i > 0 {
			joined += "\n"
		}
		joined += line
	}
	gt.Value(t, model.DeriveRecommendations(joined)).Equal(first)
}

func validDeviation() *model.Deviation {
	return &model.Deviation{
		GeneralParameter:    "Flow",
		SpecificParameter:   "Feed flow",
		GuideWord:           "No",
		Deviation:           "No feed flow",
		Causes:              "Pump trip",
		Consequences:        "Reactor starvation",
		ExistingControl:     "Low flow alarm",
		ExistingProbability: 2,
		ExistingSeverity:    3,
	}
}

func TestDeviationEvaluate(t *testing.T) {
	t.Run("not escalated clears additional assessment", func(t *testing.T) {
		d := validDeviation()
		d.AdditionalProbability = 4
		d.AdditionalSeverity = 4
		d.FinalRisk = 16

		gt.NoError(t, d.Evaluate()).Required()
		gt.Value(t, d.InitialRisk).Equal(types.Rating(6))
		gt.Value(t, d.AdditionalProbability).Equal(types.Probability(0))
		gt.Value(t, d.FinalRisk).Equal(types.Rating(0))
		gt.Bool(t, d.IsEscalated()).False()
	})

	t.Run("escalated requires additional control", func(t *testing.T) {
		d := validDeviation()
		d.ExistingProbability = 4
		d.ExistingSeverity = 3

		err := d.Evaluate()
		gt.Error(t, err).Is(model.ErrValidationFailed)
		field, _ := model.ErrorValue(err, model.FieldKey)
		gt.Value(t, field).Equal(model.FieldAdditionalControl)
	})

	t.Run("escalated with additional assessment", func(t *testing.T) {
		d := validDeviation()
		d.ExistingProbability = 4
		d.ExistingSeverity = 3
		d.AdditionalControl = "Add trip"
		d.AdditionalProbability = 1
		d.AdditionalSeverity = 3

		gt.NoError(t, d.Evaluate()).Required()
		gt.Value(t, d.InitialRisk).Equal(types.Rating(12))
		gt.Value(t, d.FinalRisk).Equal(types.Rating(3))
	})

	fieldTests := []struct {
		field  string
		mutate func(d *model.Deviation)
	}{
		{model.FieldGeneralParameter, func(d *model.Deviation) { d.GeneralParameter = " " }},
		{model.FieldCauses, func(d *model.Deviation) { d.Causes = ""; d.Deviation = "" }},
		{model.FieldDeviation, func(d *model.Deviation) { d.Deviation = ""; d.ExistingControl = "" }},
		{model.FieldExistingProbability, func(d *model.Deviation) { d.ExistingProbability = 6 }},
		{model.FieldExistingSeverity, func(d *model.Deviation) { d.ExistingSeverity = 0 }},
	}
	for _, tt := range fieldTests {
		t.Run("first failure is "+tt.field, func(t *testing.T) {
			d := validDeviation()
			tt.mutate(d)
			err := d.Evaluate()
			gt.Error(t, err).Is(model.ErrValidationFailed)
			field, ok := model.ErrorValue(err, model.FieldKey)
			gt.Bool(t, ok).True()
			gt.Value(t, field).Equal(tt.field)
		})
	}
}

func TestDeviationEvaluateDraft(t *testing.T) {
	d := &model.Deviation{ExistingProbability: 5}
	gt.NoError(t, d.EvaluateDraft())
	gt.Value(t, d.InitialRisk).Equal(types.Rating(0))

	d.ExistingSeverity = 7
	err := d.EvaluateDraft()
	gt.Error(t, err).Is(model.ErrValidationFailed)
	field, _ := model.ErrorValue(err, model.FieldKey)
	gt.Value(t, field).Equal(model.FieldExistingSeverity)
}
