package usecase

import (
	"strconv"

	"github.com/secmon-lab/hazop/pkg/domain/model/config"
	"github.com/secmon-lab/hazop/pkg/domain/types"
)

// RiskLevel is one axis entry of the risk matrix
type RiskLevel struct {
	Score       int    `json:"score"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// RiskCell is one probability/severity combination of the matrix
type RiskCell struct {
	Probability        types.Probability `json:"probability"`
	Severity           types.Severity    `json:"severity"`
	Rating             types.Rating      `json:"rating"`
	Band               types.Band        `json:"band"`
	Label              string            `json:"label"`
	Emoji              string            `json:"emoji"`
	RequiresEscalation bool              `json:"requiresEscalation"`
}

// RiskMatrix is the full 5x5 scoring table with configured axis labels.
// Cells[p-1][s-1] holds the cell for probability p and severity s.
type RiskMatrix struct {
	Probability []RiskLevel  `json:"probability"`
	Severity    []RiskLevel  `json:"severity"`
	Cells       [][]RiskCell `json:"cells"`
}

type RiskUseCase struct {
	hazopConfig *config.HazopConfig
}

func NewRiskUseCase(cfg *config.HazopConfig) *RiskUseCase {
	if cfg == nil {
		cfg = &config.HazopConfig{}
	}
	return &RiskUseCase{hazopConfig: cfg}
}

// Matrix renders the risk matrix. Scores without a configured label are
// named by their number.
func (uc *RiskUseCase) Matrix() *RiskMatrix {
	m := &RiskMatrix{}

	for p := types.ProbabilityMin; p <= types.ProbabilityMax; p++ {
		level := RiskLevel{Score: int(p), Name: uc.hazopConfig.ProbabilityLabel(p)}
		for _, l := range uc.hazopConfig.Probability {
			if l.Score == p {
				level.Description = l.Description
			}
		}
		if level.Name == "" {
			level.Name = strconv.Itoa(int(p))
		}
		m.Probability = append(m.Probability, level)
	}

	for s := types.SeverityMin; s <= types.SeverityMax; s++ {
		level := RiskLevel{Score: int(s), Name: uc.hazopConfig.SeverityLabel(s)}
		for _, l := range uc.hazopConfig.Severity {
			if l.Score == s {
				level.Description = l.Description
			}
		}
		if level.Name == "" {
			level.Name = strconv.Itoa(int(s))
		}
		m.Severity = append(m.Severity, level)
	}

	for p := types.ProbabilityMin; p <= types.ProbabilityMax; p++ {
		row := make([]RiskCell, 0, int(types.SeverityMax))
		for s := types.SeverityMin; s <= types.SeverityMax; s++ {
			rating, _ := types.Score(p, s)
			band := types.Classify(rating)
			row = append(row, RiskCell{
				Probability:        p,
				Severity:           s,
				Rating:             rating,
				Band:               band,
				Label:              band.Label(),
				Emoji:              band.Emoji(),
				RequiresEscalation: types.RequiresEscalation(rating),
			})
		}
		m.Cells = append(m.Cells, row)
	}
	return m
}
