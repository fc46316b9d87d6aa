package types_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/hazop/pkg/domain/types"
)

func TestScore(t *testing.T) {
	t.Run("product for every valid pair", func(t *testing.T) {
		for p := 1; p <= 5; p++ {
			for s := 1; s <= 5; s++ {
				r, err := types.Score(types.Probability(p), types.Severity(s))
				gt.NoError(t, err).Required()
				gt.Value(t, r).Equal(types.Rating(p * s))
				gt.Value(t, types.RequiresEscalation(r)).Equal(p*s >= 12)
			}
		}
	})

	t.Run("out of range input fails", func(t *testing.T) {
		tests := []struct {
			name string
			p    types.Probability
			s    types.Severity
		}{
			{"zero probability", 0, 3},
			{"probability too large", 6, 3},
			{"zero severity", 3, 0},
			{"negative severity", 3, -1},
			{"severity too large", 1, 6},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := types.Score(tt.p, tt.s)
				gt.Error(t, err).Is(types.ErrInvalidInput)
			})
		}
	})

	t.Run("3 x 4 is moderate and escalates", func(t *testing.T) {
		r, err := types.Score(3, 4)
		gt.NoError(t, err).Required()
		gt.Value(t, r).Equal(types.Rating(12))
		gt.Bool(t, types.RequiresEscalation(r)).True()
		gt.Value(t, types.Classify(r)).Equal(types.BandModerate)
	})

	t.Run("2 x 3 is tolerable and does not escalate", func(t *testing.T) {
		r, err := types.Score(2, 3)
		gt.NoError(t, err).Required()
		gt.Bool(t, types.RequiresEscalation(r)).False()
		gt.Value(t, types.Classify(r)).Equal(types.BandTolerable)
	})
}

func TestClassify(t *testing.T) {
	t.Run("named bands partition the rating table", func(t *testing.T) {
		named := []types.Rating{1, 2, 3, 4, 5, 6, 8, 9, 10, 12, 15, 16, 18, 20, 25}
		inTable := map[types.Rating]bool{}
		for _, r := range named {
			inTable[r] = true
		}

		seen := map[types.Rating]types.Band{}
		for _, band := range types.AllBands() {
			for r := types.Rating(1); r <= 25; r++ {
				if types.Classify(r) != band {
					continue
				}
				_, dup := seen[r]
				gt.Bool(t, dup).False()
				seen[r] = band
			}
		}
		gt.Number(t, len(seen)).Equal(len(named))
		for _, r := range named {
			_, ok := seen[r]
			gt.Bool(t, ok).True()
		}

		for r := types.Rating(1); r <= 25; r++ {
			if !inTable[r] {
				gt.Value(t, types.Classify(r)).Equal(types.BandUnclassified)
			}
		}
	})

	t.Run("every achievable product is named", func(t *testing.T) {
		for p := types.Probability(1); p <= 5; p++ {
			for s := types.Severity(1); s <= 5; s++ {
				r, err := types.Score(p, s)
				gt.NoError(t, err).Required()
				gt.Value(t, types.Classify(r)).NotEqual(types.BandUnclassified)
			}
		}
	})

	t.Run("table", func(t *testing.T) {
		tests := []struct {
			ratings []types.Rating
			want    types.Band
		}{
			{[]types.Rating{1, 2, 3, 4, 5}, types.BandTrivial},
			{[]types.Rating{6, 8, 9, 10}, types.BandTolerable},
			{[]types.Rating{12, 15}, types.BandModerate},
			{[]types.Rating{16, 18}, types.BandSubstantial},
			{[]types.Rating{20, 25}, types.BandIntolerable},
			{[]types.Rating{0, 7, 11, 14, 26, -3}, types.BandUnclassified},
		}
		for _, tt := range tests {
			t.Run(tt.want.String(), func(t *testing.T) {
				for _, r := range tt.ratings {
					gt.Value(t, types.Classify(r)).Equal(tt.want)
				}
			})
		}
	})

	t.Run("every named band has a label", func(t *testing.T) {
		for _, b := range types.AllBands() {
			gt.String(t, b.Label()).NotEqual("Unclassified")
		}
	})
}
