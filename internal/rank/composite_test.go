package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"resumerank-engine/internal/config"
	"resumerank-engine/internal/domain"
)

var defaultOutput = config.Output{Low: 20, High: 100, Epsilon: 1e-4}

func TestComposite(t *testing.T) {
	raw := domain.Signals{Partial: 1, Relative: 0.5, Penalty: -0.1, Consistency: 2, Duplicate: 1}
	weighted, total := Composite(raw, DefaultWeights())

	assert.InDelta(t, 0.30, weighted.Partial, 1e-12)
	assert.InDelta(t, 0.10, weighted.Relative, 1e-12)
	assert.InDelta(t, -0.01, weighted.Penalty, 1e-12)
	assert.InDelta(t, 0.40, weighted.Consistency, 1e-12)
	assert.InDelta(t, 0.20, weighted.Duplicate, 1e-12)
	assert.InDelta(t, 0.99, total, 1e-12)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name           string
		raws           []float64
		want           []int
		wantDegenerate bool
	}{
		{name: "spread", raws: []float64{0.695, 0.42}, want: []int{100, 20}},
		{name: "midpoint", raws: []float64{0, 0.5, 1}, want: []int{20, 60, 100}},
		{name: "negative raws", raws: []float64{-1, -0.5}, want: []int{20, 100}},
		{name: "rounding", raws: []float64{0, 0.01, 1}, want: []int{20, 21, 100}},
		{name: "single", raws: []float64{0.7}, want: []int{60}, wantDegenerate: true},
		{name: "within epsilon", raws: []float64{0.5, 0.50005}, want: []int{60, 60}, wantDegenerate: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := make([]domain.ScoreRecord, len(tt.raws))
			for i, r := range tt.raws {
				records[i].RawScore = r
			}

			_, _, degenerate := Normalize(records, defaultOutput)

			assert.Equal(t, tt.wantDegenerate, degenerate)
			for i, r := range records {
				assert.Equal(t, tt.want[i], r.FinalScore, "record %d", i)
			}
		})
	}
}

func TestNormalize_CustomRange(t *testing.T) {
	records := []domain.ScoreRecord{{RawScore: 1}, {RawScore: 3}}
	minRaw, maxRaw, _ := Normalize(records, config.Output{Low: 0, High: 10, Epsilon: 1e-4})

	assert.Equal(t, 1.0, minRaw)
	assert.Equal(t, 3.0, maxRaw)
	assert.Equal(t, 0, records[0].FinalScore)
	assert.Equal(t, 10, records[1].FinalScore)
}

func TestOrder_StableOnTies(t *testing.T) {
	records := []domain.ScoreRecord{
		{Filename: "a", FinalScore: 60},
		{Filename: "b", FinalScore: 90},
		{Filename: "c", FinalScore: 60},
		{Filename: "d", FinalScore: 20},
	}
	Order(records)

	var names []string
	var ranks []int
	for _, r := range records {
		names = append(names, r.Filename)
		ranks = append(ranks, r.Rank)
	}
	assert.Equal(t, []string{"b", "a", "c", "d"}, names)
	assert.Equal(t, []int{1, 2, 3, 4}, ranks)
}
