package rank

import (
	"math"
	"sort"

	"resumerank-engine/internal/config"
	"resumerank-engine/internal/domain"
)

// Composite returns the per-signal weighted contributions and their sum. The
// sum is not clamped and may be negative.
func Composite(raw domain.Signals, w WeightSet) (domain.Signals, float64) {
	weighted := domain.Signals{
		Partial:     w.Partial * raw.Partial,
		Relative:    w.Relative * raw.Relative,
		Penalty:     w.Penalty * raw.Penalty,
		Consistency: w.Consistency * raw.Consistency,
		Duplicate:   w.Duplicate * raw.Duplicate,
	}
	return weighted, weighted.Sum()
}

// Normalize min-max rescales RawScore onto [out.Low, out.High] and writes
// FinalScore. When the spread is within out.Epsilon every record gets the
// midpoint of the range. It reports whether the batch was degenerate.
func Normalize(records []domain.ScoreRecord, out config.Output) (minRaw, maxRaw float64, degenerate bool) {
	if len(records) == 0 {
		return 0, 0, true
	}

	minRaw, maxRaw = records[0].RawScore, records[0].RawScore
	for _, r := range records[1:] {
		minRaw = math.Min(minRaw, r.RawScore)
		maxRaw = math.Max(maxRaw, r.RawScore)
	}

	low, high := float64(out.Low), float64(out.High)
	spread := maxRaw - minRaw
	if spread <= out.Epsilon {
		mid := int(math.Round((low + high) / 2))
		for i := range records {
			records[i].FinalScore = mid
		}
		return minRaw, maxRaw, true
	}

	for i := range records {
		scaled := low + (records[i].RawScore-minRaw)/spread*(high-low)
		records[i].FinalScore = int(math.Round(scaled))
	}
	return minRaw, maxRaw, false
}

// Order sorts records best first, keeping batch order among equal scores, and
// assigns 1-based ranks.
func Order(records []domain.ScoreRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].FinalScore > records[j].FinalScore
	})
	for i := range records {
		records[i].Rank = i + 1
	}
}
