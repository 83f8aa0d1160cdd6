package rank

import (
	"context"
	"io"
	"log/slog"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumerank-engine/internal/config"
	"resumerank-engine/internal/domain"
)

func newTestEngine() *Engine {
	return New(config.DefaultScoring(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func docs(texts ...string) []domain.Document {
	out := make([]domain.Document, len(texts))
	for i, t := range texts {
		out[i] = domain.Document{Name: string(rune('a'+i)) + ".txt", Text: t}
	}
	return out
}

func byName(r domain.Ranking) map[string]domain.ScoreRecord {
	m := make(map[string]domain.ScoreRecord, len(r.Records))
	for _, rec := range r.Records {
		m[rec.Filename] = rec
	}
	return m
}

func TestRank_EmptyBatch(t *testing.T) {
	e := newTestEngine()

	_, err := e.Rank(context.Background(), nil, nil)
	assert.ErrorIs(t, err, ErrEmptyBatch)

	_, err = e.Rank(context.Background(), docs("", "  \n\t"), nil)
	assert.ErrorIs(t, err, ErrEmptyBatch)
}

func TestRank_ExpertBeatsBasic(t *testing.T) {
	e := newTestEngine()
	got, err := e.Rank(context.Background(), docs(
		"expert python developer built a project",
		"basic learning exposure",
	), nil)
	require.NoError(t, err)

	require.Len(t, got.Records, 2)
	first, second := got.Records[0], got.Records[1]
	assert.Equal(t, "a.txt", first.Filename)
	assert.Greater(t, first.Breakdown.Partial, second.Breakdown.Partial)

	assert.InDelta(t, 1.0, first.Breakdown.Partial, 1e-9)
	assert.InDelta(t, -0.05, first.Breakdown.Penalty, 1e-9)
	assert.InDelta(t, 1.0, first.Breakdown.Consistency, 1e-9)
	assert.InDelta(t, 0.695, first.RawScore, 1e-9)
	assert.InDelta(t, 0.42, second.RawScore, 1e-9)

	assert.Equal(t, 100, first.FinalScore)
	assert.Equal(t, 20, second.FinalScore)
	assert.Equal(t, 1, first.Rank)
	assert.Equal(t, 2, second.Rank)
	assert.False(t, got.Stats.Degenerate)
}

func TestRank_SingleDocument(t *testing.T) {
	e := newTestEngine()
	got, err := e.Rank(context.Background(), docs("senior golang engineer"), nil)
	require.NoError(t, err)

	require.Len(t, got.Records, 1)
	rec := got.Records[0]
	assert.Equal(t, NeutralRelative, rec.Breakdown.Relative)
	assert.Equal(t, NeutralDuplicate, rec.Breakdown.Duplicate)
	assert.Equal(t, 60, rec.FinalScore)
	assert.Empty(t, rec.ClosestPeer)
	assert.True(t, got.Stats.Degenerate)
	assert.Equal(t, 1, got.Stats.Participants)
}

func TestRank_IdenticalPair(t *testing.T) {
	e := newTestEngine()
	text := "proficient java engineer, spring backend microservice work"
	got, err := e.Rank(context.Background(), docs(text, text), nil)
	require.NoError(t, err)

	for _, rec := range got.Records {
		assert.Equal(t, 0.0, rec.Breakdown.Duplicate)
		assert.InDelta(t, 1.0, rec.Breakdown.Relative, 1e-9)
		assert.Equal(t, 60, rec.FinalScore)
	}
	assert.Equal(t, "a.txt", got.Records[0].Filename)
	assert.Equal(t, "b.txt", got.Records[0].ClosestPeer)
	assert.True(t, got.Stats.Degenerate)
}

func TestRank_DuplicateTriple(t *testing.T) {
	e := newTestEngine()
	copied := "certified aws architect, deployed lambda services to the cloud"
	got, err := e.Rank(context.Background(), docs(
		copied,
		"novice pastry chef familiar with sourdough",
		copied,
	), nil)
	require.NoError(t, err)

	recs := byName(got)
	assert.Equal(t, 0.0, recs["a.txt"].Breakdown.Duplicate)
	assert.Equal(t, 1.0, recs["b.txt"].Breakdown.Duplicate)
	assert.Equal(t, 0.0, recs["c.txt"].Breakdown.Duplicate)
	assert.Equal(t, "c.txt", recs["a.txt"].ClosestPeer)
}

func TestRank_ZeroWeightsFallBackToDefaults(t *testing.T) {
	e := newTestEngine()
	zero := map[string]any{
		"partial": 0, "relative": 0, "penalty": 0, "consistency": 0, "duplicate": 0,
	}
	got, err := e.Rank(context.Background(), docs(
		"expert python developer built a project",
		"basic learning exposure",
	), zero)
	require.NoError(t, err)

	def := DefaultWeights()
	assert.InDelta(t, def.Partial, got.Weights.Partial, 1e-9)
	assert.InDelta(t, def.Relative, got.Weights.Relative, 1e-9)
	assert.InDelta(t, def.Penalty, got.Weights.Penalty, 1e-9)
	assert.InDelta(t, def.Consistency, got.Weights.Consistency, 1e-9)
	assert.InDelta(t, def.Duplicate, got.Weights.Duplicate, 1e-9)
	assert.Empty(t, got.Issues)
	for _, rec := range got.Records {
		assert.NotZero(t, rec.Weighted.Sum())
		assert.InDelta(t, rec.RawScore, rec.Weighted.Sum(), 1e-12)
		assert.InDelta(t, 0.3*rec.Breakdown.Partial, rec.Weighted.Partial, 1e-12)
	}
}

func TestRank_InvalidWeightIsReported(t *testing.T) {
	e := newTestEngine()
	got, err := e.Rank(context.Background(), docs("go engineer", "rust engineer"),
		map[string]any{"partial": "a lot", "relative": 0.4})
	require.NoError(t, err)

	require.Len(t, got.Issues, 1)
	assert.Equal(t, IssueInvalidWeight, got.Issues[0].Kind)
	assert.Equal(t, SignalPartial, got.Issues[0].Key)
	assert.InDelta(t, 1.0, got.Weights.Sum(), 1e-6)
}

func TestRank_BlankDocumentIsScoredButExcluded(t *testing.T) {
	e := newTestEngine()
	got, err := e.Rank(context.Background(), docs(
		"senior go engineer",
		"",
		"go developer with grpc",
	), nil)
	require.NoError(t, err)

	require.Len(t, got.Records, 3)
	assert.Equal(t, 3, got.Stats.Documents)
	assert.Equal(t, 2, got.Stats.Participants)

	blank := byName(got)["b.txt"]
	assert.True(t, blank.ExcludedFromCorpus)
	assert.Equal(t, NeutralRelative, blank.Breakdown.Relative)
	assert.Equal(t, 0.0, blank.Breakdown.Penalty)
}

func TestRank_ScoresWithinRange(t *testing.T) {
	e := newTestEngine()
	got, err := e.Rank(context.Background(), docs(
		"expert expert expert python python python",
		"basic exposure to sql databases",
		"the",
		"senior golang engineer: grpc microservice concurrency",
		"advanced machine learning model training with pytorch on a large dataset",
	), nil)
	require.NoError(t, err)

	for i, rec := range got.Records {
		assert.GreaterOrEqual(t, rec.FinalScore, 20)
		assert.LessOrEqual(t, rec.FinalScore, 100)
		assert.Equal(t, i+1, rec.Rank)
		if i > 0 {
			assert.LessOrEqual(t, rec.FinalScore, got.Records[i-1].FinalScore)
		}
	}
}

func TestRank_Idempotent(t *testing.T) {
	e := newTestEngine()
	batch := docs(
		"expert python developer built a project",
		"basic learning exposure",
		"docker kubernetes container platform",
		"docker kubernetes container platform",
		"",
	)
	weights := map[string]any{"relative": "0.5"}

	a, err := e.Rank(context.Background(), batch, weights)
	require.NoError(t, err)
	b, err := e.Rank(context.Background(), batch, weights)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestRank_Concurrent(t *testing.T) {
	e := newTestEngine()
	batch := docs("go engineer", "go developer", "chef")

	want, err := e.Rank(context.Background(), batch, nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]domain.Ranking, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = e.Rank(context.Background(), batch, nil)
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, want, got)
	}
}

func TestNew_FillsInvalidTables(t *testing.T) {
	e := New(config.Scoring{}, nil)

	assert.Equal(t, DefaultWeights(), e.DefaultWeights())
	assert.Equal(t, config.DefaultScoring().Output, e.Output())
	assert.Equal(t, 0.9, e.dupThreshold)
}

func TestNew_ReplacesBadValuesPerField(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Scoring)
	}{
		{"negative weight", func(s *config.Scoring) { s.Weights.Partial = -0.5 }},
		{"nan weight", func(s *config.Scoring) { s.Weights.Partial = math.NaN() }},
		{"inf weight", func(s *config.Scoring) { s.Weights.Partial = math.Inf(1) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := config.DefaultScoring()
			sc.Weights.Relative = 0.5
			tt.mutate(&sc)
			e := New(sc, nil)

			w := e.DefaultWeights()
			assert.Equal(t, 0.3, w.Partial)
			assert.Equal(t, 0.5, w.Relative)

			// an invalid override falls back to the cleaned default
			r, err := e.Rank(context.Background(), docs(
				"expert python developer built a project",
				"basic learning exposure",
			), map[string]any{"partial": "oops"})
			require.NoError(t, err)
			rw := r.Weights
			require.NoError(t, WeightSet{
				Partial: rw.Partial, Relative: rw.Relative, Penalty: rw.Penalty,
				Consistency: rw.Consistency, Duplicate: rw.Duplicate,
			}.Validate())
			for _, rec := range r.Records {
				assert.False(t, math.IsNaN(rec.RawScore))
				assert.GreaterOrEqual(t, rec.FinalScore, 20)
				assert.LessOrEqual(t, rec.FinalScore, 100)
			}
		})
	}
}

func TestNew_ReplacesBadTables(t *testing.T) {
	sc := config.DefaultScoring()
	sc.Lexicon.WeakIncrement = -1
	sc.Lexicon.StrongIncrement = math.NaN()
	sc.Lexicon.Cap = math.Inf(1)
	sc.PenaltyFactor = -0.05
	sc.DuplicateThreshold = math.NaN()
	sc.Output.Epsilon = math.NaN()

	e := New(sc, nil)
	def := config.DefaultScoring()

	assert.Equal(t, def.Lexicon.WeakIncrement, e.partial.WeakIncrement)
	assert.Equal(t, def.Lexicon.StrongIncrement, e.partial.StrongIncrement)
	assert.Equal(t, def.Lexicon.Cap, e.partial.Cap)
	assert.Equal(t, def.PenaltyFactor, e.penalty.Factor)
	assert.Equal(t, def.DuplicateThreshold, e.dupThreshold)
	assert.Equal(t, def.Output.Epsilon, e.Output().Epsilon)
}

func TestRank_DuplicateNames(t *testing.T) {
	e := newTestEngine()
	batch := []domain.Document{
		{Name: "a.txt", Text: "golang developer"},
		{Name: "b.txt", Text: "python developer"},
		{Name: "a.txt", Text: "java developer"},
	}

	_, err := e.Rank(context.Background(), batch, nil)
	assert.ErrorIs(t, err, ErrDuplicateName)
	assert.Contains(t, err.Error(), `"a.txt"`)
}
