package rank

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"resumerank-engine/internal/config"
	"resumerank-engine/internal/domain"
)

// Engine scores and ranks batches of resumes. Its lexicon and rule tables are
// fixed at construction, so one Engine may serve concurrent Rank calls.
type Engine struct {
	partial     PartialCreditScorer
	penalty     KeywordPenaltyScorer
	consistency ConsistencyScorer

	weights      WeightSet
	dupThreshold float64
	output       config.Output

	logger *slog.Logger
}

func New(cfg config.Scoring, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	def := config.DefaultScoring()

	// Each weight falls back on its own; a set that is still all zero
	// falls back as a whole.
	weights := WeightSetFromConfig(cfg.Weights)
	defWeights := WeightSetFromConfig(def.Weights)
	for _, name := range signalNames {
		if v := weights.field(name); !validWeight(*v) {
			*v = *defWeights.field(name)
		}
	}
	if weights.Sum() <= 0 {
		weights = defWeights
	}

	lex := cfg.Lexicon
	lex.WeakIncrement = orDefault(lex.WeakIncrement, def.Lexicon.WeakIncrement)
	lex.StrongIncrement = orDefault(lex.StrongIncrement, def.Lexicon.StrongIncrement)
	lex.Cap = orDefault(lex.Cap, def.Lexicon.Cap)
	penaltyFactor := orDefault(cfg.PenaltyFactor, def.PenaltyFactor)

	dup := cfg.DuplicateThreshold
	if !(dup > 0 && dup <= 1) {
		dup = def.DuplicateThreshold
	}
	out := cfg.Output
	if out.High <= out.Low {
		out.Low, out.High = def.Output.Low, def.Output.High
	}
	if !validWeight(out.Epsilon) || out.Epsilon == 0 {
		out.Epsilon = def.Output.Epsilon
	}

	return &Engine{
		partial:      NewPartialCreditScorer(lex),
		penalty:      KeywordPenaltyScorer{Factor: penaltyFactor},
		consistency:  NewConsistencyScorer(cfg.ConsistencyRules),
		weights:      weights,
		dupThreshold: dup,
		output:       out,
		logger:       logger.With("component", "rank"),
	}
}

// DefaultWeights returns the engine's configured weights before overrides.
func (e *Engine) DefaultWeights() WeightSet { return e.weights }

// Output returns the score range used for normalization.
func (e *Engine) Output() config.Output { return e.output }

// Rank scores docs and returns them best first. Overrides are optional weight
// values keyed by signal name. Documents with blank text are still scored
// and reported but take no part in the similarity model; ErrEmptyBatch is
// returned only if no document has any text at all.
func (e *Engine) Rank(ctx context.Context, docs []domain.Document, overrides map[string]any) (domain.Ranking, error) {
	start := time.Now()

	scoreable := 0
	for _, d := range docs {
		if strings.TrimSpace(d.Text) != "" {
			scoreable++
		}
	}
	if scoreable == 0 {
		return domain.Ranking{}, fmt.Errorf("rank %d document(s): %w", len(docs), ErrEmptyBatch)
	}
	names := make(map[string]struct{}, len(docs))
	for _, d := range docs {
		if _, dup := names[d.Name]; dup {
			return domain.Ranking{}, fmt.Errorf("rank: %q: %w", d.Name, ErrDuplicateName)
		}
		names[d.Name] = struct{}{}
	}

	weights, issues := ResolveWeights(e.weights, overrides)
	for _, is := range issues {
		e.logger.Warn("weight override ignored", "key", is.Key, "reason", is.Message)
	}

	features, err := e.scoreFeatures(ctx, docs)
	if err != nil {
		return domain.Ranking{}, fmt.Errorf("score features: %w", err)
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Text
	}
	corpus, err := BuildCorpus(ctx, texts, e.dupThreshold)
	if err != nil {
		return domain.Ranking{}, fmt.Errorf("build corpus: %w", err)
	}

	records := make([]domain.ScoreRecord, len(docs))
	for i, d := range docs {
		raw := features[i]
		raw.Relative = corpus.Relative[i]
		raw.Duplicate = corpus.Duplicate[i]

		weighted, total := Composite(raw, weights)
		rec := domain.ScoreRecord{
			Filename:           d.Name,
			Index:              i,
			Breakdown:          raw,
			Weighted:           weighted,
			RawScore:           total,
			ExcludedFromCorpus: corpus.Excluded[i],
		}
		if p := corpus.Peer[i]; p >= 0 {
			rec.ClosestPeer = docs[p].Name
			rec.ClosestSimilarity = corpus.PeerSim[i]
		}
		records[i] = rec
	}

	minRaw, maxRaw, degenerate := Normalize(records, e.output)
	Order(records)

	e.logger.Debug("batch ranked",
		"documents", len(docs),
		"participants", corpus.Participants(),
		"degenerate", degenerate,
		"dur_ms", time.Since(start).Milliseconds(),
	)

	return domain.Ranking{
		Weights: weights.Signals(),
		Records: records,
		Issues:  issues,
		Stats: domain.RankStats{
			Documents:    len(docs),
			Participants: corpus.Participants(),
			MinRaw:       minRaw,
			MaxRaw:       maxRaw,
			Degenerate:   degenerate,
		},
	}, nil
}

// scoreFeatures runs the per-document scorers concurrently and returns the
// results in batch order. Relative and Duplicate are left zero.
func (e *Engine) scoreFeatures(ctx context.Context, docs []domain.Document) ([]domain.Signals, error) {
	out := make([]domain.Signals, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, d := range docs {
		i, d := i, d
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = domain.Signals{
				Partial:     e.partial.Score(d.Text),
				Penalty:     e.penalty.Score(d.Text),
				Consistency: e.consistency.Score(d.Text),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
