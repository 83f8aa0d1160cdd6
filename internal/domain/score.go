package domain

// Signals holds one value per scoring signal. It is used both for the raw
// feature values and for the weighted contributions of a ScoreRecord.
type Signals struct {
	Partial     float64 `json:"partial"`
	Relative    float64 `json:"relative"`
	Penalty     float64 `json:"penalty"`
	Consistency float64 `json:"consistency"`
	Duplicate   float64 `json:"duplicate"`
}

// Sum adds the five values in a fixed order.
func (s Signals) Sum() float64 {
	return s.Partial + s.Relative + s.Penalty + s.Consistency + s.Duplicate
}

type ScoreRecord struct {
	Filename   string  `json:"filename"`
	Breakdown  Signals `json:"breakdown"`
	Weighted   Signals `json:"weighted"`
	RawScore   float64 `json:"rawScore"`
	FinalScore int     `json:"finalScore"`
	Rank       int     `json:"rank"`

	// Index is the document's position in the submitted batch.
	Index int `json:"index"`

	// ClosestPeer is the name of the most similar document in the batch, empty
	// when the document had no comparable peers.
	ClosestPeer       string  `json:"closestPeer,omitempty"`
	ClosestSimilarity float64 `json:"closestSimilarity,omitempty"`

	ExcludedFromCorpus bool `json:"excludedFromCorpus,omitempty"`
}

type Issue struct {
	Kind    string `json:"kind"`
	Key     string `json:"key,omitempty"`
	Message string `json:"message"`
}

type RankStats struct {
	Documents    int     `json:"documents"`
	Participants int     `json:"participants"`
	MinRaw       float64 `json:"minRaw"`
	MaxRaw       float64 `json:"maxRaw"`
	Degenerate   bool    `json:"degenerate"`
}

// Ranking is the full result of one scoring run, records ordered best first.
type Ranking struct {
	Weights Signals       `json:"weights"`
	Records []ScoreRecord `json:"records"`
	Issues  []Issue       `json:"issues,omitempty"`
	Stats   RankStats     `json:"stats"`
}
