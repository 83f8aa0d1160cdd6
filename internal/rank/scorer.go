package rank

// FeatureScorer maps one document's raw text to a single signal value without
// looking at any other document in the batch.
type FeatureScorer interface {
	Score(text string) float64
}
