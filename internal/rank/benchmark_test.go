package rank

import (
	"context"
	"fmt"
	"testing"

	"resumerank-engine/internal/config"
	"resumerank-engine/internal/domain"
)

func benchBatch(n int) []domain.Document {
	skills := []string{"python", "golang", "java", "sql", "docker", "aws", "react", "pytorch"}
	out := make([]domain.Document, n)
	for i := range out {
		out[i] = domain.Document{
			Name: fmt.Sprintf("resume-%03d.txt", i),
			Text: fmt.Sprintf(
				"senior %s engineer with %d years building %s services, familiar with %s and cloud deploy pipelines",
				skills[i%len(skills)], i%15, skills[(i+3)%len(skills)], skills[(i+5)%len(skills)],
			),
		}
	}
	return out
}

// BenchmarkPartialCredit benchmarks lexicon matching on one document.
func BenchmarkPartialCredit(b *testing.B) {
	s := NewPartialCreditScorer(config.DefaultScoring().Lexicon)
	text := benchBatch(1)[0].Text

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Score(text)
	}
}

// BenchmarkBuildCorpus benchmarks TF-IDF and pairwise similarity for 100 documents.
func BenchmarkBuildCorpus(b *testing.B) {
	batch := benchBatch(100)
	texts := make([]string, len(batch))
	for i, d := range batch {
		texts[i] = d.Text
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := BuildCorpus(context.Background(), texts, 0.9); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkRank benchmarks a full ranking run for 100 documents.
func BenchmarkRank(b *testing.B) {
	e := New(config.DefaultScoring(), nil)
	batch := benchBatch(100)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := e.Rank(context.Background(), batch, nil); err != nil {
			b.Fatal(err)
		}
	}
}
