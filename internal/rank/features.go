package rank

import (
	"strings"

	"resumerank-engine/internal/config"
)

// PartialCreditScorer rewards qualifier words. Each distinct lexicon term
// found in the text counts once, however often it repeats.
type PartialCreditScorer struct {
	Weak            []string
	Strong          []string
	WeakIncrement   float64
	StrongIncrement float64
	Cap             float64
}

func NewPartialCreditScorer(lex config.Lexicon) PartialCreditScorer {
	return PartialCreditScorer{
		Weak:            lowerAll(lex.Weak),
		Strong:          lowerAll(lex.Strong),
		WeakIncrement:   lex.WeakIncrement,
		StrongIncrement: lex.StrongIncrement,
		Cap:             lex.Cap,
	}
}

func (s PartialCreditScorer) Score(text string) float64 {
	lower := strings.ToLower(text)

	score := 0.0
	for _, term := range s.Weak {
		if strings.Contains(lower, term) {
			score += s.WeakIncrement
		}
	}
	for _, term := range s.Strong {
		if strings.Contains(lower, term) {
			score += s.StrongIncrement
		}
	}

	if s.Cap > 0 && score > s.Cap {
		return s.Cap
	}
	return score
}

// KeywordPenaltyScorer punishes keyword stuffing: the result is
// -Factor * (count of the most frequent token).
type KeywordPenaltyScorer struct {
	Factor float64
}

func (s KeywordPenaltyScorer) Score(text string) float64 {
	freq := make(map[string]int)
	maxFreq := 0
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		freq[tok]++
		if freq[tok] > maxFreq {
			maxFreq = freq[tok]
		}
	}
	if maxFreq == 0 {
		return 0
	}
	return -s.Factor * float64(maxFreq)
}

type consistencyPair struct {
	skill   string
	context string
}

// ConsistencyScorer counts (skill, context) pairs that both occur in the
// text, so a claimed skill only earns credit when backed by related work.
type ConsistencyScorer struct {
	pairs []consistencyPair
}

func NewConsistencyScorer(rules []config.ConsistencyRule) ConsistencyScorer {
	seen := map[consistencyPair]bool{}
	var pairs []consistencyPair
	for _, r := range rules {
		skill := strings.ToLower(strings.TrimSpace(r.Skill))
		if skill == "" {
			continue
		}
		for _, c := range r.Contexts {
			p := consistencyPair{skill: skill, context: strings.ToLower(strings.TrimSpace(c))}
			if p.context == "" || seen[p] {
				continue
			}
			seen[p] = true
			pairs = append(pairs, p)
		}
	}
	return ConsistencyScorer{pairs: pairs}
}

func (s ConsistencyScorer) Score(text string) float64 {
	lower := strings.ToLower(text)

	score := 0.0
	for _, p := range s.pairs {
		if strings.Contains(lower, p.skill) && strings.Contains(lower, p.context) {
			score++
		}
	}
	return score
}

func lowerAll(in []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(in))
	for _, t := range in {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
