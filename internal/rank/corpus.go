package rank

import (
	"context"
	"math"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
)

const (
	// NeutralRelative is the relative score given to a document that has no
	// comparable peers in its batch.
	NeutralRelative = 0.5
	// NeutralDuplicate marks a document as not duplicated.
	NeutralDuplicate = 1.0
)

type termWeight struct {
	term   int
	weight float64
}

// tfidfVector is a sparse vector sorted by term index.
type tfidfVector struct {
	terms []termWeight
	norm  float64
}

// Corpus holds the batch-wide similarity signals. Every slice is indexed by
// the document's position in the submitted batch.
type Corpus struct {
	Relative  []float64
	Duplicate []float64
	// Peer is the batch index of the most similar other document, or -1.
	Peer    []int
	PeerSim []float64
	// Excluded marks documents with no indexable tokens (empty or
	// stopword-only); they take no part in TF-IDF or similarity.
	Excluded []bool

	participants []int
	pos          []int // batch index -> participant position, -1 if excluded
	sim          [][]float64
}

// Participants returns how many documents took part in the similarity model.
func (c *Corpus) Participants() int { return len(c.participants) }

// Similarity returns the cosine similarity between two batch documents, or 0
// if either was excluded.
func (c *Corpus) Similarity(i, j int) float64 {
	pi, pj := c.pos[i], c.pos[j]
	if pi < 0 || pj < 0 {
		return 0
	}
	if pi == pj {
		return 1
	}
	return c.sim[pi][pj]
}

// BuildCorpus computes TF-IDF vectors over the batch and derives the relative
// and duplicate signals for every document.
//
// Weights use raw term counts and a smoothed IDF:
//
//	w(t,d) = tf(t,d) * (ln((1+N)/(1+df(t))) + 1)
//
// where N is the number of participating documents. The +1 keeps terms shared
// by every document from vanishing, so two identical texts score 1.0.
func BuildCorpus(ctx context.Context, texts []string, dupThreshold float64) (*Corpus, error) {
	n := len(texts)
	c := &Corpus{
		Relative:  make([]float64, n),
		Duplicate: make([]float64, n),
		Peer:      make([]int, n),
		PeerSim:   make([]float64, n),
		Excluded:  make([]bool, n),
		pos:       make([]int, n),
	}

	vocab := make(map[string]int)
	var counts []map[int]int
	for i, text := range texts {
		c.Relative[i] = NeutralRelative
		c.Duplicate[i] = NeutralDuplicate
		c.Peer[i] = -1
		c.pos[i] = -1

		toks := Tokenize(text)
		if len(toks) == 0 {
			c.Excluded[i] = true
			continue
		}

		tf := make(map[int]int, len(toks))
		for _, tok := range toks {
			id, ok := vocab[tok]
			if !ok {
				id = len(vocab)
				vocab[tok] = id
			}
			tf[id]++
		}
		c.pos[i] = len(c.participants)
		c.participants = append(c.participants, i)
		counts = append(counts, tf)
	}

	m := len(c.participants)
	if m < 2 {
		return c, nil
	}

	df := make([]int, len(vocab))
	for _, tf := range counts {
		for id := range tf {
			df[id]++
		}
	}
	idf := make([]float64, len(vocab))
	for id, d := range df {
		idf[id] = math.Log(float64(1+m)/float64(1+d)) + 1
	}

	vecs := make([]tfidfVector, m)
	for p, tf := range counts {
		terms := make([]termWeight, 0, len(tf))
		for id, cnt := range tf {
			terms = append(terms, termWeight{term: id, weight: float64(cnt) * idf[id]})
		}
		sort.Slice(terms, func(a, b int) bool { return terms[a].term < terms[b].term })

		sq := 0.0
		for _, tw := range terms {
			sq += tw.weight * tw.weight
		}
		vecs[p] = tfidfVector{terms: terms, norm: math.Sqrt(sq)}
	}

	c.sim = make([][]float64, m)
	for p := range c.sim {
		c.sim[p] = make([]float64, m)
		c.sim[p][p] = 1
	}

	// Row p owns cells (p,q) and (q,p) for q > p, so no cell is written twice.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for p := 0; p < m; p++ {
		p := p
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for q := p + 1; q < m; q++ {
				s := cosine(vecs[p], vecs[q])
				c.sim[p][q] = s
				c.sim[q][p] = s
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for p, idx := range c.participants {
		sum := 0.0
		best, bestSim := -1, -1.0
		for q := 0; q < m; q++ {
			if q == p {
				continue
			}
			s := c.sim[p][q]
			sum += s
			if s > bestSim {
				best, bestSim = q, s
			}
		}
		c.Relative[idx] = sum / float64(m-1)
		c.Peer[idx] = c.participants[best]
		c.PeerSim[idx] = bestSim
		if bestSim > dupThreshold {
			c.Duplicate[idx] = 0
		}
	}

	return c, nil
}

// cosine is the dot product over shared terms divided by both L2 norms,
// defined as 0 when either vector is empty.
func cosine(a, b tfidfVector) float64 {
	if a.norm == 0 || b.norm == 0 {
		return 0
	}

	dot := 0.0
	i, j := 0, 0
	for i < len(a.terms) && j < len(b.terms) {
		switch {
		case a.terms[i].term == b.terms[j].term:
			dot += a.terms[i].weight * b.terms[j].weight
			i++
			j++
		case a.terms[i].term < b.terms[j].term:
			i++
		default:
			j++
		}
	}

	s := dot / (a.norm * b.norm)
	if s > 1 {
		return 1
	}
	if s < 0 {
		return 0
	}
	return s
}
