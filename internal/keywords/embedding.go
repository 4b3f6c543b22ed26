package keywords

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/dgallion1/docsift/internal/doctree"
)

// Embedder turns texts into vectors, one per input, in order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// EmbeddingScorer ranks candidate n-grams by cosine similarity with the
// embedding of the whole text, then diversifies the best Candidates with
// Max-Sum selection.
type EmbeddingScorer struct {
	Embedder   Embedder
	Stopwords  map[string]bool
	Candidates int // size of the pool Max-Sum picks from
	MaxPhrases int // cap on distinct phrases sent to the embedder
}

func NewEmbeddingScorer(e Embedder, stop map[string]bool) *EmbeddingScorer {
	return &EmbeddingScorer{
		Embedder:   e,
		Stopwords:  stop,
		Candidates: 20,
		MaxPhrases: 300,
	}
}

var tokenRe = regexp.MustCompile(`[\p{L}\p{N}]{2,}`)

// candidates returns distinct n-grams built from non-stopword tokens, most
// frequent first, ties in first-seen order.
func (s *EmbeddingScorer) candidates(text string, ngram NgramRange) []string {
	var tokens []string
	for _, tok := range tokenRe.FindAllString(strings.ToLower(text), -1) {
		if s.Stopwords[tok] {
			continue
		}
		tokens = append(tokens, tok)
	}

	freq := make(map[string]int)
	var order []string
	for n := ngram.Min; n <= ngram.Max; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			phrase := strings.Join(tokens[i:i+n], " ")
			if freq[phrase] == 0 {
				order = append(order, phrase)
			}
			freq[phrase]++
		}
	}
	sort.SliceStable(order, func(i, j int) bool { return freq[order[i]] > freq[order[j]] })
	if s.MaxPhrases > 0 && len(order) > s.MaxPhrases {
		order = order[:s.MaxPhrases]
	}
	return order
}

func (s *EmbeddingScorer) Score(ctx context.Context, text string, ngram NgramRange, n int) ([]doctree.Keyword, error) {
	if s.Embedder == nil {
		return nil, errors.New("no embedder configured")
	}
	phrases := s.candidates(text, ngram)
	if len(phrases) == 0 {
		return nil, nil
	}

	vecs, err := s.Embedder.Embed(ctx, append([]string{text}, phrases...))
	if err != nil {
		return nil, fmt.Errorf("embed candidates: %w", err)
	}
	if len(vecs) != len(phrases)+1 {
		return nil, fmt.Errorf("embedder returned %d vectors for %d inputs", len(vecs), len(phrases)+1)
	}
	doc, cand := vecs[0], vecs[1:]

	ranked := make([]int, len(phrases))
	sims := make([]float64, len(phrases))
	for i := range phrases {
		ranked[i] = i
		sims[i] = cosine(doc, cand[i])
	}
	sort.SliceStable(ranked, func(a, b int) bool { return sims[ranked[a]] > sims[ranked[b]] })

	pool := s.Candidates
	if pool < n {
		pool = n
	}
	if pool > len(ranked) {
		pool = len(ranked)
	}
	ranked = ranked[:pool]

	picked := ranked
	if n < len(ranked) {
		picked = maxSum(ranked, cand, n)
	}

	out := make([]doctree.Keyword, 0, len(picked))
	for _, i := range picked {
		out = append(out, doctree.Keyword{Phrase: phrases[i], Score: math.Round(sims[i]*10000) / 10000})
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Score > out[b].Score })
	return out, nil
}

// maxSum picks the n members of pool whose pairwise similarity sum is lowest.
func maxSum(pool []int, vecs [][]float32, n int) []int {
	pair := make([][]float64, len(pool))
	for a := range pool {
		pair[a] = make([]float64, len(pool))
		for b := range pool {
			if a != b {
				pair[a][b] = cosine(vecs[pool[a]], vecs[pool[b]])
			}
		}
	}

	best := math.Inf(1)
	var bestIdx []int
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	for {
		var sum float64
		for a := 0; a < n; a++ {
			for b := a + 1; b < n; b++ {
				sum += pair[idx[a]][idx[b]]
			}
		}
		if sum < best {
			best = sum
			bestIdx = append(bestIdx[:0], idx...)
		}
		// next combination in lexicographic order
		i := n - 1
		for i >= 0 && idx[i] == len(pool)-n+i {
			i--
		}
		if i < 0 {
			break
		}
		idx[i]++
		for j := i + 1; j < n; j++ {
			idx[j] = idx[j-1] + 1
		}
	}

	out := make([]int, len(bestIdx))
	for i, k := range bestIdx {
		out[i] = pool[k]
	}
	return out
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
