// Package keywords extracts scored key phrases from document chunks through a
// pluggable Scorer and shapes the results into a deduplicated keyword set.
package keywords

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/dgallion1/docsift/internal/doctree"
	"github.com/dgallion1/docsift/internal/llm"
)

// NgramRange bounds the phrase length, in words, a scorer may return.
type NgramRange struct {
	Min int
	Max int
}

// Scorer ranks candidate phrases of text and returns at most n of them.
type Scorer interface {
	Score(ctx context.Context, text string, ngram NgramRange, n int) ([]doctree.Keyword, error)
}

// Extractor adapts a Scorer to the pipeline. Scorer failures never escape:
// they are logged and produce an empty set.
type Extractor struct {
	Scorer   Scorer
	TopN     int
	Ngram    NgramRange
	MinScore float64 // > 0 keeps only phrases scoring strictly above it
	Timeout  time.Duration
	Log      *slog.Logger
}

// NewExtractor returns an Extractor with the default top-10, 1-2 word settings.
func NewExtractor(s Scorer, log *slog.Logger) *Extractor {
	if log == nil {
		log = slog.Default()
	}
	return &Extractor{
		Scorer: s,
		TopN:   10,
		Ngram:  NgramRange{Min: 1, Max: 2},
		Log:    log,
	}
}

func (e *Extractor) logger() *slog.Logger {
	if e.Log == nil {
		return slog.Default()
	}
	return e.Log
}

// Extract scores one text and returns at most TopN keywords, highest first.
func (e *Extractor) Extract(ctx context.Context, text string) []doctree.Keyword {
	if e.Scorer == nil || strings.TrimSpace(text) == "" {
		return []doctree.Keyword{}
	}
	topN := e.TopN
	if topN <= 0 {
		topN = 10
	}
	ngram := e.Ngram
	if ngram.Min <= 0 {
		ngram.Min = 1
	}
	if ngram.Max < ngram.Min {
		ngram.Max = ngram.Min
	}

	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	scored, err := e.Scorer.Score(ctx, text, ngram, topN)
	if err != nil {
		e.logger().Warn("keyword extraction failed", "error", err)
		return []doctree.Keyword{}
	}

	out := make([]doctree.Keyword, 0, len(scored))
	for _, kw := range scored {
		kw.Phrase = strings.TrimSpace(kw.Phrase)
		if kw.Phrase == "" {
			continue
		}
		if e.MinScore > 0 && kw.Score <= e.MinScore {
			continue
		}
		out = append(out, kw)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > topN {
		out = out[:topN]
	}
	return out
}

// ExtractChunks runs Extract over every chunk and returns the union of the
// phrases, deduplicated case-insensitively in first-seen order.
func (e *Extractor) ExtractChunks(ctx context.Context, chunks []doctree.Chunk) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, c := range chunks {
		if ctx.Err() != nil {
			break
		}
		for _, kw := range e.Extract(ctx, c.Text) {
			key := strings.ToLower(kw.Phrase)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, kw.Phrase)
		}
	}
	return out
}

// Timed records every Score call of s in stats under "keywords".
func Timed(s Scorer, stats *llm.Stats) Scorer {
	if stats == nil {
		return s
	}
	return timedScorer{next: s, stats: stats}
}

type timedScorer struct {
	next  Scorer
	stats *llm.Stats
}

func (t timedScorer) Score(ctx context.Context, text string, ngram NgramRange, n int) ([]doctree.Keyword, error) {
	start := time.Now()
	out, err := t.next.Score(ctx, text, ngram, n)
	t.stats.Observe("keywords", time.Since(start), err)
	return out, err
}
